package nats_test

import (
	"context"
	"errors"
	"testing"

	"github.com/next-trace/scg-event-hub/adapters/nats"
	berr "github.com/next-trace/scg-event-hub/contract/errors"
	chub "github.com/next-trace/scg-event-hub/contract/hub"
)

type fakeClient struct {
	calls []struct {
		subject string
		data    []byte
		headers map[string]string
	}
	err error
}

func (f *fakeClient) Publish(subject string, data []byte, headers map[string]string) error {
	f.calls = append(f.calls, struct {
		subject string
		data    []byte
		headers map[string]string
	}{subject, data, headers})

	return f.err
}

const conn chub.ConnID = "0192a3f4-conn"

func TestNATS_Send_And_Reply(t *testing.T) {
	fc := &fakeClient{}
	ad := nats.New(fc, "hub")

	if err := ad.Send(t.Context(), conn, "orders.created", []byte(`{"id":1}`)); err != nil {
		t.Fatalf("send: %v", err)
	}

	if len(fc.calls) != 1 {
		t.Fatalf("expected 1 call, got %d", len(fc.calls))
	}

	c := fc.calls[0]
	if c.subject != "hub.deliver."+string(conn) {
		t.Fatalf("subject mismatch: %s", c.subject)
	}

	if string(c.data) != `{"id":1}` {
		t.Fatalf("body mismatch: %s", c.data)
	}

	if c.headers[nats.EventHeader] != "orders.created" {
		t.Fatalf("headers missing or wrong: %+v", c.headers)
	}

	if err := ad.Reply(t.Context(), "_INBOX.abc", []byte(`{"id":"1","result":2}`)); err != nil {
		t.Fatalf("reply: %v", err)
	}

	if len(fc.calls) != 2 {
		t.Fatalf("expected 2 calls, got %d", len(fc.calls))
	}

	r := fc.calls[1]
	if r.subject != "_INBOX.abc" || len(r.headers) != 0 {
		t.Fatalf("reply mismatch: %s %+v", r.subject, r.headers)
	}
}

func TestNATS_DefaultPrefix(t *testing.T) {
	fc := &fakeClient{}

	if err := nats.New(fc, "").Send(t.Context(), conn, "e", nil); err != nil {
		t.Fatalf("send: %v", err)
	}

	if got, want := fc.calls[0].subject, nats.DeliverSubject(nats.DefaultPrefix, conn); got != want {
		t.Fatalf("subject=%s want %s", got, want)
	}
}

func TestNATS_NilClientError(t *testing.T) {
	ad := nats.New(nil, "")

	err := ad.Send(t.Context(), conn, "e", nil)
	if !errors.Is(err, berr.ErrTransportNotConfigured) || !errors.Is(err, berr.ErrSendFailed) {
		t.Fatalf("expected transport error for nil client, got %v", err)
	}

	if err := ad.Reply(t.Context(), "inbox", nil); err == nil {
		t.Fatalf("expected error for nil client")
	}
}

func TestNATS_Publish_ErrorWrapping_And_ContextCancel(t *testing.T) {
	// client returns generic error -> should wrap
	fc := &fakeClient{err: errors.New("boom")}

	err := nats.New(fc, "").Send(t.Context(), conn, "e", nil)
	if !errors.Is(err, berr.ErrSendFailed) {
		t.Fatalf("expected wrapped error, got %v", err)
	}

	// client returns context.Canceled -> propagate as-is
	fc2 := &fakeClient{err: context.Canceled}

	err = nats.New(fc2, "").Send(t.Context(), conn, "e", nil)
	if !errors.Is(err, context.Canceled) || errors.Is(err, berr.ErrSendFailed) {
		t.Fatalf("want bare context.Canceled, got %v", err)
	}

	// cancelled ctx short-circuits before the client is touched
	ctx, cancel := context.WithCancel(t.Context())
	cancel()

	fc3 := &fakeClient{}
	if err := nats.New(fc3, "").Send(ctx, conn, "e", nil); !errors.Is(err, context.Canceled) {
		t.Fatalf("want context.Canceled, got %v", err)
	}

	if len(fc3.calls) != 0 {
		t.Fatalf("client called with cancelled ctx")
	}
}

func TestNATS_Subjects(t *testing.T) {
	if got := nats.ConnectSubject("p"); got != "p.connect" {
		t.Fatalf("connect=%s", got)
	}

	if got := nats.SessionSubject("p", "c1"); got != "p.session.c1" {
		t.Fatalf("session=%s", got)
	}

	if got := nats.DeliverSubject("p", "c1"); got != "p.deliver.c1" {
		t.Fatalf("deliver=%s", got)
	}
}

type staticPropagator map[string]string

func (p staticPropagator) Inject(_ context.Context, headers map[string]string) {
	for k, v := range p {
		headers[k] = v
	}
}

func TestNATS_PropagatorOnDeliveriesOnly(t *testing.T) {
	fc := &fakeClient{}
	ad := nats.New(fc, "")
	ad.Propagator = staticPropagator{"traceparent": "00-abc-01"}

	if err := ad.Send(t.Context(), conn, "e", nil); err != nil {
		t.Fatalf("send: %v", err)
	}

	if err := ad.Reply(t.Context(), "inbox", nil); err != nil {
		t.Fatalf("reply: %v", err)
	}

	if fc.calls[0].headers["traceparent"] != "00-abc-01" {
		t.Fatalf("delivery headers: %+v", fc.calls[0].headers)
	}

	if fc.calls[1].headers != nil {
		t.Fatalf("reply headers: %+v", fc.calls[1].headers)
	}
}
