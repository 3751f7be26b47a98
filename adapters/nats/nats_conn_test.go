package nats_test

import (
	"errors"
	"testing"

	"github.com/next-trace/scg-event-hub/adapters/nats"
	berr "github.com/next-trace/scg-event-hub/contract/errors"
)

func TestNewWithNATS_EmptyURL(t *testing.T) {
	_, _, err := nats.NewWithNATS(nats.Config{})
	if err == nil {
		t.Fatalf("expected error")
	}

	if !errors.Is(err, berr.ErrTransportNotConfigured) {
		t.Fatalf("want ErrTransportNotConfigured, got %v", err)
	}
}
