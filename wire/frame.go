package wire

import (
	"errors"
	"fmt"

	json "github.com/goccy/go-json"
	"github.com/tidwall/gjson"

	berr "github.com/next-trace/scg-event-hub/contract/errors"
	chub "github.com/next-trace/scg-event-hub/contract/hub"
)

// FrameType names the kind of an inbound frame.
type FrameType string

const (
	FrameCall        FrameType = "call"
	FrameSubscribe   FrameType = "subscribe"
	FrameUnsubscribe FrameType = "unsubscribe"
	FrameDisconnect  FrameType = "disconnect"
	FramePing        FrameType = "ping"
)

// Frame is one decoded inbound request.
// Name fields are carried as sent; emptiness is checked by the session, not the decoder.
type Frame struct {
	Type        FrameType
	ID          string
	EventName   string
	RoutineName string
	Args        chub.Args
}

// Decode parses an inbound frame.
// Malformed JSON or a non-object args value fail with ErrValidation; an unknown type fails with ErrUnknownFrame.
func Decode(data []byte) (Frame, error) {
	if !gjson.ValidBytes(data) {
		return Frame{}, fmt.Errorf("decode frame: %w", berr.ErrValidation)
	}

	root := gjson.ParseBytes(data)
	if !root.IsObject() {
		return Frame{}, fmt.Errorf("decode frame: %w", berr.ErrValidation)
	}

	f := Frame{
		Type: FrameType(root.Get("type").String()),
		ID:   root.Get("id").String(),
	}

	switch f.Type {
	case FrameSubscribe, FrameUnsubscribe:
		f.EventName = root.Get("eventName").String()
	case FrameCall:
		f.RoutineName = root.Get("routineName").String()

		args, err := decodeArgs(root.Get("args"))
		if err != nil {
			return Frame{}, err
		}

		f.Args = args
	case FrameDisconnect, FramePing:
	default:
		return Frame{}, fmt.Errorf("decode frame %q: %w", f.Type, berr.ErrUnknownFrame)
	}

	return f, nil
}

func decodeArgs(r gjson.Result) (chub.Args, error) {
	if !r.Exists() || r.Type == gjson.Null {
		return chub.Args{}, nil
	}

	if !r.IsObject() {
		return nil, fmt.Errorf("decode args: %w", berr.ErrValidation)
	}

	args := chub.Args{}
	if err := json.Unmarshal([]byte(r.Raw), &args); err != nil {
		return nil, fmt.Errorf("decode args: %w", errors.Join(berr.ErrValidation, err))
	}

	return args, nil
}
