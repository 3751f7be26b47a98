package main

import (
	"context"
	"fmt"

	berr "github.com/next-trace/scg-event-hub/contract/errors"
	chub "github.com/next-trace/scg-event-hub/contract/hub"
	"github.com/next-trace/scg-event-hub/hub"
)

// registerBuiltins installs the routines every hub server offers: introspection and hub.publish,
// through which clients broadcast to the subscribers of an event.
func registerBuiltins(h *hub.Hub) {
	h.RegisterFunc("hub.publish", func(ctx context.Context, args chub.Args) (any, error) {
		event, _ := args["event"].(string)
		if event == "" {
			return nil, fmt.Errorf("hub.publish: %w: %w", berr.ErrMissingEventName, berr.ErrValidation)
		}

		if err := h.Publish(ctx, event, args["message"]); err != nil {
			return nil, err
		}

		return map[string]int{"subscribers": len(h.SubscribersOf(event))}, nil
	})

	h.RegisterFunc("hub.stats", func(context.Context, chub.Args) (any, error) {
		return h.Stats(), nil
	})

	h.RegisterFunc("hub.events", func(context.Context, chub.Args) (any, error) {
		return h.Events(), nil
	})

	h.RegisterFunc("hub.routines", func(context.Context, chub.Args) (any, error) {
		return h.Routines(), nil
	})
}
