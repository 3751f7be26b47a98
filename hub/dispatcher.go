package hub

import (
	"context"
	"fmt"
	"log/slog"

	berr "github.com/next-trace/scg-event-hub/contract/errors"
	chub "github.com/next-trace/scg-event-hub/contract/hub"
)

// RoutineMiddleware wraps routine execution. Middlewares are executed in registration order.
type RoutineMiddleware func(routine string, next chub.RoutineFunc) chub.RoutineFunc

// RoutineNotFoundError rejects a call whose routine is not registered.
type RoutineNotFoundError struct {
	Routine string
}

func (e *RoutineNotFoundError) Error() string {
	return fmt.Sprintf("call %s: %s", e.Routine, berr.ErrRoutineNotFound)
}

func (e *RoutineNotFoundError) Unwrap() error { return berr.ErrRoutineNotFound }

// Dispatcher invokes registered routines off the caller's goroutine.
type Dispatcher struct {
	routines *Routines
	mw       []RoutineMiddleware
	logger   *slog.Logger
}

// NewDispatcher constructs a Dispatcher over routines.
func NewDispatcher(routines *Routines, logger *slog.Logger, mw ...RoutineMiddleware) *Dispatcher {
	return &Dispatcher{routines: routines, mw: mw, logger: orDiscard(logger)}
}

// Call looks routine up and starts it with args, returning at once.
// An unknown routine rejects the future with *RoutineNotFoundError and runs nothing.
// The handler runs outside every registry lock; its error is passed through unchanged.
func (d *Dispatcher) Call(ctx context.Context, routine string, args chub.Args) *Future {
	f := newFuture()

	h, ok := d.routines.Lookup(routine)
	if !ok {
		f.settle(nil, &RoutineNotFoundError{Routine: routine})
		return f
	}

	if args == nil {
		args = chub.Args{}
	}

	go d.invoke(ctx, routine, d.chain(routine, h.Handle), args, f)

	return f
}

func (d *Dispatcher) invoke(ctx context.Context, routine string, call chub.RoutineFunc, args chub.Args, f *Future) {
	defer func() {
		if r := recover(); r != nil {
			d.logger.ErrorContext(ctx, "routine panicked", slog.String("routine", routine), slog.Any("panic", r))
			f.settle(nil, fmt.Errorf("call %s: %w: %v", routine, berr.ErrHandlerPanic, r))
		}
	}()

	res, err := call(ctx, args)
	f.settle(res, err)
}

// chain builds the middleware chain so the first registered middleware runs first.
func (d *Dispatcher) chain(routine string, final chub.RoutineFunc) chub.RoutineFunc {
	for i := len(d.mw) - 1; i >= 0; i-- {
		final = d.mw[i](routine, final)
	}

	return final
}
