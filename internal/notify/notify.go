// Package notify fans domain events out to the admin live-update channel
// and to email.
package notify

import (
	"context"
	"errors"
	"fmt"
)

// Event describes a change the admin surfaces should hear about.
type Event struct {
	Entity string
	Action string
	ID     int64
	// UserID is the user the event concerns, or 0.
	UserID int64
	Extra  map[string]any
}

// Type returns the entity_action name used on the wire.
func (e Event) Type() string {
	return fmt.Sprintf("%s_%s", e.Entity, e.Action)
}

// String returns the Extra value for key, or "".
func (e Event) String(key string) string {
	s, _ := e.Extra[key].(string)
	return s
}

// Int returns the Extra value for key, or 0.
func (e Event) Int(key string) int {
	switch v := e.Extra[key].(type) {
	case int:
		return v
	case int64:
		return int(v)
	case float64:
		return int(v)
	}
	return 0
}

type Notifier interface {
	Notify(ctx context.Context, e Event) error
}

// Func adapts a plain function to Notifier.
type Func func(ctx context.Context, e Event) error

func (f Func) Notify(ctx context.Context, e Event) error { return f(ctx, e) }

// Nop discards every event.
type Nop struct{}

func (Nop) Notify(context.Context, Event) error { return nil }

// Multi delivers to every notifier and joins their errors.
type Multi []Notifier

func (m Multi) Notify(ctx context.Context, e Event) error {
	var errs []error
	for _, n := range m {
		if n == nil {
			continue
		}
		if err := n.Notify(ctx, e); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
