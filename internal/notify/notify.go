package notify

import "context"

// Notifier delivers a plain-text alert to an external channel.
type Notifier interface {
	Send(ctx context.Context, text string) error
}

type Multi []Notifier

func (m Multi) Send(ctx context.Context, text string) error {
	var firstErr error
	for _, n := range m {
		if n == nil {
			continue
		}
		if err := n.Send(ctx, text); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// Nop drops every message. Used when no channel is configured.
type Nop struct{}

func (Nop) Send(context.Context, string) error { return nil }
