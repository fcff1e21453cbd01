package switches

import "context"

// Notifier is a single-slot change notification. Raise is non-blocking and
// idempotent while the slot is full, so changes raised while the consumer
// is busy coalesce into one wake. The consumer clears the slot by waking.
type Notifier struct {
	ch chan struct{}
}

func NewNotifier() *Notifier {
	return &Notifier{ch: make(chan struct{}, 1)}
}

// Raise sets the notification if it is not already pending.
func (n *Notifier) Raise() {
	select {
	case n.ch <- struct{}{}:
	default:
	}
}

// Wait blocks until the notification is raised, consuming it.
func (n *Notifier) Wait(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-n.ch:
		return nil
	}
}

// C exposes the slot for use in a select. Receiving consumes the
// notification.
func (n *Notifier) C() <-chan struct{} { return n.ch }
