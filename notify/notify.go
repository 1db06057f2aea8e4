// Package notify sends email on behalf of the subscription workflow and the
// reminder dispatcher.
//
// The core packages only depend on the Notifier interface; this package also
// owns the message templates and the link building they need, and provides
// the log, SMTP and Gmail transports.
package notify

import (
	"context"
	"errors"
	"fmt"
)

// ErrDelivery wraps every failure to hand a message to the transport.
var ErrDelivery = errors.New("deliver email")

// Message is a single outbound HTML email.
type Message struct {
	To      string
	Subject string
	HTML    string
}

// Notifier delivers messages. Any error is treated as a delivery failure.
type Notifier interface {
	Send(ctx context.Context, msg Message) error
}

// NotifierFunc adapts a function to the Notifier interface.
type NotifierFunc func(ctx context.Context, msg Message) error

// Send calls f.
func (f NotifierFunc) Send(ctx context.Context, msg Message) error {
	return f(ctx, msg)
}

// Deliver sends msg through n and wraps any failure in ErrDelivery.
func Deliver(ctx context.Context, n Notifier, msg Message) error {
	if n == nil {
		return fmt.Errorf("%w to %s: no notifier configured", ErrDelivery, msg.To)
	}
	if err := n.Send(ctx, msg); err != nil {
		return fmt.Errorf("%w to %s: %w", ErrDelivery, msg.To, err)
	}
	return nil
}
