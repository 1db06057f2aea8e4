// Package notifytest provides a recording Notifier for tests.
package notifytest

import (
	"context"
	"sync"

	"github.com/amonks/taskplanner/notify"
)

// Recorder records every message it is asked to send.
type Recorder struct {
	// Fail, when set, decides whether a send fails. The message is
	// recorded either way.
	Fail func(msg notify.Message) error

	mu       sync.Mutex
	messages []notify.Message
}

// Send records msg.
func (r *Recorder) Send(_ context.Context, msg notify.Message) error {
	r.mu.Lock()
	r.messages = append(r.messages, msg)
	fail := r.Fail
	r.mu.Unlock()

	if fail != nil {
		return fail(msg)
	}
	return nil
}

// Messages returns a copy of the recorded messages.
func (r *Recorder) Messages() []notify.Message {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]notify.Message(nil), r.messages...)
}

// To returns the recorded messages addressed to email.
func (r *Recorder) To(email string) []notify.Message {
	var matched []notify.Message
	for _, msg := range r.Messages() {
		if msg.To == email {
			matched = append(matched, msg)
		}
	}
	return matched
}
