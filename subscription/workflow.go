package subscription

import (
	"context"
	"fmt"
	"io"
	"maps"
	"slices"
	"time"

	"github.com/amonks/taskplanner/docstore"
	"github.com/amonks/taskplanner/internal/logging"
	"github.com/amonks/taskplanner/notify"
	"github.com/charmbracelet/log"
)

// Options configures a Workflow.
type Options struct {
	Logger *log.Logger

	// Links builds the verification link mailed to new subscribers.
	Links notify.Links

	// Now defaults to time.Now.
	Now func() time.Time

	// Rand is the entropy source for verification codes. Defaults to
	// crypto/rand.
	Rand io.Reader
}

// Workflow owns the pending and subscriber documents.
type Workflow struct {
	pending     *docstore.Document[pendingSet]
	subscribers *docstore.Document[[]string]
	notifier    notify.Notifier
	composer    notify.Composer
	now         func() time.Time
	rand        io.Reader
	logger      *log.Logger
}

// NewWorkflow returns a workflow that stores state in backend and mails
// verification links through notifier.
func NewWorkflow(backend docstore.Backend, notifier notify.Notifier, opts Options) *Workflow {
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	logger := logging.OrDiscard(opts.Logger)
	return &Workflow{
		pending: docstore.NewDocument(backend, PendingDocumentKey, docstore.Options[pendingSet]{
			Fallback: func() pendingSet { return pendingSet{} },
			Schema:   pendingSchema,
			Logger:   logger,
		}),
		subscribers: docstore.NewDocument(backend, SubscribersDocumentKey, docstore.Options[[]string]{
			Fallback: func() []string { return []string{} },
			Schema:   subscribersSchema,
			Logger:   logger,
		}),
		notifier: notifier,
		composer: notify.Composer{Links: opts.Links},
		now:      now,
		rand:     opts.Rand,
		logger:   logger,
	}
}

// Subscribe issues a fresh verification code for email, replacing any
// outstanding one, and mails it. The pending record is persisted before
// sending, so it survives a delivery failure.
func (w *Workflow) Subscribe(ctx context.Context, email string) error {
	if slices.Contains(w.Subscribers(ctx), email) {
		return fmt.Errorf("%w: %s", ErrAlreadySubscribed, email)
	}

	code, err := GenerateCode(w.rand)
	if err != nil {
		return err
	}
	err = w.pending.Update(ctx, func(pending *pendingSet) error {
		(*pending)[email] = Pending{Code: code, Timestamp: w.now().Unix()}
		return nil
	})
	if err != nil {
		return err
	}
	w.logger.Info("subscription pending", "email", email)

	msg, err := w.composer.Verification(ctx, email, code)
	if err != nil {
		return err
	}
	if err := notify.Deliver(ctx, w.notifier, msg); err != nil {
		w.logger.Error("verification email failed", "email", email, "err", err)
		return err
	}
	return nil
}

// Verify confirms the pending subscription for email if code matches it
// exactly. Verifying an address that is already a subscriber only clears
// the pending entry.
func (w *Workflow) Verify(ctx context.Context, email, code string) error {
	err := w.pending.Update(ctx, func(pending *pendingSet) error {
		entry, ok := (*pending)[email]
		if !ok || entry.Code != code {
			return fmt.Errorf("%w for %s", ErrInvalidCode, email)
		}
		delete(*pending, email)
		return nil
	})
	if err != nil {
		return err
	}

	err = w.subscribers.Update(ctx, func(subscribers *[]string) error {
		if slices.Contains(*subscribers, email) {
			return docstore.ErrNoChange
		}
		*subscribers = append(*subscribers, email)
		return nil
	})
	if err != nil {
		return err
	}

	w.logger.Info("subscription verified", "email", email)
	return nil
}

// Unsubscribe removes every occurrence of email from the subscribers.
func (w *Workflow) Unsubscribe(ctx context.Context, email string) error {
	err := w.subscribers.Update(ctx, func(subscribers *[]string) error {
		if !slices.Contains(*subscribers, email) {
			return fmt.Errorf("%w: %s", ErrNotSubscribed, email)
		}
		remaining := make([]string, 0, len(*subscribers))
		for _, s := range *subscribers {
			if s != email {
				remaining = append(remaining, s)
			}
		}
		*subscribers = remaining
		return nil
	})
	if err != nil {
		return err
	}

	w.logger.Info("unsubscribed", "email", email)
	return nil
}

// Subscribers returns the verified addresses in subscription order.
func (w *Workflow) Subscribers(ctx context.Context) []string {
	return w.subscribers.Read(ctx)
}

// Pending returns the outstanding verifications keyed by email.
func (w *Workflow) Pending(ctx context.Context) map[string]Pending {
	return maps.Clone(map[string]Pending(w.pending.Read(ctx)))
}
