// Package reminder mails the pending task list to every verified subscriber.
package reminder

import (
	"context"

	"github.com/amonks/taskplanner/internal/logging"
	"github.com/amonks/taskplanner/notify"
	"github.com/amonks/taskplanner/task"
	"github.com/charmbracelet/log"
)

// TaskSource lists tasks in storage order.
type TaskSource interface {
	All(ctx context.Context) []task.Task
}

// SubscriberSource lists verified subscribers in subscription order.
type SubscriberSource interface {
	Subscribers(ctx context.Context) []string
}

// Failure records a subscriber whose reminder could not be sent.
type Failure struct {
	Email string `json:"email"`
	Err   string `json:"error"`
}

// Report summarizes one dispatch.
type Report struct {
	Subscribers int       `json:"subscribers"`
	Tasks       int       `json:"tasks"`
	Sent        []string  `json:"sent"`
	Failed      []Failure `json:"failed"`
}

// Options configures a Dispatcher.
type Options struct {
	Logger *log.Logger
	Links  notify.Links
}

// Dispatcher sends reminders.
type Dispatcher struct {
	tasks       TaskSource
	subscribers SubscriberSource
	notifier    notify.Notifier
	composer    notify.Composer
	logger      *log.Logger
}

// NewDispatcher returns a dispatcher reading from tasks and subscribers.
func NewDispatcher(tasks TaskSource, subscribers SubscriberSource, notifier notify.Notifier, opts Options) *Dispatcher {
	return &Dispatcher{
		tasks:       tasks,
		subscribers: subscribers,
		notifier:    notifier,
		composer:    notify.Composer{Links: opts.Links},
		logger:      logging.OrDiscard(opts.Logger),
	}
}

// Send mails every subscriber the current pending tasks. A failure for one
// subscriber is logged and recorded and does not stop the others. There
// are no retries.
func (d *Dispatcher) Send(ctx context.Context) Report {
	pending := task.Names(task.Pending(d.tasks.All(ctx)))
	subscribers := d.subscribers.Subscribers(ctx)

	report := Report{
		Subscribers: len(subscribers),
		Tasks:       len(pending),
		Sent:        []string{},
		Failed:      []Failure{},
	}
	for _, email := range subscribers {
		if err := d.sendOne(ctx, email, pending); err != nil {
			d.logger.Error("reminder failed", "email", email, "err", err)
			report.Failed = append(report.Failed, Failure{Email: email, Err: err.Error()})
			continue
		}
		report.Sent = append(report.Sent, email)
	}

	d.logger.Info("reminders dispatched",
		"subscribers", report.Subscribers,
		"sent", len(report.Sent),
		"failed", len(report.Failed))
	return report
}

func (d *Dispatcher) sendOne(ctx context.Context, email string, pending []string) error {
	msg, err := d.composer.Reminder(ctx, email, pending)
	if err != nil {
		return err
	}
	return notify.Deliver(ctx, d.notifier, msg)
}

// Preview returns the messages Send would deliver, without sending them.
func (d *Dispatcher) Preview(ctx context.Context) ([]notify.Message, error) {
	pending := task.Names(task.Pending(d.tasks.All(ctx)))
	subscribers := d.subscribers.Subscribers(ctx)

	messages := make([]notify.Message, 0, len(subscribers))
	for _, email := range subscribers {
		msg, err := d.composer.Reminder(ctx, email, pending)
		if err != nil {
			return nil, err
		}
		messages = append(messages, msg)
	}
	return messages, nil
}
