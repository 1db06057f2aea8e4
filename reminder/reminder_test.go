package reminder

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/amonks/taskplanner/docstore"
	"github.com/amonks/taskplanner/notify"
	"github.com/amonks/taskplanner/notify/notifytest"
	"github.com/amonks/taskplanner/task"
)

type staticTasks []task.Task

func (s staticTasks) All(context.Context) []task.Task { return s }

type staticSubscribers []string

func (s staticSubscribers) Subscribers(context.Context) []string { return s }

var links = notify.Links{BaseURL: "http://localhost:8080"}

func TestSendIncludesOnlyPendingTasksInOrder(t *testing.T) {
	ctx := context.Background()
	backend := docstore.NewMemoryBackend()
	repo := task.NewRepository(backend, task.Options{})

	var created []task.Task
	for _, name := range []string{"A", "B", "C"} {
		tk, err := repo.Add(ctx, name)
		if err != nil {
			t.Fatalf("add %s: %v", name, err)
		}
		created = append(created, tk)
	}
	if _, err := repo.SetCompleted(ctx, created[1].ID, true); err != nil {
		t.Fatalf("complete B: %v", err)
	}

	recorder := &notifytest.Recorder{}
	d := NewDispatcher(repo, staticSubscribers{"x@y.com"}, recorder, Options{Links: links})

	report := d.Send(ctx)
	if report.Subscribers != 1 || len(report.Sent) != 1 || len(report.Failed) != 0 {
		t.Fatalf("unexpected report %+v", report)
	}

	sent := recorder.Messages()
	if len(sent) != 1 || sent[0].To != "x@y.com" {
		t.Fatalf("expected one message to x@y.com, got %+v", sent)
	}
	html := sent[0].HTML
	a := strings.Index(html, "<li>A</li>")
	c := strings.Index(html, "<li>C</li>")
	if a < 0 || c < 0 || a > c {
		t.Fatalf("expected A then C, got %q", html)
	}
	if strings.Contains(html, "<li>B</li>") {
		t.Fatalf("completed task B must not appear: %q", html)
	}
	if !strings.Contains(html, "/unsubscribe?email=x%40y.com") {
		t.Fatalf("expected unsubscribe link, got %q", html)
	}
}

func TestSendContinuesPastFailures(t *testing.T) {
	recorder := &notifytest.Recorder{Fail: func(msg notify.Message) error {
		if msg.To == "bad@y.com" {
			return errors.New("mailbox unavailable")
		}
		return nil
	}}
	d := NewDispatcher(
		staticTasks{{ID: "1", Name: "A"}},
		staticSubscribers{"first@y.com", "bad@y.com", "last@y.com"},
		recorder,
		Options{Links: links},
	)

	report := d.Send(context.Background())

	if len(recorder.Messages()) != 3 {
		t.Fatalf("expected three attempts, got %d", len(recorder.Messages()))
	}
	if strings.Join(report.Sent, ",") != "first@y.com,last@y.com" {
		t.Fatalf("unexpected sent list %v", report.Sent)
	}
	if len(report.Failed) != 1 || report.Failed[0].Email != "bad@y.com" {
		t.Fatalf("unexpected failures %+v", report.Failed)
	}
	if !strings.Contains(report.Failed[0].Err, "mailbox unavailable") {
		t.Fatalf("expected cause in failure, got %q", report.Failed[0].Err)
	}
}

func TestSendWithNoSubscribers(t *testing.T) {
	recorder := &notifytest.Recorder{}
	d := NewDispatcher(staticTasks{{ID: "1", Name: "A"}}, staticSubscribers{}, recorder, Options{})

	report := d.Send(context.Background())
	if report.Subscribers != 0 || len(report.Sent) != 0 {
		t.Fatalf("unexpected report %+v", report)
	}
	if len(recorder.Messages()) != 0 {
		t.Fatal("expected no messages")
	}
}

func TestSendWithNoPendingTasksStillSends(t *testing.T) {
	recorder := &notifytest.Recorder{}
	d := NewDispatcher(
		staticTasks{{ID: "1", Name: "done", Completed: true}},
		staticSubscribers{"x@y.com"},
		recorder,
		Options{Links: links},
	)

	report := d.Send(context.Background())
	if report.Tasks != 0 || len(report.Sent) != 1 {
		t.Fatalf("unexpected report %+v", report)
	}
	if strings.Contains(recorder.Messages()[0].HTML, "<li>") {
		t.Fatal("expected an empty task list")
	}
}

func TestPreviewDoesNotSend(t *testing.T) {
	recorder := &notifytest.Recorder{}
	d := NewDispatcher(
		staticTasks{{ID: "1", Name: "A"}, {ID: "2", Name: "B", Completed: true}},
		staticSubscribers{"x@y.com", "z@y.com"},
		recorder,
		Options{Links: links},
	)

	messages, err := d.Preview(context.Background())
	if err != nil {
		t.Fatalf("preview: %v", err)
	}
	if len(messages) != 2 || messages[0].To != "x@y.com" || messages[1].To != "z@y.com" {
		t.Fatalf("unexpected preview %+v", messages)
	}
	if len(recorder.Messages()) != 0 {
		t.Fatal("preview must not send")
	}
}
