package task

import (
	"context"
	"errors"
	"fmt"

	"github.com/amonks/taskplanner/docstore"
	"github.com/amonks/taskplanner/internal/ids"
	"github.com/amonks/taskplanner/internal/logging"
	internalstrings "github.com/amonks/taskplanner/internal/strings"
	"github.com/charmbracelet/log"
)

// Options configures a Repository.
type Options struct {
	Logger *log.Logger

	// NewID overrides id generation. Defaults to ids.New.
	NewID func() string
}

// Repository performs CRUD operations on the task list document.
type Repository struct {
	doc    *docstore.Document[[]Task]
	newID  func() string
	logger *log.Logger
}

// NewRepository returns a repository backed by the given document backend.
func NewRepository(backend docstore.Backend, opts Options) *Repository {
	newID := opts.NewID
	if newID == nil {
		newID = ids.New
	}
	logger := logging.OrDiscard(opts.Logger)
	return &Repository{
		doc: docstore.NewDocument(backend, DocumentKey, docstore.Options[[]Task]{
			Fallback: func() []Task { return []Task{} },
			Schema:   schema,
			Logger:   logger,
		}),
		newID:  newID,
		logger: logger,
	}
}

// Add appends a new, incomplete task. The name must already be trimmed.
// It fails with ErrDuplicateName when a task with the same name exists,
// ignoring case; nothing is written in that case.
func (r *Repository) Add(ctx context.Context, name string) (Task, error) {
	if internalstrings.IsBlank(name) {
		return Task{}, ErrEmptyName
	}

	var created Task
	err := r.doc.Update(ctx, func(tasks *[]Task) error {
		for _, existing := range *tasks {
			if internalstrings.EqualFold(existing.Name, name) {
				return fmt.Errorf("%w: %q", ErrDuplicateName, existing.Name)
			}
		}
		created = Task{ID: r.newID(), Name: name}
		*tasks = append(*tasks, created)
		return nil
	})
	if err != nil {
		return Task{}, err
	}

	r.logger.Info("task added", "id", created.ID, "name", created.Name)
	return created, nil
}

// All returns every task in insertion order.
func (r *Repository) All(ctx context.Context) []Task {
	return r.doc.Read(ctx)
}

// Pending returns the incomplete tasks in insertion order.
func (r *Repository) Pending(ctx context.Context) []Task {
	return Pending(r.All(ctx))
}

// Get returns the task with exactly the given id.
func (r *Repository) Get(ctx context.Context, id string) (Task, error) {
	for _, t := range r.All(ctx) {
		if t.ID == id {
			return t, nil
		}
	}
	return Task{}, fmt.Errorf("%w: %s", ErrNotFound, id)
}

// Resolve returns the task whose id equals idOrPrefix, or the only task
// whose id starts with it (ignoring case).
func (r *Repository) Resolve(ctx context.Context, idOrPrefix string) (Task, error) {
	tasks := r.All(ctx)
	taskIDs := make([]string, 0, len(tasks))
	for _, t := range tasks {
		taskIDs = append(taskIDs, t.ID)
	}

	id, err := ids.Resolve(taskIDs, idOrPrefix)
	switch {
	case errors.Is(err, ids.ErrAmbiguous):
		return Task{}, fmt.Errorf("%w: %s", ErrAmbiguousIDPrefix, idOrPrefix)
	case err != nil:
		return Task{}, fmt.Errorf("%w: %s", ErrNotFound, idOrPrefix)
	}

	for _, t := range tasks {
		if t.ID == id {
			return t, nil
		}
	}
	return Task{}, fmt.Errorf("%w: %s", ErrNotFound, idOrPrefix)
}

// SetCompleted sets the completed flag of the task with the given id and
// persists the whole list.
func (r *Repository) SetCompleted(ctx context.Context, id string, completed bool) (Task, error) {
	var updated Task
	err := r.doc.Update(ctx, func(tasks *[]Task) error {
		for i := range *tasks {
			if (*tasks)[i].ID == id {
				(*tasks)[i].Completed = completed
				updated = (*tasks)[i]
				return nil
			}
		}
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	})
	if err != nil {
		return Task{}, err
	}

	r.logger.Info("task updated", "id", id, "completed", completed)
	return updated, nil
}

// Delete removes the task with the given id, keeping the order of the rest.
func (r *Repository) Delete(ctx context.Context, id string) error {
	err := r.doc.Update(ctx, func(tasks *[]Task) error {
		remaining := make([]Task, 0, len(*tasks))
		found := false
		for _, t := range *tasks {
			if t.ID == id {
				found = true
				continue
			}
			remaining = append(remaining, t)
		}
		if !found {
			return fmt.Errorf("%w: %s", ErrNotFound, id)
		}
		*tasks = remaining
		return nil
	})
	if err != nil {
		return err
	}

	r.logger.Info("task deleted", "id", id)
	return nil
}
