// Package task stores the task list.
//
// Tasks live in a single document that is read and rewritten in full on
// every change. Names are unique under case-insensitive comparison; ids are
// random and immutable.
package task

import (
	"errors"

	"github.com/amonks/taskplanner/docstore"
)

// DocumentKey names the task list document.
const DocumentKey = "tasks"

// Task is a single entry in the task list.
type Task struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Completed bool   `json:"completed"`
}

var (
	// ErrEmptyName indicates a task name with no content.
	ErrEmptyName = errors.New("task name cannot be empty")

	// ErrDuplicateName indicates another task already uses the name,
	// ignoring case.
	ErrDuplicateName = errors.New("task already exists")

	// ErrNotFound indicates no task has the given id.
	ErrNotFound = errors.New("task not found")

	// ErrAmbiguousIDPrefix indicates an id prefix matches several tasks.
	ErrAmbiguousIDPrefix = errors.New("ambiguous task id prefix")
)

var schema = docstore.MustCompileSchema(DocumentKey, `{
  "type": "array",
  "items": {
    "type": "object",
    "required": ["id", "name", "completed"],
    "properties": {
      "id": {"type": "string"},
      "name": {"type": "string"},
      "completed": {"type": "boolean"}
    }
  }
}`)

// Pending returns the tasks that are not completed, in order.
func Pending(tasks []Task) []Task {
	pending := make([]Task, 0, len(tasks))
	for _, t := range tasks {
		if !t.Completed {
			pending = append(pending, t)
		}
	}
	return pending
}

// Names returns the task names, in order.
func Names(tasks []Task) []string {
	names := make([]string, 0, len(tasks))
	for _, t := range tasks {
		names = append(names, t.Name)
	}
	return names
}
