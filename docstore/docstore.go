// Package docstore persists whole collections as JSON documents.
//
// A document is a single named collection (the task list, the pending
// subscriptions, the subscriber list) that is always read and written in
// full. Backends decide where the bytes live; Document adds typed decoding,
// schema validation, fallbacks for missing or corrupt documents, and the
// read-modify-write helper the repositories build on.
package docstore

import (
	"context"
	"errors"
	"fmt"
	"regexp"
)

var (
	// ErrNotExist is returned by backends when a document has never been written.
	ErrNotExist = errors.New("document does not exist")

	// ErrPersistence wraps every failure to write a document.
	ErrPersistence = errors.New("persist document")

	// ErrNoChange can be returned from an Update callback to skip the write.
	ErrNoChange = errors.New("no change")
)

// Backend stores raw document bytes by key.
type Backend interface {
	// Load returns the stored bytes for key, or an error wrapping
	// ErrNotExist when nothing has been stored.
	Load(ctx context.Context, key string) ([]byte, error)

	// Save replaces the full contents stored for key.
	Save(ctx context.Context, key string, data []byte) error
}

// Locker is implemented by backends that can serialize read-modify-write
// cycles on a single document.
type Locker interface {
	// Lock blocks until the document lock is held and returns its release func.
	Lock(ctx context.Context, key string) (unlock func(), err error)
}

var keyPattern = regexp.MustCompile(`^[a-z0-9][a-z0-9_-]*$`)

// ValidateKey reports whether key can name a document.
func ValidateKey(key string) error {
	if !keyPattern.MatchString(key) {
		return fmt.Errorf("invalid document key %q", key)
	}
	return nil
}
