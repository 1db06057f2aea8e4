package docstore

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/amonks/taskplanner/internal/logging"
	"github.com/charmbracelet/log"
	"github.com/santhosh-tekuri/jsonschema/v5"
)

var (
	errEmptyDocument    = errors.New("document is empty")
	errUnusableDocument = errors.New("document is unusable")
)

// CorruptSuffix is appended to a document key to name the copy of
// unusable content saved before Update overwrites it.
const CorruptSuffix = "-corrupt"

// Options configures a Document.
type Options[T any] struct {
	// Fallback builds the value returned when the document is missing,
	// empty, or unreadable. Defaults to the zero value of T.
	Fallback func() T

	// Schema, when set, must accept the stored JSON for it to be used.
	Schema *jsonschema.Schema

	Logger *log.Logger
}

// Document is a typed handle on one persisted collection.
type Document[T any] struct {
	backend  Backend
	key      string
	fallback func() T
	schema   *jsonschema.Schema
	logger   *log.Logger
}

// NewDocument returns a handle on the document stored under key.
// It panics if key is not a valid document key.
func NewDocument[T any](backend Backend, key string, opts Options[T]) *Document[T] {
	if err := ValidateKey(key); err != nil {
		panic(err)
	}
	fallback := opts.Fallback
	if fallback == nil {
		fallback = func() T {
			var zero T
			return zero
		}
	}
	return &Document[T]{
		backend:  backend,
		key:      key,
		fallback: fallback,
		schema:   opts.Schema,
		logger:   logging.OrDiscard(opts.Logger).With("document", key),
	}
}

// Key returns the document key.
func (d *Document[T]) Key() string {
	return d.key
}

// Read returns the decoded document, or the fallback when the document does
// not exist, is empty, cannot be decoded, or does not match the schema.
func (d *Document[T]) Read(ctx context.Context) T {
	value, _, err := d.load(ctx)
	if err == nil {
		return value
	}
	if !errors.Is(err, ErrNotExist) && !errors.Is(err, errEmptyDocument) {
		d.logger.Warn("unreadable document, using default", "err", err)
	}
	return d.fallback()
}

// load returns the decoded document and its raw bytes. Content that is
// present but cannot be used wraps errUnusableDocument; backend failures
// are returned as they are.
func (d *Document[T]) load(ctx context.Context) (T, []byte, error) {
	var value T

	data, err := d.backend.Load(ctx, d.key)
	if err != nil {
		return value, nil, err
	}
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		return value, data, errEmptyDocument
	}

	if d.schema != nil {
		var raw any
		if err := json.Unmarshal(data, &raw); err != nil {
			return value, data, fmt.Errorf("%w: decode: %w", errUnusableDocument, err)
		}
		if err := d.schema.Validate(raw); err != nil {
			return value, data, fmt.Errorf("%w: validate: %w", errUnusableDocument, err)
		}
	}

	if err := json.Unmarshal(data, &value); err != nil {
		return value, data, fmt.Errorf("%w: decode: %w", errUnusableDocument, err)
	}
	return value, data, nil
}

// Write replaces the stored document with value, encoded as indented JSON.
// Failures wrap ErrPersistence.
func (d *Document[T]) Write(ctx context.Context, value T) error {
	data, err := json.MarshalIndent(value, "", "  ")
	if err != nil {
		return fmt.Errorf("%w %s: encode: %w", ErrPersistence, d.key, err)
	}
	data = append(data, '\n')

	if err := d.backend.Save(ctx, d.key, data); err != nil {
		return fmt.Errorf("%w %s: %w", ErrPersistence, d.key, err)
	}
	d.logger.Debug("document written", "bytes", len(data))
	return nil
}

// Update reads the document, applies fn, and writes the result back.
// When the backend implements Locker the whole cycle holds the document
// lock. If fn returns an error nothing is written; ErrNoChange skips the
// write and makes Update return nil.
//
// A missing, empty or unusable document starts from the fallback; unusable
// content is first copied to the key with CorruptSuffix. Any other load
// failure aborts with ErrPersistence and nothing is written.
func (d *Document[T]) Update(ctx context.Context, fn func(value *T) error) error {
	if locker, ok := d.backend.(Locker); ok {
		unlock, err := locker.Lock(ctx, d.key)
		if err != nil {
			return fmt.Errorf("%w %s: lock: %w", ErrPersistence, d.key, err)
		}
		defer unlock()
	}

	value, corrupt, err := d.loadForUpdate(ctx)
	if err != nil {
		return err
	}
	if err := fn(&value); err != nil {
		if errors.Is(err, ErrNoChange) {
			return nil
		}
		return err
	}
	if corrupt != nil {
		if err := d.backend.Save(ctx, d.key+CorruptSuffix, corrupt); err != nil {
			return fmt.Errorf("%w %s: keep unusable copy: %w", ErrPersistence, d.key, err)
		}
		d.logger.Warn("replacing unusable document", "copy", d.key+CorruptSuffix)
	}
	return d.Write(ctx, value)
}

// loadForUpdate returns the starting value for Update, plus the raw bytes
// to preserve when the stored content was unusable.
func (d *Document[T]) loadForUpdate(ctx context.Context) (T, []byte, error) {
	value, data, err := d.load(ctx)
	switch {
	case err == nil:
		return value, nil, nil
	case errors.Is(err, ErrNotExist), errors.Is(err, errEmptyDocument):
		return d.fallback(), nil, nil
	case errors.Is(err, errUnusableDocument):
		d.logger.Warn("unreadable document, using default", "err", err)
		return d.fallback(), data, nil
	default:
		var zero T
		return zero, nil, fmt.Errorf("%w %s: load: %w", ErrPersistence, d.key, err)
	}
}
