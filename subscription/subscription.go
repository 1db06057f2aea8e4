// Package subscription implements the email subscription workflow.
//
// An address moves from unknown to pending when it subscribes, and from
// pending to verified when it presents the code it was mailed. Verified
// addresses receive reminders until they unsubscribe. Re-subscribing while
// pending replaces the outstanding code.
package subscription

import (
	"bytes"
	"encoding/json"
	"errors"

	"github.com/amonks/taskplanner/docstore"
)

// Document keys.
const (
	PendingDocumentKey     = "pending_subscriptions"
	SubscribersDocumentKey = "subscribers"
)

var (
	// ErrAlreadySubscribed indicates the address is already verified.
	ErrAlreadySubscribed = errors.New("already subscribed")

	// ErrInvalidCode indicates there is no pending subscription for the
	// address or the code does not match it.
	ErrInvalidCode = errors.New("invalid verification code")

	// ErrInvalidEmail indicates the address could not be parsed.
	ErrInvalidEmail = errors.New("invalid email address")

	// ErrNotSubscribed indicates the address is not a verified subscriber.
	ErrNotSubscribed = errors.New("not subscribed")
)

// Pending is an outstanding verification.
type Pending struct {
	Code string `json:"code"`
	// Timestamp is when the code was issued, in seconds since the Unix
	// epoch.
	Timestamp int64 `json:"timestamp"`
}

// pendingSet decodes from either an object keyed by email or, for documents
// written by older versions, an empty array.
type pendingSet map[string]Pending

func (p *pendingSet) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '[' {
		*p = pendingSet{}
		return nil
	}
	var m map[string]Pending
	if err := json.Unmarshal(data, &m); err != nil {
		return err
	}
	if m == nil {
		m = map[string]Pending{}
	}
	*p = m
	return nil
}

var pendingSchema = docstore.MustCompileSchema(PendingDocumentKey, `{
  "oneOf": [
    {
      "type": "object",
      "additionalProperties": {
        "type": "object",
        "required": ["code", "timestamp"],
        "properties": {
          "code": {"type": "string", "pattern": "^[0-9]{6}$"},
          "timestamp": {"type": "integer"}
        }
      }
    },
    {"type": "array", "maxItems": 0}
  ]
}`)

var subscribersSchema = docstore.MustCompileSchema(SubscribersDocumentKey, `{
  "type": "array",
  "items": {"type": "string"}
}`)
