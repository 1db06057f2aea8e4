package notify

import (
	"context"
	"net/url"

	internalstrings "github.com/amonks/taskplanner/internal/strings"
)

// Paths of the endpoints that consume emailed links.
const (
	VerifyPath      = "/verify"
	UnsubscribePath = "/unsubscribe"
)

type baseURLKey struct{}

// WithBaseURL returns a context whose links resolve against baseURL instead
// of the configured one. The web layer uses it to link back to the origin a
// request arrived on.
func WithBaseURL(ctx context.Context, baseURL string) context.Context {
	return context.WithValue(ctx, baseURLKey{}, baseURL)
}

// Links builds the absolute URLs embedded in outbound email.
type Links struct {
	// BaseURL is the externally visible origin plus path prefix,
	// e.g. "https://example.com/planner".
	BaseURL string
}

// Base returns the base URL in effect for ctx.
func (l Links) Base(ctx context.Context) string {
	if override, ok := ctx.Value(baseURLKey{}).(string); ok && !internalstrings.IsBlank(override) {
		return internalstrings.TrimTrailingSlash(internalstrings.TrimSpace(override))
	}
	return internalstrings.TrimTrailingSlash(internalstrings.TrimSpace(l.BaseURL))
}

// VerifyURL returns the link that confirms a pending subscription.
func (l Links) VerifyURL(ctx context.Context, email, code string) string {
	return l.Base(ctx) + VerifyPath + "?email=" + url.QueryEscape(email) + "&code=" + url.QueryEscape(code)
}

// UnsubscribeURL returns the link that removes a subscriber.
func (l Links) UnsubscribeURL(ctx context.Context, email string) string {
	return l.Base(ctx) + UnsubscribePath + "?email=" + url.QueryEscape(email)
}
