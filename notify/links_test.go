package notify

import (
	"context"
	"net/url"
	"testing"
)

func TestVerifyURLEscapesQuery(t *testing.T) {
	links := Links{BaseURL: "https://example.com/planner/"}

	got := links.VerifyURL(context.Background(), "a+b@c.com", "012345")
	want := "https://example.com/planner/verify?email=a%2Bb%40c.com&code=012345"
	if got != want {
		t.Fatalf("expected %q, got %q", want, got)
	}

	parsed, err := url.Parse(got)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if parsed.Query().Get("email") != "a+b@c.com" {
		t.Fatalf("email did not round trip: %q", parsed.Query().Get("email"))
	}
}

func TestUnsubscribeURL(t *testing.T) {
	links := Links{BaseURL: "http://localhost:8080"}

	got := links.UnsubscribeURL(context.Background(), "x@y.com")
	want := "http://localhost:8080/unsubscribe?email=x%40y.com"
	if got != want {
		t.Fatalf("expected %q, got %q", want, got)
	}
}

func TestWithBaseURLOverridesConfigured(t *testing.T) {
	links := Links{BaseURL: "http://configured"}

	tests := []struct {
		name     string
		override string
		want     string
	}{
		{name: "override", override: "https://request.example/", want: "https://request.example"},
		{name: "blank keeps configured", override: "  ", want: "http://configured"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := WithBaseURL(context.Background(), tt.override)
			if got := links.Base(ctx); got != tt.want {
				t.Fatalf("expected %q, got %q", tt.want, got)
			}
		})
	}
}
