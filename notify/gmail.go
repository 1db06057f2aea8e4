package notify

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	gmail "google.golang.org/api/gmail/v1"
	"google.golang.org/api/option"
)

// GmailTimeout bounds a single send call.
const GmailTimeout = 10 * time.Second

// GmailOptions configures a GmailNotifier.
type GmailOptions struct {
	// CredentialsPath is the OAuth client JSON downloaded from the Google
	// Cloud console.
	CredentialsPath string
	// TokenPath is a stored oauth2.Token in JSON form.
	TokenPath string
	From      string

	// HTTPClient and Endpoint replace the OAuth client and API endpoint.
	HTTPClient *http.Client
	Endpoint   string
}

// GmailNotifier sends messages with the Gmail API.
type GmailNotifier struct {
	svc  *gmail.Service
	from string
	now  func() time.Time
}

// NewGmailNotifier builds a Gmail API client from stored credentials.
func NewGmailNotifier(ctx context.Context, opts GmailOptions) (*GmailNotifier, error) {
	httpClient := opts.HTTPClient
	if httpClient == nil {
		client, err := oauthClient(ctx, opts.CredentialsPath, opts.TokenPath)
		if err != nil {
			return nil, err
		}
		httpClient = client
	}

	clientOptions := []option.ClientOption{option.WithHTTPClient(httpClient)}
	if opts.Endpoint != "" {
		clientOptions = append(clientOptions, option.WithEndpoint(opts.Endpoint))
	}
	svc, err := gmail.NewService(ctx, clientOptions...)
	if err != nil {
		return nil, fmt.Errorf("create gmail service: %w", err)
	}

	return &GmailNotifier{svc: svc, from: opts.From, now: time.Now}, nil
}

func oauthClient(ctx context.Context, credentialsPath, tokenPath string) (*http.Client, error) {
	clientJSON, err := os.ReadFile(credentialsPath)
	if err != nil {
		return nil, fmt.Errorf("read gmail credentials: %w", err)
	}
	config, err := google.ConfigFromJSON(clientJSON, gmail.GmailSendScope)
	if err != nil {
		return nil, fmt.Errorf("invalid gmail credentials: %w", err)
	}

	tokenData, err := os.ReadFile(tokenPath)
	if err != nil {
		return nil, fmt.Errorf("read gmail token: %w", err)
	}
	var token oauth2.Token
	if err := json.Unmarshal(tokenData, &token); err != nil {
		return nil, fmt.Errorf("invalid gmail token: %w", err)
	}

	return oauth2.NewClient(ctx, config.TokenSource(ctx, &token)), nil
}

// Send submits msg as the authenticated user.
func (n *GmailNotifier) Send(ctx context.Context, msg Message) error {
	ctx, cancel := context.WithTimeout(ctx, GmailTimeout)
	defer cancel()

	raw := base64.URLEncoding.EncodeToString(buildMIME(n.from, msg, n.now()))
	if _, err := n.svc.Users.Messages.Send("me", &gmail.Message{Raw: raw}).Context(ctx).Do(); err != nil {
		return fmt.Errorf("gmail send: %w", err)
	}
	return nil
}
