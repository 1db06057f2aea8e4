package main

import (
	"fmt"
	"slices"
	"time"

	"github.com/amonks/taskplanner/internal/age"
	"github.com/amonks/taskplanner/internal/listflags"
	"github.com/amonks/taskplanner/internal/ui"
	"github.com/amonks/taskplanner/notify"
	"github.com/amonks/taskplanner/subscription"
	"github.com/spf13/cobra"
)

var subscribeCmd = &cobra.Command{
	Use:   "subscribe <email>",
	Short: "Send a verification email to a new subscriber",
	Args:  cobra.ExactArgs(1),
	RunE:  runSubscribe,
}

var verifyCmd = &cobra.Command{
	Use:   "verify <email> <code>",
	Short: "Confirm a pending subscription",
	Args:  cobra.ExactArgs(2),
	RunE:  runVerify,
}

var unsubscribeCmd = &cobra.Command{
	Use:   "unsubscribe <email>",
	Short: "Stop sending reminders to a subscriber",
	Args:  cobra.ExactArgs(1),
	RunE:  runUnsubscribe,
}

var subscribersCmd = &cobra.Command{
	Use:   "subscribers",
	Short: "List subscribers and pending verifications",
	Args:  cobra.NoArgs,
	RunE:  runSubscribers,
}

var (
	subscribeBaseURL string
	subscribersJSON  bool
)

func init() {
	rootCmd.AddCommand(subscribeCmd, verifyCmd, unsubscribeCmd, subscribersCmd)
	subscribeCmd.Flags().StringVar(&subscribeBaseURL, "base-url", "", "External base URL used in the verification link")
	addBaseURLFlagAliases(subscribeCmd)
	listflags.AddJSONFlag(subscribersCmd, &subscribersJSON, "Output as JSON, including pending codes")
}

func runSubscribe(cmd *cobra.Command, args []string) error {
	email := args[0]
	if err := subscription.CheckEmail(email); err != nil {
		return err
	}

	p, err := openPlanner(cmd.Context())
	if err != nil {
		return err
	}
	defer p.Close()

	ctx := cmd.Context()
	if subscribeBaseURL != "" {
		ctx = notify.WithBaseURL(ctx, subscribeBaseURL)
	}
	if err := p.Subscriptions.Subscribe(ctx, email); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Verification email sent to %s\n", email)
	return nil
}

func runVerify(cmd *cobra.Command, args []string) error {
	p, err := openPlanner(cmd.Context())
	if err != nil {
		return err
	}
	defer p.Close()

	email := args[0]
	if err := p.Subscriptions.Verify(cmd.Context(), email, args[1]); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Verified %s\n", email)
	return nil
}

func runUnsubscribe(cmd *cobra.Command, args []string) error {
	p, err := openPlanner(cmd.Context())
	if err != nil {
		return err
	}
	defer p.Close()

	email := args[0]
	if err := p.Subscriptions.Unsubscribe(cmd.Context(), email); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Unsubscribed %s\n", email)
	return nil
}

type subscribersListing struct {
	Subscribers []string                        `json:"subscribers"`
	Pending     map[string]subscription.Pending `json:"pending"`
}

func runSubscribers(cmd *cobra.Command, args []string) error {
	p, err := openPlanner(cmd.Context())
	if err != nil {
		return err
	}
	defer p.Close()

	listing := subscribersListing{
		Subscribers: p.Subscriptions.Subscribers(cmd.Context()),
		Pending:     p.Subscriptions.Pending(cmd.Context()),
	}
	out := cmd.OutOrStdout()
	if subscribersJSON {
		return encodeJSON(out, listing)
	}

	if len(listing.Subscribers) == 0 && len(listing.Pending) == 0 {
		fmt.Fprintln(out, "No subscribers.")
		return nil
	}

	now := time.Now()
	builder := ui.NewTableBuilder([]string{"EMAIL", "STATUS", "SINCE"}, len(listing.Subscribers)+len(listing.Pending))
	for _, email := range listing.Subscribers {
		builder.AddRow([]string{email, "verified", "-"})
	}
	pendingEmails := make([]string, 0, len(listing.Pending))
	for email := range listing.Pending {
		pendingEmails = append(pendingEmails, email)
	}
	slices.Sort(pendingEmails)
	for _, email := range pendingEmails {
		since := age.Since(listing.Pending[email].Timestamp, now)
		builder.AddRow([]string{email, "pending", age.Format(since) + " ago"})
	}
	fmt.Fprint(out, builder.String())
	return nil
}
