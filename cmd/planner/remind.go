package main

import (
	"fmt"
	"strings"

	"github.com/amonks/taskplanner/internal/listflags"
	"github.com/amonks/taskplanner/internal/markdown"
	"github.com/amonks/taskplanner/internal/ui"
	"github.com/amonks/taskplanner/planner"
	"github.com/amonks/taskplanner/task"
	"github.com/spf13/cobra"
)

var remindCmd = &cobra.Command{
	Use:   "remind",
	Short: "Mail the pending tasks to every subscriber",
	Long: `Mail the pending tasks to every verified subscriber.

Run it from cron to send periodic reminders. A failed delivery is reported
and does not stop the remaining subscribers; the command exits non-zero if
any delivery failed.`,
	Args: cobra.NoArgs,
	RunE: runRemind,
}

var (
	remindDryRun  bool
	remindJSON    bool
	remindBaseURL string
)

func init() {
	rootCmd.AddCommand(remindCmd)
	remindCmd.Flags().BoolVarP(&remindDryRun, "dry-run", "n", false, "Show the reminders without sending them")
	listflags.AddJSONFlag(remindCmd, &remindJSON, "Output the dispatch report as JSON")
	remindCmd.Flags().StringVar(&remindBaseURL, "base-url", "", "External base URL used in unsubscribe links")
	addBaseURLFlagAliases(remindCmd)
}

type remindFailedError struct {
	failed int
}

func (e remindFailedError) Error() string {
	return fmt.Sprintf("%d reminder(s) failed", e.failed)
}

func (e remindFailedError) ExitCode() int {
	return 2
}

func runRemind(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if remindBaseURL != "" {
		cfg.Server.BaseURL = remindBaseURL
	}
	p, err := openPlannerWithConfig(cmd.Context(), cfg)
	if err != nil {
		return err
	}
	defer p.Close()

	out := cmd.OutOrStdout()
	if remindDryRun {
		return previewReminders(cmd, p)
	}

	report := p.Reminders.Send(cmd.Context())
	if remindJSON {
		if err := encodeJSON(out, report); err != nil {
			return err
		}
	} else {
		fmt.Fprintf(out, "Sent %d of %d reminders (%d pending tasks)\n", len(report.Sent), report.Subscribers, report.Tasks)
		width := ui.TerminalWidth()
		for _, failure := range report.Failed {
			fmt.Fprintln(out, ui.Wrap(fmt.Sprintf("Failed %s: %s", failure.Email, failure.Err), width))
		}
	}
	if len(report.Failed) > 0 {
		return remindFailedError{failed: len(report.Failed)}
	}
	return nil
}

func previewReminders(cmd *cobra.Command, p *planner.Planner) error {
	messages, err := p.Reminders.Preview(cmd.Context())
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	if remindJSON {
		return encodeJSON(out, messages)
	}
	if len(messages) == 0 {
		fmt.Fprintln(out, "No subscribers.")
		return nil
	}

	pending := task.Names(p.Tasks.Pending(cmd.Context()))
	width := ui.TerminalWidth()
	for i, msg := range messages {
		if i > 0 {
			fmt.Fprintln(out)
		}
		doc := reminderMarkdown(msg.To, msg.Subject, pending, p.Links.UnsubscribeURL(cmd.Context(), msg.To))
		fmt.Fprintln(out, string(markdown.SafeRender(width, 0, []byte(doc))))
	}
	return nil
}

func reminderMarkdown(to, subject string, pending []string, unsubscribeURL string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "## %s\n\n", subject)
	fmt.Fprintf(&b, "To: %s\n\n", to)
	if len(pending) == 0 {
		b.WriteString("No pending tasks.\n\n")
	}
	for _, name := range pending {
		fmt.Fprintf(&b, "- %s\n", name)
	}
	fmt.Fprintf(&b, "\nUnsubscribe:\n\n%s\n", unsubscribeURL)
	return b.String()
}
