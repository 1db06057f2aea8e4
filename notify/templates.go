package notify

import (
	"context"
	"fmt"
	"html/template"
	"strings"
)

// Subjects of the messages the planner sends.
const (
	VerificationSubject = "Verify subscription to Task Planner"
	ReminderSubject     = "Task Planner - Pending Tasks Reminder"
)

var messageTemplates = template.Must(template.New("messages").Parse(`
{{- define "verification" -}}
<p>Click the link below to verify your subscription to Task Planner:</p>
<p><a id="verification-link" href="{{.Link}}">Verify Subscription</a></p>
{{- end -}}

{{- define "reminder" -}}
<h2>Pending Tasks Reminder</h2>
<p>Here are the current pending tasks:</p>
<ul>
{{- range .Tasks}}
<li>{{.}}</li>
{{- end}}
</ul>
<p><a id="unsubscribe-link" href="{{.UnsubscribeLink}}">Unsubscribe from notifications</a></p>
{{- end -}}
`))

// Composer renders the planner's outbound messages.
type Composer struct {
	Links Links
}

// Verification renders the message asking email to confirm its subscription.
func (c Composer) Verification(ctx context.Context, email, code string) (Message, error) {
	body, err := render("verification", struct{ Link string }{
		Link: c.Links.VerifyURL(ctx, email, code),
	})
	if err != nil {
		return Message{}, err
	}
	return Message{To: email, Subject: VerificationSubject, HTML: body}, nil
}

// Reminder renders the pending task reminder for one subscriber.
func (c Composer) Reminder(ctx context.Context, email string, taskNames []string) (Message, error) {
	body, err := render("reminder", struct {
		Tasks           []string
		UnsubscribeLink string
	}{
		Tasks:           taskNames,
		UnsubscribeLink: c.Links.UnsubscribeURL(ctx, email),
	})
	if err != nil {
		return Message{}, err
	}
	return Message{To: email, Subject: ReminderSubject, HTML: body}, nil
}

func render(name string, data any) (string, error) {
	var b strings.Builder
	if err := messageTemplates.ExecuteTemplate(&b, name, data); err != nil {
		return "", fmt.Errorf("render %s message: %w", name, err)
	}
	return b.String(), nil
}
