package web

import (
	"context"
	"errors"
	"html/template"
	"io"
	"net/http"
	"net/url"

	"github.com/amonks/taskplanner/internal/logging"
	internalstrings "github.com/amonks/taskplanner/internal/strings"
	"github.com/amonks/taskplanner/notify"
	"github.com/amonks/taskplanner/report"
	"github.com/amonks/taskplanner/subscription"
	"github.com/amonks/taskplanner/task"
	"github.com/charmbracelet/log"
)

// Messages shown to visitors.
const (
	MessageTaskExists         = "Task already exists!"
	MessageTaskSaveFailed     = "Could not save tasks."
	MessageVerificationSent   = "Verification email sent!"
	MessageAlreadySubscribed  = "Already subscribed or pending verification."
	MessageInvalidEmail       = "Invalid email address."
	MessageSendFailed         = "Could not send verification email."
	MessageVerified           = "Your email has been verified! You will now receive reminders."
	MessageVerifyFailed       = "Verification failed. Invalid or expired code."
	MessageUnsubscribed       = "You have been unsubscribed successfully."
	MessageUnsubscribeFailed  = "Unsubscription failed or email not found."
	messageInvalidFormRequest = "Invalid form input."
)

// Tasks is the task list the handler edits.
type Tasks interface {
	All(ctx context.Context) []task.Task
	Add(ctx context.Context, name string) (task.Task, error)
	SetCompleted(ctx context.Context, id string, completed bool) (task.Task, error)
	Delete(ctx context.Context, id string) error
}

// Subscriptions is the email subscription workflow.
type Subscriptions interface {
	Subscribe(ctx context.Context, email string) error
	Verify(ctx context.Context, email, code string) error
	Unsubscribe(ctx context.Context, email string) error
}

// Exporter renders the task list for download.
type Exporter interface {
	Export(ctx context.Context, w io.Writer, format report.Format) error
}

// Options configures the web handler.
type Options struct {
	Tasks         Tasks
	Subscriptions Subscriptions
	Exporter      Exporter

	// BaseURL overrides the origin used in emailed links. When empty,
	// links point back at the host the request arrived on.
	BaseURL string

	Logger *log.Logger
}

// Handler serves the task planner pages.
type Handler struct {
	tasks         Tasks
	subscriptions Subscriptions
	exporter      Exporter
	baseURL       string
	mux           *http.ServeMux
	templates     *templateWrapper
	logger        *log.Logger
}

// NewHandler creates a new web handler.
func NewHandler(opts Options) *Handler {
	handler := &Handler{
		tasks:         opts.Tasks,
		subscriptions: opts.Subscriptions,
		exporter:      opts.Exporter,
		baseURL:       internalstrings.TrimTrailingSlash(opts.BaseURL),
		templates:     newTemplateWrapper(),
		logger:        logging.OrDiscard(opts.Logger),
	}
	mux := http.NewServeMux()
	mux.HandleFunc("/{$}", handler.handleIndex)
	mux.HandleFunc("/tasks/add", handler.handleTasksAdd)
	mux.HandleFunc("/tasks/toggle", handler.handleTasksToggle)
	mux.HandleFunc("/tasks/delete", handler.handleTasksDelete)
	mux.HandleFunc("/tasks/export", handler.handleTasksExport)
	mux.HandleFunc("/subscribe", handler.handleSubscribe)
	mux.HandleFunc("/verify", handler.handleVerify)
	mux.HandleFunc("/unsubscribe", handler.handleUnsubscribe)
	handler.mux = mux
	return handler
}

// ServeHTTP implements http.Handler.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.mux.ServeHTTP(w, r)
}

type templateWrapper struct {
	tmpl *template.Template
}

func newTemplateWrapper() *templateWrapper {
	return &templateWrapper{tmpl: newTemplates()}
}

func (tw *templateWrapper) Render(w http.ResponseWriter, name string, data any) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_ = tw.tmpl.ExecuteTemplate(w, name, data)
}

type indexData struct {
	Tasks        []task.Task
	TaskError    string
	EmailMessage string
	Formats      []report.Format
}

type messageData struct {
	Title     string
	HeadingID string
	Heading   string
	Message   string
}

// formDraft carries the outcome of a form post to the page rendered after
// the redirect. It travels in a short-lived cookie so each visitor sees only
// their own messages.
type formDraft struct {
	taskError    string
	emailMessage string
}

func (h *Handler) handleIndex(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeMethodNotAllowed(w, http.MethodGet)
		return
	}

	data := indexData{
		Tasks:   h.tasks.All(r.Context()),
		Formats: report.Formats,
	}
	if draft := consumeDraft(w, r); draft != nil {
		data.TaskError = draft.taskError
		data.EmailMessage = draft.emailMessage
	}
	h.templates.Render(w, "index", data)
}

func (h *Handler) handleTasksAdd(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeMethodNotAllowed(w, http.MethodPost)
		return
	}
	if err := r.ParseForm(); err != nil {
		setDraft(w, formDraft{taskError: messageInvalidFormRequest})
		redirectHome(w, r)
		return
	}

	name := trimmedFormValue(r, "task-name")
	if name == "" {
		redirectHome(w, r)
		return
	}
	if _, err := h.tasks.Add(r.Context(), name); err != nil {
		setDraft(w, formDraft{taskError: h.taskErrorMessage("add task", err)})
	}
	redirectHome(w, r)
}

func (h *Handler) handleTasksToggle(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeMethodNotAllowed(w, http.MethodPost)
		return
	}
	if err := r.ParseForm(); err != nil {
		setDraft(w, formDraft{taskError: messageInvalidFormRequest})
		redirectHome(w, r)
		return
	}

	id := trimmedFormValue(r, "task-id")
	completed, ok := parseFlag(r.FormValue("toggle-task"))
	if id == "" || !ok {
		redirectHome(w, r)
		return
	}
	if _, err := h.tasks.SetCompleted(r.Context(), id, completed); err != nil {
		if msg := h.taskErrorMessage("toggle task", err); msg != "" {
			setDraft(w, formDraft{taskError: msg})
		}
	}
	redirectHome(w, r)
}

func (h *Handler) handleTasksDelete(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeMethodNotAllowed(w, http.MethodPost)
		return
	}
	if err := r.ParseForm(); err != nil {
		setDraft(w, formDraft{taskError: messageInvalidFormRequest})
		redirectHome(w, r)
		return
	}

	id := trimmedFormValue(r, "task-id")
	if id == "" {
		redirectHome(w, r)
		return
	}
	if err := h.tasks.Delete(r.Context(), id); err != nil {
		if msg := h.taskErrorMessage("delete task", err); msg != "" {
			setDraft(w, formDraft{taskError: msg})
		}
	}
	redirectHome(w, r)
}

func (h *Handler) handleTasksExport(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeMethodNotAllowed(w, http.MethodGet)
		return
	}
	format, err := report.ParseFormat(r.URL.Query().Get("format"))
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	w.Header().Set("Content-Type", format.ContentType())
	w.Header().Set("Content-Disposition", `attachment; filename="`+format.Filename()+`"`)
	if err := h.exporter.Export(r.Context(), w, format); err != nil {
		h.logger.Error("export tasks", "format", format, "err", err)
	}
}

func (h *Handler) handleSubscribe(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeMethodNotAllowed(w, http.MethodPost)
		return
	}
	if err := r.ParseForm(); err != nil {
		setDraft(w, formDraft{emailMessage: messageInvalidFormRequest})
		redirectHome(w, r)
		return
	}

	email := trimmedFormValue(r, "email")
	if !subscription.ValidEmail(email) {
		setDraft(w, formDraft{emailMessage: MessageInvalidEmail})
		redirectHome(w, r)
		return
	}

	ctx := notify.WithBaseURL(r.Context(), h.requestBaseURL(r))
	err := h.subscriptions.Subscribe(ctx, email)
	switch {
	case err == nil:
		setDraft(w, formDraft{emailMessage: MessageVerificationSent})
	case errors.Is(err, subscription.ErrAlreadySubscribed):
		setDraft(w, formDraft{emailMessage: MessageAlreadySubscribed})
	case errors.Is(err, notify.ErrDelivery):
		setDraft(w, formDraft{emailMessage: MessageSendFailed})
	default:
		h.logger.Error("subscribe", "email", email, "err", err)
		setDraft(w, formDraft{emailMessage: MessageSendFailed})
	}
	redirectHome(w, r)
}

func (h *Handler) handleVerify(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeMethodNotAllowed(w, http.MethodGet)
		return
	}

	data := messageData{
		Title:     "Email Verification",
		HeadingID: "verification-heading",
		Heading:   "Email Verification",
	}
	query := r.URL.Query()
	if query.Has("email") && query.Has("code") {
		if err := h.subscriptions.Verify(r.Context(), query.Get("email"), query.Get("code")); err != nil {
			if !errors.Is(err, subscription.ErrInvalidCode) {
				h.logger.Error("verify subscription", "err", err)
			}
			data.Message = MessageVerifyFailed
		} else {
			data.Message = MessageVerified
		}
	}
	h.templates.Render(w, "message", data)
}

func (h *Handler) handleUnsubscribe(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeMethodNotAllowed(w, http.MethodGet)
		return
	}

	data := messageData{
		Title:     "Unsubscribe",
		HeadingID: "unsubscription-heading",
		Heading:   "Unsubscribe from Task Updates",
	}
	query := r.URL.Query()
	if query.Has("email") {
		if err := h.subscriptions.Unsubscribe(r.Context(), query.Get("email")); err != nil {
			if !errors.Is(err, subscription.ErrNotSubscribed) {
				h.logger.Error("unsubscribe", "err", err)
			}
			data.Message = MessageUnsubscribeFailed
		} else {
			data.Message = MessageUnsubscribed
		}
	}
	h.templates.Render(w, "message", data)
}

// taskErrorMessage maps a repository error to the flash shown above the
// task list. Unknown ids are not reported.
func (h *Handler) taskErrorMessage(action string, err error) string {
	switch {
	case errors.Is(err, task.ErrDuplicateName):
		return MessageTaskExists
	case errors.Is(err, task.ErrNotFound), errors.Is(err, task.ErrEmptyName):
		h.logger.Debug(action, "err", err)
		return ""
	default:
		h.logger.Error(action, "err", err)
		return MessageTaskSaveFailed
	}
}

func (h *Handler) requestBaseURL(r *http.Request) string {
	if h.baseURL != "" {
		return h.baseURL
	}
	scheme := "http"
	if r.TLS != nil {
		scheme = "https"
	}
	return scheme + "://" + r.Host
}

const (
	draftCookie = "planner-flash"
	draftMaxAge = 60
)

// draftMessages lists the texts a draft cookie may carry; anything else is
// dropped when the cookie is read.
var draftMessages = map[string]bool{
	MessageTaskExists:         true,
	MessageTaskSaveFailed:     true,
	MessageVerificationSent:   true,
	MessageAlreadySubscribed:  true,
	MessageInvalidEmail:       true,
	MessageSendFailed:         true,
	messageInvalidFormRequest: true,
}

func setDraft(w http.ResponseWriter, draft formDraft) {
	values := url.Values{}
	if draft.taskError != "" {
		values.Set("task", draft.taskError)
	}
	if draft.emailMessage != "" {
		values.Set("email", draft.emailMessage)
	}
	http.SetCookie(w, &http.Cookie{
		Name:     draftCookie,
		Value:    values.Encode(),
		Path:     "/",
		MaxAge:   draftMaxAge,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}

// consumeDraft returns the draft stored in the request's cookie, if any,
// and expires the cookie.
func consumeDraft(w http.ResponseWriter, r *http.Request) *formDraft {
	cookie, err := r.Cookie(draftCookie)
	if err != nil {
		return nil
	}
	http.SetCookie(w, &http.Cookie{
		Name:     draftCookie,
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})

	values, err := url.ParseQuery(cookie.Value)
	if err != nil {
		return nil
	}
	draft := formDraft{
		taskError:    knownDraftMessage(values.Get("task")),
		emailMessage: knownDraftMessage(values.Get("email")),
	}
	if draft == (formDraft{}) {
		return nil
	}
	return &draft
}

func knownDraftMessage(message string) string {
	if draftMessages[message] {
		return message
	}
	return ""
}

// parseFlag reads the toggle-task form value.
func parseFlag(value string) (bool, bool) {
	switch internalstrings.TrimSpace(value) {
	case "1":
		return true, true
	case "0":
		return false, true
	default:
		return false, false
	}
}

func trimmedFormValue(r *http.Request, key string) string {
	return internalstrings.TrimSpace(r.FormValue(key))
}

func redirectHome(w http.ResponseWriter, r *http.Request) {
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func writeMethodNotAllowed(w http.ResponseWriter, allow string) {
	w.Header().Set("Allow", allow)
	http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
}
