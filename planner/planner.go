// Package planner assembles the task planner from configuration.
//
// It picks the document backend and mail transport named in the config and
// connects the task repository, the subscription workflow, the reminder
// dispatcher and the exporter to them. The web handler, the HTTP API and
// the CLI all start from a Planner.
package planner

import (
	"context"
	"errors"
	"fmt"
	"net"

	"github.com/amonks/taskplanner/docstore"
	"github.com/amonks/taskplanner/internal/config"
	"github.com/amonks/taskplanner/internal/logging"
	"github.com/amonks/taskplanner/internal/paths"
	"github.com/amonks/taskplanner/internal/validation"
	"github.com/amonks/taskplanner/notify"
	"github.com/amonks/taskplanner/reminder"
	"github.com/amonks/taskplanner/report"
	"github.com/amonks/taskplanner/subscription"
	"github.com/amonks/taskplanner/task"
	"github.com/charmbracelet/log"
)

// Backend names.
const (
	BackendFile   = "file"
	BackendMemory = "memory"
	BackendMySQL  = "mysql"
)

// Mail transport names.
const (
	TransportLog   = "log"
	TransportSMTP  = "smtp"
	TransportGmail = "gmail"
)

// Backends and Transports list the accepted config values.
var (
	Backends   = []string{BackendFile, BackendMemory, BackendMySQL}
	Transports = []string{TransportLog, TransportSMTP, TransportGmail}
)

var (
	// ErrUnknownBackend indicates an unsupported store backend.
	ErrUnknownBackend = errors.New("unknown store backend")

	// ErrUnknownTransport indicates an unsupported mail transport.
	ErrUnknownTransport = errors.New("unknown mail transport")
)

// Options configures Open.
type Options struct {
	Config *config.Config
	Logger *log.Logger

	// Backend and Notifier replace the configured store and transport.
	Backend  docstore.Backend
	Notifier notify.Notifier
}

// Planner holds the wired components.
type Planner struct {
	Config        *config.Config
	Logger        *log.Logger
	Backend       docstore.Backend
	Notifier      notify.Notifier
	Links         notify.Links
	Tasks         *task.Repository
	Subscriptions *subscription.Workflow
	Reminders     *reminder.Dispatcher
	Exporter      *report.Exporter

	closers []func() error
}

// Open builds a Planner from opts.
func Open(ctx context.Context, opts Options) (*Planner, error) {
	cfg := opts.Config
	if cfg == nil {
		cfg = &config.Config{}
	}
	logger := logging.OrDiscard(opts.Logger)

	p := &Planner{
		Config: cfg,
		Logger: logger,
		Links:  notify.Links{BaseURL: BaseURL(cfg.Server)},
	}

	p.Backend = opts.Backend
	if p.Backend == nil {
		backend, closer, err := OpenBackend(ctx, cfg.Store)
		if err != nil {
			return nil, err
		}
		p.Backend = backend
		if closer != nil {
			p.closers = append(p.closers, closer)
		}
	}

	p.Notifier = opts.Notifier
	if p.Notifier == nil {
		notifier, err := OpenNotifier(ctx, cfg.Mail, logger)
		if err != nil {
			p.Close()
			return nil, err
		}
		p.Notifier = notifier
	}

	p.Tasks = task.NewRepository(p.Backend, task.Options{Logger: logger})
	p.Subscriptions = subscription.NewWorkflow(p.Backend, p.Notifier, subscription.Options{
		Logger: logger,
		Links:  p.Links,
	})
	p.Reminders = reminder.NewDispatcher(p.Tasks, p.Subscriptions, p.Notifier, reminder.Options{
		Logger: logger,
		Links:  p.Links,
	})
	p.Exporter = report.NewExporter(p.Tasks)

	logger.Debug("planner opened", "backend", fmt.Sprintf("%T", p.Backend), "notifier", fmt.Sprintf("%T", p.Notifier))
	return p, nil
}

// Close releases the backend.
func (p *Planner) Close() error {
	var errs []error
	for i := len(p.closers) - 1; i >= 0; i-- {
		if err := p.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	p.closers = nil
	return errors.Join(errs...)
}

// BaseURL returns the configured base URL, or one derived from the listen
// address.
func BaseURL(server config.Server) string {
	if server.BaseURL != "" {
		return server.BaseURL
	}
	addr := server.Addr
	if addr == "" {
		addr = config.DefaultAddr
	}
	host, port, err := net.SplitHostPort(addr)
	if err != nil {
		return "http://" + addr
	}
	if host == "" || host == "0.0.0.0" || host == "::" {
		host = "localhost"
	}
	return "http://" + net.JoinHostPort(host, port)
}

// OpenBackend opens the configured document backend. The returned closer is
// nil when the backend holds no resources.
func OpenBackend(ctx context.Context, store config.Store) (docstore.Backend, func() error, error) {
	switch store.Backend {
	case "", BackendFile:
		dir, err := paths.ResolveWithDefault(store.Dir, paths.DefaultDataDir)
		if err != nil {
			return nil, nil, fmt.Errorf("resolve data dir: %w", err)
		}
		return docstore.NewFileBackend(dir), nil, nil
	case BackendMemory:
		return docstore.NewMemoryBackend(), nil, nil
	case BackendMySQL:
		if store.DSN == "" {
			return nil, nil, fmt.Errorf("mysql backend requires store.dsn")
		}
		backend, err := docstore.OpenSQL(ctx, store.DSN)
		if err != nil {
			return nil, nil, err
		}
		return backend, backend.Close, nil
	default:
		return nil, nil, validation.FormatInvalidValueError(ErrUnknownBackend, store.Backend, Backends)
	}
}

// OpenNotifier builds the configured mail transport.
func OpenNotifier(ctx context.Context, mail config.Mail, logger *log.Logger) (notify.Notifier, error) {
	switch mail.Transport {
	case "", TransportLog:
		return notify.NewLogNotifier(logger.WithPrefix("mail")), nil
	case TransportSMTP:
		n, err := notify.NewSMTPNotifier(notify.SMTPOptions{
			Host:     mail.SMTPHost,
			Port:     mail.SMTPPort,
			Username: mail.SMTPUsername,
			Password: mail.SMTPPassword,
			From:     mail.From,
		})
		if err != nil {
			return nil, err
		}
		return n, nil
	case TransportGmail:
		credentials, err := paths.ExpandHome(mail.GmailCredentials)
		if err != nil {
			return nil, err
		}
		token, err := paths.ExpandHome(mail.GmailToken)
		if err != nil {
			return nil, err
		}
		n, err := notify.NewGmailNotifier(ctx, notify.GmailOptions{
			CredentialsPath: credentials,
			TokenPath:       token,
			From:            mail.From,
		})
		if err != nil {
			return nil, err
		}
		return n, nil
	default:
		return nil, validation.FormatInvalidValueError(ErrUnknownTransport, mail.Transport, Transports)
	}
}
