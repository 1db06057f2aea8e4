package notify

import (
	"context"

	"github.com/amonks/taskplanner/internal/logging"
	"github.com/charmbracelet/log"
)

// LogNotifier writes messages to a logger instead of sending them.
// It never fails.
type LogNotifier struct {
	logger *log.Logger
}

// NewLogNotifier returns a notifier that logs each message at info level.
func NewLogNotifier(logger *log.Logger) *LogNotifier {
	return &LogNotifier{logger: logging.OrDiscard(logger)}
}

// Send logs msg.
func (n *LogNotifier) Send(_ context.Context, msg Message) error {
	n.logger.Info("email", "to", msg.To, "subject", msg.Subject, "html", msg.HTML)
	return nil
}
