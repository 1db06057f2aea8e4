package notify

import (
	"context"
	"fmt"
	"net"
	"net/smtp"
	"strconv"
	"time"
)

// SMTPOptions configures an SMTPNotifier.
type SMTPOptions struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
}

// SMTPNotifier sends messages through an SMTP relay.
type SMTPNotifier struct {
	addr string
	from string
	auth smtp.Auth
	send func(addr string, a smtp.Auth, from string, to []string, msg []byte) error
	now  func() time.Time
}

// NewSMTPNotifier returns a notifier for the relay at opts.Host:opts.Port.
// PLAIN auth is used when a username is set.
func NewSMTPNotifier(opts SMTPOptions) (*SMTPNotifier, error) {
	if opts.Host == "" {
		return nil, fmt.Errorf("smtp host is required")
	}
	if opts.From == "" {
		return nil, fmt.Errorf("smtp from address is required")
	}
	port := opts.Port
	if port == 0 {
		port = 25
	}

	var auth smtp.Auth
	if opts.Username != "" {
		auth = smtp.PlainAuth("", opts.Username, opts.Password, opts.Host)
	}

	return &SMTPNotifier{
		addr: net.JoinHostPort(opts.Host, strconv.Itoa(port)),
		from: opts.From,
		auth: auth,
		send: smtp.SendMail,
		now:  time.Now,
	}, nil
}

// Send hands msg to the relay.
func (n *SMTPNotifier) Send(ctx context.Context, msg Message) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return n.send(n.addr, n.auth, n.from, []string{msg.To}, buildMIME(n.from, msg, n.now()))
}
