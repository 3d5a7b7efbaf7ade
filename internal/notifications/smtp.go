package notifications

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/mail"
	"net/smtp"
	"strconv"
	"strings"

	"github.com/angelmondragon/storefront-backend/pkg/config"
)

type sendMailFunc func(addr string, auth smtp.Auth, from string, to []string, msg []byte) error

// SMTPSender delivers plain-text mail with PLAIN auth.
type SMTPSender struct {
	addr     string
	auth     smtp.Auth
	from     mail.Address
	sendMail sendMailFunc
}

// NewSMTPSender builds an SMTP sender from config. Auth is skipped when no user is set.
func NewSMTPSender(cfg config.NotificationsConfig) (*SMTPSender, error) {
	host := strings.TrimSpace(cfg.SMTPHost)
	if host == "" {
		return nil, errors.New("smtp host is required")
	}
	if strings.TrimSpace(cfg.FromEmail) == "" {
		return nil, errors.New("from email is required")
	}
	port := cfg.SMTPPort
	if port <= 0 {
		port = 587
	}

	var auth smtp.Auth
	if user := strings.TrimSpace(cfg.SMTPUser); user != "" {
		auth = smtp.PlainAuth("", user, cfg.SMTPPassword, host)
	}

	return &SMTPSender{
		addr:     net.JoinHostPort(host, strconv.Itoa(port)),
		auth:     auth,
		from:     mail.Address{Name: cfg.FromName, Address: cfg.FromEmail},
		sendMail: smtp.SendMail,
	}, nil
}

// Send formats and transmits msg. net/smtp has no context support, so ctx is
// only checked before dialing.
func (s *SMTPSender) Send(ctx context.Context, msg Message) error {
	if err := msg.validate(); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	raw := s.compose(msg)
	if err := s.sendMail(s.addr, s.auth, s.from.Address, []string{msg.RecipientEmail}, raw); err != nil {
		return fmt.Errorf("smtp send to %s: %w", msg.RecipientEmail, err)
	}
	return nil
}

func (s *SMTPSender) compose(msg Message) []byte {
	var b strings.Builder
	fmt.Fprintf(&b, "From: %s\r\n", s.from.String())
	fmt.Fprintf(&b, "To: %s\r\n", msg.RecipientEmail)
	fmt.Fprintf(&b, "Subject: %s\r\n", msg.Subject)
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString("Content-Type: text/plain; charset=UTF-8\r\n\r\n")
	b.WriteString(strings.ReplaceAll(msg.Body, "\n", "\r\n"))
	return []byte(b.String())
}
