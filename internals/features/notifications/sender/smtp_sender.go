package sender

import (
	"context"
	"crypto/tls"

	"github.com/google/logger"
	"gopkg.in/gomail.v2"

	"sharebook_backend/internals/configs"
	"sharebook_backend/internals/features/notifications/dispatcher"
)

// SMTPSender sends through one SMTP relay, opening a connection per message.
type SMTPSender struct {
	dialer *gomail.Dialer
	from   string
}

func NewSMTPSender(host string, port int, user, password, from string) *SMTPSender {
	d := gomail.NewDialer(host, port, user, password)
	d.TLSConfig = &tls.Config{ServerName: host, MinVersion: tls.VersionTLS12}
	return &SMTPSender{dialer: d, from: from}
}

// NewFromConfig picks the dry-run sender when MAIL_DRY_RUN is set.
func NewFromConfig() dispatcher.Sender {
	if configs.MailDryRun {
		return DryRunSender{}
	}
	return NewSMTPSender(configs.SMTPHost, configs.SMTPPort, configs.SMTPUser, configs.SMTPPassword, configs.MailFrom)
}

func (s *SMTPSender) Send(ctx context.Context, msg dispatcher.Message) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return s.dialer.DialAndSend(BuildMessage(s.from, msg))
}

// BuildMessage turns a dispatcher message into a MIME message.
func BuildMessage(from string, msg dispatcher.Message) *gomail.Message {
	m := gomail.NewMessage()
	m.SetHeader("From", from)
	m.SetHeader("To", msg.To)
	if len(msg.Cc) > 0 {
		m.SetHeader("Cc", msg.Cc...)
	}
	m.SetHeader("Subject", msg.Subject)
	m.SetBody("text/html", msg.HTML)
	return m
}

// DryRunSender only logs. It always succeeds.
type DryRunSender struct{}

func (DryRunSender) Send(ctx context.Context, msg dispatcher.Message) error {
	logger.Infof("[MAIL] dry-run %s to %s cc=%v subject=%q", msg.Template, msg.To, msg.Cc, msg.Subject)
	return nil
}

// IsDryRun reports whether s never reaches a server.
func IsDryRun(s dispatcher.Sender) bool {
	_, ok := s.(DryRunSender)
	return ok
}
