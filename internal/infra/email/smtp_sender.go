// Package email delivers templated mail for verification and password reset flows.
package email

import (
	"context"
	"fmt"
	"log/slog"
	"net/smtp"
	"strconv"
	"strings"

	"github.com/pkg/errors"

	"gatekeeper/config"
	"gatekeeper/internal/domain/service"
)

// smtpSender implements service.EmailSender over a plain SMTP relay.
type smtpSender struct {
	host     string
	port     int
	username string
	password string
	from     string
	baseURL  string
	logger   *slog.Logger

	// send is swappable for tests; defaults to smtp.SendMail.
	send func(addr string, a smtp.Auth, from string, to []string, msg []byte) error
}

// NewSMTPSender creates an SMTP-backed email sender.
func NewSMTPSender(cfg *config.SMTPConfig, logger *slog.Logger) service.EmailSender {
	return &smtpSender{
		host:     cfg.Host,
		port:     cfg.Port,
		username: cfg.Username,
		password: cfg.Password,
		from:     cfg.From,
		baseURL:  strings.TrimRight(cfg.BaseURL, "/"),
		logger:   logger,
		send:     smtp.SendMail,
	}
}

// Send renders the named template and delivers it to the recipient.
func (s *smtpSender) Send(ctx context.Context, to string, template service.EmailTemplate, data map[string]string) error {
	subject, body, err := s.render(template, data)
	if err != nil {
		return err
	}

	msg := strings.Builder{}
	msg.WriteString("From: " + s.from + "\r\n")
	msg.WriteString("To: " + to + "\r\n")
	msg.WriteString("Subject: " + subject + "\r\n")
	msg.WriteString("MIME-Version: 1.0\r\nContent-Type: text/plain; charset=utf-8\r\n")
	msg.WriteString("\r\n")
	msg.WriteString(body)

	addr := s.host + ":" + strconv.Itoa(s.port)

	var auth smtp.Auth
	if s.username != "" {
		auth = smtp.PlainAuth("", s.username, s.password, s.host)
	}

	if err := s.send(addr, auth, s.from, []string{to}, []byte(msg.String())); err != nil {
		s.logger.Error("failed to send email",
			slog.String("template", string(template)),
			slog.Any("error", err),
		)

		return errors.Wrap(err, "send mail")
	}

	s.logger.Info("email sent",
		slog.String("template", string(template)),
	)

	return nil
}

func (s *smtpSender) render(template service.EmailTemplate, data map[string]string) (subject, body string, err error) {
	code := data["code"]

	switch template {
	case service.TemplateVerifyEmail:
		subject = "Verify your email address"
		body = fmt.Sprintf(
			"Welcome!\r\n\r\nPlease confirm your email address by opening the link below:\r\n\r\n%s/auth/verify?token=%s\r\n\r\nThe link is valid for 24 hours.\r\n",
			s.baseURL, code,
		)

		return subject, body, nil

	case service.TemplateResetPassword:
		subject = "Reset your password"
		body = fmt.Sprintf(
			"A password reset was requested for your account.\r\n\r\nUse the link below to choose a new password:\r\n\r\n%s/auth/reset-password?token=%s\r\n\r\nThe link is valid for 24 hours. If you did not request this, ignore this message.\r\n",
			s.baseURL, code,
		)

		return subject, body, nil

	default:
		return "", "", errors.Errorf("unknown email template: %s", template)
	}
}
