package email

import (
	"context"
	"log/slog"

	"go.uber.org/fx"

	"gatekeeper/config"
	"gatekeeper/internal/domain/service"
)

// loggingSender logs messages instead of delivering them. Used when no SMTP
// relay is configured, so local development never needs a mail server.
type loggingSender struct {
	logger *slog.Logger
}

func (s *loggingSender) Send(_ context.Context, to string, template service.EmailTemplate, data map[string]string) error {
	s.logger.Info("[LogEmail] would send email",
		slog.String("to", to),
		slog.String("template", string(template)),
		slog.String("code", data["code"]),
	)

	return nil
}

// SenderParams holds dependencies for EmailSender, injected by Fx
type SenderParams struct {
	fx.In

	Config *config.Config
	Logger *slog.Logger
}

// NewEmailSender creates an EmailSender based on configuration.
func NewEmailSender(params SenderParams) service.EmailSender {
	cfg := params.Config.SMTP
	if cfg == nil || cfg.Host == "" {
		params.Logger.Info("SMTP not configured, using logging email sender")

		return &loggingSender{logger: params.Logger}
	}

	return NewSMTPSender(cfg, params.Logger)
}

// Module provides the email FX module
//
//nolint:gochecknoglobals
var Module = fx.Options(
	fx.Provide(NewEmailSender),
)
