package service

import "context"

// EmailTemplate names a message template known to the mail infrastructure.
type EmailTemplate string

const (
	// TemplateVerifyEmail asks the recipient to confirm their address.
	TemplateVerifyEmail EmailTemplate = "verify_email"
	// TemplateResetPassword carries a password reset code.
	TemplateResetPassword EmailTemplate = "reset_password"
)

// EmailSender dispatches templated mail. Delivery is best-effort: callers
// treat failures as log-worthy, never as reasons to fail their own operation.
type EmailSender interface {
	// Send delivers a templated message to the recipient.
	Send(ctx context.Context, to string, template EmailTemplate, data map[string]string) error
}
