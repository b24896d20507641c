package service

import (
	"context"
	"log/slog"
	"net/url"
	"strings"
)

// Mailer delivers transactional email.
type Mailer interface {
	SendPasswordReset(ctx context.Context, email, token string) error
}

// LogMailer writes reset links to the log instead of sending email.
// Intended for development; the link contains a live token.
type LogMailer struct {
	logger  *slog.Logger
	baseURL string
}

// NewLogMailer creates a LogMailer that builds links under baseURL.
func NewLogMailer(logger *slog.Logger, baseURL string) *LogMailer {
	return &LogMailer{
		logger:  logger.With("component", "mailer"),
		baseURL: strings.TrimSuffix(baseURL, "/"),
	}
}

// SendPasswordReset logs the reset link.
func (m *LogMailer) SendPasswordReset(ctx context.Context, email, token string) error {
	m.logger.InfoContext(ctx, "password reset requested",
		"email", email,
		"reset_url", m.baseURL+"/reset-password?token="+url.QueryEscape(token),
	)
	return nil
}
