package mail

import (
	"context"
	"fmt"
	"net/smtp"
	"strings"

	"github.com/rs/zerolog"
)

// SMTPMailer delivers auth mails over plain SMTP. Template content is an
// external collaborator concern; the bodies here carry only the link the
// flows require.
type SMTPMailer struct {
	addr    string
	from    string
	auth    smtp.Auth
	baseURL string
}

// NewSMTPMailer configures delivery via host:port. user/pass may be empty for
// unauthenticated relays.
func NewSMTPMailer(host, port, from, user, pass, baseURL string) *SMTPMailer {
	var auth smtp.Auth
	if user != "" {
		auth = smtp.PlainAuth("", user, pass, host)
	}
	return &SMTPMailer{
		addr:    host + ":" + port,
		from:    from,
		auth:    auth,
		baseURL: strings.TrimRight(baseURL, "/"),
	}
}

func (m *SMTPMailer) SendVerificationEmail(_ context.Context, to, name, token string) error {
	body := fmt.Sprintf("Hi %s,\r\n\r\nVerify your email:\r\n%s/auth/verify-email/%s\r\n", name, m.baseURL, token)
	return m.send(to, "Verify your email", body)
}

func (m *SMTPMailer) SendPasswordResetEmail(_ context.Context, to, name, token string) error {
	body := fmt.Sprintf("Hi %s,\r\n\r\nReset your password (valid 10 minutes):\r\n%s/auth/resetpassword/%s\r\n", name, m.baseURL, token)
	return m.send(to, "Password reset", body)
}

func (m *SMTPMailer) send(to, subject, body string) error {
	msg := fmt.Sprintf("From: %s\r\nTo: %s\r\nSubject: %s\r\n\r\n%s", m.from, to, subject, body)
	if err := smtp.SendMail(m.addr, m.auth, m.from, []string{to}, []byte(msg)); err != nil {
		return fmt.Errorf("smtp send: %w", err)
	}
	return nil
}

// LogMailer is the development fallback: it logs instead of delivering, with
// the token elided.
type LogMailer struct {
	log zerolog.Logger
}

func NewLogMailer(log zerolog.Logger) *LogMailer {
	return &LogMailer{log: log}
}

func (m *LogMailer) SendVerificationEmail(_ context.Context, to, _, _ string) error {
	m.log.Info().Str("to", to).Msg("verification mail (not delivered: no SMTP host configured)")
	return nil
}

func (m *LogMailer) SendPasswordResetEmail(_ context.Context, to, _, _ string) error {
	m.log.Info().Str("to", to).Msg("password reset mail (not delivered: no SMTP host configured)")
	return nil
}
