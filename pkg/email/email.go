package email

import (
	"context"
	"fmt"
	"net/smtp"
	"strings"

	"go.uber.org/zap"

	"github.com/lingo-app/lingo-backend/pkg/logger"
)

// Email represents an email to be sent
type Email struct {
	To      string
	Subject string
	HTML    string
}

// VerificationEmailData contains data for the email verification message
type VerificationEmailData struct {
	Name   string
	Token  string
	AppURL string
}

// PasswordResetEmailData contains data for the password reset message
type PasswordResetEmailData struct {
	Name   string
	Token  string
	AppURL string
}

// Sender defines the interface for sending emails
type Sender interface {
	Send(ctx context.Context, email *Email) error
	SendVerification(ctx context.Context, to string, data *VerificationEmailData) error
	SendPasswordReset(ctx context.Context, to string, data *PasswordResetEmailData) error
}

// SMTPConfig holds SMTP server settings
type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
}

// SMTPSender sends emails through a plain SMTP server
type SMTPSender struct {
	cfg *SMTPConfig
}

// NewSMTPSender creates a new SMTP-backed sender
func NewSMTPSender(cfg *SMTPConfig) *SMTPSender {
	return &SMTPSender{cfg: cfg}
}

// Send sends an email over SMTP
func (s *SMTPSender) Send(ctx context.Context, email *Email) error {
	addr := fmt.Sprintf("%s:%d", s.cfg.Host, s.cfg.Port)

	var msg strings.Builder
	msg.WriteString("From: " + s.cfg.From + "\r\n")
	msg.WriteString("To: " + email.To + "\r\n")
	msg.WriteString("Subject: " + email.Subject + "\r\n")
	msg.WriteString("MIME-Version: 1.0\r\n")
	msg.WriteString("Content-Type: text/html; charset=\"UTF-8\"\r\n")
	msg.WriteString("\r\n")
	msg.WriteString(email.HTML)

	var auth smtp.Auth
	if s.cfg.Username != "" {
		auth = smtp.PlainAuth("", s.cfg.Username, s.cfg.Password, s.cfg.Host)
	}

	if err := smtp.SendMail(addr, auth, s.cfg.From, []string{email.To}, []byte(msg.String())); err != nil {
		return fmt.Errorf("failed to send email: %w", err)
	}

	return nil
}

// SendVerification sends the email verification message
func (s *SMTPSender) SendVerification(ctx context.Context, to string, data *VerificationEmailData) error {
	verifyURL := fmt.Sprintf("%s/api/auth/verify-email?token=%s", data.AppURL, data.Token)
	return s.Send(ctx, &Email{
		To:      to,
		Subject: "Verify Your Email",
		HTML: fmt.Sprintf(
			`<p>Hi %s,</p><p>Click <a href="%s">here</a> to verify your email. This link expires in 2 hours.</p>`,
			data.Name, verifyURL),
	})
}

// SendPasswordReset sends the password reset message
func (s *SMTPSender) SendPasswordReset(ctx context.Context, to string, data *PasswordResetEmailData) error {
	resetURL := fmt.Sprintf("%s/api/auth/reset-password?token=%s", data.AppURL, data.Token)
	return s.Send(ctx, &Email{
		To:      to,
		Subject: "Reset Your Password",
		HTML: fmt.Sprintf(
			`<p>Hi %s,</p><p>Click <a href="%s">here</a> to reset your password. This link expires in 5 minutes.</p>`,
			data.Name, resetURL),
	})
}

// MockSender logs emails instead of sending them. Used in development and tests.
type MockSender struct{}

// Send logs the email
func (m *MockSender) Send(ctx context.Context, email *Email) error {
	logger.Info("Mock email sent",
		zap.String("to", email.To),
		zap.String("subject", email.Subject))
	return nil
}

// SendVerification logs the verification email
func (m *MockSender) SendVerification(ctx context.Context, to string, data *VerificationEmailData) error {
	logger.Info("Mock verification email sent",
		zap.String("to", to),
		zap.String("token", data.Token))
	return nil
}

// SendPasswordReset logs the password reset email
func (m *MockSender) SendPasswordReset(ctx context.Context, to string, data *PasswordResetEmailData) error {
	logger.Info("Mock password reset email sent",
		zap.String("to", to),
		zap.String("token", data.Token))
	return nil
}
