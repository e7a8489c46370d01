package services

import (
	"bytes"
	"crypto/tls"
	"fmt"
	"html/template"
	"net"
	"net/smtp"
	"strings"
	texttemplate "text/template"

	"cfb-picks/logging"
	"cfb-picks/models"
)

// EmailConfig holds SMTP configuration
type EmailConfig struct {
	SMTPHost     string
	SMTPPort     string
	SMTPUsername string
	SMTPPassword string
	FromEmail    string
	FromName     string
}

// Mailer sends a rendered message
type Mailer func(to, subject, textBody, htmlBody string) error

// EmailService sends account emails
type EmailService struct {
	config  EmailConfig
	baseURL string
	send    Mailer
	logger  *logging.Logger
}

// NewEmailService creates a new email service. baseURL is used to build
// links inside messages.
func NewEmailService(config EmailConfig, baseURL string) *EmailService {
	e := &EmailService{
		config:  config,
		baseURL: strings.TrimRight(baseURL, "/"),
		logger:  logging.WithPrefix("Email"),
	}
	e.send = e.sendSMTP
	return e
}

// WithMailer replaces the SMTP transport
func (e *EmailService) WithMailer(m Mailer) *EmailService {
	e.send = m
	return e
}

var verificationHTML = template.Must(template.New("verify_html").Parse(`<!DOCTYPE html>
<html>
<head><meta charset="UTF-8"><title>Verify your email</title></head>
<body style="font-family: Arial, sans-serif; line-height: 1.6; background-color: #f4f4f4; padding: 20px;">
  <div style="max-width: 600px; margin: 0 auto; background: white; padding: 20px; border-radius: 8px;">
    <h1 style="text-align: center; color: #2c3e50;">🏈 CFB Picks</h1>
    <p>Hello {{.Name}},</p>
    <p>Thanks for signing up. Confirm your email address to finish creating your account:</p>
    <p style="text-align: center; margin: 30px 0;">
      <a href="{{.VerifyURL}}" style="padding: 12px 24px; background-color: #3b82f6; color: white; text-decoration: none; border-radius: 4px; font-weight: bold;">Verify Email</a>
    </p>
    <p>If the button doesn't work, paste this link into your browser:</p>
    <p style="word-break: break-all; font-family: monospace;">{{.VerifyURL}}</p>
    <p style="font-size: 0.9em; color: #666;">This email was sent to {{.Email}}. If you didn't sign up you can ignore it.</p>
  </div>
</body>
</html>`))

var verificationText = texttemplate.Must(texttemplate.New("verify_text").Parse(`CFB Picks - Verify your email

Hello {{.Name}},

Thanks for signing up. Confirm your email address by visiting:
{{.VerifyURL}}

This email was sent to {{.Email}}. If you didn't sign up you can ignore it.
`))

// VerificationURL builds the link a user follows to verify their email
func (e *EmailService) VerificationURL(token string) string {
	return fmt.Sprintf("%s/verify-email?token=%s", e.baseURL, token)
}

// SendVerificationEmail sends the signup verification link
func (e *EmailService) SendVerificationEmail(user *models.User) error {
	data := struct {
		Name      string
		Email     string
		VerifyURL string
	}{
		Name:      user.DisplayName(),
		Email:     user.Email,
		VerifyURL: e.VerificationURL(user.VerificationToken),
	}

	var htmlBody, textBody bytes.Buffer
	if err := verificationHTML.Execute(&htmlBody, data); err != nil {
		return fmt.Errorf("failed to execute HTML template: %w", err)
	}
	if err := verificationText.Execute(&textBody, data); err != nil {
		return fmt.Errorf("failed to execute text template: %w", err)
	}

	if err := e.send(user.Email, "CFB Picks - Verify your email", textBody.String(), htmlBody.String()); err != nil {
		return err
	}
	e.logger.Infof("Verification email sent to %s", user.Email)
	return nil
}

// IsConfigured checks if SMTP settings are complete
func (e *EmailService) IsConfigured() bool {
	return e.config.SMTPHost != "" &&
		e.config.SMTPPort != "" &&
		e.config.SMTPUsername != "" &&
		e.config.SMTPPassword != "" &&
		e.config.FromEmail != ""
}

func (e *EmailService) dial() (*smtp.Client, error) {
	smtpAddr := net.JoinHostPort(e.config.SMTPHost, e.config.SMTPPort)

	conn, err := net.Dial("tcp", smtpAddr)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to SMTP server: %w", err)
	}

	client, err := smtp.NewClient(conn, e.config.SMTPHost)
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to create SMTP client: %w", err)
	}

	if ok, _ := client.Extension("STARTTLS"); ok {
		if err := client.StartTLS(&tls.Config{ServerName: e.config.SMTPHost}); err != nil {
			client.Close()
			return nil, fmt.Errorf("failed to start TLS: %w", err)
		}
	}

	auth := smtp.PlainAuth("", e.config.SMTPUsername, e.config.SMTPPassword, e.config.SMTPHost)
	if err := client.Auth(auth); err != nil {
		client.Close()
		return nil, fmt.Errorf("SMTP authentication failed: %w", err)
	}
	return client, nil
}

// sendSMTP delivers a multipart/alternative message over SMTP with STARTTLS
func (e *EmailService) sendSMTP(to, subject, textBody, htmlBody string) error {
	if !e.IsConfigured() {
		return fmt.Errorf("email service not configured")
	}

	client, err := e.dial()
	if err != nil {
		return err
	}
	defer client.Close()

	if err := client.Mail(e.config.FromEmail); err != nil {
		return fmt.Errorf("failed to set sender: %w", err)
	}
	if err := client.Rcpt(to); err != nil {
		return fmt.Errorf("failed to set recipient: %w", err)
	}

	writer, err := client.Data()
	if err != nil {
		return fmt.Errorf("failed to get data writer: %w", err)
	}
	if _, err := writer.Write(buildMessage(e.config, to, subject, textBody, htmlBody)); err != nil {
		writer.Close()
		return fmt.Errorf("failed to write email body: %w", err)
	}
	if err := writer.Close(); err != nil {
		return fmt.Errorf("failed to finish email: %w", err)
	}
	return client.Quit()
}

// TestConnection checks that the SMTP server accepts our credentials
func (e *EmailService) TestConnection() error {
	if !e.IsConfigured() {
		return fmt.Errorf("email service not configured")
	}
	client, err := e.dial()
	if err != nil {
		return err
	}
	return client.Close()
}

func buildMessage(cfg EmailConfig, to, subject, textBody, htmlBody string) []byte {
	const boundary = "cfb-picks-boundary"
	var b strings.Builder
	fmt.Fprintf(&b, "From: %s <%s>\r\n", cfg.FromName, cfg.FromEmail)
	fmt.Fprintf(&b, "To: %s\r\n", to)
	fmt.Fprintf(&b, "Subject: %s\r\n", subject)
	b.WriteString("MIME-Version: 1.0\r\n")
	fmt.Fprintf(&b, "Content-Type: multipart/alternative; boundary=%q\r\n\r\n", boundary)
	fmt.Fprintf(&b, "--%s\r\nContent-Type: text/plain; charset=UTF-8\r\n\r\n%s\r\n", boundary, textBody)
	fmt.Fprintf(&b, "--%s\r\nContent-Type: text/html; charset=UTF-8\r\n\r\n%s\r\n", boundary, htmlBody)
	fmt.Fprintf(&b, "--%s--\r\n", boundary)
	return []byte(b.String())
}
