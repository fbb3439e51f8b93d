package notification

import (
	"context"
	"fmt"
	"net/url"
	"time"

	"github.com/wneessen/go-mail"
)

// EmailConfig holds SMTP and link settings.
type EmailConfig struct {
	Host       string
	Port       int
	User       string
	Password   string
	From       string
	FromName   string
	TLS        bool
	AppBaseURL string
	ResetTTL   time.Duration
}

type sender interface {
	DialAndSendWithContext(ctx context.Context, messages ...*mail.Msg) error
}

// EmailService sends account lifecycle emails over SMTP.
type EmailService struct {
	config EmailConfig
	client sender
}

// NewEmailService creates an SMTP-backed email service.
func NewEmailService(config EmailConfig) (*EmailService, error) {
	opts := []mail.Option{mail.WithPort(config.Port)}
	if config.User != "" {
		opts = append(opts,
			mail.WithSMTPAuth(mail.SMTPAuthPlain),
			mail.WithUsername(config.User),
			mail.WithPassword(config.Password),
		)
	}
	if config.TLS {
		opts = append(opts, mail.WithTLSPolicy(mail.TLSMandatory))
	} else {
		opts = append(opts, mail.WithTLSPolicy(mail.NoTLS))
	}

	client, err := mail.NewClient(config.Host, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create smtp client: %w", err)
	}
	return newEmailService(config, client), nil
}

func newEmailService(config EmailConfig, client sender) *EmailService {
	if config.ResetTTL <= 0 {
		config.ResetTTL = time.Hour
	}
	return &EmailService{config: config, client: client}
}

// SendVerificationEmail sends the link that confirms the address.
func (s *EmailService) SendVerificationEmail(ctx context.Context, to, token string) error {
	link := fmt.Sprintf("%s/auth/verify-email?token=%s", s.config.AppBaseURL, url.QueryEscape(token))
	body := fmt.Sprintf(`<html><body>
		<h2>Verify Your Email Address</h2>
		<p>Thank you for registering! Please verify your email address to complete your registration.</p>
		<p><a href="%s">Click here to verify your email</a></p>
		<p>Or copy this link to your browser: %s</p>
	</body></html>`, link, link)
	return s.send(ctx, to, "Verify Your Email Address", body)
}

// SendPasswordResetEmail sends the 6-digit reset code.
func (s *EmailService) SendPasswordResetEmail(ctx context.Context, to, code string) error {
	body := fmt.Sprintf(`<html><body>
		<h2>Reset Your Password</h2>
		<p>A password reset has been requested for your account.</p>
		<p>Your reset code is <strong>%s</strong>.</p>
		<p>This code will expire in %s.</p>
		<p>If you did not request this password reset, please ignore this email.</p>
	</body></html>`, code, humanDuration(s.config.ResetTTL))
	return s.send(ctx, to, "Reset Your Password", body)
}

// SendAccountBlockedEmail tells the owner their account is locked until until.
func (s *EmailService) SendAccountBlockedEmail(ctx context.Context, to string, until time.Time) error {
	body := fmt.Sprintf(`<html><body>
		<h2>Your Account Has Been Locked</h2>
		<p>We detected too many failed sign-in attempts on your account.</p>
		<p>Sign-in is blocked until %s.</p>
		<p>If this was not you, reset your password once the lock expires.</p>
	</body></html>`, until.UTC().Format(time.RFC1123))
	return s.send(ctx, to, "Your Account Has Been Locked", body)
}

func (s *EmailService) send(ctx context.Context, to, subject, body string) error {
	// Bodies are ASCII; skip quoted-printable so links stay intact.
	msg := mail.NewMsg(mail.WithEncoding(mail.NoEncoding))
	if err := msg.FromFormat(s.config.FromName, s.config.From); err != nil {
		return fmt.Errorf("failed to set From address: %w", err)
	}
	if err := msg.To(to); err != nil {
		return fmt.Errorf("failed to set To address: %w", err)
	}
	msg.Subject(subject)
	msg.SetBodyString(mail.TypeTextHTML, body)

	if err := s.client.DialAndSendWithContext(ctx, msg); err != nil {
		return fmt.Errorf("failed to send email: %w", err)
	}
	return nil
}

func humanDuration(d time.Duration) string {
	if d%time.Hour == 0 {
		h := int(d / time.Hour)
		if h == 1 {
			return "1 hour"
		}
		return fmt.Sprintf("%d hours", h)
	}
	return fmt.Sprintf("%d minutes", int(d/time.Minute))
}
