// Package email sends transactional mail over SMTP.
package email

import (
	"context"
	"fmt"

	"gopkg.in/gomail.v2"

	"github.com/repogate-inc/repogate/internal/application/purchase/usecases"
	"github.com/repogate-inc/repogate/internal/shared/config"
)

// SMTPNotifier sends buyer and admin notifications through a single
// SMTP account. Admin alerts are silently dropped when no admin address
// is configured.
type SMTPNotifier struct {
	cfg        *config.EmailConfig
	adminEmail string
	dialer     *gomail.Dialer
}

var _ usecases.Notifier = (*SMTPNotifier)(nil)

func NewSMTPNotifier(cfg *config.EmailConfig, adminEmail string) *SMTPNotifier {
	return &SMTPNotifier{
		cfg:        cfg,
		adminEmail: adminEmail,
		dialer:     gomail.NewDialer(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUser, cfg.SMTPPassword),
	}
}

func (s *SMTPNotifier) SendConfirmation(ctx context.Context, to, repoName string) error {
	subject := fmt.Sprintf("Your purchase of %s", repoName)
	htmlBody := fmt.Sprintf(`
		<html>
		<body>
			<h2>Thanks for your purchase!</h2>
			<p>We received your order for <strong>%s</strong>.</p>
			<p>Repository access is being set up. You will get another email once your GitHub invitation is on its way.</p>
		</body>
		</html>
	`, repoName)
	plainBody := fmt.Sprintf(`
Thanks for your purchase!

We received your order for %s.

Repository access is being set up. You will get another email once your GitHub invitation is on its way.
	`, repoName)
	return s.send(ctx, to, subject, htmlBody, plainBody)
}

func (s *SMTPNotifier) SendAccessGranted(ctx context.Context, to, repoName, githubRepo string) error {
	repoURL := "https://github.com/" + githubRepo
	subject := fmt.Sprintf("Access granted to %s", repoName)
	htmlBody := fmt.Sprintf(`
		<html>
		<body>
			<h2>You're in!</h2>
			<p>A GitHub invitation for <strong>%s</strong> has been sent to your account.</p>
			<p>Accept it and the repository will appear at:</p>
			<p><a href="%s">%s</a></p>
			<p>GitHub invitations expire after 7 days, so accept it soon.</p>
		</body>
		</html>
	`, repoName, repoURL, repoURL)
	plainBody := fmt.Sprintf(`
You're in!

A GitHub invitation for %s has been sent to your account.

Accept it and the repository will appear at:
%s

GitHub invitations expire after 7 days, so accept it soon.
	`, repoName, repoURL)
	return s.send(ctx, to, subject, htmlBody, plainBody)
}

func (s *SMTPNotifier) SendRevocation(ctx context.Context, to, repoName, reason string) error {
	subject := fmt.Sprintf("Access to %s has ended", repoName)
	htmlBody := fmt.Sprintf(`
		<html>
		<body>
			<h2>Access ended</h2>
			<p>Your access to <strong>%s</strong> has been removed.</p>
			<p>Reason: %s</p>
			<p>If you believe this is a mistake, reply to this email.</p>
		</body>
		</html>
	`, repoName, reason)
	plainBody := fmt.Sprintf(`
Access ended

Your access to %s has been removed.

Reason: %s

If you believe this is a mistake, reply to this email.
	`, repoName, reason)
	return s.send(ctx, to, subject, htmlBody, plainBody)
}

func (s *SMTPNotifier) SendRenewal(ctx context.Context, to, repoName string) error {
	subject := fmt.Sprintf("Subscription renewed for %s", repoName)
	htmlBody := fmt.Sprintf(`
		<html>
		<body>
			<h2>Subscription renewed</h2>
			<p>Your subscription for <strong>%s</strong> has renewed. Repository access continues uninterrupted.</p>
		</body>
		</html>
	`, repoName)
	plainBody := fmt.Sprintf(`
Subscription renewed

Your subscription for %s has renewed. Repository access continues uninterrupted.
	`, repoName)
	return s.send(ctx, to, subject, htmlBody, plainBody)
}

func (s *SMTPNotifier) SendAdminAlert(ctx context.Context, subject, body string) error {
	if s.adminEmail == "" {
		return nil
	}
	htmlBody := fmt.Sprintf(`
		<html>
		<body>
			<h2>%s</h2>
			<pre>%s</pre>
		</body>
		</html>
	`, subject, body)
	return s.send(ctx, s.adminEmail, "[repogate] "+subject, htmlBody, body)
}

func (s *SMTPNotifier) send(ctx context.Context, to, subject, htmlBody, plainBody string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	m := gomail.NewMessage()
	m.SetAddressHeader("From", s.cfg.FromAddress, s.cfg.FromName)
	m.SetHeader("To", to)
	m.SetHeader("Subject", subject)
	m.SetBody("text/plain", plainBody)
	m.AddAlternative("text/html", htmlBody)

	if err := s.dialer.DialAndSend(m); err != nil {
		return fmt.Errorf("failed to send email: %w", err)
	}
	return nil
}
