// Package mailer delivers contact form notifications over SMTP: one message
// to the site owner and an automatic reply to the sender.
package mailer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/wneessen/go-mail"
	"golang.org/x/time/rate"

	"github.com/portfolio/backend/internal/metrics"
	"github.com/portfolio/backend/internal/model"
)

// ErrNotConfigured is returned when SMTP credentials are missing.
var ErrNotConfigured = errors.New("mailer: SMTP username and password are required")

const (
	KindAdminNotification = "admin_notification"
	KindAutoReply         = "auto_reply"
)

// Config holds everything the mailer needs. It is filled from application
// configuration once at startup.
type Config struct {
	Host       string
	Port       int
	Username   string
	Password   string
	AdminEmail string

	// FromName is the display name on admin notifications.
	FromName    string
	OwnerName   string
	OwnerTitle  string
	GitHubURL   string
	LinkedInURL string
	Product     string

	// SendRate caps outbound messages per second. Zero means unlimited.
	SendRate float64
	Timeout  time.Duration
	Location *time.Location
}

// sender is the part of *mail.Client the mailer uses.
type sender interface {
	DialAndSendWithContext(ctx context.Context, msgs ...*mail.Msg) error
	DialWithContext(ctx context.Context) error
	Close() error
}

// Envelope is a fully rendered message.
type Envelope struct {
	FromName string
	From     string
	To       string
	ReplyTo  string
	Subject  string
	Text     string
	HTML     string
}

func (e Envelope) message() (*mail.Msg, error) {
	m := mail.NewMsg()
	if err := m.FromFormat(e.FromName, e.From); err != nil {
		return nil, fmt.Errorf("from: %w", err)
	}
	if err := m.To(e.To); err != nil {
		return nil, fmt.Errorf("to: %w", err)
	}
	if e.ReplyTo != "" {
		if err := m.ReplyTo(e.ReplyTo); err != nil {
			return nil, fmt.Errorf("reply-to: %w", err)
		}
	}
	m.Subject(e.Subject)
	m.SetBodyString(mail.TypeTextPlain, e.Text)
	m.AddAlternativeString(mail.TypeTextHTML, e.HTML)
	return m, nil
}

// Mailer sends contact notifications. Each send opens its own SMTP session,
// so the admin notification and the auto-reply may go out concurrently.
type Mailer struct {
	cfg     Config
	dial    func() (sender, error)
	limiter *rate.Limiter
	now     func() time.Time
}

// New creates a Mailer. Missing credentials are not an error here: the
// Mailer is returned and every send or Verify fails with ErrNotConfigured.
func New(cfg Config) *Mailer {
	if cfg.Location == nil {
		cfg.Location = time.UTC
	}
	limit := rate.Inf
	if cfg.SendRate > 0 {
		limit = rate.Limit(cfg.SendRate)
	}

	m := &Mailer{
		cfg:     cfg,
		limiter: rate.NewLimiter(limit, 2),
		now:     time.Now,
	}
	m.dial = m.newClient
	return m
}

func (m *Mailer) newClient() (sender, error) {
	opts := []mail.Option{
		mail.WithPort(m.cfg.Port),
		mail.WithSMTPAuth(mail.SMTPAuthPlain),
		mail.WithUsername(m.cfg.Username),
		mail.WithPassword(m.cfg.Password),
	}
	if m.cfg.Port == 465 {
		opts = append(opts, mail.WithSSL())
	} else {
		opts = append(opts, mail.WithTLSPolicy(mail.TLSMandatory))
	}
	if m.cfg.Timeout > 0 {
		opts = append(opts, mail.WithTimeout(m.cfg.Timeout))
	}

	c, err := mail.NewClient(m.cfg.Host, opts...)
	if err != nil {
		return nil, fmt.Errorf("mailer: new client: %w", err)
	}
	return c, nil
}

// Configured reports whether SMTP credentials were provided.
func (m *Mailer) Configured() bool {
	return m.cfg.Username != "" && m.cfg.Password != ""
}

// AdminEmail returns the notification recipient.
func (m *Mailer) AdminEmail() string {
	return m.cfg.AdminEmail
}

// Verify connects and authenticates to the SMTP server without sending.
func (m *Mailer) Verify(ctx context.Context) error {
	if !m.Configured() {
		return ErrNotConfigured
	}
	c, err := m.dial()
	if err != nil {
		return err
	}
	if err := c.DialWithContext(ctx); err != nil {
		return fmt.Errorf("mailer: verify: %w", err)
	}
	return c.Close()
}

// SendAdminNotification tells the site owner about a new submission.
func (m *Mailer) SendAdminNotification(ctx context.Context, sub model.Submission) error {
	env, err := m.AdminNotification(sub)
	if err != nil {
		return err
	}
	return m.send(ctx, KindAdminNotification, env)
}

// SendAutoReply acknowledges the submission to its sender.
func (m *Mailer) SendAutoReply(ctx context.Context, sub model.Submission) error {
	env, err := m.AutoReply(sub)
	if err != nil {
		return err
	}
	return m.send(ctx, KindAutoReply, env)
}

// AdminNotification renders the owner notification for sub.
func (m *Mailer) AdminNotification(sub model.Submission) (Envelope, error) {
	text, html, err := render(KindAdminNotification, m.data(sub))
	if err != nil {
		return Envelope{}, fmt.Errorf("mailer: %w", err)
	}
	return Envelope{
		FromName: m.cfg.FromName,
		From:     m.cfg.Username,
		To:       m.cfg.AdminEmail,
		ReplyTo:  sub.Email,
		Subject:  "New Portfolio Message – " + sub.Subject,
		Text:     text,
		HTML:     html,
	}, nil
}

// AutoReply renders the acknowledgement sent back to the submitter.
func (m *Mailer) AutoReply(sub model.Submission) (Envelope, error) {
	text, html, err := render(KindAutoReply, m.data(sub))
	if err != nil {
		return Envelope{}, fmt.Errorf("mailer: %w", err)
	}
	return Envelope{
		FromName: m.cfg.OwnerName,
		From:     m.cfg.Username,
		To:       sub.Email,
		Subject:  fmt.Sprintf("Thanks for reaching out, %s!", sub.Name),
		Text:     text,
		HTML:     html,
	}, nil
}

func (m *Mailer) data(sub model.Submission) templateData {
	return templateData{
		Name:        sub.Name,
		Email:       sub.Email,
		Subject:     sub.Subject,
		Message:     sub.Message,
		ReceivedAt:  m.now().In(m.cfg.Location).Format("Monday, January 2, 2006 at 3:04 PM MST"),
		OwnerName:   m.cfg.OwnerName,
		OwnerTitle:  m.cfg.OwnerTitle,
		GitHubURL:   m.cfg.GitHubURL,
		LinkedInURL: m.cfg.LinkedInURL,
		Product:     m.cfg.Product,
	}
}

func (m *Mailer) send(ctx context.Context, kind string, env Envelope) (err error) {
	defer func() {
		result := "ok"
		if err != nil {
			result = "error"
		}
		metrics.MailSent.WithLabelValues(kind, result).Inc()
	}()

	if !m.Configured() {
		return ErrNotConfigured
	}
	if err := m.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("mailer: throttle %s: %w", kind, err)
	}

	msg, err := env.message()
	if err != nil {
		return fmt.Errorf("mailer: build %s: %w", kind, err)
	}
	c, err := m.dial()
	if err != nil {
		return err
	}
	if err := c.DialAndSendWithContext(ctx, msg); err != nil {
		slog.Error("mail send failed", "kind", kind, "error", err)
		return fmt.Errorf("mailer: send %s: %w", kind, err)
	}

	slog.Info("mail sent", "kind", kind)
	return nil
}
