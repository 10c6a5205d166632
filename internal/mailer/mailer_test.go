package mailer

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wneessen/go-mail"

	"github.com/portfolio/backend/internal/metrics"
	"github.com/portfolio/backend/internal/model"
)

type fakeSender struct {
	mu      sync.Mutex
	sent    []*mail.Msg
	dials   int
	closed  int
	sendErr error
	dialErr error
}

func (f *fakeSender) DialAndSendWithContext(_ context.Context, msgs ...*mail.Msg) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.sendErr != nil {
		return f.sendErr
	}
	f.sent = append(f.sent, msgs...)
	return nil
}

func (f *fakeSender) DialWithContext(context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.dials++
	return f.dialErr
}

func (f *fakeSender) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed++
	return nil
}

func testConfig() Config {
	return Config{
		Host:        "smtp.example.com",
		Port:        587,
		Username:    "owner@example.com",
		Password:    "app-password",
		AdminEmail:  "admin@example.com",
		FromName:    "Portfolio Contact",
		OwnerName:   "Ada Lovelace",
		OwnerTitle:  "Software Engineer",
		GitHubURL:   "https://github.com/ada",
		LinkedInURL: "",
		Product:     "Portfolio Contact System",
	}
}

func newTestMailer(cfg Config, fake *fakeSender) *Mailer {
	m := New(cfg)
	m.dial = func() (sender, error) { return fake, nil }
	m.now = func() time.Time { return time.Date(2026, 3, 2, 15, 4, 0, 0, time.UTC) }
	return m
}

var sub = model.Submission{
	Name:    "Grace Hopper",
	Email:   "grace@example.com",
	Subject: "Collaboration",
	Message: "Hello there, <script>alert(1)</script> let's talk.",
}

func TestAdminNotification(t *testing.T) {
	m := newTestMailer(testConfig(), &fakeSender{})

	env, err := m.AdminNotification(sub)
	require.NoError(t, err)

	assert.Equal(t, "admin@example.com", env.To)
	assert.Equal(t, "owner@example.com", env.From)
	assert.Equal(t, "Portfolio Contact", env.FromName)
	assert.Equal(t, "grace@example.com", env.ReplyTo)
	assert.Equal(t, "New Portfolio Message – Collaboration", env.Subject)

	assert.Contains(t, env.Text, "Name: Grace Hopper")
	assert.Contains(t, env.Text, "<script>alert(1)</script>")
	assert.Contains(t, env.Text, "Monday, March 2, 2026 at 3:04 PM UTC")

	assert.NotContains(t, env.HTML, "<script>")
	assert.Contains(t, env.HTML, "&lt;script&gt;")
	assert.Contains(t, env.HTML, "Reply to Grace Hopper")
}

func TestAutoReply(t *testing.T) {
	m := newTestMailer(testConfig(), &fakeSender{})

	env, err := m.AutoReply(sub)
	require.NoError(t, err)

	assert.Equal(t, "grace@example.com", env.To)
	assert.Equal(t, "Ada Lovelace", env.FromName)
	assert.Empty(t, env.ReplyTo)
	assert.Equal(t, "Thanks for reaching out, Grace Hopper!", env.Subject)

	assert.Contains(t, env.Text, "Hi Grace Hopper,")
	assert.Contains(t, env.Text, "GitHub: https://github.com/ada")
	assert.NotContains(t, env.Text, "LinkedIn:")
	assert.Contains(t, env.HTML, "Software Engineer")
	assert.NotContains(t, env.HTML, "LinkedIn")
}

func TestAutoReply_NoLinks(t *testing.T) {
	cfg := testConfig()
	cfg.GitHubURL = ""
	cfg.OwnerTitle = ""
	m := newTestMailer(cfg, &fakeSender{})

	env, err := m.AutoReply(sub)
	require.NoError(t, err)
	assert.NotContains(t, env.Text, "feel free to connect")
	assert.NotContains(t, env.HTML, "feel free to connect")
	assert.True(t, strings.HasSuffix(strings.TrimSpace(env.Text), "Please do not reply to this email directly."))
}

func TestReceivedAtUsesLocation(t *testing.T) {
	cfg := testConfig()
	cfg.Location = time.FixedZone("IST", 5*3600+1800)
	m := newTestMailer(cfg, &fakeSender{})

	env, err := m.AdminNotification(sub)
	require.NoError(t, err)
	assert.Contains(t, env.Text, "Monday, March 2, 2026 at 8:34 PM IST")
}

func TestSend(t *testing.T) {
	fake := &fakeSender{}
	m := newTestMailer(testConfig(), fake)
	before := testutil.ToFloat64(metrics.MailSent.WithLabelValues(KindAutoReply, "ok"))

	require.NoError(t, m.SendAdminNotification(context.Background(), sub))
	require.NoError(t, m.SendAutoReply(context.Background(), sub))

	require.Len(t, fake.sent, 2)
	admin, err := fake.sent[0].GetRecipients()
	require.NoError(t, err)
	assert.Equal(t, []string{"admin@example.com"}, admin)
	reply, err := fake.sent[1].GetRecipients()
	require.NoError(t, err)
	assert.Equal(t, []string{"grace@example.com"}, reply)

	assert.Equal(t, before+1, testutil.ToFloat64(metrics.MailSent.WithLabelValues(KindAutoReply, "ok")))
}

func TestSend_TransportError(t *testing.T) {
	boom := errors.New("connection refused")
	m := newTestMailer(testConfig(), &fakeSender{sendErr: boom})
	before := testutil.ToFloat64(metrics.MailSent.WithLabelValues(KindAdminNotification, "error"))

	err := m.SendAdminNotification(context.Background(), sub)
	require.Error(t, err)
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, before+1, testutil.ToFloat64(metrics.MailSent.WithLabelValues(KindAdminNotification, "error")))
}

func TestSend_InvalidRecipient(t *testing.T) {
	fake := &fakeSender{}
	m := newTestMailer(testConfig(), fake)

	err := m.SendAutoReply(context.Background(), model.Submission{Name: "X", Email: "not an address"})
	require.Error(t, err)
	assert.Empty(t, fake.sent)
}

func TestNotConfigured(t *testing.T) {
	cfg := testConfig()
	cfg.Password = ""
	fake := &fakeSender{}
	m := newTestMailer(cfg, fake)

	assert.False(t, m.Configured())
	assert.ErrorIs(t, m.SendAdminNotification(context.Background(), sub), ErrNotConfigured)
	assert.ErrorIs(t, m.SendAutoReply(context.Background(), sub), ErrNotConfigured)
	assert.ErrorIs(t, m.Verify(context.Background()), ErrNotConfigured)
	assert.Empty(t, fake.sent)
	assert.Zero(t, fake.dials)
}

func TestVerify(t *testing.T) {
	fake := &fakeSender{}
	m := newTestMailer(testConfig(), fake)

	require.NoError(t, m.Verify(context.Background()))
	assert.Equal(t, 1, fake.dials)
	assert.Equal(t, 1, fake.closed)

	fake.dialErr = errors.New("535 authentication failed")
	err := m.Verify(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "535")
}

func TestSend_CanceledWhileThrottled(t *testing.T) {
	cfg := testConfig()
	cfg.SendRate = 0.001
	fake := &fakeSender{}
	m := newTestMailer(cfg, fake)

	// Burst of two goes through immediately.
	require.NoError(t, m.SendAdminNotification(context.Background(), sub))
	require.NoError(t, m.SendAutoReply(context.Background(), sub))

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	err := m.SendAutoReply(ctx, sub)
	require.Error(t, err)
	assert.Len(t, fake.sent, 2)
}
