package alert

import (
	"context"
	"io"
	"net"
	"sync"
	"testing"
	"time"

	"github.com/emersion/go-smtp"
	"github.com/phishnet/phish-detector/internal/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type capturedMail struct {
	from       string
	recipients []string
	body       string
}

type captureBackend struct {
	mu    sync.Mutex
	mails []capturedMail
	done  chan struct{}
}

func (b *captureBackend) NewSession(_ *smtp.Conn) (smtp.Session, error) {
	return &captureSession{backend: b}, nil
}

type captureSession struct {
	backend *captureBackend
	current capturedMail
}

func (s *captureSession) Reset()        { s.current = capturedMail{} }
func (s *captureSession) Logout() error { return nil }

func (s *captureSession) Mail(from string, _ *smtp.MailOptions) error {
	s.current.from = from
	return nil
}

func (s *captureSession) Rcpt(to string, _ *smtp.RcptOptions) error {
	s.current.recipients = append(s.current.recipients, to)
	return nil
}

func (s *captureSession) Data(r io.Reader) error {
	data, err := io.ReadAll(r)
	if err != nil {
		return err
	}
	s.current.body = string(data)
	s.backend.mu.Lock()
	s.backend.mails = append(s.backend.mails, s.current)
	s.backend.mu.Unlock()
	close(s.backend.done)
	return nil
}

func startRelay(t *testing.T) (string, *captureBackend) {
	t.Helper()

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	backend := &captureBackend{done: make(chan struct{})}
	server := smtp.NewServer(backend)
	server.Domain = "localhost"
	server.ReadTimeout = 5 * time.Second
	server.WriteTimeout = 5 * time.Second

	go server.Serve(ln)
	t.Cleanup(func() { server.Close() })

	return ln.Addr().String(), backend
}

func phishingResult() *core.ClassificationResult {
	return &core.ClassificationResult{
		IsPhishing:          true,
		ConfidenceScore:     92,
		RiskLevel:           core.RiskHigh,
		Reasons:             []string{"brand impersonation", "credential form"},
		PossibleTargetBrand: "PayPal",
		Recommendation:      "Do not enter credentials",
	}
}

func TestSMTPAlerter_DeliversReport(t *testing.T) {
	addr, backend := startRelay(t)

	alerter, err := NewSMTPAlerter(SMTPConfig{
		Address: addr,
		From:    "phishnet@example.com",
		To:      []string{"soc@example.com"},
		Timeout: 5 * time.Second,
	}, zap.NewNop())
	require.NoError(t, err)

	err = alerter.Alert(context.Background(), "http://paypa1-login.example/verify", phishingResult())
	require.NoError(t, err)

	select {
	case <-backend.done:
	case <-time.After(5 * time.Second):
		t.Fatal("relay never received the alert")
	}

	backend.mu.Lock()
	defer backend.mu.Unlock()
	require.Len(t, backend.mails, 1)
	mail := backend.mails[0]
	assert.Equal(t, "phishnet@example.com", mail.from)
	assert.Equal(t, []string{"soc@example.com"}, mail.recipients)
	assert.Contains(t, mail.body, "Subject: [phishnet] high risk phishing detected")
	assert.Contains(t, mail.body, "URL: http://paypa1-login.example/verify")
	assert.Contains(t, mail.body, "Confidence: 92")
	assert.Contains(t, mail.body, "Target brand: PayPal")
	assert.Contains(t, mail.body, "  - credential form")
}

func TestSMTPAlerter_ConnectionRefused(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := ln.Addr().String()
	ln.Close()

	alerter, err := NewSMTPAlerter(SMTPConfig{
		Address: addr,
		From:    "phishnet@example.com",
		To:      []string{"soc@example.com"},
		Timeout: time.Second,
	}, zap.NewNop())
	require.NoError(t, err)

	err = alerter.Alert(context.Background(), "http://example.com", phishingResult())
	assert.Error(t, err)
}

func TestNewSMTPAlerter_Validation(t *testing.T) {
	tests := []struct {
		name string
		cfg  SMTPConfig
	}{
		{name: "missing address", cfg: SMTPConfig{From: "a@b.c", To: []string{"d@e.f"}}},
		{name: "missing sender", cfg: SMTPConfig{Address: "localhost:25", To: []string{"d@e.f"}}},
		{name: "missing recipients", cfg: SMTPConfig{Address: "localhost:25", From: "a@b.c"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewSMTPAlerter(tt.cfg, zap.NewNop())
			assert.Error(t, err)
		})
	}
}

func TestLogAlerter_NeverFails(t *testing.T) {
	a := NewLogAlerter(zap.NewNop())
	assert.NoError(t, a.Alert(context.Background(), "http://example.com", phishingResult()))
	assert.NoError(t, a.Alert(context.Background(), "http://example.com", nil))
	assert.NoError(t, NopAlerter{}.Alert(context.Background(), "http://example.com", phishingResult()))
}
