package alert

import (
	"bytes"
	"context"
	"fmt"
	"net"
	"os"
	"strings"
	"time"

	"github.com/emersion/go-sasl"
	"github.com/emersion/go-smtp"
	"github.com/phishnet/phish-detector/internal/core"
	"go.uber.org/zap"
)

const defaultDialTimeout = 10 * time.Second

// SMTPConfig describes the relay used to deliver alert mail
type SMTPConfig struct {
	Address  string
	From     string
	To       []string
	Username string
	Password string
	Timeout  time.Duration
}

// SMTPAlerter mails a short report for every phishing detection
type SMTPAlerter struct {
	cfg    SMTPConfig
	logger *zap.Logger
}

// NewSMTPAlerter creates a new SMTP alerter
func NewSMTPAlerter(cfg SMTPConfig, logger *zap.Logger) (*SMTPAlerter, error) {
	if cfg.Address == "" {
		return nil, fmt.Errorf("smtp alerter requires an address")
	}
	if cfg.From == "" || len(cfg.To) == 0 {
		return nil, fmt.Errorf("smtp alerter requires a sender and at least one recipient")
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultDialTimeout
	}
	return &SMTPAlerter{cfg: cfg, logger: logger}, nil
}

// Alert delivers the report to every configured recipient
func (a *SMTPAlerter) Alert(ctx context.Context, url string, result *core.ClassificationResult) error {
	if result == nil {
		return nil
	}

	dialer := net.Dialer{Timeout: a.cfg.Timeout}
	conn, err := dialer.DialContext(ctx, "tcp", a.cfg.Address)
	if err != nil {
		return fmt.Errorf("failed to connect to smtp relay: %w", err)
	}

	deadline := time.Now().Add(a.cfg.Timeout)
	if d, ok := ctx.Deadline(); ok && d.Before(deadline) {
		deadline = d
	}
	if err := conn.SetDeadline(deadline); err != nil {
		conn.Close()
		return fmt.Errorf("failed to set connection deadline: %w", err)
	}

	c := smtp.NewClient(conn)
	defer c.Close()

	hostname, err := os.Hostname()
	if err != nil {
		hostname = "localhost"
	}
	if err := c.Hello(hostname); err != nil {
		return fmt.Errorf("HELO failed: %w", err)
	}

	if a.cfg.Username != "" {
		if ok, _ := c.Extension("AUTH"); ok {
			if err := c.Auth(sasl.NewPlainClient("", a.cfg.Username, a.cfg.Password)); err != nil {
				return fmt.Errorf("AUTH failed: %w", err)
			}
		} else {
			a.logger.Warn("SMTP relay does not advertise AUTH, sending unauthenticated",
				zap.String("address", a.cfg.Address))
		}
	}

	if err := c.Mail(a.cfg.From, nil); err != nil {
		return fmt.Errorf("MAIL FROM failed: %w", err)
	}

	recipientOK := false
	for _, rcpt := range a.cfg.To {
		if err := c.Rcpt(rcpt, nil); err != nil {
			a.logger.Warn("Recipient rejected", zap.String("recipient", rcpt), zap.Error(err))
			continue
		}
		recipientOK = true
	}
	if !recipientOK {
		return fmt.Errorf("no valid recipients")
	}

	wc, err := c.Data()
	if err != nil {
		return fmt.Errorf("DATA failed: %w", err)
	}
	if _, err := wc.Write(a.buildMessage(url, result)); err != nil {
		wc.Close()
		return fmt.Errorf("failed to write message: %w", err)
	}
	if err := wc.Close(); err != nil {
		return fmt.Errorf("failed to finish message: %w", err)
	}

	if err := c.Quit(); err != nil {
		a.logger.Warn("QUIT failed", zap.Error(err))
	}

	a.logger.Debug("Phishing alert mailed",
		zap.String("url", url),
		zap.Int("recipients", len(a.cfg.To)))
	return nil
}

func (a *SMTPAlerter) buildMessage(url string, result *core.ClassificationResult) []byte {
	var buf bytes.Buffer

	fmt.Fprintf(&buf, "From: %s\r\n", a.cfg.From)
	fmt.Fprintf(&buf, "To: %s\r\n", strings.Join(a.cfg.To, ", "))
	fmt.Fprintf(&buf, "Subject: [phishnet] %s risk phishing detected\r\n", result.RiskLevel)
	fmt.Fprintf(&buf, "Date: %s\r\n", time.Now().Format(time.RFC1123Z))
	buf.WriteString("MIME-Version: 1.0\r\n")
	buf.WriteString("Content-Type: text/plain; charset=utf-8\r\n")
	buf.WriteString("\r\n")

	fmt.Fprintf(&buf, "URL: %s\r\n", url)
	fmt.Fprintf(&buf, "Confidence: %d\r\n", result.ConfidenceScore)
	fmt.Fprintf(&buf, "Risk level: %s\r\n", result.RiskLevel)
	if result.PossibleTargetBrand != "" {
		fmt.Fprintf(&buf, "Target brand: %s\r\n", result.PossibleTargetBrand)
	}
	if len(result.Reasons) > 0 {
		buf.WriteString("\r\nReasons:\r\n")
		for _, r := range result.Reasons {
			fmt.Fprintf(&buf, "  - %s\r\n", r)
		}
	}
	if result.Recommendation != "" {
		fmt.Fprintf(&buf, "\r\nRecommendation: %s\r\n", result.Recommendation)
	}

	return buf.Bytes()
}
