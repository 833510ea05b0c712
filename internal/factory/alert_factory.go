package factory

import (
	"fmt"

	"github.com/phishnet/phish-detector/internal/adapters/alert"
	"github.com/phishnet/phish-detector/internal/config"
	"github.com/phishnet/phish-detector/internal/core"
	"go.uber.org/zap"
)

// AlertFactory creates alerters based on configuration
type AlertFactory struct {
	cfg    *config.Config
	logger *zap.Logger
}

// NewAlertFactory creates a new alert factory
func NewAlertFactory(cfg *config.Config, logger *zap.Logger) *AlertFactory {
	return &AlertFactory{
		cfg:    cfg,
		logger: logger,
	}
}

// CreateAlerter creates the configured alerter
func (f *AlertFactory) CreateAlerter() (core.Alerter, error) {
	alertType := f.cfg.GetString("alert.type")

	switch alertType {
	case "log":
		return alert.NewLogAlerter(f.logger), nil
	case "smtp":
		smtpCfg := f.cfg.GetSMTP()
		a, err := alert.NewSMTPAlerter(alert.SMTPConfig{
			Address:  smtpCfg.Address,
			From:     smtpCfg.From,
			To:       smtpCfg.To,
			Username: smtpCfg.Username,
			Password: smtpCfg.Password,
			Timeout:  smtpCfg.Timeout,
		}, f.logger)
		if err != nil {
			return nil, err
		}
		return a, nil
	case "none", "":
		return alert.NopAlerter{}, nil
	default:
		return nil, fmt.Errorf("unsupported alert type: %s", alertType)
	}
}
