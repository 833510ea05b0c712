package alert

import (
	"context"

	"github.com/phishnet/phish-detector/internal/core"
	"go.uber.org/zap"
)

// LogAlerter reports phishing detections through the application logger
type LogAlerter struct {
	logger *zap.Logger
}

// NewLogAlerter creates a new log alerter
func NewLogAlerter(logger *zap.Logger) *LogAlerter {
	return &LogAlerter{logger: logger}
}

// Alert logs the detection at warn level
func (a *LogAlerter) Alert(_ context.Context, url string, result *core.ClassificationResult) error {
	if result == nil {
		return nil
	}
	a.logger.Warn("Phishing detected",
		zap.String("url", url),
		zap.Int("confidence", result.ConfidenceScore),
		zap.String("risk_level", string(result.RiskLevel)),
		zap.String("target_brand", result.PossibleTargetBrand),
		zap.Strings("reasons", result.Reasons))
	return nil
}

// NopAlerter drops every alert
type NopAlerter struct{}

// Alert does nothing
func (NopAlerter) Alert(context.Context, string, *core.ClassificationResult) error { return nil }
