package guard

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/phishnet/phish-detector/internal/core"
	"github.com/sony/gobreaker"
	"go.uber.org/zap"
)

// Settings configures the circuit breaker around a classifier
type Settings struct {
	Name                string
	MaxRequests         uint32        // requests allowed while half-open
	Interval            time.Duration // closed-state counter reset interval
	OpenTimeout         time.Duration // how long the breaker stays open
	ConsecutiveFailures uint32        // failures in a row that trip the breaker
}

// Classifier wraps another classifier with a circuit breaker so an unhealthy
// provider fails fast instead of stalling every request.
type Classifier struct {
	next   core.Classifier
	cb     *gobreaker.CircuitBreaker
	logger *zap.Logger
}

// NewClassifier creates a breaker-guarded classifier
func NewClassifier(next core.Classifier, s Settings, logger *zap.Logger) *Classifier {
	if s.ConsecutiveFailures == 0 {
		s.ConsecutiveFailures = 5
	}

	cbSettings := gobreaker.Settings{
		Name:        s.Name,
		MaxRequests: s.MaxRequests,
		Interval:    s.Interval,
		Timeout:     s.OpenTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= s.ConsecutiveFailures
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("Classifier circuit breaker state changed",
				zap.String("breaker", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()))
		},
		// a caller that went away says nothing about the provider's health
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, context.Canceled)
		},
	}

	return &Classifier{
		next:   next,
		cb:     gobreaker.NewCircuitBreaker(cbSettings),
		logger: logger,
	}
}

// Classify forwards to the wrapped classifier unless the breaker is open
func (c *Classifier) Classify(ctx context.Context, prompt string) (string, error) {
	out, err := c.cb.Execute(func() (interface{}, error) {
		return c.next.Classify(ctx, prompt)
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return "", fmt.Errorf("%w: %w", core.ErrClassificationService, err)
		}
		return "", err
	}
	return out.(string), nil
}

// State returns the current breaker state
func (c *Classifier) State() gobreaker.State {
	return c.cb.State()
}

// Close closes the wrapped classifier if it holds resources
func (c *Classifier) Close() error {
	if closer, ok := c.next.(interface{ Close() error }); ok {
		return closer.Close()
	}
	return nil
}
