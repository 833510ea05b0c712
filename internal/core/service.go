package core

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/phishnet/phish-detector/internal/allowlist"
	"github.com/phishnet/phish-detector/internal/utils"
	"go.uber.org/zap"
)

// DefaultMaxContentChars bounds the page text embedded in a content prompt
const DefaultMaxContentChars = 10000

// ServiceOptions tunes the detection service
type ServiceOptions struct {
	CacheEnabled      bool
	ClassifierTimeout time.Duration
	PersistTimeout    time.Duration
	MaxContentChars   int
}

// DetectionService is the phishing detection pipeline. It owns the handles to
// the classifier, result cache, record store and alerter.
type DetectionService struct {
	classifier    Classifier
	cache         ResultCache
	store         RecordStore
	alerter       Alerter
	extractor     *URLFeatureExtractor
	textProcessor *utils.TextProcessor
	allowlist     *allowlist.Checker
	logger        *zap.Logger
	opts          ServiceOptions

	// background record writes and alerts
	pending sync.WaitGroup
}

// NewDetectionService creates a new detection service. cache and alerter may be nil.
func NewDetectionService(
	classifier Classifier,
	cache ResultCache,
	store RecordStore,
	alerter Alerter,
	textProcessor *utils.TextProcessor,
	checker *allowlist.Checker,
	logger *zap.Logger,
	opts ServiceOptions,
) *DetectionService {
	if opts.MaxContentChars <= 0 {
		opts.MaxContentChars = DefaultMaxContentChars
	}
	if opts.PersistTimeout <= 0 {
		opts.PersistTimeout = 10 * time.Second
	}
	if cache == nil {
		opts.CacheEnabled = false
	}

	return &DetectionService{
		classifier:    classifier,
		cache:         cache,
		store:         store,
		alerter:       alerter,
		extractor:     NewURLFeatureExtractor(logger),
		textProcessor: textProcessor,
		allowlist:     checker,
		logger:        logger,
		opts:          opts,
	}
}

// AnalyzeURL classifies a URL, serving a cached verdict when one is still fresh
func (s *DetectionService) AnalyzeURL(ctx context.Context, url string) (*ClassificationResult, error) {
	url = strings.TrimSpace(url)
	if url == "" {
		return nil, fmt.Errorf("%w: url is required", ErrInvalidInput)
	}

	features := s.extractor.Extract(url)

	if s.allowlist.IsTrusted(features.Domain) {
		s.logger.Info("Skipping phishing check for trusted domain",
			zap.String("url", url),
			zap.String("action", "allowlist_bypass"))
		return trustedResult(), nil
	}

	if s.opts.CacheEnabled {
		if cached, ok := s.cache.Get(ctx, url); ok {
			s.logger.Debug("Cache hit for url", zap.String("url", url))
			if cached.IsPhishing {
				s.alert(url, cached)
			}
			return cached, nil
		}
	}

	text, err := s.classify(ctx, BuildURLPrompt(url, features))
	if err != nil {
		return nil, err
	}

	result, err := ParseURLAnalysis(text)
	if err != nil {
		s.logger.Warn("Rejected classifier reply", zap.String("url", url), zap.Error(err))
		return nil, err
	}

	if s.opts.CacheEnabled {
		if err := s.cache.Set(ctx, url, result); err != nil {
			s.logger.Error("Failed to update cache", zap.String("url", url), zap.Error(err))
		}
	}

	s.persistAnalysis(url, result, URLAnalysis)
	if result.IsPhishing {
		s.alert(url, result)
	}

	return result, nil
}

// AnalyzeContent classifies a rendered page. Content is truncated before it is
// embedded in the prompt; dom may be nil.
func (s *DetectionService) AnalyzeContent(ctx context.Context, url, content string, dom *DomFeatures) (*ClassificationResult, error) {
	url = strings.TrimSpace(url)
	if url == "" {
		return nil, fmt.Errorf("%w: url is required", ErrInvalidInput)
	}
	if strings.TrimSpace(content) == "" {
		return nil, fmt.Errorf("%w: page content is required", ErrInvalidInput)
	}

	var features DomFeatures
	if dom != nil {
		features = *dom
	}

	if s.allowlist.IsTrusted(s.extractor.Extract(url).Domain) {
		s.logger.Info("Skipping content check for trusted domain",
			zap.String("url", url),
			zap.String("action", "allowlist_bypass"))
		return trustedResult(), nil
	}

	truncated := s.textProcessor.ProcessText(content, s.opts.MaxContentChars)

	text, err := s.classify(ctx, BuildContentPrompt(url, truncated, features))
	if err != nil {
		return nil, err
	}

	result, err := ParseContentAnalysis(text)
	if err != nil {
		s.logger.Warn("Rejected classifier reply", zap.String("url", url), zap.Error(err))
		return nil, err
	}

	s.persistAnalysis(url, result, ContentAnalysis)
	if result.IsPhishing {
		s.alert(url, result)
	}

	return result, nil
}

// RecordFeedback appends a user verdict. Unlike analysis logging, a store
// failure is returned to the caller.
func (s *DetectionService) RecordFeedback(ctx context.Context, url string, systemDetermination, userFeedback bool) error {
	url = strings.TrimSpace(url)
	if url == "" {
		return fmt.Errorf("%w: url is required", ErrInvalidInput)
	}

	record := &FeedbackRecord{
		ID:                  uuid.New(),
		URL:                 url,
		SystemDetermination: systemDetermination,
		UserFeedback:        userFeedback,
		Timestamp:           time.Now().UTC(),
	}
	if err := s.store.SaveFeedback(ctx, record); err != nil {
		s.logger.Error("Failed to record feedback", zap.String("url", url), zap.Error(err))
		return persistenceError(err)
	}

	s.logger.Info("Recorded feedback",
		zap.String("url", url),
		zap.Bool("system_determination", systemDetermination),
		zap.Bool("user_feedback", userFeedback))
	return nil
}

// Stats aggregates the record history. A store failure yields an all-zero
// snapshot flagged as degraded.
func (s *DetectionService) Stats(ctx context.Context) StatsSnapshot {
	phishing, err := s.store.CountAnalyses(ctx, true)
	if err != nil {
		return s.degradedStats(err)
	}
	safe, err := s.store.CountAnalyses(ctx, false)
	if err != nil {
		return s.degradedStats(err)
	}
	correct, err := s.store.CountFeedback(ctx, true)
	if err != nil {
		return s.degradedStats(err)
	}
	incorrect, err := s.store.CountFeedback(ctx, false)
	if err != nil {
		return s.degradedStats(err)
	}

	total := correct + incorrect
	denominator := total
	if denominator < 1 {
		denominator = 1
	}

	return StatsSnapshot{
		TotalAnalyzed:    phishing + safe,
		PhishingDetected: phishing,
		SafeDetected:     safe,
		UserFeedback: FeedbackStats{
			Total:               total,
			CorrectDetections:   correct,
			IncorrectDetections: incorrect,
			Accuracy:            float64(correct) / float64(denominator),
		},
	}
}

// History returns every analysis record stored for a URL
func (s *DetectionService) History(ctx context.Context, url string) ([]AnalysisRecord, error) {
	url = strings.TrimSpace(url)
	if url == "" {
		return nil, fmt.Errorf("%w: url is required", ErrInvalidInput)
	}
	records, err := s.store.History(ctx, url)
	if err != nil {
		return nil, persistenceError(err)
	}
	return records, nil
}

// Close waits for pending record writes and alerts
func (s *DetectionService) Close() error {
	s.pending.Wait()
	return nil
}

// classify calls the classifier under the configured timeout
func (s *DetectionService) classify(ctx context.Context, prompt string) (string, error) {
	if s.opts.ClassifierTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.opts.ClassifierTimeout)
		defer cancel()
	}

	start := time.Now()
	text, err := s.classifier.Classify(ctx, prompt)
	if err != nil {
		s.logger.Error("Classifier call failed",
			zap.Duration("elapsed", time.Since(start)),
			zap.Error(err))
		if errors.Is(err, ErrClassificationService) {
			return "", err
		}
		return "", fmt.Errorf("%w: %w", ErrClassificationService, err)
	}

	s.logger.Debug("Classifier replied",
		zap.Duration("elapsed", time.Since(start)),
		zap.Int("reply_size", len(text)))
	return text, nil
}

// persistAnalysis writes the record in the background; failures are only logged
func (s *DetectionService) persistAnalysis(url string, result *ClassificationResult, analysisType AnalysisType) {
	record := &AnalysisRecord{
		ID:           uuid.New(),
		URL:          url,
		Result:       result.Clone(),
		Timestamp:    time.Now().UTC(),
		AnalysisType: analysisType,
	}

	s.pending.Add(1)
	go func() {
		defer s.pending.Done()
		ctx, cancel := context.WithTimeout(context.Background(), s.opts.PersistTimeout)
		defer cancel()

		if err := s.store.SaveAnalysis(ctx, record); err != nil {
			s.logger.Error("Failed to persist analysis record",
				zap.String("url", url),
				zap.String("type", string(analysisType)),
				zap.Error(err))
		}
	}()
}

// alert notifies the alerter in the background; failures are only logged
func (s *DetectionService) alert(url string, result *ClassificationResult) {
	if s.alerter == nil {
		return
	}
	result = result.Clone()

	s.pending.Add(1)
	go func() {
		defer s.pending.Done()
		ctx, cancel := context.WithTimeout(context.Background(), s.opts.PersistTimeout)
		defer cancel()

		if err := s.alerter.Alert(ctx, url, result); err != nil {
			s.logger.Error("Failed to deliver phishing alert", zap.String("url", url), zap.Error(err))
		}
	}()
}

func (s *DetectionService) degradedStats(err error) StatsSnapshot {
	s.logger.Error("Failed to compute detection stats, returning zero snapshot", zap.Error(err))
	return StatsSnapshot{Degraded: true}
}

func persistenceError(err error) error {
	if errors.Is(err, ErrPersistence) {
		return err
	}
	return fmt.Errorf("%w: %w", ErrPersistence, err)
}

func trustedResult() *ClassificationResult {
	return &ClassificationResult{
		IsPhishing:      false,
		ConfidenceScore: 100,
		RiskLevel:       RiskLow,
		Reasons:         []string{"Domain is on the trusted allowlist"},
	}
}
