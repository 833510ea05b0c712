package core

import (
	"context"
)

// Classifier defines the interface for the external phishing classifier
type Classifier interface {
	// Classify sends a prompt and returns the raw model reply
	Classify(ctx context.Context, prompt string) (string, error)
}

// ResultCache defines the interface for caching classification results by URL
type ResultCache interface {
	// Get returns the cached result for a URL, or false when absent or expired
	Get(ctx context.Context, url string) (*ClassificationResult, bool)

	// Set stores a result; it expires a fixed TTL after insertion
	Set(ctx context.Context, url string, result *ClassificationResult) error

	// Delete removes a cache entry
	Delete(ctx context.Context, url string) error

	// Cleanup removes expired entries
	Cleanup(ctx context.Context) error
}

// RecordStore defines the append-only persistence of analyses and feedback
type RecordStore interface {
	SaveAnalysis(ctx context.Context, record *AnalysisRecord) error
	SaveFeedback(ctx context.Context, record *FeedbackRecord) error

	// CountAnalyses counts analysis records with the given verdict
	CountAnalyses(ctx context.Context, isPhishing bool) (int64, error)

	// CountFeedback counts feedback records where the user agreed (or not) with the system
	CountFeedback(ctx context.Context, agreed bool) (int64, error)

	// History returns the analysis records of a URL, oldest first
	History(ctx context.Context, url string) ([]AnalysisRecord, error)

	Close() error
}

// Alerter is notified of every phishing result handed to a caller
type Alerter interface {
	Alert(ctx context.Context, url string, result *ClassificationResult) error
}
