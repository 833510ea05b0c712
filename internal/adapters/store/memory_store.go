package store

import (
	"context"
	"sync"

	"github.com/phishnet/phish-detector/internal/core"
)

// MemoryStore keeps records in process memory. Used by the CLI and tests.
type MemoryStore struct {
	mu       sync.RWMutex
	analyses []core.AnalysisRecord
	feedback []core.FeedbackRecord
}

// NewMemoryStore creates an empty in-memory record store
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

// SaveAnalysis appends an analysis record
func (s *MemoryStore) SaveAnalysis(ctx context.Context, record *core.AnalysisRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	stored := *record
	stored.Result = record.Result.Clone()
	s.analyses = append(s.analyses, stored)
	return nil
}

// SaveFeedback appends a feedback record
func (s *MemoryStore) SaveFeedback(ctx context.Context, record *core.FeedbackRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.feedback = append(s.feedback, *record)
	return nil
}

// CountAnalyses counts analysis records with the given verdict
func (s *MemoryStore) CountAnalyses(ctx context.Context, isPhishing bool) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var count int64
	for _, record := range s.analyses {
		if record.Result != nil && record.Result.IsPhishing == isPhishing {
			count++
		}
	}
	return count, nil
}

// CountFeedback counts feedback records that agree (or disagree) with the system
func (s *MemoryStore) CountFeedback(ctx context.Context, agreed bool) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var count int64
	for _, record := range s.feedback {
		if (record.SystemDetermination == record.UserFeedback) == agreed {
			count++
		}
	}
	return count, nil
}

// History returns the analysis records of a URL in insertion order
func (s *MemoryStore) History(ctx context.Context, url string) ([]core.AnalysisRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var records []core.AnalysisRecord
	for _, record := range s.analyses {
		if record.URL == url {
			copied := record
			copied.Result = record.Result.Clone()
			records = append(records, copied)
		}
	}
	return records, nil
}

// Close is a no-op
func (s *MemoryStore) Close() error {
	return nil
}
