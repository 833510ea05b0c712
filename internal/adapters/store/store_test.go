package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/phishnet/phish-detector/internal/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func stores(t *testing.T) map[string]core.RecordStore {
	t.Helper()

	lite, err := NewSQLiteStore(filepath.Join(t.TempDir(), "records.db"), zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { lite.Close() })

	return map[string]core.RecordStore{
		"memory": NewMemoryStore(),
		"sqlite": lite,
	}
}

func analysis(url string, phishing bool, kind core.AnalysisType, at time.Time) *core.AnalysisRecord {
	risk := core.RiskLow
	if phishing {
		risk = core.RiskHigh
	}
	return &core.AnalysisRecord{
		ID:  uuid.New(),
		URL: url,
		Result: &core.ClassificationResult{
			IsPhishing:      phishing,
			ConfidenceScore: 80,
			RiskLevel:       risk,
			Reasons:         []string{"reason for " + url},
		},
		Timestamp:    at,
		AnalysisType: kind,
	}
}

func feedback(url string, system, user bool) *core.FeedbackRecord {
	return &core.FeedbackRecord{
		ID:                  uuid.New(),
		URL:                 url,
		SystemDetermination: system,
		UserFeedback:        user,
		Timestamp:           time.Now().UTC(),
	}
}

func TestRecordStore_Counts(t *testing.T) {
	for name, s := range stores(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			now := time.Now().UTC()

			require.NoError(t, s.SaveAnalysis(ctx, analysis("http://a.example", true, core.URLAnalysis, now)))
			require.NoError(t, s.SaveAnalysis(ctx, analysis("http://b.example", true, core.ContentAnalysis, now)))
			require.NoError(t, s.SaveAnalysis(ctx, analysis("http://c.example", false, core.URLAnalysis, now)))

			require.NoError(t, s.SaveFeedback(ctx, feedback("http://a.example", true, true)))
			require.NoError(t, s.SaveFeedback(ctx, feedback("http://c.example", false, true)))
			require.NoError(t, s.SaveFeedback(ctx, feedback("http://c.example", false, false)))

			phishing, err := s.CountAnalyses(ctx, true)
			require.NoError(t, err)
			safe, err := s.CountAnalyses(ctx, false)
			require.NoError(t, err)
			agreed, err := s.CountFeedback(ctx, true)
			require.NoError(t, err)
			disputed, err := s.CountFeedback(ctx, false)
			require.NoError(t, err)

			assert.Equal(t, int64(2), phishing)
			assert.Equal(t, int64(1), safe)
			assert.Equal(t, int64(2), agreed)
			assert.Equal(t, int64(1), disputed)
		})
	}
}

func TestRecordStore_EmptyCounts(t *testing.T) {
	for name, s := range stores(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			for _, v := range []bool{true, false} {
				n, err := s.CountAnalyses(ctx, v)
				require.NoError(t, err)
				assert.Zero(t, n)
				n, err = s.CountFeedback(ctx, v)
				require.NoError(t, err)
				assert.Zero(t, n)
			}
		})
	}
}

func TestRecordStore_HistoryIsAppendOnly(t *testing.T) {
	for name, s := range stores(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			url := "http://paypal-login.example.net/"
			base := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

			first := analysis(url, true, core.URLAnalysis, base)
			second := analysis(url, false, core.ContentAnalysis, base.Add(time.Second))
			require.NoError(t, s.SaveAnalysis(ctx, first))
			require.NoError(t, s.SaveAnalysis(ctx, analysis("http://other.example", true, core.URLAnalysis, base)))
			require.NoError(t, s.SaveAnalysis(ctx, second))

			before, err := s.History(ctx, url)
			require.NoError(t, err)
			require.Len(t, before, 2)

			assert.Equal(t, first.ID, before[0].ID)
			assert.Equal(t, core.URLAnalysis, before[0].AnalysisType)
			assert.Equal(t, first.Result, before[0].Result)
			assert.True(t, first.Timestamp.Equal(before[0].Timestamp))
			assert.Equal(t, second.ID, before[1].ID)
			assert.Equal(t, core.ContentAnalysis, before[1].AnalysisType)

			require.NoError(t, s.SaveFeedback(ctx, feedback(url, true, false)))
			require.NoError(t, s.SaveFeedback(ctx, feedback(url, true, false)))

			after, err := s.History(ctx, url)
			require.NoError(t, err)
			assert.Equal(t, before, after)
		})
	}
}

func TestRecordStore_HistoryUnknownURL(t *testing.T) {
	for name, s := range stores(t) {
		t.Run(name, func(t *testing.T) {
			records, err := s.History(context.Background(), "http://never-seen.example")
			require.NoError(t, err)
			assert.Empty(t, records)
		})
	}
}

func TestRecordStore_DuplicateIDRejected(t *testing.T) {
	s, err := NewSQLiteStore(filepath.Join(t.TempDir(), "dup.db"), zap.NewNop())
	require.NoError(t, err)
	defer s.Close()

	ctx := context.Background()
	record := analysis("http://a.example", true, core.URLAnalysis, time.Now().UTC())
	require.NoError(t, s.SaveAnalysis(ctx, record))
	assert.Error(t, s.SaveAnalysis(ctx, record))
}

func TestMemoryStore_StoresCopies(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()
	record := analysis("http://a.example", true, core.URLAnalysis, time.Now().UTC())

	require.NoError(t, s.SaveAnalysis(ctx, record))
	record.Result.Reasons[0] = "mutated"

	history, err := s.History(ctx, "http://a.example")
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, "reason for http://a.example", history[0].Result.Reasons[0])
}
