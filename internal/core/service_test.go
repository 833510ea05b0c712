package core_test

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/phishnet/phish-detector/internal/adapters/cache"
	"github.com/phishnet/phish-detector/internal/adapters/store"
	"github.com/phishnet/phish-detector/internal/allowlist"
	"github.com/phishnet/phish-detector/internal/core"
	"github.com/phishnet/phish-detector/internal/utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const (
	phishingReply = `{"isPhishing":true,"confidenceScore":91,"riskLevel":"high","reasons":["brand in subdomain"]}`
	benignReply   = `{"isPhishing":false,"confidenceScore":15,"riskLevel":"low","reasons":[]}`
	contentReply  = `{"isPhishing":true,"confidenceScore":88,"suspiciousElements":["password form"],"possibleTargetBrand":"Acme Bank","riskLevel":"high","recommendation":"Do not log in"}`
)

type fakeClassifier struct {
	mu      sync.Mutex
	reply   string
	err     error
	delay   time.Duration
	prompts []string
}

func (f *fakeClassifier) Classify(ctx context.Context, prompt string) (string, error) {
	f.mu.Lock()
	f.prompts = append(f.prompts, prompt)
	reply, err, delay := f.reply, f.err, f.delay
	f.mu.Unlock()

	if delay > 0 {
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}
	return reply, err
}

func (f *fakeClassifier) calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.prompts)
}

func (f *fakeClassifier) lastPrompt() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.prompts[len(f.prompts)-1]
}

type recordingAlerter struct {
	mu   sync.Mutex
	urls []string
}

func (a *recordingAlerter) Alert(_ context.Context, url string, _ *core.ClassificationResult) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.urls = append(a.urls, url)
	return nil
}

func (a *recordingAlerter) alerted() []string {
	a.mu.Lock()
	defer a.mu.Unlock()
	return append([]string(nil), a.urls...)
}

// failingStore fails every operation with err
type failingStore struct {
	err error
}

func (s failingStore) SaveAnalysis(context.Context, *core.AnalysisRecord) error { return s.err }
func (s failingStore) SaveFeedback(context.Context, *core.FeedbackRecord) error { return s.err }
func (s failingStore) CountAnalyses(context.Context, bool) (int64, error)       { return 0, s.err }
func (s failingStore) CountFeedback(context.Context, bool) (int64, error)       { return 0, s.err }
func (s failingStore) History(context.Context, string) ([]core.AnalysisRecord, error) {
	return nil, s.err
}
func (s failingStore) Close() error { return nil }

type fixture struct {
	classifier *fakeClassifier
	cache      *cache.MemoryCache
	store      core.RecordStore
	alerter    *recordingAlerter
	service    *core.DetectionService
}

func newFixture(t *testing.T, reply string, opts ...func(*fixture, *core.ServiceOptions)) *fixture {
	t.Helper()

	logger := zap.NewNop()
	f := &fixture{
		classifier: &fakeClassifier{reply: reply},
		cache:      cache.NewMemoryCache(logger, time.Hour, 0),
		store:      store.NewMemoryStore(),
		alerter:    &recordingAlerter{},
	}
	serviceOpts := core.ServiceOptions{
		CacheEnabled:      true,
		ClassifierTimeout: time.Second,
		PersistTimeout:    time.Second,
	}
	for _, opt := range opts {
		opt(f, &serviceOpts)
	}

	f.service = core.NewDetectionService(
		f.classifier,
		f.cache,
		f.store,
		f.alerter,
		utils.NewTextProcessor(logger),
		allowlist.NewChecker([]string{"trusted.example"}, logger),
		logger,
		serviceOpts,
	)
	t.Cleanup(func() {
		f.service.Close()
		f.cache.Stop()
	})
	return f
}

func TestAnalyzeURL_FreshClassification(t *testing.T) {
	f := newFixture(t, phishingReply)
	ctx := context.Background()
	url := "http://paypal.secure-login.example.net/verify"

	result, err := f.service.AnalyzeURL(ctx, url)
	require.NoError(t, err)
	assert.True(t, result.IsPhishing)
	assert.Equal(t, 91, result.ConfidenceScore)
	assert.Equal(t, core.RiskHigh, result.RiskLevel)

	assert.Equal(t, 1, f.classifier.calls())
	assert.Contains(t, f.classifier.lastPrompt(), url)
	assert.Contains(t, f.classifier.lastPrompt(), "Contains suspicious keywords: true")

	cached, ok := f.cache.Get(ctx, url)
	require.True(t, ok)
	assert.Equal(t, result, cached)

	require.NoError(t, f.service.Close())
	history, err := f.store.History(ctx, url)
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, core.URLAnalysis, history[0].AnalysisType)
	assert.Equal(t, result, history[0].Result)
	assert.Equal(t, []string{url}, f.alerter.alerted())
}

func TestAnalyzeURL_CacheHitSkipsClassifier(t *testing.T) {
	tests := []struct {
		name      string
		cached    *core.ClassificationResult
		wantAlert bool
	}{
		{
			name:      "phishing hit alerts again",
			cached:    &core.ClassificationResult{IsPhishing: true, ConfidenceScore: 90, RiskLevel: core.RiskHigh, Reasons: []string{}},
			wantAlert: true,
		},
		{
			name:      "benign hit is silent",
			cached:    &core.ClassificationResult{IsPhishing: false, ConfidenceScore: 10, RiskLevel: core.RiskLow, Reasons: []string{}},
			wantAlert: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t, phishingReply)
			ctx := context.Background()
			url := "http://cached.example.org/"
			require.NoError(t, f.cache.Set(ctx, url, tt.cached))

			result, err := f.service.AnalyzeURL(ctx, url)
			require.NoError(t, err)
			assert.Equal(t, tt.cached, result)
			assert.Equal(t, 0, f.classifier.calls())

			require.NoError(t, f.service.Close())
			if tt.wantAlert {
				assert.Equal(t, []string{url}, f.alerter.alerted())
			} else {
				assert.Empty(t, f.alerter.alerted())
			}

			// cache hits are not re-recorded
			history, err := f.store.History(ctx, url)
			require.NoError(t, err)
			assert.Empty(t, history)
		})
	}
}

func TestAnalyzeURL_BenignResultIsCached(t *testing.T) {
	f := newFixture(t, benignReply)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		result, err := f.service.AnalyzeURL(ctx, "https://example.com/")
		require.NoError(t, err)
		assert.False(t, result.IsPhishing)
	}
	assert.Equal(t, 1, f.classifier.calls())

	require.NoError(t, f.service.Close())
	assert.Empty(t, f.alerter.alerted())
}

func TestAnalyzeURL_CacheDisabled(t *testing.T) {
	f := newFixture(t, benignReply, func(_ *fixture, o *core.ServiceOptions) {
		o.CacheEnabled = false
	})
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		_, err := f.service.AnalyzeURL(ctx, "https://example.com/")
		require.NoError(t, err)
	}
	assert.Equal(t, 2, f.classifier.calls())
	assert.Equal(t, 0, f.cache.Len())
}

func TestAnalyzeURL_Errors(t *testing.T) {
	tests := []struct {
		name    string
		url     string
		reply   string
		err     error
		wantErr error
	}{
		{name: "missing url", url: "  ", reply: phishingReply, wantErr: core.ErrInvalidInput},
		{name: "classifier failure", url: "http://example.com", err: errors.New("connection refused"), wantErr: core.ErrClassificationService},
		{name: "unparsable reply", url: "http://example.com", reply: "sorry, I cannot help", wantErr: core.ErrClassificationParse},
		{name: "invalid verdict", url: "http://example.com", reply: `{"isPhishing":true,"confidenceScore":150,"riskLevel":"high"}`, wantErr: core.ErrClassificationParse},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t, tt.reply)
			f.classifier.err = tt.err
			ctx := context.Background()

			result, err := f.service.AnalyzeURL(ctx, tt.url)
			assert.Nil(t, result)
			assert.ErrorIs(t, err, tt.wantErr)

			require.NoError(t, f.service.Close())
			phishing, _ := f.store.CountAnalyses(ctx, true)
			safe, _ := f.store.CountAnalyses(ctx, false)
			assert.Zero(t, phishing+safe)
			assert.Zero(t, f.cache.Len())
		})
	}
}

func TestAnalyzeURL_InvalidInputNeverReachesClassifier(t *testing.T) {
	f := newFixture(t, phishingReply)

	_, err := f.service.AnalyzeURL(context.Background(), "")
	assert.ErrorIs(t, err, core.ErrInvalidInput)
	assert.Equal(t, 0, f.classifier.calls())
}

func TestAnalyzeURL_ClassifierTimeout(t *testing.T) {
	f := newFixture(t, phishingReply, func(_ *fixture, o *core.ServiceOptions) {
		o.ClassifierTimeout = 20 * time.Millisecond
	})
	f.classifier.delay = 5 * time.Second

	start := time.Now()
	_, err := f.service.AnalyzeURL(context.Background(), "http://slow.example.com")

	assert.ErrorIs(t, err, core.ErrClassificationService)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Less(t, time.Since(start), 2*time.Second)
}

func TestAnalyzeURL_PersistenceFailureIsSwallowed(t *testing.T) {
	f := newFixture(t, phishingReply, func(f *fixture, _ *core.ServiceOptions) {
		f.store = failingStore{err: errors.New("disk full")}
	})

	result, err := f.service.AnalyzeURL(context.Background(), "http://example.com/login")
	require.NoError(t, err)
	assert.True(t, result.IsPhishing)
}

func TestAnalyzeURL_TrustedDomainBypassesClassifier(t *testing.T) {
	f := newFixture(t, phishingReply)

	result, err := f.service.AnalyzeURL(context.Background(), "https://login.trusted.example/account")
	require.NoError(t, err)
	assert.False(t, result.IsPhishing)
	assert.Equal(t, core.RiskLow, result.RiskLevel)
	assert.Equal(t, 0, f.classifier.calls())
	assert.Zero(t, f.cache.Len())
}

func TestAnalyzeContent(t *testing.T) {
	f := newFixture(t, contentReply)
	ctx := context.Background()
	url := "https://acme-bank.example.net/login"
	dom := &core.DomFeatures{FormCount: 1, PasswordFieldCount: 1, HasLoginForm: true, IsSecureConnection: true}

	result, err := f.service.AnalyzeContent(ctx, url, "<html><form><input type=password></form></html>", dom)
	require.NoError(t, err)
	assert.True(t, result.IsPhishing)
	assert.Equal(t, "Acme Bank", result.PossibleTargetBrand)
	assert.Equal(t, "Do not log in", result.Recommendation)
	assert.Equal(t, []string{"password form"}, result.Reasons)

	prompt := f.classifier.lastPrompt()
	assert.Contains(t, prompt, "Password fields: 1")
	assert.Contains(t, prompt, "Login form detected: true")

	require.NoError(t, f.service.Close())
	history, err := f.store.History(ctx, url)
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, core.ContentAnalysis, history[0].AnalysisType)

	// content verdicts are not cached
	assert.Zero(t, f.cache.Len())
	assert.Equal(t, []string{url}, f.alerter.alerted())
}

func TestAnalyzeContent_TruncatesLongContent(t *testing.T) {
	f := newFixture(t, contentReply)

	content := strings.Repeat("a", core.DefaultMaxContentChars) + "TAIL-MARKER"
	_, err := f.service.AnalyzeContent(context.Background(), "https://example.com", content, nil)
	require.NoError(t, err)

	prompt := f.classifier.lastPrompt()
	assert.Contains(t, prompt, utils.TruncationMarker)
	assert.NotContains(t, prompt, "TAIL-MARKER")
}

func TestAnalyzeContent_RequiresURLAndContent(t *testing.T) {
	f := newFixture(t, contentReply)
	ctx := context.Background()

	_, err := f.service.AnalyzeContent(ctx, "", "<html></html>", nil)
	assert.ErrorIs(t, err, core.ErrInvalidInput)

	_, err = f.service.AnalyzeContent(ctx, "https://example.com", " ", nil)
	assert.ErrorIs(t, err, core.ErrInvalidInput)

	assert.Equal(t, 0, f.classifier.calls())
}

func TestRecordFeedback(t *testing.T) {
	f := newFixture(t, phishingReply)
	ctx := context.Background()

	require.NoError(t, f.service.RecordFeedback(ctx, "http://a.example", true, true))
	require.NoError(t, f.service.RecordFeedback(ctx, "http://a.example", true, false))
	require.NoError(t, f.service.RecordFeedback(ctx, "http://b.example", false, false))

	agreed, err := f.store.CountFeedback(ctx, true)
	require.NoError(t, err)
	disputed, err := f.store.CountFeedback(ctx, false)
	require.NoError(t, err)
	assert.Equal(t, int64(2), agreed)
	assert.Equal(t, int64(1), disputed)
}

func TestRecordFeedback_Errors(t *testing.T) {
	f := newFixture(t, phishingReply, func(f *fixture, _ *core.ServiceOptions) {
		f.store = failingStore{err: errors.New("connection reset")}
	})

	err := f.service.RecordFeedback(context.Background(), "http://a.example", true, false)
	assert.ErrorIs(t, err, core.ErrPersistence)

	err = f.service.RecordFeedback(context.Background(), "", true, false)
	assert.ErrorIs(t, err, core.ErrInvalidInput)
}

func TestRecordFeedback_DoesNotTouchHistory(t *testing.T) {
	f := newFixture(t, phishingReply)
	ctx := context.Background()
	url := "http://paypal-verify.example.net/"

	_, err := f.service.AnalyzeURL(ctx, url)
	require.NoError(t, err)
	require.NoError(t, f.service.Close())

	before, err := f.service.History(ctx, url)
	require.NoError(t, err)
	require.Len(t, before, 1)

	require.NoError(t, f.service.RecordFeedback(ctx, url, true, false))
	require.NoError(t, f.service.RecordFeedback(ctx, url, true, true))

	after, err := f.service.History(ctx, url)
	require.NoError(t, err)
	assert.Equal(t, before, after)
}

func TestStats(t *testing.T) {
	t.Run("empty store", func(t *testing.T) {
		f := newFixture(t, phishingReply)

		stats := f.service.Stats(context.Background())
		assert.Equal(t, core.StatsSnapshot{}, stats)
		assert.Equal(t, 0.0, stats.UserFeedback.Accuracy)
	})

	t.Run("mixed records", func(t *testing.T) {
		f := newFixture(t, phishingReply, func(_ *fixture, o *core.ServiceOptions) {
			o.CacheEnabled = false
		})
		ctx := context.Background()

		_, err := f.service.AnalyzeURL(ctx, "http://one.example")
		require.NoError(t, err)
		_, err = f.service.AnalyzeURL(ctx, "http://two.example")
		require.NoError(t, err)
		f.classifier.reply = benignReply
		_, err = f.service.AnalyzeURL(ctx, "http://three.example")
		require.NoError(t, err)
		require.NoError(t, f.service.Close())

		require.NoError(t, f.service.RecordFeedback(ctx, "http://one.example", true, true))
		require.NoError(t, f.service.RecordFeedback(ctx, "http://two.example", true, true))
		require.NoError(t, f.service.RecordFeedback(ctx, "http://three.example", false, true))
		require.NoError(t, f.service.RecordFeedback(ctx, "http://three.example", false, false))

		stats := f.service.Stats(ctx)
		assert.Equal(t, int64(3), stats.TotalAnalyzed)
		assert.Equal(t, int64(2), stats.PhishingDetected)
		assert.Equal(t, int64(1), stats.SafeDetected)
		assert.Equal(t, int64(4), stats.UserFeedback.Total)
		assert.Equal(t, int64(3), stats.UserFeedback.CorrectDetections)
		assert.Equal(t, int64(1), stats.UserFeedback.IncorrectDetections)
		assert.InDelta(t, 0.75, stats.UserFeedback.Accuracy, 1e-9)
		assert.False(t, stats.Degraded)
	})

	t.Run("store failure degrades to zero", func(t *testing.T) {
		f := newFixture(t, phishingReply, func(f *fixture, _ *core.ServiceOptions) {
			f.store = failingStore{err: errors.New("timeout")}
		})

		stats := f.service.Stats(context.Background())
		assert.True(t, stats.Degraded)
		assert.Zero(t, stats.TotalAnalyzed)
		assert.Zero(t, stats.UserFeedback.Accuracy)
	})
}

func TestHistory_StoreFailure(t *testing.T) {
	f := newFixture(t, phishingReply, func(f *fixture, _ *core.ServiceOptions) {
		f.store = failingStore{err: errors.New("timeout")}
	})

	_, err := f.service.History(context.Background(), "http://a.example")
	assert.ErrorIs(t, err, core.ErrPersistence)
}

func TestAnalyzeURL_ConcurrentCallers(t *testing.T) {
	f := newFixture(t, benignReply)
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			url := "http://host.example/" + strings.Repeat("p", i%4)
			_, err := f.service.AnalyzeURL(ctx, url)
			assert.NoError(t, err)
		}(i)
	}
	wg.Wait()

	assert.LessOrEqual(t, f.cache.Len(), 4)
}
