package core

import (
	"time"

	"github.com/google/uuid"
)

// RiskLevel is the coarse severity attached to a classification
type RiskLevel string

const (
	RiskLow    RiskLevel = "low"
	RiskMedium RiskLevel = "medium"
	RiskHigh   RiskLevel = "high"
)

// Valid reports whether the level is one of low, medium or high
func (r RiskLevel) Valid() bool {
	switch r {
	case RiskLow, RiskMedium, RiskHigh:
		return true
	}
	return false
}

// AnalysisType tags a persisted analysis record with the pipeline that produced it
type AnalysisType string

const (
	URLAnalysis     AnalysisType = "url_analysis"
	ContentAnalysis AnalysisType = "content_analysis"
)

// URLFeatures are the heuristic signals derived from a URL string
type URLFeatures struct {
	Domain                 string `json:"domain"`
	TLD                    string `json:"tld"`
	SubdomainCount         int    `json:"subdomainCount"`
	ContainsIPAddress      bool   `json:"containsIpAddress"`
	PathLength             int    `json:"pathLength"`
	HasSuspiciousKeywords  bool   `json:"hasSuspiciousKeywords"`
	IsURLShortener         bool   `json:"isUrlShortener"`
	HasExcessiveSubdomains bool   `json:"hasExcessiveSubdomains"`
	HasNonStandardPort     bool   `json:"hasNonStandardPort"`
}

// DomFeatures is a snapshot of one page render
type DomFeatures struct {
	FormCount          int  `json:"formCount"`
	PasswordFieldCount int  `json:"passwordFieldCount"`
	ExternalLinkCount  int  `json:"externalLinkCount"`
	ImageCount         int  `json:"imageCount"`
	HasLoginForm       bool `json:"hasLoginForm"`
	ContainsLogoImages bool `json:"containsLogoImages"`
	IsSecureConnection bool `json:"isSecureConnection"`
	RedirectCount      int  `json:"redirectCount"`
	IframeCount        int  `json:"iframeCount"`
}

// ClassificationResult is the validated verdict of one classifier call
type ClassificationResult struct {
	IsPhishing          bool      `json:"isPhishing"`
	ConfidenceScore     int       `json:"confidenceScore"`
	RiskLevel           RiskLevel `json:"riskLevel"`
	Reasons             []string  `json:"reasons"`
	PossibleTargetBrand string    `json:"possibleTargetBrand,omitempty"`
	Recommendation      string    `json:"recommendation,omitempty"`
}

// AnalysisRecord is an append-only log entry of a classification
type AnalysisRecord struct {
	ID           uuid.UUID             `json:"id"`
	URL          string                `json:"url"`
	Result       *ClassificationResult `json:"analysis"`
	Timestamp    time.Time             `json:"timestamp"`
	AnalysisType AnalysisType          `json:"type"`
}

// FeedbackRecord is an append-only user verdict on a prior determination
type FeedbackRecord struct {
	ID                  uuid.UUID `json:"id"`
	URL                 string    `json:"url"`
	SystemDetermination bool      `json:"systemDetermination"`
	UserFeedback        bool      `json:"userFeedback"`
	Timestamp           time.Time `json:"timestamp"`
}

// FeedbackStats aggregates feedback records
type FeedbackStats struct {
	Total               int64   `json:"total"`
	CorrectDetections   int64   `json:"correctDetections"`
	IncorrectDetections int64   `json:"incorrectDetections"`
	Accuracy            float64 `json:"accuracy"`
}

// StatsSnapshot is recomputed on every query
type StatsSnapshot struct {
	TotalAnalyzed    int64         `json:"totalAnalyzed"`
	PhishingDetected int64         `json:"phishingDetected"`
	SafeDetected     int64         `json:"safeDetected"`
	UserFeedback     FeedbackStats `json:"userFeedback"`
	// Degraded is set when the snapshot was zeroed because the store failed
	Degraded bool `json:"degraded,omitempty"`
}

// Clone returns a deep copy of the result
func (r *ClassificationResult) Clone() *ClassificationResult {
	if r == nil {
		return nil
	}
	c := *r
	// an empty list stays empty, not nil
	if r.Reasons != nil {
		c.Reasons = make([]string, len(r.Reasons))
		copy(c.Reasons, r.Reasons)
	}
	return &c
}
