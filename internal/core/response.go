package core

import (
	"encoding/json"
	"fmt"
	"math"
	"strings"
)

// verdictFields are required in both reply schemas
type verdictFields struct {
	IsPhishing      *bool    `json:"isPhishing"`
	ConfidenceScore *float64 `json:"confidenceScore"`
	RiskLevel       *string  `json:"riskLevel"`
}

type urlAnalysisResponse struct {
	verdictFields
	Reasons []string `json:"reasons"`
}

type contentAnalysisResponse struct {
	verdictFields
	SuspiciousElements  []string `json:"suspiciousElements"`
	PossibleTargetBrand string   `json:"possibleTargetBrand"`
	Recommendation      string   `json:"recommendation"`
}

// ParseURLAnalysis extracts and validates a URL analysis verdict from raw classifier text
func ParseURLAnalysis(text string) (*ClassificationResult, error) {
	var resp urlAnalysisResponse
	if err := decodeEmbeddedJSON(text, &resp); err != nil {
		return nil, err
	}
	result, err := resp.verdictFields.toResult()
	if err != nil {
		return nil, err
	}
	result.Reasons = nonNil(resp.Reasons)
	return result, nil
}

// ParseContentAnalysis extracts and validates a content analysis verdict from raw classifier text
func ParseContentAnalysis(text string) (*ClassificationResult, error) {
	var resp contentAnalysisResponse
	if err := decodeEmbeddedJSON(text, &resp); err != nil {
		return nil, err
	}
	result, err := resp.verdictFields.toResult()
	if err != nil {
		return nil, err
	}
	result.Reasons = nonNil(resp.SuspiciousElements)
	result.PossibleTargetBrand = strings.TrimSpace(resp.PossibleTargetBrand)
	result.Recommendation = strings.TrimSpace(resp.Recommendation)
	return result, nil
}

// decodeEmbeddedJSON decodes the substring between the first '{' and the last '}'
func decodeEmbeddedJSON(text string, v interface{}) error {
	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start < 0 || end < start {
		return fmt.Errorf("%w: no JSON object in classifier reply", ErrClassificationParse)
	}

	if err := json.Unmarshal([]byte(text[start:end+1]), v); err != nil {
		return fmt.Errorf("%w: %v", ErrClassificationParse, err)
	}
	return nil
}

func (v verdictFields) toResult() (*ClassificationResult, error) {
	if v.IsPhishing == nil {
		return nil, fmt.Errorf("%w: missing isPhishing", ErrClassificationParse)
	}
	if v.ConfidenceScore == nil {
		return nil, fmt.Errorf("%w: missing confidenceScore", ErrClassificationParse)
	}
	if v.RiskLevel == nil {
		return nil, fmt.Errorf("%w: missing riskLevel", ErrClassificationParse)
	}

	score := *v.ConfidenceScore
	if math.IsNaN(score) || score < 0 || score > 100 {
		return nil, fmt.Errorf("%w: confidenceScore %v outside [0,100]", ErrClassificationParse, score)
	}

	level := RiskLevel(strings.ToLower(strings.TrimSpace(*v.RiskLevel)))
	if !level.Valid() {
		return nil, fmt.Errorf("%w: unknown riskLevel %q", ErrClassificationParse, *v.RiskLevel)
	}

	return &ClassificationResult{
		IsPhishing:      *v.IsPhishing,
		ConfidenceScore: int(math.Round(score)),
		RiskLevel:       level,
	}, nil
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
