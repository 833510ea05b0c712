package cache

import (
	"encoding/json"
	"fmt"

	"github.com/phishnet/phish-detector/internal/core"
)

// encodeResult serializes a result for the SQL and redis backends
func encodeResult(result *core.ClassificationResult) ([]byte, error) {
	data, err := json.Marshal(result)
	if err != nil {
		return nil, fmt.Errorf("failed to encode cached result: %w", err)
	}
	return data, nil
}

func decodeResult(data []byte) (*core.ClassificationResult, error) {
	var result core.ClassificationResult
	if err := json.Unmarshal(data, &result); err != nil {
		return nil, fmt.Errorf("failed to decode cached result: %w", err)
	}
	return &result, nil
}
