package core

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"math"
)

// ErrMalformedResult is returned when a scorer payload is not a JSON object
var ErrMalformedResult = errors.New("malformed analysis result")

// DecodeAnalysisResult parses a scorer payload. Each field falls back to its
// default independently: a payload missing reasons still yields the score and
// status it carried. Only a payload that is not a JSON object is an error.
func DecodeAnalysisResult(data []byte) (AnalysisResult, error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(bytes.TrimSpace(data), &fields); err != nil || fields == nil {
		if err == nil {
			err = errors.New("payload is null")
		}
		return SafeResult(), fmt.Errorf("%w: %v", ErrMalformedResult, err)
	}

	result := SafeResult()

	if raw, ok := fields["riskScore"]; ok {
		var score float64
		if err := json.Unmarshal(raw, &score); err == nil {
			result.RiskScore = clampScore(score)
		}
	}

	if raw, ok := fields["status"]; ok {
		var status string
		if err := json.Unmarshal(raw, &status); err == nil && status != "" {
			result.Status = Status(status)
		}
	}

	if raw, ok := fields["reasons"]; ok {
		var items []json.RawMessage
		if err := json.Unmarshal(raw, &items); err == nil {
			for _, item := range items {
				var reason *string
				if err := json.Unmarshal(item, &reason); err == nil && reason != nil {
					result.Reasons = append(result.Reasons, *reason)
				}
			}
		}
	}

	return result, nil
}

func clampScore(score float64) float64 {
	switch {
	case math.IsNaN(score):
		return 0
	case score < 0:
		return 0
	case score > 1:
		return 1
	}
	return score
}
