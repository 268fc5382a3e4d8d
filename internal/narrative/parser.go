package narrative

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// ErrInvalidResponse is returned when the model output is not the expected JSON object.
var ErrInvalidResponse = errors.New("invalid model response")

// ParseInsights decodes the model response and returns the raw insight objects
// listed under the response key of kind. Non-object entries are dropped.
func ParseInsights(raw string, kind Kind) ([]map[string]interface{}, error) {
	if !kind.Valid() {
		return nil, fmt.Errorf("ParseInsights: unknown kind %q", kind)
	}

	clean := cleanModelJSON(raw)

	var parsed map[string]interface{}
	if err := json.Unmarshal([]byte(clean), &parsed); err != nil {
		return nil, fmt.Errorf("ParseInsights: unmarshal JSON: %w: %v", ErrInvalidResponse, err)
	}

	list, ok := parsed[kind.ResponseKey()].([]interface{})
	if !ok {
		return nil, nil
	}

	items := make([]map[string]interface{}, 0, len(list))
	for _, v := range list {
		if m, ok := v.(map[string]interface{}); ok {
			items = append(items, m)
		}
	}
	return items, nil
}

// cleanModelJSON strips Markdown fences and any text around the outermost object.
func cleanModelJSON(raw string) string {
	s := strings.TrimSpace(raw)

	if strings.HasPrefix(s, "```") {
		// Drop the opening fence line (``` or ```json).
		if idx := strings.Index(s, "\n"); idx != -1 {
			s = s[idx+1:]
		} else {
			return s
		}
		s = strings.TrimSpace(s)
	}

	if idx := strings.LastIndex(s, "```"); idx != -1 {
		s = s[:idx]
	}
	s = strings.TrimSpace(s)

	if start := strings.Index(s, "{"); start != -1 {
		if end := strings.LastIndex(s, "}"); end != -1 && end > start {
			s = strings.TrimSpace(s[start : end+1])
		}
	}

	return s
}
