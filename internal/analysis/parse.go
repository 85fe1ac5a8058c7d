package analysis

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

var errEmptyCompletion = errors.New("analysis: empty completion")

// extractJSON returns the body of the first fenced block, preferring a
// ```json fence, or the trimmed text when no fence is present.
func extractJSON(text string) string {
	for _, fence := range []string{"```json", "```"} {
		if _, rest, ok := strings.Cut(text, fence); ok {
			body, _, _ := strings.Cut(rest, "```")
			return strings.TrimSpace(body)
		}
	}
	return strings.TrimSpace(text)
}

// parseObject decodes a model completion into a JSON object.
func parseObject(text string) (map[string]any, error) {
	body := extractJSON(text)
	if body == "" {
		return nil, errEmptyCompletion
	}
	var out map[string]any
	if err := json.Unmarshal([]byte(body), &out); err != nil {
		return nil, fmt.Errorf("analysis: decode completion: %w", err)
	}
	return out, nil
}
