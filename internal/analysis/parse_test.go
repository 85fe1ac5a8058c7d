package analysis

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractJSON(t *testing.T) {
	cases := map[string]string{
		"plain":          `{"a":1}`,
		"json fence":     "Here you go:\n```json\n{\"a\":1}\n```\nThanks",
		"bare fence":     "```\n{\"a\":1}\n```",
		"padded":         "  \n{\"a\":1}\n  ",
		"unclosed fence": "```json\n{\"a\":1}",
	}
	for name, in := range cases {
		t.Run(name, func(t *testing.T) {
			assert.Equal(t, `{"a":1}`, extractJSON(in))
		})
	}
}

func TestParseObject(t *testing.T) {
	out, err := parseObject("```json\n{\"healthScore\": 42, \"warnings\": [\"sugar\"]}\n```")
	require.NoError(t, err)
	assert.Equal(t, float64(42), out["healthScore"])
	assert.Equal(t, []any{"sugar"}, out["warnings"])

	_, err = parseObject("```json\n```")
	assert.ErrorIs(t, err, errEmptyCompletion)

	_, err = parseObject("not json")
	assert.Error(t, err)
}
