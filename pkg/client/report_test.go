package client

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSanitizeJSON(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want string
	}{
		{"plain", `{"a":1}`, `{"a":1}`},
		{"fenced", "```json\n{\"a\":1}\n```", `{"a":1}`},
		{"block comment", `{"a": 1 /* note */}`, `{"a": 1 }`},
		{"line comment", "{\n// note\n\"a\":1}", "{\n\n\"a\":1}"},
		{"trailing commas", `{"a":[1,2,],}`, `{"a":[1,2]}`},
		{"chatter around json", `Sure! Here it is: {"a":1} Hope that helps.`, `{"a":1}`},
		{"urls survive", `{"u":"http://x.test/y"}`, `{"u":"http://x.test/y"}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, SanitizeJSON(tt.raw))
		})
	}
}

func TestParseReport(t *testing.T) {
	raw := "```json\n" + `{
  "caption": "a dog on a lawn",
  "classifications": [{"label": "dog", "confidence": 0.9}],
  "objects": [{"label": "dog", "confidence": 0.85, "box": {"x": 0.2, "y": 0.3, "w": 0.4, "h": 0.5}}],
  "scenes": [{"label": "park", "confidence": 0.6},],
  "text": [],
}` + "\n```"
	report, err := ParseReport(raw)
	require.NoError(t, err)
	assert.Equal(t, "a dog on a lawn", report.Caption)
	require.Len(t, report.Objects, 1)
	assert.InDelta(t, 0.4, report.Objects[0].Box.W, 1e-9)
	require.Len(t, report.Scenes, 1)
	assert.Equal(t, "park", report.Scenes[0].Label)
}

func TestParseReportErrors(t *testing.T) {
	_, err := ParseReport("I cannot see any image.")
	assert.ErrorIs(t, err, ErrNoJSON)

	_, err = ParseReport(`{"caption": 12}`)
	assert.Error(t, err)
}
