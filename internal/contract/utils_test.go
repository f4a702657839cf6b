package contract

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGetPlainLabel(t *testing.T) {
	assert.Equal(t, CriticalValue, GetPlainLabel(95))
	assert.Equal(t, CriticalValue, GetPlainLabel(80))
	assert.Equal(t, HighValue, GetPlainLabel(60))
	assert.Equal(t, ModerateValue, GetPlainLabel(40))
	assert.Equal(t, LowValue, GetPlainLabel(39.9))
	assert.Equal(t, LowValue, GetPlainLabel(0))
}

func TestGetColorLabelContainsText(t *testing.T) {
	assert.Contains(t, GetColorLabel(90), CriticalValue)
	assert.Contains(t, GetColorLabel(10), LowValue)
}

func TestTruncateText(t *testing.T) {
	assert.Equal(t, "short", TruncateText("short", 20))
	assert.Equal(t, "a ver...", TruncateText("a very long kpi name", 8))
	// widths too small to hold an ellipsis pass through untouched
	assert.Equal(t, "abcdef", TruncateText("abcdef", 3))
}

func TestParseBoolString(t *testing.T) {
	for _, s := range []string{"yes", "TRUE", "1"} {
		got, err := ParseBoolString(s)
		assert.NoError(t, err, s)
		assert.True(t, got, s)
	}
	for _, s := range []string{"no", "False", "0"} {
		got, err := ParseBoolString(s)
		assert.NoError(t, err, s)
		assert.False(t, got, s)
	}
	_, err := ParseBoolString("maybe")
	assert.Error(t, err)
}
