package console

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDisplayWidth(t *testing.T) {
	assert.Equal(t, 5, DisplayWidth("scene"))
	assert.Equal(t, 4, DisplayWidth("場景"))
	assert.Equal(t, 6, DisplayWidth("ab場景"))
	assert.Equal(t, 0, DisplayWidth(""))
}

func TestStatAlignsWideLabels(t *testing.T) {
	var narrow, wide bytes.Buffer
	Stat(&narrow, "abcd", 12)
	Stat(&wide, "場景", 12)

	// Same display width, so the same number of leader dots.
	assert.Equal(t, strings.Count(narrow.String(), "·"), strings.Count(wide.String(), "·"))
	assert.Contains(t, narrow.String(), "12")
}

func TestOrderMarksDisabled(t *testing.T) {
	var buf bytes.Buffer
	Order(&buf, []string{"events", "hud"}, map[string]bool{"hud": true})

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	assert.Len(t, lines, 2)
	assert.Contains(t, lines[0], " 1. events")
	assert.NotContains(t, lines[0], "disabled")
	assert.Contains(t, lines[1], "hud")
	assert.Contains(t, lines[1], "disabled")
}
