package postprocess_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/newsnest/nest-agent/internal/app/postprocess"
)

func TestCleanWithVisualizationStripsFencedBlocks(t *testing.T) {
	raw := "Here's the trend in plain words.\n\n```json\n{\"data\": [1,2,3]}\n```\n\nIt has grown steadily."
	got := postprocess.CleanWithVisualization(raw)

	assert.NotContains(t, got, "```")
	assert.NotContains(t, got, "data")
	assert.Contains(t, got, "Here's the trend in plain words.")
	assert.Contains(t, got, "It has grown steadily.")
}

func TestCleanWithVisualizationDropsJSONAndBullets(t *testing.T) {
	raw := strings.Join([]string{
		"The numbers tell a clear story.",
		`{"label": "2020", "value": 12}`,
		"- first point",
		"* second point",
		"1. third point",
	}, "\n")

	got := postprocess.CleanWithVisualization(raw)

	assert.NotContains(t, got, "{")
	assert.NotContains(t, got, "- first")
	assert.Contains(t, got, "first point")
	assert.Contains(t, got, "The numbers tell a clear story.")
}

func TestCleanWithVisualizationRemovesEmphasisMarkers(t *testing.T) {
	got := postprocess.CleanWithVisualization("This is **really** important and _worth_ noting.")
	assert.Equal(t, "This is really important and worth noting.", got)
}

func TestCleanWithVisualizationDropsDisclaimerSentences(t *testing.T) {
	raw := "I can't display a chart here. The growth has been steady since 2020."
	got := postprocess.CleanWithVisualization(raw)

	assert.NotContains(t, got, "can't display a chart")
	assert.Contains(t, got, "The growth has been steady since 2020.")
}

func TestCleanWithVisualizationLimitsParagraphs(t *testing.T) {
	raw := "One.\n\nTwo.\n\nThree.\n\nFour.\n\nFive."
	got := postprocess.CleanWithVisualization(raw)

	assert.Equal(t, 3, len(strings.Split(got, "\n\n")))
	assert.NotContains(t, got, "Four.")
}
