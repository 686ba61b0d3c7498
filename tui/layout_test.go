package tui

import (
	"strings"
	"testing"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/stretchr/testify/assert"

	"github.com/nicolascine/embedding-viz/projection"
)

func TestOverlayAt(t *testing.T) {
	base := strings.Join([]string{"..........", "..........", ".........."}, "\n")

	got := overlayAt(base, "ab\ncd", 3, 1)
	assert.Equal(t, strings.Join([]string{"..........", "...ab.....", "...cd....."}, "\n"), got)

	clamped := overlayAt(base, "xy", 20, 20)
	assert.Equal(t, "........xy", strings.Split(clamped, "\n")[2])

	assert.Equal(t, "big", overlayAt("a", "big", 0, 0))
}

func TestStatsText(t *testing.T) {
	model := newTestModel(t, 6)
	assert.Equal(t, "6 points │ 3 dims │ PCA", model.statsText())

	model.settings.Method = projection.MethodTSNE
	model.projecting = true
	model.progress = progressSample{iteration: 150, cost: 0.5, valid: true}
	assert.Equal(t, "6 points │ 3 dims │ t-SNE │ perplexity 30 │ iteration 150/60 cost 0.5000", model.statsText())

	model.projecting = false
	model.elapsed = 1500 * time.Millisecond
	assert.Contains(t, model.statsText(), "done in 1.5s")
}

func TestViewFitsWindow(t *testing.T) {
	model := newTestModel(t, 6)
	model = drain(t, model, model.Init())
	model.width, model.height = 90, 30
	model.selectedIndex = 1

	view := model.View()
	assert.Equal(t, 30, lipgloss.Height(view))
	assert.Contains(t, view, "embedding-viz")
	assert.Contains(t, view, "Nearest")
	assert.Contains(t, view, "6 points")
}

func TestRenderMetadata(t *testing.T) {
	model := newTestModel(t, 4)
	model.data.Metadata = []map[string]any{nil, {"cluster": "science"}}
	model.selectedIndex = 1

	panel := model.renderMetadata(newStyles(), 30, 16)
	lines := strings.Split(panel, "\n")

	assert.Len(t, lines, 16)
	assert.Contains(t, panel, "word-1")
	assert.Contains(t, panel, "cluster: science")
	assert.Contains(t, panel, "Dim: 3")
}
