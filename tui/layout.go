package tui

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"
	"github.com/muesli/reflow/truncate"

	"github.com/nicolascine/embedding-viz/projection"
)

const (
	marginX            = 1
	marginY            = 1
	headerHeight       = 1
	footerHeight       = 2
	borderSize         = 2
	overlayPanelWidth  = 36
	overlayPanelHeight = 18
	inputOverlayWidth  = 60
	minCanvasWidth     = 40
	minCanvasHeight    = 10

	// Screen position of the first canvas cell: outer margin plus border, and
	// on the vertical axis the header line as well.
	canvasOriginX = marginX + 1
	canvasOriginY = marginY + headerHeight + 1
)

type layoutDimensions struct {
	totalWidth        int
	canvasInnerWidth  int
	canvasInnerHeight int
}

func (m Model) calculateLayout() layoutDimensions {
	totalWidth := m.width - 2*marginX

	canvasInnerWidth := totalWidth - borderSize
	if canvasInnerWidth < minCanvasWidth {
		canvasInnerWidth = minCanvasWidth
	}

	canvasInnerHeight := m.height - 2*marginY - headerHeight - borderSize - footerHeight
	if canvasInnerHeight < minCanvasHeight {
		canvasInnerHeight = minCanvasHeight
	}

	return layoutDimensions{
		totalWidth:        totalWidth,
		canvasInnerWidth:  canvasInnerWidth,
		canvasInnerHeight: canvasInnerHeight,
	}
}

type styles struct {
	title     lipgloss.Style
	canvas    lipgloss.Style
	overlay   lipgloss.Style
	input     lipgloss.Style
	header    lipgloss.Style
	label     lipgloss.Style
	value     lipgloss.Style
	statusBar lipgloss.Style
	errorText lipgloss.Style
}

func newStyles() styles {
	accentColor := lipgloss.Color("#FF87D7")
	borderColor := lipgloss.Color("#5F5FAF")
	canvasBorderColor := lipgloss.Color("#FF8700")
	dimColor := lipgloss.Color("#6C6C6C")
	bgColor := lipgloss.Color("#303030")

	return styles{
		title: lipgloss.NewStyle().
			Bold(true).
			Foreground(accentColor),

		canvas: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(canvasBorderColor),

		overlay: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(borderColor).
			Background(bgColor).
			Padding(0, 1),

		input: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(accentColor).
			Background(bgColor).
			Padding(0, 1),

		header: lipgloss.NewStyle().Bold(true).Foreground(accentColor),
		label:  lipgloss.NewStyle().Foreground(lipgloss.Color("241")),
		value:  lipgloss.NewStyle().Foreground(lipgloss.Color("255")),

		statusBar: lipgloss.NewStyle().
			Foreground(dimColor),

		errorText: lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FF0000")),
	}
}

// View renders the complete UI as a string.
func (m Model) View() string {
	s := newStyles()
	layout := m.calculateLayout()

	var b strings.Builder
	b.WriteString(m.renderHeader(s, layout.totalWidth))
	b.WriteString("\n")
	b.WriteString(m.renderContentArea(s, layout))
	b.WriteString("\n")
	b.WriteString(m.renderStatsLine(s))
	b.WriteString("\n")
	b.WriteString(m.renderStatusBar(s, layout.totalWidth))

	return lipgloss.NewStyle().Padding(marginY, marginX).Render(b.String())
}

func (m Model) renderHeader(s styles, width int) string {
	title := s.title.Render(m.title)
	method := s.statusBar.Render(m.settings.Method.String())

	gap := width - lipgloss.Width(title) - lipgloss.Width(method)
	if gap < 1 {
		gap = 1
	}
	return title + strings.Repeat(" ", gap) + method
}

func (m Model) renderContentArea(s styles, layout layoutDimensions) string {
	canvasContent := m.renderCanvas(layout.canvasInnerWidth, layout.canvasInnerHeight)
	canvasBox := s.canvas.
		Width(layout.canvasInnerWidth).
		Height(layout.canvasInnerHeight).
		Render(canvasContent)

	if m.showMetadata && m.selectedIndex >= 0 && m.selectedIndex < m.data.Len() {
		canvasBox = m.overlayMetadataPanel(canvasBox, s, layout)
	}
	if m.inputMode {
		canvasBox = m.overlayInputBox(canvasBox, s, layout)
	}
	return canvasBox
}

func (m Model) overlayMetadataPanel(base string, s styles, layout layoutDimensions) string {
	panelInnerWidth := overlayPanelWidth - 4
	panelInnerHeight := overlayPanelHeight
	if panelInnerHeight > layout.canvasInnerHeight-2 {
		panelInnerHeight = layout.canvasInnerHeight - 2
	}

	panel := s.overlay.
		Width(panelInnerWidth).
		Height(panelInnerHeight).
		Render(m.renderMetadata(s, panelInnerWidth, panelInnerHeight))

	return overlayAt(base, panel, layout.canvasInnerWidth+borderSize-overlayPanelWidth-1, 1)
}

func (m Model) overlayInputBox(base string, s styles, layout layoutDimensions) string {
	inputText := m.input
	if m.embedding {
		inputText += " ..."
	}
	if inputText == "" {
		inputText = "Type a text to embed, Enter to add, Esc to cancel"
	}

	inputBox := s.input.
		Width(inputOverlayWidth - 4).
		Render(inputText)

	x := (layout.canvasInnerWidth + borderSize - inputOverlayWidth) / 2
	y := layout.canvasInnerHeight / 2
	return overlayAt(base, inputBox, x, y)
}

// renderMetadata generates the tooltip panel for the selected point: label,
// projected position, metadata, vector statistics and nearest neighbors.
func (m Model) renderMetadata(s styles, width, height int) string {
	index := m.selectedIndex
	var lines []string

	lines = append(lines, s.header.Render("Selected"))
	lines = append(lines, s.value.Render(truncate.StringWithTail(m.data.Label(index), uint(width), "…")))
	if index < len(m.points) {
		point := m.points[index]
		lines = append(lines, s.label.Render("Position: ")+s.value.Render(fmt.Sprintf("%.3f, %.3f", point.X, point.Y)))
	}

	metadata := m.data.Meta(index)
	keys := make([]string, 0, len(metadata))
	for key := range metadata {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	for _, key := range keys {
		line := s.label.Render(key+": ") + s.value.Render(fmt.Sprint(metadata[key]))
		lines = append(lines, truncate.StringWithTail(line, uint(width), "…"))
	}
	lines = append(lines, "")

	if index < len(m.vectors32) {
		stats := computeVectorStats(m.vectors32[index])
		lines = append(lines,
			s.label.Render("Dim: ")+s.value.Render(fmt.Sprintf("%d", len(m.vectors32[index]))),
			s.label.Render("Min/Max: ")+s.value.Render(fmt.Sprintf("%.3f / %.3f", stats.min, stats.max)),
			s.label.Render("Mean: ")+s.value.Render(fmt.Sprintf("%.4f", stats.mean)),
			s.label.Render("L2 norm: ")+s.value.Render(fmt.Sprintf("%.4f", stats.norm)),
			"",
		)
	}

	if neighbors := m.nearestNeighbors(index, neighborCount); len(neighbors) > 0 {
		lines = append(lines, s.header.Render("Nearest"))
		for _, n := range neighbors {
			label := truncate.StringWithTail(m.data.Label(n.index), uint(max(width-7, 1)), "…")
			lines = append(lines, fmt.Sprintf("%.3f %s", n.similarity, label))
		}
	}

	for len(lines) < height {
		lines = append(lines, "")
	}
	if len(lines) > height {
		lines = lines[:height]
	}
	return strings.Join(lines, "\n")
}

// statsText describes the dataset and the state of the current projection.
func (m Model) statsText() string {
	parts := []string{
		fmt.Sprintf("%d points", m.data.Len()),
		fmt.Sprintf("%d dims", m.data.Dimensions),
		m.settings.Method.String(),
	}
	if m.settings.Method == projection.MethodTSNE {
		parts = append(parts, fmt.Sprintf("perplexity %g", m.settings.Nonlinear.Perplexity))
	}

	switch {
	case m.projecting && m.progress.valid:
		parts = append(parts, fmt.Sprintf("iteration %d/%d cost %.4f",
			m.progress.iteration, m.settings.Nonlinear.Iterations, m.progress.cost))
	case m.projecting:
		parts = append(parts, "projecting...")
	case m.elapsed > 0:
		parts = append(parts, fmt.Sprintf("done in %s", m.elapsed.Round(time.Millisecond)))
	}
	return strings.Join(parts, " │ ")
}

func (m Model) renderStatsLine(s styles) string {
	if m.err != nil {
		return s.errorText.Render("Error: " + m.err.Error())
	}
	return s.statusBar.Render(m.statsText())
}

func (m Model) renderStatusBar(s styles, width int) string {
	var help string
	if m.inputMode {
		help = "Enter: add │ Esc: cancel"
	} else {
		help = "↑↓: select │ /: info │ L: labels │ F: focus │ Tab: method │ +/-: perplexity │ R: reseed"
		if m.embedder != nil {
			help += " │ I: input"
		}
		help += " │ Q: quit"
	}

	help = truncate.String(help, uint(max(width-lipgloss.Width(m.version)-1, 1)))
	padding := width - lipgloss.Width(help) - lipgloss.Width(m.version)
	if padding < 1 {
		padding = 1
	}
	return s.statusBar.Render(help + strings.Repeat(" ", padding) + m.version)
}

// overlayAt draws overlay on top of base with its top-left corner at (x, y),
// clamped so the overlay stays inside base. Both may contain ANSI sequences.
func overlayAt(base, overlay string, x, y int) string {
	bgLines, bgWidth := getLines(base)
	fgLines, fgWidth := getLines(overlay)
	bgHeight := len(bgLines)
	fgHeight := len(fgLines)

	if fgWidth >= bgWidth && fgHeight >= bgHeight {
		return overlay
	}

	x = clamp(x, 0, bgWidth-fgWidth)
	y = clamp(y, 0, bgHeight-fgHeight)

	var b strings.Builder
	for i, bgLine := range bgLines {
		if i > 0 {
			b.WriteByte('\n')
		}
		if i < y || i >= y+fgHeight {
			b.WriteString(bgLine)
			continue
		}

		pos := 0
		if x > 0 {
			left := truncate.String(bgLine, uint(x))
			pos = ansi.StringWidth(left)
			b.WriteString(left)
			if pos < x {
				b.WriteString(strings.Repeat(" ", x-pos))
				pos = x
			}
		}

		fgLine := fgLines[i-y]
		b.WriteString(fgLine)
		pos += ansi.StringWidth(fgLine)

		right := ansi.TruncateLeft(bgLine, pos, "")
		lineWidth := ansi.StringWidth(bgLine)
		rightWidth := ansi.StringWidth(right)
		if rightWidth <= lineWidth-pos {
			b.WriteString(strings.Repeat(" ", lineWidth-rightWidth-pos))
		}
		b.WriteString(right)
	}

	return b.String()
}

func getLines(s string) ([]string, int) {
	lines := strings.Split(s, "\n")
	widest := 0
	for _, l := range lines {
		if w := ansi.StringWidth(l); widest < w {
			widest = w
		}
	}
	return lines, widest
}
