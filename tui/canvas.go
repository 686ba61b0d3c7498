package tui

import (
	"math"
	"sort"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/reflow/truncate"

	"github.com/nicolascine/embedding-viz/projection"
)

const (
	canvasPadding = 2
	// Terminal cells are about twice as tall as they are wide.
	cellAspect    = 2.0
	maxLabelWidth = 12
	hoverRadius   = 2
)

// viewport maps projected coordinates onto canvas cells. It fits the bounding box
// of the points into the canvas with one scale for both axes, so the layout keeps
// its shape, and centers it along the axis with room to spare.
type viewport struct {
	minX, maxY       float64
	scale            float64
	offsetX, offsetY float64
	width, height    int
}

// fitViewport computes the viewport for points on a width×height canvas.
// A zero range along an axis is treated as 1.
func fitViewport(points []projection.Point2D, width, height int) viewport {
	view := viewport{width: width, height: height, scale: 1}
	if len(points) == 0 {
		return view
	}

	minX, maxX := points[0].X, points[0].X
	minY, maxY := points[0].Y, points[0].Y
	for _, point := range points[1:] {
		minX = math.Min(minX, point.X)
		maxX = math.Max(maxX, point.X)
		minY = math.Min(minY, point.Y)
		maxY = math.Max(maxY, point.Y)
	}

	rangeX := maxX - minX
	rangeY := maxY - minY
	if rangeX == 0 {
		rangeX = 1
	}
	if rangeY == 0 {
		rangeY = 1
	}

	plotWidth := float64(width - 1 - 2*canvasPadding)
	plotHeight := float64(height - 1 - 2*canvasPadding)
	if plotWidth < 1 {
		plotWidth = 1
	}
	if plotHeight < 1 {
		plotHeight = 1
	}

	view.scale = math.Min(plotWidth/(rangeX*cellAspect), plotHeight/rangeY)
	view.minX = minX
	view.maxY = maxY
	view.offsetX = float64(canvasPadding) + (plotWidth-(maxX-minX)*view.scale*cellAspect)/2
	view.offsetY = float64(canvasPadding) + (plotHeight-(maxY-minY)*view.scale)/2
	return view
}

// cell returns the canvas column and row of a point, clamped to the canvas.
// Larger Y is drawn higher up.
func (view viewport) cell(point projection.Point2D) (column, row int) {
	column = int(math.Round(view.offsetX + (point.X-view.minX)*view.scale*cellAspect))
	row = int(math.Round(view.offsetY + (view.maxY-point.Y)*view.scale))
	return clamp(column, 0, view.width-1), clamp(row, 0, view.height-1)
}

// pointAt returns the index of the point whose cell is closest to (column, row),
// or -1 when none lies within radius cells. Horizontal distance is scaled by
// cellAspect so the search area looks round on screen.
func (view viewport) pointAt(points []projection.Point2D, column, row, radius int) int {
	best := -1
	bestDistance := math.Inf(1)
	for index, point := range points {
		pointColumn, pointRow := view.cell(point)
		dx := float64(pointColumn-column) / cellAspect
		dy := float64(pointRow - row)
		distance := math.Hypot(dx, dy)
		if distance <= float64(radius) && distance < bestDistance {
			best = index
			bestDistance = distance
		}
	}
	return best
}

func clamp(value, low, high int) int {
	if high < low {
		return low
	}
	if value < low {
		return low
	}
	if value > high {
		return high
	}
	return value
}

// canvasCell represents a single cell in the rendering grid with its character and styling.
type canvasCell struct {
	char  rune
	style lipgloss.Style
}

// canvasStyles holds all the lipgloss styles used for canvas rendering.
type canvasStyles struct {
	selectedDot   lipgloss.Style
	selectedLabel lipgloss.Style
	normal        lipgloss.Style
	line          lipgloss.Style
	neighborDot   lipgloss.Style
	neighborLabel lipgloss.Style
	placeholder   lipgloss.Style
}

func newCanvasStyles() canvasStyles {
	return canvasStyles{
		selectedDot:   lipgloss.NewStyle().Foreground(lipgloss.Color("214")).Bold(true),
		selectedLabel: lipgloss.NewStyle().Foreground(lipgloss.Color("118")).Bold(true),
		normal:        lipgloss.NewStyle().Foreground(lipgloss.Color("245")),
		line:          lipgloss.NewStyle().Foreground(lipgloss.Color("117")),
		neighborDot:   lipgloss.NewStyle().Foreground(lipgloss.Color("213")).Bold(true),
		neighborLabel: lipgloss.NewStyle().Foreground(lipgloss.Color("228")).Bold(true),
		placeholder:   lipgloss.NewStyle().Foreground(lipgloss.Color("241")),
	}
}

// gridPoint is a point positioned on the canvas grid.
type gridPoint struct {
	column, row int
	index       int
	label       string
	selected    bool
	neighbor    bool
}

// renderPriority orders drawing so highlighted points end up on top.
func (point gridPoint) renderPriority() int {
	switch {
	case point.selected:
		return 2
	case point.neighbor:
		return 1
	default:
		return 0
	}
}

// renderCanvas draws every projected point into a width×height block of text.
func (model Model) renderCanvas(width, height int) string {
	grid := newCanvasGrid(width, height)
	styles := newCanvasStyles()

	switch {
	case len(model.points) == 0 && model.projecting:
		writeCentered(grid, "Projecting "+model.settings.Method.String()+"...", styles.placeholder)
	case len(model.points) == 0:
		writeCentered(grid, "No vectors to display", styles.placeholder)
	default:
		model.drawPoints(grid, styles)
	}

	return canvasGridToString(grid)
}

func newCanvasGrid(width, height int) [][]canvasCell {
	grid := make([][]canvasCell, height)
	for row := range grid {
		grid[row] = make([]canvasCell, width)
		for column := range grid[row] {
			grid[row][column] = canvasCell{char: ' ', style: lipgloss.NewStyle()}
		}
	}
	return grid
}

func writeCentered(grid [][]canvasCell, message string, style lipgloss.Style) {
	if len(grid) == 0 {
		return
	}
	width := len(grid[0])
	runes := []rune(message)
	start := (width - len(runes)) / 2
	if start < 0 {
		start = 0
	}
	writeRunes(grid, len(grid)/2, start, runes, style)
}

func writeRunes(grid [][]canvasCell, row, start int, runes []rune, style lipgloss.Style) {
	if row < 0 || row >= len(grid) {
		return
	}
	for offset, r := range runes {
		column := start + offset
		if column >= 0 && column < len(grid[row]) {
			grid[row][column] = canvasCell{char: r, style: style}
		}
	}
}

// drawPoints places markers, labels and neighbor connector lines on the grid.
func (model Model) drawPoints(grid [][]canvasCell, styles canvasStyles) {
	height := len(grid)
	width := len(grid[0])
	view := fitViewport(model.points, width, height)

	neighbors := make(map[int]bool)
	for _, n := range model.nearestNeighbors(model.selectedIndex, neighborCount) {
		neighbors[n.index] = true
	}

	gridPoints := make([]gridPoint, len(model.points))
	var selected *gridPoint
	for i, point := range model.points {
		column, row := view.cell(point)
		gridPoints[i] = gridPoint{
			column:   column,
			row:      row,
			index:    point.Index,
			label:    model.data.Label(point.Index),
			selected: point.Index == model.selectedIndex,
			neighbor: neighbors[point.Index],
		}
		if gridPoints[i].selected {
			selected = &gridPoints[i]
		}
	}

	if selected != nil {
		for _, target := range gridPoints {
			if target.neighbor {
				drawLineOnCanvas(grid, selected.column, selected.row, target.column, target.row, styles.line)
			}
		}
	}

	sort.SliceStable(gridPoints, func(a, b int) bool {
		return gridPoints[a].renderPriority() < gridPoints[b].renderPriority()
	})

	for _, point := range gridPoints {
		if model.focusMode && selected != nil && !point.selected && !point.neighbor {
			continue
		}
		model.drawMarker(grid, point, styles)
	}
}

func (model Model) drawMarker(grid [][]canvasCell, point gridPoint, styles canvasStyles) {
	marker, markerStyle, labelStyle := "•", styles.normal, styles.normal
	markerColumn := point.column
	switch {
	case point.selected:
		marker, markerStyle, labelStyle = "[*]", styles.selectedDot, styles.selectedLabel
		markerColumn--
	case point.neighbor:
		marker, markerStyle, labelStyle = "◆", styles.neighborDot, styles.neighborLabel
	}

	markerRunes := []rune(marker)
	writeRunes(grid, point.row, markerColumn, markerRunes, markerStyle)

	if !model.showLabels && !point.selected && !point.neighbor {
		return
	}
	label := truncate.StringWithTail(point.label, maxLabelWidth, "…")
	writeRunes(grid, point.row, markerColumn+len(markerRunes)+1, []rune(label), labelStyle)
}

// canvasGridToString converts the canvas grid into a renderable string.
func canvasGridToString(grid [][]canvasCell) string {
	var builder strings.Builder
	for row, cells := range grid {
		for _, cell := range cells {
			builder.WriteString(cell.style.Render(string(cell.char)))
		}
		if row < len(grid)-1 {
			builder.WriteString("\n")
		}
	}
	return builder.String()
}

// drawLineOnCanvas uses Bresenham's line algorithm to draw a dotted line between
// two cells. Occupied cells are left untouched.
func drawLineOnCanvas(grid [][]canvasCell, startX, startY, endX, endY int, lineStyle lipgloss.Style) {
	deltaX := absoluteValue(endX - startX)
	deltaY := absoluteValue(endY - startY)

	stepX := 1
	if startX > endX {
		stepX = -1
	}
	stepY := 1
	if startY > endY {
		stepY = -1
	}

	errorTerm := deltaX - deltaY
	x, y := startX, startY

	for {
		if y >= 0 && y < len(grid) && x >= 0 && x < len(grid[y]) && grid[y][x].char == ' ' {
			grid[y][x] = canvasCell{char: '·', style: lineStyle}
		}
		if x == endX && y == endY {
			break
		}

		doubledError := 2 * errorTerm
		if doubledError > -deltaY {
			errorTerm -= deltaY
			x += stepX
		}
		if doubledError < deltaX {
			errorTerm += deltaX
			y += stepY
		}
	}
}

func absoluteValue(number int) int {
	if number < 0 {
		return -number
	}
	return number
}
