// Package tui renders projected embeddings as an interactive terminal scatter plot.
package tui

import (
	"context"
	"fmt"
	"time"

	"github.com/go-logr/logr"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/google/uuid"

	"github.com/nicolascine/embedding-viz/dataset"
	"github.com/nicolascine/embedding-viz/embedding"
	"github.com/nicolascine/embedding-viz/projection"
	"github.com/nicolascine/embedding-viz/qdrant"
	"github.com/nicolascine/embedding-viz/vecmath"
)

const (
	perplexityStep = 5
	minPerplexity  = 5
	maxPerplexity  = 100
	neighborCount  = 5
)

// PointStore persists points added from the viewer. *qdrant.Client satisfies it.
type PointStore interface {
	Upsert(ctx context.Context, points []qdrant.Point) error
}

// Options configures a new Model.
type Options struct {
	Dataset  *dataset.Dataset
	Settings projection.Settings
	Title    string
	Version  string
	Logger   logr.Logger

	// Embedder enables the input box for adding new texts. Store, when set,
	// persists every text added that way.
	Embedder embedding.Embedder
	Store    PointStore
}

// Model represents the state of the scatter-plot viewer.
type Model struct {
	width, height int

	data      *dataset.Dataset
	vectors32 [][]float32
	settings  projection.Settings
	points    []projection.Point2D

	selectedIndex int
	showMetadata  bool
	showLabels    bool
	focusMode     bool

	projecting bool
	generation int
	cancel     context.CancelFunc
	progress   progressSample
	elapsed    time.Duration

	inputMode bool
	input     string
	embedding bool
	embedder  embedding.Embedder
	store     PointStore

	err     error
	title   string
	version string
	logger  logr.Logger
}

type progressSample struct {
	iteration int
	cost      float64
	valid     bool
}

// projectionProgress carries one t-SNE progress sample. updates is the channel the
// rest of the run arrives on.
type projectionProgress struct {
	generation int
	iteration  int
	cost       float64
	updates    <-chan tea.Msg
}

// projectionFinished is the last message of a projection run.
type projectionFinished struct {
	generation int
	points     []projection.Point2D
	elapsed    time.Duration
	err        error
}

// textEmbedded is returned after a text typed into the input box was embedded.
type textEmbedded struct {
	text   string
	vector []float32
	err    error
}

// NewModel creates a viewer for the given dataset.
func NewModel(options Options) Model {
	data := options.Dataset
	if data == nil {
		data = &dataset.Dataset{}
	}
	if data.Dimensions == 0 && data.Len() > 0 {
		data.Dimensions = len(data.Vectors[0])
	}
	title := options.Title
	if title == "" {
		title = "embedding-viz"
	}

	return Model{
		width:         80,
		height:        24,
		data:          data,
		vectors32:     vecmath.ToFloat32(data.Vectors),
		settings:      options.Settings,
		selectedIndex: -1,
		showMetadata:  true,
		showLabels:    true,
		embedder:      options.Embedder,
		store:         options.Store,
		title:         title,
		version:       options.Version,
		logger:        options.Logger.WithName("tui"),
	}
}

// projectionRequested asks Update to start a projection run.
type projectionRequested struct{}

// Init requests the first projection.
func (model Model) Init() tea.Cmd {
	if model.data.Len() == 0 {
		return nil
	}
	return func() tea.Msg { return projectionRequested{} }
}

// Update handles all incoming messages and updates the model state accordingly.
func (model Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch message := msg.(type) {
	case tea.KeyMsg:
		if model.inputMode {
			return model.handleInputKey(message)
		}
		return model.handleKeyPress(message)

	case tea.MouseMsg:
		return model.handleMouse(message)

	case tea.WindowSizeMsg:
		model.width = message.Width
		model.height = message.Height

	case projectionRequested:
		return model.startProjection()

	case projectionProgress:
		if message.generation != model.generation {
			return model, nil
		}
		model.progress = progressSample{iteration: message.iteration, cost: message.cost, valid: true}
		return model, waitForUpdate(message.updates)

	case projectionFinished:
		return model.handleProjectionFinished(message)

	case textEmbedded:
		return model.handleTextEmbedded(message)
	}

	return model, nil
}

// handleKeyPress processes keyboard input in normal mode.
func (model Model) handleKeyPress(keyMessage tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch keyMessage.String() {
	case "ctrl+c", "esc", "q":
		if model.cancel != nil {
			model.cancel()
		}
		return model, tea.Quit

	case "up", "k":
		model.selectPreviousPoint()

	case "down", "j":
		model.selectNextPoint()

	case "/":
		model.showMetadata = !model.showMetadata

	case "l":
		model.showLabels = !model.showLabels

	case "f":
		model.focusMode = !model.focusMode

	case "tab", "m":
		model.settings.Method = model.settings.Method.Next()
		return model.startProjection()

	case "+", "=":
		return model.adjustPerplexity(perplexityStep)

	case "-", "_":
		return model.adjustPerplexity(-perplexityStep)

	case "r":
		model.settings.Linear.RandomSeed++
		model.settings.Nonlinear.RandomSeed++
		return model.startProjection()

	case "i":
		if model.embedder != nil {
			model.inputMode = true
			model.input = ""
		}
	}

	return model, nil
}

// handleInputKey processes keyboard input while the input box is open.
func (model Model) handleInputKey(keyMessage tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch keyMessage.Type {
	case tea.KeyCtrlC:
		return model, tea.Quit
	case tea.KeyEsc:
		model.inputMode = false
		model.input = ""
	case tea.KeyEnter:
		if model.input == "" || model.embedding {
			return model, nil
		}
		model.embedding = true
		return model, embedText(model.embedder, model.input)
	case tea.KeyBackspace:
		if runes := []rune(model.input); len(runes) > 0 {
			model.input = string(runes[:len(runes)-1])
		}
	case tea.KeySpace:
		model.input += " "
	case tea.KeyRunes:
		model.input += string(keyMessage.Runes)
	}
	return model, nil
}

// handleMouse selects the point under the cursor.
func (model Model) handleMouse(mouseMessage tea.MouseMsg) (tea.Model, tea.Cmd) {
	if mouseMessage.Action != tea.MouseActionMotion && mouseMessage.Action != tea.MouseActionPress {
		return model, nil
	}
	layout := model.calculateLayout()
	column := mouseMessage.X - canvasOriginX
	row := mouseMessage.Y - canvasOriginY
	if column < 0 || row < 0 || column >= layout.canvasInnerWidth || row >= layout.canvasInnerHeight {
		return model, nil
	}

	view := fitViewport(model.points, layout.canvasInnerWidth, layout.canvasInnerHeight)
	if index := view.pointAt(model.points, column, row, hoverRadius); index >= 0 {
		model.selectedIndex = index
	}
	return model, nil
}

// selectNextPoint moves the selection to the next point in the list.
func (model *Model) selectNextPoint() {
	if len(model.points) > 0 {
		model.selectedIndex = (model.selectedIndex + 1) % len(model.points)
	}
}

// selectPreviousPoint moves the selection to the previous point in the list.
func (model *Model) selectPreviousPoint() {
	if len(model.points) > 0 {
		model.selectedIndex--
		if model.selectedIndex < 0 {
			model.selectedIndex = len(model.points) - 1
		}
	}
}

// adjustPerplexity changes the t-SNE perplexity within [minPerplexity, maxPerplexity]
// and re-projects when t-SNE is the active method.
func (model Model) adjustPerplexity(delta float64) (tea.Model, tea.Cmd) {
	perplexity := model.settings.Nonlinear.Perplexity + delta
	if perplexity < minPerplexity {
		perplexity = minPerplexity
	}
	if perplexity > maxPerplexity {
		perplexity = maxPerplexity
	}
	if perplexity == model.settings.Nonlinear.Perplexity {
		return model, nil
	}
	model.settings.Nonlinear.Perplexity = perplexity
	if model.settings.Method != projection.MethodTSNE {
		return model, nil
	}
	return model.startProjection()
}

// startProjection cancels any run in flight and starts a new one with the current settings.
func (model Model) startProjection() (tea.Model, tea.Cmd) {
	if model.cancel != nil {
		model.cancel()
	}
	if model.data.Len() == 0 {
		return model, nil
	}

	ctx, cancel := context.WithCancel(context.Background())
	model.cancel = cancel
	model.generation++
	model.projecting = true
	model.progress = progressSample{}
	model.err = nil

	return model, runProjection(ctx, model.generation, model.data.Vectors, model.settings, model.logger)
}

func (model Model) handleProjectionFinished(result projectionFinished) (tea.Model, tea.Cmd) {
	if result.generation != model.generation {
		return model, nil
	}
	model.projecting = false
	if model.cancel != nil {
		model.cancel()
		model.cancel = nil
	}
	model.elapsed = result.elapsed
	if result.err != nil {
		model.err = result.err
		return model, nil
	}

	model.points = result.points
	if model.selectedIndex >= len(model.points) {
		model.selectedIndex = len(model.points) - 1
	}
	return model, nil
}

// handleTextEmbedded appends a freshly embedded text to the dataset and re-projects.
func (model Model) handleTextEmbedded(result textEmbedded) (tea.Model, tea.Cmd) {
	model.embedding = false
	if result.err != nil {
		model.err = result.err
		return model, nil
	}
	if model.data.Dimensions != 0 && len(result.vector) != model.data.Dimensions {
		model.err = fmt.Errorf("embedding has %d dimensions, dataset has %d", len(result.vector), model.data.Dimensions)
		return model, nil
	}

	model.data = appendToDataset(model.data, result.text, result.vector)
	model.vectors32 = append(model.vectors32, result.vector)
	model.selectedIndex = model.data.Len() - 1
	model.inputMode = false
	model.input = ""

	next, projectCommand := model.startProjection()
	if model.store == nil {
		return next, projectCommand
	}
	return next, tea.Batch(projectCommand, storePoint(model.store, result.text, result.vector))
}

// appendToDataset returns a copy of data with one more row, leaving the original intact.
func appendToDataset(data *dataset.Dataset, label string, vector []float32) *dataset.Dataset {
	converted := vecmath.ToFloat64([][]float32{vector})[0]

	labels := make([]string, data.Len(), data.Len()+1)
	for i := range labels {
		labels[i] = data.Label(i)
	}
	metadata := make([]map[string]any, data.Len(), data.Len()+1)
	for i := range metadata {
		metadata[i] = data.Meta(i)
	}

	return &dataset.Dataset{
		Vectors:    append(append([][]float64(nil), data.Vectors...), converted),
		Labels:     append(labels, label),
		Metadata:   append(metadata, map[string]any{"source": "input"}),
		Dimensions: len(converted),
	}
}

// runProjection projects data in a goroutine and streams progress samples and the
// final result back to the program through a channel.
func runProjection(ctx context.Context, generation int, data [][]float64, settings projection.Settings, logger logr.Logger) tea.Cmd {
	return func() tea.Msg {
		updates := make(chan tea.Msg, 1)

		go func() {
			defer close(updates)
			started := time.Now()

			settings.Linear.Logger = logger
			settings.Nonlinear.Logger = logger
			settings.Nonlinear.Progress = func(iteration int, cost float64) {
				select {
				case updates <- projectionProgress{generation: generation, iteration: iteration, cost: cost, updates: updates}:
				case <-ctx.Done():
				}
			}

			points, err := projection.Project(ctx, data, settings)
			finished := projectionFinished{
				generation: generation,
				points:     points,
				elapsed:    time.Since(started),
				err:        err,
			}
			select {
			case updates <- finished:
			case <-ctx.Done():
			}
		}()

		return waitForUpdate(updates)()
	}
}

// waitForUpdate returns a command that blocks until the next projection message.
func waitForUpdate(updates <-chan tea.Msg) tea.Cmd {
	return func() tea.Msg {
		message, ok := <-updates
		if !ok {
			return nil
		}
		return message
	}
}

func embedText(embedder embedding.Embedder, text string) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		vector, err := embedder.Embed(ctx, text)
		return textEmbedded{text: text, vector: vector, err: err}
	}
}

func storePoint(store PointStore, text string, vector []float32) tea.Cmd {
	return func() tea.Msg {
		point := qdrant.Point{ID: uuid.New().String(), Text: text, Vector: vector}
		if err := store.Upsert(context.Background(), []qdrant.Point{point}); err != nil {
			return textEmbedded{err: fmt.Errorf("store %q: %w", text, err)}
		}
		return nil
	}
}
