// Package tui is an interactive terminal explorer. Each terminal cell shows
// two vertically stacked pixels using the upper half block, so a W x H
// terminal area is evaluated at W x 2H.
package tui

import (
	"context"
	"image"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"seehuhn.de/go/geom/vec"

	mandel "github.com/marben/mandelview"
	"github.com/marben/mandelview/internal/logging"
	"github.com/marben/mandelview/internal/palette"
	"github.com/marben/mandelview/internal/view"
)

// statusLines is the number of terminal rows below the image.
const statusLines = 2

// resultMsg carries a finished evaluation back to Update.
type resultMsg struct {
	gen     uint64
	matrix  *mandel.Matrix
	err     error
	elapsed time.Duration
}

// Model is the bubbletea model of the explorer.
type Model struct {
	state  view.State
	eval   mandel.Evaluator
	logger *logging.Logger
	keys   keyMap
	help   help.Model

	// gen increments on every domain change; results of older generations
	// are dropped.
	gen    uint64
	cancel context.CancelFunc

	matrix  *mandel.Matrix
	img     *image.RGBA
	pending bool
	err     error
	elapsed time.Duration

	width, height int
}

// NewModel creates the explorer over state, evaluating with eval.
func NewModel(state view.State, eval mandel.Evaluator, logger *logging.Logger) Model {
	if logger == nil {
		logger = logging.NopLogger()
	}
	return Model{
		state:  state,
		eval:   eval,
		logger: logger.WithComponent("tui"),
		keys:   defaultKeyMap(),
		help:   help.New(),
	}
}

// State returns the current view state.
func (m Model) State() view.State { return m.state }

func (m Model) Init() tea.Cmd {
	// the first evaluation waits for the window size
	return nil
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.help.Width = msg.Width
		cols, rows := m.imageCells()
		return m.reduce(view.Resize{W: cols, H: rows * 2}, m.matrix == nil)

	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.MouseMsg:
		return m.handleMouse(msg)

	case resultMsg:
		return m.handleResult(msg), nil
	}
	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Quit):
		if m.cancel != nil {
			m.cancel()
		}
		return m, tea.Quit
	case key.Matches(msg, m.keys.Help):
		m.help.ShowAll = !m.help.ShowAll
		cols, rows := m.imageCells()
		return m.reduce(view.Resize{W: cols, H: rows * 2}, false)
	}

	for _, a := range m.keys.actions() {
		if key.Matches(msg, a.binding) {
			next, cmd := m.reduce(view.KeyAction{Action: a.action}, false)
			if a.action == view.ActionNextScheme {
				nm := next.(Model)
				nm.repaint()
				return nm, cmd
			}
			return next, cmd
		}
	}
	return m, nil
}

func (m Model) handleMouse(msg tea.MouseMsg) (tea.Model, tea.Cmd) {
	at := m.cellToScreen(msg.X, msg.Y)

	switch {
	case msg.Button == tea.MouseButtonWheelUp:
		return m.reduce(view.Scroll{Delta: 1, At: at}, false)
	case msg.Button == tea.MouseButtonWheelDown:
		return m.reduce(view.Scroll{Delta: -1, At: at}, false)
	}

	switch msg.Action {
	case tea.MouseActionPress:
		kind := view.GesturePan
		if msg.Button == tea.MouseButtonRight || msg.Shift {
			kind = view.GestureSelect
		}
		return m.reduce(view.PointerDown{At: at, Kind: kind}, false)
	case tea.MouseActionMotion:
		return m.reduce(view.PointerMove{At: at}, false)
	case tea.MouseActionRelease:
		return m.reduce(view.PointerUp{At: at}, false)
	}
	return m, nil
}

// cellToScreen maps the centre of a terminal cell to view screen space. A
// cell spans two pixel rows, so its centre is on the boundary between them.
func (m Model) cellToScreen(col, row int) vec.Vec2 {
	return view.FromPixel(float64(col)+0.5, float64(row)*2+1, m.state.Window)
}

// reduce applies e and starts an evaluation when the domain changed or
// force is set.
func (m Model) reduce(e view.Event, force bool) (tea.Model, tea.Cmd) {
	next, changed := view.Reduce(m.state, e)
	m.state = next
	if !changed && !force {
		return m, nil
	}
	return m, m.startEvaluation()
}

func (m *Model) startEvaluation() tea.Cmd {
	if m.cancel != nil {
		m.cancel()
	}
	ctx, cancel := context.WithCancel(context.Background())
	m.cancel = cancel
	m.gen++
	m.pending = true

	gen, d, eval := m.gen, m.state.Domain, m.eval
	m.logger.Debug("evaluation requested", "generation", gen, "region", d.Region.String(), "max_iter", d.MaxIter)
	return func() tea.Msg {
		start := time.Now()
		mat, err := eval.Evaluate(ctx, d)
		return resultMsg{gen: gen, matrix: mat, err: err, elapsed: time.Since(start)}
	}
}

func (m Model) handleResult(msg resultMsg) Model {
	if msg.gen != m.gen {
		m.logger.Debug("stale result dropped", "generation", msg.gen, "current", m.gen)
		return m
	}
	m.pending = false
	m.elapsed = msg.elapsed
	if msg.err != nil {
		// keep showing the last good frame
		m.err = msg.err
		m.logger.Warn("evaluation failed", "error", msg.err)
		return m
	}
	m.err = nil
	m.matrix = msg.matrix
	m.repaint()
	return m
}

func (m *Model) repaint() {
	if m.matrix == nil {
		return
	}
	m.img = palette.Paint(m.matrix, m.state.Scheme.Current().Color)
}

// imageCells is the terminal area available to the image.
func (m Model) imageCells() (cols, rows int) {
	reserved := statusLines
	if m.help.ShowAll {
		reserved += len(m.keys.FullHelp()[0]) - 1
	}
	return max(1, m.width), max(1, m.height-reserved)
}

// Run starts the explorer and blocks until the user quits or ctx ends.
func Run(ctx context.Context, state view.State, eval mandel.Evaluator, logger *logging.Logger) (view.State, error) {
	p := tea.NewProgram(
		NewModel(state, eval, logger),
		tea.WithAltScreen(),
		tea.WithMouseAllMotion(),
		tea.WithContext(ctx),
	)
	final, err := p.Run()
	if fm, ok := final.(Model); ok {
		state = fm.state
	}
	return state, err
}
