package tui

import (
	"context"
	"errors"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	mandel "github.com/marben/mandelview"
	"github.com/marben/mandelview/internal/engine"
	"github.com/marben/mandelview/internal/view"
)

type failingEvaluator struct{}

func (failingEvaluator) Evaluate(context.Context, mandel.Domain) (*mandel.Matrix, error) {
	return nil, errors.New("engine on fire")
}

func newTestModel(eval mandel.Evaluator) Model {
	d := mandel.NewDomain(mandel.DefaultRegion, mandel.Resolution{X: 2, Y: 2})
	d.MaxIter = 32
	return NewModel(view.NewState(d, view.DefaultSettings()), eval, nil)
}

// step feeds msg to m and runs the returned command synchronously.
func step(t *testing.T, m Model, msg tea.Msg) Model {
	t.Helper()
	next, cmd := m.Update(msg)
	m = next.(Model)
	if cmd == nil {
		return m
	}
	if res, ok := cmd().(resultMsg); ok {
		next, _ = m.Update(res)
		m = next.(Model)
	}
	return m
}

func TestWindowSizeStartsEvaluation(t *testing.T) {
	m := newTestModel(engine.New(engine.WithWorkers(2)))
	m = step(t, m, tea.WindowSizeMsg{Width: 40, Height: 12})

	if got := m.state.Domain.Resolution; got != (mandel.Resolution{X: 40, Y: 20}) {
		t.Errorf("resolution = %v, want 40x20", got)
	}
	if m.matrix == nil || m.img == nil {
		t.Fatal("no frame after the first window size")
	}
	if m.pending {
		t.Error("still pending after the result arrived")
	}
	if m.matrix.Width() != 40 || m.matrix.Height() != 20 {
		t.Errorf("matrix is %dx%d, want 40x20", m.matrix.Width(), m.matrix.Height())
	}
}

func TestArrowKeyPansUp(t *testing.T) {
	m := newTestModel(engine.New())
	m = step(t, m, tea.WindowSizeMsg{Width: 20, Height: 10})
	before := m.state.Domain.Region

	m = step(t, m, tea.KeyMsg{Type: tea.KeyUp})
	after := m.state.Domain.Region
	if !(after.Ymin > before.Ymin) || after.Xmin != before.Xmin {
		t.Errorf("up arrow moved %v -> %v, want +y", before, after)
	}
}

func TestRuneKeys(t *testing.T) {
	m := newTestModel(engine.New())
	m = step(t, m, tea.WindowSizeMsg{Width: 20, Height: 10})

	m = step(t, m, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'.'}})
	if m.state.Domain.MaxIter != 64 {
		t.Errorf("MaxIter after '.' = %d, want 64", m.state.Domain.MaxIter)
	}

	span := m.state.Domain.Region.X().Span()
	m = step(t, m, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'+'}})
	if got := m.state.Domain.Region.X().Span(); got >= span {
		t.Errorf("'+' did not zoom in: span %v -> %v", span, got)
	}

	scheme := m.state.Scheme.Current().Name
	img := m.img
	m = step(t, m, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'c'}})
	if m.state.Scheme.Current().Name == scheme {
		t.Error("'c' did not change the scheme")
	}
	if m.img == img {
		t.Error("scheme change did not repaint")
	}

	m = step(t, m, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'r'}})
	if m.state.Domain.Region != mandel.DefaultRegion {
		t.Errorf("'r' left region at %v", m.state.Domain.Region)
	}
}

func TestStaleResultDropped(t *testing.T) {
	m := newTestModel(engine.New())
	m = step(t, m, tea.WindowSizeMsg{Width: 20, Height: 10})

	next, first := m.Update(tea.KeyMsg{Type: tea.KeyLeft})
	m = next.(Model)
	next, second := m.Update(tea.KeyMsg{Type: tea.KeyLeft})
	m = next.(Model)
	if first == nil || second == nil {
		t.Fatal("pan keys did not start evaluations")
	}

	frame := m.matrix
	next, _ = m.Update(first())
	m = next.(Model)
	if m.matrix != frame {
		t.Error("result of an older generation was applied")
	}
	if !m.pending {
		t.Error("stale result cleared the pending flag")
	}

	next, _ = m.Update(second())
	m = next.(Model)
	if m.matrix == frame || m.pending {
		t.Error("current result was not applied")
	}
}

func TestFailureKeepsLastFrame(t *testing.T) {
	m := newTestModel(engine.New())
	m = step(t, m, tea.WindowSizeMsg{Width: 20, Height: 10})
	frame := m.matrix

	m.eval = failingEvaluator{}
	m = step(t, m, tea.KeyMsg{Type: tea.KeyRight})
	if m.matrix != frame {
		t.Error("failed evaluation replaced the frame")
	}
	if m.err == nil {
		t.Fatal("error not recorded")
	}
	if !strings.Contains(m.View(), "engine on fire") {
		t.Error("error not shown in the status line")
	}
}

func TestMouseWheelZooms(t *testing.T) {
	m := newTestModel(engine.New())
	m = step(t, m, tea.WindowSizeMsg{Width: 20, Height: 10})
	span := m.state.Domain.Region.X().Span()

	m = step(t, m, tea.MouseMsg{X: 5, Y: 2, Button: tea.MouseButtonWheelUp, Action: tea.MouseActionPress})
	if got := m.state.Domain.Region.X().Span(); got >= span {
		t.Errorf("wheel up did not zoom in: %v -> %v", span, got)
	}
}

func TestMouseDragPans(t *testing.T) {
	m := newTestModel(engine.New())
	m = step(t, m, tea.WindowSizeMsg{Width: 20, Height: 10})
	before := m.state.Domain.Region

	m = step(t, m, tea.MouseMsg{X: 10, Y: 4, Button: tea.MouseButtonLeft, Action: tea.MouseActionPress})
	m = step(t, m, tea.MouseMsg{X: 15, Y: 4, Button: tea.MouseButtonLeft, Action: tea.MouseActionMotion})
	if m.state.Domain.Region != before {
		t.Fatal("region moved before release")
	}
	m = step(t, m, tea.MouseMsg{X: 15, Y: 4, Button: tea.MouseButtonLeft, Action: tea.MouseActionRelease})
	if !(m.state.Domain.Region.Xmin < before.Xmin) {
		t.Errorf("dragging right should move the window left: %v -> %v", before, m.state.Domain.Region)
	}
}

func TestRightDragSelects(t *testing.T) {
	m := newTestModel(engine.New())
	m = step(t, m, tea.WindowSizeMsg{Width: 40, Height: 22})
	before := m.state.Domain.Region

	m = step(t, m, tea.MouseMsg{X: 5, Y: 2, Button: tea.MouseButtonRight, Action: tea.MouseActionPress})
	m = step(t, m, tea.MouseMsg{X: 25, Y: 12, Button: tea.MouseButtonRight, Action: tea.MouseActionMotion})
	if _, ok := m.selectionCells(); !ok {
		t.Error("no selection while dragging with the right button")
	}
	if !strings.Contains(m.View(), "·") {
		t.Error("selection border not drawn")
	}
	m = step(t, m, tea.MouseMsg{X: 25, Y: 12, Button: tea.MouseButtonRight, Action: tea.MouseActionRelease})
	after := m.state.Domain.Region
	if !(after.X().Span() < before.X().Span()) || !(after.Y().Span() < before.Y().Span()) {
		t.Errorf("selection did not zoom in: %v -> %v", before, after)
	}
}

func TestQuit(t *testing.T) {
	m := newTestModel(engine.New())
	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'q'}})
	if cmd == nil {
		t.Fatal("q returned no command")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Error("q did not quit")
	}
}

func TestViewStatus(t *testing.T) {
	m := newTestModel(engine.New())
	if got := m.View(); got != "initialising..." {
		t.Errorf("View before size = %q", got)
	}
	m = step(t, m, tea.WindowSizeMsg{Width: 30, Height: 8})
	out := m.View()
	if !strings.Contains(out, "Max iters: 32") {
		t.Error("status line missing iteration cap")
	}
	if !strings.Contains(out, m.state.Scheme.Current().Name) {
		t.Error("status line missing scheme name")
	}
	// image rows + status + help
	if lines := strings.Count(out, "\n") + 1; lines != 8 {
		t.Errorf("View has %d lines, want 8", lines)
	}
}
