package tui

import (
	"github.com/charmbracelet/bubbles/key"

	"github.com/marben/mandelview/internal/view"
)

type keyMap struct {
	Up      key.Binding
	Down    key.Binding
	Left    key.Binding
	Right   key.Binding
	ZoomIn  key.Binding
	ZoomOut key.Binding
	More    key.Binding
	Fewer   key.Binding
	Scheme  key.Binding
	Reset   key.Binding
	Help    key.Binding
	Quit    key.Binding
}

func defaultKeyMap() keyMap {
	return keyMap{
		Up:      key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("↑/k", "up")),
		Down:    key.NewBinding(key.WithKeys("down", "j"), key.WithHelp("↓/j", "down")),
		Left:    key.NewBinding(key.WithKeys("left", "h"), key.WithHelp("←/h", "left")),
		Right:   key.NewBinding(key.WithKeys("right", "l"), key.WithHelp("→/l", "right")),
		ZoomIn:  key.NewBinding(key.WithKeys("+", "="), key.WithHelp("+", "zoom in")),
		ZoomOut: key.NewBinding(key.WithKeys("-", "_"), key.WithHelp("-", "zoom out")),
		More:    key.NewBinding(key.WithKeys("."), key.WithHelp(".", "more iterations")),
		Fewer:   key.NewBinding(key.WithKeys(","), key.WithHelp(",", "fewer iterations")),
		Scheme:  key.NewBinding(key.WithKeys("c"), key.WithHelp("c", "colours")),
		Reset:   key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "reset")),
		Help:    key.NewBinding(key.WithKeys("?"), key.WithHelp("?", "help")),
		Quit:    key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
	}
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.ZoomIn, k.ZoomOut, k.Scheme, k.Reset, k.Help, k.Quit}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Up, k.Down, k.Left, k.Right},
		{k.ZoomIn, k.ZoomOut, k.More, k.Fewer},
		{k.Scheme, k.Reset, k.Help, k.Quit},
	}
}

// actions pairs bindings with the view command they trigger.
func (k keyMap) actions() []struct {
	binding key.Binding
	action  view.Action
} {
	return []struct {
		binding key.Binding
		action  view.Action
	}{
		{k.Up, view.ActionPanUp},
		{k.Down, view.ActionPanDown},
		{k.Left, view.ActionPanLeft},
		{k.Right, view.ActionPanRight},
		{k.ZoomIn, view.ActionZoomIn},
		{k.ZoomOut, view.ActionZoomOut},
		{k.More, view.ActionMoreIterations},
		{k.Fewer, view.ActionFewerIterations},
		{k.Scheme, view.ActionNextScheme},
		{k.Reset, view.ActionReset},
	}
}
