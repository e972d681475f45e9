package tui

import (
	"fmt"
	"image/color"
	"math"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/marben/mandelview/internal/export"
	"github.com/marben/mandelview/internal/view"
)

const upperHalfBlock = "▀"

var (
	statusStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#9CA3AF"))
	busyStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("#F59E0B"))
	errorStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("#EF4444")).Bold(true)
	selectionStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#FFFFFF")).Background(lipgloss.Color("#000000"))
)

func hex(c color.RGBA) lipgloss.Color {
	return lipgloss.Color(fmt.Sprintf("#%02X%02X%02X", c.R, c.G, c.B))
}

func (m Model) View() string {
	if m.width == 0 {
		return "initialising..."
	}
	var sb strings.Builder
	m.renderImage(&sb)
	sb.WriteString(m.renderStatus())
	sb.WriteByte('\n')
	sb.WriteString(m.help.View(m.keys))
	return sb.String()
}

func (m Model) renderImage(sb *strings.Builder) {
	cols, rows := m.imageCells()
	sel, selecting := m.selectionCells()

	for r := range rows {
		for c := range cols {
			if selecting && sel.onBorder(c, r) {
				sb.WriteString(selectionStyle.Render("·"))
				continue
			}
			if m.img == nil {
				sb.WriteByte(' ')
				continue
			}
			b := m.img.Bounds()
			top, bottom := 2*r, 2*r+1
			if c >= b.Dx() || top >= b.Dy() {
				sb.WriteByte(' ')
				continue
			}
			style := lipgloss.NewStyle().Foreground(hex(m.img.RGBAAt(c, top)))
			if bottom < b.Dy() {
				style = style.Background(hex(m.img.RGBAAt(c, bottom)))
			}
			sb.WriteString(style.Render(upperHalfBlock))
		}
		sb.WriteByte('\n')
	}
}

func (m Model) renderStatus() string {
	s := m.state
	cur := s.CursorDomain()
	parts := append(export.Caption(s.Domain, s.Precision),
		fmt.Sprintf("@ %.*f, %.*f", s.Precision, cur.X, s.Precision, cur.Y),
		s.Scheme.Current().Name,
	)
	line := statusStyle.Render(strings.Join(parts, " | "))

	switch {
	case m.pending:
		line += " " + busyStyle.Render("rendering...")
	case m.err != nil:
		line += " " + errorStyle.Render(m.err.Error())
	case m.elapsed > 0:
		line += " " + statusStyle.Render(fmt.Sprintf("%dms", m.elapsed.Milliseconds()))
	}
	return line
}

// cellRect is a rectangle of terminal cells, inclusive on both ends.
type cellRect struct {
	c0, r0, c1, r1 int
}

func (r cellRect) onBorder(c, row int) bool {
	inside := c >= r.c0 && c <= r.c1 && row >= r.r0 && row <= r.r1
	return inside && (c == r.c0 || c == r.c1 || row == r.r0 || row == r.r1)
}

// selectionCells returns the cells covered by an active rectangle selection.
func (m Model) selectionCells() (cellRect, bool) {
	g := m.state.Gesture
	if !g.Active || g.Kind != view.GestureSelect {
		return cellRect{}, false
	}
	x0, y0 := view.ToPixel(g.Start, m.state.Window)
	x1, y1 := view.ToPixel(g.End, m.state.Window)
	cell := func(px, py float64) (int, int) {
		return int(math.Floor(px)), int(math.Floor(py / 2))
	}
	c0, r0 := cell(min(x0, x1), min(y0, y1))
	c1, r1 := cell(max(x0, x1), max(y0, y1))
	return cellRect{c0: c0, r0: r0, c1: c1, r1: r1}, true
}
