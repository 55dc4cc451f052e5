package render

import (
	"fmt"
	"strings"

	"github.com/gdamore/tcell/v2"

	"github.com/lixenwraith/particles/core"
	"github.com/lixenwraith/particles/engine"
)

// densityGlyphs are indexed by particles per terminal cell, saturating at the last entry
var densityGlyphs = []rune{' ', '·', '∘', '○', '●', '█'}

var statusStyle = tcell.StyleDefault.Background(tcell.ColorDarkSlateGray).Foreground(tcell.ColorWhite)

// Terminal draws a density view of the simulation into a tcell screen
// The bottom row is a status line
type Terminal struct {
	screen tcell.Screen
	raster Raster
	buf    []core.Particle
}

// NewTerminal wraps an initialized screen
func NewTerminal(screen tcell.Screen) *Terminal {
	return &Terminal{screen: screen}
}

// Draw renders the last completed tick and the status text, then shows the screen
func (t *Terminal) Draw(sim *engine.Simulation, status string) {
	w, h := t.screen.Size()
	if w <= 0 || h <= 0 {
		return
	}

	var view engine.View
	t.buf, view = sim.Frame(t.buf)
	ramp := NewSpeedRamp(view)

	t.raster.Resize(w, h-1)
	t.raster.Fill(t.buf, view, ramp)

	for row := 0; row < t.raster.H; row++ {
		for col := 0; col < t.raster.W; col++ {
			i := row*t.raster.W + col
			n := t.raster.Count[i]
			if n == 0 {
				t.screen.SetContent(col, row, ' ', nil, tcell.StyleDefault)
				continue
			}
			glyph := densityGlyphs[min(n, len(densityGlyphs)-1)]
			style := tcell.StyleDefault.Foreground(TcellColor(SpeedColor(t.raster.Speed[i])))
			t.screen.SetContent(col, row, glyph, nil, style)
		}
	}

	t.drawStatus(h-1, w, status)
	t.screen.Show()
}

func (t *Terminal) drawStatus(row, width int, text string) {
	runes := []rune(text)
	for col := 0; col < width; col++ {
		r := ' '
		if col < len(runes) {
			r = runes[col]
		}
		t.screen.SetContent(col, row, r, nil, statusStyle)
	}
}

// StatusLine formats the one-line summary shown under the field
func StatusLine(state string, v engine.View, speed int, last engine.TickStats, tps float64) string {
	var b strings.Builder
	fmt.Fprintf(&b, " %s | step %d | %d particles | speed %d%% | %.0f tps | %d hits",
		state, v.Step, v.Count, speed, tps, last.Collisions)
	if last.Overflow > 0 {
		fmt.Fprintf(&b, " | %d dropped", last.Overflow)
	}
	return b.String()
}
