// Package render draws simulation frames and landscape params on a tcell screen
package render

import (
	"fmt"
	"math"

	"github.com/gdamore/tcell/v2"

	"github.com/lixenwraith/sensorloop/game"
	"github.com/lixenwraith/sensorloop/physics"
	"github.com/lixenwraith/sensorloop/synth"
)

// Banner texts
const (
	BannerStartLight = "Change light level to start"
	BannerStartTilt  = "Tilt to start"
	BannerGameOver   = "Game Over! Press SPACE to restart"
)

var (
	styleDefault  = tcell.StyleDefault
	styleEntity   = tcell.StyleDefault.Foreground(tcell.ColorGreen)
	styleObstacle = tcell.StyleDefault.Foreground(tcell.ColorWhite)
	styleGround   = tcell.StyleDefault.Foreground(tcell.ColorGray)
	styleBanner   = tcell.StyleDefault.Foreground(tcell.ColorYellow).Bold(true)
	styleOver     = tcell.StyleDefault.Foreground(tcell.ColorRed).Bold(true)
	styleStatus   = tcell.StyleDefault.Reverse(true)
	styleVoice    = tcell.StyleDefault.Foreground(tcell.ColorAqua)
)

const (
	glyphEntity   = '█'
	glyphObstacle = '▓'
	glyphGround   = '▔'
	glyphBar      = '■'
)

// Renderer owns no state besides the screen; every draw is a full repaint
type Renderer struct {
	screen tcell.Screen
}

// New wraps an initialized screen
func New(screen tcell.Screen) *Renderer {
	return &Renderer{screen: screen}
}

// NewTerminal opens and initializes the controlling terminal
func NewTerminal() (*Renderer, error) {
	screen, err := tcell.NewScreen()
	if err != nil {
		return nil, fmt.Errorf("open terminal: %w", err)
	}
	if err := screen.Init(); err != nil {
		return nil, fmt.Errorf("init terminal: %w", err)
	}
	screen.HideCursor()
	return New(screen), nil
}

// Screen returns the underlying screen
func (r *Renderer) Screen() tcell.Screen { return r.screen }

// Close restores the terminal
func (r *Renderer) Close() { r.screen.Fini() }

// viewport maps world units to cells; the bottom row is reserved for the status line
type viewport struct {
	cols, rows int
	sx, sy     float64
}

func newViewport(screen tcell.Screen, worldW, worldH float64) viewport {
	cols, rows := screen.Size()
	rows-- // status line
	v := viewport{cols: cols, rows: max(rows, 0)}
	if worldW > 0 && worldH > 0 {
		v.sx = float64(cols) / worldW
		v.sy = float64(v.rows) / worldH
	}
	return v
}

// cells converts a world rect into a half-open cell range, never empty for a visible rect
func (v viewport) cells(rc physics.Rect) (x0, y0, x1, y1 int) {
	x0 = int(math.Floor(rc.X * v.sx))
	y0 = int(math.Floor(rc.Y * v.sy))
	x1 = max(int(math.Ceil(rc.Right()*v.sx)), x0+1)
	y1 = max(int(math.Ceil(rc.Bottom()*v.sy)), y0+1)
	return max(x0, 0), max(y0, 0), min(x1, v.cols), min(y1, v.rows)
}

func (r *Renderer) fill(v viewport, rc physics.Rect, ch rune, style tcell.Style) {
	x0, y0, x1, y1 := v.cells(rc)
	for y := y0; y < y1; y++ {
		for x := x0; x < x1; x++ {
			r.screen.SetContent(x, y, ch, nil, style)
		}
	}
}

func (r *Renderer) text(x, y int, s string, style tcell.Style) {
	for _, ch := range s {
		r.screen.SetContent(x, y, ch, nil, style)
		x++
	}
}

func (r *Renderer) centered(v viewport, y int, s string, style tcell.Style) {
	x := max((v.cols-len([]rune(s)))/2, 0)
	r.text(x, y, s, style)
}

func (r *Renderer) statusLine(status string) {
	cols, rows := r.screen.Size()
	if rows == 0 {
		return
	}
	y := rows - 1
	for x := 0; x < cols; x++ {
		r.screen.SetContent(x, y, ' ', nil, styleStatus)
	}
	r.text(0, y, status, styleStatus)
}

// DrawFrame paints one simulation frame and the status line
func (r *Renderer) DrawFrame(f game.Frame, status string) {
	r.screen.Clear()
	v := newViewport(r.screen, f.Width, f.Height)

	if f.Variant == game.VariantDino {
		gy := int(f.Ground * v.sy)
		if gy >= 0 && gy < v.rows {
			for x := 0; x < v.cols; x++ {
				r.screen.SetContent(x, gy, glyphGround, nil, styleGround)
			}
		}
	}
	for _, o := range f.Obstacles {
		r.fill(v, o, glyphObstacle, styleObstacle)
	}
	r.fill(v, f.Entity, glyphEntity, styleEntity)

	r.text(1, 0, fmt.Sprintf("Score: %d", f.Score), styleDefault)

	switch f.Lifecycle {
	case game.NotStarted:
		msg := BannerStartLight
		if f.Variant == game.VariantFlappy {
			msg = BannerStartTilt
		}
		r.centered(v, v.rows/2, msg, styleBanner)
	case game.Over:
		r.centered(v, v.rows/2, BannerGameOver, styleOver)
	}

	r.statusLine(status)
	r.screen.Show()
}

// DrawLandscape paints one bar per voice showing frequency and a shared amplitude meter
func (r *Renderer) DrawLandscape(p synth.Params, status string) {
	r.screen.Clear()
	cols, _ := r.screen.Size()
	width := max(cols-20, 1)

	r.text(1, 0, "Sound landscape", styleBanner)
	for i, f := range p.Frequencies {
		y := 2 + i*2
		r.text(1, y, fmt.Sprintf("f%d %7.1f Hz", i+1, f), styleDefault)
		n := int(math.Min(f/4000, 1) * float64(width))
		for x := 0; x < n; x++ {
			r.screen.SetContent(18+x, y, glyphBar, nil, styleVoice)
		}
	}

	y := 2 + len(p.Frequencies)*2
	r.text(1, y, fmt.Sprintf("amp %6.2f", p.Amplitude), styleDefault)
	for x := 0; x < int(p.Amplitude*float64(width)); x++ {
		r.screen.SetContent(18+x, y, glyphBar, nil, styleEntity)
	}

	r.statusLine(status)
	r.screen.Show()
}
