package ui

import (
	"fmt"
	"image/color"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/ebitenutil"
	"github.com/hajimehoshi/ebiten/v2/vector"
)

// Slider edits a float between Min and Max by dragging.
type Slider struct {
	Label    string
	Value    float64
	Min, Max float64
	X, Y     float64
	W, H     float64
	OnChange func(v float64)
}

func NewSlider(x, y, w float64, label string, min, max, value float64) *Slider {
	s := &Slider{Label: label, Min: min, Max: max, X: x, Y: y, W: w, H: 10}
	s.Value = s.clamp(value)
	return s
}

func (s *Slider) clamp(v float64) float64 {
	return max(s.Min, min(s.Max, v))
}

// valueAt maps a cursor abscissa onto [Min, Max].
func (s *Slider) valueAt(mx float64) float64 {
	if s.W <= 0 {
		return s.Min
	}
	return s.clamp(s.Min + (mx-s.X)/s.W*(s.Max-s.Min))
}

// Update checks for mouse interaction
func (s *Slider) Update() {
	if !ebiten.IsMouseButtonPressed(ebiten.MouseButtonLeft) || !hover(s.X, s.Y, s.W, s.H) {
		return
	}
	mx, _ := ebiten.CursorPosition()
	if v := s.valueAt(float64(mx)); v != s.Value {
		s.Value = v
		if s.OnChange != nil {
			s.OnChange(v)
		}
	}
}

func (s *Slider) Draw(screen *ebiten.Image) {
	vector.FillRect(screen, float32(s.X), float32(s.Y), float32(s.W), float32(s.H),
		color.RGBA{R: 70, G: 70, B: 80, A: 255}, true)
	fill := 0.0
	if s.Max > s.Min {
		fill = (s.Value - s.Min) / (s.Max - s.Min) * s.W
	}
	vector.FillRect(screen, float32(s.X), float32(s.Y), float32(fill), float32(s.H),
		color.RGBA{R: 100, G: 160, B: 230, A: 255}, true)
	ebitenutil.DebugPrintAt(screen, fmt.Sprintf("%.4g", s.Value), int(s.X+s.W-50), int(s.Y-15))
}

func (s *Slider) Height() float64 { return s.H + 25 } // bar + label line

func (s *Slider) moveTo(y float64) { s.Y = y }

func (s *Slider) labelled() bool { return true }
func (s *Slider) label() string  { return s.Label }
