package ui

import (
	"image/color"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/ebitenutil"
	"github.com/hajimehoshi/ebiten/v2/vector"
)

// Button is a clickable UI button
type Button struct {
	Label         string
	X, Y          float64
	Width, Height float64
	OnClick       func()
	pressed       bool

	BGColor    color.RGBA
	HoverColor color.RGBA
}

func NewButton(x, y, width, height float64, label string, onClick func()) *Button {
	return &Button{
		Label:      label,
		X:          x,
		Y:          y,
		Width:      width,
		Height:     height,
		OnClick:    onClick,
		BGColor:    color.RGBA{R: 80, G: 120, B: 180, A: 255},
		HoverColor: color.RGBA{R: 100, G: 150, B: 220, A: 255},
	}
}

// Update fires OnClick once per press.
func (b *Button) Update() {
	if !ebiten.IsMouseButtonPressed(ebiten.MouseButtonLeft) || !hover(b.X, b.Y, b.Width, b.Height) {
		b.pressed = false
		return
	}
	if !b.pressed && b.OnClick != nil {
		b.OnClick()
	}
	b.pressed = true
}

func (b *Button) Draw(screen *ebiten.Image) {
	bg := b.BGColor
	if hover(b.X, b.Y, b.Width, b.Height) {
		bg = b.HoverColor
	}
	vector.FillRect(screen, float32(b.X), float32(b.Y), float32(b.Width), float32(b.Height), bg, true)
	vector.StrokeRect(screen, float32(b.X), float32(b.Y), float32(b.Width), float32(b.Height),
		2, color.RGBA{R: 200, G: 200, B: 200, A: 255}, true)
	ebitenutil.DebugPrintAt(screen, b.Label, int(b.X+8), int(b.Y+b.Height/2-8))
}
