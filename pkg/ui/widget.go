// Package ui holds the few ebiten widgets the graphical viewer needs:
// sliders, checkboxes and buttons stacked in a scrollable side panel.
package ui

import "github.com/hajimehoshi/ebiten/v2"

// Widget is anything the Panel can stack.
type Widget interface {
	Update()
	Draw(screen *ebiten.Image)
	Height() float64
	moveTo(y float64)
}

// hover reports whether the cursor is inside the box.
func hover(x, y, w, h float64) bool {
	mx, my := ebiten.CursorPosition()
	return inside(float64(mx), float64(my), x, y, w, h)
}

func inside(px, py, x, y, w, h float64) bool {
	return px >= x && px <= x+w && py >= y && py <= y+h
}
