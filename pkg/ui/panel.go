package ui

import (
	"image/color"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/ebitenutil"
	"github.com/hajimehoshi/ebiten/v2/vector"
)

const (
	titleHeight   = 30
	sectionHeight = 25
)

// buttonWidget wraps Button, whose Height field hides the Widget method.
type buttonWidget struct {
	*Button
}

func (b buttonWidget) Height() float64  { return b.Button.Height + 10 }
func (b buttonWidget) moveTo(y float64) { b.Button.Y = y }
func (b buttonWidget) labelled() bool    { return false }
func (b buttonWidget) label() string     { return "" }

type panelEntry interface {
	Widget
	labelled() bool
	label() string
}

type section struct {
	title string
	start int // first entry index
}

// Panel stacks widgets under section headers in a scrollable column.
type Panel struct {
	X, Y          float64
	Width, Height float64
	Title         string
	scroll        float64

	entries  []panelEntry
	sections []section

	BGColor     color.RGBA
	BorderColor color.RGBA
}

func NewPanel(x, y, width, height float64, title string) *Panel {
	return &Panel{
		X:           x,
		Y:           y,
		Width:       width,
		Height:      height,
		Title:       title,
		BGColor:     color.RGBA{R: 40, G: 40, B: 45, A: 230},
		BorderColor: color.RGBA{R: 100, G: 100, B: 110, A: 255},
	}
}

// AddSection starts a new header; widgets added next belong to it.
func (p *Panel) AddSection(title string) {
	p.sections = append(p.sections, section{title: title, start: len(p.entries)})
}

func (p *Panel) AddSlider(label string, min, max, value float64, onChange func(float64)) *Slider {
	s := NewSlider(p.X+10, 0, p.Width-20, label, min, max, value)
	s.OnChange = onChange
	p.add(s)
	return s
}

func (p *Panel) AddCheckbox(label string, value bool, onChange func(bool)) *Checkbox {
	c := NewCheckbox(p.X+10, 0, label, value)
	c.OnChange = onChange
	p.add(c)
	return c
}

func (p *Panel) AddButton(label string, onClick func()) *Button {
	b := NewButton(p.X+10, 0, p.Width-20, 22, label, onClick)
	p.add(buttonWidget{b})
	return b
}

func (p *Panel) add(e panelEntry) {
	p.entries = append(p.entries, e)
	p.layout()
}

// layout places every widget for the current scroll offset.
// It returns the full content height.
func (p *Panel) layout() float64 {
	y := p.Y + titleHeight - p.scroll
	next := 0
	for i, e := range p.entries {
		for next < len(p.sections) && p.sections[next].start == i {
			y += sectionHeight
			next++
		}
		if e.labelled() {
			e.moveTo(y + 15)
		} else {
			e.moveTo(y)
		}
		y += e.Height()
	}
	y += float64(len(p.sections)-next) * sectionHeight
	return y + p.scroll - p.Y
}

// Contains reports whether the cursor is over the panel, so hosts can
// ignore clicks meant for the widgets.
func (p *Panel) Contains() bool {
	return hover(p.X, p.Y, p.Width, p.Height)
}

func (p *Panel) Update() {
	if _, dy := ebiten.Wheel(); dy != 0 && p.Contains() {
		p.scroll -= dy * 20
		maxScroll := max(p.layout()-p.Height+10, 0)
		p.scroll = max(0, min(p.scroll, maxScroll))
	}
	p.layout()
	for _, e := range p.entries {
		if p.visible(e) {
			e.Update()
		}
	}
}

func (p *Panel) visible(e panelEntry) bool {
	var y float64
	switch w := e.(type) {
	case *Slider:
		y = w.Y
	case *Checkbox:
		y = w.Y
	case buttonWidget:
		y = w.Y
	}
	return y >= p.Y+titleHeight-5 && y <= p.Y+p.Height-10
}

func (p *Panel) Draw(screen *ebiten.Image) {
	vector.FillRect(screen, float32(p.X), float32(p.Y), float32(p.Width), float32(p.Height), p.BGColor, true)
	vector.StrokeRect(screen, float32(p.X), float32(p.Y), float32(p.Width), float32(p.Height), 2, p.BorderColor, true)
	ebitenutil.DebugPrintAt(screen, p.Title, int(p.X+10), int(p.Y+5))

	y := p.Y + titleHeight - p.scroll
	next := 0
	for i, e := range p.entries {
		for next < len(p.sections) && p.sections[next].start == i {
			if y >= p.Y+titleHeight-5 && y <= p.Y+p.Height-20 {
				vector.FillRect(screen, float32(p.X+5), float32(y), float32(p.Width-10), 20,
					color.RGBA{R: 60, G: 60, B: 70, A: 255}, true)
				ebitenutil.DebugPrintAt(screen, p.sections[next].title, int(p.X+10), int(y+3))
			}
			y += sectionHeight
			next++
		}
		if p.visible(e) {
			if e.labelled() {
				ebitenutil.DebugPrintAt(screen, e.label(), int(p.X+10), int(y))
			}
			e.Draw(screen)
		}
		y += e.Height()
	}
}
