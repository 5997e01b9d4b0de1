package ui

import (
	"image/color"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/ebitenutil"
	"github.com/hajimehoshi/ebiten/v2/vector"
)

const (
	titleHeight   = 30.0
	sectionHeight = 25.0
	margin        = 10.0
)

// Panel stacks widgets in collapsible sections inside a scrollable box.
type Panel struct {
	X, Y          float64
	Width, Height float64
	Title         string
	ScrollOffset  float64

	// Styling
	BGColor      color.RGBA
	BorderColor  color.RGBA
	SectionColor color.RGBA

	sections []*Section
	pressed  bool // a header toggle already fired for the current press
}

// Section is a titled group of widgets; clicking its header collapses it.
type Section struct {
	Title     string
	Collapsed bool
	Widgets   []Widget

	headerY float64 // screen position of the header after the last layout
	visible bool
}

// NewPanel creates an empty panel.
func NewPanel(x, y, width, height float64, title string) *Panel {
	return &Panel{
		X:            x,
		Y:            y,
		Width:        width,
		Height:       height,
		Title:        title,
		BGColor:      color.RGBA{R: 40, G: 40, B: 45, A: 230},
		BorderColor:  color.RGBA{R: 100, G: 100, B: 110, A: 255},
		SectionColor: color.RGBA{R: 60, G: 60, B: 70, A: 255},
	}
}

// AddSection starts a new section; the following Add calls fill it.
func (p *Panel) AddSection(title string) *Section {
	s := &Section{Title: title}
	p.sections = append(p.sections, s)
	return s
}

func (p *Panel) current() *Section {
	if len(p.sections) == 0 {
		p.AddSection("")
	}
	return p.sections[len(p.sections)-1]
}

// AddSlider adds a slider to the current section.
func (p *Panel) AddSlider(label string, min, max, value float64) *Slider {
	s := NewSlider(0, 0, p.Width-2*margin, label, min, max, value)
	p.current().Widgets = append(p.current().Widgets, s)
	return s
}

// AddCheckbox adds a checkbox to the current section.
func (p *Panel) AddCheckbox(label string, value bool) *Checkbox {
	c := NewCheckbox(0, 0, label, value)
	p.current().Widgets = append(p.current().Widgets, c)
	return c
}

// AddButton adds a full width button to the current section.
func (p *Panel) AddButton(label string, onClick func()) *Button {
	b := NewButton(0, 0, p.Width-2*margin, 22, label, onClick)
	p.current().Widgets = append(p.current().Widgets, b)
	return b
}

// Contains reports whether the cursor is over the panel.
func (p *Panel) Contains(in Input) bool {
	return inside(in, p.X, p.Y, p.Width, p.Height)
}

// Update scrolls, toggles sections and forwards the input to the visible widgets.
func (p *Panel) Update(in Input) {
	if in.WheelY != 0 && p.Contains(in) {
		p.ScrollOffset -= in.WheelY * 20
		maxScroll := max(p.contentHeight()-p.Height+40, 0)
		p.ScrollOffset = max(0, min(p.ScrollOffset, maxScroll))
	}

	p.layout()

	toggled := false
	for _, s := range p.sections {
		if s.Title != "" && s.visible && in.Pressed && !p.pressed &&
			inside(in, p.X+5, s.headerY, p.Width-10, sectionHeight-5) {
			s.Collapsed = !s.Collapsed
			toggled = true
		}
	}
	p.pressed = in.Pressed
	if toggled {
		p.layout()
		return
	}

	for _, s := range p.sections {
		if s.Collapsed {
			continue
		}
		for _, w := range s.Widgets {
			if p.isVisible(widgetTop(w), w.Height()) {
				w.Update(in)
			}
		}
	}
}

// layout places every widget for the current scroll offset.
func (p *Panel) layout() {
	y := p.Y + titleHeight - p.ScrollOffset
	for _, s := range p.sections {
		if s.Title != "" {
			s.headerY = y
			s.visible = p.isVisible(y, sectionHeight)
			y += sectionHeight
		}
		if s.Collapsed {
			continue
		}
		for _, w := range s.Widgets {
			w.MoveTo(p.X+margin, y)
			y += w.Height()
		}
	}
}

func (p *Panel) isVisible(y, h float64) bool {
	return y >= p.Y+titleHeight-5 && y+h <= p.Y+p.Height
}

func (p *Panel) contentHeight() float64 {
	h := titleHeight
	for _, s := range p.sections {
		if s.Title != "" {
			h += sectionHeight
		}
		if s.Collapsed {
			continue
		}
		for _, w := range s.Widgets {
			h += w.Height()
		}
	}
	return h
}

// Draw renders the panel and all widgets inside its bounds.
func (p *Panel) Draw(screen *ebiten.Image) {
	vector.FillRect(screen,
		float32(p.X), float32(p.Y),
		float32(p.Width), float32(p.Height),
		p.BGColor, true)
	vector.StrokeRect(screen,
		float32(p.X), float32(p.Y),
		float32(p.Width), float32(p.Height),
		2, p.BorderColor, true)

	ebitenutil.DebugPrintAt(screen, p.Title, int(p.X+margin), int(p.Y+5))

	p.layout()
	for _, s := range p.sections {
		if s.Title != "" && s.visible {
			vector.FillRect(screen,
				float32(p.X+5), float32(s.headerY),
				float32(p.Width-10), sectionHeight-5,
				p.SectionColor, true)
			marker := "- "
			if s.Collapsed {
				marker = "+ "
			}
			ebitenutil.DebugPrintAt(screen, marker+s.Title, int(p.X+margin), int(s.headerY+2))
		}
		if s.Collapsed {
			continue
		}
		for _, w := range s.Widgets {
			// Only draw if visible
			if y := widgetTop(w); p.isVisible(y, w.Height()) {
				w.Draw(screen)
			}
		}
	}
}

func widgetTop(w Widget) float64 {
	switch w := w.(type) {
	case *Slider:
		return w.Y - 16
	case *Checkbox:
		return w.Y
	case *Button:
		return w.Y
	}
	return 0
}
