// Package ui holds the small immediate-mode widgets drawn over the flock.
package ui

import (
	"github.com/hajimehoshi/ebiten/v2"
)

// Input is the pointer state sampled once per frame and shared by every widget,
// so all widgets of a frame agree on where the cursor was.
type Input struct {
	X, Y    float64
	Pressed bool // left button held
	WheelY  float64
}

// ReadInput samples the ebiten cursor, left button and wheel.
func ReadInput() Input {
	mx, my := ebiten.CursorPosition()
	_, dy := ebiten.Wheel()
	return Input{
		X:       float64(mx),
		Y:       float64(my),
		Pressed: ebiten.IsMouseButtonPressed(ebiten.MouseButtonLeft),
		WheelY:  dy,
	}
}

// Widget is implemented by everything a Panel can stack.
type Widget interface {
	Update(in Input)
	Draw(screen *ebiten.Image)
	Height() float64 // vertical space taken in a panel, label included
	MoveTo(x, y float64)
}

func inside(in Input, x, y, w, h float64) bool {
	return in.X >= x && in.X <= x+w && in.Y >= y && in.Y <= y+h
}
