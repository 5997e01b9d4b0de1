package telemetry

import (
	"time"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// Window keeps the tick durations of the last size ticks in a ring buffer.
type Window struct {
	size        int
	samples     []float64 // microseconds
	writeIndex  int
	sampleCount int
	total       uint64
}

// NewWindow creates a rolling window of size ticks (60 when size < 1).
func NewWindow(size int) *Window {
	if size < 1 {
		size = 60
	}
	return &Window{
		size:    size,
		samples: make([]float64, size),
	}
}

// Add records the duration of one tick.
func (w *Window) Add(d time.Duration) {
	w.samples[w.writeIndex] = float64(d.Microseconds())
	w.writeIndex = (w.writeIndex + 1) % w.size
	if w.sampleCount < w.size {
		w.sampleCount++
	}
	w.total++
}

// Count returns how many samples the window currently holds.
func (w *Window) Count() int { return w.sampleCount }

// Total returns how many ticks were ever added.
func (w *Window) Total() uint64 { return w.total }

// Mean returns the average tick duration over the window.
func (w *Window) Mean() time.Duration {
	if w.sampleCount == 0 {
		return 0
	}
	return time.Duration(stat.Mean(w.samples[:w.sampleCount], nil)) * time.Microsecond
}

// Max returns the slowest tick in the window.
func (w *Window) Max() time.Duration {
	if w.sampleCount == 0 {
		return 0
	}
	return time.Duration(floats.Max(w.samples[:w.sampleCount])) * time.Microsecond
}

// TicksPerSecond is the throughput the mean tick duration allows.
func (w *Window) TicksPerSecond() float64 {
	mean := w.Mean()
	if mean <= 0 {
		return 0
	}
	return float64(time.Second) / float64(mean)
}

// Reset empties the window, keeping Total.
func (w *Window) Reset() {
	w.writeIndex = 0
	w.sampleCount = 0
}
