package warehouse

import (
	"sync"
	"time"
)

const (
	flashCycles  = 10
	flashStep    = 250 * time.Millisecond
	flashOpacity = 0.85
)

// FlashFrame is one rendered step of the new-order alert.
type FlashFrame struct {
	Visible bool
	Opacity float64
	Cycle   int
}

// FlashAlert pulses a full-screen overlay when a new order arrives. Each
// cycle fades in to 0.85 and back out; after the last cycle the overlay is
// hidden. Triggering while a pulse is running restarts it.
type FlashAlert struct {
	mu      sync.Mutex
	step    time.Duration
	cycles  int
	render  func(FlashFrame)
	frame   FlashFrame
	gen     uint64
	stopped chan struct{}
}

// NewFlashAlert returns an alert advancing one fade every step. A zero step
// uses 250ms. render may be nil.
func NewFlashAlert(step time.Duration, render func(FlashFrame)) *FlashAlert {
	if step <= 0 {
		step = flashStep
	}
	return &FlashAlert{
		step:    step,
		cycles:  flashCycles,
		render:  render,
		stopped: closedChan(),
	}
}

func (f *FlashAlert) Trigger() {
	f.mu.Lock()
	f.gen++
	gen := f.gen
	done := make(chan struct{})
	f.stopped = done
	f.frame = FlashFrame{Visible: true}
	f.emit()
	f.mu.Unlock()

	go f.run(gen, done)
}

// Stop hides the overlay and cancels a running pulse.
func (f *FlashAlert) Stop() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.gen++
	if f.frame.Visible {
		f.frame = FlashFrame{}
		f.emit()
	}
}

func (f *FlashAlert) Frame() FlashFrame {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.frame
}

func (f *FlashAlert) Visible() bool {
	return f.Frame().Visible
}

// Done returns a channel closed when the most recent pulse finishes or is
// superseded.
func (f *FlashAlert) Done() <-chan struct{} {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.stopped
}

func (f *FlashAlert) run(gen uint64, done chan struct{}) {
	defer close(done)

	timer := time.NewTimer(f.step)
	defer timer.Stop()

	for cycle := 1; cycle <= f.cycles; cycle++ {
		for _, opacity := range []float64{flashOpacity, 0} {
			<-timer.C
			if !f.advance(gen, FlashFrame{Visible: true, Opacity: opacity, Cycle: cycle}) {
				return
			}
			timer.Reset(f.step)
		}
	}

	f.advance(gen, FlashFrame{})
}

// advance applies frame if gen is still the current pulse.
func (f *FlashAlert) advance(gen uint64, frame FlashFrame) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.gen != gen {
		return false
	}
	f.frame = frame
	f.emit()
	return true
}

// emit must be called with mu held.
func (f *FlashAlert) emit() {
	if f.render != nil {
		f.render(f.frame)
	}
}

func closedChan() chan struct{} {
	ch := make(chan struct{})
	close(ch)
	return ch
}
