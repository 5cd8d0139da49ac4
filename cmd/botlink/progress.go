package main

import (
	"fmt"
	"io"
	"sync"
	"sync/atomic"
	"time"

	"github.com/fatih/color"
)

const (
	progressUpdateInterval = 100 * time.Millisecond
	clearLineSequence      = "\r\033[K"
)

var spinnerFrames = []string{"⠋", "⠙", "⠹", "⠸", "⠼", "⠴", "⠦", "⠧", "⠇", "⠏"}

// ProgressPrinter shows a spinner with the current phase and elapsed or remaining time.
// Setting one of its stop phases through Callback clears the line and stops it.
//
//	p := NewProgressPrinter(os.Stderr, "Connecting to EV3", "Connecting", "Connected")
//	p.Start()
//	defer p.Stop()
type ProgressPrinter struct {
	out        io.Writer
	prefix     string
	phase      atomic.Value
	stopPhases map[string]struct{}
	countdown  time.Duration // zero counts up

	startOnce sync.Once
	stopOnce  sync.Once
	stop      chan struct{}
	done      chan struct{}
}

// NewProgressPrinter creates a printer that shows elapsed time.
func NewProgressPrinter(out io.Writer, prefix, phase string, stopPhases ...string) *ProgressPrinter {
	p := &ProgressPrinter{
		out:        out,
		prefix:     prefix,
		stopPhases: make(map[string]struct{}, len(stopPhases)),
		stop:       make(chan struct{}),
		done:       make(chan struct{}),
	}
	for _, s := range stopPhases {
		p.stopPhases[s] = struct{}{}
	}
	p.phase.Store(phase)
	return p
}

// NewCountdownProgressPrinter creates a printer that counts down from d.
func NewCountdownProgressPrinter(out io.Writer, prefix, phase string, d time.Duration, stopPhases ...string) *ProgressPrinter {
	p := NewProgressPrinter(out, prefix, phase, stopPhases...)
	p.countdown = d
	return p
}

// Start begins drawing. Later calls are no-ops.
func (p *ProgressPrinter) Start() {
	p.startOnce.Do(func() {
		start := time.Now()
		go func() {
			defer close(p.done)
			ticker := time.NewTicker(progressUpdateInterval)
			defer ticker.Stop()

			for frame := 0; ; frame++ {
				phase := p.phase.Load().(string)
				if _, stop := p.stopPhases[phase]; stop {
					return
				}
				p.draw(spinnerFrames[frame%len(spinnerFrames)], phase, p.seconds(time.Since(start)))

				select {
				case <-p.stop:
					return
				case <-ticker.C:
				}
			}
		}()
	})
}

func (p *ProgressPrinter) seconds(elapsed time.Duration) int {
	if p.countdown <= 0 {
		return int(elapsed.Seconds())
	}
	remaining := p.countdown - elapsed
	if remaining <= 0 {
		return 0
	}
	return int(remaining.Seconds() + 0.5)
}

func (p *ProgressPrinter) draw(spinner, phase string, seconds int) {
	cyan := color.New(color.FgCyan).SprintFunc()
	if seconds > 0 {
		fmt.Fprintf(p.out, "%s%s %s (%s %ds)", clearLineSequence, cyan(spinner), p.prefix, phase, seconds)
		return
	}
	fmt.Fprintf(p.out, "%s%s %s (%s...)", clearLineSequence, cyan(spinner), p.prefix, phase)
}

// Callback returns a phase setter suitable as a progress callback. It is safe for
// concurrent use.
func (p *ProgressPrinter) Callback() func(phase string) {
	return func(phase string) {
		p.phase.Store(phase)
		if _, stop := p.stopPhases[phase]; stop {
			p.Stop()
		}
	}
}

// Stop clears the line. It may be called more than once, also before Start.
func (p *ProgressPrinter) Stop() {
	p.stopOnce.Do(func() {
		close(p.stop)
		// never started: nothing to wait for
		p.startOnce.Do(func() { close(p.done) })
		<-p.done
		fmt.Fprint(p.out, clearLineSequence)
	})
}
