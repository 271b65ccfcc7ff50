package main

import (
	"fmt"
	"log"
	"sync"
	"time"

	"furitingoasis/irrigation/fuzzy"
)

// relay is the part of gpio.RelayDriver the pump needs.
type relay interface {
	On() error
	Off() error
}

// pump drives the pump relay for timed runs. A new command while the pump is
// running replaces the remaining time.
type pump struct {
	relay     relay
	activeLow bool

	mu         sync.Mutex
	running    bool
	generation int
	timer      *time.Timer
	onSince    time.Time
	dailyOn    time.Duration
	lastMS     int
}

func newPump(r relay, activeLow bool) *pump {
	return &pump{relay: r, activeLow: activeLow}
}

// switchRelay hides the wiring: on the farm board the relay closes when the
// driver is Off.
func (p *pump) switchRelay(on bool) error {
	if on != p.activeLow {
		return p.relay.On()
	}
	return p.relay.Off()
}

// Run turns the pump on for durationMS milliseconds.
func (p *pump) Run(durationMS int) error {
	if durationMS <= 0 || durationMS > fuzzy.MaxDurationMS {
		return fmt.Errorf("pump duration %d ms outside (0, %d]", durationMS, fuzzy.MaxDurationMS)
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.running {
		if err := p.switchRelay(true); err != nil {
			return fmt.Errorf("pump relay on: %w", err)
		}
		p.running = true
		p.onSince = time.Now()
	}
	if p.timer != nil {
		p.timer.Stop()
	}
	p.generation++
	gen := p.generation
	p.lastMS = durationMS
	p.timer = time.AfterFunc(time.Duration(durationMS)*time.Millisecond, func() {
		p.stop(gen)
	})
	return nil
}

// stop switches the pump off unless a newer Run has taken over.
func (p *pump) stop(gen int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if gen != p.generation || !p.running {
		return
	}
	p.off()
}

// Off switches the pump off immediately.
func (p *pump) Off() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.timer != nil {
		p.timer.Stop()
	}
	p.generation++
	if p.running {
		p.off()
	}
}

func (p *pump) off() {
	if err := p.switchRelay(false); err != nil {
		// Leave running set so the next command retries the relay.
		log.Printf("Error switching pump off: %v", err)
		return
	}
	p.running = false
	p.dailyOn += time.Since(p.onSince)
	p.onSince = time.Time{}
}

// Running reports whether the pump is on.
func (p *pump) Running() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.running
}

// DailyOn returns today's pump run time, including a run in progress.
func (p *pump) DailyOn() time.Duration {
	p.mu.Lock()
	defer p.mu.Unlock()
	d := p.dailyOn
	if p.running {
		d += time.Since(p.onSince)
	}
	return d
}

// ResetDaily zeroes the daily counter and returns the value it had.
func (p *pump) ResetDaily() time.Duration {
	p.mu.Lock()
	defer p.mu.Unlock()
	d := p.dailyOn
	if p.running {
		d += time.Since(p.onSince)
		p.onSince = time.Now()
	}
	p.dailyOn = 0
	return d
}

func (p *pump) LastCommandMS() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.lastMS
}
