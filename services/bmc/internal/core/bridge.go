// Package core is the dual-port PD bridge: one policy engine per port,
// the shared interrupt dispatcher, the host command/passthrough
// multiplexer and the run loop that services them.
package core

import (
	"context"
	"time"

	"pdbridge-go/services/bmc/internal/halcore"
)

// PortConfig binds one port. HW is nil for a port the board does not wire.
type PortConfig struct {
	Host halcore.Channel
	HW   *Hardware
}

type Options struct {
	System halcore.System
	// Sleep replaces time.Sleep for settling delays, mainly for tests.
	Sleep func(time.Duration)
	// Wake, when set, is shared with the platform so that transport
	// readers can wake the loop. It must be buffered.
	Wake chan struct{}
}

// Bridge owns the ports and the run loop.
type Bridge struct {
	ports []*Port
	sys   halcore.System
	sleep func(time.Duration)
	wake  chan struct{}
}

func New(cfgs []PortConfig, opts Options) *Bridge {
	b := &Bridge{
		sys:   opts.System,
		sleep: opts.Sleep,
		wake:  opts.Wake,
	}
	if b.sleep == nil {
		b.sleep = time.Sleep
	}
	if b.wake == nil {
		b.wake = make(chan struct{}, 1)
	}
	b.ports = make([]*Port, len(cfgs))
	for i, c := range cfgs {
		b.ports[i] = newPort(i, b, c)
	}
	return b
}

// Port returns port i or nil.
func (b *Bridge) Port(i int) *Port {
	if i < 0 || i >= len(b.ports) {
		return nil
	}
	return b.ports[i]
}

// Setup initialises every port in index order. Ports that fail bring-up
// stay absent for the life of the bridge.
func (b *Bridge) Setup() {
	for _, p := range b.ports {
		p.setup()
	}
}

// Wake makes a blocked Run take another pass. Safe from interrupt context.
func (b *Bridge) Wake() { Notify(b.wake) }

// Notify posts a coalesced wake-up on ch without blocking.
func Notify(ch chan<- struct{}) {
	select {
	case ch <- struct{}{}:
	default:
	}
}

// Ports returns the port table in index order.
func (b *Bridge) Ports() []*Port { return b.ports }

// RunOnce services every present port once and reports whether any of
// them did work.
func (b *Bridge) RunOnce() bool {
	busy := false
	for _, p := range b.ports {
		if !p.Present() {
			continue
		}
		if b.service(p) {
			busy = true
		}
	}
	return busy
}

func (b *Bridge) service(p *Port) bool {
	busy := false
	switch {
	case p.pending.Load():
		p.handleIRQ()
		p.tick()
		p.pending.Store(false)
		p.armIRQ()
		busy = true
	case p.state == Disconnected:
		// Attach is a level, not an edge: keep polling.
		p.tick()
		busy = true
	}
	if p.serviceSerial() {
		busy = true
	}
	return busy
}

// Run loops until ctx is done. With nothing to do it blocks until an
// interrupt or host traffic calls Wake.
func (b *Bridge) Run(ctx context.Context) error {
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		if b.RunOnce() {
			continue
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-b.wake:
		}
	}
}
