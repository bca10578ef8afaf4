package core

import (
	"io"
	"sync/atomic"
	"time"

	"pdbridge-go/services/bmc/internal/halcore"
	"pdbridge-go/services/bmc/internal/upstream"
	"pdbridge-go/typec"
	"pdbridge-go/x/fmtx"
)

// State is the policy state of a port.
type State uint8

const (
	Disconnected State = iota
	Connected
	DFPVBUSOn
	DFPConnected
	DFPAccept
	Ready
	Idle
)

var stateNames = [...]string{
	Disconnected: "DISCONNECTED",
	Connected:    "CONNECTED",
	DFPVBUSOn:    "DFP_VBUS_ON",
	DFPConnected: "DFP_CONNECTED",
	DFPAccept:    "DFP_ACCEPT",
	Ready:        "READY",
	Idle:         "IDLE",
}

func (s State) String() string {
	if int(s) < len(stateNames) {
		return stateNames[s]
	}
	return "INVALID"
}

// Hardware is what the bring-up layer lends a port for its lifetime.
type Hardware struct {
	TCPC Transceiver
	Pins *halcore.PinSet
	UART halcore.UARTPort // nil for console-only ports
}

// Port is one policy engine instance. All fields except pending and
// breakReq are owned by the run loop.
type Port struct {
	idx  int
	b    *Bridge
	host halcore.Channel
	out  io.Writer
	hw   *Hardware
	irq  halcore.IRQPin

	state       State
	polarity    typec.Polarity
	debounce    int
	srcCapTimer int
	route       Route
	escape      bool
	verbose     bool

	pending  atomic.Bool
	breakReq atomic.Int64 // requested break in ns, 0 when none

	rx   [64]byte
	line []byte
}

func newPort(idx int, b *Bridge, cfg PortConfig) *Port {
	p := &Port{
		idx:   idx,
		b:     b,
		host:  cfg.Host,
		out:   upstream.NewTextWriter(cfg.Host),
		hw:    cfg.HW,
		route: RouteSBU,
	}
	if p.hw != nil {
		p.irq, _ = p.hw.Pins.IRQ()
	}
	if bs, ok := cfg.Host.(halcore.BreakSource); ok {
		bs.OnBreak(func(d time.Duration) {
			p.breakReq.Store(int64(d))
			b.Wake()
		})
	}
	return p
}

func (p *Port) Index() int { return p.idx }

// Present reports whether the port has a live transceiver.
func (p *Port) Present() bool { return p.hw != nil }

func (p *Port) State() State { return p.state }

func (p *Port) Polarity() typec.Polarity { return p.polarity }

func (p *Port) Route() Route { return p.route }

func (p *Port) Verbose() bool { return p.verbose }

func (p *Port) tcpc() Transceiver { return p.hw.TCPC }

func (p *Port) setState(s State) {
	p.state = s
	p.cprintf("S: %s\n", s)
}

func (p *Port) cprintf(format string, args ...any) {
	b := fmtx.Appendf(p.line[:0], "P%d: ", p.idx)
	b = fmtx.Appendf(b, format, args...)
	p.out.Write(b)
	p.line = b[:0]
}

func (p *Port) dprintf(format string, args ...any) {
	if p.verbose {
		p.cprintf(format, args...)
	}
}

// check logs a transceiver failure. The engine carries on; the next
// hard event returns the port to DISCONNECTED.
func (p *Port) check(err error) bool {
	if err != nil {
		p.cprintf("%s\n", err)
		return false
	}
	return true
}
