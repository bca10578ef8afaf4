//go:build linux && !(rp2040 || rp2350)

package platform

import (
	"context"
	"strconv"
	"sync/atomic"

	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpioreg"
	"periph.io/x/conn/v3/i2c"
	"periph.io/x/conn/v3/i2c/i2creg"
	"periph.io/x/conn/v3/physic"
	"periph.io/x/host/v3"
	"tinygo.org/x/drivers"

	"pdbridge-go/errcode"
	"pdbridge-go/services/bmc/internal/core"
	"pdbridge-go/services/bmc/internal/halcore"
	"pdbridge-go/services/bmc/internal/platform/setups"
)

// Plan loads the YAML board file at path.
func Plan(path string) (setups.ResourcePlan, error) {
	if path == "" {
		return setups.ResourcePlan{}, &errcode.E{C: errcode.InvalidParams, Op: "platform.Plan", Msg: "no board file"}
	}
	return setups.Load(path)
}

// Open registers the periph drivers and opens the buses named by plan.
// Serial readers run until ctx is done and post to wake.
func Open(ctx context.Context, plan setups.ResourcePlan, wake chan<- struct{}) (Factories, error) {
	if _, err := host.Init(); err != nil {
		return Factories{}, &errcode.E{C: errcode.Unsupported, Op: "platform.Open", Msg: "periph host init", Err: err}
	}
	notify := func() { core.Notify(wake) }

	buses := &linuxI2CFactory{buses: make(map[string]drivers.I2C)}
	for _, p := range plan.I2C {
		b, err := i2creg.Open(p.ID)
		if err != nil {
			return Factories{}, &errcode.E{C: errcode.UnknownPort, Op: "platform.Open", Msg: "i2c " + p.ID, Err: err}
		}
		if err := b.SetSpeed(physic.Frequency(p.Hz) * physic.Hertz); err != nil {
			println("[platform] i2c", p.ID, "keeps its default speed:", err.Error())
		}
		buses.buses[p.ID] = busOf(b)
	}

	links := &ttyLinks{ctx: ctx, notify: notify, plans: plan.UART}
	return Factories{
		I2C:       buses,
		Pins:      linuxPinFactory{},
		UARTs:     links,
		Upstreams: links,
		System:    linuxSystem{},
	}, nil
}

// ---- I²C ----

type linuxI2CFactory struct {
	buses map[string]drivers.I2C
}

func (f *linuxI2CFactory) ByID(id string) (drivers.I2C, bool) {
	b, ok := f.buses[id]
	return b, ok
}

// busOf narrows a periph bus to the Tx-only surface the drivers use.
func busOf(b i2c.Bus) drivers.I2C { return b }

// ---- GPIO ----

type linuxPinFactory struct{}

func (linuxPinFactory) ByNumber(n int) (halcore.GPIOPin, bool) {
	p := gpioreg.ByName(strconv.Itoa(n))
	if p == nil {
		return nil, false
	}
	return &linuxPin{p: p, n: n}, true
}

type linuxPin struct {
	p gpio.PinIO
	n int

	handler func(int)
	armed   atomic.Bool
	edges   bool
}

func toPull(p halcore.Pull) gpio.Pull {
	switch p {
	case halcore.PullUp:
		return gpio.PullUp
	case halcore.PullDown:
		return gpio.PullDown
	}
	return gpio.Float
}

func (l *linuxPin) ConfigureInput(pull halcore.Pull) error {
	return l.p.In(toPull(pull), gpio.NoEdge)
}

func (l *linuxPin) ConfigureOutput(initial bool) error {
	return l.p.Out(gpio.Level(initial))
}

func (l *linuxPin) Set(level bool) { _ = l.p.Out(gpio.Level(level)) }
func (l *linuxPin) Get() bool      { return l.p.Read() == gpio.High }
func (l *linuxPin) Number() int    { return l.n }

// SetIRQ switches the line to falling-edge detection and starts a waiter.
// The chip holds INT low until serviced, so EnableIRQ also samples the
// level when it re-arms.
func (l *linuxPin) SetIRQ(handler func(pin int)) error {
	if err := l.p.In(gpio.PullUp, gpio.FallingEdge); err != nil {
		return err
	}
	l.handler = handler
	if !l.edges {
		l.edges = true
		go func() {
			for {
				if l.p.WaitForEdge(-1) && l.armed.Load() {
					l.handler(l.n)
				}
			}
		}()
	}
	return nil
}

func (l *linuxPin) EnableIRQ(on bool) {
	l.armed.Store(on)
	if on && l.handler != nil && l.p.Read() == gpio.Low {
		l.handler(l.n)
	}
}
