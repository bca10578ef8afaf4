//go:build rp2040 || rp2350

package platform

import (
	"context"
	"device/rp"
	"machine"
	"sync/atomic"
	"time"

	uartx "github.com/jangala-dev/tinygo-uartx/uartx"
	"tinygo.org/x/drivers"

	"pdbridge-go/errcode"
	"pdbridge-go/services/bmc/internal/core"
	"pdbridge-go/services/bmc/internal/halcore"
	"pdbridge-go/services/bmc/internal/platform/setups"
	"pdbridge-go/services/bmc/internal/upstream"
)

// usbPollInterval paces the USB CDC reader, which has no readiness signal.
const usbPollInterval = 2 * time.Millisecond

// Plan returns the compiled-in board plan. The path is ignored.
func Plan(string) (setups.ResourcePlan, error) {
	p := setups.PicoDual
	p.Normalize()
	return p, p.Validate()
}

// Open configures the buses named by plan. Transport readers post to wake.
func Open(_ context.Context, plan setups.ResourcePlan, wake chan<- struct{}) (Factories, error) {
	notify := func() { core.Notify(wake) }

	i2c := &rp2I2CFactory{plans: plan.I2C, buses: make(map[string]drivers.I2C)}
	for _, p := range plan.I2C {
		if p.ID != "i2c0" && p.ID != "i2c1" {
			return Factories{}, &errcode.E{C: errcode.UnknownPort, Op: "platform.Open", Msg: p.ID}
		}
	}

	ports, err := openUARTs(plan.UART, func(u setups.UARTPlan) (*uartx.UART, error) {
		var hw *uartx.UART
		switch u.ID {
		case "uart0":
			hw = uartx.UART0
		case "uart1":
			hw = uartx.UART1
		default:
			return nil, errcode.UnknownPort
		}
		return hw, hw.Configure(uartx.UARTConfig{
			BaudRate: u.Baud,
			TX:       machine.Pin(u.TX),
			RX:       machine.Pin(u.RX),
		})
	})
	if err != nil {
		return Factories{}, err
	}
	uarts := &rp2UARTFactory{ports: ports}

	return Factories{
		I2C:       i2c,
		Pins:      rp2PinFactory{},
		UARTs:     &deviceUARTs{f: uarts, notify: notify},
		Upstreams: &rp2Upstreams{uarts: uarts, notify: notify},
		System:    rp2System{},
	}, nil
}

// ---- I²C ----

// rp2I2CFactory hands out buses that configure on their first transfer.
// Until then SDA/SCL stay plain inputs, so a port's bring-up can read
// the idle level of the lines before the I2C function takes the pads.
type rp2I2CFactory struct {
	plans []setups.I2CPlan
	buses map[string]drivers.I2C
}

func (f *rp2I2CFactory) ByID(id string) (drivers.I2C, bool) {
	if b, ok := f.buses[id]; ok {
		return b, true
	}
	for _, p := range f.plans {
		if p.ID != id {
			continue
		}
		hw := machine.I2C0
		if id == "i2c1" {
			hw = machine.I2C1
		}
		cfg := machine.I2CConfig{
			SDA:       machine.Pin(p.SDA),
			SCL:       machine.Pin(p.SCL),
			Frequency: p.Hz,
		}
		b := &lazyBus{id: id, open: func() (drivers.I2C, error) {
			if err := hw.Configure(cfg); err != nil {
				return nil, err
			}
			return hw, nil
		}}
		f.buses[id] = b
		return b, true
	}
	return nil, false
}

// ---- GPIO (includes IRQ support) ----

type rp2PinFactory struct{}

func (rp2PinFactory) ByNumber(n int) (halcore.GPIOPin, bool) {
	// Constrain to RP2's user GPIOs (GP0..GP28).
	if n < 0 || n > 28 {
		return nil, false
	}
	return &rp2Pin{p: machine.Pin(n), n: n}, true
}

type rp2Pin struct {
	p machine.Pin
	n int

	handler func(int)
	armed   atomic.Bool
}

func (r *rp2Pin) ConfigureInput(pull halcore.Pull) error {
	var mode machine.PinMode
	switch pull {
	case halcore.PullUp:
		mode = machine.PinInputPullup
	case halcore.PullDown:
		mode = machine.PinInputPulldown
	default:
		mode = machine.PinInput
	}
	r.p.Configure(machine.PinConfig{Mode: mode})
	return nil
}

func (r *rp2Pin) ConfigureOutput(initial bool) error {
	r.p.Configure(machine.PinConfig{Mode: machine.PinOutput})
	r.p.Set(initial)
	return nil
}

func (r *rp2Pin) Set(level bool) { r.p.Set(level) }
func (r *rp2Pin) Get() bool      { return r.p.Get() }
func (r *rp2Pin) Number() int    { return r.n }

// SetIRQ installs a falling-edge interrupt. Level-low behaviour comes
// from EnableIRQ sampling the line when it re-arms.
func (r *rp2Pin) SetIRQ(handler func(pin int)) error {
	r.handler = handler
	return r.p.SetInterrupt(machine.PinFalling, func(machine.Pin) {
		if r.armed.Load() {
			r.handler(r.n)
		}
	})
}

func (r *rp2Pin) EnableIRQ(on bool) {
	r.armed.Store(on)
	if on && !r.p.Get() && r.handler != nil {
		r.handler(r.n)
	}
}

// ---- UART ----

type rp2UARTFactory struct {
	ports map[string]*uartx.UART
	taken map[string]bool
}

// claim hands each UART out once.
func (f *rp2UARTFactory) claim(id string) (*uartx.UART, bool) {
	u, ok := f.ports[id]
	if !ok || f.taken[id] {
		return nil, false
	}
	if f.taken == nil {
		f.taken = make(map[string]bool)
	}
	f.taken[id] = true
	return u, true
}

type deviceUARTs struct {
	f      *rp2UARTFactory
	notify func()
}

func (d *deviceUARTs) ByID(id string) (halcore.UARTPort, bool) {
	u, ok := d.f.claim(id)
	if !ok {
		return nil, false
	}
	go watchReadable(u, d.notify)
	return &rp2UART{u: u}, true
}

// watchReadable turns RX readiness into loop wake-ups; the loop drains.
func watchReadable(u *uartx.UART, notify func()) {
	for range u.Readable() {
		notify()
	}
}

type rp2UART struct{ u *uartx.UART }

func (p *rp2UART) Write(b []byte) (int, error) { return p.u.Write(b) }
func (p *rp2UART) TryRead(b []byte) int        { return p.u.TryRead(b) }

// SetBreak drives the PL011 break bit.
func (p *rp2UART) SetBreak(on bool) error {
	if on {
		p.u.Bus.UARTLCR_H.SetBits(rp.UART0_UARTLCR_H_BRK)
	} else {
		p.u.Bus.UARTLCR_H.ClearBits(rp.UART0_UARTLCR_H_BRK)
	}
	return nil
}

// ---- Upstream ----

type rp2Upstreams struct {
	uarts  *rp2UARTFactory
	notify func()
	usb    bool
}

func (f *rp2Upstreams) Open(u setups.UpstreamPlan) (halcore.Channel, error) {
	switch u.Kind {
	case setups.UpstreamUSB:
		if f.usb {
			return nil, &errcode.E{C: errcode.Unsupported, Op: "platform.Upstream", Msg: "one USB console only"}
		}
		f.usb = true
		return openUSB(f.notify), nil
	case setups.UpstreamUART:
		hw, ok := f.uarts.claim(u.ID)
		if !ok {
			return nil, &errcode.E{C: errcode.UnknownPort, Op: "platform.Upstream", Msg: u.ID}
		}
		c := upstream.NewConsole(hw, upstream.ConsoleConfig{Notify: f.notify})
		go func() {
			var buf [64]byte
			for range hw.Readable() {
				for {
					n := hw.TryRead(buf[:])
					if n == 0 {
						break
					}
					c.Feed(buf[:n])
				}
			}
		}()
		return c, nil
	}
	return nil, &errcode.E{C: errcode.Unsupported, Op: "platform.Upstream", Msg: u.Kind}
}

// usbChannel is the USB CDC console. It counts as connected once the
// host raises DTR.
type usbChannel struct {
	*upstream.Console
}

type dtr interface{ DTR() bool }

func (c usbChannel) Connected() bool {
	if d, ok := machine.Serial.(dtr); ok {
		return d.DTR()
	}
	return true
}

func openUSB(notify func()) halcore.Channel {
	c := upstream.NewConsole(machine.Serial, upstream.ConsoleConfig{Notify: notify})
	go func() {
		var buf [64]byte
		for {
			n := 0
			for n < len(buf) && machine.Serial.Buffered() > 0 {
				b, err := machine.Serial.ReadByte()
				if err != nil {
					break
				}
				buf[n] = b
				n++
			}
			if n == 0 {
				time.Sleep(usbPollInterval)
				continue
			}
			c.Feed(buf[:n])
		}
	}()
	return usbChannel{c}
}

// ---- System ----

type rp2System struct{}

// Reset lets the watchdog expire.
func (rp2System) Reset() {
	machine.Watchdog.Configure(machine.WatchdogConfig{TimeoutMillis: 1})
	machine.Watchdog.Start()
	for {
	}
}

func (rp2System) EnterBootloader() { machine.EnterBootloader() }
