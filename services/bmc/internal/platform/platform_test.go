package platform

import (
	"errors"
	"testing"
	"time"

	"tinygo.org/x/drivers"

	"pdbridge-go/errcode"
	"pdbridge-go/services/bmc/internal/halcore"
	"pdbridge-go/services/bmc/internal/platform/setups"
)

type nopI2C struct{}

func (nopI2C) Tx(uint16, []byte, []byte) error { return nil }

type i2cFactory map[string]drivers.I2C

func (f i2cFactory) ByID(id string) (drivers.I2C, bool) {
	b, ok := f[id]
	return b, ok
}

type pin struct {
	n       int
	out     bool
	handler func(int)
}

func (p *pin) ConfigureInput(halcore.Pull) error {
	p.out = false
	return nil
}
func (p *pin) ConfigureOutput(bool) error {
	p.out = true
	return nil
}
func (p *pin) Set(bool)       {}
func (p *pin) Get() bool      { return true }
func (p *pin) Number() int    { return p.n }
func (p *pin) EnableIRQ(bool) {}
func (p *pin) SetIRQ(h func(int)) error {
	p.handler = h
	return nil
}

type pins struct{ order []int }

func (f *pins) ByNumber(n int) (halcore.GPIOPin, bool) {
	if n > 28 {
		return nil, false
	}
	f.order = append(f.order, n)
	return &pin{n: n}, true
}

type uart struct{ id string }

func (uart) Write(p []byte) (int, error) { return len(p), nil }
func (uart) TryRead([]byte) int          { return 0 }
func (uart) SetBreak(bool) error         { return nil }

type uarts map[string]bool

func (u uarts) ByID(id string) (halcore.UARTPort, bool) {
	if !u[id] {
		return nil, false
	}
	return uart{id: id}, true
}

type channel struct{ kind string }

func (channel) Write(p []byte) (int, error) { return len(p), nil }
func (channel) TryReadByte() (byte, bool)   { return 0, false }
func (channel) Connected() bool             { return true }

type upstreams struct{ opened []string }

func (u *upstreams) Open(p setups.UpstreamPlan) (halcore.Channel, error) {
	if p.Kind == "broken" {
		return nil, errcode.Unsupported
	}
	u.opened = append(u.opened, p.Kind)
	return channel{kind: p.Kind}, nil
}

func factories() (Factories, *pins, *upstreams) {
	p := &pins{}
	up := &upstreams{}
	return Factories{
		I2C:       i2cFactory{"i2c0": nopI2C{}},
		Pins:      p,
		UARTs:     uarts{"uart0": true},
		Upstreams: up,
	}, p, up
}

func TestPortsBuildsHardware(t *testing.T) {
	f, p, up := factories()
	plan := setups.ResourcePlan{
		Ports: []setups.PortPlan{
			{
				I2C:      "i2c0",
				Addr:     0x22,
				UART:     "uart0",
				Upstream: setups.UpstreamPlan{Kind: setups.UpstreamUSB},
				Pins: []halcore.PinSpec{
					{Role: halcore.RoleIRQ, Pin: 18, Pull: halcore.PullUp, Enabled: true},
					{Role: halcore.RoleVBUS, Pin: 26, Enabled: true},
				},
			},
			{Upstream: setups.UpstreamPlan{Kind: setups.UpstreamStdio}},
		},
	}
	ports, err := Ports(plan, f)
	if err != nil {
		t.Fatal(err)
	}
	if len(ports) != 2 || ports[0].HW == nil || ports[1].HW != nil {
		t.Fatalf("ports = %+v", ports)
	}
	hw := ports[0].HW
	if hw.TCPC == nil || hw.UART == nil {
		t.Fatal("transceiver or uart missing")
	}
	if _, ok := hw.Pins.IRQ(); !ok {
		t.Fatal("irq pin not bound")
	}
	if len(p.order) != 2 || p.order[0] != 18 {
		t.Fatalf("pins opened %v", p.order)
	}
	if len(up.opened) != 2 || up.opened[1] != setups.UpstreamStdio {
		t.Fatalf("upstreams %v", up.opened)
	}
}

func TestPortsWithoutUARTIsConsoleOnly(t *testing.T) {
	f, _, _ := factories()
	ports, err := Ports(setups.ResourcePlan{Ports: []setups.PortPlan{
		{I2C: "i2c0", Upstream: setups.UpstreamPlan{Kind: setups.UpstreamUSB}},
	}}, f)
	if err != nil {
		t.Fatal(err)
	}
	if ports[0].HW == nil || ports[0].HW.UART != nil {
		t.Fatal("port without a uart must carry a nil UART interface")
	}
}

func TestPortsErrors(t *testing.T) {
	cases := map[string]setups.PortPlan{
		"unknown bus":  {I2C: "i2c5", Upstream: setups.UpstreamPlan{Kind: setups.UpstreamUSB}},
		"unknown uart": {I2C: "i2c0", UART: "uart3", Upstream: setups.UpstreamPlan{Kind: setups.UpstreamUSB}},
		"bad pin":      {I2C: "i2c0", Upstream: setups.UpstreamPlan{Kind: setups.UpstreamUSB}, Pins: []halcore.PinSpec{{Role: halcore.RoleIRQ, Pin: 40, Enabled: true}}},
		"upstream":     {Upstream: setups.UpstreamPlan{Kind: "broken"}},
	}
	want := map[string]errcode.Code{
		"unknown bus":  errcode.UnknownPort,
		"unknown uart": errcode.UnknownPort,
		"bad pin":      errcode.UnknownPin,
		"upstream":     errcode.Unsupported,
	}
	for name, pp := range cases {
		f, _, _ := factories()
		_, err := Ports(setups.ResourcePlan{Ports: []setups.PortPlan{pp}}, f)
		if got := errcode.Of(err); got != want[name] {
			t.Errorf("%s: code %q, want %q (%v)", name, got, want[name], err)
		}
	}
}

func TestBackoffSeqDoublesToMax(t *testing.T) {
	next := backoffSeq(100*time.Millisecond, 350*time.Millisecond)
	want := []time.Duration{100, 200, 350, 350}
	for i, w := range want {
		if got := next(); got != w*time.Millisecond {
			t.Fatalf("step %d = %s", i, got)
		}
	}
}

type countingBus struct{ tx int }

func (b *countingBus) Tx(uint16, []byte, []byte) error {
	b.tx++
	return nil
}

func TestLazyBusOpensOnFirstTransfer(t *testing.T) {
	hw := &countingBus{}
	opens := 0
	fail := true
	b := &lazyBus{id: "i2c0", open: func() (drivers.I2C, error) {
		opens++
		if fail {
			return nil, errcode.Timeout
		}
		return hw, nil
	}}
	if err := b.Tx(0x22, []byte{1}, nil); errcode.Of(err) != errcode.Error || !errors.Is(err, errcode.Timeout) {
		t.Fatalf("first Tx err = %v", err)
	}
	fail = false
	for i := 0; i < 3; i++ {
		if err := b.Tx(0x22, []byte{1}, nil); err != nil {
			t.Fatal(err)
		}
	}
	if opens != 2 || hw.tx != 3 {
		t.Fatalf("opens = %d, tx = %d", opens, hw.tx)
	}
}

func TestPortsLeavesBusClosedUntilFirstTransfer(t *testing.T) {
	f, p, _ := factories()
	opened := false
	f.I2C = i2cFactory{"i2c0": &lazyBus{id: "i2c0", open: func() (drivers.I2C, error) {
		opened = true
		return nopI2C{}, nil
	}}}
	plan := setups.ResourcePlan{Ports: []setups.PortPlan{{
		I2C:      "i2c0",
		Upstream: setups.UpstreamPlan{Kind: setups.UpstreamUSB},
		Pins: []halcore.PinSpec{
			{Role: halcore.RoleSDA, Pin: 16, Enabled: true},
			{Role: halcore.RoleSCL, Pin: 17, Enabled: true},
		},
	}}}
	ports, err := Ports(plan, f)
	if err != nil {
		t.Fatal(err)
	}
	if opened {
		t.Fatal("bus opened before the port sampled its lines")
	}
	if len(p.order) != 2 || ports[0].HW.Pins.Pin(halcore.RoleSDA) == nil {
		t.Fatal("bus lines not configured as pins")
	}
	if _, err := ports[0].HW.TCPC.DeviceID(); err != nil || !opened {
		t.Fatalf("first register read should open the bus (err %v)", err)
	}
}

func TestOpenUARTsReportsConfigureFailure(t *testing.T) {
	plans := []setups.UARTPlan{{ID: "uart0", Baud: 115200}, {ID: "uart1", Baud: 9600}}
	got, err := openUARTs(plans, func(u setups.UARTPlan) (uint32, error) { return u.Baud, nil })
	if err != nil || got["uart0"] != 115200 || got["uart1"] != 9600 {
		t.Fatalf("got %v, %v", got, err)
	}
	_, err = openUARTs(plans, func(u setups.UARTPlan) (uint32, error) {
		if u.ID == "uart1" {
			return 0, errcode.InvalidParams
		}
		return u.Baud, nil
	})
	var e *errcode.E
	if !errors.As(err, &e) || e.C != errcode.InvalidParams || e.Msg != "uart uart1" {
		t.Fatalf("err = %v", err)
	}
}
