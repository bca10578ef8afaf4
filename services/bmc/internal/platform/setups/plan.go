package setups

import (
	"pdbridge-go/errcode"
	"pdbridge-go/services/bmc/internal/halcore"
	"pdbridge-go/x/mathx"
)

// ResourcePlan specifies wiring and operating parameters chosen by a setup.
// Platforms consume this plan to instantiate buses and ports.
type ResourcePlan struct {
	Name  string
	I2C   []I2CPlan
	UART  []UARTPlan
	Ports []PortPlan
}

type I2CPlan struct {
	ID  string // e.g. "i2c0", or "1" for /dev/i2c-1
	SDA int    // GPIO number
	SCL int    // GPIO number
	Hz  uint32 // bus frequency
}

type UARTPlan struct {
	ID   string // e.g. "uart0", or a tty path
	TX   int    // GPIO number
	RX   int    // GPIO number
	Baud uint32
}

// Upstream kinds.
const (
	UpstreamUSB   = "usb"   // USB CDC of the MCU
	UpstreamUART  = "uart"  // console over a UART from the plan
	UpstreamTTY   = "tty"   // host tty device
	UpstreamStdio = "stdio" // process stdin/stdout
)

type UpstreamPlan struct {
	Kind string
	ID   string // UART id or tty path
}

// PortPlan wires one PD port. An empty I2C leaves the port absent; an
// empty UART makes it console-only.
type PortPlan struct {
	I2C      string
	Addr     uint16
	UART     string
	Upstream UpstreamPlan
	Pins     []halcore.PinSpec
}

// Limits applied by Normalize.
const (
	MinI2CHz     = 10_000
	MaxI2CHz     = 1_000_000
	DefaultI2CHz = 400_000

	MinBaud     = 1200
	MaxBaud     = 3_000_000
	DefaultBaud = 115200

	DefaultAddr = 0x22
)

// Normalize fills defaults and clamps rates into what the hardware accepts.
func (p *ResourcePlan) Normalize() {
	for i := range p.I2C {
		p.I2C[i].Hz = mathx.OrDefault(p.I2C[i].Hz, DefaultI2CHz, MinI2CHz, MaxI2CHz)
	}
	for i := range p.UART {
		p.UART[i].Baud = mathx.OrDefault(p.UART[i].Baud, DefaultBaud, MinBaud, MaxBaud)
	}
	for i := range p.Ports {
		if p.Ports[i].I2C != "" && p.Ports[i].Addr == 0 {
			p.Ports[i].Addr = DefaultAddr
		}
	}
}

// Validate checks that every reference resolves and that no GPIO is
// claimed twice by enabled records.
func (p *ResourcePlan) Validate() error {
	if len(p.Ports) == 0 {
		return invalid("no ports")
	}
	i2c := make(map[string]bool, len(p.I2C))
	for _, b := range p.I2C {
		i2c[b.ID] = true
	}
	uart := make(map[string]bool, len(p.UART))
	for _, u := range p.UART {
		uart[u.ID] = true
	}
	used := make(map[int]halcore.Role)
	uartUsed := make(map[string]bool)
	for _, port := range p.Ports {
		if port.I2C != "" && !i2c[port.I2C] {
			return invalid("unknown i2c " + port.I2C)
		}
		if port.UART != "" {
			if !uart[port.UART] {
				return invalid("unknown uart " + port.UART)
			}
			if uartUsed[port.UART] {
				return invalid("uart " + port.UART + " used twice")
			}
			uartUsed[port.UART] = true
		}
		switch port.Upstream.Kind {
		case UpstreamUSB, UpstreamStdio:
		case UpstreamUART:
			if !uart[port.Upstream.ID] {
				return invalid("unknown upstream uart " + port.Upstream.ID)
			}
			if uartUsed[port.Upstream.ID] {
				return invalid("uart " + port.Upstream.ID + " used twice")
			}
			uartUsed[port.Upstream.ID] = true
		case UpstreamTTY:
			if port.Upstream.ID == "" {
				return invalid("tty upstream without a path")
			}
		default:
			return invalid("unknown upstream kind " + port.Upstream.Kind)
		}
		for _, s := range port.Pins {
			if !s.Enabled {
				continue
			}
			if r, taken := used[s.Pin]; taken && !sharedRole(r, s.Role) {
				return invalid("pin " + string(s.Role) + " already used by " + string(r))
			}
			used[s.Pin] = s.Role
		}
	}
	return nil
}

// sharedRole reports roles that may name the same line on several ports.
// The interrupt line is open-drain and may be wired-OR between chips.
func sharedRole(a, b halcore.Role) bool {
	return a == b && a == halcore.RoleIRQ
}

func invalid(msg string) error {
	return &errcode.E{C: errcode.InvalidParams, Op: "setups.Validate", Msg: msg}
}

// FindI2C returns the bus plan with id.
func (p *ResourcePlan) FindI2C(id string) (I2CPlan, bool) {
	for _, b := range p.I2C {
		if b.ID == id {
			return b, true
		}
	}
	return I2CPlan{}, false
}

// FindUART returns the UART plan with id.
func (p *ResourcePlan) FindUART(id string) (UARTPlan, bool) {
	for _, u := range p.UART {
		if u.ID == id {
			return u, true
		}
	}
	return UARTPlan{}, false
}
