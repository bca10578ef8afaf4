package halcore

import "pdbridge-go/errcode"

// Role names what a pin does for a port.
type Role string

const (
	RoleLED     Role = "led"
	RoleSDA     Role = "sda"
	RoleSCL     Role = "scl"
	RoleIRQ     Role = "irq"
	RoleVBUS    Role = "vbus"
	RoleSBUSwap Role = "sbu_swap"
	RoleSelUSB  Role = "sel_usb"
)

type Dir uint8

const (
	DirIn Dir = iota
	DirOut
)

// PinSpec is one declarative pin record. Disabled records are skipped,
// which lets two ports share a physical pin such as a status LED.
type PinSpec struct {
	Role    Role
	Pin     int
	Dir     Dir
	Pull    Pull
	Initial bool
	Enabled bool
}

// PinSet holds the configured pins of one port by role.
type PinSet struct {
	pins map[Role]GPIOPin
}

// ConfigurePins applies every enabled record in order.
func ConfigurePins(specs []PinSpec, f PinFactory) (*PinSet, error) {
	set := &PinSet{pins: make(map[Role]GPIOPin, len(specs))}
	for _, s := range specs {
		if !s.Enabled {
			continue
		}
		p, ok := f.ByNumber(s.Pin)
		if !ok {
			return nil, &errcode.E{C: errcode.UnknownPin, Op: "ConfigurePins", Msg: string(s.Role)}
		}
		var err error
		if s.Dir == DirOut {
			err = p.ConfigureOutput(s.Initial)
		} else {
			err = p.ConfigureInput(s.Pull)
		}
		if err != nil {
			return nil, &errcode.E{C: errcode.Error, Op: "ConfigurePins", Msg: string(s.Role), Err: err}
		}
		set.pins[s.Role] = p
	}
	return set, nil
}

// Pin returns the pin for r, or nil.
func (s *PinSet) Pin(r Role) GPIOPin {
	if s == nil {
		return nil
	}
	return s.pins[r]
}

// Get reads r. Unconfigured roles read high, the idle level of every
// input the bridge samples.
func (s *PinSet) Get(r Role) bool {
	if p := s.Pin(r); p != nil {
		return p.Get()
	}
	return true
}

// Set drives r if configured.
func (s *PinSet) Set(r Role, level bool) {
	if p := s.Pin(r); p != nil {
		p.Set(level)
	}
}

// Drive turns r into an output at level.
func (s *PinSet) Drive(r Role, level bool) {
	if p := s.Pin(r); p != nil {
		_ = p.ConfigureOutput(level)
	}
}

// Release turns r into a floating input.
func (s *PinSet) Release(r Role) {
	if p := s.Pin(r); p != nil {
		_ = p.ConfigureInput(PullNone)
	}
}

// IRQ returns the interrupt-capable pin for RoleIRQ.
func (s *PinSet) IRQ() (IRQPin, bool) {
	p, ok := s.Pin(RoleIRQ).(IRQPin)
	return p, ok
}
