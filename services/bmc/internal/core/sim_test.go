package core

import (
	"bytes"
	"strings"
	"sync"
	"testing"
	"time"

	"pdbridge-go/errcode"
	"pdbridge-go/pd"
	"pdbridge-go/services/bmc/internal/halcore"
	"pdbridge-go/typec"
)

// ---- simulated transceiver ----

type txFrame struct {
	sop pd.SOP
	m   pd.Message
}

type rxFrame struct {
	sop pd.SOP
	m   pd.Message
	err error
}

type simTCPC struct {
	id    uint8
	idErr error

	cc1, cc2 typec.CCLevel
	ccReads  int
	vbus     bool
	vbusErr  error

	irq, irqa, irqb uint8
	rx              []rxFrame
	tx              []txFrame

	inits, resets int
	rxEnabled     bool
	vconn         bool
	pull          typec.Pull
	rp            typec.RpValue
	polarity      typec.Polarity
	pr            pd.PowerRole
	dr            pd.DataRole
}

func newSim() *simTCPC { return &simTCPC{id: 0x91, pull: typec.PullOpen} }

func (s *simTCPC) DeviceID() (uint8, error) { return s.id, s.idErr }
func (s *simTCPC) Status0() (uint8, error)  { return 0x80, nil }
func (s *simTCPC) Init() error {
	s.inits++
	return nil
}
func (s *simTCPC) ResetPD() error {
	s.resets++
	return nil
}
func (s *simTCPC) SetRxEnable(on bool) error {
	s.rxEnabled = on
	return nil
}
func (s *simTCPC) SetCC(p typec.Pull) error {
	s.pull = p
	return nil
}
func (s *simTCPC) SelectRp(rp typec.RpValue) error {
	s.rp = rp
	return nil
}
func (s *simTCPC) SetPolarity(p typec.Polarity) error {
	s.polarity = p
	return nil
}
func (s *simTCPC) SetVCONN(on bool) error {
	s.vconn = on
	return nil
}
func (s *simTCPC) SetMsgHeader(pr pd.PowerRole, dr pd.DataRole) error {
	s.pr, s.dr = pr, dr
	return nil
}
func (s *simTCPC) Transmit(sop pd.SOP, m pd.Message) error {
	s.tx = append(s.tx, txFrame{sop, m})
	return nil
}
func (s *simTCPC) RxEmpty() (bool, error) { return len(s.rx) == 0, nil }
func (s *simTCPC) Receive() (pd.SOP, pd.Message, error) {
	if len(s.rx) == 0 {
		return pd.SOPUnknown, pd.Message{}, errcode.RxEmpty
	}
	f := s.rx[0]
	s.rx = s.rx[1:]
	return f.sop, f.m, f.err
}
func (s *simTCPC) ReadIRQ() (uint8, uint8, uint8, error) {
	a, b, c := s.irq, s.irqa, s.irqb
	s.irq, s.irqa, s.irqb = 0, 0, 0
	return a, b, c, nil
}
func (s *simTCPC) CC() (typec.CCLevel, typec.CCLevel, error) {
	s.ccReads++
	return s.cc1, s.cc2, nil
}
func (s *simTCPC) VBUS() (bool, error) { return s.vbus, s.vbusErr }

// lastTx returns the most recent transmitted message.
func (s *simTCPC) lastTx(t *testing.T) txFrame {
	t.Helper()
	if len(s.tx) == 0 {
		t.Fatal("nothing transmitted")
	}
	return s.tx[len(s.tx)-1]
}

// sent reports whether a message of type typ (data or control) went out
// after index from.
func (s *simTCPC) sent(from int, typ pd.Type, data bool) bool {
	for _, f := range s.tx[from:] {
		if f.m.Is(typ, data) {
			return true
		}
	}
	return false
}

// ---- pins ----

type fakePin struct {
	n       int
	level   bool
	out     bool
	enabled bool
	handler func(int)
	arms    int
}

func (p *fakePin) ConfigureInput(halcore.Pull) error {
	p.out = false
	return nil
}
func (p *fakePin) ConfigureOutput(initial bool) error {
	p.out, p.level = true, initial
	return nil
}
func (p *fakePin) Set(level bool) { p.level = level }
func (p *fakePin) Get() bool      { return p.level }
func (p *fakePin) Number() int    { return p.n }
func (p *fakePin) SetIRQ(h func(int)) error {
	p.handler = h
	return nil
}
func (p *fakePin) EnableIRQ(on bool) {
	p.enabled = on
	if on {
		p.arms++
		if !p.level && p.handler != nil {
			p.handler(p.n)
		}
	}
}

// fire emulates the chip pulling its interrupt line low.
func (p *fakePin) fire() {
	if p.enabled && p.handler != nil {
		p.handler(p.n)
	}
}

type pinFactory map[int]*fakePin

func (f pinFactory) ByNumber(n int) (halcore.GPIOPin, bool) {
	p, ok := f[n]
	return p, ok
}

const (
	pinSDA = iota + 1
	pinSCL
	pinIRQ
	pinVBUS
	pinSwap
	pinSelUSB
	pinLED
)

// ---- serial ----

type fakeUART struct {
	mu     sync.Mutex
	wire   bytes.Buffer
	rx     []byte
	breaks []bool
}

func (u *fakeUART) Write(p []byte) (int, error) {
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.wire.Write(p)
}
func (u *fakeUART) TryRead(p []byte) int {
	u.mu.Lock()
	defer u.mu.Unlock()
	n := copy(p, u.rx)
	u.rx = u.rx[n:]
	return n
}
func (u *fakeUART) SetBreak(on bool) error {
	u.breaks = append(u.breaks, on)
	return nil
}
func (u *fakeUART) written() []byte {
	u.mu.Lock()
	defer u.mu.Unlock()
	return append([]byte(nil), u.wire.Bytes()...)
}

type fakeHost struct {
	mu      sync.Mutex
	in      []byte
	out     bytes.Buffer
	onBreak func(time.Duration)
}

func (h *fakeHost) Write(p []byte) (int, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.out.Write(p)
}

func (h *fakeHost) TryReadByte() (byte, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if len(h.in) == 0 {
		return 0, false
	}
	b := h.in[0]
	h.in = h.in[1:]
	return b, true
}

func (h *fakeHost) Connected() bool                { return true }
func (h *fakeHost) OnBreak(fn func(time.Duration)) { h.onBreak = fn }

func (h *fakeHost) send(p ...byte) {
	h.mu.Lock()
	h.in = append(h.in, p...)
	h.mu.Unlock()
}

func (h *fakeHost) text() string {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.out.String()
}

func (h *fakeHost) reset() {
	h.mu.Lock()
	h.out.Reset()
	h.mu.Unlock()
}

type fakeSystem struct{ resets, boots int }

func (s *fakeSystem) Reset()           { s.resets++ }
func (s *fakeSystem) EnterBootloader() { s.boots++ }

// ---- fixture ----

type rig struct {
	b      *Bridge
	p      *Port
	sim    *simTCPC
	pins   pinFactory
	uart   *fakeUART
	host   *fakeHost
	host1  *fakeHost
	sys    *fakeSystem
	sleeps []time.Duration
}

func (r *rig) irqPin() *fakePin { return r.pins[pinIRQ] }

func newRig(t *testing.T) *rig {
	t.Helper()
	r := &rig{
		sim: newSim(),
		pins: pinFactory{
			pinSDA: {n: pinSDA, level: true}, pinSCL: {n: pinSCL, level: true},
			pinIRQ: {n: pinIRQ, level: true}, pinVBUS: {n: pinVBUS},
			pinSwap: {n: pinSwap}, pinSelUSB: {n: pinSelUSB}, pinLED: {n: pinLED},
		},
		uart:  &fakeUART{},
		host:  &fakeHost{},
		host1: &fakeHost{},
		sys:   &fakeSystem{},
	}
	set, err := halcore.ConfigurePins([]halcore.PinSpec{
		{Role: halcore.RoleLED, Pin: pinLED, Dir: halcore.DirOut, Enabled: true},
		{Role: halcore.RoleSDA, Pin: pinSDA, Dir: halcore.DirIn, Pull: halcore.PullUp, Enabled: true},
		{Role: halcore.RoleSCL, Pin: pinSCL, Dir: halcore.DirIn, Pull: halcore.PullUp, Enabled: true},
		{Role: halcore.RoleIRQ, Pin: pinIRQ, Dir: halcore.DirIn, Pull: halcore.PullUp, Enabled: true},
		{Role: halcore.RoleVBUS, Pin: pinVBUS, Dir: halcore.DirOut, Enabled: true},
		{Role: halcore.RoleSBUSwap, Pin: pinSwap, Dir: halcore.DirOut, Enabled: true},
		{Role: halcore.RoleSelUSB, Pin: pinSelUSB, Dir: halcore.DirOut, Initial: true, Enabled: true},
	}, r.pins)
	if err != nil {
		t.Fatal(err)
	}
	// ConfigurePins drove inputs as inputs; restore idle-high levels.
	r.pins[pinSDA].level, r.pins[pinSCL].level, r.pins[pinIRQ].level = true, true, true

	r.b = New([]PortConfig{
		{Host: r.host, HW: &Hardware{TCPC: r.sim, Pins: set, UART: r.uart}},
		{Host: r.host1},
	}, Options{
		System: r.sys,
		Sleep:  func(d time.Duration) { r.sleeps = append(r.sleeps, d) },
	})
	r.p = r.b.Port(0)
	return r
}

// setupRig returns a rig whose port 0 has completed setup.
func setupRig(t *testing.T) *rig {
	t.Helper()
	r := newRig(t)
	r.b.Setup()
	if !r.p.Present() {
		t.Fatalf("port 0 absent after setup:\n%s", r.host.text())
	}
	return r
}

// attached returns a rig in DFP_VBUS_ON with the partner on cc1/cc2.
func attached(t *testing.T, cc1, cc2 typec.CCLevel) *rig {
	t.Helper()
	r := setupRig(t)
	r.sim.cc1, r.sim.cc2 = cc1, cc2
	r.b.RunOnce()
	if r.p.State() != DFPVBUSOn {
		t.Fatalf("state = %s after attach, want DFP_VBUS_ON", r.p.State())
	}
	return r
}

// interrupt raises the chip interrupt with the given register bits and
// runs one loop pass.
func (r *rig) interrupt(irq, irqa, irqb uint8) {
	r.sim.irq |= irq
	r.sim.irqa |= irqa
	r.sim.irqb |= irqb
	r.irqPin().fire()
	r.b.RunOnce()
}

// receive queues a message from the partner and signals GoodCRC sent.
func (r *rig) receive(sop pd.SOP, m pd.Message) {
	r.sim.rx = append(r.sim.rx, rxFrame{sop: sop, m: m})
	r.interrupt(0, 0, irqBGCRCSent)
}

func (r *rig) logContains(t *testing.T, want string) {
	t.Helper()
	if !strings.Contains(r.host.text(), want) {
		t.Fatalf("log missing %q:\n%s", want, r.host.text())
	}
}
