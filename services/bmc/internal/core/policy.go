package core

import (
	"time"

	"pdbridge-go/pd"
	"pdbridge-go/services/bmc/internal/halcore"
	"pdbridge-go/typec"
)

const (
	pollInterval     = 200 * time.Millisecond
	vbusOffSettle    = 800 * time.Millisecond
	setupSettle      = 500 * time.Millisecond
	srcCapRetryTicks = 37
	debounceLimit    = 5
)

// Fixed payloads.
const (
	// 5V fixed supply, dual-role, USB communications capable.
	srcCapPDO = 0x37019096
	// Object 1, USB communications capable, 0mA.
	requestRDO = 1<<28 | 1<<25
	// USB communications capable, 0mA.
	sinkCapPDO = 1 << 26
	// ID header: USB device, VID Apple. Product: PID 0x0001, bcdDevice 0x100.
	identityIDH = 1<<30 | 0x05ac
	identityPID = 0x0001<<16 | 0x0100
)

// setup brings the port from power-on to DISCONNECTED, or marks it absent.
func (p *Port) setup() {
	p.state = Disconnected
	p.debounce = 0
	p.srcCapTimer = 0
	p.escape = false
	p.verbose = false
	if p.hw == nil {
		return
	}
	pins := p.hw.Pins

	// Without pull-ups on the bus there is nothing on the other end.
	if !pins.Get(halcore.RoleSCL) || !pins.Get(halcore.RoleSDA) {
		p.cprintf("I2C pins low while idling, skipping port\n")
		p.hw = nil
		return
	}

	pins.Set(halcore.RoleLED, true)
	p.vbusOff()

	id, err := p.tcpc().DeviceID()
	p.cprintf("Device ID: 0x%x\n", id)
	if err != nil || id&deviceIDValid == 0 {
		p.cprintf("Invalid device ID. Is the FUSB302 alive?\n")
		p.hw = nil
		return
	}

	p.cprintf("Init\n")
	t := p.tcpc()
	p.check(t.Init())
	p.check(t.ResetPD())
	p.check(t.SetRxEnable(false))
	p.check(t.SetCC(typec.PullOpen))
	pins.Set(halcore.RoleSBUSwap, false)
	pins.Set(halcore.RoleSelUSB, true)
	p.b.sleep(setupSettle)

	if s0, err := t.Status0(); p.check(err) {
		p.cprintf("STATUS0: 0x%x\n", s0)
	}

	if p.irq != nil {
		p.check(p.irq.SetIRQ(p.b.OnIRQ))
		p.irq.EnableIRQ(true)
	}

	p.disconnect()
	p.debugProbe()
}

func (p *Port) vbusOff() {
	pins := p.hw.Pins
	pins.Drive(halcore.RoleVBUS, false)
	p.b.sleep(vbusOffSettle)
	pins.Release(halcore.RoleVBUS)
	p.cprintf("VBUS OFF\n")
}

func (p *Port) vbusOn() {
	p.cprintf("VBUS ON\n")
	p.hw.Pins.Drive(halcore.RoleVBUS, true)
}

// disconnect is the common exit for hard reset, VBUS loss and the
// operator command. Running it twice leaves the same state as once.
func (p *Port) disconnect() {
	p.vbusOff()
	p.cprintf("Disconnected\n")
	t := p.tcpc()
	p.check(t.ResetPD())
	p.check(t.SetVCONN(false))
	p.check(t.SetRxEnable(false))
	p.check(t.SelectRp(typec.RpUSB))
	p.check(t.SetCC(typec.PullRp))
	p.debounce = 0
	p.setState(Disconnected)
}

// readCC returns both CC levels; a failed read counts as open.
func (p *Port) readCC() (cc1, cc2 typec.CCLevel) {
	cc1, cc2, err := p.tcpc().CC()
	if !p.check(err) {
		return typec.CCOpen, typec.CCOpen
	}
	return cc1, cc2
}

func (p *Port) pollDisconnected() {
	cc1, cc2 := p.readCC()
	p.dprintf("Poll: cc1=%d cc2=%d\n", int(cc1), int(cc2))
	if cc1.Attached() || cc2.Attached() {
		p.attachDFP()
		return
	}
	p.b.sleep(pollInterval)
}

// orient reads CC again and applies polarity. It reports false for a
// reading below the attach threshold on both lines.
func (p *Port) orient(pr pd.PowerRole, dr pd.DataRole) (cc1, cc2 typec.CCLevel, ok bool) {
	cc1, cc2 = p.readCC()
	p.cprintf("Connected: cc1=%d cc2=%d\n", int(cc1), int(cc2))
	if !cc1.Attached() && !cc2.Attached() {
		p.cprintf("Nope.\n")
		return cc1, cc2, false
	}
	t := p.tcpc()
	p.check(t.ResetPD())
	p.check(t.SetMsgHeader(pr, dr))
	return cc1, cc2, true
}

func (p *Port) setPolarity(cc1, cc2 typec.CCLevel) {
	p.polarity = typec.Orient(cc1, cc2)
	p.check(p.tcpc().SetPolarity(p.polarity))
	p.cprintf("Polarity: %s\n", p.polarity)
}

// attachDFP takes the source/DFP role on a partner presenting Rd.
func (p *Port) attachDFP() {
	cc1, cc2, ok := p.orient(pd.PowerRoleSource, pd.DataRoleDFP)
	if !ok {
		return
	}
	t := p.tcpc()
	p.check(t.SetVCONN(false))
	p.setPolarity(cc1, cc2)
	// Both lines terminated means a cable with an e-marker on the far side.
	if cc1 != typec.CCOpen && cc2 != typec.CCOpen {
		p.check(t.SetVCONN(true))
		p.cprintf("VCONN ON\n")
	}
	p.check(t.SetRxEnable(true))
	p.vbusOn()
	p.srcCapTimer = 0
	p.setState(DFPVBUSOn)
	p.debugProbe()
}

// AttachSink takes the sink/UFP role. The DFP run path never selects it;
// it exists for boards strapped as consumers.
func (p *Port) AttachSink() {
	if p.hw == nil {
		return
	}
	cc1, cc2, ok := p.orient(pd.PowerRoleSink, pd.DataRoleUFP)
	if !ok {
		return
	}
	p.setPolarity(cc1, cc2)
	p.check(p.tcpc().SetRxEnable(true))
	p.setState(Connected)
}

func (p *Port) tickVBUSOn() {
	p.srcCapTimer++
	if p.srcCapTimer > srcCapRetryTicks {
		p.sendSourceCap()
		p.debugProbe()
	}
}

func (p *Port) onTxComplete() {
	switch p.state {
	case DFPVBUSOn:
		p.setState(DFPConnected)
		p.sendRoute()
	case DFPAccept:
		p.send(pd.SOP0, pd.New(pd.TypePSReady, pd.PowerRoleSource, pd.DataRoleDFP), ">PS_RDY\n")
		p.setState(Idle)
	}
}

// tick runs one state-machine step followed by the CC debounce.
func (p *Port) tick() {
	switch p.state {
	case Disconnected:
		p.pollDisconnected()
	case DFPVBUSOn:
		p.tickVBUSOn()
	case Ready:
		p.setState(Idle)
	case Connected, DFPConnected, DFPAccept, Idle:
	default:
		p.cprintf("Invalid state %d\n", int(p.state))
	}
	if p.state == Disconnected {
		return
	}
	cc1, cc2 := p.readCC()
	if cc1.Attached() || cc2.Attached() {
		p.debounce = 0
		return
	}
	p.debounce++
	if p.debounce > debounceLimit {
		p.cprintf("Disconnect: cc1=%d cc2=%d\n", int(cc1), int(cc2))
		p.disconnect()
	}
}

func (p *Port) send(sop pd.SOP, m pd.Message, note string) {
	p.check(p.tcpc().Transmit(sop, m))
	p.cprintf("%s", note)
}

func (p *Port) sendSourceCap() {
	p.send(pd.SOP0, pd.New(pd.TypeSourceCap, pd.PowerRoleSource, pd.DataRoleDFP, srcCapPDO), ">SOURCE_CAP\n")
	p.srcCapTimer = 0
}

func (p *Port) sendRequest() {
	p.send(pd.SOP0, pd.New(pd.TypeRequest, pd.PowerRoleSink, pd.DataRoleUFP, requestRDO), ">REQUEST\n")
}

func (p *Port) sendSinkCap() {
	p.send(pd.SOP0, pd.New(pd.TypeSinkCap, pd.PowerRoleSource, pd.DataRoleDFP, sinkCapPDO), ">SINK_CAP\n")
	p.setState(Ready)
}

func (p *Port) accept() {
	p.send(pd.SOP0, pd.New(pd.TypeAccept, pd.PowerRoleSource, pd.DataRoleDFP), ">ACCEPT\n")
	p.setState(DFPAccept)
}

func (p *Port) reject() {
	p.send(pd.SOP0, pd.New(pd.TypeReject, pd.PowerRoleSource, pd.DataRoleDFP), ">REJECT\n")
	p.setState(Idle)
}

// onMessage dispatches one received message.
func (p *Port) onMessage(sop pd.SOP, m pd.Message) {
	if m.IsData() {
		switch m.Type() {
		case pd.TypeSourceCap:
			pdo := pd.FixedSupplyPDO(m.Data[0])
			p.cprintf("<SOURCE_CAP: %x\n", m.Data[0])
			if pdo.IsFixed() {
				p.dprintf("  fixed %dmV %dmA\n", pdo.Voltage(), pdo.MaxCurrent())
			}
			p.sendRequest()
		case pd.TypeRequest:
			p.cprintf("<REQUEST: %x\n", m.Data[0])
			p.dprintf("  object %d\n", pd.RequestDO(m.Data[0]).SelectedObjectPosition())
			p.accept()
		case pd.TypeVendorDefined:
			p.onVDM(sop, m)
		default:
			p.dump("<UNK DATA ", sop, m)
		}
		return
	}
	switch m.Type() {
	case pd.TypeAccept:
		p.cprintf("<ACCEPT\n")
	case pd.TypeReject:
		p.cprintf("<REJECT\n")
	case pd.TypePSReady:
		p.cprintf("<PS_RDY\n")
	case pd.TypePRSwap:
		p.cprintf("<PR_SWAP\n")
		p.reject()
	case pd.TypeDRSwap:
		p.cprintf("<DR_SWAP\n")
		p.reject()
	case pd.TypeGetSinkCap:
		p.cprintf("<GET_SINK_CAP\n")
		p.sendSinkCap()
	default:
		p.dump("<UNK CTL ", sop, m)
	}
}

// dump logs a message verbatim as "RX <sop> (n) [hdr] obj...".
func (p *Port) dump(prefix string, sop pd.SOP, m pd.Message) {
	var b [3 * pd.MaxMessageBytes]byte
	p.cprintf("%sRX %s %s\n", prefix, sop, m.AppendDump(b[:0]))
}
