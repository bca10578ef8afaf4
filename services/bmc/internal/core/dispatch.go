package core

import "pdbridge-go/errcode"

// maxDrain bounds one receive drain so a wedged FIFO cannot stall the loop.
const maxDrain = 32

// OnIRQ is the shared chip-interrupt handler. It runs in interrupt
// context: it marks every port wired to pin as pending, masks the line
// until the run loop re-arms it, and wakes the loop.
func (b *Bridge) OnIRQ(pin int) {
	for _, p := range b.ports {
		if p.irq == nil || p.irq.Number() != pin {
			continue
		}
		p.pending.Store(true)
		p.irq.EnableIRQ(false)
	}
	b.Wake()
}

// handleIRQ reads and clears the interrupt registers and maps them to
// events in a fixed order.
func (p *Port) handleIRQ() {
	t := p.tcpc()
	irq, irqa, irqb, err := t.ReadIRQ()
	if !p.check(err) {
		return
	}
	p.dprintf("IRQ=%x %x %x\n", irq, irqa, irqb)

	// An unreadable VBUS level is noise, not a loss of VBUS.
	if irq&irqVBUSOK != 0 {
		switch vbus, err := t.VBUS(); {
		case !p.check(err):
		case vbus:
			p.cprintf("IRQ: VBUSOK (VBUS=ON)\n")
			p.sendSourceCap()
			p.debugProbe()
		default:
			p.cprintf("IRQ: VBUSOK (VBUS=OFF)\n")
			p.disconnect()
		}
	}
	if irqa&irqAHardReset != 0 {
		p.cprintf("IRQ: HARDRESET\n")
		p.disconnect()
	}
	if irqa&irqATxSuccess != 0 {
		p.onTxComplete()
	}
	if irqb&irqBGCRCSent != 0 {
		p.drainRx()
	}
}

// drainRx hands every queued message to onMessage until the FIFO is empty.
func (p *Port) drainRx() {
	t := p.tcpc()
	for i := 0; i < maxDrain; i++ {
		empty, err := t.RxEmpty()
		if !p.check(err) || empty {
			return
		}
		sop, m, err := t.Receive()
		switch errcode.Of(err) {
		case errcode.OK:
			p.onMessage(sop, m)
		case errcode.Discarded:
		case errcode.RxEmpty:
			return
		default:
			p.check(err)
			return
		}
	}
}

func (p *Port) armIRQ() {
	if p.irq != nil {
		p.irq.EnableIRQ(true)
	}
}
