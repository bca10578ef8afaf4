package fusb302

import (
	"pdbridge-go/errcode"
	"pdbridge-go/pd"
)

var sopTokens = [...][4]byte{
	pd.SOP0:                {tokSync1, tokSync1, tokSync1, tokSync2},
	pd.SOPPrime:            {tokSync1, tokSync1, tokSync3, tokSync3},
	pd.SOPDoublePrime:      {tokSync1, tokSync3, tokSync1, tokSync3},
	pd.SOPPrimeDebug:       {tokSync1, tokRst2, tokRst2, tokSync3},
	pd.SOPDoublePrimeDebug: {tokSync1, tokRst2, tokSync3, tokSync2},
}

// Transmit flushes the TX FIFO and queues m on the given SOP. The packet
// leaves as soon as the TXON token lands; completion is reported through
// the TX_SUCCESS or RETRYFAIL interrupt.
func (d *Device) Transmit(sop pd.SOP, m pd.Message) error {
	if int(sop) >= len(sopTokens) {
		return &errcode.E{C: errcode.InvalidParams, Op: "fusb302.Transmit", Msg: "sop"}
	}
	if err := d.update(regControl0, control0TxFlush, control0TxFlush); err != nil {
		return err
	}
	b := d.w[:0]
	b = append(b, regFIFOs)
	b = append(b, sopTokens[sop][:]...)
	b = append(b, tokPackSym|byte(m.Len()))
	b = m.AppendBytes(b)
	b = append(b, tokJamCRC, tokEOP, tokTxOff, tokTxOn)
	if err := d.i2c.Tx(d.addr, b, nil); err != nil {
		return errcode.Wrap("fusb302.Transmit", errcode.TxFailed, err)
	}
	return nil
}

// RxEmpty reports whether the receive FIFO holds no packet.
func (d *Device) RxEmpty() (bool, error) {
	s, err := d.ReadReg8(regStatus1)
	if err != nil {
		return true, err
	}
	return s&status1RxEmpty != 0, nil
}

// Receive pops one packet from the receive FIFO. It returns
// errcode.RxEmpty when there is none and errcode.Discarded for GoodCRC
// frames, which are consumed but not returned.
func (d *Device) Receive() (pd.SOP, pd.Message, error) {
	var m pd.Message
	empty, err := d.RxEmpty()
	if err != nil {
		return pd.SOPUnknown, m, err
	}
	if empty {
		return pd.SOPUnknown, m, errcode.RxEmpty
	}
	// Token plus header.
	d.w[0] = regFIFOs
	if err := d.i2c.Tx(d.addr, d.w[:1], d.r[:3]); err != nil {
		return pd.SOPUnknown, m, wrap("Receive", err)
	}
	sop := sopFromToken(d.r[0])
	m.Header = pd.DecodeHeader(d.r[1:3])

	// Data objects and the trailing CRC, which is dropped.
	n := 4*int(m.DataObjectCount()) + 4
	if err := d.i2c.Tx(d.addr, d.w[:1], d.r[:n]); err != nil {
		return sop, m, wrap("Receive", err)
	}
	m.DecodeObjects(d.r[:n-4])

	if m.Is(pd.TypeGoodCRC, false) {
		return sop, m, errcode.Discarded
	}
	return sop, m, nil
}

func sopFromToken(t byte) pd.SOP {
	switch t & rxTokMask {
	case rxTokSOP:
		return pd.SOP0
	case rxTokSOP1:
		return pd.SOPPrime
	case rxTokSOP2:
		return pd.SOPDoublePrime
	case rxTokSOP1DB:
		return pd.SOPPrimeDebug
	case rxTokSOP2DB:
		return pd.SOPDoublePrimeDebug
	}
	return pd.SOPUnknown
}

// ReadIRQ returns INTERRUPT, INTERRUPTA and INTERRUPTB. Reading clears them.
func (d *Device) ReadIRQ() (irq, irqa, irqb uint8, err error) {
	if irq, err = d.ReadReg8(regInterrupt); err != nil {
		return
	}
	if irqa, err = d.ReadReg8(regInterruptA); err != nil {
		return
	}
	irqb, err = d.ReadReg8(regInterruptB)
	return
}
