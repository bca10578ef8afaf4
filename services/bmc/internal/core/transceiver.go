package core

import (
	"pdbridge-go/pd"
	"pdbridge-go/typec"
)

// Transceiver is the chip-control surface the policy engine drives. One
// instance per port, already bound to its bus and address.
type Transceiver interface {
	DeviceID() (uint8, error)
	Status0() (uint8, error)
	Init() error
	ResetPD() error
	SetRxEnable(on bool) error
	SetCC(p typec.Pull) error
	SelectRp(rp typec.RpValue) error
	SetPolarity(p typec.Polarity) error
	SetVCONN(on bool) error
	SetMsgHeader(pr pd.PowerRole, dr pd.DataRole) error
	Transmit(sop pd.SOP, m pd.Message) error
	// Receive returns errcode.RxEmpty when nothing is queued and
	// errcode.Discarded for frames that carry nothing for the engine.
	Receive() (pd.SOP, pd.Message, error)
	RxEmpty() (bool, error)
	// ReadIRQ returns and clears the three interrupt registers.
	ReadIRQ() (irq, irqa, irqb uint8, err error)
	CC() (cc1, cc2 typec.CCLevel, err error)
	VBUS() (bool, error)
}

// Interrupt bits, FUSB302 register layout.
const (
	irqVBUSOK     = 1 << 7 // INTERRUPT
	irqAHardReset = 1 << 0 // INTERRUPTA
	irqATxSuccess = 1 << 2 // INTERRUPTA
	irqBGCRCSent  = 1 << 0 // INTERRUPTB
)

// deviceIDValid is set in the identity register of every live part.
const deviceIDValid = 0x80
