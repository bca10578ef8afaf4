// Package fusb302 drives the ON Semiconductor FUSB302 Type-C port
// controller over I2C. It covers the source-side subset the bridge needs:
// termination control, manual CC detection, SOP* transmit and receive,
// and interrupt readout.
package fusb302

import (
	"time"

	"tinygo.org/x/drivers"

	"pdbridge-go/errcode"
	"pdbridge-go/pd"
	"pdbridge-go/typec"
)

// AddressDefault is the 7-bit address of FUSB302B(MPX|UCX).
const AddressDefault = 0x22

type Config struct {
	Address uint16
	// Settle is the wait between switching a comparator and sampling it.
	// Zero selects 250µs.
	Settle time.Duration
	// Sleep replaces time.Sleep, mainly for tests.
	Sleep func(time.Duration)
}

type Device struct {
	i2c  drivers.I2C
	addr uint16

	settle time.Duration
	sleep  func(time.Duration)

	// Shadow of the configuration the register file cannot tell us cheaply.
	pull      typec.Pull
	rp        typec.RpValue
	polarity  typec.Polarity
	vconn     bool
	rxEnabled bool

	// Fixed buffers to avoid per-call heap allocations.
	w [1 + 4 + 1 + pd.MaxMessageBytes + 4]byte
	r [3 + pd.MaxMessageBytes + 4]byte
}

func New(i2c drivers.I2C, cfg Config) *Device {
	addr := cfg.Address
	if addr == 0 {
		addr = AddressDefault
	}
	d := &Device{
		i2c:    i2c,
		addr:   addr,
		settle: cfg.Settle,
		sleep:  cfg.Sleep,
	}
	if d.settle == 0 {
		d.settle = 250 * time.Microsecond
	}
	if d.sleep == nil {
		d.sleep = time.Sleep
	}
	return d
}

// Address returns the resolved 7-bit bus address.
func (d *Device) Address() uint16 { return d.addr }

// DeviceID reads the version/revision register. A live part has bit 7 set.
func (d *Device) DeviceID() (uint8, error) {
	return d.ReadReg8(regDeviceID)
}

// Status0 returns the raw STATUS0 register.
func (d *Device) Status0() (uint8, error) {
	return d.ReadReg8(regStatus0)
}

// Init resets the part and leaves it with all blocks powered, interrupts
// unmasked for VBUS, CC, CRC and transmit events, auto-retry on, VCONN off
// and CC1 polarity.
func (d *Device) Init() error {
	if err := d.WriteReg8(regReset, resetSW); err != nil {
		return err
	}
	if err := d.WriteReg8(regMask, maskInit); err != nil {
		return err
	}
	if err := d.WriteReg8(regMaskA, maskAInit); err != nil {
		return err
	}
	if err := d.WriteReg8(regMaskB, maskBInit); err != nil {
		return err
	}
	if err := d.update(regControl0, control0IntMask, 0); err != nil {
		return err
	}
	if err := d.WriteReg8(regControl3, control3DefaultRetry); err != nil {
		return err
	}
	// Receive SOP'/SOP'' debug packets as well as SOP.
	if err := d.update(regControl1, control1EnSOP1D|control1EnSOP2D, control1EnSOP1D|control1EnSOP2D); err != nil {
		return err
	}
	if err := d.WriteReg8(regPower, powerAll); err != nil {
		return err
	}
	d.vconn = false
	d.rxEnabled = false
	if err := d.SetPolarity(typec.PolarityCC1); err != nil {
		return err
	}
	return d.SetVCONN(false)
}

// ResetPD resets the PD logic (message ID counters, FIFOs state machine).
func (d *Device) ResetPD() error {
	return d.WriteReg8(regReset, resetPD)
}

// SetMsgHeader sets the roles the chip stamps into auto-generated GoodCRC
// replies. Spec revision is fixed at 2.0.
func (d *Device) SetMsgHeader(pr pd.PowerRole, dr pd.DataRole) error {
	var v uint8 = switches1SpecRev0
	if pr == pd.PowerRoleSource {
		v |= switches1PowerRole
	}
	if dr == pd.DataRoleDFP {
		v |= switches1DataRole
	}
	return d.update(regSwitches1, switches1RolesMask|switches1SpecRevMsk, v)
}

// SetRxEnable turns on measurement of the active CC line, automatic GoodCRC
// and flushes the receive FIFO. Disabling reverses the first two.
func (d *Device) SetRxEnable(on bool) error {
	var meas uint8
	if on {
		meas = d.measBit()
	}
	if err := d.update(regSwitches0, switches0MeasMask, meas); err != nil {
		return err
	}
	var gcrc uint8
	if on {
		gcrc = switches1AutoGCRC
	}
	if err := d.update(regSwitches1, switches1AutoGCRC, gcrc); err != nil {
		return err
	}
	d.rxEnabled = on
	return d.update(regControl1, control1RxFlush, control1RxFlush)
}

func (d *Device) measBit() uint8 {
	if d.polarity == typec.PolarityCC2 {
		return switches0MeasCC2
	}
	return switches0MeasCC1
}

// update performs a read-modify-write of the bits in mask.
func (d *Device) update(reg, mask, val uint8) error {
	cur, err := d.ReadReg8(reg)
	if err != nil {
		return err
	}
	return d.WriteReg8(reg, cur&^mask|val&mask)
}

func wrap(op string, err error) error {
	return errcode.Wrap("fusb302."+op, errcode.MapDriverErr(err), err)
}
