package fusb302

import "pdbridge-go/typec"

// SetCC selects the termination presented on both CC lines.
func (d *Device) SetCC(p typec.Pull) error {
	var v uint8
	switch p {
	case typec.PullRp:
		v = switches0PuEn1 | switches0PuEn2
	case typec.PullRd:
		v = switches0Pdwn1 | switches0Pdwn2
	}
	if err := d.update(regSwitches0, switches0PullMask, v); err != nil {
		return err
	}
	d.pull = p
	return nil
}

// SelectRp sets the advertised source current.
func (d *Device) SelectRp(rp typec.RpValue) error {
	v := uint8(control0HostCurUS)
	switch rp {
	case typec.Rp1A5:
		v = control0HostCur15
	case typec.Rp3A0:
		v = control0HostCur30
	}
	if err := d.update(regControl0, control0HostCur, v); err != nil {
		return err
	}
	d.rp = rp
	return nil
}

// SetPolarity routes transmit to the chosen CC line, measures it when
// receive is on, and moves VCONN to the other line when it is on.
func (d *Device) SetPolarity(p typec.Polarity) error {
	d.polarity = p
	var sw0 uint8
	if d.rxEnabled {
		sw0 |= d.measBit()
	}
	if d.vconn {
		sw0 |= d.vconnBit()
	}
	if err := d.update(regSwitches0, switches0MeasMask|switches0VconnMask, sw0); err != nil {
		return err
	}
	tx := uint8(switches1TxCC1)
	if p == typec.PolarityCC2 {
		tx = switches1TxCC2
	}
	return d.update(regSwitches1, switches1TxMask, tx)
}

func (d *Device) vconnBit() uint8 {
	if d.polarity == typec.PolarityCC2 {
		return switches0VconnCC1
	}
	return switches0VconnCC2
}

// SetVCONN sources VCONN on the CC line opposite the active one.
func (d *Device) SetVCONN(on bool) error {
	d.vconn = on
	var v uint8
	if on {
		v = d.vconnBit()
	}
	return d.update(regSwitches0, switches0VconnMask, v)
}

// VBUS reports whether VBUS is above the vSafe5V threshold.
func (d *Device) VBUS() (bool, error) {
	s, err := d.ReadReg8(regStatus0)
	if err != nil {
		return false, err
	}
	return s&status0VBUSOK != 0, nil
}

// CC reads the termination seen on both CC lines. With Rp applied the
// partner's Rd/Ra is found with the MDAC comparator; with Rd applied the
// source's advertisement comes from BC_LVL.
func (d *Device) CC() (cc1, cc2 typec.CCLevel, err error) {
	switch d.pull {
	case typec.PullRp:
		if cc1, err = d.sourceCC(switches0MeasCC1); err != nil {
			return
		}
		cc2, err = d.sourceCC(switches0MeasCC2)
	case typec.PullRd:
		if cc1, err = d.sinkCC(switches0MeasCC1); err != nil {
			return
		}
		cc2, err = d.sinkCC(switches0MeasCC2)
	}
	return
}

func (d *Device) thresholds() (vnc, rd uint8) {
	switch d.rp {
	case typec.Rp1A5:
		return mdacMV(1600), mdacMV(400)
	case typec.Rp3A0:
		return mdacMV(2600), mdacMV(800)
	}
	return mdacMV(1600), mdacMV(200)
}

// withMeas points the comparator at one CC line, runs fn, and restores
// SWITCHES0 and MEASURE.
func (d *Device) withMeas(meas uint8, fn func() (typec.CCLevel, error)) (typec.CCLevel, error) {
	sw0, err := d.ReadReg8(regSwitches0)
	if err != nil {
		return typec.CCOpen, err
	}
	mr, err := d.ReadReg8(regMeasure)
	if err != nil {
		return typec.CCOpen, err
	}
	if err := d.WriteReg8(regSwitches0, sw0&^switches0MeasMask|meas); err != nil {
		return typec.CCOpen, err
	}
	l, ferr := fn()
	if err := d.WriteReg8(regMeasure, mr); err != nil && ferr == nil {
		ferr = err
	}
	if err := d.WriteReg8(regSwitches0, sw0); err != nil && ferr == nil {
		ferr = err
	}
	return l, ferr
}

func (d *Device) compare(mdac uint8) (bool, error) {
	if err := d.WriteReg8(regMeasure, mdac&measureMDACMask); err != nil {
		return false, err
	}
	d.sleep(d.settle)
	s, err := d.ReadReg8(regStatus0)
	if err != nil {
		return false, err
	}
	return s&status0Comp != 0, nil
}

func (d *Device) sourceCC(meas uint8) (typec.CCLevel, error) {
	vnc, rd := d.thresholds()
	return d.withMeas(meas, func() (typec.CCLevel, error) {
		open, err := d.compare(vnc)
		if err != nil || open {
			return typec.CCOpen, err
		}
		aboveRd, err := d.compare(rd)
		if err != nil {
			return typec.CCOpen, err
		}
		if aboveRd {
			return typec.CCRd, nil
		}
		return typec.CCRa, nil
	})
}

func (d *Device) sinkCC(meas uint8) (typec.CCLevel, error) {
	return d.withMeas(meas, func() (typec.CCLevel, error) {
		d.sleep(d.settle)
		s, err := d.ReadReg8(regStatus0)
		if err != nil {
			return typec.CCOpen, err
		}
		switch s & status0BCLvl {
		case 1:
			return typec.CCSinkDefault, nil
		case 2:
			return typec.CCSink1A5, nil
		case 3:
			return typec.CCSink3A0, nil
		}
		return typec.CCOpen, nil
	})
}
