package fusb302

// Register-level access. Every call is one bus transaction; the write of
// the register address and the read that follows are joined by a repeated
// start inside drivers.I2C.Tx.

func (d *Device) ReadReg8(reg uint8) (uint8, error) {
	d.w[0] = reg
	if err := d.i2c.Tx(d.addr, d.w[:1], d.r[:1]); err != nil {
		return 0, wrap("ReadReg8", err)
	}
	return d.r[0], nil
}

// ReadReg16 reads two consecutive registers, low byte first.
func (d *Device) ReadReg16(reg uint8) (uint16, error) {
	d.w[0] = reg
	if err := d.i2c.Tx(d.addr, d.w[:1], d.r[:2]); err != nil {
		return 0, wrap("ReadReg16", err)
	}
	return uint16(d.r[0]) | uint16(d.r[1])<<8, nil
}

func (d *Device) WriteReg8(reg, val uint8) error {
	d.w[0] = reg
	d.w[1] = val
	return wrap("WriteReg8", d.i2c.Tx(d.addr, d.w[:2], nil))
}

// WriteReg16 writes two consecutive registers, low byte first.
func (d *Device) WriteReg16(reg uint8, val uint16) error {
	d.w[0] = reg
	d.w[1] = byte(val)
	d.w[2] = byte(val >> 8)
	return wrap("WriteReg16", d.i2c.Tx(d.addr, d.w[:3], nil))
}

// Xfer writes out and then reads len(in) bytes in a single transaction.
// Either side may be empty.
func (d *Device) Xfer(out, in []byte) error {
	return wrap("Xfer", d.i2c.Tx(d.addr, out, in))
}
