package pd

// FixedSupplyPDO is a Fixed Supply Power Data Object.
type FixedSupplyPDO uint32

// Voltage returns voltage in millivolts.
func (o FixedSupplyPDO) Voltage() uint16 {
	return uint16(((o >> 10) & (1<<10 - 1)) * 50)
}

// MaxCurrent returns maximum current in milliamps.
func (o FixedSupplyPDO) MaxCurrent() uint16 {
	return uint16((o & (1<<10 - 1)) * 10)
}

// IsFixed reports whether the object type bits select a fixed supply.
func (o FixedSupplyPDO) IsFixed() bool { return o>>30 == 0 }

// RequestDO is a Request Data Object.
type RequestDO uint32

// SelectedObjectPosition returns the requested PDO position, starting at 1.
func (o RequestDO) SelectedObjectPosition() uint8 {
	return uint8(o >> 28)
}

// USBCommCapable reports the USB communications capable flag.
func (o RequestDO) USBCommCapable() bool {
	return o&(1<<25) != 0
}
