package platform

import (
	"tinygo.org/x/drivers"

	"pdbridge-go/errcode"
)

// lazyBus opens its bus on the first transfer. A failed open is reported
// on that transfer and retried on the next.
type lazyBus struct {
	id   string
	open func() (drivers.I2C, error)
	bus  drivers.I2C
}

func (l *lazyBus) Tx(addr uint16, w, r []byte) error {
	if l.bus == nil {
		b, err := l.open()
		if err != nil {
			return &errcode.E{C: errcode.Error, Op: "platform.i2c", Msg: "configure " + l.id, Err: err}
		}
		l.bus = b
	}
	return l.bus.Tx(addr, w, r)
}
