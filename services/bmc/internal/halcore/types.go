// services/bmc/internal/halcore/types.go
package halcore

import (
	"time"

	"tinygo.org/x/drivers"
)

// ---- Buses ----

// I2CBusFactory injects configured I²C instances by id.
// Uses the TinyGo drivers.I2C interface to remain compatible on MCU builds.
type I2CBusFactory interface {
	ByID(id string) (drivers.I2C, bool)
}

// ---- GPIO abstractions ----

type Pull uint8

const (
	PullNone Pull = iota
	PullUp
	PullDown
)

type GPIOPin interface {
	ConfigureInput(pull Pull) error
	ConfigureOutput(initial bool) error
	Set(level bool)
	Get() bool
	Number() int
}

// IRQPin extends GPIOPin with a level-low interrupt. The handler receives
// the pin number and runs in interrupt context: it must not block.
// EnableIRQ(true) on a line that is already low fires the handler.
type IRQPin interface {
	GPIOPin
	SetIRQ(handler func(pin int)) error
	EnableIRQ(on bool)
}

// PinFactory supplies GPIO pins by the configured number scheme.
type PinFactory interface {
	ByNumber(n int) (GPIOPin, bool)
}

// ---- Serial abstractions ----

// UARTPort is the device-side serial line of a port.
type UARTPort interface {
	Write(p []byte) (int, error)
	// TryRead copies whatever is buffered without blocking.
	TryRead(p []byte) int
	// SetBreak holds the line in the break condition while on.
	SetBreak(on bool) error
}

// Channel is the host-visible byte stream of a port.
type Channel interface {
	// Write transmits upstream. Bytes are dropped when nobody is listening.
	Write(p []byte) (int, error)
	TryReadByte() (byte, bool)
	Connected() bool
}

// BreakSource is implemented by channels that can observe a line break
// requested by the host.
type BreakSource interface {
	OnBreak(fn func(d time.Duration))
}

// ---- System ----

// System covers whole-device actions.
type System interface {
	// Reset restarts the device (watchdog on MCUs).
	Reset()
	// EnterBootloader restarts into firmware-update mode.
	EnterBootloader()
}
