// Package platform binds a board plan to concrete buses, pins and serial
// lines and produces the port table the bridge runs on.
package platform

import (
	"pdbridge-go/drivers/fusb302"
	"pdbridge-go/errcode"
	"pdbridge-go/services/bmc/internal/core"
	"pdbridge-go/services/bmc/internal/halcore"
	"pdbridge-go/services/bmc/internal/platform/setups"
)

// UARTFactory supplies configured device-side UARTs by plan id.
type UARTFactory interface {
	ByID(id string) (halcore.UARTPort, bool)
}

// UpstreamFactory opens the host channel of a port.
type UpstreamFactory interface {
	Open(u setups.UpstreamPlan) (halcore.Channel, error)
}

// Factories is what a platform provides for a plan.
type Factories struct {
	I2C       halcore.I2CBusFactory
	Pins      halcore.PinFactory
	UARTs     UARTFactory
	Upstreams UpstreamFactory
	System    halcore.System
}

// Ports builds one PortConfig per planned port. A port without an I2C
// bus is given a host channel only and stays absent.
func Ports(plan setups.ResourcePlan, f Factories) ([]core.PortConfig, error) {
	out := make([]core.PortConfig, 0, len(plan.Ports))
	for i, pp := range plan.Ports {
		ch, err := f.Upstreams.Open(pp.Upstream)
		if err != nil {
			return nil, &errcode.E{C: errcode.Of(err), Op: "platform.Ports", Msg: "upstream " + pp.Upstream.Kind, Err: err}
		}
		cfg := core.PortConfig{Host: ch}
		if pp.I2C == "" {
			out = append(out, cfg)
			continue
		}
		// Pins before the bus: bring-up samples SDA/SCL as inputs before the
		// first transfer configures the bus over them.
		pins, err := halcore.ConfigurePins(pp.Pins, f.Pins)
		if err != nil {
			return nil, err
		}
		bus, ok := f.I2C.ByID(pp.I2C)
		if !ok {
			return nil, &errcode.E{C: errcode.UnknownPort, Op: "platform.Ports", Msg: "i2c " + pp.I2C}
		}
		hw := &core.Hardware{
			TCPC: fusb302.New(bus, fusb302.Config{Address: pp.Addr}),
			Pins: pins,
		}
		if pp.UART != "" {
			u, ok := f.UARTs.ByID(pp.UART)
			if !ok {
				return nil, &errcode.E{C: errcode.UnknownPort, Op: "platform.Ports", Msg: "uart " + pp.UART}
			}
			hw.UART = u
		}
		if _, ok := pins.IRQ(); !ok {
			println("[platform] port", i, "has no interrupt line, events will be missed")
		}
		cfg.HW = hw
		out = append(out, cfg)
	}
	return out, nil
}

// openUARTs configures every planned UART through open and indexes the
// results by id. The first failure aborts with the UART named.
func openUARTs[T any](plans []setups.UARTPlan, open func(setups.UARTPlan) (T, error)) (map[string]T, error) {
	out := make(map[string]T, len(plans))
	for _, u := range plans {
		hw, err := open(u)
		if err != nil {
			return nil, &errcode.E{C: errcode.Of(err), Op: "platform.Open", Msg: "uart " + u.ID, Err: err}
		}
		out[u.ID] = hw
	}
	return out, nil
}
