// Package bmc runs the dual-port PD debug bridge on the selected platform.
package bmc

import (
	"context"
	"io"
	"time"

	"pdbridge-go/services/bmc/internal/core"
	"pdbridge-go/services/bmc/internal/halcore"
	"pdbridge-go/services/bmc/internal/platform"
	"pdbridge-go/services/bmc/internal/upstream"
)

const blinkInterval = 256 * time.Millisecond

const banner = "This is the Central Scrutinizer\n" +
	"Control character is ^_\n" +
	"Press ^_ + ? for help\n"

type Options struct {
	// BoardFile is the YAML board plan. MCU builds use their compiled-in
	// plan and ignore it.
	BoardFile string
}

// Run brings the board up, waits for a host to attach to any port,
// initialises the ports and services them until ctx is done.
func Run(ctx context.Context, opts Options) error {
	plan, err := platform.Plan(opts.BoardFile)
	if err != nil {
		return err
	}
	println("[bmc] board", plan.Name, "with", len(plan.Ports), "ports")

	wake := make(chan struct{}, 1)
	f, err := platform.Open(ctx, plan, wake)
	if err != nil {
		return err
	}
	ports, err := platform.Ports(plan, f)
	if err != nil {
		return err
	}
	b := core.New(ports, core.Options{System: f.System, Wake: wake})

	host, err := waitHost(ctx, ports, time.Sleep)
	if err != nil {
		return err
	}
	io.WriteString(upstream.NewTextWriter(host), banner)

	b.Setup()
	return b.Run(ctx)
}

// waitHost blinks the first port's LED until a host channel reports
// connected and returns that channel.
func waitHost(ctx context.Context, ports []core.PortConfig, sleep func(time.Duration)) (halcore.Channel, error) {
	var led halcore.GPIOPin
	if len(ports) > 0 && ports[0].HW != nil {
		led = ports[0].HW.Pins.Pin(halcore.RoleLED)
	}
	on := false
	for {
		for _, p := range ports {
			if p.Host != nil && p.Host.Connected() {
				return p.Host, nil
			}
		}
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if led != nil {
			led.Set(on)
			on = !on
		}
		sleep(blinkInterval)
	}
}
