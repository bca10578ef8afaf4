package setups

import "pdbridge-go/services/bmc/internal/halcore"

// PicoDual is the two-port carrier for a Raspberry Pi Pico. Port 0 talks
// to the host over USB; port 1 has no second USB interface and uses
// uart1 as its console. SDA and SCL carry no internal pull: with no
// transceiver fitted the lines float low and the port is skipped.
var PicoDual = ResourcePlan{
	Name: "pico-dual",
	I2C: []I2CPlan{
		{ID: "i2c0", SDA: 16, SCL: 17, Hz: 400_000},
		{ID: "i2c1", SDA: 22, SCL: 27, Hz: 400_000},
	},
	UART: []UARTPlan{
		{ID: "uart0", TX: 12, RX: 13, Baud: 115200},
		{ID: "uart1", TX: 8, RX: 9, Baud: 115200},
	},
	Ports: []PortPlan{
		{
			I2C:      "i2c0",
			Addr:     DefaultAddr,
			UART:     "uart0",
			Upstream: UpstreamPlan{Kind: UpstreamUSB},
			Pins: []halcore.PinSpec{
				{Role: halcore.RoleLED, Pin: 25, Dir: halcore.DirOut, Enabled: true},
				{Role: halcore.RoleSDA, Pin: 16, Dir: halcore.DirIn, Enabled: true},
				{Role: halcore.RoleSCL, Pin: 17, Dir: halcore.DirIn, Enabled: true},
				{Role: halcore.RoleIRQ, Pin: 18, Dir: halcore.DirIn, Pull: halcore.PullUp, Enabled: true},
				{Role: halcore.RoleVBUS, Pin: 26, Dir: halcore.DirIn, Enabled: true},
				{Role: halcore.RoleSBUSwap, Pin: 20, Dir: halcore.DirOut, Enabled: true},
				{Role: halcore.RoleSelUSB, Pin: 7, Dir: halcore.DirOut, Initial: true, Enabled: true},
			},
		},
		{
			I2C:      "i2c1",
			Addr:     DefaultAddr,
			Upstream: UpstreamPlan{Kind: UpstreamUART, ID: "uart1"},
			Pins: []halcore.PinSpec{
				// Shared with port 0.
				{Role: halcore.RoleLED, Pin: 25, Dir: halcore.DirOut},
				{Role: halcore.RoleSDA, Pin: 22, Dir: halcore.DirIn, Enabled: true},
				{Role: halcore.RoleSCL, Pin: 27, Dir: halcore.DirIn, Enabled: true},
				{Role: halcore.RoleIRQ, Pin: 19, Dir: halcore.DirIn, Pull: halcore.PullUp, Enabled: true},
				{Role: halcore.RoleVBUS, Pin: 28, Dir: halcore.DirIn, Enabled: true},
				{Role: halcore.RoleSBUSwap, Pin: 21, Dir: halcore.DirOut, Enabled: true},
				{Role: halcore.RoleSelUSB, Pin: 6, Dir: halcore.DirOut, Initial: true, Enabled: true},
			},
		},
	},
}
