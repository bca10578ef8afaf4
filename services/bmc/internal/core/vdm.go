package core

import (
	"pdbridge-go/pd"
	"pdbridge-go/services/bmc/internal/halcore"
	"pdbridge-go/typec"
)

// Route selects which connector pins carry the DUT's debug UART. The
// value is the bit index used in the serial SET ACTION.
type Route uint8

const (
	RouteUSBPrimary Route = iota
	RouteUSBAlternate
	RouteSBU
)

var routeNames = [...]string{
	RouteUSBPrimary:   "USB (primary)",
	RouteUSBAlternate: "USB (alternate)",
	RouteSBU:          "SBU1/2",
}

func (r Route) String() string {
	if int(r) < len(routeNames) {
		return routeNames[r]
	}
	return "?"
}

// Vendor command space of the DUT's debug controller.
const (
	appleSVID    = 0x05ac
	cmdSetAction = 0x12
)

var (
	discoverIdentityREQ = pd.NewStructuredVDM(pd.SVIDPDSID, pd.CmdTypeREQ, pd.CmdDiscoverIdentity)
	setActionHeader     = uint32(pd.NewStructuredVDM(appleSVID, pd.CmdTypeREQ, cmdSetAction))
)

// Action is an outbound SET ACTION request.
type Action struct {
	Name string
	VDOs []uint32
}

var (
	ActionReboot  = Action{Name: "reboot", VDOs: []uint32{0x0105, 0x8000 << 16}}
	ActionPDReset = Action{Name: "PD reset", VDOs: []uint32{0x0103, 0x8000 << 16}}
)

// routeVDO is the serial-route action: route bit in the upper half, action
// 0x0306 in the lower.
func routeVDO(r Route) uint32 {
	return (0x0180|uint32(1)<<r)<<16 | 0x0306
}

func (p *Port) sendDebug(m pd.Message, note string) {
	p.send(pd.SOPDoublePrimeDebug, m, note)
}

// debugProbe sends an empty vendor message on SOP''_Debug.
func (p *Port) debugProbe() {
	p.sendDebug(pd.New(pd.TypeVendorDefined, pd.PowerRoleSource, pd.DataRoleDFP, 0), "Empty debug message\n")
}

// SendAction issues a SET ACTION on the debug channel.
func (p *Port) SendAction(a Action) {
	objs := append([]uint32{setActionHeader}, a.VDOs...)
	p.sendDebug(pd.New(pd.TypeVendorDefined, pd.PowerRoleSource, pd.DataRoleDFP, objs...), ">VDM SET ACTION "+a.Name+"\n")
}

// sendRoute sends the serial-route action for the current route and sets
// the mux outputs to match.
func (p *Port) sendRoute() {
	m := pd.New(pd.TypeVendorDefined, pd.PowerRoleSource, pd.DataRoleDFP, setActionHeader, routeVDO(p.route))
	p.sendDebug(m, ">VDM serial -> "+p.route.String()+"\n")
	p.applyRoute()
}

// applyRoute drives the lane-swap and source-select outputs. SBU lanes are
// swapped only when the partner came up on CC2.
func (p *Port) applyRoute() {
	pins := p.hw.Pins
	pins.Set(halcore.RoleSelUSB, p.route != RouteSBU)
	pins.Set(halcore.RoleSBUSwap, p.route == RouteSBU && p.polarity == typec.PolarityCC2)
}

// SelectRoute changes the route and asks the DUT to reset its PD logic,
// which brings the link back through DFP_CONNECTED with the new route.
func (p *Port) SelectRoute(r Route) {
	p.route = r
	p.cprintf("Route: %s\n", r)
	p.applyRoute()
	p.SendAction(ActionPDReset)
}

func (p *Port) onVDM(sop pd.SOP, m pd.Message) {
	if pd.VDMHeader(m.Data[0]) == discoverIdentityREQ {
		p.cprintf("<VDM DISCOVER_IDENTITY\n")
		ack := uint32(discoverIdentityREQ.WithCommandType(pd.CmdTypeACK))
		p.send(pd.SOP0, pd.New(pd.TypeVendorDefined, pd.PowerRoleSink, pd.DataRoleUFP,
			ack, identityIDH, 0, identityPID), ">VDM DISCOVER_IDENTITY\n")
		p.setState(Ready)
		return
	}
	p.dump("<VDM ", sop, m)
}
