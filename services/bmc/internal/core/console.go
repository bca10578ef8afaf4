package core

import (
	"time"

	"pdbridge-go/x/fmtx"
)

const escapeByte = 0x1f

// Escape commands.
const (
	cmdBreak       = 0x00 // ^@
	cmdDebug       = 0x04 // ^D
	cmdReset       = 0x12 // ^R
	cmdDisconnect  = 0x18 // ^X
	cmdProgramming = 0x1e // ^^
)

const inbandBreak = time.Millisecond

const helpText = "^_    Escape character\n" +
	"^_ ^_ Raw ^_\n" +
	"^_ ^@ Send break\n" +
	"^_ !  DUT reset\n" +
	"^_ 1  Serial on primary USB pins\n" +
	"^_ 2  Serial on SBU pins\n" +
	"^_ ^R Central Scrutinizer reset\n" +
	"^_ ^^ Central Scrutinizer reset to programming mode\n" +
	"^_ ^X Force disconnect\n" +
	"^_ ^D Toggle debug\n" +
	"^_ ^M Send empty debug VDM\n" +
	"^_ ?  This message\n"

// serviceSerial moves bytes between the host channel and the port UART
// and interprets escape commands. It reports whether anything happened.
func (p *Port) serviceSerial() bool {
	active := false
	if d := p.breakReq.Swap(0); d > 0 {
		p.Break(time.Duration(d))
		active = true
	}
	for {
		c, ok := p.host.TryReadByte()
		if !ok {
			break
		}
		active = true
		if !p.escape {
			if c == escapeByte {
				p.escape = true
				continue
			}
			p.toUART(c)
			continue
		}
		p.escape = false
		p.command(c)
	}
	if p.hw.UART != nil {
		for {
			n := p.hw.UART.TryRead(p.rx[:])
			if n == 0 {
				break
			}
			active = true
			p.host.Write(p.rx[:n])
		}
	}
	return active
}

func (p *Port) toUART(c byte) {
	if p.hw.UART == nil {
		return
	}
	p.rx[0] = c
	p.hw.UART.Write(p.rx[:1])
}

// command runs one escaped byte. Unknown bytes are dropped.
func (p *Port) command(c byte) {
	switch c {
	case escapeByte:
		p.toUART(c)
	case '!':
		p.SendAction(ActionReboot)
	case cmdReset:
		p.cprintf("Resetting\n")
		if p.b.sys != nil {
			p.b.sys.Reset()
		}
	case cmdProgramming:
		p.cprintf("Rebooting to programming mode\n")
		if p.b.sys != nil {
			p.b.sys.EnterBootloader()
		}
	case cmdDisconnect:
		p.pending.Store(true)
		p.disconnect()
	case cmdDebug:
		p.verbose = !p.verbose
		p.cprintf("Debug %s\n", onOff(p.verbose))
	case cmdBreak:
		p.Break(inbandBreak)
	case '\r':
		p.debugProbe()
	case '1':
		p.SelectRoute(RouteUSBPrimary)
	case '2':
		p.SelectRoute(RouteSBU)
	case '?':
		p.help()
	}
}

func (p *Port) help() {
	p.out.Write([]byte(helpText))
	for _, q := range p.b.ports {
		fmtx.Fprintf(p.out, "P%d: %s\n", q.idx, presence(q.Present()))
	}
}

// Break holds the UART line in break for d.
func (p *Port) Break(d time.Duration) {
	if p.hw == nil || p.hw.UART == nil {
		return
	}
	p.check(p.hw.UART.SetBreak(true))
	p.b.sleep(d)
	p.check(p.hw.UART.SetBreak(false))
}

func onOff(b bool) string {
	if b {
		return "on"
	}
	return "off"
}

func presence(b bool) string {
	if b {
		return "present"
	}
	return "absent"
}
