package core

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"pdbridge-go/pd"
	"pdbridge-go/typec"
)

func TestEscapeEscapeSendsLiteral(t *testing.T) {
	r := setupRig(t)
	r.host.send(escapeByte, escapeByte)
	r.b.RunOnce()
	if got := r.uart.written(); !bytes.Equal(got, []byte{escapeByte}) {
		t.Fatalf("uart got %x, want single 1f", got)
	}
}

func TestPassthroughAndUnknownEscape(t *testing.T) {
	r := setupRig(t)
	mark := len(r.sim.tx)
	r.host.send('a', 'b', escapeByte, 'z', escapeByte, 'D', 'c')
	r.b.RunOnce()
	if got := string(r.uart.written()); got != "abc" {
		t.Fatalf("uart got %q, want %q", got, "abc")
	}
	if len(r.sim.tx) != mark {
		t.Fatal("unknown escape must not act")
	}
}

func TestEscapeSplitAcrossPasses(t *testing.T) {
	r := setupRig(t)
	r.host.send(escapeByte)
	r.b.RunOnce()
	r.host.send(escapeByte, 'x')
	r.b.RunOnce()
	if got := r.uart.written(); !bytes.Equal(got, []byte{escapeByte, 'x'}) {
		t.Fatalf("uart got %x", got)
	}
}

func TestHelpListsPorts(t *testing.T) {
	r := setupRig(t)
	r.host.reset()
	r.host.send(escapeByte, '?')
	r.b.RunOnce()
	if len(r.uart.written()) != 0 {
		t.Fatal("help must not reach the UART")
	}
	r.logContains(t, "^_ ?  This message\n\r")
	r.logContains(t, "P0: present\n\r")
	r.logContains(t, "P1: absent\n\r")
}

func TestTextNewlinesTranslated(t *testing.T) {
	r := setupRig(t)
	if strings.Contains(strings.ReplaceAll(r.host.text(), "\n\r", ""), "\n") {
		t.Fatal("bare newline on the host channel")
	}
}

func TestDebugToggle(t *testing.T) {
	r := setupRig(t)
	r.host.send(escapeByte, cmdDebug)
	r.b.RunOnce()
	if !r.p.Verbose() {
		t.Fatal("debug not enabled")
	}
	r.logContains(t, "Debug on")
	r.b.RunOnce()
	r.logContains(t, "P0: Poll: cc1=0 cc2=0")
	r.host.send(escapeByte, cmdDebug)
	r.b.RunOnce()
	if r.p.Verbose() {
		t.Fatal("debug not disabled")
	}
}

func TestResetCommands(t *testing.T) {
	r := setupRig(t)
	r.host.send(escapeByte, cmdReset)
	r.b.RunOnce()
	if r.sys.resets != 1 || r.sys.boots != 0 {
		t.Fatalf("resets=%d boots=%d", r.sys.resets, r.sys.boots)
	}
	r.host.send(escapeByte, cmdProgramming)
	r.b.RunOnce()
	if r.sys.boots != 1 {
		t.Fatal("bootloader not requested")
	}
	r.logContains(t, "Rebooting to programming mode")
}

func TestForceDisconnect(t *testing.T) {
	r := attached(t, typec.CCRd, typec.CCOpen)
	r.host.send(escapeByte, cmdDisconnect)
	r.b.RunOnce()
	if r.p.State() != Disconnected {
		t.Fatalf("state = %s", r.p.State())
	}
	if !r.p.pending.Load() {
		t.Fatal("forced disconnect should leave an event pending")
	}
	r.b.RunOnce()
	if r.p.pending.Load() || !r.irqPin().enabled {
		t.Fatal("pending event not consumed")
	}
}

func TestProbeAndActionCommands(t *testing.T) {
	cases := []struct {
		key  byte
		objs []uint32
	}{
		{'\r', []uint32{0}},
		{'!', []uint32{0x05ac8012, 0x0105, 0x80000000}},
	}
	for _, c := range cases {
		r := setupRig(t)
		r.host.send(escapeByte, c.key)
		r.b.RunOnce()
		f := r.sim.lastTx(t)
		got := f.m.Objects()
		if f.sop != pd.SOPDoublePrimeDebug || len(got) != len(c.objs) {
			t.Fatalf("key %q: tx %v on %s", c.key, f.m, f.sop)
		}
		for i := range got {
			if got[i] != c.objs[i] {
				t.Fatalf("key %q: object %d = %08x, want %08x", c.key, i, got[i], c.objs[i])
			}
		}
	}
}

func TestRouteKeys(t *testing.T) {
	r := attached(t, typec.CCRa, typec.CCRd)
	r.host.send(escapeByte, '1')
	r.b.RunOnce()
	if r.p.Route() != RouteUSBPrimary || !r.pins[pinSelUSB].level || r.pins[pinSwap].level {
		t.Fatalf("route %s sel=%v swap=%v", r.p.Route(), r.pins[pinSelUSB].level, r.pins[pinSwap].level)
	}
	f := r.sim.lastTx(t)
	if f.m.Data[0] != 0x05ac8012 || f.m.Data[1] != 0x0103 {
		t.Fatalf("route change should send a PD reset, got %v", f.m)
	}

	r.host.send(escapeByte, '2')
	r.b.RunOnce()
	if r.p.Route() != RouteSBU || r.pins[pinSelUSB].level || !r.pins[pinSwap].level {
		t.Fatal("SBU on a CC2 partner should swap lanes")
	}
	r.logContains(t, "Route: SBU1/2")
}

func TestSBUSwapFollowsPolarity(t *testing.T) {
	r := attached(t, typec.CCRd, typec.CCOpen)
	r.p.SelectRoute(RouteSBU)
	if r.pins[pinSwap].level {
		t.Fatal("CC1 partner must not swap")
	}
	r = attached(t, typec.CCOpen, typec.CCRd)
	r.p.SelectRoute(RouteSBU)
	if !r.pins[pinSwap].level {
		t.Fatal("CC2 partner must swap")
	}
	r = attached(t, typec.CCRd, typec.CCRd)
	r.p.SelectRoute(RouteSBU)
	if r.pins[pinSwap].level {
		t.Fatal("equal readings orient as CC1 and must not swap")
	}
}

func TestInbandBreak(t *testing.T) {
	r := setupRig(t)
	r.sleeps = nil
	r.host.send(escapeByte, cmdBreak)
	r.b.RunOnce()
	if len(r.uart.breaks) != 2 || !r.uart.breaks[0] || r.uart.breaks[1] {
		t.Fatalf("breaks = %v", r.uart.breaks)
	}
	if !hasSleep(r.sleeps, inbandBreak) {
		t.Fatalf("sleeps = %v", r.sleeps)
	}
}

func TestOutOfBandBreak(t *testing.T) {
	r := setupRig(t)
	r.sleeps = nil
	r.host.onBreak(5 * time.Millisecond)
	select {
	case <-r.b.wake:
	default:
		t.Fatal("break did not wake the loop")
	}
	r.b.RunOnce()
	if len(r.uart.breaks) != 2 || !hasSleep(r.sleeps, 5*time.Millisecond) {
		t.Fatalf("breaks = %v sleeps = %v", r.uart.breaks, r.sleeps)
	}
	r.b.RunOnce()
	if len(r.uart.breaks) != 2 {
		t.Fatal("break repeated")
	}
}

func TestUARTToHost(t *testing.T) {
	r := setupRig(t)
	r.host.reset()
	r.uart.rx = []byte("login: ")
	r.b.RunOnce()
	if got := r.host.text(); !strings.Contains(got, "login: ") {
		t.Fatalf("host got %q", got)
	}
}

func hasSleep(s []time.Duration, d time.Duration) bool {
	for _, v := range s {
		if v == d {
			return true
		}
	}
	return false
}
