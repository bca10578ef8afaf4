package fmtx

import (
	"bytes"
	"errors"
	"fmt"
	"testing"
)

type level uint8

func (l level) String() string { return [...]string{"open", "ra", "rd"}[l] }

func TestAppendfMatchesFmt(t *testing.T) {
	type C struct {
		fmt  string
		args []any
	}
	for _, c := range []C{
		{"hello %s", []any{"world"}},
		{"num %d hex %x HEX %X", []any{255, uint32(255), 255}},
		{"neg %d", []any{int32(-42)}},
		{"literal %%", nil},
		{"P%d: %s\n", []any{1, "DISCONNECTED"}},
		{"[%04x]", []any{uint16(0x45)}},
		{"%08x", []any{uint32(0xdead)}},
		{"%5d|", []any{42}},
		{"%05d", []any{-42}},
		{"cc1=%s", []any{level(2)}},
		{"err: %s", []any{errors.New("boom")}},
		{"%v %v", []any{true, uint8(7)}},
		{"%c", []any{'x'}},
	} {
		got := string(appendf(nil, c.fmt, c.args...))
		want := fmt.Sprintf(c.fmt, c.args...)
		if got != want {
			t.Fatalf("appendf(%q) = %q, want %q", c.fmt, got, want)
		}
	}
}

func TestAppendfReportsMissingArgs(t *testing.T) {
	if got := string(appendf(nil, "a=%d b=%d", 1)); got != "a=1 b=%!d(MISSING)" {
		t.Fatalf("got %q", got)
	}
}

func TestAppendfReusesBuffer(t *testing.T) {
	var buf [32]byte
	out := appendf(buf[:0], "x=%x", uint32(0x1043))
	if &out[0] != &buf[0] {
		t.Fatal("appendf reallocated a buffer with room")
	}
	if string(out) != "x=1043" {
		t.Fatalf("got %q", out)
	}
}

func TestFprintf(t *testing.T) {
	var buf bytes.Buffer
	if _, err := Fprintf(&buf, "hi %s", "there"); err != nil {
		t.Fatalf("Fprintf error: %v", err)
	}
	if got, want := buf.String(), "hi there"; got != want {
		t.Fatalf("Fprintf wrote %q, want %q", got, want)
	}
	if got := string(Appendf([]byte("P0: "), "%d", 3)); got != "P0: 3" {
		t.Fatalf("Appendf = %q", got)
	}
}
