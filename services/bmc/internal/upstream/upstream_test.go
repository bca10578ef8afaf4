package upstream

import (
	"bytes"
	"fmt"
	"strings"
	"testing"
	"time"
)

func TestTextWriterExpandsNewlines(t *testing.T) {
	var out bytes.Buffer
	w := NewTextWriter(&out)
	n, err := fmt.Fprintf(w, "P0: %s\nP0: %s\n", "VBUS ON", "S: DFP_VBUS_ON")
	if err != nil {
		t.Fatal(err)
	}
	want := "P0: VBUS ON\n\rP0: S: DFP_VBUS_ON\n\r"
	if out.String() != want {
		t.Fatalf("out = %q, want %q", out.String(), want)
	}
	if n != len("P0: VBUS ON\nP0: S: DFP_VBUS_ON\n") {
		t.Fatalf("n = %d", n)
	}
}

func TestTextWriterLongInput(t *testing.T) {
	var out bytes.Buffer
	w := NewTextWriter(&out)
	in := strings.Repeat("ab\n", 100)
	if _, err := w.Write([]byte(in)); err != nil {
		t.Fatal(err)
	}
	if out.String() != strings.ReplaceAll(in, "\n", "\n\r") {
		t.Fatal("chunked expansion mismatch")
	}
}

func TestConsoleOverflowDropsOldest(t *testing.T) {
	woke := 0
	c := NewConsole(&bytes.Buffer{}, ConsoleConfig{RxSize: 4, Notify: func() { woke++ }})
	c.Feed([]byte("abcde"))
	if woke != 1 {
		t.Fatalf("notify calls = %d", woke)
	}
	var got []byte
	for {
		b, ok := c.TryReadByte()
		if !ok {
			break
		}
		got = append(got, b)
	}
	if string(got) != "bcde" || c.Dropped() != 1 {
		t.Fatalf("got %q dropped %d", got, c.Dropped())
	}
}

func TestConsoleMarkedStream(t *testing.T) {
	var breaks []time.Duration
	c := NewConsole(&bytes.Buffer{}, ConsoleConfig{Marked: true})
	c.OnBreak(func(d time.Duration) { breaks = append(breaks, d) })
	c.Feed([]byte{'a', 0xff, 0xff, 0xff, 0x00, 0x00, 'b', 0xff, 0x00, 'x', 'c'})
	var got []byte
	for {
		b, ok := c.TryReadByte()
		if !ok {
			break
		}
		got = append(got, b)
	}
	if !bytes.Equal(got, []byte{'a', 0xff, 'b', 'c'}) {
		t.Fatalf("got % x", got)
	}
	if len(breaks) != 1 || breaks[0] != BreakDuration {
		t.Fatalf("breaks = %v", breaks)
	}
}
