package upstream

import (
	"io"
	"sync"
	"time"

	"pdbridge-go/x/ring"
)

// BreakDuration is reported for breaks seen on a marked input stream,
// whose real length is unknown.
const BreakDuration = time.Millisecond

// Console is a host channel carried over a plain serial transport. The
// transport's receive side feeds bytes in (possibly from an interrupt);
// the run loop drains them with TryReadByte. When the ring is full the
// oldest byte is lost.
type Console struct {
	out    io.Writer
	rx     *ring.Ring
	notify func()

	// Marked input as produced by termios PARMRK.
	marked bool
	mark   uint8

	mu      sync.Mutex
	onBreak func(time.Duration)
}

type ConsoleConfig struct {
	RxSize int // power of two, default 256
	// Marked decodes a termios PARMRK stream.
	Marked bool
	// Notify is called after every fed chunk, e.g. to wake the run loop.
	Notify func()
}

func NewConsole(out io.Writer, cfg ConsoleConfig) *Console {
	size := cfg.RxSize
	if size == 0 {
		size = 256
	}
	n := cfg.Notify
	if n == nil {
		n = func() {}
	}
	return &Console{out: out, rx: ring.New(size), notify: n, marked: cfg.Marked}
}

// Feed is the producer side.
func (c *Console) Feed(p []byte) {
	for _, b := range p {
		c.feedByte(b)
	}
	if len(p) > 0 {
		c.notify()
	}
}

func (c *Console) feedByte(b byte) {
	if !c.marked {
		c.rx.Put(b)
		return
	}
	switch c.mark {
	case 0:
		if b == 0xff {
			c.mark = 1
			return
		}
		c.rx.Put(b)
	case 1:
		c.mark = 0
		switch b {
		case 0xff:
			c.rx.Put(0xff)
		case 0x00:
			c.mark = 2
		default:
			c.rx.Put(b)
		}
	case 2:
		// 0xff 0x00 0x00 is a break; 0xff 0x00 X is X received with a
		// framing or parity error, which is dropped.
		c.mark = 0
		if b == 0x00 {
			c.breakSeen()
		}
	}
}

func (c *Console) breakSeen() {
	c.mu.Lock()
	fn := c.onBreak
	c.mu.Unlock()
	if fn != nil {
		fn(BreakDuration)
	}
}

func (c *Console) Write(p []byte) (int, error) { return c.out.Write(p) }

func (c *Console) TryReadByte() (byte, bool) { return c.rx.Get() }

func (c *Console) Connected() bool { return true }

// Dropped counts received bytes lost to overflow.
func (c *Console) Dropped() uint32 { return c.rx.Dropped() }

func (c *Console) OnBreak(fn func(time.Duration)) {
	c.mu.Lock()
	c.onBreak = fn
	c.mu.Unlock()
}
