//go:build linux && !(rp2040 || rp2350)

package platform

import (
	"context"
	"os"
	"sync"
	"time"

	"golang.org/x/sys/unix"

	"pdbridge-go/errcode"
	"pdbridge-go/services/bmc/internal/halcore"
	"pdbridge-go/services/bmc/internal/platform/setups"
	"pdbridge-go/services/bmc/internal/upstream"
	"pdbridge-go/x/ring"
)

const deviceRxSize = 1024

var baudRates = map[uint32]uint32{
	9600:    unix.B9600,
	19200:   unix.B19200,
	38400:   unix.B38400,
	57600:   unix.B57600,
	115200:  unix.B115200,
	230400:  unix.B230400,
	460800:  unix.B460800,
	921600:  unix.B921600,
	1000000: unix.B1000000,
	1500000: unix.B1500000,
	2000000: unix.B2000000,
	3000000: unix.B3000000,
}

// openTTY opens path in raw 8N1 at baud. With marked set, breaks and
// errored bytes are reported in-band the PARMRK way. The file stays
// non-blocking so that Close wakes a pending Read.
func openTTY(path string, baud uint32, marked bool) (*os.File, error) {
	speed, ok := baudRates[baud]
	if !ok {
		return nil, &errcode.E{C: errcode.InvalidParams, Op: "openTTY", Msg: "unsupported baud rate"}
	}
	f, err := os.OpenFile(path, os.O_RDWR|unix.O_NOCTTY|unix.O_NONBLOCK, 0)
	if err != nil {
		return nil, err
	}
	err = control(f, func(fd int) error {
		t, err := unix.IoctlGetTermios(fd, unix.TCGETS)
		if err != nil {
			return err
		}
		t.Iflag &^= unix.IGNBRK | unix.BRKINT | unix.PARMRK | unix.ISTRIP | unix.INLCR | unix.IGNCR | unix.ICRNL | unix.IXON | unix.IGNPAR
		if marked {
			t.Iflag |= unix.PARMRK
		}
		t.Oflag &^= unix.OPOST
		t.Lflag &^= unix.ECHO | unix.ECHONL | unix.ICANON | unix.ISIG | unix.IEXTEN
		t.Cflag &^= unix.CSIZE | unix.PARENB | unix.CSTOPB | unix.CBAUD
		t.Cflag |= unix.CS8 | unix.CREAD | unix.CLOCAL | speed
		t.Ispeed = speed
		t.Ospeed = speed
		t.Cc[unix.VMIN] = 1
		t.Cc[unix.VTIME] = 0
		return unix.IoctlSetTermios(fd, unix.TCSETS, t)
	})
	if err != nil {
		f.Close()
		return nil, err
	}
	return f, nil
}

// control runs fn on the raw descriptor without taking f off the poller,
// which f.Fd would do.
func control(f *os.File, fn func(fd int) error) error {
	rc, err := f.SyscallConn()
	if err != nil {
		return err
	}
	var ferr error
	if err := rc.Control(func(fd uintptr) { ferr = fn(int(fd)) }); err != nil {
		return err
	}
	return ferr
}

// ttyLink keeps a tty open, reopening it with backoff when it goes away
// (USB serial adapters come and go). Writes while down are dropped.
type ttyLink struct {
	path   string
	baud   uint32
	marked bool
	sink   func([]byte)

	mu sync.Mutex
	f  *os.File
}

func (l *ttyLink) run(ctx context.Context) {
	backoff := backoffSeq(250*time.Millisecond, 5*time.Second)
	for ctx.Err() == nil {
		f, err := openTTY(l.path, l.baud, l.marked)
		if err != nil {
			delay := backoff()
			println("[platform] open", l.path, "failed:", err.Error(), "retry in", delay.String())
			if !sleepCtx(ctx, delay) {
				return
			}
			continue
		}
		backoff = backoffSeq(250*time.Millisecond, 5*time.Second)
		l.mu.Lock()
		l.f = f
		l.mu.Unlock()
		stop := context.AfterFunc(ctx, func() { f.Close() })

		buf := make([]byte, 256)
		for {
			n, err := f.Read(buf)
			if n > 0 {
				l.sink(buf[:n])
			}
			if err != nil {
				if ctx.Err() == nil {
					println("[platform]", l.path, "lost:", err.Error())
				}
				break
			}
		}

		l.mu.Lock()
		l.f = nil
		l.mu.Unlock()
		if stop() {
			f.Close()
		}
	}
}

func (l *ttyLink) up() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.f != nil
}

func (l *ttyLink) Write(p []byte) (int, error) {
	l.mu.Lock()
	f := l.f
	l.mu.Unlock()
	if f == nil {
		return len(p), nil
	}
	return f.Write(p)
}

func (l *ttyLink) SetBreak(on bool) error {
	l.mu.Lock()
	f := l.f
	l.mu.Unlock()
	if f == nil {
		return &errcode.E{C: errcode.Absent, Op: "SetBreak", Msg: l.path}
	}
	req := uint(unix.TIOCCBRK)
	if on {
		req = unix.TIOCSBRK
	}
	return control(f, func(fd int) error { return unix.IoctlSetInt(fd, req, 0) })
}

// ---- device UARTs and upstreams ----

type ttyLinks struct {
	ctx    context.Context
	notify func()
	plans  []setups.UARTPlan
	taken  map[string]bool
}

func (t *ttyLinks) claim(path string) bool {
	if t.taken == nil {
		t.taken = make(map[string]bool)
	}
	if t.taken[path] {
		return false
	}
	t.taken[path] = true
	return true
}

func (t *ttyLinks) baud(id string) uint32 {
	for _, p := range t.plans {
		if p.ID == id {
			return p.Baud
		}
	}
	return setups.DefaultBaud
}

func (t *ttyLinks) ByID(id string) (halcore.UARTPort, bool) {
	if !t.claim(id) {
		return nil, false
	}
	u := &linuxUART{rx: ring.New(deviceRxSize)}
	u.link = &ttyLink{path: id, baud: t.baud(id), sink: func(p []byte) {
		u.rx.Write(p)
		t.notify()
	}}
	go u.link.run(t.ctx)
	return u, true
}

type linuxUART struct {
	link *ttyLink
	rx   *ring.Ring
}

func (u *linuxUART) Write(p []byte) (int, error) { return u.link.Write(p) }
func (u *linuxUART) TryRead(p []byte) int        { return u.rx.ReadInto(p) }
func (u *linuxUART) SetBreak(on bool) error      { return u.link.SetBreak(on) }

// ttyChannel is a host channel on a tty. It is connected while the tty
// is open.
type ttyChannel struct {
	*upstream.Console
	link *ttyLink
}

func (c ttyChannel) Connected() bool { return c.link.up() }

func (t *ttyLinks) Open(u setups.UpstreamPlan) (halcore.Channel, error) {
	switch u.Kind {
	case setups.UpstreamTTY, setups.UpstreamUART:
		if !t.claim(u.ID) {
			return nil, &errcode.E{C: errcode.InvalidParams, Op: "platform.Upstream", Msg: u.ID + " already in use"}
		}
		link := &ttyLink{path: u.ID, baud: t.baud(u.ID), marked: true}
		c := upstream.NewConsole(link, upstream.ConsoleConfig{Marked: true, Notify: t.notify})
		link.sink = c.Feed
		go link.run(t.ctx)
		return ttyChannel{Console: c, link: link}, nil
	case setups.UpstreamStdio:
		if !t.claim("stdio") {
			return nil, &errcode.E{C: errcode.InvalidParams, Op: "platform.Upstream", Msg: "stdio already in use"}
		}
		c := upstream.NewConsole(os.Stdout, upstream.ConsoleConfig{Notify: t.notify})
		go func() {
			buf := make([]byte, 256)
			for {
				n, err := os.Stdin.Read(buf)
				if n > 0 {
					c.Feed(buf[:n])
				}
				if err != nil {
					return
				}
			}
		}()
		return c, nil
	}
	return nil, &errcode.E{C: errcode.Unsupported, Op: "platform.Upstream", Msg: u.Kind}
}
