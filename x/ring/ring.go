package ring

import "sync/atomic"

// Ring is a fixed-capacity single-producer, single-consumer byte ring.
// When full, a write discards the oldest unread byte. The producer may
// run in interrupt context; every cursor update happens inside a
// critical section so the consumer never observes a half-advanced pair.
type Ring struct {
	buf  []byte
	mask uint32
	rd   uint32 // consumer index (monotonic)
	wr   uint32 // producer index (monotonic)

	dropped  atomic.Uint32
	readable chan struct{} // 0->>0 available edge
}

func New(size int) *Ring {
	if size < 2 || (size&(size-1)) != 0 {
		panic("ring: size must be power of two >= 2")
	}
	return &Ring{
		buf:      make([]byte, size),
		mask:     uint32(size - 1),
		readable: make(chan struct{}, 1),
	}
}

func (r *Ring) Cap() int { return len(r.buf) }

// Producer side

// Put stores b, overwriting the oldest byte when the ring is full.
func (r *Ring) Put(b byte) {
	st := lock()
	rd, wr := r.rd, r.wr
	before := wr - rd
	if before == uint32(len(r.buf)) {
		rd++
		r.rd = rd
		r.dropped.Add(1)
	}
	r.buf[wr&r.mask] = b
	r.wr = wr + 1
	unlock(st)

	if before == 0 {
		select {
		case r.readable <- struct{}{}:
		default:
		}
	}
}

// Write puts all of p and never fails; it satisfies io.Writer.
func (r *Ring) Write(p []byte) (int, error) {
	for _, b := range p {
		r.Put(b)
	}
	return len(p), nil
}

// Consumer side

// Get removes the oldest byte.
func (r *Ring) Get() (byte, bool) {
	st := lock()
	defer unlock(st)
	if r.rd == r.wr {
		return 0, false
	}
	b := r.buf[r.rd&r.mask]
	r.rd++
	return b, true
}

// ReadInto drains up to len(dst) bytes, oldest first.
func (r *Ring) ReadInto(dst []byte) (n int) {
	for n < len(dst) {
		b, ok := r.Get()
		if !ok {
			break
		}
		dst[n] = b
		n++
	}
	return n
}

func (r *Ring) Len() int {
	st := lock()
	n := int(r.wr - r.rd)
	unlock(st)
	return n
}

// Dropped counts bytes discarded by the overwrite policy.
func (r *Ring) Dropped() uint32 { return r.dropped.Load() }

func (r *Ring) Readable() <-chan struct{} { return r.readable }
