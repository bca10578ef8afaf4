// Package upstream implements the host-facing side of a port: text
// translation and channels built on top of a raw byte transport.
package upstream

import "io"

// TextWriter expands "\n" to "\n\r" on the way out. Port logs use bare
// newlines internally; terminals on the host expect both.
type TextWriter struct {
	w   io.Writer
	buf [64]byte
}

func NewTextWriter(w io.Writer) *TextWriter { return &TextWriter{w: w} }

// Write reports len(p) on success so fmt.Fprintf callers see the bytes
// they passed, not the expanded count.
func (t *TextWriter) Write(p []byte) (int, error) {
	out := t.buf[:0]
	for _, b := range p {
		if len(out)+2 > len(t.buf) {
			if _, err := t.w.Write(out); err != nil {
				return 0, err
			}
			out = t.buf[:0]
		}
		out = append(out, b)
		if b == '\n' {
			out = append(out, '\r')
		}
	}
	if len(out) > 0 {
		if _, err := t.w.Write(out); err != nil {
			return 0, err
		}
	}
	return len(p), nil
}
