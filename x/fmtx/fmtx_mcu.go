//go:build rp2040 || rp2350

package fmtx

import "io"

// Appendf formats into b using the reduced verb set of appendf.
func Appendf(b []byte, format string, a ...any) []byte { return appendf(b, format, a...) }

// Fprintf formats into a stack buffer for short lines and writes it in one
// call.
func Fprintf(w io.Writer, format string, a ...any) (int, error) {
	var buf [128]byte
	return w.Write(appendf(buf[:0], format, a...))
}
