//go:build !(rp2040 || rp2350)

package fmtx

import (
	"fmt"
	"io"
)

func Appendf(b []byte, format string, a ...any) []byte { return fmt.Appendf(b, format, a...) }

func Fprintf(w io.Writer, format string, a ...any) (int, error) { return fmt.Fprintf(w, format, a...) }
