// Package fmtx formats console lines. Host builds delegate to fmt; MCU
// builds use a small allocation-free formatter.
package fmtx

// appendf is the formatter behind Appendf on MCU builds. It understands
// %s %v %d %x %X %c %% with an optional width and '0' flag. %s and %v use
// Error or String when the argument has one. Named integer types without
// String are not recognised: convert them at the call.
func appendf(b []byte, format string, args ...any) []byte {
	ai := 0
	for i := 0; i < len(format); {
		c := format[i]
		if c != '%' {
			b = append(b, c)
			i++
			continue
		}
		i++
		if i < len(format) && format[i] == '%' {
			b = append(b, '%')
			i++
			continue
		}
		zero := false
		if i < len(format) && format[i] == '0' {
			zero = true
			i++
		}
		width := 0
		for i < len(format) && '0' <= format[i] && format[i] <= '9' {
			width = width*10 + int(format[i]-'0')
			i++
		}
		if i >= len(format) {
			return append(b, "%!(NOVERB)"...)
		}
		verb := format[i]
		i++
		if ai >= len(args) {
			b = append(b, '%', '!', verb, '(')
			b = append(b, "MISSING)"...)
			continue
		}
		arg := args[ai]
		ai++

		start := len(b)
		switch verb {
		case 's', 'v':
			b = appendValue(b, arg)
		case 'd':
			b = appendInt(b, arg, 10, false)
		case 'x':
			b = appendInt(b, arg, 16, false)
		case 'X':
			b = appendInt(b, arg, 16, true)
		case 'c':
			if r, ok := arg.(rune); ok && r < 0x80 {
				b = append(b, byte(r))
			} else if u, ok := arg.(byte); ok {
				b = append(b, u)
			}
		default:
			b = append(b, '%', '!', verb)
		}
		b = pad(b, start, width, zero)
	}
	return b
}

type stringer interface{ String() string }

func appendValue(b []byte, v any) []byte {
	switch x := v.(type) {
	case error:
		return append(b, x.Error()...)
	case stringer:
		return append(b, x.String()...)
	case string:
		return append(b, x...)
	case []byte:
		return append(b, x...)
	case bool:
		if x {
			return append(b, "true"...)
		}
		return append(b, "false"...)
	case nil:
		return append(b, "<nil>"...)
	}
	return appendInt(b, v, 10, false)
}

func appendInt(b []byte, v any, base uint64, upper bool) []byte {
	var u uint64
	neg := false
	switch x := v.(type) {
	case int:
		u, neg = abs(int64(x))
	case int8:
		u, neg = abs(int64(x))
	case int16:
		u, neg = abs(int64(x))
	case int32:
		u, neg = abs(int64(x))
	case int64:
		u, neg = abs(x)
	case uint:
		u = uint64(x)
	case uint8:
		u = uint64(x)
	case uint16:
		u = uint64(x)
	case uint32:
		u = uint64(x)
	case uint64:
		u = x
	case uintptr:
		u = uint64(x)
	default:
		return append(b, "%!(BADTYPE)"...)
	}
	if neg {
		b = append(b, '-')
	}
	digits := "0123456789abcdef"
	if upper {
		digits = "0123456789ABCDEF"
	}
	var tmp [20]byte
	i := len(tmp)
	for {
		i--
		tmp[i] = digits[u%base]
		u /= base
		if u == 0 {
			break
		}
	}
	return append(b, tmp[i:]...)
}

func abs(v int64) (uint64, bool) {
	if v < 0 {
		return uint64(-v), true
	}
	return uint64(v), false
}

// pad right-aligns b[start:] in width columns. Zero padding goes after a
// leading minus sign.
func pad(b []byte, start, width int, zero bool) []byte {
	n := len(b) - start
	if n >= width {
		return b
	}
	fill := width - n
	for j := 0; j < fill; j++ {
		b = append(b, 0)
	}
	copy(b[start+fill:], b[start:start+n])
	if !zero {
		for j := start; j < start+fill; j++ {
			b[j] = ' '
		}
		return b
	}
	at := start
	if b[start+fill] == '-' {
		b[start] = '-'
		at++
	}
	for j := at; j < at+fill; j++ {
		b[j] = '0'
	}
	return b
}
