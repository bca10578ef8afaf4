package conv

const hexd = "0123456789abcdef"

// U32Hex writes 8-digit lowercase hex without 0x, zero-padded.
func U32Hex(buf []byte, n uint32) []byte {
	return hexN(buf, uint64(n), 8)
}

// U16Hex writes 4-digit lowercase hex without 0x, zero-padded.
func U16Hex(buf []byte, n uint16) []byte {
	return hexN(buf, uint64(n), 4)
}

// U8Hex writes 2-digit lowercase hex without 0x, zero-padded.
func U8Hex(buf []byte, n uint8) []byte {
	return hexN(buf, uint64(n), 2)
}

func hexN(buf []byte, n uint64, digits int) []byte {
	if len(buf) < digits {
		return buf[:0]
	}
	i := len(buf)
	for j := 0; j < digits; j++ {
		i--
		buf[i] = hexd[n&0xF]
		n >>= 4
	}
	return buf[i:]
}

// AppendU32Hex appends 8 hex digits of n to dst.
func AppendU32Hex(dst []byte, n uint32) []byte {
	var b [8]byte
	return append(dst, U32Hex(b[:], n)...)
}

// AppendU16Hex appends 4 hex digits of n to dst.
func AppendU16Hex(dst []byte, n uint16) []byte {
	var b [4]byte
	return append(dst, U16Hex(b[:], n)...)
}
