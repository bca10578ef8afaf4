package pd

import "pdbridge-go/x/conv"

// AppendDump appends the diagnostic form "(n) [hdr] obj obj" of m to b.
func (m Message) AppendDump(b []byte) []byte {
	b = append(b, '(')
	b = conv.AppendUint(b, uint64(m.DataObjectCount()))
	b = append(b, ") ["...)
	b = conv.AppendU16Hex(b, m.Header)
	b = append(b, ']')
	for _, d := range m.Data[:m.DataObjectCount()] {
		b = append(b, ' ')
		b = conv.AppendU32Hex(b, d)
	}
	return b
}

func (m Message) String() string {
	var b [MaxMessageBytes * 3]byte
	return string(m.AppendDump(b[:0]))
}
