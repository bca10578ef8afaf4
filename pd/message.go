// Package pd encodes and decodes the USB Power Delivery messages the bridge
// exchanges with the device under test.
package pd

import "encoding/binary"

const (
	// MaxDataObjects is the maximum number of data objects in a message.
	MaxDataObjects = 7

	// MaxMessageBytes is the header plus seven 32-bit data objects.
	MaxMessageBytes = 2 + 4*MaxDataObjects
)

// Message is a power delivery message. Extended messages are not decoded.
//
// Data is fixed at the maximum message size so no heap allocation is needed
// on the receive path; DataObjectCount reports how many entries are used.
type Message struct {
	Header uint16
	Data   [MaxDataObjects]uint32
}

// New builds a message of type t with the given sender roles and data
// objects. Revision is 2.0 and the message ID is zero.
func New(t Type, pr PowerRole, dr DataRole, objs ...uint32) Message {
	var m Message
	m.SetType(t)
	m.SetPowerRole(pr)
	m.SetDataRole(dr)
	m.SetRevision(Revision20)
	n := copy(m.Data[:], objs)
	m.SetDataObjectCount(uint8(n))
	return m
}

// Objects returns the used data objects.
func (m *Message) Objects() []uint32 { return m.Data[:m.DataObjectCount()] }

// Len is the encoded length in bytes.
func (m Message) Len() int { return 2 + 4*int(m.DataObjectCount()) }

// AppendBytes appends the little-endian wire form of m to b.
func (m Message) AppendBytes(b []byte) []byte {
	b = binary.LittleEndian.AppendUint16(b, m.Header)
	for _, d := range m.Data[:m.DataObjectCount()] {
		b = binary.LittleEndian.AppendUint32(b, d)
	}
	return b
}

// DecodeHeader reads a header from the first two bytes of b.
func DecodeHeader(b []byte) uint16 { return binary.LittleEndian.Uint16(b) }

// DecodeObjects fills the data objects announced by m.Header from b.
// It returns false when b is too short.
func (m *Message) DecodeObjects(b []byte) bool {
	n := int(m.DataObjectCount())
	if len(b) < 4*n {
		return false
	}
	for i := 0; i < n; i++ {
		m.Data[i] = binary.LittleEndian.Uint32(b[4*i:])
	}
	return true
}

// IsExtended reports the extended flag.
func (m Message) IsExtended() bool {
	return m.Header&(1<<15) != 0
}

// ID returns the message ID.
func (m Message) ID() uint8 {
	return uint8((m.Header >> 9) & 0b111)
}

func (m *Message) SetID(id uint8) {
	m.Header = (m.Header & ^(uint16(0b111) << 9)) | (uint16(id&0b111) << 9)
}

// DataObjectCount returns the number of data objects in the message.
func (m Message) DataObjectCount() uint8 {
	return uint8((m.Header >> 12) & 0b111)
}

func (m *Message) SetDataObjectCount(n uint8) {
	m.Header = (m.Header & ^(uint16(0b111) << 12)) | (uint16(n&0b111) << 12)
}

// IsData reports whether m is a data message; otherwise it is a control
// message.
func (m Message) IsData() bool {
	return m.DataObjectCount() > 0
}

// Type returns the message type. Data and control messages share type
// values, so callers must check IsData as well.
func (m Message) Type() Type {
	return Type(m.Header & 0b11111)
}

func (m *Message) SetType(t Type) {
	m.Header = (m.Header & ^uint16(0b11111)) | uint16(t&0b11111)
}

// Is reports whether m is the control (data=false) or data message t.
func (m Message) Is(t Type, data bool) bool {
	return m.IsData() == data && m.Type() == t
}

// Revision returns the spec revision field.
func (m Message) Revision() Revision {
	return Revision((m.Header >> 6) & 0b11)
}

func (m *Message) SetRevision(r Revision) {
	m.Header = (m.Header & ^(uint16(0b11) << 6)) | uint16(r&0b11)<<6
}

// PowerRole returns the power role of the sender.
func (m Message) PowerRole() PowerRole {
	return PowerRole((m.Header >> 8) & 1)
}

func (m *Message) SetPowerRole(r PowerRole) {
	m.Header = (m.Header & ^(uint16(1) << 8)) | (uint16(r&1) << 8)
}

// DataRole returns the data role of the sender.
func (m Message) DataRole() DataRole {
	return DataRole((m.Header >> 5) & 1)
}

func (m *Message) SetDataRole(r DataRole) {
	m.Header = (m.Header & ^(uint16(1) << 5)) | uint16(r&1)<<5
}

// Type is the 5-bit PD message type.
type Type uint8

// Control message types
const (
	TypeGoodCRC      Type = 0b00001
	TypeGotoMin      Type = 0b00010
	TypeAccept       Type = 0b00011
	TypeReject       Type = 0b00100
	TypePing         Type = 0b00101
	TypePSReady      Type = 0b00110
	TypeGetSourceCap Type = 0b00111
	TypeGetSinkCap   Type = 0b01000
	TypeDRSwap       Type = 0b01001
	TypePRSwap       Type = 0b01010
	TypeVCONNSwap    Type = 0b01011
	TypeWait         Type = 0b01100
	TypeSoftReset    Type = 0b01101
)

// Data message types
const (
	TypeSourceCap     Type = 0b00001
	TypeRequest       Type = 0b00010
	TypeBIST          Type = 0b00011
	TypeSinkCap       Type = 0b00100
	TypeVendorDefined Type = 0b01111
)

// Revision is the spec revision carried in a header.
type Revision uint8

const (
	Revision10 Revision = 0b00
	Revision20 Revision = 0b01
	Revision30 Revision = 0b10
)

// PowerRole is the power role of the sender of a message.
type PowerRole uint8

const (
	PowerRoleSink   PowerRole = 0
	PowerRoleSource PowerRole = 1
)

// DataRole is the data role of the sender of a message.
type DataRole uint8

const (
	DataRoleUFP DataRole = 0
	DataRoleDFP DataRole = 1
)
