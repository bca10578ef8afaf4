package pd

// VDMHeader is the first data object of a Vendor-Defined message.
type VDMHeader uint32

// Structured VDM command types.
const (
	CmdTypeREQ  = 0
	CmdTypeACK  = 1
	CmdTypeNAK  = 2
	CmdTypeBUSY = 3
)

// Structured VDM commands.
const (
	CmdDiscoverIdentity = 1
	CmdDiscoverSVIDs    = 2
	CmdDiscoverModes    = 3
	CmdEnterMode        = 4
	CmdExitMode         = 5
	CmdAttention        = 6
)

// SVIDPDSID is the PD standard ID used by discovery commands.
const SVIDPDSID = 0xff00

// NewStructuredVDM builds a structured VDM header with object position 0.
func NewStructuredVDM(svid uint16, cmdType, cmd uint8) VDMHeader {
	return VDMHeader(uint32(svid)<<16 | 1<<15 | uint32(cmdType&0b11)<<6 | uint32(cmd&0b11111))
}

func (h VDMHeader) SVID() uint16       { return uint16(h >> 16) }
func (h VDMHeader) Structured() bool   { return h&(1<<15) != 0 }
func (h VDMHeader) CommandType() uint8 { return uint8(h>>6) & 0b11 }
func (h VDMHeader) Command() uint8     { return uint8(h) & 0b11111 }

// WithCommandType returns h with its command type replaced.
func (h VDMHeader) WithCommandType(t uint8) VDMHeader {
	return h&^(0b11<<6) | VDMHeader(t&0b11)<<6
}
