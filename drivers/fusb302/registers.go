package fusb302

// Register map (FUSB302 datasheet, table 16).
const (
	regDeviceID = 0x01

	regSwitches0       = 0x02
	switches0PuEn2     = 1 << 7
	switches0PuEn1     = 1 << 6
	switches0VconnCC2  = 1 << 5
	switches0VconnCC1  = 1 << 4
	switches0MeasCC2   = 1 << 3
	switches0MeasCC1   = 1 << 2
	switches0Pdwn2     = 1 << 1
	switches0Pdwn1     = 1 << 0
	switches0PullMask  = switches0PuEn1 | switches0PuEn2 | switches0Pdwn1 | switches0Pdwn2
	switches0MeasMask  = switches0MeasCC1 | switches0MeasCC2
	switches0VconnMask = switches0VconnCC1 | switches0VconnCC2

	regSwitches1        = 0x03
	switches1PowerRole  = 1 << 7
	switches1SpecRev1   = 1 << 6
	switches1SpecRev0   = 1 << 5
	switches1DataRole   = 1 << 4
	switches1AutoGCRC   = 1 << 2
	switches1TxCC2      = 1 << 1
	switches1TxCC1      = 1 << 0
	switches1TxMask     = switches1TxCC1 | switches1TxCC2
	switches1RolesMask  = switches1PowerRole | switches1DataRole
	switches1SpecRevMsk = switches1SpecRev1 | switches1SpecRev0

	regMeasure      = 0x04
	measureVBUS     = 1 << 6
	measureMDACMask = 0x3F

	regControl0       = 0x06
	control0TxFlush   = 1 << 6
	control0IntMask   = 1 << 5
	control0HostCur   = 0b11 << 2
	control0HostCurUS = 0b01 << 2
	control0HostCur15 = 0b10 << 2
	control0HostCur30 = 0b11 << 2
	control0AutoPre   = 1 << 1
	control0TxStart   = 1 << 0

	regControl1     = 0x07
	control1EnSOP2D = 1 << 6
	control1EnSOP1D = 1 << 5
	control1RxFlush = 1 << 2

	regControl2 = 0x08

	regControl3          = 0x09
	control3SendHardRst  = 1 << 6
	control3NRetries3    = 0b11 << 1
	control3AutoRetry    = 1 << 0
	control3DefaultRetry = control3NRetries3 | control3AutoRetry

	regMask  = 0x0A
	regPower = 0x0B
	powerAll = 0x0F

	regReset      = 0x0C
	resetPD       = 1 << 1
	resetSW       = 1 << 0
	regMaskA      = 0x0E
	regMaskB      = 0x0F
	regStatus0A   = 0x3C
	regStatus1A   = 0x3D
	regInterruptA = 0x3E
	regInterruptB = 0x3F

	regStatus0    = 0x40
	status0VBUSOK = 1 << 7
	status0Comp   = 1 << 5
	status0BCLvl  = 0b11

	regStatus1     = 0x41
	status1RxEmpty = 1 << 5

	regInterrupt = 0x42
	regFIFOs     = 0x43
)

// Interrupt bits reported by ReadIRQ.
const (
	IntVBUSOK  = 1 << 7
	IntCompChg = 1 << 5
	IntCRCChk  = 1 << 4
	IntBCLvl   = 1 << 0

	IntATogDone   = 1 << 6
	IntARetryFail = 1 << 4
	IntAHardSent  = 1 << 3
	IntATxSuccess = 1 << 2
	IntASoftReset = 1 << 1
	IntAHardReset = 1 << 0

	IntBGCRCSent = 1 << 0
)

// Interrupt masks written at Init: a set bit masks the source.
const (
	maskInit  = 0xFF &^ (IntVBUSOK | IntCompChg | IntCRCChk | 1<<3 | 1<<1 | IntBCLvl)
	maskAInit = 0xFF &^ (IntARetryFail | IntAHardSent | IntATxSuccess | IntAHardReset)
	maskBInit = 0xFF &^ IntBGCRCSent
)

// FIFO tokens.
const (
	tokTxOn    = 0xA1
	tokSync1   = 0x12
	tokSync2   = 0x13
	tokSync3   = 0x1B
	tokRst1    = 0x15
	tokRst2    = 0x16
	tokPackSym = 0x80
	tokJamCRC  = 0xFF
	tokEOP     = 0x14
	tokTxOff   = 0xFE

	// Receive-side SOP tokens live in the top three bits.
	rxTokMask   = 0xE0
	rxTokSOP    = 0xE0
	rxTokSOP1   = 0xC0
	rxTokSOP2   = 0xA0
	rxTokSOP1DB = 0x80
	rxTokSOP2DB = 0x60
)

// MDAC thresholds for manual source-side CC detection.
func mdacMV(mv uint16) uint8 { return uint8(mv/42) & measureMDACMask }
