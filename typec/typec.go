// Package typec defines the Type-C physical layer vocabulary shared by the
// transceiver driver and the port policy engine.
package typec

// CCLevel is the termination detected on one CC line.
type CCLevel uint8

const (
	CCOpen        CCLevel = 0
	CCRa          CCLevel = 1
	CCRd          CCLevel = 2
	CCSinkDefault CCLevel = 5
	CCSink1A5     CCLevel = 6
	CCSink3A0     CCLevel = 7
)

// Attached reports whether the level meets the attach threshold.
func (l CCLevel) Attached() bool { return l >= CCRd }

// Pull is the termination this side presents on both CC lines.
type Pull uint8

const (
	PullOpen Pull = iota
	PullRp
	PullRd
)

// RpValue selects the advertised source current.
type RpValue uint8

const (
	RpUSB RpValue = iota
	Rp1A5
	Rp3A0
)

// Polarity names the CC line that carries PD traffic.
type Polarity uint8

const (
	PolarityCC1 Polarity = iota
	PolarityCC2
)

func (p Polarity) String() string {
	if p == PolarityCC2 {
		return "CC2 (flipped)"
	}
	return "CC1 (normal)"
}

// Orient picks the polarity from the two CC readings: CC2 when it reads
// strictly higher, otherwise CC1.
func Orient(cc1, cc2 CCLevel) Polarity {
	if cc1 >= cc2 {
		return PolarityCC1
	}
	return PolarityCC2
}
