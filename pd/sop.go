package pd

// SOP identifies the start-of-packet ordered set a message travels on.
type SOP uint8

const (
	SOP0 SOP = iota
	SOPPrime
	SOPDoublePrime
	SOPPrimeDebug
	SOPDoublePrimeDebug
	SOPUnknown
)

var sopNames = [...]string{
	SOP0:                "SOP",
	SOPPrime:            "SOP'",
	SOPDoublePrime:      "SOP\"",
	SOPPrimeDebug:       "SOP'DEBUG",
	SOPDoublePrimeDebug: "SOP\"DEBUG",
	SOPUnknown:          "?",
}

func (s SOP) String() string {
	if int(s) < len(sopNames) {
		return sopNames[s]
	}
	return "?"
}
