//go:build rp2040 || rp2350

package ring

import "runtime/interrupt"

type state = interrupt.State

func lock() state    { return interrupt.Disable() }
func unlock(s state) { interrupt.Restore(s) }
