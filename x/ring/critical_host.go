//go:build !(rp2040 || rp2350)

package ring

import "sync"

var mu sync.Mutex

type state struct{}

func lock() state {
	mu.Lock()
	return state{}
}

func unlock(state) { mu.Unlock() }
