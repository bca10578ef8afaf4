//go:build rp2040 || rp2350

package main

import (
	"context"
	"runtime"
	"time"

	"pdbridge-go/services/bmc"
)

func main() {
	ctx := context.Background()

	println("[main] starting bmc.Run …")
	printMem()
	err := bmc.Run(ctx, bmc.Options{})

	// Run only returns on misconfiguration. Keep reporting so the reason
	// is visible on whichever console attaches.
	for {
		println("[main] bmc.Run stopped:", err.Error())
		printMem()
		time.Sleep(5 * time.Second)
	}
}

// printMem prints a compact snapshot of TinyGo runtime memory stats.
// Uses builtin println to avoid fmt overhead/allocations.
func printMem() {
	var ms runtime.MemStats
	runtime.ReadMemStats(&ms)

	println(
		"[mem]",
		"alloc:", uint32(ms.Alloc),
		"heapInuse:", uint32(ms.HeapInuse),
		"heapSys:", uint32(ms.HeapSys),
	)
}
