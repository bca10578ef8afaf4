//go:build linux && !(rp2040 || rp2350)

package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	"pdbridge-go/services/bmc"
)

func main() {
	board := flag.String("config", "/etc/pd-bridge/board.yaml", "board plan (YAML)")
	flag.Parse()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	log.Printf("[main] starting bmc.Run with %s", *board)
	if err := bmc.Run(ctx, bmc.Options{BoardFile: *board}); err != nil && !errors.Is(err, context.Canceled) {
		log.Fatalf("[main] bmc.Run: %v", err)
	}
	log.Printf("[main] stopped")
}
