//go:build linux && !(rp2040 || rp2350)

package platform

import (
	"os"

	"golang.org/x/sys/unix"
)

type linuxSystem struct{}

// Reset re-executes the running binary with the same arguments.
func (linuxSystem) Reset() {
	exe, err := os.Executable()
	if err == nil {
		err = unix.Exec(exe, os.Args, os.Environ())
	}
	println("[platform] reset failed:", err.Error())
}

// EnterBootloader has no meaning on a host; the process exits so that a
// supervisor can install new firmware for the carrier.
func (linuxSystem) EnterBootloader() {
	println("[platform] no bootloader on this host, exiting")
	os.Exit(3)
}
