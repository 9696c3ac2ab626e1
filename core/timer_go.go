//go:build !tinygo

package core

import "time"

// getSystemTicks returns the current system ticks (regular Go implementation)
func getSystemTicks() uint32 {
	return systemTicks
}

// setSystemTicks sets the system ticks (regular Go implementation)
func setSystemTicks(ticks uint32) {
	systemTicks = ticks
}

// delayMicroseconds sleeps; host builds only simulate pulse timing
func delayMicroseconds(us uint32) {
	time.Sleep(time.Duration(us) * time.Microsecond)
}
