//go:build tinygo

package core

import (
	"sync/atomic"
	"time"
)

var systemTicksValue uint32

// getSystemTicks returns the current system ticks
func getSystemTicks() uint32 {
	return atomic.LoadUint32(&systemTicksValue)
}

// setSystemTicks sets the system ticks
func setSystemTicks(ticks uint32) {
	atomic.StoreUint32(&systemTicksValue, ticks)
}

// delayMicroseconds busy-waits so the scheduler cannot stretch a pulse
func delayMicroseconds(us uint32) {
	start := time.Now()
	d := time.Duration(us) * time.Microsecond
	for time.Since(start) < d {
	}
}
