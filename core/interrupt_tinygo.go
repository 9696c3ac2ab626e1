//go:build tinygo

package core

import "runtime/interrupt"

// disableInterrupts masks interrupts so the sample timer cannot fire
// and returns the previous state
func disableInterrupts() interrupt.State {
	return interrupt.Disable()
}

// restoreInterrupts restores the interrupt mask saved by disableInterrupts
func restoreInterrupts(state interrupt.State) {
	interrupt.Restore(state)
}
