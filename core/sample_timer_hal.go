package core

// SampleTimerDriver runs the sampler from a hardware timer interrupt so
// pin reads happen on the tick, not whenever the main loop gets to them.
type SampleTimerDriver interface {
	// StartSampleTimer calls tick every periodUS microseconds from
	// interrupt context. missed is the number of periods that went by
	// without a call since the previous one.
	StartSampleTimer(periodUS uint32, tick func(missed uint32))

	// StopSampleTimer disables the interrupt
	StopSampleTimer()
}

// Optional: without one the sampler runs on the core timer list.
var sampleTimerDriver SampleTimerDriver

// SetSampleTimerDriver is called by target-specific code to register its driver.
func SetSampleTimerDriver(d SampleTimerDriver) {
	sampleTimerDriver = d
}
