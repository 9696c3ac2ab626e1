package core

import "irnec/protocol"

// Timer frequency of the system clock (RP2040 microsecond timer)
const (
	TimerFreq = 1000000 // 1MHz
)

// SampleTicks is the sampler period expressed in system clock ticks
var SampleTicks = TimerFromUS(protocol.USecPerTick)

var (
	systemTicks uint32
	bootTime    uint64 // Time at boot for uptime calculation
)

// GetTime returns the current system time in timer ticks
func GetTime() uint32 {
	return getSystemTicks()
}

// SetTime sets the current system time (for testing/hardware integration)
func SetTime(ticks uint32) {
	setSystemTicks(ticks)
}

// GetUptime returns uptime in timer ticks since TimerInit
func GetUptime() uint64 {
	return uint64(GetTime()) - bootTime
}

// TimerFromUS converts microseconds to timer ticks
func TimerFromUS(us uint32) uint32 {
	return uint32(uint64(us) * TimerFreq / 1000000)
}

// TimerToUS converts timer ticks to microseconds
func TimerToUS(ticks uint32) uint32 {
	return uint32(uint64(ticks) * 1000000 / TimerFreq)
}

// TimerInit initializes the system timer
func TimerInit() {
	bootTime = uint64(GetTime())
}

// ProcessTimers processes scheduled timers
func ProcessTimers() {
	currentTime = GetTime()
	TimerDispatch()
}

// DelayMicroseconds blocks the caller for us microseconds.
// It never yields on hardware; pulse timing depends on it.
func DelayMicroseconds(us uint32) {
	if us == 0 {
		return
	}
	delayMicroseconds(us)
}
