package core

// DebugWriter is a function type for writing debug messages
type DebugWriter func(string)

// TimingEvent captures a receiver or transmitter event for post-mortem analysis
type TimingEvent struct {
	EventType uint8  // Event type code
	Clock     uint32 // System clock at event
	Value1    uint32 // Context-dependent value
	Value2    uint32 // Context-dependent value
}

// Event type codes
const (
	EvtCaptureBegin = 1 // Gap ended, first mark seen (v1 = gap ticks)
	EvtCaptureDone  = 2 // Long space ended the capture (v1 = entries)
	EvtOverflow     = 3 // Buffer filled before the capture ended (v1 = entries)
	EvtDecodeOK     = 4 // Frame decoded (v1 = value, v2 = bits)
	EvtDecodeFail   = 5 // Decode rejected the capture (v1 = entries)
	EvtRepeat       = 6 // Repeat code decoded
	EvtTransmit     = 7 // Transmission started (v1 = value, v2 = bits)
	EvtCaptureAbort = 8 // Sample ticks missed mid-frame (v1 = entries, v2 = ticks missed)
)

const (
	TimingRingSize = 32 // Keep last 32 events for post-mortem
)

var (
	// debugPrintln is the global debug print function (can be set by platform code)
	debugPrintln DebugWriter = func(s string) {} // No-op by default

	// debugEnabled controls whether debug output is active.
	// Disabled by default; the console "debug on" command enables it.
	debugEnabled bool = false

	// Timing capture ring buffer (non-blocking, for post-mortem)
	timingRing     [TimingRingSize]TimingEvent
	timingRingHead uint8        // Next write position
	timingEnabled  bool  = true // Always capture timing events

	// Async debug output channel
	debugChan chan string
)

// SetDebugWriter sets the platform-specific debug output function
// This allows platforms to redirect debug output to UART, USB, etc.
func SetDebugWriter(writer DebugWriter) {
	debugPrintln = writer
}

// SetDebugEnabled enables or disables debug output
// Decode tracing prints one line per tolerance check, so keep it off
// unless a capture is being diagnosed.
func SetDebugEnabled(enabled bool) {
	debugEnabled = enabled
}

// IsDebugEnabled returns whether debug output is enabled
func IsDebugEnabled() bool {
	return debugEnabled
}

// InitAsyncDebug starts the async debug output goroutine
// Call this from main() after SetDebugWriter
func InitAsyncDebug() {
	debugChan = make(chan string, 16) // Buffer 16 messages
	go debugOutputWorker()
}

// debugOutputWorker runs in background, drains debug channel
func debugOutputWorker() {
	for msg := range debugChan {
		if debugPrintln != nil {
			debugPrintln(msg)
		}
	}
}

// DebugPrintln writes a debug message using the platform-specific writer
// Blocks if debug is enabled (use DebugAsync for non-blocking)
func DebugPrintln(msg string) {
	if debugEnabled && debugPrintln != nil {
		debugPrintln(msg)
	}
}

// DebugAsync queues a debug message for async output (non-blocking)
// Returns immediately even if channel is full (drops message)
func DebugAsync(msg string) {
	if debugChan != nil {
		select {
		case debugChan <- msg:
		default:
			// Channel full, drop message (non-blocking)
		}
	}
}

// RecordEvent captures an event in the ring buffer.
// Safe to call from the sample tick; never blocks or allocates.
func RecordEvent(eventType uint8, clock, value1, value2 uint32) {
	if !timingEnabled {
		return
	}
	idx := timingRingHead
	timingRing[idx] = TimingEvent{
		EventType: eventType,
		Clock:     clock,
		Value1:    value1,
		Value2:    value2,
	}
	timingRingHead = (idx + 1) % TimingRingSize
}

func eventName(evt uint8) string {
	switch evt {
	case EvtCaptureBegin:
		return "CAPTURE_BEGIN"
	case EvtCaptureDone:
		return "CAPTURE_DONE"
	case EvtOverflow:
		return "OVERFLOW!"
	case EvtDecodeOK:
		return "DECODE_OK"
	case EvtDecodeFail:
		return "DECODE_FAIL"
	case EvtRepeat:
		return "REPEAT"
	case EvtTransmit:
		return "TRANSMIT"
	case EvtCaptureAbort:
		return "CAPTURE_ABORT"
	default:
		return "UNKNOWN"
	}
}

// TimingEvents returns the recorded events, oldest first
func TimingEvents() []TimingEvent {
	events := make([]TimingEvent, 0, TimingRingSize)
	start := timingRingHead
	for i := uint8(0); i < TimingRingSize; i++ {
		evt := timingRing[(start+i)%TimingRingSize]
		if evt.EventType == 0 {
			continue // Empty slot
		}
		events = append(events, evt)
	}
	return events
}

// DumpTimingRing writes the timing ring buffer to w, oldest event first
func DumpTimingRing(w DebugWriter) {
	if w == nil {
		return
	}

	w("[TIMING] === Timing Ring Dump ===")
	w("[TIMING] Uptime: " + utoa(uint32(GetUptime())))

	for _, evt := range TimingEvents() {
		w("[TIMING] " + eventName(evt.EventType) +
			" clock=" + utoa(evt.Clock) +
			" v1=" + hex32(evt.Value1) +
			" v2=" + utoa(evt.Value2))
	}
	w("[TIMING] === End Dump ===")
}

// ClearTimingRing clears the timing buffer
func ClearTimingRing() {
	for i := range timingRing {
		timingRing[i] = TimingEvent{}
	}
	timingRingHead = 0
}
