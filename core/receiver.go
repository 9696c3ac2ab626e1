// IR receiver
// Samples the sensor pin once per tick and decodes completed captures
package core

import (
	"errors"
	"fmt"
	"sync/atomic"

	"irnec/protocol"
)

var (
	// ErrNotReady is returned by TryDecode while no new capture is complete
	ErrNotReady = errors.New("receiver: capture not ready")

	// ErrOverflow marks a capture that was cut short at RawBuf entries
	ErrOverflow = errors.New("receiver: capture buffer overflow")
)

// ReceiverConfig describes the sensor wiring
type ReceiverConfig struct {
	Pin GPIOPin

	// ActiveHigh is set when the sensor output is high during a mark.
	// Demodulating receivers (TSOP38xx and similar) pull low on a mark.
	ActiveHigh bool

	// PullUp enables the MCU pull-up on the sensor pin
	PullUp bool

	// Bits is the payload length to decode (default 32)
	Bits int
}

func (c *ReceiverConfig) applyDefaults() {
	if c.Bits <= 0 || c.Bits > 32 {
		c.Bits = protocol.NECBits
	}
}

// Receiver captures and decodes NEC transmissions
type Receiver struct {
	cfg     ReceiverConfig
	capture Capture
	matcher protocol.Matcher

	// Reader-only
	consumed uint32
	lastRaw  []uint16
	lastRes  protocol.DecodeResult
	decoded  bool

	// Sample ticks that never ran, since boot
	missed atomic.Uint32

	// Sample timer on the core schedule, unless a SampleTimerDriver runs it
	timer    Timer
	attached bool
	hwTimer  SampleTimerDriver
}

// NewReceiver creates a receiver for the given sensor pin
func NewReceiver(cfg ReceiverConfig) *Receiver {
	cfg.applyDefaults()
	r := &Receiver{
		cfg:     cfg,
		matcher: protocol.Default,
	}
	r.capture.Reset()
	return r
}

// Configure sets up the sensor pin
func (r *Receiver) Configure() error {
	if r.cfg.PullUp {
		return MustGPIO().ConfigureInputPullUp(r.cfg.Pin)
	}
	return MustGPIO().ConfigureInput(r.cfg.Pin)
}

// StartReceiving arms the sampler: Idle, empty buffer.
// Captures published before this call are discarded.
func (r *Receiver) StartReceiving() {
	state := disableInterrupts()
	r.capture.Reset()
	r.consumed = r.capture.Generation()
	r.decoded = false
	restoreInterrupts(state)
}

// ResetCapture re-arms the sampler after a decode attempt
func (r *Receiver) ResetCapture() {
	r.consumed = r.capture.Generation()
	r.decoded = false
	r.capture.Rearm()
}

// TryDecode makes a single decode attempt against the current capture.
//
// It returns ErrNotReady while no capture has completed since the last
// re-arm. A failed decode re-arms the sampler itself; after a successful
// one the capture stays held, and TryDecode keeps returning the same
// result, until the caller re-arms with ResetCapture.
func (r *Receiver) TryDecode() (protocol.DecodeResult, error) {
	gen := r.capture.Generation()
	if r.capture.State() != StateStop {
		return protocol.DecodeResult{}, ErrNotReady
	}
	if gen == r.consumed {
		if r.decoded {
			return r.lastRes, nil
		}
		return protocol.DecodeResult{}, ErrNotReady
	}

	raw, overflow := r.capture.Published()
	r.lastRaw = raw

	m := r.matcher
	if debugEnabled {
		m.Trace = DebugPrintln
		DebugPrintln("Attempting NEC decode")
	}

	res, err := m.DecodeNEC(raw, r.cfg.Bits)
	if err != nil {
		RecordEvent(EvtDecodeFail, GetTime(), uint32(len(raw)), 0)
		r.ResetCapture()
		if overflow {
			return protocol.DecodeResult{}, fmt.Errorf("%w: %w", ErrOverflow, err)
		}
		return protocol.DecodeResult{}, err
	}

	// Successful captures stay visible until ResetCapture
	if res.IsRepeat() {
		RecordEvent(EvtRepeat, GetTime(), 0, 0)
	} else {
		RecordEvent(EvtDecodeOK, GetTime(), res.Value, uint32(res.Bits))
	}
	r.consumed = gen
	r.lastRes = res
	r.decoded = true
	return res, nil
}

// LastCapture returns the raw buffer of the last decode attempt
func (r *Receiver) LastCapture() []uint16 {
	return r.lastRaw
}

// State returns the sampler state
func (r *Receiver) State() ReceiverState {
	return r.capture.State()
}

// Captures returns the number of completed captures since boot
func (r *Receiver) Captures() uint32 {
	return r.capture.Generation()
}

// Sample feeds one pin level to the sampler
func (r *Receiver) Sample(high bool) {
	r.capture.Tick(high == r.cfg.ActiveHigh)
}

// Tick reads the sensor pin and advances the sampler.
// Intended to be called exactly once per sample period from a timer context.
func (r *Receiver) Tick() {
	r.Sample(MustGPIO().ReadPin(r.cfg.Pin))
}

// Missed returns the number of sample ticks that were skipped because
// the sampler ran late
func (r *Receiver) Missed() uint32 {
	return r.missed.Load()
}

// sample runs one sample period after missed periods that never ran.
// Their levels are unknown, so they are not replayed with the current one.
func (r *Receiver) sample(missed uint32) {
	if missed > 0 {
		r.missed.Add(missed)
		r.capture.Skip(missed)
	}
	r.Tick()
}

// Attach starts sampling every SampleTicks. A registered SampleTimerDriver
// runs the sampler from its interrupt; otherwise Tick is scheduled on the
// core timer list starting at clock.
func (r *Receiver) Attach(clock uint32) {
	if r.attached {
		return
	}
	r.attached = true
	if sampleTimerDriver != nil {
		r.hwTimer = sampleTimerDriver
		r.hwTimer.StartSampleTimer(protocol.USecPerTick, r.sample)
		return
	}
	r.timer.Next = nil
	r.timer.WakeTime = clock
	r.timer.Handler = r.sampleEvent
	ScheduleTimer(&r.timer)
}

// Detach stops sampling (the transmitter shares the timing budget)
func (r *Receiver) Detach() {
	if !r.attached {
		return
	}
	if r.hwTimer != nil {
		r.hwTimer.StopSampleTimer()
		r.hwTimer = nil
	} else {
		CancelTimer(&r.timer)
	}
	r.attached = false
}

// Attached reports whether the sample timer is scheduled
func (r *Receiver) Attached() bool {
	return r.attached
}

// sampleEvent is the timer handler for the sample tick.
// Ticks that fell behind the clock are counted as missed and the next
// wake time is realigned past now, so the dispatcher never catches up
// by sampling the same level several times in a row.
func (r *Receiver) sampleEvent(t *Timer) uint8 {
	var missed uint32
	if late := GetTime() - t.WakeTime; int32(late) >= int32(SampleTicks) {
		missed = late / SampleTicks
	}
	r.sample(missed)
	t.WakeTime += (missed + 1) * SampleTicks
	return SF_RESCHEDULE
}
