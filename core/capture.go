// IR capture state machine
// Turns one pin sample per tick into alternating space/mark durations
package core

import (
	"sync/atomic"

	"irnec/protocol"
)

// RawBuf is the capacity of a capture buffer in entries
const RawBuf = 100

// ReceiverState describes which duration the sampler is accumulating
type ReceiverState uint32

const (
	StateIdle  ReceiverState = iota // Timing the gap between transmissions
	StateMark                       // Timing a mark
	StateSpace                      // Timing a space
	StateStop                       // Capture complete, buffer is read-only
)

func (s ReceiverState) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateMark:
		return "mark"
	case StateSpace:
		return "space"
	case StateStop:
		return "stop"
	default:
		return "unknown"
	}
}

// Capture actions (bit flags, applied in this order: clear, record, reset, complete)
const (
	ActClear      = 1 << 0 // Empty the buffer
	ActRecord     = 1 << 1 // Append the elapsed tick count
	ActResetTimer = 1 << 2 // Restart the tick counter
	ActComplete   = 1 << 3 // Publish the buffer for decode
)

// Step is the capture transition function.
//
// mark is the sampled level, elapsed the ticks since the last transition
// (including this one) and full whether the buffer has reached RawBuf.
// It returns the next state and the Act* flags to apply.
func Step(state ReceiverState, mark bool, elapsed uint32, full bool) (ReceiverState, uint8) {
	var act uint8

	// Overflow ends the capture regardless of state; what was captured
	// is still offered for decode
	if full && state != StateStop {
		state = StateStop
		act |= ActComplete
	}

	switch state {
	case StateIdle:
		if !mark {
			return StateIdle, act
		}
		if elapsed < protocol.GapTicks {
			// Too short to be a gap: noise
			return StateIdle, act | ActResetTimer
		}
		// Gap just ended, it becomes the first entry
		return StateMark, act | ActClear | ActRecord | ActResetTimer

	case StateMark:
		if !mark {
			return StateSpace, act | ActRecord | ActResetTimer
		}
		return StateMark, act

	case StateSpace:
		if mark {
			return StateMark, act | ActRecord | ActResetTimer
		}
		if elapsed > protocol.GapTicks {
			// Long space: the transmission is over. The counter keeps
			// running so it measures the next gap.
			return StateStop, act | ActComplete
		}
		return StateSpace, act

	case StateStop:
		if mark {
			return StateStop, act | ActResetTimer
		}
		return StateStop, act
	}

	return state, act
}

// Capture owns the raw timing buffers.
//
// Tick is the only writer of capture state and must not be re-entered.
// Completed captures are published through gen: a reader that loads gen
// and sees a new value may read the published buffer until it requests a
// re-arm. Two buffers alternate so a published capture is never written
// while a reader holds it.
type Capture struct {
	state atomic.Uint32 // ReceiverState

	// Writer-only
	timer uint32
	fill  uint32
	n     int
	bufs  [2][RawBuf]uint16

	// Published capture
	gen         atomic.Uint32
	pubBuf      atomic.Uint32
	pubLen      atomic.Uint32
	pubOverflow atomic.Bool

	rearm atomic.Bool
}

// Reset arms the capture: Idle, empty buffers, counter at zero.
// Must not run concurrently with Tick.
func (c *Capture) Reset() {
	c.timer = 0
	c.fill = 0
	c.n = 0
	c.rearm.Store(false)
	c.pubLen.Store(0)
	c.pubOverflow.Store(false)
	c.state.Store(uint32(StateIdle))
}

// Tick processes one pin sample
func (c *Capture) Tick(mark bool) {
	if c.timer != ^uint32(0) {
		c.timer++
	}

	if c.rearm.CompareAndSwap(true, false) {
		// Continue in the other buffer; the timer is left running so the
		// gap since the last mark is still measured
		c.fill ^= 1
		c.n = 0
		c.state.Store(uint32(StateIdle))
	}

	state := ReceiverState(c.state.Load())
	full := c.n >= RawBuf
	next, act := Step(state, mark, c.timer, full)

	if act&ActClear != 0 {
		c.n = 0
		RecordEvent(EvtCaptureBegin, GetTime(), c.timer, 0)
	}
	if act&ActRecord != 0 && c.n < RawBuf {
		c.bufs[c.fill][c.n] = saturate16(c.timer)
		c.n++
	}
	if act&ActResetTimer != 0 {
		c.timer = 0
	}
	if act&ActComplete != 0 {
		c.publish(full)
	}
	if next != state {
		c.state.Store(uint32(next))
	}
}

// publish hands the filled buffer to the reader
func (c *Capture) publish(overflow bool) {
	c.pubBuf.Store(c.fill)
	c.pubLen.Store(uint32(c.n))
	c.pubOverflow.Store(overflow)
	c.gen.Add(1)

	if overflow {
		RecordEvent(EvtOverflow, GetTime(), uint32(c.n), 0)
	} else {
		RecordEvent(EvtCaptureDone, GetTime(), uint32(c.n), 0)
	}
}

// State returns the sampler state
func (c *Capture) State() ReceiverState {
	return ReceiverState(c.state.Load())
}

// Generation returns the number of captures published so far
func (c *Capture) Generation() uint32 {
	return c.gen.Load()
}

// Published returns the last completed capture.
// The slice stays valid until the capture has been re-armed twice.
func (c *Capture) Published() (raw []uint16, overflow bool) {
	idx := c.pubBuf.Load()
	n := c.pubLen.Load()
	return c.bufs[idx][:n], c.pubOverflow.Load()
}

// Rearm asks the sampler to start a new capture on its next tick
func (c *Capture) Rearm() {
	c.rearm.Store(true)
}

// Skip accounts for missed sample ticks, whose pin levels are unknown.
// A capture in progress is dropped and the sampler waits for a full gap
// again; while Idle or Stopped the gap keeps counting.
// Writer side, like Tick.
func (c *Capture) Skip(missed uint32) {
	if missed == 0 {
		return
	}
	switch c.State() {
	case StateMark, StateSpace:
		RecordEvent(EvtCaptureAbort, GetTime(), uint32(c.n), missed)
		c.n = 0
		c.timer = 0
		c.state.Store(uint32(StateIdle))
	default:
		if c.timer+missed < c.timer {
			c.timer = ^uint32(0)
		} else {
			c.timer += missed
		}
	}
}

// Len returns the number of entries in the buffer being filled (writer view)
func (c *Capture) Len() int {
	return c.n
}

func saturate16(v uint32) uint16 {
	if v > 0xFFFF {
		return 0xFFFF
	}
	return uint16(v)
}
