//go:build rp2040

package main

import (
	"device/rp"
	"runtime/interrupt"
)

// Alarm 0 drives the runtime sleep timer
const sampleAlarm = 1

// RP2040AlarmSampler runs the IR sampler from TIMER alarm 1: one interrupt
// per sample period, whatever the main loop is doing
type RP2040AlarmSampler struct {
	period uint32
	next   uint32
	tick   func(missed uint32)
}

// The interrupt handler must be a plain function, so the sampler is a singleton
var alarmSampler RP2040AlarmSampler

// NewRP2040AlarmSampler installs the alarm interrupt at the highest priority
func NewRP2040AlarmSampler() *RP2040AlarmSampler {
	irq := interrupt.New(rp.IRQ_TIMER_IRQ_1, sampleAlarmIRQ)
	irq.SetPriority(0)
	irq.Enable()
	return &alarmSampler
}

// StartSampleTimer arms the alarm one period from now
func (s *RP2040AlarmSampler) StartSampleTimer(periodUS uint32, tick func(missed uint32)) {
	s.period = periodUS
	s.tick = tick
	rp.TIMER.INTR.Set(1 << sampleAlarm)
	rp.TIMER.INTE.SetBits(1 << sampleAlarm)
	s.next = rp.TIMER.TIMERAWL.Get() + periodUS
	rp.TIMER.ALARM1.Set(s.next)
}

// StopSampleTimer disarms the alarm
func (s *RP2040AlarmSampler) StopSampleTimer() {
	rp.TIMER.INTE.ClearBits(1 << sampleAlarm)
	rp.TIMER.ARMED.Set(1 << sampleAlarm)
	rp.TIMER.INTR.Set(1 << sampleAlarm)
	s.tick = nil
}

func sampleAlarmIRQ(interrupt.Interrupt) {
	s := &alarmSampler
	rp.TIMER.INTR.Set(1 << sampleAlarm)
	if s.tick == nil {
		return
	}

	// A late interrupt skips the periods that went by instead of
	// sampling the same level for each of them
	now := rp.TIMER.TIMERAWL.Get()
	var missed uint32
	if late := now - s.next; int32(late) >= int32(s.period) {
		missed = late / s.period
	}
	s.next += (missed + 1) * s.period

	// The alarm only fires on an exact match, so never arm it in the past
	if int32(s.next-now) < 2 {
		s.next += s.period
		missed++
	}
	rp.TIMER.ALARM1.Set(s.next)

	s.tick(missed)
}
