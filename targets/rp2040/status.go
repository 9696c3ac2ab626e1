//go:build rp2040

package main

import (
	"image/color"
	"irnec/core"
	"irnec/protocol"
	"machine"

	"tinygo.org/x/drivers/ws2812"
)

// How long the status LED stays lit after a frame
const statusFlashUS = 50000

var (
	colorFrame  = color.RGBA{R: 0, G: 32, B: 0}
	colorRepeat = color.RGBA{R: 0, G: 0, B: 32}
	colorOff    = color.RGBA{}
)

// StatusLED flashes a single WS2812 pixel for each decoded frame
type StatusLED struct {
	dev   ws2812.Device
	pixel [1]color.RGBA
	timer core.Timer
}

// NewStatusLED configures the pixel's data pin and turns it off
func NewStatusLED(pin machine.Pin) *StatusLED {
	pin.Configure(machine.PinConfig{Mode: machine.PinOutput})
	s := &StatusLED{dev: ws2812.New(pin)}
	s.timer.Handler = s.offEvent
	s.set(colorOff)
	return s
}

func (s *StatusLED) set(c color.RGBA) {
	s.pixel[0] = c
	s.dev.WriteColors(s.pixel[:])
}

// Flash lights the pixel for the frame type and schedules it off
func (s *StatusLED) Flash(res protocol.DecodeResult) {
	if res.IsRepeat() {
		s.set(colorRepeat)
	} else {
		s.set(colorFrame)
	}
	core.CancelTimer(&s.timer)
	s.timer.WakeTime = core.GetTime() + core.TimerFromUS(statusFlashUS)
	core.ScheduleTimer(&s.timer)
}

func (s *StatusLED) offEvent(t *core.Timer) uint8 {
	s.set(colorOff)
	return core.SF_DONE
}
