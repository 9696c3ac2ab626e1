//go:build rp2040

package main

import (
	"irnec/core"
	"machine"
)

// pwmPeripheral abstracts over TinyGo's unexported *pwmGroup type
type pwmPeripheral interface {
	Configure(config machine.PWMConfig) error
	Channel(pin machine.Pin) (uint8, error)
	Top() uint32
	Set(channel uint8, value uint32)
}

type pwmCarrier struct {
	pwm     pwmPeripheral
	channel uint8
	duty    uint32 // Compare value for a mark
}

// RP2040PWMCarrier generates the IR carrier on a hardware PWM slice.
// A space is a zero duty cycle, so the LED is off between marks.
type RP2040PWMCarrier struct {
	// Key: pin number
	carriers map[core.CarrierPin]*pwmCarrier
}

// NewRP2040PWMCarrier creates a new PWM carrier driver
func NewRP2040PWMCarrier() *RP2040PWMCarrier {
	return &RP2040PWMCarrier{
		carriers: make(map[core.CarrierPin]*pwmCarrier),
	}
}

// ConfigureCarrier sets the slice period to the carrier frequency
func (d *RP2040PWMCarrier) ConfigureCarrier(pin core.CarrierPin, freqHz uint32, dutyPercent uint8) error {
	// GPIO N maps to slice (N >> 1) & 7, channel N & 1
	pwm := getPWMPeripheral(uint8((uint32(pin) >> 1) & 0x7))

	err := pwm.Configure(machine.PWMConfig{
		Period: 1000000000 / uint64(freqHz),
	})
	if err != nil {
		return err
	}
	channel, err := pwm.Channel(machine.Pin(pin))
	if err != nil {
		return err
	}
	pwm.Set(channel, 0)

	d.carriers[pin] = &pwmCarrier{
		pwm:     pwm,
		channel: channel,
		duty:    pwm.Top() * uint32(dutyPercent) / 100,
	}
	return nil
}

// EnableCarrier starts modulation
func (d *RP2040PWMCarrier) EnableCarrier(pin core.CarrierPin) {
	if c, ok := d.carriers[pin]; ok {
		c.pwm.Set(c.channel, c.duty)
	}
}

// DisableCarrier holds the output low
func (d *RP2040PWMCarrier) DisableCarrier(pin core.CarrierPin) {
	if c, ok := d.carriers[pin]; ok {
		c.pwm.Set(c.channel, 0)
	}
}

// getPWMPeripheral returns the PWM peripheral for a given slice number
func getPWMPeripheral(sliceNum uint8) pwmPeripheral {
	switch sliceNum {
	case 0:
		return machine.PWM0
	case 1:
		return machine.PWM1
	case 2:
		return machine.PWM2
	case 3:
		return machine.PWM3
	case 4:
		return machine.PWM4
	case 5:
		return machine.PWM5
	case 6:
		return machine.PWM6
	default:
		return machine.PWM7
	}
}
