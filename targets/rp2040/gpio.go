//go:build rp2040

package main

import (
	"irnec/core"
	"machine"
)

// RPGPIODriver implements the GPIODriver interface for RP2040
type RPGPIODriver struct {
	// RP2040 has GPIO0-GPIO29; indexed so ReadPin stays allocation free
	pins [30]machine.Pin
}

// NewRPGPIODriver creates a new RP2040 GPIO driver
func NewRPGPIODriver() *RPGPIODriver {
	d := &RPGPIODriver{}
	for i := range d.pins {
		d.pins[i] = machine.Pin(i)
	}
	return d
}

func (d *RPGPIODriver) pin(pin core.GPIOPin) machine.Pin {
	if int(pin) >= len(d.pins) {
		return machine.NoPin
	}
	return d.pins[pin]
}

// ConfigureInput configures a floating input
func (d *RPGPIODriver) ConfigureInput(pin core.GPIOPin) error {
	d.pin(pin).Configure(machine.PinConfig{Mode: machine.PinInput})
	return nil
}

// ConfigureInputPullUp configures an input with the internal pull-up
func (d *RPGPIODriver) ConfigureInputPullUp(pin core.GPIOPin) error {
	d.pin(pin).Configure(machine.PinConfig{Mode: machine.PinInputPullup})
	return nil
}

// ReadPin reads the pin level
func (d *RPGPIODriver) ReadPin(pin core.GPIOPin) bool {
	return d.pin(pin).Get()
}
