//go:build rp2040

package main

import (
	"errors"
	"irnec/core"
	"machine"

	rp2pio "github.com/tinygo-org/pio/rp2-pio"
)

// Each carrier period is carrierCycles state machine cycles, split
// into two SET instructions high and two low. Delays stay under 32.
const carrierCycles = 60

const carrierPIOOrigin = 0

var errCarrierDuty = errors.New("pio carrier: duty cycle is fixed once loaded")

// buildCarrierProgram creates a square wave with highCycles of carrierCycles high
func buildCarrierProgram(highCycles uint8) []uint16 {
	asm := rp2pio.AssemblerV0{SidesetBits: 0}
	lowCycles := carrierCycles - highCycles
	h1 := highCycles / 2
	l1 := lowCycles / 2
	return []uint16{
		// .wrap_target
		asm.Set(rp2pio.SetDestPins, 1).Delay(h1 - 1).Encode(),
		asm.Set(rp2pio.SetDestPins, 1).Delay(highCycles - h1 - 1).Encode(),
		asm.Set(rp2pio.SetDestPins, 0).Delay(l1 - 1).Encode(),
		asm.Set(rp2pio.SetDestPins, 0).Delay(lowCycles - l1 - 1).Encode(),
		// .wrap
	}
}

// RP2040PIOCarrier generates the IR carrier with a PIO state machine,
// leaving the PWM slices free
type RP2040PIOCarrier struct {
	pio    *rp2pio.PIO
	sm     rp2pio.StateMachine
	pin    machine.Pin
	offset uint8
	duty   uint8
	loaded bool
}

// NewRP2040PIOCarrier creates a carrier on PIO0 or PIO1, state machine smNum
func NewRP2040PIOCarrier(pioNum, smNum uint8) *RP2040PIOCarrier {
	pioHW := rp2pio.PIO0
	if pioNum != 0 {
		pioHW = rp2pio.PIO1
	}
	return &RP2040PIOCarrier{
		pio: pioHW,
		sm:  pioHW.StateMachine(smNum),
	}
}

// ConfigureCarrier loads the program on first use and sets the clock divider
func (d *RP2040PIOCarrier) ConfigureCarrier(pin core.CarrierPin, freqHz uint32, dutyPercent uint8) error {
	high := uint8(uint32(dutyPercent) * carrierCycles / 100)
	if high < 2 {
		high = 2
	}
	if high > carrierCycles-2 {
		high = carrierCycles - 2
	}

	if d.loaded && dutyPercent != d.duty {
		return errCarrierDuty
	}
	if !d.loaded {
		d.sm.TryClaim()
		program := buildCarrierProgram(high)
		offset, err := d.pio.AddProgram(program, carrierPIOOrigin)
		if err != nil {
			return err
		}
		d.offset = offset
		d.duty = dutyPercent
		d.loaded = true
	}

	d.pin = machine.Pin(pin)
	d.pin.Configure(machine.PinConfig{Mode: d.pio.PinMode()})

	cfg := rp2pio.DefaultStateMachineConfig()
	cfg.SetSetPins(d.pin, 1)
	cfg.SetWrap(d.offset+3, d.offset)

	// 8.8 fixed point divider from the system clock
	div := uint64(machine.CPUFrequency()) * 256 / (uint64(freqHz) * carrierCycles)
	cfg.SetClkDivIntFrac(uint16(div>>8), uint8(div))

	d.sm.Init(d.offset, cfg)
	d.sm.SetPindirsConsecutive(d.pin, 1, true)
	d.sm.SetPinsConsecutive(d.pin, 1, false)
	return nil
}

// EnableCarrier starts the state machine
func (d *RP2040PIOCarrier) EnableCarrier(pin core.CarrierPin) {
	d.sm.SetEnabled(true)
}

// DisableCarrier stops the state machine and forces the pin low
func (d *RP2040PIOCarrier) DisableCarrier(pin core.CarrierPin) {
	d.sm.SetEnabled(false)
	d.sm.SetPinsConsecutive(d.pin, 1, false)
}
