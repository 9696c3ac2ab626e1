// IR transmitter
// Replays NEC frames by switching a modulated carrier on and off
package core

import (
	"errors"

	"irnec/protocol"
)

// ErrCarrierFrequency is returned for a zero carrier frequency
var ErrCarrierFrequency = errors.New("transmitter: carrier frequency must be non-zero")

// TransmitterConfig describes the IR LED wiring
type TransmitterConfig struct {
	Pin CarrierPin

	// DutyPercent is the carrier duty cycle. Zero selects 33%.
	DutyPercent uint8
}

func (c *TransmitterConfig) applyDefaults() {
	if c.DutyPercent < 1 || c.DutyPercent > 100 {
		c.DutyPercent = 33
	}
}

// Transmitter sends NEC frames. Each transmission blocks the caller for
// its full on-air duration (about 68 ms for a 32-bit frame).
type Transmitter struct {
	cfg TransmitterConfig

	// Delay blocks for the given number of microseconds.
	// Defaults to DelayMicroseconds.
	Delay func(us uint32)

	freqHz uint32

	// On-air time since the start of the current burst
	burstUS uint32
}

// NewTransmitter creates a transmitter for the given LED pin
func NewTransmitter(cfg TransmitterConfig) *Transmitter {
	cfg.applyDefaults()
	return &Transmitter{
		cfg:   cfg,
		Delay: DelayMicroseconds,
	}
}

// enableIROut configures the carrier for khz and leaves the output off
func (t *Transmitter) enableIROut(khz uint32) error {
	if khz == 0 {
		return ErrCarrierFrequency
	}
	freq := khz * 1000
	if freq == t.freqHz {
		MustCarrier().DisableCarrier(t.cfg.Pin)
		return nil
	}
	if err := MustCarrier().ConfigureCarrier(t.cfg.Pin, freq, t.cfg.DutyPercent); err != nil {
		return err
	}
	t.freqHz = freq
	return nil
}

// Transmit sends the low bits of value as an NEC frame modulated at
// carrierKHz. It returns once the closing mark has been sent.
func (t *Transmitter) Transmit(value uint32, bits int, carrierKHz uint32) error {
	if bits <= 0 || bits > 32 {
		return protocol.ErrBitCount
	}
	if err := t.enableIROut(carrierKHz); err != nil {
		return err
	}

	RecordEvent(EvtTransmit, GetTime(), value, uint32(bits))
	protocol.EncodeNEC(t, value, bits)
	return nil
}

// TransmitRepeat sends an NEC repeat code
func (t *Transmitter) TransmitRepeat(carrierKHz uint32) error {
	if err := t.enableIROut(carrierKHz); err != nil {
		return err
	}

	RecordEvent(EvtTransmit, GetTime(), protocol.Repeat, 0)
	protocol.EncodeNECRepeat(t)
	return nil
}

// TransmitHeld sends a frame followed by repeats repeat codes, one every
// NECRepeatPeriodUS measured from the start of the previous burst, the
// way a remote does while a key is held down.
func (t *Transmitter) TransmitHeld(value uint32, bits int, carrierKHz uint32, repeats int) error {
	t.burstUS = 0
	if err := t.Transmit(value, bits, carrierKHz); err != nil {
		return err
	}
	for i := 0; i < repeats; i++ {
		t.Space(repeatPause(t.burstUS))
		t.burstUS = 0
		if err := t.TransmitRepeat(carrierKHz); err != nil {
			return err
		}
	}
	return nil
}

// repeatPause is the silence that completes a repeat period after a burst
func repeatPause(burstUS uint32) uint32 {
	if burstUS >= protocol.NECRepeatPeriodUS {
		return 0
	}
	return protocol.NECRepeatPeriodUS - burstUS
}

// Mark switches the carrier on for us microseconds
func (t *Transmitter) Mark(us uint32) {
	MustCarrier().EnableCarrier(t.cfg.Pin)
	t.burstUS += us
	if us > 0 {
		t.Delay(us)
	}
}

// Space switches the carrier off for us microseconds.
// A zero-length space only leaves the output off.
func (t *Transmitter) Space(us uint32) {
	MustCarrier().DisableCarrier(t.cfg.Pin)
	t.burstUS += us
	if us > 0 {
		t.Delay(us)
	}
}
