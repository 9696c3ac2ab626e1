package core

import (
	"errors"
	"testing"

	"irnec/protocol"
)

// mockCarrier records the on-air waveform through the transmitter's delay hook
type mockCarrier struct {
	configured int
	freqHz     uint32
	duty       uint8
	on         bool
	err        error
	pulses     protocol.Pulses
}

func (m *mockCarrier) ConfigureCarrier(pin CarrierPin, freqHz uint32, dutyPercent uint8) error {
	if m.err != nil {
		return m.err
	}
	m.configured++
	m.freqHz = freqHz
	m.duty = dutyPercent
	m.on = false
	return nil
}

func (m *mockCarrier) EnableCarrier(pin CarrierPin) {
	m.on = true
}

func (m *mockCarrier) DisableCarrier(pin CarrierPin) {
	m.on = false
}

func (m *mockCarrier) delay(us uint32) {
	if m.on {
		m.pulses.Mark(us)
	} else {
		m.pulses.Space(us)
	}
}

func newTestTransmitter() (*Transmitter, *mockCarrier) {
	carrier := &mockCarrier{}
	SetCarrierDriver(carrier)
	tx := NewTransmitter(TransmitterConfig{Pin: 14})
	tx.Delay = carrier.delay
	return tx, carrier
}

// onAir drops the zero-length terminator, which only switches the output off
func onAir(p protocol.Pulses) protocol.Pulses {
	out := make(protocol.Pulses, 0, len(p))
	for _, pulse := range p {
		if pulse.US > 0 {
			out = append(out, pulse)
		}
	}
	return out
}

func TestTransmitWaveform(t *testing.T) {
	tx, carrier := newTestTransmitter()

	if err := tx.Transmit(0x20DF10EF, 32, 38); err != nil {
		t.Fatalf("Transmit failed: %v", err)
	}

	if carrier.freqHz != 38000 {
		t.Errorf("carrier: got %d Hz, want 38000", carrier.freqHz)
	}
	if carrier.duty != 33 {
		t.Errorf("duty: got %d%%, want 33%%", carrier.duty)
	}
	if carrier.on {
		t.Error("carrier left on after transmit")
	}

	want := onAir(protocol.Durations(0x20DF10EF, 32))
	if len(carrier.pulses) != len(want) {
		t.Fatalf("pulses: got %d, want %d", len(carrier.pulses), len(want))
	}
	for i := range want {
		if carrier.pulses[i] != want[i] {
			t.Errorf("pulse %d: got %+v, want %+v", i, carrier.pulses[i], want[i])
		}
	}

	// Header, 32 bits and the closing mark: 67 timed pulses
	if len(carrier.pulses) != 67 {
		t.Errorf("expected 67 timed pulses, got %d", len(carrier.pulses))
	}
	t.Logf("frame on air for %d us", carrier.pulses.Total())
}

func TestTransmitShortFrame(t *testing.T) {
	tx, carrier := newTestTransmitter()

	if err := tx.Transmit(0x5, 3, 38); err != nil {
		t.Fatalf("Transmit failed: %v", err)
	}

	want := protocol.Pulses{
		{Mark: true, US: protocol.NECHeaderMark},
		{Mark: false, US: protocol.NECHeaderSpace},
		{Mark: true, US: protocol.NECBitMark},
		{Mark: false, US: protocol.NECOneSpace},
		{Mark: true, US: protocol.NECBitMark},
		{Mark: false, US: protocol.NECZeroSpace},
		{Mark: true, US: protocol.NECBitMark},
		{Mark: false, US: protocol.NECOneSpace},
		{Mark: true, US: protocol.NECBitMark},
	}
	if len(carrier.pulses) != len(want) {
		t.Fatalf("pulses: got %v, want %v", carrier.pulses, want)
	}
	for i := range want {
		if carrier.pulses[i] != want[i] {
			t.Errorf("pulse %d: got %+v, want %+v", i, carrier.pulses[i], want[i])
		}
	}
}

func TestTransmitRepeat(t *testing.T) {
	tx, carrier := newTestTransmitter()

	if err := tx.TransmitRepeat(38); err != nil {
		t.Fatalf("TransmitRepeat failed: %v", err)
	}
	want := protocol.Pulses{
		{Mark: true, US: protocol.NECHeaderMark},
		{Mark: false, US: protocol.NECRepeatSpace},
		{Mark: true, US: protocol.NECBitMark},
	}
	if len(carrier.pulses) != len(want) {
		t.Fatalf("pulses: got %v, want %v", carrier.pulses, want)
	}
	for i := range want {
		if carrier.pulses[i] != want[i] {
			t.Errorf("pulse %d: got %+v, want %+v", i, carrier.pulses[i], want[i])
		}
	}
}

func TestTransmitHeld(t *testing.T) {
	tx, carrier := newTestTransmitter()

	if err := tx.TransmitHeld(0x20DF10EF, 32, 38, 2); err != nil {
		t.Fatalf("TransmitHeld failed: %v", err)
	}

	frame := onAir(protocol.Durations(0x20DF10EF, 32))
	repeat := protocol.Pulses{
		{Mark: true, US: protocol.NECHeaderMark},
		{Mark: false, US: protocol.NECRepeatSpace},
		{Mark: true, US: protocol.NECBitMark},
	}
	var want protocol.Pulses
	want = append(want, frame...)
	want = append(want, protocol.Pulse{Mark: false, US: protocol.NECRepeatPeriodUS - frame.Total()})
	want = append(want, repeat...)
	want = append(want, protocol.Pulse{Mark: false, US: protocol.NECRepeatPeriodUS - repeat.Total()})
	want = append(want, repeat...)

	if len(carrier.pulses) != len(want) {
		t.Fatalf("pulses: got %d, want %d", len(carrier.pulses), len(want))
	}
	for i := range want {
		if carrier.pulses[i] != want[i] {
			t.Errorf("pulse %d: got %+v, want %+v", i, carrier.pulses[i], want[i])
		}
	}

	// Each burst starts one repeat period after the previous one
	start := uint32(0)
	for i, p := range carrier.pulses {
		if i == len(frame)+1 || i == len(frame)+len(repeat)+2 {
			if start%protocol.NECRepeatPeriodUS != 0 {
				t.Errorf("burst at %d us, not on a %d us period", start, protocol.NECRepeatPeriodUS)
			}
		}
		start += p.US
	}
	if carrier.on {
		t.Error("carrier left on after the last repeat")
	}
}

func TestTransmitHeldNoRepeats(t *testing.T) {
	tx, carrier := newTestTransmitter()

	if err := tx.TransmitHeld(0xA5, 8, 38, 0); err != nil {
		t.Fatalf("TransmitHeld failed: %v", err)
	}
	if len(carrier.pulses) != 2*8+3 {
		t.Errorf("pulses: got %d, want %d", len(carrier.pulses), 2*8+3)
	}
	if repeatPause(protocol.NECRepeatPeriodUS+1) != 0 {
		t.Error("an over-long burst must not wrap the pause")
	}
}

func TestTransmitCarrierReuse(t *testing.T) {
	tx, carrier := newTestTransmitter()

	for i := 0; i < 3; i++ {
		if err := tx.Transmit(0xA5, 8, 38); err != nil {
			t.Fatalf("Transmit failed: %v", err)
		}
	}
	if carrier.configured != 1 {
		t.Errorf("carrier configured %d times, want 1", carrier.configured)
	}

	if err := tx.Transmit(0xA5, 8, 36); err != nil {
		t.Fatalf("Transmit failed: %v", err)
	}
	if carrier.configured != 2 || carrier.freqHz != 36000 {
		t.Errorf("expected reconfiguration to 36 kHz, got %d Hz after %d calls",
			carrier.freqHz, carrier.configured)
	}
}

func TestTransmitErrors(t *testing.T) {
	tx, carrier := newTestTransmitter()

	if err := tx.Transmit(0x1, 0, 38); !errors.Is(err, protocol.ErrBitCount) {
		t.Errorf("bits=0: expected ErrBitCount, got %v", err)
	}
	if err := tx.Transmit(0x1, 33, 38); !errors.Is(err, protocol.ErrBitCount) {
		t.Errorf("bits=33: expected ErrBitCount, got %v", err)
	}
	if err := tx.Transmit(0x1, 8, 0); !errors.Is(err, ErrCarrierFrequency) {
		t.Errorf("khz=0: expected ErrCarrierFrequency, got %v", err)
	}

	carrier.err = errors.New("no PWM slice for pin")
	if err := tx.Transmit(0x1, 8, 40); !errors.Is(err, carrier.err) {
		t.Errorf("expected carrier error, got %v", err)
	}
	if len(carrier.pulses) != 0 {
		t.Errorf("nothing should be sent on error, got %v", carrier.pulses)
	}
}

// The transmitter's waveform decodes back to the same value through the sampler
func TestTransmitLoopback(t *testing.T) {
	tx, carrier := newTestTransmitter()
	if err := tx.Transmit(0xE0E040BF, 32, 38); err != nil {
		t.Fatalf("Transmit failed: %v", err)
	}

	r := NewReceiver(ReceiverConfig{})
	r.StartReceiving()
	replay(r, carrier.pulses)

	res, err := r.TryDecode()
	if err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	if res.Value != 0xE0E040BF {
		t.Errorf("value: got 0x%08X, want 0xE0E040BF", res.Value)
	}
}
