package protocol

import (
	"errors"
	"fmt"
	"strconv"
)

var (
	// ErrInvalid is returned for any timing mismatch during decode
	ErrInvalid = errors.New("nec: invalid timing")

	// ErrTruncated is returned when a capture is too short for a full payload
	ErrTruncated = fmt.Errorf("%w: capture too short", ErrInvalid)

	// ErrBitCount is returned for bit counts outside 1..32
	ErrBitCount = errors.New("nec: bit count out of range")
)

// DecodeError describes the first entry that failed its tolerance test
type DecodeError struct {
	Stage  string // "header mark", "header space", "bit mark", "bit space"
	Offset int    // Index into the raw buffer
	Ticks  uint16 // Measured value at Offset
}

func (e *DecodeError) Error() string {
	return "nec: " + e.Stage + " mismatch at entry " + strconv.Itoa(e.Offset) +
		" (" + strconv.Itoa(int(e.Ticks)) + " ticks)"
}

func (e *DecodeError) Unwrap() error {
	return ErrInvalid
}

// DecodeNEC decodes raw with the default matcher
func DecodeNEC(raw []uint16, bits int) (DecodeResult, error) {
	return Default.DecodeNEC(raw, bits)
}

// DecodeNEC interprets a completed capture as an NEC transmission.
//
// raw holds alternating space/mark tick counts starting with the leading
// gap. Decoding is single shot: the first mismatch fails the whole capture
// and no partial value is returned. Bits arrive most significant first.
func (m Matcher) DecodeNEC(raw []uint16, bits int) (DecodeResult, error) {
	if bits <= 0 || bits > 32 {
		return DecodeResult{}, ErrBitCount
	}
	if len(raw) < 2 {
		return DecodeResult{}, ErrTruncated
	}

	offset := 1 // Skip the leading gap
	if !m.MatchMark(uint32(raw[offset]), NECHeaderMark) {
		return DecodeResult{}, &DecodeError{"header mark", offset, raw[offset]}
	}
	offset++

	// A repeat is exactly gap, header mark, repeat space, bit mark
	if len(raw) == 4 &&
		m.MatchSpace(uint32(raw[offset]), NECRepeatSpace) &&
		m.MatchMark(uint32(raw[offset+1]), NECBitMark) {
		return DecodeResult{Value: Repeat, Bits: 0, Protocol: NEC}, nil
	}

	if len(raw) < 2*bits+4 {
		return DecodeResult{}, ErrTruncated
	}

	if !m.MatchSpace(uint32(raw[offset]), NECHeaderSpace) {
		return DecodeResult{}, &DecodeError{"header space", offset, raw[offset]}
	}
	offset++

	var data uint32
	for i := 0; i < bits; i++ {
		if !m.MatchMark(uint32(raw[offset]), NECBitMark) {
			return DecodeResult{}, &DecodeError{"bit mark", offset, raw[offset]}
		}
		offset++

		if m.MatchSpace(uint32(raw[offset]), NECOneSpace) {
			data = data<<1 | 1
		} else if m.MatchSpace(uint32(raw[offset]), NECZeroSpace) {
			data <<= 1
		} else {
			return DecodeResult{}, &DecodeError{"bit space", offset, raw[offset]}
		}
		offset++
	}

	return DecodeResult{Value: data, Bits: bits, Protocol: NEC}, nil
}

// Emitter receives the pulse sequence produced by the encoder.
// A zero-length space terminates the sequence.
type Emitter interface {
	Mark(us uint32)
	Space(us uint32)
}

// EncodeNEC emits the low bits of value, most significant first, framed by
// the NEC header and a closing bit mark.
func EncodeNEC(e Emitter, value uint32, bits int) {
	if bits > 32 {
		bits = 32
	}

	e.Mark(NECHeaderMark)
	e.Space(NECHeaderSpace)
	for i := bits - 1; i >= 0; i-- {
		e.Mark(NECBitMark)
		if value&(1<<uint(i)) != 0 {
			e.Space(NECOneSpace)
		} else {
			e.Space(NECZeroSpace)
		}
	}
	e.Mark(NECBitMark)
	e.Space(0)
}

// EncodeNECRepeat emits the short code sent while a key is held
func EncodeNECRepeat(e Emitter) {
	e.Mark(NECHeaderMark)
	e.Space(NECRepeatSpace)
	e.Mark(NECBitMark)
	e.Space(0)
}

// Pulse is a single mark or space
type Pulse struct {
	Mark bool
	US   uint32
}

// Pulses records an emitted sequence
type Pulses []Pulse

func (p *Pulses) Mark(us uint32) {
	*p = append(*p, Pulse{Mark: true, US: us})
}

func (p *Pulses) Space(us uint32) {
	*p = append(*p, Pulse{Mark: false, US: us})
}

// Total returns the on-air duration of the sequence in microseconds
func (p Pulses) Total() uint32 {
	var total uint32
	for _, pulse := range p {
		total += pulse.US
	}
	return total
}

// Durations returns the pulse sequence EncodeNEC would emit
func Durations(value uint32, bits int) Pulses {
	p := make(Pulses, 0, 2*bits+4)
	EncodeNEC(&p, value, bits)
	return p
}
