package protocol

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
)

// ErrNotFrame is returned for console lines that are not capture reports
var ErrNotFrame = errors.New("protocol: not a frame line")

// Frame is the host-side view of a capture report
type Frame struct {
	Protocol   string  `json:"protocol"`
	Value      string  `json:"value,omitempty"`
	Repeat     bool    `json:"repeat,omitempty"`
	Bits       int     `json:"bits"`
	Resolution int     `json:"resolution"`
	Gap        int     `json:"gap"`
	Data       [][]int `json:"data"`
	Error      string  `json:"error,omitempty"`
}

// MarkSpacePair is one pulse pair in microseconds
type MarkSpacePair struct {
	Mark  float64 `json:"mark"`
	Space float64 `json:"space"`
}

func (m MarkSpacePair) String() string {
	return fmt.Sprintf("(%v, %v)", m.Mark, m.Space)
}

// ParseFrame decodes one report line
func ParseFrame(line []byte) (*Frame, error) {
	if len(line) == 0 || line[0] != '{' {
		return nil, ErrNotFrame
	}

	var f Frame
	if err := json.Unmarshal(line, &f); err != nil {
		return nil, fmt.Errorf("failed to parse frame: %w", err)
	}
	if f.Protocol == "" {
		// Some other JSON reply, e.g. info
		return nil, ErrNotFrame
	}
	if ParseProtocolID(f.Protocol).String() != f.Protocol {
		return nil, fmt.Errorf("unknown frame protocol %q", f.Protocol)
	}
	if f.Bits < 0 || f.Bits > 32 {
		return nil, fmt.Errorf("frame bits %d out of range", f.Bits)
	}
	if f.Resolution < 0 || f.Resolution > math.MaxUint16 {
		return nil, fmt.Errorf("frame resolution %d out of range", f.Resolution)
	}

	// The firmware buffer holds 16-bit tick counts
	if f.Gap < 0 || f.Gap > math.MaxUint16 {
		return nil, fmt.Errorf("frame gap %d out of range", f.Gap)
	}
	for i, pair := range f.Data {
		if len(pair) != 2 {
			return nil, fmt.Errorf("frame pair %d has %d values", i, len(pair))
		}
		for _, v := range pair {
			if v < 0 || v > math.MaxUint16 {
				return nil, fmt.Errorf("frame pair %d value %d out of range", i, v)
			}
		}
	}
	if f.Resolution == 0 {
		f.Resolution = USecPerTick
	}
	return &f, nil
}

// Raw rebuilds the capture buffer the frame was reported from
func (f *Frame) Raw() []uint16 {
	raw := make([]uint16, 0, 2*len(f.Data)+1)
	raw = append(raw, uint16(f.Gap))
	for i, pair := range f.Data {
		raw = append(raw, uint16(pair[0]))
		if i == len(f.Data)-1 && pair[1] == 0 {
			break
		}
		raw = append(raw, uint16(pair[1]))
	}
	return raw
}

// Pairs returns the frame's pulse pairs in microseconds
func (f *Frame) Pairs() []MarkSpacePair {
	pairs := make([]MarkSpacePair, len(f.Data))
	for i, p := range f.Data {
		pairs[i].Mark = float64(p[0] * f.Resolution)
		pairs[i].Space = float64(p[1] * f.Resolution)
	}
	return pairs
}

// Decode re-runs the NEC decoder over the frame's raw timings
func (f *Frame) Decode() (DecodeResult, error) {
	m := Default
	m.USecPerTick = uint32(f.Resolution)

	bits := f.Bits
	if bits == 0 {
		bits = NECBits
	}
	return m.DecodeNEC(f.Raw(), bits)
}

// DecodedValue returns the reported value
func (f *Frame) DecodedValue() (uint32, error) {
	v, err := strconv.ParseUint(f.Value, 16, 32)
	if err != nil {
		return 0, fmt.Errorf("invalid frame value %q: %w", f.Value, err)
	}
	return uint32(v), nil
}
