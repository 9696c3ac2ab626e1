// Package protocol implements the NEC infrared pulse-distance codec
package protocol

// Version represents the irnec firmware version
const Version = "0.1.0"

// ProtocolID identifies the IR protocol of a decoded frame
type ProtocolID uint8

const (
	Unknown ProtocolID = iota
	NEC
)

func (p ProtocolID) String() string {
	switch p {
	case NEC:
		return "NEC"
	default:
		return "Unknown"
	}
}

// ParseProtocolID maps a protocol name back to its identifier
func ParseProtocolID(name string) ProtocolID {
	switch name {
	case "NEC":
		return NEC
	default:
		return Unknown
	}
}

// Sampling and tolerance policy
const (
	USecPerTick = 50   // Microseconds per sampler tick
	Tolerance   = 25   // Percent tolerance on every nominal duration
	MarkExcess  = 100  // Sensor lag (us) added to marks, removed from spaces
	GapUS       = 5000 // Minimum silence between transmissions
	GapTicks    = GapUS / USecPerTick
)

// NEC timing table (microseconds)
// https://www.sbprojects.net/knowledge/ir/nec.php
const (
	NECHeaderMark  = 9000
	NECHeaderSpace = 4500
	NECBitMark     = 560
	NECOneSpace    = 1690
	NECZeroSpace   = 560
	NECRepeatSpace = 2250
	NECBits        = 32

	// NEC consumer IR is modulated at 38 kHz
	NECCarrierKHz = 38

	// Frames are repeated every 108 ms while a key is held
	NECRepeatPeriodUS = 108000
)

// Repeat is the value reported for an NEC repeat code
const Repeat uint32 = 0xFFFFFFFF

// DecodeResult is the outcome of a single successful decode
type DecodeResult struct {
	Value    uint32
	Bits     int // 0 for repeat codes
	Protocol ProtocolID
}

// IsRepeat reports whether the result is an NEC repeat code
func (r DecodeResult) IsRepeat() bool {
	return r.Bits == 0 && r.Value == Repeat
}
