package protocol

import "strconv"

// Matcher compares measured tick counts against nominal pulse widths.
//
// A nominal duration d (microseconds) is accepted when the measured count
// lies in [TicksLow(d'), TicksHigh(d')] where d' is d+MarkExcess for marks
// and d-MarkExcess for spaces. The excess models the IR sensor turning on
// late and off late, which stretches marks and shortens spaces.
type Matcher struct {
	USecPerTick uint32 // Sampler tick length
	Tolerance   uint32 // Symmetric band, percent
	MarkExcess  uint32 // Sensor lag correction, microseconds

	// Trace, when set, receives one line per comparison
	Trace func(string)
}

// Default is the matcher used by the package-level helpers
var Default = Matcher{
	USecPerTick: USecPerTick,
	Tolerance:   Tolerance,
	MarkExcess:  MarkExcess,
}

// TicksLow returns the smallest tick count accepted for us microseconds
func (m Matcher) TicksLow(us uint32) uint32 {
	return us * (100 - m.Tolerance) / (100 * m.USecPerTick)
}

// TicksHigh returns the largest tick count accepted for us microseconds
func (m Matcher) TicksHigh(us uint32) uint32 {
	return us*(100+m.Tolerance)/(100*m.USecPerTick) + 1
}

// Within reports whether measured ticks plausibly represent a pulse of
// nominalUS microseconds. isMark selects the direction of the lag correction.
func (m Matcher) Within(measured uint32, nominalUS uint32, isMark bool) bool {
	desired := nominalUS
	if isMark {
		desired += m.MarkExcess
	} else if desired > m.MarkExcess {
		desired -= m.MarkExcess
	} else {
		desired = 0
	}

	low, high := m.TicksLow(desired), m.TicksHigh(desired)
	ok := measured >= low && measured <= high

	if m.Trace != nil {
		m.trace(measured, nominalUS, isMark, low, high, ok)
	}
	return ok
}

// MatchMark is Within for a mark
func (m Matcher) MatchMark(measured uint32, nominalUS uint32) bool {
	return m.Within(measured, nominalUS, true)
}

// MatchSpace is Within for a space
func (m Matcher) MatchSpace(measured uint32, nominalUS uint32) bool {
	return m.Within(measured, nominalUS, false)
}

func (m Matcher) trace(measured, nominalUS uint32, isMark bool, low, high uint32, ok bool) {
	buf := make([]byte, 0, 64)
	if isMark {
		buf = append(buf, "Testing mark "...)
	} else {
		buf = append(buf, "Testing space "...)
	}
	buf = strconv.AppendUint(buf, uint64(measured*m.USecPerTick), 10)
	buf = append(buf, " vs "...)
	buf = strconv.AppendUint(buf, uint64(nominalUS), 10)
	buf = append(buf, ": "...)
	buf = strconv.AppendUint(buf, uint64(low), 10)
	buf = append(buf, " <= "...)
	buf = strconv.AppendUint(buf, uint64(measured), 10)
	buf = append(buf, " <= "...)
	buf = strconv.AppendUint(buf, uint64(high), 10)
	if !ok {
		buf = append(buf, " FAIL"...)
	}
	m.Trace(string(buf))
}

// WithinTolerance checks measured ticks against nominalUS with the default policy
func WithinTolerance(measured uint32, nominalUS uint32, isMark bool) bool {
	return Default.Within(measured, nominalUS, isMark)
}

// TicksLow returns the default lower bound in ticks for us microseconds
func TicksLow(us uint32) uint32 {
	return Default.TicksLow(us)
}

// TicksHigh returns the default upper bound in ticks for us microseconds
func TicksHigh(us uint32) uint32 {
	return Default.TicksHigh(us)
}
