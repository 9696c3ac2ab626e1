package protocol

import (
	"fmt"
	"strings"
	"testing"

	qt "github.com/frankban/quicktest"
)

type toleranceBounds struct {
	Name    string
	Nominal uint32
	IsMark  bool
	Low     uint32
	High    uint32
}

func TestToleranceBounds(t *testing.T) {
	c := qt.New(t)

	tests := []toleranceBounds{
		{"bit mark", NECBitMark, true, 9, 17},
		{"zero space", NECZeroSpace, false, 6, 12},
		{"one space", NECOneSpace, false, 23, 40},
		{"header mark", NECHeaderMark, true, 136, 228},
		{"header space", NECHeaderSpace, false, 66, 111},
		{"repeat space", NECRepeatSpace, false, 32, 54},
	}

	for _, tt := range tests {
		name := fmt.Sprintf("%s:%dus", tt.Name, tt.Nominal)
		c.Run(name, func(c *qt.C) {
			c.Assert(WithinTolerance(tt.Low, tt.Nominal, tt.IsMark), qt.IsTrue)
			c.Assert(WithinTolerance(tt.High, tt.Nominal, tt.IsMark), qt.IsTrue)
			c.Assert(WithinTolerance(tt.Low-1, tt.Nominal, tt.IsMark), qt.IsFalse)
			c.Assert(WithinTolerance(tt.High+1, tt.Nominal, tt.IsMark), qt.IsFalse)
		})
	}
}

func TestToleranceMarkExcess(t *testing.T) {
	c := qt.New(t)

	// The same nominal width is judged differently for marks and spaces
	c.Assert(TicksLow(NECBitMark+MarkExcess), qt.Equals, uint32(9))
	c.Assert(TicksLow(NECBitMark-MarkExcess), qt.Equals, uint32(6))
	c.Assert(WithinTolerance(17, NECBitMark, true), qt.IsTrue)
	c.Assert(WithinTolerance(17, NECBitMark, false), qt.IsFalse)

	// Spaces no longer than the excess collapse to a zero-width window
	c.Assert(WithinTolerance(0, 80, false), qt.IsTrue)
	c.Assert(WithinTolerance(1, 80, false), qt.IsTrue)
	c.Assert(WithinTolerance(2, 80, false), qt.IsFalse)
}

func TestToleranceResolution(t *testing.T) {
	c := qt.New(t)

	m := Default
	m.USecPerTick = 10
	c.Assert(m.MatchMark(66, NECBitMark), qt.IsTrue)
	c.Assert(m.MatchMark(11, NECBitMark), qt.IsFalse)
	c.Assert(m.TicksHigh(NECHeaderMark+MarkExcess), qt.Equals, uint32(1138))
}

func TestToleranceTrace(t *testing.T) {
	c := qt.New(t)

	var lines []string
	m := Default
	m.Trace = func(s string) { lines = append(lines, s) }

	c.Assert(m.MatchMark(11, NECBitMark), qt.IsTrue)
	c.Assert(m.MatchSpace(11, NECOneSpace), qt.IsFalse)

	c.Assert(lines, qt.DeepEquals, []string{
		"Testing mark 550 vs 560: 9 <= 11 <= 17",
		"Testing space 550 vs 1690: 23 <= 11 <= 40 FAIL",
	})
	c.Assert(strings.HasSuffix(lines[1], "FAIL"), qt.IsTrue)
}
