package protocol

import (
	"errors"
	"regexp"
	"strings"
	"testing"

	qt "github.com/frankban/quicktest"
)

func TestAppendFrame(t *testing.T) {
	c := qt.New(t)

	raw := []uint16{312, 180, 90, 11, 34, 11}
	line := AppendFrame(nil, raw, DecodeResult{Value: 0x20DF10EF, Bits: 32, Protocol: NEC}, nil)
	c.Assert(string(line), qt.Equals,
		`{"protocol":"NEC","value":"20DF10EF","bits":32,"resolution":50,"gap":312,"data":[[180,90],[11,34],[11,0]]}`)
}

func TestAppendFrameRepeat(t *testing.T) {
	c := qt.New(t)

	line := AppendFrame(nil, []uint16{2000, 180, 45, 11}, DecodeResult{Value: Repeat, Protocol: NEC}, nil)
	c.Assert(string(line), qt.Equals,
		`{"protocol":"NEC","value":"FFFFFFFF","repeat":true,"bits":0,"resolution":50,"gap":2000,"data":[[180,45],[11,0]]}`)
}

func TestAppendFrameError(t *testing.T) {
	c := qt.New(t)

	raw := []uint16{500, 60, 90, 11}
	_, err := DecodeNEC(raw, 32)
	c.Assert(err, qt.IsNotNil)

	line := AppendFrame(make([]byte, 0, 16), raw, DecodeResult{}, err)
	c.Assert(strings.HasPrefix(string(line), `{"protocol":"Unknown","bits":0,`), qt.IsTrue)
	c.Assert(strings.HasSuffix(string(line), `,"error":"nec: header mark mismatch at entry 1 (60 ticks)"}`), qt.IsTrue)

	f, perr := ParseFrame(line)
	c.Assert(perr, qt.IsNil)
	c.Assert(f.Error, qt.Equals, err.Error())
	c.Assert(f.Value, qt.Equals, "")
}

func TestFrameRoundTrip(t *testing.T) {
	c := qt.New(t)

	raw := rawFromPulses(312, Durations(0x20DF10EF, 32))
	res, err := DecodeNEC(raw, 32)
	c.Assert(err, qt.IsNil)

	f, err := ParseFrame(AppendFrame(nil, raw, res, nil))
	c.Assert(err, qt.IsNil)
	c.Assert(f.Protocol, qt.Equals, "NEC")
	c.Assert(f.Resolution, qt.Equals, USecPerTick)
	c.Assert(f.Data, qt.HasLen, 34)
	c.Assert(f.Raw(), qt.DeepEquals, raw)

	v, err := f.DecodedValue()
	c.Assert(err, qt.IsNil)
	c.Assert(v, qt.Equals, uint32(0x20DF10EF))

	again, err := f.Decode()
	c.Assert(err, qt.IsNil)
	c.Assert(again, qt.Equals, res)

	pairs := f.Pairs()
	c.Assert(pairs[0], qt.Equals, MarkSpacePair{Mark: 9000, Space: 4500})
	c.Assert(pairs[len(pairs)-1], qt.Equals, MarkSpacePair{Mark: 550, Space: 0})
	c.Assert(pairs[0].String(), qt.Equals, "(9000, 4500)")
}

func TestFrameResolution(t *testing.T) {
	c := qt.New(t)

	// A capture taken at 10us resolution decodes with a matching matcher
	var raw []uint16
	raw = append(raw, 1000)
	for _, p := range Durations(0xA5, 8) {
		if p.US > 0 {
			raw = append(raw, uint16(p.US/10))
		}
	}
	f := &Frame{Resolution: 10, Bits: 8, Gap: int(raw[0])}
	for i := 1; i < len(raw); i += 2 {
		space := 0
		if i+1 < len(raw) {
			space = int(raw[i+1])
		}
		f.Data = append(f.Data, []int{int(raw[i]), space})
	}

	res, err := f.Decode()
	c.Assert(err, qt.IsNil)
	c.Assert(res.Value, qt.Equals, uint32(0xA5))
}

func TestParseFrameErrors(t *testing.T) {
	c := qt.New(t)

	_, err := ParseFrame([]byte("ok"))
	c.Assert(errors.Is(err, ErrNotFrame), qt.IsTrue)

	_, err = ParseFrame(nil)
	c.Assert(errors.Is(err, ErrNotFrame), qt.IsTrue)

	_, err = ParseFrame([]byte(`{"protocol":`))
	c.Assert(err, qt.ErrorMatches, "failed to parse frame: .*")

	_, err = ParseFrame([]byte(`{"protocol":"NEC","data":[[1,2],[3]]}`))
	c.Assert(err, qt.ErrorMatches, "frame pair 1 has 1 values")

	for _, tt := range []struct {
		line string
		want string
	}{
		{`{"protocol":"RC5","data":[]}`, `unknown frame protocol "RC5"`},
		{`{"protocol":"NEC","gap":-1,"data":[]}`, "frame gap -1 out of range"},
		{`{"protocol":"NEC","gap":65536,"data":[]}`, "frame gap 65536 out of range"},
		{`{"protocol":"NEC","gap":10,"data":[[180,90],[-11,34]]}`, "frame pair 1 value -11 out of range"},
		{`{"protocol":"NEC","gap":10,"data":[[70000,90]]}`, "frame pair 0 value 70000 out of range"},
		{`{"protocol":"NEC","bits":33,"data":[]}`, "frame bits 33 out of range"},
		{`{"protocol":"NEC","resolution":-50,"data":[]}`, "frame resolution -50 out of range"},
	} {
		_, err = ParseFrame([]byte(tt.line))
		c.Check(err, qt.ErrorMatches, regexp.QuoteMeta(tt.want), qt.Commentf("%s", tt.line))
	}

	// Limits of the 16-bit capture buffer are still accepted
	f, err := ParseFrame([]byte(`{"protocol":"Unknown","gap":65535,"data":[[0,65535]],"error":"nec: truncated capture"}`))
	c.Assert(err, qt.IsNil)
	c.Assert(f.Raw(), qt.DeepEquals, []uint16{65535, 0, 65535})

	f, err = ParseFrame([]byte(`{"protocol":"NEC","value":"zz","data":[]}`))
	c.Assert(err, qt.IsNil)
	c.Assert(f.Resolution, qt.Equals, USecPerTick)
	_, err = f.DecodedValue()
	c.Assert(err, qt.IsNotNil)
}

func TestParseFrameIgnoresOtherJSON(t *testing.T) {
	c := qt.New(t)

	_, err := ParseFrame([]byte(`{"version":"irnec-0.1.0","mcu":"rp2040","config":{}}`))
	c.Assert(errors.Is(err, ErrNotFrame), qt.IsTrue)
}
