package mcu

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"irnec/protocol"
)

func rawFromPulses(gap uint16, pulses protocol.Pulses) []uint16 {
	raw := []uint16{gap}
	for _, p := range pulses {
		if p.US > 0 {
			raw = append(raw, uint16(p.US/protocol.USecPerTick))
		}
	}
	return raw
}

func frameLine(raw []uint16) string {
	res, err := protocol.DecodeNEC(raw, 32)
	return string(protocol.AppendFrame(nil, raw, res, err))
}

func TestReadCaptureLog(t *testing.T) {
	var repeat protocol.Pulses
	protocol.EncodeNECRepeat(&repeat)

	log := strings.Join([]string{
		"ok",
		frameLine(rawFromPulses(400, protocol.Durations(0x20DF10EF, 32))),
		"state=idle receiving=1 captures=1 frames=1 failures=0 sent=0 missed=0 debug=0",
		frameLine(rawFromPulses(1800, repeat)),
		frameLine([]uint16{500, 60, 90, 11}),
		"",
	}, "\n")

	records, err := ReadCaptureLog(strings.NewReader(log))
	require.NoError(t, err)
	require.Len(t, records, 3)

	require.Equal(t, 2, records[0].Line)
	require.NoError(t, records[0].Err)
	require.Equal(t, uint32(0x20DF10EF), records[0].Result.Value)
	require.False(t, records[0].Mismatch())

	require.Equal(t, 4, records[1].Line)
	require.True(t, records[1].Result.IsRepeat())
	require.False(t, records[1].Mismatch())

	require.Equal(t, 5, records[2].Line)
	require.True(t, errors.Is(records[2].Err, protocol.ErrInvalid))
	require.Equal(t, "Unknown", records[2].Frame.Protocol)
	require.False(t, records[2].Mismatch())
}

func TestReadCaptureLogMismatch(t *testing.T) {
	raw := rawFromPulses(400, protocol.Durations(0x20DF10EF, 32))
	line := string(protocol.AppendFrame(nil, raw,
		protocol.DecodeResult{Value: 0x12345678, Bits: 32, Protocol: protocol.NEC}, nil))

	records, err := ReadCaptureLog(strings.NewReader(line))
	require.NoError(t, err)
	require.Len(t, records, 1)
	require.True(t, records[0].Mismatch())
}

func TestReadCaptureLogMalformed(t *testing.T) {
	log := "ok\n" + `{"protocol":"NEC","data":[[1]]}` + "\n"

	_, err := ReadCaptureLog(strings.NewReader(log))
	require.Error(t, err)
	require.Contains(t, err.Error(), "line 2")
}
