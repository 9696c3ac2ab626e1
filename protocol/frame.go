package protocol

import "strconv"

// Captures are reported to the host one per line as JSON:
//
//	{"protocol":"NEC","value":"20DF10EF","bits":32,"resolution":50,"gap":312,
//	 "data":[[180,90],[11,34],...,[11,0]]}
//
// data holds (mark, space) tick pairs after the leading gap; the closing
// mark has a zero space. resolution is the tick length in microseconds.

const hexDigits = "0123456789ABCDEF"

// AppendFrame appends the JSON report line for a capture to buf.
// err is the decode error, if any. No trailing newline is written.
func AppendFrame(buf []byte, raw []uint16, res DecodeResult, err error) []byte {
	buf = append(buf, `{"protocol":"`...)
	if err == nil {
		buf = append(buf, res.Protocol.String()...)
	} else {
		buf = append(buf, Unknown.String()...)
	}
	buf = append(buf, '"')

	if err == nil {
		buf = append(buf, `,"value":"`...)
		buf = appendHex32(buf, res.Value)
		buf = append(buf, '"')
		if res.IsRepeat() {
			buf = append(buf, `,"repeat":true`...)
		}
	}

	buf = append(buf, `,"bits":`...)
	buf = strconv.AppendInt(buf, int64(res.Bits), 10)
	buf = append(buf, `,"resolution":`...)
	buf = strconv.AppendInt(buf, USecPerTick, 10)
	buf = append(buf, `,"gap":`...)
	if len(raw) > 0 {
		buf = strconv.AppendUint(buf, uint64(raw[0]), 10)
	} else {
		buf = append(buf, '0')
	}

	buf = append(buf, `,"data":[`...)
	for i := 1; i < len(raw); i += 2 {
		if i > 1 {
			buf = append(buf, ',')
		}
		buf = append(buf, '[')
		buf = strconv.AppendUint(buf, uint64(raw[i]), 10)
		buf = append(buf, ',')
		if i+1 < len(raw) {
			buf = strconv.AppendUint(buf, uint64(raw[i+1]), 10)
		} else {
			buf = append(buf, '0')
		}
		buf = append(buf, ']')
	}
	buf = append(buf, ']')

	if err != nil {
		buf = append(buf, `,"error":`...)
		buf = AppendString(buf, err.Error())
	}
	return append(buf, '}')
}

func appendHex32(buf []byte, v uint32) []byte {
	for shift := 28; shift >= 0; shift -= 4 {
		buf = append(buf, hexDigits[(v>>uint(shift))&0xF])
	}
	return buf
}
