package mcu

import (
	"bufio"
	"errors"
	"fmt"
	"io"

	"github.com/golang/glog"

	"irnec/protocol"
)

// Record is one capture report read back from a log
type Record struct {
	Line   int
	Frame  *protocol.Frame
	Result protocol.DecodeResult
	Err    error // Decode error, if the capture did not decode
}

// Mismatch reports whether re-decoding disagrees with the value the board reported
func (r *Record) Mismatch() bool {
	reported := r.Frame.Value != ""
	decoded := r.Err == nil
	if reported != decoded {
		return true
	}
	if !reported {
		return false
	}
	v, err := r.Frame.DecodedValue()
	return err != nil || v != r.Result.Value
}

// ReadCaptureLog reads a console log and re-decodes every capture report.
// Lines that are not reports are skipped; a malformed report is an error.
func ReadCaptureLog(r io.Reader) ([]Record, error) {
	var records []Record

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 4096), 1<<20)
	for n := 1; scanner.Scan(); n++ {
		frame, err := protocol.ParseFrame(scanner.Bytes())
		if errors.Is(err, protocol.ErrNotFrame) {
			continue
		}
		if err != nil {
			return records, fmt.Errorf("line %d: %w", n, err)
		}

		rec := Record{Line: n, Frame: frame}
		rec.Result, rec.Err = frame.Decode()
		if rec.Mismatch() {
			glog.Warningf("line %d: board reported %q, replay decoded %08X (%v)",
				n, frame.Value, rec.Result.Value, rec.Err)
		}
		records = append(records, rec)
	}
	if err := scanner.Err(); err != nil {
		return records, fmt.Errorf("failed to read capture log: %w", err)
	}
	return records, nil
}
