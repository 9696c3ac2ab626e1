package main

import (
	"fmt"
	"os"
	"sort"

	"irnec/host/mcu"
)

// replay re-decodes every capture report in a saved console log
func replay(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	records, err := mcu.ReadCaptureLog(f)
	if err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}

	mismatches := 0
	for _, rec := range records {
		status := "ok"
		if rec.Mismatch() {
			status = "MISMATCH"
			mismatches++
		}
		if rec.Err != nil {
			fmt.Printf("%5d %-8s %v\n", rec.Line, status, rec.Err)
			continue
		}
		fmt.Printf("%5d %-8s %s\n", rec.Line, status, describeFrame(rec.Frame))
	}
	fmt.Printf("%d captures, %d mismatches\n", len(records), mismatches)
	if mismatches > 0 {
		return fmt.Errorf("%d captures decode differently", mismatches)
	}
	return nil
}

func sortedConfig(cfg map[string]string) []string {
	lines := make([]string, 0, len(cfg))
	for k, v := range cfg {
		lines = append(lines, k+"="+v)
	}
	sort.Strings(lines)
	return lines
}
