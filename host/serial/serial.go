// Package serial opens the USB CDC link to an IR board
package serial

import (
	"io"
)

// Port is the byte stream to the board. Implementations:
// - native serial (github.com/tarm/serial)
// - net.Pipe or similar in tests
type Port interface {
	io.ReadWriteCloser

	// Flush discards any buffered data
	Flush() error
}

// Config holds serial port configuration
type Config struct {
	// Device path (e.g., "/dev/ttyACM0", "COM3")
	Device string

	// Baud rate (USB CDC ignores this, UART bridges don't)
	Baud int

	// Read timeout in milliseconds (0 = blocking).
	// A read that times out returns io.EOF with no data.
	ReadTimeout int
}

// DefaultConfig returns the configuration used by the board console
func DefaultConfig(device string) *Config {
	return &Config{
		Device:      device,
		Baud:        115200,
		ReadTimeout: 100,
	}
}
