// Package config loads the board profile: receiver and transmitter wiring
// plus the defaults used by the console send commands.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"irnec/core"
	"irnec/protocol"
)

// Carrier backends
const (
	CarrierPWM = "pwm"
	CarrierPIO = "pio"
)

// ErrPinName is returned for pin names that are not of the form "gpioN"
var ErrPinName = errors.New("config: invalid pin name")

// ReceiverConfig describes the IR sensor
type ReceiverConfig struct {
	Pin        string `json:"pin"`
	ActiveHigh bool   `json:"active_high"`
	PullUp     *bool  `json:"pull_up"`
	Bits       int    `json:"bits"`
}

// TransmitterConfig describes the IR LED
type TransmitterConfig struct {
	Pin         string `json:"pin"`
	CarrierKHz  uint32 `json:"carrier_khz"`
	DutyPercent uint8  `json:"duty_percent"`
	Backend     string `json:"backend"` // "pwm" or "pio"
}

// BoardConfig is the complete board profile
type BoardConfig struct {
	Board          string            `json:"board"`
	Receiver       ReceiverConfig    `json:"receiver"`
	Transmitter    TransmitterConfig `json:"transmitter"`
	StatusLED      string            `json:"status_led"` // ws2812 data pin, empty for none
	ReportFailures bool              `json:"report_failures"`
}

// LoadConfig parses a JSON board profile and applies defaults
func LoadConfig(jsonData []byte) (*BoardConfig, error) {
	var config BoardConfig

	err := json.Unmarshal(jsonData, &config)
	if err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}

	applyDefaults(&config)

	if err := config.Validate(); err != nil {
		return nil, err
	}
	return &config, nil
}

// applyDefaults fills in missing configuration values with sensible defaults
func applyDefaults(config *BoardConfig) {
	if config.Board == "" {
		config.Board = "pico"
	}

	// Receiver: TSOP38xx style module, low during a mark
	if config.Receiver.Pin == "" {
		config.Receiver.Pin = "gpio15"
	}
	if config.Receiver.PullUp == nil {
		pullUp := true
		config.Receiver.PullUp = &pullUp
	}
	if config.Receiver.Bits == 0 {
		config.Receiver.Bits = protocol.NECBits
	}

	// Transmitter
	if config.Transmitter.Pin == "" {
		config.Transmitter.Pin = "gpio14"
	}
	if config.Transmitter.CarrierKHz == 0 {
		config.Transmitter.CarrierKHz = protocol.NECCarrierKHz
	}
	if config.Transmitter.DutyPercent == 0 {
		config.Transmitter.DutyPercent = 33
	}
	if config.Transmitter.Backend == "" {
		config.Transmitter.Backend = CarrierPWM
	}
}

// Validate checks pin names and ranges
func (c *BoardConfig) Validate() error {
	if _, err := ParsePin(c.Receiver.Pin); err != nil {
		return fmt.Errorf("receiver: %w", err)
	}
	if _, err := ParsePin(c.Transmitter.Pin); err != nil {
		return fmt.Errorf("transmitter: %w", err)
	}
	if c.StatusLED != "" {
		if _, err := ParsePin(c.StatusLED); err != nil {
			return fmt.Errorf("status_led: %w", err)
		}
	}
	if c.Receiver.Bits < 1 || c.Receiver.Bits > 32 {
		return fmt.Errorf("receiver: bits %d out of range 1..32", c.Receiver.Bits)
	}
	if c.Transmitter.DutyPercent > 100 {
		return fmt.Errorf("transmitter: duty %d%% out of range", c.Transmitter.DutyPercent)
	}
	switch c.Transmitter.Backend {
	case CarrierPWM, CarrierPIO:
	default:
		return fmt.Errorf("transmitter: unknown carrier backend %q", c.Transmitter.Backend)
	}
	return nil
}

// ParsePin converts a pin name like "gpio15" to its number
func ParsePin(name string) (uint32, error) {
	num, ok := strings.CutPrefix(strings.ToLower(name), "gpio")
	if !ok {
		return 0, fmt.Errorf("%w: %q", ErrPinName, name)
	}
	n, err := strconv.ParseUint(num, 10, 8)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrPinName, name)
	}
	return uint32(n), nil
}

// ReceiverSettings converts the profile to core receiver settings
func (c *BoardConfig) ReceiverSettings() core.ReceiverConfig {
	pin, _ := ParsePin(c.Receiver.Pin)
	return core.ReceiverConfig{
		Pin:        core.GPIOPin(pin),
		ActiveHigh: c.Receiver.ActiveHigh,
		PullUp:     c.Receiver.PullUp != nil && *c.Receiver.PullUp,
		Bits:       c.Receiver.Bits,
	}
}

// TransmitterSettings converts the profile to core transmitter settings
func (c *BoardConfig) TransmitterSettings() core.TransmitterConfig {
	pin, _ := ParsePin(c.Transmitter.Pin)
	return core.TransmitterConfig{
		Pin:         core.CarrierPin(pin),
		DutyPercent: c.Transmitter.DutyPercent,
	}
}

// ConsoleSettings converts the profile to console defaults
func (c *BoardConfig) ConsoleSettings() core.ConsoleConfig {
	return core.ConsoleConfig{
		CarrierKHz:     c.Transmitter.CarrierKHz,
		Bits:           c.Receiver.Bits,
		ReportFailures: c.ReportFailures,
	}
}

// DefaultConfig returns the profile for a Pico with a TSOP38238 on GPIO15
// and an IR LED driver on GPIO14
func DefaultConfig() *BoardConfig {
	var config BoardConfig
	applyDefaults(&config)
	return &config
}

// JSON returns the profile as indented JSON
func (c *BoardConfig) JSON() ([]byte, error) {
	return json.MarshalIndent(c, "", "  ")
}

// DefaultConfigJSON returns the default profile as indented JSON
func DefaultConfigJSON() ([]byte, error) {
	return DefaultConfig().JSON()
}
