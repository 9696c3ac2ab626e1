package core

// CarrierPin identifies the pin driving the IR LED
type CarrierPin uint32

// CarrierDriver is the abstract modulated-output interface used by the
// transmitter. A mark is the carrier switched on, a space switched off.
type CarrierDriver interface {
	// ConfigureCarrier sets up freqHz modulation on pin at dutyPercent.
	// The output must be left off.
	ConfigureCarrier(pin CarrierPin, freqHz uint32, dutyPercent uint8) error

	// EnableCarrier starts modulated output
	EnableCarrier(pin CarrierPin)

	// DisableCarrier stops modulated output and drives the pin low
	DisableCarrier(pin CarrierPin)
}

// Global singleton used by core code.
var carrierDriver CarrierDriver

// SetCarrierDriver is called by target-specific code to register its driver.
func SetCarrierDriver(d CarrierDriver) {
	carrierDriver = d
}

// MustCarrier returns the configured driver or panics if missing.
func MustCarrier() CarrierDriver {
	if carrierDriver == nil {
		panic("carrier driver not configured")
	}
	return carrierDriver
}
