package protocol

import "math/bits"

// Decoded values are assembled most significant bit first, while NEC sends
// each byte least significant bit first in the order
// { address (low), address (high), command, ^command }.
// The helpers below convert between the two layouts.

// ToAirOrder converts a decoded 32-bit value to on-air (LSB first) layout
func ToAirOrder(value uint32) uint32 {
	return bits.Reverse32(value)
}

// FromAirOrder converts an on-air layout to the decoded 32-bit value
func FromAirOrder(raw uint32) uint32 {
	return bits.Reverse32(raw)
}

// SplitNEC breaks a decoded 32-bit value into address and command.
// valid is false when the command does not match its inverse.
func SplitNEC(value uint32) (valid bool, address uint16, command byte) {
	return SplitRawNECData(ToAirOrder(value))
}

// MakeNEC assembles the decoded 32-bit value for address and command
func MakeNEC(address uint16, command byte) uint32 {
	return FromAirOrder(MakeRawNECData(address, command))
}

// SplitRawNECData breaks an on-air NEC code into its parts
func SplitRawNECData(data uint32) (valid bool, address uint16, command byte) {
	addrLow := byte(data & 0xff)
	addrHigh := byte((data & 0xff00) >> 8)
	command = byte((data & 0xff0000) >> 16)
	invCmd := byte((data & 0xff000000) >> 24)
	address = MakeNECAddress(addrLow, addrHigh)
	return command == ^invCmd, address, command
}

// MakeRawNECData assembles an on-air NEC code
func MakeRawNECData(address uint16, command byte) uint32 {
	addrLow, addrHigh := SplitNECAddress(address)
	return uint32(^command)<<24 | uint32(command)<<16 | uint32(addrHigh)<<8 | uint32(addrLow)
}

// SplitNECAddress splits an address into the two transmitted bytes.
// 8-bit addresses are sent with their inverse as the high byte.
func SplitNECAddress(address uint16) (addrLow, addrHigh byte) {
	addrLow = byte(address & 0xff)
	addrHigh = byte((address & 0xff00) >> 8)
	if addrHigh == 0 {
		addrHigh = ^addrLow
	}
	return addrLow, addrHigh
}

// MakeNECAddress joins the transmitted address bytes.
// A high byte equal to ^low is the 8-bit form, not an extended address.
func MakeNECAddress(addrLow, addrHigh byte) uint16 {
	if addrHigh == ^addrLow {
		return uint16(addrLow)
	}
	return uint16(addrHigh)<<8 | uint16(addrLow)
}
