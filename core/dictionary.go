package core

import (
	"sort"
	"sync"

	"irnec/protocol"
)

// Constant represents a firmware constant reported by the info command
type Constant struct {
	Name  string
	Value interface{} // Can be string, int, etc.
}

// Dictionary describes the firmware build and board wiring to the host
type Dictionary struct {
	mu        sync.RWMutex
	constants map[string]*Constant
	version   string
	mcu       string
	cached    []byte
}

var globalDictionary = NewDictionary()

// NewDictionary creates a new dictionary
func NewDictionary() *Dictionary {
	return &Dictionary{
		constants: make(map[string]*Constant),
		version:   "irnec-" + protocol.Version,
		mcu:       "host",
	}
}

// RegisterConstant registers a constant in the global dictionary
func RegisterConstant(name string, value interface{}) {
	globalDictionary.AddConstant(name, value)
}

// SetMCU sets the MCU name of the global dictionary
func SetMCU(name string) {
	globalDictionary.mu.Lock()
	defer globalDictionary.mu.Unlock()
	globalDictionary.mcu = name
	globalDictionary.cached = nil
}

// GetGlobalDictionary returns the global dictionary instance
func GetGlobalDictionary() *Dictionary {
	return globalDictionary
}

// AddConstant adds or replaces a constant
func (d *Dictionary) AddConstant(name string, value interface{}) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.constants[name] = &Constant{
		Name:  name,
		Value: value,
	}
	d.cached = nil
}

// Lookup returns the string value of a constant
func (d *Dictionary) Lookup(name string) (string, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	c, ok := d.constants[name]
	if !ok {
		return "", false
	}
	return valueToString(c.Value), true
}

// Generate returns the dictionary as a single JSON line:
//
//	{"version":"irnec-0.1.0","mcu":"rp2040","config":{"CLOCK_FREQ":"1000000",...}}
func (d *Dictionary) Generate() []byte {
	d.mu.RLock()
	cached := d.cached
	d.mu.RUnlock()
	if cached != nil {
		return cached
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	d.cached = d.buildJSONLocked()
	return d.cached
}

// buildJSONLocked builds the JSON dictionary (caller must hold lock)
func (d *Dictionary) buildJSONLocked() []byte {
	result := make([]byte, 0, 256)

	result = append(result, `{"version":`...)
	result = protocol.AppendString(result, d.version)
	result = append(result, `,"mcu":`...)
	result = protocol.AppendString(result, d.mcu)
	result = append(result, `,"config":{`...)

	// Sorted for consistency
	names := make([]string, 0, len(d.constants))
	for name := range d.constants {
		names = append(names, name)
	}
	sort.Strings(names)

	for i, name := range names {
		if i > 0 {
			result = append(result, ',')
		}
		result = protocol.AppendString(result, name)
		result = append(result, ':')
		result = protocol.AppendString(result, valueToString(d.constants[name].Value))
	}
	return append(result, `}}`...)
}

func init() {
	RegisterConstant("CLOCK_FREQ", uint32(TimerFreq))
	RegisterConstant("IR_USEC_PER_TICK", uint32(protocol.USecPerTick))
	RegisterConstant("IR_RAWBUF", RawBuf)
	RegisterConstant("IR_TOLERANCE", uint32(protocol.Tolerance))
}
