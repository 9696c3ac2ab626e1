package core

import (
	"encoding/json"
	"strings"
	"testing"
)

func TestDictionary(t *testing.T) {
	dict := NewDictionary()

	dict.AddConstant("TEST_CONST", uint32(42))
	dict.AddConstant("TEST_STR", "hello")
	dict.AddConstant("TEST_PIN", GPIOPin(15))
	dict.AddConstant("TEST_FLAG", true)

	output := string(dict.Generate())
	t.Log("Generated dictionary: " + output)

	want := `{"version":"irnec-0.1.0","mcu":"host","config":{` +
		`"TEST_CONST":"42","TEST_FLAG":"1","TEST_PIN":"15","TEST_STR":"hello"}}`
	if output != want {
		t.Errorf("dictionary:\n got %s\nwant %s", output, want)
	}

	if v, ok := dict.Lookup("TEST_PIN"); !ok || v != "15" {
		t.Errorf("Lookup(TEST_PIN) = %q, %v", v, ok)
	}
	if _, ok := dict.Lookup("MISSING"); ok {
		t.Error("Lookup of an unknown constant should fail")
	}
}

func TestDictionaryEscaping(t *testing.T) {
	dict := NewDictionary()
	board := `lab "bench" \ rev2` + "\t\x01"
	dict.AddConstant("BOARD", board)

	var parsed struct {
		Version string            `json:"version"`
		Config  map[string]string `json:"config"`
	}
	if err := json.Unmarshal(dict.Generate(), &parsed); err != nil {
		t.Fatalf("dictionary is not valid JSON: %v\n%s", err, dict.Generate())
	}
	if parsed.Config["BOARD"] != board {
		t.Errorf("BOARD: got %q, want %q", parsed.Config["BOARD"], board)
	}
	if parsed.Version != "irnec-0.1.0" {
		t.Errorf("version: got %q", parsed.Version)
	}
}

func TestDictionaryCache(t *testing.T) {
	dict := NewDictionary()
	dict.AddConstant("A", uint32(1))

	first := dict.Generate()
	if &first[0] != &dict.Generate()[0] {
		t.Error("unchanged dictionary should be served from cache")
	}

	dict.AddConstant("A", uint32(2))
	if !strings.Contains(string(dict.Generate()), `"A":"2"`) {
		t.Errorf("replaced constant not reflected: %s", dict.Generate())
	}
}

func TestGlobalDictionaryDefaults(t *testing.T) {
	output := string(GetGlobalDictionary().Generate())
	for _, want := range []string{
		`"CLOCK_FREQ":"1000000"`,
		`"IR_USEC_PER_TICK":"50"`,
		`"IR_RAWBUF":"100"`,
		`"IR_TOLERANCE":"25"`,
	} {
		if !strings.Contains(output, want) {
			t.Errorf("global dictionary missing %s: %s", want, output)
		}
	}
}
