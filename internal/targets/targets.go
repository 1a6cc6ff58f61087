// Package targets parses and classifies the supported chip targets.
package targets

import (
	"sort"
	"strings"

	"embedup/internal/platform/errors"
)

// Target is a supported chip family.
type Target string

const (
	ESP32   Target = "esp32"
	ESP32S2 Target = "esp32s2"
	ESP32S3 Target = "esp32s3"
	ESP32C3 Target = "esp32c3"
)

// All returns every supported target.
func All() []Target {
	return []Target{ESP32, ESP32S2, ESP32S3, ESP32C3}
}

// IsXtensa reports whether the target uses an Xtensa core, which needs the
// patched compiler and the Xtensa GCC toolchain.
func (t Target) IsXtensa() bool {
	return t == ESP32 || t == ESP32S2 || t == ESP32S3
}

// IsRiscv reports whether the target uses a RISC-V core.
func (t Target) IsRiscv() bool {
	return t == ESP32C3
}

func (t Target) String() string { return string(t) }

// GccToolchainName returns the cross GCC toolchain directory name for the target.
func (t Target) GccToolchainName() string {
	switch t {
	case ESP32:
		return "xtensa-esp32-elf"
	case ESP32S2:
		return "xtensa-esp32s2-elf"
	case ESP32S3:
		return "xtensa-esp32s3-elf"
	default:
		return "riscv32-esp-elf"
	}
}

// Parse returns the target set from a comma or space separated string.
// The literal "all" selects every supported target.
func Parse(s string) ([]Target, error) {
	s = strings.TrimSpace(strings.ToLower(s))
	if s == "" {
		return nil, errors.New("no targets specified")
	}
	if strings.Contains(s, "all") {
		return All(), nil
	}

	seen := make(map[Target]bool)
	var out []Target
	for _, field := range strings.FieldsFunc(s, func(r rune) bool { return r == ',' || r == ' ' }) {
		t := Target(field)
		switch t {
		case ESP32, ESP32S2, ESP32S3, ESP32C3:
		default:
			return nil, errors.Errorf("target %q is not supported", field)
		}
		if !seen[t] {
			seen[t] = true
			out = append(out, t)
		}
	}

	// Deterministic order keeps install sequencing and records stable.
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out, nil
}

// AnyXtensa reports whether any target in the set is Xtensa based.
func AnyXtensa(ts []Target) bool {
	for _, t := range ts {
		if t.IsXtensa() {
			return true
		}
	}
	return false
}

// AnyRiscv reports whether any target in the set is RISC-V based.
func AnyRiscv(ts []Target) bool {
	for _, t := range ts {
		if t.IsRiscv() {
			return true
		}
	}
	return false
}

// Strings renders the target set for records and diagnostics.
func Strings(ts []Target) []string {
	out := make([]string, len(ts))
	for i, t := range ts {
		out[i] = string(t)
	}
	return out
}
