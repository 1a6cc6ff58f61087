package targets

import (
	"strings"
	"testing"

	"embedup/internal/testutil"
)

func TestParse_All(t *testing.T) {
	for _, input := range []string{"all", "ALL"} {
		ts, err := Parse(input)
		testutil.AssertNoError(t, err, "parse "+input)
		testutil.AssertEqual(t, len(ts), 4, "all four chips selected")
	}
}

func TestParse_Empty(t *testing.T) {
	_, err := Parse("  ")
	testutil.AssertError(t, err, "empty target set rejected")
}

func TestParse_SeparatorsAndDedup(t *testing.T) {
	ts, err := Parse("esp32c3, esp32 esp32c3")
	testutil.AssertNoError(t, err, "mixed separators")
	testutil.AssertEqual(t, strings.Join(Strings(ts), ","), "esp32,esp32c3", "sorted and deduplicated")
}

func TestParse_Unknown(t *testing.T) {
	_, err := Parse("esp32,esp8266")
	testutil.AssertError(t, err, "unknown chip rejected")
	testutil.AssertContains(t, err.Error(), "esp8266", "error names the chip")
}

func TestTargetFamilies(t *testing.T) {
	testutil.AssertTrue(t, ESP32.IsXtensa(), "esp32 is xtensa")
	testutil.AssertTrue(t, ESP32S3.IsXtensa(), "esp32s3 is xtensa")
	testutil.AssertTrue(t, ESP32C3.IsRiscv(), "esp32c3 is riscv")
	testutil.AssertFalse(t, ESP32C3.IsXtensa(), "esp32c3 is not xtensa")

	testutil.AssertTrue(t, AnyXtensa([]Target{ESP32C3, ESP32}), "mixed set has xtensa")
	testutil.AssertTrue(t, AnyRiscv([]Target{ESP32C3}), "riscv detected")
	testutil.AssertFalse(t, AnyRiscv([]Target{ESP32, ESP32S2}), "pure xtensa set")
}

func TestGccToolchainName(t *testing.T) {
	testutil.AssertEqual(t, ESP32.GccToolchainName(), "xtensa-esp32-elf", "esp32")
	testutil.AssertEqual(t, ESP32S2.GccToolchainName(), "xtensa-esp32s2-elf", "esp32s2")
	testutil.AssertEqual(t, ESP32S3.GccToolchainName(), "xtensa-esp32s3-elf", "esp32s3")
	testutil.AssertEqual(t, ESP32C3.GccToolchainName(), "riscv32-esp-elf", "esp32c3")
}
