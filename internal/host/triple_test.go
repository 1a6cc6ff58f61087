package host

import (
	"testing"

	"embedup/internal/testutil"
)

func TestParse(t *testing.T) {
	tr, err := Parse("x86_64-unknown-linux-gnu")
	testutil.AssertNoError(t, err, "known triple")
	testutil.AssertEqual(t, tr, X86_64LinuxGnu, "parsed value")

	_, err = Parse("mips-unknown-linux-gnu")
	testutil.AssertError(t, err, "unsupported triple rejected")
}

func TestDetect_OverrideWins(t *testing.T) {
	tr, err := Detect("aarch64-apple-darwin")
	testutil.AssertNoError(t, err, "override accepted")
	testutil.AssertEqual(t, tr, Aarch64Darwin, "override used verbatim")

	_, err = Detect("not-a-triple")
	testutil.AssertError(t, err, "bad override rejected, not silently autodetected")
}

func TestArchiveExtension(t *testing.T) {
	testutil.AssertEqual(t, X86_64LinuxGnu.ArchiveExtension(), "tar.xz", "unix archives")
	testutil.AssertEqual(t, X86_64WindowsMsvc.ArchiveExtension(), "zip", "windows archives")
	testutil.AssertTrue(t, X86_64WindowsGnu.IsWindows(), "gnu windows triple is windows")
	testutil.AssertFalse(t, Aarch64LinuxGnu.IsWindows(), "linux is not windows")
}
