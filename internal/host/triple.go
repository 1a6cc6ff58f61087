// Package host detects and validates the host platform triple used to pick
// release artifacts.
package host

import (
	"runtime"

	"embedup/internal/platform/errors"
)

// Triple identifies a supported host platform.
type Triple string

const (
	X86_64LinuxGnu    Triple = "x86_64-unknown-linux-gnu"
	Aarch64LinuxGnu   Triple = "aarch64-unknown-linux-gnu"
	X86_64WindowsMsvc Triple = "x86_64-pc-windows-msvc"
	X86_64WindowsGnu  Triple = "x86_64-pc-windows-gnu"
	X86_64Darwin      Triple = "x86_64-apple-darwin"
	Aarch64Darwin     Triple = "aarch64-apple-darwin"
)

func (t Triple) String() string { return string(t) }

// IsWindows reports whether the triple targets Windows.
func (t Triple) IsWindows() bool {
	return t == X86_64WindowsMsvc || t == X86_64WindowsGnu
}

// ArchiveExtension returns the artifact extension releases ship for this host.
func (t Triple) ArchiveExtension() string {
	if t.IsWindows() {
		return "zip"
	}
	return "tar.xz"
}

// Parse validates a user-supplied triple string.
func Parse(s string) (Triple, error) {
	switch Triple(s) {
	case X86_64LinuxGnu, Aarch64LinuxGnu, X86_64WindowsMsvc, X86_64WindowsGnu, X86_64Darwin, Aarch64Darwin:
		return Triple(s), nil
	}
	return "", errors.Errorf("host triple %q is not supported", s)
}

// Detect returns the triple for the running platform, or the parsed override
// when one is given.
func Detect(override string) (Triple, error) {
	if override != "" {
		return Parse(override)
	}

	switch runtime.GOOS {
	case "linux":
		if runtime.GOARCH == "arm64" {
			return Aarch64LinuxGnu, nil
		}
		return X86_64LinuxGnu, nil
	case "darwin":
		if runtime.GOARCH == "arm64" {
			return Aarch64Darwin, nil
		}
		return X86_64Darwin, nil
	case "windows":
		return X86_64WindowsMsvc, nil
	}
	return "", errors.Errorf("host platform %s/%s is not supported", runtime.GOOS, runtime.GOARCH)
}
