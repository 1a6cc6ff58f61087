package toolchain

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"embedup/internal/host"
	"embedup/internal/platform/errors"
	"embedup/internal/platform/logx"
	"embedup/internal/shellenv"
)

const (
	// LlvmDownloadURL is the base URL the clang archives are published under.
	LlvmDownloadURL = "https://github.com/espressif/llvm-project/releases/download"
	// LlvmRelease is the pinned LLVM release tag.
	LlvmRelease = "esp-15.0.0-20221014"
)

// ClangToolchain installs the LLVM/Clang distribution providing libclang.
// The default artifact is the minified libs-only archive; Extended selects
// the full distribution instead.
type ClangToolchain struct {
	Host      host.Triple
	ToolsRoot string
	Extended  bool

	fetcher Fetcher
	logger  logx.Logger
}

// NewClangToolchain builds the clang installable.
func NewClangToolchain(h host.Triple, toolsRoot string, extended bool, fetcher Fetcher, logger logx.Logger) *ClangToolchain {
	return &ClangToolchain{
		Host:      h,
		ToolsRoot: toolsRoot,
		Extended:  extended,
		fetcher:   fetcher,
		logger:    logger.With("component", "xtensa-esp32-elf-clang"),
	}
}

func (l *ClangToolchain) Name() string { return "xtensa-esp32-elf-clang" }

// Dir returns the versioned install directory, keyed by release and host so
// a host-triple change never reuses a foreign archive.
func (l *ClangToolchain) Dir() string {
	return filepath.Join(l.ToolsRoot, "xtensa-esp32-elf-clang", fmt.Sprintf("%s-%s", LlvmRelease, l.Host))
}

// LibPath returns the directory libclang lives in: lib on Unix, bin on
// Windows where the DLL sits next to the executables.
func (l *ClangToolchain) LibPath() string {
	sub := "lib"
	if l.Host.IsWindows() {
		sub = "bin"
	}
	return filepath.Join(l.Dir(), "esp-clang", sub)
}

// ArchiveURL returns the artifact URL, picking the minified libs archive
// unless the extended distribution was requested.
func (l *ClangToolchain) ArchiveURL() string {
	file := fmt.Sprintf("llvm-%s-%s.tar.xz", LlvmRelease, llvmArch(l.Host))
	if !l.Extended {
		file = "libs_" + file
	}
	return fmt.Sprintf("%s/%s/%s", LlvmDownloadURL, LlvmRelease, file)
}

// Install unpacks the archive unless the versioned directory already exists.
func (l *ClangToolchain) Install(ctx context.Context) ([]shellenv.EnvExport, error) {
	if _, err := os.Stat(l.Dir()); err == nil {
		l.logger.Info("clang toolchain already installed, reusing", "path", l.Dir())
		return nil, nil
	}

	l.logger.Info("installing clang toolchain", "url", l.ArchiveURL(), "dest", l.Dir())
	if err := l.fetcher.FetchAndExtract(ctx, l.ArchiveURL(), l.Dir(), ""); err != nil {
		return nil, errors.Wrapf(err, "xtensa-esp32-elf-clang: failed to fetch %s", l.ArchiveURL())
	}
	return l.Exports(), nil
}

// Exports returns LIBCLANG_PATH and, on Windows, the PATH entry that puts
// the DLL next to the executables.
func (l *ClangToolchain) Exports() []shellenv.EnvExport {
	exports := []shellenv.EnvExport{shellenv.Set("LIBCLANG_PATH", l.LibPath())}
	if l.Host.IsWindows() {
		exports = append(exports, shellenv.PrependPath(l.LibPath()))
	}
	return exports
}

// Uninstall removes every installed clang release.
func (l *ClangToolchain) Uninstall(ctx context.Context) error {
	root := filepath.Join(l.ToolsRoot, "xtensa-esp32-elf-clang")
	l.logger.Info("removing clang toolchain", "path", root)
	if err := os.RemoveAll(root); err != nil {
		return errors.Wrapf(errors.ErrRemoveDirectory, "xtensa-esp32-elf-clang at %s: %v", root, err)
	}
	return nil
}

// llvmArch maps the host triple onto the artifact architecture suffix used
// by the llvm-project releases.
func llvmArch(t host.Triple) string {
	switch t {
	case host.X86_64LinuxGnu:
		return "linux-amd64"
	case host.Aarch64LinuxGnu:
		return "linux-arm64"
	case host.X86_64Darwin:
		return "macos"
	case host.Aarch64Darwin:
		return "macos-arm64"
	default:
		return "win64"
	}
}
