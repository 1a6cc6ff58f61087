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
	"embedup/internal/targets"
)

const (
	// GccDownloadURL is the base URL cross GCC archives are published under.
	GccDownloadURL = "https://github.com/espressif/crosstool-NG/releases/download"
	// GccRelease is the pinned crosstool-NG release tag.
	GccRelease = "esp-2021r2-patch5"
	// GccVersion is the GCC version the pinned release ships.
	GccVersion = "8_4_0"
)

// CrossGccToolchain installs one per-target GCC cross toolchain (xtensa or
// riscv) under a versioned directory inside the tools root.
type CrossGccToolchain struct {
	ToolchainName string
	Host          host.Triple
	ToolsRoot     string

	fetcher Fetcher
	logger  logx.Logger
}

// NewCrossGccToolchain builds the GCC installable for one target family.
func NewCrossGccToolchain(target targets.Target, h host.Triple, toolsRoot string, fetcher Fetcher, logger logx.Logger) *CrossGccToolchain {
	name := target.GccToolchainName()
	return &CrossGccToolchain{
		ToolchainName: name,
		Host:          h,
		ToolsRoot:     toolsRoot,
		fetcher:       fetcher,
		logger:        logger.With("component", name),
	}
}

func (g *CrossGccToolchain) Name() string { return g.ToolchainName }

// Dir returns the versioned install directory for this toolchain.
func (g *CrossGccToolchain) Dir() string {
	return filepath.Join(g.ToolsRoot, g.ToolchainName, fmt.Sprintf("%s-%s", GccRelease, GccVersion))
}

// BinPath returns the directory holding the cross compiler binaries.
func (g *CrossGccToolchain) BinPath() string {
	return filepath.Join(g.Dir(), g.ToolchainName, "bin")
}

// ArchiveURL returns the release artifact URL for the host platform.
func (g *CrossGccToolchain) ArchiveURL() string {
	ext := "tar.gz"
	if g.Host.IsWindows() {
		ext = "zip"
	}
	file := fmt.Sprintf("%s-gcc%s-%s-%s.%s", g.ToolchainName, GccVersion, GccRelease, gccArch(g.Host), ext)
	return fmt.Sprintf("%s/%s/%s", GccDownloadURL, GccRelease, file)
}

// Install unpacks the toolchain unless the versioned directory already
// exists, in which case it is reused as-is.
func (g *CrossGccToolchain) Install(ctx context.Context) ([]shellenv.EnvExport, error) {
	if _, err := os.Stat(g.Dir()); err == nil {
		g.logger.Info("gcc toolchain already installed, reusing", "path", g.Dir())
		return nil, nil
	}

	g.logger.Info("installing gcc toolchain", "url", g.ArchiveURL(), "dest", g.Dir())
	if err := g.fetcher.FetchAndExtract(ctx, g.ArchiveURL(), g.Dir(), ""); err != nil {
		return nil, errors.Wrapf(err, "%s: failed to fetch %s", g.ToolchainName, g.ArchiveURL())
	}
	return g.Exports(), nil
}

// Exports returns the PATH entry for the cross compiler binaries.
func (g *CrossGccToolchain) Exports() []shellenv.EnvExport {
	return []shellenv.EnvExport{shellenv.PrependPath(g.BinPath())}
}

// Uninstall removes the toolchain directory tree for this target family.
func (g *CrossGccToolchain) Uninstall(ctx context.Context) error {
	root := filepath.Join(g.ToolsRoot, g.ToolchainName)
	g.logger.Info("removing gcc toolchain", "path", root)
	if err := os.RemoveAll(root); err != nil {
		return errors.Wrapf(errors.ErrRemoveDirectory, "%s at %s: %v", g.ToolchainName, root, err)
	}
	return nil
}

// gccArch maps the host triple onto the artifact architecture suffix used
// by the crosstool-NG releases.
func gccArch(t host.Triple) string {
	switch t {
	case host.X86_64LinuxGnu:
		return "linux-amd64"
	case host.Aarch64LinuxGnu:
		return "linux-arm64"
	case host.X86_64Darwin, host.Aarch64Darwin:
		return "macos"
	default:
		return "win64"
	}
}
