package toolchain

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"embedup/internal/host"
	"embedup/internal/platform/errors"
	"embedup/internal/platform/logx"
	"embedup/internal/shellenv"
)

// ReleaseDownloadURL is the base URL the patched compiler archives are
// published under, one directory per release tag.
const ReleaseDownloadURL = "https://github.com/esp-rs/rust-build/releases/download"

// versionMarker records the installed version inside a component directory
// so later runs can tell a current install from a stale one.
const versionMarker = ".embedup-version"

// CompilerToolchain installs the patched Rust compiler distribution and,
// when WithStdlib is set, its source bundle into the same destination.
type CompilerToolchain struct {
	Version    string
	Host       host.Triple
	Dest       string
	DistDir    string
	WithStdlib bool

	fetcher Fetcher
	runner  Runner
	logger  logx.Logger
}

// NewCompilerToolchain builds the compiler installable. dest is the final
// toolchain directory; distDir holds downloaded archives during install.
func NewCompilerToolchain(version string, h host.Triple, dest, distDir string, withStdlib bool, fetcher Fetcher, runner Runner, logger logx.Logger) *CompilerToolchain {
	return &CompilerToolchain{
		Version:    version,
		Host:       h,
		Dest:       dest,
		DistDir:    distDir,
		WithStdlib: withStdlib,
		fetcher:    fetcher,
		runner:     runner,
		logger:     logger.With("component", "xtensa-rust"),
	}
}

func (c *CompilerToolchain) Name() string { return "xtensa-rust" }

// DistURL returns the compiler archive URL for the configured version/host.
func (c *CompilerToolchain) DistURL() string {
	return fmt.Sprintf("%s/v%s/rust-%s-%s.%s",
		ReleaseDownloadURL, c.Version, c.Version, c.Host, c.Host.ArchiveExtension())
}

// SrcDistURL returns the source bundle archive URL.
func (c *CompilerToolchain) SrcDistURL() string {
	return fmt.Sprintf("%s/v%s/rust-src-%s.%s",
		ReleaseDownloadURL, c.Version, c.Version, c.Host.ArchiveExtension())
}

// Install places the compiler at Dest. An existing install at the expected
// version is reused untouched; a different version is removed first.
func (c *CompilerToolchain) Install(ctx context.Context) ([]shellenv.EnvExport, error) {
	installed, err := readVersionMarker(c.Dest)
	if err != nil {
		return nil, err
	}
	switch installed {
	case c.Version:
		c.logger.Info("compiler toolchain already installed, reusing", "path", c.Dest, "version", c.Version)
		return nil, nil
	case "":
	default:
		c.logger.Warn("stale compiler toolchain found, replacing",
			"path", c.Dest, "installed", installed, "requested", c.Version)
		if err := c.Uninstall(ctx); err != nil {
			return nil, errors.Wrapf(errors.ErrVersionMismatch,
				"xtensa-rust at %s has version %s, removal failed: %v", c.Dest, installed, err)
		}
	}

	if c.Host.IsWindows() {
		if err := c.installWindows(ctx); err != nil {
			return nil, err
		}
	} else {
		if err := c.installUnix(ctx); err != nil {
			return nil, err
		}
	}

	if err := writeVersionMarker(c.Dest, c.Version); err != nil {
		return nil, err
	}
	return c.Exports(), nil
}

// Exports returns the PATH entry for the toolchain binaries.
func (c *CompilerToolchain) Exports() []shellenv.EnvExport {
	return []shellenv.EnvExport{shellenv.PrependPath(filepath.Join(c.Dest, "bin"))}
}

// installUnix downloads the self-extracting bundles into DistDir, runs each
// bundled install.sh against Dest and removes the dist files afterwards.
func (c *CompilerToolchain) installUnix(ctx context.Context) error {
	distRoot := filepath.Join(c.DistDir, "rust")
	defer os.RemoveAll(distRoot)

	c.logger.Info("installing compiler toolchain", "version", c.Version, "dest", c.Dest)
	installerDir := fmt.Sprintf("rust-nightly-%s", c.Host)
	if err := c.runBundle(ctx, c.DistURL(), filepath.Join(distRoot, "dist"), installerDir); err != nil {
		return err
	}

	if c.WithStdlib {
		c.logger.Info("installing standard library sources", "version", c.Version)
		if err := c.runBundle(ctx, c.SrcDistURL(), filepath.Join(distRoot, "src-dist"), "rust-src-nightly"); err != nil {
			return err
		}
	}
	return nil
}

// runBundle fetches one archive, unpacks it and runs its install.sh. When
// the installer exits non-zero the destination is removed in full so a later
// run never finds a partial toolchain.
func (c *CompilerToolchain) runBundle(ctx context.Context, url, distDir, installerDir string) error {
	if err := c.fetcher.FetchAndExtract(ctx, url, distDir, ""); err != nil {
		return errors.Wrapf(err, "xtensa-rust: failed to fetch %s", url)
	}

	script := filepath.Join(distDir, installerDir, "install.sh")
	args := fmt.Sprintf("%s --destdir=%s --prefix='' --without=rust-docs", script, c.Dest)
	if _, err := c.runner.Run(ctx, "/bin/bash", "-c", args); err != nil {
		if rmErr := os.RemoveAll(c.Dest); rmErr != nil {
			c.logger.Err(rmErr, "context", "cleaning partial install", "path", c.Dest)
		}
		return errors.Wrapf(err, "xtensa-rust: installer failed for %s", c.Dest)
	}
	return nil
}

// installWindows extracts the single zip bundle straight into Dest. The
// archive nests everything under a top-level esp/ directory.
func (c *CompilerToolchain) installWindows(ctx context.Context) error {
	c.logger.Info("installing compiler toolchain", "version", c.Version, "dest", c.Dest)
	if err := c.fetcher.FetchAndExtract(ctx, c.DistURL(), c.Dest, "esp/"); err != nil {
		return errors.Wrapf(err, "xtensa-rust: failed to fetch %s", c.DistURL())
	}
	return nil
}

// Uninstall removes the toolchain directory.
func (c *CompilerToolchain) Uninstall(ctx context.Context) error {
	c.logger.Info("removing compiler toolchain", "path", c.Dest)
	if err := os.RemoveAll(c.Dest); err != nil {
		return errors.Wrapf(errors.ErrRemoveDirectory, "xtensa-rust at %s: %v", c.Dest, err)
	}
	return nil
}

// readVersionMarker reports the version recorded in dir, "" when the
// directory or marker does not exist.
func readVersionMarker(dir string) (string, error) {
	data, err := os.ReadFile(filepath.Join(dir, versionMarker))
	if os.IsNotExist(err) {
		return "", nil
	}
	if err != nil {
		return "", errors.Wrapf(err, "failed to read version marker in %s", dir)
	}
	return strings.TrimSpace(string(data)), nil
}

func writeVersionMarker(dir, version string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return errors.Wrapf(errors.ErrCreateDirectory, "%s: %v", dir, err)
	}
	path := filepath.Join(dir, versionMarker)
	if err := os.WriteFile(path, []byte(version+"\n"), 0o644); err != nil {
		return errors.Wrapf(err, "failed to write version marker %s", path)
	}
	return nil
}
