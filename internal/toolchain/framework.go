package toolchain

import (
	"context"
	"os"
	"path/filepath"
	"strings"

	"embedup/internal/host"
	"embedup/internal/platform/errors"
	"embedup/internal/platform/logx"
	"embedup/internal/shellenv"
	"embedup/internal/targets"
)

// FrameworkRepoURL is the upstream framework repository.
const FrameworkRepoURL = "https://github.com/espressif/esp-idf"

// FrameworkRepo clones the ESP-IDF framework at a pinned git ref and runs
// its bootstrap script for the selected targets. Clone failures and
// bootstrap failures surface as distinct error kinds.
type FrameworkRepo struct {
	Ref       string
	Targets   []targets.Target
	Host      host.Triple
	ToolsRoot string

	runner Runner
	logger logx.Logger
}

// NewFrameworkRepo builds the framework installable for a pinned ref such
// as "v5.0" or "release/v4.4".
func NewFrameworkRepo(ref string, ts []targets.Target, h host.Triple, toolsRoot string, runner Runner, logger logx.Logger) *FrameworkRepo {
	return &FrameworkRepo{
		Ref:       ref,
		Targets:   ts,
		Host:      h,
		ToolsRoot: toolsRoot,
		runner:    runner,
		logger:    logger.With("component", "esp-idf"),
	}
}

func (f *FrameworkRepo) Name() string { return "esp-idf" }

// Dir returns the clone directory; ref slashes are flattened so branch refs
// like release/v4.4 stay a single path element.
func (f *FrameworkRepo) Dir() string {
	return filepath.Join(f.ToolsRoot, "frameworks", "esp-idf-"+strings.ReplaceAll(f.Ref, "/", "-"))
}

// Install clones the repository at the pinned ref and runs the bundled
// bootstrap script. An existing clone directory is reused untouched.
func (f *FrameworkRepo) Install(ctx context.Context) ([]shellenv.EnvExport, error) {
	dir := f.Dir()
	if _, err := os.Stat(dir); err == nil {
		f.logger.Info("framework already installed, reusing", "path", dir, "ref", f.Ref)
		return nil, nil
	}

	f.logger.Info("cloning framework repository", "ref", f.Ref, "dest", dir)
	_, err := f.runner.Run(ctx, "git", "clone", "--depth", "1", "--recursive",
		"--branch", f.Ref, FrameworkRepoURL, dir)
	if err != nil {
		os.RemoveAll(dir)
		return nil, errors.Wrapf(errors.ErrCloneFailed, "esp-idf ref %s into %s: %v", f.Ref, dir, err)
	}

	f.logger.Info("running framework bootstrap", "targets", strings.Join(targets.Strings(f.Targets), ","))
	if err := f.bootstrap(ctx, dir); err != nil {
		// A clone whose tooling never bootstrapped must not pass the
		// presence check on the next run.
		os.RemoveAll(dir)
		return nil, errors.Wrapf(errors.ErrBootstrapFailed, "esp-idf at %s: %v", dir, err)
	}
	return f.Exports(), nil
}

// Exports returns the IDF_PATH entry pointing at the clone.
func (f *FrameworkRepo) Exports() []shellenv.EnvExport {
	return []shellenv.EnvExport{shellenv.Set("IDF_PATH", f.Dir())}
}

func (f *FrameworkRepo) bootstrap(ctx context.Context, dir string) error {
	chips := strings.Join(targets.Strings(f.Targets), ",")
	if f.Host.IsWindows() {
		_, err := f.runner.Run(ctx, filepath.Join(dir, "install.bat"), chips)
		return err
	}
	script := filepath.Join(dir, "install.sh")
	_, err := f.runner.Run(ctx, "/bin/bash", "-c", script+" "+chips)
	return err
}

// Uninstall removes the clone directory.
func (f *FrameworkRepo) Uninstall(ctx context.Context) error {
	dir := f.Dir()
	f.logger.Info("removing framework", "path", dir)
	if err := os.RemoveAll(dir); err != nil {
		return errors.Wrapf(errors.ErrRemoveDirectory, "esp-idf at %s: %v", dir, err)
	}
	return nil
}
