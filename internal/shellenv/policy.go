package shellenv

import (
	"os"
	"path/filepath"

	"embedup/internal/platform/errors"
	"embedup/internal/platform/logx"
)

// Policy is the platform-specific half of shell integration. A POSIX host
// patches rc files; Windows mutates the persistent user environment store.
// Both implementations are selected at runtime so either can be tested on
// one machine.
type Policy interface {
	// WriteEnvFiles renders and writes the per-shell environment scripts
	// under the install root. Scripts are derived data and are always
	// overwritten.
	WriteEnvFiles(installRoot string, exports []EnvExport) error

	// UpdateEnv makes the environment scripts take effect: sourcing lines
	// on POSIX, registry mutation on Windows.
	UpdateEnv(installRoot string, exports []EnvExport) error

	// CleanEnv reverses UpdateEnv for the given install root.
	CleanEnv(installRoot string, exports []EnvExport) error
}

// PosixPolicy integrates with rc files of every available POSIX shell.
type PosixPolicy struct {
	probe  *Probe
	logger logx.Logger
}

// NewPosixPolicy creates the rc-file based policy.
func NewPosixPolicy(probe *Probe, logger logx.Logger) *PosixPolicy {
	return &PosixPolicy{
		probe:  probe,
		logger: logger.With("component", "shellenv"),
	}
}

// WriteEnvFiles writes one script per distinct script name among the
// available shells.
func (p *PosixPolicy) WriteEnvFiles(installRoot string, exports []EnvExport) error {
	written := make(map[string]bool)
	for _, sh := range AvailableShells(p.probe) {
		name := sh.EnvScriptName()
		if written[name] {
			continue
		}
		written[name] = true

		path := filepath.Join(installRoot, name)
		p.logger.Debug("writing environment script", "shell", sh.Name(), "path", path)
		if err := os.WriteFile(path, []byte(sh.RenderScript(exports)), 0o644); err != nil {
			return errors.Wrapf(err, "failed to write environment script %s", path)
		}
	}
	return nil
}

// UpdateEnv appends each shell's sourcing line to its write-target rc
// files. The patch is idempotent: a file already containing the exact line
// is left alone. A failure in one shell does not stop the others; all
// per-shell failures are aggregated.
func (p *PosixPolicy) UpdateEnv(installRoot string, _ []EnvExport) error {
	var failures []error
	for _, sh := range AvailableShells(p.probe) {
		line := sh.SourceString(installRoot)
		for _, rc := range sh.UpdateRcs() {
			if err := patchRcFile(rc, line); err != nil {
				p.logger.Err(err, "shell", sh.Name(), "rcfile", rc)
				failures = append(failures, errors.Wrapf(errors.ErrPatchFailed, "%s (%s): %v", rc, sh.Name(), err))
				break
			}
			p.logger.Debug("patched rc file", "shell", sh.Name(), "rcfile", rc)
		}
	}
	return errors.Join(failures...)
}

// CleanEnv scans every recognized rc file of every available shell and
// removes the sourcing line where present. Like UpdateEnv, shells fail
// independently.
func (p *PosixPolicy) CleanEnv(installRoot string, _ []EnvExport) error {
	var failures []error
	for _, sh := range AvailableShells(p.probe) {
		line := sh.SourceString(installRoot)
		for _, rc := range sh.Rcfiles() {
			if !isFile(rc) {
				continue
			}
			if err := cleanRcFile(rc, line); err != nil {
				p.logger.Err(err, "shell", sh.Name(), "rcfile", rc)
				failures = append(failures, errors.Wrapf(errors.ErrCleanupFailed, "%s (%s): %v", rc, sh.Name(), err))
			}
		}
	}
	return errors.Join(failures...)
}

// patchRcFile inserts the sourcing line into the rc file, creating the file
// (and for conf.d style paths its directory) when missing.
func patchRcFile(path, line string) error {
	content := ""
	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		content = string(data)
	case os.IsNotExist(err):
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return err
		}
	default:
		return err
	}

	patched := AppendSourcingLine(content, line)
	if patched == content && content != "" {
		return nil
	}
	return os.WriteFile(path, []byte(patched), 0o644)
}

// cleanRcFile removes the first byte-exact occurrence of the sourcing line.
func cleanRcFile(path, line string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	cleaned, found := RemoveSourcingLine(string(data), line)
	if !found {
		return nil
	}
	return os.WriteFile(path, []byte(cleaned), 0o644)
}
