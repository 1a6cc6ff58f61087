package shellenv

import (
	"os"
	"path/filepath"
	"strings"

	"embedup/internal/platform/errors"
	"embedup/internal/platform/logx"
)

// RegistryStore is the persistent per-user environment store behind the
// registry policy. The production implementation lives behind a build tag;
// tests inject an in-memory store so the policy is exercised everywhere.
type RegistryStore interface {
	// Get returns the stored value and whether the key exists.
	Get(key string) (string, bool, error)
	// Set writes the value for the key.
	Set(key, value string) error
	// Delete removes the key; a missing key is not an error.
	Delete(key string) error
	// Broadcast notifies running processes of the environment change.
	Broadcast() error
}

// RegistryPolicy integrates through the persistent user environment store
// instead of rc files. PATH mutation compares exact ";"-separated entries to
// avoid duplicates and to leave entries that merely share a prefix alone.
type RegistryPolicy struct {
	store  RegistryStore
	logger logx.Logger
}

// NewRegistryPolicy creates the store-backed policy.
func NewRegistryPolicy(store RegistryStore, logger logx.Logger) *RegistryPolicy {
	return &RegistryPolicy{
		store:  store,
		logger: logger.With("component", "shellenv"),
	}
}

// WriteEnvFiles writes the batch and powershell environment scripts. They
// are convenience entry points for ad-hoc shells; the store mutation in
// UpdateEnv is what makes the environment persistent.
func (p *RegistryPolicy) WriteEnvFiles(installRoot string, exports []EnvExport) error {
	for name, content := range map[string]string{
		"env.bat": renderBatch(exports),
		"env.ps1": renderPowershell(exports),
	} {
		if err := writeScript(installRoot, name, content); err != nil {
			return err
		}
	}
	return nil
}

// UpdateEnv applies the exports to the store and broadcasts the change.
func (p *RegistryPolicy) UpdateEnv(_ string, exports []EnvExport) error {
	path, _, err := p.store.Get("Path")
	if err != nil {
		return errors.Wrap(err, "failed to read user Path")
	}

	for _, e := range exports {
		switch e.Op {
		case OpPrependPath:
			if hasPathEntry(path, e.Value) {
				continue
			}
			path = e.Value + ";" + path
		default:
			if err := p.store.Set(e.Key, e.Value); err != nil {
				return errors.Wrapf(err, "failed to set %s", e.Key)
			}
			p.logger.Debug("set user environment variable", "key", e.Key)
		}
	}

	if err := p.store.Set("Path", path); err != nil {
		return errors.Wrap(err, "failed to update user Path")
	}

	return errors.Wrap(p.store.Broadcast(), "environment change broadcast failed")
}

// CleanEnv removes the exported variables and strips the PATH entries that
// UpdateEnv added.
func (p *RegistryPolicy) CleanEnv(_ string, exports []EnvExport) error {
	path, _, err := p.store.Get("Path")
	if err != nil {
		return errors.Wrap(err, "failed to read user Path")
	}

	for _, e := range exports {
		switch e.Op {
		case OpPrependPath:
			path = stripPathEntry(path, e.Value)
		default:
			if err := p.store.Delete(e.Key); err != nil {
				return errors.Wrapf(errors.ErrCleanupFailed, "%s: %v", e.Key, err)
			}
		}
	}

	if err := p.store.Set("Path", path); err != nil {
		return errors.Wrap(err, "failed to update user Path")
	}

	return errors.Wrap(p.store.Broadcast(), "environment change broadcast failed")
}

// hasPathEntry reports whether the ";"-separated PATH value contains the
// entry as an exact element.
func hasPathEntry(path, entry string) bool {
	for _, e := range strings.Split(path, ";") {
		if e == entry {
			return true
		}
	}
	return false
}

// stripPathEntry removes the exact entry from a ";"-separated PATH value.
// Entries that merely share a prefix with it are left alone.
func stripPathEntry(path, entry string) string {
	var kept []string
	for _, e := range strings.Split(path, ";") {
		if e == entry {
			continue
		}
		kept = append(kept, e)
	}
	return strings.Join(kept, ";")
}

func writeScript(installRoot, name, content string) error {
	path := filepath.Join(installRoot, name)
	return errors.Wrapf(os.WriteFile(path, []byte(content), 0o644), "failed to write environment script %s", path)
}

func renderBatch(exports []EnvExport) string {
	var b strings.Builder
	b.WriteString("@echo off\r\n")
	for _, e := range exports {
		switch e.Op {
		case OpPrependPath:
			b.WriteString("set PATH=" + e.Value + ";%PATH%\r\n")
		default:
			b.WriteString("set " + e.Key + "=" + e.Value + "\r\n")
		}
	}
	return b.String()
}

func renderPowershell(exports []EnvExport) string {
	var b strings.Builder
	for _, e := range exports {
		switch e.Op {
		case OpPrependPath:
			b.WriteString("$Env:PATH = \"" + e.Value + ";\" + $Env:PATH\r\n")
		default:
			b.WriteString("$Env:" + e.Key + " = \"" + e.Value + "\"\r\n")
		}
	}
	return b.String()
}
