// Package config persists the resolved installation so uninstall and update
// runs can reverse exactly what a previous run installed.
package config

import (
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"embedup/internal/platform/errors"
	"embedup/internal/shellenv"
)

// RecordFile is the install record file name under the install root.
const RecordFile = "embedup.yaml"

// Component is one installed component in the record.
type Component struct {
	Kind    string `yaml:"kind"`
	Name    string `yaml:"name"`
	Version string `yaml:"version"`
	Path    string `yaml:"path"`
}

// Record is the persisted installation state. The schema is not versioned.
type Record struct {
	ToolchainVersion string               `yaml:"toolchain_version"`
	NightlyVersion   string               `yaml:"nightly_version,omitempty"`
	HostTriple       string               `yaml:"host_triple"`
	Targets          []string             `yaml:"targets"`
	FrameworkRef     string               `yaml:"framework_ref,omitempty"`
	InstallRoot      string               `yaml:"install_root"`
	Components       []Component          `yaml:"components"`
	Exports          []shellenv.EnvExport `yaml:"exports"`
}

// Store reads and writes the install record.
type Store struct {
	root string
}

// NewStore creates a store rooted at the install directory.
func NewStore(installRoot string) *Store {
	return &Store{root: installRoot}
}

// Path returns the record file location.
func (s *Store) Path() string {
	return filepath.Join(s.root, RecordFile)
}

// Exists reports whether a record is present.
func (s *Store) Exists() bool {
	_, err := os.Stat(s.Path())
	return err == nil
}

// Load reads the record back.
func (s *Store) Load() (*Record, error) {
	data, err := os.ReadFile(s.Path())
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read install record %s", s.Path())
	}

	var rec Record
	if err := yaml.Unmarshal(data, &rec); err != nil {
		return nil, errors.Wrapf(err, "failed to parse install record %s", s.Path())
	}
	return &rec, nil
}

// Save writes the record, creating the install root when needed.
func (s *Store) Save(rec *Record) error {
	if err := os.MkdirAll(s.root, 0o755); err != nil {
		return errors.Wrapf(errors.ErrCreateDirectory, "%s: %v", s.root, err)
	}

	data, err := yaml.Marshal(rec)
	if err != nil {
		return errors.Wrap(err, "failed to serialize install record")
	}

	if err := os.WriteFile(s.Path(), data, 0o644); err != nil {
		return errors.Wrapf(err, "failed to write install record %s", s.Path())
	}
	return nil
}

// Delete removes the record; a missing record is not an error.
func (s *Store) Delete() error {
	err := os.Remove(s.Path())
	if err != nil && !os.IsNotExist(err) {
		return errors.Wrapf(err, "failed to delete install record %s", s.Path())
	}
	return nil
}
