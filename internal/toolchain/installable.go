// Package toolchain implements the installable components of an embedded
// Rust development environment and the orchestrator that sequences them.
package toolchain

import (
	"context"

	"embedup/internal/shellenv"
)

// Installable is one component of the development environment. Install is
// idempotent: when the component is already present at the expected version
// it succeeds with no exports and no side effects.
type Installable interface {
	// Name identifies the component in logs and the install record.
	Name() string
	// Install puts the component in place and returns the environment
	// exports the caller must apply for it to be usable.
	Install(ctx context.Context) ([]shellenv.EnvExport, error)
	// Exports returns the environment exports the installed component
	// provides. Unlike Install's return value it is independent of whether
	// this run did the work or found it cached.
	Exports() []shellenv.EnvExport
	// Uninstall removes the component. Missing components are not errors.
	Uninstall(ctx context.Context) error
}

// Fetcher is the download capability installables depend on. Satisfied by
// *fetch.Fetcher; tests substitute a recording fake.
type Fetcher interface {
	Fetch(ctx context.Context, url, dir, name string) (string, error)
	FetchAndExtract(ctx context.Context, url, dest, stripPrefix string) error
}

// Runner executes an external command and returns its combined output.
type Runner interface {
	Run(ctx context.Context, name string, args ...string) (string, error)
}
