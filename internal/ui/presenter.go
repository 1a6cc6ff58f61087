// Package ui renders install and uninstall runs on the terminal.
package ui

import (
	"time"

	"embedup/internal/config"
)

// RunInfo describes a run for the header panel.
type RunInfo struct {
	Action      string
	Version     string
	HostTriple  string
	Targets     []string
	InstallRoot string
}

// Presenter receives run lifecycle events. Implementations must tolerate
// being called from a single goroutine only.
type Presenter interface {
	Start(info RunInfo)
	StepStart(name string)
	StepDone(name string)
	StepFailed(name string, err error)
	Summary(rec *config.Record, elapsed time.Duration)
	Failure(err error)
}

// NoopPresenter silences all run output. Selected by --quiet.
type NoopPresenter struct{}

func (NoopPresenter) Start(RunInfo)                         {}
func (NoopPresenter) StepStart(string)                      {}
func (NoopPresenter) StepDone(string)                       {}
func (NoopPresenter) StepFailed(string, error)              {}
func (NoopPresenter) Summary(*config.Record, time.Duration) {}
func (NoopPresenter) Failure(error)                         {}
