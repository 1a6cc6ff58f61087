package toolchain

import (
	"context"
	"os"
	"path/filepath"
	"strings"

	"embedup/internal/config"
	"embedup/internal/host"
	"embedup/internal/platform/logx"
	"embedup/internal/shellenv"
	"embedup/internal/targets"
)

// Options selects what a run installs and where.
type Options struct {
	Targets          []targets.Target
	ToolchainVersion string
	Nightly          string
	Host             host.Triple
	InstallRoot      string
	WithStdlib       bool
	ExtendedLlvm     bool
	EspRiscvGcc      bool
	FrameworkRef     string
	ModifyEnv        bool
}

// Orchestrator sequences installables in dependency order and wires the
// results into the shell environment and the install record.
type Orchestrator struct {
	fetcher Fetcher
	runner  Runner
	policy  shellenv.Policy
	logger  logx.Logger

	// OnStep, when set, is called with each component name before its
	// install or uninstall runs. Used by the terminal presenter.
	OnStep func(name string)
}

// NewOrchestrator builds an orchestrator over the given collaborators.
func NewOrchestrator(fetcher Fetcher, runner Runner, policy shellenv.Policy, logger logx.Logger) *Orchestrator {
	return &Orchestrator{fetcher: fetcher, runner: runner, policy: policy, logger: logger}
}

// Plan returns the installable sequence for opts in fixed dependency order:
// compiler, clang, gcc toolchains, riscv target support, framework.
func (o *Orchestrator) Plan(opts Options) []Installable {
	toolsRoot := opts.InstallRoot
	plan := []Installable{
		NewCompilerToolchain(opts.ToolchainVersion, opts.Host,
			filepath.Join(toolsRoot, "rust"), filepath.Join(toolsRoot, "dist"),
			opts.WithStdlib, o.fetcher, o.runner, o.logger),
		NewClangToolchain(opts.Host, toolsRoot, opts.ExtendedLlvm, o.fetcher, o.logger),
	}

	seen := map[string]bool{}
	for _, t := range opts.Targets {
		if t.IsRiscv() && !opts.EspRiscvGcc {
			continue
		}
		name := t.GccToolchainName()
		if seen[name] {
			continue
		}
		seen[name] = true
		plan = append(plan, NewCrossGccToolchain(t, opts.Host, toolsRoot, o.fetcher, o.logger))
	}

	if targets.AnyRiscv(opts.Targets) {
		plan = append(plan, NewTargetSupport(opts.Nightly, o.runner, o.logger))
	}
	if opts.FrameworkRef != "" {
		plan = append(plan, NewFrameworkRepo(opts.FrameworkRef, opts.Targets, opts.Host,
			toolsRoot, o.runner, o.logger))
	}
	return plan
}

// Install runs the plan sequentially, failing fast on the first error.
// Completed steps are NOT rolled back; a later run resumes from the cached
// state. On success the shell environment is wired and the record saved.
func (o *Orchestrator) Install(ctx context.Context, opts Options) (*config.Record, error) {
	if err := EnsureNightly(ctx, o.runner, opts.Nightly, o.logger); err != nil {
		return nil, err
	}

	rec := &config.Record{
		ToolchainVersion: opts.ToolchainVersion,
		NightlyVersion:   opts.Nightly,
		HostTriple:       opts.Host.String(),
		Targets:          targets.Strings(opts.Targets),
		FrameworkRef:     opts.FrameworkRef,
		InstallRoot:      opts.InstallRoot,
	}

	for _, inst := range o.Plan(opts) {
		o.step(inst.Name())
		exports, err := inst.Install(ctx)
		if err != nil {
			return nil, err
		}
		if len(exports) == 0 {
			// A cached component reports no fresh work but still
			// contributes its exports to this run's env scripts.
			exports = inst.Exports()
		}
		rec.Exports = append(rec.Exports, exports...)
		rec.Components = append(rec.Components, config.Component{
			Kind:    inst.Name(),
			Name:    inst.Name(),
			Version: opts.ToolchainVersion,
			Path:    opts.InstallRoot,
		})
	}

	if err := o.policy.WriteEnvFiles(opts.InstallRoot, rec.Exports); err != nil {
		return nil, err
	}
	if opts.ModifyEnv {
		if err := o.policy.UpdateEnv(opts.InstallRoot, rec.Exports); err != nil {
			return nil, err
		}
	}

	if err := config.NewStore(opts.InstallRoot).Save(rec); err != nil {
		return nil, err
	}
	return rec, nil
}

// Uninstall reverses a recorded installation: components in reverse install
// order, then shell cleanup, then the record itself.
func (o *Orchestrator) Uninstall(ctx context.Context, opts Options) error {
	store := config.NewStore(opts.InstallRoot)
	rec, err := store.Load()
	if err != nil {
		return err
	}

	plan := o.Plan(o.optionsFromRecord(rec, opts))
	for i := len(plan) - 1; i >= 0; i-- {
		o.step(plan[i].Name())
		if err := plan[i].Uninstall(ctx); err != nil {
			return err
		}
	}

	if err := o.policy.CleanEnv(opts.InstallRoot, rec.Exports); err != nil {
		return err
	}
	removeLegacyExportFile(o.logger)
	return store.Delete()
}

// Update reinstalls at the requested version. Matching versions are a no-op;
// a missing record degrades to a plain install.
func (o *Orchestrator) Update(ctx context.Context, opts Options) (*config.Record, error) {
	store := config.NewStore(opts.InstallRoot)
	if !store.Exists() {
		return o.Install(ctx, opts)
	}
	rec, err := store.Load()
	if err != nil {
		return nil, err
	}
	if rec.ToolchainVersion == opts.ToolchainVersion {
		o.logger.Info("toolchain already at requested version", "version", opts.ToolchainVersion)
		return rec, nil
	}
	if err := o.Uninstall(ctx, opts); err != nil {
		return nil, err
	}
	return o.Install(ctx, opts)
}

// optionsFromRecord rebuilds the plan inputs an earlier run recorded so
// uninstall removes exactly what was installed, whatever flags this run got.
func (o *Orchestrator) optionsFromRecord(rec *config.Record, opts Options) Options {
	ts, err := targets.Parse(strings.Join(rec.Targets, ","))
	if err != nil || len(ts) == 0 {
		ts = opts.Targets
	}
	out := opts
	out.Targets = ts
	out.ToolchainVersion = rec.ToolchainVersion
	out.Nightly = rec.NightlyVersion
	out.FrameworkRef = rec.FrameworkRef
	if t, err := host.Parse(rec.HostTriple); err == nil {
		out.Host = t
	}
	// Uninstall must see every gcc toolchain a previous run may have added.
	out.EspRiscvGcc = true
	return out
}

func (o *Orchestrator) step(name string) {
	if o.OnStep != nil {
		o.OnStep(name)
	}
}

// removeLegacyExportFile deletes the single-file export script older
// releases wrote into the home directory.
func removeLegacyExportFile(logger logx.Logger) {
	home, err := os.UserHomeDir()
	if err != nil {
		return
	}
	for _, name := range []string{"export-esp.sh", "export-esp.ps1"} {
		path := filepath.Join(home, name)
		if err := os.Remove(path); err == nil {
			logger.Info("removed legacy export file", "path", path)
		}
	}
}
