package toolchain

import (
	"context"
	"strings"

	"embedup/internal/platform/errors"
	"embedup/internal/platform/logx"
	"embedup/internal/shellenv"
)

// RiscvTargetName is the bare-metal RISC-V target added through rustup.
const RiscvTargetName = "riscv32imac-unknown-none-elf"

// TargetSupport adds RISC-V bare-metal support to an existing nightly
// toolchain through rustup. Presence is asked from rustup itself, never
// inferred from the filesystem.
type TargetSupport struct {
	Nightly string

	runner Runner
	logger logx.Logger
}

// NewTargetSupport builds the installable for the given nightly toolchain
// name (e.g. "nightly" or "nightly-2023-03-01").
func NewTargetSupport(nightly string, runner Runner, logger logx.Logger) *TargetSupport {
	return &TargetSupport{
		Nightly: nightly,
		runner:  runner,
		logger:  logger.With("component", "riscv-target"),
	}
}

func (t *TargetSupport) Name() string { return "riscv-target" }

// Install adds rust-src and the RISC-V target to the nightly toolchain,
// skipping when rustup already reports the target installed.
func (t *TargetSupport) Install(ctx context.Context) ([]shellenv.EnvExport, error) {
	out, err := t.runner.Run(ctx, "rustup", "target", "list", "--toolchain", t.Nightly)
	if err != nil {
		return nil, errors.Wrapf(err, "riscv-target: failed to query rustup targets for %s", t.Nightly)
	}
	if installedTarget(out, RiscvTargetName) {
		t.logger.Info("riscv target already installed, skipping", "toolchain", t.Nightly)
		return nil, nil
	}

	t.logger.Info("adding riscv target support", "toolchain", t.Nightly)
	if _, err := t.runner.Run(ctx, "rustup", "component", "add", "rust-src", "--toolchain", t.Nightly); err != nil {
		return nil, errors.Wrapf(err, "riscv-target: failed to add rust-src to %s", t.Nightly)
	}
	if _, err := t.runner.Run(ctx, "rustup", "target", "add", "--toolchain", t.Nightly, RiscvTargetName); err != nil {
		return nil, errors.Wrapf(err, "riscv-target: failed to add %s to %s", RiscvTargetName, t.Nightly)
	}
	return t.Exports(), nil
}

// Exports returns the toolchain selector builds need for the riscv target.
func (t *TargetSupport) Exports() []shellenv.EnvExport {
	return []shellenv.EnvExport{shellenv.Set("RUSTUP_TOOLCHAIN", t.Nightly)}
}

// Uninstall removes the target from the nightly toolchain. A toolchain that
// no longer exists counts as already removed.
func (t *TargetSupport) Uninstall(ctx context.Context) error {
	out, err := t.runner.Run(ctx, "rustup", "target", "list", "--toolchain", t.Nightly)
	if err != nil || !installedTarget(out, RiscvTargetName) {
		return nil
	}
	if _, err := t.runner.Run(ctx, "rustup", "target", "remove", "--toolchain", t.Nightly, RiscvTargetName); err != nil {
		return errors.Wrapf(err, "riscv-target: failed to remove %s from %s", RiscvTargetName, t.Nightly)
	}
	return nil
}

// installedTarget reports whether a `rustup target list` output marks the
// target installed.
func installedTarget(listOutput, target string) bool {
	for _, line := range strings.Split(listOutput, "\n") {
		line = strings.TrimSpace(line)
		if strings.HasPrefix(line, target) && strings.Contains(line, "(installed)") {
			return true
		}
	}
	return false
}

// EnsureNightly verifies rustup is reachable and that the required nightly
// toolchain exists, installing it with the minimal profile when missing.
func EnsureNightly(ctx context.Context, runner Runner, nightly string, logger logx.Logger) error {
	out, err := runner.Run(ctx, "rustup", "toolchain", "list")
	if err != nil {
		return errors.Wrapf(errors.ErrMissingToolManager,
			"rustup was not found, install it from https://rustup.rs: %v", err)
	}
	if strings.Contains(out, nightly) {
		return nil
	}

	logger.Info("installing nightly toolchain", "toolchain", nightly)
	if _, err := runner.Run(ctx, "rustup", "toolchain", "install", nightly, "--profile", "minimal"); err != nil {
		return errors.Wrapf(err, "failed to install %s toolchain", nightly)
	}
	return nil
}
