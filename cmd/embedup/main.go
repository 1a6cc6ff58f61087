// Package main implements the embedup CLI: install, update and uninstall
// the embedded Rust development environment.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/spf13/pflag"

	"embedup/internal/config"
	"embedup/internal/fetch"
	"embedup/internal/host"
	"embedup/internal/platform/httpclient"
	"embedup/internal/platform/logx"
	"embedup/internal/release"
	"embedup/internal/shellenv"
	"embedup/internal/targets"
	"embedup/internal/toolchain"
	"embedup/internal/ui"
)

const (
	version = "0.3.0"
	appName = "embedup"
)

// Config holds CLI configuration.
type Config struct {
	Install      bool
	Uninstall    bool
	Update       bool
	Targets      string
	ToolchainVer string
	NightlyVer   string
	FrameworkRef string
	HostTriple   string
	InstallDir   string
	Std          bool
	ExtendedLlvm bool
	EspRiscvGcc  bool
	NoModifyEnv  bool
	Quiet        bool
	Verbose      bool
	ShowVersion  bool
}

func main() {
	cfg := parseFlags()

	if cfg.ShowVersion {
		fmt.Printf("%s v%s\n", appName, version)
		os.Exit(0)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigChan
		fmt.Fprintln(os.Stderr, "\nReceived interrupt signal, stopping...")
		cancel()
	}()

	logLevel := logx.LevelWarn
	if cfg.Verbose {
		logLevel = logx.LevelDebug
	}
	logger := logx.NewWithLevel(logLevel)

	if err := run(ctx, cfg, logger); err != nil {
		logger.Err(err, "context", "run failed")
		os.Exit(1)
	}
}

// parseFlags parses command-line flags.
func parseFlags() Config {
	var cfg Config

	pflag.BoolVarP(&cfg.Install, "install", "i", false, "Install the embedded toolchain")
	pflag.BoolVarP(&cfg.Uninstall, "uninstall", "u", false, "Uninstall the embedded toolchain")
	pflag.BoolVar(&cfg.Update, "update", false, "Update the toolchain to the requested version")
	pflag.StringVarP(&cfg.Targets, "targets", "t", "all", "Comma or space separated chip targets (esp32, esp32s2, esp32s3, esp32c3, all)")
	pflag.StringVar(&cfg.ToolchainVer, "toolchain-version", "", "Compiler toolchain version (MAJOR.MINOR.PATCH or MAJOR.MINOR.PATCH.SUBPATCH, empty = latest)")
	pflag.StringVarP(&cfg.NightlyVer, "nightly-version", "n", "nightly", "Nightly toolchain name used for RISC-V target support")
	pflag.StringVar(&cfg.FrameworkRef, "esp-idf-version", "", "ESP-IDF git ref to install (empty = no framework)")
	pflag.StringVarP(&cfg.HostTriple, "default-host", "d", "", "Host triple override (autodetected when empty)")
	pflag.StringVar(&cfg.InstallDir, "install-dir", "", "Installation root (default ~/.embedup)")
	pflag.BoolVar(&cfg.Std, "std", true, "Install the standard library source bundle")
	pflag.BoolVarP(&cfg.ExtendedLlvm, "extended-llvm", "e", false, "Install the full LLVM distribution instead of the libs-only one")
	pflag.BoolVar(&cfg.EspRiscvGcc, "esp-riscv-gcc", false, "Install the Espressif RISC-V GCC toolchain")
	pflag.BoolVar(&cfg.NoModifyEnv, "no-modify-env", false, "Do not patch shell rc files or the user environment")
	pflag.BoolVarP(&cfg.Quiet, "quiet", "q", false, "Quiet mode (no UI)")
	pflag.BoolVar(&cfg.Verbose, "verbose", false, "Verbose mode (detailed logging)")
	pflag.BoolVarP(&cfg.ShowVersion, "version", "v", false, "Show version and exit")

	pflag.Usage = func() {
		fmt.Fprintf(os.Stderr, "%s v%s\n\n", appName, version)
		fmt.Fprintf(os.Stderr, "USAGE:\n")
		fmt.Fprintf(os.Stderr, "  embedup [flags]\n\n")
		fmt.Fprintf(os.Stderr, "FLAGS:\n")
		pflag.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nEXAMPLES:\n")
		fmt.Fprintf(os.Stderr, "  # Install the latest toolchain for every chip\n")
		fmt.Fprintf(os.Stderr, "  embedup --install\n\n")
		fmt.Fprintf(os.Stderr, "  # Install a pinned release for esp32c3 only\n")
		fmt.Fprintf(os.Stderr, "  embedup --install --targets esp32c3 --toolchain-version 1.65.0\n\n")
		fmt.Fprintf(os.Stderr, "  # Remove everything a previous run installed\n")
		fmt.Fprintf(os.Stderr, "  embedup --uninstall\n\n")
	}

	pflag.Parse()

	return cfg
}

// run wires the collaborators and executes the selected action.
func run(ctx context.Context, cfg Config, logger logx.Logger) error {
	startTime := time.Now()

	presenter := newPresenter(cfg.Quiet)

	h, err := host.Detect(cfg.HostTriple)
	if err != nil {
		presenter.Failure(err)
		return err
	}

	ts, err := targets.Parse(cfg.Targets)
	if err != nil {
		presenter.Failure(err)
		return err
	}

	installRoot := cfg.InstallDir
	if installRoot == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return fmt.Errorf("failed to locate home directory: %w", err)
		}
		installRoot = filepath.Join(home, ".embedup")
	}

	client := httpclient.New(httpclient.DefaultConfig(), logger)
	resolver := release.NewResolver(client, "", logger)
	fetcher := fetch.New(client, logger)
	runner := toolchain.NewRunner(logger)

	policy, err := newPolicy(h, logger)
	if err != nil {
		presenter.Failure(err)
		return err
	}

	orch := toolchain.NewOrchestrator(fetcher, runner, policy, logger)
	var lastStep string
	orch.OnStep = func(name string) {
		presenter.StepDone(lastStep)
		presenter.StepStart(name)
		lastStep = name
	}

	opts := toolchain.Options{
		Targets:      ts,
		Nightly:      cfg.NightlyVer,
		Host:         h,
		InstallRoot:  installRoot,
		WithStdlib:   cfg.Std,
		ExtendedLlvm: cfg.ExtendedLlvm,
		EspRiscvGcc:  cfg.EspRiscvGcc,
		FrameworkRef: cfg.FrameworkRef,
		ModifyEnv:    !cfg.NoModifyEnv,
	}

	switch {
	case cfg.Uninstall:
		presenter.Start(ui.RunInfo{
			Action:      "uninstall",
			HostTriple:  h.String(),
			InstallRoot: installRoot,
		})
		if err := orch.Uninstall(ctx, opts); err != nil {
			presenter.StepFailed(lastStep, err)
			presenter.Failure(err)
			return err
		}
		presenter.StepDone(lastStep)
		presenter.Summary(&config.Record{InstallRoot: installRoot}, time.Since(startTime))
		return nil

	case cfg.Update, cfg.Install:
		resolved, err := resolveVersion(ctx, resolver, cfg.ToolchainVer)
		if err != nil {
			presenter.Failure(err)
			return err
		}
		opts.ToolchainVersion = resolved

		presenter.Start(ui.RunInfo{
			Action:      actionName(cfg),
			Version:     resolved,
			HostTriple:  h.String(),
			Targets:     targets.Strings(ts),
			InstallRoot: installRoot,
		})

		var rec *config.Record
		if cfg.Update {
			rec, err = orch.Update(ctx, opts)
		} else {
			rec, err = orch.Install(ctx, opts)
		}
		if err != nil {
			presenter.StepFailed(lastStep, err)
			presenter.Failure(err)
			return err
		}
		presenter.StepDone(lastStep)
		presenter.Summary(rec, time.Since(startTime))
		return nil

	default:
		pflag.Usage()
		return fmt.Errorf("no action selected: pass --install, --update or --uninstall")
	}
}

// resolveVersion turns the user request into a concrete release version,
// defaulting to the newest published release.
func resolveVersion(ctx context.Context, resolver *release.Resolver, requested string) (string, error) {
	if requested == "" {
		v, err := resolver.Latest(ctx)
		if err != nil {
			return "", err
		}
		return v.String(), nil
	}
	v, err := resolver.Resolve(ctx, requested)
	if err != nil {
		return "", err
	}
	return v.String(), nil
}

// newPolicy selects the platform environment policy at runtime.
func newPolicy(h host.Triple, logger logx.Logger) (shellenv.Policy, error) {
	if h.IsWindows() {
		store, err := shellenv.NewSystemStore()
		if err != nil {
			return nil, err
		}
		return shellenv.NewRegistryPolicy(store, logger), nil
	}
	probe, err := shellenv.NewProbe()
	if err != nil {
		return nil, err
	}
	return shellenv.NewPosixPolicy(probe, logger), nil
}

func newPresenter(quiet bool) ui.Presenter {
	if quiet {
		return ui.NoopPresenter{}
	}
	return ui.NewPTermPresenter()
}

func actionName(cfg Config) string {
	if cfg.Update {
		return "update"
	}
	return "install"
}
