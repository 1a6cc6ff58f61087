package shellenv

import (
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"
)

// Shell models one POSIX shell family the integrator knows how to wire.
//
// Rcfiles is the broad set scanned on cleanup; UpdateRcs is the narrower
// write-target set patched on install. Keeping cleanup broader than install
// catches sourcing lines written by a previous run whose candidates
// resolved differently.
type Shell interface {
	// Name returns the shell's name for diagnostics.
	Name() string

	// DoesExist reports whether any trace of the shell is present. Users
	// have multiple shells, so the heuristic is deliberately eager: one
	// positive signal is enough.
	DoesExist() bool

	// Rcfiles returns every rc file the integrator recognizes for cleanup.
	Rcfiles() []string

	// UpdateRcs returns the rc files to patch on install.
	UpdateRcs() []string

	// EnvScriptName returns the environment script file name for the shell.
	EnvScriptName() string

	// RenderScript renders the environment script for the shell.
	RenderScript(exports []EnvExport) string

	// SourceString returns the exact sourcing line for the given install
	// root. This literal is the unit of idempotency detection and must stay
	// byte-stable between install and cleanup.
	SourceString(installRoot string) string
}

// Probe carries the host signals shells use to decide availability and rc
// file locations. Function fields default to the real environment so tests
// can substitute a fake host.
type Probe struct {
	Home       string
	Getenv     func(string) string
	LookPath   func(string) (string, error)
	ZshEnvDir  func(ctx context.Context) (string, error)
	ZshTimeout time.Duration
}

// NewProbe builds a probe backed by the real process environment.
func NewProbe() (*Probe, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return nil, err
	}
	p := &Probe{
		Home:       home,
		Getenv:     os.Getenv,
		LookPath:   exec.LookPath,
		ZshTimeout: 2 * time.Second,
	}
	p.ZshEnvDir = p.queryZshEnvDir
	return p, nil
}

// hasCmd reports whether the executable is discoverable on PATH.
func (p *Probe) hasCmd(name string) bool {
	_, err := p.LookPath(name)
	return err == nil
}

// loginShellContains reports whether $SHELL mentions the given name.
func (p *Probe) loginShellContains(name string) bool {
	return strings.Contains(p.Getenv("SHELL"), name)
}

// queryZshEnvDir asks a zsh subprocess for $ZDOTDIR. The call is bounded by
// ZshTimeout; a failure or empty answer means "not determined", never a
// fatal error.
func (p *Probe) queryZshEnvDir(ctx context.Context) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, p.ZshTimeout)
	defer cancel()

	out, err := exec.CommandContext(ctx, "zsh", "-c", "echo -n $ZDOTDIR").Output()
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(out)), nil
}

// Shells returns every shell family the integrator handles on POSIX hosts.
func Shells(p *Probe) []Shell {
	return []Shell{
		&posixShell{p},
		&bashShell{p},
		&zshShell{p},
		&fishShell{p},
	}
}

// AvailableShells filters Shells down to those with any availability signal.
func AvailableShells(p *Probe) []Shell {
	var out []Shell
	for _, sh := range Shells(p) {
		if sh.DoesExist() {
			out = append(out, sh)
		}
	}
	return out
}

type posixShell struct{ p *Probe }

func (s *posixShell) Name() string { return "sh" }

// The login shell is always some POSIX shell.
func (s *posixShell) DoesExist() bool { return true }

func (s *posixShell) Rcfiles() []string {
	return []string{filepath.Join(s.p.Home, ".profile")}
}

// Write to .profile even if it does not exist. It is the only rc file in
// the POSIX spec, so there is no reliable alternative.
func (s *posixShell) UpdateRcs() []string { return s.Rcfiles() }

func (s *posixShell) EnvScriptName() string { return "env" }

func (s *posixShell) RenderScript(exports []EnvExport) string { return RenderPosix(exports) }

func (s *posixShell) SourceString(installRoot string) string {
	return `. "` + installRoot + `/env"`
}

type bashShell struct{ p *Probe }

func (s *bashShell) Name() string { return "bash" }

func (s *bashShell) DoesExist() bool { return len(s.UpdateRcs()) > 0 }

// .profile is handled by the POSIX shell entry, so it is not listed here.
func (s *bashShell) Rcfiles() []string {
	out := make([]string, 0, 3)
	for _, rc := range []string{".bash_profile", ".bash_login", ".bashrc"} {
		out = append(out, filepath.Join(s.p.Home, rc))
	}
	return out
}

// Only rc files that already exist are write targets; creating a login
// profile would change which startup files bash reads.
func (s *bashShell) UpdateRcs() []string {
	var out []string
	for _, rc := range s.Rcfiles() {
		if isFile(rc) {
			out = append(out, rc)
		}
	}
	return out
}

func (s *bashShell) EnvScriptName() string { return "env" }

func (s *bashShell) RenderScript(exports []EnvExport) string { return RenderPosix(exports) }

func (s *bashShell) SourceString(installRoot string) string {
	return `. "` + installRoot + `/env"`
}

type zshShell struct{ p *Probe }

func (s *zshShell) Name() string { return "zsh" }

func (s *zshShell) DoesExist() bool {
	return s.p.loginShellContains("zsh") || s.p.hasCmd("zsh")
}

// zdotdir resolves the directory zsh reads .zshenv from. When zsh is the
// login shell the ZDOTDIR variable is trusted directly; otherwise a zsh
// subprocess is asked, bounded by a timeout. An empty answer falls back to
// the home directory.
func (s *zshShell) zdotdir() string {
	if s.p.loginShellContains("zsh") {
		if dir := s.p.Getenv("ZDOTDIR"); dir != "" {
			return dir
		}
		return ""
	}
	if s.p.ZshEnvDir == nil {
		return ""
	}
	dir, err := s.p.ZshEnvDir(context.Background())
	if err != nil {
		return ""
	}
	return dir
}

func (s *zshShell) Rcfiles() []string {
	var out []string
	if dir := s.zdotdir(); dir != "" {
		out = append(out, filepath.Join(dir, ".zshenv"))
	}
	return append(out, filepath.Join(s.p.Home, ".zshenv"))
}

// zsh can change ZDOTDIR both before and during reading .zshenv, so prefer
// whichever candidate already exists and otherwise create the first one.
// Only ever write a single file.
func (s *zshShell) UpdateRcs() []string {
	rcs := s.Rcfiles()
	for _, rc := range rcs {
		if isFile(rc) {
			return []string{rc}
		}
	}
	return rcs[:1]
}

func (s *zshShell) EnvScriptName() string { return "env" }

func (s *zshShell) RenderScript(exports []EnvExport) string { return RenderPosix(exports) }

func (s *zshShell) SourceString(installRoot string) string {
	return `. "` + installRoot + `/env"`
}

type fishShell struct{ p *Probe }

func (s *fishShell) Name() string { return "fish" }

func (s *fishShell) DoesExist() bool {
	return s.p.loginShellContains("fish") || s.p.hasCmd("fish")
}

// fish auto-sources every script under conf.d, so the "rc file" here is a
// dedicated conf.d/embedup.fish. Both the XDG location and the default are
// recognized; both are written when both resolve.
func (s *fishShell) Rcfiles() []string {
	var out []string
	if xdg := s.p.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		out = append(out, filepath.Join(xdg, "fish", "conf.d", "embedup.fish"))
	}
	return append(out, filepath.Join(s.p.Home, ".config", "fish", "conf.d", "embedup.fish"))
}

func (s *fishShell) UpdateRcs() []string { return s.Rcfiles() }

func (s *fishShell) EnvScriptName() string { return "env.fish" }

func (s *fishShell) RenderScript(exports []EnvExport) string { return RenderFish(exports) }

func (s *fishShell) SourceString(installRoot string) string {
	return `. "` + installRoot + `/env.fish"`
}

func isFile(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.Mode().IsRegular()
}
