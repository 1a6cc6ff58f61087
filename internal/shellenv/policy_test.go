package shellenv

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"embedup/internal/platform/logx"
	"embedup/internal/testutil"
)

// fakeProbe builds a probe for a synthetic host: bash and zsh on PATH,
// bash as login shell, no fish, no ZDOTDIR answer.
func fakeProbe(home string) *Probe {
	return &Probe{
		Home: home,
		Getenv: func(key string) string {
			if key == "SHELL" {
				return "/bin/bash"
			}
			return ""
		},
		LookPath: func(name string) (string, error) {
			if name == "bash" || name == "zsh" {
				return "/usr/bin/" + name, nil
			}
			return "", os.ErrNotExist
		},
		ZshEnvDir: func(ctx context.Context) (string, error) { return "", nil },
	}
}

func readFile(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	testutil.AssertNoError(t, err, "read "+path)
	return string(data)
}

func TestPosixPolicy_UpdateEnvPatchesOnce(t *testing.T) {
	home := t.TempDir()
	root := t.TempDir()
	bashrc := filepath.Join(home, ".bashrc")
	testutil.AssertNoError(t, os.WriteFile(bashrc, []byte("# mine\n"), 0o644), "seed bashrc")

	p := NewPosixPolicy(fakeProbe(home), logx.NewSilent())

	testutil.AssertNoError(t, p.UpdateEnv(root, nil), "first update")
	testutil.AssertNoError(t, p.UpdateEnv(root, nil), "second update")

	line := `. "` + root + `/env"`
	content := readFile(t, bashrc)
	testutil.AssertEqual(t, strings.Count(content, line), 1, "exactly one sourcing line after two runs")

	// .profile is always a write target, created when missing.
	profile := readFile(t, filepath.Join(home, ".profile"))
	testutil.AssertContains(t, profile, line, ".profile patched")

	// zsh fell back to ~/.zshenv since ZDOTDIR was undetermined.
	zshenv := readFile(t, filepath.Join(home, ".zshenv"))
	testutil.AssertContains(t, zshenv, line, ".zshenv patched")
}

func TestPosixPolicy_DoesNotCreateBashCandidates(t *testing.T) {
	home := t.TempDir()
	p := NewPosixPolicy(fakeProbe(home), logx.NewSilent())

	testutil.AssertNoError(t, p.UpdateEnv(t.TempDir(), nil), "update")

	for _, rc := range []string{".bash_profile", ".bash_login", ".bashrc"} {
		if _, err := os.Stat(filepath.Join(home, rc)); err == nil {
			t.Errorf("%s was created, bash rc files must pre-exist to be patched", rc)
		}
	}
}

func TestPosixPolicy_CleanEnvRestoresFiles(t *testing.T) {
	home := t.TempDir()
	root := t.TempDir()
	bashrc := filepath.Join(home, ".bashrc")
	seed := "alias ll='ls -l'\n"
	testutil.AssertNoError(t, os.WriteFile(bashrc, []byte(seed), 0o644), "seed bashrc")

	p := NewPosixPolicy(fakeProbe(home), logx.NewSilent())
	testutil.AssertNoError(t, p.UpdateEnv(root, nil), "update")
	testutil.AssertNoError(t, p.CleanEnv(root, nil), "clean")

	testutil.AssertEqual(t, readFile(t, bashrc), seed, "bashrc back to original content")
}

func TestPosixPolicy_CleanScansAllBashCandidates(t *testing.T) {
	home := t.TempDir()
	root := t.TempDir()
	line := `. "` + root + `/env"`

	// A previous run patched .bash_login; this host now also has .bashrc,
	// so the candidate resolution differs. Cleanup must still find it.
	login := filepath.Join(home, ".bash_login")
	testutil.AssertNoError(t, os.WriteFile(login, []byte(line+"\n"), 0o644), "seed bash_login")
	testutil.AssertNoError(t, os.WriteFile(filepath.Join(home, ".bashrc"), []byte("# new\n"), 0o644), "seed bashrc")

	p := NewPosixPolicy(fakeProbe(home), logx.NewSilent())
	testutil.AssertNoError(t, p.CleanEnv(root, nil), "clean")

	testutil.AssertNotContains(t, readFile(t, login), line, "stale sourcing line removed")
}

func TestPosixPolicy_WriteEnvFilesOverwrites(t *testing.T) {
	home := t.TempDir()
	root := t.TempDir()
	p := NewPosixPolicy(fakeProbe(home), logx.NewSilent())

	testutil.AssertNoError(t, p.WriteEnvFiles(root, []EnvExport{PrependPath("/old/bin")}), "first write")
	testutil.AssertNoError(t, p.WriteEnvFiles(root, []EnvExport{PrependPath("/new/bin")}), "second write")

	script := readFile(t, filepath.Join(root, "env"))
	testutil.AssertContains(t, script, "/new/bin", "script holds latest exports")
	testutil.AssertNotContains(t, script, "/old/bin", "script fully rewritten")
}

func TestZshShell_WriteOnce(t *testing.T) {
	home := t.TempDir()
	zdot := t.TempDir()
	probe := fakeProbe(home)
	probe.ZshEnvDir = func(ctx context.Context) (string, error) { return zdot, nil }

	sh := &zshShell{probe}
	rcs := sh.Rcfiles()
	testutil.AssertEqual(t, len(rcs), 2, "zdotdir candidate plus home fallback")

	// Neither exists: write target is the zdotdir candidate only.
	update := sh.UpdateRcs()
	testutil.AssertEqual(t, len(update), 1, "single write target")
	testutil.AssertEqual(t, update[0], filepath.Join(zdot, ".zshenv"), "zdotdir preferred")

	// An existing home .zshenv wins over creating a new file.
	testutil.AssertNoError(t, os.WriteFile(filepath.Join(home, ".zshenv"), []byte(""), 0o644), "seed")
	update = sh.UpdateRcs()
	testutil.AssertEqual(t, update[0], filepath.Join(home, ".zshenv"), "existing file preferred")
}

func TestFishShell_XDGAndDefaultTargets(t *testing.T) {
	home := t.TempDir()
	xdg := t.TempDir()
	probe := fakeProbe(home)
	probe.Getenv = func(key string) string {
		switch key {
		case "SHELL":
			return "/usr/bin/fish"
		case "XDG_CONFIG_HOME":
			return xdg
		}
		return ""
	}

	sh := &fishShell{probe}
	testutil.AssertTrue(t, sh.DoesExist(), "login shell signal is enough")

	rcs := sh.Rcfiles()
	testutil.AssertEqual(t, len(rcs), 2, "XDG and default conf.d files")
	testutil.AssertEqual(t, rcs[0], filepath.Join(xdg, "fish", "conf.d", "embedup.fish"), "XDG first")
	testutil.AssertEqual(t, rcs[1], filepath.Join(home, ".config", "fish", "conf.d", "embedup.fish"), "default second")
}

func TestShellProbe_PermissiveOr(t *testing.T) {
	home := t.TempDir()

	// zsh not on PATH but named in $SHELL: still available.
	probe := &Probe{
		Home:     home,
		Getenv:   func(key string) string { return map[string]string{"SHELL": "/bin/zsh"}[key] },
		LookPath: func(string) (string, error) { return "", os.ErrNotExist },
	}
	sh := &zshShell{probe}
	testutil.AssertTrue(t, sh.DoesExist(), "login shell mention suffices")

	// On PATH but not the login shell: also available.
	probe = &Probe{
		Home:     home,
		Getenv:   func(string) string { return "" },
		LookPath: func(name string) (string, error) { return "/usr/bin/" + name, nil },
	}
	sh = &zshShell{probe}
	testutil.AssertTrue(t, sh.DoesExist(), "PATH presence suffices")
}
