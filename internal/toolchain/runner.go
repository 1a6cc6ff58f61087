package toolchain

import (
	"context"
	"os/exec"
	"strings"
	"time"

	"embedup/internal/platform/errors"
	"embedup/internal/platform/logx"
)

// DefaultRunTimeout bounds a single external command. Bootstrap scripts can
// legitimately take a long time, so the ceiling is generous.
const DefaultRunTimeout = 30 * time.Minute

// ExecRunner runs commands through os/exec with a per-command timeout.
type ExecRunner struct {
	timeout time.Duration
	logger  logx.Logger
}

// NewRunner creates an ExecRunner with the default timeout.
func NewRunner(logger logx.Logger) *ExecRunner {
	return &ExecRunner{timeout: DefaultRunTimeout, logger: logger}
}

// Run executes name with args and returns the combined stdout/stderr. A
// non-zero exit wraps ErrScriptExecution with the tail of the output.
func (r *ExecRunner) Run(ctx context.Context, name string, args ...string) (string, error) {
	runCtx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	r.logger.Debug("running command", "cmd", name, "args", strings.Join(args, " "))

	cmd := exec.CommandContext(runCtx, name, args...)
	out, err := cmd.CombinedOutput()
	output := string(out)
	if err != nil {
		return output, errors.Wrapf(errors.ErrScriptExecution, "%s %s: %v: %s",
			name, strings.Join(args, " "), err, tail(output, 512))
	}
	return output, nil
}

// tail keeps the last n bytes of s; error output ends with the useful part.
func tail(s string, n int) string {
	s = strings.TrimSpace(s)
	if len(s) <= n {
		return s
	}
	return "..." + s[len(s)-n:]
}
