// Package shellenv wires the installed toolchain into the user's shells:
// it renders per-shell environment scripts, idempotently patches rc files
// with a sourcing line, and cleans both up again on uninstall. On Windows
// the persistent user environment store is mutated instead of rc files.
package shellenv

import (
	"fmt"
	"strings"
)

// Op says how an export is applied.
type Op string

const (
	// OpSet sets the variable to the value.
	OpSet Op = "set"
	// OpPrependPath prepends the value to PATH.
	OpPrependPath Op = "prepend-path"
)

// EnvExport is one environment mutation produced by an installable. The
// sequence is ordered: later exports may rely on PATH entries added by
// earlier ones. Exports are returned to the caller and rendered into
// scripts; the process environment is never mutated.
type EnvExport struct {
	Key   string `yaml:"key"`
	Value string `yaml:"value"`
	Op    Op     `yaml:"op"`
}

// Set builds a plain variable export.
func Set(key, value string) EnvExport {
	return EnvExport{Key: key, Value: value, Op: OpSet}
}

// PrependPath builds a PATH-prepend export.
func PrependPath(dir string) EnvExport {
	return EnvExport{Key: "PATH", Value: dir, Op: OpPrependPath}
}

// RenderPosix renders the exports as a POSIX sh script.
func RenderPosix(exports []EnvExport) string {
	var b strings.Builder
	b.WriteString("#!/bin/sh\n")
	b.WriteString("# embedup shell setup\n")
	for _, e := range exports {
		switch e.Op {
		case OpPrependPath:
			fmt.Fprintf(&b, "case \":${PATH}:\" in\n    *:\"%s\":*) ;;\n    *) export PATH=\"%s:$PATH\" ;;\nesac\n", e.Value, e.Value)
		default:
			fmt.Fprintf(&b, "export %s=\"%s\"\n", e.Key, e.Value)
		}
	}
	return b.String()
}

// RenderFish renders the exports in fish syntax.
func RenderFish(exports []EnvExport) string {
	var b strings.Builder
	b.WriteString("# embedup shell setup\n")
	for _, e := range exports {
		switch e.Op {
		case OpPrependPath:
			fmt.Fprintf(&b, "if not contains \"%s\" $PATH\n    set -gx PATH \"%s\" $PATH\nend\n", e.Value, e.Value)
		default:
			fmt.Fprintf(&b, "set -gx %s \"%s\"\n", e.Key, e.Value)
		}
	}
	return b.String()
}

// AppendSourcingLine returns content with line appended exactly once. An
// already-present line or an empty line leaves content untouched; a file
// not ending in a newline gets a separating newline first.
func AppendSourcingLine(content, line string) string {
	if line == "" || strings.Contains(content, line) {
		return content
	}
	if content != "" && !strings.HasSuffix(content, "\n") {
		content += "\n"
	}
	return content + line + "\n"
}

// RemoveSourcingLine removes the first byte-exact occurrence of line (and
// its trailing newline) from content. Identity is by exact bytes: a line
// written for a different install root is not recognized.
func RemoveSourcingLine(content, line string) (string, bool) {
	if line == "" {
		return content, false
	}
	needle := line + "\n"
	if idx := strings.Index(content, needle); idx >= 0 {
		return content[:idx] + content[idx+len(needle):], true
	}
	// Line at EOF without trailing newline.
	if strings.HasSuffix(content, line) {
		return content[:len(content)-len(line)], true
	}
	return content, false
}
