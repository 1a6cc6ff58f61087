package shellenv

import (
	"testing"

	"embedup/internal/testutil"
)

func TestAppendSourcingLine_Idempotent(t *testing.T) {
	line := `. "/home/u/.embedup/env"`

	once := AppendSourcingLine("# existing content\n", line)
	twice := AppendSourcingLine(once, line)
	testutil.AssertEqual(t, twice, once, "patching a patched file changes nothing")
	testutil.AssertContains(t, once, line+"\n", "line present with trailing newline")
}

func TestAppendSourcingLine_AddsSeparatingNewline(t *testing.T) {
	line := `. "/r/env"`

	got := AppendSourcingLine("no trailing newline", line)
	testutil.AssertEqual(t, got, "no trailing newline\n"+line+"\n", "separator inserted")

	got = AppendSourcingLine("", line)
	testutil.AssertEqual(t, got, line+"\n", "empty file gets just the line")
}

func TestAppendSourcingLine_EmptyLineIsNoop(t *testing.T) {
	got := AppendSourcingLine("content\n", "")
	testutil.AssertEqual(t, got, "content\n", "empty line leaves content untouched")
}

func TestRemoveSourcingLine_RoundTrip(t *testing.T) {
	line := `. "/home/u/.embedup/env"`
	cases := map[string]string{
		"empty":              "",
		"newline terminated": "export FOO=bar\n# comment\n",
	}
	for name, original := range cases {
		t.Run(name, func(t *testing.T) {
			patched := AppendSourcingLine(original, line)
			cleaned, found := RemoveSourcingLine(patched, line)
			testutil.AssertTrue(t, found, "line found after patch")
			testutil.AssertEqual(t, cleaned, original, "clean(patch(f)) == f")
		})
	}
}

func TestRemoveSourcingLine_DifferentRootNotRecognized(t *testing.T) {
	content := `. "/old/root/env"` + "\n"
	cleaned, found := RemoveSourcingLine(content, `. "/new/root/env"`)
	testutil.AssertFalse(t, found, "identity is byte-exact")
	testutil.AssertEqual(t, cleaned, content, "content untouched")
}

func TestRemoveSourcingLine_LineAtEOFWithoutNewline(t *testing.T) {
	line := `. "/r/env"`
	cleaned, found := RemoveSourcingLine("before\n"+line, line)
	testutil.AssertTrue(t, found, "unterminated trailing line is still removed")
	testutil.AssertEqual(t, cleaned, "before\n", "only the line removed")
}

func TestRenderPosix_PathGuard(t *testing.T) {
	script := RenderPosix([]EnvExport{
		PrependPath("/r/rust/bin"),
		Set("LIBCLANG_PATH", "/r/clang/lib"),
	})
	testutil.AssertContains(t, script, `*:"/r/rust/bin":*`, "PATH prepend is guarded against duplicates")
	testutil.AssertContains(t, script, `export LIBCLANG_PATH="/r/clang/lib"`, "plain export rendered")
}

func TestRenderFish(t *testing.T) {
	script := RenderFish([]EnvExport{
		PrependPath("/r/rust/bin"),
		Set("IDF_PATH", "/r/frameworks/esp-idf-v5.0"),
	})
	testutil.AssertContains(t, script, `if not contains "/r/rust/bin" $PATH`, "guarded PATH prepend")
	testutil.AssertContains(t, script, `set -gx IDF_PATH "/r/frameworks/esp-idf-v5.0"`, "plain set rendered")
}
