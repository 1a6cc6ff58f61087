package config

import (
	"path/filepath"
	"testing"

	"embedup/internal/shellenv"
	"embedup/internal/testutil"
)

func testRecord(root string) *Record {
	return &Record{
		ToolchainVersion: "1.65.0.1",
		NightlyVersion:   "nightly",
		HostTriple:       "x86_64-unknown-linux-gnu",
		Targets:          []string{"esp32", "esp32c3"},
		FrameworkRef:     "v5.0",
		InstallRoot:      root,
		Components: []Component{
			{Kind: "xtensa-rust", Name: "xtensa-rust", Version: "1.65.0.1", Path: root},
		},
		Exports: []shellenv.EnvExport{
			shellenv.PrependPath(filepath.Join(root, "rust", "bin")),
			shellenv.Set("RUSTUP_TOOLCHAIN", "nightly"),
		},
	}
}

func TestStore_RoundTrip(t *testing.T) {
	root := t.TempDir()
	store := NewStore(root)
	testutil.AssertFalse(t, store.Exists(), "fresh root has no record")

	rec := testRecord(root)
	testutil.AssertNoError(t, store.Save(rec), "save")
	testutil.AssertTrue(t, store.Exists(), "record present after save")

	loaded, err := store.Load()
	testutil.AssertNoError(t, err, "load")
	testutil.AssertEqual(t, loaded.ToolchainVersion, rec.ToolchainVersion, "version")
	testutil.AssertEqual(t, loaded.FrameworkRef, rec.FrameworkRef, "framework ref")
	testutil.AssertEqual(t, len(loaded.Exports), 2, "exports survive the round trip")
	testutil.AssertEqual(t, loaded.Exports[1], shellenv.Set("RUSTUP_TOOLCHAIN", "nightly"), "export content")
}

func TestStore_SaveCreatesRoot(t *testing.T) {
	root := filepath.Join(t.TempDir(), "nested", "embedup")
	store := NewStore(root)
	testutil.AssertNoError(t, store.Save(testRecord(root)), "save into missing directory")
	testutil.AssertTrue(t, store.Exists(), "record written")
}

func TestStore_DeleteIsIdempotent(t *testing.T) {
	root := t.TempDir()
	store := NewStore(root)
	testutil.AssertNoError(t, store.Save(testRecord(root)), "save")
	testutil.AssertNoError(t, store.Delete(), "delete")
	testutil.AssertFalse(t, store.Exists(), "record gone")
	testutil.AssertNoError(t, store.Delete(), "second delete is not an error")
}

func TestStore_LoadMissing(t *testing.T) {
	store := NewStore(t.TempDir())
	_, err := store.Load()
	testutil.AssertError(t, err, "missing record reported")
}
