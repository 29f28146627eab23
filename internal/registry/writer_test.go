package registry

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/go-git/go-billy/v5/osfs"
	"github.com/go-git/go-billy/v5/util"
)

var artifactFiles = []string{
	ManifestFile, BlocksIndexFile, FallbackRecordsFile, ContentTypesFile, ThemesIndexFile, ModulesIndexFile,
}

func TestWrite_Idempotent(t *testing.T) {
	dir := t.TempDir()
	out := osfs.New(dir)

	read := func() map[string][]byte {
		files := make(map[string][]byte)
		for _, name := range artifactFiles {
			data, err := os.ReadFile(filepath.Join(dir, "r", name))
			if err != nil {
				t.Fatalf("reading %s: %v", name, err)
			}
			files[name] = data
		}
		return files
	}

	if err := Write(out, "r", generate(t)); err != nil {
		t.Fatalf("first Write: %v", err)
	}
	first := read()
	if err := Write(out, "r", generate(t)); err != nil {
		t.Fatalf("second Write: %v", err)
	}
	second := read()

	for _, name := range artifactFiles {
		if !bytes.Equal(first[name], second[name]) {
			t.Errorf("%s differs between runs", name)
		}
	}
	for _, leftover := range []string{"r.tmp", "r.old"} {
		if _, err := os.Stat(filepath.Join(dir, leftover)); !os.IsNotExist(err) {
			t.Errorf("%s left behind after write", leftover)
		}
	}
}

func TestWrite_ReplacesStaleFiles(t *testing.T) {
	dir := t.TempDir()
	out := osfs.New(dir)
	if err := util.WriteFile(out, "r/stale.json", []byte("{}"), 0o644); err != nil {
		t.Fatal(err)
	}

	if err := Write(out, "r", generate(t)); err != nil {
		t.Fatalf("Write: %v", err)
	}
	if _, err := os.Stat(filepath.Join(dir, "r", "stale.json")); !os.IsNotExist(err) {
		t.Error("stale file survived a rebuild")
	}
}

func TestLoad_RoundTrip(t *testing.T) {
	out := osfs.New(t.TempDir())
	a := generate(t)
	if err := Write(out, "public/r", a); err != nil {
		t.Fatalf("Write: %v", err)
	}

	got, err := Load(out, "public/r")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(got.Manifest.Blocks) != len(a.Manifest.Blocks) {
		t.Errorf("loaded %d blocks, want %d", len(got.Manifest.Blocks), len(a.Manifest.Blocks))
	}
	e, ok := got.Lookup("about-team-bold-cards")
	if !ok {
		t.Fatal("about-team-bold-cards missing after load")
	}
	if e.Kind != KindBlock || e.Symbol != "AboutTeamBoldCards" || e.Path() != "about/about-team/bold-cards.html" {
		t.Errorf("loaded entry = %+v", e)
	}
	if got.Blocks["ui-card"].Kind != KindPrimitive {
		t.Errorf("ui-card kind = %v", got.Blocks["ui-card"].Kind)
	}
	if got.ContentTypes["teamMemberItem"] == nil {
		t.Error("content types not loaded")
	}
}

func TestLoad_RejectsUnsupportedSchema(t *testing.T) {
	tests := []struct {
		name    string
		version string
		want    string
	}{
		{"major bump", "2.0.0", "unsupported schemaVersion"},
		{"missing", "", "no schemaVersion"},
		{"garbage", "one", "invalid schemaVersion"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := osfs.New(t.TempDir())
			a := generate(t)
			a.Manifest.SchemaVersion = tt.version
			if err := Write(out, "r", a); err != nil {
				t.Fatalf("Write: %v", err)
			}
			_, err := Load(out, "r")
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Errorf("Load err = %v, want %q", err, tt.want)
			}
		})
	}
}

func TestLoad_MissingDirectory(t *testing.T) {
	if _, err := Load(osfs.New(t.TempDir()), "nope"); err == nil {
		t.Fatal("expected error loading a missing directory")
	}
}

func TestGenerate_ContextCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := Generate(ctx, sampleTree(t), sampleOptions()); err == nil {
		t.Fatal("expected an error from a cancelled context")
	}
}
