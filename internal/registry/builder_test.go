package registry

import (
	"context"
	"errors"
	"slices"
	"testing"

	"github.com/blockreg-labs/blockreg/internal/diag"
)

func generate(t *testing.T) *Artifacts {
	t.Helper()
	a, err := Generate(context.Background(), sampleTree(t), sampleOptions())
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	return a
}

func TestGenerate_PublicListing(t *testing.T) {
	a := generate(t)

	var names []string
	for _, b := range a.Manifest.Blocks {
		names = append(names, b.Name)
	}
	want := []string{"about-team-bold-cards", "hero-standard"}
	if !slices.Equal(names, want) {
		t.Errorf("public blocks = %v, want %v", names, want)
	}
	if a.Manifest.SchemaVersion != SchemaVersion {
		t.Errorf("SchemaVersion = %q", a.Manifest.SchemaVersion)
	}
	if a.Manifest.Name != "blocks" || a.Manifest.Repository.Provider != "github" {
		t.Errorf("manifest header = %q / %+v", a.Manifest.Name, a.Manifest.Repository)
	}
}

func TestGenerate_LayoutsIndexedButNotPublic(t *testing.T) {
	a := generate(t)

	for _, name := range []string{"header-bold", "site-header", "ui-button", "ui-card"} {
		e, ok := a.Blocks[name]
		if !ok {
			t.Errorf("%s missing from block index", name)
			continue
		}
		if e.IsPublic() {
			t.Errorf("%s must not be public", name)
		}
		if _, ok := a.PublicBlock(name); ok {
			t.Errorf("%s appears in the public listing", name)
		}
	}
	for _, names := range a.Themes {
		if slices.Contains(names, "header-bold") {
			t.Error("layout block header-bold listed in theme index")
		}
	}
}

func TestGenerate_EachKeyExactlyOnce(t *testing.T) {
	a := generate(t)

	seen := make(map[string]int)
	for _, e := range a.Blocks {
		if e.Key != "" {
			seen[e.Key]++
		}
	}
	for _, key := range []string{"about/about-team/bold-cards", "marketing/hero/standard", "marketing/header/bold"} {
		if seen[key] != 1 {
			t.Errorf("key %s indexed %d times, want 1", key, seen[key])
		}
	}
	if len(seen) != 3 {
		t.Errorf("indexed keys = %v", seen)
	}
}

func TestGenerate_ResolvesReferences(t *testing.T) {
	a := generate(t)

	team, _ := a.PublicBlock("about-team-bold-cards")
	if want := []string{"ui-card"}; !slices.Equal(team.RegistryDependencies, want) {
		t.Errorf("team registryDependencies = %v, want %v", team.RegistryDependencies, want)
	}
	if want := []string{"ui-button"}; !slices.Equal(a.Blocks["site-header"].RegistryDependencies, want) {
		t.Errorf("site-header registryDependencies = %v", a.Blocks["site-header"].RegistryDependencies)
	}
	if len(a.Warnings) != 0 {
		t.Errorf("unexpected warnings: %v", a.Warnings)
	}
}

func TestGenerate_DanglingDependencyDropped(t *testing.T) {
	fs := newTree(t, map[string]string{
		"blocks/marketing/cta/bold.html": "---\nregistryDependencies: [Z, ui-button]\n---\n{{define \"CtaBold\"}}{{end}}",
		"blocks/ui/button.html":          uiButton,
	})

	a, err := Generate(context.Background(), fs, sampleOptions())
	if err != nil {
		t.Fatalf("Generate must succeed with a dangling edge: %v", err)
	}
	b, ok := a.PublicBlock("cta-bold")
	if !ok {
		t.Fatal("block with a dangling edge missing from registry")
	}
	if slices.Contains(b.RegistryDependencies, "Z") {
		t.Error("dangling edge Z kept")
	}
	if !slices.Contains(b.RegistryDependencies, "ui-button") {
		t.Error("valid edge ui-button dropped")
	}
	if a.Warnings.Count(diag.CodeReferentialIntegrity) != 1 {
		t.Errorf("warnings = %v, want one REFERENTIAL_INTEGRITY", a.Warnings)
	}
}

func TestGenerate_ExtractionErrorsSkipped(t *testing.T) {
	fs := newTree(t, map[string]string{
		"blocks/marketing/hero/bold.html":     "<h1>no entry point</h1>",
		"blocks/marketing/hero/standard.html": heroStandard,
		"blocks/marketing/hero/retro.html":    heroStandard,
	})

	a, err := Generate(context.Background(), fs, sampleOptions())
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if len(a.Manifest.Blocks) != 1 || a.Manifest.Blocks[0].Name != "hero-standard" {
		t.Errorf("blocks = %+v", a.Manifest.Blocks)
	}
	if a.Warnings.Count(diag.CodeExtractionError) != 1 {
		t.Errorf("want one EXTRACTION_ERROR, got %v", a.Warnings)
	}
	if a.Warnings.Count(diag.CodeScanWarning) != 1 {
		t.Errorf("want one SCAN_WARNING, got %v", a.Warnings)
	}
	// hero-standard references UiButton, which is absent here.
	if a.Warnings.Count(diag.CodeReferentialIntegrity) != 1 {
		t.Errorf("want one REFERENTIAL_INTEGRITY, got %v", a.Warnings)
	}
}

func TestGenerate_DuplicateNameIsFatal(t *testing.T) {
	fs := newTree(t, map[string]string{
		"blocks/about/team/bold.html":   `{{define "AboutTeam"}}{{end}}`,
		"blocks/careers/team/bold.html": `{{define "CareersTeam"}}{{end}}`,
	})

	_, err := Generate(context.Background(), fs, sampleOptions())
	var dup *DuplicateNameError
	if !errors.As(err, &dup) {
		t.Fatalf("err = %v, want *DuplicateNameError", err)
	}
	if dup.Name != "team-bold" || dup.Code() != diag.CodeDuplicateName {
		t.Errorf("dup = %+v", dup)
	}
}

func TestGenerate_MissingRoot(t *testing.T) {
	opts := sampleOptions()
	opts.Scan.Root = "missing"
	if _, err := Generate(context.Background(), newTree(t, nil), opts); err == nil {
		t.Fatal("expected an error for a missing root")
	}
}

func TestGenerate_Indices(t *testing.T) {
	a := generate(t)

	if want := []string{"about-team-bold-cards"}; !slices.Equal(a.Themes["bold"], want) {
		t.Errorf("themes[bold] = %v, want %v", a.Themes["bold"], want)
	}
	if want := []string{"hero"}; !slices.Equal(a.Modules["marketing"], want) {
		t.Errorf("modules[marketing] = %v, want %v", a.Modules["marketing"], want)
	}

	var themes []string
	for _, th := range a.Manifest.Themes {
		themes = append(themes, th.Name)
	}
	if want := []string{"bold", "standard"}; !slices.Equal(themes, want) {
		t.Errorf("manifest themes = %v, want %v", themes, want)
	}

	var modules []string
	for _, m := range a.Manifest.Modules {
		modules = append(modules, m.Name)
	}
	if want := []string{"about", "marketing", "site", "ui"}; !slices.Equal(modules, want) {
		t.Errorf("manifest modules = %v, want %v", modules, want)
	}

	members := a.FallbackRecords["teamMemberItem"]
	if len(members) != 3 || members[0]["name"] != "Sarah Chen" {
		t.Errorf("fallback teamMemberItem = %v", members)
	}
	schema := a.ContentTypes["teamMemberItem"]
	if schema == nil {
		t.Fatal("no content-type schema for teamMemberItem")
	}
	if want := []string{"image", "name", "role"}; !slices.Equal(schema.Required, want) {
		t.Errorf("required = %v, want %v", schema.Required, want)
	}
}

func TestGenerate_FirstSeenThemeLabelWins(t *testing.T) {
	fs := newTree(t, map[string]string{
		"blocks/a/one/bold.html": "---\ntheme: {label: First}\n---\n{{define \"One\"}}{{end}}",
		"blocks/b/two/bold.html": "---\ntheme: {label: Second}\n---\n{{define \"Two\"}}{{end}}",
	})
	a, err := Generate(context.Background(), fs, sampleOptions())
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if len(a.Manifest.Themes) != 1 || a.Manifest.Themes[0].Label != "First" {
		t.Errorf("themes = %+v", a.Manifest.Themes)
	}
}

func TestLookup(t *testing.T) {
	a := generate(t)

	for _, ref := range []string{"about-team-bold-cards", "about/about-team/bold-cards"} {
		e, ok := a.Lookup(ref)
		if !ok || e.Name != "about-team-bold-cards" {
			t.Errorf("Lookup(%q) = %v, %v", ref, e, ok)
		}
	}
	if _, ok := a.Lookup("careers/about-team/bold-cards"); ok {
		t.Error("Lookup matched a key from the wrong module")
	}
	if _, ok := a.Lookup("does-not-exist"); ok {
		t.Error("Lookup matched an unknown name")
	}
}
