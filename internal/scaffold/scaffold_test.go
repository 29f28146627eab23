package scaffold

import (
	"context"
	"strings"
	"testing"

	"github.com/go-git/go-billy/v5/memfs"
	"github.com/go-git/go-billy/v5/util"

	"github.com/blockreg-labs/blockreg/internal/registry"
)

func TestBlockData_Derived(t *testing.T) {
	tests := []struct {
		name       string
		data       BlockData
		wantName   string
		wantSymbol string
		wantPath   string
	}{
		{
			name:       "default template",
			data:       BlockData{Module: "marketing", Section: "hero", Theme: registry.ThemeStandard},
			wantName:   "hero-standard",
			wantSymbol: "HeroStandard",
			wantPath:   "marketing/hero/standard.html",
		},
		{
			name:       "named template",
			data:       BlockData{Module: "about", Section: "about-team", Theme: registry.ThemeBold, Template: "cards"},
			wantName:   "about-team-bold-cards",
			wantSymbol: "AboutTeamBoldCards",
			wantPath:   "about/about-team/bold-cards.html",
		},
		{
			name:       "explicit default",
			data:       BlockData{Module: "pricing", Section: "pricing", Theme: registry.ThemeMinimal, Template: "default"},
			wantName:   "pricing-minimal",
			wantSymbol: "PricingMinimal",
			wantPath:   "pricing/pricing/minimal.html",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.data.Name(); got != tt.wantName {
				t.Errorf("Name() = %q, want %q", got, tt.wantName)
			}
			if got := tt.data.Symbol(); got != tt.wantSymbol {
				t.Errorf("Symbol() = %q, want %q", got, tt.wantSymbol)
			}
			if got := tt.data.Path(); got != tt.wantPath {
				t.Errorf("Path() = %q, want %q", got, tt.wantPath)
			}
		})
	}
}

func TestBlock_GeneratesExtractableLeaf(t *testing.T) {
	fs := memfs.New()
	data := &BlockData{
		Module:      "about",
		Section:     "about-team",
		Theme:       registry.ThemeBold,
		Template:    "cards",
		Description: "Team grid: bold cards.",
		Fields:      []string{"heading", "subheading"},
		Collection:  "teamMemberItem",
	}

	res, err := Block(fs, "blocks", data)
	if err != nil {
		t.Fatalf("Block() error: %v", err)
	}
	if res.Path != "blocks/about/about-team/bold-cards.html" {
		t.Errorf("Path = %q", res.Path)
	}
	if res.Name != "about-team-bold-cards" || res.Symbol != "AboutTeamBoldCards" {
		t.Errorf("Name/Symbol = %q/%q", res.Name, res.Symbol)
	}

	src, err := util.ReadFile(fs, res.Path)
	if err != nil {
		t.Fatal(err)
	}
	for _, want := range []string{
		`description: "Team grid: bold cards."`,
		`heading: "Heading"`,
		`{{define "AboutTeamBoldCards"}}`,
		`{{themeClass "bold"}}`,
		`{{.subheading}}`,
		`{{range .teamMemberItem}}`,
	} {
		if !strings.Contains(string(src), want) {
			t.Errorf("generated source missing %q:\n%s", want, src)
		}
	}

	a, err := registry.Generate(context.Background(), fs, registry.GenerateOptions{
		Scan: registry.ScanOptions{Root: "blocks"},
	})
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	e, ok := a.Lookup("about-team-bold-cards")
	if !ok {
		t.Fatalf("generated block not in registry; warnings: %v", a.Warnings)
	}
	if got := strings.Join(e.Binding.Fields, ","); got != "heading,subheading" {
		t.Errorf("Binding.Fields = %q", got)
	}
	if got := strings.Join(e.Binding.Collections, ","); got != "teamMemberItem" {
		t.Errorf("Binding.Collections = %q", got)
	}
}

func TestBlock_MinimalHasNoFields(t *testing.T) {
	fs := memfs.New()
	res, err := Block(fs, "blocks", &BlockData{Module: "marketing", Section: "cta", Theme: registry.ThemeNeobrutalism})
	if err != nil {
		t.Fatalf("Block() error: %v", err)
	}
	src, _ := util.ReadFile(fs, res.Path)
	if strings.Contains(string(src), "fields:") || strings.Contains(string(src), "collections:") {
		t.Errorf("unexpected content sections:\n%s", src)
	}
}

func TestBlock_RefusesOverwrite(t *testing.T) {
	fs := memfs.New()
	data := &BlockData{Module: "marketing", Section: "hero", Theme: registry.ThemeStandard}
	if _, err := Block(fs, "blocks", data); err != nil {
		t.Fatal(err)
	}
	_, err := Block(fs, "blocks", data)
	if err == nil || !strings.Contains(err.Error(), "already exists") {
		t.Fatalf("second Block() error = %v, want already exists", err)
	}
}

func TestBlock_RejectsBadInput(t *testing.T) {
	tests := map[string]BlockData{
		"uppercase module": {Module: "Marketing", Section: "hero"},
		"empty section":    {Module: "marketing"},
		"bad template":     {Module: "marketing", Section: "hero", Template: "Big Cards"},
		"bad field":        {Module: "marketing", Section: "hero", Fields: []string{"sub-heading"}},
		"bad collection":   {Module: "marketing", Section: "hero", Collection: "1items"},
	}
	for name, data := range tests {
		t.Run(name, func(t *testing.T) {
			if _, err := Block(memfs.New(), "blocks", &data); err == nil {
				t.Error("expected an error")
			}
		})
	}
}
