package registry

import (
	"errors"
	"sort"
	"testing"
)

func collect(t *testing.T, seq func(func(Leaf, error) bool)) ([]Leaf, []*ScanWarning, error) {
	t.Helper()
	var leaves []Leaf
	var warns []*ScanWarning
	for leaf, err := range seq {
		if err != nil {
			var sw *ScanWarning
			if errors.As(err, &sw) {
				warns = append(warns, sw)
				continue
			}
			return leaves, warns, err
		}
		leaves = append(leaves, leaf)
	}
	sort.Slice(leaves, func(i, j int) bool { return leaves[i].Path < leaves[j].Path })
	return leaves, warns, nil
}

func TestScan_Classification(t *testing.T) {
	fs := sampleTree(t)
	leaves, warns, err := collect(t, Scan(fs, ScanOptions{Root: "blocks", Extension: ".html", SharedModules: []string{"ui"}}))
	if err != nil {
		t.Fatalf("Scan: %v", err)
	}
	if len(warns) != 0 {
		t.Errorf("unexpected warnings: %v", warns)
	}

	want := map[string]Leaf{
		"about/about-team/bold-cards.html": {Kind: KindBlock, Module: "about", Section: "about-team", Stem: "bold-cards", Theme: ThemeBold, Template: "cards"},
		"marketing/hero/standard.html":     {Kind: KindBlock, Module: "marketing", Section: "hero", Stem: "standard", Theme: ThemeStandard, Template: "default"},
		"marketing/header/bold.html":       {Kind: KindBlock, Module: "marketing", Section: "header", Stem: "bold", Theme: ThemeBold, Template: "default"},
		"site/header.html":                 {Kind: KindLayout, Module: "site", Stem: "header"},
		"ui/button.html":                   {Kind: KindPrimitive, Module: "ui", Stem: "button"},
		"ui/card.html":                     {Kind: KindPrimitive, Module: "ui", Stem: "card"},
	}
	if len(leaves) != len(want) {
		t.Fatalf("got %d leaves, want %d: %+v", len(leaves), len(want), leaves)
	}
	for _, leaf := range leaves {
		w, ok := want[leaf.Path]
		if !ok {
			t.Errorf("unexpected leaf %s", leaf.Path)
			continue
		}
		w.Path = leaf.Path
		if leaf != w {
			t.Errorf("leaf %s = %+v, want %+v", leaf.Path, leaf, w)
		}
	}
}

func TestScan_Warnings(t *testing.T) {
	fs := newTree(t, map[string]string{
		"blocks/about/team/fancy-cards.html":  uiCard,
		"blocks/about/team/extra/bold.html":   uiCard,
		"blocks/orphan.html":                  uiCard,
		"blocks/about/Team/bold.html":         uiCard,
		"blocks/.git/hooks/bold.html":         uiCard,
		"blocks/about/team/bold-grid.html":    uiCard,
		"blocks/about/team/bold-grid.html.bak": uiCard,
	})

	leaves, warns, err := collect(t, Scan(fs, ScanOptions{Root: "blocks", Extension: ".html"}))
	if err != nil {
		t.Fatalf("Scan: %v", err)
	}
	if len(leaves) != 1 || leaves[0].Path != "about/team/bold-grid.html" {
		t.Errorf("leaves = %+v, want only about/team/bold-grid.html", leaves)
	}

	got := make([]string, 0, len(warns))
	for _, w := range warns {
		got = append(got, w.Path)
	}
	sort.Strings(got)
	want := []string{
		"about/Team/bold.html",
		"about/team/extra/bold.html",
		"about/team/fancy-cards.html",
		"orphan.html",
	}
	if len(got) != len(want) {
		t.Fatalf("warnings = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("warning[%d] = %s, want %s", i, got[i], want[i])
		}
	}
}

func TestScan_Restartable(t *testing.T) {
	seq := Scan(sampleTree(t), ScanOptions{Root: "blocks", SharedModules: []string{"ui"}})

	first, _, err := collect(t, seq)
	if err != nil {
		t.Fatalf("first pass: %v", err)
	}
	second, _, err := collect(t, seq)
	if err != nil {
		t.Fatalf("second pass: %v", err)
	}
	if len(first) == 0 || len(first) != len(second) {
		t.Fatalf("passes differ: %d vs %d leaves", len(first), len(second))
	}
	for i := range first {
		if first[i] != second[i] {
			t.Errorf("leaf %d differs: %+v vs %+v", i, first[i], second[i])
		}
	}
}

func TestScan_EarlyBreak(t *testing.T) {
	n := 0
	for range Scan(sampleTree(t), ScanOptions{Root: "blocks"}) {
		n++
		break
	}
	if n != 1 {
		t.Errorf("visited %d entries after break, want 1", n)
	}
}

func TestScan_MissingRootIsFatal(t *testing.T) {
	_, _, err := collect(t, Scan(newTree(t, nil), ScanOptions{Root: "nope"}))
	if err == nil {
		t.Fatal("expected an error for a missing root")
	}
	var sw *ScanWarning
	if errors.As(err, &sw) {
		t.Errorf("missing root reported as a warning: %v", err)
	}
}

func TestSplitThemeTemplate(t *testing.T) {
	tests := []struct {
		stem     string
		theme    Theme
		template string
		ok       bool
	}{
		{"bold", ThemeBold, "default", true},
		{"bold-cards", ThemeBold, "cards", true},
		{"neobrutalism-split-grid", ThemeNeobrutalism, "split-grid", true},
		{"minimal-", ThemeStandard, "", false},
		{"boldcards", ThemeStandard, "", false},
		{"retro", ThemeStandard, "", false},
	}
	for _, tt := range tests {
		t.Run(tt.stem, func(t *testing.T) {
			theme, template, ok := splitThemeTemplate(tt.stem)
			if ok != tt.ok || theme != tt.theme || template != tt.template {
				t.Errorf("splitThemeTemplate(%q) = (%v, %q, %v), want (%v, %q, %v)",
					tt.stem, theme, template, ok, tt.theme, tt.template, tt.ok)
			}
		})
	}
}
