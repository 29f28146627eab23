//go:build integration

package integration_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// testEnv holds paths to an isolated block library.
type testEnv struct {
	ProjectDir string // working copy holding blocks/ and the output dir
	BlocksDir  string // ProjectDir/blocks
	OutDir     string // ProjectDir/public/r
}

// setupTestEnv creates an isolated project with a small block library.
func setupTestEnv(t *testing.T) *testEnv {
	t.Helper()

	project := t.TempDir()
	env := &testEnv{
		ProjectDir: project,
		BlocksDir:  filepath.Join(project, "blocks"),
		OutDir:     filepath.Join(project, "public", "r"),
	}

	// --- Blocks ---
	writeFile(t, filepath.Join(env.BlocksDir, "about/about-team/bold-cards.html"), `---
description: Team grid with **bold** cards.
fields:
  heading: Meet Our Team
  subheading: null
collections:
  teamMemberItem:
    - name: Sarah Chen
      role: CEO & Founder
    - name: Marcus Johnson
      role: CTO
    - name: Emily Rodriguez
      role: Head of Design
---
{{define "AboutTeamBoldCards"}}<section class="{{themeClass "bold"}}">
<h2>{{.heading}}</h2><p>{{.subheading}}</p>
{{range .teamMemberItem}}{{template "UiCard" .}}{{end}}
</section>{{end}}
`)
	writeFile(t, filepath.Join(env.BlocksDir, "about/about-team/minimal.html"), `---
fields:
  heading: The Team
collections:
  teamMemberItem:
    - name: Someone Else
      role: Intern
---
{{define "AboutTeamMinimal"}}<h2>{{.heading}}</h2>{{range .teamMemberItem}}<p>{{.name}}</p>{{end}}{{end}}
`)
	writeFile(t, filepath.Join(env.BlocksDir, "marketing/hero/standard.html"), `---
fields:
  title: Build faster
---
{{define "HeroStandard"}}<h1>{{.title}}</h1>{{template "UiButton" .}}{{template "Z"}}{{end}}
`)
	writeFile(t, filepath.Join(env.BlocksDir, "marketing/header/bold.html"),
		`{{define "HeaderBold"}}<nav>{{template "UiButton" .}}</nav>{{end}}`)

	// --- Primitives and layouts ---
	writeFile(t, filepath.Join(env.BlocksDir, "ui/card.html"),
		`{{define "UiCard"}}<div class="card"><strong>{{.name}}</strong> {{.role}} {{icon "users"}}</div>{{end}}`)
	writeFile(t, filepath.Join(env.BlocksDir, "ui/button.html"),
		`{{define "UiButton"}}<a class="btn">{{icon "arrow-right"}}</a>{{end}}`)
	writeFile(t, filepath.Join(env.BlocksDir, "site/footer.html"),
		`{{define "SiteFooter"}}<footer></footer>{{end}}`)

	// --- Noise ---
	writeFile(t, filepath.Join(env.BlocksDir, "about/NOTES.md"), "# notes\n")
	writeFile(t, filepath.Join(env.BlocksDir, "_drafts/wip/bold.html"), `{{define "Wip"}}{{end}}`)

	return env
}

// writeFile creates a file at the given path with the given content.
func writeFile(t *testing.T, path, content string) {
	t.Helper()
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		t.Fatalf("creating dir %s: %v", dir, err)
	}
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("writing %s: %v", path, err)
	}
}

// assertFileExists fails the test if the file does not exist.
func assertFileExists(t *testing.T, path string) {
	t.Helper()
	if _, err := os.Stat(path); err != nil {
		t.Errorf("expected file to exist: %s (error: %v)", path, err)
	}
}

// assertFileNotExists fails the test if the file exists.
func assertFileNotExists(t *testing.T, path string) {
	t.Helper()
	if _, err := os.Stat(path); err == nil {
		t.Errorf("expected file NOT to exist: %s", path)
	}
}

// assertFileContains fails if the file doesn't exist or doesn't contain substr.
func assertFileContains(t *testing.T, path, substr string) {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Errorf("reading %s: %v", path, err)
		return
	}
	if !strings.Contains(string(data), substr) {
		t.Errorf("file %s does not contain %q.\nContents:\n%s", path, substr, string(data))
	}
}
