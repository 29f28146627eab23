package registry

import (
	"testing"

	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/memfs"
	"github.com/go-git/go-billy/v5/util"
)

const teamBoldCards = `---
description: Team grid with bold bordered cards.
fields:
  heading: Meet Our Team
  subheading: null
collections:
  teamMemberItem:
    - name: Sarah Chen
      role: CEO & Founder
      image: /img/sarah.jpg
    - name: Marcus Johnson
      role: CTO
      image: /img/marcus.jpg
    - name: Emily Rodriguez
      role: Head of Design
      image: /img/emily.jpg
dependencies: [lucide]
---
{{define "AboutTeamBoldCards"}}
<section class="{{themeClass "bold"}}">
  <h2>{{.heading}}</h2>
  {{range .teamMemberItem}}{{template "UiCard" .}}{{end}}
  {{icon "users"}}
</section>
{{end}}
{{define "memberInitials"}}{{slice .name 0 1}}{{end}}
`

const heroStandard = `---
description: Centered hero.
fields:
  title: Build faster
---
{{define "HeroStandard"}}<h1>{{.title}}</h1>{{template "UiButton" .}}{{end}}
`

const uiCard = `{{define "UiCard"}}<div class="card">{{.name}}</div>{{end}}`

const uiButton = `{{define "UiButton"}}<a class="btn">Go</a>{{end}}`

const siteHeader = `{{define "SiteHeader"}}<header>{{template "UiButton" .}}</header>{{end}}`

const headerBold = `{{define "HeaderBold"}}<nav></nav>{{end}}`

// newTree returns an in-memory block tree.
func newTree(t *testing.T, files map[string]string) billy.Filesystem {
	t.Helper()
	fs := memfs.New()
	for name, content := range files {
		if err := util.WriteFile(fs, name, []byte(content), 0o644); err != nil {
			t.Fatalf("writing %s: %v", name, err)
		}
	}
	return fs
}

// sampleTree is a small library with one block of each shape.
func sampleTree(t *testing.T) billy.Filesystem {
	return newTree(t, map[string]string{
		"blocks/about/about-team/bold-cards.html": teamBoldCards,
		"blocks/marketing/hero/standard.html":     heroStandard,
		"blocks/marketing/header/bold.html":       headerBold,
		"blocks/ui/card.html":                     uiCard,
		"blocks/ui/button.html":                   uiButton,
		"blocks/site/header.html":                 siteHeader,
		"blocks/about/README.md":                  "# notes",
		"blocks/_drafts/wip/bold.html":            heroStandard,
	})
}

func sampleOptions() GenerateOptions {
	return GenerateOptions{
		Build:   BuildOptions{Name: "blocks", Repository: Repository{Provider: "github", URL: "https://github.com/acme/blocks"}},
		Scan:    ScanOptions{Root: "blocks", Extension: ".html", SharedModules: []string{"ui"}},
		Workers: 4,
	}
}
