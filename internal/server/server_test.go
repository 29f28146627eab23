package server

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-git/go-billy/v5/memfs"
	"github.com/go-git/go-billy/v5/util"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/blockreg-labs/blockreg/internal/registry"
)

const teamBlock = `---
description: Team grid with **bold** cards.
fields:
  heading: Meet Our Team
collections:
  teamMemberItem:
    - name: Sarah Chen
      role: CEO & Founder
    - name: Marcus Johnson
      role: CTO
---
{{define "AboutTeamBoldCards"}}<section><h2>{{.heading}}</h2>
{{range .teamMemberItem}}{{template "UiCard" .}}{{end}}</section>{{end}}
`

const cardPrimitive = `{{define "UiCard"}}<div class="card">{{.name}}</div>{{end}}`

const siteHeader = `{{define "SiteHeader"}}<header></header>{{end}}`

func newTestServer(t *testing.T) (*Server, *httptest.Server) {
	t.Helper()
	fs := memfs.New()
	for name, src := range map[string]string{
		"blocks/about/about-team/bold-cards.html": teamBlock,
		"blocks/ui/card.html":                     cardPrimitive,
		"blocks/site/header.html":                 siteHeader,
	} {
		require.NoError(t, util.WriteFile(fs, name, []byte(src), 0o644))
	}
	a, err := registry.Generate(context.Background(), fs, registry.GenerateOptions{
		Build: registry.BuildOptions{Name: "acme"},
		Scan:  registry.ScanOptions{Root: "blocks", SharedModules: []string{"ui"}},
	})
	require.NoError(t, err)

	srv := New(NewSnapshot(a, fs, SnapshotOptions{Root: "blocks"}), Options{Registry: prometheus.NewRegistry()})
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)
	return srv, ts
}

func get(t *testing.T, url string) (int, string) {
	t.Helper()
	resp, err := http.Get(url)
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp.StatusCode, string(body)
}

func decodeError(t *testing.T, body string) errorBody {
	t.Helper()
	var eb errorBody
	require.NoError(t, json.Unmarshal([]byte(body), &eb))
	return eb
}

func TestServer_Manifest(t *testing.T) {
	_, ts := newTestServer(t)

	status, body := get(t, ts.URL+"/registry.json")
	require.Equal(t, http.StatusOK, status)

	var m registry.Manifest
	require.NoError(t, json.Unmarshal([]byte(body), &m))
	assert.Equal(t, "acme", m.Name)
	require.Len(t, m.Blocks, 1)
	assert.Equal(t, "about-team-bold-cards", m.Blocks[0].Name)
}

func TestServer_Entry(t *testing.T) {
	_, ts := newTestServer(t)

	status, body := get(t, ts.URL+"/registry/about-team-bold-cards.json")
	require.Equal(t, http.StatusOK, status)

	var b registry.Block
	require.NoError(t, json.Unmarshal([]byte(body), &b))
	assert.NotEmpty(t, b.Files)
	assert.Equal(t, []string{"ui-card"}, b.RegistryDependencies)
}

func TestServer_EntryNotFound(t *testing.T) {
	_, ts := newTestServer(t)

	for _, name := range []string{"does-not-exist", "site-header", "ui-card"} {
		status, body := get(t, ts.URL+"/registry/"+name+".json")
		assert.Equal(t, http.StatusNotFound, status, name)
		assert.Equal(t, "NOT_FOUND", string(decodeError(t, body).Error.Code), name)
	}
}

func TestServer_PreviewNotFound(t *testing.T) {
	_, ts := newTestServer(t)

	status, body := get(t, ts.URL+"/preview/does-not-exist")
	require.Equal(t, http.StatusNotFound, status)
	assert.Equal(t, "NOT_FOUND", string(decodeError(t, body).Error.Code))
}

func TestServer_PreviewFallback(t *testing.T) {
	_, ts := newTestServer(t)

	status, body := get(t, ts.URL+"/preview/about-team-bold-cards")
	require.Equal(t, http.StatusOK, status)
	assert.Contains(t, body, "Meet Our Team")
	assert.Contains(t, body, "Sarah Chen")
	assert.Contains(t, body, "Marcus Johnson")
}

func TestServer_PreviewThumbnail(t *testing.T) {
	_, ts := newTestServer(t)

	status, body := get(t, ts.URL+"/preview/about-team-bold-cards?thumbnail=true")
	require.Equal(t, http.StatusOK, status)
	assert.NotContains(t, body, "Sarah Chen")
}

func TestServer_PreviewExplicit(t *testing.T) {
	_, ts := newTestServer(t)

	payload := `{"fields":{"heading":"<b>Hello</b>"},"collections":{"teamMemberItem":[{"name":"Ada"}]}}`
	resp, err := http.Post(ts.URL+"/preview/about-team-bold-cards", "application/json", strings.NewReader(payload))
	require.NoError(t, err)
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)

	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), "&lt;b&gt;Hello&lt;/b&gt;")
	assert.Contains(t, string(body), "Ada")
	assert.NotContains(t, string(body), "Sarah Chen")
}

func TestServer_PreviewBadBody(t *testing.T) {
	_, ts := newTestServer(t)

	resp, err := http.Post(ts.URL+"/preview/about-team-bold-cards", "application/json", strings.NewReader("{"))
	require.NoError(t, err)
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)

	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "INVALID_INPUT", string(decodeError(t, string(body)).Error.Code))
}

func TestServer_Resolve(t *testing.T) {
	_, ts := newTestServer(t)

	status, body := get(t, ts.URL+"/resolve/about-team-bold-cards")
	require.Equal(t, http.StatusOK, status)

	var got struct {
		Fields      map[string]any              `json:"fields"`
		Collections map[string][]map[string]any `json:"collections"`
		Sources     map[string]string           `json:"sources"`
	}
	require.NoError(t, json.Unmarshal([]byte(body), &got))
	assert.Equal(t, "Meet Our Team", got.Fields["heading"])
	assert.Len(t, got.Collections["teamMemberItem"], 2)
	assert.Equal(t, "fallback", got.Sources["teamMemberItem"])
}

func TestServer_Catalog(t *testing.T) {
	_, ts := newTestServer(t)

	status, body := get(t, ts.URL+"/")
	require.Equal(t, http.StatusOK, status)
	assert.Contains(t, body, "about-team-bold-cards")
	assert.Contains(t, body, "<strong>bold</strong>")
	assert.NotContains(t, body, "site-header")
}

func TestServer_Swap(t *testing.T) {
	srv, ts := newTestServer(t)

	fs := memfs.New()
	require.NoError(t, util.WriteFile(fs, "blocks/marketing/hero/standard.html",
		[]byte(`{{define "HeroStandard"}}<h1>hi</h1>{{end}}`), 0o644))
	a, err := registry.Generate(context.Background(), fs, registry.GenerateOptions{
		Scan: registry.ScanOptions{Root: "blocks"},
	})
	require.NoError(t, err)
	srv.Swap(NewSnapshot(a, fs, SnapshotOptions{Root: "blocks"}))

	status, _ := get(t, ts.URL+"/registry/hero-standard.json")
	assert.Equal(t, http.StatusOK, status)
	status, _ = get(t, ts.URL+"/registry/about-team-bold-cards.json")
	assert.Equal(t, http.StatusNotFound, status)
}

func TestServer_Metrics(t *testing.T) {
	_, ts := newTestServer(t)

	get(t, ts.URL+"/registry.json")
	get(t, ts.URL+"/preview/about-team-bold-cards?thumbnail=true")

	status, body := get(t, ts.URL+"/metrics")
	require.Equal(t, http.StatusOK, status)
	assert.Contains(t, body, `blockreg_http_requests_total{route="/registry.json",status="200"} 1`)
	assert.Contains(t, body, `blockreg_preview_renders_total{code="OK",mode="thumbnail"} 1`)
	assert.Contains(t, body, "blockreg_registry_blocks 1")
}

func TestServer_Healthz(t *testing.T) {
	_, ts := newTestServer(t)

	status, body := get(t, ts.URL+"/healthz")
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "ok\n", body)
}
