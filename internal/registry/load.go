package registry

import (
	"encoding/json"
	"fmt"
	"path"

	"github.com/Masterminds/semver/v3"
	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/util"
)

// SupportedSchema is the manifest schemaVersion range Load accepts.
const SupportedSchema = "^1.0.0"

// Load reads the artifacts written by Write from dir.
func Load(fsys billy.Filesystem, dir string) (*Artifacts, error) {
	var m Manifest
	if err := readJSON(fsys, path.Join(dir, ManifestFile), &m); err != nil {
		return nil, err
	}
	if err := checkSchemaVersion(m.SchemaVersion); err != nil {
		return nil, err
	}

	a := &Artifacts{Manifest: &m}
	targets := []struct {
		file string
		dst  any
	}{
		{BlocksIndexFile, &a.Blocks},
		{FallbackRecordsFile, &a.FallbackRecords},
		{ContentTypesFile, &a.ContentTypes},
		{ThemesIndexFile, &a.Themes},
		{ModulesIndexFile, &a.Modules},
	}
	for _, t := range targets {
		if err := readJSON(fsys, path.Join(dir, t.file), t.dst); err != nil {
			return nil, err
		}
	}
	if a.Blocks == nil {
		a.Blocks = map[string]*Entry{}
	}
	return a, nil
}

func checkSchemaVersion(v string) error {
	if v == "" {
		return fmt.Errorf("registry manifest has no schemaVersion")
	}
	got, err := semver.NewVersion(v)
	if err != nil {
		return fmt.Errorf("invalid schemaVersion %q: %w", v, err)
	}
	c, err := semver.NewConstraint(SupportedSchema)
	if err != nil {
		return err
	}
	if !c.Check(got) {
		return fmt.Errorf("unsupported schemaVersion %s (want %s)", v, SupportedSchema)
	}
	return nil
}

func readJSON(fsys billy.Filesystem, name string, dst any) error {
	data, err := util.ReadFile(fsys, name)
	if err != nil {
		return fmt.Errorf("reading %s: %w", name, err)
	}
	if err := json.Unmarshal(data, dst); err != nil {
		return fmt.Errorf("parsing %s: %w", name, err)
	}
	return nil
}
