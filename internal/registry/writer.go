package registry

import (
	"errors"
	"fmt"
	"os"
	"path"
	"sort"

	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/util"
)

// Write stores the artifacts under dir. Everything is staged in a sibling
// "<dir>.tmp" directory first and swapped into place with renames, so a
// failed write leaves the previous output untouched.
func Write(fsys billy.Filesystem, dir string, a *Artifacts) error {
	files, err := a.files()
	if err != nil {
		return err
	}

	tmp := dir + ".tmp"
	old := dir + ".old"
	if err := util.RemoveAll(fsys, tmp); err != nil {
		return fmt.Errorf("clearing staging directory: %w", err)
	}

	names := make([]string, 0, len(files))
	for name := range files {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		p := path.Join(tmp, name)
		if err := fsys.MkdirAll(path.Dir(p), 0o755); err != nil {
			_ = util.RemoveAll(fsys, tmp)
			return fmt.Errorf("creating %s: %w", path.Dir(p), err)
		}
		if err := util.WriteFile(fsys, p, files[name], 0o644); err != nil {
			_ = util.RemoveAll(fsys, tmp)
			return fmt.Errorf("writing %s: %w", name, err)
		}
	}

	hadPrevious := false
	if _, err := fsys.Stat(dir); err == nil {
		hadPrevious = true
		if err := util.RemoveAll(fsys, old); err != nil {
			_ = util.RemoveAll(fsys, tmp)
			return fmt.Errorf("clearing %s: %w", old, err)
		}
		if err := fsys.Rename(dir, old); err != nil {
			_ = util.RemoveAll(fsys, tmp)
			return fmt.Errorf("moving previous output aside: %w", err)
		}
	} else if !errors.Is(err, os.ErrNotExist) {
		_ = util.RemoveAll(fsys, tmp)
		return fmt.Errorf("checking %s: %w", dir, err)
	} else if parent := path.Dir(dir); parent != "." && parent != "/" {
		if err := fsys.MkdirAll(parent, 0o755); err != nil {
			_ = util.RemoveAll(fsys, tmp)
			return fmt.Errorf("creating %s: %w", parent, err)
		}
	}

	if err := fsys.Rename(tmp, dir); err != nil {
		if hadPrevious {
			_ = fsys.Rename(old, dir)
		}
		_ = util.RemoveAll(fsys, tmp)
		return fmt.Errorf("moving output into place: %w", err)
	}
	if hadPrevious {
		_ = util.RemoveAll(fsys, old)
	}
	return nil
}
