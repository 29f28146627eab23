package registry

import (
	"errors"
	"fmt"
	"iter"
	"os"
	"path"
	"path/filepath"
	"regexp"
	"slices"
	"strings"

	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/util"
)

// segmentPattern is the allowed shape of a module, section or file stem.
var segmentPattern = regexp.MustCompile(`^[a-z0-9][a-z0-9-]*$`)

// ScanOptions configure Scan.
type ScanOptions struct {
	// Root is the directory to walk inside the filesystem. Empty means "/".
	Root string
	// Extension selects component files, e.g. ".html".
	Extension string
	// SharedModules name the modules whose two-segment leaves are primitives.
	SharedModules []string
}

// ScanWarning reports a path that is not a recognized leaf. It is yielded as
// a non-fatal error; the path is skipped.
type ScanWarning struct {
	Path   string
	Reason string
}

func (w *ScanWarning) Error() string {
	return fmt.Sprintf("scan %s: %s", w.Path, w.Reason)
}

var errStopWalk = errors.New("stop walk")

// Scan returns a lazy sequence over the component leaves below opts.Root.
// Every range over the sequence walks the tree again. Non-fatal anomalies are
// yielded as *ScanWarning errors with a zero Leaf; any other error is fatal
// and ends the sequence.
func Scan(fsys billy.Filesystem, opts ScanOptions) iter.Seq2[Leaf, error] {
	root := opts.Root
	if root == "" {
		root = "/"
	}
	ext := opts.Extension
	if ext == "" {
		ext = ".html"
	}

	return func(yield func(Leaf, error) bool) {
		info, err := fsys.Lstat(root)
		if err != nil {
			yield(Leaf{}, fmt.Errorf("reading root %s: %w", root, err))
			return
		}
		if !info.IsDir() {
			yield(Leaf{}, fmt.Errorf("reading root %s: not a directory", root))
			return
		}

		err = util.Walk(fsys, root, func(p string, fi os.FileInfo, err error) error {
			if err != nil {
				if p == root {
					return err
				}
				if !yield(Leaf{}, &ScanWarning{Path: relPath(root, p), Reason: err.Error()}) {
					return errStopWalk
				}
				return nil
			}
			if p == root {
				return nil
			}

			name := fi.Name()
			if strings.HasPrefix(name, ".") || strings.HasPrefix(name, "_") {
				if fi.IsDir() {
					return filepath.SkipDir
				}
				return nil
			}
			if fi.IsDir() || path.Ext(name) != ext {
				return nil
			}

			leaf, warn := classify(relPath(root, p), ext, opts.SharedModules)
			var cont bool
			if warn != nil {
				cont = yield(Leaf{}, warn)
			} else {
				cont = yield(leaf, nil)
			}
			if !cont {
				return errStopWalk
			}
			return nil
		})
		if err != nil && !errors.Is(err, errStopWalk) {
			yield(Leaf{}, fmt.Errorf("walking %s: %w", root, err))
		}
	}
}

// relPath turns a walked path into a slash-separated path relative to root.
func relPath(root, p string) string {
	p = filepath.ToSlash(p)
	root = strings.TrimSuffix(filepath.ToSlash(root), "/")
	p = strings.TrimPrefix(p, root)
	return strings.TrimPrefix(p, "/")
}

// classify decides what kind of leaf rel is from its depth and shape.
func classify(rel, ext string, shared []string) (Leaf, *ScanWarning) {
	segs := strings.Split(rel, "/")
	stem := strings.TrimSuffix(segs[len(segs)-1], ext)
	segs[len(segs)-1] = stem

	for _, s := range segs {
		if !segmentPattern.MatchString(s) {
			return Leaf{}, &ScanWarning{Path: rel, Reason: fmt.Sprintf("segment %q is not a lowercase slug", s)}
		}
	}

	switch len(segs) {
	case 2:
		kind := KindLayout
		if slices.Contains(shared, segs[0]) {
			kind = KindPrimitive
		}
		return Leaf{Path: rel, Kind: kind, Module: segs[0], Stem: stem}, nil
	case 3:
		theme, template, ok := splitThemeTemplate(stem)
		if !ok {
			return Leaf{}, &ScanWarning{Path: rel, Reason: fmt.Sprintf("file name %q does not start with a known theme", stem)}
		}
		return Leaf{
			Path:     rel,
			Kind:     KindBlock,
			Module:   segs[0],
			Section:  segs[1],
			Stem:     stem,
			Theme:    theme,
			Template: template,
		}, nil
	default:
		return Leaf{}, &ScanWarning{Path: rel, Reason: fmt.Sprintf("unrecognized path shape (%d segments)", len(segs))}
	}
}

// splitThemeTemplate splits "bold-cards" into (bold, "cards") and "bold" into
// (bold, "default").
func splitThemeTemplate(stem string) (Theme, string, bool) {
	for _, t := range Themes {
		name := t.String()
		if stem == name {
			return t, DefaultTemplate, true
		}
		if rest, ok := strings.CutPrefix(stem, name+"-"); ok && rest != "" {
			return t, rest, true
		}
	}
	return ThemeStandard, "", false
}
