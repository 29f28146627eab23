package registry

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path"
	"sort"

	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/util"
	"github.com/sourcegraph/conc/pool"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/blockreg-labs/blockreg/internal/diag"
)

// GenerateOptions configure one Scan, Extract and Build run.
type GenerateOptions struct {
	Build   BuildOptions
	Scan    ScanOptions
	Extract ExtractOptions
	// Workers bounds parallel extraction. Values below 1 mean 1.
	Workers int
	Logger  *slog.Logger
}

type extraction struct {
	record *Record
	warn   *diag.Warning
}

// Generate scans fsys, extracts every leaf in parallel and merges the
// results with a fresh Builder. Per-leaf problems become warnings on the
// returned artifacts; the error is reserved for an unreadable root, a
// cancelled context and duplicate names.
func Generate(ctx context.Context, fsys billy.Filesystem, opts GenerateOptions) (*Artifacts, error) {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	workers := max(opts.Workers, 1)

	ctx, span := otel.Tracer("github.com/blockreg-labs/blockreg/internal/registry").Start(ctx, "registry.build")
	defer span.End()

	b := NewBuilder(opts.Build)

	var leaves []Leaf
	for leaf, err := range Scan(fsys, opts.Scan) {
		if err != nil {
			var sw *ScanWarning
			if errors.As(err, &sw) {
				b.Warn(diag.Warning{Code: diag.CodeScanWarning, Subject: sw.Path, Message: sw.Reason})
				continue
			}
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			return nil, err
		}
		leaves = append(leaves, leaf)
	}
	logger.Debug("scan complete", "leaves", len(leaves))

	root := opts.Scan.Root
	if root == "" {
		root = "/"
	}

	p := pool.NewWithResults[extraction]().WithContext(ctx).WithMaxGoroutines(workers)
	for _, leaf := range leaves {
		p.Go(func(ctx context.Context) (extraction, error) {
			if err := ctx.Err(); err != nil {
				return extraction{}, err
			}
			data, err := util.ReadFile(fsys, path.Join(root, leaf.Path))
			if err != nil {
				return extraction{warn: &diag.Warning{
					Code: diag.CodeExtractionError, Subject: leaf.Path, Message: err.Error(),
				}}, nil
			}
			rec, err := Extract(leaf, data, opts.Extract)
			if err != nil {
				return extraction{warn: &diag.Warning{
					Code: diag.CodeExtractionError, Subject: leaf.Path, Message: err.Error(),
				}}, nil
			}
			return extraction{record: rec}, nil
		})
	}
	results, err := p.Wait()
	if err != nil {
		return nil, fmt.Errorf("extracting leaves: %w", err)
	}

	sort.Slice(results, func(i, j int) bool { return results[i].path() < results[j].path() })
	for _, res := range results {
		if res.warn != nil {
			b.Warn(*res.warn)
			continue
		}
		b.Add(res.record)
	}

	a, err := b.Build()
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	a.Warnings = a.Warnings.Sorted()

	span.SetAttributes(
		attribute.Int("registry.leaves", len(leaves)),
		attribute.Int("registry.blocks", len(a.Manifest.Blocks)),
		attribute.Int("registry.warnings", len(a.Warnings)),
	)
	logger.Info("registry built",
		"blocks", len(a.Manifest.Blocks),
		"components", len(a.Blocks),
		"warnings", len(a.Warnings))
	return a, nil
}

func (e extraction) path() string {
	if e.record != nil {
		return e.record.Path
	}
	return e.warn.Subject
}
