package content

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/santhosh-tekuri/jsonschema/v6"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/blockreg-labs/blockreg/internal/diag"
	"github.com/blockreg-labs/blockreg/internal/frontmatter"
	"github.com/blockreg-labs/blockreg/internal/registry"
)

// DefaultTimeout bounds each store lookup when Options.Timeout is zero.
const DefaultTimeout = 2 * time.Second

// Options configure a Resolver.
type Options struct {
	// Store supplies external records. Nil means fallback data only.
	Store Store
	// Timeout bounds each store lookup. There is no retry.
	Timeout time.Duration
	Logger  *slog.Logger
}

// Resolver merges explicit content, store records and fallback literals. It
// is safe for concurrent use.
type Resolver struct {
	reg     Registry
	store   Store
	timeout time.Duration
	logger  *slog.Logger

	mu      sync.Mutex
	schemas map[string]*jsonschema.Schema
}

// NewResolver returns a resolver reading block bindings from reg.
func NewResolver(reg Registry, opts Options) *Resolver {
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Resolver{
		reg:     reg,
		store:   opts.Store,
		timeout: timeout,
		logger:  logger,
		schemas: make(map[string]*jsonschema.Schema),
	}
}

// Resolve returns the content of block name. explicit may be nil. The only
// error is *NotFoundError; store problems become warnings and fallback data
// is used instead.
func (r *Resolver) Resolve(ctx context.Context, name string, explicit *Content) (*Resolved, error) {
	ctx, span := otel.Tracer("github.com/blockreg-labs/blockreg/internal/content").Start(ctx, "content.resolve")
	defer span.End()
	span.SetAttributes(attribute.String("block", name))

	entry, ok := r.reg.Lookup(name)
	if !ok {
		return nil, &NotFoundError{Block: name}
	}
	if explicit == nil {
		explicit = &Content{}
	}

	out := &Resolved{
		Block:       entry.Name,
		Fields:      make(map[string]any, len(entry.Binding.Fields)),
		Collections: make(map[string][]Record, len(entry.Binding.Collections)),
		Sources:     make(map[string]Source),
		Warnings:    diag.Warnings{},
	}

	for _, field := range entry.Binding.Fields {
		if v, ok := explicit.Fields[field]; ok && v != nil {
			out.Fields[field] = v
			out.Sources[field] = SourceExplicit
			continue
		}
		v := cloneValue(entry.Fallback.Fields[field])
		if v == nil {
			v = ""
		}
		out.Fields[field] = v
		out.Sources[field] = SourceFallback
	}

	for _, coll := range entry.Binding.Collections {
		if recs, ok := explicit.Collections[coll]; ok && recs != nil {
			out.Collections[coll] = cloneRecords(recs)
			out.Sources[coll] = SourceExplicit
			continue
		}
		if recs := r.fromStore(ctx, coll, &out.Warnings); len(recs) > 0 {
			out.Collections[coll] = recs
			out.Sources[coll] = SourceStore
			continue
		}
		out.Collections[coll] = cloneRecords(entry.Fallback.Collections[coll])
		out.Sources[coll] = SourceFallback
	}

	span.SetAttributes(attribute.Int("warnings", len(out.Warnings)))
	return out, nil
}

// fromStore fetches and validates the records of one content type. It never
// fails; problems are appended to warns and yield no records.
func (r *Resolver) fromStore(ctx context.Context, contentType string, warns *diag.Warnings) []Record {
	if r.store == nil {
		return nil
	}

	lookupCtx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	recs, err := r.lookup(lookupCtx, contentType)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(lookupCtx.Err(), context.DeadlineExceeded) {
			warns.Add(diag.CodeResolutionTimeout, contentType, "store lookup exceeded %s; using fallback", r.timeout)
		} else {
			warns.Add(diag.CodeStoreUnavailable, contentType, "store lookup failed: %v; using fallback", err)
		}
		r.logger.Warn("store lookup failed", "contentType", contentType, "err", err)
		return nil
	}

	schema, err := r.schema(contentType)
	if err != nil {
		r.logger.Warn("content-type schema unusable; records not validated", "contentType", contentType, "err", err)
	}

	valid := make([]Record, 0, len(recs))
	for i, rec := range recs {
		if schema != nil {
			if err := validateRecord(schema, rec); err != nil {
				warns.Add(diag.CodeInvalidRecord, contentType, "record %d dropped: %v", i, err)
				continue
			}
		}
		valid = append(valid, cloneRecord(rec))
	}
	return valid
}

type lookupResult struct {
	recs []Record
	err  error
}

// lookup calls the store on its own goroutine so the deadline holds even for
// stores that ignore ctx. A result arriving after the deadline is discarded.
func (r *Resolver) lookup(ctx context.Context, contentType string) ([]Record, error) {
	done := make(chan lookupResult, 1)
	go func() {
		recs, err := r.store.ListRecords(ctx, contentType)
		done <- lookupResult{recs: recs, err: err}
	}()

	select {
	case res := <-done:
		return res.recs, res.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// schema compiles and caches the inferred schema of a content type. A
// content type with no schema yields nil.
func (r *Resolver) schema(contentType string) (*jsonschema.Schema, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if s, ok := r.schemas[contentType]; ok {
		return s, nil
	}
	cs, ok := r.reg.ContentSchema(contentType)
	if !ok {
		r.schemas[contentType] = nil
		return nil, nil
	}

	data, err := json.Marshal(cs)
	if err != nil {
		return nil, err
	}
	doc, err := jsonschema.UnmarshalJSON(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	url := contentType + ".schema.json"
	c := jsonschema.NewCompiler()
	if err := c.AddResource(url, doc); err != nil {
		return nil, err
	}
	s, err := c.Compile(url)
	if err != nil {
		return nil, fmt.Errorf("compiling schema for %s: %w", contentType, err)
	}
	r.schemas[contentType] = s
	return s, nil
}

func validateRecord(s *jsonschema.Schema, rec Record) error {
	data, err := json.Marshal(rec)
	if err != nil {
		return err
	}
	inst, err := jsonschema.UnmarshalJSON(bytes.NewReader(data))
	if err != nil {
		return err
	}
	if err := s.Validate(inst); err != nil {
		var ve *jsonschema.ValidationError
		if errors.As(err, &ve) {
			return errors.New(frontmatter.LeafIssues(ve)[0].String())
		}
		return err
	}
	return nil
}

func cloneRecords(in []Record) []Record {
	out := make([]Record, 0, len(in))
	for _, rec := range in {
		out = append(out, cloneRecord(rec))
	}
	return out
}

func cloneRecord(in Record) Record {
	out := make(Record, len(in))
	for k, v := range in {
		out[k] = cloneValue(v)
	}
	return out
}

func cloneValue(v any) any {
	switch v := v.(type) {
	case map[string]any:
		return cloneRecord(v)
	case []any:
		out := make([]any, len(v))
		for i, e := range v {
			out[i] = cloneValue(e)
		}
		return out
	default:
		return v
	}
}

var _ Registry = (*registry.Artifacts)(nil)
