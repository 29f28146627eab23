// Package content resolves the data a block renders with. For every field
// and collection a block declares, it picks the caller's explicit value, then
// records from an external store, then the literal fallback embedded in the
// block's source. The result always carries every declared field.
package content

import (
	"context"
	"fmt"

	"github.com/blockreg-labs/blockreg/internal/diag"
	"github.com/blockreg-labs/blockreg/internal/registry"
)

// Record is one externally owned collection item.
type Record = map[string]any

// Store lists the records of a content type. Implementations live in
// internal/store.
type Store interface {
	ListRecords(ctx context.Context, contentType string) ([]Record, error)
}

// Registry is the part of the built registry the resolver reads.
type Registry interface {
	Lookup(ref string) (*registry.Entry, bool)
	ContentSchema(contentType string) (*registry.ContentSchema, bool)
}

// Source names where a resolved value came from.
type Source string

const (
	SourceExplicit Source = "explicit"
	SourceStore    Source = "store"
	SourceFallback Source = "fallback"
)

// Content is caller supplied data. A field or collection that is absent or
// null is not explicit.
type Content struct {
	Fields      map[string]any      `json:"fields,omitempty"`
	Collections map[string][]Record `json:"collections,omitempty"`
}

// Resolved is the merged content of one block.
type Resolved struct {
	Block       string              `json:"block"`
	Fields      map[string]any      `json:"fields"`
	Collections map[string][]Record `json:"collections"`
	Sources     map[string]Source   `json:"sources"`
	Warnings    diag.Warnings       `json:"warnings"`
}

// Data flattens fields and collections into the map a template executes
// against.
func (r *Resolved) Data() map[string]any {
	data := make(map[string]any, len(r.Fields)+len(r.Collections))
	for k, v := range r.Fields {
		data[k] = v
	}
	for k, v := range r.Collections {
		items := make([]any, len(v))
		for i, rec := range v {
			items[i] = rec
		}
		data[k] = items
	}
	return data
}

// NotFoundError reports an unknown block.
type NotFoundError struct {
	Block string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("block %q not found", e.Block)
}

// Code returns the diagnostic code of the error.
func (e *NotFoundError) Code() diag.Code { return diag.CodeNotFound }
