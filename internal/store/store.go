// Package store provides the external collection stores the content
// resolver reads from: an in-process map, SQLite, S3, and a read-through
// cache that wraps any of them.
package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/blockreg-labs/blockreg/internal/config"
	"github.com/blockreg-labs/blockreg/internal/content"
)

// Store is a record store that can also be seeded.
type Store interface {
	content.Store
	// Seed replaces every record of contentType.
	Seed(ctx context.Context, contentType string, records []content.Record) error
	Close() error
}

// Driver names accepted by Open.
const (
	DriverNone   = "none"
	DriverMemory = "memory"
	DriverSQLite = "sqlite"
	DriverS3     = "s3"
)

// ErrNoStore is returned by Open when the driver is "none".
var ErrNoStore = errors.New("no store configured")

// Open builds the store selected by cfg.Driver and wraps it in a cache when
// cfg.CacheTTL is positive.
func Open(ctx context.Context, cfg config.Store) (Store, error) {
	var (
		s   Store
		err error
	)
	switch cfg.Driver {
	case "", DriverNone:
		return nil, ErrNoStore
	case DriverMemory:
		s = NewMemory()
	case DriverSQLite:
		s, err = OpenSQLite(ctx, cfg.SQLite.Path)
	case DriverS3:
		s, err = OpenS3(ctx, cfg.S3)
	default:
		return nil, fmt.Errorf("unknown store driver %q", cfg.Driver)
	}
	if err != nil {
		return nil, fmt.Errorf("opening %s store: %w", cfg.Driver, err)
	}
	if cfg.CacheTTL > 0 {
		s = NewCached(s, cfg.CacheTTL)
	}
	return s, nil
}

func cloneRecords(in []content.Record) []content.Record {
	out := make([]content.Record, len(in))
	for i, rec := range in {
		c := make(content.Record, len(rec))
		for k, v := range rec {
			c[k] = v
		}
		out[i] = c
	}
	return out
}
