// Package bootstrap builds the Evidence Store from the configured dataset
// source at process start.
package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"log"
	"path/filepath"
	"strings"

	"github.com/scrypster/folha/internal/storage"
	"github.com/scrypster/folha/internal/storage/postgres"
	"github.com/scrypster/folha/internal/storage/sqlite"
	"github.com/scrypster/folha/pkg/types"
)

// Kind identifies the backend a dataset source resolves to.
type Kind string

// Source kinds.
const (
	KindCSV      Kind = "csv"
	KindSQLite   Kind = "sqlite"
	KindPostgres Kind = "postgres"
)

// DetectKind picks the backend for source: a postgres:// DSN, a .db,
// .sqlite or .sqlite3 file, otherwise CSV.
func DetectKind(source string) Kind {
	lower := strings.ToLower(source)
	if strings.HasPrefix(lower, "postgres://") || strings.HasPrefix(lower, "postgresql://") {
		return KindPostgres
	}
	switch filepath.Ext(strings.SplitN(lower, "?", 2)[0]) {
	case ".db", ".sqlite", ".sqlite3":
		return KindSQLite
	}
	return KindCSV
}

// LoadRecords reads the raw records from source.
func LoadRecords(ctx context.Context, source string) ([]types.PayRecord, error) {
	if source == "" {
		return nil, errors.New("no dataset source configured")
	}

	var src storage.RecordSource
	switch DetectKind(source) {
	case KindPostgres:
		pg, err := postgres.Open(ctx, source)
		if err != nil {
			return nil, err
		}
		src = pg
	case KindSQLite:
		db, err := sqlite.Open(source)
		if err != nil {
			return nil, err
		}
		src = db
	default:
		return storage.LoadCSV(source)
	}
	defer src.Close()

	return src.LoadRecords(ctx)
}

// LoadStore builds the store from source. Any failure, including an empty
// dataset, is logged once here and yields an unavailable store; queries then
// report the dataset as unavailable without logging again.
func LoadStore(ctx context.Context, source string) *storage.Store {
	records, err := LoadRecords(ctx, source)
	if err == nil && len(records) == 0 {
		err = fmt.Errorf("dataset %s is empty", source)
	}
	if err != nil {
		log.Printf("ERROR: bootstrap: failed to load payroll dataset: %v", err)
		return storage.NewUnavailableStore(err)
	}

	store, err := storage.NewStore(records)
	if err != nil {
		log.Printf("ERROR: bootstrap: payroll dataset rejected: %v", err)
		return storage.NewUnavailableStore(err)
	}

	log.Printf("bootstrap: loaded %d payroll records for %d employees from %s", store.Len(), len(store.Roster()), DetectKind(source))
	return store
}

// ImportCSV loads the CSV file at csvPath and upserts its records into the
// SQLite or PostgreSQL dataset at target. Rows are validated by NewStore
// before anything is written.
func ImportCSV(ctx context.Context, csvPath, target string) (int, error) {
	records, err := storage.LoadCSV(csvPath)
	if err != nil {
		return 0, err
	}
	if _, err := storage.NewStore(records); err != nil {
		return 0, fmt.Errorf("rejecting %s: %w", csvPath, err)
	}

	var sink interface {
		storage.RecordSink
		Close() error
	}
	switch DetectKind(target) {
	case KindPostgres:
		pg, err := postgres.Open(ctx, target)
		if err != nil {
			return 0, err
		}
		sink = pg
	case KindSQLite:
		db, err := sqlite.Open(target)
		if err != nil {
			return 0, err
		}
		sink = db
	default:
		return 0, fmt.Errorf("import target %q must be a SQLite file or a postgres:// DSN", target)
	}
	defer sink.Close()

	n, err := sink.ImportRecords(ctx, records)
	if err != nil {
		return n, err
	}
	log.Printf("bootstrap: imported %d payroll records into %s", n, DetectKind(target))
	return n, nil
}
