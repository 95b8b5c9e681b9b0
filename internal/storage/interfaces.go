// Package storage holds the in-memory Evidence Store over payroll records and
// the small interfaces implemented by the persistent dataset backends.
//
// The Store is read-only after construction. Backends (CSV, SQLite,
// PostgreSQL) only produce the record slice that NewStore is built from.
package storage

import (
	"context"

	"github.com/scrypster/folha/pkg/types"
)

// RecordSource loads the full payroll dataset from a backend.
type RecordSource interface {
	// LoadRecords returns every stored record. An empty dataset is not an
	// error; NewStore decides what to do with it.
	LoadRecords(ctx context.Context) ([]types.PayRecord, error)

	// Close releases backend resources.
	Close() error
}

// RecordSink persists payroll records into a backend.
type RecordSink interface {
	// ImportRecords upserts records keyed on (employee_id, competency) and
	// returns the number of rows written.
	ImportRecords(ctx context.Context, records []types.PayRecord) (int, error)
}
