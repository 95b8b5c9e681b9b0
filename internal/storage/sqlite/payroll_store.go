// Package sqlite persists the payroll dataset in a SQLite file using the
// CGO-free modernc.org/sqlite driver.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"log"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/scrypster/folha/internal/storage"
	"github.com/scrypster/folha/pkg/types"
)

// Schema is the payroll table. All statements are idempotent.
const Schema = `
CREATE TABLE IF NOT EXISTS payroll_records (
    employee_id TEXT NOT NULL,
    name TEXT NOT NULL,
    competency TEXT NOT NULL,
    payment_date TEXT NOT NULL DEFAULT '',
    base_salary REAL NOT NULL DEFAULT 0,
    bonus REAL NOT NULL DEFAULT 0,
    deductions_inss REAL NOT NULL DEFAULT 0,
    deductions_irrf REAL NOT NULL DEFAULT 0,
    net_pay REAL NOT NULL DEFAULT 0,
    department TEXT NOT NULL DEFAULT '',
    role TEXT NOT NULL DEFAULT '',
    imported_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
    PRIMARY KEY (employee_id, competency)
);

CREATE INDEX IF NOT EXISTS idx_payroll_competency ON payroll_records(competency);
`

// PayrollStore implements storage.RecordSource and storage.RecordSink.
type PayrollStore struct {
	db *sql.DB
}

var (
	_ storage.RecordSource = (*PayrollStore)(nil)
	_ storage.RecordSink   = (*PayrollStore)(nil)
)

// Open opens (creating if needed) a SQLite payroll database. A stale WAL
// left by a crashed process is removed and the open retried once.
func Open(dsn string) (*PayrollStore, error) {
	store, err := open(dsn)
	if err == nil {
		return store, nil
	}

	if !isRecoverableWALError(err) {
		return nil, err
	}
	dbPath := dbPathFromDSN(dsn)
	if dbPath == "" || !isWALStale(dbPath) {
		return nil, err
	}

	removeStaleWAL(dbPath)

	store, retryErr := open(dsn)
	if retryErr != nil {
		return nil, fmt.Errorf("sqlite: failed after WAL recovery: %w (original: %v)", retryErr, err)
	}
	log.Printf("sqlite: recovered from stale WAL files for %s", dbPath)
	return store, nil
}

func open(dsn string) (*PayrollStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("sqlite: failed to open database: %w", err)
	}

	// One writer at a time; WAL lets readers proceed.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout = 5000",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("sqlite: %s: %w", pragma, err)
		}
	}

	if _, err := db.Exec(Schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("sqlite: failed to create schema: %w", err)
	}
	return &PayrollStore{db: db}, nil
}

// ImportRecords upserts records in a single transaction.
func (s *PayrollStore) ImportRecords(ctx context.Context, records []types.PayRecord) (int, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("sqlite: failed to begin import: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO payroll_records (
			employee_id, name, competency, payment_date, base_salary, bonus,
			deductions_inss, deductions_irrf, net_pay, department, role
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (employee_id, competency) DO UPDATE SET
			name = excluded.name,
			payment_date = excluded.payment_date,
			base_salary = excluded.base_salary,
			bonus = excluded.bonus,
			deductions_inss = excluded.deductions_inss,
			deductions_irrf = excluded.deductions_irrf,
			net_pay = excluded.net_pay,
			department = excluded.department,
			role = excluded.role,
			imported_at = CURRENT_TIMESTAMP
	`)
	if err != nil {
		return 0, fmt.Errorf("sqlite: failed to prepare import: %w", err)
	}
	defer stmt.Close()

	n := 0
	for i, r := range records {
		if r.EmployeeID == "" || r.Competency == "" {
			return 0, fmt.Errorf("%w: record %d is missing employee_id or competency", storage.ErrInvalidRecord, i+1)
		}
		if _, err := stmt.ExecContext(ctx,
			r.EmployeeID, r.Name, r.Competency, r.PaymentDate, r.BaseSalary, r.Bonus,
			r.DeductionsINSS, r.DeductionsIRRF, r.NetPay, r.Department, r.Role,
		); err != nil {
			return 0, fmt.Errorf("sqlite: failed to import %s/%s: %w", r.EmployeeID, r.Competency, err)
		}
		n++
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("sqlite: failed to commit import: %w", err)
	}
	return n, nil
}

// LoadRecords returns every record ordered by employee id and competency.
func (s *PayrollStore) LoadRecords(ctx context.Context) ([]types.PayRecord, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT employee_id, name, competency, payment_date, base_salary, bonus,
		       deductions_inss, deductions_irrf, net_pay, department, role
		FROM payroll_records
		ORDER BY employee_id, competency
	`)
	if err != nil {
		return nil, fmt.Errorf("sqlite: failed to query payroll records: %w", err)
	}
	defer rows.Close()

	var out []types.PayRecord
	for rows.Next() {
		var r types.PayRecord
		if err := rows.Scan(
			&r.EmployeeID, &r.Name, &r.Competency, &r.PaymentDate, &r.BaseSalary, &r.Bonus,
			&r.DeductionsINSS, &r.DeductionsIRRF, &r.NetPay, &r.Department, &r.Role,
		); err != nil {
			return nil, fmt.Errorf("sqlite: failed to scan payroll record: %w", err)
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: failed to read payroll records: %w", err)
	}
	return out, nil
}

// Count returns the number of stored records.
func (s *PayrollStore) Count(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM payroll_records").Scan(&n); err != nil {
		return 0, fmt.Errorf("sqlite: failed to count payroll records: %w", err)
	}
	return n, nil
}

// Close checkpoints the WAL into the main file and closes the database.
func (s *PayrollStore) Close() error {
	if s.db == nil {
		return nil
	}
	if _, err := s.db.Exec("PRAGMA wal_checkpoint(TRUNCATE)"); err != nil {
		log.Printf("sqlite: WAL checkpoint on close failed (non-fatal): %v", err)
	}
	return s.db.Close()
}
