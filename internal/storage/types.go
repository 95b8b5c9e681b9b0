package storage

import (
	"errors"

	"github.com/scrypster/folha/pkg/types"
)

var (
	// ErrDataUnavailable indicates that the payroll dataset could not be loaded.
	ErrDataUnavailable = errors.New("dataset unavailable")

	// ErrDuplicateRecord indicates two records share (employee_id, competency).
	ErrDuplicateRecord = errors.New("duplicate payroll record")

	// ErrInvalidRecord indicates a row that cannot be parsed into a PayRecord.
	ErrInvalidRecord = errors.New("invalid payroll record")
)

// Field names a numeric PayRecord column.
type Field string

// Numeric fields available to Aggregate and ArgMax.
const (
	FieldBaseSalary Field = "base_salary"
	FieldBonus      Field = "bonus"
	FieldINSS       Field = "deductions_inss"
	FieldIRRF       Field = "deductions_irrf"
	FieldNetPay     Field = "net_pay"
)

// Value returns the field of r. ok is false for an unknown field.
func (f Field) Value(r types.PayRecord) (v float64, ok bool) {
	switch f {
	case FieldBaseSalary:
		return r.BaseSalary, true
	case FieldBonus:
		return r.Bonus, true
	case FieldINSS:
		return r.DeductionsINSS, true
	case FieldIRRF:
		return r.DeductionsIRRF, true
	case FieldNetPay:
		return r.NetPay, true
	}
	return 0, false
}

// Dimension names a categorical PayRecord column used by filter queries.
type Dimension string

// Supported dimensions.
const (
	DimensionDepartment Dimension = "department"
	DimensionRole       Dimension = "role"
)

// Value returns the dimension of r, or "" for an unknown dimension.
func (d Dimension) Value(r types.PayRecord) string {
	switch d {
	case DimensionDepartment:
		return r.Department
	case DimensionRole:
		return r.Role
	}
	return ""
}

// AggregateFunc is a scalar reduction over a numeric field.
type AggregateFunc string

// Supported reductions.
const (
	Sum  AggregateFunc = "sum"
	Mean AggregateFunc = "mean"
	Max  AggregateFunc = "max"
	Min  AggregateFunc = "min"
)
