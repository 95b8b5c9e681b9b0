package types

import "sort"

// PayRecord is one employee's payroll line for one pay period.
// (EmployeeID, Competency) is unique within a dataset, and
// NetPay = BaseSalary + Bonus - DeductionsINSS - DeductionsIRRF is assumed
// true of the source data.
type PayRecord struct {
	EmployeeID     string  `json:"employee_id"`
	Name           string  `json:"name"`
	Competency     string  `json:"competency"`   // YYYY-MM
	PaymentDate    string  `json:"payment_date"` // YYYY-MM-DD
	BaseSalary     float64 `json:"base_salary"`
	Bonus          float64 `json:"bonus"`
	DeductionsINSS float64 `json:"deductions_inss"`
	DeductionsIRRF float64 `json:"deductions_irrf"`
	NetPay         float64 `json:"net_pay"`

	// Optional dimensions used by filter queries
	Department string `json:"department,omitempty"`
	Role       string `json:"role,omitempty"`
}

// Key returns the uniqueness key of the record.
func (r PayRecord) Key() string {
	return r.EmployeeID + "|" + r.Competency
}

// Employee is a roster entry derived from the payroll records.
type Employee struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Evidence records which payroll rows justified an answer.
// It is always derived from the matched rows and the intent; use NewEvidence.
type Evidence struct {
	Sources      []PayRecord `json:"sources"`
	TotalRecords int         `json:"total_records"`
	EmployeeIDs  []string    `json:"employee_ids"`
	Competencies []string    `json:"competencies"`
	QueryType    Intent      `json:"query_type"`
	Confidence   float64     `json:"confidence"`
}

// NewEvidence builds evidence from the exact row set used for an answer.
// Employee ids keep first-appearance order; competencies are sorted.
// Confidence is clamped to [0, 1].
func NewEvidence(rows []PayRecord, intent Intent, confidence float64) Evidence {
	ev := Evidence{
		Sources:      make([]PayRecord, len(rows)),
		TotalRecords: len(rows),
		EmployeeIDs:  []string{},
		Competencies: []string{},
		QueryType:    intent,
		Confidence:   clamp01(confidence),
	}
	copy(ev.Sources, rows)

	seenEmp := make(map[string]bool)
	seenComp := make(map[string]bool)
	for _, r := range rows {
		if !seenEmp[r.EmployeeID] {
			seenEmp[r.EmployeeID] = true
			ev.EmployeeIDs = append(ev.EmployeeIDs, r.EmployeeID)
		}
		if !seenComp[r.Competency] {
			seenComp[r.Competency] = true
			ev.Competencies = append(ev.Competencies, r.Competency)
		}
	}
	sort.Strings(ev.Competencies)

	if len(rows) == 0 {
		ev.Confidence = 0
	}
	return ev
}

// EmptyEvidence returns evidence with no sources for the given intent.
func EmptyEvidence(intent Intent) Evidence {
	return NewEvidence(nil, intent, 0)
}

// IsEmpty reports whether no rows back this evidence.
func (e Evidence) IsEmpty() bool {
	return e.TotalRecords == 0
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
