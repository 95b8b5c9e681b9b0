// Package testutil provides the payroll fixtures shared by package tests.
package testutil

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/scrypster/folha/internal/storage"
	"github.com/scrypster/folha/pkg/types"
)

// SampleRecords returns the two-employee, six-month fixture dataset.
// All amounts are exact in binary floating point.
func SampleRecords() []types.PayRecord {
	ana := func(comp string, bonus, irrf, net float64) types.PayRecord {
		return types.PayRecord{
			EmployeeID: "E001", Name: "Ana Souza", Competency: comp, PaymentDate: comp + "-28",
			BaseSalary: 9000, Bonus: bonus, DeductionsINSS: 990, DeductionsIRRF: irrf, NetPay: net,
			Department: "Engenharia", Role: "Desenvolvedora",
		}
	}
	bruno := func(comp string, bonus, irrf, net float64) types.PayRecord {
		return types.PayRecord{
			EmployeeID: "E002", Name: "Bruno Lima", Competency: comp, PaymentDate: comp + "-28",
			BaseSalary: 6000, Bonus: bonus, DeductionsINSS: 660, DeductionsIRRF: irrf, NetPay: net,
			Department: "Financeiro", Role: "Analista",
		}
	}

	return []types.PayRecord{
		ana("2025-01", 0, 285, 7725),
		ana("2025-02", 0, 562.5, 7447.5),
		ana("2025-03", 500, 461.25, 8048.75),
		ana("2025-04", 0, 310, 7700),
		ana("2025-05", 1000, 591.25, 8418.75),
		ana("2025-06", 0, 285, 7725),
		bruno("2025-01", 0, 240, 5100),
		bruno("2025-02", 300, 270, 5370),
		bruno("2025-03", 0, 240, 5100),
		bruno("2025-04", 600, 183.75, 5756.25),
		bruno("2025-05", 1200, 372.5, 6167.5),
		bruno("2025-06", 0, 240, 5100),
	}
}

// SampleStore returns a Store over SampleRecords.
func SampleStore(t testing.TB) *storage.Store {
	t.Helper()
	store, err := storage.NewStore(SampleRecords())
	require.NoError(t, err)
	return store
}

// SampleRoster returns the fixture employees.
func SampleRoster() []types.Employee {
	return []types.Employee{
		{ID: "E001", Name: "Ana Souza"},
		{ID: "E002", Name: "Bruno Lima"},
	}
}
