package storage

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/scrypster/folha/internal/textnorm"
	"github.com/scrypster/folha/pkg/types"
)

// columnAliases maps folded header names to PayRecord columns.
var columnAliases = map[string]string{
	"employee_id": "employee_id", "id": "employee_id", "matricula": "employee_id", "id_funcionario": "employee_id",
	"name": "name", "nome": "name", "funcionario": "name",
	"competency": "competency", "competencia": "competency", "periodo": "competency", "mes": "competency",
	"payment_date": "payment_date", "data_pagamento": "payment_date", "data": "payment_date",
	"base_salary": "base_salary", "salario": "base_salary", "salario_base": "base_salary",
	"bonus": "bonus", "bonificacao": "bonus",
	"deductions_inss": "deductions_inss", "inss": "deductions_inss", "desconto_inss": "deductions_inss",
	"deductions_irrf": "deductions_irrf", "irrf": "deductions_irrf", "desconto_irrf": "deductions_irrf",
	"net_pay": "net_pay", "liquido": "net_pay", "salario_liquido": "net_pay",
	"department": "department", "departamento": "department", "setor": "department",
	"role": "role", "cargo": "role", "funcao": "role",
}

// LoadCSV reads a payroll CSV file.
func LoadCSV(path string) ([]types.PayRecord, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("storage: failed to open %s: %w", path, err)
	}
	defer f.Close()
	return ReadCSV(f)
}

// ReadCSV parses payroll rows. The header row is required; columns may
// appear in any order and under their Portuguese names. Unknown columns are
// skipped. Amounts accept "8418.75" and "8.418,75"; dates accept ISO and
// DD/MM/YYYY. Without a competency column the period is taken from the
// payment date. A missing employee_id column gets ids assigned by first
// appearance of each name, and a missing net_pay is derived from the other
// amounts.
func ReadCSV(r io.Reader) ([]types.PayRecord, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true

	headers, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("%w: failed to read CSV header: %w", ErrInvalidRecord, err)
	}

	cols := make(map[string]int)
	for i, h := range headers {
		key := strings.ReplaceAll(textnorm.Fold(strings.TrimSpace(strings.TrimPrefix(h, "\ufeff"))), " ", "_")
		if canonical, ok := columnAliases[key]; ok {
			if _, dup := cols[canonical]; !dup {
				cols[canonical] = i
			}
		}
	}
	if _, ok := cols["name"]; !ok {
		return nil, fmt.Errorf("%w: missing required column %q", ErrInvalidRecord, "name")
	}
	_, hasComp := cols["competency"]
	_, hasDate := cols["payment_date"]
	if !hasComp && !hasDate {
		return nil, fmt.Errorf("%w: missing competency or payment_date column", ErrInvalidRecord)
	}

	generatedIDs := make(map[string]string)
	var records []types.PayRecord
	line := 1
	for {
		row, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		line++
		if err != nil {
			return nil, fmt.Errorf("%w: line %d: %w", ErrInvalidRecord, line, err)
		}

		get := func(col string) string {
			i, ok := cols[col]
			if !ok || i >= len(row) {
				return ""
			}
			return strings.TrimSpace(row[i])
		}

		rec := types.PayRecord{
			EmployeeID: get("employee_id"),
			Name:       get("name"),
			Department: get("department"),
			Role:       get("role"),
		}
		if rec.Name == "" {
			return nil, fmt.Errorf("%w: line %d: empty name", ErrInvalidRecord, line)
		}
		if rec.EmployeeID == "" {
			id, ok := generatedIDs[rec.Name]
			if !ok {
				id = fmt.Sprintf("E%03d", len(generatedIDs)+1)
				generatedIDs[rec.Name] = id
			}
			rec.EmployeeID = id
		}

		if rec.PaymentDate, err = parseDate(get("payment_date")); err != nil {
			return nil, fmt.Errorf("%w: line %d: %w", ErrInvalidRecord, line, err)
		}
		comp := get("competency")
		if comp == "" {
			comp = rec.PaymentDate
		}
		if rec.Competency, err = parseCompetency(comp); err != nil {
			return nil, fmt.Errorf("%w: line %d: %w", ErrInvalidRecord, line, err)
		}

		amounts := []struct {
			col string
			dst *float64
		}{
			{"base_salary", &rec.BaseSalary},
			{"bonus", &rec.Bonus},
			{"deductions_inss", &rec.DeductionsINSS},
			{"deductions_irrf", &rec.DeductionsIRRF},
			{"net_pay", &rec.NetPay},
		}
		for _, a := range amounts {
			if *a.dst, err = parseAmount(get(a.col)); err != nil {
				return nil, fmt.Errorf("%w: line %d: %s: %w", ErrInvalidRecord, line, a.col, err)
			}
		}
		if _, ok := cols["net_pay"]; !ok {
			rec.NetPay = rec.BaseSalary + rec.Bonus - rec.DeductionsINSS - rec.DeductionsIRRF
		}

		records = append(records, rec)
	}
	return records, nil
}

func parseCompetency(s string) (string, error) {
	for _, layout := range []string{"2006-01", "2006-01-02", "01/2006", "02/01/2006"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t.Format("2006-01"), nil
		}
	}
	return "", fmt.Errorf("unrecognized competency %q", s)
}

func parseDate(s string) (string, error) {
	if s == "" {
		return "", nil
	}
	for _, layout := range []string{"2006-01-02", "02/01/2006"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t.Format("2006-01-02"), nil
		}
	}
	return "", fmt.Errorf("unrecognized payment date %q", s)
}

// parseAmount accepts plain decimals and Brazilian notation with an optional
// currency prefix. Empty means zero.
func parseAmount(s string) (float64, error) {
	s = strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(s), "R$"))
	if s == "" {
		return 0, nil
	}
	if strings.Contains(s, ",") {
		s = strings.ReplaceAll(s, ".", "")
		s = strings.ReplaceAll(s, ",", ".")
	}
	return strconv.ParseFloat(s, 64)
}
