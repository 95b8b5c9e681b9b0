package engine

import (
	"fmt"
	"strings"

	"github.com/scrypster/folha/internal/storage"
	"github.com/scrypster/folha/pkg/types"
)

// filterConfidence is the fixed confidence of dimension filter answers.
const filterConfidence = 0.8

// resolveCompetency lists every employee's pay for one period.
func (e *Engine) resolveCompetency(q Query) Result {
	comp := q.Entities.Competency
	if comp == "" {
		return failure("Informe a competência desejada, por exemplo: 05/2025.", q.Intent, FailureAmbiguous)
	}

	rows := e.store.Filter(storage.ByCompetency(comp))
	if len(rows) == 0 {
		msg := fmt.Sprintf("Nenhum registro encontrado para a competência %s.", FormatCompetency(comp))
		return failure(msg, q.Intent, FailureNoMatch)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Competência %s (%d funcionários):", FormatCompetency(comp), len(rows))
	for _, r := range rows {
		fmt.Fprintf(&b, "\n- %s: %s", r.Name, describe(r, listingMetric(q.Entities.Metric)))
	}
	total, _ := storage.Aggregate(rows, storage.FieldNetPay, storage.Sum)
	fmt.Fprintf(&b, "\nTotal líquido da competência: %s.", FormatBRL(roundCents(total)))

	return success(b.String(), rows, q.Intent, 1)
}

// listingMetric keeps per-row metrics; max_bonus has no meaning per row.
func listingMetric(m types.Metric) types.Metric {
	if m == types.MetricMaxBonus {
		return types.MetricBonus
	}
	return m
}

// resolveDeduction reports INSS and/or IRRF for one employee and period.
func (e *Engine) resolveDeduction(q Query) Result {
	ent := q.Entities
	if !ent.HasEmployee() || !ent.HasCompetency() {
		return failure("Para consultar descontos, informe o funcionário e a competência, por exemplo: INSS da Ana em 05/2025.",
			q.Intent, FailureAmbiguous)
	}

	rows := e.store.Filter(storage.ByEmployee(ent.EmployeeID), storage.ByCompetency(ent.Competency))
	if len(rows) == 0 {
		msg := fmt.Sprintf("Não há registro de %s para a competência %s.", ent.EmployeeName, FormatCompetency(ent.Competency))
		return failure(msg, q.Intent, FailureNoMatch)
	}

	m := ent.Metric
	if !m.IsDeduction() {
		m = types.MetricDeductions
	}
	r := rows[0]
	msg := fmt.Sprintf("%s, competência %s: %s.", r.Name, FormatCompetency(r.Competency), describe(r, m))
	return success(msg, rows, q.Intent, 1)
}

// resolveFilter lists employees whose department or role matches the value
// named after the dimension keyword.
func (e *Engine) resolveFilter(q Query) Result {
	dim, ok := e.filterDimension(q)
	if !ok {
		return failure("Informe o departamento ou o cargo para filtrar os funcionários.", q.Intent, FailureAmbiguous)
	}

	label := dimensionLabel(dim)
	values := e.store.DimensionValues(dim)
	if len(values) == 0 {
		msg := fmt.Sprintf("Os dados da folha não possuem informação de %s.", label)
		return failure(msg, q.Intent, FailureNoMatch)
	}

	value, ok := matchValue(q.Text, values)
	if !ok {
		msg := fmt.Sprintf("Nenhum funcionário encontrado com o %s informado. Valores disponíveis: %s.",
			label, strings.Join(values, ", "))
		return failure(msg, q.Intent, FailureNoMatch)
	}

	preds := []storage.Predicate{storage.ByDimension(dim, value)}
	if q.Entities.HasCompetency() {
		preds = append(preds, storage.ByCompetency(q.Entities.Competency))
	}
	rows := latestPerEmployee(e.store.Filter(preds...))
	if len(rows) == 0 {
		msg := fmt.Sprintf("Nenhum funcionário encontrado no %s %s para o período informado.", label, value)
		return failure(msg, q.Intent, FailureNoMatch)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Funcionários com %s %s (%d):", label, value, len(rows))
	for _, r := range rows {
		fmt.Fprintf(&b, "\n- %s (%s): salário líquido %s em %s", r.Name, r.Role, FormatBRL(r.NetPay), FormatCompetency(r.Competency))
	}
	return success(b.String(), rows, q.Intent, filterConfidence)
}

var roleTerms = []string{"cargo", "cargos", "funcao"}

// filterDimension picks role for role keywords and department for every
// other filter keyword.
func (e *Engine) filterDimension(q Query) (storage.Dimension, bool) {
	switch {
	case q.mentions(roleTerms):
		return storage.DimensionRole, true
	case q.mentions(e.lex.FilterTerms):
		return storage.DimensionDepartment, true
	}
	return "", false
}

func dimensionLabel(d storage.Dimension) string {
	if d == storage.DimensionRole {
		return "cargo"
	}
	return "departamento"
}

// matchValue finds the first known dimension value named in text.
func matchValue(text string, values []string) (string, bool) {
	for _, v := range values {
		if (Query{Text: text}).mentions([]string{v}) {
			return v, true
		}
	}
	return "", false
}

// latestPerEmployee keeps each employee's most recent row. rows must be in
// store order (employee id, then competency).
func latestPerEmployee(rows []types.PayRecord) []types.PayRecord {
	out := make([]types.PayRecord, 0, len(rows))
	for i, r := range rows {
		if i+1 < len(rows) && rows[i+1].EmployeeID == r.EmployeeID {
			continue
		}
		out = append(out, r)
	}
	return out
}
