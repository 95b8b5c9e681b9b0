package engine

import (
	"fmt"
	"strings"

	"github.com/scrypster/folha/internal/storage"
	"github.com/scrypster/folha/pkg/types"
)

// partialWindowFactor scales confidence when a fixed window is only partly
// covered by data.
const partialWindowFactor = 0.7

// resolveAggregate sums and averages net pay over a competency window,
// optionally narrowed to one employee.
func (e *Engine) resolveAggregate(q Query) Result {
	w := e.resolveWindow(q)

	var preds []storage.Predicate
	if len(w.competencies) > 0 {
		preds = append(preds, storage.InCompetencies(w.competencies...))
	}
	scope := "todos os funcionários"
	if q.Entities.HasEmployee() {
		preds = append(preds, storage.ByEmployee(q.Entities.EmployeeID))
		scope = q.Entities.EmployeeName
	}

	rows := e.store.Filter(preds...)
	if len(rows) == 0 {
		msg := fmt.Sprintf("Nenhum registro encontrado para %s em %s.", scope, w.label)
		return failure(msg, q.Intent, FailureNoMatch)
	}

	total, _ := storage.Aggregate(rows, storage.FieldNetPay, storage.Sum)
	mean, _ := storage.Aggregate(rows, storage.FieldNetPay, storage.Mean)
	ev := types.NewEvidence(rows, q.Intent, 1)

	confidence := 1.0
	found := len(ev.Competencies)
	if w.partial(found) {
		confidence = partialWindowFactor * w.coverage(found)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Total líquido de %s em %s: %s.", scope, w.label, FormatBRL(roundCents(total)))
	fmt.Fprintf(&b, "\nMédia por registro: %s (%d registros).", FormatBRL(mean), len(rows))

	if extra := metricTotal(rows, q.Entities.Metric); extra != "" {
		b.WriteString("\n" + extra)
	}
	if w.kind == windowAll {
		maxPay, _ := storage.Aggregate(rows, storage.FieldNetPay, storage.Max)
		minPay, _ := storage.Aggregate(rows, storage.FieldNetPay, storage.Min)
		meanBase, _ := storage.Aggregate(rows, storage.FieldBaseSalary, storage.Mean)
		fmt.Fprintf(&b, "\nFuncionários: %d. Salário base médio: %s. Maior líquido: %s. Menor líquido: %s.",
			len(ev.EmployeeIDs), FormatBRL(meanBase), FormatBRL(maxPay), FormatBRL(minPay))
	}

	periods := make([]string, len(ev.Competencies))
	for i, c := range ev.Competencies {
		periods[i] = FormatCompetency(c)
	}
	fmt.Fprintf(&b, "\nCompetências consideradas: %s.", strings.Join(periods, ", "))
	if w.partial(found) {
		fmt.Fprintf(&b, " Atenção: apenas %d de %d competências do período possuem dados.", found, len(w.competencies))
	}

	return success(b.String(), rows, q.Intent, confidence)
}

// metricTotal reports the window total of a non-default metric.
func metricTotal(rows []types.PayRecord, m types.Metric) string {
	sumOf := func(f storage.Field) float64 {
		v, _ := storage.Aggregate(rows, f, storage.Sum)
		return roundCents(v)
	}
	switch m {
	case types.MetricINSS:
		return "Total de INSS: " + FormatBRL(sumOf(storage.FieldINSS)) + "."
	case types.MetricIRRF:
		return "Total de IRRF: " + FormatBRL(sumOf(storage.FieldIRRF)) + "."
	case types.MetricDeductions:
		return "Total de descontos (INSS + IRRF): " + FormatBRL(sumOf(storage.FieldINSS)+sumOf(storage.FieldIRRF)) + "."
	case types.MetricBonus:
		return "Total de bônus: " + FormatBRL(sumOf(storage.FieldBonus)) + "."
	case types.MetricMaxBonus:
		line := "Total de bônus: " + FormatBRL(sumOf(storage.FieldBonus)) + "."
		if top, ok := storage.ArgMax(rows, storage.FieldBonus); ok && top.Bonus > 0 {
			line += fmt.Sprintf("\nMaior bônus: %s (%s), competência %s: %s.",
				top.Name, top.EmployeeID, FormatCompetency(top.Competency), FormatBRL(top.Bonus))
		}
		return line
	}
	return ""
}
