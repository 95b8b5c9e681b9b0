package engine

import (
	"fmt"
	"strings"

	"github.com/scrypster/folha/internal/storage"
	"github.com/scrypster/folha/pkg/types"
)

// resolveEmployee answers questions about one employee. A window cue
// ("trimestre", "total") hands the query to the aggregate strategy scoped to
// the employee.
func (e *Engine) resolveEmployee(q Query) Result {
	ent := q.Entities
	if !ent.HasEmployee() {
		return failure(msgEmployeeNotFound, q.Intent, FailureNoMatch)
	}

	if q.mentions(e.lex.WindowTerms) && ent.Metric != types.MetricMaxBonus {
		return e.resolveAggregate(Query{Intent: types.IntentAggregate, Entities: ent, Text: q.Text})
	}

	preds := []storage.Predicate{storage.ByEmployee(ent.EmployeeID)}
	if ent.HasCompetency() {
		preds = append(preds, storage.ByCompetency(ent.Competency))
	}
	rows := e.store.Filter(preds...)
	if len(rows) == 0 {
		if ent.HasCompetency() {
			msg := fmt.Sprintf("Não há registro de %s para a competência %s.", ent.EmployeeName, FormatCompetency(ent.Competency))
			return failure(msg, q.Intent, FailureNoMatch)
		}
		return failure(msgEmployeeNotFound, q.Intent, FailureNoMatch)
	}

	if ent.Metric == types.MetricMaxBonus {
		best, _ := storage.ArgMax(rows, storage.FieldBonus)
		msg := fmt.Sprintf("Maior bônus de %s: %s, na competência %s.",
			best.Name, FormatBRL(best.Bonus), FormatCompetency(best.Competency))
		return success(msg, []types.PayRecord{best}, q.Intent, 1)
	}

	return success(describeRows(rows, ent.Metric), rows, q.Intent, 1)
}

// describeRows renders an employee's rows for the metric.
func describeRows(rows []types.PayRecord, m types.Metric) string {
	head := rows[0]
	if len(rows) == 1 {
		return fmt.Sprintf("%s (%s), competência %s: %s.",
			head.Name, head.EmployeeID, FormatCompetency(head.Competency), describe(head, m))
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%s (%s), %d competências:", head.Name, head.EmployeeID, len(rows))
	for _, r := range rows {
		fmt.Fprintf(&b, "\n- %s: %s", FormatCompetency(r.Competency), describe(r, m))
	}
	return b.String()
}

// describe renders one row for the metric.
func describe(r types.PayRecord, m types.Metric) string {
	switch m {
	case types.MetricINSS:
		return "desconto de INSS " + FormatBRL(r.DeductionsINSS)
	case types.MetricIRRF:
		return "desconto de IRRF " + FormatBRL(r.DeductionsIRRF)
	case types.MetricDeductions:
		return fmt.Sprintf("INSS %s, IRRF %s (total de descontos %s)",
			FormatBRL(r.DeductionsINSS), FormatBRL(r.DeductionsIRRF), FormatBRL(r.DeductionsINSS+r.DeductionsIRRF))
	case types.MetricBonus, types.MetricMaxBonus:
		return "bônus " + FormatBRL(r.Bonus)
	case types.MetricPaymentDate:
		return fmt.Sprintf("pago em %s, salário líquido %s", FormatDate(r.PaymentDate), FormatBRL(r.NetPay))
	}
	return fmt.Sprintf("salário líquido %s (base %s, bônus %s, INSS %s, IRRF %s)",
		FormatBRL(r.NetPay), FormatBRL(r.BaseSalary), FormatBRL(r.Bonus),
		FormatBRL(r.DeductionsINSS), FormatBRL(r.DeductionsIRRF))
}
