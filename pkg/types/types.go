// Package types defines the core data structures shared by the payroll
// assistant: payroll records, extracted entities, intents, evidence, and the
// conversation turns and sessions kept by the memory component.
package types

// Intent is the classified purpose of a user utterance.
type Intent string

// Intent constants. Classification always yields exactly one of these.
const (
	// IntentSpecificEmployee looks up one employee's records
	IntentSpecificEmployee Intent = "specific_employee"

	// IntentAggregate sums or averages over a competency window
	IntentAggregate Intent = "aggregate"

	// IntentCompetency lists every employee for one pay period
	IntentCompetency Intent = "competency"

	// IntentDeduction reports an INSS/IRRF deduction for one employee and period
	IntentDeduction Intent = "deduction"

	// IntentFilter selects employees by department or role
	IntentFilter Intent = "filter"

	// IntentGeneral is small talk, answered by the conversational collaborator
	IntentGeneral Intent = "general"

	// IntentWebLookup is a legal/benefits question routed to web search
	IntentWebLookup Intent = "web_lookup"
)

// ValidIntents lists every intent the classifier can emit.
var ValidIntents = []Intent{
	IntentSpecificEmployee,
	IntentAggregate,
	IntentCompetency,
	IntentDeduction,
	IntentFilter,
	IntentGeneral,
	IntentWebLookup,
}

// IsDataIntent reports whether the intent is answered from the payroll store.
func (i Intent) IsDataIntent() bool {
	switch i {
	case IntentSpecificEmployee, IntentAggregate, IntentCompetency, IntentDeduction, IntentFilter:
		return true
	}
	return false
}

// IsValid reports whether i is one of ValidIntents.
func (i Intent) IsValid() bool {
	for _, v := range ValidIntents {
		if v == i {
			return true
		}
	}
	return false
}

// Metric names the payroll field a question is about.
type Metric string

// Metric constants.
const (
	MetricNetPay      Metric = "net_pay"
	MetricBonus       Metric = "bonus"
	MetricMaxBonus    Metric = "max_bonus"
	MetricINSS        Metric = "inss"
	MetricIRRF        Metric = "irrf"
	MetricDeductions  Metric = "deductions" // INSS and IRRF together
	MetricPaymentDate Metric = "payment_date"
)

// IsDeduction reports whether the metric is one of the deduction fields.
func (m Metric) IsDeduction() bool {
	return m == MetricINSS || m == MetricIRRF || m == MetricDeductions
}

// Tool tags reported in chat responses.
const (
	ToolRAG     = "rag"
	ToolWeb     = "web"
	ToolGeneral = "general"
	ToolError   = "error"
)

// Turn roles.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)
