package types

// ExtractedEntities holds the structured cues pulled out of an utterance.
// Every field is independently optional; an empty string means "not found"
// and drives fallback behavior rather than signalling an error.
type ExtractedEntities struct {
	// EmployeeID and EmployeeName are set together when the roster matched.
	EmployeeID   string `json:"employee_id,omitempty"`
	EmployeeName string `json:"employee_name,omitempty"`

	// Competency is the normalized YYYY-MM pay period.
	Competency string `json:"competency,omitempty"`

	// Metric is always set; net_pay when no other keyword matched.
	Metric Metric `json:"metric,omitempty"`

	// AmbiguousEmployee is set when a first name matched several roster
	// entries. EmployeeCandidates lists their display names.
	AmbiguousEmployee  bool     `json:"ambiguous_employee,omitempty"`
	EmployeeCandidates []string `json:"employee_candidates,omitempty"`

	// AmbiguousPeriod is set when a month name appeared without any year.
	AmbiguousPeriod bool `json:"ambiguous_period,omitempty"`
}

// HasEmployee reports whether an employee was resolved.
func (e ExtractedEntities) HasEmployee() bool {
	return e.EmployeeName != ""
}

// HasCompetency reports whether a pay period was resolved.
func (e ExtractedEntities) HasCompetency() bool {
	return e.Competency != ""
}
