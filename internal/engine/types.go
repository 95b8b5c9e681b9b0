// Package engine resolves a classified payroll question against the Evidence
// Store and produces the answer fragment together with the evidence that
// justifies it.
//
// Resolution is synchronous and performs no I/O. Every per-query failure is
// reported in the Result; Resolve never panics or returns an error.
package engine

import (
	"github.com/scrypster/folha/pkg/types"
)

// Failure classifies why a Result is not a successful data answer.
type Failure string

// Failure kinds.
const (
	// FailureNone marks a successful answer.
	FailureNone Failure = ""

	// FailureDataUnavailable means the dataset failed to load at startup.
	FailureDataUnavailable Failure = "data_unavailable"

	// FailureNoMatch means the query was understood but no rows matched.
	FailureNoMatch Failure = "no_match"

	// FailureAmbiguous means an employee or pay period needs clarification.
	FailureAmbiguous Failure = "ambiguous_entity"

	// FailureDelegated means the intent is answered outside the store
	// (small talk or web lookup).
	FailureDelegated Failure = "delegated"
)

// Query is one classified utterance.
type Query struct {
	Intent   types.Intent
	Entities types.ExtractedEntities
	Text     string
}

// Result is the outcome of Resolve. Evidence is always built from the exact
// rows used in Fragment; on failure it is empty.
type Result struct {
	Fragment string
	Evidence types.Evidence
	Success  bool
	Failure  Failure
}

func success(fragment string, rows []types.PayRecord, intent types.Intent, confidence float64) Result {
	return Result{
		Fragment: fragment,
		Evidence: types.NewEvidence(rows, intent, confidence),
		Success:  true,
	}
}

func failure(fragment string, intent types.Intent, kind Failure) Result {
	return Result{
		Fragment: fragment,
		Evidence: types.EmptyEvidence(intent),
		Failure:  kind,
	}
}
