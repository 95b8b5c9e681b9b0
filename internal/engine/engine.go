package engine

import (
	"fmt"
	"strings"

	"github.com/scrypster/folha/internal/nlu"
	"github.com/scrypster/folha/internal/storage"
	"github.com/scrypster/folha/internal/textnorm"
	"github.com/scrypster/folha/pkg/types"
)

// Fragments shared by several strategies.
const (
	msgDataUnavailable   = "Dataset não disponível. Não foi possível carregar os dados da folha de pagamento."
	msgEmployeeNotFound  = "Funcionário não encontrado. Verifique o nome informado e tente novamente."
	msgPeriodWithoutYear = "Não consegui identificar o ano da competência. Informe mês e ano, por exemplo: maio/2025."
)

// strategy resolves one intent.
type strategy func(e *Engine, q Query) Result

// Engine executes per-intent retrieval strategies against a Store.
// It holds no mutable state and is safe for concurrent use.
type Engine struct {
	store      *storage.Store
	lex        *nlu.Lexicon
	strategies map[types.Intent]strategy
}

// Option configures an Engine.
type Option func(*Engine)

// WithLexicon sets the keyword tables used for window and dimension cues.
func WithLexicon(lex *nlu.Lexicon) Option {
	return func(e *Engine) {
		if lex != nil {
			e.lex = lex
		}
	}
}

// New creates an engine over store.
func New(store *storage.Store, opts ...Option) *Engine {
	if store == nil {
		store = storage.NewUnavailableStore(nil)
	}
	e := &Engine{
		store: store,
		lex:   nlu.DefaultLexicon(),
	}
	for _, opt := range opts {
		opt(e)
	}
	e.strategies = map[types.Intent]strategy{
		types.IntentSpecificEmployee: (*Engine).resolveEmployee,
		types.IntentAggregate:        (*Engine).resolveAggregate,
		types.IntentCompetency:       (*Engine).resolveCompetency,
		types.IntentDeduction:        (*Engine).resolveDeduction,
		types.IntentFilter:           (*Engine).resolveFilter,
	}
	return e
}

// Store returns the underlying Evidence Store.
func (e *Engine) Store() *storage.Store {
	return e.store
}

// Resolve answers q. Non-data intents are delegated without a lookup.
func (e *Engine) Resolve(q Query) Result {
	if !q.Intent.IsDataIntent() {
		if q.Intent.IsValid() {
			return failure("", q.Intent, FailureDelegated)
		}
		q.Intent = types.IntentSpecificEmployee
	}

	if !e.store.Available() {
		return failure(msgDataUnavailable, q.Intent, FailureDataUnavailable)
	}

	if r, ambiguous := e.clarify(q); ambiguous {
		return r
	}

	return e.strategies[q.Intent](e, q)
}

// clarify handles the ambiguity flags set by the extractor.
func (e *Engine) clarify(q Query) (Result, bool) {
	if q.Entities.AmbiguousEmployee && !q.Entities.HasEmployee() {
		msg := fmt.Sprintf("Encontrei mais de um funcionário com esse nome: %s. Informe o nome completo.",
			strings.Join(q.Entities.EmployeeCandidates, ", "))
		return failure(msg, q.Intent, FailureAmbiguous), true
	}
	if q.Entities.AmbiguousPeriod && !q.Entities.HasCompetency() {
		return failure(msgPeriodWithoutYear, q.Intent, FailureAmbiguous), true
	}
	return Result{}, false
}

// mentions reports whether any of terms occurs in the query text.
func (q Query) mentions(terms []string) bool {
	return containsAny(textnorm.Padded(q.Text), terms)
}
