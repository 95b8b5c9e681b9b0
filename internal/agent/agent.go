// Package agent orchestrates one chat turn: extract entities, classify the
// intent, resolve it against the payroll store or delegate it to web search
// or small talk, render the reply, and record the turn in conversation
// memory.
package agent

import (
	"context"
	"log"

	"github.com/scrypster/folha/internal/conversation"
	"github.com/scrypster/folha/internal/engine"
	"github.com/scrypster/folha/internal/llm"
	"github.com/scrypster/folha/internal/nlu"
	"github.com/scrypster/folha/internal/storage"
	"github.com/scrypster/folha/internal/websearch"
	"github.com/scrypster/folha/pkg/types"
)

// Tool tags reported in ChatResponse.ToolUsed.
const (
	ToolRAG     = types.ToolRAG
	ToolWeb     = types.ToolWeb
	ToolGeneral = types.ToolGeneral
	ToolError   = types.ToolError
)

// Context data keys written after every turn.
const (
	KeyLastQueryType    = "last_query_type"
	KeyLastToolUsed     = "last_tool_used"
	KeyLastEmployeeID   = "last_employee_id"
	KeyLastEmployeeName = "last_employee_name"
	KeyLastCompetency   = "last_competency"
)

// Canned replies used when no collaborator can answer.
const (
	msgCancelled   = "Desculpe, a consulta foi cancelada antes de ser processada. Tente novamente."
	msgWebFailed   = "Não foi possível realizar a busca na web. Tente novamente."
	msgGeneralFall = "Olá! Sou o assistente de folha de pagamento. Posso consultar salários, descontos, " +
		"bônus e datas de pagamento, e pesquisar dúvidas sobre legislação trabalhista."
)

// Deps are the collaborators of an Agent. Nil fields get defaults: an
// unavailable store, the default lexicon, a fresh memory, the static search
// references and no text generation.
type Deps struct {
	Lexicon    *nlu.Lexicon
	Extractor  *nlu.Extractor
	Classifier *nlu.Classifier
	Engine     *engine.Engine
	Memory     *conversation.Memory
	Renderer   *llm.Renderer
	Searcher   websearch.Searcher
}

// Agent answers chat messages. Safe for concurrent use.
type Agent struct {
	lex        *nlu.Lexicon
	extractor  *nlu.Extractor
	classifier *nlu.Classifier
	engine     *engine.Engine
	memory     *conversation.Memory
	renderer   *llm.Renderer
	searcher   websearch.Searcher
}

// New creates an Agent from deps.
func New(deps Deps) *Agent {
	a := &Agent{
		lex:        deps.Lexicon,
		extractor:  deps.Extractor,
		classifier: deps.Classifier,
		engine:     deps.Engine,
		memory:     deps.Memory,
		renderer:   deps.Renderer,
		searcher:   deps.Searcher,
	}
	if a.lex == nil {
		a.lex = nlu.DefaultLexicon()
	}
	if a.engine == nil {
		a.engine = engine.New(nil, engine.WithLexicon(a.lex))
	}
	if a.extractor == nil {
		a.extractor = nlu.NewExtractor(a.lex, a.engine.Store().Roster())
	}
	if a.classifier == nil {
		a.classifier = nlu.NewClassifier(a.lex)
	}
	if a.memory == nil {
		a.memory = conversation.New(MemoryConfig(conversation.DefaultConfig(), a.engine.Store(), a.lex))
	}
	if a.renderer == nil {
		a.renderer = llm.NewRenderer(nil)
	}
	if a.searcher == nil {
		a.searcher = websearch.NewFallbackSearcher(0)
	}
	return a
}

// MemoryConfig fills the context summary vocabularies of cfg from the
// dataset and the lexicon.
func MemoryConfig(cfg conversation.Config, store *storage.Store, lex *nlu.Lexicon) conversation.Config {
	if lex == nil {
		lex = nlu.DefaultLexicon()
	}
	cfg.Topics = lex.TopicKeywords
	cfg.Months = lex.Months
	if store != nil {
		for _, emp := range store.Roster() {
			cfg.Employees = append(cfg.Employees, emp.Name)
		}
		cfg.Competencies = store.Competencies()
	}
	return cfg
}

// ProcessQuery answers message within the session. Unknown or empty session
// ids start a new session. Response and ToolUsed are always set.
func (a *Agent) ProcessQuery(ctx context.Context, message, sessionID string) types.ChatResponse {
	if err := ctx.Err(); err != nil {
		log.Printf("WARNING: agent: query cancelled before resolution: %v", err)
		return types.ChatResponse{Response: msgCancelled, ToolUsed: ToolError, SessionID: sessionID}
	}

	sid, _ := a.memory.EnsureSession(sessionID)
	summary, _ := a.memory.ContextSummary(sid)

	ents := a.extractor.Extract(message)
	a.enrich(sid, message, &ents)
	intent := a.classifier.Classify(message, ents)

	var resp types.ChatResponse
	switch {
	case intent.IsDataIntent():
		resp = a.answerData(ctx, message, intent, ents, summary)
	case intent == types.IntentWebLookup:
		resp = a.answerWeb(ctx, message, summary)
	default:
		resp = a.answerGeneral(ctx, message, summary)
	}
	resp.SessionID = sid
	resp.Intent = intent

	a.commit(sid, message, resp, ents)
	return resp
}

func (a *Agent) answerData(ctx context.Context, message string, intent types.Intent, ents types.ExtractedEntities, summary types.ContextSummary) types.ChatResponse {
	res := a.engine.Resolve(engine.Query{Intent: intent, Entities: ents, Text: message})
	resp := types.ChatResponse{Response: res.Fragment, Evidence: res.Evidence, ToolUsed: ToolRAG}
	if !res.Success {
		return resp
	}
	resp.Response = a.render(ctx, llm.DataPrompt(message, res.Fragment, res.Evidence), res.Fragment, summary)
	return resp
}

func (a *Agent) answerWeb(ctx context.Context, message string, summary types.ContextSummary) types.ChatResponse {
	web, err := a.searcher.Search(ctx, message)
	if err != nil || !web.Success {
		if err != nil {
			log.Printf("WARNING: agent: web search failed: %v", err)
		}
		return types.ChatResponse{Response: msgWebFailed, ToolUsed: ToolWeb}
	}
	text := a.render(ctx, llm.WebPrompt(message, web.Fragment, web.Evidence), web.Fragment, summary)
	return types.ChatResponse{Response: text, Evidence: web.Evidence, ToolUsed: ToolWeb}
}

func (a *Agent) answerGeneral(ctx context.Context, message string, summary types.ContextSummary) types.ChatResponse {
	text, err := a.renderer.Render(ctx, llm.GeneralPrompt(message), summary)
	if err != nil {
		text = msgGeneralFall
	}
	return types.ChatResponse{Response: text, ToolUsed: ToolGeneral}
}

// render returns the fluent reply, or fragment prefixed by the context notes
// when no generator is configured or the call fails.
func (a *Agent) render(ctx context.Context, prompt, fragment string, summary types.ContextSummary) string {
	if !a.renderer.Enabled() {
		return withContextNotes(fragment, summary)
	}
	text, err := a.renderer.Render(ctx, prompt, summary)
	if err != nil {
		log.Printf("WARNING: agent: rendering failed, returning raw answer: %v", err)
		return withContextNotes(fragment, summary)
	}
	return text
}

// commit records the exchange and the context keys in one memory update.
func (a *Agent) commit(sid, message string, resp types.ChatResponse, ents types.ExtractedEntities) {
	data := map[string]any{
		KeyLastQueryType: string(resp.Intent),
		KeyLastToolUsed:  resp.ToolUsed,
	}
	if ents.HasEmployee() {
		data[KeyLastEmployeeID] = ents.EmployeeID
		data[KeyLastEmployeeName] = ents.EmployeeName
	}
	if ents.HasCompetency() {
		data[KeyLastCompetency] = ents.Competency
	} else if ev, ok := resp.Evidence.(types.Evidence); ok && len(ev.Competencies) == 1 {
		data[KeyLastCompetency] = ev.Competencies[0]
	}

	turns := []types.Turn{
		{Role: conversation.RoleUser, Content: message},
		{Role: conversation.RoleAssistant, Content: resp.Response, ToolUsed: resp.ToolUsed, Evidence: resp.Evidence},
	}
	if !a.memory.Commit(sid, turns, data) {
		log.Printf("WARNING: agent: session %s vanished before commit", sid)
	}
}

// SessionStats reports the memory statistics.
func (a *Agent) SessionStats() types.SessionStats {
	return a.memory.Stats()
}

// ContextSummary returns the summary of one session.
func (a *Agent) ContextSummary(id string) (types.ContextSummary, bool) {
	return a.memory.ContextSummary(id)
}

// CleanupSessions evicts expired and overflowing sessions.
func (a *Agent) CleanupSessions() int {
	return a.memory.Cleanup()
}

// DeleteSession removes one session.
func (a *Agent) DeleteSession(id string) bool {
	return a.memory.Delete(id)
}

// Health describes the agent's collaborators.
type Health struct {
	DatasetAvailable bool   `json:"dataset_available"`
	DatasetError     string `json:"dataset_error,omitempty"`
	Records          int    `json:"records"`
	Employees        int    `json:"employees"`
	LLMModel         string `json:"llm_model,omitempty"`
}

// Health reports dataset and text generation status.
func (a *Agent) Health() Health {
	store := a.engine.Store()
	h := Health{
		DatasetAvailable: store.Available(),
		Records:          store.Len(),
		Employees:        len(store.Roster()),
		LLMModel:         a.renderer.Model(),
	}
	if err := store.Err(); err != nil {
		h.DatasetError = err.Error()
	}
	return h
}
