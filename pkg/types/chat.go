package types

// Citation is one web-lookup source. Web evidence has this shape and is passed
// through untouched, never merged with payroll Evidence.
type Citation struct {
	Source  string `json:"source"`
	Title   string `json:"title"`
	URL     string `json:"url"`
	Snippet string `json:"snippet,omitempty"`
}

// WebResult is what the web-lookup collaborator returns.
type WebResult struct {
	Success  bool       `json:"success"`
	Fragment string     `json:"data"`
	Evidence []Citation `json:"evidence"`
}

// ChatResponse is the orchestrator's answer to one utterance.
// Response and ToolUsed are always populated, including on failure paths.
type ChatResponse struct {
	Response  string `json:"response"`
	Evidence  any    `json:"evidence,omitempty"`
	ToolUsed  string `json:"tool_used"`
	SessionID string `json:"session_id"`
	Intent    Intent `json:"intent,omitempty"`
}
