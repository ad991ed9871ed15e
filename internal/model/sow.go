package model

// SOWRequest carries the structured inputs for one generation call.
// Query overrides the retrieval query when ContextSnippets is empty.
type SOWRequest struct {
	ProjectID       string   `json:"project_id"`
	Title           string   `json:"title"`
	Requirements    []string `json:"requirements"`
	Constraints     []string `json:"constraints"`
	Tone            string   `json:"tone"`
	Query           string   `json:"query"`
	ContextSnippets []string `json:"context_snippets"`
}

// SOWDocument is a generated Statement of Work. It is created once per
// generation call and never mutated afterwards.
type SOWDocument struct {
	ID        string            `json:"id"`
	UserID    string            `json:"user_id"`
	ProjectID string            `json:"project_id"`
	Title     string            `json:"title"`
	Body      string            `json:"body"`
	Metadata  map[string]string `json:"metadata"`
	Ctime     int64             `json:"ctime"`
	Mirrored  bool              `json:"-"`
}
