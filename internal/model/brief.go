package model

// Brief is an optional LLM-written research brief over a set of judgments.
// It is rendered separately from listings and never alters them.
type Brief struct {
	Enabled        bool     `json:"enabled"`
	Provider       string   `json:"provider,omitempty"` // openai, ollama
	Model          string   `json:"model,omitempty"`
	Query          string   `json:"query,omitempty"`
	StrictEvidence bool     `json:"strict_evidence"`     // Whether citations were restricted to the supplied judgments
	Text           string   `json:"text,omitempty"`      // Markdown
	Citations      []string `json:"citations,omitempty"` // CNRs cited by the brief
	Warnings       []string `json:"warnings,omitempty"`
}
