package llm

import (
	"context"
	"fmt"
	"strings"

	"github.com/ppiankov/nyaya/internal/model"
)

// Provider defines the interface for LLM providers
type Provider interface {
	// Name returns the provider name
	Name() string

	// Brief writes a research brief over the supplied judgments
	Brief(ctx context.Context, req BriefRequest) (*BriefResponse, error)

	// IsAvailable checks if the provider is properly configured and accessible
	IsAvailable(ctx context.Context) bool
}

// BriefRequest contains the input for a research brief
type BriefRequest struct {
	// Query is the research question, usually the active search filter
	Query string

	// Judgments are the only authorities the brief may cite
	Judgments []model.Judgment

	// Prompt overrides the generated prompt when set
	Prompt string

	Model     string
	MaxTokens int
}

// AllowedCNRs returns the CNRs of the supplied judgments
func (r BriefRequest) AllowedCNRs() []string {
	var cnrs []string
	for _, j := range r.Judgments {
		if j.CNR != "" {
			cnrs = append(cnrs, strings.ToUpper(j.CNR))
		}
	}
	return cnrs
}

// BriefResponse is the provider's output
type BriefResponse struct {
	Text       string
	CitedCNRs  []string
	Model      string
	TokensUsed int
}

// Config holds LLM provider configuration
type Config struct {
	// Provider name: "openai", "ollama", "" (disabled)
	Provider string

	// Model name (provider-specific)
	Model string

	// APIKey for OpenAI; not needed for local endpoints
	APIKey string

	// BaseURL for OpenAI-compatible endpoints
	BaseURL string

	// Timeout for API requests
	Timeout int // seconds

	// StrictEvidence rejects briefs citing a CNR outside the request
	StrictEvidence bool

	MaxTokens int
}

// DefaultConfig returns sensible defaults
func DefaultConfig() Config {
	return Config{
		Timeout:        60,
		StrictEvidence: true,
		MaxTokens:      1200,
	}
}

const maxPromptJudgments = 20

// BuildBriefPrompt constructs the prompt for a research brief restricted to
// the given judgments
func BuildBriefPrompt(query string, judgments []model.Judgment) string {
	var b strings.Builder

	b.WriteString(`You are preparing a short research brief for an Indian lawyer.

RULES:
1. Cite judgments ONLY by the CNR shown in square brackets in the list below.
2. DO NOT cite, name, or rely on any case, statute, or source not in the list.
3. If the listed judgments do not answer the question, say so explicitly.
4. Describe what each cited judgment decided; do not give legal advice.

`)
	if query != "" {
		fmt.Fprintf(&b, "Research question: %s\n\n", query)
	}

	b.WriteString("Judgments:\n")
	if len(judgments) == 0 {
		b.WriteString("(No judgments supplied)\n")
	}
	for i, j := range judgments {
		if i >= maxPromptJudgments {
			fmt.Fprintf(&b, "... and %d more judgments\n", len(judgments)-maxPromptJudgments)
			break
		}
		fmt.Fprintf(&b, "- [%s] %s", citeKey(j), j.Title())
		if j.CourtName != "" {
			fmt.Fprintf(&b, ", %s", j.CourtName)
		}
		if j.DecisionDate != "" {
			fmt.Fprintf(&b, ", decided %s", j.DecisionDate)
		}
		if j.Judge != "" {
			fmt.Fprintf(&b, ", coram %s", j.Judge)
		}
		b.WriteString("\n")
	}

	b.WriteString("\nWrite 4-6 sentences in Markdown, citing each judgment as [CNR].")
	return b.String()
}

func citeKey(j model.Judgment) string {
	if j.CNR != "" {
		return strings.ToUpper(j.CNR)
	}
	return fmt.Sprintf("ID %d", j.ID)
}
