package llm

import (
	"context"
	"fmt"
	"strings"

	"github.com/ppiankov/nyaya/internal/model"
	"go.uber.org/zap"
)

// Summarizer produces research briefs. A failing or missing provider never
// fails the caller; problems are reported as warnings on the brief.
type Summarizer struct {
	provider Provider
	config   Config
	logger   *zap.Logger
}

// NewSummarizer creates a summarizer from config. An empty provider name
// yields a disabled summarizer.
func NewSummarizer(config Config, logger *zap.Logger) (*Summarizer, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	provider, err := NewProvider(config, logger)
	if err != nil {
		return nil, err
	}
	return &Summarizer{provider: provider, config: config, logger: logger}, nil
}

// IsEnabled reports whether a provider is configured
func (s *Summarizer) IsEnabled() bool {
	return s.provider != nil
}

// ProviderName returns the configured provider, or "" when disabled
func (s *Summarizer) ProviderName() string {
	if s.provider == nil {
		return ""
	}
	return s.provider.Name()
}

// GenerateBrief writes a brief answering query from judgments. It returns a
// nil brief and no error when the summarizer is disabled.
func (s *Summarizer) GenerateBrief(ctx context.Context, query string, judgments []model.Judgment) (*model.Brief, error) {
	if s.provider == nil {
		return nil, nil
	}

	brief := &model.Brief{
		Enabled:        true,
		Provider:       s.provider.Name(),
		Model:          s.config.Model,
		Query:          query,
		StrictEvidence: s.config.StrictEvidence,
	}

	if len(judgments) == 0 {
		brief.Warnings = append(brief.Warnings, "No judgments to summarize")
		return brief, nil
	}

	if !s.provider.IsAvailable(ctx) {
		brief.Enabled = false
		brief.Warnings = append(brief.Warnings, fmt.Sprintf("LLM provider %s is not available", s.provider.Name()))
		return brief, nil
	}

	resp, err := s.provider.Brief(ctx, BriefRequest{
		Query:     query,
		Judgments: judgments,
		Model:     s.config.Model,
		MaxTokens: s.config.MaxTokens,
	})
	if err != nil {
		s.logger.Warn("brief generation failed", zap.String("provider", s.provider.Name()), zap.Error(err))
		brief.Warnings = append(brief.Warnings, fmt.Sprintf("Brief generation failed: %v", err))
		return brief, nil
	}

	brief.Text = resp.Text
	brief.Citations = resp.CitedCNRs
	if resp.Model != "" {
		brief.Model = resp.Model
	}
	if resp.TokensUsed > 0 {
		brief.Warnings = append(brief.Warnings, fmt.Sprintf("Tokens used: %d", resp.TokensUsed))
	}
	if s.config.StrictEvidence {
		brief.Warnings = append(brief.Warnings, fmt.Sprintf("Verified %d citations against %d judgments", len(resp.CitedCNRs), len(judgments)))
	}
	return brief, nil
}

// RenderMarkdown renders a brief as a standalone Markdown document
func RenderMarkdown(brief *model.Brief) string {
	if brief == nil || !brief.Enabled {
		return ""
	}

	var b strings.Builder
	b.WriteString("# Research Brief\n\n")
	b.WriteString("> **GENERATED CONTENT.** Written by a language model from the judgment metadata listed below. ")
	b.WriteString("It is not legal advice; read the judgments and confirm every proposition independently.\n\n")

	fmt.Fprintf(&b, "- **Provider:** %s\n", brief.Provider)
	if brief.Model != "" {
		fmt.Fprintf(&b, "- **Model:** %s\n", brief.Model)
	}
	if brief.Query != "" {
		fmt.Fprintf(&b, "- **Query:** %s\n", brief.Query)
	}
	fmt.Fprintf(&b, "- **Strict Evidence Mode:** %t\n\n", brief.StrictEvidence)

	if brief.Text == "" {
		b.WriteString("_No brief generated._\n")
	} else {
		b.WriteString(brief.Text)
		b.WriteString("\n")
	}

	if len(brief.Citations) > 0 {
		b.WriteString("\n## Cited\n\n")
		for _, cnr := range brief.Citations {
			fmt.Fprintf(&b, "- %s\n", cnr)
		}
	}

	if len(brief.Warnings) > 0 {
		b.WriteString("\n## Notes\n\n")
		for _, w := range brief.Warnings {
			fmt.Fprintf(&b, "- %s\n", w)
		}
	}
	return b.String()
}
