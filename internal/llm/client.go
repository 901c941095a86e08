package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
)

// Judgment is the structured verdict expected from the model for one
// (client, trend) pair. Scores are clamped to 0-100 at the parse boundary.
type Judgment struct {
	MatchScore     int      `json:"match_score"`
	Reasoning      []string `json:"reasoning"`
	GeneratedPitch string   `json:"generated_pitch"`
}

// Relevance is the verdict of the ingest-time relevance filter for one feed
// entry against the client a source is bound to.
type Relevance struct {
	Relevant bool   `json:"relevant"`
	Summary  string `json:"summary"`
}

// Judge is a single request/response completion call against a hosted model.
// Implementations must return the raw response text; parsing and degradation
// happen in one place, not per caller.
type Judge interface {
	Complete(ctx context.Context, system, user string) (string, error)
}

// New builds a Judge for the configured provider. An empty API key returns a
// nil Judge without error: the matching cycle treats a nil judge as the
// fail-closed "missing credential" condition.
func New(provider, apiKey string) (Judge, error) {
	if apiKey == "" {
		return nil, nil
	}

	switch provider {
	case "anthropic", "":
		return NewAnthropicClient(apiKey), nil
	case "openai":
		return NewOpenAIClient(apiKey), nil
	default:
		return nil, fmt.Errorf("unsupported llm provider: %s", provider)
	}
}

// ParseJudgment converts a raw model response into a Judgment. Any failure
// degrades to a zero-score judgment carrying the error description in its
// reasoning; this function never returns an error so no malformed response
// can abort a matching run.
func ParseJudgment(raw string, err error) Judgment {
	if err != nil {
		return degraded(err)
	}

	content := cleanJSONResponse(raw)

	var j Judgment
	if err := json.Unmarshal([]byte(content), &j); err != nil {
		return degraded(fmt.Errorf("failed to parse response: %w", err))
	}

	if j.MatchScore < 0 {
		j.MatchScore = 0
	}
	if j.MatchScore > 100 {
		j.MatchScore = 100
	}
	if j.Reasoning == nil {
		j.Reasoning = []string{}
	}

	return j
}

func degraded(err error) Judgment {
	return Judgment{
		MatchScore:     0,
		Reasoning:      []string{fmt.Sprintf("Error LLM: %v", err)},
		GeneratedPitch: "",
	}
}

// ClassifyRelevance asks the judge whether a feed entry matters to a client
// and for a one-line technical rewrite of its summary.
func ClassifyRelevance(ctx context.Context, j Judge, clientName, title, summary string) (Relevance, error) {
	raw, err := j.Complete(ctx, relevanceSystemPrompt, relevanceUserPrompt(clientName, title, summary))
	if err != nil {
		return Relevance{}, fmt.Errorf("relevance call: %w", err)
	}

	var r Relevance
	if err := json.Unmarshal([]byte(cleanJSONResponse(raw)), &r); err != nil {
		return Relevance{}, fmt.Errorf("failed to parse relevance response: %w", err)
	}

	return r, nil
}

// SummarizeStack asks the judge for a likely technology-stack profile of a
// company from general model knowledge. Used as the alternative context
// source when web enrichment finds nothing.
func SummarizeStack(ctx context.Context, j Judge, name string) (string, error) {
	raw, err := j.Complete(ctx, stackSystemPrompt, fmt.Sprintf("Company: %s", name))
	if err != nil {
		return "", fmt.Errorf("stack summary call: %w", err)
	}

	return strings.TrimSpace(raw), nil
}

func cleanJSONResponse(content string) string {
	content = strings.TrimSpace(content)
	content = strings.TrimPrefix(content, "```json")
	content = strings.TrimPrefix(content, "```")
	content = strings.TrimSuffix(content, "```")
	content = strings.TrimSpace(content)

	// Some model responses include extra prose around JSON.
	start := strings.Index(content, "{")
	end := strings.LastIndex(content, "}")
	if start >= 0 && end > start {
		content = content[start : end+1]
	}
	return content
}
