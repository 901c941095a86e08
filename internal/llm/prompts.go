package llm

import (
	"context"
	"fmt"
	"unicode/utf8"

	"innovaradar/internal/domain/client"
	"innovaradar/internal/domain/trend"
)

// JudgeMatch judges one (client, trend) pair. The raw completion and its
// parsing share a single degradation boundary: the returned judgment is
// either the model's verdict or the zero-score error judgment, never an
// error.
func JudgeMatch(ctx context.Context, j Judge, c client.Client, t trend.Trend) Judgment {
	return ParseJudgment(j.Complete(ctx, matchSystemPrompt, MatchPrompt(c, t)))
}

// Only a bounded prefix of the raw tech context goes into the prompt; the
// blobs produced by enrichment can run to tens of thousands of characters.
const contextPrefixLimit = 4000

const matchSystemPrompt = `You are a senior technology strategy and innovation consultant.

Your task: decide whether the given technology trend represents a real
business opportunity for the given client. Be critical. Do not invent
capabilities. If the technology has nothing to do with the client, give a
low score.

Respond ONLY with strict JSON in this exact structure:
{
  "match_score": <integer 0-100>,
  "reasoning": ["reason 1", "reason 2"],
  "generated_pitch": "A short email text for the account manager suggesting a meeting with the client."
}`

// MatchPrompt builds the user prompt for judging one (client, trend) pair.
func MatchPrompt(c client.Client, t trend.Trend) string {
	industry := c.Industry
	if industry == "" {
		industry = "Unknown"
	}

	context := c.TechContextRaw
	if len(context) > contextPrefixLimit {
		cut := contextPrefixLimit
		for cut > 0 && !utf8.RuneStart(context[cut]) {
			cut--
		}
		context = context[:cut]
	}

	return fmt.Sprintf(`--- CLIENT ---
Name: %s
Industry (inferred): %s

PUBLIC CONTEXT (raw text extracted from their web/news/jobs):
%q
(Use this context to understand which technologies they use, their pain points and strategy.)

--- TREND / NEWS ---
Title: %s
Source: %s
Summary: %s`,
		c.Name, industry, context, t.Title, t.Source, t.Summary)
}

const relevanceSystemPrompt = `You are a technology analyst filtering a news feed for a specific client.

Decide whether the article is technically relevant to the client and rewrite
its summary as a single technical sentence.

Respond ONLY with strict JSON:
{
  "relevant": true or false,
  "summary": "one-line technical summary"
}`

func relevanceUserPrompt(clientName, title, summary string) string {
	return fmt.Sprintf("Client: %s\nTitle: %s\nSummary: %s", clientName, title, summary)
}

const stackSystemPrompt = `You are a technology analyst. Describe the technology stack the given
company most likely uses, based on general knowledge of the company and its
industry. Cover infrastructure, data, and customer-facing systems. Answer in
plain text, a few short paragraphs, no markdown.`
