package trend

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/anatolykoptev/go_career/internal/engine"
)

// RerankSelect is how many candidates the re-ranker keeps, and the size of
// the similarity-order fallback slice.
const RerankSelect = 5

// contentGenerator abstracts the generative model call so the fallback path
// can be proven deterministic without a network.
type contentGenerator func(ctx context.Context, prompt string) (string, error)

// Reranker re-orders the top similarity candidates with a generative model,
// degrading to pure similarity order on any failure. Rerank never returns
// an error to its caller.
type Reranker struct {
	generate contentGenerator
}

// NewReranker creates a re-ranker backed by the engine LLM.
func NewReranker() *Reranker {
	return &Reranker{generate: engine.CallLLM}
}

// NewRerankerWithGenerator creates a re-ranker with a custom generator.
func NewRerankerWithGenerator(generate contentGenerator) *Reranker {
	return &Reranker{generate: generate}
}

const rerankPrompt = `You are a job recommendation expert evaluating postings for a candidate.

CANDIDATE PROFILE:
%s

CANDIDATE POSTINGS:
%s

Exclude postings whose conditions the candidate realistically cannot meet
(experience level, applicant type). Weight skills by proficiency
(high=3, mid=2, low=1). Pick the best %d postings.

Return a JSON object with this exact structure:
{"selected_ids": [<posting id>, ...]}

Return ONLY the JSON object, no markdown, no explanation.`

// Rerank selects up to 5 of the candidates. Any model failure, parse
// failure or empty selection falls back to the top 5 by similarity in input
// order, with no model involvement on that path. Ids not present in the
// candidate set are dropped silently.
func (r *Reranker) Rerank(ctx context.Context, profileSummary string, candidates []RankedCandidate) []RankedCandidate {
	if len(candidates) == 0 {
		return nil
	}

	prompt := fmt.Sprintf(rerankPrompt,
		engine.TruncateRunes(profileSummary, 2000, ""),
		formatCandidates(candidates),
		RerankSelect,
	)

	raw, err := r.generate(ctx, prompt)
	if err != nil {
		slog.Warn("rerank: model call failed, using similarity order", slog.Any("error", err))
		return fallbackTop(candidates)
	}

	ids := parseSelectedIDs(raw)
	if len(ids) == 0 {
		slog.Warn("rerank: no usable selection, using similarity order")
		return fallbackTop(candidates)
	}

	byID := make(map[int64]RankedCandidate, len(candidates))
	for _, c := range candidates {
		byID[c.Posting.ID] = c
	}

	selected := make([]RankedCandidate, 0, RerankSelect)
	for _, id := range ids {
		c, ok := byID[id]
		if !ok {
			continue // hallucinated id
		}
		selected = append(selected, c)
		if len(selected) == RerankSelect {
			break
		}
	}
	if len(selected) == 0 {
		return fallbackTop(candidates)
	}
	return selected
}

// fallbackTop is the deterministic degradation path: top 5 by similarity,
// input order preserved.
func fallbackTop(candidates []RankedCandidate) []RankedCandidate {
	engine.IncrRerankFallbacks()
	if len(candidates) > RerankSelect {
		candidates = candidates[:RerankSelect]
	}
	out := make([]RankedCandidate, len(candidates))
	copy(out, candidates)
	return out
}

// parseSelectedIDs pulls the id list out of a model response: first
// balanced {...} block, parsed as JSON.
func parseSelectedIDs(raw string) []int64 {
	obj := engine.FirstJSONObject(raw)
	if obj == "" {
		return nil
	}
	var parsed struct {
		SelectedIDs []int64 `json:"selected_ids"`
	}
	if err := json.Unmarshal([]byte(obj), &parsed); err != nil {
		return nil
	}
	return parsed.SelectedIDs
}

// formatCandidates renders id + minimal descriptive fields for the prompt.
func formatCandidates(candidates []RankedCandidate) string {
	parts := make([]string, 0, len(candidates))
	for _, c := range candidates {
		p := c.Posting
		parts = append(parts, fmt.Sprintf(
			"Posting ID: %d\nTitle: %s\nMain tasks: %s\nQualifications: %s\nPreferences: %s\nTech stack: %s",
			p.ID, p.Title,
			engine.TruncateRunes(p.MainTasks, 300, "..."),
			engine.TruncateRunes(p.Qualifications, 300, "..."),
			engine.TruncateRunes(p.Preferences, 300, "..."),
			p.TechStack,
		))
	}
	return strings.Join(parts, "\n---\n")
}
