package trend

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/anatolykoptev/go_career/internal/engine"
)

// TopSkillsPerKey bounds the stored row count per (role, category, date).
const TopSkillsPerKey = 50

// maxSkillRunes caps a single skill token; longer tokens are truncated
// with an ellipsis marker.
const maxSkillRunes = 500

// Aggregator compresses the posting corpus into bounded, date-stamped
// skill-frequency statistics per job role.
type Aggregator struct {
	db     *TrendDB
	corpus *Corpus
}

// NewAggregator creates an aggregator over the given stores.
func NewAggregator(db *TrendDB, corpus *Corpus) *Aggregator {
	return &Aggregator{db: db, corpus: corpus}
}

// AggregateResult summarizes one (role, category, date) run.
type AggregateResult struct {
	Created int `json:"created"`
	Deleted int `json:"deleted"`
}

// AggregateAllResult accumulates totals across every role × category pair.
type AggregateAllResult struct {
	RolesProcessed int `json:"roles_processed"`
	Created        int `json:"created"`
	Deleted        int `json:"deleted"`
	Failed         int `json:"failed"`
}

// Aggregate recomputes the top-50 skill counts for one role and category as
// of asOf, atomically replacing the prior rows for that day. Safe to call
// repeatedly for the same day: a second call produces the same final row
// set. Zero postings writes zero rows and is not an error.
func (a *Aggregator) Aggregate(ctx context.Context, role JobRole, category FieldCategory, asOf time.Time) (AggregateResult, error) {
	if _, err := ParseFieldCategory(string(category)); err != nil {
		return AggregateResult{}, fmt.Errorf("aggregate %q: %w", role.Name, err)
	}
	engine.IncrAggregateRuns()

	postings, err := a.corpus.PostingsByRole(ctx, role.ID, asOf)
	if err != nil {
		engine.IncrAggregateErrors()
		return AggregateResult{}, fmt.Errorf("aggregate %q/%s: %w", role.Name, category, err)
	}

	date := CivilDate(asOf)
	stats := BuildStats(role.ID, category, date, postings)

	created, deleted, err := a.db.ReplaceSkillStats(ctx, role.ID, category, date, stats)
	if err != nil {
		engine.IncrAggregateErrors()
		return AggregateResult{}, fmt.Errorf("aggregate %q/%s: %w", role.Name, category, err)
	}

	slog.Info("skill stats aggregated",
		slog.String("role", role.Name),
		slog.String("category", string(category)),
		slog.Int("created", created),
		slog.Int("deleted", deleted),
	)
	return AggregateResult{Created: created, Deleted: deleted}, nil
}

// AggregateAll runs Aggregate for every known role × every category in a
// fixed enumeration order. A single pair's failure is logged and does not
// abort the remaining pairs.
func (a *Aggregator) AggregateAll(ctx context.Context, asOf time.Time) (AggregateAllResult, error) {
	roles, err := a.db.ListJobRoles(ctx)
	if err != nil {
		return AggregateAllResult{}, fmt.Errorf("aggregate all: %w", err)
	}

	var result AggregateAllResult
	for _, role := range roles {
		for _, category := range AllCategories {
			res, err := a.Aggregate(ctx, role, category, asOf)
			if err != nil {
				result.Failed++
				slog.Error("aggregation failed",
					slog.String("role", role.Name),
					slog.String("category", string(category)),
					slog.Any("error", err),
				)
				continue
			}
			result.Created += res.Created
			result.Deleted += res.Deleted
		}
		result.RolesProcessed++
	}

	slog.Info("aggregation pass complete",
		slog.Int("roles", result.RolesProcessed),
		slog.Int("created", result.Created),
		slog.Int("deleted", result.Deleted),
		slog.Int("failed", result.Failed),
	)
	return result, nil
}

// BuildStats reduces postings to the final top-50 row set for one
// (role, category, date) key: tokenize, count, cap, order. Pure: the same
// input always yields the same rows, which is what makes Aggregate
// idempotent.
func BuildStats(roleID int64, category FieldCategory, date time.Time, postings []JobPosting) []SkillStat {
	_, week := date.ISOWeek()

	counts := make(map[string]int)
	for _, p := range postings {
		for _, skill := range ExtractSkillTokens(category, categoryValue(p, category)) {
			counts[skill]++
		}
	}

	stats := make([]SkillStat, 0, len(counts))
	for skill, count := range counts {
		stats = append(stats, SkillStat{
			JobRoleID: roleID,
			FieldType: category,
			Date:      date,
			Week:      week,
			Skill:     skill,
			Count:     count,
		})
	}
	// Count desc, ties by skill asc. The stored sort contract.
	sort.Slice(stats, func(i, j int) bool {
		if stats[i].Count != stats[j].Count {
			return stats[i].Count > stats[j].Count
		}
		return stats[i].Skill < stats[j].Skill
	})
	if len(stats) > TopSkillsPerKey {
		stats = stats[:TopSkillsPerKey]
	}
	return stats
}

// categoryValue reads the posting field a category names. Resolved by
// explicit mapping, never reflection.
func categoryValue(p JobPosting, category FieldCategory) string {
	switch category {
	case CategoryTechStack:
		return p.TechStack
	case CategoryRequiredSkills:
		return p.RequiredSkills
	case CategoryPreferredSkills:
		return p.PreferredSkills
	case CategoryMainTasksSkills:
		return p.MainTasksSkills
	}
	return ""
}

// ExtractSkillTokens normalizes one raw field value into skill tokens.
// tech_stack is split on , ; /. The structured-list categories parse a JSON
// array first and fall back to the same delimiter split on malformed
// values. Every token is capped at 500 runes with an ellipsis marker.
func ExtractSkillTokens(category FieldCategory, value string) []string {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil
	}

	var tokens []string
	if category == CategoryTechStack {
		tokens = splitDelimited(value)
	} else {
		var list []any
		if err := json.Unmarshal([]byte(value), &list); err == nil {
			for _, item := range list {
				if item == nil {
					continue
				}
				s := strings.TrimSpace(fmt.Sprint(item))
				if s != "" {
					tokens = append(tokens, s)
				}
			}
		} else {
			tokens = splitDelimited(value)
		}
	}

	for i, t := range tokens {
		tokens[i] = capSkillToken(t)
	}
	return tokens
}

// capSkillToken enforces the 500-rune cap, ellipsis included.
func capSkillToken(s string) string {
	r := []rune(s)
	if len(r) <= maxSkillRunes {
		return s
	}
	return string(r[:maxSkillRunes-3]) + "..."
}

// splitDelimited splits on , ; and /, trimming and dropping empties.
func splitDelimited(s string) []string {
	s = strings.ReplaceAll(s, ";", ",")
	s = strings.ReplaceAll(s, "/", ",")
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
