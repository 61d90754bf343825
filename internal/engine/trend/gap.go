package trend

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"
	"strings"
	"time"

	"github.com/anatolykoptev/go_career/internal/engine"
)

// Gap item caps per caller.
const (
	GapItemsVisualization = 5
	GapItemsPlanning      = 10
)

// trendSkillsForPrompt is how many trend skills the gap prompt embeds.
const trendSkillsForPrompt = 20

// GapAnalyzer compares a user's skill set against the top trend skills for
// a role and drives a generative explanation of the gaps.
type GapAnalyzer struct {
	db       *TrendDB
	generate contentGenerator
}

// NewGapAnalyzer creates a gap analyzer backed by the engine LLM.
func NewGapAnalyzer(db *TrendDB) *GapAnalyzer {
	return &GapAnalyzer{db: db, generate: engine.CallLLM}
}

// NewGapAnalyzerWithGenerator creates a gap analyzer with a custom generator.
func NewGapAnalyzerWithGenerator(db *TrendDB, generate contentGenerator) *GapAnalyzer {
	return &GapAnalyzer{db: db, generate: generate}
}

// GapResult holds the free-text explanation plus the ordered capability
// names extracted from it.
type GapResult struct {
	Explanation string   `json:"explanation"`
	Items       []string `json:"items"`
}

const gapPrompt = `You are a career gap analyst for recruiters.

[CANDIDATE]
%s

[REFERENCE CAPABILITIES]
The following are the capabilities currently in demand for the %s role,
highest demand first. The list includes non-technical capabilities
(collaboration, project operation, documentation) as well as tech stack:
%s

[REQUEST]
Walk the reference list from the top. Earlier entries have higher
priority, do not reorder them. For each entry judge the gap from the
candidate's resume: not held is the largest gap, then held at low
proficiency, then mid; high proficiency is no gap.

Output the top %d gap items in exactly this format:

1. **[capability name]**
- Held: yes / no
- Proficiency: none / low / mid / high
- Required: required / optional
- Reason: (2-3 lines)

2. **[capability name]**
...

Treat collaboration/project/operations experience as held when the
experience description implies team-based work. Include non-technical
capabilities, not only tech stack.`

// Analyze runs a gap analysis for one user against a role's current trend
// skills. Unknown role names surface ErrRoleNotFound; a generative failure
// degrades to an error explanation with an empty item list, never an error
// return.
func (g *GapAnalyzer) Analyze(ctx context.Context, user UserProfile, roleName string, requestedCount int) (GapResult, error) {
	role, err := g.db.GetJobRoleByName(ctx, roleName)
	if err != nil {
		return GapResult{}, err
	}

	today := CivilDate(time.Now())
	trend, err := g.db.TopTrendSkills(ctx, role.ID, today, trendSkillsForPrompt)
	if err != nil {
		return GapResult{}, fmt.Errorf("gap analyze %q: %w", roleName, err)
	}

	names := make([]string, len(trend))
	for i, t := range trend {
		names[i] = t.Skill
	}

	prompt := fmt.Sprintf(gapPrompt,
		SummarizeProfile(user),
		roleName,
		strings.Join(names, ", "),
		requestedCount,
	)

	raw, err := g.generate(ctx, prompt)
	if err != nil {
		slog.Warn("gap analysis model call failed",
			slog.Int64("user_id", user.ID),
			slog.String("role", roleName),
			slog.Any("error", err),
		)
		return GapResult{
			Explanation: fmt.Sprintf("gap analysis unavailable: %v", err),
		}, nil
	}

	return GapResult{Explanation: raw, Items: capGapItems(raw, requestedCount)}, nil
}

// capGapItems extracts the item list from model text and truncates it to
// requestedCount, however many items the text implies.
func capGapItems(raw string, requestedCount int) []string {
	items := ExtractGapItems(raw)
	if requestedCount > 0 && len(items) > requestedCount {
		items = items[:requestedCount]
	}
	return items
}

// gapItemPatterns is the prioritized sequence of structural patterns for
// extracting capability names from model output. The first pattern that
// yields at least one match wins. Extraction is best-effort: format drift
// yields zero items, not an error.
var gapItemPatterns = []*regexp.Regexp{
	regexp.MustCompile(`\d+\.\s\*\*(.+?)\*\*`),     // 1. **name**
	regexp.MustCompile(`(?m)\d+\.\s(.+?)(?:\n|$)`), // 1. name
	regexp.MustCompile(`\d+\.\s(.+?)(?:\s-|$)`),    // 1. name -
}

// ExtractGapItems pulls the ordered capability-name list out of
// semi-structured model text, stripping stray bracket and bold markers.
func ExtractGapItems(text string) []string {
	for _, pattern := range gapItemPatterns {
		matches := pattern.FindAllStringSubmatch(text, -1)
		if len(matches) == 0 {
			continue
		}
		items := make([]string, 0, len(matches))
		for _, m := range matches {
			name := strings.TrimSpace(m[1])
			if strings.HasPrefix(name, "[") && strings.HasSuffix(name, "]") {
				name = name[1 : len(name)-1]
			}
			name = strings.TrimSpace(strings.ReplaceAll(name, "*", ""))
			if name != "" {
				items = append(items, name)
			}
		}
		if len(items) > 0 {
			return items
		}
	}
	return nil
}
