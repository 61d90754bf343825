package trend

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"
)

// proficiencyWeights scale a trend skill's count by how well the user
// knows it.
var proficiencyWeights = map[string]float64{
	"low":  1.0,
	"mid":  1.4,
	"high": 1.8,
}

// RoleScore is one role's fit score for a user.
type RoleScore struct {
	RoleName string  `json:"role_name"`
	Score    float64 `json:"score"`
}

// RecommendRoles scores every known role against the user's skills using
// the role's current-day trend skills, best first. Score is
// Σ count × proficiency weight over matched skills. Pure computation, no
// model call.
func RecommendRoles(ctx context.Context, db *TrendDB, user UserProfile, topK int) ([]RoleScore, error) {
	roles, err := db.ListJobRoles(ctx)
	if err != nil {
		return nil, fmt.Errorf("recommend roles: %w", err)
	}

	userSkills := ParseSkillProficiencies(user.Skills)
	today := CivilDate(time.Now())

	scores := make([]RoleScore, 0, len(roles))
	for _, role := range roles {
		trend, err := db.TopTrendSkills(ctx, role.ID, today, 200)
		if err != nil {
			return nil, fmt.Errorf("recommend roles: %w", err)
		}
		scores = append(scores, RoleScore{
			RoleName: role.Name,
			Score:    ScoreRoleFit(userSkills, trend),
		})
	}

	sort.SliceStable(scores, func(i, j int) bool {
		return scores[i].Score > scores[j].Score
	})
	if topK > 0 && len(scores) > topK {
		scores = scores[:topK]
	}
	return scores, nil
}

// ScoreRoleFit sums count × proficiency weight over the trend skills the
// user holds. Unknown proficiency labels weigh 1.0.
func ScoreRoleFit(userSkills map[string]string, trend []TrendSkill) float64 {
	var score float64
	for _, t := range trend {
		prof, ok := userSkills[strings.ToLower(strings.TrimSpace(t.Skill))]
		if !ok {
			continue
		}
		weight, ok := proficiencyWeights[prof]
		if !ok {
			weight = 1.0
		}
		score += float64(t.TotalCount) * weight
	}
	return score
}

// ParseSkillProficiencies parses "Python(high), Go(mid)" into a lowercase
// skill → proficiency map. Entries without a proficiency marker are
// skipped.
func ParseSkillProficiencies(skills string) map[string]string {
	out := make(map[string]string)
	for _, part := range strings.Split(skills, ",") {
		part = strings.TrimSpace(part)
		open := strings.Index(part, "(")
		if open <= 0 || !strings.HasSuffix(part, ")") {
			continue
		}
		name := strings.ToLower(strings.TrimSpace(part[:open]))
		prof := strings.ToLower(strings.TrimSpace(part[open+1 : len(part)-1]))
		if name != "" {
			out[name] = prof
		}
	}
	return out
}
