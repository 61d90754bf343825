package careerserver

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/anatolykoptev/go_career/internal/engine"
	"github.com/anatolykoptev/go_career/internal/engine/trend"
)

// WeeklyStatsInput is the input for weekly_skill_stats.
type WeeklyStatsInput struct {
	Role     string `json:"role"`
	Category string `json:"category"`
	Week     int    `json:"week,omitempty"`
}

// SkillCount is one (skill, count) row in a stats response.
type SkillCount struct {
	Skill string `json:"skill"`
	Count int    `json:"count"`
	Date  string `json:"date"`
}

// WeeklyStatsOutput is the output for weekly_skill_stats.
type WeeklyStatsOutput struct {
	Role     string       `json:"role"`
	Category string       `json:"category"`
	Week     int          `json:"week"`
	Skills   []SkillCount `json:"skills"`
}

func registerWeeklySkillStats(server *mcp.Server) {
	mcp.AddTool(server, &mcp.Tool{
		Name:        "weekly_skill_stats",
		Description: "Skill frequency statistics for a job role, category (tech_stack, required_skills, preferred_skills, main_tasks_skills) and ISO week. Defaults to the current week. Sorted by count descending.",
		Annotations: &mcp.ToolAnnotations{ReadOnlyHint: true},
	}, func(ctx context.Context, _ *mcp.CallToolRequest, input WeeklyStatsInput) (*mcp.CallToolResult, WeeklyStatsOutput, error) {
		if input.Role == "" {
			return nil, WeeklyStatsOutput{}, errors.New("role is required")
		}
		category, err := trend.ParseFieldCategory(input.Category)
		if err != nil {
			return nil, WeeklyStatsOutput{}, err
		}

		week := input.Week
		if week <= 0 {
			_, week = time.Now().In(trend.StatsLocation()).ISOWeek()
		}

		cacheKey := engine.CacheKey("weekly_skill_stats", input.Role, input.Category, strconv.Itoa(week))
		if out, ok := engine.CacheLoadJSON[WeeklyStatsOutput](ctx, cacheKey); ok {
			return nil, out, nil
		}

		db := trend.GetTrendDB()
		role, err := db.GetJobRoleByName(ctx, input.Role)
		if err != nil {
			return nil, WeeklyStatsOutput{}, err
		}
		stats, err := db.WeeklyStats(ctx, role.ID, category, week)
		if err != nil {
			return nil, WeeklyStatsOutput{}, err
		}

		out := WeeklyStatsOutput{Role: role.Name, Category: string(category), Week: week}
		for _, s := range stats {
			out.Skills = append(out.Skills, SkillCount{
				Skill: s.Skill,
				Count: s.Count,
				Date:  s.Date.Format("2006-01-02"),
			})
		}
		engine.CacheStoreJSON(ctx, cacheKey, out)
		return nil, out, nil
	})
}

// SkillTrendInput is the input for skill_trend.
type SkillTrendInput struct {
	Role     string `json:"role"`
	Category string `json:"category"`
	Skill    string `json:"skill"`
}

// TrendPoint is one day's count in a skill's time series.
type TrendPoint struct {
	Date  string `json:"date"`
	Week  int    `json:"week"`
	Count int    `json:"count"`
}

// SkillTrendOutput is the output for skill_trend.
type SkillTrendOutput struct {
	Role     string       `json:"role"`
	Category string       `json:"category"`
	Skill    string       `json:"skill"`
	Series   []TrendPoint `json:"series"`
}

func registerSkillTrend(server *mcp.Server) {
	mcp.AddTool(server, &mcp.Tool{
		Name:        "skill_trend",
		Description: "Time series of daily counts for one skill within a job role and category, oldest first. Shows how demand for a skill moves over time.",
		Annotations: &mcp.ToolAnnotations{ReadOnlyHint: true},
	}, func(ctx context.Context, _ *mcp.CallToolRequest, input SkillTrendInput) (*mcp.CallToolResult, SkillTrendOutput, error) {
		if input.Role == "" || input.Skill == "" {
			return nil, SkillTrendOutput{}, errors.New("role and skill are required")
		}
		category, err := trend.ParseFieldCategory(input.Category)
		if err != nil {
			return nil, SkillTrendOutput{}, err
		}

		db := trend.GetTrendDB()
		role, err := db.GetJobRoleByName(ctx, input.Role)
		if err != nil {
			return nil, SkillTrendOutput{}, err
		}
		series, err := db.SkillTrendSeries(ctx, role.ID, category, input.Skill)
		if err != nil {
			return nil, SkillTrendOutput{}, err
		}

		out := SkillTrendOutput{Role: role.Name, Category: string(category), Skill: input.Skill}
		for _, s := range series {
			out.Series = append(out.Series, TrendPoint{
				Date:  s.Date.Format("2006-01-02"),
				Week:  s.Week,
				Count: s.Count,
			})
		}
		return nil, out, nil
	})
}

// SkillSearchInput is the input for skill_search.
type SkillSearchInput struct {
	Keyword string `json:"keyword"`
	Limit   int    `json:"limit,omitempty"`
}

// SkillSearchOutput is the output for skill_search.
type SkillSearchOutput struct {
	Keyword string   `json:"keyword"`
	Skills  []string `json:"skills"`
}

func registerSkillSearch(server *mcp.Server) {
	mcp.AddTool(server, &mcp.Tool{
		Name:        "skill_search",
		Description: "Case-insensitive substring search over all stored skill names. Returns distinct matching skills, alphabetical.",
		Annotations: &mcp.ToolAnnotations{ReadOnlyHint: true},
	}, func(ctx context.Context, _ *mcp.CallToolRequest, input SkillSearchInput) (*mcp.CallToolResult, SkillSearchOutput, error) {
		if input.Keyword == "" {
			return nil, SkillSearchOutput{}, errors.New("keyword is required")
		}
		limit := input.Limit
		if limit <= 0 {
			limit = 20
		}
		skills, err := trend.GetTrendDB().SearchSkills(ctx, input.Keyword, limit)
		if err != nil {
			return nil, SkillSearchOutput{}, err
		}
		return nil, SkillSearchOutput{Keyword: input.Keyword, Skills: skills}, nil
	})
}
