// Package trend implements the skill-trend aggregation and candidate-ranking
// pipeline: daily skill-frequency statistics per job role, embedding-based
// posting ranking with a generative re-ranker, gap analysis against trend
// skills, and the batch scheduler that drives all of it.
package trend

import (
	"errors"
	"time"
)

// FieldCategory names a posting attribute that aggregation treats as a
// token source. tech_stack is a delimited string; the rest are structured
// JSON lists (with a delimiter-split fallback on malformed values).
type FieldCategory string

const (
	CategoryTechStack       FieldCategory = "tech_stack"
	CategoryRequiredSkills  FieldCategory = "required_skills"
	CategoryPreferredSkills FieldCategory = "preferred_skills"
	CategoryMainTasksSkills FieldCategory = "main_tasks_skills"
)

// AllCategories is the fixed enumeration order used by AggregateAll.
var AllCategories = []FieldCategory{
	CategoryTechStack,
	CategoryRequiredSkills,
	CategoryPreferredSkills,
	CategoryMainTasksSkills,
}

// ParseFieldCategory validates a category name.
func ParseFieldCategory(s string) (FieldCategory, error) {
	switch FieldCategory(s) {
	case CategoryTechStack, CategoryRequiredSkills, CategoryPreferredSkills, CategoryMainTasksSkills:
		return FieldCategory(s), nil
	}
	return "", ErrUnknownCategory
}

var (
	// ErrRoleNotFound reports an unknown job role name. Surfaced to callers,
	// never retried.
	ErrRoleNotFound = errors.New("job role not found")

	// ErrUnknownCategory rejects an aggregation request before any deletion.
	ErrUnknownCategory = errors.New("unknown field category")
)

// JobRole is a named occupational category postings and stats partition by.
type JobRole struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// JobPosting is one row of the read-only posting corpus.
// RequiredSkills, PreferredSkills and MainTasksSkills hold JSON arrays
// (or legacy delimited strings); TechStack is always delimited.
type JobPosting struct {
	ID              int64     `json:"id"`
	RoleID          int64     `json:"role_id"`
	Title           string    `json:"title"`
	Company         string    `json:"company"`
	ApplicantType   string    `json:"applicant_type,omitempty"`
	PostingDate     time.Time `json:"posting_date"`
	Deadline        time.Time `json:"deadline"`
	MainTasks       string    `json:"main_tasks,omitempty"`
	Qualifications  string    `json:"qualifications,omitempty"`
	Preferences     string    `json:"preferences,omitempty"`
	TechStack       string    `json:"tech_stack,omitempty"`
	RequiredSkills  string    `json:"required_skills,omitempty"`
	PreferredSkills string    `json:"preferred_skills,omitempty"`
	MainTasksSkills string    `json:"main_tasks_skills,omitempty"`
	Embedding       []float32 `json:"-"`
}

// SkillStat is one stored skill-frequency row. For a fixed
// (role, category, date) the stored set is the top-50 highest-count skills,
// count desc, ties by skill asc.
type SkillStat struct {
	JobRoleID int64         `json:"job_role_id"`
	FieldType FieldCategory `json:"field_type"`
	Date      time.Time     `json:"date"`
	Week      int           `json:"week"` // ISO calendar week of Date
	Skill     string        `json:"skill"`
	Count     int           `json:"count"`
}

// TrendSkill is a skill with its summed count across categories for one day.
type TrendSkill struct {
	Skill      string `json:"skill"`
	TotalCount int    `json:"total_count"`
}

// SimilarityScore is one persisted (user, posting) similarity row.
type SimilarityScore struct {
	UserID    int64   `json:"user_id"`
	JobPostID int64   `json:"job_post_id"`
	Similarity float64 `json:"similarity"`
}

// RankedCandidate pairs a posting with its similarity score during a
// ranking/re-ranking pass. Never persisted.
type RankedCandidate struct {
	Posting    JobPosting `json:"posting"`
	Similarity float64    `json:"similarity"`
}

// UserProfile carries the identity-independent resume fields the ranker and
// gap analyzer consume. Skills is "name(low), name(mid), name(high)";
// Certificates is comma-separated.
type UserProfile struct {
	ID              int64  `json:"id"`
	Name            string `json:"name"`
	Institution     string `json:"institution"`
	Major           string `json:"major"`
	Degree          string `json:"degree"`
	EducationStatus string `json:"education_status"`
	DesiredJob      string `json:"desired_job"`
	LanguageScore   string `json:"language_score"`
	Skills          string `json:"skills"`
	Certificates    string `json:"certificates"`
	LatestExperience string `json:"latest_experience"`
}
