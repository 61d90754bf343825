package trend

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

//go:embed schema/*.sql
var schemaFS embed.FS

// Package-level singletons, set from main.go.
var (
	trendDB     *TrendDB
	corpusDB    *Corpus
	scheduler   *Scheduler
	aggregator  *Aggregator
	ranker      *Ranker
	reranker    *Reranker
	gapAnalyzer *GapAnalyzer
	statsLoc    = time.UTC
)

// SetTrendDB sets the package-level trend DB instance.
func SetTrendDB(db *TrendDB) { trendDB = db }

// GetTrendDB returns the package-level trend DB instance (may be nil).
func GetTrendDB() *TrendDB { return trendDB }

// SetCorpus sets the package-level posting corpus instance.
func SetCorpus(c *Corpus) { corpusDB = c }

// GetCorpus returns the package-level posting corpus instance (may be nil).
func GetCorpus() *Corpus { return corpusDB }

// SetScheduler sets the package-level scheduler instance.
func SetScheduler(s *Scheduler) { scheduler = s }

// GetScheduler returns the package-level scheduler instance (may be nil).
func GetScheduler() *Scheduler { return scheduler }

// SetAggregator sets the package-level aggregator instance.
func SetAggregator(a *Aggregator) { aggregator = a }

// GetAggregator returns the package-level aggregator instance (may be nil).
func GetAggregator() *Aggregator { return aggregator }

// SetRanker sets the package-level ranker instance.
func SetRanker(r *Ranker) { ranker = r }

// GetRanker returns the package-level ranker instance (may be nil).
func GetRanker() *Ranker { return ranker }

// SetReranker sets the package-level reranker instance.
func SetReranker(r *Reranker) { reranker = r }

// GetReranker returns the package-level reranker instance (may be nil).
func GetReranker() *Reranker { return reranker }

// SetGapAnalyzer sets the package-level gap analyzer instance.
func SetGapAnalyzer(g *GapAnalyzer) { gapAnalyzer = g }

// GetGapAnalyzer returns the package-level gap analyzer instance (may be nil).
func GetGapAnalyzer() *GapAnalyzer { return gapAnalyzer }

// SetStatsLocation sets the timezone stats dates and weeks are computed in.
func SetStatsLocation(loc *time.Location) {
	if loc != nil {
		statsLoc = loc
	}
}

// StatsLocation returns the configured stats timezone.
func StatsLocation() *time.Location { return statsLoc }

// CivilDate returns the calendar day of t in the stats timezone, as UTC
// midnight. Writers stamp stat rows with it and readers resolve "today"
// through it, so both sides agree on the day regardless of the instant's
// offset.
func CivilDate(t time.Time) time.Time {
	y, m, d := t.In(statsLoc).Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// TrendDB holds the pgx connection pool for the trend store.
type TrendDB struct {
	pool *pgxpool.Pool
}

// ConnectTrendDB creates a pgx pool and runs schema migrations.
func ConnectTrendDB(ctx context.Context, databaseURL string) (*TrendDB, error) {
	if databaseURL == "" {
		return nil, errors.New("DATABASE_URL is required")
	}

	config, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse DATABASE_URL: %w", err)
	}
	config.MaxConns = 10
	config.MinConns = 1

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("create pgx pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}

	db := &TrendDB{pool: pool}
	if err := db.runMigrations(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	slog.Info("trend postgres connected", slog.String("addr", config.ConnConfig.Host))
	return db, nil
}

func (db *TrendDB) Close() {
	db.pool.Close()
}

func (db *TrendDB) runMigrations(ctx context.Context) error {
	entries, err := schemaFS.ReadDir("schema")
	if err != nil {
		return fmt.Errorf("read schema dir: %w", err)
	}

	sort.Slice(entries, func(i, j int) bool {
		return entries[i].Name() < entries[j].Name()
	})

	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".sql") {
			continue
		}
		data, err := schemaFS.ReadFile("schema/" + entry.Name())
		if err != nil {
			return fmt.Errorf("read %s: %w", entry.Name(), err)
		}
		if _, err := db.pool.Exec(ctx, string(data)); err != nil {
			return fmt.Errorf("execute %s: %w", entry.Name(), err)
		}
		slog.Info("migration applied", slog.String("file", entry.Name()))
	}
	return nil
}

// --- Job roles ---

// ListJobRoles returns every known job role, name ascending.
func (db *TrendDB) ListJobRoles(ctx context.Context) ([]JobRole, error) {
	rows, err := db.pool.Query(ctx, `SELECT id, name FROM job_roles ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("list job roles: %w", err)
	}
	defer rows.Close()

	var roles []JobRole
	for rows.Next() {
		var r JobRole
		if err := rows.Scan(&r.ID, &r.Name); err != nil {
			return nil, fmt.Errorf("scan job role: %w", err)
		}
		roles = append(roles, r)
	}
	return roles, rows.Err()
}

// GetJobRoleByName resolves a role name. Returns ErrRoleNotFound for
// unknown names.
func (db *TrendDB) GetJobRoleByName(ctx context.Context, name string) (JobRole, error) {
	var r JobRole
	err := db.pool.QueryRow(ctx, `SELECT id, name FROM job_roles WHERE name = $1`, name).
		Scan(&r.ID, &r.Name)
	if errors.Is(err, pgx.ErrNoRows) {
		return JobRole{}, fmt.Errorf("%w: %q", ErrRoleNotFound, name)
	}
	if err != nil {
		return JobRole{}, fmt.Errorf("get job role %q: %w", name, err)
	}
	return r, nil
}

// --- Skill stats ---

// ReplaceSkillStats atomically replaces all rows for
// (roleID, category, date) with stats. Delete and insert run in one
// transaction: a failed insert rolls back the delete, so readers never see
// a partial-empty state.
func (db *TrendDB) ReplaceSkillStats(ctx context.Context, roleID int64, category FieldCategory, date time.Time, stats []SkillStat) (created, deleted int, err error) {
	tx, err := db.pool.Begin(ctx)
	if err != nil {
		return 0, 0, fmt.Errorf("begin skill stats tx: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck // no-op after commit

	tag, err := tx.Exec(ctx,
		`DELETE FROM skill_stats WHERE job_role_id = $1 AND field_type = $2 AND date = $3`,
		roleID, category, date)
	if err != nil {
		return 0, 0, fmt.Errorf("delete skill stats: %w", err)
	}
	deleted = int(tag.RowsAffected())

	if len(stats) > 0 {
		batch := &pgx.Batch{}
		for _, s := range stats {
			batch.Queue(
				`INSERT INTO skill_stats (job_role_id, field_type, date, week, skill, count)
				 VALUES ($1, $2, $3, $4, $5, $6)`,
				roleID, category, date, s.Week, s.Skill, s.Count)
		}
		if err := tx.SendBatch(ctx, batch).Close(); err != nil {
			return 0, 0, fmt.Errorf("insert skill stats: %w", err)
		}
		created = len(stats)
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, 0, fmt.Errorf("commit skill stats: %w", err)
	}
	return created, deleted, nil
}

// WeeklyStats returns the stored rows for (roleID, category, week), count
// desc then skill asc, the stored sort contract.
func (db *TrendDB) WeeklyStats(ctx context.Context, roleID int64, category FieldCategory, week int) ([]SkillStat, error) {
	rows, err := db.pool.Query(ctx,
		`SELECT job_role_id, field_type, date, week, skill, count
		 FROM skill_stats
		 WHERE job_role_id = $1 AND field_type = $2 AND week = $3
		 ORDER BY count DESC, skill ASC`,
		roleID, category, week)
	if err != nil {
		return nil, fmt.Errorf("weekly stats: %w", err)
	}
	defer rows.Close()
	return scanSkillStats(rows)
}

// SkillTrendSeries returns every stored row for one skill in one role and
// category, oldest first. The per-skill time series.
func (db *TrendDB) SkillTrendSeries(ctx context.Context, roleID int64, category FieldCategory, skill string) ([]SkillStat, error) {
	rows, err := db.pool.Query(ctx,
		`SELECT job_role_id, field_type, date, week, skill, count
		 FROM skill_stats
		 WHERE job_role_id = $1 AND field_type = $2 AND skill = $3
		 ORDER BY date ASC`,
		roleID, category, skill)
	if err != nil {
		return nil, fmt.Errorf("skill trend series: %w", err)
	}
	defer rows.Close()
	return scanSkillStats(rows)
}

// TopTrendSkills sums counts across all categories for one role and day,
// highest first. Feeds the gap analyzer and role recommendation.
func (db *TrendDB) TopTrendSkills(ctx context.Context, roleID int64, date time.Time, limit int) ([]TrendSkill, error) {
	rows, err := db.pool.Query(ctx,
		`SELECT skill, SUM(count) AS total_count
		 FROM skill_stats
		 WHERE job_role_id = $1 AND date = $2
		 GROUP BY skill
		 ORDER BY total_count DESC, skill ASC
		 LIMIT $3`,
		roleID, date, limit)
	if err != nil {
		return nil, fmt.Errorf("top trend skills: %w", err)
	}
	defer rows.Close()

	var out []TrendSkill
	for rows.Next() {
		var t TrendSkill
		if err := rows.Scan(&t.Skill, &t.TotalCount); err != nil {
			return nil, fmt.Errorf("scan trend skill: %w", err)
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

// SearchSkills returns distinct stored skill names matching keyword
// (case-insensitive substring), capped at limit.
func (db *TrendDB) SearchSkills(ctx context.Context, keyword string, limit int) ([]string, error) {
	rows, err := db.pool.Query(ctx,
		`SELECT DISTINCT skill FROM skill_stats
		 WHERE skill ILIKE '%' || $1 || '%'
		 ORDER BY skill ASC LIMIT $2`,
		keyword, limit)
	if err != nil {
		return nil, fmt.Errorf("search skills: %w", err)
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var s string
		if err := rows.Scan(&s); err != nil {
			return nil, fmt.Errorf("scan skill: %w", err)
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

func scanSkillStats(rows pgx.Rows) ([]SkillStat, error) {
	var out []SkillStat
	for rows.Next() {
		var s SkillStat
		if err := rows.Scan(&s.JobRoleID, &s.FieldType, &s.Date, &s.Week, &s.Skill, &s.Count); err != nil {
			return nil, fmt.Errorf("scan skill stat: %w", err)
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

// --- Similarity scores ---

// ReplaceSimilarityScores deletes all prior rows for the user and inserts
// the fresh set in one transaction.
func (db *TrendDB) ReplaceSimilarityScores(ctx context.Context, userID int64, scores []SimilarityScore) error {
	tx, err := db.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin similarity tx: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	if _, err := tx.Exec(ctx, `DELETE FROM user_similarities WHERE user_id = $1`, userID); err != nil {
		return fmt.Errorf("delete similarities: %w", err)
	}

	batch := &pgx.Batch{}
	for _, s := range scores {
		batch.Queue(
			`INSERT INTO user_similarities (user_id, job_post_id, similarity) VALUES ($1, $2, $3)`,
			userID, s.JobPostID, s.Similarity)
	}
	if len(scores) > 0 {
		if err := tx.SendBatch(ctx, batch).Close(); err != nil {
			return fmt.Errorf("insert similarities: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit similarities: %w", err)
	}
	return nil
}

// TopSimilarityScores returns the user's rows, similarity desc, capped at
// limit. Empty result is a normal outcome, not an error.
func (db *TrendDB) TopSimilarityScores(ctx context.Context, userID int64, limit int) ([]SimilarityScore, error) {
	rows, err := db.pool.Query(ctx,
		`SELECT user_id, job_post_id, similarity
		 FROM user_similarities
		 WHERE user_id = $1
		 ORDER BY similarity DESC
		 LIMIT $2`,
		userID, limit)
	if err != nil {
		return nil, fmt.Errorf("top similarities: %w", err)
	}
	defer rows.Close()

	var out []SimilarityScore
	for rows.Next() {
		var s SimilarityScore
		if err := rows.Scan(&s.UserID, &s.JobPostID, &s.Similarity); err != nil {
			return nil, fmt.Errorf("scan similarity: %w", err)
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

// --- Users ---

const userColumns = `id, name, institution, major, degree, education_status,
	desired_job, language_score, skills, certificates, latest_experience`

// ListUsers returns every user profile, id ascending.
func (db *TrendDB) ListUsers(ctx context.Context) ([]UserProfile, error) {
	rows, err := db.pool.Query(ctx, `SELECT `+userColumns+` FROM users ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	defer rows.Close()

	var out []UserProfile
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, u)
	}
	return out, rows.Err()
}

// GetUser returns one user profile by id.
func (db *TrendDB) GetUser(ctx context.Context, userID int64) (UserProfile, error) {
	rows, err := db.pool.Query(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, userID)
	if err != nil {
		return UserProfile{}, fmt.Errorf("get user %d: %w", userID, err)
	}
	defer rows.Close()

	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return UserProfile{}, fmt.Errorf("get user %d: %w", userID, err)
		}
		return UserProfile{}, fmt.Errorf("user %d not found", userID)
	}
	return scanUser(rows)
}

func scanUser(rows pgx.Rows) (UserProfile, error) {
	var u UserProfile
	if err := rows.Scan(&u.ID, &u.Name, &u.Institution, &u.Major, &u.Degree,
		&u.EducationStatus, &u.DesiredJob, &u.LanguageScore, &u.Skills,
		&u.Certificates, &u.LatestExperience); err != nil {
		return UserProfile{}, fmt.Errorf("scan user: %w", err)
	}
	return u, nil
}
