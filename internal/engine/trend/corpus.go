package trend

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	_ "modernc.org/sqlite"
)

// Corpus is the read-only job-posting document store, snapshotted into a
// local SQLite file by the upstream ingestion job. This core only reads it;
// SeedPostings exists for the loader and for tests.
type Corpus struct {
	db *sql.DB
}

// OpenCorpus opens (or creates) the SQLite corpus snapshot.
func OpenCorpus(path string) (*Corpus, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("corpus: open db: %w", err)
	}
	db.SetMaxOpenConns(1) // SQLite: single writer

	if err := initCorpusSchema(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("corpus: init schema: %w", err)
	}
	return &Corpus{db: db}, nil
}

func initCorpusSchema(db *sql.DB) error {
	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS job_posts (
			id                INTEGER PRIMARY KEY,
			role_id           INTEGER NOT NULL,
			title             TEXT NOT NULL,
			company           TEXT NOT NULL DEFAULT '',
			applicant_type    TEXT NOT NULL DEFAULT '',
			posting_date      TEXT NOT NULL,
			deadline          TEXT NOT NULL,
			main_tasks        TEXT NOT NULL DEFAULT '',
			qualifications    TEXT NOT NULL DEFAULT '',
			preferences       TEXT NOT NULL DEFAULT '',
			tech_stack        TEXT NOT NULL DEFAULT '',
			required_skills   TEXT NOT NULL DEFAULT '',
			preferred_skills  TEXT NOT NULL DEFAULT '',
			main_tasks_skills TEXT NOT NULL DEFAULT '',
			embedding         TEXT NOT NULL DEFAULT ''
		);
		CREATE INDEX IF NOT EXISTS idx_job_posts_role ON job_posts(role_id);
	`)
	return err
}

func (c *Corpus) Close() error { return c.db.Close() }

const postingColumns = `id, role_id, title, company, applicant_type,
	posting_date, deadline, main_tasks, qualifications, preferences,
	tech_stack, required_skills, preferred_skills, main_tasks_skills, embedding`

// PostingsByRole returns every posting for a role whose deadline has not
// passed as of asOf. Timestamps are stored as UTC RFC3339 text, so the
// string comparison is chronological.
func (c *Corpus) PostingsByRole(ctx context.Context, roleID int64, asOf time.Time) ([]JobPosting, error) {
	rows, err := c.db.QueryContext(ctx,
		`SELECT `+postingColumns+` FROM job_posts
		 WHERE role_id = ? AND deadline >= ? ORDER BY id`,
		roleID, asOf.UTC().Format(time.RFC3339))
	if err != nil {
		return nil, fmt.Errorf("corpus: postings by role: %w", err)
	}
	defer rows.Close()
	return scanPostings(rows)
}

// PostingsWithEmbeddings returns every posting carrying a precomputed
// embedding vector, in corpus order.
func (c *Corpus) PostingsWithEmbeddings(ctx context.Context) ([]JobPosting, error) {
	rows, err := c.db.QueryContext(ctx,
		`SELECT `+postingColumns+` FROM job_posts WHERE embedding != '' ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("corpus: postings with embeddings: %w", err)
	}
	defer rows.Close()
	return scanPostings(rows)
}

// GetPosting returns one posting by id.
func (c *Corpus) GetPosting(ctx context.Context, id int64) (JobPosting, error) {
	rows, err := c.db.QueryContext(ctx,
		`SELECT `+postingColumns+` FROM job_posts WHERE id = ?`, id)
	if err != nil {
		return JobPosting{}, fmt.Errorf("corpus: get posting %d: %w", id, err)
	}
	defer rows.Close()

	posts, err := scanPostings(rows)
	if err != nil {
		return JobPosting{}, err
	}
	if len(posts) == 0 {
		return JobPosting{}, fmt.Errorf("corpus: posting %d not found", id)
	}
	return posts[0], nil
}

// SeedPostings inserts postings into the snapshot. Used by the upstream
// loader and by tests; the pipeline itself never writes here.
func (c *Corpus) SeedPostings(ctx context.Context, postings []JobPosting) error {
	tx, err := c.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("corpus: begin seed: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO job_posts (`+postingColumns+`)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("corpus: prepare seed: %w", err)
	}
	defer stmt.Close()

	for _, p := range postings {
		emb := ""
		if len(p.Embedding) > 0 {
			data, err := json.Marshal(p.Embedding)
			if err != nil {
				return fmt.Errorf("corpus: marshal embedding: %w", err)
			}
			emb = string(data)
		}
		if _, err := stmt.ExecContext(ctx,
			p.ID, p.RoleID, p.Title, p.Company, p.ApplicantType,
			p.PostingDate.UTC().Format(time.RFC3339), p.Deadline.UTC().Format(time.RFC3339),
			p.MainTasks, p.Qualifications, p.Preferences,
			p.TechStack, p.RequiredSkills, p.PreferredSkills, p.MainTasksSkills,
			emb); err != nil {
			return fmt.Errorf("corpus: seed posting %d: %w", p.ID, err)
		}
	}
	return tx.Commit()
}

func scanPostings(rows *sql.Rows) ([]JobPosting, error) {
	var out []JobPosting
	for rows.Next() {
		var p JobPosting
		var postingDate, deadline, emb string
		if err := rows.Scan(&p.ID, &p.RoleID, &p.Title, &p.Company, &p.ApplicantType,
			&postingDate, &deadline, &p.MainTasks, &p.Qualifications, &p.Preferences,
			&p.TechStack, &p.RequiredSkills, &p.PreferredSkills, &p.MainTasksSkills,
			&emb); err != nil {
			return nil, fmt.Errorf("corpus: scan posting: %w", err)
		}
		var err error
		if p.PostingDate, err = time.Parse(time.RFC3339, postingDate); err != nil {
			return nil, fmt.Errorf("corpus: posting %d: bad posting_date: %w", p.ID, err)
		}
		if p.Deadline, err = time.Parse(time.RFC3339, deadline); err != nil {
			return nil, fmt.Errorf("corpus: posting %d: bad deadline: %w", p.ID, err)
		}
		if emb != "" {
			if err := json.Unmarshal([]byte(emb), &p.Embedding); err != nil {
				// Corrupt vector: treat as unembedded rather than failing the scan.
				p.Embedding = nil
			}
		}
		out = append(out, p)
	}
	return out, rows.Err()
}
