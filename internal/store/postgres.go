package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/alan-mat/atscore/internal/api"

	_ "github.com/lib/pq"
)

const schema = `
CREATE TABLE IF NOT EXISTS resume_analysis (
	id              UUID PRIMARY KEY,
	resume_file     TEXT NOT NULL,
	job_description TEXT NOT NULL,
	ats_score       DOUBLE PRECISION,
	missing_skills  JSONB,
	uploaded_at     TIMESTAMPTZ NOT NULL DEFAULT NOW()
)`

type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(ctx context.Context, databaseURL string) (*PostgresStore, error) {
	db, err := sql.Open("postgres", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	return &PostgresStore{db: db}, nil
}

// EnsureSchema creates the resume_analysis table if it does not exist.
func (s *PostgresStore) EnsureSchema(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("ensure schema: %w", err)
	}
	return nil
}

func (s *PostgresStore) Create(ctx context.Context, sub *Submission) error {
	query := `INSERT INTO resume_analysis (id, resume_file, job_description, uploaded_at)
	          VALUES ($1, $2, $3, $4)`

	_, err := s.db.ExecContext(ctx, query, sub.ID, sub.ResumePath, sub.JobDescription, sub.UploadedAt)
	if err != nil {
		return fmt.Errorf("create submission: %w", err)
	}
	return nil
}

func (s *PostgresStore) SaveResult(ctx context.Context, id string, res api.ScoreResult) error {
	skills := res.MissingKeywords
	if skills == nil {
		skills = []string{}
	}
	skillsJSON, err := json.Marshal(skills)
	if err != nil {
		return fmt.Errorf("encode missing skills: %w", err)
	}

	query := `UPDATE resume_analysis SET ats_score = $1, missing_skills = $2 WHERE id = $3`
	r, err := s.db.ExecContext(ctx, query, res.Score, string(skillsJSON), id)
	if err != nil {
		return fmt.Errorf("save result: %w", err)
	}
	if n, err := r.RowsAffected(); err == nil && n == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *PostgresStore) Get(ctx context.Context, id string) (*Submission, error) {
	query := `SELECT id, resume_file, job_description, ats_score, missing_skills, uploaded_at
	          FROM resume_analysis WHERE id = $1`

	var (
		sub    Submission
		score  sql.NullFloat64
		skills []byte
	)
	err := s.db.QueryRowContext(ctx, query, id).Scan(
		&sub.ID, &sub.ResumePath, &sub.JobDescription, &score, &skills, &sub.UploadedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get submission: %w", err)
	}

	if score.Valid {
		sub.ATSScore = &score.Float64
	}
	if len(skills) > 0 {
		if err := json.Unmarshal(skills, &sub.MissingSkills); err != nil {
			return nil, fmt.Errorf("decode missing skills: %w", err)
		}
	}
	return &sub, nil
}

func (s *PostgresStore) Close() error {
	return s.db.Close()
}
