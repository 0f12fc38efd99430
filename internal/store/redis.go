package store

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/alan-mat/atscore/internal/api"
	"github.com/redis/go-redis/v9"
)

const keyPrefix = "atscore:submission:"

type redisSubmission struct {
	ID             string `redis:"id"`
	ResumePath     string `redis:"resume_file"`
	JobDescription string `redis:"job_description"`
	ATSScore       string `redis:"ats_score"`
	MissingSkills  string `redis:"missing_skills"`
	UploadedAt     int64  `redis:"uploaded_at"`
}

// RedisStore keeps each submission in a hash. It does not own the client.
type RedisStore struct {
	rdb *redis.Client
}

func NewRedisStore(rdb *redis.Client) *RedisStore {
	return &RedisStore{rdb: rdb}
}

func (s *RedisStore) Create(ctx context.Context, sub *Submission) error {
	err := s.rdb.HSet(ctx, keyPrefix+sub.ID, redisSubmission{
		ID:             sub.ID,
		ResumePath:     sub.ResumePath,
		JobDescription: sub.JobDescription,
		UploadedAt:     sub.UploadedAt.UnixNano(),
	}).Err()
	if err != nil {
		return fmt.Errorf("create submission: %w", err)
	}
	return nil
}

func (s *RedisStore) SaveResult(ctx context.Context, id string, res api.ScoreResult) error {
	skills := res.MissingKeywords
	if skills == nil {
		skills = []string{}
	}
	skillsJSON, err := json.Marshal(skills)
	if err != nil {
		return fmt.Errorf("encode missing skills: %w", err)
	}

	key := keyPrefix + id
	n, err := s.rdb.Exists(ctx, key).Result()
	if err != nil {
		return fmt.Errorf("save result: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}

	err = s.rdb.HSet(ctx, key,
		"ats_score", strconv.FormatFloat(res.Score, 'f', -1, 64),
		"missing_skills", string(skillsJSON),
	).Err()
	if err != nil {
		return fmt.Errorf("save result: %w", err)
	}
	return nil
}

func (s *RedisStore) Get(ctx context.Context, id string) (*Submission, error) {
	res := s.rdb.HGetAll(ctx, keyPrefix+id)
	fields, err := res.Result()
	if err != nil {
		return nil, fmt.Errorf("get submission: %w", err)
	}
	if len(fields) == 0 {
		return nil, ErrNotFound
	}

	var rs redisSubmission
	if err := res.Scan(&rs); err != nil {
		return nil, fmt.Errorf("get submission: %w", err)
	}
	return rs.submission()
}

func (s *RedisStore) Close() error {
	return nil
}

func (rs redisSubmission) submission() (*Submission, error) {
	sub := &Submission{
		ID:             rs.ID,
		ResumePath:     rs.ResumePath,
		JobDescription: rs.JobDescription,
		UploadedAt:     time.Unix(0, rs.UploadedAt).UTC(),
	}

	if rs.ATSScore != "" {
		score, err := strconv.ParseFloat(rs.ATSScore, 64)
		if err != nil {
			return nil, fmt.Errorf("decode score: %w", err)
		}
		sub.ATSScore = &score
	}
	if rs.MissingSkills != "" {
		if err := json.Unmarshal([]byte(rs.MissingSkills), &sub.MissingSkills); err != nil {
			return nil, fmt.Errorf("decode missing skills: %w", err)
		}
	}
	return sub, nil
}
