package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/alan-mat/atscore/internal/api"
)

var (
	ErrNotFound         = errors.New("submission not found")
	ErrInvalidStoreType = errors.New("no result store found for given type")
)

const (
	StoreTypePostgres = iota
	StoreTypeRedis
)

var storeTypeMap = map[string]StoreType{
	"postgres": StoreTypePostgres,
	"redis":    StoreTypeRedis,
}

type StoreType int

func ParseStoreType(s string) (StoreType, error) {
	t, ok := storeTypeMap[s]
	if !ok {
		return 0, fmt.Errorf("%w: '%s'", ErrInvalidStoreType, s)
	}
	return t, nil
}

// Submission is a resume uploaded for analysis against a job description.
// ATSScore is nil until the analysis has finished.
type Submission struct {
	ID             string    `json:"id"`
	ResumePath     string    `json:"resume_file"`
	JobDescription string    `json:"job_description"`
	ATSScore       *float64  `json:"ats_score"`
	MissingSkills  []string  `json:"missing_skills"`
	UploadedAt     time.Time `json:"uploaded_at"`
}

// Apply records an analysis result on the submission.
func (s *Submission) Apply(res api.ScoreResult) {
	score := res.Score
	s.ATSScore = &score
	s.MissingSkills = res.MissingKeywords
	if s.MissingSkills == nil {
		s.MissingSkills = []string{}
	}
}

type Store interface {
	Create(ctx context.Context, s *Submission) error
	// SaveResult writes score and missing skills together.
	SaveResult(ctx context.Context, id string, res api.ScoreResult) error
	Get(ctx context.Context, id string) (*Submission, error)
	Close() error
}
