package tasks

import (
	"encoding/json"
	"errors"

	"github.com/hibiken/asynq"
)

const (
	TypeScore = "ats:score"
)

var ErrInvalidPayload = errors.New("invalid task payload")

type scoreTaskPayload struct {
	SubmissionID   string `json:"submission_id"`
	ResumePath     string `json:"resume_path"`
	JobDescription string `json:"job_description"`
}

func NewScoreTask(submissionID, resumePath, jobDescription string, opts ...asynq.Option) (*asynq.Task, error) {
	tp := scoreTaskPayload{
		SubmissionID:   submissionID,
		ResumePath:     resumePath,
		JobDescription: jobDescription,
	}
	payload, err := json.Marshal(tp)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TypeScore, payload, opts...), nil
}

func parseScorePayload(data []byte) (scoreTaskPayload, error) {
	var p scoreTaskPayload
	if err := json.Unmarshal(data, &p); err != nil {
		return p, errors.Join(ErrInvalidPayload, err)
	}
	if p.SubmissionID == "" || p.ResumePath == "" {
		return p, ErrInvalidPayload
	}
	return p, nil
}
