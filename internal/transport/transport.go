// Copyright 2025 Alan Matykiewicz
//
// Permission is hereby granted, free of charge, to any person obtaining a copy of
// this software and associated documentation files (the "Software"), to deal in
// the Software without restriction, including without limitation the rights to use,
// copy, modify, merge, publish, distribute, sublicense, and/or sell copies of the
// Software, and to permit persons to whom the Software is furnished to do so,
// subject to the following conditions:
//
// The above copyright notice and this permission notice shall be included in all
// copies or substantial portions of the Software.
//
// THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND,
// EXPRESS OR IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES
// OF MERCHANTABILITY, FITNESS FOR A PARTICULAR PURPOSE AND
// NONINFRINGEMENT. IN NO EVENT SHALL THE AUTHORS OR COPYRIGHT
// HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER LIABILITY,
// WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING
// FROM, OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR
// OTHER DEALINGS IN THE SOFTWARE.

package transport

import (
	"context"
	"errors"
	"time"
)

var (
	TraceExpiry = time.Hour * 24

	ErrTraceNotFound          = errors.New("trace not found")
	ErrInvalidTraceTransition = errors.New("trace is not running")
	ErrInvalidStreamID        = errors.New("invalid stream ID")
)

type Transport interface {
	GetMessageStream(id string) (MessageStream, error)
	SetTrace(ctx context.Context, trace *Trace) error
	GetTrace(ctx context.Context, traceId string) (*Trace, error)
}

// MessageStream carries progress events of a single task.
type MessageStream interface {
	Send(ctx context.Context, payload MessageStreamPayload) error

	// History returns every event sent so far without blocking.
	History(ctx context.Context) ([]MessageStreamPayload, error)

	GetID() string
}

// MessageStreamPayload is one progress event. ID is assigned by the stream
// when the event is read back.
type MessageStreamPayload struct {
	ID      string `json:"id"`
	Status  string `json:"status"`
	Stage   Stage  `json:"stage"`
	Content string `json:"content"`
}

type Stage string

const (
	StageQueued    Stage = "queued"
	StageAnalyzing Stage = "analyzing"
	StageSaving    Stage = "saving"
	StageDone      Stage = "done"
)

type Trace struct {
	ID          string `redis:"id" json:"id"`
	Status      int    `redis:"status" json:"status"`
	StartedAt   int64  `redis:"started_at" json:"started_at"`
	CompletedAt int64  `redis:"completed_at" json:"completed_at"`
	Submission  string `redis:"submission" json:"submission_id"`
	FailReason  string `redis:"fail_reason" json:"fail_reason,omitempty"`
}

const (
	TraceStatusUnspecified = iota
	TraceStatusRunning
	TraceStatusCompleted
	TraceStatusFailed
)

func NewTrace(id, submission string) *Trace {
	return &Trace{
		ID:         id,
		Status:     TraceStatusRunning,
		StartedAt:  time.Now().UnixNano(),
		Submission: submission,
	}
}

func (t *Trace) Complete() error {
	if t.Status != TraceStatusRunning {
		return ErrInvalidTraceTransition
	}
	t.Status = TraceStatusCompleted
	t.CompletedAt = time.Now().UnixNano()
	return nil
}

func (t *Trace) Fail(reason string) error {
	if t.Status != TraceStatusRunning {
		return ErrInvalidTraceTransition
	}
	t.Status = TraceStatusFailed
	t.FailReason = reason
	t.CompletedAt = time.Now().UnixNano()
	return nil
}

func StatusName(status int) string {
	switch status {
	case TraceStatusRunning:
		return "running"
	case TraceStatusCompleted:
		return "completed"
	case TraceStatusFailed:
		return "failed"
	default:
		return "unspecified"
	}
}
