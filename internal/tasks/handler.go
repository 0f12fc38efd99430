package tasks

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/alan-mat/atscore/internal/api"
	"github.com/alan-mat/atscore/internal/store"
	"github.com/alan-mat/atscore/internal/transport"
	"github.com/hibiken/asynq"
)

type Runner interface {
	Run(ctx context.Context, path, description string) (api.ScoreResult, error)
}

type TaskHandler struct {
	runner    Runner
	store     store.Store
	transport transport.Transport
}

func NewTaskHandler(runner Runner, store store.Store, transport transport.Transport) *TaskHandler {
	return &TaskHandler{
		runner:    runner,
		store:     store,
		transport: transport,
	}
}

func (h TaskHandler) ProcessTask(ctx context.Context, t *asynq.Task) error {
	if t.Type() != TypeScore {
		return fmt.Errorf("unrecognized task type (%w)", asynq.SkipRetry)
	}

	p, err := parseScorePayload(t.Payload())
	if err != nil {
		slog.Error("dropping task", "type", t.Type(), "err", err)
		return fmt.Errorf("%v (%w)", err, asynq.SkipRetry)
	}

	id, ok := asynq.GetTaskID(ctx)
	if !ok {
		id = p.SubmissionID
	}
	slog.Info("received score task", "id", id, "submission", p.SubmissionID, "resume", p.ResumePath)

	ms, err := h.transport.GetMessageStream(id)
	if err != nil {
		slog.Error("failed to initialize message stream", "err", err)
		return fmt.Errorf("failed to initialize message stream: %v (%w)", err, asynq.SkipRetry)
	}
	h.send(ctx, ms, transport.StageAnalyzing, "OK", "analysis started")

	trace := transport.NewTrace(id, p.SubmissionID)
	h.setTrace(ctx, trace)

	res, err := h.runner.Run(ctx, p.ResumePath, p.JobDescription)
	if err != nil {
		return h.fail(ctx, ms, trace, fmt.Errorf("analysis failed: %w", err))
	}

	h.send(ctx, ms, transport.StageSaving, "OK", "saving result")
	if err := h.store.SaveResult(ctx, p.SubmissionID, res); err != nil {
		return h.fail(ctx, ms, trace, fmt.Errorf("failed to save result: %w", err))
	}

	h.send(ctx, ms, transport.StageDone, "DONE", "task finished")
	if err := trace.Complete(); err == nil {
		h.setTrace(ctx, trace)
	}
	return nil
}

func (h TaskHandler) fail(ctx context.Context, ms transport.MessageStream, trace *transport.Trace, err error) error {
	slog.Error("score task failed", "id", trace.ID, "err", err)
	h.send(ctx, ms, transport.StageDone, "ERR", "analysis failed")
	if terr := trace.Fail(err.Error()); terr == nil {
		h.setTrace(ctx, trace)
	}
	return err
}

func (h TaskHandler) send(ctx context.Context, ms transport.MessageStream, stage transport.Stage, status, content string) {
	err := ms.Send(ctx, transport.MessageStreamPayload{
		Status:  status,
		Stage:   stage,
		Content: content,
	})
	if err != nil {
		slog.Warn("failed to write to message stream", "id", ms.GetID(), "stage", stage, "err", err)
	}
}

func (h TaskHandler) setTrace(ctx context.Context, trace *transport.Trace) {
	if err := h.transport.SetTrace(ctx, trace); err != nil {
		slog.Error("failed to set trace", "id", trace.ID, "err", err)
	}
}
