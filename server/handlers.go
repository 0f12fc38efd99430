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

package server

import (
	"errors"
	"log/slog"

	"github.com/alan-mat/atscore/internal/store"
	"github.com/alan-mat/atscore/internal/tasks"
	"github.com/alan-mat/atscore/internal/transport"
	"github.com/gofiber/fiber/v3"
	"github.com/google/uuid"
	"github.com/hibiken/asynq"
)

func (s *Server) health(c fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"status": "healthy",
		"app":    AppName,
	})
}

func (s *Server) calculateScore(c fiber.Ctx) error {
	u, verrs := parseUpload(c)
	if verrs != nil {
		return c.Status(fiber.StatusBadRequest).JSON(verrs)
	}

	sub, err := s.saveUpload(c, u)
	if err != nil {
		slog.Error("failed to store submission", "err", err)
		return internalError(c)
	}
	slog.Debug("received score request", "id", sub.ID, "resume", sub.ResumePath)

	res, err := s.runner.Run(c.Context(), sub.ResumePath, sub.JobDescription)
	if err != nil {
		slog.Error("failed to process resume", "id", sub.ID, "err", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"detail": "Error processing resume: " + err.Error(),
		})
	}

	if err := s.store.SaveResult(c.Context(), sub.ID, res); err != nil {
		slog.Error("failed to save result", "id", sub.ID, "err", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"detail": "Error processing resume: " + err.Error(),
		})
	}

	sub.Apply(res)
	return c.JSON(sub)
}

func (s *Server) submit(c fiber.Ctx) error {
	u, verrs := parseUpload(c)
	if verrs != nil {
		return c.Status(fiber.StatusBadRequest).JSON(verrs)
	}

	sub, err := s.saveUpload(c, u)
	if err != nil {
		slog.Error("failed to store submission", "err", err)
		return internalError(c)
	}

	// the task id is chosen here so the queued event lands on the same
	// stream the worker writes to
	taskID := uuid.NewString()
	s.publishQueued(c, taskID)

	t, err := tasks.NewScoreTask(sub.ID, sub.ResumePath, sub.JobDescription,
		asynq.TaskID(taskID),
		asynq.MaxRetry(s.config.MaxRetry),
	)
	if err != nil {
		slog.Error(err.Error())
		return internalError(c)
	}

	info, err := s.queue.Enqueue(t)
	if err != nil {
		slog.Error("failed to enqueue task", "id", sub.ID, "err", err)
		return internalError(c)
	}
	slog.Info("enqueued task successfully", "id", info.ID, "submission", sub.ID)

	return c.Status(fiber.StatusAccepted).JSON(fiber.Map{
		"id":       sub.ID,
		"trace_id": info.ID,
	})
}

func (s *Server) publishQueued(c fiber.Ctx, taskID string) {
	ms, err := s.transport.GetMessageStream(taskID)
	if err != nil {
		slog.Warn("failed to open message stream", "id", taskID, "err", err)
		return
	}
	err = ms.Send(c.Context(), transport.MessageStreamPayload{
		Status:  "OK",
		Stage:   transport.StageQueued,
		Content: "task queued",
	})
	if err != nil {
		slog.Warn("failed to write to message stream", "id", taskID, "stage", transport.StageQueued, "err", err)
	}
}

func (s *Server) getSubmission(c fiber.Ctx) error {
	sub, err := s.store.Get(c.Context(), c.Params("id"))
	if errors.Is(err, store.ErrNotFound) {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"detail": "Not found."})
	}
	if err != nil {
		slog.Error("failed to get submission", "id", c.Params("id"), "err", err)
		return internalError(c)
	}
	return c.JSON(sub)
}

func (s *Server) getTrace(c fiber.Ctx) error {
	trace, err := s.transport.GetTrace(c.Context(), c.Params("id"))
	if errors.Is(err, transport.ErrTraceNotFound) {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"detail": "Not found."})
	}
	if err != nil {
		slog.Error("failed to get trace", "id", c.Params("id"), "err", err)
		return internalError(c)
	}

	return c.JSON(fiber.Map{
		"trace":  trace,
		"status": transport.StatusName(trace.Status),
	})
}

func (s *Server) getTraceEvents(c fiber.Ctx) error {
	ms, err := s.transport.GetMessageStream(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"detail": err.Error()})
	}

	events, err := ms.History(c.Context())
	if err != nil {
		slog.Error("failed to read message stream", "id", ms.GetID(), "err", err)
		return internalError(c)
	}
	return c.JSON(fiber.Map{"events": events})
}
