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
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/alan-mat/atscore/internal/api"
	"github.com/alan-mat/atscore/internal/store"
	"github.com/alan-mat/atscore/internal/transport"
	"github.com/gofiber/fiber/v3"
	fiberlogger "github.com/gofiber/fiber/v3/middleware/logger"
	"github.com/gofiber/fiber/v3/middleware/recover"
	"github.com/hibiken/asynq"
)

const AppName = "atscore"

type ServerConfig struct {
	ListenHost  string
	ListenPort  int
	UploadDir   string
	BodyLimitMB int
	MaxRetry    int
}

func DefaultConfig() ServerConfig {
	return ServerConfig{
		ListenHost:  "0.0.0.0",
		ListenPort:  8000,
		UploadDir:   "resumes",
		BodyLimitMB: 10,
		MaxRetry:    3,
	}
}

type Runner interface {
	Run(ctx context.Context, path, description string) (api.ScoreResult, error)
}

type Enqueuer interface {
	Enqueue(task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error)
}

type Server struct {
	config ServerConfig

	app       *fiber.App
	runner    Runner
	store     store.Store
	queue     Enqueuer
	transport transport.Transport
}

func New(config ServerConfig, runner Runner, st store.Store, queue Enqueuer, tr transport.Transport) (*Server, error) {
	if err := os.MkdirAll(config.UploadDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create upload dir: %w", err)
	}

	s := &Server{
		config:    config,
		runner:    runner,
		store:     st,
		queue:     queue,
		transport: tr,
	}

	s.app = fiber.New(fiber.Config{
		AppName:      AppName,
		BodyLimit:    config.BodyLimitMB << 20,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 5 * time.Minute,
	})
	s.app.Use(recover.New())
	s.app.Use(fiberlogger.New())
	s.routes()

	return s, nil
}

func (s *Server) routes() {
	r := s.app.Group("/api")

	r.Get("/health", s.health)
	r.Post("/calculate-score/", s.calculateScore)
	r.Post("/submissions/", s.submit)
	r.Get("/submissions/:id", s.getSubmission)
	r.Get("/traces/:id", s.getTrace)
	r.Get("/traces/:id/events", s.getTraceEvents)
}

func (s *Server) App() *fiber.App {
	return s.app
}

func (s *Server) Serve() error {
	addr := fmt.Sprintf("%s:%d", s.config.ListenHost, s.config.ListenPort)
	slog.Info("Server starting", "listener", addr)
	if err := s.app.Listen(addr, fiber.ListenConfig{DisableStartupMessage: true}); err != nil {
		slog.Error("failed to serve", "err", err)
		return err
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.app.ShutdownWithContext(ctx)
}
