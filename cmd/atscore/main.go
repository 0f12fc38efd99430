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

package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/alan-mat/atscore/internal/config"
	"github.com/alan-mat/atscore/internal/store"
	"github.com/alan-mat/atscore/internal/tasks"
	"github.com/alan-mat/atscore/internal/transport"
	"github.com/alan-mat/atscore/server"
	"github.com/alan-mat/atscore/worker"
	"github.com/alexflint/go-arg"
	"github.com/hibiken/asynq"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
)

const (
	ProgramName   = "ATSCORE"
	Version       = "v0.1.0"
	RepositoryUrl = "github.com/alan-mat/atscore"
)

type serveCmd struct{}

type workerCmd struct{}

type scoreCmd struct {
	Resume          string `arg:"--resume,-r,required" help:"path to the resume PDF"`
	Description     string `arg:"--description,-d" help:"job description text"`
	DescriptionFile string `arg:"--description-file,-f" help:"read the job description from a file"`
	JSON            bool   `arg:"--json" help:"print the result as JSON"`
}

type args struct {
	Server *serveCmd  `arg:"subcommand:serve" help:"start the HTTP API"`
	Worker *workerCmd `arg:"subcommand:work" help:"start the task worker"`
	Score  *scoreCmd  `arg:"subcommand:score" help:"score a single resume against a job description"`

	Config string `arg:"--config,-c" default:"atscore.yaml" help:"path to the config file"`
}

func (args) Version() string {
	return fmt.Sprintf("%s %s", ProgramName, Version)
}

func (args) Epilogue() string {
	return fmt.Sprintf("For more information visit %s", RepositoryUrl)
}

func main() {
	var args args

	p, err := arg.NewParser(arg.Config{Program: strings.ToLower(ProgramName)}, &args)
	if err != nil {
		log.Fatalf("there was an error in the definition of the Go struct: %v", err)
	}
	p.MustParse(os.Args[1:])

	if p.Subcommand() == nil {
		p.WriteUsage(os.Stdout)
		os.Exit(0)
	}

	_ = godotenv.Load()

	conf, err := config.ReadConfig(args.Config)
	if err != nil {
		log.Fatalf("failed to read config: %v", err)
	}

	level, _ := conf.SlogLevel()
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	switch cmd := p.Subcommand().(type) {
	case *serveCmd:
		err = startServer(ctx, conf)
	case *workerCmd:
		err = startWorker(ctx, conf)
	case *scoreCmd:
		err = runScore(ctx, conf, cmd)
	default:
		p.FailSubcommand("unrecognized command", p.SubcommandNames()...)
	}

	if err != nil {
		slog.Error("command failed", "err", err)
		os.Exit(1)
	}
}

func startServer(ctx context.Context, conf *config.Config) error {
	d, err := buildDeps(ctx, conf)
	if err != nil {
		return err
	}
	defer d.Close()

	rdb := newRedisClient(conf.Redis)
	defer rdb.Close()

	st, err := newStore(ctx, conf, rdb)
	if err != nil {
		return err
	}
	defer st.Close()

	queue := asynq.NewClientFromRedisClient(rdb)
	defer queue.Close()

	srv, err := server.New(server.ServerConfig{
		ListenHost:  conf.Server.ListenHost,
		ListenPort:  conf.Server.ListenPort,
		UploadDir:   conf.Server.UploadDir,
		BodyLimitMB: conf.Server.BodyLimitMB,
		MaxRetry:    conf.Worker.MaxRetry,
	}, d.pipeline, st, queue, transport.NewRedisTransport(rdb))
	if err != nil {
		return err
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			slog.Warn("server shutdown failed", "err", err)
		}
	}()

	return srv.Serve()
}

func startWorker(ctx context.Context, conf *config.Config) error {
	d, err := buildDeps(ctx, conf)
	if err != nil {
		return err
	}
	defer d.Close()

	rdb := newRedisClient(conf.Redis)
	defer rdb.Close()

	st, err := newStore(ctx, conf, rdb)
	if err != nil {
		return err
	}
	defer st.Close()

	handler := tasks.NewTaskHandler(d.pipeline, st, transport.NewRedisTransport(rdb))
	w := worker.New(worker.WorkerConfig{Workers: conf.Worker.Workers}, rdb, handler)
	return w.Start()
}

func runScore(ctx context.Context, conf *config.Config, cmd *scoreCmd) error {
	description := cmd.Description
	if cmd.DescriptionFile != "" {
		b, err := os.ReadFile(cmd.DescriptionFile)
		if err != nil {
			return fmt.Errorf("failed to read description file: %w", err)
		}
		description = string(b)
	}
	if strings.TrimSpace(description) == "" {
		return fmt.Errorf("a job description is required (--description or --description-file)")
	}

	d, err := buildDeps(ctx, conf)
	if err != nil {
		return err
	}
	defer d.Close()

	res, err := d.pipeline.Run(ctx, cmd.Resume, description)
	if err != nil {
		return err
	}

	return printResult(os.Stdout, res, cmd.JSON)
}

func newStore(ctx context.Context, conf *config.Config, rdb *redis.Client) (store.Store, error) {
	t, err := store.ParseStoreType(conf.Store.Type)
	if err != nil {
		return nil, err
	}

	switch t {
	case store.StoreTypePostgres:
		pg, err := store.NewPostgresStore(ctx, conf.Store.DatabaseURL)
		if err != nil {
			return nil, err
		}
		if err := pg.EnsureSchema(ctx); err != nil {
			pg.Close()
			return nil, err
		}
		return pg, nil
	default:
		return store.NewRedisStore(rdb), nil
	}
}
