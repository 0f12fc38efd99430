package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/alan-mat/atscore/internal/api"
	"github.com/alan-mat/atscore/internal/config"
	"github.com/alan-mat/atscore/internal/extract"
	"github.com/alan-mat/atscore/internal/keyphrase"
	"github.com/alan-mat/atscore/internal/nlp"
	"github.com/alan-mat/atscore/internal/pipeline"
	"github.com/alan-mat/atscore/internal/provider"
	"github.com/alan-mat/atscore/internal/similarity"
	"github.com/alan-mat/atscore/internal/vector"
	"github.com/redis/go-redis/v9"
)

// deps holds the process-wide components shared by every request.
type deps struct {
	pipeline *pipeline.Pipeline
	closers  []io.Closer
}

func (d *deps) Close() error {
	var errs []error
	for _, c := range d.closers {
		errs = append(errs, c.Close())
	}
	return errors.Join(errs...)
}

func newRedisClient(conf config.RedisConfig) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:     conf.Addr,
		Username: conf.Username,
		Password: conf.Password,
		DB:       conf.DB,
	})
}

func buildDeps(ctx context.Context, conf *config.Config) (*deps, error) {
	d := &deps{}
	pc := conf.Pipeline

	embedder, err := provider.NewEmbedder(ctx, provider.EmbedderConfig{
		Type:       pc.Embedding.Provider,
		Model:      pc.Embedding.Model,
		Endpoint:   pc.Embedding.Endpoint,
		Dimensions: pc.Embedding.Dimensions,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create embedder: %w", err)
	}
	if pc.Serialize {
		embedder = provider.NewSerialEmbedder(embedder)
	}
	if pc.Embedding.Cache {
		rdb := newRedisClient(conf.Redis)
		d.closers = append(d.closers, rdb)
		embedder = provider.NewCachedEmbedder(embedder, provider.NewRedisCache(rdb, pc.Embedding.CacheTTL))
	}
	slog.Info("embedder ready", "provider", pc.Embedding.Provider, "model", provider.ModelName(embedder))

	ex, err := newExtractor(conf.Extractor)
	if err != nil {
		return nil, err
	}

	sw, err := pc.LoadStopWords()
	if err != nil {
		return nil, fmt.Errorf("failed to load stop-words: %w", err)
	}

	scorerOpts := []similarity.ScorerOption{
		similarity.WithChunking(pc.Chunk.MaxWords, pc.Chunk.Overlap),
		similarity.WithMaxChunks(pc.MaxChunks),
	}
	if pc.Matcher == config.MatcherQdrant {
		vs, err := vector.NewStore(vector.StoreConfig{
			Type:   "qdrant",
			Host:   conf.VectorStore.Host,
			Port:   conf.VectorStore.Port,
			APIKey: conf.VectorStore.APIKey,
			UseTLS: conf.VectorStore.UseTLS,
		})
		if err != nil {
			return nil, err
		}
		d.closers = append(d.closers, vs)
		scorerOpts = append(scorerOpts, similarity.WithMatcher(vector.NewQdrantMatcher(vs, conf.VectorStore.Collection)))
	}

	kp, err := keyphrase.NewExtractor(embedder, sw,
		keyphrase.WithNgramRange(pc.Keyphrase.NgramMin, pc.Keyphrase.NgramMax),
		keyphrase.WithTopN(pc.Keyphrase.CandidateTopN, pc.Keyphrase.TargetTopN),
	)
	if err != nil {
		return nil, err
	}

	d.pipeline = pipeline.New(
		ex,
		nlp.NewNormalizer(sw),
		similarity.NewScorer(embedder, scorerOpts...),
		kp,
	)
	return d, nil
}

func newExtractor(conf config.ExtractorConfig) (extract.Extractor, error) {
	t, err := extract.ParseType(conf.Type)
	if err != nil {
		return nil, err
	}

	switch t {
	case extract.TypeOCR:
		parser, err := provider.NewDocParser(conf.OCRProvider, conf.OCREndpoint)
		if err != nil {
			return nil, err
		}
		return extract.NewOCRExtractor(parser), nil
	default:
		return extract.NewPDFExtractor(), nil
	}
}

func printResult(w io.Writer, res api.ScoreResult, asJSON bool) error {
	if asJSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(res)
	}

	fmt.Fprintf(w, "ATS score: %.2f\n", res.Score)
	if len(res.MissingKeywords) == 0 {
		fmt.Fprintln(w, "Missing keywords: none")
		return nil
	}
	fmt.Fprintf(w, "Missing keywords: %s\n", strings.Join(res.MissingKeywords, ", "))
	return nil
}
