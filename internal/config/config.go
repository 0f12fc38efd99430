package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/alan-mat/atscore/internal/extract"
	"github.com/alan-mat/atscore/internal/keyphrase"
	"github.com/alan-mat/atscore/internal/nlp"
	"github.com/alan-mat/atscore/internal/provider"
	"github.com/alan-mat/atscore/internal/store"
	"github.com/goccy/go-yaml"
)

var (
	ErrInvalidMatcher   = errors.New("invalid matcher")
	ErrInvalidLogLevel  = errors.New("invalid log level")
	ErrInvalidChunking  = errors.New("invalid chunking")
	ErrInvalidKeyphrase = errors.New("invalid keyphrase settings")
)

const (
	MatcherCosine = "cosine"
	MatcherQdrant = "qdrant"
)

type LogConfig struct {
	Level string `yaml:"level"`
}

type ServerConfig struct {
	ListenHost  string `yaml:"listen_host"`
	ListenPort  int    `yaml:"listen_port"`
	UploadDir   string `yaml:"upload_dir"`
	BodyLimitMB int    `yaml:"body_limit_mb"`
}

type WorkerConfig struct {
	Workers  int `yaml:"workers"`
	MaxRetry int `yaml:"max_retry"`
}

type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Username string `yaml:"username"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

type StoreConfig struct {
	Type        string `yaml:"type"`
	DatabaseURL string `yaml:"database_url"`
}

type VectorStoreConfig struct {
	Host       string `yaml:"host"`
	Port       int    `yaml:"port"`
	APIKey     string `yaml:"api_key"`
	UseTLS     bool   `yaml:"use_tls"`
	Collection string `yaml:"collection"`
}

type ExtractorConfig struct {
	Type        string `yaml:"type"`
	OCRProvider string `yaml:"ocr_provider"`
	OCREndpoint string `yaml:"ocr_endpoint"`
}

type EmbeddingConfig struct {
	Provider   string `yaml:"provider"`
	Model      string `yaml:"model"`
	Endpoint   string `yaml:"endpoint"`
	Dimensions int    `yaml:"dimensions"`

	Cache    bool          `yaml:"cache"`
	CacheTTL time.Duration `yaml:"cache_ttl"`
}

type ChunkConfig struct {
	MaxWords int `yaml:"max_words"`
	Overlap  int `yaml:"overlap"`
}

type KeyphraseConfig struct {
	CandidateTopN int `yaml:"candidate_top_n"`
	TargetTopN    int `yaml:"target_top_n"`
	NgramMin      int `yaml:"ngram_min"`
	NgramMax      int `yaml:"ngram_max"`
}

type PipelineConfig struct {
	Embedding  EmbeddingConfig `yaml:"embedding"`
	Chunk      ChunkConfig     `yaml:"chunk"`
	Keyphrase  KeyphraseConfig `yaml:"keyphrase"`
	MaxChunks  int             `yaml:"max_chunks"`
	Matcher    string          `yaml:"matcher"`
	Serialize  bool            `yaml:"serialize_inference"`
	Language   string          `yaml:"language"`
	StopWords  string          `yaml:"stop_words_file"`
	ExtraStops []string        `yaml:"extra_stop_words"`
}

type Config struct {
	Log         LogConfig         `yaml:"log"`
	Server      ServerConfig      `yaml:"server"`
	Worker      WorkerConfig      `yaml:"worker"`
	Redis       RedisConfig       `yaml:"redis"`
	Store       StoreConfig       `yaml:"store"`
	VectorStore VectorStoreConfig `yaml:"vector_store"`
	Extractor   ExtractorConfig   `yaml:"extractor"`
	Pipeline    PipelineConfig    `yaml:"pipeline"`
}

// ReadConfig loads path over the default configuration, so keys missing
// from the file keep their defaults and explicit zero values are kept. A
// missing file yields the default configuration.
func ReadConfig(path string) (*Config, error) {
	conf := Default()

	file, err := os.ReadFile(path)
	switch {
	case errors.Is(err, os.ErrNotExist):
		slog.Warn("config file not found, using defaults", "path", path)
	case err != nil:
		return nil, err
	default:
		if err := yaml.Unmarshal(file, conf); err != nil {
			return nil, fmt.Errorf("failed to parse config '%s': %w", path, err)
		}
	}

	if err := conf.Validate(); err != nil {
		return nil, err
	}
	return conf, nil
}

func Default() *Config {
	var conf Config
	conf.applyDefaults()
	return &conf
}

func (c *Config) applyDefaults() {
	setDefault(&c.Log.Level, "info")

	setDefault(&c.Server.ListenHost, "0.0.0.0")
	setDefault(&c.Server.ListenPort, 8000)
	setDefault(&c.Server.UploadDir, "resumes")
	setDefault(&c.Server.BodyLimitMB, 10)

	setDefault(&c.Worker.Workers, 4)
	setDefault(&c.Worker.MaxRetry, 3)

	setDefault(&c.Redis.Addr, "localhost:6379")

	setDefault(&c.Store.Type, "redis")

	setDefault(&c.VectorStore.Host, "localhost")
	setDefault(&c.VectorStore.Port, 6334)

	setDefault(&c.Extractor.Type, "pdf")
	setDefault(&c.Extractor.OCRProvider, "mistral")

	p := &c.Pipeline
	setDefault(&p.Embedding.Provider, "ollama")
	setDefault(&p.Chunk.MaxWords, nlp.DefaultMaxWords)
	setDefault(&p.Chunk.Overlap, nlp.DefaultOverlap)
	setDefault(&p.Keyphrase.CandidateTopN, keyphrase.DefaultCandidateTopN)
	setDefault(&p.Keyphrase.TargetTopN, keyphrase.DefaultTargetTopN)
	setDefault(&p.Keyphrase.NgramMin, keyphrase.DefaultNgramMin)
	setDefault(&p.Keyphrase.NgramMax, keyphrase.DefaultNgramMax)
	setDefault(&p.Matcher, MatcherCosine)
	setDefault(&p.Language, "english")
}

func setDefault[T comparable](field *T, value T) {
	var zero T
	if *field == zero {
		*field = value
	}
}

func (c *Config) Validate() error {
	if _, err := c.SlogLevel(); err != nil {
		return err
	}
	if _, err := provider.ParseEmbedderType(c.Pipeline.Embedding.Provider); err != nil {
		return err
	}
	if _, err := extract.ParseType(c.Extractor.Type); err != nil {
		return fmt.Errorf("%w: '%s'", err, c.Extractor.Type)
	}
	if c.Extractor.Type == "ocr" {
		if _, err := provider.ParseDocParserType(c.Extractor.OCRProvider); err != nil {
			return err
		}
	}
	if _, err := store.ParseStoreType(c.Store.Type); err != nil {
		return err
	}
	if c.Store.Type == "postgres" && c.Store.DatabaseURL == "" {
		return errors.New("store.database_url is required for postgres")
	}
	if c.Pipeline.Matcher != MatcherCosine && c.Pipeline.Matcher != MatcherQdrant {
		return fmt.Errorf("%w: '%s'", ErrInvalidMatcher, c.Pipeline.Matcher)
	}
	if c.Pipeline.Chunk.MaxWords < 0 || c.Pipeline.Chunk.Overlap < 0 {
		return fmt.Errorf("%w: max_words and overlap must not be negative", ErrInvalidChunking)
	}
	if c.Pipeline.Keyphrase.CandidateTopN < 0 || c.Pipeline.Keyphrase.TargetTopN < 0 {
		return fmt.Errorf("%w: top_n must not be negative", ErrInvalidKeyphrase)
	}
	kp := c.Pipeline.Keyphrase
	if kp.NgramMin < 1 || kp.NgramMax < kp.NgramMin {
		return fmt.Errorf("%w: %d..%d", keyphrase.ErrInvalidNgramRange, kp.NgramMin, kp.NgramMax)
	}
	return nil
}

func (c *Config) SlogLevel() (slog.Level, error) {
	switch strings.ToLower(c.Log.Level) {
	case "debug":
		return slog.LevelDebug, nil
	case "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return 0, fmt.Errorf("%w: '%s'", ErrInvalidLogLevel, c.Log.Level)
	}
}

// LoadStopWords resolves the configured stop-word list.
func (p PipelineConfig) LoadStopWords() (nlp.StopWords, error) {
	var (
		sw  nlp.StopWords
		err error
	)
	if p.StopWords != "" {
		sw, err = nlp.LoadStopWordsFile(p.StopWords)
	} else {
		sw, err = nlp.LoadStopWords(p.Language)
	}
	if err != nil {
		return nil, err
	}

	sw.Add(p.ExtraStops...)
	return sw, nil
}
