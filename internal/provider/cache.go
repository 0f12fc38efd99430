package provider

import (
	"context"
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"time"

	"github.com/alan-mat/atscore/internal/api"
	"github.com/redis/go-redis/v9"
)

const (
	cacheKeyPrefix  = "atscore:emb:"
	DefaultCacheTTL = 7 * 24 * time.Hour
)

var ErrCorruptCacheEntry = errors.New("corrupt embedding cache entry")

// Cache stores vectors by key. Get returns one entry per key, nil on a miss.
type Cache interface {
	Get(ctx context.Context, keys []string) ([][]float32, error)
	Set(ctx context.Context, keys []string, values [][]float32) error
}

// CachedEmbedder serves previously computed chunk vectors from a Cache and
// only sends the misses to the wrapped embedder. Cache failures are logged
// and never fail the call.
type CachedEmbedder struct {
	inner Embedder
	cache Cache
	model string
}

func NewCachedEmbedder(e Embedder, c Cache) *CachedEmbedder {
	return &CachedEmbedder{
		inner: e,
		cache: c,
		model: ModelName(e),
	}
}

func (c *CachedEmbedder) EmbedDocuments(ctx context.Context, docs []*api.EmbedDocumentRequest) ([]*api.DocumentEmbedding, error) {
	keys := make([]string, 0, api.Len(docs))
	for _, doc := range docs {
		for _, chunk := range doc.Chunks {
			keys = append(keys, c.key(chunk))
		}
	}

	cached, err := c.cache.Get(ctx, keys)
	if err != nil || len(cached) != len(keys) {
		slog.Warn("embedding cache lookup failed", "err", err)
		cached = make([][]float32, len(keys))
	}

	missing := &api.EmbedDocumentRequest{Title: "cache-miss"}
	missingIdx := make([]int, 0)
	for i := range keys {
		if cached[i] == nil {
			missing.Chunks = append(missing.Chunks, chunkAt(docs, i))
			missingIdx = append(missingIdx, i)
		}
	}

	if len(missingIdx) > 0 {
		res, err := c.inner.EmbedDocuments(ctx, []*api.EmbedDocumentRequest{missing})
		if err != nil {
			return nil, err
		}
		if len(res) != 1 || len(res[0].Values) != len(missingIdx) {
			return nil, fmt.Errorf("embedder returned an unexpected result for %d texts", len(missingIdx))
		}

		newKeys := make([]string, 0, len(missingIdx))
		for j, i := range missingIdx {
			cached[i] = res[0].Values[j]
			newKeys = append(newKeys, keys[i])
		}
		if err := c.cache.Set(ctx, newKeys, res[0].Values); err != nil {
			slog.Warn("embedding cache store failed", "err", err)
		}
	}

	out := make([]*api.DocumentEmbedding, 0, len(docs))
	pos := 0
	for _, doc := range docs {
		out = append(out, &api.DocumentEmbedding{
			Title:  doc.Title,
			Chunks: doc.Chunks,
			Values: cached[pos : pos+len(doc.Chunks)],
		})
		pos += len(doc.Chunks)
	}
	return out, nil
}

func (c *CachedEmbedder) GetDimensions() uint {
	return c.inner.GetDimensions()
}

func (c *CachedEmbedder) ModelName() string {
	return c.model
}

func (c *CachedEmbedder) key(text string) string {
	sum := sha256.Sum256([]byte(c.model + "\x00" + text))
	return cacheKeyPrefix + hex.EncodeToString(sum[:])
}

func chunkAt(docs []*api.EmbedDocumentRequest, i int) string {
	for _, doc := range docs {
		if i < len(doc.Chunks) {
			return doc.Chunks[i]
		}
		i -= len(doc.Chunks)
	}
	return ""
}

type RedisCache struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewRedisCache(rdb *redis.Client, ttl time.Duration) *RedisCache {
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}
	return &RedisCache{rdb: rdb, ttl: ttl}
}

func (r *RedisCache) Get(ctx context.Context, keys []string) ([][]float32, error) {
	if len(keys) == 0 {
		return nil, nil
	}

	vals, err := r.rdb.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, err
	}

	out := make([][]float32, len(keys))
	for i, v := range vals {
		s, ok := v.(string)
		if !ok {
			continue
		}
		vec, err := DecodeVector([]byte(s))
		if err != nil {
			slog.Debug("skipping cache entry", "key", keys[i], "err", err)
			continue
		}
		out[i] = vec
	}
	return out, nil
}

func (r *RedisCache) Set(ctx context.Context, keys []string, values [][]float32) error {
	if len(keys) != len(values) {
		return fmt.Errorf("cache set: %d keys for %d values", len(keys), len(values))
	}

	pipe := r.rdb.Pipeline()
	for i, k := range keys {
		pipe.Set(ctx, k, EncodeVector(values[i]), r.ttl)
	}
	_, err := pipe.Exec(ctx)
	return err
}

// EncodeVector packs v as little-endian float32 values.
func EncodeVector(v []float32) []byte {
	buf := make([]byte, 4*len(v))
	for i, f := range v {
		binary.LittleEndian.PutUint32(buf[4*i:], math.Float32bits(f))
	}
	return buf
}

func DecodeVector(b []byte) ([]float32, error) {
	if len(b)%4 != 0 {
		return nil, ErrCorruptCacheEntry
	}
	v := make([]float32, len(b)/4)
	for i := range v {
		v[i] = math.Float32frombits(binary.LittleEndian.Uint32(b[4*i:]))
	}
	return v, nil
}
