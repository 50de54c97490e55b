package embedding

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
)

// CachedProvider keeps successful embeddings in Redis so repeated search queries skip the
// upstream call. Any Redis failure falls through to the wrapped provider.
type CachedProvider struct {
	next  EmbeddingProvider
	rdb   redis.Cmdable
	model string
	dims  int
	ttl   time.Duration
}

func NewCachedProvider(next EmbeddingProvider, rdb redis.Cmdable, model string, dims int, ttl time.Duration) *CachedProvider {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &CachedProvider{
		next:  next,
		rdb:   rdb,
		model: model,
		dims:  dims,
		ttl:   ttl,
	}
}

func (c *CachedProvider) Generate(ctx context.Context, text string, taskType string) (*EmbeddingResponse, error) {
	key := c.key(text, taskType)

	if raw, err := c.rdb.Get(ctx, key).Bytes(); err == nil {
		var values []float32
		if err := json.Unmarshal(raw, &values); err == nil && len(values) == c.dims {
			return &EmbeddingResponse{Embedding: EmbeddingResponseEmbedding{Values: values}}, nil
		}
	}

	res, err := c.next.Generate(ctx, text, taskType)
	if err != nil {
		return nil, err
	}

	if res != nil && len(res.Embedding.Values) == c.dims {
		if payload, err := json.Marshal(res.Embedding.Values); err == nil {
			_ = c.rdb.Set(ctx, key, payload, c.ttl).Err()
		}
	}

	return res, nil
}

func (c *CachedProvider) key(text, taskType string) string {
	sum := sha256.Sum256([]byte(c.model + "|" + taskType + "|" + text))
	return "emb:" + hex.EncodeToString(sum[:])
}
