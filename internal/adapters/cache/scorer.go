// Package cache memoizes scorer verdicts for a limited time
package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"io"
	"time"

	"go.uber.org/zap"

	"github.com/mikey/phishlens/internal/core"
)

// Scorer is a core.Scorer that answers repeated inputs from a MemoryCache.
// Failed calls are never cached.
type Scorer struct {
	next   core.Scorer
	cache  *MemoryCache
	ttl    time.Duration
	logger *zap.Logger
}

// NewScorer wraps next with a cache holding verdicts for ttl
func NewScorer(next core.Scorer, cache *MemoryCache, ttl time.Duration, logger *zap.Logger) *Scorer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Scorer{
		next:   next,
		cache:  cache,
		ttl:    ttl,
		logger: logger,
	}
}

// ScoreURL implements core.Scorer
func (s *Scorer) ScoreURL(ctx context.Context, url string) (core.AnalysisResult, error) {
	return s.cached("url:"+url, func() (core.AnalysisResult, error) {
		return s.next.ScoreURL(ctx, url)
	})
}

// ScoreEmail implements core.Scorer
func (s *Scorer) ScoreEmail(ctx context.Context, email core.EmailRecord) (core.AnalysisResult, error) {
	return s.cached(emailKey(email), func() (core.AnalysisResult, error) {
		return s.next.ScoreEmail(ctx, email)
	})
}

func (s *Scorer) cached(key string, score func() (core.AnalysisResult, error)) (core.AnalysisResult, error) {
	if result, ok := s.cache.Get(key); ok {
		s.logger.Debug("Cache hit", zap.String("key", key))
		return result, nil
	}

	result, err := score()
	if err != nil {
		return result, err
	}
	s.cache.Set(key, result, s.ttl)
	return result, nil
}

// Close stops the cache sweep and releases the wrapped scorer
func (s *Scorer) Close() error {
	s.cache.Stop()
	if closer, ok := s.next.(io.Closer); ok {
		return closer.Close()
	}
	return nil
}

// emailKey hashes the fields so bodies do not end up as map keys
func emailKey(email core.EmailRecord) string {
	h := sha256.New()
	for _, field := range []string{email.Sender, email.Subject, email.Body} {
		h.Write([]byte(field))
		h.Write([]byte{0})
	}
	return "email:" + hex.EncodeToString(h.Sum(nil))
}
