package diagnosis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/reponseashimwe/ml-pipeline-database/internal/domain"
	"github.com/reponseashimwe/ml-pipeline-database/internal/store"

	"go.uber.org/zap"
)

const cacheKeyPrefix = "classifier:stunting:"

// CachedClassifier memoizes a deterministic classifier in a KV store.
// Cache failures fall through to the wrapped classifier; classifier errors are not cached.
type CachedClassifier struct {
	next   Classifier
	kv     store.KV
	ttl    time.Duration
	logger *zap.Logger
}

func NewCachedClassifier(next Classifier, kv store.KV, ttl time.Duration, logger *zap.Logger) *CachedClassifier {
	return &CachedClassifier{next: next, kv: kv, ttl: ttl, logger: logger}
}

func cacheKey(in domain.ClinicalInput) string {
	return fmt.Sprintf("%s%s:%d:%g:%g", cacheKeyPrefix, in.Gender, in.AgeMonths, in.BodyLengthCm, in.BodyWeightKg)
}

func (c *CachedClassifier) Classify(ctx context.Context, in domain.ClinicalInput) (domain.StuntingStatus, error) {
	key := cacheKey(in)

	cached, err := c.kv.Get(ctx, key)
	switch {
	case err == nil:
		if status, perr := domain.ParseStuntingStatus(cached); perr == nil {
			return status, nil
		}
		c.logger.Warn("Ignoring malformed classifier cache entry", zap.String("key", key))
	case !errors.Is(err, store.ErrMiss):
		c.logger.Warn("Classifier cache read failed", zap.String("key", key), zap.Error(err))
	}

	status, err := c.next.Classify(ctx, in)
	if err != nil {
		return "", err
	}

	if err := c.kv.Set(ctx, key, string(status), c.ttl); err != nil {
		c.logger.Warn("Classifier cache write failed", zap.String("key", key), zap.Error(err))
	}
	return status, nil
}
