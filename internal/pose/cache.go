package pose

import (
	"context"
	"fmt"
	"os"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/zeebo/blake3"

	xerrors "github.com/felixgeelhaar/exlogic/internal/errors"
	"github.com/felixgeelhaar/exlogic/internal/landmark"
)

// DefaultCacheSize is the number of detections kept by NewCachingEstimator
// when size is not positive.
const DefaultCacheSize = 256

// KeySource is implemented by estimators whose answer is not a function of
// the image bytes alone. CacheInput returns the bytes that fully determine
// the detection for imagePath.
type KeySource interface {
	CacheInput(imagePath string) ([]byte, error)
}

type cached struct {
	set        landmark.Set
	notPresent bool
}

// CachingEstimator memoizes an Estimator by the content its answer depends
// on: the image bytes, or the estimator's own KeySource input. "No pose"
// answers are cached too; other failures are not.
type CachingEstimator struct {
	next  Estimator
	cache *lru.Cache[[32]byte, cached]
}

// NewCachingEstimator wraps next with an LRU cache of the given size.
func NewCachingEstimator(next Estimator, size int) (*CachingEstimator, error) {
	if size <= 0 {
		size = DefaultCacheSize
	}
	cache, err := lru.New[[32]byte, cached](size)
	if err != nil {
		return nil, fmt.Errorf("create detection cache: %w", err)
	}
	return &CachingEstimator{next: next, cache: cache}, nil
}

func (c *CachingEstimator) input(imagePath string) ([]byte, error) {
	if ks, ok := c.next.(KeySource); ok {
		return ks.CacheInput(imagePath)
	}
	return os.ReadFile(imagePath)
}

// Detect implements Estimator.
func (c *CachingEstimator) Detect(ctx context.Context, imagePath string) (landmark.Set, error) {
	data, err := c.input(imagePath)
	if err != nil {
		// Let the wrapped estimator report the problem in its own terms.
		return c.next.Detect(ctx, imagePath)
	}
	key := blake3.Sum256(data)

	if hit, ok := c.cache.Get(key); ok {
		if hit.notPresent {
			return landmark.Set{}, xerrors.NewPoseNotDetectedError(imagePath)
		}
		return hit.set, nil
	}

	set, err := c.next.Detect(ctx, imagePath)
	switch {
	case err == nil:
		c.cache.Add(key, cached{set: set})
	case xerrors.HasCode(err, xerrors.ErrCodePoseNotDetected):
		c.cache.Add(key, cached{notPresent: true})
	}
	return set, err
}

// Len reports the number of cached detections.
func (c *CachingEstimator) Len() int {
	return c.cache.Len()
}
