package evaluation

import (
	"context"
	"sync/atomic"
	"time"

	gocache "github.com/patrickmn/go-cache"

	"sigs.k8s.io/multiobjective/pkg/multiobjective/framework"
)

// Cache memoizes the evaluations of a problem keyed by genome. Genomes that
// do not implement framework.Keyer are always evaluated.
type Cache struct {
	problem framework.Problem
	cache   *gocache.Cache

	hits   atomic.Int64
	misses atomic.Int64
}

var _ framework.Problem = &Cache{}

type cachedResult struct {
	value     framework.ObjectiveSpacePoint
	violation float64
}

// NewCache wraps problem. ttl <= 0 keeps entries for the whole run.
func NewCache(problem framework.Problem, ttl time.Duration) *Cache {
	expiration, cleanup := gocache.NoExpiration, time.Duration(0)
	if ttl > 0 {
		expiration, cleanup = ttl, 2*ttl
	}
	return &Cache{
		problem: problem,
		cache:   gocache.New(expiration, cleanup),
	}
}

func (c *Cache) Name() string {
	return c.problem.Name()
}

func (c *Cache) NumberOfObjectives() int {
	return c.problem.NumberOfObjectives()
}

func (c *Cache) Directions() framework.Directions {
	return c.problem.Directions()
}

func (c *Cache) Evaluate(ctx context.Context, g framework.Genome) (framework.ObjectiveSpacePoint, float64, error) {
	keyer, ok := g.(framework.Keyer)
	if !ok {
		return c.problem.Evaluate(ctx, g)
	}
	key := keyer.Key()

	if v, found := c.cache.Get(key); found {
		c.hits.Add(1)
		r := v.(cachedResult)
		return append(framework.ObjectiveSpacePoint(nil), r.value...), r.violation, nil
	}

	c.misses.Add(1)
	value, violation, err := c.problem.Evaluate(ctx, g)
	if err != nil {
		return nil, 0, err
	}
	if framework.ValidateEvaluation(value, violation) == nil {
		c.cache.SetDefault(key, cachedResult{
			value:     append(framework.ObjectiveSpacePoint(nil), value...),
			violation: violation,
		})
	}
	return value, violation, nil
}

// Hits is the number of evaluations served from the cache.
func (c *Cache) Hits() int64 {
	return c.hits.Load()
}

// Misses is the number of evaluations forwarded to the problem.
func (c *Cache) Misses() int64 {
	return c.misses.Load()
}

// Len is the number of cached results.
func (c *Cache) Len() int {
	return c.cache.ItemCount()
}
