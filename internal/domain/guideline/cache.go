package guideline

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// LoaderFunc fetches raw guideline rows from the external source.
type LoaderFunc func(ctx context.Context) ([][]string, error)

// Cache holds the parsed guideline snapshot and refreshes it from the
// loader at most once per TTL. A failed reload keeps the previous snapshot
// (served stale); if no load has ever succeeded, callers get an empty rule
// set and downstream treats that as "no recommendation", never as fatal.
type Cache struct {
	mu       sync.Mutex
	load     LoaderFunc
	ttl      time.Duration
	now      func() time.Time
	rules    []Rule
	loadedAt time.Time
	log      zerolog.Logger
}

func NewCache(load LoaderFunc, ttl time.Duration, logger zerolog.Logger) *Cache {
	return &Cache{
		load: load,
		ttl:  ttl,
		now:  time.Now,
		log:  logger,
	}
}

// Rules returns the current snapshot, reloading first when the TTL has
// elapsed. The returned slice is shared and must not be mutated.
func (c *Cache) Rules(ctx context.Context) []Rule {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.loadedAt.IsZero() && c.now().Sub(c.loadedAt) < c.ttl {
		return c.rules
	}

	rows, err := c.load(ctx)
	if err != nil {
		// Keep serving the stale snapshot; the timestamp stays put so the
		// next call retries the loader.
		c.log.Warn().Err(err).Msg("guideline reload failed, serving cached snapshot")
		return c.rules
	}

	c.rules = ParseRows(rows)
	c.loadedAt = c.now()
	c.log.Debug().Int("rules", len(c.rules)).Msg("guideline snapshot refreshed")
	return c.rules
}

// DistinctAntibiotics returns the sorted unique drug names present in the
// guideline table, for entry-form drop-downs.
func (c *Cache) DistinctAntibiotics(ctx context.Context) []string {
	seen := make(map[string]bool)
	var names []string
	for _, r := range c.Rules(ctx) {
		if !seen[r.Antibiotic] {
			seen[r.Antibiotic] = true
			names = append(names, r.Antibiotic)
		}
	}
	sort.Strings(names)
	return names
}
