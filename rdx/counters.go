package rdx

import (
	"context"
	"fmt"
	"log"
	"strconv"
	"strings"
)

const viewPrefix = "views:recipe:"

// ViewSink receives buffered view counts when they are flushed.
type ViewSink interface {
	AddViews(ctx context.Context, slug string, n int) error
}

// IncrView buffers one view of the recipe in Redis.
func (c *Cache) IncrView(ctx context.Context, slug string) bool {
	if err := c.client.Incr(ctx, viewPrefix+slug).Err(); err != nil {
		log.Printf("[rdx] INCR views for %s: %v", slug, err)
		return false
	}
	return true
}

// FlushViews moves every buffered counter into sink. A counter is removed
// with GETDEL before it is written, so views recorded while flushing land
// in a fresh counter for the next run.
func (c *Cache) FlushViews(ctx context.Context, sink ViewSink) (int, error) {
	var (
		cursor  uint64
		flushed int
	)
	for {
		keys, next, err := c.client.Scan(ctx, cursor, viewPrefix+"*", 200).Result()
		if err != nil {
			return flushed, fmt.Errorf("scan view counters: %w", err)
		}
		for _, key := range keys {
			raw, err := c.client.GetDel(ctx, key).Result()
			if err != nil {
				log.Printf("[rdx] GETDEL %s: %v", key, err)
				continue
			}
			n, err := strconv.Atoi(raw)
			if err != nil || n <= 0 {
				continue
			}
			slug := strings.TrimPrefix(key, viewPrefix)
			if err := sink.AddViews(ctx, slug, n); err != nil {
				log.Printf("[rdx] flush %d views for %s: %v", n, slug, err)
				// put them back so the next run retries
				c.client.IncrBy(ctx, key, int64(n))
				continue
			}
			flushed++
		}
		cursor = next
		if cursor == 0 {
			return flushed, nil
		}
	}
}
