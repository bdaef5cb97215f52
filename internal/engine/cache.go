package engine

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/hscode-tools/hscode-engine/internal/cache"
	"github.com/hscode-tools/hscode-engine/internal/observability"
)

// CacheStats reports result cache effectiveness counters.
type CacheStats struct {
	Hits    int64 `json:"hits"`
	Misses  int64 `json:"misses"`
	Stored  int64 `json:"stored"`
	Dropped int64 `json:"dropped"`
}

type cacheWrite struct {
	key     string
	payload []byte
}

// resultCache wraps a cache.Client with response encoding and a single
// writer goroutine, so the request path never blocks on a slow backend.
// Reads stay synchronous. A nil client disables caching and turns every
// method into a no-op.
type resultCache struct {
	client cache.Client
	ttl    time.Duration
	logger *observability.Logger

	writes chan cacheWrite
	done   chan struct{}
	mu     sync.RWMutex
	closed bool
	once   sync.Once

	hits    atomic.Int64
	misses  atomic.Int64
	stored  atomic.Int64
	dropped atomic.Int64
}

func newResultCache(client cache.Client, ttl time.Duration, logger *observability.Logger) *resultCache {
	rc := &resultCache{client: client, ttl: ttl, logger: logger}
	if client == nil {
		return rc
	}
	rc.writes = make(chan cacheWrite, 64)
	rc.done = make(chan struct{})
	go rc.writeLoop()
	return rc
}

func (rc *resultCache) writeLoop() {
	defer close(rc.done)
	for w := range rc.writes {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		if err := rc.client.Set(ctx, w.key, w.payload, rc.ttl); err != nil {
			rc.logger.Debug().Err(err).Str("key", w.key).Msg("Result cache write failed")
		} else {
			rc.stored.Add(1)
		}
		cancel()
	}
}

func (rc *resultCache) get(ctx context.Context, key string) (*Response, bool) {
	if rc.client == nil {
		return nil, false
	}
	raw, err := rc.client.Get(ctx, key)
	if err != nil {
		if !errors.Is(err, cache.ErrCacheMiss) {
			rc.logger.Debug().Err(err).Str("key", key).Msg("Result cache read failed")
		}
		rc.misses.Add(1)
		return nil, false
	}
	var resp Response
	if err := json.Unmarshal(raw, &resp); err != nil {
		rc.logger.Warn().Err(err).Str("key", key).Msg("Dropping undecodable cache entry")
		_ = rc.client.Delete(ctx, key)
		rc.misses.Add(1)
		return nil, false
	}
	rc.hits.Add(1)
	return &resp, true
}

// put queues the response for caching. Cancelled requests are not cached;
// their responses may be partial. When the writer falls behind, the write is
// dropped rather than blocking the search.
func (rc *resultCache) put(ctx context.Context, key string, resp *Response) {
	if rc.client == nil || ctx.Err() != nil {
		return
	}
	payload, err := json.Marshal(resp)
	if err != nil {
		rc.logger.Warn().Err(err).Msg("Result cache encode failed")
		return
	}
	rc.mu.RLock()
	defer rc.mu.RUnlock()
	if rc.closed {
		return
	}
	select {
	case rc.writes <- cacheWrite{key: key, payload: payload}:
	default:
		rc.dropped.Add(1)
		rc.logger.Debug().Str("key", key).Msg("Result cache writer saturated, dropping write")
	}
}

// invalidate removes every cached search response. The prefix matches the
// keys cache.SearchKey produces.
func (rc *resultCache) invalidate(ctx context.Context) {
	if rc.client == nil {
		return
	}
	if err := rc.client.DeleteByPrefix(ctx, cache.SearchKeyPrefix); err != nil {
		rc.logger.Warn().Err(err).Msg("Result cache invalidation failed")
	}
}

func (rc *resultCache) stats() CacheStats {
	return CacheStats{
		Hits:    rc.hits.Load(),
		Misses:  rc.misses.Load(),
		Stored:  rc.stored.Load(),
		Dropped: rc.dropped.Load(),
	}
}

// close drains the writer. Safe to call more than once; pending writes are
// flushed before it returns.
func (rc *resultCache) close() {
	if rc.client == nil {
		return
	}
	rc.once.Do(func() {
		rc.mu.Lock()
		rc.closed = true
		rc.mu.Unlock()
		close(rc.writes)
		<-rc.done
	})
}
