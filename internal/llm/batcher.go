package llm

import (
	"context"
	"fmt"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"deepcli/internal/errors"
	"deepcli/internal/logging"
	"deepcli/internal/performance"
)

// Batch window defaults. A flush fires when the queue reaches MaxBatchSize
// or when BatchTimeout elapses after the first enqueue, whichever is first.
const (
	DefaultMaxBatchSize = 5
	DefaultBatchTimeout = 100 * time.Millisecond
)

// BatcherConfig tunes the batching window and the retry policy applied to
// each request in a flushed batch.
type BatcherConfig struct {
	MaxBatchSize int
	BatchTimeout time.Duration
	Retry        errors.RetryConfig
	CacheSize    int
	CacheTTL     time.Duration
	// RateLimit caps outgoing requests per second. Zero disables limiting.
	RateLimit rate.Limit
}

// DefaultBatcherConfig returns the standard batching window and retry policy.
func DefaultBatcherConfig() BatcherConfig {
	return BatcherConfig{
		MaxBatchSize: DefaultMaxBatchSize,
		BatchTimeout: DefaultBatchTimeout,
		Retry:        errors.DefaultRetryConfig(),
	}
}

func (c *BatcherConfig) applyDefaults() {
	if c.MaxBatchSize <= 0 {
		c.MaxBatchSize = DefaultMaxBatchSize
	}
	if c.BatchTimeout <= 0 {
		c.BatchTimeout = DefaultBatchTimeout
	}
	if c.Retry.MaxAttempts <= 0 {
		c.Retry = errors.DefaultRetryConfig()
	}
}

type batchResult struct {
	response *Response
	err      error
}

type pendingRequest struct {
	ctx    context.Context
	req    Request
	cacheK string
	done   chan batchResult
}

// Batcher coalesces completion requests into micro-batches. Requests queue
// until the batch fills or the window timer fires; each batch executes its
// requests concurrently with independent results. Batchers are independent:
// two Batcher instances never share a queue.
type Batcher struct {
	config  BatcherConfig
	client  *Client
	cache   *ResponseCache
	breaker *errors.CircuitBreaker
	limiter *rate.Limiter
	logger  logging.Logger
	monitor *performance.Monitor

	mu    sync.Mutex
	queue []*pendingRequest
	timer *time.Timer
}

// NewBatcher builds a Batcher around client. monitor may be nil.
func NewBatcher(config BatcherConfig, client *Client, logger logging.Logger, monitor *performance.Monitor) (*Batcher, error) {
	config.applyDefaults()
	cache, err := NewResponseCache(config.CacheSize, config.CacheTTL, monitor)
	if err != nil {
		return nil, err
	}
	b := &Batcher{
		config:  config,
		client:  client,
		cache:   cache,
		breaker: errors.NewCircuitBreaker("llm", errors.DefaultCircuitBreakerConfig()),
		logger:  logging.OrNop(logger),
		monitor: monitor,
	}
	if config.RateLimit > 0 {
		b.limiter = rate.NewLimiter(config.RateLimit, config.MaxBatchSize)
	}
	return b, nil
}

// Query enqueues a completion request and blocks until its batch executes.
// Identical requests are served from the response cache without queueing.
func (b *Batcher) Query(ctx context.Context, req Request) (*Response, error) {
	key := b.cache.Key(req)
	if cached := b.cache.Get(key); cached != nil {
		return cached, nil
	}

	pending := &pendingRequest{
		ctx:    ctx,
		req:    req,
		cacheK: key,
		done:   make(chan batchResult, 1),
	}

	b.enqueue(pending)

	select {
	case result := <-pending.done:
		return result.response, result.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (b *Batcher) enqueue(pending *pendingRequest) {
	b.mu.Lock()
	b.queue = append(b.queue, pending)
	size := len(b.queue)

	if size >= b.config.MaxBatchSize {
		batch := b.takeBatchLocked()
		b.mu.Unlock()
		go b.runBatch(batch)
		return
	}
	if size == 1 {
		b.timer = time.AfterFunc(b.config.BatchTimeout, b.flushOnTimer)
	}
	b.mu.Unlock()
}

func (b *Batcher) flushOnTimer() {
	b.mu.Lock()
	batch := b.takeBatchLocked()
	b.mu.Unlock()
	if len(batch) > 0 {
		b.runBatch(batch)
	}
}

// takeBatchLocked drains up to MaxBatchSize requests and re-arms the window
// timer when requests remain. Caller holds b.mu.
func (b *Batcher) takeBatchLocked() []*pendingRequest {
	if b.timer != nil {
		b.timer.Stop()
		b.timer = nil
	}
	n := len(b.queue)
	if n > b.config.MaxBatchSize {
		n = b.config.MaxBatchSize
	}
	batch := b.queue[:n:n]
	b.queue = append([]*pendingRequest(nil), b.queue[n:]...)
	if len(b.queue) > 0 {
		b.timer = time.AfterFunc(b.config.BatchTimeout, b.flushOnTimer)
	}
	return batch
}

func (b *Batcher) runBatch(batch []*pendingRequest) {
	b.logger.Debug("flushing batch of %d request(s)", len(batch))
	var wg sync.WaitGroup
	for _, pending := range batch {
		wg.Add(1)
		go func(p *pendingRequest) {
			defer wg.Done()
			defer func() {
				if r := recover(); r != nil {
					p.done <- batchResult{err: fmt.Errorf("batch execution panic: %v", r)}
				}
			}()
			resp, err := b.executeSingle(p.ctx, p.req)
			if err == nil {
				b.cache.Put(p.cacheK, resp)
			}
			p.done <- batchResult{response: resp, err: err}
		}(pending)
	}
	wg.Wait()
}

// executeSingle runs one request with rate limiting, circuit breaking and
// transient-error retry.
func (b *Batcher) executeSingle(ctx context.Context, req Request) (*Response, error) {
	resp, err := errors.RetryWithResultAndLog(ctx, b.config.Retry, func(ctx context.Context) (*Response, error) {
		if b.limiter != nil {
			if err := b.limiter.Wait(ctx); err != nil {
				return nil, err
			}
		}
		return errors.ExecuteFunc(b.breaker, ctx, func(ctx context.Context) (*Response, error) {
			return b.client.Complete(ctx, req)
		})
	}, b.logger)
	if b.monitor != nil {
		b.monitor.RecordUpstream(err == nil)
	}
	return resp, err
}

// Cache exposes the underlying response cache.
func (b *Batcher) Cache() *ResponseCache { return b.cache }

// PendingCount reports queued requests not yet flushed.
func (b *Batcher) PendingCount() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.queue)
}
