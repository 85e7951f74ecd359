package request

import (
	"context"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Batch groups descriptors executed together.
type Batch struct {
	requests []*Request
}

// Result pairs a batched request with its outcome.
type Result struct {
	Request  *Request
	Response *Response
	Err      error
}

// NewBatch returns a batch holding reqs.
func NewBatch(reqs ...*Request) *Batch {
	b := &Batch{}
	for _, r := range reqs {
		b.Add(r)
	}
	return b
}

// Add appends r and returns the batch. Nil requests are ignored.
func (b *Batch) Add(r *Request) *Batch {
	if r != nil {
		b.requests = append(b.requests, r)
	}
	return b
}

// Len returns the number of queued requests.
func (b *Batch) Len() int { return len(b.requests) }

// Requests returns the queued requests in insertion order.
func (b *Batch) Requests() []*Request { return b.requests }

// Execute runs every request through exec with at most limit in flight
// (limit <= 0 means unbounded). A failing request does not cancel the
// others; results are returned in insertion order.
func (b *Batch) Execute(ctx context.Context, exec Executor, limit int) []Result {
	results := make([]Result, len(b.requests))
	if exec == nil {
		for i, r := range b.requests {
			results[i] = Result{Request: r, Err: ErrNoExecutor}
		}
		return results
	}

	var g errgroup.Group
	if limit > 0 {
		g.SetLimit(limit)
	}
	for i, r := range b.requests {
		g.Go(func() error {
			resp, err := exec.Do(ctx, r)
			if err != nil {
				zap.L().Debug("batched request failed", zap.String("method", r.MethodID()), zap.Error(err))
			}
			results[i] = Result{Request: r, Response: resp, Err: err}
			return nil
		})
	}
	_ = g.Wait()
	return results
}
