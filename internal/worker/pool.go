// Package worker implements the fixed-size parallel executor ("Labor")
// that runs Request objects. The pattern is the teacher's own worker-loop-
// over-channel shape (azcopy's common/parallel.Transform), generalized
// from crawl/transform items to supervisor Requests.
package worker

import (
	"context"
	"sync"

	"github.com/AmzelLab/fiesta3/internal/common"
	"github.com/AmzelLab/fiesta3/internal/request"
)

// DefaultWorkers is the default pool size ("Labor" in the original system).
const DefaultWorkers = 8

// Result is delivered to a Callback exactly once per Perform call,
// whether the request succeeded or failed.
type Result struct {
	RequestID string
	Value     any
	Err       error
}

// Callback observes the outcome of one performed Request.
type Callback func(Result)

type job struct {
	ctx context.Context
	req request.Request
	cb  Callback
}

// Pool is a fixed-size set of goroutines draining one request channel.
type Pool struct {
	logger common.Logger
	jobs   chan job
	wg     sync.WaitGroup

	closeOnce sync.Once
}

// New starts a Pool with n workers (DefaultWorkers if n <= 0).
func New(n int, logger common.Logger) *Pool {
	if n <= 0 {
		n = DefaultWorkers
	}
	if logger == nil {
		logger = common.NopLogger()
	}
	p := &Pool{
		logger: logger,
		jobs:   make(chan job, n*4),
	}
	p.wg.Add(n)
	for i := 0; i < n; i++ {
		go p.workerLoop()
	}
	return p
}

func (p *Pool) workerLoop() {
	defer p.wg.Done()
	for j := range p.jobs {
		p.runOne(j)
	}
}

func (p *Pool) runOne(j job) {
	value, err := j.req.Action()(j.ctx, j.req.Args()...)
	if err != nil {
		p.logger.Log(common.LogError, "request %s failed: %v", j.req.ID(), err)
	}
	if j.cb != nil {
		j.cb(Result{RequestID: j.req.ID(), Value: value, Err: err})
	}
}

// Perform submits req for execution. If cb is non-nil it fires exactly
// once with the request's result, on both the success and failure path.
// Ordering between independently submitted requests is not guaranteed.
func (p *Pool) Perform(ctx context.Context, req request.Request, cb Callback) {
	p.jobs <- job{ctx: ctx, req: req, cb: cb}
}

// Close stops accepting new work and waits for in-flight requests to
// finish. Safe to call once; subsequent calls are no-ops.
func (p *Pool) Close() {
	p.closeOnce.Do(func() {
		close(p.jobs)
	})
	p.wg.Wait()
}
