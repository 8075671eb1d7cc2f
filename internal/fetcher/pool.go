package fetcher

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	errs "github.com/nanyeglm/CPU-Gym-Reserve-online/pkg/errors"
	"github.com/nanyeglm/CPU-Gym-Reserve-online/pkg/extract"
	"github.com/nanyeglm/CPU-Gym-Reserve-online/pkg/logger"
	"github.com/nanyeglm/CPU-Gym-Reserve-online/pkg/models"
	"github.com/nanyeglm/CPU-Gym-Reserve-online/pkg/ratelimit"
	"github.com/nanyeglm/CPU-Gym-Reserve-online/pkg/retry"
)

// ProbeJob is one remote id to fetch and extract.
type ProbeJob struct {
	ID int64
}

// ProbeStatus classifies a finished probe.
type ProbeStatus int

const (
	// ProbeOK means a record was extracted.
	ProbeOK ProbeStatus = iota
	// ProbeNotReady means the id has no approved booking. Terminal on the
	// first attempt; there is nothing to retry.
	ProbeNotReady
	// ProbeFailed means attempts were exhausted. The id is dropped from the
	// batch result; the batch itself never fails because of it.
	ProbeFailed
)

func (s ProbeStatus) String() string {
	switch s {
	case ProbeOK:
		return "ok"
	case ProbeNotReady:
		return "not_ready"
	case ProbeFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// ProbeResult is the outcome of one probe job.
type ProbeResult struct {
	Job      ProbeJob
	Status   ProbeStatus
	Record   *models.Record
	Attempts int
	Err      error
	Duration time.Duration
}

// SiteReader is the transport surface the pool needs.
type SiteReader interface {
	Get(ctx context.Context, url string) (body []byte, status int, err error)
	OrderURL(id int64) string
}

// Pool fans fetch-then-extract pipelines out over a bounded set of workers.
// One pool serves one batch: Run (or Start/Submit/Stop) consumes it.
type Pool struct {
	numWorkers  int
	jobQueue    chan ProbeJob
	resultQueue chan ProbeResult
	wg          sync.WaitGroup
	ctx         context.Context
	cancel      context.CancelFunc
	client      SiteReader
	grammar     extract.Grammar
	limiter     ratelimit.Limiter
	retries     int
	jitter      retry.BackoffStrategy
	logger      logger.Logger
}

// Config carries the pool tunables.
type Config struct {
	Workers   int
	Retries   int
	JitterMin time.Duration
	JitterMax time.Duration
	Limiter   ratelimit.Limiter
	Grammar   extract.Grammar
	Logger    logger.Logger
}

// New creates a probe pool. ctx bounds the whole batch: cancelling it stops
// workers after their in-flight request times out on its own.
func New(ctx context.Context, client SiteReader, cfg Config) *Pool {
	log := cfg.Logger
	if log == nil {
		log = logger.GetLogger()
	}
	limiter := cfg.Limiter
	if limiter == nil {
		limiter = ratelimit.Unlimited{}
	}
	workers := cfg.Workers
	if workers <= 0 {
		workers = 1
	}

	poolCtx, cancel := context.WithCancel(ctx)

	return &Pool{
		numWorkers:  workers,
		jobQueue:    make(chan ProbeJob, workers*2),
		resultQueue: make(chan ProbeResult, workers),
		ctx:         poolCtx,
		cancel:      cancel,
		client:      client,
		grammar:     cfg.Grammar,
		limiter:     limiter,
		retries:     cfg.Retries,
		jitter:      &retry.UniformBackoff{Min: cfg.JitterMin, Max: cfg.JitterMax},
		logger:      log,
	}
}

// Start launches the workers.
func (p *Pool) Start() {
	p.logger.DebugWithFields("starting probe pool", map[string]interface{}{
		"num_workers": p.numWorkers,
	})

	for i := 0; i < p.numWorkers; i++ {
		p.wg.Add(1)
		go p.worker(i)
	}
}

// Stop closes the job queue, waits for in-flight probes, and closes the
// result queue.
func (p *Pool) Stop() {
	close(p.jobQueue)
	p.wg.Wait()
	close(p.resultQueue)
	p.cancel()
}

// Submit adds a probe job to the queue.
func (p *Pool) Submit(job ProbeJob) error {
	select {
	case p.jobQueue <- job:
		return nil
	case <-p.ctx.Done():
		return fmt.Errorf("probe pool is shutting down")
	}
}

// Results returns the result channel.
func (p *Pool) Results() <-chan ProbeResult {
	return p.resultQueue
}

// Run probes all ids and materializes the results. Order is not guaranteed
// to match the input. Individual failures never fail the batch.
func (p *Pool) Run(ids []int64) []ProbeResult {
	p.Start()

	var results []ProbeResult
	done := make(chan struct{})
	go func() {
		defer close(done)
		for r := range p.resultQueue {
			results = append(results, r)
		}
	}()

	for _, id := range ids {
		if err := p.Submit(ProbeJob{ID: id}); err != nil {
			break
		}
	}

	p.Stop()
	<-done
	return results
}

func (p *Pool) worker(id int) {
	defer p.wg.Done()

	for job := range p.jobQueue {
		select {
		case <-p.ctx.Done():
			return
		default:
		}

		result := p.processJob(job, id)

		select {
		case p.resultQueue <- result:
		case <-p.ctx.Done():
			return
		}
	}
}

// processJob probes one id with per-item retry. A transient failure or a
// malformed page consumes an attempt; a not-ready page is terminal at once.
func (p *Pool) processJob(job ProbeJob, workerID int) ProbeResult {
	start := time.Now()
	result := ProbeResult{Job: job, Status: ProbeFailed}

	var lastErr error
	for attempt := 1; attempt <= p.retries; attempt++ {
		result.Attempts = attempt

		if attempt > 1 {
			if err := retry.Wait(p.ctx, p.jitter.NextDelay(attempt)); err != nil {
				lastErr = err
				break
			}
		}

		p.limiter.Wait()

		body, status, err := p.client.Get(p.ctx, p.client.OrderURL(job.ID))
		if err != nil {
			lastErr = err
			p.logger.WarnWithFields("probe attempt failed", map[string]interface{}{
				"worker_id": workerID,
				"id":        job.ID,
				"attempt":   attempt,
				"error":     err.Error(),
			})
			if errors.Is(err, context.Canceled) {
				break
			}
			continue
		}

		if errs.IsRetryableStatusCode(status) {
			lastErr = errs.NewWithCode(errs.ErrorTypeTransient, status, "server returned status %d", status)
			continue
		}

		rec, st := p.grammar.Extract(job.ID, string(body))
		switch st {
		case extract.StatusOK:
			result.Status = ProbeOK
			result.Record = rec
			result.Duration = time.Since(start)
			return result
		case extract.StatusNotReady:
			// "No such booking exists", not "try again".
			result.Status = ProbeNotReady
			result.Duration = time.Since(start)
			return result
		case extract.StatusMalformed:
			lastErr = errs.New(errs.ErrorTypeMalformed, "required field missing for id %d", job.ID)
			p.logger.WarnWithFields("approved document missing required field", map[string]interface{}{
				"worker_id": workerID,
				"id":        job.ID,
				"attempt":   attempt,
			})
		}
	}

	result.Err = errs.New(errs.ErrorTypeFatal, "probe of id %d exhausted %d attempts: %v", job.ID, result.Attempts, lastErr)
	result.Duration = time.Since(start)
	return result
}
