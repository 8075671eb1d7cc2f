package sync

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/nanyeglm/CPU-Gym-Reserve-online/pkg/logger"
)

// CycleReport is the observable outcome of one poll cycle. Tests assert on
// these instead of sleeping wall-clock time.
type CycleReport struct {
	Start    time.Time
	Duration time.Duration
	Inserted int
	Pruned   int
	NotReady int
	Failed   int
	Swept    int
	Err      error
}

// Poller drives the engine on a fixed cadence. Cycles never overlap and a
// failing cycle never terminates the loop: the error is reported and the
// next tick proceeds.
type Poller struct {
	engine   *Engine
	interval time.Duration
	reports  chan CycleReport
	logger   logger.Logger

	mu      sync.Mutex
	cancel  context.CancelFunc
	done    chan struct{}
	running bool
}

// NewPoller creates a poller around the engine.
func NewPoller(engine *Engine, interval time.Duration, log logger.Logger) *Poller {
	if log == nil {
		log = logger.GetLogger()
	}
	return &Poller{
		engine:   engine,
		interval: interval,
		reports:  make(chan CycleReport, 8),
		logger:   log,
	}
}

// Reports returns the cycle outcome channel. Slow consumers lose reports
// rather than blocking the loop.
func (p *Poller) Reports() <-chan CycleReport {
	return p.reports
}

// Start launches the background loop. The first cycle runs immediately.
func (p *Poller) Start(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.running {
		return fmt.Errorf("poller already running")
	}

	loopCtx, cancel := context.WithCancel(ctx)
	p.cancel = cancel
	p.done = make(chan struct{})
	p.running = true

	go p.loop(loopCtx)

	p.logger.InfoWithFields("poller started", map[string]interface{}{
		"interval": p.interval,
	})
	return nil
}

// Stop cancels the loop and waits for the in-flight cycle to finish. Fetches
// already in flight terminate via their own timeouts.
func (p *Poller) Stop() {
	p.mu.Lock()
	if !p.running {
		p.mu.Unlock()
		return
	}
	cancel, done := p.cancel, p.done
	p.running = false
	p.mu.Unlock()

	cancel()
	<-done
	p.logger.Info("poller stopped")
}

func (p *Poller) loop(ctx context.Context) {
	defer close(p.done)

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	p.cycle(ctx)

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			p.cycle(ctx)
		}
	}
}

// cycle runs one reconcile + sweep pass, isolating any failure.
func (p *Poller) cycle(ctx context.Context) {
	defer func() {
		if r := recover(); r != nil {
			p.logger.ErrorWithFields("poll cycle panicked", map[string]interface{}{
				"panic": fmt.Sprintf("%v", r),
			})
			p.report(CycleReport{Err: fmt.Errorf("cycle panic: %v", r)})
		}
	}()

	if ctx.Err() != nil {
		return
	}

	report, err := p.engine.Reconcile(ctx)
	if err != nil {
		// Logged inside the engine; the loop continues on the next tick.
		p.report(report)
		return
	}

	swept, err := p.engine.Sweep(ctx)
	report.Swept = swept
	if err != nil {
		report.Err = err
	}

	logger.LogCycle(report.Inserted, report.Pruned, report.Swept, report.Err)
	p.report(report)
}

func (p *Poller) report(r CycleReport) {
	select {
	case p.reports <- r:
	default:
	}
}
