package sync

import (
	"context"
	"time"

	"github.com/nanyeglm/CPU-Gym-Reserve-online/internal/fetcher"
	"github.com/nanyeglm/CPU-Gym-Reserve-online/pkg/config"
	"github.com/nanyeglm/CPU-Gym-Reserve-online/pkg/extract"
	"github.com/nanyeglm/CPU-Gym-Reserve-online/pkg/logger"
	"github.com/nanyeglm/CPU-Gym-Reserve-online/pkg/models"
	"github.com/nanyeglm/CPU-Gym-Reserve-online/pkg/ratelimit"
	"github.com/nanyeglm/CPU-Gym-Reserve-online/pkg/store"
	"github.com/nanyeglm/CPU-Gym-Reserve-online/pkg/venues"
)

// Storage is the port the engine mutates. *store.Store implements it.
type Storage interface {
	FindMaxID(ctx context.Context, name store.Name) (int64, bool, error)
	Insert(ctx context.Context, name store.Name, rec models.Record) (bool, error)
	DeleteOlderThan(ctx context.Context, name store.Name, date string) (int64, error)
	DeleteBoth(ctx context.Context, id int64) error
	ListIDs(ctx context.Context, name store.Name) ([]int64, error)
}

// Engine runs discovery and cancellation sweeps against the remote site.
type Engine struct {
	client  fetcher.SiteReader
	storage Storage
	venues  *venues.Map
	grammar extract.Grammar
	limiter ratelimit.Limiter
	cfg     config.SyncConfig
	tz      *time.Location
	logger  logger.Logger
}

// NewEngine wires the sync engine. The time zone pins "today" for age
// pruning; date boundaries must not flap with the host clock's zone.
func NewEngine(client fetcher.SiteReader, storage Storage, vm *venues.Map, cfg config.SyncConfig, log logger.Logger) *Engine {
	if log == nil {
		log = logger.GetLogger()
	}

	tz, err := time.LoadLocation("Asia/Shanghai")
	if err != nil {
		tz = time.FixedZone("CST", 8*3600)
	}

	var limiter ratelimit.Limiter = ratelimit.Unlimited{}
	if cfg.RequestsPerMinute > 0 {
		limiter = ratelimit.NewTokenBucket(cfg.RequestsPerMinute, time.Minute)
	}

	return &Engine{
		client:  client,
		storage: storage,
		venues:  vm,
		grammar: extract.DefaultGrammar(),
		limiter: limiter,
		cfg:     cfg,
		tz:      tz,
		logger:  log,
	}
}

// today returns the current date in the pinned zone.
func (e *Engine) today() string {
	return time.Now().In(e.tz).Format(models.DateLayout)
}

// Reconcile performs one discovery cycle: age-prune both stores, probe the
// id window above the greatest known id, and insert newly approved records.
// Failures local to one id are logged and skipped; the cycle only ends early
// on storage-level errors that affect the cycle as a whole.
func (e *Engine) Reconcile(ctx context.Context) (CycleReport, error) {
	report := CycleReport{Start: time.Now()}

	today := e.today()
	for _, name := range []store.Name{store.Orders, store.Reservations} {
		pruned, err := e.storage.DeleteOlderThan(ctx, name, today)
		if err != nil {
			report.Err = err
			return report, err
		}
		report.Pruned += int(pruned)
	}

	maxID, ok, err := e.storage.FindMaxID(ctx, store.Orders)
	if err != nil {
		report.Err = err
		return report, err
	}
	if !ok {
		maxID = e.cfg.SeedID
	}

	ids := make([]int64, 0, e.cfg.ProbeWindow)
	for id := maxID + 1; id <= maxID+int64(e.cfg.ProbeWindow); id++ {
		ids = append(ids, id)
	}

	e.logger.InfoWithFields("probing id window", map[string]interface{}{
		"from":   maxID + 1,
		"window": e.cfg.ProbeWindow,
	})

	pool := fetcher.New(ctx, e.client, fetcher.Config{
		Workers:   e.cfg.Concurrency,
		Retries:   e.cfg.RetriesPerID,
		JitterMin: e.cfg.JitterMin,
		JitterMax: e.cfg.JitterMax,
		Limiter:   e.limiter,
		Grammar:   e.grammar,
		Logger:    e.logger,
	})
	results := pool.Run(ids)

	// Storage writes are serialized after the fetch phase; each insert is
	// its own short transaction, so a failed one never poisons the rest.
	for _, r := range results {
		switch r.Status {
		case fetcher.ProbeOK:
			if !e.venues.Valid(r.Record.Venue) {
				e.logger.WarnWithFields("skipping record with unknown venue", map[string]interface{}{
					"id":    r.Record.ExternalID,
					"venue": r.Record.Venue,
				})
				report.Failed++
				continue
			}
			inserted, err := e.storage.Insert(ctx, store.Orders, *r.Record)
			if err != nil {
				e.logger.WithError(err).WithField("id", r.Record.ExternalID).Error("failed to insert discovered order")
				report.Failed++
				continue
			}
			if inserted {
				report.Inserted++
			}
		case fetcher.ProbeNotReady:
			report.NotReady++
		case fetcher.ProbeFailed:
			logger.LogProbe(r.Job.ID, r.Status.String(), r.Attempts, r.Err)
			report.Failed++
		}
	}

	report.Duration = time.Since(report.Start)
	e.logger.InfoWithFields("reconcile cycle completed", map[string]interface{}{
		"inserted":  report.Inserted,
		"pruned":    report.Pruned,
		"not_ready": report.NotReady,
		"failed":    report.Failed,
		"duration":  report.Duration,
	})

	return report, nil
}

// Sweep re-probes every stored order id and removes the ones the site now
// marks cancelled. Only the explicit cancellation marker is grounds for
// removal: a fetch failure or an ambiguous body leaves the record alone.
func (e *Engine) Sweep(ctx context.Context) (int, error) {
	ids, err := e.storage.ListIDs(ctx, store.Orders)
	if err != nil {
		return 0, err
	}

	swept := 0
	for _, id := range ids {
		select {
		case <-ctx.Done():
			return swept, ctx.Err()
		default:
		}

		e.limiter.Wait()

		body, _, err := e.client.Get(ctx, e.client.OrderURL(id))
		if err != nil {
			e.logger.WithError(err).WithField("id", id).Debug("sweep fetch failed, leaving record")
			continue
		}

		if !e.grammar.IsCancelled(string(body)) {
			continue
		}

		if err := e.storage.DeleteBoth(ctx, id); err != nil {
			e.logger.WithError(err).WithField("id", id).Error("failed to delete cancelled record")
			continue
		}

		swept++
		e.logger.InfoWithFields("removed remotely cancelled record", map[string]interface{}{
			"id": id,
		})
	}

	return swept, nil
}
