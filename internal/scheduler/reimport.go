// Package scheduler re-imports shop price lists on a cron schedule.
package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"supplier-catalog/internal/domain"

	"github.com/google/uuid"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// ShopSource lists the shops eligible for re-import
type ShopSource interface {
	ListImportable(ctx context.Context) ([]*domain.Shop, error)
}

// UserSource resolves shop owners
type UserSource interface {
	FindByID(ctx context.Context, id uuid.UUID) (*domain.User, error)
}

// Importer imports a price list from a URL on behalf of caller
type Importer interface {
	ImportFromURL(ctx context.Context, caller *domain.User, rawURL string) (*domain.ImportSummary, error)
}

// RunResult summarises one re-import run
type RunResult struct {
	Shops     int
	Succeeded int
	Failed    int
	Skipped   int
}

// Reimporter periodically pulls every active shop's price list from its URL
type Reimporter struct {
	shops       ShopSource
	users       UserSource
	importer    Importer
	logger      *zap.Logger
	cron        *cron.Cron
	timeout     time.Duration
	concurrency int

	mu      sync.Mutex
	running bool
}

// NewReimporter registers the re-import job under schedule, a cron expression with
// a leading seconds field
func NewReimporter(schedule string, shops ShopSource, users UserSource, importer Importer, logger *zap.Logger) (*Reimporter, error) {
	r := &Reimporter{
		shops:       shops,
		users:       users,
		importer:    importer,
		logger:      logger,
		cron:        cron.New(cron.WithSeconds()),
		timeout:     time.Hour,
		concurrency: 2,
	}

	if _, err := r.cron.AddFunc(schedule, r.tick); err != nil {
		return nil, fmt.Errorf("invalid import schedule %q: %w", schedule, err)
	}

	return r, nil
}

// Start begins running the schedule in the background
func (r *Reimporter) Start() {
	r.cron.Start()
	r.logger.Info("Scheduled price list re-import started")
}

// Stop waits for a running job to finish
func (r *Reimporter) Stop() {
	ctx := r.cron.Stop()
	<-ctx.Done()
	r.logger.Info("Scheduled price list re-import stopped")
}

func (r *Reimporter) tick() {
	// overlapping ticks are dropped rather than queued
	r.mu.Lock()
	if r.running {
		r.mu.Unlock()
		r.logger.Warn("Previous re-import still running, skipping tick")
		return
	}
	r.running = true
	r.mu.Unlock()

	defer func() {
		r.mu.Lock()
		r.running = false
		r.mu.Unlock()
	}()

	ctx, cancel := context.WithTimeout(context.Background(), r.timeout)
	defer cancel()

	if _, err := r.RunOnce(ctx); err != nil {
		r.logger.Error("Scheduled re-import failed", zap.Error(err))
	}
}

// RunOnce re-imports every eligible shop. Per-shop failures are logged and
// counted; only failing to list shops aborts the run.
func (r *Reimporter) RunOnce(ctx context.Context) (RunResult, error) {
	shops, err := r.shops.ListImportable(ctx)
	if err != nil {
		return RunResult{}, fmt.Errorf("failed to list importable shops: %w", err)
	}

	result := RunResult{Shops: len(shops)}
	if len(shops) == 0 {
		return result, nil
	}

	var (
		mu  sync.Mutex
		wg  sync.WaitGroup
		sem = make(chan struct{}, r.concurrency)
	)

	record := func(fn func(*RunResult)) {
		mu.Lock()
		fn(&result)
		mu.Unlock()
	}

	for _, shop := range shops {
		if ctx.Err() != nil {
			break
		}

		sem <- struct{}{}
		wg.Add(1)

		go func(shop *domain.Shop) {
			defer wg.Done()
			defer func() { <-sem }()

			log := r.logger.With(zap.Int64("shop_id", shop.ID), zap.String("url", shop.URL))

			if shop.UserID == nil {
				record(func(res *RunResult) { res.Skipped++ })
				return
			}

			owner, err := r.users.FindByID(ctx, *shop.UserID)
			if err != nil || !owner.IsActive {
				log.Warn("Skipping shop without an active owner", zap.Error(err))
				record(func(res *RunResult) { res.Skipped++ })
				return
			}

			summary, err := r.importer.ImportFromURL(ctx, owner, shop.URL)
			if err != nil {
				log.Warn("Re-import failed", zap.Error(err))
				record(func(res *RunResult) { res.Failed++ })
				return
			}

			log.Info("Re-import completed", zap.Int("listings", summary.Listings))
			record(func(res *RunResult) { res.Succeeded++ })
		}(shop)
	}

	wg.Wait()

	r.logger.Info("Re-import run finished",
		zap.Int("shops", result.Shops),
		zap.Int("succeeded", result.Succeeded),
		zap.Int("failed", result.Failed),
		zap.Int("skipped", result.Skipped),
	)

	return result, nil
}
