// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package workers

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/MKhiriev/delivery-sync/internal/logger"
)

// Workers runs a fixed set of workers side by side.
type Workers struct {
	workers []Worker
	logger  *logger.Logger
}

func NewWorkers(logger *logger.Logger, workers ...Worker) *Workers {
	return &Workers{workers: workers, logger: logger}
}

// Run starts every worker and waits until all of them have returned. The
// returned error joins the errors of all workers.
func (w *Workers) Run(ctx context.Context) error {
	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		errs []error
	)

	for _, worker := range w.workers {
		wg.Go(func() {
			if err := worker.Run(ctx); err != nil {
				mu.Lock()
				errs = append(errs, err)
				mu.Unlock()
			}
		})
	}
	wg.Wait()

	return errors.Join(errs...)
}

// Periodic runs Task every Interval until the context is done. A failing
// or panicking task is logged and retried on the next tick.
type Periodic struct {
	Name       string
	Interval   time.Duration
	RunOnStart bool
	Task       func(ctx context.Context) error

	Logger *logger.Logger
}

// Run implements Worker.
func (p *Periodic) Run(ctx context.Context) error {
	if p.Interval <= 0 {
		return fmt.Errorf("worker %s: interval must be positive, got %s", p.Name, p.Interval)
	}

	log := p.Logger
	if log == nil {
		log = logger.Nop()
	}
	log = log.WithComponent(p.Name)

	if p.RunOnStart {
		p.tick(ctx, log)
	}

	ticker := time.NewTicker(p.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Debug().Msg("worker stopped")
			return nil
		case <-ticker.C:
			p.tick(ctx, log)
		}
	}
}

func (p *Periodic) tick(ctx context.Context, log *logger.Logger) {
	defer func() {
		if r := recover(); r != nil {
			log.Error().Any("panic", r).Msg("worker task panicked")
		}
	}()

	if err := p.Task(ctx); err != nil && ctx.Err() == nil {
		log.Err(err).Msg("worker task failed")
	}
}
