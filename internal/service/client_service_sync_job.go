// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package service

import (
	"context"
	"sync"
	"time"

	"github.com/MKhiriev/delivery-sync/internal/logger"
	"github.com/MKhiriev/delivery-sync/models"
	"github.com/sethvargo/go-retry"
)

// Trigger reasons recorded in cycle reports.
const (
	ReasonStartup              = "startup"
	ReasonInterval             = "interval"
	ReasonConnectivityRestored = "connectivity restored"
	ReasonManual               = "manual"
	ReasonCapture              = "capture"
	ReasonWatchdog             = "watchdog"
)

const (
	defaultSyncInterval  = 5 * time.Minute
	defaultProbeInterval = 30 * time.Second
	backoffJitterPercent = 10
)

// JobOptions tunes a clientSyncJob. Zero durations select defaults.
type JobOptions struct {
	Interval      time.Duration
	ProbeInterval time.Duration
	BackoffBase   time.Duration
	BackoffMax    time.Duration

	// BatchSize is the sync batch size. A healthy cycle that filled a whole
	// batch is followed by another one immediately.
	BatchSize int
}

// clientSyncJob runs sync cycles on a timer, on demand and when the server
// comes back after being unreachable. Failed cycles push the next run out
// with capped exponential backoff; an unreachable server does not, since
// the probe already catches it coming back.
type clientSyncJob struct {
	syncService  ClientSyncService
	connectivity Connectivity
	opts         JobOptions

	trigger chan string

	mu     sync.Mutex
	cancel context.CancelFunc
	wg     sync.WaitGroup

	logger *logger.Logger
}

// NewClientSyncJob creates an idle job. Nothing runs until Run or Start.
func NewClientSyncJob(syncService ClientSyncService, connectivity Connectivity, opts JobOptions, logger *logger.Logger) ClientSyncJob {
	if opts.Interval <= 0 {
		opts.Interval = defaultSyncInterval
	}
	if opts.ProbeInterval <= 0 {
		opts.ProbeInterval = defaultProbeInterval
	}
	if opts.BackoffBase <= 0 {
		opts.BackoffBase = opts.Interval
	}
	if opts.BackoffMax < opts.BackoffBase {
		opts.BackoffMax = opts.BackoffBase
	}

	return &clientSyncJob{
		syncService:  syncService,
		connectivity: connectivity,
		opts:         opts,
		trigger:      make(chan string, 1),
		logger:       logger,
	}
}

// TriggerNow implements ClientSyncJob.
func (j *clientSyncJob) TriggerNow(reason string) {
	select {
	case j.trigger <- reason:
	default:
	}
}

// Run implements ClientSyncJob.
func (j *clientSyncJob) Run(ctx context.Context) error {
	log := j.logger.With().Str("func", "clientSyncJob.Run").Logger()
	log.Info().Dur("interval", j.opts.Interval).Msg("sync job started")

	backoff := j.newBackoff()
	online := true

	delay := j.cycle(ctx, ReasonStartup, &backoff, &online)
	timer := time.NewTimer(delay)
	defer timer.Stop()

	probe := time.NewTicker(j.opts.ProbeInterval)
	defer probe.Stop()

	for {
		var reason string

		if ctx.Err() != nil {
			log.Info().Msg("sync job stopped")
			return nil
		}

		select {
		case <-ctx.Done():
			continue

		case reason = <-j.trigger:

		case <-timer.C:
			reason = ReasonInterval

		case <-probe.C:
			if online || !j.connectivity.Online(ctx) {
				continue
			}
			reason = ReasonConnectivityRestored
		}

		timer.Reset(j.cycle(ctx, reason, &backoff, &online))
	}
}

// cycle runs one sync cycle and returns the delay until the next one. A
// panic is logged and treated as a failed cycle.
func (j *clientSyncJob) cycle(ctx context.Context, reason string, backoff *retry.Backoff, online *bool) (delay time.Duration) {
	defer func() {
		if p := recover(); p != nil {
			j.logger.Error().Any("panic", p).Str("reason", reason).Msg("sync cycle panicked")
			delay = j.failed(backoff)
		}
	}()

	report, err := j.syncService.Trigger(ctx, reason)
	*online = report.Result != models.CycleOffline

	switch {
	case ctx.Err() != nil:
		return 0

	case report.Result == models.CycleOffline:
		return j.opts.Interval

	case err == nil && report.Healthy():
		*backoff = j.newBackoff()
		if j.opts.BatchSize > 0 && report.Submitted >= j.opts.BatchSize {
			return 0
		}
		return j.opts.Interval
	}

	delay = j.failed(backoff)
	j.logger.Warn().
		Err(err).
		Str("reason", reason).
		Str("result", string(report.Result)).
		Int("failed", report.Failed).
		Dur("next_in", delay).
		Msg("sync cycle failed, backing off")

	return delay
}

func (j *clientSyncJob) failed(backoff *retry.Backoff) time.Duration {
	next, stop := (*backoff).Next()
	if stop {
		return j.opts.BackoffMax
	}
	return next
}

func (j *clientSyncJob) newBackoff() retry.Backoff {
	b := retry.NewExponential(j.opts.BackoffBase)
	b = retry.WithJitterPercent(backoffJitterPercent, b)
	return retry.WithCappedDuration(j.opts.BackoffMax, b)
}

// Start implements ClientSyncJob.
func (j *clientSyncJob) Start(ctx context.Context) {
	j.Stop()

	j.mu.Lock()
	jobCtx, cancel := context.WithCancel(ctx)
	j.cancel = cancel
	j.mu.Unlock()

	j.wg.Go(func() {
		_ = j.Run(jobCtx)
	})
}

// Stop implements ClientSyncJob. Safe to call when the job is not running.
func (j *clientSyncJob) Stop() {
	j.mu.Lock()
	cancel := j.cancel
	j.cancel = nil
	j.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	j.wg.Wait()
}
