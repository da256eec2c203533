/*
 * Copyright 2025 Carver Automation Corporation.
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

// Package orchestrator runs inventory poll cycles: every enabled domain is
// polled concurrently, each over a bounded pool of devices.
package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"runtime/debug"
	"sync/atomic"
	"time"

	"github.com/alitto/pond/v2"
	"github.com/google/uuid"

	"github.com/carverauto/netinventory/pkg/logger"
	"github.com/carverauto/netinventory/pkg/metrics"
	"github.com/carverauto/netinventory/pkg/models"
	"github.com/carverauto/netinventory/pkg/poller"
	"github.com/carverauto/netinventory/pkg/store"
	"github.com/carverauto/netinventory/pkg/topology"
)

// DefaultMaxConcurrentDevices bounds the devices polled at once per domain.
const DefaultMaxConcurrentDevices = 8

var (
	ErrNoDomains    = errors.New("no poll domains enabled")
	ErrLoadDevices  = errors.New("failed to load devices")
	ErrPollPanicked = errors.New("poll panicked")
)

// Publisher receives the report of every finished cycle.
type Publisher interface {
	PublishCycleCompleted(ctx context.Context, report *models.CycleReport) error
}

// Config tunes the orchestrator.
type Config struct {
	MaxConcurrentDevices int
	Domains              []poller.Domain
}

// Options scope a single cycle.
type Options struct {
	// DeviceID limits the cycle to one device when non-zero.
	DeviceID int64
	// Domains overrides the configured domains when set.
	Domains []poller.Domain
}

// Option customizes an Orchestrator.
type Option func(*Orchestrator)

// WithPublisher publishes every cycle report.
func WithPublisher(p Publisher) Option {
	return func(o *Orchestrator) { o.publisher = p }
}

// WithClock replaces the wall clock.
func WithClock(c Clock) Option {
	return func(o *Orchestrator) { o.clock = c }
}

// Orchestrator owns one poller per enabled domain.
type Orchestrator struct {
	store         store.Store
	pollers       map[poller.Domain]poller.Poller
	domains       []poller.Domain
	maxConcurrent int
	publisher     Publisher
	clock         Clock
	logger        logger.Logger
}

// New builds the pollers for cfg.Domains, or for every domain when none are
// listed.
func New(cfg *Config, deps poller.Deps, opts ...Option) (*Orchestrator, error) {
	domains := cfg.Domains
	if len(domains) == 0 {
		domains = poller.AllDomains
	}

	maxConcurrent := cfg.MaxConcurrentDevices
	if maxConcurrent <= 0 {
		maxConcurrent = DefaultMaxConcurrentDevices
	}

	log := deps.Logger
	if log == nil {
		log = logger.NewTestLogger()
	}

	o := &Orchestrator{
		store:         deps.Store,
		pollers:       make(map[poller.Domain]poller.Poller, len(domains)),
		maxConcurrent: maxConcurrent,
		clock:         realClock{},
		logger:        log.WithComponent("orchestrator"),
	}

	for _, d := range domains {
		if _, dup := o.pollers[d]; dup {
			continue
		}

		p, err := poller.New(d, deps)
		if err != nil {
			return nil, fmt.Errorf("build %s poller: %w", d, err)
		}

		o.pollers[d] = p
		o.domains = append(o.domains, d)
	}

	for _, opt := range opts {
		opt(o)
	}

	return o, nil
}

// Run executes one cycle. Per device failures are logged and counted in the
// report; only a failure to load the device list is returned.
func (o *Orchestrator) Run(ctx context.Context, opts Options) (*models.CycleReport, error) {
	domains, err := o.selectDomains(opts.Domains)
	if err != nil {
		return nil, err
	}

	report := &models.CycleReport{
		CycleID:   uuid.New().String(),
		DeviceID:  opts.DeviceID,
		StartedAt: o.clock.Now(),
	}

	log := o.logger.WithFields(map[string]interface{}{"cycle_id": report.CycleID})

	devices, err := o.targets(ctx, opts.DeviceID)
	if err != nil {
		report.EndedAt = o.clock.Now()
		log.Error().Err(err).Msg("Cycle aborted")

		return report, fmt.Errorf("%w: %w", ErrLoadDevices, err)
	}

	report.Devices = len(devices)

	cycle := &poller.Cycle{ID: report.CycleID, Now: report.StartedAt}

	var snapshotErr error

	if needsSnapshot(domains) {
		cycle.Snapshot, snapshotErr = topology.LoadSnapshot(ctx, o.store)
		if snapshotErr != nil {
			log.Error().Err(snapshotErr).Msg("Failed to load topology snapshot, skipping topology domains")
		}
	}

	log.Info().Int("devices", len(devices)).Int("domains", len(domains)).Msg("Starting poll cycle")

	report.Domains = make([]*models.DomainReport, len(domains))

	domainPool := pond.NewPool(len(domains))
	group := domainPool.NewGroup()

	for i, d := range domains {
		dr := &models.DomainReport{Domain: string(d), Devices: len(devices)}
		report.Domains[i] = dr

		if d.Topological() && cycle.Snapshot == nil {
			dr.Failed = len(devices)
			metrics.DevicePollsTotal.WithLabelValues(string(d), metrics.ResultFailure).Add(float64(len(devices)))

			continue
		}

		p := o.pollers[d]

		group.Submit(func() {
			o.runDomain(ctx, p, devices, cycle, dr, log)
		})
	}

	if err := group.Wait(); err != nil {
		log.Error().Err(err).Msg("Domain dispatch failed")
	}

	domainPool.StopAndWait()

	report.EndedAt = o.clock.Now()
	metrics.CycleDuration.Observe(report.Duration().Seconds())

	log.Info().
		Dur("duration", report.Duration()).
		Int("failed", report.Failed()).
		Msg("Poll cycle finished")

	o.publish(ctx, report, log)

	return report, nil
}

// RunEvery runs a cycle immediately and then on every tick until ctx ends.
func (o *Orchestrator) RunEvery(ctx context.Context, interval time.Duration, opts Options) error {
	ticker := o.clock.Ticker(interval)
	defer ticker.Stop()

	o.logger.Info().Dur("interval", interval).Msg("Starting inventory poller")

	for {
		if _, err := o.Run(ctx, opts); err != nil {
			o.logger.Error().Err(err).Msg("Error during poll cycle")
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.Chan():
		}
	}
}

// runDomain polls every device for one domain through a bounded pool.
func (o *Orchestrator) runDomain(
	ctx context.Context,
	p poller.Poller,
	devices []models.Device,
	cycle *poller.Cycle,
	report *models.DomainReport,
	log logger.Logger,
) {
	pool := pond.NewPool(o.maxConcurrent)
	defer pool.StopAndWait()

	group := pool.NewGroup()

	var succeeded, failed atomic.Int64

	for i := range devices {
		device := devices[i]

		group.Submit(func() {
			if err := o.pollDevice(ctx, p, device, cycle); err != nil {
				failed.Add(1)
				log.Warn().
					Err(err).
					Int64("device_id", device.ID).
					Str("domain", string(p.Domain())).
					Msg("Device poll failed")

				return
			}

			succeeded.Add(1)
		})
	}

	if err := group.Wait(); err != nil {
		log.Error().Err(err).Str("domain", string(p.Domain())).Msg("Device dispatch failed")
	}

	report.Succeeded = int(succeeded.Load())
	report.Failed = int(failed.Load())
}

// pollDevice runs one poll, converting a panic into an error.
func (o *Orchestrator) pollDevice(ctx context.Context, p poller.Poller, device models.Device, cycle *poller.Cycle) (err error) {
	start := time.Now()

	defer func() {
		if r := recover(); r != nil {
			o.logger.Error().
				Int64("device_id", device.ID).
				Str("domain", string(p.Domain())).
				Str("stack", string(debug.Stack())).
				Msgf("panic: %v", r)

			err = fmt.Errorf("%w: %v", ErrPollPanicked, r)
		}

		metrics.ObserveDevicePoll(string(p.Domain()), err, time.Since(start))
	}()

	if err := ctx.Err(); err != nil {
		return err
	}

	return p.Poll(ctx, device, cycle)
}

// targets returns the pollable devices: those with SNMP credentials.
func (o *Orchestrator) targets(ctx context.Context, deviceID int64) ([]models.Device, error) {
	all, err := o.store.Devices(ctx, deviceID)
	if err != nil {
		return nil, err
	}

	out := make([]models.Device, 0, len(all))

	for _, d := range all {
		if d.Credential == nil {
			continue
		}

		out = append(out, d)
	}

	return out, nil
}

func (o *Orchestrator) selectDomains(requested []poller.Domain) ([]poller.Domain, error) {
	if len(requested) == 0 {
		if len(o.domains) == 0 {
			return nil, ErrNoDomains
		}

		return o.domains, nil
	}

	out := make([]poller.Domain, 0, len(requested))

	for _, d := range requested {
		if _, ok := o.pollers[d]; !ok {
			return nil, fmt.Errorf("%w: %q", poller.ErrUnknownDomain, d)
		}

		out = append(out, d)
	}

	return out, nil
}

func (o *Orchestrator) publish(ctx context.Context, report *models.CycleReport, log logger.Logger) {
	if o.publisher == nil {
		return
	}

	if err := o.publisher.PublishCycleCompleted(ctx, report); err != nil {
		log.Warn().Err(err).Msg("Failed to publish cycle event")
	}
}

func needsSnapshot(domains []poller.Domain) bool {
	for _, d := range domains {
		if d.Topological() {
			return true
		}
	}

	return false
}
