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

// Command inventory-poller collects SNMP inventory from the managed devices
// and writes it to the inventory tables.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/carverauto/netinventory/pkg/catalog"
	"github.com/carverauto/netinventory/pkg/config"
	"github.com/carverauto/netinventory/pkg/events"
	"github.com/carverauto/netinventory/pkg/logger"
	"github.com/carverauto/netinventory/pkg/metrics"
	"github.com/carverauto/netinventory/pkg/orchestrator"
	"github.com/carverauto/netinventory/pkg/poller"
	"github.com/carverauto/netinventory/pkg/snmp"
	"github.com/carverauto/netinventory/pkg/store"
	"github.com/carverauto/netinventory/pkg/version"
)

var (
	errFailedToLoadConfig = errors.New("failed to load config")
	errCycleFailed        = errors.New("poll cycle had failures")
)

func main() {
	if err := run(); err != nil {
		log.Fatalf("Fatal error: %v", err)
	}
}

func run() error {
	configPath := flag.String("config", "", "Path to inventory poller config file")
	deviceID := flag.Int64("device", 0, "Poll only this device id")
	domains := flag.String("domains", "", "Comma separated domains overriding polling.domains")
	devicesFile := flag.String("devices", "", "JSON device seed file; uses the in-memory store")
	migrate := flag.Bool("migrate", false, "Apply database migrations before polling")
	metricsAddr := flag.String("metrics", "", "Prometheus listen address overriding metrics.address")
	interval := flag.Duration("interval", 0, "Poll repeatedly at this interval instead of once")
	showVersion := flag.Bool("version", false, "Print the version and exit")
	flag.Parse()

	if *showVersion {
		fmt.Println(version.String())

		return nil
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load(ctx, *configPath, nil)
	if err != nil {
		return fmt.Errorf("%w: %w", errFailedToLoadConfig, err)
	}

	applyFlags(cfg, *devicesFile, *domains, *metricsAddr)

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("%w: %w", errFailedToLoadConfig, err)
	}

	mainLogger, err := logger.New(&cfg.Logging)
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}

	mainLogger.Info().Str("version", version.String()).Msg("Starting inventory poller")

	st, closeStore, err := openStore(ctx, cfg, *migrate, mainLogger)
	if err != nil {
		return err
	}
	defer closeStore()

	cat, err := catalog.New(cfg.Catalog)
	if err != nil {
		return err
	}

	enabled, err := cfg.Polling.ParsedDomains()
	if err != nil {
		return err
	}

	var opts []orchestrator.Option

	if cfg.NATSEnabled() {
		pub, nc, err := events.Connect(ctx, &cfg.NATS, mainLogger)
		if err != nil {
			return fmt.Errorf("failed to connect to NATS: %w", err)
		}
		defer nc.Close()

		opts = append(opts, orchestrator.WithPublisher(pub))
	}

	orch, err := orchestrator.New(&orchestrator.Config{
		MaxConcurrentDevices: cfg.Polling.MaxConcurrentDevices,
		Domains:              enabled,
	}, poller.Deps{
		Transport: snmp.NewClient(cfg.SNMP.ClientConfig(), mainLogger.WithComponent("snmp")),
		Store:     st,
		Catalog:   cat,
		Logger:    mainLogger,
		Timeout:   time.Duration(cfg.SNMP.Timeout),
	}, opts...)
	if err != nil {
		return err
	}

	if cfg.Metrics.Address != "" {
		go func() {
			if err := metrics.Serve(ctx, cfg.Metrics.Address, mainLogger); err != nil {
				mainLogger.Error().Err(err).Msg("Metrics server stopped")
			}
		}()
	}

	cycleOpts := orchestrator.Options{DeviceID: *deviceID}

	if *interval > 0 {
		if err := orch.RunEvery(ctx, *interval, cycleOpts); err != nil && !errors.Is(err, context.Canceled) {
			return err
		}

		return nil
	}

	report, err := orch.Run(ctx, cycleOpts)
	if err != nil {
		return err
	}

	if report.Failed() > 0 {
		return fmt.Errorf("%w: %d of %d device polls", errCycleFailed, report.Failed(), report.Devices*len(report.Domains))
	}

	return nil
}

// applyFlags lets command line flags take precedence over the config file.
func applyFlags(cfg *config.Inventory, devicesFile, domains, metricsAddr string) {
	if devicesFile != "" {
		cfg.DevicesFile = devicesFile
		cfg.Database.Host = ""
	}

	if domains != "" {
		cfg.Polling.Domains = splitList(domains)
	}

	if metricsAddr != "" {
		cfg.Metrics.Address = metricsAddr
	}
}

func splitList(s string) []string {
	var out []string

	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}

	return out
}

// openStore returns the PostgreSQL store, or the in-memory store seeded from
// the devices file when no database is configured.
func openStore(ctx context.Context, cfg *config.Inventory, migrate bool, log logger.Logger) (store.Store, func(), error) {
	if !cfg.UsesDatabase() {
		devices, err := store.LoadDevicesFile(cfg.DevicesFile)
		if err != nil {
			return nil, nil, err
		}

		log.Info().Int("devices", len(devices)).Msg("Using in-memory store")

		return store.NewMemoryStore(devices...), func() {}, nil
	}

	pool, err := store.NewCNPGPool(ctx, &cfg.Database, log)
	if err != nil {
		return nil, nil, err
	}

	if migrate {
		if err := store.RunMigrations(ctx, pool, log); err != nil {
			pool.Close()

			return nil, nil, err
		}
	}

	st, err := store.NewPostgresStore(pool, log.WithComponent("store"))
	if err != nil {
		pool.Close()

		return nil, nil, err
	}

	return st, pool.Close, nil
}
