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

// Package config loads the inventory poller configuration from a JSON file
// with environment overrides.
package config

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"github.com/carverauto/netinventory/pkg/catalog"
	"github.com/carverauto/netinventory/pkg/events"
	"github.com/carverauto/netinventory/pkg/logger"
	"github.com/carverauto/netinventory/pkg/models"
	"github.com/carverauto/netinventory/pkg/poller"
	"github.com/carverauto/netinventory/pkg/snmp"
)

// EnvPrefix prefixes every environment override, e.g. INVENTORY_DATABASE_HOST.
const EnvPrefix = "INVENTORY_"

const (
	defaultDatabasePort   = 5432
	defaultMetricsAddr    = ":9464"
	defaultSNMPRetries    = 1
	defaultMaxRepetitions = 10
	defaultMaxConcurrent  = 8
	defaultPollInterval   = 15 * time.Minute
)

var (
	errNoDeviceSource       = errors.New("either database.host or devices_file is required")
	errDatabaseNameRequired = errors.New("database.database is required")
	errNegativeValue        = errors.New("value must not be negative")
	errInvalidPort          = errors.New("invalid port")
)

// Loader fills dst from a configuration source.
type Loader interface {
	Load(ctx context.Context, path string, dst interface{}) error
}

// SNMPConfig tunes the SNMP transport.
type SNMPConfig struct {
	Timeout           models.Duration `json:"timeout"`
	Retries           int             `json:"retries"`
	Port              uint16          `json:"port"`
	MaxRepetitions    uint32          `json:"max_repetitions"`
	RequestsPerSecond float64         `json:"requests_per_second"`
	Burst             int             `json:"burst"`
}

// ClientConfig converts the section for snmp.NewClient.
func (s *SNMPConfig) ClientConfig() snmp.ClientConfig {
	return snmp.ClientConfig{
		Port:              s.Port,
		Retries:           s.Retries,
		MaxRepetitions:    s.MaxRepetitions,
		RequestsPerSecond: s.RequestsPerSecond,
		Burst:             s.Burst,
	}
}

// PollingConfig controls cycle scheduling.
type PollingConfig struct {
	MaxConcurrentDevices int             `json:"max_concurrent_devices"`
	Domains              []string        `json:"domains,omitempty"`
	Interval             models.Duration `json:"interval"`
}

// ParsedDomains returns the configured domains, or nil for all of them.
func (p *PollingConfig) ParsedDomains() ([]poller.Domain, error) {
	if len(p.Domains) == 0 {
		return nil, nil
	}

	out := make([]poller.Domain, 0, len(p.Domains))

	for _, name := range p.Domains {
		d, err := poller.ParseDomain(name)
		if err != nil {
			return nil, err
		}

		out = append(out, d)
	}

	return out, nil
}

// MetricsConfig configures the Prometheus endpoint. An empty address
// disables it.
type MetricsConfig struct {
	Address string `json:"address"`
}

// Inventory is the root configuration of the inventory poller.
type Inventory struct {
	Database    models.CNPGDatabase `json:"database"`
	DevicesFile string              `json:"devices_file,omitempty"`
	SNMP        SNMPConfig          `json:"snmp"`
	Polling     PollingConfig       `json:"polling"`
	Catalog     map[string]string   `json:"catalog,omitempty"`
	NATS        events.Config       `json:"nats"`
	Metrics     MetricsConfig       `json:"metrics"`
	Logging     logger.Config       `json:"logging"`
}

// Default returns the configuration used before any source is applied.
func Default() *Inventory {
	return &Inventory{
		Database: models.CNPGDatabase{Port: defaultDatabasePort},
		SNMP: SNMPConfig{
			Timeout:        models.Duration(poller.DefaultTimeout),
			Retries:        defaultSNMPRetries,
			MaxRepetitions: defaultMaxRepetitions,
		},
		Polling: PollingConfig{
			MaxConcurrentDevices: defaultMaxConcurrent,
			Interval:             models.Duration(defaultPollInterval),
		},
		Metrics: MetricsConfig{Address: defaultMetricsAddr},
		Logging: *logger.DefaultConfig(),
	}
}

// UsesDatabase reports whether inventory rows go to PostgreSQL.
func (c *Inventory) UsesDatabase() bool {
	return c.Database.Host != ""
}

// NATSEnabled reports whether cycle events are published.
func (c *Inventory) NATSEnabled() bool {
	return c.NATS.URL != ""
}

// Validate checks the loaded configuration.
func (c *Inventory) Validate() error {
	if !c.UsesDatabase() && c.DevicesFile == "" {
		return errNoDeviceSource
	}

	if c.UsesDatabase() {
		if c.Database.Database == "" {
			return errDatabaseNameRequired
		}

		if c.Database.Port <= 0 || c.Database.Port > 65535 {
			return fmt.Errorf("%w: database.port=%d", errInvalidPort, c.Database.Port)
		}
	}

	if c.SNMP.Timeout < 0 || c.SNMP.Retries < 0 || c.SNMP.RequestsPerSecond < 0 {
		return fmt.Errorf("%w: snmp", errNegativeValue)
	}

	if c.Polling.MaxConcurrentDevices < 0 || c.Polling.Interval < 0 {
		return fmt.Errorf("%w: polling", errNegativeValue)
	}

	if _, err := c.Polling.ParsedDomains(); err != nil {
		return fmt.Errorf("polling.domains: %w", err)
	}

	if _, err := catalog.New(c.Catalog); err != nil {
		return fmt.Errorf("catalog: %w", err)
	}

	return nil
}

// Load builds the configuration from defaults, the JSON file at path when
// set, and INVENTORY_ environment overrides. It does not validate.
func Load(ctx context.Context, path string, log logger.Logger) (*Inventory, error) {
	cfg := Default()

	if path != "" {
		if err := (&FileConfigLoader{}).Load(ctx, path, cfg); err != nil {
			return nil, err
		}
	}

	if err := NewEnvConfigLoader(log, EnvPrefix).Load(ctx, path, cfg); err != nil {
		return nil, err
	}

	normalizeTLSPaths(cfg.Database.TLS, cfg.Database.CertDir)

	return cfg, nil
}

// LoadAndValidate loads and validates the configuration.
func LoadAndValidate(ctx context.Context, path string, log logger.Logger) (*Inventory, error) {
	cfg, err := Load(ctx, path, log)
	if err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// normalizeTLSPaths resolves relative certificate paths against certDir.
func normalizeTLSPaths(tls *models.TLSConfig, certDir string) {
	if tls == nil || certDir == "" {
		return
	}

	for _, p := range []*string{&tls.CertFile, &tls.KeyFile, &tls.CAFile} {
		if *p != "" && !filepath.IsAbs(*p) {
			*p = filepath.Join(certDir, *p)
		}
	}
}
