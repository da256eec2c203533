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

// Package poller implements the per-domain SNMP inventory pollers. Each poller
// walks its tracked fields for one device, rebuilds table rows and persists
// them through the store.
package poller

import (
	"context"
	"fmt"
	"time"

	"github.com/carverauto/netinventory/pkg/catalog"
	"github.com/carverauto/netinventory/pkg/decode"
	"github.com/carverauto/netinventory/pkg/grouping"
	"github.com/carverauto/netinventory/pkg/logger"
	"github.com/carverauto/netinventory/pkg/metrics"
	"github.com/carverauto/netinventory/pkg/models"
	"github.com/carverauto/netinventory/pkg/snmp"
	"github.com/carverauto/netinventory/pkg/store"
	"github.com/carverauto/netinventory/pkg/topology"
)

// Domain names one inventory poller.
type Domain string

const (
	DomainSystem        Domain = "system"
	DomainInterfaces    Domain = "interfaces"
	DomainIP            Domain = "ip"
	DomainBridge        Domain = "bridge"
	DomainRouting       Domain = "routing"
	DomainHostResources Domain = "host_resources"
	DomainPhysical      Domain = "physical"
	DomainCamera        Domain = "camera"
	DomainCDP           Domain = "cdp"
	DomainLLDP          Domain = "lldp"
)

// AllDomains lists every domain in dispatch order.
var AllDomains = []Domain{
	DomainSystem, DomainInterfaces, DomainIP, DomainBridge, DomainRouting,
	DomainHostResources, DomainPhysical, DomainCamera, DomainCDP, DomainLLDP,
}

// Topological reports whether the domain resolves neighbors against the
// cycle snapshot.
func (d Domain) Topological() bool {
	return d == DomainCDP || d == DomainLLDP
}

// DefaultTimeout bounds every SNMP call.
const DefaultTimeout = 3 * time.Second

// Cycle carries the state shared by every poll of one cycle.
type Cycle struct {
	ID       string
	Now      time.Time
	Snapshot *topology.Snapshot
}

// Poller polls one domain for one device.
type Poller interface {
	Domain() Domain
	Poll(ctx context.Context, device models.Device, cycle *Cycle) error
}

// Deps are the collaborators shared by all pollers.
type Deps struct {
	Transport snmp.Transport
	Store     store.Store
	Catalog   *catalog.Catalog
	Logger    logger.Logger
	Timeout   time.Duration
}

// field is a tracked catalog name and its decoder.
type field struct {
	name   string
	decode decode.Func
}

// base holds what every domain poller needs.
type base struct {
	domain    Domain
	transport snmp.Transport
	store     store.Store
	logger    logger.Logger
	timeout   time.Duration
}

func newBase(domain Domain, deps Deps) (base, error) {
	if deps.Store == nil {
		return base{}, ErrMissingStore
	}

	timeout := deps.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	log := deps.Logger
	if log == nil {
		log = logger.NewTestLogger()
	}

	log = log.WithComponent(string(domain))

	return base{
		domain:    domain,
		transport: deps.Transport,
		store:     deps.Store,
		logger:    log,
		timeout:   timeout,
	}, nil
}

func (b *base) Domain() Domain { return b.domain }

// columns resolves tracked fields through the catalog.
func columns(cat *catalog.Catalog, fields ...field) ([]grouping.Column, error) {
	if cat == nil {
		cat = catalog.Default()
	}

	names := make([]string, len(fields))
	for i, f := range fields {
		names[i] = f.name
	}

	roots, err := cat.Resolve(names...)
	if err != nil {
		return nil, err
	}

	out := make([]grouping.Column, len(fields))
	for i, f := range fields {
		out[i] = grouping.Column{Name: f.name, Root: roots[i], Decode: f.decode}
	}

	return out, nil
}

// walk issues one walk per column. A failed walk yields an empty Result
// carrying the error so the remaining columns still contribute.
func (b *base) walk(ctx context.Context, device *models.Device, cols []grouping.Column) []grouping.Result {
	target := device.Target()
	results := make([]grouping.Result, 0, len(cols))

	for _, col := range cols {
		varbinds, err := b.transport.Walk(ctx, target, col.Root, b.timeout)
		if err != nil {
			metrics.WalkFailuresTotal.WithLabelValues(string(b.domain), col.Name).Inc()
			b.logger.Debug().
				Err(err).
				Int64("device_id", device.ID).
				Str("domain", string(b.domain)).
				Str("field", col.Name).
				Msg("Walk failed, treating field as empty")

			results = append(results, grouping.Result{Column: col, Err: err})

			continue
		}

		results = append(results, grouping.Result{Column: col, Varbinds: varbinds})
	}

	return results
}

// get reads scalar columns in one request and decodes them by name. Only
// fields the device answered are present in the returned map.
func (b *base) get(ctx context.Context, device *models.Device, cols []grouping.Column) (map[string]decode.Value, error) {
	oids := make([]string, len(cols))
	byOID := make(map[string]grouping.Column, len(cols))

	for i, col := range cols {
		oids[i] = col.Root
		byOID[grouping.CanonicalOID(col.Root)] = col
	}

	varbinds, err := b.transport.Get(ctx, device.Target(), oids, b.timeout)
	if err != nil {
		return nil, err
	}

	values := make(map[string]decode.Value, len(varbinds))

	for _, vb := range varbinds {
		col, ok := byOID[grouping.CanonicalOID(vb.OID)]
		if !ok {
			continue
		}

		dec := col.Decode
		if dec == nil {
			dec = decode.Raw
		}

		if v := dec(vb.Value); !v.IsNull() {
			values[col.Name] = v
		}
	}

	return values, nil
}

// pollRun records the outcome of every field read during one device poll.
type pollRun struct {
	b       *base
	device  *models.Device
	results []grouping.Result
}

func (b *base) begin(device *models.Device) *pollRun {
	return &pollRun{b: b, device: device}
}

func (r *pollRun) walk(ctx context.Context, cols []grouping.Column) []grouping.Result {
	results := r.b.walk(ctx, r.device, cols)
	r.results = append(r.results, results...)

	return results
}

func (r *pollRun) get(ctx context.Context, cols []grouping.Column) (map[string]decode.Value, error) {
	values, err := r.b.get(ctx, r.device, cols)

	for _, col := range cols {
		r.results = append(r.results, grouping.Result{Column: col, Err: err})
	}

	return values, err
}

// finish turns field failures into the poll outcome. A poll where every
// field failed reports ErrNoResponse; a partial one is logged and succeeds.
func (r *pollRun) finish(err error) error {
	failed := grouping.Failed(r.results)
	if len(failed) == 0 {
		return err
	}

	if len(failed) < len(r.results) {
		r.b.deviceLogger(r.device).Warn().
			Strs("failed_fields", failed).
			Int("fields", len(r.results)).
			Msg("Partial data, some fields failed")

		return err
	}

	if err != nil {
		return err
	}

	var last error

	for _, res := range r.results {
		if res.Err != nil {
			last = res.Err
		}
	}

	return fmt.Errorf("%w: all %d fields failed: %w", ErrNoResponse, len(failed), last)
}

// deviceLogger returns a sub-logger tagged with the device and domain.
func (b *base) deviceLogger(device *models.Device) logger.Logger {
	return b.logger.WithFields(map[string]interface{}{
		"device_id": device.ID,
		"domain":    string(b.domain),
	})
}

// New builds the poller for domain.
func New(domain Domain, deps Deps) (Poller, error) {
	switch domain {
	case DomainSystem:
		return NewSystemPoller(deps)
	case DomainInterfaces:
		return NewInterfacePoller(deps)
	case DomainIP:
		return NewIPPoller(deps)
	case DomainBridge:
		return NewBridgePoller(deps)
	case DomainRouting:
		return NewRoutingPoller(deps)
	case DomainHostResources:
		return NewHostResourcesPoller(deps)
	case DomainPhysical:
		return NewPhysicalPoller(deps)
	case DomainCamera:
		return NewCameraPoller(deps)
	case DomainCDP:
		return NewCDPPoller(deps)
	case DomainLLDP:
		return NewLLDPPoller(deps)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownDomain, domain)
	}
}

// ParseDomain validates a domain name.
func ParseDomain(name string) (Domain, error) {
	for _, d := range AllDomains {
		if string(d) == name {
			return d, nil
		}
	}

	return "", fmt.Errorf("%w: %q", ErrUnknownDomain, name)
}

// value returns v.Any() for persistence.
func value(row *grouping.Row, name string) interface{} {
	return row.Get(name).Any()
}
