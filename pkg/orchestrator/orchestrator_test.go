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

package orchestrator

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/carverauto/netinventory/pkg/catalog"
	"github.com/carverauto/netinventory/pkg/logger"
	"github.com/carverauto/netinventory/pkg/models"
	"github.com/carverauto/netinventory/pkg/poller"
	"github.com/carverauto/netinventory/pkg/snmp"
	"github.com/carverauto/netinventory/pkg/store"
)

var (
	errTestDevices = errors.New("devices unavailable")
	errTestIfaces  = errors.New("interfaces unavailable")
	errTestPoll    = errors.New("poll failed")
	errTestTimeout = errors.New("request timeout (after 1 retries)")
)

var cycleStart = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

type fakeClock struct {
	now    time.Time
	ticker *fakeTicker
}

func (c *fakeClock) Now() time.Time { return c.now }

func (c *fakeClock) Ticker(time.Duration) Ticker { return c.ticker }

type fakeTicker struct {
	ch      chan time.Time
	stopped bool
}

func (t *fakeTicker) Chan() <-chan time.Time { return t.ch }

func (t *fakeTicker) Stop() { t.stopped = true }

type fakePublisher struct {
	mu      sync.Mutex
	reports []*models.CycleReport
	err     error
}

func (p *fakePublisher) PublishCycleCompleted(_ context.Context, report *models.CycleReport) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.reports = append(p.reports, report)

	return p.err
}

// failingStore overrides catalog reads of a MemoryStore.
type failingStore struct {
	*store.MemoryStore
	devicesErr error
	ifacesErr  error
}

func (s *failingStore) Devices(ctx context.Context, id int64) ([]models.Device, error) {
	if s.devicesErr != nil {
		return nil, s.devicesErr
	}

	return s.MemoryStore.Devices(ctx, id)
}

func (s *failingStore) Interfaces(ctx context.Context, id int64) ([]models.Interface, error) {
	if s.ifacesErr != nil {
		return nil, s.ifacesErr
	}

	return s.MemoryStore.Interfaces(ctx, id)
}

// scriptedPoller records polled devices and fails or panics on demand.
type scriptedPoller struct {
	domain poller.Domain
	mu     sync.Mutex
	polled []int64
	fail   map[int64]error
	panics map[int64]bool
}

func (p *scriptedPoller) Domain() poller.Domain { return p.domain }

func (p *scriptedPoller) Poll(_ context.Context, device models.Device, _ *poller.Cycle) error {
	p.mu.Lock()
	p.polled = append(p.polled, device.ID)
	p.mu.Unlock()

	if p.panics[device.ID] {
		panic("boom")
	}

	return p.fail[device.ID]
}

// gatedPoller blocks every poll until gate closes and tracks the peak
// number of polls in flight.
type gatedPoller struct {
	domain   poller.Domain
	gate     chan struct{}
	inFlight atomic.Int32
	peak     atomic.Int32
	done     atomic.Int32
}

func (p *gatedPoller) Domain() poller.Domain { return p.domain }

func (p *gatedPoller) Poll(_ context.Context, _ models.Device, _ *poller.Cycle) error {
	n := p.inFlight.Add(1)

	for {
		peak := p.peak.Load()
		if n <= peak || p.peak.CompareAndSwap(peak, n) {
			break
		}
	}

	<-p.gate

	p.inFlight.Add(-1)
	p.done.Add(1)

	return nil
}

func credential() *snmp.Credential {
	return &snmp.Credential{Version: snmp.Version2c, Community: "public"}
}

func root(t *testing.T, name string) string {
	t.Helper()

	oid, ok := catalog.Default().Lookup(name)
	require.True(t, ok)

	return oid
}

func newTestOrchestrator(t *testing.T, st store.Store, transport snmp.Transport, domains []poller.Domain, opts ...Option) *Orchestrator {
	t.Helper()

	deps := poller.Deps{
		Transport: transport,
		Store:     st,
		Catalog:   catalog.Default(),
		Logger:    logger.NewTestLogger(),
		Timeout:   time.Second,
	}

	opts = append([]Option{WithClock(&fakeClock{now: cycleStart})}, opts...)

	o, err := New(&Config{MaxConcurrentDevices: 2, Domains: domains}, deps, opts...)
	require.NoError(t, err)

	return o
}

func TestRunLLDPCycleEndToEnd(t *testing.T) {
	ctx := context.Background()

	st := store.NewMemoryStore(
		models.Device{ID: 1, Name: "core-sw1", ManagementIP: "10.0.0.1", Credential: credential()},
		models.Device{ID: 2, Name: "dist-sw2", ManagementIP: "10.0.0.2", Credential: credential()},
	)

	require.NoError(t, st.Upsert(ctx, store.InterfacesTable, []models.Record{
		{"device_id": int64(1), "if_index": int64(3), "name": "Gi0/3", "mac_address": "00:00:5E:00:01:03"},
		{"device_id": int64(2), "if_index": int64(1), "name": "Gi1/0/1", "mac_address": "00:00:5E:00:02:01"},
	}))

	ctrl := gomock.NewController(t)
	transport := snmp.NewMockTransport(ctrl)

	answers := map[string][]snmp.Varbind{
		root(t, "lldpRemChassisIdSubtype"): {{OID: root(t, "lldpRemChassisIdSubtype") + ".0.3.1", Value: 4}},
		root(t, "lldpRemChassisId"): {{
			OID:   root(t, "lldpRemChassisId") + ".0.3.1",
			Value: []byte{0x00, 0x00, 0x5e, 0x00, 0x02, 0x01},
		}},
		root(t, "lldpRemPortIdSubtype"): {{OID: root(t, "lldpRemPortIdSubtype") + ".0.3.1", Value: 5}},
		root(t, "lldpRemPortId"):        {{OID: root(t, "lldpRemPortId") + ".0.3.1", Value: []byte("Gi1/0/1")}},
	}

	transport.EXPECT().
		Walk(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, target snmp.Target, root string, _ time.Duration) ([]snmp.Varbind, error) {
			if target.Address != "10.0.0.1" {
				return nil, nil
			}

			return answers[root], nil
		}).
		AnyTimes()

	pub := &fakePublisher{}
	o := newTestOrchestrator(t, st, transport, []poller.Domain{poller.DomainLLDP}, WithPublisher(pub))

	report, err := o.Run(ctx, Options{})
	require.NoError(t, err)

	assert.Equal(t, 2, report.Devices)
	require.Len(t, report.Domains, 1)
	assert.Equal(t, "lldp", report.Domains[0].Domain)
	assert.Equal(t, 2, report.Domains[0].Succeeded)
	assert.Equal(t, 0, report.Domains[0].Failed)
	assert.NotEmpty(t, report.CycleID)

	rows := st.Rows(store.LLDPNeighborsTable.Name)
	require.Len(t, rows, 1)
	assert.Equal(t, int64(1), rows[0]["device_id"])
	assert.Equal(t, int64(1), rows[0]["local_interface_id"])
	assert.Equal(t, int64(2), rows[0]["remote_device_id"])
	assert.Equal(t, int64(2), rows[0]["remote_interface_id"])

	require.Len(t, pub.reports, 1)
	assert.Same(t, report, pub.reports[0])
}

func TestRunCountsFailuresAndPanics(t *testing.T) {
	st := store.NewMemoryStore(
		models.Device{ID: 1, Credential: credential()},
		models.Device{ID: 2, Credential: credential()},
		models.Device{ID: 3, Credential: credential()},
		models.Device{ID: 4},
	)

	o := newTestOrchestrator(t, st, nil, []poller.Domain{poller.DomainSystem, poller.DomainRouting})

	system := &scriptedPoller{domain: poller.DomainSystem, fail: map[int64]error{2: errTestPoll}}
	routing := &scriptedPoller{domain: poller.DomainRouting, panics: map[int64]bool{3: true}}
	o.pollers[poller.DomainSystem] = system
	o.pollers[poller.DomainRouting] = routing

	report, err := o.Run(context.Background(), Options{})
	require.NoError(t, err)

	assert.Equal(t, 3, report.Devices)
	require.Len(t, report.Domains, 2)

	assert.Equal(t, 2, report.Domains[0].Succeeded)
	assert.Equal(t, 1, report.Domains[0].Failed)
	assert.Equal(t, 2, report.Domains[1].Succeeded)
	assert.Equal(t, 1, report.Domains[1].Failed)
	assert.Equal(t, 2, report.Failed())

	assert.ElementsMatch(t, []int64{1, 2, 3}, system.polled)
	assert.ElementsMatch(t, []int64{1, 2, 3}, routing.polled)
}

func TestRunScopedToDevice(t *testing.T) {
	st := store.NewMemoryStore(
		models.Device{ID: 1, Credential: credential()},
		models.Device{ID: 2, Credential: credential()},
	)

	o := newTestOrchestrator(t, st, nil, []poller.Domain{poller.DomainSystem})

	system := &scriptedPoller{domain: poller.DomainSystem}
	o.pollers[poller.DomainSystem] = system

	report, err := o.Run(context.Background(), Options{DeviceID: 2})
	require.NoError(t, err)

	assert.Equal(t, int64(2), report.DeviceID)
	assert.Equal(t, []int64{2}, system.polled)
}

func TestRunDeviceLoadFailure(t *testing.T) {
	st := &failingStore{MemoryStore: store.NewMemoryStore(), devicesErr: errTestDevices}

	pub := &fakePublisher{}
	o := newTestOrchestrator(t, st, nil, []poller.Domain{poller.DomainSystem}, WithPublisher(pub))

	report, err := o.Run(context.Background(), Options{})
	require.ErrorIs(t, err, ErrLoadDevices)
	require.ErrorIs(t, err, errTestDevices)
	require.NotNil(t, report)
	assert.Empty(t, pub.reports)
}

func TestRunSnapshotFailureSkipsTopology(t *testing.T) {
	st := &failingStore{
		MemoryStore: store.NewMemoryStore(models.Device{ID: 1, Credential: credential()}),
		ifacesErr:   errTestIfaces,
	}

	o := newTestOrchestrator(t, st, nil, []poller.Domain{poller.DomainSystem, poller.DomainCDP})

	system := &scriptedPoller{domain: poller.DomainSystem}
	cdp := &scriptedPoller{domain: poller.DomainCDP}
	o.pollers[poller.DomainSystem] = system
	o.pollers[poller.DomainCDP] = cdp

	report, err := o.Run(context.Background(), Options{})
	require.NoError(t, err)

	assert.Equal(t, 1, report.Domains[0].Succeeded)
	assert.Equal(t, 1, report.Domains[1].Failed)
	assert.Empty(t, cdp.polled)
}

func TestRunRejectsUnknownDomain(t *testing.T) {
	o := newTestOrchestrator(t, store.NewMemoryStore(), nil, []poller.Domain{poller.DomainSystem})

	_, err := o.Run(context.Background(), Options{Domains: []poller.Domain{poller.DomainLLDP}})
	require.ErrorIs(t, err, poller.ErrUnknownDomain)
}

func TestPublisherErrorDoesNotFailCycle(t *testing.T) {
	st := store.NewMemoryStore(models.Device{ID: 1, Credential: credential()})

	pub := &fakePublisher{err: errTestPoll}
	o := newTestOrchestrator(t, st, nil, []poller.Domain{poller.DomainSystem}, WithPublisher(pub))
	o.pollers[poller.DomainSystem] = &scriptedPoller{domain: poller.DomainSystem}

	_, err := o.Run(context.Background(), Options{})
	require.NoError(t, err)
	assert.Len(t, pub.reports, 1)
}

func TestRunEveryStopsOnCancel(t *testing.T) {
	st := store.NewMemoryStore(models.Device{ID: 1, Credential: credential()})

	ticker := &fakeTicker{ch: make(chan time.Time, 1)}
	pub := &fakePublisher{}

	o := newTestOrchestrator(t, st, nil, []poller.Domain{poller.DomainSystem},
		WithClock(&fakeClock{now: cycleStart, ticker: ticker}),
		WithPublisher(pub),
	)
	o.pollers[poller.DomainSystem] = &scriptedPoller{domain: poller.DomainSystem}

	ctx, cancel := context.WithCancel(context.Background())
	ticker.ch <- cycleStart

	done := make(chan error, 1)

	go func() { done <- o.RunEvery(ctx, time.Minute, Options{}) }()

	require.Eventually(t, func() bool {
		pub.mu.Lock()
		defer pub.mu.Unlock()

		return len(pub.reports) >= 2
	}, 5*time.Second, 10*time.Millisecond)

	cancel()

	select {
	case err := <-done:
		require.ErrorIs(t, err, context.Canceled)
	case <-time.After(5 * time.Second):
		t.Fatal("RunEvery did not stop")
	}

	assert.True(t, ticker.stopped)
}

func TestNewDefaults(t *testing.T) {
	o, err := New(&Config{}, poller.Deps{Store: store.NewMemoryStore()})
	require.NoError(t, err)

	assert.Equal(t, DefaultMaxConcurrentDevices, o.maxConcurrent)
	assert.Equal(t, poller.AllDomains, o.domains)
}

func TestRunBoundsConcurrentDevicePolls(t *testing.T) {
	var devices []models.Device
	for id := int64(1); id <= 6; id++ {
		devices = append(devices, models.Device{ID: id, Credential: credential()})
	}

	o := newTestOrchestrator(t, store.NewMemoryStore(devices...), nil, []poller.Domain{poller.DomainSystem})

	gated := &gatedPoller{domain: poller.DomainSystem, gate: make(chan struct{})}
	o.pollers[poller.DomainSystem] = gated

	type result struct {
		report *models.CycleReport
		err    error
	}

	done := make(chan result, 1)

	go func() {
		report, err := o.Run(context.Background(), Options{})
		done <- result{report, err}
	}()

	require.Eventually(t, func() bool { return gated.inFlight.Load() == 2 }, 5*time.Second, 5*time.Millisecond)

	// Give an unbounded dispatcher the chance to start more polls.
	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, int32(2), gated.inFlight.Load())

	close(gated.gate)

	select {
	case res := <-done:
		require.NoError(t, res.err)
		assert.Equal(t, 6, res.report.Domains[0].Succeeded)
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not finish")
	}

	assert.Equal(t, int32(2), gated.peak.Load())
	assert.Equal(t, int32(6), gated.done.Load())
}

func TestRunCountsUnreachableDeviceAsFailed(t *testing.T) {
	st := store.NewMemoryStore(models.Device{ID: 1, ManagementIP: "10.0.0.9", Credential: credential()})

	ctrl := gomock.NewController(t)
	transport := snmp.NewMockTransport(ctrl)

	transport.EXPECT().Walk(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).Return(nil, errTestTimeout).AnyTimes()
	transport.EXPECT().Get(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).Return(nil, errTestTimeout).AnyTimes()

	domains := []poller.Domain{
		poller.DomainInterfaces,
		poller.DomainRouting,
		poller.DomainIP,
		poller.DomainPhysical,
		poller.DomainHostResources,
	}

	o := newTestOrchestrator(t, st, transport, domains)

	report, err := o.Run(context.Background(), Options{})
	require.NoError(t, err)

	require.Len(t, report.Domains, len(domains))

	for _, dr := range report.Domains {
		assert.Equal(t, 0, dr.Succeeded, dr.Domain)
		assert.Equal(t, 1, dr.Failed, dr.Domain)
	}

	assert.Equal(t, len(domains), report.Failed())
	assert.Empty(t, st.Rows(store.InterfacesTable.Name))
}
