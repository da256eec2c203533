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

package poller

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carverauto/netinventory/pkg/catalog"
	"github.com/carverauto/netinventory/pkg/decode"
	"github.com/carverauto/netinventory/pkg/grouping"
	"github.com/carverauto/netinventory/pkg/store"
)

func TestNewBuildsEveryDomain(t *testing.T) {
	deps := testDeps(newFakeAgent(t), store.NewMemoryStore())

	for _, domain := range AllDomains {
		t.Run(string(domain), func(t *testing.T) {
			p, err := New(domain, deps)
			require.NoError(t, err)
			assert.Equal(t, domain, p.Domain())
		})
	}

	_, err := New("bogus", deps)
	require.ErrorIs(t, err, ErrUnknownDomain)
}

func TestNewRequiresStore(t *testing.T) {
	_, err := NewSystemPoller(Deps{})
	require.ErrorIs(t, err, ErrMissingStore)
}

func TestParseDomain(t *testing.T) {
	d, err := ParseDomain("lldp")
	require.NoError(t, err)
	assert.Equal(t, DomainLLDP, d)
	assert.True(t, d.Topological())
	assert.False(t, DomainRouting.Topological())

	_, err = ParseDomain("LLDP")
	require.ErrorIs(t, err, ErrUnknownDomain)
}

func TestColumnsUnknownField(t *testing.T) {
	_, err := columns(catalog.Default(), field{"notAField", decode.Text})
	require.ErrorIs(t, err, catalog.ErrUnknownMetric)
}

func TestColumnsHonorOverrides(t *testing.T) {
	cat, err := catalog.New(map[string]string{"sysName": "1.3.6.1.4.1.99.5.0"})
	require.NoError(t, err)

	cols, err := columns(cat, field{"sysName", decode.Text})
	require.NoError(t, err)
	assert.Equal(t, ".1.3.6.1.4.1.99.5.0", cols[0].Root)
}

func TestWalkFailureIsPerField(t *testing.T) {
	agent := newFakeAgent(t).
		set("ifDescr", "1", []byte("eth0")).
		set("ifName", "1", []byte("e0")).
		fail("ifName", errors.New("request timeout"))

	deps := testDeps(agent, store.NewMemoryStore())

	b, err := newBase(DomainInterfaces, deps)
	require.NoError(t, err)

	cols, err := columns(deps.Catalog, field{"ifDescr", decode.Text}, field{"ifName", decode.Text})
	require.NoError(t, err)

	dev := testDevice(1)
	results := b.walk(context.Background(), &dev, cols)
	require.Len(t, results, 2)
	assert.Equal(t, []string{"ifName"}, grouping.Failed(results))

	rows := grouping.Group(results, grouping.Options{Parts: 1})
	require.Len(t, rows, 1)
	assert.Equal(t, "eth0", rows[0].Get("ifDescr").Text)
	assert.False(t, rows[0].Has("ifName"))
}

func TestPollWithEveryFieldFailedReportsNoResponse(t *testing.T) {
	agent := newFakeAgent(t)
	agent.walkErr = errors.New("request timeout")
	agent.getErr = agent.walkErr

	deps := testDeps(agent, store.NewMemoryStore())

	for _, domain := range []Domain{
		DomainInterfaces, DomainIP, DomainBridge, DomainRouting,
		DomainHostResources, DomainPhysical, DomainCamera,
	} {
		t.Run(string(domain), func(t *testing.T) {
			p, err := New(domain, deps)
			require.NoError(t, err)

			err = p.Poll(context.Background(), testDevice(1), testCycle())
			require.Error(t, err)
			assert.ErrorIs(t, err, agent.walkErr)
		})
	}
}

func TestPollRunOutcome(t *testing.T) {
	errTimeout := errors.New("request timeout")
	agent := newFakeAgent(t).
		set("ipCidrRouteIfIndex", "10.0.0.0.255.0.0.0.0.192.0.2.254", 3).
		fail("ipCidrRouteMetric1", errTimeout)

	b, err := newBase(DomainRouting, testDeps(agent, store.NewMemoryStore()))
	require.NoError(t, err)

	cols, err := columns(catalog.Default(), field{"ipCidrRouteIfIndex", decode.Integer}, field{"ipCidrRouteMetric1", decode.Integer})
	require.NoError(t, err)

	dev := testDevice(1)

	partial := b.begin(&dev)
	partial.walk(context.Background(), cols)
	require.NoError(t, partial.finish(nil))

	agent.fail("ipCidrRouteIfIndex", errTimeout)

	none := b.begin(&dev)
	none.walk(context.Background(), cols)
	err = none.finish(nil)
	require.ErrorIs(t, err, ErrNoResponse)
	require.ErrorIs(t, err, errTimeout)

	empty := b.begin(&dev)
	assert.NoError(t, empty.finish(nil))

	errStore := errors.New("store down")
	assert.Same(t, errStore, none.finish(errStore))
}
