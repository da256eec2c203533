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
	"sort"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/carverauto/netinventory/pkg/catalog"
	"github.com/carverauto/netinventory/pkg/grouping"
	"github.com/carverauto/netinventory/pkg/logger"
	"github.com/carverauto/netinventory/pkg/models"
	"github.com/carverauto/netinventory/pkg/snmp"
	"github.com/carverauto/netinventory/pkg/store"
)

var testNow = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

// fakeAgent answers walks and gets from a flat varbind list.
type fakeAgent struct {
	t        *testing.T
	varbinds []snmp.Varbind
	failWalk map[string]error
	walkErr  error
	getErr   error
	walks    []string
}

func newFakeAgent(t *testing.T) *fakeAgent {
	t.Helper()

	return &fakeAgent{t: t, failWalk: make(map[string]error)}
}

// set stores value at the named catalog field plus suffix.
func (f *fakeAgent) set(name, suffix string, value interface{}) *fakeAgent {
	f.t.Helper()

	root, ok := catalog.Default().Lookup(name)
	require.True(f.t, ok, "unknown field %s", name)

	oid := root
	if suffix != "" {
		oid += "." + suffix
	}

	f.varbinds = append(f.varbinds, snmp.Varbind{OID: oid, Value: value})

	return f
}

func (f *fakeAgent) fail(name string, err error) *fakeAgent {
	root, _ := catalog.Default().Lookup(name)
	f.failWalk[root] = err

	return f
}

func (f *fakeAgent) Walk(_ context.Context, _ snmp.Target, root string, _ time.Duration) ([]snmp.Varbind, error) {
	f.walks = append(f.walks, root)

	if f.walkErr != nil {
		return nil, f.walkErr
	}

	if err := f.failWalk[root]; err != nil {
		return nil, err
	}

	prefix := grouping.CanonicalOID(root) + "."

	var out []snmp.Varbind

	for _, vb := range f.varbinds {
		if strings.HasPrefix(vb.OID, prefix) {
			out = append(out, vb)
		}
	}

	sort.SliceStable(out, func(i, j int) bool { return out[i].OID < out[j].OID })

	return out, nil
}

func (f *fakeAgent) Get(_ context.Context, _ snmp.Target, oids []string, _ time.Duration) ([]snmp.Varbind, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}

	want := make(map[string]struct{}, len(oids))
	for _, oid := range oids {
		want[grouping.CanonicalOID(oid)] = struct{}{}
	}

	var out []snmp.Varbind

	for _, vb := range f.varbinds {
		if _, ok := want[vb.OID]; ok {
			out = append(out, vb)
		}
	}

	return out, nil
}

func testDevice(id int64) models.Device {
	return models.Device{
		ID:           id,
		Name:         "dev",
		ManagementIP: "192.0.2.1",
		Credential:   &snmp.Credential{Version: snmp.Version2c, Community: "public"},
	}
}

func testDeps(agent snmp.Transport, st store.Store) Deps {
	return Deps{
		Transport: agent,
		Store:     st,
		Catalog:   catalog.Default(),
		Logger:    logger.NewTestLogger(),
		Timeout:   time.Second,
	}
}

func testCycle() *Cycle {
	return &Cycle{ID: "test-cycle", Now: testNow}
}
