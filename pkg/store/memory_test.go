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

package store

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carverauto/netinventory/pkg/models"
	"github.com/carverauto/netinventory/pkg/snmp"
)

func TestMemoryStoreUpsertHonorsConflictKey(t *testing.T) {
	ctx := context.Background()
	m := NewMemoryStore()

	require.NoError(t, m.Upsert(ctx, InterfacesTable, []models.Record{
		{"device_id": int64(1), "if_index": 1, "name": "eth0"},
		{"device_id": int64(1), "if_index": 2, "name": "eth1"},
	}))
	require.NoError(t, m.Upsert(ctx, InterfacesTable, []models.Record{
		{"device_id": int64(1), "if_index": 2, "name": "eth1-renamed"},
	}))

	rows := m.Rows(InterfacesTable.Name)
	require.Len(t, rows, 2)
	assert.Equal(t, "eth1-renamed", rows[1]["name"])
	assert.Equal(t, int64(2), rows[1]["id"])

	ifaces, err := m.Interfaces(ctx, 1)
	require.NoError(t, err)
	require.Len(t, ifaces, 2)
	assert.Equal(t, 2, ifaces[1].IfIndex)
	assert.Equal(t, int64(2), ifaces[1].ID)
}

func TestMemoryStoreInsertOnlyAppends(t *testing.T) {
	ctx := context.Background()
	m := NewMemoryStore()

	row := models.Record{"interface_id": int64(1), "device_id": int64(1)}
	require.NoError(t, m.InsertOnly(ctx, InterfaceTelemetryTable, []models.Record{row}))
	require.NoError(t, m.InsertOnly(ctx, InterfaceTelemetryTable, []models.Record{row}))

	assert.Len(t, m.Rows(InterfaceTelemetryTable.Name), 2)
}

func TestMemoryStoreEnsureAnchorIsIdempotent(t *testing.T) {
	ctx := context.Background()
	m := NewMemoryStore()

	first, err := m.EnsureAnchor(ctx, IPContextsTable, models.Record{"device_id": int64(9)})
	require.NoError(t, err)

	second, err := m.EnsureAnchor(ctx, IPContextsTable, models.Record{"device_id": int64(9)})
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Len(t, m.Rows(IPContextsTable.Name), 1)
}

func TestMemoryStoreDevices(t *testing.T) {
	m := NewMemoryStore(
		models.Device{ID: 2, Name: "b", Credential: &snmp.Credential{Version: snmp.Version2c}},
		models.Device{ID: 1, Name: "a", Credential: &snmp.Credential{Version: snmp.Version2c}},
		models.Device{ID: 3, Name: "no-creds"},
	)

	all, err := m.Devices(context.Background(), 0)
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, int64(1), all[0].ID)
	assert.Nil(t, all[2].Credential)

	one, err := m.Devices(context.Background(), 2)
	require.NoError(t, err)
	require.Len(t, one, 1)
	assert.Equal(t, "b", one[0].Name)
}

func TestLoadDevicesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "devices.json")
	require.NoError(t, os.WriteFile(path, []byte(`[
		{"id": 1, "name": "core-1", "management_ip": "10.0.0.1",
		 "credential": {"version": "v2c", "community": "public"}}
	]`), 0o600))

	devices, err := LoadDevicesFile(path)
	require.NoError(t, err)
	require.Len(t, devices, 1)
	assert.Equal(t, "core-1", devices[0].Name)
	require.NotNil(t, devices[0].Credential)
	assert.Equal(t, "public", devices[0].Credential.Community)
}
