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

package topology

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carverauto/netinventory/pkg/models"
)

func testSnapshot() *Snapshot {
	devices := []models.Device{
		{ID: 1, Name: "core-sw1", ManagementIP: "10.0.0.1"},
		{ID: 2, Name: "edge-rtr.example.net", ManagementIP: "10.0.0.2"},
		{ID: 3, Name: "access-sw", ManagementIP: "10.0.0.3"},
		{ID: 42, Name: "camera-lobby", ManagementIP: "10.0.0.42"},
	}

	ifaces := []models.Interface{
		{ID: 101, DeviceID: 1, IfIndex: 1, Name: "Gi0/1", MACAddress: "00:11:22:33:44:01"},
		{ID: 103, DeviceID: 1, IfIndex: 3, Name: "Gi0/3", MACAddress: "00:11:22:33:44:03"},
		{ID: 201, DeviceID: 2, IfIndex: 1, Name: "ge-0/0/0", Description: "uplink", MACAddress: "AA:BB:CC:00:00:01"},
		{ID: 202, DeviceID: 2, IfIndex: 2, Name: "ge-0/0/1", MACAddress: "AA:BB:CC:00:00:02"},
		{ID: 301, DeviceID: 3, IfIndex: 10, Name: "Port10", MACAddress: "00:00:00:00:00:00"},
		{ID: 4201, DeviceID: 42, IfIndex: -1, Name: "eth0", MACAddress: "C0:56:E3:00:00:42"},
	}

	return NewSnapshot(devices, ifaces)
}

func TestResolveRemoteDeviceStrategies(t *testing.T) {
	snap := testSnapshot()

	tests := []struct {
		name     string
		obs      Observation
		wantID   int64
		strategy Strategy
	}{
		{
			name:     "management address",
			obs:      Observation{LocalPort: 1, ManagementAddress: "10.0.0.2"},
			wantID:   2,
			strategy: StrategyManagementAddress,
		},
		{
			name:     "chassis mac",
			obs:      Observation{LocalPort: 1, ChassisMAC: "c0-56-e3-00-00-42"},
			wantID:   42,
			strategy: StrategyChassisMAC,
		},
		{
			name:     "port id mac",
			obs:      Observation{LocalPort: 1, PortID: "aabb.cc00.0002"},
			wantID:   2,
			strategy: StrategyPortMAC,
		},
		{
			name:     "system name fqdn",
			obs:      Observation{LocalPort: 1, SystemName: "EDGE-RTR.example.net"},
			wantID:   2,
			strategy: StrategySystemName,
		},
		{
			name:     "chassis id as name",
			obs:      Observation{LocalPort: 1, ChassisID: "access-sw"},
			wantID:   3,
			strategy: StrategySystemName,
		},
		{
			name:     "management address wins over name",
			obs:      Observation{LocalPort: 1, ManagementAddress: "10.0.0.3", SystemName: "edge-rtr"},
			wantID:   3,
			strategy: StrategyManagementAddress,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resolved, dropped := Resolve(1, []Observation{tt.obs}, snap, Options{})
			require.Empty(t, dropped)
			require.Len(t, resolved, 1)
			require.NotNil(t, resolved[0].RemoteDeviceID)
			assert.Equal(t, tt.wantID, *resolved[0].RemoteDeviceID)
			assert.Equal(t, tt.strategy, resolved[0].Strategy)
			assert.Equal(t, int64(101), resolved[0].LocalInterfaceID)
		})
	}
}

func TestResolveChassisMACToCamera(t *testing.T) {
	snap := testSnapshot()

	resolved, dropped := Resolve(1, []Observation{{
		LocalPort:  3,
		ChassisID:  "c0:56:e3:00:00:42",
		ChassisMAC: "C0:56:E3:00:00:42",
		PortID:     "eth0",
	}}, snap, Options{})

	require.Empty(t, dropped)
	require.Len(t, resolved, 1)
	assert.Equal(t, int64(103), resolved[0].LocalInterfaceID)
	require.NotNil(t, resolved[0].RemoteDeviceID)
	assert.Equal(t, int64(42), *resolved[0].RemoteDeviceID)
	require.NotNil(t, resolved[0].RemoteInterfaceID)
	assert.Equal(t, int64(4201), *resolved[0].RemoteInterfaceID)
}

func TestResolveExcludesLocalDevice(t *testing.T) {
	snap := testSnapshot()

	resolved, _ := Resolve(1, []Observation{{
		LocalPort:         1,
		ManagementAddress: "10.0.0.1",
		ChassisMAC:        "00:11:22:33:44:03",
		SystemName:        "core-sw1",
	}}, snap, Options{})

	require.Len(t, resolved, 1)
	assert.Nil(t, resolved[0].RemoteDeviceID)
	assert.Nil(t, resolved[0].RemoteInterfaceID)
	assert.Equal(t, StrategyNone, resolved[0].Strategy)
}

func TestResolveZeroMACNeverMatches(t *testing.T) {
	snap := testSnapshot()

	resolved, _ := Resolve(1, []Observation{{LocalPort: 1, ChassisMAC: "00:00:00:00:00:00"}}, snap, Options{})

	require.Len(t, resolved, 1)
	assert.Nil(t, resolved[0].RemoteDeviceID)
}

func TestResolveRemoteInterface(t *testing.T) {
	snap := testSnapshot()

	tests := []struct {
		name string
		obs  Observation
		opts Options
		want *int64
	}{
		{name: "by name", obs: Observation{PortID: "ge-0/0/1"}, want: ptr(202)},
		{name: "case insensitive", obs: Observation{PortID: "GE-0/0/0"}, want: ptr(201)},
		{name: "by ifindex", obs: Observation{PortID: "2"}, want: ptr(202)},
		{name: "by description", obs: Observation{PortID: "uplink"}, want: ptr(201)},
		{name: "by mac", obs: Observation{PortID: "aa:bb:cc:00:00:02"}, want: ptr(202)},
		{
			name: "port description fallback",
			obs:  Observation{PortID: "unknown", PortDescription: "ge-0/0/1"},
			opts: Options{PortDescriptionFallback: true},
			want: ptr(202),
		},
		{name: "fallback disabled", obs: Observation{PortID: "unknown", PortDescription: "ge-0/0/1"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			obs := tt.obs
			obs.LocalPort = 1
			obs.ManagementAddress = "10.0.0.2"

			resolved, _ := Resolve(1, []Observation{obs}, snap, tt.opts)
			require.Len(t, resolved, 1)
			assert.Equal(t, tt.want, resolved[0].RemoteInterfaceID)
		})
	}
}

func TestResolveLocalInterface(t *testing.T) {
	snap := testSnapshot()

	obs := []Observation{
		{LocalPort: 99, ManagementAddress: "10.0.0.2"},
		{LocalPort: 7, ManagementAddress: "10.0.0.2"},
	}

	resolved, dropped := Resolve(1, obs, snap, Options{
		LocalPorts: map[int]LocalPort{7: {ID: "gi0/3"}},
	})

	require.Len(t, resolved, 1)
	assert.Equal(t, int64(103), resolved[0].LocalInterfaceID)
	require.Len(t, dropped, 1)
	assert.Equal(t, 99, dropped[0].LocalPort)
}

func TestResolveDeduplicatesByLocalInterface(t *testing.T) {
	snap := testSnapshot()

	obs := []Observation{
		{LocalPort: 1, NeighborIndex: 1, SystemName: "nobody"},
		{LocalPort: 1, NeighborIndex: 2, ManagementAddress: "10.0.0.2"},
		{LocalPort: 1, NeighborIndex: 3, ManagementAddress: "10.0.0.3"},
		{LocalPort: 3, NeighborIndex: 4, SystemName: "nobody"},
	}

	resolved, dropped := Resolve(1, obs, snap, Options{})
	require.Empty(t, dropped)
	require.Len(t, resolved, 2)

	assert.Equal(t, int64(101), resolved[0].LocalInterfaceID)
	assert.Equal(t, 2, resolved[0].NeighborIndex)
	assert.Equal(t, int64(2), *resolved[0].RemoteDeviceID)

	assert.Equal(t, int64(103), resolved[1].LocalInterfaceID)
	assert.Nil(t, resolved[1].RemoteDeviceID)
}

func TestNormalizeName(t *testing.T) {
	assert.Equal(t, "edge-rtr", NormalizeName("  Edge-RTR.example.net "))
	assert.Equal(t, "switch", NormalizeName("switch"))
	assert.Empty(t, NormalizeName("   "))
}

type fakeSource struct {
	devices []models.Device
	ifaces  []models.Interface
	err     error
}

func (f *fakeSource) Devices(_ context.Context, _ int64) ([]models.Device, error) {
	return f.devices, f.err
}

func (f *fakeSource) Interfaces(_ context.Context, _ int64) ([]models.Interface, error) {
	return f.ifaces, nil
}

func TestLoadSnapshot(t *testing.T) {
	src := &fakeSource{
		devices: []models.Device{{ID: 5, Name: "a"}},
		ifaces:  []models.Interface{{ID: 50, DeviceID: 5, IfIndex: 2}, {ID: 51, DeviceID: 5, IfIndex: 1}},
	}

	snap, err := LoadSnapshot(context.Background(), src)
	require.NoError(t, err)

	id, ok := snap.deviceByName("A.example.net", 0)
	assert.True(t, ok)
	assert.Equal(t, int64(5), id)

	ifaces := snap.InterfacesOf(5)
	require.Len(t, ifaces, 2)
	assert.Equal(t, 1, ifaces[0].IfIndex)

	_, err = LoadSnapshot(context.Background(), &fakeSource{err: errors.New("boom")})
	require.Error(t, err)
}

func ptr(v int64) *int64 { return &v }
