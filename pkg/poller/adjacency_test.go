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
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carverauto/netinventory/pkg/decode"
	"github.com/carverauto/netinventory/pkg/grouping"
	"github.com/carverauto/netinventory/pkg/models"
	"github.com/carverauto/netinventory/pkg/store"
	"github.com/carverauto/netinventory/pkg/topology"
)

func adjacencySnapshot() *topology.Snapshot {
	return topology.NewSnapshot(
		[]models.Device{
			{ID: 1, Name: "core-sw1", ManagementIP: "10.0.0.1"},
			{ID: 2, Name: "dist-sw2", ManagementIP: "10.0.0.2"},
		},
		[]models.Interface{
			{ID: 11, DeviceID: 1, IfIndex: 3, Name: "Gi0/3", MACAddress: "00:00:5E:00:01:03"},
			{ID: 12, DeviceID: 1, IfIndex: 4, Name: "Gi0/4", MACAddress: "00:00:5E:00:01:04"},
			{ID: 21, DeviceID: 2, IfIndex: 1, Name: "Gi1/0/1", MACAddress: "00:00:5E:00:02:01"},
		},
	)
}

func TestLLDPPollerResolvesNeighbors(t *testing.T) {
	agent := newFakeAgent(t).
		// port 3: MAC chassis id of device 2
		set("lldpRemChassisIdSubtype", "0.3.1", 4).
		set("lldpRemChassisId", "0.3.1", []byte{0x00, 0x00, 0x5e, 0x00, 0x02, 0x01}).
		set("lldpRemPortIdSubtype", "0.3.1", 5).
		set("lldpRemPortId", "0.3.1", []byte("Gi1/0/1")).
		set("lldpRemSysName", "0.3.1", []byte("dist-sw2.example.net")).
		set("lldpRemSysCapEnabled", "0.3.1", []byte{0x28, 0x00}).
		// port 4: unknown neighbor with a management address
		set("lldpRemChassisIdSubtype", "0.4.2", 7).
		set("lldpRemChassisId", "0.4.2", []byte("phone-7")).
		set("lldpRemPortIdSubtype", "0.4.2", 7).
		set("lldpRemPortId", "0.4.2", []byte("port1")).
		set("lldpRemManAddrIfSubtype", "0.4.2.1.4.192.0.2.55", 2).
		// port 9 has no local interface
		set("lldpRemChassisIdSubtype", "0.9.3", 7).
		set("lldpRemChassisId", "0.9.3", []byte("orphan"))

	st := store.NewMemoryStore()

	p, err := NewLLDPPoller(testDeps(agent, st))
	require.NoError(t, err)

	cycle := testCycle()
	cycle.Snapshot = adjacencySnapshot()

	require.NoError(t, p.Poll(context.Background(), testDevice(1), cycle))

	rows := st.Rows(store.LLDPNeighborsTable.Name)
	require.Len(t, rows, 2)

	assert.Equal(t, int64(11), rows[0]["local_interface_id"])
	assert.Equal(t, int64(2), rows[0]["remote_device_id"])
	assert.Equal(t, int64(21), rows[0]["remote_interface_id"])
	assert.Equal(t, "00:00:5E:00:02:01", rows[0]["chassis_id"])
	assert.Equal(t, "Gi1/0/1", rows[0]["port_id"])
	assert.Equal(t, "bridge,router", rows[0]["capabilities_enabled"])

	assert.Equal(t, int64(12), rows[1]["local_interface_id"])
	assert.Nil(t, rows[1]["remote_device_id"])
	assert.Nil(t, rows[1]["remote_interface_id"])
	assert.Equal(t, "192.0.2.55", rows[1]["management_address"])
	assert.Equal(t, "phone-7", rows[1]["chassis_id"])
}

func TestLLDPPollerRequiresSnapshot(t *testing.T) {
	p, err := NewLLDPPoller(testDeps(newFakeAgent(t), store.NewMemoryStore()))
	require.NoError(t, err)

	require.ErrorIs(t, p.Poll(context.Background(), testDevice(1), testCycle()), ErrMissingSnapshot)
}

func TestLLDPManagementAddresses(t *testing.T) {
	rows := []*grouping.Row{
		{Index: []int{0, 3, 1, 2, 16, 32, 1, 13, 184, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 1}},
		{Index: []int{0, 3, 1, 1, 4, 10, 0, 0, 2}},
		{Index: []int{0, 3, 1, 1, 4, 10, 0, 0, 3}},
		{Index: []int{0, 5, 1, 1, 4, 10, 0, 0}},
	}

	addrs := LLDPManagementAddresses(rows)
	assert.Equal(t, map[string]string{"3.1": "10.0.0.2"}, addrs)
}

func TestLLDPLocalPortsMapping(t *testing.T) {
	rows := []*grouping.Row{
		{Index: []int{501}, Fields: map[string]decode.Value{
			"lldpLocPortIdSubtype": {Kind: decode.KindInteger, Int: 5},
			"lldpLocPortId":        {Kind: decode.KindRaw, Raw: []byte("Gi0/4")},
			"lldpLocPortDesc":      {Kind: decode.KindText, Text: "uplink"},
		}},
	}

	ports := LLDPLocalPorts(rows)
	require.Contains(t, ports, 501)
	assert.Equal(t, topology.LocalPort{ID: "Gi0/4", Description: "uplink"}, ports[501])
}

func TestLLDPID(t *testing.T) {
	integer := func(n int64) decode.Value { return decode.Value{Kind: decode.KindInteger, Int: n} }
	raw := func(v interface{}) decode.Value { return decode.Raw(v) }

	tests := []struct {
		name    string
		raw     decode.Value
		subtype decode.Value
		want    string
	}{
		{name: "mac", raw: raw([]byte{0xaa, 0xbb, 0xcc, 0x00, 0x11, 0x22}), subtype: integer(4), want: "AA:BB:CC:00:11:22"},
		{name: "network ipv4", raw: raw([]byte{1, 10, 0, 0, 9}), subtype: integer(5), want: "10.0.0.9"},
		{name: "local text", raw: raw([]byte("sw-7")), subtype: integer(7), want: "sw-7"},
		{name: "binary falls back to hex", raw: raw([]byte{0x01, 0x02}), subtype: integer(1), want: "0102"},
		{name: "null", raw: decode.Null(), subtype: integer(4), want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, lldpID(tt.raw, tt.subtype, lldpChassisSubtypeMAC, lldpChassisSubtypeNetwork))
		})
	}
}

func TestCDPObservations(t *testing.T) {
	rows := []*grouping.Row{
		{Index: []int{3, 1}, Fields: map[string]decode.Value{
			"cdpCacheAddressType":  {Kind: decode.KindInteger, Int: 1},
			"cdpCacheAddress":      decode.Raw([]byte{10, 0, 0, 2}),
			"cdpCacheDeviceId":     {Kind: decode.KindText, Text: "dist-sw2.example.net"},
			"cdpCacheDevicePort":   {Kind: decode.KindText, Text: "GigabitEthernet1/0/1"},
			"cdpCacheCapabilities": decode.Flags(cdpCapabilities)([]byte{0, 0, 0, 0x29}),
		}},
		{Index: []int{4, 7}, Fields: map[string]decode.Value{
			"cdpCacheDeviceId": {Kind: decode.KindText, Text: "00005e000201"},
		}},
	}

	obs := CDPObservations(rows)
	require.Len(t, obs, 2)

	assert.Equal(t, 3, obs[0].LocalPort)
	assert.Equal(t, 1, obs[0].NeighborIndex)
	assert.Equal(t, "10.0.0.2", obs[0].ManagementAddress)
	assert.Empty(t, obs[0].ChassisMAC)
	assert.Equal(t, "router,switch,igmp", obs[0].Fields["capabilities"])

	assert.Equal(t, "00:00:5E:00:02:01", obs[1].ChassisMAC)
	assert.Empty(t, obs[1].ManagementAddress)
	assert.Nil(t, obs[1].Fields["address"])
}

func TestCDPPollerResolvesByAddress(t *testing.T) {
	agent := newFakeAgent(t).
		set("cdpCacheAddressType", "4.1", 1).
		set("cdpCacheAddress", "4.1", []byte{10, 0, 0, 2}).
		set("cdpCacheDeviceId", "4.1", []byte("dist-sw2")).
		set("cdpCacheDevicePort", "4.1", []byte("gi1/0/1")).
		set("cdpCachePlatform", "4.1", []byte("cisco WS-C3850")).
		set("cdpCacheNativeVLAN", "4.1", 1)

	st := store.NewMemoryStore()

	p, err := NewCDPPoller(testDeps(agent, st))
	require.NoError(t, err)

	cycle := testCycle()
	cycle.Snapshot = adjacencySnapshot()

	require.NoError(t, p.Poll(context.Background(), testDevice(1), cycle))

	rows := st.Rows(store.CDPNeighborsTable.Name)
	require.Len(t, rows, 1)
	assert.Equal(t, int64(12), rows[0]["local_interface_id"])
	assert.Equal(t, int64(2), rows[0]["remote_device_id"])
	assert.Equal(t, int64(21), rows[0]["remote_interface_id"])
	assert.Equal(t, "10.0.0.2", rows[0]["address"])
	assert.Equal(t, "cisco WS-C3850", rows[0]["platform"])
}
