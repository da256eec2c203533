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
	"net"

	"github.com/carverauto/netinventory/pkg/decode"
	"github.com/carverauto/netinventory/pkg/grouping"
	"github.com/carverauto/netinventory/pkg/models"
	"github.com/carverauto/netinventory/pkg/store"
	"github.com/carverauto/netinventory/pkg/topology"
)

// cdpAddressTypeIP is CiscoNetworkProtocol ip(1).
const cdpAddressTypeIP = 1

// cdpCapabilities names the CDP capability flags, least significant first.
var cdpCapabilities = []string{
	"router", "trans-bridge", "source-route-bridge", "switch", "host", "igmp", "repeater",
}

// CDPPoller records CISCO-CDP-MIB neighbors resolved against the catalog.
type CDPPoller struct {
	base
	cols []grouping.Column
}

var _ Poller = (*CDPPoller)(nil)

func NewCDPPoller(deps Deps) (*CDPPoller, error) {
	b, err := newBase(DomainCDP, deps)
	if err != nil {
		return nil, err
	}

	cols, err := columns(deps.Catalog,
		field{"cdpCacheAddressType", decode.Integer},
		field{"cdpCacheAddress", decode.Raw},
		field{"cdpCacheVersion", decode.Text},
		field{"cdpCacheDeviceId", decode.Text},
		field{"cdpCacheDevicePort", decode.Text},
		field{"cdpCachePlatform", decode.Text},
		field{"cdpCacheCapabilities", decode.Flags(cdpCapabilities)},
		field{"cdpCacheNativeVLAN", decode.Integer},
		field{"cdpCacheDuplex", decode.Integer},
		field{"cdpCacheSysName", decode.Text},
	)
	if err != nil {
		return nil, err
	}

	return &CDPPoller{base: b, cols: cols}, nil
}

func (p *CDPPoller) Poll(ctx context.Context, device models.Device, cycle *Cycle) (err error) {
	run := p.begin(&device)
	defer func() { err = run.finish(err) }()

	if cycle == nil || cycle.Snapshot == nil {
		return ErrMissingSnapshot
	}

	// cdpCacheTable index: ifIndex . cdpCacheDeviceIndex
	rows := grouping.Group(run.walk(ctx, p.cols), grouping.Options{Parts: 2})
	if len(rows) == 0 {
		return nil
	}

	return p.persistAdjacencies(ctx, store.CDPNeighborsTable, &device, CDPObservations(rows), topology.Options{}, cycle)
}

// CDPObservations converts cdpCacheTable rows to neighbor observations.
func CDPObservations(rows []*grouping.Row) []topology.Observation {
	out := make([]topology.Observation, 0, len(rows))

	for _, row := range rows {
		deviceID := row.Get("cdpCacheDeviceId").Text
		address := cdpAddress(row)

		out = append(out, topology.Observation{
			LocalPort:         row.Index[0],
			NeighborIndex:     row.Index[1],
			ManagementAddress: address,
			ChassisID:         deviceID,
			ChassisMAC:        decode.NormalizeMAC(deviceID),
			PortID:            row.Get("cdpCacheDevicePort").Text,
			SystemName:        row.Get("cdpCacheSysName").Text,
			Fields: models.Record{
				"device_identifier": value(row, "cdpCacheDeviceId"),
				"port_identifier":   value(row, "cdpCacheDevicePort"),
				"address":           nilIfEmpty(address),
				"platform":          value(row, "cdpCachePlatform"),
				"capabilities":      value(row, "cdpCacheCapabilities"),
				"version":           value(row, "cdpCacheVersion"),
				"native_vlan":       value(row, "cdpCacheNativeVLAN"),
				"duplex":            value(row, "cdpCacheDuplex"),
				"sys_name":          value(row, "cdpCacheSysName"),
			},
		})
	}

	return out
}

// cdpAddress decodes cdpCacheAddress when it carries an IPv4 address.
func cdpAddress(row *grouping.Row) string {
	if t := row.Get("cdpCacheAddressType"); t.Kind == decode.KindInteger && t.Int != cdpAddressTypeIP {
		return ""
	}

	raw := row.Get("cdpCacheAddress")
	if raw.IsNull() {
		return ""
	}

	v := decode.IPv4(raw.Raw)
	if net.ParseIP(v.Text).To4() == nil {
		return ""
	}

	return v.Text
}
