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
	"fmt"

	"github.com/carverauto/netinventory/pkg/decode"
	"github.com/carverauto/netinventory/pkg/grouping"
	"github.com/carverauto/netinventory/pkg/models"
	"github.com/carverauto/netinventory/pkg/store"
)

const macIndexParts = 6

// BridgePoller records BRIDGE-MIB and Q-BRIDGE-MIB state: the bridge base,
// its ports, static VLANs and both forwarding databases.
type BridgePoller struct {
	base
	baseCols    []grouping.Column
	portCols    []grouping.Column
	vlanCols    []grouping.Column
	fdbCols     []grouping.Column
	fdbVLANCols []grouping.Column
}

var _ Poller = (*BridgePoller)(nil)

func NewBridgePoller(deps Deps) (*BridgePoller, error) {
	b, err := newBase(DomainBridge, deps)
	if err != nil {
		return nil, err
	}

	p := &BridgePoller{base: b}

	sets := []struct {
		dst    *[]grouping.Column
		fields []field
	}{
		{&p.baseCols, []field{
			{"dot1dBaseBridgeAddress", decode.HardwareAddress},
			{"dot1dBaseNumPorts", decode.Integer},
			{"dot1dBaseType", decode.Integer},
		}},
		{&p.portCols, []field{
			{"dot1dBasePort", decode.Integer},
			{"dot1dBasePortIfIndex", decode.Integer},
		}},
		{&p.vlanCols, []field{
			{"dot1qVlanStaticName", decode.Text},
			{"dot1qVlanStaticEgressPorts", decode.Hex},
			{"dot1qVlanForbiddenEgressPorts", decode.Hex},
			{"dot1qVlanStaticUntaggedPorts", decode.Hex},
			{"dot1qVlanStaticRowStatus", decode.Integer},
		}},
		{&p.fdbCols, []field{
			{"dot1dTpFdbAddress", decode.HardwareAddress},
			{"dot1dTpFdbPort", decode.Integer},
			{"dot1dTpFdbStatus", decode.Integer},
		}},
		{&p.fdbVLANCols, []field{
			{"dot1qTpFdbPort", decode.Integer},
			{"dot1qTpFdbStatus", decode.Integer},
		}},
	}

	for _, set := range sets {
		cols, err := columns(deps.Catalog, set.fields...)
		if err != nil {
			return nil, err
		}

		*set.dst = cols
	}

	return p, nil
}

func (p *BridgePoller) Poll(ctx context.Context, device models.Device, cycle *Cycle) (err error) {
	run := p.begin(&device)
	defer func() { err = run.finish(err) }()

	var errs []error

	if rec, ok := p.bridgeBase(ctx, run, cycle); ok {
		if err := p.store.Upsert(ctx, store.BridgeBasesTable, []models.Record{rec}); err != nil {
			errs = append(errs, fmt.Errorf("upsert bridge base: %w", err))
		}
	}

	tables := []struct {
		table   store.Table
		records []models.Record
	}{
		{store.BridgePortsTable, p.ports(ctx, run, cycle)},
		{store.VLANsTable, p.vlans(ctx, run, cycle)},
		{store.FDBEntriesTable, p.fdb(ctx, run, cycle)},
		{store.FDBVLANEntriesTable, p.fdbByVLAN(ctx, run, cycle)},
	}

	for _, t := range tables {
		if err := p.store.Upsert(ctx, t.table, t.records); err != nil {
			errs = append(errs, fmt.Errorf("upsert %s: %w", t.table.Name, err))
		}
	}

	return errors.Join(errs...)
}

// bridgeBase returns false when the device answers no bridge scalars.
func (p *BridgePoller) bridgeBase(ctx context.Context, run *pollRun, cycle *Cycle) (models.Record, bool) {
	device := run.device

	values, err := run.get(ctx, p.baseCols)
	if err != nil {
		p.deviceLogger(device).Debug().Err(err).Msg("Bridge base unavailable")
		return nil, false
	}

	if len(values) == 0 {
		return nil, false
	}

	return models.Record{
		"device_id":      device.ID,
		"bridge_address": values["dot1dBaseBridgeAddress"].Any(),
		"num_ports":      values["dot1dBaseNumPorts"].Any(),
		"bridge_type":    values["dot1dBaseType"].Any(),
		"polled_at":      cycle.Now,
	}, true
}

func (p *BridgePoller) ports(ctx context.Context, run *pollRun, cycle *Cycle) []models.Record {
	device := run.device

	rows := grouping.Group(run.walk(ctx, p.portCols), grouping.Options{Parts: 1})
	out := make([]models.Record, 0, len(rows))

	for _, row := range rows {
		out = append(out, models.Record{
			"device_id": device.ID,
			"port":      int64(row.Index[0]),
			"if_index":  value(row, "dot1dBasePortIfIndex"),
			"polled_at": cycle.Now,
		})
	}

	return out
}

// vlans keeps the port bitmasks as hex text without interpreting them.
func (p *BridgePoller) vlans(ctx context.Context, run *pollRun, cycle *Cycle) []models.Record {
	device := run.device

	rows := grouping.Group(run.walk(ctx, p.vlanCols), grouping.Options{Parts: 1})
	out := make([]models.Record, 0, len(rows))

	for _, row := range rows {
		out = append(out, models.Record{
			"device_id":              device.ID,
			"vlan_id":                int64(row.Index[0]),
			"name":                   value(row, "dot1qVlanStaticName"),
			"egress_ports":           value(row, "dot1qVlanStaticEgressPorts"),
			"forbidden_egress_ports": value(row, "dot1qVlanForbiddenEgressPorts"),
			"untagged_ports":         value(row, "dot1qVlanStaticUntaggedPorts"),
			"row_status":             value(row, "dot1qVlanStaticRowStatus"),
			"polled_at":              cycle.Now,
		})
	}

	return out
}

func (p *BridgePoller) fdb(ctx context.Context, run *pollRun, cycle *Cycle) []models.Record {
	device := run.device

	rows := grouping.Group(run.walk(ctx, p.fdbCols), grouping.Options{Parts: macIndexParts})
	out := make([]models.Record, 0, len(rows))

	for _, row := range rows {
		mac := textOr(row.Get("dot1dTpFdbAddress"), indexMAC(row.Index))
		if mac == "" {
			continue
		}

		out = append(out, models.Record{
			"device_id":   device.ID,
			"mac_address": mac,
			"port":        value(row, "dot1dTpFdbPort"),
			"status":      value(row, "dot1dTpFdbStatus"),
			"polled_at":   cycle.Now,
		})
	}

	return out
}

// fdbByVLAN reads dot1qTpFdbTable, indexed by FDB id then MAC. The FDB id is
// recorded as the VLAN id.
func (p *BridgePoller) fdbByVLAN(ctx context.Context, run *pollRun, cycle *Cycle) []models.Record {
	device := run.device

	rows := grouping.Group(run.walk(ctx, p.fdbVLANCols), grouping.Options{Parts: 1 + macIndexParts})
	out := make([]models.Record, 0, len(rows))

	for _, row := range rows {
		mac := indexMAC(row.Index[1:])
		if mac == "" {
			continue
		}

		out = append(out, models.Record{
			"device_id":   device.ID,
			"vlan_id":     int64(row.Index[0]),
			"mac_address": mac,
			"port":        value(row, "dot1qTpFdbPort"),
			"status":      value(row, "dot1qTpFdbStatus"),
			"polled_at":   cycle.Now,
		})
	}

	return out
}

// indexMAC renders six index components as a hardware address.
func indexMAC(index []int) string {
	if len(index) != macIndexParts {
		return ""
	}

	b := make([]byte, macIndexParts)

	for i, n := range index {
		if n > 255 {
			return ""
		}

		b[i] = byte(n)
	}

	return decode.HardwareAddress(b).Text
}
