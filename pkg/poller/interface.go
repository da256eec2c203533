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
	"fmt"
	"sort"

	"github.com/carverauto/netinventory/pkg/decode"
	"github.com/carverauto/netinventory/pkg/grouping"
	"github.com/carverauto/netinventory/pkg/metrics"
	"github.com/carverauto/netinventory/pkg/models"
	"github.com/carverauto/netinventory/pkg/store"
)

const (
	statusUp = 1

	upScore = 1000
	megabit = 1_000_000
)

// InterfacePoller records ifTable/ifXTable rows and appends one telemetry
// sample per surviving interface.
type InterfacePoller struct {
	base
	cols []grouping.Column
}

var _ Poller = (*InterfacePoller)(nil)

func NewInterfacePoller(deps Deps) (*InterfacePoller, error) {
	b, err := newBase(DomainInterfaces, deps)
	if err != nil {
		return nil, err
	}

	cols, err := columns(deps.Catalog,
		field{"ifDescr", decode.Text},
		field{"ifName", decode.Text},
		field{"ifAlias", decode.Text},
		field{"ifType", decode.Integer},
		field{"ifMtu", decode.Integer},
		field{"ifSpeed", decode.Integer},
		field{"ifHighSpeed", decode.Integer},
		field{"ifPhysAddress", decode.HardwareAddress},
		field{"ifAdminStatus", decode.Integer},
		field{"ifOperStatus", decode.Integer},
		field{"ifLastChange", decode.Integer},
		field{"ifInOctets", decode.Integer},
		field{"ifHCInOctets", decode.Integer},
		field{"ifOutOctets", decode.Integer},
		field{"ifHCOutOctets", decode.Integer},
		field{"ifInUcastPkts", decode.Integer},
		field{"ifHCInUcastPkts", decode.Integer},
		field{"ifOutUcastPkts", decode.Integer},
		field{"ifHCOutUcastPkts", decode.Integer},
		field{"ifInErrors", decode.Integer},
		field{"ifOutErrors", decode.Integer},
		field{"ifInDiscards", decode.Integer},
		field{"ifOutDiscards", decode.Integer},
	)
	if err != nil {
		return nil, err
	}

	return &InterfacePoller{base: b, cols: cols}, nil
}

func (p *InterfacePoller) Poll(ctx context.Context, device models.Device, cycle *Cycle) (err error) {
	run := p.begin(&device)
	defer func() { err = run.finish(err) }()

	rows := grouping.Group(run.walk(ctx, p.cols), grouping.Options{Parts: 1})
	if len(rows) == 0 {
		return nil
	}

	rows = CollapseByMAC(rows)

	records := make([]models.Record, 0, len(rows))
	for _, row := range rows {
		records = append(records, interfaceRecord(device.ID, row, cycle))
	}

	if err := p.store.Upsert(ctx, store.InterfacesTable, records); err != nil {
		return fmt.Errorf("upsert interfaces: %w", err)
	}

	ifaces, err := p.store.Interfaces(ctx, device.ID)
	if err != nil {
		return fmt.Errorf("read back interfaces: %w", err)
	}

	ids := make(map[int]int64, len(ifaces))
	for _, iface := range ifaces {
		ids[iface.IfIndex] = iface.ID
	}

	telemetry := make([]models.Record, 0, len(rows))

	for _, row := range rows {
		id, ok := ids[row.Index[0]]
		if !ok {
			return fmt.Errorf("%w: if_index %d", ErrMissingInterface, row.Index[0])
		}

		telemetry = append(telemetry, telemetryRecord(device.ID, id, row, cycle))
	}

	if err := p.store.InsertOnly(ctx, store.InterfaceTelemetryTable, telemetry); err != nil {
		return fmt.Errorf("insert interface telemetry: %w", err)
	}

	metrics.RowsWrittenTotal.WithLabelValues(store.InterfaceTelemetryTable.Name).Add(float64(len(telemetry)))

	return nil
}

// InterfaceScore ranks interfaces sharing a hardware address. Up interfaces
// outrank down ones and lower ifIndex values break the remaining ties.
func InterfaceScore(row *grouping.Row) int {
	score := -row.Index[0]
	if interfaceUp(row) {
		score += upScore
	}

	return score
}

// interfaceUp uses operStatus when present and adminStatus otherwise.
func interfaceUp(row *grouping.Row) bool {
	if oper := row.Get("ifOperStatus"); oper.Kind == decode.KindInteger {
		return oper.Int == statusUp
	}

	admin := row.Get("ifAdminStatus")

	return admin.Kind == decode.KindInteger && admin.Int == statusUp
}

// CollapseByMAC keeps the best scored interface per non-zero hardware
// address. Interfaces without a usable address are all kept. Output stays in
// index order.
func CollapseByMAC(rows []*grouping.Row) []*grouping.Row {
	best := make(map[string]*grouping.Row)

	for _, row := range rows {
		mac := row.Get("ifPhysAddress").Text
		if mac == "" || decode.IsZeroMAC(mac) {
			continue
		}

		current, ok := best[mac]
		if !ok {
			best[mac] = row
			continue
		}

		s, cs := InterfaceScore(row), InterfaceScore(current)
		if s > cs || (s == cs && row.Index[0] < current.Index[0]) {
			best[mac] = row
		}
	}

	out := make([]*grouping.Row, 0, len(rows))

	for _, row := range rows {
		mac := row.Get("ifPhysAddress").Text
		if mac != "" && !decode.IsZeroMAC(mac) && best[mac] != row {
			continue
		}

		out = append(out, row)
	}

	sort.SliceStable(out, func(i, j int) bool { return out[i].Index[0] < out[j].Index[0] })

	return out
}

func interfaceRecord(deviceID int64, row *grouping.Row, cycle *Cycle) models.Record {
	return models.Record{
		"device_id":    deviceID,
		"if_index":     int64(row.Index[0]),
		"name":         value(row, "ifName"),
		"description":  value(row, "ifDescr"),
		"alias":        value(row, "ifAlias"),
		"if_type":      value(row, "ifType"),
		"mtu":          value(row, "ifMtu"),
		"speed":        interfaceSpeed(row),
		"mac_address":  value(row, "ifPhysAddress"),
		"admin_status": value(row, "ifAdminStatus"),
		"oper_status":  value(row, "ifOperStatus"),
		"last_change":  value(row, "ifLastChange"),
		"polled_at":    cycle.Now,
	}
}

// interfaceSpeed returns bits per second, preferring ifHighSpeed (Mbps).
func interfaceSpeed(row *grouping.Row) interface{} {
	if high := row.Get("ifHighSpeed"); high.Kind == decode.KindInteger && high.Int > 0 {
		return high.Int * megabit
	}

	speed := row.Get("ifSpeed")
	if speed.Kind != decode.KindInteger {
		return nil
	}

	return speed.Int
}

func telemetryRecord(deviceID, interfaceID int64, row *grouping.Row, cycle *Cycle) models.Record {
	return models.Record{
		"interface_id": interfaceID,
		"device_id":    deviceID,
		"in_octets":    counter(row, "ifHCInOctets", "ifInOctets"),
		"out_octets":   counter(row, "ifHCOutOctets", "ifOutOctets"),
		"in_packets":   counter(row, "ifHCInUcastPkts", "ifInUcastPkts"),
		"out_packets":  counter(row, "ifHCOutUcastPkts", "ifOutUcastPkts"),
		"in_errors":    value(row, "ifInErrors"),
		"out_errors":   value(row, "ifOutErrors"),
		"in_discards":  value(row, "ifInDiscards"),
		"out_discards": value(row, "ifOutDiscards"),
		"oper_status":  value(row, "ifOperStatus"),
		"polled_at":    cycle.Now,
	}
}

// counter prefers the 64-bit column when the device reports it.
func counter(row *grouping.Row, hc, legacy string) interface{} {
	if v := row.Get(hc); v.Kind == decode.KindInteger {
		return v.Int
	}

	return value(row, legacy)
}
