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

// LLDP-MIB id subtypes.
const (
	lldpChassisSubtypeMAC     = 4
	lldpChassisSubtypeNetwork = 5
	lldpPortSubtypeMAC        = 3
	lldpPortSubtypeNetwork    = 4

	// IANA address family ipV4(1)
	ianaFamilyIPv4 = 1
)

// lldpCapabilities names LldpSystemCapabilitiesMap bits, most significant first.
var lldpCapabilities = []string{
	"other", "repeater", "bridge", "wlanAccessPoint", "router", "telephone",
	"docsisCableDevice", "stationOnly", "cVlanComponent", "sVlanComponent", "twoPortMacRelay",
}

// LLDPPoller records LLDP-MIB remote systems resolved against the catalog.
type LLDPPoller struct {
	base
	remCols  []grouping.Column
	manCols  []grouping.Column
	portCols []grouping.Column
}

var _ Poller = (*LLDPPoller)(nil)

func NewLLDPPoller(deps Deps) (*LLDPPoller, error) {
	b, err := newBase(DomainLLDP, deps)
	if err != nil {
		return nil, err
	}

	remCols, err := columns(deps.Catalog,
		field{"lldpRemChassisIdSubtype", decode.Integer},
		field{"lldpRemChassisId", decode.Raw},
		field{"lldpRemPortIdSubtype", decode.Integer},
		field{"lldpRemPortId", decode.Raw},
		field{"lldpRemPortDesc", decode.Text},
		field{"lldpRemSysName", decode.Text},
		field{"lldpRemSysDesc", decode.Text},
		field{"lldpRemSysCapSupported", decode.Bits(lldpCapabilities)},
		field{"lldpRemSysCapEnabled", decode.Bits(lldpCapabilities)},
	)
	if err != nil {
		return nil, err
	}

	manCols, err := columns(deps.Catalog, field{"lldpRemManAddrIfSubtype", decode.Integer})
	if err != nil {
		return nil, err
	}

	portCols, err := columns(deps.Catalog,
		field{"lldpLocPortIdSubtype", decode.Integer},
		field{"lldpLocPortId", decode.Raw},
		field{"lldpLocPortDesc", decode.Text},
	)
	if err != nil {
		return nil, err
	}

	return &LLDPPoller{base: b, remCols: remCols, manCols: manCols, portCols: portCols}, nil
}

func (p *LLDPPoller) Poll(ctx context.Context, device models.Device, cycle *Cycle) (err error) {
	run := p.begin(&device)
	defer func() { err = run.finish(err) }()

	if cycle == nil || cycle.Snapshot == nil {
		return ErrMissingSnapshot
	}

	// lldpRemTable index: timeMark . localPortNum . remIndex; the time mark
	// is dropped so entries from different marks merge.
	rows := grouping.Group(run.walk(ctx, p.remCols), grouping.Options{
		Parts: 3,
		Key:   func(index []int) ([]int, bool) { return index[1:], true },
	})
	if len(rows) == 0 {
		return nil
	}

	addrs := LLDPManagementAddresses(grouping.Group(run.walk(ctx, p.manCols), grouping.Options{MinParts: 5}))
	localPorts := LLDPLocalPorts(grouping.Group(run.walk(ctx, p.portCols), grouping.Options{Parts: 1}))

	opts := topology.Options{LocalPorts: localPorts, PortDescriptionFallback: true}

	return p.persistAdjacencies(ctx, store.LLDPNeighborsTable, &device, LLDPObservations(rows, addrs), opts, cycle)
}

// LLDPObservations converts lldpRemTable rows keyed by (localPort, remIndex)
// to neighbor observations. addrs holds management addresses by the same key.
func LLDPObservations(rows []*grouping.Row, addrs map[string]string) []topology.Observation {
	out := make([]topology.Observation, 0, len(rows))

	for _, row := range rows {
		chassisSubtype := row.Get("lldpRemChassisIdSubtype")
		portSubtype := row.Get("lldpRemPortIdSubtype")

		chassisID := lldpID(row.Get("lldpRemChassisId"), chassisSubtype, lldpChassisSubtypeMAC, lldpChassisSubtypeNetwork)
		portID := lldpID(row.Get("lldpRemPortId"), portSubtype, lldpPortSubtypeMAC, lldpPortSubtypeNetwork)

		var chassisMAC string
		if chassisSubtype.Kind == decode.KindInteger && chassisSubtype.Int == lldpChassisSubtypeMAC {
			chassisMAC = decode.NormalizeMAC(chassisID)
		}

		address := addrs[row.Key]

		out = append(out, topology.Observation{
			LocalPort:         row.Index[0],
			NeighborIndex:     row.Index[1],
			ManagementAddress: address,
			ChassisID:         chassisID,
			ChassisMAC:        chassisMAC,
			PortID:            portID,
			PortDescription:   row.Get("lldpRemPortDesc").Text,
			SystemName:        row.Get("lldpRemSysName").Text,
			Fields: models.Record{
				"chassis_id":             nilIfEmpty(chassisID),
				"chassis_id_subtype":     chassisSubtype.Any(),
				"port_id":                nilIfEmpty(portID),
				"port_id_subtype":        portSubtype.Any(),
				"port_description":       value(row, "lldpRemPortDesc"),
				"sys_name":               value(row, "lldpRemSysName"),
				"sys_description":        value(row, "lldpRemSysDesc"),
				"capabilities_supported": value(row, "lldpRemSysCapSupported"),
				"capabilities_enabled":   value(row, "lldpRemSysCapEnabled"),
				"management_address":     nilIfEmpty(address),
			},
		})
	}

	return out
}

// LLDPManagementAddresses extracts IPv4 management addresses from the
// lldpRemManAddrTable index: timeMark . localPort . remIndex . subtype .
// length . address octets. The first IPv4 address per neighbor wins.
func LLDPManagementAddresses(rows []*grouping.Row) map[string]string {
	out := make(map[string]string)

	for _, row := range rows {
		idx := row.Index
		if idx[3] != ianaFamilyIPv4 || idx[4] != net.IPv4len || len(idx) != 5+net.IPv4len {
			continue
		}

		addr := indexIPv4(idx[5:])
		if addr == "" {
			continue
		}

		key := grouping.JoinIndex(idx[1:3])
		if _, seen := out[key]; !seen {
			out[key] = addr
		}
	}

	return out
}

// LLDPLocalPorts maps local port numbers to their advertised id and
// description.
func LLDPLocalPorts(rows []*grouping.Row) map[int]topology.LocalPort {
	out := make(map[int]topology.LocalPort, len(rows))

	for _, row := range rows {
		out[row.Index[0]] = topology.LocalPort{
			ID:          lldpID(row.Get("lldpLocPortId"), row.Get("lldpLocPortIdSubtype"), lldpPortSubtypeMAC, lldpPortSubtypeNetwork),
			Description: row.Get("lldpLocPortDesc").Text,
		}
	}

	return out
}

// lldpID renders an LLDP chassis or port id according to its subtype. MAC
// ids use the canonical MAC form, IPv4 network addresses dotted form, and
// everything else printable text or hex.
func lldpID(raw, subtype decode.Value, macSubtype, networkSubtype int64) string {
	if raw.IsNull() {
		return ""
	}

	if subtype.Kind == decode.KindInteger {
		switch subtype.Int {
		case macSubtype:
			if mac := decode.HardwareAddress(raw.Raw); !mac.IsNull() {
				return mac.Text
			}
		case networkSubtype:
			if b, ok := raw.Raw.([]byte); ok && len(b) == 1+net.IPv4len && b[0] == ianaFamilyIPv4 {
				return net.IP(b[1:]).String()
			}
		}
	}

	if text := decode.Text(raw.Raw); !text.IsNull() {
		return text.Text
	}

	return decode.Hex(raw.Raw).Text
}
