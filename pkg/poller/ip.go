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
	"math/bits"
	"net"

	"github.com/carverauto/netinventory/pkg/decode"
	"github.com/carverauto/netinventory/pkg/grouping"
	"github.com/carverauto/netinventory/pkg/models"
	"github.com/carverauto/netinventory/pkg/store"
)

const ipv4IndexParts = 4

// IPPoller records the IPv4 address table and the ARP cache under the
// device's IP context anchor.
type IPPoller struct {
	base
	addrCols []grouping.Column
	arpCols  []grouping.Column
}

var _ Poller = (*IPPoller)(nil)

func NewIPPoller(deps Deps) (*IPPoller, error) {
	b, err := newBase(DomainIP, deps)
	if err != nil {
		return nil, err
	}

	addrCols, err := columns(deps.Catalog,
		field{"ipAdEntAddr", decode.IPv4},
		field{"ipAdEntIfIndex", decode.Integer},
		field{"ipAdEntNetMask", decode.IPv4},
	)
	if err != nil {
		return nil, err
	}

	arpCols, err := columns(deps.Catalog,
		field{"ipNetToMediaIfIndex", decode.Integer},
		field{"ipNetToMediaPhysAddress", decode.HardwareAddress},
		field{"ipNetToMediaNetAddress", decode.IPv4},
		field{"ipNetToMediaType", decode.Integer},
	)
	if err != nil {
		return nil, err
	}

	return &IPPoller{base: b, addrCols: addrCols, arpCols: arpCols}, nil
}

func (p *IPPoller) Poll(ctx context.Context, device models.Device, cycle *Cycle) (err error) {
	run := p.begin(&device)
	defer func() { err = run.finish(err) }()

	addrRows := grouping.Group(run.walk(ctx, p.addrCols), grouping.Options{Parts: ipv4IndexParts})
	arpRows := grouping.Group(run.walk(ctx, p.arpCols), grouping.Options{Parts: 1 + ipv4IndexParts})

	if len(addrRows) == 0 && len(arpRows) == 0 {
		return nil
	}

	contextID, err := p.store.EnsureAnchor(ctx, store.IPContextsTable, models.Record{"device_id": device.ID})
	if err != nil {
		return fmt.Errorf("ensure ip context: %w", err)
	}

	addrs := make([]models.Record, 0, len(addrRows))

	for _, row := range addrRows {
		mask := row.Get("ipAdEntNetMask")

		addrs = append(addrs, models.Record{
			"ip_context_id": contextID,
			"address":       indexIPv4(row.Index),
			"if_index":      value(row, "ipAdEntIfIndex"),
			"netmask":       mask.Any(),
			"prefix_length": prefixLength(mask.Text),
			"polled_at":     cycle.Now,
		})
	}

	if err := p.store.Upsert(ctx, store.IPAddressesTable, addrs); err != nil {
		return fmt.Errorf("upsert ip addresses: %w", err)
	}

	arp := make([]models.Record, 0, len(arpRows))

	for _, row := range arpRows {
		addr := indexIPv4(row.Index[1:])
		if addr == "" || decode.IsZeroIPv4(addr) {
			continue
		}

		arp = append(arp, models.Record{
			"ip_context_id":    contextID,
			"if_index":         int64(row.Index[0]),
			"network_address":  addr,
			"physical_address": value(row, "ipNetToMediaPhysAddress"),
			"entry_type":       value(row, "ipNetToMediaType"),
			"polled_at":        cycle.Now,
		})
	}

	if err := p.store.Upsert(ctx, store.ARPEntriesTable, arp); err != nil {
		return fmt.Errorf("upsert arp entries: %w", err)
	}

	return nil
}

// indexIPv4 renders four index components as a dotted address.
func indexIPv4(index []int) string {
	if len(index) != ipv4IndexParts {
		return ""
	}

	ip := make(net.IP, ipv4IndexParts)

	for i, n := range index {
		if n > 255 {
			return ""
		}

		ip[i] = byte(n)
	}

	return ip.String()
}

// prefixLength converts a dotted netmask to its prefix length. Non-contiguous
// masks yield nil.
func prefixLength(mask string) interface{} {
	ip := net.ParseIP(mask).To4()
	if ip == nil {
		return nil
	}

	ones, size := net.IPMask(ip).Size()
	if size == 0 {
		return nil
	}

	return int64(ones)
}

// maskBits counts the set bits of a dotted netmask, tolerating
// non-contiguous masks.
func maskBits(mask string) int {
	ip := net.ParseIP(mask).To4()
	if ip == nil {
		return 0
	}

	n := 0
	for _, b := range ip {
		n += bits.OnesCount8(b)
	}

	return n
}
