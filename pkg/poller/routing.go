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

	"github.com/carverauto/netinventory/pkg/decode"
	"github.com/carverauto/netinventory/pkg/grouping"
	"github.com/carverauto/netinventory/pkg/models"
	"github.com/carverauto/netinventory/pkg/store"
)

// ipCidrRouteTable index: dest(4) . mask(4) . tos(1) . nextHop(4)
const cidrRouteIndexParts = 13

// RoutingPoller records the IP-FORWARD-MIB ipCidrRouteTable.
type RoutingPoller struct {
	base
	cols []grouping.Column
}

var _ Poller = (*RoutingPoller)(nil)

func NewRoutingPoller(deps Deps) (*RoutingPoller, error) {
	b, err := newBase(DomainRouting, deps)
	if err != nil {
		return nil, err
	}

	cols, err := columns(deps.Catalog,
		field{"ipCidrRouteDest", decode.IPv4},
		field{"ipCidrRouteMask", decode.IPv4},
		field{"ipCidrRouteNextHop", decode.IPv4},
		field{"ipCidrRouteIfIndex", decode.Integer},
		field{"ipCidrRouteType", decode.Integer},
		field{"ipCidrRouteProto", decode.Integer},
		field{"ipCidrRouteAge", decode.Integer},
		field{"ipCidrRouteMetric1", decode.Integer},
	)
	if err != nil {
		return nil, err
	}

	return &RoutingPoller{base: b, cols: cols}, nil
}

func (p *RoutingPoller) Poll(ctx context.Context, device models.Device, cycle *Cycle) (err error) {
	run := p.begin(&device)
	defer func() { err = run.finish(err) }()

	rows := grouping.Group(run.walk(ctx, p.cols), grouping.Options{Parts: cidrRouteIndexParts})

	records := make([]models.Record, 0, len(rows))

	for _, row := range rows {
		dest := textOr(row.Get("ipCidrRouteDest"), indexIPv4(row.Index[0:4]))
		mask := textOr(row.Get("ipCidrRouteMask"), indexIPv4(row.Index[4:8]))
		nextHop := textOr(row.Get("ipCidrRouteNextHop"), indexIPv4(row.Index[9:13]))

		if dest == "" || nextHop == "" {
			continue
		}

		records = append(records, models.Record{
			"device_id":   device.ID,
			"destination": fmt.Sprintf("%s/%d", dest, maskBits(mask)),
			"next_hop":    nextHop,
			"if_index":    value(row, "ipCidrRouteIfIndex"),
			"route_type":  value(row, "ipCidrRouteType"),
			"protocol":    value(row, "ipCidrRouteProto"),
			"age":         value(row, "ipCidrRouteAge"),
			"metric":      value(row, "ipCidrRouteMetric1"),
			"polled_at":   cycle.Now,
		})
	}

	records = DedupRoutes(records)

	if err := p.store.Upsert(ctx, store.RoutesTable, records); err != nil {
		return fmt.Errorf("upsert routes: %w", err)
	}

	return nil
}

// DedupRoutes collapses records sharing (destination, next_hop). The last
// record seen wins and keeps the position of the first.
func DedupRoutes(records []models.Record) []models.Record {
	type routeKey struct{ dest, nextHop string }

	pos := make(map[routeKey]int, len(records))
	out := make([]models.Record, 0, len(records))

	for _, rec := range records {
		k := routeKey{fmt.Sprint(rec["destination"]), fmt.Sprint(rec["next_hop"])}

		if i, ok := pos[k]; ok {
			out[i] = rec
			continue
		}

		pos[k] = len(out)
		out = append(out, rec)
	}

	return out
}

// textOr returns the decoded text or fallback when the value is null.
func textOr(v decode.Value, fallback string) string {
	if v.IsNull() || v.Text == "" {
		return fallback
	}

	return v.Text
}
