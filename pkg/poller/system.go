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

// SystemPoller records the SNMPv2-MIB system group of a device.
type SystemPoller struct {
	base
	cols []grouping.Column
}

var _ Poller = (*SystemPoller)(nil)

func NewSystemPoller(deps Deps) (*SystemPoller, error) {
	b, err := newBase(DomainSystem, deps)
	if err != nil {
		return nil, err
	}

	cols, err := columns(deps.Catalog,
		field{"sysDescr", decode.Text},
		field{"sysObjectID", decode.Text},
		field{"sysUpTime", decode.Integer},
		field{"sysContact", decode.Text},
		field{"sysName", decode.Text},
		field{"sysLocation", decode.Text},
	)
	if err != nil {
		return nil, err
	}

	return &SystemPoller{base: b, cols: cols}, nil
}

// Poll reads the six system scalars. A device that answers none of them gets
// no row.
func (p *SystemPoller) Poll(ctx context.Context, device models.Device, cycle *Cycle) (err error) {
	run := p.begin(&device)
	defer func() { err = run.finish(err) }()

	values, err := run.get(ctx, p.cols)
	if err != nil {
		return fmt.Errorf("system get: %w", err)
	}

	if len(values) == 0 {
		return ErrNoResponse
	}

	row := models.Record{
		"device_id":   device.ID,
		"description": values["sysDescr"].Any(),
		"object_id":   values["sysObjectID"].Any(),
		"contact":     values["sysContact"].Any(),
		"name":        values["sysName"].Any(),
		"location":    values["sysLocation"].Any(),
		"polled_at":   cycle.Now,
	}

	if uptime, ok := values["sysUpTime"]; ok && uptime.Kind == decode.KindInteger {
		row["uptime_ticks"] = uptime.Int
		row["boot_time"] = decode.Ticks(cycle.Now)(uptime.Int).Any()
	}

	if err := p.store.Upsert(ctx, store.SystemsTable, []models.Record{row}); err != nil {
		return fmt.Errorf("upsert system: %w", err)
	}

	return nil
}
