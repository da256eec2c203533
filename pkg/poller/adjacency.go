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

	"github.com/carverauto/netinventory/pkg/metrics"
	"github.com/carverauto/netinventory/pkg/models"
	"github.com/carverauto/netinventory/pkg/store"
	"github.com/carverauto/netinventory/pkg/topology"
)

// persistAdjacencies resolves observations against the cycle snapshot and
// upserts one row per local interface.
func (b *base) persistAdjacencies(
	ctx context.Context,
	table store.Table,
	device *models.Device,
	observations []topology.Observation,
	opts topology.Options,
	cycle *Cycle,
) error {
	if cycle == nil || cycle.Snapshot == nil {
		return ErrMissingSnapshot
	}

	protocol := string(b.domain)
	resolved, dropped := topology.Resolve(device.ID, observations, cycle.Snapshot, opts)

	log := b.deviceLogger(device)

	for _, obs := range dropped {
		metrics.AdjacenciesDroppedTotal.WithLabelValues(protocol).Inc()
		log.Warn().
			Int("local_port", obs.LocalPort).
			Int("neighbor_index", obs.NeighborIndex).
			Msg("No local interface for neighbor, dropping")
	}

	records := make([]models.Record, 0, len(resolved))

	for i := range resolved {
		res := &resolved[i]
		metrics.AdjacenciesResolvedTotal.WithLabelValues(protocol, string(res.Strategy)).Inc()

		rec := models.Record{
			"device_id":           device.ID,
			"local_interface_id":  res.LocalInterfaceID,
			"neighbor_index":      int64(res.NeighborIndex),
			"remote_device_id":    optionalID(res.RemoteDeviceID),
			"remote_interface_id": optionalID(res.RemoteInterfaceID),
			"polled_at":           cycle.Now,
		}

		for k, v := range res.Fields {
			rec[k] = v
		}

		records = append(records, rec)
	}

	if err := b.store.Upsert(ctx, table, records); err != nil {
		return fmt.Errorf("upsert %s: %w", table.Name, err)
	}

	return nil
}

func optionalID(id *int64) interface{} {
	if id == nil {
		return nil
	}

	return *id
}
