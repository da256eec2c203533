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

const (
	hostResourcesName = "host-resources"
	hostResourcesKind = "hr"
)

// HostResourcesPoller records HOST-RESOURCES-MIB running processes, their
// performance counters and installed software.
type HostResourcesPoller struct {
	base
	runCols       []grouping.Column
	perfCols      []grouping.Column
	installedCols []grouping.Column
}

var _ Poller = (*HostResourcesPoller)(nil)

func NewHostResourcesPoller(deps Deps) (*HostResourcesPoller, error) {
	b, err := newBase(DomainHostResources, deps)
	if err != nil {
		return nil, err
	}

	runCols, err := columns(deps.Catalog,
		field{"hrSWRunName", decode.Text},
		field{"hrSWRunPath", decode.Text},
		field{"hrSWRunParameters", decode.Text},
		field{"hrSWRunType", decode.Integer},
		field{"hrSWRunStatus", decode.Integer},
	)
	if err != nil {
		return nil, err
	}

	perfCols, err := columns(deps.Catalog,
		field{"hrSWRunPerfCPU", decode.Integer},
		field{"hrSWRunPerfMem", decode.Integer},
	)
	if err != nil {
		return nil, err
	}

	installedCols, err := columns(deps.Catalog,
		field{"hrSWInstalledName", decode.Text},
		field{"hrSWInstalledType", decode.Integer},
		field{"hrSWInstalledDate", decode.DateAndTime},
	)
	if err != nil {
		return nil, err
	}

	return &HostResourcesPoller{base: b, runCols: runCols, perfCols: perfCols, installedCols: installedCols}, nil
}

func (p *HostResourcesPoller) Poll(ctx context.Context, device models.Device, cycle *Cycle) (err error) {
	run := p.begin(&device)
	defer func() { err = run.finish(err) }()

	runs := grouping.Group(run.walk(ctx, p.runCols), grouping.Options{Parts: 1})
	perfs := grouping.Group(run.walk(ctx, p.perfCols), grouping.Options{Parts: 1})
	installed := grouping.Group(run.walk(ctx, p.installedCols), grouping.Options{Parts: 1})

	if len(runs) == 0 && len(perfs) == 0 && len(installed) == 0 {
		return nil
	}

	resourceID, err := p.store.EnsureAnchor(ctx, store.ResourcesTable, models.Record{
		"device_id": device.ID,
		"name":      hostResourcesName,
		"kind":      hostResourcesKind,
	})
	if err != nil {
		return fmt.Errorf("ensure host resources anchor: %w", err)
	}

	runRecords := make([]models.Record, 0, len(runs))
	for _, row := range runs {
		runRecords = append(runRecords, models.Record{
			"resource_id": resourceID,
			"run_index":   int64(row.Index[0]),
			"name":        value(row, "hrSWRunName"),
			"path":        value(row, "hrSWRunPath"),
			"parameters":  value(row, "hrSWRunParameters"),
			"run_type":    value(row, "hrSWRunType"),
			"status":      value(row, "hrSWRunStatus"),
			"polled_at":   cycle.Now,
		})
	}

	if err := p.store.Upsert(ctx, store.ProcessRunsTable, runRecords); err != nil {
		return fmt.Errorf("upsert process runs: %w", err)
	}

	perfRecords := make([]models.Record, 0, len(perfs))
	for _, row := range perfs {
		perfRecords = append(perfRecords, models.Record{
			"resource_id":      resourceID,
			"run_index":        int64(row.Index[0]),
			"cpu_centiseconds": value(row, "hrSWRunPerfCPU"),
			"memory_kb":        value(row, "hrSWRunPerfMem"),
			"polled_at":        cycle.Now,
		})
	}

	if err := p.store.Upsert(ctx, store.ProcessPerfsTable, perfRecords); err != nil {
		return fmt.Errorf("upsert process perfs: %w", err)
	}

	if err := p.store.Upsert(ctx, store.InstalledSoftwareTable, InstalledByName(resourceID, installed, cycle)); err != nil {
		return fmt.Errorf("upsert installed software: %w", err)
	}

	return nil
}

// InstalledByName keys installed software by name; the last row carrying a
// name wins. Rows without a name are skipped.
func InstalledByName(resourceID int64, rows []*grouping.Row, cycle *Cycle) []models.Record {
	pos := make(map[string]int, len(rows))
	out := make([]models.Record, 0, len(rows))

	for _, row := range rows {
		name := row.Get("hrSWInstalledName").Text
		if name == "" {
			continue
		}

		rec := models.Record{
			"resource_id":  resourceID,
			"name":         name,
			"sw_index":     int64(row.Index[0]),
			"sw_type":      value(row, "hrSWInstalledType"),
			"installed_at": value(row, "hrSWInstalledDate"),
			"polled_at":    cycle.Now,
		}

		if i, ok := pos[name]; ok {
			out[i] = rec
			continue
		}

		pos[name] = len(out)
		out = append(out, rec)
	}

	return out
}
