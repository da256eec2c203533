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

// physicalColumns maps ENTITY-MIB entPhysicalTable fields to table columns.
var physicalColumns = []struct {
	field  string
	column string
	decode decode.Func
}{
	{"entPhysicalDescr", "description", decode.Text},
	{"entPhysicalVendorType", "vendor_type", decode.Text},
	{"entPhysicalContainedIn", "contained_in", decode.Integer},
	{"entPhysicalClass", "class", decode.Integer},
	{"entPhysicalParentRelPos", "parent_rel_pos", decode.Integer},
	{"entPhysicalName", "name", decode.Text},
	{"entPhysicalHardwareRev", "hardware_rev", decode.Text},
	{"entPhysicalFirmwareRev", "firmware_rev", decode.Text},
	{"entPhysicalSoftwareRev", "software_rev", decode.Text},
	{"entPhysicalSerialNum", "serial_number", decode.Text},
	{"entPhysicalMfgName", "mfg_name", decode.Text},
	{"entPhysicalModelName", "model_name", decode.Text},
	{"entPhysicalAlias", "alias", decode.Text},
	{"entPhysicalAssetID", "asset_id", decode.Text},
	{"entPhysicalIsFRU", "is_fru", decode.Integer},
	{"entPhysicalMfgDate", "mfg_date", decode.DateAndTime},
}

// PhysicalPoller records the ENTITY-MIB physical entity tree. The
// contained_in reference is stored as reported, even when it points at an
// entity that was not returned.
type PhysicalPoller struct {
	base
	cols []grouping.Column
}

var _ Poller = (*PhysicalPoller)(nil)

func NewPhysicalPoller(deps Deps) (*PhysicalPoller, error) {
	b, err := newBase(DomainPhysical, deps)
	if err != nil {
		return nil, err
	}

	fields := make([]field, len(physicalColumns))
	for i, c := range physicalColumns {
		fields[i] = field{c.field, c.decode}
	}

	cols, err := columns(deps.Catalog, fields...)
	if err != nil {
		return nil, err
	}

	return &PhysicalPoller{base: b, cols: cols}, nil
}

func (p *PhysicalPoller) Poll(ctx context.Context, device models.Device, cycle *Cycle) (err error) {
	run := p.begin(&device)
	defer func() { err = run.finish(err) }()

	rows := grouping.Group(run.walk(ctx, p.cols), grouping.Options{Parts: 1})

	records := make([]models.Record, 0, len(rows))

	for _, row := range rows {
		rec := models.Record{
			"device_id":      device.ID,
			"physical_index": int64(row.Index[0]),
			"polled_at":      cycle.Now,
		}

		for _, c := range physicalColumns {
			rec[c.column] = value(row, c.field)
		}

		records = append(records, rec)
	}

	if err := p.store.Upsert(ctx, store.PhysicalEntitiesTable, records); err != nil {
		return fmt.Errorf("upsert physical entities: %w", err)
	}

	return nil
}
