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

// SyntheticIfIndex is reserved for interfaces the engine creates itself.
const SyntheticIfIndex = -1

const syntheticInterfaceName = "camera0"

// CameraPoller records the vendor scalars exposed by IP cameras and ties the
// record to the interface owning the camera's MAC address.
type CameraPoller struct {
	base
	cols []grouping.Column
}

var _ Poller = (*CameraPoller)(nil)

func NewCameraPoller(deps Deps) (*CameraPoller, error) {
	b, err := newBase(DomainCamera, deps)
	if err != nil {
		return nil, err
	}

	cols, err := columns(deps.Catalog,
		field{"hikDeviceType", decode.Text},
		field{"hikHardwareVer", decode.Text},
		field{"hikSoftwareVer", decode.Text},
		field{"hikMacAddress", decode.HardwareAddress},
		field{"hikDeviceID", decode.Text},
		field{"hikManufacturer", decode.Text},
		field{"hikCPUPercent", decode.Integer},
		field{"hikDiskSize", decode.Integer},
		field{"hikDiskPercent", decode.Integer},
		field{"hikMemSize", decode.Integer},
		field{"hikMemUsed", decode.Integer},
	)
	if err != nil {
		return nil, err
	}

	return &CameraPoller{base: b, cols: cols}, nil
}

// Poll writes nothing for devices that are not cameras.
func (p *CameraPoller) Poll(ctx context.Context, device models.Device, cycle *Cycle) (err error) {
	run := p.begin(&device)
	defer func() { err = run.finish(err) }()

	values, err := run.get(ctx, p.cols)
	if err != nil {
		return fmt.Errorf("camera get: %w", err)
	}

	if len(values) == 0 {
		return nil
	}

	// A camera without a usable MAC is recorded with no owning interface.
	var interfaceID interface{}

	if mac := values["hikMacAddress"].Text; !decode.IsZeroMAC(mac) {
		id, err := p.owningInterface(ctx, &device, mac, cycle)
		if err != nil {
			return err
		}

		interfaceID = id
	}

	rec := models.Record{
		"device_id":        device.ID,
		"interface_id":     interfaceID,
		"model":            values["hikDeviceType"].Any(),
		"hardware_version": values["hikHardwareVer"].Any(),
		"firmware_version": values["hikSoftwareVer"].Any(),
		"mac_address":      values["hikMacAddress"].Any(),
		"serial":           values["hikDeviceID"].Any(),
		"manufacturer":     values["hikManufacturer"].Any(),
		"cpu_percent":      values["hikCPUPercent"].Any(),
		"disk_size":        values["hikDiskSize"].Any(),
		"disk_percent":     values["hikDiskPercent"].Any(),
		"memory_size":      values["hikMemSize"].Any(),
		"memory_used":      values["hikMemUsed"].Any(),
		"polled_at":        cycle.Now,
	}

	if err := p.store.Upsert(ctx, store.CameraRecordsTable, []models.Record{rec}); err != nil {
		return fmt.Errorf("upsert camera record: %w", err)
	}

	return nil
}

// owningInterface returns the device interface carrying mac, a non-zero
// normalized address, creating the synthetic interface when none does.
func (p *CameraPoller) owningInterface(ctx context.Context, device *models.Device, mac string, cycle *Cycle) (int64, error) {
	ifaces, err := p.store.Interfaces(ctx, device.ID)
	if err != nil {
		return 0, fmt.Errorf("read interfaces: %w", err)
	}

	for _, iface := range ifaces {
		if iface.IfIndex != SyntheticIfIndex && decode.NormalizeMAC(iface.MACAddress) == mac {
			return iface.ID, nil
		}
	}

	synthetic := models.Record{
		"device_id":   device.ID,
		"if_index":    int64(SyntheticIfIndex),
		"name":        syntheticInterfaceName,
		"mac_address": mac,
		"polled_at":   cycle.Now,
	}

	if err := p.store.Upsert(ctx, store.InterfacesTable, []models.Record{synthetic}); err != nil {
		return 0, fmt.Errorf("upsert synthetic interface: %w", err)
	}

	ifaces, err = p.store.Interfaces(ctx, device.ID)
	if err != nil {
		return 0, fmt.Errorf("read back synthetic interface: %w", err)
	}

	for _, iface := range ifaces {
		if iface.IfIndex == SyntheticIfIndex {
			return iface.ID, nil
		}
	}

	return 0, fmt.Errorf("%w: synthetic interface of device %d", ErrMissingInterface, device.ID)
}

func nilIfEmpty(s string) interface{} {
	if s == "" {
		return nil
	}

	return s
}
