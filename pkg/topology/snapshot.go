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

// Package topology resolves CDP and LLDP neighbor observations to known
// devices and interfaces.
package topology

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/carverauto/netinventory/pkg/decode"
	"github.com/carverauto/netinventory/pkg/models"
)

// Source loads the device and interface catalog.
type Source interface {
	Devices(ctx context.Context, deviceID int64) ([]models.Device, error)
	Interfaces(ctx context.Context, deviceID int64) ([]models.Interface, error)
}

// Snapshot is an immutable view of every known device and interface, built
// once per poll cycle and shared by all resolutions in it.
type Snapshot struct {
	byIP     map[string][]int64
	byName   map[string][]int64
	byMAC    map[string][]models.Interface
	byDevice map[int64][]models.Interface
}

// LoadSnapshot reads the full catalog from src.
func LoadSnapshot(ctx context.Context, src Source) (*Snapshot, error) {
	devices, err := src.Devices(ctx, 0)
	if err != nil {
		return nil, fmt.Errorf("load devices: %w", err)
	}

	ifaces, err := src.Interfaces(ctx, 0)
	if err != nil {
		return nil, fmt.Errorf("load interfaces: %w", err)
	}

	return NewSnapshot(devices, ifaces), nil
}

// NewSnapshot indexes devices and interfaces. Index lists are ordered by
// device id then ifIndex so lookups are deterministic.
func NewSnapshot(devices []models.Device, ifaces []models.Interface) *Snapshot {
	s := &Snapshot{
		byIP:     make(map[string][]int64),
		byName:   make(map[string][]int64),
		byMAC:    make(map[string][]models.Interface),
		byDevice: make(map[int64][]models.Interface),
	}

	sorted := append([]models.Device(nil), devices...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].ID < sorted[j].ID })

	for _, d := range sorted {
		if ip := strings.TrimSpace(d.ManagementIP); ip != "" {
			s.byIP[ip] = append(s.byIP[ip], d.ID)
		}

		if name := NormalizeName(d.Name); name != "" {
			s.byName[name] = append(s.byName[name], d.ID)
		}
	}

	sortedIfaces := append([]models.Interface(nil), ifaces...)
	sort.Slice(sortedIfaces, func(i, j int) bool {
		if sortedIfaces[i].DeviceID != sortedIfaces[j].DeviceID {
			return sortedIfaces[i].DeviceID < sortedIfaces[j].DeviceID
		}

		return sortedIfaces[i].IfIndex < sortedIfaces[j].IfIndex
	})

	for _, iface := range sortedIfaces {
		s.byDevice[iface.DeviceID] = append(s.byDevice[iface.DeviceID], iface)

		if mac := decode.NormalizeMAC(iface.MACAddress); mac != "" && !decode.IsZeroMAC(mac) {
			s.byMAC[mac] = append(s.byMAC[mac], iface)
		}
	}

	return s
}

// InterfacesOf returns the interfaces of a device ordered by ifIndex.
func (s *Snapshot) InterfacesOf(deviceID int64) []models.Interface {
	return s.byDevice[deviceID]
}

// NormalizeName lower-cases a host name and truncates it at the first dot so
// FQDNs match short names.
func NormalizeName(name string) string {
	name = strings.ToLower(strings.TrimSpace(name))
	if idx := strings.IndexByte(name, '.'); idx >= 0 {
		name = name[:idx]
	}

	return name
}

func (s *Snapshot) deviceByIP(ip string, exclude int64) (int64, bool) {
	return firstOther(s.byIP[strings.TrimSpace(ip)], exclude)
}

func (s *Snapshot) deviceByName(name string, exclude int64) (int64, bool) {
	key := NormalizeName(name)
	if key == "" {
		return 0, false
	}

	return firstOther(s.byName[key], exclude)
}

func (s *Snapshot) interfaceByMAC(mac string, exclude int64) (models.Interface, bool) {
	for _, iface := range s.byMAC[mac] {
		if iface.DeviceID != exclude {
			return iface, true
		}
	}

	return models.Interface{}, false
}

func firstOther(ids []int64, exclude int64) (int64, bool) {
	for _, id := range ids {
		if id != exclude {
			return id, true
		}
	}

	return 0, false
}
