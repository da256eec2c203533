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

package store

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"sync"

	"github.com/carverauto/netinventory/pkg/models"
)

// MemoryStore is an in-process Store honoring table conflict keys. It backs
// dry runs and tests.
type MemoryStore struct {
	mu      sync.RWMutex
	devices map[int64]models.Device
	tables  map[string]*memoryTable
}

type memoryTable struct {
	nextID int64
	rows   []models.Record
	index  map[string]int
}

var _ Store = (*MemoryStore)(nil)

// NewMemoryStore returns a store seeded with devices.
func NewMemoryStore(devices ...models.Device) *MemoryStore {
	m := &MemoryStore{
		devices: make(map[int64]models.Device, len(devices)),
		tables:  make(map[string]*memoryTable),
	}

	for _, d := range devices {
		m.devices[d.ID] = d
	}

	return m
}

// LoadDevicesFile reads a JSON array of devices.
func LoadDevicesFile(path string) ([]models.Device, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read devices file: %w", err)
	}

	var devices []models.Device
	if err := json.Unmarshal(data, &devices); err != nil {
		return nil, fmt.Errorf("parse devices file: %w", err)
	}

	return devices, nil
}

// Devices implements Store.
func (m *MemoryStore) Devices(_ context.Context, deviceID int64) ([]models.Device, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []models.Device

	for _, d := range m.devices {
		if deviceID != 0 && d.ID != deviceID {
			continue
		}

		out = append(out, d)
	}

	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })

	return out, nil
}

// Interfaces implements Store.
func (m *MemoryStore) Interfaces(_ context.Context, deviceID int64) ([]models.Interface, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	t, ok := m.tables[InterfacesTable.Name]
	if !ok {
		return nil, nil
	}

	var out []models.Interface

	for _, row := range t.rows {
		iface := models.Interface{
			ID:          toInt64(row["id"]),
			DeviceID:    toInt64(row["device_id"]),
			IfIndex:     int(toInt64(row["if_index"])),
			Name:        toString(row["name"]),
			Description: toString(row["description"]),
			MACAddress:  toString(row["mac_address"]),
		}

		if deviceID != 0 && iface.DeviceID != deviceID {
			continue
		}

		out = append(out, iface)
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].DeviceID != out[j].DeviceID {
			return out[i].DeviceID < out[j].DeviceID
		}

		return out[i].IfIndex < out[j].IfIndex
	})

	return out, nil
}

// Upsert implements Store.
func (m *MemoryStore) Upsert(_ context.Context, table Table, rows []models.Record) error {
	if len(rows) == 0 {
		return nil
	}

	if len(table.ConflictKey) == 0 {
		return fmt.Errorf("%w: %s", ErrNoConflictKey, table.Name)
	}

	if err := checkColumns(table, rows); err != nil {
		return err
	}

	if err := checkUniqueKeys(table, rows); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	t := m.table(table.Name)
	update := table.updateColumns()

	for _, row := range rows {
		key := conflictKeyOf(table, row)

		if pos, ok := t.index[key]; ok {
			existing := t.rows[pos]
			for _, col := range update {
				existing[col] = row[col]
			}

			continue
		}

		t.insert(table, row, key)
	}

	return nil
}

// InsertOnly implements Store.
func (m *MemoryStore) InsertOnly(_ context.Context, table Table, rows []models.Record) error {
	if err := checkColumns(table, rows); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	t := m.table(table.Name)
	for _, row := range rows {
		t.insert(table, row, "")
	}

	return nil
}

// EnsureAnchor implements Store.
func (m *MemoryStore) EnsureAnchor(_ context.Context, table Table, key models.Record) (int64, error) {
	if len(table.ConflictKey) == 0 {
		return 0, fmt.Errorf("%w: %s", ErrNoConflictKey, table.Name)
	}

	if err := checkColumns(table, []models.Record{key}); err != nil {
		return 0, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	t := m.table(table.Name)
	k := conflictKeyOf(table, key)

	if pos, ok := t.index[k]; ok {
		return toInt64(t.rows[pos]["id"]), nil
	}

	return t.insert(table, key, k), nil
}

// Rows returns a copy of every row stored for table.
func (m *MemoryStore) Rows(table string) []models.Record {
	m.mu.RLock()
	defer m.mu.RUnlock()

	t, ok := m.tables[table]
	if !ok {
		return nil
	}

	out := make([]models.Record, len(t.rows))

	for i, row := range t.rows {
		cp := make(models.Record, len(row))
		for k, v := range row {
			cp[k] = v
		}

		out[i] = cp
	}

	return out
}

func (m *MemoryStore) table(name string) *memoryTable {
	t, ok := m.tables[name]
	if !ok {
		t = &memoryTable{index: make(map[string]int)}
		m.tables[name] = t
	}

	return t
}

func (t *memoryTable) insert(table Table, row models.Record, key string) int64 {
	t.nextID++

	stored := make(models.Record, len(table.Columns)+1)
	for _, col := range table.Columns {
		stored[col] = row[col]
	}

	stored["id"] = t.nextID
	t.rows = append(t.rows, stored)

	if key != "" {
		t.index[key] = len(t.rows) - 1
	}

	return t.nextID
}

func toInt64(v interface{}) int64 {
	switch n := v.(type) {
	case int64:
		return n
	case int:
		return int64(n)
	case int32:
		return int64(n)
	default:
		return 0
	}
}

func toString(v interface{}) string {
	if s, ok := v.(string); ok {
		return s
	}

	return ""
}
