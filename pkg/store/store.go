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

// Package store persists inventory rows with idempotent bulk upserts.
package store

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/carverauto/netinventory/pkg/models"
)

var (
	ErrNoConflictKey    = errors.New("table has no conflict key")
	ErrUnknownColumn    = errors.New("record has a column the table does not declare")
	ErrAnchorNotFound   = errors.New("anchor row not found after insert")
	ErrPoolRequired     = errors.New("database pool is required")
	ErrDuplicateInBatch = errors.New("batch contains duplicate conflict keys")
)

// Table describes one inventory table. UpdateColumns defaults to every
// column outside the conflict key.
type Table struct {
	Name          string
	Columns       []string
	ConflictKey   []string
	UpdateColumns []string
}

// updateColumns returns the columns refreshed on conflict.
func (t Table) updateColumns() []string {
	if t.UpdateColumns != nil {
		return t.UpdateColumns
	}

	key := make(map[string]struct{}, len(t.ConflictKey))
	for _, c := range t.ConflictKey {
		key[c] = struct{}{}
	}

	out := make([]string, 0, len(t.Columns))

	for _, c := range t.Columns {
		if _, ok := key[c]; !ok {
			out = append(out, c)
		}
	}

	return out
}

func (t Table) hasColumn(name string) bool {
	for _, c := range t.Columns {
		if c == name {
			return true
		}
	}

	return false
}

// Store is the persistence surface used by the pollers.
type Store interface {
	// Devices returns the device catalog, or one device when deviceID is
	// non-zero. Devices without SNMP credentials are included.
	Devices(ctx context.Context, deviceID int64) ([]models.Device, error)
	// Interfaces returns interface identities. A zero deviceID returns all.
	Interfaces(ctx context.Context, deviceID int64) ([]models.Interface, error)
	// Upsert inserts rows or refreshes them on conflict of the table key.
	Upsert(ctx context.Context, table Table, rows []models.Record) error
	// InsertOnly appends rows without conflict handling.
	InsertOnly(ctx context.Context, table Table, rows []models.Record) error
	// EnsureAnchor inserts key if absent and returns the row id.
	EnsureAnchor(ctx context.Context, table Table, key models.Record) (int64, error)
}

// checkColumns rejects records carrying undeclared columns.
func checkColumns(table Table, rows []models.Record) error {
	for _, row := range rows {
		for col := range row {
			if !table.hasColumn(col) {
				return fmt.Errorf("%w: %s.%s", ErrUnknownColumn, table.Name, col)
			}
		}
	}

	return nil
}

// conflictKeyOf renders the conflict key values of row.
func conflictKeyOf(table Table, row models.Record) string {
	parts := make([]string, len(table.ConflictKey))
	for i, c := range table.ConflictKey {
		parts[i] = fmt.Sprintf("%v", deref(row[c]))
	}

	return strings.Join(parts, "\x1f")
}

// checkUniqueKeys rejects a batch containing the same conflict key twice,
// which PostgreSQL refuses within one INSERT ... ON CONFLICT statement.
func checkUniqueKeys(table Table, rows []models.Record) error {
	seen := make(map[string]struct{}, len(rows))

	for _, row := range rows {
		k := conflictKeyOf(table, row)
		if _, dup := seen[k]; dup {
			return fmt.Errorf("%w: %s", ErrDuplicateInBatch, table.Name)
		}

		seen[k] = struct{}{}
	}

	return nil
}

func deref(v interface{}) interface{} {
	switch p := v.(type) {
	case *string:
		if p == nil {
			return nil
		}

		return *p
	case *int64:
		if p == nil {
			return nil
		}

		return *p
	default:
		return v
	}
}
