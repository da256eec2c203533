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
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/carverauto/netinventory/pkg/logger"
	"github.com/carverauto/netinventory/pkg/metrics"
	"github.com/carverauto/netinventory/pkg/models"
	"github.com/carverauto/netinventory/pkg/snmp"
)

const (
	// DefaultChunkSize is the number of rows written per statement.
	DefaultChunkSize = 1000
	// maxBindParams is the PostgreSQL limit on parameters in one statement.
	maxBindParams = 65535
)

// Querier is the subset of pgxpool.Pool used by PostgresStore.
type Querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	SendBatch(ctx context.Context, b *pgx.Batch) pgx.BatchResults
}

// PostgresStore implements Store on a pgx pool.
type PostgresStore struct {
	db        Querier
	logger    logger.Logger
	chunkSize int
	retry     RetryConfig
}

var _ Store = (*PostgresStore)(nil)

// Option configures a PostgresStore.
type Option func(*PostgresStore)

// WithChunkSize overrides the rows written per statement.
func WithChunkSize(n int) Option {
	return func(s *PostgresStore) {
		if n > 0 {
			s.chunkSize = n
		}
	}
}

// WithRetry overrides the transient error retry policy.
func WithRetry(cfg RetryConfig) Option {
	return func(s *PostgresStore) {
		s.retry = cfg.withDefaults()
	}
}

// NewPostgresStore wraps db, usually a *pgxpool.Pool.
func NewPostgresStore(db Querier, log logger.Logger, opts ...Option) (*PostgresStore, error) {
	if db == nil {
		return nil, ErrPoolRequired
	}

	s := &PostgresStore{
		db:        db,
		logger:    log,
		chunkSize: DefaultChunkSize,
		retry:     RetryConfig{}.withDefaults(),
	}

	for _, opt := range opts {
		opt(s)
	}

	return s, nil
}

const devicesQuery = `SELECT id, name, management_ip, COALESCE(snmp_port, 0), snmp_credential
FROM devices`

// Devices implements Store.
func (s *PostgresStore) Devices(ctx context.Context, deviceID int64) ([]models.Device, error) {
	query := devicesQuery
	args := []any{}

	if deviceID != 0 {
		query += " WHERE id = $1"
		args = append(args, deviceID)
	}

	query += " ORDER BY id"

	rows, err := s.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query devices: %w", err)
	}
	defer rows.Close()

	var devices []models.Device

	for rows.Next() {
		var (
			d       models.Device
			port    int32
			rawCred []byte
		)

		if err := rows.Scan(&d.ID, &d.Name, &d.ManagementIP, &port, &rawCred); err != nil {
			return nil, fmt.Errorf("scan device: %w", err)
		}

		if port > 0 && port <= 65535 {
			d.Port = uint16(port)
		}

		if len(rawCred) > 0 {
			var cred snmp.Credential
			if err := json.Unmarshal(rawCred, &cred); err != nil {
				s.logger.Warn().Err(err).Int64("device_id", d.ID).Msg("ignoring unreadable SNMP credential")
			} else {
				d.Credential = &cred
			}
		}

		devices = append(devices, d)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate devices: %w", err)
	}

	return devices, nil
}

const interfacesQuery = `SELECT id, device_id, if_index, COALESCE(name, ''), COALESCE(description, ''),
	COALESCE(mac_address, '')
FROM interfaces`

// Interfaces implements Store.
func (s *PostgresStore) Interfaces(ctx context.Context, deviceID int64) ([]models.Interface, error) {
	query := interfacesQuery
	args := []any{}

	if deviceID != 0 {
		query += " WHERE device_id = $1"
		args = append(args, deviceID)
	}

	query += " ORDER BY device_id, if_index"

	rows, err := s.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query interfaces: %w", err)
	}
	defer rows.Close()

	var out []models.Interface

	for rows.Next() {
		var (
			iface   models.Interface
			ifIndex int32
		)

		if err := rows.Scan(&iface.ID, &iface.DeviceID, &ifIndex, &iface.Name, &iface.Description, &iface.MACAddress); err != nil {
			return nil, fmt.Errorf("scan interface: %w", err)
		}

		iface.IfIndex = int(ifIndex)
		out = append(out, iface)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate interfaces: %w", err)
	}

	return out, nil
}

// Upsert implements Store. Each chunk is its own statement; a failing chunk
// does not roll back earlier ones.
func (s *PostgresStore) Upsert(ctx context.Context, table Table, rows []models.Record) error {
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

	for _, chunk := range chunkRows(rows, s.rowsPerStatement(table)) {
		sql, args := buildUpsert(table, chunk)

		if err := s.withRetry(ctx, table.Name, func(ctx context.Context) error {
			_, err := s.db.Exec(ctx, sql, args...)
			return err
		}); err != nil {
			return fmt.Errorf("upsert: %w", err)
		}

		metrics.RowsWrittenTotal.WithLabelValues(table.Name).Add(float64(len(chunk)))
	}

	return nil
}

// InsertOnly implements Store. All chunks are sent as one batch.
func (s *PostgresStore) InsertOnly(ctx context.Context, table Table, rows []models.Record) error {
	if len(rows) == 0 {
		return nil
	}

	if err := checkColumns(table, rows); err != nil {
		return err
	}

	batch := &pgx.Batch{}

	for _, chunk := range chunkRows(rows, s.rowsPerStatement(table)) {
		sql, args := buildInsert(table, chunk)
		batch.Queue(sql, args...)
	}

	if err := s.withRetry(ctx, table.Name, func(ctx context.Context) error {
		return sendBatchExecAll(ctx, batch, s.db.SendBatch, "insert "+table.Name)
	}); err != nil {
		return err
	}

	metrics.RowsWrittenTotal.WithLabelValues(table.Name).Add(float64(len(rows)))

	return nil
}

// EnsureAnchor implements Store.
func (s *PostgresStore) EnsureAnchor(ctx context.Context, table Table, key models.Record) (int64, error) {
	if len(table.ConflictKey) == 0 {
		return 0, fmt.Errorf("%w: %s", ErrNoConflictKey, table.Name)
	}

	if err := checkColumns(table, []models.Record{key}); err != nil {
		return 0, err
	}

	insertSQL, args := buildInsert(table, []models.Record{key})
	insertSQL += " ON CONFLICT (" + joinIdents(table.ConflictKey) + ") DO NOTHING RETURNING id"

	var id int64

	err := s.withRetry(ctx, table.Name, func(ctx context.Context) error {
		err := s.db.QueryRow(ctx, insertSQL, args...).Scan(&id)
		if errors.Is(err, pgx.ErrNoRows) {
			return s.selectAnchor(ctx, table, key, &id)
		}

		return err
	})

	return id, err
}

func (s *PostgresStore) selectAnchor(ctx context.Context, table Table, key models.Record, id *int64) error {
	where := make([]string, len(table.ConflictKey))
	args := make([]any, len(table.ConflictKey))

	for i, col := range table.ConflictKey {
		where[i] = fmt.Sprintf("%s = $%d", ident(col), i+1)
		args[i] = key[col]
	}

	query := fmt.Sprintf("SELECT id FROM %s WHERE %s", ident(table.Name), strings.Join(where, " AND "))

	err := s.db.QueryRow(ctx, query, args...).Scan(id)
	if errors.Is(err, pgx.ErrNoRows) {
		return fmt.Errorf("%w: %s", ErrAnchorNotFound, table.Name)
	}

	return err
}

func (s *PostgresStore) rowsPerStatement(table Table) int {
	n := s.chunkSize
	if limit := maxBindParams / len(table.Columns); limit < n {
		n = limit
	}

	return n
}

func chunkRows(rows []models.Record, size int) [][]models.Record {
	if size <= 0 {
		size = DefaultChunkSize
	}

	chunks := make([][]models.Record, 0, (len(rows)+size-1)/size)

	for start := 0; start < len(rows); start += size {
		end := start + size
		if end > len(rows) {
			end = len(rows)
		}

		chunks = append(chunks, rows[start:end])
	}

	return chunks
}

// buildInsert renders a multi-row INSERT. Columns missing from a record are
// written as NULL.
func buildInsert(table Table, rows []models.Record) (string, []any) {
	var sb strings.Builder

	args := make([]any, 0, len(rows)*len(table.Columns))

	sb.WriteString("INSERT INTO ")
	sb.WriteString(ident(table.Name))
	sb.WriteString(" (")
	sb.WriteString(joinIdents(table.Columns))
	sb.WriteString(") VALUES ")

	for i, row := range rows {
		if i > 0 {
			sb.WriteString(", ")
		}

		sb.WriteByte('(')

		for j, col := range table.Columns {
			if j > 0 {
				sb.WriteString(", ")
			}

			args = append(args, row[col])
			fmt.Fprintf(&sb, "$%d", len(args))
		}

		sb.WriteByte(')')
	}

	return sb.String(), args
}

func buildUpsert(table Table, rows []models.Record) (string, []any) {
	sql, args := buildInsert(table, rows)

	update := table.updateColumns()
	sets := make([]string, 0, len(update)+1)

	for _, col := range update {
		sets = append(sets, fmt.Sprintf("%s = EXCLUDED.%s", ident(col), ident(col)))
	}

	sets = append(sets, `"updated_at" = now()`)

	sql += " ON CONFLICT (" + joinIdents(table.ConflictKey) + ") DO UPDATE SET " + strings.Join(sets, ", ")

	return sql, args
}

func ident(name string) string {
	return pgx.Identifier{name}.Sanitize()
}

func joinIdents(cols []string) string {
	out := make([]string, len(cols))
	for i, c := range cols {
		out[i] = ident(c)
	}

	return strings.Join(out, ", ")
}

// sendBatchExecAll sends batch and checks every queued command.
func sendBatchExecAll(
	ctx context.Context,
	batch *pgx.Batch,
	send func(context.Context, *pgx.Batch) pgx.BatchResults,
	operation string,
) (err error) {
	if batch.Len() == 0 {
		return nil
	}

	br := send(ctx, batch)
	defer func() {
		if closeErr := br.Close(); closeErr != nil && err == nil {
			err = fmt.Errorf("%s batch close: %w", operation, closeErr)
		}
	}()

	for i := 0; i < batch.Len(); i++ {
		if _, err = br.Exec(); err != nil {
			return fmt.Errorf("%s batch exec (command %d): %w", operation, i, err)
		}
	}

	return nil
}
