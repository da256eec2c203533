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
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/carverauto/netinventory/pkg/metrics"
)

// PostgreSQL SQLSTATE codes for transient errors that should be retried.
const (
	sqlstateDeadlockDetected    = "40P01" // Deadlock detected
	sqlstateSerializationFailed = "40001" // Serialization failure
	sqlstateStatementTimeout    = "57014" // Statement timeout
	sqlstateTooManyConnections  = "53300" // Too many connections
)

const (
	defaultMaxRetryAttempts = 3
	defaultInitialBackoff   = 150 * time.Millisecond
	defaultMaxBackoff       = 2 * time.Second
)

// RetryConfig bounds retries of transient statement failures.
type RetryConfig struct {
	MaxAttempts    uint
	InitialBackoff time.Duration
	MaxBackoff     time.Duration
}

func (c RetryConfig) withDefaults() RetryConfig {
	if c.MaxAttempts == 0 {
		c.MaxAttempts = defaultMaxRetryAttempts
	}

	if c.InitialBackoff <= 0 {
		c.InitialBackoff = defaultInitialBackoff
	}

	if c.MaxBackoff <= 0 {
		c.MaxBackoff = defaultMaxBackoff
	}

	return c
}

// classifyError checks if an error is a transient PostgreSQL error that can be retried.
// Returns the SQLSTATE code and a boolean indicating if it's transient.
func classifyError(err error) (string, bool) {
	if err == nil {
		return "", false
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case sqlstateDeadlockDetected, sqlstateSerializationFailed,
			sqlstateStatementTimeout, sqlstateTooManyConnections:
			return pgErr.Code, true
		}

		return pgErr.Code, false
	}

	// Fallback to string matching for wrapped errors
	msg := strings.ToLower(err.Error())

	switch {
	case strings.Contains(msg, "40p01"), strings.Contains(msg, "deadlock detected"):
		return sqlstateDeadlockDetected, true
	case strings.Contains(msg, "40001"), strings.Contains(msg, "could not serialize access"):
		return sqlstateSerializationFailed, true
	case strings.Contains(msg, "57014"), strings.Contains(msg, "statement timeout"):
		return sqlstateStatementTimeout, true
	default:
		return "", false
	}
}

// withRetry runs op, retrying transient failures with exponential backoff.
func (s *PostgresStore) withRetry(ctx context.Context, table string, op func(context.Context) error) error {
	cfg := s.retry

	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = cfg.InitialBackoff
	bo.MaxInterval = cfg.MaxBackoff

	_, err := backoff.Retry(ctx, func() (struct{}, error) {
		err := op(ctx)
		if err == nil {
			return struct{}{}, nil
		}

		code, transient := classifyError(err)
		if !transient {
			return struct{}{}, backoff.Permanent(err)
		}

		metrics.StoreRetriesTotal.WithLabelValues(table, code).Inc()

		s.logger.Warn().
			Err(err).
			Str("sqlstate", code).
			Str("table", table).
			Msg("transient store error, retrying")

		return struct{}{}, err
	},
		backoff.WithBackOff(bo),
		backoff.WithMaxTries(cfg.MaxAttempts),
	)

	if err != nil {
		return fmt.Errorf("%s: %w", table, err)
	}

	return nil
}
