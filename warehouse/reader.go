// Copyright (C) 2025 CardinalHQ, Inc
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as
// published by the Free Software Foundation, version 3.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Affero General Public License for more details.
//
// You should have received a copy of the GNU Affero General Public License
// along with this program. If not, see <http://www.gnu.org/licenses/>.

// Package warehouse reads the insurance source tables (users, quotes,
// policies, payment transactions). It never writes: the pool it opens
// forces read-only transactions.
package warehouse

import (
	"context"
	_ "embed"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/cardinalhq/featurestore/internal/dbopen"
)

// Schema is the DDL of the tables this package reads. It is used by sqlc
// and by integration tests that need a throwaway warehouse.
//
//go:embed schema.sql
var Schema string

// Reader is the warehouse accessor used by feature computations.
type Reader struct {
	*Queries
	pool *pgxpool.Pool
}

// NewReader wraps an existing pool.
func NewReader(pool *pgxpool.Pool) *Reader {
	return &Reader{
		Queries: New(pool),
		pool:    pool,
	}
}

// Connect opens the warehouse from WAREHOUSE_* environment variables.
func Connect(ctx context.Context) (*Reader, error) {
	pool, err := dbopen.ConnectFromEnv(ctx, "WAREHOUSE", dbopen.ReadOnly())
	if err != nil {
		return nil, fmt.Errorf("connect to warehouse: %w", err)
	}
	return NewReader(pool), nil
}

// Ping reports whether the warehouse is reachable.
func (r *Reader) Ping(ctx context.Context) error {
	return r.pool.Ping(ctx)
}

func (r *Reader) Close() {
	if r.pool != nil {
		r.pool.Close()
	}
}
