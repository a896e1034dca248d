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

package dbopen

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pgx-contrib/pgxotel"
)

type poolOptions struct {
	readOnly bool
	maxConns int32
}

// Option adjusts how a pool is built.
type Option func(*poolOptions)

// ReadOnly makes every session default to read-only transactions, so any
// accidental write against the database fails at the server.
func ReadOnly() Option {
	return func(o *poolOptions) { o.readOnly = true }
}

// MaxConns caps the pool size. Zero keeps the pgx default.
func MaxConns(n int32) Option {
	return func(o *poolOptions) { o.maxConns = n }
}

// NewPool creates a pgx pool for url, traced under name, and pings it.
func NewPool(ctx context.Context, name, url string, opts ...Option) (*pgxpool.Pool, error) {
	var po poolOptions
	for _, opt := range opts {
		opt(&po)
	}

	cfg, err := pgxpool.ParseConfig(url)
	if err != nil {
		return nil, fmt.Errorf("parse %s connection string: %w", name, err)
	}
	cfg.ConnConfig.Tracer = &pgxotel.QueryTracer{Name: name}
	if po.readOnly {
		cfg.ConnConfig.RuntimeParams["default_transaction_read_only"] = "on"
	}
	if po.maxConns > 0 {
		cfg.MaxConns = po.maxConns
	}

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("open %s pool: %w", name, err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping %s: %w", name, err)
	}
	return pool, nil
}

// ConnectFromEnv resolves the URL for envPrefix and opens a pool named after it.
func ConnectFromEnv(ctx context.Context, envPrefix string, opts ...Option) (*pgxpool.Pool, error) {
	url, err := GetDatabaseURLFromEnv(envPrefix)
	if err != nil {
		return nil, err
	}
	return NewPool(ctx, strings.ToLower(strings.TrimSuffix(envPrefix, "_")), url, opts...)
}
