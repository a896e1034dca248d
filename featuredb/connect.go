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

package featuredb

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/cardinalhq/featurestore/featuredb/migrations"
	"github.com/cardinalhq/featurestore/internal/dbopen"
)

// ConnectToFeatureDB opens the pool described by FEATUREDB_* variables and
// verifies the schema version.
func ConnectToFeatureDB(ctx context.Context, opts ...migrations.CheckOption) (*pgxpool.Pool, error) {
	pool, err := dbopen.ConnectFromEnv(ctx, "FEATUREDB")
	if err != nil {
		return nil, fmt.Errorf("failed to connect to FEATUREDB: %w", err)
	}

	if err := migrations.CheckVersion(ctx, pool, opts...); err != nil {
		pool.Close()
		return nil, fmt.Errorf("FEATUREDB migration version check failed: %w", err)
	}
	return pool, nil
}

// FeatureDBStore connects and wraps the pool in a Store.
func FeatureDBStore(ctx context.Context, opts ...migrations.CheckOption) (*Store, error) {
	pool, err := ConnectToFeatureDB(ctx, opts...)
	if err != nil {
		return nil, err
	}
	return NewStore(pool), nil
}
