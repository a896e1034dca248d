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

package testhelpers

import (
	"context"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/orlangure/gnomock"
	"github.com/orlangure/gnomock/preset/postgres"
	redispreset "github.com/orlangure/gnomock/preset/redis"

	"github.com/cardinalhq/featurestore/featuredb"
	"github.com/cardinalhq/featurestore/featuredb/migrations"
	"github.com/cardinalhq/featurestore/internal/dbopen"
	"github.com/cardinalhq/featurestore/warehouse"
)

const (
	pgUser     = "featurestore"
	pgPassword = "featurestore"
)

// startPostgres runs a throwaway Postgres container with queries applied to
// dbName. The test is skipped in -short mode or when Docker is unavailable.
func startPostgres(t *testing.T, dbName string, queries ...string) *pgxpool.Pool {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping container-backed test in short mode")
	}

	opts := []postgres.Option{
		postgres.WithUser(pgUser, pgPassword),
		postgres.WithDatabase(dbName),
	}
	if len(queries) > 0 {
		opts = append(opts, postgres.WithQueries(queries...))
	}
	container, err := gnomock.Start(postgres.Preset(opts...))
	if err != nil {
		t.Skipf("postgres container unavailable: %v", err)
	}
	t.Cleanup(func() { _ = gnomock.Stop(container) })

	url := fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=disable",
		pgUser, pgPassword, container.Host, container.DefaultPort(), dbName)
	pool, err := dbopen.NewPool(context.Background(), dbName, url)
	if err != nil {
		t.Fatalf("Failed to connect to %s: %v", dbName, err)
	}
	t.Cleanup(pool.Close)
	return pool
}

// SetupTestFeatureDB returns a pool on a fresh featuredb with migrations applied.
func SetupTestFeatureDB(t *testing.T) *pgxpool.Pool {
	t.Helper()
	pool := startPostgres(t, "featuredb")
	if err := migrations.RunMigrationsUp(context.Background(), pool); err != nil {
		t.Fatalf("Failed to run featuredb migrations: %v", err)
	}
	return pool
}

// NewTestFeatureDBStore wraps SetupTestFeatureDB in a Store.
func NewTestFeatureDBStore(t *testing.T) *featuredb.Store {
	return featuredb.NewStore(SetupTestFeatureDB(t))
}

// SetupTestWarehouse returns a reader over a fresh warehouse holding the
// source schema plus the given seed statements.
func SetupTestWarehouse(t *testing.T, seed ...string) *warehouse.Reader {
	t.Helper()
	pool := startPostgres(t, "warehouse", append([]string{warehouse.Schema}, seed...)...)
	return warehouse.NewReader(pool)
}

// StartRedis runs a throwaway Redis container and returns its address.
func StartRedis(t *testing.T) string {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping container-backed test in short mode")
	}
	container, err := gnomock.Start(redispreset.Preset())
	if err != nil {
		t.Skipf("redis container unavailable: %v", err)
	}
	t.Cleanup(func() { _ = gnomock.Stop(container) })
	return container.DefaultAddress()
}
