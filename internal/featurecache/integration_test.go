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

package featurecache_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cardinalhq/featurestore/internal/featurecache"
	"github.com/cardinalhq/featurestore/internal/features"
	"github.com/cardinalhq/featurestore/testhelpers"
)

func roundTrip(t *testing.T, s featurecache.Store) {
	t.Helper()
	ctx := context.Background()
	at := time.Date(2025, 6, 1, 12, 0, 0, 987654321, time.UTC)

	require.NoError(t, s.Put(ctx, featurecache.Record{
		FeatureType: "user_policy_time_of_purchase",
		EntityID:    "1",
		Value:       features.TimeValue(at),
		ComputedAt:  at,
	}))
	require.NoError(t, s.Put(ctx, featurecache.Record{
		FeatureType: "user_policy_time_of_purchase",
		EntityID:    "1",
		Value:       features.TimeValue(at.Add(time.Hour)),
		ComputedAt:  at.Add(time.Minute),
	}))

	got, found, err := s.Get(ctx, "user_policy_time_of_purchase", "1")
	require.NoError(t, err)
	require.True(t, found)
	assert.True(t, got.Value.Equal(features.TimeValue(at.Add(time.Hour))))
	assert.True(t, got.ComputedAt.Equal(featurecache.NormalizeTime(at.Add(time.Minute))))

	_, found, err = s.Get(ctx, "user_policy_time_of_purchase", "2")
	require.NoError(t, err)
	assert.False(t, found)
}

func TestPostgresStoreIntegration(t *testing.T) {
	store := testhelpers.NewTestFeatureDBStore(t)
	s := featurecache.NewPostgresStore(store)
	roundTrip(t, s)
}

func TestRedisStoreIntegration(t *testing.T) {
	addr := testhelpers.StartRedis(t)
	client, err := featurecache.DialRedis(context.Background(), addr, "", 0)
	require.NoError(t, err)

	s := featurecache.NewRedisStore(client, "")
	t.Cleanup(func() { _ = s.Close() })
	roundTrip(t, s)

	n, err := client.Exists(context.Background(), "feature:user_policy_time_of_purchase:1").Result()
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
	assert.NoError(t, s.Ping(context.Background()))
}
