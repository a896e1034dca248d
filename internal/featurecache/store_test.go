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

package featurecache

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cardinalhq/featurestore/featuredb"
	"github.com/cardinalhq/featurestore/internal/features"
)

var t0 = time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

func rec(ft, id string, v features.Value) Record {
	return Record{FeatureType: ft, EntityID: id, Value: v, ComputedAt: t0.Add(123456789 * time.Nanosecond)}
}

// mockRecordQuerier is an in-memory featuredb.RecordQuerier.
type mockRecordQuerier struct {
	mu       sync.Mutex
	rows     map[string]featuredb.FeatureRecord
	getCalls atomic.Int64
	putCalls atomic.Int64
	err      error
}

func newMockRecordQuerier() *mockRecordQuerier {
	return &mockRecordQuerier{rows: map[string]featuredb.FeatureRecord{}}
}

func (m *mockRecordQuerier) GetFeatureRecord(_ context.Context, arg featuredb.GetFeatureRecordParams) (featuredb.FeatureRecord, error) {
	m.getCalls.Add(1)
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return featuredb.FeatureRecord{}, m.err
	}
	row, ok := m.rows[arg.FeatureType+"/"+arg.EntityID]
	if !ok {
		return featuredb.FeatureRecord{}, pgx.ErrNoRows
	}
	return row, nil
}

func (m *mockRecordQuerier) UpsertFeatureRecord(_ context.Context, arg featuredb.UpsertFeatureRecordParams) error {
	m.putCalls.Add(1)
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.rows[arg.FeatureType+"/"+arg.EntityID] = featuredb.FeatureRecord(arg)
	return nil
}

// storeContract exercises the behavior every backend must share.
func storeContract(t *testing.T, s Store) {
	ctx := context.Background()

	_, found, err := s.Get(ctx, "payment_type", "1")
	require.NoError(t, err)
	assert.False(t, found)

	first := rec("payment_type", "1", features.StringValue("credit_card"))
	require.NoError(t, s.Put(ctx, first))

	got, found, err := s.Get(ctx, "payment_type", "1")
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, "payment_type", got.FeatureType)
	assert.Equal(t, "1", got.EntityID)
	assert.True(t, got.Value.Equal(first.Value))
	assert.True(t, got.ComputedAt.Equal(NormalizeTime(first.ComputedAt)), "computed_at %v", got.ComputedAt)

	second := rec("payment_type", "1", features.StringValue("bank_transfer"))
	second.ComputedAt = t0.Add(time.Hour)
	require.NoError(t, s.Put(ctx, second))
	got, found, err = s.Get(ctx, "payment_type", "1")
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, "bank_transfer", got.Value.Text())
	assert.True(t, got.ComputedAt.Equal(second.ComputedAt))

	ts := rec("user_policy_time_of_purchase", "7", features.TimeValue(t0.Add(90*time.Minute)))
	require.NoError(t, s.Put(ctx, ts))
	got, found, err = s.Get(ctx, "user_policy_time_of_purchase", "7")
	require.NoError(t, err)
	require.True(t, found)
	assert.True(t, got.Value.Equal(ts.Value))

	_, found, err = s.Get(ctx, "payment_type", "7")
	require.NoError(t, err)
	assert.False(t, found, "keys are scoped by feature type")

	assert.Error(t, s.Put(ctx, Record{FeatureType: "payment_type", EntityID: "2"}))
	assert.Error(t, s.Put(ctx, rec("", "2", features.IntValue(1))))
}

func TestMemoryStore(t *testing.T) {
	storeContract(t, NewMemoryStore())
}

func TestMemoryStoreConcurrentAccess(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	var wg sync.WaitGroup
	for w := range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range 200 {
				id := fmt.Sprint(i % 20)
				assert.NoError(t, s.Put(ctx, rec("user_failed_transaction_count", id, features.IntValue(int64(w)))))
				got, found, err := s.Get(ctx, "user_failed_transaction_count", id)
				assert.NoError(t, err)
				assert.True(t, found)
				assert.Equal(t, features.DataTypeInteger, got.Value.Type())
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, 20, s.Len())
}

func TestPostgresStore(t *testing.T) {
	storeContract(t, NewPostgresStore(newMockRecordQuerier()))
}

func TestPostgresStoreErrors(t *testing.T) {
	q := newMockRecordQuerier()
	s := NewPostgresStore(q)
	q.err = errors.New("db down")

	_, _, err := s.Get(context.Background(), "payment_type", "1")
	assert.ErrorContains(t, err, "db down")
	assert.Error(t, s.Put(context.Background(), rec("payment_type", "1", features.StringValue("x"))))

	q.err = nil
	q.rows["payment_type/9"] = featuredb.FeatureRecord{FeatureType: "payment_type", EntityID: "9", DataType: "integer", Value: []byte(`"x"`)}
	_, _, err = s.Get(context.Background(), "payment_type", "9")
	assert.Error(t, err, "corrupt rows are reported, not served")
}

func TestRecordWireRoundTrip(t *testing.T) {
	in := rec("quote_creation_to_binding_time", "10", features.IntValue(330))
	b, err := encodeRecord(in)
	require.NoError(t, err)
	assert.JSONEq(t, `{"feature_type":"quote_creation_to_binding_time","entity_id":"10","data_type":"integer","value":330,"computed_at":"2025-01-01T00:00:00.123456Z"}`, string(b))

	out, err := decodeRecord(b)
	require.NoError(t, err)
	assert.True(t, out.Value.Equal(in.Value))
	assert.True(t, out.ComputedAt.Equal(NormalizeTime(in.ComputedAt)))

	_, err = decodeRecord([]byte(`{`))
	assert.Error(t, err)
}
