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

package serving

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cardinalhq/featurestore/internal/extractor"
	"github.com/cardinalhq/featurestore/internal/featurecache"
	"github.com/cardinalhq/featurestore/internal/features"
	"github.com/cardinalhq/featurestore/testhelpers"
)

var t0 = time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

func seededWarehouse() *testhelpers.FakeWarehouse {
	w := testhelpers.NewFakeWarehouse()
	w.AddUser(1).AddUser(2)
	w.AddQuote(testhelpers.FakeQuote{ID: 10, UserID: 1, CreateTime: testhelpers.Ptr(t0), BindTime: testhelpers.Ptr(t0.Add(5*time.Minute + 30*time.Second))})
	w.AddQuote(testhelpers.FakeQuote{ID: 11, UserID: 1, CreateTime: testhelpers.Ptr(t0)})
	w.AddPolicy(testhelpers.FakePolicy{ID: 100, UserID: 1, QuoteID: 10})
	w.AddPayment(testhelpers.FakePayment{ID: 1000, PolicyID: 100, Time: t0.Add(time.Hour), PaymentType: testhelpers.Ptr("card"), Success: false})
	w.AddPayment(testhelpers.FakePayment{ID: 1001, PolicyID: 100, Time: t0.Add(2 * time.Hour), PaymentType: testhelpers.Ptr("card"), Success: false})
	w.AddPayment(testhelpers.FakePayment{ID: 1002, PolicyID: 100, Time: t0.Add(3 * time.Hour), PaymentType: testhelpers.Ptr("ach"), Success: true})
	return w
}

// countingStore wraps a MemoryStore with call counters and fault injection.
type countingStore struct {
	*featurecache.MemoryStore
	gets   atomic.Int64
	puts   atomic.Int64
	getErr error
	putErr error
}

func newCountingStore() *countingStore {
	return &countingStore{MemoryStore: featurecache.NewMemoryStore()}
}

func (c *countingStore) Get(ctx context.Context, ft, id string) (featurecache.Record, bool, error) {
	c.gets.Add(1)
	if c.getErr != nil {
		return featurecache.Record{}, false, c.getErr
	}
	return c.MemoryStore.Get(ctx, ft, id)
}

func (c *countingStore) Put(ctx context.Context, rec featurecache.Record) error {
	c.puts.Add(1)
	if c.putErr != nil {
		return c.putErr
	}
	return c.MemoryStore.Put(ctx, rec)
}

type fixture struct {
	w     *testhelpers.FakeWarehouse
	store *countingStore
	svc   *Service
}

func newFixture(cfg Config) *fixture {
	w := seededWarehouse()
	store := newCountingStore()
	svc := New(features.DefaultRegistry(), features.NewEngine(w, time.Second), store, nil, cfg)
	svc.now = func() time.Time { return t0.Add(24 * time.Hour) }
	return &fixture{w: w, store: store, svc: svc}
}

func TestInferenceUnknownFeatureNeverTouchesCache(t *testing.T) {
	f := newFixture(DefaultConfig())

	res := f.svc.Inference(context.Background(), Request{FeatureType: "not_a_real_feature", EntityID: "1"})
	assert.False(t, res.Success)
	assert.Equal(t, "unknown feature type", res.Error)
	assert.ErrorIs(t, res.Err(), features.ErrUnknownFeatureType)
	assert.True(t, features.IsValidation(res.Err()))
	assert.Nil(t, res.Value)
	assert.Nil(t, res.ComputedAt)

	assert.Zero(t, f.store.gets.Load())
	assert.Zero(t, f.store.puts.Load())
	assert.Zero(t, f.w.Calls())
}

func TestInferenceInvalidEntityID(t *testing.T) {
	f := newFixture(DefaultConfig())
	res := f.svc.Inference(context.Background(), Request{FeatureType: "payment_type", EntityID: "tx-1"})
	assert.False(t, res.Success)
	assert.True(t, features.IsValidation(res.Err()))
	assert.Zero(t, f.store.gets.Load())
}

func TestInferenceCanonicalEntityID(t *testing.T) {
	f := newFixture(DefaultConfig())
	ctx := context.Background()

	x := extractor.New(f.svc.registry, features.NewEngine(f.w, time.Second), f.store, extractor.DefaultConfig())
	_, err := x.Run(ctx, "quote_creation_to_binding_time")
	require.NoError(t, err)
	require.Equal(t, 1, f.store.Len())
	computeCalls := f.w.Calls()

	for _, id := range []string{"10", "010", "+10", " 10"} {
		res := f.svc.Inference(ctx, Request{FeatureType: "quote_creation_to_binding_time", EntityID: id})
		require.True(t, res.Success, "id %q: %s", id, res.Error)
		assert.True(t, res.CacheHit, "id %q should hit the extracted record", id)
		assert.Equal(t, "10", res.EntityID)
		assert.Equal(t, features.IntValue(330), *res.Value)
	}
	assert.Equal(t, 1, f.store.Len(), "aliases must not create records")
	assert.Equal(t, computeCalls, f.w.Calls())

	res := f.svc.Inference(ctx, Request{FeatureType: "quote_creation_to_binding_time", EntityID: "010"}, WithForceRecompute())
	require.True(t, res.Success)
	assert.Equal(t, "10", res.EntityID)
	assert.Equal(t, 1, f.store.Len())
}

func TestInferenceReadThrough(t *testing.T) {
	f := newFixture(DefaultConfig())
	ctx := context.Background()
	req := Request{FeatureType: "user_failed_transaction_count", EntityID: "1"}

	def, _ := features.DefaultRegistry().Lookup(req.FeatureType)
	direct, err := features.NewEngine(seededWarehouse(), time.Second).Compute(ctx, def, "1")
	require.NoError(t, err)

	first := f.svc.Inference(ctx, req)
	require.True(t, first.Success, first.Error)
	assert.False(t, first.CacheHit)
	assert.True(t, direct.Equal(*first.Value))
	assert.Equal(t, int64(2), first.Value.Int())
	assert.Equal(t, t0.Add(24*time.Hour), *first.ComputedAt)
	assert.Equal(t, int64(1), f.store.puts.Load())

	calls := f.w.Calls()
	second := f.svc.Inference(ctx, req)
	require.True(t, second.Success)
	assert.True(t, second.CacheHit)
	assert.True(t, first.Value.Equal(*second.Value))
	assert.Equal(t, calls, f.w.Calls(), "a hit must not recompute")

	assert.Equal(t, Stats{CacheHits: 1, CacheMisses: 1, HitRate: 0.5}, f.svc.Stats())
}

func TestInferenceQuoteScenario(t *testing.T) {
	f := newFixture(DefaultConfig())
	ctx := context.Background()

	res := f.svc.Inference(ctx, Request{FeatureType: "quote_creation_to_binding_time", EntityID: "10"})
	require.True(t, res.Success)
	assert.Equal(t, int64(330), res.Value.Int())

	res = f.svc.Inference(ctx, Request{FeatureType: "quote_creation_to_binding_time", EntityID: "11"})
	assert.False(t, res.Success)
	assert.Equal(t, "feature not applicable", res.Error)
	assert.Equal(t, int64(1), f.store.puts.Load(), "failures are never cached")

	_, found, _ := f.store.MemoryStore.Get(ctx, "quote_creation_to_binding_time", "11")
	assert.False(t, found)
}

func TestInferenceForceRecompute(t *testing.T) {
	f := newFixture(DefaultConfig())
	ctx := context.Background()
	req := Request{FeatureType: "payment_type", EntityID: "1002"}

	require.True(t, f.svc.Inference(ctx, req).Success)
	gets, calls := f.store.gets.Load(), f.w.Calls()

	res := f.svc.Inference(ctx, req, WithForceRecompute())
	require.True(t, res.Success)
	assert.False(t, res.CacheHit)
	assert.Equal(t, gets, f.store.gets.Load(), "forced recompute skips the cache read")
	assert.Greater(t, f.w.Calls(), calls)
	assert.Equal(t, int64(2), f.store.puts.Load())
}

func TestInferenceMaxAge(t *testing.T) {
	cfg := DefaultConfig()
	cfg.MaxAge = time.Hour
	f := newFixture(cfg)
	ctx := context.Background()

	require.NoError(t, f.store.MemoryStore.Put(ctx, featurecache.Record{
		FeatureType: "payment_type", EntityID: "1002",
		Value: features.StringValue("stale"), ComputedAt: t0,
	}))
	require.NoError(t, f.store.MemoryStore.Put(ctx, featurecache.Record{
		FeatureType: "payment_type", EntityID: "1001",
		Value: features.StringValue("fresh"), ComputedAt: t0.Add(23*time.Hour + 30*time.Minute),
	}))

	res := f.svc.Inference(ctx, Request{FeatureType: "payment_type", EntityID: "1002"})
	require.True(t, res.Success)
	assert.False(t, res.CacheHit)
	assert.Equal(t, "ach", res.Value.Text())

	res = f.svc.Inference(ctx, Request{FeatureType: "payment_type", EntityID: "1001"})
	require.True(t, res.Success)
	assert.True(t, res.CacheHit)
	assert.Equal(t, "fresh", res.Value.Text())
}

func TestInferenceCacheFaults(t *testing.T) {
	f := newFixture(DefaultConfig())
	f.store.getErr = errors.New("cache down")
	f.store.putErr = errors.New("cache down")

	res := f.svc.Inference(context.Background(), Request{FeatureType: "payment_type", EntityID: "1002"})
	require.True(t, res.Success, "cache faults degrade to direct computation")
	assert.Equal(t, "ach", res.Value.Text())
	assert.Equal(t, int64(1), f.store.puts.Load())
}

func TestTrainingPartialFailure(t *testing.T) {
	f := newFixture(DefaultConfig())
	out := f.svc.Training(context.Background(), []Request{
		{FeatureType: "user_failed_transaction_count", EntityID: "1"},
		{FeatureType: "payment_type", EntityID: "999999"},
		{FeatureType: "quote_creation_to_binding_time", EntityID: "10"},
	})

	assert.Equal(t, 3, out.TotalRequested)
	assert.Equal(t, 2, out.TotalSuccessful)
	require.Len(t, out.Results, 3)
	assert.True(t, out.Results[0].Success)
	assert.False(t, out.Results[1].Success)
	assert.Equal(t, "entity not found", out.Results[1].Error)
	assert.True(t, out.Results[2].Success)
}

func TestTrainingValidationFailuresArePerItem(t *testing.T) {
	f := newFixture(DefaultConfig())
	out := f.svc.Training(context.Background(), []Request{
		{FeatureType: "not_a_real_feature", EntityID: "1"},
		{FeatureType: "payment_type", EntityID: "1002"},
	})
	assert.Equal(t, 1, out.TotalSuccessful)
	assert.Equal(t, "unknown feature type", out.Results[0].Error)
}

// delayedComputer finishes lower entity ids later, so completion order is
// the reverse of request order.
type delayedComputer struct{}

func (delayedComputer) Compute(ctx context.Context, _ features.Definition, entityID string) (features.Value, error) {
	id, _ := strconv.Atoi(entityID)
	select {
	case <-time.After(time.Duration(10-id) * 5 * time.Millisecond):
	case <-ctx.Done():
		return features.Value{}, ctx.Err()
	}
	return features.IntValue(int64(id)), nil
}

func TestTrainingPreservesOrder(t *testing.T) {
	svc := New(features.DefaultRegistry(), delayedComputer{}, featurecache.NewMemoryStore(), nil, Config{TrainingConcurrency: 10})

	var reqs []Request
	for i := range 10 {
		reqs = append(reqs, Request{FeatureType: "user_failed_transaction_count", EntityID: strconv.Itoa(i)})
	}
	out := svc.Training(context.Background(), reqs)
	require.Equal(t, 10, out.TotalSuccessful)
	for i, r := range out.Results {
		assert.Equal(t, strconv.Itoa(i), r.EntityID)
		assert.Equal(t, int64(i), r.Value.Int())
	}
}

func TestTrainingTimeoutIsolated(t *testing.T) {
	r := features.NewRegistry()
	r.Register(features.Definition{
		FeatureType: "slow",
		EntityKind:  features.EntityUser,
		DataType:    features.DataTypeInteger,
		Compute: func(ctx context.Context, _ features.SourceReader, id int64) (features.Value, error) {
			if id == 1 {
				<-ctx.Done()
				return features.Value{}, ctx.Err()
			}
			return features.IntValue(id), nil
		},
	})
	svc := New(r, features.NewEngine(testhelpers.NewFakeWarehouse(), 20*time.Millisecond), featurecache.NewMemoryStore(), nil, DefaultConfig())

	out := svc.Training(context.Background(), []Request{
		{FeatureType: "slow", EntityID: "1"},
		{FeatureType: "slow", EntityID: "2"},
	})
	assert.Equal(t, 1, out.TotalSuccessful)
	assert.Equal(t, "computation timed out", out.Results[0].Error)
	assert.True(t, out.Results[1].Success)
}

type gatedComputer struct {
	calls   atomic.Int64
	release chan struct{}
}

func (g *gatedComputer) Compute(context.Context, features.Definition, string) (features.Value, error) {
	g.calls.Add(1)
	<-g.release
	return features.IntValue(7), nil
}

func TestSingleFlight(t *testing.T) {
	gate := &gatedComputer{release: make(chan struct{})}
	svc := New(features.DefaultRegistry(), gate, featurecache.NewMemoryStore(), nil, Config{SingleFlight: true})

	var wg sync.WaitGroup
	results := make([]Result, 8)
	for i := range results {
		wg.Add(1)
		go func() {
			defer wg.Done()
			results[i] = svc.Inference(context.Background(), Request{FeatureType: "user_failed_transaction_count", EntityID: "1"})
		}()
	}
	time.Sleep(50 * time.Millisecond)
	close(gate.release)
	wg.Wait()

	assert.Equal(t, int64(1), gate.calls.Load())
	for _, r := range results {
		require.True(t, r.Success)
		assert.Equal(t, int64(7), r.Value.Int())
	}
}

func TestDiscoveryIgnoresCache(t *testing.T) {
	f := newFixture(DefaultConfig())
	before := f.svc.Discovery()
	f.svc.Training(context.Background(), []Request{{FeatureType: "payment_type", EntityID: "1002"}})

	assert.Equal(t, features.DefaultRegistry().List()[0].FeatureType, before[0].FeatureType)
	assert.Len(t, f.svc.Discovery(), 4)
	assert.Equal(t, int64(1), f.store.gets.Load(), "only the training lookup reads the cache")
}

type stubExtractor struct {
	types []string
}

func (s *stubExtractor) Run(_ context.Context, featureTypes ...string) (extractor.Summary, error) {
	s.types = featureTypes
	return extractor.Summary{TotalSucceeded: 3}, nil
}

func TestTriggerExtraction(t *testing.T) {
	f := newFixture(DefaultConfig())
	_, err := f.svc.TriggerExtraction(context.Background())
	assert.ErrorIs(t, err, ErrExtractionUnavailable)

	x := &stubExtractor{}
	svc := New(features.DefaultRegistry(), delayedComputer{}, featurecache.NewMemoryStore(), x, DefaultConfig())
	summary, err := svc.TriggerExtraction(context.Background(), "payment_type")
	require.NoError(t, err)
	assert.Equal(t, 3, summary.TotalSucceeded)
	assert.Equal(t, []string{"payment_type"}, x.types)
}

func TestResultJSON(t *testing.T) {
	f := newFixture(DefaultConfig())
	ok := f.svc.Inference(context.Background(), Request{FeatureType: "quote_creation_to_binding_time", EntityID: "10"})
	b, err := json.Marshal(ok)
	require.NoError(t, err)
	assert.JSONEq(t, `{"feature_type":"quote_creation_to_binding_time","entity_id":"10","feature_value":330,"computed_at":"2025-01-02T00:00:00Z","success":true}`, string(b))

	bad := f.svc.Inference(context.Background(), Request{FeatureType: "quote_creation_to_binding_time", EntityID: "11"})
	b, err = json.Marshal(bad)
	require.NoError(t, err)
	assert.JSONEq(t, `{"feature_type":"quote_creation_to_binding_time","entity_id":"11","feature_value":null,"computed_at":null,"success":false,"error":"feature not applicable"}`, string(b))
}

func TestStatsReportsL1Tier(t *testing.T) {
	tiered := featurecache.NewTiered(featurecache.NewMemoryStore(), 16, time.Minute)
	t.Cleanup(func() { _ = tiered.Close() })
	svc := New(features.DefaultRegistry(), features.NewEngine(seededWarehouse(), time.Second), tiered, nil, DefaultConfig())
	ctx := context.Background()

	req := Request{FeatureType: "payment_type", EntityID: "1002"}
	require.True(t, svc.Inference(ctx, req).Success)
	require.True(t, svc.Inference(ctx, req).Success)

	st := svc.Stats()
	assert.EqualValues(t, 1, st.CacheHits)
	assert.EqualValues(t, 1, st.CacheMisses)
	require.NotNil(t, st.L1)
	assert.EqualValues(t, 1, st.L1.Hits)
	assert.EqualValues(t, 1, st.L1.Insertions)

	b, err := json.Marshal(st)
	require.NoError(t, err)
	assert.Contains(t, string(b), `"l1":{"hits":1,`)
}
