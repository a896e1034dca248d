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

package features_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cardinalhq/featurestore/internal/features"
	"github.com/cardinalhq/featurestore/testhelpers"
)

var t0 = time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

func seededWarehouse() *testhelpers.FakeWarehouse {
	w := testhelpers.NewFakeWarehouse()
	w.AddUser(1).AddUser(2).AddUser(3)
	w.AddQuote(testhelpers.FakeQuote{ID: 10, UserID: 1, CreateTime: testhelpers.Ptr(t0), BindTime: testhelpers.Ptr(t0.Add(330 * time.Second))})
	w.AddQuote(testhelpers.FakeQuote{ID: 11, UserID: 2, CreateTime: testhelpers.Ptr(t0)})
	w.AddQuote(testhelpers.FakeQuote{ID: 12, UserID: 2, CreateTime: testhelpers.Ptr(t0), BindTime: testhelpers.Ptr(t0.Add(-1500 * time.Millisecond))})
	w.AddPolicy(testhelpers.FakePolicy{ID: 100, UserID: 1, QuoteID: 10})
	w.AddPolicy(testhelpers.FakePolicy{ID: 101, UserID: 1, QuoteID: 12})
	w.AddPayment(testhelpers.FakePayment{ID: 1000, PolicyID: 100, Time: t0.Add(3 * time.Hour), PaymentType: testhelpers.Ptr("credit_card"), Success: false})
	w.AddPayment(testhelpers.FakePayment{ID: 1001, PolicyID: 100, Time: t0.Add(2 * time.Hour), PaymentType: testhelpers.Ptr("credit_card"), Success: false})
	w.AddPayment(testhelpers.FakePayment{ID: 1002, PolicyID: 101, Time: t0.Add(5 * time.Hour), PaymentType: testhelpers.Ptr("bank_transfer"), Success: true})
	w.AddPayment(testhelpers.FakePayment{ID: 1003, PolicyID: 100, Time: t0.Add(4 * time.Hour), PaymentType: nil, Success: true})
	return w
}

func compute(t *testing.T, e *features.Engine, featureType, entityID string) (features.Value, error) {
	t.Helper()
	def, ok := features.DefaultRegistry().Lookup(featureType)
	require.True(t, ok)
	return e.Compute(context.Background(), def, entityID)
}

func TestBuiltinComputations(t *testing.T) {
	e := features.NewEngine(seededWarehouse(), time.Second)

	tests := []struct {
		name        string
		featureType string
		entityID    string
		want        features.Value
		wantErr     error
	}{
		{"earliest successful payment", "user_policy_time_of_purchase", "1", features.TimeValue(t0.Add(4 * time.Hour)), nil},
		{"no successful payment", "user_policy_time_of_purchase", "2", features.Value{}, features.ErrEntityNotFound},
		{"bound quote", "quote_creation_to_binding_time", "10", features.IntValue(330), nil},
		{"unbound quote", "quote_creation_to_binding_time", "11", features.Value{}, features.ErrNotApplicable},
		{"negative duration truncates toward zero", "quote_creation_to_binding_time", "12", features.IntValue(-1), nil},
		{"missing quote", "quote_creation_to_binding_time", "99", features.Value{}, features.ErrEntityNotFound},
		{"two failures one success", "user_failed_transaction_count", "1", features.IntValue(2), nil},
		{"no transactions", "user_failed_transaction_count", "3", features.IntValue(0), nil},
		{"payment type", "payment_type", "1002", features.StringValue("bank_transfer"), nil},
		{"null payment type", "payment_type", "1003", features.Value{}, features.ErrEntityNotFound},
		{"missing payment", "payment_type", "4242", features.Value{}, features.ErrEntityNotFound},
		{"invalid id", "payment_type", "abc", features.Value{}, features.ErrInvalidEntityID},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := compute(t, e, tt.featureType, tt.entityID)
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				assert.True(t, got.IsZero())
				return
			}
			require.NoError(t, err)
			assert.True(t, tt.want.Equal(got), "got %v, want %v", got.Any(), tt.want.Any())
		})
	}
}

func TestEngineTimeout(t *testing.T) {
	w := seededWarehouse()
	w.SetDelay(time.Second)
	e := features.NewEngine(w, 20*time.Millisecond)

	start := time.Now()
	_, err := compute(t, e, "payment_type", "1002")
	assert.ErrorIs(t, err, features.ErrComputationTimeout)
	assert.Less(t, time.Since(start), 500*time.Millisecond)
	assert.Equal(t, "computation timed out", features.Reason(err))
}

func TestEngineSourceFault(t *testing.T) {
	w := seededWarehouse()
	boom := errors.New("connection reset")
	w.SetErr(boom)
	e := features.NewEngine(w, time.Second)

	_, err := compute(t, e, "user_failed_transaction_count", "1")
	var ce *features.ComputationError
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, "user_failed_transaction_count", ce.FeatureType)
	assert.Equal(t, "1", ce.EntityID)
	assert.ErrorIs(t, err, boom)
	assert.False(t, features.IsValidation(err))
	assert.Equal(t, "computation failed: connection reset", features.Reason(err))
}

func TestEngineWrongType(t *testing.T) {
	r := features.NewRegistry()
	r.Register(features.Definition{
		FeatureType: "liar",
		EntityKind:  features.EntityUser,
		DataType:    features.DataTypeInteger,
		Compute: func(context.Context, features.SourceReader, int64) (features.Value, error) {
			return features.StringValue("nope"), nil
		},
	})
	def, _ := r.Lookup("liar")
	_, err := features.NewEngine(seededWarehouse(), 0).Compute(context.Background(), def, "1")
	var ce *features.ComputationError
	assert.ErrorAs(t, err, &ce)
}

func TestEntityIDs(t *testing.T) {
	e := features.NewEngine(seededWarehouse(), 0)

	tests := []struct {
		kind features.EntityKind
		want []string
	}{
		{features.EntityUser, []string{"1", "2", "3"}},
		{features.EntityQuote, []string{"10", "11", "12"}},
		{features.EntityPolicy, []string{"100", "101"}},
		{features.EntityPaymentTransaction, []string{"1000", "1001", "1002", "1003"}},
	}
	for _, tt := range tests {
		t.Run(string(tt.kind), func(t *testing.T) {
			got, err := e.EntityIDs(context.Background(), tt.kind)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	_, err := e.EntityIDs(context.Background(), "account_id")
	assert.Error(t, err)
}

func TestComputeIsDeterministic(t *testing.T) {
	e := features.NewEngine(seededWarehouse(), time.Second)
	for _, def := range features.DefaultRegistry().List() {
		ids, err := e.EntityIDs(context.Background(), def.EntityKind)
		require.NoError(t, err)
		for _, id := range ids {
			a, errA := e.Compute(context.Background(), def, id)
			b, errB := e.Compute(context.Background(), def, id)
			assert.Equal(t, errA, errB)
			assert.True(t, a.Equal(b))
		}
	}
}
