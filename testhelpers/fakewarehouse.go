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
	"slices"
	"sync"
	"sync/atomic"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/cardinalhq/featurestore/warehouse"
)

// FakeQuote is a quotes row; nil times model NULL columns.
type FakeQuote struct {
	ID         int64
	UserID     int64
	CreateTime *time.Time
	BindTime   *time.Time
}

type FakePolicy struct {
	ID      int64
	UserID  int64
	QuoteID int64
}

// FakePayment is a payment_transactions row; a nil PaymentType is NULL.
type FakePayment struct {
	ID          int64
	PolicyID    int64
	Time        time.Time
	PaymentType *string
	Success     bool
}

// FakeWarehouse is an in-memory warehouse answering the same queries as
// warehouse.Queries. Missing rows surface as pgx.ErrNoRows, like sqlc :one
// queries do.
type FakeWarehouse struct {
	mu       sync.RWMutex
	users    map[int64]struct{}
	quotes   map[int64]FakeQuote
	policies map[int64]FakePolicy
	payments map[int64]FakePayment

	err   error
	delay time.Duration
	calls atomic.Int64
}

func NewFakeWarehouse() *FakeWarehouse {
	return &FakeWarehouse{
		users:    map[int64]struct{}{},
		quotes:   map[int64]FakeQuote{},
		policies: map[int64]FakePolicy{},
		payments: map[int64]FakePayment{},
	}
}

func (f *FakeWarehouse) AddUser(id int64) *FakeWarehouse {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.users[id] = struct{}{}
	return f
}

func (f *FakeWarehouse) AddQuote(q FakeQuote) *FakeWarehouse {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.quotes[q.ID] = q
	return f
}

func (f *FakeWarehouse) AddPolicy(p FakePolicy) *FakeWarehouse {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.policies[p.ID] = p
	return f
}

func (f *FakeWarehouse) AddPayment(p FakePayment) *FakeWarehouse {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.payments[p.ID] = p
	return f
}

// SetErr makes every subsequent query fail with err. Pass nil to clear.
func (f *FakeWarehouse) SetErr(err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.err = err
}

// SetDelay makes every query wait d, or until its context is done.
func (f *FakeWarehouse) SetDelay(d time.Duration) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.delay = d
}

// Calls returns the number of queries served so far.
func (f *FakeWarehouse) Calls() int64 {
	return f.calls.Load()
}

func (f *FakeWarehouse) begin(ctx context.Context) error {
	f.calls.Add(1)
	f.mu.RLock()
	delay, err := f.delay, f.err
	f.mu.RUnlock()
	if delay > 0 {
		timer := time.NewTimer(delay)
		defer timer.Stop()
		select {
		case <-timer.C:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return err
}

func sortedKeys[V any](m map[int64]V) []int64 {
	out := make([]int64, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	slices.Sort(out)
	return out
}

func (f *FakeWarehouse) ListUserIDs(ctx context.Context) ([]int64, error) {
	if err := f.begin(ctx); err != nil {
		return nil, err
	}
	f.mu.RLock()
	defer f.mu.RUnlock()
	return sortedKeys(f.users), nil
}

func (f *FakeWarehouse) ListQuoteIDs(ctx context.Context) ([]int64, error) {
	if err := f.begin(ctx); err != nil {
		return nil, err
	}
	f.mu.RLock()
	defer f.mu.RUnlock()
	return sortedKeys(f.quotes), nil
}

func (f *FakeWarehouse) ListPolicyIDs(ctx context.Context) ([]int64, error) {
	if err := f.begin(ctx); err != nil {
		return nil, err
	}
	f.mu.RLock()
	defer f.mu.RUnlock()
	return sortedKeys(f.policies), nil
}

func (f *FakeWarehouse) ListPaymentTransactionIDs(ctx context.Context) ([]int64, error) {
	if err := f.begin(ctx); err != nil {
		return nil, err
	}
	f.mu.RLock()
	defer f.mu.RUnlock()
	return sortedKeys(f.payments), nil
}

func (f *FakeWarehouse) userPayments(userID int64) []FakePayment {
	var out []FakePayment
	for _, id := range sortedKeys(f.payments) {
		p := f.payments[id]
		if pol, ok := f.policies[p.PolicyID]; ok && pol.UserID == userID {
			out = append(out, p)
		}
	}
	return out
}

func (f *FakeWarehouse) GetEarliestSuccessfulPaymentTime(ctx context.Context, userID int64) (pgtype.Timestamptz, error) {
	if err := f.begin(ctx); err != nil {
		return pgtype.Timestamptz{}, err
	}
	f.mu.RLock()
	defer f.mu.RUnlock()
	var (
		best  time.Time
		found bool
	)
	for _, p := range f.userPayments(userID) {
		if !p.Success {
			continue
		}
		if !found || p.Time.Before(best) {
			best, found = p.Time, true
		}
	}
	if !found {
		return pgtype.Timestamptz{}, pgx.ErrNoRows
	}
	return pgtype.Timestamptz{Time: best, Valid: true}, nil
}

func (f *FakeWarehouse) GetQuoteTimes(ctx context.Context, id int64) (warehouse.GetQuoteTimesRow, error) {
	if err := f.begin(ctx); err != nil {
		return warehouse.GetQuoteTimesRow{}, err
	}
	f.mu.RLock()
	defer f.mu.RUnlock()
	q, ok := f.quotes[id]
	if !ok {
		return warehouse.GetQuoteTimesRow{}, pgx.ErrNoRows
	}
	row := warehouse.GetQuoteTimesRow{ID: q.ID}
	if q.CreateTime != nil {
		row.CreateTime = pgtype.Timestamptz{Time: *q.CreateTime, Valid: true}
	}
	if q.BindTime != nil {
		row.BindTime = pgtype.Timestamptz{Time: *q.BindTime, Valid: true}
	}
	return row, nil
}

func (f *FakeWarehouse) CountFailedTransactionsByUser(ctx context.Context, userID int64) (int64, error) {
	if err := f.begin(ctx); err != nil {
		return 0, err
	}
	f.mu.RLock()
	defer f.mu.RUnlock()
	var n int64
	for _, p := range f.userPayments(userID) {
		if !p.Success {
			n++
		}
	}
	return n, nil
}

func (f *FakeWarehouse) GetPaymentType(ctx context.Context, id int64) (pgtype.Text, error) {
	if err := f.begin(ctx); err != nil {
		return pgtype.Text{}, err
	}
	f.mu.RLock()
	defer f.mu.RUnlock()
	p, ok := f.payments[id]
	if !ok {
		return pgtype.Text{}, pgx.ErrNoRows
	}
	if p.PaymentType == nil {
		return pgtype.Text{}, nil
	}
	return pgtype.Text{String: *p.PaymentType, Valid: true}, nil
}

// Ptr returns a pointer to v, for optional fake columns.
func Ptr[T any](v T) *T {
	return &v
}
