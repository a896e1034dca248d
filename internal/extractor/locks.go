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

package extractor

import (
	"context"
	"sync"

	"golang.org/x/sync/semaphore"
)

// typeLocks serializes runs per feature type while letting different types
// proceed in parallel.
type typeLocks struct {
	mu    sync.Mutex
	locks map[string]*semaphore.Weighted
}

func newTypeLocks() *typeLocks {
	return &typeLocks{locks: map[string]*semaphore.Weighted{}}
}

// acquire blocks until featureType is free or ctx is done.
func (l *typeLocks) acquire(ctx context.Context, featureType string) (func(), error) {
	l.mu.Lock()
	sem, ok := l.locks[featureType]
	if !ok {
		sem = semaphore.NewWeighted(1)
		l.locks[featureType] = sem
	}
	l.mu.Unlock()

	if err := sem.Acquire(ctx, 1); err != nil {
		return nil, err
	}
	return func() { sem.Release(1) }, nil
}
