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
	"sync"
)

// MemoryStore keeps records in process memory. Each entry is an immutable
// *Record, so readers never observe a half-written record and never block
// each other.
type MemoryStore struct {
	records sync.Map // string -> *Record
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (m *MemoryStore) Get(_ context.Context, featureType, entityID string) (Record, bool, error) {
	v, ok := m.records.Load(recordKey(featureType, entityID))
	if !ok {
		return Record{}, false, nil
	}
	return *v.(*Record), true, nil
}

func (m *MemoryStore) Put(_ context.Context, rec Record) error {
	if err := validateRecord(rec); err != nil {
		return err
	}
	rec.ComputedAt = NormalizeTime(rec.ComputedAt)
	m.records.Store(recordKey(rec.FeatureType, rec.EntityID), &rec)
	return nil
}

// Len counts stored records.
func (m *MemoryStore) Len() int {
	n := 0
	m.records.Range(func(_, _ any) bool {
		n++
		return true
	})
	return n
}

func (m *MemoryStore) Close() error {
	return nil
}
