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
	"time"

	"github.com/jellydator/ttlcache/v3"
)

// Tiered fronts a remote store with a bounded in-process cache. The L1 TTL
// only bounds memory; the remote store stays authoritative.
type Tiered struct {
	l1 *ttlcache.Cache[string, Record]
	l2 Store
}

// NewTiered wraps l2 with an L1 holding at most capacity records for ttl.
func NewTiered(l2 Store, capacity uint64, ttl time.Duration) *Tiered {
	l1 := ttlcache.New(
		ttlcache.WithTTL[string, Record](ttl),
		ttlcache.WithCapacity[string, Record](capacity),
	)
	go l1.Start()
	return &Tiered{l1: l1, l2: l2}
}

func (t *Tiered) Get(ctx context.Context, featureType, entityID string) (Record, bool, error) {
	var l2err error
	loader := ttlcache.LoaderFunc[string, Record](
		func(c *ttlcache.Cache[string, Record], key string) *ttlcache.Item[string, Record] {
			rec, found, err := t.l2.Get(ctx, featureType, entityID)
			if err != nil || !found {
				l2err = err
				return nil
			}
			return c.Set(key, rec, ttlcache.DefaultTTL)
		},
	)

	item := t.l1.Get(recordKey(featureType, entityID), ttlcache.WithLoader[string, Record](loader))
	if item == nil {
		return Record{}, false, l2err
	}
	return item.Value(), true, nil
}

// Put writes the remote store first; L1 is only updated once that succeeds.
func (t *Tiered) Put(ctx context.Context, rec Record) error {
	if err := t.l2.Put(ctx, rec); err != nil {
		return err
	}
	rec.ComputedAt = NormalizeTime(rec.ComputedAt)
	t.l1.Set(recordKey(rec.FeatureType, rec.EntityID), rec, ttlcache.DefaultTTL)
	return nil
}

// TierStats counts activity in the in-process tier.
type TierStats struct {
	Hits       uint64 `json:"hits"`
	Misses     uint64 `json:"misses"`
	Insertions uint64 `json:"insertions"`
	Evictions  uint64 `json:"evictions"`
}

// StatsReporter is implemented by stores with an in-process tier.
type StatsReporter interface {
	L1Stats() TierStats
}

var _ StatsReporter = (*Tiered)(nil)

// L1Stats reports the in-process tier's counters.
func (t *Tiered) L1Stats() TierStats {
	m := t.l1.Metrics()
	return TierStats{
		Hits:       m.Hits,
		Misses:     m.Misses,
		Insertions: m.Insertions,
		Evictions:  m.Evictions,
	}
}

// Ping forwards to the remote store when it supports health checks.
func (t *Tiered) Ping(ctx context.Context) error {
	if p, ok := t.l2.(Pinger); ok {
		return p.Ping(ctx)
	}
	return nil
}

func (t *Tiered) Close() error {
	t.l1.Stop()
	return t.l2.Close()
}
