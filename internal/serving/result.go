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
	"time"

	"github.com/cardinalhq/featurestore/internal/featurecache"
	"github.com/cardinalhq/featurestore/internal/features"
)

type Request struct {
	FeatureType string `json:"feature_type"`
	EntityID    string `json:"entity_id"`
}

// Result is the outcome of one lookup. Value and ComputedAt are nil unless
// Success is set.
type Result struct {
	FeatureType string          `json:"feature_type"`
	EntityID    string          `json:"entity_id"`
	Value       *features.Value `json:"feature_value"`
	ComputedAt  *time.Time      `json:"computed_at"`
	Success     bool            `json:"success"`
	Error       string          `json:"error,omitempty"`
	CacheHit    bool            `json:"-"`

	err error
}

// Err returns the underlying failure, or nil on success.
func (r Result) Err() error {
	return r.err
}

type TrainingResult struct {
	Results         []Result `json:"results"`
	TotalRequested  int      `json:"total_requested"`
	TotalSuccessful int      `json:"total_successful"`
}

type Stats struct {
	CacheHits   int64   `json:"cache_hits"`
	CacheMisses int64   `json:"cache_misses"`
	HitRate     float64 `json:"hit_rate"`
	// L1 is set when the cache backend has an in-process tier.
	L1 *featurecache.TierStats `json:"l1,omitempty"`
}

func success(rec featurecache.Record) Result {
	v := rec.Value
	at := rec.ComputedAt
	return Result{
		FeatureType: rec.FeatureType,
		EntityID:    rec.EntityID,
		Value:       &v,
		ComputedAt:  &at,
		Success:     true,
	}
}

func failure(req Request, err error) Result {
	return Result{
		FeatureType: req.FeatureType,
		EntityID:    req.EntityID,
		Error:       features.Reason(err),
		err:         err,
	}
}
