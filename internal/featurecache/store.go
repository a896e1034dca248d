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

// Package featurecache stores computed feature values keyed by
// (feature type, entity id). Backends replace a record as a whole on Put
// and never expose a partially written record.
package featurecache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/cardinalhq/featurestore/internal/features"
)

// Record is one cached feature value.
type Record struct {
	FeatureType string
	EntityID    string
	Value       features.Value
	ComputedAt  time.Time
}

// Store is a feature cache backend. Get returns found=false on a miss.
type Store interface {
	Get(ctx context.Context, featureType, entityID string) (Record, bool, error)
	Put(ctx context.Context, rec Record) error
	Close() error
}

// NormalizeTime is the computed_at precision every backend can round-trip.
func NormalizeTime(t time.Time) time.Time {
	return t.UTC().Truncate(time.Microsecond)
}

func recordKey(featureType, entityID string) string {
	return featureType + ":" + entityID
}

// wireRecord is the JSON form used by remote backends.
type wireRecord struct {
	FeatureType string          `json:"feature_type"`
	EntityID    string          `json:"entity_id"`
	DataType    string          `json:"data_type"`
	Value       json.RawMessage `json:"value"`
	ComputedAt  time.Time       `json:"computed_at"`
}

func encodeRecord(rec Record) ([]byte, error) {
	v, err := json.Marshal(rec.Value)
	if err != nil {
		return nil, fmt.Errorf("encode %s value: %w", rec.FeatureType, err)
	}
	return json.Marshal(wireRecord{
		FeatureType: rec.FeatureType,
		EntityID:    rec.EntityID,
		DataType:    string(rec.Value.Type()),
		Value:       v,
		ComputedAt:  NormalizeTime(rec.ComputedAt),
	})
}

func decodeRecord(b []byte) (Record, error) {
	var w wireRecord
	if err := json.Unmarshal(b, &w); err != nil {
		return Record{}, fmt.Errorf("decode cached record: %w", err)
	}
	v, err := features.DecodeValue(features.DataType(w.DataType), w.Value)
	if err != nil {
		return Record{}, err
	}
	return Record{
		FeatureType: w.FeatureType,
		EntityID:    w.EntityID,
		Value:       v,
		ComputedAt:  w.ComputedAt.UTC(),
	}, nil
}

func validateRecord(rec Record) error {
	if rec.FeatureType == "" || rec.EntityID == "" {
		return fmt.Errorf("record key is incomplete: %q/%q", rec.FeatureType, rec.EntityID)
	}
	if rec.Value.IsZero() {
		return fmt.Errorf("record %s/%s has no value", rec.FeatureType, rec.EntityID)
	}
	return nil
}
