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
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/cardinalhq/featurestore/featuredb"
	"github.com/cardinalhq/featurestore/internal/features"
)

// PostgresStore keeps records in the featuredb feature_records table.
// Put is a single INSERT ... ON CONFLICT DO UPDATE, atomic per row.
type PostgresStore struct {
	q featuredb.RecordQuerier
}

func NewPostgresStore(q featuredb.RecordQuerier) *PostgresStore {
	return &PostgresStore{q: q}
}

func (p *PostgresStore) Get(ctx context.Context, featureType, entityID string) (Record, bool, error) {
	row, err := p.q.GetFeatureRecord(ctx, featuredb.GetFeatureRecordParams{
		FeatureType: featureType,
		EntityID:    entityID,
	})
	if errors.Is(err, pgx.ErrNoRows) {
		return Record{}, false, nil
	}
	if err != nil {
		return Record{}, false, fmt.Errorf("get feature record %s/%s: %w", featureType, entityID, err)
	}
	v, err := features.DecodeValue(features.DataType(row.DataType), row.Value)
	if err != nil {
		return Record{}, false, err
	}
	return Record{
		FeatureType: row.FeatureType,
		EntityID:    row.EntityID,
		Value:       v,
		ComputedAt:  row.ComputedAt.UTC(),
	}, true, nil
}

func (p *PostgresStore) Put(ctx context.Context, rec Record) error {
	if err := validateRecord(rec); err != nil {
		return err
	}
	v, err := json.Marshal(rec.Value)
	if err != nil {
		return fmt.Errorf("encode %s value: %w", rec.FeatureType, err)
	}
	err = p.q.UpsertFeatureRecord(ctx, featuredb.UpsertFeatureRecordParams{
		FeatureType: rec.FeatureType,
		EntityID:    rec.EntityID,
		DataType:    string(rec.Value.Type()),
		Value:       v,
		ComputedAt:  NormalizeTime(rec.ComputedAt),
	})
	if err != nil {
		return fmt.Errorf("upsert feature record %s/%s: %w", rec.FeatureType, rec.EntityID, err)
	}
	return nil
}

// Close is a no-op; the featuredb pool is owned by the caller.
func (p *PostgresStore) Close() error {
	return nil
}
