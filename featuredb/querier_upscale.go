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

package featuredb

import "context"

// RecordQuerier is the subset used by the Postgres feature cache.
type RecordQuerier interface {
	GetFeatureRecord(ctx context.Context, arg GetFeatureRecordParams) (FeatureRecord, error)
	UpsertFeatureRecord(ctx context.Context, arg UpsertFeatureRecordParams) error
}

// RunQuerier is the subset used to persist extraction history.
type RunQuerier interface {
	InsertExtractionRun(ctx context.Context, arg InsertExtractionRunParams) error
	ListExtractionRuns(ctx context.Context, maxRows int32) ([]ExtractionRun, error)
}

type StoreFull interface {
	Querier
	RecordQuerier
	RunQuerier
	Ping(ctx context.Context) error
	Close()
}

var _ StoreFull = (*Store)(nil)
