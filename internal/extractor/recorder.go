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
	"encoding/json"
	"fmt"

	"github.com/cardinalhq/featurestore/featuredb"
)

// DBRecorder stores run history in featuredb.extraction_runs.
type DBRecorder struct {
	q          featuredb.RunQuerier
	instanceID int64
}

func NewDBRecorder(q featuredb.RunQuerier, instanceID int64) *DBRecorder {
	return &DBRecorder{q: q, instanceID: instanceID}
}

func (r *DBRecorder) RecordRun(ctx context.Context, summary Summary, runErr error) error {
	b, err := json.Marshal(summary)
	if err != nil {
		return fmt.Errorf("encode run summary: %w", err)
	}
	var errText string
	if runErr != nil {
		errText = runErr.Error()
	}
	return r.q.InsertExtractionRun(ctx, featuredb.InsertExtractionRunParams{
		ID:             summary.RunID,
		InstanceID:     r.instanceID,
		StartedAt:      summary.StartedAt,
		FinishedAt:     summary.FinishedAt,
		Status:         summary.Status(runErr),
		TotalSucceeded: int64(summary.TotalSucceeded),
		Summary:        b,
		Error:          errText,
	})
}

// Recent returns up to limit runs, newest first.
func (r *DBRecorder) Recent(ctx context.Context, limit int) ([]featuredb.ExtractionRun, error) {
	if limit <= 0 || limit > 1000 {
		limit = 20
	}
	runs, err := r.q.ListExtractionRuns(ctx, int32(limit))
	if err != nil {
		return nil, fmt.Errorf("list extraction runs: %w", err)
	}
	return runs, nil
}
