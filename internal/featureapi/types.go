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

// Package featureapi exposes the serving layer over HTTP under
// /api/v1/features.
package featureapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"

	"github.com/cardinalhq/featurestore/featuredb"
	"github.com/cardinalhq/featurestore/internal/extractor"
	"github.com/cardinalhq/featurestore/internal/features"
	"github.com/cardinalhq/featurestore/internal/serving"
)

// Service is the serving layer surface the API needs.
type Service interface {
	Inference(ctx context.Context, req serving.Request, opts ...serving.Option) serving.Result
	Training(ctx context.Context, reqs []serving.Request) serving.TrainingResult
	Discovery() []features.Definition
	TriggerExtraction(ctx context.Context, featureTypes ...string) (extractor.Summary, error)
	Stats() serving.Stats
}

// RunHistory lists persisted extraction runs.
type RunHistory interface {
	Recent(ctx context.Context, limit int) ([]featuredb.ExtractionRun, error)
}

// EntityID accepts either a JSON string or a JSON integer.
type EntityID string

func (e *EntityID) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*e = EntityID(s)
		return nil
	}
	if bytes.Equal(b, []byte("null")) {
		*e = ""
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return fmt.Errorf("entity_id must be a string or an integer")
	}
	if _, err := strconv.ParseInt(n.String(), 10, 64); err != nil {
		return fmt.Errorf("entity_id must be a string or an integer")
	}
	*e = EntityID(n.String())
	return nil
}

type inferenceRequest struct {
	FeatureType    string   `json:"feature_type"`
	EntityID       EntityID `json:"entity_id"`
	ForceRecompute bool     `json:"force_recompute"`
}

type featureRef struct {
	FeatureType string   `json:"feature_type"`
	EntityID    EntityID `json:"entity_id"`
}

type trainingRequest struct {
	Features []featureRef `json:"features"`
}

type extractRequest struct {
	FeatureTypes []string `json:"feature_types"`
}

type extractResponse struct {
	Message           string         `json:"message"`
	RunID             string         `json:"run_id"`
	FeaturesExtracted map[string]int `json:"features_extracted"`
	Failures          map[string]int `json:"failures"`
	TotalFeatures     int            `json:"total_features"`
}

type errorResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
}

type extractErrorResponse struct {
	Message string `json:"message"`
	Error   string `json:"error"`
}

var errMissingField = errors.New("missing required field")
