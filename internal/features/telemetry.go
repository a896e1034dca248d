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

package features

import (
	"log"
	"log/slog"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
)

var (
	computeDuration metric.Float64Histogram
	computeFailures metric.Int64Counter
)

func init() {
	meter := otel.Meter("github.com/cardinalhq/featurestore/internal/features")

	var err error

	computeDuration, err = meter.Float64Histogram(
		"featurestore.compute.duration",
		metric.WithDescription("Time spent computing a single feature value"),
		metric.WithUnit("s"),
	)
	if err != nil {
		log.Fatalf("failed to create compute.duration histogram: %v", err)
	}

	computeFailures, err = meter.Int64Counter(
		"featurestore.compute.failures",
		metric.WithDescription("Number of feature computations that did not produce a value"),
	)
	if err != nil {
		log.Fatalf("failed to create compute.failures counter: %v", err)
	}
}

func slogAttrs(def Definition, entityID string, err error) []any {
	return []any{
		slog.String("featureType", def.FeatureType),
		slog.String("entityID", entityID),
		slog.Any("error", err),
	}
}
