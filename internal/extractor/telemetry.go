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
	"log"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
)

var (
	extractItems    metric.Int64Counter
	extractDuration metric.Float64Histogram
)

func init() {
	meter := otel.Meter("github.com/cardinalhq/featurestore/internal/extractor")

	var err error

	extractItems, err = meter.Int64Counter(
		"featurestore.extract.items",
		metric.WithDescription("Number of entities processed by extraction, by outcome"),
	)
	if err != nil {
		log.Fatalf("failed to create extract.items counter: %v", err)
	}

	extractDuration, err = meter.Float64Histogram(
		"featurestore.extract.duration",
		metric.WithDescription("Wall time of a full extraction pass"),
		metric.WithUnit("s"),
	)
	if err != nil {
		log.Fatalf("failed to create extract.duration histogram: %v", err)
	}
}
