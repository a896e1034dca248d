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
	"log"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
)

var cacheLookups metric.Int64Counter

func init() {
	meter := otel.Meter("github.com/cardinalhq/featurestore/internal/serving")

	var err error
	cacheLookups, err = meter.Int64Counter(
		"featurestore.cache.lookups",
		metric.WithDescription("Feature cache lookups made by the serving layer, by result"),
	)
	if err != nil {
		log.Fatalf("failed to create cache.lookups counter: %v", err)
	}
}
