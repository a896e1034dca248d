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
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/cardinalhq/featurestore/internal/logctx"
)

// DefaultComputeTimeout bounds a single computation when no timeout is configured.
const DefaultComputeTimeout = 5 * time.Second

// Engine runs registered computations against a SourceReader.
type Engine struct {
	src     SourceReader
	timeout time.Duration
}

// NewEngine returns an engine that bounds each computation by timeout.
// A non-positive timeout selects DefaultComputeTimeout.
func NewEngine(src SourceReader, timeout time.Duration) *Engine {
	if timeout <= 0 {
		timeout = DefaultComputeTimeout
	}
	return &Engine{src: src, timeout: timeout}
}

// Compute runs def for entityID. Expected outcomes (missing entity, feature
// not applicable, timeout) are returned as sentinel errors; any other source
// fault is wrapped in a *ComputationError.
func (e *Engine) Compute(ctx context.Context, def Definition, entityID string) (Value, error) {
	id, err := ParseEntityID(entityID)
	if err != nil {
		return Value{}, err
	}

	cctx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	start := time.Now()
	v, err := def.Compute(cctx, e.src, id)
	computeDuration.Record(ctx, time.Since(start).Seconds(),
		metric.WithAttributes(attribute.String("feature_type", def.FeatureType)))

	if err != nil {
		err = e.classify(ctx, cctx, def, entityID, err)
		computeFailures.Add(ctx, 1, metric.WithAttributes(
			attribute.String("feature_type", def.FeatureType),
			attribute.String("reason", Reason(err)),
		))
		return Value{}, err
	}

	if v.Type() != def.DataType {
		err := &ComputationError{
			FeatureType: def.FeatureType,
			EntityID:    entityID,
			Err:         fmt.Errorf("computation returned %q, want %q", v.Type(), def.DataType),
		}
		logctx.FromContext(ctx).Error("Feature computation returned wrong type",
			slogAttrs(def, entityID, err)...)
		return Value{}, err
	}
	return v, nil
}

func (e *Engine) classify(ctx, cctx context.Context, def Definition, entityID string, err error) error {
	switch {
	case errors.Is(err, ErrEntityNotFound), errors.Is(err, ErrNotApplicable):
		return err
	case isNoRows(err):
		return ErrEntityNotFound
	case errors.Is(cctx.Err(), context.DeadlineExceeded):
		return ErrComputationTimeout
	case ctx.Err() != nil:
		return ctx.Err()
	}
	logctx.FromContext(ctx).Error("Feature computation failed", slogAttrs(def, entityID, err)...)
	return &ComputationError{FeatureType: def.FeatureType, EntityID: entityID, Err: err}
}

// EntityIDs lists every entity id of kind known to the warehouse.
func (e *Engine) EntityIDs(ctx context.Context, kind EntityKind) ([]string, error) {
	var (
		ids []int64
		err error
	)
	switch kind {
	case EntityUser:
		ids, err = e.src.ListUserIDs(ctx)
	case EntityQuote:
		ids, err = e.src.ListQuoteIDs(ctx)
	case EntityPolicy:
		ids, err = e.src.ListPolicyIDs(ctx)
	case EntityPaymentTransaction:
		ids, err = e.src.ListPaymentTransactionIDs(ctx)
	default:
		return nil, fmt.Errorf("unknown entity kind %q", kind)
	}
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", kind, err)
	}
	out := make([]string, len(ids))
	for i, id := range ids {
		out[i] = strconv.FormatInt(id, 10)
	}
	return out, nil
}
