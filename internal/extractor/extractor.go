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

// Package extractor runs batch passes that compute every registered feature
// for every known entity and upsert the results into the feature cache.
package extractor

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/hashicorp/go-multierror"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"golang.org/x/sync/errgroup"

	"github.com/cardinalhq/featurestore/internal/featurecache"
	"github.com/cardinalhq/featurestore/internal/features"
	"github.com/cardinalhq/featurestore/internal/logctx"
)

// Config tunes extraction parallelism and the optional schedule.
type Config struct {
	Interval        time.Duration `mapstructure:"interval"`
	TypeConcurrency int           `mapstructure:"type_concurrency"`
	ItemConcurrency int           `mapstructure:"item_concurrency"`
}

func DefaultConfig() Config {
	return Config{
		TypeConcurrency: 4,
		ItemConcurrency: 16,
	}
}

// Engine computes feature values and enumerates entity ids.
type Engine interface {
	Compute(ctx context.Context, def features.Definition, entityID string) (features.Value, error)
	EntityIDs(ctx context.Context, kind features.EntityKind) ([]string, error)
}

// RunRecorder persists the outcome of a pass.
type RunRecorder interface {
	RecordRun(ctx context.Context, summary Summary, runErr error) error
}

type Extractor struct {
	registry *features.Registry
	engine   Engine
	store    featurecache.Store
	cfg      Config
	locks    *typeLocks
	recorder RunRecorder
	now      func() time.Time
}

type Option func(*Extractor)

// WithRecorder persists every run through r.
func WithRecorder(r RunRecorder) Option {
	return func(x *Extractor) { x.recorder = r }
}

// WithClock overrides the time source used for computed_at.
func WithClock(now func() time.Time) Option {
	return func(x *Extractor) { x.now = now }
}

func New(registry *features.Registry, engine Engine, store featurecache.Store, cfg Config, opts ...Option) *Extractor {
	def := DefaultConfig()
	if cfg.TypeConcurrency <= 0 {
		cfg.TypeConcurrency = def.TypeConcurrency
	}
	if cfg.ItemConcurrency <= 0 {
		cfg.ItemConcurrency = def.ItemConcurrency
	}
	x := &Extractor{
		registry: registry,
		engine:   engine,
		store:    store,
		cfg:      cfg,
		locks:    newTypeLocks(),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(x)
	}
	return x
}

// Run performs one pass over featureTypes, or every registered type when
// none are given. Item failures are tallied in the summary; only faults
// that stop a whole type (enumeration errors, cancellation) are returned,
// combined, next to the partial summary.
func (x *Extractor) Run(ctx context.Context, featureTypes ...string) (Summary, error) {
	defs, err := x.selectDefinitions(featureTypes)
	if err != nil {
		return Summary{}, err
	}

	summary := Summary{
		RunID:     uuid.New(),
		StartedAt: x.now().UTC(),
		Types:     make(map[string]*TypeSummary, len(defs)),
	}
	for _, def := range defs {
		summary.Types[def.FeatureType] = &TypeSummary{}
	}

	ctx, ll := logctx.With(ctx, slog.String("runID", summary.RunID.String()))
	ll.Info("Starting feature extraction", slog.Int("featureTypes", len(defs)))

	var (
		mu   sync.Mutex
		merr *multierror.Error
		g    errgroup.Group
	)
	g.SetLimit(x.cfg.TypeConcurrency)
	for _, def := range defs {
		ts := summary.Types[def.FeatureType]
		g.Go(func() error {
			if err := x.runType(ctx, def, ts); err != nil {
				mu.Lock()
				merr = multierror.Append(merr, fmt.Errorf("extract %s: %w", def.FeatureType, err))
				mu.Unlock()
			}
			return nil
		})
	}
	_ = g.Wait()

	summary.FinishedAt = x.now().UTC()
	for _, ts := range summary.Types {
		summary.TotalSucceeded += ts.Succeeded
	}
	runErr := merr.ErrorOrNil()

	if x.recorder != nil {
		// Recording must survive a cancelled run context.
		rctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 10*time.Second)
		if err := x.recorder.RecordRun(rctx, summary, runErr); err != nil {
			ll.Error("Failed to record extraction run", slog.Any("error", err))
		}
		cancel()
	}

	extractDuration.Record(ctx, summary.FinishedAt.Sub(summary.StartedAt).Seconds())
	attrs := []any{
		slog.Int("totalSucceeded", summary.TotalSucceeded),
		slog.Int("totalFailed", summary.TotalFailed()),
		slog.Duration("elapsed", summary.FinishedAt.Sub(summary.StartedAt)),
	}
	if runErr != nil {
		ll.Error("Feature extraction finished with errors", append(attrs, slog.Any("error", runErr))...)
	} else {
		ll.Info("Feature extraction finished", attrs...)
	}
	return summary, runErr
}

func (x *Extractor) selectDefinitions(featureTypes []string) ([]features.Definition, error) {
	if len(featureTypes) == 0 {
		return x.registry.List(), nil
	}
	seen := make(map[string]bool, len(featureTypes))
	defs := make([]features.Definition, 0, len(featureTypes))
	for _, ft := range featureTypes {
		if seen[ft] {
			continue
		}
		seen[ft] = true
		def, ok := x.registry.Lookup(ft)
		if !ok {
			return nil, fmt.Errorf("%w: %q", features.ErrUnknownFeatureType, ft)
		}
		defs = append(defs, def)
	}
	return defs, nil
}

func (x *Extractor) runType(ctx context.Context, def features.Definition, ts *TypeSummary) error {
	release, err := x.locks.acquire(ctx, def.FeatureType)
	if err != nil {
		return err
	}
	defer release()

	ids, err := x.engine.EntityIDs(ctx, def.EntityKind)
	if err != nil {
		return err
	}

	var (
		mu sync.Mutex
		g  errgroup.Group
	)
	g.SetLimit(x.cfg.ItemConcurrency)
	for _, id := range ids {
		if ctx.Err() != nil {
			break
		}
		g.Go(func() error {
			reason := x.extractOne(ctx, def, id)
			mu.Lock()
			ts.add(reason)
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()

	logctx.FromContext(ctx).Debug("Extracted feature type",
		slog.String("featureType", def.FeatureType),
		slog.Int("attempted", ts.Attempted),
		slog.Int("succeeded", ts.Succeeded),
		slog.Int("failed", ts.Failed))
	return ctx.Err()
}

// extractOne returns the failure reason, or "" when the record was stored.
func (x *Extractor) extractOne(ctx context.Context, def features.Definition, entityID string) string {
	v, err := x.engine.Compute(ctx, def, entityID)
	if err != nil {
		recordItem(ctx, def.FeatureType, "failed")
		return features.Reason(err)
	}
	rec := featurecache.Record{
		FeatureType: def.FeatureType,
		EntityID:    entityID,
		Value:       v,
		ComputedAt:  featurecache.NormalizeTime(x.now()),
	}
	if err := x.store.Put(ctx, rec); err != nil {
		logctx.FromContext(ctx).Warn("Failed to store extracted feature",
			slog.String("featureType", def.FeatureType),
			slog.String("entityID", entityID),
			slog.Any("error", err))
		recordItem(ctx, def.FeatureType, "failed")
		return "cache write failed"
	}
	recordItem(ctx, def.FeatureType, "succeeded")
	return ""
}

func recordItem(ctx context.Context, featureType, outcome string) {
	extractItems.Add(ctx, 1, metric.WithAttributes(
		attribute.String("feature_type", featureType),
		attribute.String("outcome", outcome),
	))
}
