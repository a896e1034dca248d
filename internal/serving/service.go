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

// Package serving answers feature reads: single inference lookups, bulk
// training retrieval and registry discovery, all backed by a read-through
// cache.
package serving

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"sync/atomic"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"github.com/cardinalhq/featurestore/internal/extractor"
	"github.com/cardinalhq/featurestore/internal/featurecache"
	"github.com/cardinalhq/featurestore/internal/features"
	"github.com/cardinalhq/featurestore/internal/logctx"
)

// ErrExtractionUnavailable is returned by TriggerExtraction when no
// extractor is wired.
var ErrExtractionUnavailable = errors.New("extraction is not configured")

type Config struct {
	ItemTimeout         time.Duration `mapstructure:"item_timeout"`
	TrainingConcurrency int           `mapstructure:"training_concurrency"`
	SingleFlight        bool          `mapstructure:"single_flight"`
	// MaxAge treats older records as misses. Zero means records never go stale.
	// config.Load copies it from cache.max_age.
	MaxAge time.Duration `mapstructure:"-"`
}

func DefaultConfig() Config {
	return Config{
		ItemTimeout:         features.DefaultComputeTimeout,
		TrainingConcurrency: 8,
	}
}

// Computer runs one feature computation.
type Computer interface {
	Compute(ctx context.Context, def features.Definition, entityID string) (features.Value, error)
}

// Extractor runs a batch extraction pass.
type Extractor interface {
	Run(ctx context.Context, featureTypes ...string) (extractor.Summary, error)
}

type Service struct {
	registry  *features.Registry
	engine    Computer
	store     featurecache.Store
	extractor Extractor
	cfg       Config
	now       func() time.Time

	flight singleflight.Group
	hits   atomic.Int64
	misses atomic.Int64
}

// New builds a Service. x may be nil when extraction is not offered.
func New(registry *features.Registry, engine Computer, store featurecache.Store, x Extractor, cfg Config) *Service {
	if cfg.TrainingConcurrency <= 0 {
		cfg.TrainingConcurrency = DefaultConfig().TrainingConcurrency
	}
	return &Service{
		registry:  registry,
		engine:    engine,
		store:     store,
		extractor: x,
		cfg:       cfg,
		now:       time.Now,
	}
}

type inferenceOptions struct {
	forceRecompute bool
}

type Option func(*inferenceOptions)

// WithForceRecompute skips the cache read. The fresh value is still written back.
func WithForceRecompute() Option {
	return func(o *inferenceOptions) { o.forceRecompute = true }
}

// Inference resolves one feature value through the cache, computing and
// writing it back on a miss. Failures are reported in the Result and never
// cached.
func (s *Service) Inference(ctx context.Context, req Request, opts ...Option) Result {
	var o inferenceOptions
	for _, opt := range opts {
		opt(&o)
	}

	def, ok := s.registry.Lookup(req.FeatureType)
	if !ok {
		return failure(req, fmt.Errorf("%w: %q", features.ErrUnknownFeatureType, req.FeatureType))
	}
	id, err := features.ParseEntityID(req.EntityID)
	if err != nil {
		return failure(req, err)
	}
	// "010", " 10" and "+10" all address entity 10 and share its record.
	req.EntityID = strconv.FormatInt(id, 10)

	if !o.forceRecompute {
		rec, found, err := s.store.Get(ctx, req.FeatureType, req.EntityID)
		switch {
		case err != nil:
			logctx.FromContext(ctx).Warn("Feature cache read failed, recomputing",
				slog.String("featureType", req.FeatureType),
				slog.String("entityID", req.EntityID),
				slog.Any("error", err))
		case found && !s.stale(rec):
			s.recordLookup(ctx, req.FeatureType, true)
			res := success(rec)
			res.CacheHit = true
			return res
		}
		s.recordLookup(ctx, req.FeatureType, false)
	}

	rec, err := s.computeAndStore(ctx, def, req.EntityID)
	if err != nil {
		return failure(req, err)
	}
	return success(rec)
}

func (s *Service) computeAndStore(ctx context.Context, def features.Definition, entityID string) (featurecache.Record, error) {
	if !s.cfg.SingleFlight {
		return s.compute(ctx, def, entityID)
	}
	// The shared computation must not die with whichever caller started it;
	// the engine timeout still bounds it.
	shared := context.WithoutCancel(ctx)
	v, err, _ := s.flight.Do(def.FeatureType+"\x00"+entityID, func() (any, error) {
		return s.compute(shared, def, entityID)
	})
	if err != nil {
		return featurecache.Record{}, err
	}
	return v.(featurecache.Record), nil
}

func (s *Service) compute(ctx context.Context, def features.Definition, entityID string) (featurecache.Record, error) {
	v, err := s.engine.Compute(ctx, def, entityID)
	if err != nil {
		return featurecache.Record{}, err
	}
	rec := featurecache.Record{
		FeatureType: def.FeatureType,
		EntityID:    entityID,
		Value:       v,
		ComputedAt:  featurecache.NormalizeTime(s.now()),
	}
	if err := s.store.Put(ctx, rec); err != nil {
		logctx.FromContext(ctx).Warn("Feature cache write-through failed",
			slog.String("featureType", def.FeatureType),
			slog.String("entityID", entityID),
			slog.Any("error", err))
	}
	return rec, nil
}

func (s *Service) stale(rec featurecache.Record) bool {
	return s.cfg.MaxAge > 0 && s.now().Sub(rec.ComputedAt) > s.cfg.MaxAge
}

func (s *Service) recordLookup(ctx context.Context, featureType string, hit bool) {
	result := "miss"
	if hit {
		s.hits.Add(1)
		result = "hit"
	} else {
		s.misses.Add(1)
	}
	cacheLookups.Add(ctx, 1, metric.WithAttributes(
		attribute.String("feature_type", featureType),
		attribute.String("result", result),
	))
}

// Training resolves every request independently, in parallel, and returns
// the results in request order.
func (s *Service) Training(ctx context.Context, reqs []Request) TrainingResult {
	results := make([]Result, len(reqs))

	var g errgroup.Group
	g.SetLimit(s.cfg.TrainingConcurrency)
	for i, req := range reqs {
		g.Go(func() error {
			results[i] = s.Inference(ctx, req)
			return nil
		})
	}
	_ = g.Wait()

	out := TrainingResult{
		Results:        results,
		TotalRequested: len(reqs),
	}
	for _, r := range results {
		if r.Success {
			out.TotalSuccessful++
		}
	}
	return out
}

// Discovery lists the registered features. It never touches the cache.
func (s *Service) Discovery() []features.Definition {
	return s.registry.List()
}

// TriggerExtraction runs an extraction pass synchronously.
func (s *Service) TriggerExtraction(ctx context.Context, featureTypes ...string) (extractor.Summary, error) {
	if s.extractor == nil {
		return extractor.Summary{}, ErrExtractionUnavailable
	}
	return s.extractor.Run(ctx, featureTypes...)
}

// Stats reports cache effectiveness as seen by this process.
func (s *Service) Stats() Stats {
	st := Stats{
		CacheHits:   s.hits.Load(),
		CacheMisses: s.misses.Load(),
	}
	if total := st.CacheHits + st.CacheMisses; total > 0 {
		st.HitRate = float64(st.CacheHits) / float64(total)
	}
	if r, ok := s.store.(featurecache.StatsReporter); ok {
		l1 := r.L1Stats()
		st.L1 = &l1
	}
	return st
}
