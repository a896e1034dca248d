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

package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/cardinalhq/featurestore/config"
	"github.com/cardinalhq/featurestore/featuredb"
	"github.com/cardinalhq/featurestore/internal/dbopen"
	"github.com/cardinalhq/featurestore/internal/extractor"
	"github.com/cardinalhq/featurestore/internal/featurecache"
	"github.com/cardinalhq/featurestore/internal/features"
	"github.com/cardinalhq/featurestore/warehouse"
)

// app holds the components shared by serve and extract.
type app struct {
	cfg       *config.Config
	registry  *features.Registry
	warehouse *warehouse.Reader
	featuredb *featuredb.Store // nil when FEATUREDB_* is unset
	store     featurecache.Store
	engine    *features.Engine
	recorder  *extractor.DBRecorder // nil without featuredb
	extractor *extractor.Extractor
}

func openApp(ctx context.Context, cfg *config.Config) (*app, error) {
	a := &app{cfg: cfg, registry: features.DefaultRegistry()}
	slog.Info("Feature registry loaded", slog.Int("featureTypes", a.registry.Len()))

	wh, err := warehouse.Connect(ctx)
	if err != nil {
		return nil, err
	}
	a.warehouse = wh

	db, err := featuredb.FeatureDBStore(ctx)
	switch {
	case err == nil:
		a.featuredb = db
	case errors.Is(err, dbopen.ErrDatabaseNotConfigured) && !cfg.Cache.NeedsFeatureDB():
		slog.Info("featuredb not configured, extraction run history disabled")
	default:
		a.Close()
		return nil, err
	}

	var records featuredb.RecordQuerier
	if a.featuredb != nil {
		records = a.featuredb
	}
	store, err := featurecache.Open(ctx, cfg.Cache, records)
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("open feature cache: %w", err)
	}
	a.store = store
	slog.Info("Feature cache opened",
		slog.String("backend", cfg.Cache.Backend),
		slog.Uint64("l1Capacity", cfg.Cache.L1Capacity),
		slog.Duration("maxAge", cfg.Cache.MaxAge))

	a.engine = features.NewEngine(wh, cfg.Serving.ItemTimeout)

	var opts []extractor.Option
	if a.featuredb != nil {
		a.recorder = extractor.NewDBRecorder(a.featuredb, myInstanceID)
		opts = append(opts, extractor.WithRecorder(a.recorder))
	}
	a.extractor = extractor.New(a.registry, a.engine, a.store, cfg.Extract, opts...)
	return a, nil
}

// probes lists the dependency checks for the health server.
func (a *app) probes() map[string]func(context.Context) error {
	p := map[string]func(context.Context) error{
		"warehouse": a.warehouse.Ping,
	}
	if pinger, ok := a.store.(featurecache.Pinger); ok {
		p["cache"] = pinger.Ping
	}
	if a.featuredb != nil {
		p["featuredb"] = a.featuredb.Ping
	}
	return p
}

func (a *app) Close() {
	if a.store != nil {
		if err := a.store.Close(); err != nil {
			slog.Warn("Failed to close feature cache", slog.Any("error", err))
		}
	}
	if a.featuredb != nil {
		a.featuredb.Close()
	}
	if a.warehouse != nil {
		a.warehouse.Close()
	}
}
