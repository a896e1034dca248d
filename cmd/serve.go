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
	"fmt"
	"log/slog"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/cardinalhq/featurestore/config"
	"github.com/cardinalhq/featurestore/internal/extractor"
	"github.com/cardinalhq/featurestore/internal/featureapi"
	"github.com/cardinalhq/featurestore/internal/healthcheck"
	"github.com/cardinalhq/featurestore/internal/serving"
)

const probeInterval = 15 * time.Second

func init() {
	rootCmd.AddCommand(&cobra.Command{
		Use:   "serve",
		Short: "Serve the feature API",
		Long: `Serve the feature API, the health endpoints and, when extract.interval is
set, periodic batch extraction.`,
		RunE: func(_ *cobra.Command, _ []string) error {
			return runServe()
		},
	})
}

func runServe() error {
	doneCtx, doneFx, err := setupTelemetry(config.ServiceNameServe)
	if err != nil {
		return fmt.Errorf("failed to setup telemetry: %w", err)
	}
	defer shutdownTelemetry(doneFx)

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	healthServer := healthcheck.NewServer(healthcheck.GetConfigFromEnv())
	go func() {
		if err := healthServer.Start(doneCtx); err != nil {
			slog.Error("Health check server stopped", slog.Any("error", err))
		}
	}()

	a, err := openApp(doneCtx, cfg)
	if err != nil {
		healthServer.SetStatus(healthcheck.StatusUnhealthy)
		return err
	}
	defer a.Close()

	for name, probe := range a.probes() {
		healthServer.AddProbe(name, probe)
	}

	svc := serving.New(a.registry, a.engine, a.store, a.extractor, cfg.Serving)

	var runs featureapi.RunHistory
	if a.recorder != nil {
		runs = a.recorder
	}
	gin.SetMode(gin.ReleaseMode)
	api := featureapi.NewServer(cfg.Server.Addr, featureapi.NewHandler(svc, runs).Router())

	g, ctx := errgroup.WithContext(doneCtx)
	g.Go(func() error {
		healthServer.WatchProbes(ctx, probeInterval)
		return nil
	})
	g.Go(func() error {
		return api.Run(ctx)
	})
	g.Go(func() error {
		return extractor.NewScheduler(a.extractor, cfg.Extract.Interval).Run(ctx)
	})

	healthServer.SetStatus(healthcheck.StatusHealthy)
	healthServer.SetReady(true)

	return g.Wait()
}
