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
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/cardinalhq/featurestore/config"
	"github.com/cardinalhq/featurestore/internal/extractor"
	"github.com/cardinalhq/featurestore/internal/featurecache"
)

func init() {
	var featureTypes []string
	extractCmd := &cobra.Command{
		Use:   "extract",
		Short: "Run one batch extraction pass",
		Long: `Compute every entity of the selected feature types (all registered types by
default), store the results in the feature cache, and print the run summary
as JSON.`,
		RunE: func(_ *cobra.Command, _ []string) error {
			return runExtract(featureTypes)
		},
	}
	extractCmd.Flags().StringSliceVar(&featureTypes, "feature-type", nil, "Feature type to extract (repeatable)")
	rootCmd.AddCommand(extractCmd)
}

func runExtract(featureTypes []string) error {
	doneCtx, doneFx, err := setupTelemetry(config.ServiceNameExtract)
	if err != nil {
		return fmt.Errorf("failed to setup telemetry: %w", err)
	}
	defer shutdownTelemetry(doneFx)

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	if cfg.Cache.Backend == featurecache.BackendMemory {
		slog.Warn("Extracting into the in-memory cache; results are discarded when the command exits")
	}

	a, err := openApp(doneCtx, cfg)
	if err != nil {
		return err
	}
	defer a.Close()

	summary, runErr := a.extractor.Run(doneCtx, featureTypes...)
	if err := printSummary(os.Stdout, summary); err != nil {
		return err
	}
	return runErr
}

func printSummary(w io.Writer, summary extractor.Summary) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(summary)
}
