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
	"fmt"
	"log/slog"
	"time"

	"github.com/spf13/cobra"

	"github.com/cardinalhq/featurestore/featuredb/migrations"
	"github.com/cardinalhq/featurestore/internal/dbopen"
)

func init() {
	rootCmd.AddCommand(&cobra.Command{
		Use:   "migrate",
		Short: "Apply featuredb migrations",
		Long:  "Apply pending featuredb schema migrations. The database is located with the FEATUREDB_* environment variables.",
		RunE: func(c *cobra.Command, _ []string) error {
			return migrate(c.Context())
		},
	})
}

func migrate(parent context.Context) error {
	if parent == nil {
		parent = context.Background()
	}
	ctx, cancel := context.WithTimeout(parent, 5*time.Minute)
	defer cancel()

	// The version check is what migrate fixes, so connect without it.
	pool, err := dbopen.ConnectFromEnv(ctx, "FEATUREDB")
	if err != nil {
		return fmt.Errorf("failed to connect to featuredb: %w", err)
	}
	defer pool.Close()

	slog.Info("Running featuredb migrations")
	if err := migrations.RunMigrationsUp(ctx, pool); err != nil {
		return fmt.Errorf("failed to migrate featuredb: %w", err)
	}
	slog.Info("featuredb migrations completed successfully")
	return nil
}
