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

package migrations

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

type CheckMode int

const (
	// CheckModeWait polls until the schema reaches the expected version or the timeout passes.
	CheckModeWait CheckMode = iota
	// CheckModeWarn logs a version mismatch and continues.
	CheckModeWarn
	// CheckModeSkip disables the check.
	CheckModeSkip
)

type CheckOptions struct {
	Mode          CheckMode
	Timeout       time.Duration
	RetryInterval time.Duration
	AllowDirty    bool
}

type CheckOption func(*CheckOptions)

func WithCheckMode(mode CheckMode) CheckOption {
	return func(o *CheckOptions) { o.Mode = mode }
}

func WithTimeout(d time.Duration) CheckOption {
	return func(o *CheckOptions) { o.Timeout = d }
}

func WithRetryInterval(d time.Duration) CheckOption {
	return func(o *CheckOptions) { o.RetryInterval = d }
}

func DefaultCheckOptions() CheckOptions {
	return CheckOptions{
		Mode:          CheckModeWait,
		Timeout:       60 * time.Second,
		RetryInterval: 2 * time.Second,
	}
}

// optionsFromEnv applies FEATUREDB_MIGRATION_CHECK and MIGRATION_CHECK_* overrides.
func optionsFromEnv(opts CheckOptions) CheckOptions {
	switch strings.ToLower(os.Getenv("FEATUREDB_MIGRATION_CHECK")) {
	case "skip", "false":
		opts.Mode = CheckModeSkip
	case "warn":
		opts.Mode = CheckModeWarn
	case "wait":
		opts.Mode = CheckModeWait
	}
	if d, err := time.ParseDuration(os.Getenv("MIGRATION_CHECK_TIMEOUT")); err == nil {
		opts.Timeout = d
	}
	if d, err := time.ParseDuration(os.Getenv("MIGRATION_CHECK_RETRY_INTERVAL")); err == nil {
		opts.RetryInterval = d
	}
	if v := os.Getenv("MIGRATION_CHECK_ALLOW_DIRTY"); v != "" {
		opts.AllowDirty = strings.EqualFold(v, "true")
	}
	return opts
}

// LatestVersion is the highest migration version embedded in the binary.
func LatestVersion() (uint, error) {
	return latestVersion(migrationFiles)
}

func latestVersion(fsys fs.ReadDirFS) (uint, error) {
	entries, err := fsys.ReadDir(".")
	if err != nil {
		return 0, fmt.Errorf("failed to read migration directory: %w", err)
	}
	var maxVersion uint
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasSuffix(name, ".up.sql") {
			continue
		}
		prefix, _, _ := strings.Cut(name, "_")
		v, err := strconv.ParseUint(prefix, 10, 64)
		if err != nil {
			continue
		}
		maxVersion = max(maxVersion, uint(v))
	}
	if maxVersion == 0 {
		return 0, fmt.Errorf("no valid migration files found")
	}
	return maxVersion, nil
}

// CheckVersion verifies the featuredb schema matches this binary.
func CheckVersion(ctx context.Context, pool *pgxpool.Pool, options ...CheckOption) error {
	opts := DefaultCheckOptions()
	for _, o := range options {
		o(&opts)
	}
	opts = optionsFromEnv(opts)
	if opts.Mode == CheckModeSkip {
		slog.Debug("featuredb migration check skipped")
		return nil
	}

	expected, err := LatestVersion()
	if err != nil {
		return err
	}

	deadline := time.Now().Add(opts.Timeout)
	ticker := time.NewTicker(opts.RetryInterval)
	defer ticker.Stop()

	for {
		current, dirty, err := currentVersion(pool)
		if err != nil {
			return fmt.Errorf("failed to get featuredb migration version: %w", err)
		}
		if dirty && !opts.AllowDirty {
			if opts.Mode != CheckModeWarn {
				return fmt.Errorf("featuredb migration is in dirty state, please fix before proceeding")
			}
			slog.Warn("featuredb migration is dirty, continuing anyway")
		}
		switch {
		case current == expected:
			return nil
		case current > expected:
			if opts.Mode == CheckModeWarn {
				slog.Warn("featuredb schema is newer than this binary",
					slog.Uint64("current_version", uint64(current)),
					slog.Uint64("expected_version", uint64(expected)))
				return nil
			}
			return fmt.Errorf("featuredb version %d is newer than expected version %d", current, expected)
		case opts.Mode == CheckModeWarn:
			slog.Warn("featuredb schema is older than expected, run `featurestore migrate`",
				slog.Uint64("current_version", uint64(current)),
				slog.Uint64("expected_version", uint64(expected)))
			return nil
		}

		if time.Now().After(deadline) {
			return fmt.Errorf("featuredb version %d did not reach %d within %s", current, expected, opts.Timeout)
		}
		slog.Info("Waiting for featuredb migrations",
			slog.Uint64("current_version", uint64(current)),
			slog.Uint64("expected_version", uint64(expected)),
			slog.Duration("remaining_timeout", time.Until(deadline)))

		select {
		case <-ctx.Done():
			return fmt.Errorf("context cancelled while waiting for featuredb migrations: %w", ctx.Err())
		case <-ticker.C:
		}
	}
}
