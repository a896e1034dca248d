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
	"context"
	"log/slog"
	"time"

	"github.com/cardinalhq/featurestore/internal/logctx"
)

// Scheduler triggers a full extraction every interval until its context ends.
type Scheduler struct {
	x        *Extractor
	interval time.Duration
}

func NewScheduler(x *Extractor, interval time.Duration) *Scheduler {
	return &Scheduler{x: x, interval: interval}
}

// Run blocks until ctx is done. A non-positive interval disables it.
// Failed passes are logged and the schedule continues.
func (s *Scheduler) Run(ctx context.Context) error {
	ll := logctx.FromContext(ctx)
	if s.interval <= 0 {
		ll.Info("Scheduled extraction disabled")
		return nil
	}
	ll.Info("Scheduled extraction enabled", slog.Duration("interval", s.interval))

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			// Errors are already logged by Run.
			_, _ = s.x.Run(ctx)
		}
	}
}
