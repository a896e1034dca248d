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
	"time"

	"github.com/google/uuid"
)

// TypeSummary tallies one feature type within a run.
type TypeSummary struct {
	Attempted      int            `json:"attempted"`
	Succeeded      int            `json:"succeeded"`
	Failed         int            `json:"failed"`
	FailureReasons map[string]int `json:"failure_reasons,omitempty"`
}

func (t *TypeSummary) add(reason string) {
	t.Attempted++
	if reason == "" {
		t.Succeeded++
		return
	}
	t.Failed++
	if t.FailureReasons == nil {
		t.FailureReasons = map[string]int{}
	}
	t.FailureReasons[reason]++
}

// Summary is the result of one extraction pass.
type Summary struct {
	RunID          uuid.UUID               `json:"run_id"`
	StartedAt      time.Time               `json:"started_at"`
	FinishedAt     time.Time               `json:"finished_at"`
	Types          map[string]*TypeSummary `json:"feature_types"`
	TotalSucceeded int                     `json:"total_features"`
}

// Extracted maps each feature type to its number of stored records.
func (s Summary) Extracted() map[string]int {
	out := make(map[string]int, len(s.Types))
	for ft, ts := range s.Types {
		out[ft] = ts.Succeeded
	}
	return out
}

// Failures maps each feature type to its number of failed items.
func (s Summary) Failures() map[string]int {
	out := make(map[string]int, len(s.Types))
	for ft, ts := range s.Types {
		out[ft] = ts.Failed
	}
	return out
}

func (s Summary) TotalFailed() int {
	n := 0
	for _, ts := range s.Types {
		n += ts.Failed
	}
	return n
}

// Status classifies the run for history: failed when the pass was cut
// short, partial when some items failed, succeeded otherwise.
func (s Summary) Status(runErr error) string {
	switch {
	case runErr != nil:
		return "failed"
	case s.TotalFailed() > 0:
		return "partial"
	}
	return "succeeded"
}
