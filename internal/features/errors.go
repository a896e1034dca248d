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
	"errors"
	"fmt"
)

var (
	// ErrUnknownFeatureType means the feature type is not registered.
	ErrUnknownFeatureType = errors.New("unknown feature type")
	// ErrInvalidEntityID means the entity id cannot address a warehouse row.
	ErrInvalidEntityID = errors.New("invalid entity id")

	ErrEntityNotFound     = errors.New("entity not found")
	ErrNotApplicable      = errors.New("feature not applicable")
	ErrComputationTimeout = errors.New("computation timed out")
)

// ComputationError wraps an unexpected fault raised while reading source data.
type ComputationError struct {
	FeatureType string
	EntityID    string
	Err         error
}

func (e *ComputationError) Error() string {
	return fmt.Sprintf("computing %s for entity %s: %v", e.FeatureType, e.EntityID, e.Err)
}

func (e *ComputationError) Unwrap() error {
	return e.Err
}

// IsValidation reports whether err rejects the request itself rather than
// describing a failed computation.
func IsValidation(err error) bool {
	return errors.Is(err, ErrUnknownFeatureType) || errors.Is(err, ErrInvalidEntityID)
}

// Reason returns the short failure reason reported to callers.
func Reason(err error) string {
	if err == nil {
		return ""
	}
	for _, sentinel := range []error{
		ErrUnknownFeatureType,
		ErrInvalidEntityID,
		ErrEntityNotFound,
		ErrNotApplicable,
		ErrComputationTimeout,
	} {
		if errors.Is(err, sentinel) {
			return sentinel.Error()
		}
	}
	var ce *ComputationError
	if errors.As(err, &ce) {
		return "computation failed: " + ce.Err.Error()
	}
	return err.Error()
}
