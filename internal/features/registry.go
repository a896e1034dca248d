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
	"context"
	"fmt"
	"strconv"
	"strings"
)

// EntityKind names the kind of key a feature is indexed by.
type EntityKind string

const (
	EntityUser               EntityKind = "user_id"
	EntityQuote              EntityKind = "quote_id"
	EntityPolicy             EntityKind = "policy_id"
	EntityPaymentTransaction EntityKind = "payment_transaction_id"
)

func (k EntityKind) Valid() bool {
	switch k {
	case EntityUser, EntityQuote, EntityPolicy, EntityPaymentTransaction:
		return true
	}
	return false
}

// ComputeFunc computes one feature value for one entity.
type ComputeFunc func(ctx context.Context, src SourceReader, entityID int64) (Value, error)

// Definition describes a registered feature.
type Definition struct {
	FeatureType string      `json:"feature_type"`
	DisplayName string      `json:"name"`
	Description string      `json:"description"`
	EntityKind  EntityKind  `json:"entity_type"`
	DataType    DataType    `json:"data_type"`
	Compute     ComputeFunc `json:"-"`
}

// Registry maps feature type names to definitions. It is populated at
// startup and read without locking afterwards, so every Register call must
// happen before the registry is shared between goroutines.
type Registry struct {
	defs   map[string]Definition
	order  []string
	frozen bool
}

func NewRegistry() *Registry {
	return &Registry{defs: make(map[string]Definition)}
}

// Register adds def. It panics on an invalid or duplicate definition, or
// when called after Freeze.
func (r *Registry) Register(def Definition) {
	if r.frozen {
		panic(fmt.Sprintf("features: register %q after registry was frozen", def.FeatureType))
	}
	if strings.TrimSpace(def.FeatureType) == "" {
		panic("features: register definition with empty feature type")
	}
	if _, dup := r.defs[def.FeatureType]; dup {
		panic(fmt.Sprintf("features: duplicate feature type %q", def.FeatureType))
	}
	if !def.DataType.Valid() {
		panic(fmt.Sprintf("features: feature %q has unknown data type %q", def.FeatureType, def.DataType))
	}
	if !def.EntityKind.Valid() {
		panic(fmt.Sprintf("features: feature %q has unknown entity kind %q", def.FeatureType, def.EntityKind))
	}
	if def.Compute == nil {
		panic(fmt.Sprintf("features: feature %q has no computation", def.FeatureType))
	}
	r.defs[def.FeatureType] = def
	r.order = append(r.order, def.FeatureType)
}

// Freeze rejects any further registration.
func (r *Registry) Freeze() {
	r.frozen = true
}

func (r *Registry) Lookup(featureType string) (Definition, bool) {
	def, ok := r.defs[featureType]
	return def, ok
}

// List returns every definition in registration order.
func (r *Registry) List() []Definition {
	out := make([]Definition, 0, len(r.order))
	for _, name := range r.order {
		out = append(out, r.defs[name])
	}
	return out
}

func (r *Registry) Len() int {
	return len(r.order)
}

// ParseEntityID converts an API entity id into a warehouse key.
func ParseEntityID(entityID string) (int64, error) {
	id, err := strconv.ParseInt(strings.TrimSpace(entityID), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrInvalidEntityID, entityID)
	}
	return id, nil
}
