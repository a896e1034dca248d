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

package featurecache

import (
	"context"
	"fmt"
	"time"

	"github.com/cardinalhq/featurestore/featuredb"
)

const (
	BackendMemory   = "memory"
	BackendPostgres = "postgres"
	BackendRedis    = "redis"
)

// Config selects and tunes the cache backend.
type Config struct {
	Backend       string        `mapstructure:"backend"`
	L1Capacity    uint64        `mapstructure:"l1_capacity"`
	L1TTL         time.Duration `mapstructure:"l1_ttl"`
	MaxAge        time.Duration `mapstructure:"max_age"`
	RedisAddr     string        `mapstructure:"redis_addr"`
	RedisPassword string        `mapstructure:"redis_password"`
	RedisDB       int           `mapstructure:"redis_db"`
	RedisPrefix   string        `mapstructure:"redis_prefix"`
}

func DefaultConfig() Config {
	return Config{
		Backend:    BackendMemory,
		L1Capacity: 10_000,
		L1TTL:      5 * time.Minute,
		RedisAddr:  "localhost:6379",
	}
}

// Pinger is implemented by backends that can report reachability.
type Pinger interface {
	Ping(ctx context.Context) error
}

// NeedsFeatureDB reports whether Open requires a featuredb querier.
func (c Config) NeedsFeatureDB() bool {
	return c.Backend == BackendPostgres
}

// Open builds the configured backend. Remote backends are wrapped in a
// Tiered L1 when L1Capacity is positive.
func Open(ctx context.Context, cfg Config, db featuredb.RecordQuerier) (Store, error) {
	var remote Store
	switch cfg.Backend {
	case "", BackendMemory:
		return NewMemoryStore(), nil
	case BackendPostgres:
		if db == nil {
			return nil, fmt.Errorf("cache backend %q requires featuredb", cfg.Backend)
		}
		remote = NewPostgresStore(db)
	case BackendRedis:
		client, err := DialRedis(ctx, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
		if err != nil {
			return nil, err
		}
		remote = NewRedisStore(client, cfg.RedisPrefix)
	default:
		return nil, fmt.Errorf("unknown cache backend %q", cfg.Backend)
	}

	if cfg.L1Capacity == 0 {
		return remote, nil
	}
	ttl := cfg.L1TTL
	if ttl <= 0 {
		ttl = DefaultConfig().L1TTL
	}
	return NewTiered(remote, cfg.L1Capacity, ttl), nil
}
