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

package config

import (
	"fmt"
	"reflect"
	"strings"

	"github.com/spf13/viper"

	"github.com/cardinalhq/featurestore/internal/extractor"
	"github.com/cardinalhq/featurestore/internal/featurecache"
	"github.com/cardinalhq/featurestore/internal/serving"
)

// Config aggregates configuration for the application.
// Each section is owned by its respective package.
type Config struct {
	Server  ServerConfig        `mapstructure:"server"`
	Cache   featurecache.Config `mapstructure:"cache"`
	Serving serving.Config      `mapstructure:"serving"`
	Extract extractor.Config    `mapstructure:"extract"`
}

type ServerConfig struct {
	Addr string `mapstructure:"addr"`
}

// Load reads configuration from config.yaml in the working directory and
// from environment variables. Environment variables use the prefix
// "FEATURESTORE" and the dot character in keys is replaced by an
// underscore, so "cache.backend" becomes "FEATURESTORE_CACHE_BACKEND".
func Load() (*Config, error) {
	cfg := &Config{
		Server:  ServerConfig{Addr: DefaultServerAddr},
		Cache:   featurecache.DefaultConfig(),
		Serving: serving.DefaultConfig(),
		Extract: extractor.DefaultConfig(),
	}

	v := viper.New()
	v.SetConfigName("config")
	v.AddConfigPath(".")
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	bindEnvs(v, cfg)
	_ = v.ReadInConfig()

	if err := v.Unmarshal(cfg); err != nil {
		return nil, err
	}
	// Staleness is configured once, as cache.max_age, but enforced by the
	// serving layer; serving.Config.MaxAge is not read from config itself.
	cfg.Serving.MaxAge = cfg.Cache.MaxAge

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects settings the process cannot start with.
func (c *Config) Validate() error {
	switch c.Cache.Backend {
	case featurecache.BackendMemory, featurecache.BackendPostgres, featurecache.BackendRedis:
	default:
		return fmt.Errorf("cache.backend must be one of memory, postgres, redis; got %q", c.Cache.Backend)
	}
	if c.Cache.MaxAge < 0 {
		return fmt.Errorf("cache.max_age must not be negative")
	}
	if c.Serving.ItemTimeout <= 0 {
		return fmt.Errorf("serving.item_timeout must be positive")
	}
	if c.Extract.Interval < 0 {
		return fmt.Errorf("extract.interval must not be negative")
	}
	return nil
}

// bindEnvs registers all keys within cfg so that viper will look up
// corresponding environment variables when unmarshalling.
func bindEnvs(v *viper.Viper, cfg any, parts ...string) {
	val := reflect.ValueOf(cfg)
	typ := reflect.TypeOf(cfg)
	if typ.Kind() == reflect.Ptr {
		val = val.Elem()
		typ = typ.Elem()
	}
	for i := 0; i < typ.NumField(); i++ {
		f := typ.Field(i)
		tag := f.Tag.Get("mapstructure")
		if tag == "-" {
			continue
		}
		if tag == "" {
			tag = strings.ToLower(f.Name)
		}
		key := append(parts, tag)
		if f.Type.Kind() == reflect.Struct {
			bindEnvs(v, val.Field(i).Interface(), key...)
			continue
		}
		_ = v.BindEnv(strings.Join(key, "."))
	}
}
