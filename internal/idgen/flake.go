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

package idgen

import (
	"encoding/base32"
	"encoding/binary"
	"errors"
	"hash/fnv"
	"log/slog"
	"math/rand/v2"
	"os"
	"strings"
	"time"

	"github.com/sony/sonyflake"
)

// DefaultFlakeGenerator identifies this process. Each serve or extract
// process takes one ID from it at startup and stamps it on the extraction
// runs it records.
var DefaultFlakeGenerator *SonyFlakeGenerator

func init() {
	var err error
	DefaultFlakeGenerator, err = newFlakeGenerator()
	if err != nil {
		slog.Warn("Sonyflake unavailable, falling back to random IDs", slog.Any("error", err))
		DefaultFlakeGenerator = &SonyFlakeGenerator{}
	}
}

// SonyFlakeGenerator issues time-ordered IDs. The zero value issues random
// IDs instead.
type SonyFlakeGenerator struct {
	sf *sonyflake.Sonyflake
}

// newFlakeGenerator tries each machine ID source in turn. A nil source is
// sonyflake's default, the lower 16 bits of the private IPv4 address. With
// no sources given it tries the default and then the hostname.
func newFlakeGenerator(machineIDs ...func() (uint16, error)) (*SonyFlakeGenerator, error) {
	if len(machineIDs) == 0 {
		machineIDs = []func() (uint16, error){nil, hostnameMachineID}
	}
	var errs []error
	for _, machineID := range machineIDs {
		sf, err := sonyflake.New(sonyflake.Settings{
			StartTime: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
			MachineID: machineID,
		})
		if err == nil && sf != nil {
			return &SonyFlakeGenerator{sf: sf}, nil
		}
		if err == nil {
			err = errors.New("failed to create Sonyflake instance")
		}
		errs = append(errs, err)
	}
	return nil, errors.Join(errs...)
}

// hostnameMachineID derives a machine ID for hosts without a private IPv4
// address, such as loopback-only containers.
func hostnameMachineID() (uint16, error) {
	host, err := os.Hostname()
	if err != nil || host == "" {
		return uint16(rand.Uint32()), nil
	}
	h := fnv.New32a()
	_, _ = h.Write([]byte(host))
	return uint16(h.Sum32()), nil
}

// NextID returns a positive int64 that increases roughly in time order.
func (g *SonyFlakeGenerator) NextID() int64 {
	if g.sf == nil {
		return rand.Int64()
	}
	v, err := g.sf.NextID()
	if err != nil {
		return rand.Int64()
	}
	return int64(v)
}

var base32NoPad = base32.StdEncoding.WithPadding(base32.NoPadding)

// NextBase32ID is NextID rendered as lowercase unpadded base32.
func (g *SonyFlakeGenerator) NextBase32ID() string {
	var b [8]byte
	binary.BigEndian.PutUint64(b[:], uint64(g.NextID()))
	return strings.ToLower(base32NoPad.EncodeToString(b[:]))
}

// InstanceID returns a fresh ID for a starting process.
func InstanceID() int64 {
	return DefaultFlakeGenerator.NextID()
}
