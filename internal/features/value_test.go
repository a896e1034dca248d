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
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValueJSON(t *testing.T) {
	ts := time.Date(2025, 1, 1, 0, 5, 30, 0, time.FixedZone("EST", -5*3600))

	tests := []struct {
		name string
		v    Value
		want string
	}{
		{"datetime normalized to UTC", TimeValue(ts), `"2025-01-01T05:05:30Z"`},
		{"integer", IntValue(330), `330`},
		{"negative integer", IntValue(-12), `-12`},
		{"string", StringValue("credit_card"), `"credit_card"`},
		{"float", FloatValue(0.25), `0.25`},
		{"absent", Value{}, `null`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b, err := json.Marshal(tt.v)
			require.NoError(t, err)
			assert.JSONEq(t, tt.want, string(b))

			if tt.v.IsZero() {
				return
			}
			back, err := DecodeValue(tt.v.Type(), b)
			require.NoError(t, err)
			assert.True(t, tt.v.Equal(back), "decoded %v, want %v", back.Any(), tt.v.Any())
		})
	}
}

func TestDecodeValueErrors(t *testing.T) {
	_, err := DecodeValue(DataTypeInteger, []byte(`"x"`))
	assert.Error(t, err)
	_, err = DecodeValue(DataTypeDatetime, []byte(`"yesterday"`))
	assert.Error(t, err)
	_, err = DecodeValue(DataTypeString, []byte(`null`))
	assert.Error(t, err)
	_, err = DecodeValue("blob", []byte(`1`))
	assert.Error(t, err)
}

func TestValueEqual(t *testing.T) {
	a := TimeValue(time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC))
	b := TimeValue(time.Date(2025, 3, 1, 7, 0, 0, 0, time.FixedZone("X", -5*3600)))
	assert.True(t, a.Equal(b))
	assert.False(t, IntValue(1).Equal(FloatValue(1)))
	assert.False(t, StringValue("a").Equal(StringValue("b")))
}
