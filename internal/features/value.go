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
	"bytes"
	"encoding/json"
	"fmt"
	"time"
)

// DataType is the output type of a feature.
type DataType string

const (
	DataTypeDatetime DataType = "datetime"
	DataTypeInteger  DataType = "integer"
	DataTypeString   DataType = "string"
	DataTypeFloat    DataType = "float"
)

func (d DataType) Valid() bool {
	switch d {
	case DataTypeDatetime, DataTypeInteger, DataTypeString, DataTypeFloat:
		return true
	}
	return false
}

// Value is a computed feature value tagged with its data type.
// The zero Value has no type and represents "absent".
type Value struct {
	typ DataType
	t   time.Time
	i   int64
	s   string
	f   float64
}

// TimeValue returns a datetime value normalized to UTC.
func TimeValue(t time.Time) Value {
	return Value{typ: DataTypeDatetime, t: t.UTC().Round(0)}
}

func IntValue(i int64) Value {
	return Value{typ: DataTypeInteger, i: i}
}

func StringValue(s string) Value {
	return Value{typ: DataTypeString, s: s}
}

func FloatValue(f float64) Value {
	return Value{typ: DataTypeFloat, f: f}
}

func (v Value) Type() DataType  { return v.typ }
func (v Value) IsZero() bool    { return v.typ == "" }
func (v Value) Time() time.Time { return v.t }
func (v Value) Int() int64      { return v.i }
func (v Value) Text() string    { return v.s }
func (v Value) Float() float64  { return v.f }

// Equal compares type and payload; datetimes compare as instants.
func (v Value) Equal(o Value) bool {
	if v.typ != o.typ {
		return false
	}
	switch v.typ {
	case DataTypeDatetime:
		return v.t.Equal(o.t)
	case DataTypeInteger:
		return v.i == o.i
	case DataTypeString:
		return v.s == o.s
	case DataTypeFloat:
		return v.f == o.f
	}
	return true
}

// Any returns the payload as a plain Go value; datetimes are returned as time.Time.
func (v Value) Any() any {
	switch v.typ {
	case DataTypeDatetime:
		return v.t
	case DataTypeInteger:
		return v.i
	case DataTypeString:
		return v.s
	case DataTypeFloat:
		return v.f
	}
	return nil
}

// MarshalJSON encodes datetimes as RFC 3339 strings and everything else as
// the natural JSON scalar. The absent value encodes as null.
func (v Value) MarshalJSON() ([]byte, error) {
	switch v.typ {
	case DataTypeDatetime:
		return json.Marshal(v.t.Format(time.RFC3339Nano))
	case DataTypeInteger:
		return json.Marshal(v.i)
	case DataTypeString:
		return json.Marshal(v.s)
	case DataTypeFloat:
		return json.Marshal(v.f)
	case "":
		return []byte("null"), nil
	}
	return nil, fmt.Errorf("unknown data type %q", v.typ)
}

// DecodeValue is the inverse of MarshalJSON for a known data type.
func DecodeValue(dt DataType, raw []byte) (Value, error) {
	if len(bytes.TrimSpace(raw)) == 0 || bytes.Equal(bytes.TrimSpace(raw), []byte("null")) {
		return Value{}, fmt.Errorf("decode %s value: empty payload", dt)
	}
	switch dt {
	case DataTypeDatetime:
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return Value{}, fmt.Errorf("decode datetime value: %w", err)
		}
		t, err := time.Parse(time.RFC3339Nano, s)
		if err != nil {
			return Value{}, fmt.Errorf("decode datetime value: %w", err)
		}
		return TimeValue(t), nil
	case DataTypeInteger:
		var i int64
		if err := json.Unmarshal(raw, &i); err != nil {
			return Value{}, fmt.Errorf("decode integer value: %w", err)
		}
		return IntValue(i), nil
	case DataTypeString:
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return Value{}, fmt.Errorf("decode string value: %w", err)
		}
		return StringValue(s), nil
	case DataTypeFloat:
		var f float64
		if err := json.Unmarshal(raw, &f); err != nil {
			return Value{}, fmt.Errorf("decode float value: %w", err)
		}
		return FloatValue(f), nil
	}
	return Value{}, fmt.Errorf("unknown data type %q", dt)
}
