/*******************************************************************************
The MIT License (MIT)

Copyright (c) 2019-2024 The fbclient-go Authors

Permission is hereby granted, free of charge, to any person obtaining a copy of
this software and associated documentation files (the "Software"), to deal in
the Software without restriction, including without limitation the rights to
use, copy, modify, merge, publish, distribute, sublicense, and/or sell copies of
the Software, and to permit persons to whom the Software is furnished to do so,
subject to the following conditions:

The above copyright notice and this permission notice shall be included in all
copies or substantial portions of the Software.

THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY, FITNESS
FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE AUTHORS OR
COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER LIABILITY, WHETHER
IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM, OUT OF OR IN
CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE SOFTWARE.
*******************************************************************************/

package fbclient

import (
	"bytes"
	"math"
	"reflect"
	"time"

	"github.com/shopspring/decimal"
)

// ARRAY columns travel as flat slices in row-major order; the shape lives in
// the schema descriptor, never in the data. The helpers below convert between
// the flat slice format and nested Go slices ([]interface{} per dimension).

// arrayElementSize is the byte size of one element inside the slice buffer.
// VARCHAR elements carry a two byte length prefix on top of the declared
// length.
func arrayElementSize(d *arrayDesc) int {
	switch d.dtype {
	case blr_varying, blr_varying2:
		return d.length + 2
	}
	return d.length
}

// validateArrayShape checks that value is a nested slice matching the array
// dimensions exactly. Arrays have no partial update protocol, so a value with
// the wrong shape can't be stored.
func validateArrayShape(d *arrayDesc, value interface{}) bool {
	return validateArrayDim(d.dimSizes(), 0, value)
}

func validateArrayDim(sizes []int, dim int, value interface{}) bool {
	rv := reflect.ValueOf(value)
	switch rv.Kind() {
	case reflect.Slice, reflect.Array:
	default:
		return false
	}
	if rv.Len() != sizes[dim] {
		return false
	}
	if dim == len(sizes)-1 {
		return true
	}
	for i := 0; i < rv.Len(); i++ {
		if !validateArrayDim(sizes, dim+1, rv.Index(i).Interface()) {
			return false
		}
	}
	return true
}

// packArraySlice flattens a nested Go value into the slice buffer format.
// subType is the declared field sub-type (numeric sub-type for integral
// dtypes, character set for textual ones).
func (m *marshaller) packArraySlice(d *arrayDesc, subType int, value interface{}) ([]byte, error) {
	esize := arrayElementSize(d)
	buf := make([]byte, esize*d.elementCount())
	if _, err := m.fillArrayDim(d, subType, d.dimSizes(), 0, reflect.ValueOf(value), buf, 0); err != nil {
		return nil, err
	}
	return buf, nil
}

func (m *marshaller) fillArrayDim(d *arrayDesc, subType int, sizes []int, dim int, rv reflect.Value, buf []byte, pos int) (int, error) {
	esize := arrayElementSize(d)
	if dim < len(sizes)-1 {
		for i := 0; i < rv.Len(); i++ {
			var err error
			pos, err = m.fillArrayDim(d, subType, sizes, dim+1, reflect.ValueOf(rv.Index(i).Interface()), buf, pos)
			if err != nil {
				return 0, err
			}
		}
		return pos, nil
	}
	for i := 0; i < rv.Len(); i++ {
		if err := m.encodeArrayElement(d, subType, buf[pos:pos+esize], rv.Index(i).Interface()); err != nil {
			return 0, err
		}
		pos += esize
	}
	return pos, nil
}

func (m *marshaller) encodeArrayElement(d *arrayDesc, subType int, buf []byte, value interface{}) error {
	switch d.dtype {
	case blr_text, blr_text2, blr_varying, blr_varying2:
		var data []byte
		switch v := value.(type) {
		case string:
			var err error
			if data, err = m.codec.encode(v); err != nil {
				return err
			}
		case []byte:
			data = v
		default:
			return newDataError("objects of type %T are not acceptable input for a textual ARRAY element", value)
		}
		if len(data) > len(buf) {
			return newDataError("ARRAY value of parameter is too long, expected %d, found %d", len(buf), len(data))
		}
		copy(buf, data)
		for i := len(data); i < len(buf); i++ {
			buf[i] = 0
		}
	case blr_short, blr_long, blr_int64, blr_quad:
		var v int64
		if subType != 0 || d.scale != 0 {
			scaled, err := scaledInteger(value, d.scale)
			if err != nil {
				return err
			}
			v = scaled.Int64()
		} else {
			iv, ok := toInt64(value)
			if !ok {
				return newDataError("objects of type %T are not acceptable input for an integral ARRAY element", value)
			}
			v = iv
		}
		putIntLE(buf, v)
	case blr_bool:
		b, ok := value.(bool)
		if !ok {
			return newDataError("objects of type %T are not acceptable input for a BOOLEAN ARRAY element", value)
		}
		buf[0] = 0
		if b {
			buf[0] = 1
		}
	case blr_float:
		f, ok := toFloat64(value)
		if !ok {
			return newDataError("objects of type %T are not acceptable input for a FLOAT ARRAY element", value)
		}
		putInt32(buf, int32(math.Float32bits(float32(f))))
	case blr_d_float, blr_double:
		f, ok := toFloat64(value)
		if !ok {
			return newDataError("objects of type %T are not acceptable input for a DOUBLE ARRAY element", value)
		}
		putInt64(buf, int64(math.Float64bits(f)))
	case blr_timestamp:
		t, ok := value.(time.Time)
		if !ok {
			return newDataError("objects of type %T are not acceptable input for a TIMESTAMP ARRAY element", value)
		}
		putInt32(buf, m.util.encodeDate(t.Year(), int(t.Month()), t.Day()))
		putInt32(buf[4:], int32(m.util.encodeTime(t.Hour(), t.Minute(), t.Second(), timeFractions(t))))
	case blr_sql_date:
		t, ok := value.(time.Time)
		if !ok {
			return newDataError("objects of type %T are not acceptable input for a DATE ARRAY element", value)
		}
		putInt32(buf, m.util.encodeDate(t.Year(), int(t.Month()), t.Day()))
	case blr_sql_time:
		t, ok := value.(time.Time)
		if !ok {
			return newDataError("objects of type %T are not acceptable input for a TIME ARRAY element", value)
		}
		putInt32(buf, int32(m.util.encodeTime(t.Hour(), t.Minute(), t.Second(), timeFractions(t))))
	default:
		return newInterfaceError("unsupported ARRAY element type: %d", d.dtype)
	}
	return nil
}

// unpackArraySlice rebuilds the nested Go value from a flat slice buffer.
func (m *marshaller) unpackArraySlice(d *arrayDesc, subType int, data []byte) (interface{}, error) {
	value, _, err := m.extractArrayDim(d, subType, d.dimSizes(), 0, data, 0)
	return value, err
}

func (m *marshaller) extractArrayDim(d *arrayDesc, subType int, sizes []int, dim int, data []byte, pos int) ([]interface{}, int, error) {
	value := make([]interface{}, 0, sizes[dim])
	if dim < len(sizes)-1 {
		for i := 0; i < sizes[dim]; i++ {
			sub, next, err := m.extractArrayDim(d, subType, sizes, dim+1, data, pos)
			if err != nil {
				return nil, 0, err
			}
			value = append(value, sub)
			pos = next
		}
		return value, pos, nil
	}
	esize := arrayElementSize(d)
	for i := 0; i < sizes[dim]; i++ {
		v, err := m.decodeArrayElement(d, subType, data[pos:pos+esize])
		if err != nil {
			return nil, 0, err
		}
		value = append(value, v)
		pos += esize
	}
	return value, pos, nil
}

func (m *marshaller) decodeArrayElement(d *arrayDesc, subType int, buf []byte) (interface{}, error) {
	switch d.dtype {
	case blr_text, blr_text2:
		if subType == charsetOctets {
			out := make([]byte, len(buf))
			copy(out, buf)
			return out, nil
		}
		s, err := m.codec.decode(buf)
		if err != nil {
			return nil, err
		}
		runes := []rune(s)
		if max := len(buf) / charLengthDivisor(subType); len(runes) > max {
			runes = runes[:max]
		}
		return string(runes), nil
	case blr_varying, blr_varying2:
		raw := buf
		if i := bytes.IndexByte(raw, 0); i >= 0 {
			raw = raw[:i]
		}
		if subType == charsetOctets {
			out := make([]byte, len(raw))
			copy(out, raw)
			return out, nil
		}
		return m.codec.decode(raw)
	case blr_short, blr_long, blr_int64, blr_quad:
		v := intLE(buf)
		if subType != 0 || d.scale != 0 {
			return decimal.New(v, int32(d.scale)), nil
		}
		return v, nil
	case blr_bool:
		return buf[0] == 1, nil
	case blr_float:
		return float64(math.Float32frombits(uint32(bytesToInt32(buf)))), nil
	case blr_d_float, blr_double:
		return math.Float64frombits(uint64(bytesToInt64(buf))), nil
	case blr_timestamp:
		y, mo, day := m.util.decodeDate(bytesToInt32(buf))
		h, mi, s, f := m.util.decodeTime(uint32(bytesToInt32(buf[4:])))
		return time.Date(y, time.Month(mo), day, h, mi, s, fractionNanos(f), time.UTC), nil
	case blr_sql_date:
		y, mo, day := m.util.decodeDate(bytesToInt32(buf))
		return time.Date(y, time.Month(mo), day, 0, 0, 0, 0, time.UTC), nil
	case blr_sql_time:
		h, mi, s, f := m.util.decodeTime(uint32(bytesToInt32(buf)))
		return time.Date(1, time.January, 1, h, mi, s, fractionNanos(f), time.UTC), nil
	}
	return nil, newInterfaceError("unsupported ARRAY element type: %d", d.dtype)
}
