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
	"math"
	"math/big"
	"time"

	"github.com/shopspring/decimal"
)

// marshaller converts between Go values and the native message buffer
// representation of scalar SQL types. BLOB and ARRAY columns need server
// round trips and are handled by the cursor, not here.
//
// Fixed-point values are scaled by 10^|scale| with round-half-even before
// storage, so repeated round trips never drift.
type marshaller struct {
	util    utilIntf
	codec   *textCodec
	dialect int
}

const (
	minInt16 = math.MinInt16
	maxInt16 = math.MaxInt16
	minInt32 = math.MinInt32
	maxInt32 = math.MaxInt32
)

// checkIntegerRange validates a scaled integer against its storage width.
// The error message names the external SQL type, the scale and the legal
// range; it guards against silent truncation.
func checkIntegerRange(value *big.Int, dialect, sqlType, subType, scale int) error {
	var vmin, vmax *big.Int
	switch sqlType {
	case SQL_TYPE_SHORT:
		vmin, vmax = big.NewInt(minInt16), big.NewInt(maxInt16)
	case SQL_TYPE_LONG:
		vmin, vmax = big.NewInt(minInt32), big.NewInt(maxInt32)
	case SQL_TYPE_INT64:
		vmin, vmax = big.NewInt(math.MinInt64), big.NewInt(math.MaxInt64)
	case SQL_TYPE_INT128:
		vmin, vmax = int128Min, int128Max
	default:
		return nil
	}
	if value.Cmp(vmin) < 0 || value.Cmp(vmax) > 0 {
		return newDataError(
			"numeric overflow: value %s (%s scaled for %d decimal places) is of too great a magnitude to fit into its internal storage type %s, which has range [%s,%s].",
			value.String(),
			externalTypeName(dialect, sqlType, subType, scale),
			scale,
			internalTypeName(sqlType),
			vmin.String(), vmax.String())
	}
	return nil
}

// scaledInteger converts a numeric Go value into the integer obtained by
// shifting the decimal point |scale| places right, rounding half to even.
func scaledInteger(value interface{}, scale int) (*big.Int, error) {
	var d decimal.Decimal
	switch v := value.(type) {
	case decimal.Decimal:
		d = v
	case *decimal.Decimal:
		d = *v
	case int:
		d = decimal.New(int64(v), 0)
	case int16:
		d = decimal.New(int64(v), 0)
	case int32:
		d = decimal.New(int64(v), 0)
	case int64:
		d = decimal.New(v, 0)
	case float32:
		d = decimal.NewFromFloat(float64(v))
	case float64:
		d = decimal.NewFromFloat(v)
	case string:
		var err error
		if d, err = decimal.NewFromString(v); err != nil {
			return nil, newDataError("cannot convert %q to a fixed-point value", v)
		}
	default:
		return nil, newDataError("objects of type %T are not acceptable input for a fixed-point column", value)
	}
	if scale < 0 {
		scale = -scale
	}
	return d.Shift(int32(scale)).RoundBank(0).BigInt(), nil
}

func toInt64(value interface{}) (int64, bool) {
	switch v := value.(type) {
	case int:
		return int64(v), true
	case int8:
		return int64(v), true
	case int16:
		return int64(v), true
	case int32:
		return int64(v), true
	case int64:
		return v, true
	case uint8:
		return int64(v), true
	case uint16:
		return int64(v), true
	case uint32:
		return int64(v), true
	case bool:
		if v {
			return 1, true
		}
		return 0, true
	}
	return 0, false
}

func toFloat64(value interface{}) (float64, bool) {
	switch v := value.(type) {
	case float32:
		return float64(v), true
	case float64:
		return v, true
	case decimal.Decimal:
		f, _ := v.Float64()
		return f, true
	}
	if i, ok := toInt64(value); ok {
		return float64(i), true
	}
	return 0, false
}

// timeFractions converts nanoseconds to the native 1/10000 second unit.
func timeFractions(t time.Time) int {
	return t.Nanosecond() / (1e9 / iscTimeSecondsPrecision)
}

// encodeTextValue produces the connection-charset bytes of a text parameter.
func (m *marshaller) encodeTextValue(value interface{}) ([]byte, error) {
	switch v := value.(type) {
	case string:
		return m.codec.encode(v)
	case []byte:
		return v, nil
	}
	return nil, newDataError("objects of type %T are not acceptable input for a text column", value)
}

// encodeScalar writes one parameter value into the message buffer at the
// field's offset. The null indicator is managed by the caller.
func (m *marshaller) encodeScalar(buf []byte, d *fieldDesc, index int, value interface{}) error {
	dest := buf[d.offset : d.offset+d.length]
	switch d.sqlType {
	case SQL_TYPE_TEXT, SQL_TYPE_VARYING:
		data, err := m.encodeTextValue(value)
		if err != nil {
			return err
		}
		if d.sqlType == SQL_TYPE_TEXT {
			if len(data) > d.length {
				return newDataError("value of parameter (%d) is too long, expected %d, found %d",
					index, d.length, len(data))
			}
			copy(dest, data)
		} else {
			if len(data) > d.length-2 {
				return newDataError("value of parameter (%d) is too long, expected %d, found %d",
					index, d.length-2, len(data))
			}
			putInt16(dest, int16(len(data)))
			copy(dest[2:], data)
		}
	case SQL_TYPE_SHORT, SQL_TYPE_LONG, SQL_TYPE_INT64:
		if d.subType != 0 || d.scale != 0 {
			scaled, err := scaledInteger(value, d.scale)
			if err != nil {
				return err
			}
			if err := checkIntegerRange(scaled, m.dialect, d.sqlType, d.subType, d.scale); err != nil {
				return err
			}
			putIntLE(dest, scaled.Int64())
			return nil
		}
		i, ok := toInt64(value)
		if !ok {
			return newDataError("objects of type %T are not acceptable input for an integer column", value)
		}
		if err := checkIntegerRange(big.NewInt(i), m.dialect, d.sqlType, d.subType, d.scale); err != nil {
			return err
		}
		putIntLE(dest, i)
	case SQL_TYPE_INT128:
		scaled, err := scaledInteger(value, d.scale)
		if err != nil {
			return err
		}
		if err := checkIntegerRange(scaled, m.dialect, d.sqlType, d.subType, d.scale); err != nil {
			return err
		}
		return encodeInt128(scaled, dest)
	case SQL_TYPE_FLOAT:
		f, ok := toFloat64(value)
		if !ok {
			return newDataError("objects of type %T are not acceptable input for a FLOAT column", value)
		}
		putInt32(dest, int32(math.Float32bits(float32(f))))
	case SQL_TYPE_DOUBLE, SQL_TYPE_D_FLOAT:
		if m.dialect < 3 && d.scale != 0 {
			// legacy dialect NUMERIC stored as a scaled double
			scaled, err := scaledInteger(value, d.scale)
			if err != nil {
				return err
			}
			f, _ := new(big.Float).SetInt(scaled).Float64()
			putInt64(dest, int64(math.Float64bits(f)))
			return nil
		}
		f, ok := toFloat64(value)
		if !ok {
			return newDataError("objects of type %T are not acceptable input for a DOUBLE column", value)
		}
		putInt64(dest, int64(math.Float64bits(f)))
	case SQL_TYPE_BOOLEAN:
		b, ok := value.(bool)
		if !ok {
			return newDataError("objects of type %T are not acceptable input for a BOOLEAN column", value)
		}
		if b {
			dest[0] = 1
		}
	case SQL_TYPE_DATE:
		t, ok := value.(time.Time)
		if !ok {
			return newDataError("objects of type %T are not acceptable input for a DATE column", value)
		}
		putInt32(dest, m.util.encodeDate(t.Year(), int(t.Month()), t.Day()))
	case SQL_TYPE_TIME:
		t, ok := value.(time.Time)
		if !ok {
			return newDataError("objects of type %T are not acceptable input for a TIME column", value)
		}
		putInt32(dest, int32(m.util.encodeTime(t.Hour(), t.Minute(), t.Second(), timeFractions(t))))
	case SQL_TYPE_TIMESTAMP:
		t, ok := value.(time.Time)
		if !ok {
			return newDataError("objects of type %T are not acceptable input for a TIMESTAMP column", value)
		}
		putInt32(dest, m.util.encodeDate(t.Year(), int(t.Month()), t.Day()))
		putInt32(dest[4:], int32(m.util.encodeTime(t.Hour(), t.Minute(), t.Second(), timeFractions(t))))
	case SQL_TYPE_TIMESTAMP_TZ:
		t, ok := value.(time.Time)
		if !ok {
			return newDataError("objects of type %T are not acceptable input for a TIMESTAMP WITH TIME ZONE column", value)
		}
		raw, err := m.util.encodeTimestampTZ(t.Year(), int(t.Month()), t.Day(),
			t.Hour(), t.Minute(), t.Second(), timeFractions(t), t.Location().String())
		if err != nil {
			return err
		}
		copy(dest, raw)
	case SQL_TYPE_TIME_TZ:
		t, ok := value.(time.Time)
		if !ok {
			return newDataError("objects of type %T are not acceptable input for a TIME WITH TIME ZONE column", value)
		}
		raw, err := m.util.encodeTimeTZ(t.Hour(), t.Minute(), t.Second(), timeFractions(t), t.Location().String())
		if err != nil {
			return err
		}
		copy(dest, raw)
	default:
		return newInterfaceError("unsupported parameter type %s", internalTypeName(d.sqlType))
	}
	return nil
}

// decodeScalar reads one non-null field value from the message buffer.
func (m *marshaller) decodeScalar(d *fieldDesc, buf []byte) (interface{}, error) {
	raw := buf[d.offset : d.offset+d.length]
	switch d.sqlType {
	case SQL_TYPE_TEXT:
		if d.charSet == charsetOctets {
			out := make([]byte, len(raw))
			copy(out, raw)
			return out, nil
		}
		s, err := m.codec.decode(raw)
		if err != nil {
			return nil, err
		}
		// CHAR columns in multibyte charsets declare the worst case byte
		// length; the real character count is smaller.
		if div := charLengthDivisor(d.charSet); div > 1 {
			runes := []rune(s)
			if n := d.length / div; len(runes) > n {
				runes = runes[:n]
			}
			s = string(runes)
		}
		return s, nil
	case SQL_TYPE_VARYING:
		size := int(bytesToUint16(raw))
		if size > len(raw)-2 {
			size = len(raw) - 2
		}
		data := raw[2 : 2+size]
		if d.charSet == charsetOctets {
			out := make([]byte, len(data))
			copy(out, data)
			return out, nil
		}
		return m.codec.decode(data)
	case SQL_TYPE_SHORT, SQL_TYPE_LONG, SQL_TYPE_INT64:
		v := intLE(raw)
		if d.subType != 0 || d.scale != 0 {
			return decimal.New(v, int32(d.scale)), nil
		}
		return v, nil
	case SQL_TYPE_INT128:
		return decodeInt128(raw, d.scale), nil
	case SQL_TYPE_FLOAT:
		return float64(math.Float32frombits(bytesToUint32(raw))), nil
	case SQL_TYPE_DOUBLE, SQL_TYPE_D_FLOAT:
		f := math.Float64frombits(uint64(bytesToInt64(raw)))
		if m.dialect < 3 && d.scale != 0 {
			return decimal.New(int64(math.Round(f)), int32(d.scale)), nil
		}
		return f, nil
	case SQL_TYPE_BOOLEAN:
		return raw[0] != 0, nil
	case SQL_TYPE_DATE:
		y, mo, dd := m.util.decodeDate(bytesToInt32(raw))
		return time.Date(y, time.Month(mo), dd, 0, 0, 0, 0, time.UTC), nil
	case SQL_TYPE_TIME:
		h, mi, s, f := m.util.decodeTime(bytesToUint32(raw))
		return time.Date(1, 1, 1, h, mi, s, fractionNanos(f), time.UTC), nil
	case SQL_TYPE_TIMESTAMP:
		y, mo, dd := m.util.decodeDate(bytesToInt32(raw[:4]))
		h, mi, s, f := m.util.decodeTime(bytesToUint32(raw[4:8]))
		return time.Date(y, time.Month(mo), dd, h, mi, s, fractionNanos(f), time.UTC), nil
	case SQL_TYPE_TIMESTAMP_TZ:
		y, mo, dd, h, mi, s, f, zone, err := m.util.decodeTimestampTZ(raw)
		if err != nil {
			return nil, err
		}
		return time.Date(y, time.Month(mo), dd, h, mi, s, fractionNanos(f), zoneLocation(zone)), nil
	case SQL_TYPE_TIME_TZ:
		h, mi, s, f, zone, err := m.util.decodeTimeTZ(raw)
		if err != nil {
			return nil, err
		}
		return time.Date(1, 1, 1, h, mi, s, fractionNanos(f), zoneLocation(zone)), nil
	case SQL_TYPE_DEC64:
		return decodeDec64(raw)
	case SQL_TYPE_DEC128:
		return decodeDec128(raw)
	default:
		return nil, newInterfaceError("unsupported result type %s", internalTypeName(d.sqlType))
	}
}

func fractionNanos(fractions int) int {
	return fractions * (1e9 / iscTimeSecondsPrecision)
}

// zoneLocation resolves a Firebird session time zone name, falling back to
// UTC for names the host zone database does not know.
func zoneLocation(zone string) *time.Location {
	if zone == "" {
		return time.UTC
	}
	if loc, err := time.LoadLocation(zone); err == nil {
		return loc
	}
	return time.UTC
}
