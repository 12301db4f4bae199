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

// fieldDesc is one field of a message format, read once from the finalized
// native metadata so that fetch loops never cross into the native library for
// layout information. Offsets come from the metadata and are authoritative;
// the driver never computes buffer layout itself.
type fieldDesc struct {
	field      string
	relation   string
	owner      string
	alias      string
	sqlType    int // nullable bit stripped
	nullable   bool
	subType    int
	length     int
	scale      int
	charSet    int
	offset     int
	nullOffset int
}

// name returns the alias when one is set, the field name otherwise.
func (d *fieldDesc) name() string {
	if d.alias != "" && d.alias != d.field {
		return d.alias
	}
	return d.field
}

// createFieldDescs snapshots every field of a metadata block.
func createFieldDescs(meta metadataIntf) ([]fieldDesc, error) {
	count, err := meta.getCount()
	if err != nil {
		return nil, err
	}
	descs := make([]fieldDesc, count)
	for i := 0; i < count; i++ {
		d := &descs[i]
		if d.field, err = meta.getField(i); err != nil {
			return nil, err
		}
		if d.relation, err = meta.getRelation(i); err != nil {
			return nil, err
		}
		if d.owner, err = meta.getOwner(i); err != nil {
			return nil, err
		}
		if d.alias, err = meta.getAlias(i); err != nil {
			return nil, err
		}
		if d.sqlType, err = meta.getType(i); err != nil {
			return nil, err
		}
		d.sqlType &^= 1
		if d.nullable, err = meta.isNullable(i); err != nil {
			return nil, err
		}
		if d.subType, err = meta.getSubType(i); err != nil {
			return nil, err
		}
		if d.length, err = meta.getLength(i); err != nil {
			return nil, err
		}
		if d.scale, err = meta.getScale(i); err != nil {
			return nil, err
		}
		if d.charSet, err = meta.getCharSet(i); err != nil {
			return nil, err
		}
		if d.offset, err = meta.getOffset(i); err != nil {
			return nil, err
		}
		if d.nullOffset, err = meta.getNullOffset(i); err != nil {
			return nil, err
		}
	}
	return descs, nil
}

// isFixedPoint reports whether the field holds an exact fixed-point value.
// Under dialect 1 and 2 the engine reports NUMERIC/DECIMAL columns as DOUBLE
// with a nonzero scale; those are fixed point too.
func isFixedPoint(dialect, sqlType, subType, scale int) bool {
	switch sqlType {
	case SQL_TYPE_SHORT, SQL_TYPE_LONG, SQL_TYPE_INT64:
		return subType != 0 || scale != 0
	case SQL_TYPE_DOUBLE, SQL_TYPE_D_FLOAT:
		return dialect < 3 && scale != 0
	}
	return false
}

// externalTypeName is the SQL-level type name used in diagnostics.
func externalTypeName(dialect, sqlType, subType, scale int) string {
	if isFixedPoint(dialect, sqlType, subType, scale) {
		switch subType {
		case 1:
			return "NUMERIC"
		case 2:
			return "DECIMAL"
		default:
			return "NUMERIC/DECIMAL"
		}
	}
	switch sqlType {
	case SQL_TYPE_TEXT:
		return "CHAR"
	case SQL_TYPE_VARYING:
		return "VARCHAR"
	case SQL_TYPE_SHORT:
		return "SMALLINT"
	case SQL_TYPE_LONG:
		return "INTEGER"
	case SQL_TYPE_INT64:
		return "BIGINT"
	case SQL_TYPE_INT128:
		return "INT128"
	case SQL_TYPE_FLOAT:
		return "FLOAT"
	case SQL_TYPE_DOUBLE, SQL_TYPE_D_FLOAT:
		return "DOUBLE"
	case SQL_TYPE_TIMESTAMP:
		return "TIMESTAMP"
	case SQL_TYPE_DATE:
		return "DATE"
	case SQL_TYPE_TIME:
		return "TIME"
	case SQL_TYPE_TIMESTAMP_TZ:
		return "TIMESTAMP WITH TIME ZONE"
	case SQL_TYPE_TIME_TZ:
		return "TIME WITH TIME ZONE"
	case SQL_TYPE_BLOB:
		return "BLOB"
	case SQL_TYPE_ARRAY:
		return "ARRAY"
	case SQL_TYPE_BOOLEAN:
		return "BOOLEAN"
	case SQL_TYPE_DEC64:
		return "DECFLOAT(16)"
	case SQL_TYPE_DEC128:
		return "DECFLOAT(34)"
	default:
		return "UNKNOWN"
	}
}

// internalTypeName is the storage-level type name used in diagnostics.
func internalTypeName(sqlType int) string {
	switch sqlType {
	case SQL_TYPE_TEXT:
		return "TEXT"
	case SQL_TYPE_VARYING:
		return "VARYING"
	case SQL_TYPE_SHORT:
		return "SHORT"
	case SQL_TYPE_LONG:
		return "LONG"
	case SQL_TYPE_INT64:
		return "INT64"
	case SQL_TYPE_INT128:
		return "INT128"
	case SQL_TYPE_FLOAT:
		return "FLOAT"
	case SQL_TYPE_DOUBLE, SQL_TYPE_D_FLOAT:
		return "DOUBLE"
	case SQL_TYPE_TIMESTAMP:
		return "TIMESTAMP"
	case SQL_TYPE_DATE:
		return "DATE"
	case SQL_TYPE_TIME:
		return "TIME"
	case SQL_TYPE_BLOB:
		return "BLOB"
	case SQL_TYPE_ARRAY:
		return "ARRAY"
	case SQL_TYPE_BOOLEAN:
		return "BOOLEAN"
	default:
		return "UNKNOWN"
	}
}

// charLengthDivisor maps a character set id to the ratio between declared
// byte length and character count of CHAR columns. UTF8 and GB18030 declare
// four bytes per character, the legacy UNICODE_FSS three.
func charLengthDivisor(charSet int) int {
	switch charSet {
	case charsetUTF8, charsetGB18030:
		return 4
	case charsetUnicodeFSS:
		return 3
	default:
		return 1
	}
}
