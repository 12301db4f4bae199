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
	"fmt"
	"io"
	"strings"
)

// defaultStreamBlobThreshold is the materialization limit: BLOB values larger
// than this are returned as BlobReader instead of a byte slice.
const defaultStreamBlobThreshold = 65536

// ColumnDescription describes one column of a result set in the classic
// seven item form.
type ColumnDescription struct {
	Name         string
	TypeCode     string // Go type of the fetched value
	DisplaySize  int
	InternalSize int
	Precision    int
	Scale        int
	Nullable     bool
}

// Cursor executes SQL statements and manages the context of fetch
// operations. A closed cursor can be reused for further statements.
//
// A Cursor is not safe for concurrent use.
type Cursor struct {
	conn *Connection
	tra  *TransactionManager

	stmt     *Statement
	internal bool // statement prepared by this cursor, freed on close
	result   resultSetIntf
	flags    CursorFlag
	name     string
	executed bool
	noData   bool

	outBuf      []byte
	outputCache []interface{}
	cached      bool

	blobReaders map[*BlobReader]struct{}

	// Arraysize is the number of rows Fetchmany returns when called without
	// an explicit count.
	Arraysize int
	// StreamBlobs lists column names whose BLOB values are always returned
	// as BlobReader.
	StreamBlobs []string
	// StreamBlobThreshold is the materialization limit for BLOB values of
	// columns not listed in StreamBlobs. Zero disables streaming by size.
	StreamBlobThreshold int
}

func newCursor(conn *Connection, tra *TransactionManager) *Cursor {
	return &Cursor{
		conn:                conn,
		tra:                 tra,
		blobReaders:         make(map[*BlobReader]struct{}),
		Arraysize:           1,
		StreamBlobThreshold: defaultStreamBlobThreshold,
	}
}

// Connection returns the connection this cursor belongs to.
func (c *Cursor) Connection() *Connection { return c.conn }

// Transaction returns the transaction manager this cursor works under.
func (c *Cursor) Transaction() *TransactionManager { return c.tra }

// Statement returns the executed statement, nil before the first execute.
func (c *Cursor) Statement() *Statement { return c.stmt }

// Name returns the SQL cursor name set by SetName.
func (c *Cursor) Name() string { return c.name }

// Closed reports whether the cursor holds no statement.
func (c *Cursor) Closed() bool { return c.stmt == nil }

// isStrParam reports whether the parameter value is passed through the
// string conversion path: any string headed for a non-BLOB column, and every
// value headed for a CHAR or VARCHAR column.
func isStrParam(value interface{}, sqlType int) bool {
	if _, ok := value.(string); ok && sqlType != SQL_TYPE_BLOB {
		return true
	}
	return sqlType == SQL_TYPE_TEXT || sqlType == SQL_TYPE_VARYING
}

// Execute runs an SQL command. When the command text equals the one executed
// last, the internally prepared statement is reused. An open result set is
// closed first.
func (c *Cursor) Execute(sql string, params ...interface{}) error {
	return c.executeSQL(sql, params, CursorNone)
}

// ExecuteStmt runs a prepared statement. The statement must come from the
// cursor's connection.
func (c *Cursor) ExecuteStmt(st *Statement, params ...interface{}) error {
	return c.executeStmt(st, params, CursorNone)
}

// Open runs an SQL command with a scrollable cursor. Rows are then fetched
// with the positioned fetch methods.
func (c *Cursor) Open(sql string, params ...interface{}) error {
	return c.executeSQL(sql, params, CursorScrollable)
}

// OpenStmt runs a prepared statement with a scrollable cursor.
func (c *Cursor) OpenStmt(st *Statement, params ...interface{}) error {
	return c.executeStmt(st, params, CursorScrollable)
}

// ExecuteMany runs the same command once per parameter set. The statement is
// prepared once and reused.
func (c *Cursor) ExecuteMany(sql string, paramSets [][]interface{}) error {
	for _, params := range paramSets {
		if err := c.Execute(sql, params...); err != nil {
			return err
		}
	}
	return nil
}

// CallProc executes a stored procedure and returns its output row, or nil
// when the procedure returns nothing.
func (c *Cursor) CallProc(procName string, params ...interface{}) ([]interface{}, error) {
	placeholders := make([]string, len(params))
	for i := range placeholders {
		placeholders[i] = "?"
	}
	sql := "EXECUTE PROCEDURE " + procName + " " + strings.Join(placeholders, ",")
	if err := c.Execute(sql, params...); err != nil {
		return nil, err
	}
	if c.stmt.ColumnCount() == 0 {
		return nil, nil
	}
	return c.Fetchone()
}

func (c *Cursor) executeSQL(sql string, params []interface{}, flags CursorFlag) error {
	if c.stmt != nil && c.stmt.sql == sql && !c.stmt.Freed() {
		c.clear()
	} else {
		if err := c.Close(); err != nil {
			return err
		}
		st, err := c.conn.prepareWith(c.tra, sql)
		if err != nil {
			return err
		}
		c.stmt = st
		c.internal = true
	}
	return c.run(params, flags)
}

func (c *Cursor) executeStmt(st *Statement, params []interface{}, flags CursorFlag) error {
	if st.conn != c.conn {
		return newInterfaceError("cannot execute statement that was created by different connection")
	}
	if st.Freed() {
		return newInterfaceError("statement is freed")
	}
	if err := c.Close(); err != nil {
		return err
	}
	c.stmt = st
	c.internal = false
	return c.run(params, flags)
}

func (c *Cursor) run(params []interface{}, flags CursorFlag) error {
	if !c.tra.IsActive() {
		if err := c.tra.Begin(); err != nil {
			return err
		}
	}
	c.flags = flags
	st := c.stmt
	var inMeta metadataIntf
	var inBuf []byte
	if st.ParamCount() > 0 {
		meta, buf, owned, err := c.packInput(params)
		if err != nil {
			return err
		}
		if owned {
			defer meta.release()
		}
		inMeta, inBuf = meta, buf
	} else if len(params) != 0 {
		return newInterfaceError("statement parameter sequence contains %d items, but exactly 0 are required", len(params))
	}
	if len(st.outDesc) > 0 {
		c.outBuf = make([]byte, st.outBufLen)
	} else {
		c.outBuf = nil
	}
	if st.HasCursor() {
		result, err := st.stmt.openCursor(c.tra.tra, inMeta, inBuf, st.outMeta, flags)
		if err != nil {
			return err
		}
		c.result = result
	} else {
		if err := st.stmt.execute(c.tra.tra, inMeta, inBuf, st.outMeta, c.outBuf); err != nil {
			return err
		}
		if len(st.outDesc) > 0 {
			row, err := c.unpackOutput()
			if err != nil {
				return err
			}
			c.outputCache = row
			c.cached = true
		}
	}
	c.executed = true
	c.noData = false
	return nil
}

// packInput builds the input message. String parameters make the driver
// rewrite the input metadata: the affected fields become CHAR of exactly the
// encoded byte length, so the engine performs the conversion to the column
// type server-side.
func (c *Cursor) packInput(params []interface{}) (metadataIntf, []byte, bool, error) {
	st := c.stmt
	if len(params) != len(st.inDesc) {
		return nil, nil, false, newInterfaceError(
			"statement parameter sequence contains %d items, but exactly %d are required",
			len(params), len(st.inDesc))
	}
	m := c.conn.marshaller
	meta, descs, bufLen := st.inMeta, st.inDesc, st.inBufLen
	owned := false

	// String parameter values in the connection charset, indexed by
	// parameter position.
	var strValues map[int][]byte
	for i, value := range params {
		if value == nil || !isStrParam(value, st.inDesc[i].sqlType) {
			continue
		}
		data, err := stringParamBytes(m, value)
		if err != nil {
			return nil, nil, false, err
		}
		if strValues == nil {
			strValues = make(map[int][]byte)
		}
		strValues[i] = data
	}
	if strValues != nil {
		newMeta, newDescs, newLen, err := c.rewriteInputMeta(strValues)
		if err != nil {
			return nil, nil, false, err
		}
		meta, descs, owned = newMeta, newDescs, true
		if newLen > bufLen {
			bufLen = newLen
		}
	}

	buf := make([]byte, bufLen)
	for i, value := range params {
		d := &descs[i]
		if value == nil {
			putInt16(buf[d.nullOffset:], 1)
			continue
		}
		var err error
		if data, ok := strValues[i]; ok {
			err = storeTextBytes(buf, d, i, data)
		} else {
			switch d.sqlType {
			case SQL_TYPE_BLOB:
				err = c.packBlobParam(buf, d, i, value)
			case SQL_TYPE_ARRAY:
				err = c.packArrayParam(buf, d, value)
			default:
				err = m.encodeScalar(buf, d, i, value)
			}
		}
		if err != nil {
			if owned {
				meta.release()
			}
			return nil, nil, false, err
		}
	}
	return meta, buf, owned, nil
}

// stringParamBytes converts a string-path parameter value to bytes in the
// connection character set. Non-string values bound to textual columns are
// formatted first.
func stringParamBytes(m *marshaller, value interface{}) ([]byte, error) {
	switch v := value.(type) {
	case string:
		return m.codec.encode(v)
	case []byte:
		return v, nil
	default:
		return m.codec.encode(fmt.Sprint(v))
	}
}

// rewriteInputMeta clones the input metadata with every string parameter
// field retyped to CHAR of the exact value length.
func (c *Cursor) rewriteInputMeta(strValues map[int][]byte) (metadataIntf, []fieldDesc, int, error) {
	st := c.stmt
	builder, err := st.inMeta.getBuilder()
	if err != nil {
		return nil, nil, 0, err
	}
	defer builder.release()
	for i, data := range strValues {
		if err = builder.setType(i, SQL_TYPE_TEXT); err != nil {
			return nil, nil, 0, err
		}
		if err = builder.setLength(i, len(data)); err != nil {
			return nil, nil, 0, err
		}
	}
	meta, err := builder.getMetadata()
	if err != nil {
		return nil, nil, 0, err
	}
	descs, err := createFieldDescs(meta)
	if err != nil {
		meta.release()
		return nil, nil, 0, err
	}
	msgLen, err := meta.getMessageLength()
	if err != nil {
		meta.release()
		return nil, nil, 0, err
	}
	return meta, descs, msgLen, nil
}

// storeTextBytes places already encoded text at the field offset, checking
// the declared length. The surrounding buffer is zeroed, so shorter values
// are zero padded the way the engine expects for retyped CHAR fields.
func storeTextBytes(buf []byte, d *fieldDesc, index int, data []byte) error {
	capacity := d.length
	offset := d.offset
	if d.sqlType == SQL_TYPE_VARYING {
		capacity -= 2
		putInt16(buf[offset:], int16(len(data)))
		offset += 2
	}
	if len(data) > capacity {
		return newDataError("value of parameter (%d) is too long, expected %d, found %d",
			index, capacity, len(data))
	}
	copy(buf[offset:], data)
	return nil
}

// packBlobParam creates a BLOB from the parameter value and stores its
// identifier in the message. io.Reader values are streamed, everything else
// is written as a segmented BLOB.
func (c *Cursor) packBlobParam(buf []byte, d *fieldDesc, index int, value interface{}) error {
	var id quadID
	if reader, ok := value.(io.Reader); ok {
		blob, err := c.conn.att.createBlob(c.tra.tra, &id, buildBPB(d.subType, true))
		if err != nil {
			return err
		}
		chunk := make([]byte, maxBlobSegmentSize)
		for {
			n, rerr := reader.Read(chunk)
			if n > 0 {
				if err := blob.putSegment(chunk[:n]); err != nil {
					blob.cancel()
					return err
				}
			}
			if rerr == io.EOF {
				break
			}
			if rerr != nil {
				blob.cancel()
				return rerr
			}
		}
		if err := blob.close(); err != nil {
			return err
		}
		copy(buf[d.offset:], id[:])
		return nil
	}

	var data []byte
	switch v := value.(type) {
	case string:
		if d.subType != 1 {
			return newDataError("string value is not acceptable type for a non-textual BLOB column")
		}
		encoded, err := c.conn.marshaller.codec.encode(v)
		if err != nil {
			return err
		}
		data = encoded
	case []byte:
		data = v
	default:
		return newDataError("objects of type %T are not acceptable input for a BLOB column", value)
	}
	blob, err := c.conn.att.createBlob(c.tra.tra, &id, nil)
	if err != nil {
		return err
	}
	for pos := 0; pos < len(data); {
		n := len(data) - pos
		if n > maxBlobSegmentSize {
			n = maxBlobSegmentSize
		}
		if err := blob.putSegment(data[pos : pos+n]); err != nil {
			blob.cancel()
			return err
		}
		pos += n
	}
	if err := blob.close(); err != nil {
		return err
	}
	copy(buf[d.offset:], id[:])
	return nil
}

// packArrayParam validates the value against the schema descriptor, stores
// the flat slice and places the new array identifier in the message.
func (c *Cursor) packArrayParam(buf []byte, d *fieldDesc, value interface{}) error {
	desc, err := c.conn.api.arrayLookupBounds(c.conn.att, c.tra.tra, d.relation, d.field)
	if err != nil {
		return err
	}
	subType, err := c.conn.arraySubtype(d.relation, d.field)
	if err != nil {
		return err
	}
	if !validateArrayShape(desc, value) {
		return newDataError("Incorrect ARRAY field value.")
	}
	data, err := c.conn.marshaller.packArraySlice(desc, subType, value)
	if err != nil {
		return err
	}
	id, err := c.conn.api.arrayPutSlice(c.conn.att, c.tra.tra, desc, data)
	if err != nil {
		return err
	}
	copy(buf[d.offset:], id[:])
	return nil
}

// unpackOutput decodes the current output message into a row of Go values.
func (c *Cursor) unpackOutput() ([]interface{}, error) {
	st := c.stmt
	row := make([]interface{}, len(st.outDesc))
	for i := range st.outDesc {
		d := &st.outDesc[i]
		if bytesToInt16(c.outBuf[d.nullOffset:]) != 0 {
			row[i] = nil
			continue
		}
		var err error
		switch d.sqlType {
		case SQL_TYPE_BLOB:
			row[i], err = c.unpackBlobColumn(d)
		case SQL_TYPE_ARRAY:
			row[i], err = c.unpackArrayColumn(d)
		default:
			row[i], err = c.conn.marshaller.decodeScalar(d, c.outBuf)
		}
		if err != nil {
			return nil, err
		}
	}
	return row, nil
}

// unpackBlobColumn opens the BLOB and either materializes it or hands out a
// BlobReader, depending on the stream settings and the BLOB size.
func (c *Cursor) unpackBlobColumn(d *fieldDesc) (interface{}, error) {
	var id quadID
	copy(id[:], c.outBuf[d.offset:])
	blob, err := c.conn.att.openBlob(c.tra.tra, id, buildBPB(d.subType, true))
	if err != nil {
		return nil, err
	}
	length, segSize, err := blobSize(blob)
	if err != nil {
		blob.release()
		return nil, err
	}
	if c.streamColumn(d.name()) || (c.StreamBlobThreshold > 0 && length > c.StreamBlobThreshold) {
		reader := newBlobReader(blob, id, d.subType, length, segSize, c.conn.marshaller.codec)
		c.blobReaders[reader] = struct{}{}
		return reader, nil
	}
	data := make([]byte, length)
	pos := 0
	for pos < length {
		n, status, err := blob.getSegment(data[pos:])
		if err != nil {
			blob.release()
			return nil, err
		}
		pos += n
		if status == fetchNoData {
			break
		}
	}
	if err := blob.close(); err != nil {
		return nil, err
	}
	data = data[:pos]
	if d.subType == 1 {
		return c.conn.marshaller.codec.decode(data)
	}
	return data, nil
}

func (c *Cursor) streamColumn(name string) bool {
	for _, n := range c.StreamBlobs {
		if n == name {
			return true
		}
	}
	return false
}

// blobSize queries total length and maximum segment size of an open BLOB.
func blobSize(blob blobIntf) (length, segSize int, err error) {
	info, err := blob.getInfo([]byte{isc_info_blob_total_length, isc_info_blob_max_segment, isc_info_end})
	if err != nil {
		return 0, 0, err
	}
	r := NewXPBReader(info)
	for {
		ok, tag := r.Next()
		if !ok || tag == isc_info_end {
			break
		}
		data := r.GetClumplet()
		switch tag {
		case isc_info_blob_total_length:
			length = int(intLE(data))
		case isc_info_blob_max_segment:
			segSize = int(intLE(data))
		}
	}
	return length, segSize, nil
}

// unpackArrayColumn loads the flat array slice and rebuilds the nested value.
func (c *Cursor) unpackArrayColumn(d *fieldDesc) (interface{}, error) {
	var id quadID
	copy(id[:], c.outBuf[d.offset:])
	desc, err := c.conn.api.arrayLookupBounds(c.conn.att, c.tra.tra, d.relation, d.field)
	if err != nil {
		return nil, err
	}
	subType, err := c.conn.arraySubtype(d.relation, d.field)
	if err != nil {
		return nil, err
	}
	data, err := c.conn.api.arrayGetSlice(c.conn.att, c.tra.tra, id, desc, arrayElementSize(desc)*desc.elementCount())
	if err != nil {
		return nil, err
	}
	return c.conn.marshaller.unpackArraySlice(desc, subType, data)
}

// Fetchone returns the next row, or nil when the result set is exhausted.
func (c *Cursor) Fetchone() ([]interface{}, error) {
	if c.stmt == nil || !c.executed {
		return nil, newInterfaceError("cannot fetch from cursor that did not execute a statement")
	}
	if len(c.stmt.outDesc) == 0 || c.noData {
		return nil, nil
	}
	if c.cached {
		row := c.outputCache
		c.outputCache = nil
		c.cached = false
		c.noData = true
		return row, nil
	}
	if c.result == nil {
		return nil, nil
	}
	status, err := c.result.fetchNext(c.outBuf)
	if err != nil {
		return nil, err
	}
	if status != fetchOK {
		c.noData = true
		return nil, nil
	}
	return c.unpackOutput()
}

// Fetchmany returns up to size rows, or up to Arraysize rows when size <= 0.
func (c *Cursor) Fetchmany(size int) ([][]interface{}, error) {
	if size <= 0 {
		size = c.Arraysize
	}
	var rows [][]interface{}
	for i := 0; i < size; i++ {
		row, err := c.Fetchone()
		if err != nil {
			return rows, err
		}
		if row == nil {
			break
		}
		rows = append(rows, row)
	}
	return rows, nil
}

// Fetchall returns all remaining rows.
func (c *Cursor) Fetchall() ([][]interface{}, error) {
	var rows [][]interface{}
	for {
		row, err := c.Fetchone()
		if err != nil {
			return rows, err
		}
		if row == nil {
			return rows, nil
		}
		rows = append(rows, row)
	}
}

func (c *Cursor) scrollableFetch(fetch func([]byte) (fetchStatus, error)) ([]interface{}, error) {
	if c.result == nil {
		return nil, newInterfaceError("cannot fetch from cursor that did not execute a statement")
	}
	status, err := fetch(c.outBuf)
	if err != nil {
		return nil, err
	}
	if status != fetchOK {
		return nil, nil
	}
	return c.unpackOutput()
}

// FetchNext returns the next row of a scrollable result set, nil when there
// is none.
func (c *Cursor) FetchNext() ([]interface{}, error) {
	return c.scrollableFetch(func(buf []byte) (fetchStatus, error) { return c.result.fetchNext(buf) })
}

// FetchPrior returns the previous row of a scrollable result set.
func (c *Cursor) FetchPrior() ([]interface{}, error) {
	return c.scrollableFetch(func(buf []byte) (fetchStatus, error) { return c.result.fetchPrior(buf) })
}

// FetchFirst returns the first row of a scrollable result set.
func (c *Cursor) FetchFirst() ([]interface{}, error) {
	return c.scrollableFetch(func(buf []byte) (fetchStatus, error) { return c.result.fetchFirst(buf) })
}

// FetchLast returns the last row of a scrollable result set.
func (c *Cursor) FetchLast() ([]interface{}, error) {
	return c.scrollableFetch(func(buf []byte) (fetchStatus, error) { return c.result.fetchLast(buf) })
}

// FetchAbsolute returns the row at the given absolute position of a
// scrollable result set.
func (c *Cursor) FetchAbsolute(position int) ([]interface{}, error) {
	return c.scrollableFetch(func(buf []byte) (fetchStatus, error) { return c.result.fetchAbsolute(position, buf) })
}

// FetchRelative returns the row at the given offset from the current
// position of a scrollable result set.
func (c *Cursor) FetchRelative(offset int) ([]interface{}, error) {
	return c.scrollableFetch(func(buf []byte) (fetchStatus, error) { return c.result.fetchRelative(offset, buf) })
}

// IsEof reports whether a scrollable cursor is positioned past the last row.
func (c *Cursor) IsEof() (bool, error) {
	if c.result == nil {
		return false, newInterfaceError("cursor has no open result set")
	}
	return c.result.isEof()
}

// IsBof reports whether a scrollable cursor is positioned before the first
// row.
func (c *Cursor) IsBof() (bool, error) {
	if c.result == nil {
		return false, newInterfaceError("cursor has no open result set")
	}
	return c.result.isBof()
}

// SetName declares an SQL cursor name for the currently executed statement,
// used in WHERE CURRENT OF clauses.
func (c *Cursor) SetName(name string) error {
	if !c.executed {
		return newInterfaceError("cannot set name for cursor that has not yet executed a statement")
	}
	if c.name != "" {
		return newInterfaceError("cursor name has already been declared in context of currently executed statement")
	}
	if err := c.stmt.stmt.setCursorName(name); err != nil {
		return err
	}
	c.name = name
	return nil
}

// Description returns the seven item descriptions of the output columns. The
// precision of fixed-point columns is determined lazily from the system
// tables and cached per connection.
func (c *Cursor) Description() ([]ColumnDescription, error) {
	if c.stmt == nil {
		return nil, nil
	}
	st := c.stmt
	if st.desc != nil {
		return st.desc, nil
	}
	desc := make([]ColumnDescription, len(st.outDesc))
	for i := range st.outDesc {
		d := &st.outDesc[i]
		cd := ColumnDescription{
			Name:         d.name(),
			InternalSize: d.length,
			Scale:        d.scale,
			Nullable:     d.nullable,
		}
		switch {
		case d.sqlType == SQL_TYPE_TEXT || d.sqlType == SQL_TYPE_VARYING:
			cd.TypeCode = "string"
			cd.DisplaySize = d.length / charLengthDivisor(d.charSet)
		case (d.sqlType == SQL_TYPE_SHORT || d.sqlType == SQL_TYPE_LONG || d.sqlType == SQL_TYPE_INT64) &&
			(d.subType != 0 || d.scale != 0):
			cd.TypeCode = "decimal.Decimal"
			cd.DisplaySize = 20
			p, err := c.conn.fieldPrecision(d)
			if err != nil {
				return nil, err
			}
			cd.Precision = p
		case d.sqlType == SQL_TYPE_SHORT:
			cd.TypeCode = "int64"
			cd.DisplaySize = 6
		case d.sqlType == SQL_TYPE_LONG:
			cd.TypeCode = "int64"
			cd.DisplaySize = 11
		case d.sqlType == SQL_TYPE_INT64:
			cd.TypeCode = "int64"
			cd.DisplaySize = 20
		case d.sqlType == SQL_TYPE_INT128:
			cd.TypeCode = "decimal.Decimal"
			cd.DisplaySize = 40
		case d.sqlType == SQL_TYPE_FLOAT || d.sqlType == SQL_TYPE_DOUBLE || d.sqlType == SQL_TYPE_D_FLOAT:
			if c.conn.dialect < 3 && d.scale != 0 {
				cd.TypeCode = "decimal.Decimal"
				p, err := c.conn.fieldPrecision(d)
				if err != nil {
					return nil, err
				}
				cd.Precision = p
			} else {
				cd.TypeCode = "float64"
			}
			cd.DisplaySize = 17
		case d.sqlType == SQL_TYPE_BLOB:
			if d.subType == 1 {
				cd.TypeCode = "string"
			} else {
				cd.TypeCode = "[]byte"
			}
			cd.Scale = d.subType
			cd.DisplaySize = 0
		case d.sqlType == SQL_TYPE_TIMESTAMP:
			cd.TypeCode = "time.Time"
			cd.DisplaySize = 22
		case d.sqlType == SQL_TYPE_DATE:
			cd.TypeCode = "time.Time"
			cd.DisplaySize = 10
		case d.sqlType == SQL_TYPE_TIME:
			cd.TypeCode = "time.Time"
			cd.DisplaySize = 11
		case d.sqlType == SQL_TYPE_TIMESTAMP_TZ:
			cd.TypeCode = "time.Time"
			cd.DisplaySize = 28
		case d.sqlType == SQL_TYPE_TIME_TZ:
			cd.TypeCode = "time.Time"
			cd.DisplaySize = 17
		case d.sqlType == SQL_TYPE_ARRAY:
			cd.TypeCode = "[]interface{}"
			cd.DisplaySize = -1
		case d.sqlType == SQL_TYPE_BOOLEAN:
			cd.TypeCode = "bool"
			cd.DisplaySize = 5
		case d.sqlType == SQL_TYPE_DEC64:
			cd.TypeCode = "decimal.Decimal"
			cd.DisplaySize = 23
		case d.sqlType == SQL_TYPE_DEC128:
			cd.TypeCode = "decimal.Decimal"
			cd.DisplaySize = 42
		default:
			cd.DisplaySize = -1
		}
		desc[i] = cd
	}
	st.desc = desc
	return desc, nil
}

// AffectedRows returns the row count of the last executed statement, or -1
// when the count is not determinable. The engine reports counts for SELECT,
// INSERT, UPDATE and DELETE only.
func (c *Cursor) AffectedRows() (int64, error) {
	if c.stmt == nil || !c.executed {
		return -1, nil
	}
	var want byte
	switch c.stmt.Type() {
	case StmtSelect:
		want = isc_info_req_select_count
	case StmtInsert:
		want = isc_info_req_insert_count
	case StmtUpdate:
		want = isc_info_req_update_count
	case StmtDelete:
		want = isc_info_req_delete_count
	default:
		return -1, nil
	}
	info, err := c.stmt.stmt.getInfo([]byte{isc_info_sql_records, isc_info_end})
	if err != nil {
		return -1, err
	}
	if len(info) == 0 || info[0] != isc_info_sql_records {
		return -1, newInterfaceError("malformed response to row count request")
	}
	// tag, 2 byte cluster length, then (tag, 2 byte length, count) items
	r := NewXPBReader(info[3:])
	result := int64(-1)
	for {
		ok, tag := r.Next()
		if !ok || tag == isc_info_end {
			break
		}
		data := r.GetClumplet()
		if tag == want {
			result = intLE(data)
		}
	}
	return result, nil
}

// clear drops the result set and every BLOB reader of the current row
// context, keeping the statement for reuse.
func (c *Cursor) clear() {
	if c.result != nil {
		c.result.close()
		c.result = nil
	}
	c.name = ""
	c.executed = false
	c.noData = false
	c.outputCache = nil
	c.cached = false
	for reader := range c.blobReaders {
		reader.Close()
		delete(c.blobReaders, reader)
	}
}

// Close releases the result set and, when the statement was prepared
// internally, the statement as well. The cursor stays usable for further
// commands.
func (c *Cursor) Close() error {
	c.clear()
	if c.stmt == nil {
		return nil
	}
	var err error
	if c.internal {
		err = c.stmt.Free()
	}
	c.stmt = nil
	return err
}
