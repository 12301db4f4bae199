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

// In-memory implementations of the native interfaces. They emulate just
// enough engine behavior (message layout, segment transfer, event parameter
// blocks) to exercise the driver core without the client library.

import (
	"fmt"
	"time"
)

// ---------------------------------------------------------------------------
// utility interface

// fakeUtil reimplements the engine date and time codecs: days since
// 1858-11-17 for dates, 1/10000 second units for times. Time zones are kept
// in a local table indexed by id.
type fakeUtil struct {
	zones []string
}

var fakeEpoch = time.Date(1858, time.November, 17, 0, 0, 0, 0, time.UTC)

func (u *fakeUtil) encodeDate(year, month, day int) int32 {
	d := time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)
	return int32(d.Sub(fakeEpoch).Hours() / 24)
}

func (u *fakeUtil) decodeDate(date int32) (int, int, int) {
	d := fakeEpoch.AddDate(0, 0, int(date))
	return d.Year(), int(d.Month()), d.Day()
}

func (u *fakeUtil) encodeTime(hours, minutes, seconds, fractions int) uint32 {
	return uint32(((hours*60+minutes)*60+seconds)*iscTimeSecondsPrecision + fractions)
}

func (u *fakeUtil) decodeTime(tm uint32) (int, int, int, int) {
	fractions := int(tm) % iscTimeSecondsPrecision
	seconds := int(tm) / iscTimeSecondsPrecision
	return seconds / 3600, seconds / 60 % 60, seconds % 60, fractions
}

func (u *fakeUtil) zoneID(zone string) uint16 {
	for i, z := range u.zones {
		if z == zone {
			return uint16(i)
		}
	}
	u.zones = append(u.zones, zone)
	return uint16(len(u.zones) - 1)
}

func (u *fakeUtil) zoneName(id uint16) string {
	if int(id) < len(u.zones) {
		return u.zones[id]
	}
	return "UTC"
}

func (u *fakeUtil) encodeTimestampTZ(year, month, day, hours, minutes, seconds, fractions int, zone string) ([]byte, error) {
	buf := make([]byte, 12)
	putInt32(buf, u.encodeDate(year, month, day))
	putInt32(buf[4:], int32(u.encodeTime(hours, minutes, seconds, fractions)))
	putInt16(buf[8:], int16(u.zoneID(zone)))
	return buf, nil
}

func (u *fakeUtil) decodeTimestampTZ(data []byte) (int, int, int, int, int, int, int, string, error) {
	y, mo, d := u.decodeDate(bytesToInt32(data))
	h, mi, s, f := u.decodeTime(bytesToUint32(data[4:]))
	return y, mo, d, h, mi, s, f, u.zoneName(bytesToUint16(data[8:])), nil
}

func (u *fakeUtil) encodeTimeTZ(hours, minutes, seconds, fractions int, zone string) ([]byte, error) {
	buf := make([]byte, 8)
	putInt32(buf, int32(u.encodeTime(hours, minutes, seconds, fractions)))
	putInt16(buf[4:], int16(u.zoneID(zone)))
	return buf, nil
}

func (u *fakeUtil) decodeTimeTZ(data []byte) (int, int, int, int, string, error) {
	h, mi, s, f := u.decodeTime(bytesToUint32(data))
	return h, mi, s, f, u.zoneName(bytesToUint16(data[4:])), nil
}

func (u *fakeUtil) clientVersion() int { return 4 }

// ---------------------------------------------------------------------------
// message metadata

type fakeField struct {
	field    string
	relation string
	owner    string
	alias    string
	sqlType  int
	nullable bool
	subType  int
	length   int
	scale    int
	charSet  int

	offset     int
	nullOffset int
}

type fakeMetadata struct {
	fields   []fakeField
	msgLen   int
	refs     int
	released int
}

// newFakeMetadata lays the fields out sequentially: value bytes followed by
// a two byte null indicator per field. Offsets are what the driver reads,
// so any self-consistent layout works.
func newFakeMetadata(fields ...fakeField) *fakeMetadata {
	pos := 0
	for i := range fields {
		fields[i].offset = pos
		pos += fields[i].length
		fields[i].nullOffset = pos
		pos += 2
	}
	return &fakeMetadata{fields: fields, msgLen: pos}
}

func (m *fakeMetadata) getCount() (int, error)              { return len(m.fields), nil }
func (m *fakeMetadata) getField(i int) (string, error)      { return m.fields[i].field, nil }
func (m *fakeMetadata) getRelation(i int) (string, error)   { return m.fields[i].relation, nil }
func (m *fakeMetadata) getOwner(i int) (string, error)      { return m.fields[i].owner, nil }
func (m *fakeMetadata) getAlias(i int) (string, error)      { return m.fields[i].alias, nil }
func (m *fakeMetadata) getType(i int) (int, error)          { return m.fields[i].sqlType, nil }
func (m *fakeMetadata) isNullable(i int) (bool, error)      { return m.fields[i].nullable, nil }
func (m *fakeMetadata) getSubType(i int) (int, error)       { return m.fields[i].subType, nil }
func (m *fakeMetadata) getLength(i int) (int, error)        { return m.fields[i].length, nil }
func (m *fakeMetadata) getScale(i int) (int, error)         { return m.fields[i].scale, nil }
func (m *fakeMetadata) getCharSet(i int) (int, error)       { return m.fields[i].charSet, nil }
func (m *fakeMetadata) getOffset(i int) (int, error)        { return m.fields[i].offset, nil }
func (m *fakeMetadata) getNullOffset(i int) (int, error)    { return m.fields[i].nullOffset, nil }
func (m *fakeMetadata) getMessageLength() (int, error)      { return m.msgLen, nil }
func (m *fakeMetadata) addRef()                             { m.refs++ }
func (m *fakeMetadata) release()                            { m.released++ }
func (m *fakeMetadata) getBuilder() (metadataBuilderIntf, error) {
	fields := make([]fakeField, len(m.fields))
	copy(fields, m.fields)
	return &fakeBuilder{fields: fields}, nil
}

type fakeBuilder struct {
	fields   []fakeField
	released bool
}

func (b *fakeBuilder) setType(i, sqlType int) error   { b.fields[i].sqlType = sqlType; return nil }
func (b *fakeBuilder) setSubType(i, subType int) error { b.fields[i].subType = subType; return nil }
func (b *fakeBuilder) setLength(i, length int) error  { b.fields[i].length = length; return nil }
func (b *fakeBuilder) setCharSet(i, charSet int) error { b.fields[i].charSet = charSet; return nil }
func (b *fakeBuilder) setScale(i, scale int) error    { b.fields[i].scale = scale; return nil }
func (b *fakeBuilder) getMetadata() (metadataIntf, error) {
	return newFakeMetadata(b.fields...), nil
}
func (b *fakeBuilder) release() { b.released = true }

// ---------------------------------------------------------------------------
// result set

// fakeResultSet models a scrollable cursor with a one-based position: 0 is
// before the first row, len(rows)+1 past the last.
type fakeResultSet struct {
	rows   [][]byte
	pos    int
	closed bool
}

func (r *fakeResultSet) seekTo(pos int, buf []byte) (fetchStatus, error) {
	if pos < 1 {
		r.pos = 0
		return fetchNoData, nil
	}
	if pos > len(r.rows) {
		r.pos = len(r.rows) + 1
		return fetchNoData, nil
	}
	r.pos = pos
	copy(buf, r.rows[pos-1])
	return fetchOK, nil
}

func (r *fakeResultSet) fetchNext(buf []byte) (fetchStatus, error) {
	return r.seekTo(r.pos+1, buf)
}

func (r *fakeResultSet) fetchPrior(buf []byte) (fetchStatus, error) {
	return r.seekTo(r.pos-1, buf)
}

func (r *fakeResultSet) fetchFirst(buf []byte) (fetchStatus, error) {
	return r.seekTo(1, buf)
}

func (r *fakeResultSet) fetchLast(buf []byte) (fetchStatus, error) {
	return r.seekTo(len(r.rows), buf)
}

func (r *fakeResultSet) fetchAbsolute(position int, buf []byte) (fetchStatus, error) {
	return r.seekTo(position, buf)
}

func (r *fakeResultSet) fetchRelative(offset int, buf []byte) (fetchStatus, error) {
	return r.seekTo(r.pos+offset, buf)
}

func (r *fakeResultSet) isEof() (bool, error) { return r.pos > len(r.rows), nil }
func (r *fakeResultSet) isBof() (bool, error) { return r.pos == 0, nil }
func (r *fakeResultSet) close() error         { r.closed = true; return nil }
func (r *fakeResultSet) release()             {}

// ---------------------------------------------------------------------------
// statement

type fakeStatement struct {
	stmtType StatementType
	flags    StatementFlag
	inMeta   *fakeMetadata
	outMeta  *fakeMetadata
	plan     string
	rows     [][]byte        // result set content for openCursor
	execOut  []byte          // output message produced by execute
	info     []byte          // canned getInfo response
	executed [][]byte        // input messages seen by execute/openCursor
	name     string
	freed    bool
	released bool
}

func (s *fakeStatement) getType() (StatementType, error)   { return s.stmtType, nil }
func (s *fakeStatement) getFlags() (StatementFlag, error)  { return s.flags, nil }
func (s *fakeStatement) getPlan(bool) (string, error)      { return s.plan, nil }
func (s *fakeStatement) getAffectedRecords() (int64, error) { return 0, nil }

func (s *fakeStatement) getInputMetadata() (metadataIntf, error) {
	if s.inMeta == nil {
		return newFakeMetadata(), nil
	}
	return s.inMeta, nil
}

func (s *fakeStatement) getOutputMetadata() (metadataIntf, error) {
	if s.outMeta == nil {
		return newFakeMetadata(), nil
	}
	return s.outMeta, nil
}

func (s *fakeStatement) recordInput(inBuf []byte) {
	data := make([]byte, len(inBuf))
	copy(data, inBuf)
	s.executed = append(s.executed, data)
}

func (s *fakeStatement) execute(tra transactionIntf, inMeta metadataIntf, inBuf []byte, outMeta metadataIntf, outBuf []byte) error {
	s.recordInput(inBuf)
	copy(outBuf, s.execOut)
	return nil
}

func (s *fakeStatement) openCursor(tra transactionIntf, inMeta metadataIntf, inBuf []byte, outMeta metadataIntf, flags CursorFlag) (resultSetIntf, error) {
	s.recordInput(inBuf)
	return &fakeResultSet{rows: s.rows}, nil
}

func (s *fakeStatement) setCursorName(name string) error { s.name = name; return nil }
func (s *fakeStatement) getInfo(items []byte) ([]byte, error) {
	return s.info, nil
}
func (s *fakeStatement) free() error  { s.freed = true; return nil }
func (s *fakeStatement) version() int { return ifaceVersionStatement4 }
func (s *fakeStatement) release()     { s.released = true }

// ---------------------------------------------------------------------------
// transaction

type fakeTransaction struct {
	committed  int
	rolledBack int
	retained   int
	consumed   bool
	commitErr  error
}

func (t *fakeTransaction) commit() error {
	if t.commitErr != nil {
		return t.commitErr
	}
	t.committed++
	t.consumed = true
	return nil
}

func (t *fakeTransaction) commitRetaining() error { t.retained++; return nil }

func (t *fakeTransaction) rollback() error {
	t.rolledBack++
	t.consumed = true
	return nil
}

func (t *fakeTransaction) rollbackRetaining() error { t.retained++; return nil }

func (t *fakeTransaction) getInfo(items []byte) ([]byte, error) {
	// transaction id 42
	return infoItem(isc_info_tra_id, int32ToBytes(42)), nil
}

func (t *fakeTransaction) release() {}

// ---------------------------------------------------------------------------
// blob

type fakeBlob struct {
	data     []byte
	segSize  int
	pos      int
	closed   bool
	canceled bool
	released bool
	stream   bool
}

func (b *fakeBlob) getSegment(buf []byte) (int, fetchStatus, error) {
	if b.pos >= len(b.data) {
		return 0, fetchNoData, nil
	}
	n := len(buf)
	if b.segSize > 0 && n > b.segSize {
		n = b.segSize
	}
	if rest := len(b.data) - b.pos; n > rest {
		n = rest
	}
	copy(buf, b.data[b.pos:b.pos+n])
	b.pos += n
	return n, fetchOK, nil
}

func (b *fakeBlob) putSegment(data []byte) error {
	if len(data) > maxBlobSegmentSize {
		return newInterfaceError("segment too large")
	}
	b.data = append(b.data, data...)
	return nil
}

func (b *fakeBlob) getInfo(items []byte) ([]byte, error) {
	var out []byte
	for _, item := range items {
		switch item {
		case isc_info_blob_total_length:
			out = append(out, infoItem(isc_info_blob_total_length, int32ToBytes(int32(len(b.data))))...)
		case isc_info_blob_max_segment:
			out = append(out, infoItem(isc_info_blob_max_segment, int32ToBytes(int32(b.segSize)))...)
		}
	}
	return append(out, isc_info_end), nil
}

func (b *fakeBlob) seek(mode, offset int) (int, error) {
	if !b.stream {
		return 0, &DatabaseError{Message: "invalid BLOB type for operation", SQLState: "HY000"}
	}
	switch mode {
	case blb_seek_from_head:
		b.pos = offset
	case blb_seek_relative:
		b.pos += offset
	case blb_seek_from_tail:
		b.pos = len(b.data) + offset
	}
	return b.pos, nil
}

func (b *fakeBlob) cancel() error { b.canceled = true; return nil }
func (b *fakeBlob) close() error  { b.closed = true; return nil }
func (b *fakeBlob) release()      { b.released = true }

// ---------------------------------------------------------------------------
// events

type fakeEvents struct {
	canceled bool
	released bool
}

func (e *fakeEvents) cancel() error { e.canceled = true; return nil }
func (e *fakeEvents) release()      { e.released = true }

// ---------------------------------------------------------------------------
// attachment

type fakeAttachment struct {
	statements map[string]*fakeStatement
	blobs      map[quadID]*fakeBlob
	nextBlob   byte
	immediate  []string
	trans      []*fakeTransaction

	// event support: the last registered callback and its parameter block
	eventCallback func([]byte)
	eventEPB      []byte
	eventObjs     []*fakeEvents
	queEventsErr  error

	// injected into transactions started afterwards
	commitErr error

	info        []byte
	pinged      bool
	detached    bool
	dropped     bool
	idleSecs    int
	stmtTimeout int
}

func newFakeAttachment() *fakeAttachment {
	return &fakeAttachment{
		statements: make(map[string]*fakeStatement),
		blobs:      make(map[quadID]*fakeBlob),
	}
}

func (a *fakeAttachment) startTransaction(tpb []byte) (transactionIntf, error) {
	t := &fakeTransaction{commitErr: a.commitErr}
	a.trans = append(a.trans, t)
	return t, nil
}

func (a *fakeAttachment) execute(tra transactionIntf, sql string, dialect int) error {
	a.immediate = append(a.immediate, sql)
	return nil
}

func (a *fakeAttachment) prepare(tra transactionIntf, sql string, dialect int) (statementIntf, error) {
	st, ok := a.statements[sql]
	if !ok {
		return nil, &DatabaseError{
			Message:  fmt.Sprintf("Dynamic SQL Error\n-SQL error code = -104\n-Unexpected end of command %q", sql),
			SQLState: "42000",
			SQLCode:  -104,
		}
	}
	return st, nil
}

func (a *fakeAttachment) createBlob(tra transactionIntf, id *quadID, bpb []byte) (blobIntf, error) {
	a.nextBlob++
	*id = quadID{a.nextBlob, 0, 0, 0, 0, 0, 0, 1}
	blob := &fakeBlob{segSize: 4096, stream: isStreamBPB(bpb)}
	a.blobs[*id] = blob
	return blob, nil
}

func (a *fakeAttachment) openBlob(tra transactionIntf, id quadID, bpb []byte) (blobIntf, error) {
	blob, ok := a.blobs[id]
	if !ok {
		return nil, &DatabaseError{Message: "invalid BLOB ID", SQLState: "42000"}
	}
	opened := &fakeBlob{data: blob.data, segSize: blob.segSize, stream: true}
	return opened, nil
}

// isStreamBPB walks the one-byte-length BPB items looking for a stream type
// marker.
func isStreamBPB(bpb []byte) bool {
	if len(bpb) == 0 || bpb[0] != isc_bpb_version1 {
		return false
	}
	pos := 1
	for pos+1 < len(bpb) {
		tag, length := bpb[pos], int(bpb[pos+1])
		if tag == isc_bpb_type && length == 1 && pos+2 < len(bpb) {
			return bpb[pos+2] == isc_bpb_type_stream
		}
		pos += 2 + length
	}
	return false
}

func (a *fakeAttachment) queEvents(callback func([]byte), epb []byte) (eventsIntf, error) {
	if a.queEventsErr != nil {
		return nil, a.queEventsErr
	}
	a.eventCallback = callback
	a.eventEPB = append([]byte(nil), epb...)
	e := &fakeEvents{}
	a.eventObjs = append(a.eventObjs, e)
	return e, nil
}

// deliver simulates an engine notification with the given absolute counts.
func (a *fakeAttachment) deliver(counts map[string]int) {
	names := make([]string, 0, len(counts))
	for name := range parseEPB(a.eventEPB) {
		names = append(names, name)
	}
	a.eventCallback(buildEPB(names, counts))
}

func (a *fakeAttachment) cancelOperation(option int) error { return nil }
func (a *fakeAttachment) ping() error                      { a.pinged = true; return nil }
func (a *fakeAttachment) detach() error                    { a.detached = true; return nil }
func (a *fakeAttachment) dropDatabase() error              { a.dropped = true; return nil }

func (a *fakeAttachment) getInfo(items []byte) ([]byte, error) { return a.info, nil }

func (a *fakeAttachment) idleTimeout() (int, error)        { return a.idleSecs, nil }
func (a *fakeAttachment) setIdleTimeout(s int) error       { a.idleSecs = s; return nil }
func (a *fakeAttachment) statementTimeout() (int, error)   { return a.stmtTimeout, nil }
func (a *fakeAttachment) setStatementTimeout(ms int) error { a.stmtTimeout = ms; return nil }
func (a *fakeAttachment) version() int                     { return ifaceVersionAttachment4 }
func (a *fakeAttachment) release()                         {}

// ---------------------------------------------------------------------------
// array system API

type fakeSystemAPI struct {
	descs  map[string]*arrayDesc      // keyed by relation.field
	slices map[quadID][]byte
	nextID byte
}

func newFakeSystemAPI() *fakeSystemAPI {
	return &fakeSystemAPI{
		descs:  make(map[string]*arrayDesc),
		slices: make(map[quadID][]byte),
	}
}

func (f *fakeSystemAPI) arrayLookupBounds(att attachmentIntf, tra transactionIntf, relation, field string) (*arrayDesc, error) {
	desc, ok := f.descs[relation+"."+field]
	if !ok {
		return nil, &DatabaseError{Message: "array descriptor not found", SQLState: "42000"}
	}
	clone := *desc
	return &clone, nil
}

func (f *fakeSystemAPI) arrayGetSlice(att attachmentIntf, tra transactionIntf, id quadID, desc *arrayDesc, sliceLen int) ([]byte, error) {
	data, ok := f.slices[id]
	if !ok {
		return nil, &DatabaseError{Message: "invalid ARRAY ID", SQLState: "42000"}
	}
	return data, nil
}

func (f *fakeSystemAPI) arrayPutSlice(att attachmentIntf, tra transactionIntf, desc *arrayDesc, data []byte) (quadID, error) {
	f.nextID++
	id := quadID{f.nextID, 0, 0, 0, 0, 0, 0, 2}
	f.slices[id] = append([]byte(nil), data...)
	return id, nil
}

// ---------------------------------------------------------------------------
// helpers

// infoItem encodes one information response item: tag, two byte length,
// data.
func infoItem(tag byte, data []byte) []byte {
	out := []byte{tag, byte(len(data)), byte(len(data) >> 8)}
	return append(out, data...)
}

// testConnection builds a Connection over the fakes.
func testConnection(att *fakeAttachment) *Connection {
	conn, err := newConnection(att, newFakeSystemAPI(), &fakeUtil{zones: []string{"UTC"}}, &ConnectParams{Charset: "UTF8"})
	if err != nil {
		panic(err)
	}
	return conn
}

// testMarshaller builds a marshaller with the fake utility codec.
func testMarshaller(charset string) *marshaller {
	codec, err := newTextCodec(charset)
	if err != nil {
		panic(err)
	}
	return &marshaller{util: &fakeUtil{zones: []string{"UTC"}}, codec: codec, dialect: sqlDialectCurrent}
}
