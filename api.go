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

// The interfaces below are the seam between the driver core and the native
// client library. The purego backed implementations in native.go talk to
// libfbclient through its versioned vtables; the tests substitute in-memory
// fakes. Every blocking method crosses into the native library and may block
// the calling goroutine for the duration of the network round trip.
//
// Methods return errors produced by the status translator in status.go.
// Interfaces obtained from these calls are reference counted by the native
// library; release is idempotent on the wrapper side.

// quadID is the native 8-byte (two word) identifier used for BLOB and ARRAY
// handles, kept in the message-buffer byte order.
type quadID [8]byte

func (q quadID) isNull() bool { return q == quadID{} }

type providerIntf interface {
	attachDatabase(fileName string, dpb []byte) (attachmentIntf, error)
	createDatabase(fileName string, dpb []byte) (attachmentIntf, error)
	release()
}

type attachmentIntf interface {
	startTransaction(tpb []byte) (transactionIntf, error)
	// execute runs a statement without input or output messages
	// (execute immediate).
	execute(tra transactionIntf, sql string, dialect int) error
	prepare(tra transactionIntf, sql string, dialect int) (statementIntf, error)
	// createBlob fills id with the identifier of the new blob.
	createBlob(tra transactionIntf, id *quadID, bpb []byte) (blobIntf, error)
	openBlob(tra transactionIntf, id quadID, bpb []byte) (blobIntf, error)
	// queEvents registers interest in the events encoded in epb. The
	// callback runs on a native thread and must only hand off data.
	queEvents(callback func(result []byte), epb []byte) (eventsIntf, error)
	cancelOperation(option int) error
	ping() error
	detach() error
	dropDatabase() error
	getInfo(items []byte) ([]byte, error)
	idleTimeout() (int, error)
	setIdleTimeout(seconds int) error
	statementTimeout() (int, error)
	setStatementTimeout(milliseconds int) error
	version() int
	release()
}

type transactionIntf interface {
	// commit and rollback consume the native interface on success; the
	// wrapper must not be released afterwards.
	commit() error
	commitRetaining() error
	rollback() error
	rollbackRetaining() error
	getInfo(items []byte) ([]byte, error)
	release()
}

type statementIntf interface {
	getType() (StatementType, error)
	getFlags() (StatementFlag, error)
	getPlan(detailed bool) (string, error)
	getAffectedRecords() (int64, error)
	getInputMetadata() (metadataIntf, error)
	getOutputMetadata() (metadataIntf, error)
	execute(tra transactionIntf, inMeta metadataIntf, inBuf []byte, outMeta metadataIntf, outBuf []byte) error
	openCursor(tra transactionIntf, inMeta metadataIntf, inBuf []byte, outMeta metadataIntf, flags CursorFlag) (resultSetIntf, error)
	setCursorName(name string) error
	getInfo(items []byte) ([]byte, error)
	// free drops the server-side statement handle and consumes the
	// interface.
	free() error
	version() int
	release()
}

type resultSetIntf interface {
	fetchNext(buf []byte) (fetchStatus, error)
	fetchPrior(buf []byte) (fetchStatus, error)
	fetchFirst(buf []byte) (fetchStatus, error)
	fetchLast(buf []byte) (fetchStatus, error)
	fetchAbsolute(position int, buf []byte) (fetchStatus, error)
	fetchRelative(offset int, buf []byte) (fetchStatus, error)
	isEof() (bool, error)
	isBof() (bool, error)
	close() error
	release()
}

// metadataIntf mirrors IMessageMetadata: the self-describing layout of one
// native message buffer. Offsets and null offsets are authoritative, the
// engine controls buffer layout and alignment.
type metadataIntf interface {
	getCount() (int, error)
	getField(index int) (string, error)
	getRelation(index int) (string, error)
	getOwner(index int) (string, error)
	getAlias(index int) (string, error)
	getType(index int) (int, error)
	isNullable(index int) (bool, error)
	getSubType(index int) (int, error)
	getLength(index int) (int, error)
	getScale(index int) (int, error)
	getCharSet(index int) (int, error)
	getOffset(index int) (int, error)
	getNullOffset(index int) (int, error)
	getBuilder() (metadataBuilderIntf, error)
	getMessageLength() (int, error)
	addRef()
	release()
}

type metadataBuilderIntf interface {
	setType(index, sqlType int) error
	setSubType(index, subType int) error
	setLength(index, length int) error
	setCharSet(index, charSet int) error
	setScale(index, scale int) error
	getMetadata() (metadataIntf, error)
	release()
}

type blobIntf interface {
	// getSegment reads up to len(buf) bytes, returning the byte count and
	// whether more data remains (fetchSegment) or the blob is exhausted
	// (fetchNoData).
	getSegment(buf []byte) (int, fetchStatus, error)
	putSegment(data []byte) error
	getInfo(items []byte) ([]byte, error)
	seek(mode, offset int) (int, error)
	cancel() error
	// close consumes the native interface.
	close() error
	release()
}

type eventsIntf interface {
	// cancel revokes the registration and consumes the interface.
	cancel() error
	release()
}

// utilIntf wraps the native utility interface. Date and time codecs embed
// engine epoch and unit conventions and are never reimplemented locally.
type utilIntf interface {
	encodeDate(year, month, day int) int32
	decodeDate(date int32) (year, month, day int)
	encodeTime(hours, minutes, seconds, fractions int) uint32
	decodeTime(tm uint32) (hours, minutes, seconds, fractions int)
	// Zoned variants work on the raw wire representation (8+4 bytes for
	// TIMESTAMP WITH TIME ZONE, 4+4 for TIME WITH TIME ZONE).
	decodeTimestampTZ(data []byte) (year, month, day, hours, minutes, seconds, fractions int, zone string, err error)
	decodeTimeTZ(data []byte) (hours, minutes, seconds, fractions int, zone string, err error)
	encodeTimestampTZ(year, month, day, hours, minutes, seconds, fractions int, zone string) ([]byte, error)
	encodeTimeTZ(hours, minutes, seconds, fractions int, zone string) ([]byte, error)
	clientVersion() int
}

// arrayBound is one dimension of an array column, inclusive on both ends.
type arrayBound struct {
	lower int16
	upper int16
}

// arrayDesc is the live array descriptor queried from the engine. ARRAY
// values carry no self-describing format; the shape always comes from the
// schema.
type arrayDesc struct {
	dtype      byte
	scale      int
	length     int // element byte size as stored in the slice
	field      string
	relation   string
	dimensions []arrayBound
}

// elementCount is the total number of scalar elements in the array.
func (d *arrayDesc) elementCount() int {
	n := 1
	for _, b := range d.dimensions {
		n *= int(b.upper-b.lower) + 1
	}
	return n
}

// dimSizes returns the per-dimension element counts.
func (d *arrayDesc) dimSizes() []int {
	sizes := make([]int, len(d.dimensions))
	for i, b := range d.dimensions {
		sizes[i] = int(b.upper-b.lower) + 1
	}
	return sizes
}

// systemAPI bundles the classic entry points that have no object-oriented
// counterpart: array slice access and handle extraction.
type systemAPI interface {
	arrayLookupBounds(att attachmentIntf, tra transactionIntf, relation, field string) (*arrayDesc, error)
	arrayGetSlice(att attachmentIntf, tra transactionIntf, id quadID, desc *arrayDesc, sliceLen int) ([]byte, error)
	arrayPutSlice(att attachmentIntf, tra transactionIntf, desc *arrayDesc, data []byte) (quadID, error)
}
