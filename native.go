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
	"runtime"
	"strings"
	"sync"
	"sync/atomic"
	"unsafe"

	"github.com/ebitengine/purego"
)

// The object-oriented client API exposes COM-like interfaces: each object is
// {dummy, vtable*} and each vtable is {dummy, version, fn...}. Calls are
// dispatched by slot index through purego.SyscallN. Slot 0 is the vtable
// dummy, slot 1 the version, methods start at slot 2.

const ptrSize = unsafe.Sizeof(uintptr(0))

// Method slot indexes per interface, in declaration order of the native API.
const (
	slotAddRef  = 2
	slotRelease = 3

	statusSlotDispose     = 2
	statusSlotInit        = 3
	statusSlotGetState    = 4
	statusSlotGetErrors   = 9
	statusSlotGetWarnings = 10

	masterSlotGetStatus        = 2
	masterSlotGetDispatcher    = 3
	masterSlotGetUtilInterface = 11

	providerSlotAttachDatabase = 6
	providerSlotCreateDatabase = 7

	attSlotGetInfo             = 4
	attSlotStartTransaction    = 5
	attSlotCreateBlob          = 9
	attSlotOpenBlob            = 10
	attSlotPrepare             = 14
	attSlotExecute             = 15
	attSlotQueEvents           = 17
	attSlotCancelOperation     = 18
	attSlotPing                = 19
	attSlotDetach              = 20
	attSlotDropDatabase        = 21
	attSlotGetIdleTimeout      = 22
	attSlotSetIdleTimeout      = 23
	attSlotGetStatementTimeout = 24
	attSlotSetStatementTimeout = 25

	traSlotGetInfo           = 4
	traSlotCommit            = 6
	traSlotCommitRetaining   = 7
	traSlotRollback          = 8
	traSlotRollbackRetaining = 9

	stmtSlotGetInfo            = 4
	stmtSlotGetType            = 5
	stmtSlotGetPlan            = 6
	stmtSlotGetAffectedRecords = 7
	stmtSlotGetInputMetadata   = 8
	stmtSlotGetOutputMetadata  = 9
	stmtSlotExecute            = 10
	stmtSlotOpenCursor         = 11
	stmtSlotSetCursorName      = 12
	stmtSlotFree               = 13
	stmtSlotGetFlags           = 14

	rsSlotFetchNext     = 4
	rsSlotFetchPrior    = 5
	rsSlotFetchFirst    = 6
	rsSlotFetchLast     = 7
	rsSlotFetchAbsolute = 8
	rsSlotFetchRelative = 9
	rsSlotIsEof         = 10
	rsSlotIsBof         = 11
	rsSlotClose         = 13

	metaSlotGetCount         = 4
	metaSlotGetField         = 5
	metaSlotGetRelation      = 6
	metaSlotGetOwner         = 7
	metaSlotGetAlias         = 8
	metaSlotGetType          = 9
	metaSlotIsNullable       = 10
	metaSlotGetSubType       = 11
	metaSlotGetLength        = 12
	metaSlotGetScale         = 13
	metaSlotGetCharSet       = 14
	metaSlotGetOffset        = 15
	metaSlotGetNullOffset    = 16
	metaSlotGetBuilder       = 17
	metaSlotGetMessageLength = 18

	mbSlotSetType     = 4
	mbSlotSetSubType  = 5
	mbSlotSetLength   = 6
	mbSlotSetCharSet  = 7
	mbSlotSetScale    = 8
	mbSlotGetMetadata = 13

	blobSlotGetInfo    = 4
	blobSlotGetSegment = 5
	blobSlotPutSegment = 6
	blobSlotCancel     = 7
	blobSlotClose      = 8
	blobSlotSeek       = 9

	eventsSlotCancel = 4

	utilSlotDecodeDate        = 7
	utilSlotDecodeTime        = 8
	utilSlotEncodeDate        = 9
	utilSlotEncodeTime        = 10
	utilSlotFormatStatus      = 11
	utilSlotGetClientVersion  = 12
	utilSlotDecodeTimeTz      = 17
	utilSlotDecodeTimeStampTz = 18
	utilSlotEncodeTimeTz      = 19
	utilSlotEncodeTimeStampTz = 20
)

// prepare flag set requesting type, flags and both metadata blocks up front.
const preparePrefetchMetadata = 0x47

const infoBufferSize = 8192

// fetch/getSegment result codes of the native API.
const (
	nativeResultOK      = 0
	nativeResultNoData  = 1
	nativeResultSegment = 2
)

func vtablePtr(obj uintptr) uintptr {
	return *(*uintptr)(unsafe.Pointer(obj + ptrSize))
}

func vtableVersion(obj uintptr) int {
	return int(*(*uintptr)(unsafe.Pointer(vtablePtr(obj) + ptrSize)))
}

// vcall invokes the method in the given vtable slot with obj as this.
func vcall(obj uintptr, slot int, args ...uintptr) uintptr {
	fn := *(*uintptr)(unsafe.Pointer(vtablePtr(obj) + uintptr(slot)*ptrSize))
	callArgs := make([]uintptr, 0, len(args)+1)
	callArgs = append(callArgs, obj)
	callArgs = append(callArgs, args...)
	r1, _, _ := purego.SyscallN(fn, callArgs...)
	return r1
}

func bufPtr(b []byte) uintptr {
	if len(b) == 0 {
		return 0
	}
	return uintptr(unsafe.Pointer(&b[0]))
}

// goString copies a NUL-terminated native string.
func goString(p uintptr) string {
	if p == 0 {
		return ""
	}
	n := 0
	for *(*byte)(unsafe.Pointer(p + uintptr(n))) != 0 {
		n++
	}
	return string(unsafe.Slice((*byte)(unsafe.Pointer(p)), n))
}

func cstr(s string) []byte {
	b := make([]byte, len(s)+1)
	copy(b, s)
	return b
}

// ---------------------------------------------------------------------------
// status objects

// nativeStatus wraps an IStatus instance. Instances are pooled: a status is
// taken per native call and reset before going back, so no two goroutines
// ever share one.
type nativeStatus struct {
	ptr uintptr
}

func (a *fbAPI) getStatus() *nativeStatus {
	if v := a.statusPool.Get(); v != nil {
		return v.(*nativeStatus)
	}
	return &nativeStatus{ptr: vcall(a.master, masterSlotGetStatus)}
}

func (a *fbAPI) putStatus(st *nativeStatus) {
	vcall(st.ptr, statusSlotInit)
	a.statusPool.Put(st)
}

// check translates the status into a driver error, or nil when the call
// succeeded. Warning-only vectors do not fail the call. The status is reset
// after the exception is built so a pooled reuse starts clean.
func (a *fbAPI) check(st *nativeStatus) error {
	state := vcall(st.ptr, statusSlotGetState)
	if state&statusStateErrors == 0 {
		return nil
	}
	msg := a.util.formatStatus(st)
	args := decodeStatusVector(vcall(st.ptr, statusSlotGetErrors))
	vcall(st.ptr, statusSlotInit)
	return buildStatusError(msg, false, args)
}

// decodeStatusVector reads a tagged status vector from native memory,
// resolving pointer arguments into Go strings. The vector ends at
// isc_arg_end; isc_arg_cstring carries two entries (length, pointer), all
// other tags carry one.
func decodeStatusVector(vec uintptr) []statusArg {
	if vec == 0 {
		return nil
	}
	entry := func(i int) uintptr {
		return *(*uintptr)(unsafe.Pointer(vec + uintptr(i)*ptrSize))
	}
	var args []statusArg
	for i := 0; ; {
		tag := int(entry(i))
		i++
		switch tag {
		case isc_arg_end:
			return args
		case isc_arg_string, isc_arg_interpreted, isc_arg_sql_state:
			args = append(args, statusArg{tag: tag, str: goString(entry(i))})
			i++
		case isc_arg_cstring:
			n := int(entry(i))
			p := entry(i + 1)
			i += 2
			var s string
			if p != 0 && n > 0 {
				s = string(unsafe.Slice((*byte)(unsafe.Pointer(p)), n))
			}
			args = append(args, statusArg{tag: tag, str: s})
		default:
			args = append(args, statusArg{tag: tag, num: int64(int(entry(i)))})
			i++
		}
		if len(args) > 64 {
			// runaway vector, stop rather than walk random memory
			return args
		}
	}
}

// ---------------------------------------------------------------------------
// reference counting

// refCounted is the common part of every wrapper over a reference counted
// native interface. release is idempotent; methods that consume the native
// interface (commit, free, close, cancel) mark it released on success.
type refCounted struct {
	api      *fbAPI
	ptr      uintptr
	released atomic.Bool
}

func (r *refCounted) addRef() {
	if r.ptr != 0 && !r.released.Load() {
		vcall(r.ptr, slotAddRef)
	}
}

func (r *refCounted) release() {
	if r.ptr != 0 && r.released.CompareAndSwap(false, true) {
		vcall(r.ptr, slotRelease)
	}
}

// consumed marks the native interface as gone without releasing it, used
// after calls that destroy the interface themselves.
func (r *refCounted) consumed() {
	r.released.Store(true)
}

func (r *refCounted) getInfo(slot int, items []byte) ([]byte, error) {
	st := r.api.getStatus()
	defer r.api.putStatus(st)
	buf := make([]byte, infoBufferSize)
	vcall(r.ptr, slot, st.ptr, uintptr(len(items)), bufPtr(items), uintptr(len(buf)), bufPtr(buf))
	if err := r.api.check(st); err != nil {
		return nil, err
	}
	runtime.KeepAlive(items)
	return buf, nil
}

// ---------------------------------------------------------------------------
// provider

type nativeProvider struct {
	refCounted
}

func (p *nativeProvider) attachDatabase(fileName string, dpb []byte) (attachmentIntf, error) {
	return p.attach(providerSlotAttachDatabase, fileName, dpb)
}

func (p *nativeProvider) createDatabase(fileName string, dpb []byte) (attachmentIntf, error) {
	return p.attach(providerSlotCreateDatabase, fileName, dpb)
}

func (p *nativeProvider) attach(slot int, fileName string, dpb []byte) (attachmentIntf, error) {
	st := p.api.getStatus()
	defer p.api.putStatus(st)
	name := cstr(fileName)
	ptr := vcall(p.ptr, slot, st.ptr, bufPtr(name), uintptr(len(dpb)), bufPtr(dpb))
	if err := p.api.check(st); err != nil {
		return nil, err
	}
	runtime.KeepAlive(name)
	runtime.KeepAlive(dpb)
	return &nativeAttachment{
		refCounted: refCounted{api: p.api, ptr: ptr},
		ver:        vtableVersion(ptr),
	}, nil
}

// ---------------------------------------------------------------------------
// attachment

type nativeAttachment struct {
	refCounted
	ver int
}

func (a *nativeAttachment) version() int { return a.ver }

func (a *nativeAttachment) startTransaction(tpb []byte) (transactionIntf, error) {
	st := a.api.getStatus()
	defer a.api.putStatus(st)
	ptr := vcall(a.ptr, attSlotStartTransaction, st.ptr, uintptr(len(tpb)), bufPtr(tpb))
	if err := a.api.check(st); err != nil {
		return nil, err
	}
	runtime.KeepAlive(tpb)
	return &nativeTransaction{refCounted{api: a.api, ptr: ptr}}, nil
}

func (a *nativeAttachment) execute(tra transactionIntf, sql string, dialect int) error {
	st := a.api.getStatus()
	defer a.api.putStatus(st)
	stmt := []byte(sql)
	vcall(a.ptr, attSlotExecute, st.ptr, traPtr(tra), uintptr(len(stmt)), bufPtr(stmt),
		uintptr(dialect), 0, 0, 0, 0)
	runtime.KeepAlive(stmt)
	return a.api.check(st)
}

func (a *nativeAttachment) prepare(tra transactionIntf, sql string, dialect int) (statementIntf, error) {
	st := a.api.getStatus()
	defer a.api.putStatus(st)
	stmt := []byte(sql)
	ptr := vcall(a.ptr, attSlotPrepare, st.ptr, traPtr(tra), uintptr(len(stmt)), bufPtr(stmt),
		uintptr(dialect), preparePrefetchMetadata)
	if err := a.api.check(st); err != nil {
		return nil, err
	}
	runtime.KeepAlive(stmt)
	return &nativeStatement{
		refCounted: refCounted{api: a.api, ptr: ptr},
		ver:        vtableVersion(ptr),
	}, nil
}

func (a *nativeAttachment) createBlob(tra transactionIntf, id *quadID, bpb []byte) (blobIntf, error) {
	st := a.api.getStatus()
	defer a.api.putStatus(st)
	ptr := vcall(a.ptr, attSlotCreateBlob, st.ptr, traPtr(tra),
		uintptr(unsafe.Pointer(id)), uintptr(len(bpb)), bufPtr(bpb))
	if err := a.api.check(st); err != nil {
		return nil, err
	}
	runtime.KeepAlive(bpb)
	return &nativeBlob{refCounted{api: a.api, ptr: ptr}}, nil
}

func (a *nativeAttachment) openBlob(tra transactionIntf, id quadID, bpb []byte) (blobIntf, error) {
	st := a.api.getStatus()
	defer a.api.putStatus(st)
	ptr := vcall(a.ptr, attSlotOpenBlob, st.ptr, traPtr(tra),
		uintptr(unsafe.Pointer(&id)), uintptr(len(bpb)), bufPtr(bpb))
	if err := a.api.check(st); err != nil {
		return nil, err
	}
	runtime.KeepAlive(bpb)
	return &nativeBlob{refCounted{api: a.api, ptr: ptr}}, nil
}

func (a *nativeAttachment) queEvents(callback func(result []byte), epb []byte) (eventsIntf, error) {
	cb := newEventCallback(callback)
	st := a.api.getStatus()
	defer a.api.putStatus(st)
	ptr := vcall(a.ptr, attSlotQueEvents, st.ptr, cb.objPtr(), uintptr(len(epb)), bufPtr(epb))
	err := a.api.check(st)
	// the engine holds its own reference now (or never took one on error)
	cb.unref()
	if err != nil {
		return nil, err
	}
	runtime.KeepAlive(epb)
	return &nativeEvents{refCounted{api: a.api, ptr: ptr}}, nil
}

func (a *nativeAttachment) cancelOperation(option int) error {
	st := a.api.getStatus()
	defer a.api.putStatus(st)
	vcall(a.ptr, attSlotCancelOperation, st.ptr, uintptr(option))
	return a.api.check(st)
}

func (a *nativeAttachment) ping() error {
	st := a.api.getStatus()
	defer a.api.putStatus(st)
	vcall(a.ptr, attSlotPing, st.ptr)
	return a.api.check(st)
}

func (a *nativeAttachment) detach() error {
	st := a.api.getStatus()
	defer a.api.putStatus(st)
	vcall(a.ptr, attSlotDetach, st.ptr)
	if err := a.api.check(st); err != nil {
		return err
	}
	a.consumed()
	return nil
}

func (a *nativeAttachment) dropDatabase() error {
	st := a.api.getStatus()
	defer a.api.putStatus(st)
	vcall(a.ptr, attSlotDropDatabase, st.ptr)
	if err := a.api.check(st); err != nil {
		return err
	}
	a.consumed()
	return nil
}

func (a *nativeAttachment) getInfo(items []byte) ([]byte, error) {
	return a.refCounted.getInfo(attSlotGetInfo, items)
}

func (a *nativeAttachment) idleTimeout() (int, error) {
	if a.ver < ifaceVersionAttachment4 {
		return 0, newInterfaceError("connection timeouts require Firebird 4 client library")
	}
	st := a.api.getStatus()
	defer a.api.putStatus(st)
	r := vcall(a.ptr, attSlotGetIdleTimeout, st.ptr)
	if err := a.api.check(st); err != nil {
		return 0, err
	}
	return int(uint32(r)), nil
}

func (a *nativeAttachment) setIdleTimeout(seconds int) error {
	if a.ver < ifaceVersionAttachment4 {
		return newInterfaceError("connection timeouts require Firebird 4 client library")
	}
	st := a.api.getStatus()
	defer a.api.putStatus(st)
	vcall(a.ptr, attSlotSetIdleTimeout, st.ptr, uintptr(seconds))
	return a.api.check(st)
}

func (a *nativeAttachment) statementTimeout() (int, error) {
	if a.ver < ifaceVersionAttachment4 {
		return 0, newInterfaceError("statement timeouts require Firebird 4 client library")
	}
	st := a.api.getStatus()
	defer a.api.putStatus(st)
	r := vcall(a.ptr, attSlotGetStatementTimeout, st.ptr)
	if err := a.api.check(st); err != nil {
		return 0, err
	}
	return int(uint32(r)), nil
}

func (a *nativeAttachment) setStatementTimeout(milliseconds int) error {
	if a.ver < ifaceVersionAttachment4 {
		return newInterfaceError("statement timeouts require Firebird 4 client library")
	}
	st := a.api.getStatus()
	defer a.api.putStatus(st)
	vcall(a.ptr, attSlotSetStatementTimeout, st.ptr, uintptr(milliseconds))
	return a.api.check(st)
}

// ---------------------------------------------------------------------------
// transaction

type nativeTransaction struct {
	refCounted
}

func traPtr(t transactionIntf) uintptr {
	if t == nil {
		return 0
	}
	return t.(*nativeTransaction).ptr
}

func (t *nativeTransaction) endCall(slot int, consume bool) error {
	st := t.api.getStatus()
	defer t.api.putStatus(st)
	vcall(t.ptr, slot, st.ptr)
	if err := t.api.check(st); err != nil {
		return err
	}
	if consume {
		t.consumed()
	}
	return nil
}

func (t *nativeTransaction) commit() error   { return t.endCall(traSlotCommit, true) }
func (t *nativeTransaction) rollback() error { return t.endCall(traSlotRollback, true) }
func (t *nativeTransaction) commitRetaining() error {
	return t.endCall(traSlotCommitRetaining, false)
}
func (t *nativeTransaction) rollbackRetaining() error {
	return t.endCall(traSlotRollbackRetaining, false)
}

func (t *nativeTransaction) getInfo(items []byte) ([]byte, error) {
	return t.refCounted.getInfo(traSlotGetInfo, items)
}

// ---------------------------------------------------------------------------
// statement

type nativeStatement struct {
	refCounted
	ver int
}

func (s *nativeStatement) version() int { return s.ver }

func (s *nativeStatement) getType() (StatementType, error) {
	st := s.api.getStatus()
	defer s.api.putStatus(st)
	r := vcall(s.ptr, stmtSlotGetType, st.ptr)
	if err := s.api.check(st); err != nil {
		return 0, err
	}
	return StatementType(uint32(r)), nil
}

func (s *nativeStatement) getFlags() (StatementFlag, error) {
	st := s.api.getStatus()
	defer s.api.putStatus(st)
	r := vcall(s.ptr, stmtSlotGetFlags, st.ptr)
	if err := s.api.check(st); err != nil {
		return 0, err
	}
	return StatementFlag(uint32(r)), nil
}

func (s *nativeStatement) getPlan(detailed bool) (string, error) {
	st := s.api.getStatus()
	defer s.api.putStatus(st)
	var d uintptr
	if detailed {
		d = 1
	}
	r := vcall(s.ptr, stmtSlotGetPlan, st.ptr, d)
	if err := s.api.check(st); err != nil {
		return "", err
	}
	return goString(r), nil
}

func (s *nativeStatement) getAffectedRecords() (int64, error) {
	st := s.api.getStatus()
	defer s.api.putStatus(st)
	r := vcall(s.ptr, stmtSlotGetAffectedRecords, st.ptr)
	if err := s.api.check(st); err != nil {
		return 0, err
	}
	return int64(r), nil
}

func (s *nativeStatement) metadata(slot int) (metadataIntf, error) {
	st := s.api.getStatus()
	defer s.api.putStatus(st)
	ptr := vcall(s.ptr, slot, st.ptr)
	if err := s.api.check(st); err != nil {
		return nil, err
	}
	if ptr == 0 {
		return nil, nil
	}
	return &nativeMetadata{refCounted{api: s.api, ptr: ptr}}, nil
}

func (s *nativeStatement) getInputMetadata() (metadataIntf, error) {
	return s.metadata(stmtSlotGetInputMetadata)
}

func (s *nativeStatement) getOutputMetadata() (metadataIntf, error) {
	return s.metadata(stmtSlotGetOutputMetadata)
}

func metaPtr(m metadataIntf) uintptr {
	if m == nil {
		return 0
	}
	return m.(*nativeMetadata).ptr
}

func (s *nativeStatement) execute(tra transactionIntf, inMeta metadataIntf, inBuf []byte, outMeta metadataIntf, outBuf []byte) error {
	st := s.api.getStatus()
	defer s.api.putStatus(st)
	vcall(s.ptr, stmtSlotExecute, st.ptr, traPtr(tra),
		metaPtr(inMeta), bufPtr(inBuf), metaPtr(outMeta), bufPtr(outBuf))
	runtime.KeepAlive(inBuf)
	runtime.KeepAlive(outBuf)
	return s.api.check(st)
}

func (s *nativeStatement) openCursor(tra transactionIntf, inMeta metadataIntf, inBuf []byte, outMeta metadataIntf, flags CursorFlag) (resultSetIntf, error) {
	st := s.api.getStatus()
	defer s.api.putStatus(st)
	ptr := vcall(s.ptr, stmtSlotOpenCursor, st.ptr, traPtr(tra),
		metaPtr(inMeta), bufPtr(inBuf), metaPtr(outMeta), uintptr(flags))
	if err := s.api.check(st); err != nil {
		return nil, err
	}
	runtime.KeepAlive(inBuf)
	return &nativeResultSet{refCounted{api: s.api, ptr: ptr}}, nil
}

func (s *nativeStatement) setCursorName(name string) error {
	st := s.api.getStatus()
	defer s.api.putStatus(st)
	n := cstr(name)
	vcall(s.ptr, stmtSlotSetCursorName, st.ptr, bufPtr(n))
	runtime.KeepAlive(n)
	return s.api.check(st)
}

func (s *nativeStatement) getInfo(items []byte) ([]byte, error) {
	return s.refCounted.getInfo(stmtSlotGetInfo, items)
}

func (s *nativeStatement) free() error {
	st := s.api.getStatus()
	defer s.api.putStatus(st)
	vcall(s.ptr, stmtSlotFree, st.ptr)
	if err := s.api.check(st); err != nil {
		return err
	}
	s.consumed()
	return nil
}

// ---------------------------------------------------------------------------
// result set

type nativeResultSet struct {
	refCounted
}

func (rs *nativeResultSet) fetch(slot int, buf []byte, extra ...uintptr) (fetchStatus, error) {
	st := rs.api.getStatus()
	defer rs.api.putStatus(st)
	args := append([]uintptr{st.ptr}, extra...)
	args = append(args, bufPtr(buf))
	r := vcall(rs.ptr, slot, args...)
	if err := rs.api.check(st); err != nil {
		return fetchNoData, err
	}
	runtime.KeepAlive(buf)
	switch int32(r) {
	case nativeResultNoData:
		return fetchNoData, nil
	case nativeResultSegment:
		return fetchSegment, nil
	default:
		return fetchOK, nil
	}
}

func (rs *nativeResultSet) fetchNext(buf []byte) (fetchStatus, error) {
	return rs.fetch(rsSlotFetchNext, buf)
}

func (rs *nativeResultSet) fetchPrior(buf []byte) (fetchStatus, error) {
	return rs.fetch(rsSlotFetchPrior, buf)
}

func (rs *nativeResultSet) fetchFirst(buf []byte) (fetchStatus, error) {
	return rs.fetch(rsSlotFetchFirst, buf)
}

func (rs *nativeResultSet) fetchLast(buf []byte) (fetchStatus, error) {
	return rs.fetch(rsSlotFetchLast, buf)
}

func (rs *nativeResultSet) fetchAbsolute(position int, buf []byte) (fetchStatus, error) {
	return rs.fetch(rsSlotFetchAbsolute, buf, uintptr(position))
}

func (rs *nativeResultSet) fetchRelative(offset int, buf []byte) (fetchStatus, error) {
	return rs.fetch(rsSlotFetchRelative, buf, uintptr(offset))
}

func (rs *nativeResultSet) boolCall(slot int) (bool, error) {
	st := rs.api.getStatus()
	defer rs.api.putStatus(st)
	r := vcall(rs.ptr, slot, st.ptr)
	if err := rs.api.check(st); err != nil {
		return false, err
	}
	return byte(r) != 0, nil
}

func (rs *nativeResultSet) isEof() (bool, error) { return rs.boolCall(rsSlotIsEof) }
func (rs *nativeResultSet) isBof() (bool, error) { return rs.boolCall(rsSlotIsBof) }

func (rs *nativeResultSet) close() error {
	st := rs.api.getStatus()
	defer rs.api.putStatus(st)
	vcall(rs.ptr, rsSlotClose, st.ptr)
	if err := rs.api.check(st); err != nil {
		return err
	}
	rs.consumed()
	return nil
}

// ---------------------------------------------------------------------------
// message metadata

type nativeMetadata struct {
	refCounted
}

func (m *nativeMetadata) intCall(slot int, args ...uintptr) (uintptr, error) {
	st := m.api.getStatus()
	defer m.api.putStatus(st)
	callArgs := append([]uintptr{st.ptr}, args...)
	r := vcall(m.ptr, slot, callArgs...)
	if err := m.api.check(st); err != nil {
		return 0, err
	}
	return r, nil
}

func (m *nativeMetadata) strCall(slot int, index int) (string, error) {
	r, err := m.intCall(slot, uintptr(index))
	if err != nil {
		return "", err
	}
	return goString(r), nil
}

func (m *nativeMetadata) getCount() (int, error) {
	r, err := m.intCall(metaSlotGetCount)
	return int(uint32(r)), err
}

func (m *nativeMetadata) getField(index int) (string, error) {
	return m.strCall(metaSlotGetField, index)
}

func (m *nativeMetadata) getRelation(index int) (string, error) {
	return m.strCall(metaSlotGetRelation, index)
}

func (m *nativeMetadata) getOwner(index int) (string, error) {
	return m.strCall(metaSlotGetOwner, index)
}

func (m *nativeMetadata) getAlias(index int) (string, error) {
	return m.strCall(metaSlotGetAlias, index)
}

func (m *nativeMetadata) getType(index int) (int, error) {
	r, err := m.intCall(metaSlotGetType, uintptr(index))
	return int(uint32(r)), err
}

func (m *nativeMetadata) isNullable(index int) (bool, error) {
	r, err := m.intCall(metaSlotIsNullable, uintptr(index))
	return byte(r) != 0, err
}

func (m *nativeMetadata) getSubType(index int) (int, error) {
	r, err := m.intCall(metaSlotGetSubType, uintptr(index))
	return int(int32(r)), err
}

func (m *nativeMetadata) getLength(index int) (int, error) {
	r, err := m.intCall(metaSlotGetLength, uintptr(index))
	return int(uint32(r)), err
}

func (m *nativeMetadata) getScale(index int) (int, error) {
	r, err := m.intCall(metaSlotGetScale, uintptr(index))
	return int(int32(r)), err
}

func (m *nativeMetadata) getCharSet(index int) (int, error) {
	r, err := m.intCall(metaSlotGetCharSet, uintptr(index))
	return int(uint32(r)), err
}

func (m *nativeMetadata) getOffset(index int) (int, error) {
	r, err := m.intCall(metaSlotGetOffset, uintptr(index))
	return int(uint32(r)), err
}

func (m *nativeMetadata) getNullOffset(index int) (int, error) {
	r, err := m.intCall(metaSlotGetNullOffset, uintptr(index))
	return int(uint32(r)), err
}

func (m *nativeMetadata) getBuilder() (metadataBuilderIntf, error) {
	r, err := m.intCall(metaSlotGetBuilder)
	if err != nil {
		return nil, err
	}
	return &nativeMetadataBuilder{refCounted{api: m.api, ptr: r}}, nil
}

func (m *nativeMetadata) getMessageLength() (int, error) {
	r, err := m.intCall(metaSlotGetMessageLength)
	return int(uint32(r)), err
}

// ---------------------------------------------------------------------------
// metadata builder

type nativeMetadataBuilder struct {
	refCounted
}

func (b *nativeMetadataBuilder) setCall(slot, index, value int) error {
	st := b.api.getStatus()
	defer b.api.putStatus(st)
	vcall(b.ptr, slot, st.ptr, uintptr(index), uintptr(value))
	return b.api.check(st)
}

func (b *nativeMetadataBuilder) setType(index, sqlType int) error {
	return b.setCall(mbSlotSetType, index, sqlType)
}

func (b *nativeMetadataBuilder) setSubType(index, subType int) error {
	return b.setCall(mbSlotSetSubType, index, subType)
}

func (b *nativeMetadataBuilder) setLength(index, length int) error {
	return b.setCall(mbSlotSetLength, index, length)
}

func (b *nativeMetadataBuilder) setCharSet(index, charSet int) error {
	return b.setCall(mbSlotSetCharSet, index, charSet)
}

func (b *nativeMetadataBuilder) setScale(index, scale int) error {
	return b.setCall(mbSlotSetScale, index, scale)
}

func (b *nativeMetadataBuilder) getMetadata() (metadataIntf, error) {
	st := b.api.getStatus()
	defer b.api.putStatus(st)
	ptr := vcall(b.ptr, mbSlotGetMetadata, st.ptr)
	if err := b.api.check(st); err != nil {
		return nil, err
	}
	return &nativeMetadata{refCounted{api: b.api, ptr: ptr}}, nil
}

// ---------------------------------------------------------------------------
// blob

type nativeBlob struct {
	refCounted
}

func (b *nativeBlob) getSegment(buf []byte) (int, fetchStatus, error) {
	st := b.api.getStatus()
	defer b.api.putStatus(st)
	var segLen uint32
	r := vcall(b.ptr, blobSlotGetSegment, st.ptr, uintptr(len(buf)), bufPtr(buf),
		uintptr(unsafe.Pointer(&segLen)))
	if err := b.api.check(st); err != nil {
		return 0, fetchNoData, err
	}
	runtime.KeepAlive(buf)
	switch int32(r) {
	case nativeResultNoData:
		return int(segLen), fetchNoData, nil
	case nativeResultSegment:
		return int(segLen), fetchSegment, nil
	default:
		return int(segLen), fetchOK, nil
	}
}

func (b *nativeBlob) putSegment(data []byte) error {
	st := b.api.getStatus()
	defer b.api.putStatus(st)
	vcall(b.ptr, blobSlotPutSegment, st.ptr, uintptr(len(data)), bufPtr(data))
	runtime.KeepAlive(data)
	return b.api.check(st)
}

func (b *nativeBlob) getInfo(items []byte) ([]byte, error) {
	return b.refCounted.getInfo(blobSlotGetInfo, items)
}

func (b *nativeBlob) seek(mode, offset int) (int, error) {
	st := b.api.getStatus()
	defer b.api.putStatus(st)
	r := vcall(b.ptr, blobSlotSeek, st.ptr, uintptr(mode), uintptr(offset))
	if err := b.api.check(st); err != nil {
		return 0, err
	}
	return int(int32(r)), nil
}

func (b *nativeBlob) cancel() error {
	st := b.api.getStatus()
	defer b.api.putStatus(st)
	vcall(b.ptr, blobSlotCancel, st.ptr)
	if err := b.api.check(st); err != nil {
		return err
	}
	b.consumed()
	return nil
}

func (b *nativeBlob) close() error {
	st := b.api.getStatus()
	defer b.api.putStatus(st)
	vcall(b.ptr, blobSlotClose, st.ptr)
	if err := b.api.check(st); err != nil {
		return err
	}
	b.consumed()
	return nil
}

// ---------------------------------------------------------------------------
// events

type nativeEvents struct {
	refCounted
}

func (e *nativeEvents) cancel() error {
	st := e.api.getStatus()
	defer e.api.putStatus(st)
	vcall(e.ptr, eventsSlotCancel, st.ptr)
	if err := e.api.check(st); err != nil {
		return err
	}
	e.consumed()
	return nil
}

// ---------------------------------------------------------------------------
// event callback object exported to the native library

// eventCallbackObject and eventCallbackVTable replicate the native object
// layout. Objects are pinned for as long as the engine may call back into
// them; the three vtable functions are created once per process because
// purego callbacks are a finite resource.
type eventCallbackObject struct {
	dummy  uintptr
	vtable *eventCallbackVTable
}

type eventCallbackVTable struct {
	dummy    uintptr
	version  uintptr
	addRef   uintptr
	release  uintptr
	callback uintptr
}

type nativeEventCallback struct {
	obj     *eventCallbackObject
	pin     runtime.Pinner
	handler func([]byte)
	refs    int32
}

var (
	eventCbOnce   sync.Once
	eventCbPin    runtime.Pinner
	eventCbVTable *eventCallbackVTable
	eventCbMu     sync.Mutex
	eventCbMap    = map[uintptr]*nativeEventCallback{}
)

func initEventCallbackVTable() {
	vt := &eventCallbackVTable{version: ifaceVersionEvents}
	vt.addRef = purego.NewCallback(func(this uintptr) uintptr {
		eventCbMu.Lock()
		defer eventCbMu.Unlock()
		if cb := eventCbMap[this]; cb != nil {
			cb.refs++
		}
		return 0
	})
	vt.release = purego.NewCallback(func(this uintptr) uintptr {
		eventCbMu.Lock()
		defer eventCbMu.Unlock()
		cb := eventCbMap[this]
		if cb == nil {
			return 0
		}
		cb.refs--
		if cb.refs <= 0 {
			delete(eventCbMap, this)
			cb.pin.Unpin()
			return 0
		}
		return uintptr(cb.refs)
	})
	vt.callback = purego.NewCallback(func(this, length, events uintptr) uintptr {
		eventCbMu.Lock()
		cb := eventCbMap[this]
		eventCbMu.Unlock()
		if cb == nil || length == 0 || events == 0 {
			return 0
		}
		data := make([]byte, length)
		copy(data, unsafe.Slice((*byte)(unsafe.Pointer(events)), length))
		cb.handler(data)
		return 0
	})
	eventCbPin.Pin(vt)
	eventCbVTable = vt
}

// newEventCallback returns a callback object with one local reference held.
func newEventCallback(handler func([]byte)) *nativeEventCallback {
	eventCbOnce.Do(initEventCallbackVTable)
	cb := &nativeEventCallback{handler: handler, refs: 1}
	cb.obj = &eventCallbackObject{vtable: eventCbVTable}
	cb.pin.Pin(cb.obj)
	eventCbMu.Lock()
	eventCbMap[cb.objPtr()] = cb
	eventCbMu.Unlock()
	return cb
}

func (cb *nativeEventCallback) objPtr() uintptr {
	return uintptr(unsafe.Pointer(cb.obj))
}

// unref drops the local reference taken at construction.
func (cb *nativeEventCallback) unref() {
	eventCbMu.Lock()
	defer eventCbMu.Unlock()
	cb.refs--
	if cb.refs <= 0 {
		delete(eventCbMap, cb.objPtr())
		cb.pin.Unpin()
	}
}

// ---------------------------------------------------------------------------
// util

type nativeUtil struct {
	api *fbAPI
	ptr uintptr
}

func (u *nativeUtil) formatStatus(st *nativeStatus) string {
	buf := make([]byte, 4096)
	n := vcall(u.ptr, utilSlotFormatStatus, bufPtr(buf), uintptr(len(buf)), st.ptr)
	if int(n) <= 0 || int(n) > len(buf) {
		return ""
	}
	return string(buf[:n])
}

func (u *nativeUtil) encodeDate(year, month, day int) int32 {
	r := vcall(u.ptr, utilSlotEncodeDate, uintptr(year), uintptr(month), uintptr(day))
	return int32(uint32(r))
}

func (u *nativeUtil) decodeDate(date int32) (int, int, int) {
	var y, m, d uint32
	vcall(u.ptr, utilSlotDecodeDate, uintptr(int(date)),
		uintptr(unsafe.Pointer(&y)), uintptr(unsafe.Pointer(&m)), uintptr(unsafe.Pointer(&d)))
	return int(y), int(m), int(d)
}

func (u *nativeUtil) encodeTime(hours, minutes, seconds, fractions int) uint32 {
	r := vcall(u.ptr, utilSlotEncodeTime,
		uintptr(hours), uintptr(minutes), uintptr(seconds), uintptr(fractions))
	return uint32(r)
}

func (u *nativeUtil) decodeTime(tm uint32) (int, int, int, int) {
	var h, m, s, f uint32
	vcall(u.ptr, utilSlotDecodeTime, uintptr(tm),
		uintptr(unsafe.Pointer(&h)), uintptr(unsafe.Pointer(&m)),
		uintptr(unsafe.Pointer(&s)), uintptr(unsafe.Pointer(&f)))
	return int(h), int(m), int(s), int(f)
}

func (u *nativeUtil) decodeTimestampTZ(data []byte) (int, int, int, int, int, int, int, string, error) {
	var raw [12]byte
	copy(raw[:], data)
	st := u.api.getStatus()
	defer u.api.putStatus(st)
	var y, mo, d, h, mi, s, f uint32
	var zone [64]byte
	vcall(u.ptr, utilSlotDecodeTimeStampTz, st.ptr, uintptr(unsafe.Pointer(&raw[0])),
		uintptr(unsafe.Pointer(&y)), uintptr(unsafe.Pointer(&mo)), uintptr(unsafe.Pointer(&d)),
		uintptr(unsafe.Pointer(&h)), uintptr(unsafe.Pointer(&mi)),
		uintptr(unsafe.Pointer(&s)), uintptr(unsafe.Pointer(&f)),
		uintptr(len(zone)), uintptr(unsafe.Pointer(&zone[0])))
	if err := u.api.check(st); err != nil {
		return 0, 0, 0, 0, 0, 0, 0, "", err
	}
	return int(y), int(mo), int(d), int(h), int(mi), int(s), int(f), zoneString(zone[:]), nil
}

func (u *nativeUtil) decodeTimeTZ(data []byte) (int, int, int, int, string, error) {
	var raw [8]byte
	copy(raw[:], data)
	st := u.api.getStatus()
	defer u.api.putStatus(st)
	var h, mi, s, f uint32
	var zone [64]byte
	vcall(u.ptr, utilSlotDecodeTimeTz, st.ptr, uintptr(unsafe.Pointer(&raw[0])),
		uintptr(unsafe.Pointer(&h)), uintptr(unsafe.Pointer(&mi)),
		uintptr(unsafe.Pointer(&s)), uintptr(unsafe.Pointer(&f)),
		uintptr(len(zone)), uintptr(unsafe.Pointer(&zone[0])))
	if err := u.api.check(st); err != nil {
		return 0, 0, 0, 0, "", err
	}
	return int(h), int(mi), int(s), int(f), zoneString(zone[:]), nil
}

func (u *nativeUtil) encodeTimestampTZ(year, month, day, hours, minutes, seconds, fractions int, zone string) ([]byte, error) {
	st := u.api.getStatus()
	defer u.api.putStatus(st)
	var raw [12]byte
	z := cstr(zone)
	vcall(u.ptr, utilSlotEncodeTimeStampTz, st.ptr, uintptr(unsafe.Pointer(&raw[0])),
		uintptr(year), uintptr(month), uintptr(day),
		uintptr(hours), uintptr(minutes), uintptr(seconds), uintptr(fractions),
		bufPtr(z))
	if err := u.api.check(st); err != nil {
		return nil, err
	}
	runtime.KeepAlive(z)
	return raw[:], nil
}

func (u *nativeUtil) encodeTimeTZ(hours, minutes, seconds, fractions int, zone string) ([]byte, error) {
	st := u.api.getStatus()
	defer u.api.putStatus(st)
	var raw [8]byte
	z := cstr(zone)
	vcall(u.ptr, utilSlotEncodeTimeTz, st.ptr, uintptr(unsafe.Pointer(&raw[0])),
		uintptr(hours), uintptr(minutes), uintptr(seconds), uintptr(fractions),
		bufPtr(z))
	if err := u.api.check(st); err != nil {
		return nil, err
	}
	runtime.KeepAlive(z)
	return raw[:], nil
}

func (u *nativeUtil) clientVersion() int {
	return int(vcall(u.ptr, utilSlotGetClientVersion))
}

func zoneString(b []byte) string {
	if i := strings.IndexByte(string(b), 0); i >= 0 {
		return string(b[:i])
	}
	return string(b)
}

// ---------------------------------------------------------------------------
// classic entry points (arrays, handles)

// iscArrayDescRaw mirrors the C ISC_ARRAY_DESC layout.
type iscArrayDescRaw struct {
	dtype        uint8
	scale        uint8
	length       uint16
	fieldName    [32]byte
	relationName [32]byte
	dimensions   int16
	flags        int16
	bounds       [16]arrayBound
}

func (a *fbAPI) attHandle(att attachmentIntf) (uint32, error) {
	na, ok := att.(*nativeAttachment)
	if !ok {
		return 0, newInterfaceError("array access requires a native attachment")
	}
	var vec [20]uintptr
	var h uint32
	a.getDatabaseHandle(unsafe.Pointer(&vec[0]), unsafe.Pointer(&h), na.ptr)
	if vec[1] != 0 {
		return 0, a.classicError(&vec)
	}
	return h, nil
}

func (a *fbAPI) traHandle(tra transactionIntf) (uint32, error) {
	nt, ok := tra.(*nativeTransaction)
	if !ok {
		return 0, newInterfaceError("array access requires a native transaction")
	}
	var vec [20]uintptr
	var h uint32
	a.getTransactionHandle(unsafe.Pointer(&vec[0]), unsafe.Pointer(&h), nt.ptr)
	if vec[1] != 0 {
		return 0, a.classicError(&vec)
	}
	return h, nil
}

// classicError formats and translates an old-style status vector.
func (a *fbAPI) classicError(vec *[20]uintptr) error {
	var sb strings.Builder
	msg := make([]byte, 512)
	p := uintptr(unsafe.Pointer(&vec[0]))
	for {
		n := a.interpret(unsafe.Pointer(&msg[0]), uint32(len(msg)), unsafe.Pointer(&p))
		if n <= 0 {
			break
		}
		if sb.Len() > 0 {
			sb.WriteString("\n- ")
		}
		sb.Write(msg[:n])
	}
	args := decodeStatusVector(uintptr(unsafe.Pointer(&vec[0])))
	return buildStatusError(sb.String(), false, args)
}

func cname(b []byte) string {
	s := zoneString(b)
	return strings.TrimRight(s, " ")
}

func (a *fbAPI) arrayLookupBounds(att attachmentIntf, tra transactionIntf, relation, field string) (*arrayDesc, error) {
	db, err := a.attHandle(att)
	if err != nil {
		return nil, err
	}
	tr, err := a.traHandle(tra)
	if err != nil {
		return nil, err
	}
	var vec [20]uintptr
	var raw iscArrayDescRaw
	rel := cstr(relation)
	fld := cstr(field)
	a.iscArrayLookupBounds(unsafe.Pointer(&vec[0]), unsafe.Pointer(&db), unsafe.Pointer(&tr),
		unsafe.Pointer(&rel[0]), unsafe.Pointer(&fld[0]), unsafe.Pointer(&raw))
	if vec[1] != 0 {
		return nil, a.classicError(&vec)
	}
	desc := &arrayDesc{
		dtype:    raw.dtype,
		scale:    int(int8(raw.scale)),
		length:   int(raw.length),
		field:    cname(raw.fieldName[:]),
		relation: cname(raw.relationName[:]),
	}
	for i := 0; i < int(raw.dimensions) && i < len(raw.bounds); i++ {
		desc.dimensions = append(desc.dimensions, raw.bounds[i])
	}
	return desc, nil
}

func (d *arrayDesc) raw() iscArrayDescRaw {
	var raw iscArrayDescRaw
	raw.dtype = d.dtype
	raw.scale = uint8(int8(d.scale))
	raw.length = uint16(d.length)
	copy(raw.fieldName[:], d.field)
	copy(raw.relationName[:], d.relation)
	raw.dimensions = int16(len(d.dimensions))
	for i, b := range d.dimensions {
		raw.bounds[i] = b
	}
	return raw
}

func (a *fbAPI) arrayGetSlice(att attachmentIntf, tra transactionIntf, id quadID, desc *arrayDesc, sliceLen int) ([]byte, error) {
	db, err := a.attHandle(att)
	if err != nil {
		return nil, err
	}
	tr, err := a.traHandle(tra)
	if err != nil {
		return nil, err
	}
	var vec [20]uintptr
	raw := desc.raw()
	dest := make([]byte, sliceLen)
	length := int32(sliceLen)
	a.iscArrayGetSlice(unsafe.Pointer(&vec[0]), unsafe.Pointer(&db), unsafe.Pointer(&tr),
		unsafe.Pointer(&id), unsafe.Pointer(&raw), unsafe.Pointer(&dest[0]),
		unsafe.Pointer(&length))
	if vec[1] != 0 {
		return nil, a.classicError(&vec)
	}
	return dest, nil
}

func (a *fbAPI) arrayPutSlice(att attachmentIntf, tra transactionIntf, desc *arrayDesc, data []byte) (quadID, error) {
	var id quadID
	db, err := a.attHandle(att)
	if err != nil {
		return id, err
	}
	tr, err := a.traHandle(tra)
	if err != nil {
		return id, err
	}
	var vec [20]uintptr
	raw := desc.raw()
	length := int32(len(data))
	a.iscArrayPutSlice(unsafe.Pointer(&vec[0]), unsafe.Pointer(&db), unsafe.Pointer(&tr),
		unsafe.Pointer(&id), unsafe.Pointer(&raw), unsafe.Pointer(&data[0]),
		unsafe.Pointer(&length))
	if vec[1] != 0 {
		return id, a.classicError(&vec)
	}
	return id, nil
}
