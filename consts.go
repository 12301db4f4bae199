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

// SQL data type codes as reported by IMessageMetadata.getType (nullable bit
// stripped).
const (
	SQL_TYPE_TEXT         = 452
	SQL_TYPE_VARYING      = 448
	SQL_TYPE_SHORT        = 500
	SQL_TYPE_LONG         = 496
	SQL_TYPE_FLOAT        = 482
	SQL_TYPE_DOUBLE       = 480
	SQL_TYPE_D_FLOAT      = 530
	SQL_TYPE_TIMESTAMP    = 510
	SQL_TYPE_BLOB         = 520
	SQL_TYPE_ARRAY        = 540
	SQL_TYPE_QUAD         = 550
	SQL_TYPE_TIME         = 560
	SQL_TYPE_DATE         = 570
	SQL_TYPE_INT64        = 580
	SQL_TYPE_INT128       = 32752
	SQL_TYPE_TIMESTAMP_TZ = 32754
	SQL_TYPE_TIME_TZ      = 32756
	SQL_TYPE_DEC_FIXED    = 32758
	SQL_TYPE_DEC64        = 32760
	SQL_TYPE_DEC128       = 32762
	SQL_TYPE_BOOLEAN      = 32764
	SQL_TYPE_NULL         = 32766
)

// BLR type codes used in array descriptors (ISC_ARRAY_DESC.array_desc_dtype).
const (
	blr_short     = 7
	blr_long      = 8
	blr_quad      = 9
	blr_float     = 10
	blr_d_float   = 11
	blr_sql_date  = 12
	blr_sql_time  = 13
	blr_text      = 14
	blr_text2     = 15
	blr_int64     = 16
	blr_bool      = 23
	blr_double    = 27
	blr_timestamp = 35
	blr_varying   = 37
	blr_varying2  = 38
)

// Character set ids with non-trivial byte-per-character ratios. The declared
// byte length of a CHAR column in these charsets covers the worst case
// encoding, so the character count is the byte length divided by the ratio.
const (
	charsetOctets     = 1
	charsetUnicodeFSS = 3
	charsetUTF8       = 4
	charsetGB18030    = 69
)

// Status vector argument codes (new-style status encoding).
const (
	isc_arg_end         = 0
	isc_arg_gds         = 1
	isc_arg_string      = 2
	isc_arg_cstring     = 3
	isc_arg_number      = 4
	isc_arg_interpreted = 5
	isc_arg_warning     = 18
	isc_arg_sql_state   = 19
)

// IStatus state flags.
const (
	statusStateWarnings = 0x1
	statusStateErrors   = 0x2
)

// Result codes shared by fetch and getSegment calls.
type fetchStatus int

const (
	fetchOK      fetchStatus = 0
	fetchNoData  fetchStatus = 1
	fetchSegment fetchStatus = 2 // partial segment, more data in the buffer
)

// isc_sqlerr: gds error code whose following numeric argument carries an
// explicit SQLCODE.
const iscSQLCodeMarker = 335544436

// Transaction Parameter Block tags.
const (
	isc_tpb_version3         = 3
	isc_tpb_consistency      = 1
	isc_tpb_concurrency      = 2
	isc_tpb_shared           = 3
	isc_tpb_protected        = 4
	isc_tpb_exclusive        = 5
	isc_tpb_wait             = 6
	isc_tpb_nowait           = 7
	isc_tpb_read             = 8
	isc_tpb_write            = 9
	isc_tpb_lock_read        = 10
	isc_tpb_lock_write       = 11
	isc_tpb_ignore_limbo     = 14
	isc_tpb_read_committed   = 15
	isc_tpb_autocommit       = 16
	isc_tpb_rec_version      = 17
	isc_tpb_no_rec_version   = 18
	isc_tpb_restart_requests = 19
	isc_tpb_no_auto_undo     = 20
	isc_tpb_lock_timeout     = 21
	isc_tpb_read_consistency = 22
)

// Database Parameter Block tags.
const (
	isc_dpb_version1           = 1
	isc_dpb_version2           = 2
	isc_dpb_page_size          = 4
	isc_dpb_num_buffers        = 5
	isc_dpb_dbkey_scope        = 13
	isc_dpb_no_garbage_collect = 16
	isc_dpb_force_write        = 24
	isc_dpb_user_name          = 28
	isc_dpb_password           = 29
	isc_dpb_lc_ctype           = 48
	isc_dpb_overwrite          = 54
	isc_dpb_connect_timeout    = 57
	isc_dpb_sql_role_name      = 60
	isc_dpb_set_page_buffers   = 61
	isc_dpb_sql_dialect        = 63
	isc_dpb_set_db_charset     = 68
	isc_dpb_process_id         = 71
	isc_dpb_no_db_triggers     = 72
	isc_dpb_trusted_auth       = 73
	isc_dpb_process_name       = 74
	isc_dpb_utf8_filename      = 77
	isc_dpb_client_version     = 80
	isc_dpb_auth_plugin_list   = 85
	isc_dpb_auth_plugin_name   = 86
	isc_dpb_config             = 87
	isc_dpb_nolinger           = 88
	isc_dpb_session_time_zone  = 91
	isc_dpb_set_db_replica     = 92
	isc_dpb_set_bind           = 93
	isc_dpb_decfloat_round     = 94
	isc_dpb_decfloat_traps     = 95
)

// Blob Parameter Block tags and blob storage types.
const (
	isc_bpb_version1         = 1
	isc_bpb_source_type      = 1
	isc_bpb_target_type      = 2
	isc_bpb_type             = 3
	isc_bpb_source_interp    = 4
	isc_bpb_target_interp    = 5
	isc_bpb_filter_parameter = 6
	isc_bpb_storage          = 7

	isc_bpb_type_segmented = 0
	isc_bpb_type_stream    = 1

	// Blob information items.
	isc_info_blob_num_segments = 4
	isc_info_blob_max_segment  = 5
	isc_info_blob_total_length = 6
	isc_info_blob_type         = 7

	// IBlob.seek modes.
	blb_seek_from_head = 0
	blb_seek_relative  = 1
	blb_seek_from_tail = 2

	// Engine limit on a single putSegment/getSegment transfer.
	maxBlobSegmentSize = 65535
)

// Information request structural codes and the items the driver asks for.
const (
	isc_info_end       = 1
	isc_info_truncated = 2
	isc_info_error     = 3

	isc_info_page_size        = 14
	isc_info_attachment_id    = 22
	isc_info_db_sql_dialect   = 62
	isc_info_db_read_only     = 63
	isc_info_att_charset      = 101
	isc_info_firebird_version = 103

	isc_info_tra_id           = 4
	isc_info_tra_isolation    = 8
	isc_info_tra_access       = 9
	isc_info_tra_lock_timeout = 10

	isc_info_sql_records      = 23
	isc_info_req_select_count = 13
	isc_info_req_insert_count = 14
	isc_info_req_update_count = 15
	isc_info_req_delete_count = 16
)

// StatementType is the statement kind reported by IStatement.getType.
type StatementType uint32

const (
	StmtSelect        StatementType = 1
	StmtInsert        StatementType = 2
	StmtUpdate        StatementType = 3
	StmtDelete        StatementType = 4
	StmtDDL           StatementType = 5
	StmtGetSegment    StatementType = 6
	StmtPutSegment    StatementType = 7
	StmtExecProcedure StatementType = 8
	StmtStartTrans    StatementType = 9
	StmtCommit        StatementType = 10
	StmtRollback      StatementType = 11
	StmtSelectForUpd  StatementType = 12
	StmtSetGenerator  StatementType = 13
	StmtSavepoint     StatementType = 14
)

// StatementFlag is the flag set reported by IStatement.getFlags.
type StatementFlag uint32

const (
	StmtFlagHasCursor     StatementFlag = 0x1
	StmtFlagRepeatExecute StatementFlag = 0x2
)

// CursorFlag selects cursor behavior on open (IStatement.openCursor).
type CursorFlag uint32

const (
	CursorNone       CursorFlag = 0
	CursorScrollable CursorFlag = 0x1
)

// DefaultAction is applied to an active transaction when its manager is
// closed without an explicit commit or rollback.
type DefaultAction int

const (
	DefaultCommit DefaultAction = iota
	DefaultRollback
)

// Isolation selects one of the canned TPBs built by NewTPB.
type Isolation int

const (
	IsolationSnapshot Isolation = iota
	IsolationSnapshotTable
	IsolationReadCommitted
	IsolationReadCommittedLegacy
	IsolationReadCommittedReadOnly
	IsolationSerializable
)

// Event subsystem limits. A single event block registration carries at most
// 15 event names, larger subscriptions are split across blocks.
const (
	epbVersion1        = 1
	maxEventsPerBlock  = 15
	maxEventNameLength = 255
)

// Minimum supported vtable versions for the native interfaces the driver
// wraps. The wrapper layer negotiates the most specific compatible variant
// at construction (see wrapAttachment and friends).
const (
	ifaceVersionMaster      = 2
	ifaceVersionStatus      = 3
	ifaceVersionProvider    = 4
	ifaceVersionUtil        = 2
	ifaceVersionAttachment  = 3
	ifaceVersionAttachment4 = 4
	ifaceVersionTransaction = 3
	ifaceVersionStatement   = 3
	ifaceVersionStatement4  = 4
	ifaceVersionMetadata    = 3
	ifaceVersionMetadata4   = 4
	ifaceVersionBuilder     = 3
	ifaceVersionBuilder4    = 4
	ifaceVersionResultSet   = 3
	ifaceVersionBlob        = 3
	ifaceVersionEvents      = 3
)

// TIME/TIMESTAMP values count in units of 1/10000 second.
const iscTimeSecondsPrecision = 10000

// SQL dialect the driver speaks by default.
const sqlDialectCurrent = 3
