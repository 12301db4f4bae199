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

import "os"

// TPB describes a transaction and serializes to a transaction parameter
// block. The zero value with IsolationSnapshot gives the driver default:
// read/write snapshot, wait.
type TPB struct {
	Isolation   Isolation
	ReadOnly    bool
	NoWait      bool
	LockTimeout int // seconds, used only when NoWait is false and > 0
	NoAutoUndo  bool
	IgnoreLimbo bool
	AutoCommit  bool
}

// NewTPB returns a read/write, wait TPB at the given isolation level.
func NewTPB(level Isolation) *TPB {
	return &TPB{Isolation: level}
}

func (t *TPB) Bytes() []byte {
	pb := NewXPBWriterFromTag(isc_tpb_version3)
	if t.ReadOnly {
		pb.PutTag(isc_tpb_read)
	} else {
		pb.PutTag(isc_tpb_write)
	}
	switch t.Isolation {
	case IsolationSnapshot:
		pb.PutTag(isc_tpb_concurrency)
	case IsolationSnapshotTable, IsolationSerializable:
		pb.PutTag(isc_tpb_consistency)
	case IsolationReadCommitted, IsolationReadCommittedReadOnly:
		pb.PutTag(isc_tpb_read_committed).PutTag(isc_tpb_rec_version)
	case IsolationReadCommittedLegacy:
		pb.PutTag(isc_tpb_read_committed).PutTag(isc_tpb_no_rec_version)
	}
	if t.Isolation == IsolationReadCommittedReadOnly && !t.ReadOnly {
		// the canned read-only level overrides the access mode
		pb.PutTag(isc_tpb_read)
	}
	if t.NoWait {
		pb.PutTag(isc_tpb_nowait)
	} else {
		pb.PutTag(isc_tpb_wait)
		if t.LockTimeout > 0 {
			pb.PutInt32(isc_tpb_lock_timeout, int32(t.LockTimeout))
		}
	}
	if t.NoAutoUndo {
		pb.PutTag(isc_tpb_no_auto_undo)
	}
	if t.IgnoreLimbo {
		pb.PutTag(isc_tpb_ignore_limbo)
	}
	if t.AutoCommit {
		pb.PutTag(isc_tpb_autocommit)
	}
	return pb.Bytes()
}

// tpbDefault is used when a transaction is started without an explicit TPB.
func tpbDefault() []byte {
	return NewTPB(IsolationSnapshot).Bytes()
}

// ConnectParams collects everything needed to attach to (or create) a
// database. Zero fields are omitted from the DPB.
type ConnectParams struct {
	Database     string
	User         string
	Password     string
	Role         string
	Charset      string
	TimeZone     string
	AuthPlugins  string
	PageSize     int  // create only
	ForceWrite   bool // create only
	Overwrite    bool // create only
	NoDBTriggers bool
	NoLinger     bool
	CacheBuffers int
}

// dpb serializes the attach parameter block. create adds the page-size and
// overwrite items that only make sense for CreateDatabase.
func (p *ConnectParams) dpb(create bool) []byte {
	pb := NewXPBWriterFromTag(isc_dpb_version1)
	pb.PutByte(isc_dpb_utf8_filename, 1)
	if p.User != "" {
		pb.PutString(isc_dpb_user_name, p.User)
	}
	if p.Password != "" {
		pb.PutString(isc_dpb_password, p.Password)
	}
	if p.Role != "" {
		pb.PutString(isc_dpb_sql_role_name, p.Role)
	}
	charset := p.Charset
	if charset == "" {
		charset = "UTF8"
	}
	pb.PutString(isc_dpb_lc_ctype, charset)
	if p.TimeZone != "" {
		pb.PutString(isc_dpb_session_time_zone, p.TimeZone)
	}
	if p.AuthPlugins != "" {
		pb.PutString(isc_dpb_auth_plugin_list, p.AuthPlugins)
	}
	if p.NoDBTriggers {
		pb.PutByte(isc_dpb_no_db_triggers, 1)
	}
	if p.NoLinger {
		pb.PutTag(isc_dpb_nolinger)
	}
	if p.CacheBuffers > 0 {
		pb.PutInt32(isc_dpb_num_buffers, int32(p.CacheBuffers))
	}
	pb.PutInt32(isc_dpb_process_id, int32(os.Getpid()))
	if exe, err := os.Executable(); err == nil {
		pb.PutString(isc_dpb_process_name, exe)
	}
	if create {
		pb.PutInt32(isc_dpb_sql_dialect, sqlDialectCurrent)
		if p.PageSize > 0 {
			pb.PutInt32(isc_dpb_page_size, int32(p.PageSize))
		}
		if p.ForceWrite {
			pb.PutByte(isc_dpb_force_write, 1)
		}
		if p.Overwrite {
			pb.PutByte(isc_dpb_overwrite, 1)
		}
		pb.PutString(isc_dpb_set_db_charset, charset)
	}
	return pb.Bytes()
}

// buildBPB builds the blob parameter block for opening or creating a blob of
// the given subtype. stream selects stream storage instead of the segmented
// default.
func buildBPB(subType int, stream bool) []byte {
	pb := NewXPBWriterFromTag(isc_bpb_version1)
	pb.PutByte(isc_bpb_source_type, byte(subType))
	pb.PutByte(isc_bpb_target_type, byte(subType))
	if stream {
		pb.PutByte(isc_bpb_type, isc_bpb_type_stream)
	}
	return pb.Bytes()
}
