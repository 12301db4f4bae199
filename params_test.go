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
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// dpbItems decodes a parameter block with one-byte item lengths into a map
// keyed by tag. Bare tags map to nil.
func dpbItems(t *testing.T, buf []byte, bareTags map[byte]bool) map[byte][]byte {
	t.Helper()
	items := make(map[byte][]byte)
	pos := 1 // version byte
	for pos < len(buf) {
		tag := buf[pos]
		pos++
		if bareTags[tag] {
			items[tag] = nil
			continue
		}
		require.Less(t, pos, len(buf))
		n := int(buf[pos])
		pos++
		require.LessOrEqual(t, pos+n, len(buf))
		items[tag] = buf[pos : pos+n]
		pos += n
	}
	return items
}

func TestTPBDefault(t *testing.T) {
	tpb := NewTPB(IsolationSnapshot).Bytes()
	assert.Equal(t, []byte{isc_tpb_version3, isc_tpb_write, isc_tpb_concurrency, isc_tpb_wait}, tpb)
	assert.Equal(t, tpb, tpbDefault())
}

func TestTPBReadCommitted(t *testing.T) {
	tpb := NewTPB(IsolationReadCommitted).Bytes()
	assert.Equal(t, []byte{
		isc_tpb_version3, isc_tpb_write,
		isc_tpb_read_committed, isc_tpb_rec_version,
		isc_tpb_wait,
	}, tpb)
}

func TestTPBReadCommittedLegacy(t *testing.T) {
	tpb := NewTPB(IsolationReadCommittedLegacy).Bytes()
	assert.Contains(t, string(tpb), string([]byte{isc_tpb_read_committed, isc_tpb_no_rec_version}))
}

func TestTPBReadCommittedReadOnly(t *testing.T) {
	// the canned level forces read access even without ReadOnly set
	tpb := NewTPB(IsolationReadCommittedReadOnly).Bytes()
	assert.Equal(t, []byte{
		isc_tpb_version3, isc_tpb_write,
		isc_tpb_read_committed, isc_tpb_rec_version,
		isc_tpb_read,
		isc_tpb_wait,
	}, tpb)
}

func TestTPBSerializable(t *testing.T) {
	tpb := NewTPB(IsolationSerializable).Bytes()
	assert.Equal(t, []byte{isc_tpb_version3, isc_tpb_write, isc_tpb_consistency, isc_tpb_wait}, tpb)
}

func TestTPBOptions(t *testing.T) {
	tpb := (&TPB{
		Isolation:   IsolationSnapshot,
		ReadOnly:    true,
		NoWait:      true,
		NoAutoUndo:  true,
		IgnoreLimbo: true,
		AutoCommit:  true,
	}).Bytes()
	assert.Equal(t, []byte{
		isc_tpb_version3, isc_tpb_read, isc_tpb_concurrency, isc_tpb_nowait,
		isc_tpb_no_auto_undo, isc_tpb_ignore_limbo, isc_tpb_autocommit,
	}, tpb)
}

func TestTPBLockTimeout(t *testing.T) {
	tpb := (&TPB{Isolation: IsolationSnapshot, LockTimeout: 10}).Bytes()
	assert.Equal(t, []byte{
		isc_tpb_version3, isc_tpb_write, isc_tpb_concurrency, isc_tpb_wait,
		isc_tpb_lock_timeout, 4, 10, 0, 0, 0,
	}, tpb)

	// nowait and lock timeout are mutually exclusive
	tpb = (&TPB{Isolation: IsolationSnapshot, NoWait: true, LockTimeout: 10}).Bytes()
	assert.NotContains(t, tpb, byte(isc_tpb_lock_timeout))
}

var dpbBareTags = map[byte]bool{isc_dpb_nolinger: true}

func TestDPBAttach(t *testing.T) {
	p := &ConnectParams{
		Database: "/db/test.fdb",
		User:     "SYSDBA",
		Password: "masterkey",
		Role:     "AUDITOR",
		Charset:  "WIN1251",
		TimeZone: "Europe/Prague",
	}
	buf := p.dpb(false)
	require.Equal(t, byte(isc_dpb_version1), buf[0])
	items := dpbItems(t, buf, dpbBareTags)

	assert.Equal(t, []byte{1}, items[isc_dpb_utf8_filename])
	assert.Equal(t, []byte("SYSDBA"), items[isc_dpb_user_name])
	assert.Equal(t, []byte("masterkey"), items[isc_dpb_password])
	assert.Equal(t, []byte("AUDITOR"), items[isc_dpb_sql_role_name])
	assert.Equal(t, []byte("WIN1251"), items[isc_dpb_lc_ctype])
	assert.Equal(t, []byte("Europe/Prague"), items[isc_dpb_session_time_zone])
	assert.Contains(t, items, byte(isc_dpb_process_id))

	_, hasPageSize := items[isc_dpb_page_size]
	assert.False(t, hasPageSize)
}

func TestDPBDefaultCharset(t *testing.T) {
	items := dpbItems(t, (&ConnectParams{}).dpb(false), dpbBareTags)
	assert.Equal(t, []byte("UTF8"), items[isc_dpb_lc_ctype])
	_, hasUser := items[isc_dpb_user_name]
	assert.False(t, hasUser)
}

func TestDPBCreate(t *testing.T) {
	p := &ConnectParams{PageSize: 8192, ForceWrite: true, Overwrite: true}
	items := dpbItems(t, p.dpb(true), dpbBareTags)
	assert.Equal(t, int32(sqlDialectCurrent), bytesToInt32(items[isc_dpb_sql_dialect]))
	assert.Equal(t, int32(8192), bytesToInt32(items[isc_dpb_page_size]))
	assert.Equal(t, []byte{1}, items[isc_dpb_force_write])
	assert.Equal(t, []byte{1}, items[isc_dpb_overwrite])
	assert.Equal(t, []byte("UTF8"), items[isc_dpb_set_db_charset])
}

func TestBuildBPB(t *testing.T) {
	bpb := buildBPB(1, false)
	assert.Equal(t, []byte{
		isc_bpb_version1,
		isc_bpb_source_type, 1, 1,
		isc_bpb_target_type, 1, 1,
	}, bpb)
	assert.False(t, isStreamBPB(bpb))

	bpb = buildBPB(0, true)
	assert.Equal(t, []byte{
		isc_bpb_version1,
		isc_bpb_source_type, 1, 0,
		isc_bpb_target_type, 1, 0,
		isc_bpb_type, 1, isc_bpb_type_stream,
	}, bpb)
	assert.True(t, isStreamBPB(bpb))
}
