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
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const selectAB = "SELECT A, B FROM T"

func selectABStatement() *fakeStatement {
	return &fakeStatement{
		stmtType: StmtSelect,
		flags:    StmtFlagHasCursor | StmtFlagRepeatExecute,
		outMeta: newFakeMetadata(
			fakeField{field: "A", alias: "A", sqlType: SQL_TYPE_LONG | 1, nullable: true, length: 4},
			fakeField{field: "B", alias: "B", sqlType: SQL_TYPE_LONG | 1, nullable: true, length: 4},
		),
	}
}

func TestPrepareSnapshot(t *testing.T) {
	att := newFakeAttachment()
	st := selectABStatement()
	st.inMeta = newFakeMetadata()
	att.statements[selectAB] = st

	conn := testConnection(att)
	stmt, err := conn.Prepare(selectAB)
	require.NoError(t, err)

	assert.Equal(t, selectAB, stmt.SQL())
	assert.Equal(t, StmtSelect, stmt.Type())
	assert.True(t, stmt.HasCursor())
	assert.True(t, stmt.CanRepeat())
	assert.Equal(t, 0, stmt.ParamCount())
	assert.Equal(t, 2, stmt.ColumnCount())

	// the empty parameter metadata is released right after counting
	assert.Equal(t, 1, st.inMeta.released)
	assert.Zero(t, st.outMeta.released)

	// the connection tracks the statement
	_, tracked := conn.statements[stmt]
	assert.True(t, tracked)

	// prepare outside a transaction runs in a short-lived one
	require.Len(t, att.trans, 1)
	assert.Equal(t, 1, att.trans[0].committed)
}

func TestPrepareUnknownStatement(t *testing.T) {
	att := newFakeAttachment()
	conn := testConnection(att)

	_, err := conn.Prepare("SELECT * FROM NOWHERE")
	require.Error(t, err)
	var de *DatabaseError
	require.True(t, errors.As(err, &de))
	assert.Equal(t, "42000", de.SQLState)
	assert.Equal(t, int32(-104), de.SQLCode)

	// the short-lived transaction is not left open
	require.Len(t, att.trans, 1)
	assert.Equal(t, 1, att.trans[0].committed)
}

func TestStatementPlan(t *testing.T) {
	att := newFakeAttachment()
	st := selectABStatement()
	st.plan = "\nPLAN (T NATURAL)\n"
	att.statements[selectAB] = st

	conn := testConnection(att)
	stmt, err := conn.Prepare(selectAB)
	require.NoError(t, err)

	plan, err := stmt.Plan()
	require.NoError(t, err)
	assert.Equal(t, "PLAN (T NATURAL)", plan)

	plan, err = stmt.DetailedPlan()
	require.NoError(t, err)
	assert.Equal(t, "PLAN (T NATURAL)", plan)
}

func TestStatementFree(t *testing.T) {
	att := newFakeAttachment()
	st := selectABStatement()
	att.statements[selectAB] = st

	conn := testConnection(att)
	stmt, err := conn.Prepare(selectAB)
	require.NoError(t, err)

	require.NoError(t, stmt.Free())
	assert.True(t, stmt.Freed())
	assert.True(t, st.freed)
	assert.Equal(t, 1, st.outMeta.released)
	_, tracked := conn.statements[stmt]
	assert.False(t, tracked)

	// idempotent
	require.NoError(t, stmt.Free())
	assert.Equal(t, 1, st.outMeta.released)

	_, err = stmt.Plan()
	require.Error(t, err)
	assert.Equal(t, "statement is freed", err.Error())
}
