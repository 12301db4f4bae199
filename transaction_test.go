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

func TestTransactionBeginCommit(t *testing.T) {
	att := newFakeAttachment()
	conn := testConnection(att)
	tm := conn.MainTransaction()

	assert.False(t, tm.IsActive())
	require.NoError(t, tm.Begin())
	assert.True(t, tm.IsActive())
	require.Len(t, att.trans, 1)

	require.NoError(t, tm.Commit())
	assert.False(t, tm.IsActive())
	assert.Equal(t, 1, att.trans[0].committed)

	err := tm.Commit()
	require.Error(t, err)
	assert.Equal(t, "no active transaction", err.Error())
}

func TestTransactionBeginEndsPrevious(t *testing.T) {
	att := newFakeAttachment()
	conn := testConnection(att)

	require.NoError(t, conn.Begin())
	require.NoError(t, conn.Begin())
	require.Len(t, att.trans, 2)
	assert.Equal(t, 1, att.trans[0].committed)

	tm, err := conn.NewTransactionManager(nil, DefaultRollback)
	require.NoError(t, err)
	require.NoError(t, tm.Begin())
	require.NoError(t, tm.Begin())
	require.Len(t, att.trans, 4)
	assert.Equal(t, 1, att.trans[2].rolledBack)
}

func TestTransactionRollback(t *testing.T) {
	att := newFakeAttachment()
	conn := testConnection(att)

	require.NoError(t, conn.Begin())
	require.NoError(t, conn.Rollback())
	assert.Equal(t, 1, att.trans[0].rolledBack)
	assert.Zero(t, att.trans[0].committed)

	err := conn.Rollback()
	require.Error(t, err)
}

func TestTransactionRetaining(t *testing.T) {
	att := newFakeAttachment()
	conn := testConnection(att)
	tm := conn.MainTransaction()

	require.NoError(t, tm.Begin())
	require.NoError(t, tm.CommitRetaining())
	assert.True(t, tm.IsActive())
	require.NoError(t, tm.RollbackRetaining())
	assert.True(t, tm.IsActive())
	assert.Equal(t, 2, att.trans[0].retained)
	assert.False(t, att.trans[0].consumed)
}

func TestTransactionSavepoints(t *testing.T) {
	att := newFakeAttachment()
	conn := testConnection(att)

	require.NoError(t, conn.Begin())
	require.NoError(t, conn.Savepoint("SP1"))
	require.NoError(t, conn.MainTransaction().RollbackToSavepoint("SP1"))
	assert.Equal(t, []string{"SAVEPOINT SP1", "ROLLBACK TO SP1"}, att.immediate)
}

func TestTransactionExecuteImmediateAutoBegin(t *testing.T) {
	att := newFakeAttachment()
	conn := testConnection(att)
	tm := conn.MainTransaction()

	require.NoError(t, tm.ExecuteImmediate("DELETE FROM T"))
	assert.True(t, tm.IsActive())
	assert.Equal(t, []string{"DELETE FROM T"}, att.immediate)
}

func TestTransactionID(t *testing.T) {
	att := newFakeAttachment()
	conn := testConnection(att)
	tm := conn.MainTransaction()

	_, err := tm.ID()
	require.Error(t, err)
	assert.Equal(t, "no active transaction", err.Error())

	require.NoError(t, tm.Begin())
	id, err := tm.ID()
	require.NoError(t, err)
	assert.Equal(t, int64(42), id)
}

func TestTransactionManagerClose(t *testing.T) {
	att := newFakeAttachment()
	conn := testConnection(att)

	tm, err := conn.NewTransactionManager(nil, DefaultCommit)
	require.NoError(t, err)
	assert.Contains(t, conn.transactions, tm)

	require.NoError(t, tm.Begin())
	require.NoError(t, tm.Close())
	assert.True(t, tm.Closed())
	assert.Equal(t, 1, att.trans[0].committed)
	assert.NotContains(t, conn.transactions, tm)

	// idempotent
	require.NoError(t, tm.Close())

	err = tm.Begin()
	require.Error(t, err)
	assert.Equal(t, "transaction manager is closed", err.Error())
	_, err = tm.Cursor()
	require.Error(t, err)
}

func TestTransactionCommitClosesCursors(t *testing.T) {
	att := newFakeAttachment()
	att.statements[selectAB] = selectABStatement()
	conn := testConnection(att)
	tm := conn.MainTransaction()

	cur, err := tm.Cursor()
	require.NoError(t, err)
	require.NoError(t, tm.Begin())
	require.NoError(t, cur.Execute(selectAB))
	require.NoError(t, tm.Commit())
	assert.True(t, cur.Closed())
}
