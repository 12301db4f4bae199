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

// TransactionManager runs a sequence of transactions over one connection.
// At most one transaction is active per manager at any time; Begin ends the
// previous one with the default action first.
//
// Closing a manager with an active transaction applies DefaultAction.
type TransactionManager struct {
	conn *Connection
	tra  transactionIntf

	// DefaultTPB is used by Begin when no explicit TPB is given.
	DefaultTPB []byte
	// DefaultAction decides between commit and rollback when an active
	// transaction is ended implicitly.
	DefaultAction DefaultAction

	cursors []*Cursor
	closed  bool
}

func newTransactionManager(conn *Connection, defaultTPB []byte, action DefaultAction) *TransactionManager {
	if defaultTPB == nil {
		defaultTPB = tpbDefault()
	}
	return &TransactionManager{conn: conn, DefaultTPB: defaultTPB, DefaultAction: action}
}

// Connection returns the connection this manager belongs to.
func (t *TransactionManager) Connection() *Connection { return t.conn }

// IsActive reports whether a transaction is currently running.
func (t *TransactionManager) IsActive() bool { return t.tra != nil }

// Closed reports whether the manager has been closed.
func (t *TransactionManager) Closed() bool { return t.closed }

// Cursor returns a new cursor working under this manager.
func (t *TransactionManager) Cursor() (*Cursor, error) {
	if t.closed {
		return nil, newInterfaceError("transaction manager is closed")
	}
	cur := newCursor(t.conn, t)
	t.cursors = append(t.cursors, cur)
	return cur, nil
}

func (t *TransactionManager) closeCursors() {
	for _, cur := range t.cursors {
		cur.Close()
	}
	t.cursors = nil
}

// Begin starts a new transaction. A still active transaction is ended with
// the default action first. When tpb is nil the manager's DefaultTPB is
// used.
func (t *TransactionManager) Begin(tpb ...[]byte) error {
	if t.closed {
		return newInterfaceError("transaction manager is closed")
	}
	if err := t.finish(t.DefaultAction); err != nil {
		return err
	}
	buf := t.DefaultTPB
	if len(tpb) > 0 && tpb[0] != nil {
		buf = tpb[0]
	}
	tra, err := t.conn.att.startTransaction(buf)
	if err != nil {
		return err
	}
	t.tra = tra
	return nil
}

// Commit commits the active transaction.
func (t *TransactionManager) Commit() error {
	if t.tra == nil {
		return newInterfaceError("no active transaction")
	}
	t.closeCursors()
	err := t.tra.commit()
	t.tra = nil
	return err
}

// CommitRetaining commits the active transaction while keeping its context
// for further work.
func (t *TransactionManager) CommitRetaining() error {
	if t.tra == nil {
		return newInterfaceError("no active transaction")
	}
	return t.tra.commitRetaining()
}

// Rollback rolls back the active transaction.
func (t *TransactionManager) Rollback() error {
	if t.tra == nil {
		return newInterfaceError("no active transaction")
	}
	t.closeCursors()
	err := t.tra.rollback()
	t.tra = nil
	return err
}

// RollbackRetaining rolls back the active transaction while keeping its
// context for further work.
func (t *TransactionManager) RollbackRetaining() error {
	if t.tra == nil {
		return newInterfaceError("no active transaction")
	}
	return t.tra.rollbackRetaining()
}

// Savepoint creates a named savepoint in the active transaction.
func (t *TransactionManager) Savepoint(name string) error {
	return t.ExecuteImmediate("SAVEPOINT " + name)
}

// RollbackToSavepoint rolls the active transaction back to the named
// savepoint. The transaction stays active.
func (t *TransactionManager) RollbackToSavepoint(name string) error {
	return t.ExecuteImmediate("ROLLBACK TO " + name)
}

// ExecuteImmediate runs a statement that returns no result within this
// manager's transaction, starting one if necessary.
func (t *TransactionManager) ExecuteImmediate(sql string) error {
	if t.closed {
		return newInterfaceError("transaction manager is closed")
	}
	if !t.IsActive() {
		if err := t.Begin(); err != nil {
			return err
		}
	}
	return t.conn.att.execute(t.tra, sql, t.conn.dialect)
}

// ID returns the engine-assigned number of the active transaction.
func (t *TransactionManager) ID() (int64, error) {
	info, err := t.getInfo([]byte{isc_info_tra_id, isc_info_end})
	if err != nil {
		return 0, err
	}
	return infoItemInt(info, isc_info_tra_id)
}

// LockTimeout returns the lock resolution timeout of the active transaction
// in seconds, -1 for wait without timeout.
func (t *TransactionManager) LockTimeout() (int64, error) {
	info, err := t.getInfo([]byte{isc_info_tra_lock_timeout, isc_info_end})
	if err != nil {
		return 0, err
	}
	return infoItemInt(info, isc_info_tra_lock_timeout)
}

func (t *TransactionManager) getInfo(items []byte) ([]byte, error) {
	if t.tra == nil {
		return nil, newInterfaceError("no active transaction")
	}
	return t.tra.getInfo(items)
}

// infoItemInt extracts a single integer item from an information response.
func infoItemInt(info []byte, item byte) (int64, error) {
	r := NewXPBReader(info)
	for {
		ok, tag := r.Next()
		if !ok || tag == isc_info_end {
			break
		}
		data := r.GetClumplet()
		if tag == item {
			return intLE(data), nil
		}
	}
	return 0, newInterfaceError("requested information item %d missing in response", item)
}

// finish ends the active transaction, if any, with the given action.
func (t *TransactionManager) finish(action DefaultAction) error {
	if t.tra == nil {
		return nil
	}
	if action == DefaultCommit {
		return t.Commit()
	}
	return t.Rollback()
}

// Close ends the active transaction with the default action and detaches the
// manager from its connection. A closed manager must not be used.
func (t *TransactionManager) Close() error {
	if t.closed {
		return nil
	}
	err := t.finish(t.DefaultAction)
	t.conn.forgetTransaction(t)
	t.closed = true
	return err
}
