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
	"database/sql"
	"database/sql/driver"
	"io"
	"strings"

	"github.com/shopspring/decimal"
)

// database/sql adapter over the core API. Values outside the driver.Value
// set are converted: decimals to their string form, BLOB readers are
// materialized, array values are not supported through this interface.

type fbclientDriver struct{}

func (d *fbclientDriver) Open(dsns string) (driver.Conn, error) {
	dsn, err := parseDSN(dsns)
	if err != nil {
		return nil, err
	}
	conn, err := Connect(dsn.params)
	if err != nil {
		return nil, err
	}
	return &fbclientConn{conn: conn, dsn: dsn, autocommit: true}, nil
}

func init() {
	sql.Register("fbclient", &fbclientDriver{})
}

type fbclientConn struct {
	conn       *Connection
	dsn        *firebirdDsn
	autocommit bool
}

func (fc *fbclientConn) Begin() (driver.Tx, error) {
	if err := fc.conn.Begin(); err != nil {
		return nil, err
	}
	fc.autocommit = false
	return &fbclientTx{fc: fc}, nil
}

func (fc *fbclientConn) Prepare(query string) (driver.Stmt, error) {
	st, err := fc.conn.Prepare(query)
	if err != nil {
		return nil, err
	}
	return &fbclientStmt{fc: fc, st: st}, nil
}

func (fc *fbclientConn) Close() error {
	return fc.conn.Close()
}

// endAutocommit commits the work of a statement executed outside an
// explicit transaction, keeping the transaction context alive for the next
// one.
func (fc *fbclientConn) endAutocommit() error {
	if fc.autocommit && fc.conn.MainTransaction().IsActive() {
		return fc.conn.MainTransaction().CommitRetaining()
	}
	return nil
}

type fbclientTx struct {
	fc *fbclientConn
}

func (tx *fbclientTx) Commit() error {
	tx.fc.autocommit = true
	return tx.fc.conn.Commit()
}

func (tx *fbclientTx) Rollback() error {
	tx.fc.autocommit = true
	return tx.fc.conn.Rollback()
}

type fbclientStmt struct {
	fc *fbclientConn
	st *Statement
}

func (stmt *fbclientStmt) NumInput() int {
	return stmt.st.ParamCount()
}

func (stmt *fbclientStmt) Close() error {
	return stmt.st.Free()
}

func (stmt *fbclientStmt) Exec(args []driver.Value) (driver.Result, error) {
	cur, err := stmt.fc.conn.Cursor()
	if err != nil {
		return nil, err
	}
	defer cur.Close()
	if err := cur.ExecuteStmt(stmt.st, driverParams(args)...); err != nil {
		return nil, err
	}
	affected, err := cur.AffectedRows()
	if err != nil {
		return nil, err
	}
	if err := stmt.fc.endAutocommit(); err != nil {
		return nil, err
	}
	return &fbclientResult{affected: affected}, nil
}

func (stmt *fbclientStmt) Query(args []driver.Value) (driver.Rows, error) {
	cur, err := stmt.fc.conn.Cursor()
	if err != nil {
		return nil, err
	}
	if err := cur.ExecuteStmt(stmt.st, driverParams(args)...); err != nil {
		cur.Close()
		return nil, err
	}
	return &fbclientRows{fc: stmt.fc, cur: cur}, nil
}

func driverParams(args []driver.Value) []interface{} {
	params := make([]interface{}, len(args))
	for i, a := range args {
		params[i] = a
	}
	return params
}

type fbclientResult struct {
	affected int64
}

func (r *fbclientResult) LastInsertId() (int64, error) {
	return 0, newInterfaceError("LastInsertId is not supported, use RETURNING instead")
}

func (r *fbclientResult) RowsAffected() (int64, error) {
	return r.affected, nil
}

type fbclientRows struct {
	fc  *fbclientConn
	cur *Cursor
}

func (rows *fbclientRows) Columns() []string {
	desc, err := rows.cur.Description()
	if err != nil {
		return nil
	}
	columns := make([]string, len(desc))
	for i, d := range desc {
		if rows.fc.dsn != nil && rows.fc.dsn.columnNameToLower() {
			columns[i] = strings.ToLower(d.Name)
		} else {
			columns[i] = d.Name
		}
	}
	return columns
}

func (rows *fbclientRows) Next(dest []driver.Value) error {
	row, err := rows.cur.Fetchone()
	if err != nil {
		return err
	}
	if row == nil {
		return io.EOF
	}
	for i, v := range row {
		dv, err := toDriverValue(v)
		if err != nil {
			return err
		}
		dest[i] = dv
	}
	return nil
}

func (rows *fbclientRows) Close() error {
	err := rows.cur.Close()
	if cerr := rows.fc.endAutocommit(); cerr != nil && err == nil {
		err = cerr
	}
	return err
}

// toDriverValue narrows fetched values to the driver.Value set.
func toDriverValue(v interface{}) (driver.Value, error) {
	switch value := v.(type) {
	case nil, int64, float64, bool, string, []byte:
		return value, nil
	case decimal.Decimal:
		return value.String(), nil
	case *BlobReader:
		defer value.Close()
		if value.IsText() {
			return value.ReadString()
		}
		return io.ReadAll(value)
	default:
		return value, nil
	}
}
