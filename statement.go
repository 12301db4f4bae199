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

import "strings"

// Statement is a prepared SQL statement. The metadata of both message formats
// is snapshotted at prepare time so that execute and fetch never query the
// native layer for layout information.
//
// A Statement belongs to the Connection that prepared it and can only be
// executed through cursors of that connection.
type Statement struct {
	conn    *Connection
	sql     string
	dialect int
	stmt    statementIntf

	stmtType StatementType
	flags    StatementFlag

	inMeta    metadataIntf // nil when the statement takes no parameters
	inDesc    []fieldDesc
	inBufLen  int
	outMeta   metadataIntf // nil when the statement returns no columns
	outDesc   []fieldDesc
	outBufLen int

	// description cache shared by all cursors executing this statement
	desc []ColumnDescription
}

// newStatement snapshots statement type, flags and both metadata blocks.
// Metadata interfaces describing zero fields are released immediately.
func newStatement(conn *Connection, stmt statementIntf, sql string, dialect int) (*Statement, error) {
	s := &Statement{conn: conn, sql: sql, dialect: dialect, stmt: stmt}
	var err error
	if s.stmtType, err = stmt.getType(); err != nil {
		s.drop()
		return nil, err
	}
	if s.flags, err = stmt.getFlags(); err != nil {
		s.drop()
		return nil, err
	}
	if err = s.snapshotMeta(stmt.getInputMetadata, &s.inMeta, &s.inDesc, &s.inBufLen); err != nil {
		s.drop()
		return nil, err
	}
	if err = s.snapshotMeta(stmt.getOutputMetadata, &s.outMeta, &s.outDesc, &s.outBufLen); err != nil {
		s.drop()
		return nil, err
	}
	return s, nil
}

func (s *Statement) snapshotMeta(get func() (metadataIntf, error), meta *metadataIntf, descs *[]fieldDesc, bufLen *int) error {
	m, err := get()
	if err != nil {
		return err
	}
	if m == nil {
		return nil
	}
	count, err := m.getCount()
	if err != nil {
		m.release()
		return err
	}
	if count == 0 {
		m.release()
		return nil
	}
	if *descs, err = createFieldDescs(m); err != nil {
		m.release()
		return err
	}
	if *bufLen, err = m.getMessageLength(); err != nil {
		m.release()
		return err
	}
	*meta = m
	return nil
}

// drop releases everything without error reporting, used on construction
// failure.
func (s *Statement) drop() {
	if s.inMeta != nil {
		s.inMeta.release()
		s.inMeta = nil
	}
	if s.outMeta != nil {
		s.outMeta.release()
		s.outMeta = nil
	}
	if s.stmt != nil {
		s.stmt.release()
		s.stmt = nil
	}
}

// SQL returns the statement text as prepared.
func (s *Statement) SQL() string { return s.sql }

// Type returns the statement kind (select, insert, DDL and so on).
func (s *Statement) Type() StatementType { return s.stmtType }

// Flags returns the statement flag set.
func (s *Statement) Flags() StatementFlag { return s.flags }

// HasCursor reports whether the statement can return multiple rows.
func (s *Statement) HasCursor() bool { return s.flags&StmtFlagHasCursor != 0 }

// CanRepeat reports whether the statement can be executed repeatedly.
func (s *Statement) CanRepeat() bool { return s.flags&StmtFlagRepeatExecute != 0 }

// ParamCount returns the number of input parameters.
func (s *Statement) ParamCount() int { return len(s.inDesc) }

// ColumnCount returns the number of output columns.
func (s *Statement) ColumnCount() int { return len(s.outDesc) }

// Plan returns the execution plan in the classic format.
func (s *Statement) Plan() (string, error) {
	return s.plan(false)
}

// DetailedPlan returns the execution plan in the explained format.
func (s *Statement) DetailedPlan() (string, error) {
	return s.plan(true)
}

func (s *Statement) plan(detailed bool) (string, error) {
	if s.stmt == nil {
		return "", newInterfaceError("statement is freed")
	}
	plan, err := s.stmt.getPlan(detailed)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(plan), nil
}

// Freed reports whether Free has been called.
func (s *Statement) Freed() bool { return s.stmt == nil }

// Free drops the server-side statement handle and releases the metadata.
// The statement must not be used afterwards. Free is idempotent.
func (s *Statement) Free() error {
	if s.stmt == nil {
		return nil
	}
	if s.inMeta != nil {
		s.inMeta.release()
		s.inMeta = nil
	}
	if s.outMeta != nil {
		s.outMeta.release()
		s.outMeta = nil
	}
	err := s.stmt.free()
	s.stmt = nil
	if s.conn != nil {
		s.conn.forgetStatement(s)
	}
	return err
}
