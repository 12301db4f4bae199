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

// Connection is an attachment to a database. It owns two built-in
// transaction managers: the main one for application work and a read
// committed read-only one for queries, plus any number of additional
// managers created with NewTransactionManager.
//
// A Connection is not safe for concurrent use.
type Connection struct {
	att        attachmentIntf
	api        systemAPI
	dialect    int
	charset    string
	marshaller *marshaller

	// DefaultTPB is the default transaction parameter buffer for the main
	// transaction manager and managers created without an explicit TPB.
	DefaultTPB []byte

	traMain      *TransactionManager
	traQry       *TransactionManager
	transactions []*TransactionManager
	statements   map[*Statement]struct{}
	collectors   []*EventCollector

	// internal cursor for system table queries, bound to traQry
	ic *Cursor

	precisionCache map[string]int
	subtypeCache   map[string]int
}

// Connect attaches to an existing database.
func Connect(params ConnectParams) (*Connection, error) {
	api, err := loadAPI()
	if err != nil {
		return nil, err
	}
	att, err := api.provider.attachDatabase(params.Database, params.dpb(false))
	if err != nil {
		return nil, err
	}
	return newConnection(att, api, api.util, &params)
}

// CreateDatabase creates a new database and attaches to it.
func CreateDatabase(params ConnectParams) (*Connection, error) {
	api, err := loadAPI()
	if err != nil {
		return nil, err
	}
	att, err := api.provider.createDatabase(params.Database, params.dpb(true))
	if err != nil {
		return nil, err
	}
	return newConnection(att, api, api.util, &params)
}

func newConnection(att attachmentIntf, api systemAPI, util utilIntf, params *ConnectParams) (*Connection, error) {
	codec, err := newTextCodec(params.Charset)
	if err != nil {
		att.detach()
		return nil, err
	}
	c := &Connection{
		att:            att,
		api:            api,
		dialect:        sqlDialectCurrent,
		charset:        codec.name,
		marshaller:     &marshaller{util: util, codec: codec, dialect: sqlDialectCurrent},
		DefaultTPB:     NewTPB(IsolationSnapshot).Bytes(),
		statements:     make(map[*Statement]struct{}),
		precisionCache: make(map[string]int),
		subtypeCache:   make(map[string]int),
	}
	c.traMain = newTransactionManager(c, c.DefaultTPB, DefaultCommit)
	c.traQry = newTransactionManager(c, NewTPB(IsolationReadCommittedReadOnly).Bytes(), DefaultCommit)
	c.ic, _ = c.traQry.Cursor()
	return c, nil
}

// Charset returns the connection character set name.
func (c *Connection) Charset() string { return c.charset }

// SQLDialect returns the SQL dialect the connection speaks.
func (c *Connection) SQLDialect() int { return c.dialect }

// Closed reports whether the connection has been closed or dropped.
func (c *Connection) Closed() bool { return c.att == nil }

// MainTransaction returns the built-in main transaction manager.
func (c *Connection) MainTransaction() *TransactionManager { return c.traMain }

// QueryTransaction returns the built-in read committed read-only manager
// used for queries that must not disturb the main transaction context.
func (c *Connection) QueryTransaction() *TransactionManager { return c.traQry }

// NewTransactionManager creates an additional transaction manager. A nil tpb
// selects the connection's DefaultTPB.
func (c *Connection) NewTransactionManager(tpb []byte, action DefaultAction) (*TransactionManager, error) {
	if c.att == nil {
		return nil, newInterfaceError("connection is closed")
	}
	if tpb == nil {
		tpb = c.DefaultTPB
	}
	t := newTransactionManager(c, tpb, action)
	c.transactions = append(c.transactions, t)
	return t, nil
}

func (c *Connection) forgetTransaction(t *TransactionManager) {
	for i, tr := range c.transactions {
		if tr == t {
			c.transactions = append(c.transactions[:i], c.transactions[i+1:]...)
			return
		}
	}
}

func (c *Connection) forgetStatement(s *Statement) {
	delete(c.statements, s)
}

// Cursor returns a new cursor working under the main transaction manager.
func (c *Connection) Cursor() (*Cursor, error) {
	if c.att == nil {
		return nil, newInterfaceError("connection is closed")
	}
	return c.traMain.Cursor()
}

// Begin starts a transaction on the main manager.
func (c *Connection) Begin(tpb ...[]byte) error { return c.traMain.Begin(tpb...) }

// Commit commits the main manager's transaction.
func (c *Connection) Commit() error { return c.traMain.Commit() }

// Rollback rolls back the main manager's transaction.
func (c *Connection) Rollback() error { return c.traMain.Rollback() }

// Savepoint creates a savepoint in the main manager's transaction.
func (c *Connection) Savepoint(name string) error { return c.traMain.Savepoint(name) }

// ExecuteImmediate runs a statement without results in the context of the
// main transaction manager.
func (c *Connection) ExecuteImmediate(sql string) error {
	if c.att == nil {
		return newInterfaceError("connection is closed")
	}
	return c.traMain.ExecuteImmediate(sql)
}

// Prepare compiles a statement under the main transaction manager. When no
// transaction is active, a short-lived one is used.
func (c *Connection) Prepare(sql string) (*Statement, error) {
	return c.prepareWith(c.traMain, sql)
}

func (c *Connection) prepareWith(tra *TransactionManager, sql string) (*Statement, error) {
	if c.att == nil {
		return nil, newInterfaceError("connection is closed")
	}
	autoCommit := !tra.IsActive()
	if autoCommit {
		if err := tra.Begin(); err != nil {
			return nil, err
		}
	}
	stmt, err := c.att.prepare(tra.tra, sql, c.dialect)
	if err != nil {
		if autoCommit {
			tra.Commit()
		}
		return nil, err
	}
	st, err := newStatement(c, stmt, sql, c.dialect)
	if err != nil {
		if autoCommit {
			tra.Commit()
		}
		return nil, err
	}
	c.statements[st] = struct{}{}
	if autoCommit {
		if err := tra.Commit(); err != nil {
			st.Free()
			return nil, err
		}
	}
	return st, nil
}

// queryOne runs a system table query on the internal cursor, keeping the
// query transaction in whatever state it was.
func (c *Connection) queryOne(sql string, params ...interface{}) ([]interface{}, error) {
	active := c.traQry.IsActive()
	if err := c.ic.Execute(sql, params...); err != nil {
		return nil, err
	}
	row, err := c.ic.Fetchone()
	if err != nil {
		return nil, err
	}
	if !active && c.traQry.IsActive() {
		if cerr := c.traQry.Commit(); cerr != nil {
			return row, cerr
		}
	}
	return row, nil
}

// fieldPrecision determines the declared precision of a fixed-point column
// from the system tables, first as a table column, then as a procedure
// output parameter. Computed fields have no known precision and report 0.
func (c *Connection) fieldPrecision(d *fieldDesc) (int, error) {
	if d.relation == "" || d.field == "" {
		return 0, nil
	}
	if d.field == "DB_KEY" || d.field == "RDB$DB_KEY" {
		return 0, nil
	}
	key := d.relation + "." + d.field
	if p, ok := c.precisionCache[key]; ok {
		return p, nil
	}
	row, err := c.queryOne("SELECT FIELD_SPEC.RDB$FIELD_PRECISION"+
		" FROM RDB$FIELDS FIELD_SPEC, RDB$RELATION_FIELDS REL_FIELDS"+
		" WHERE FIELD_SPEC.RDB$FIELD_NAME = REL_FIELDS.RDB$FIELD_SOURCE"+
		" AND REL_FIELDS.RDB$RELATION_NAME = ?"+
		" AND REL_FIELDS.RDB$FIELD_NAME = ?", d.relation, d.field)
	if err != nil {
		return 0, err
	}
	if row == nil {
		row, err = c.queryOne("SELECT FIELD_SPEC.RDB$FIELD_PRECISION"+
			" FROM RDB$FIELDS FIELD_SPEC, RDB$PROCEDURE_PARAMETERS REL_FIELDS"+
			" WHERE FIELD_SPEC.RDB$FIELD_NAME = REL_FIELDS.RDB$FIELD_SOURCE"+
			" AND RDB$PROCEDURE_NAME = ?"+
			" AND RDB$PARAMETER_NAME = ?"+
			" AND RDB$PARAMETER_TYPE = 1", d.relation, d.field)
		if err != nil {
			return 0, err
		}
	}
	precision := 0
	if row != nil && row[0] != nil {
		if v, ok := toInt64(row[0]); ok {
			precision = int(v)
		}
	}
	c.precisionCache[key] = precision
	return precision, nil
}

// arraySubtype determines the declared sub-type of an array column, cached
// per connection.
func (c *Connection) arraySubtype(relation, field string) (int, error) {
	key := relation + "." + field
	if s, ok := c.subtypeCache[key]; ok {
		return s, nil
	}
	row, err := c.queryOne("SELECT FIELD_SPEC.RDB$FIELD_SUB_TYPE"+
		" FROM RDB$FIELDS FIELD_SPEC, RDB$RELATION_FIELDS REL_FIELDS"+
		" WHERE FIELD_SPEC.RDB$FIELD_NAME = REL_FIELDS.RDB$FIELD_SOURCE"+
		" AND REL_FIELDS.RDB$RELATION_NAME = ?"+
		" AND REL_FIELDS.RDB$FIELD_NAME = ?", relation, field)
	if err != nil {
		return 0, err
	}
	subType := 0
	if row != nil && row[0] != nil {
		if v, ok := toInt64(row[0]); ok {
			subType = int(v)
		}
	}
	c.subtypeCache[key] = subType
	return subType, nil
}

// NewEventCollector creates a collector subscribed to the given database
// events. Call Begin on the collector to start accumulating notifications.
func (c *Connection) NewEventCollector(eventNames []string) (*EventCollector, error) {
	if c.att == nil {
		return nil, newInterfaceError("connection is closed")
	}
	collector, err := newEventCollector(c.att, eventNames)
	if err != nil {
		return nil, err
	}
	collector.onClose = func(ec *EventCollector) {
		for i, col := range c.collectors {
			if col == ec {
				c.collectors = append(c.collectors[:i], c.collectors[i+1:]...)
				return
			}
		}
	}
	c.collectors = append(c.collectors, collector)
	return collector, nil
}

// Ping checks the connection. When the check fails the only possible
// operation left is Close.
func (c *Connection) Ping() error {
	if c.att == nil {
		return newInterfaceError("connection is closed")
	}
	return c.att.ping()
}

// CancelOperation requests cancellation of the operation currently running
// on this attachment from another goroutine.
func (c *Connection) CancelOperation(option int) error {
	if c.att == nil {
		return newInterfaceError("connection is closed")
	}
	return c.att.cancelOperation(option)
}

// IdleTimeout returns the attachment idle timeout in seconds.
func (c *Connection) IdleTimeout() (int, error) {
	if c.att == nil {
		return 0, newInterfaceError("connection is closed")
	}
	return c.att.idleTimeout()
}

// SetIdleTimeout sets the attachment idle timeout in seconds.
func (c *Connection) SetIdleTimeout(seconds int) error {
	if c.att == nil {
		return newInterfaceError("connection is closed")
	}
	return c.att.setIdleTimeout(seconds)
}

// StatementTimeout returns the default statement timeout in milliseconds.
func (c *Connection) StatementTimeout() (int, error) {
	if c.att == nil {
		return 0, newInterfaceError("connection is closed")
	}
	return c.att.statementTimeout()
}

// SetStatementTimeout sets the default statement timeout in milliseconds.
func (c *Connection) SetStatementTimeout(milliseconds int) error {
	if c.att == nil {
		return newInterfaceError("connection is closed")
	}
	return c.att.setStatementTimeout(milliseconds)
}

// FirebirdVersion returns the server version string.
func (c *Connection) FirebirdVersion() (string, error) {
	info, err := c.getInfo([]byte{isc_info_firebird_version, isc_info_end})
	if err != nil {
		return "", err
	}
	r := NewXPBReader(info)
	for {
		ok, tag := r.Next()
		if !ok || tag == isc_info_end {
			break
		}
		data := r.GetClumplet()
		if tag != isc_info_firebird_version {
			continue
		}
		// line count byte, then (length, text) per line
		if len(data) < 2 {
			break
		}
		var lines []string
		pos := 1
		for i := 0; i < int(data[0]) && pos < len(data); i++ {
			n := int(data[pos])
			pos++
			if pos+n > len(data) {
				break
			}
			lines = append(lines, string(data[pos:pos+n]))
			pos += n
		}
		return strings.Join(lines, "\n"), nil
	}
	return "", newInterfaceError("malformed response to version request")
}

// AttachmentID returns the engine-assigned attachment number.
func (c *Connection) AttachmentID() (int64, error) {
	info, err := c.getInfo([]byte{isc_info_attachment_id, isc_info_end})
	if err != nil {
		return 0, err
	}
	return infoItemInt(info, isc_info_attachment_id)
}

// PageSize returns the database page size in bytes.
func (c *Connection) PageSize() (int64, error) {
	info, err := c.getInfo([]byte{isc_info_page_size, isc_info_end})
	if err != nil {
		return 0, err
	}
	return infoItemInt(info, isc_info_page_size)
}

// DatabaseSQLDialect returns the SQL dialect of the attached database.
func (c *Connection) DatabaseSQLDialect() (int64, error) {
	info, err := c.getInfo([]byte{isc_info_db_sql_dialect, isc_info_end})
	if err != nil {
		return 0, err
	}
	return infoItemInt(info, isc_info_db_sql_dialect)
}

// ReadOnly reports whether the attached database is read-only.
func (c *Connection) ReadOnly() (bool, error) {
	info, err := c.getInfo([]byte{isc_info_db_read_only, isc_info_end})
	if err != nil {
		return false, err
	}
	v, err := infoItemInt(info, isc_info_db_read_only)
	return v != 0, err
}

func (c *Connection) getInfo(items []byte) ([]byte, error) {
	if c.att == nil {
		return nil, newInterfaceError("connection is closed")
	}
	return c.att.getInfo(items)
}

// closeResources tears down everything bound to the attachment: the
// internal cursor, event collectors, transactions (rolled back) and
// statements.
func (c *Connection) closeResources() {
	c.ic.Close()
	for len(c.collectors) > 0 {
		c.collectors[0].Close()
	}
	c.traMain.finish(DefaultRollback)
	c.traQry.finish(DefaultRollback)
	for len(c.transactions) > 0 {
		t := c.transactions[0]
		t.DefaultAction = DefaultRollback
		t.Close()
	}
	for st := range c.statements {
		st.Free()
	}
}

// DropDatabase drops the attached database. All resources bound to the
// connection are torn down first; afterwards the connection is closed.
func (c *Connection) DropDatabase() error {
	if c.att == nil {
		return newInterfaceError("connection is closed")
	}
	c.closeResources()
	err := c.att.dropDatabase()
	c.att = nil
	return err
}

// Close detaches from the database, rolling back active transactions and
// freeing every statement first. Close is idempotent.
func (c *Connection) Close() error {
	if c.att == nil {
		return nil
	}
	c.closeResources()
	err := c.att.detach()
	c.att = nil
	return err
}
