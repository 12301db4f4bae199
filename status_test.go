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

func TestIsGDSCode(t *testing.T) {
	assert.True(t, isGDSCode(335544344)) // isc_io_error
	assert.True(t, isGDSCode(335544436)) // isc_sqlerr
	assert.False(t, isGDSCode(0))
	assert.False(t, isGDSCode(100))
}

func TestBuildStatusError(t *testing.T) {
	err := buildStatusError("Dynamic SQL Error\n-SQL error code = -104", false, []statusArg{
		{tag: isc_arg_gds, num: 335544569},
		{tag: isc_arg_gds, num: iscSQLCodeMarker},
		{tag: isc_arg_number, num: -104},
		{tag: isc_arg_sql_state, str: "42000\x00"},
		{tag: isc_arg_end},
	})
	require.Error(t, err)

	var pe *ProgrammingError
	require.True(t, errors.As(err, &pe))
	assert.Equal(t, "42000", pe.SQLState)
	assert.Equal(t, int32(-104), pe.SQLCode)
	assert.Equal(t, []uint32{335544569, 335544436}, pe.GDSCodes)
	assert.Contains(t, pe.Error(), "Dynamic SQL Error")
}

func TestBuildStatusErrorWarning(t *testing.T) {
	err := buildStatusError("expression evaluation not supported", true, []statusArg{
		{tag: isc_arg_warning, num: 335544351},
		{tag: isc_arg_end},
	})
	var w *FirebirdWarning
	require.True(t, errors.As(err, &w))
	assert.Equal(t, []uint32{335544351}, w.GDSCodes)
}

func TestBuildStatusErrorDefaults(t *testing.T) {
	err := buildStatusError("", false, nil)
	var de *DatabaseError
	// SQLSTATE defaults to HY000, which is operational
	var oe *OperationalError
	require.True(t, errors.As(err, &oe))
	de = oe.DatabaseError
	assert.Equal(t, "HY000", de.SQLState)
	assert.Equal(t, "unknown Firebird error", de.Message)
}

func TestSpecializeDatabaseError(t *testing.T) {
	cases := []struct {
		sqlState string
		target   interface{}
	}{
		{"22012", &DataError{}},
		{"21000", &DataError{}},
		{"23000", &IntegrityError{}},
		{"27000", &IntegrityError{}},
		{"08001", &OperationalError{}},
		{"28000", &OperationalError{}},
		{"HY008", &OperationalError{}},
		{"0A000", &NotSupportedError{}},
		{"42000", &ProgrammingError{}},
		{"3D000", &ProgrammingError{}},
		{"XX001", &InternalError{}},
	}
	for _, c := range cases {
		err := specializeDatabaseError(&DatabaseError{Message: "m", SQLState: c.sqlState})
		assert.IsType(t, c.target, err, "SQLSTATE %s", c.sqlState)
	}

	// unknown classes stay plain
	err := specializeDatabaseError(&DatabaseError{Message: "m", SQLState: "01004"})
	assert.IsType(t, &DatabaseError{}, err)
}

func TestErrorUnwrap(t *testing.T) {
	base := &DatabaseError{Message: "m", SQLState: "22000"}
	err := specializeDatabaseError(base)
	var de *DatabaseError
	require.True(t, errors.As(err, &de))
	assert.Same(t, base, de)
}

func TestNewDataError(t *testing.T) {
	err := newDataError("value %d out of range", 7)
	assert.Equal(t, "value 7 out of range", err.Error())
	assert.Equal(t, "22000", err.SQLState)
}
