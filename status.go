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
	"strings"
)

// statusArg is one decoded entry of a native status vector. The native layer
// resolves pointer-valued arguments (strings, SQLSTATE) before translation so
// the walk itself stays free of unsafe code.
type statusArg struct {
	tag int
	num int64
	str string
}

// isGDSCode reports whether a numeric status argument is a gds error code.
// All Firebird error codes live in facility-tagged space 0x14000000.
func isGDSCode(code int64) bool {
	return code&0x14000000 == 0x14000000
}

// buildStatusError turns a decoded status vector into a typed driver error.
// message is the engine-formatted text (IUtil.formatStatus), already complete;
// the walk only extracts the machine-readable parts: the ordered gds codes,
// the SQLSTATE and, when code 335544436 (isc_sqlerr) appears, the explicit
// SQLCODE carried by the numeric argument that follows it.
//
// Vectors flagged as warnings become FirebirdWarning; error vectors are
// specialized by SQLSTATE class.
func buildStatusError(message string, warning bool, args []statusArg) error {
	e := &DatabaseError{
		Message:  message,
		SQLState: "HY000",
	}
	for i := 0; i < len(args); i++ {
		a := args[i]
		switch a.tag {
		case isc_arg_end:
			i = len(args)
		case isc_arg_gds, isc_arg_warning:
			if isGDSCode(a.num) {
				e.GDSCodes = append(e.GDSCodes, uint32(a.num))
			}
			if a.num == iscSQLCodeMarker && i+1 < len(args) && args[i+1].tag == isc_arg_number {
				e.SQLCode = int32(args[i+1].num)
				i++
			}
		case isc_arg_sql_state:
			if s := strings.TrimRight(a.str, "\x00"); s != "" {
				e.SQLState = s
			}
		}
	}
	if e.Message == "" {
		e.Message = "unknown Firebird error"
	}
	if warning {
		return &FirebirdWarning{DatabaseError: *e}
	}
	return specializeDatabaseError(e)
}
