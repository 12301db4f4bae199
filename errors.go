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
	"fmt"
	"strings"
)

// InterfaceError reports a misuse of the driver API detected on the client
// side, without any server round trip (fetch before execute, statement from
// a different connection, closed handle and so on).
type InterfaceError struct {
	Message string
}

func (e *InterfaceError) Error() string { return e.Message }

func newInterfaceError(format string, args ...interface{}) *InterfaceError {
	return &InterfaceError{Message: fmt.Sprintf(format, args...)}
}

// DatabaseError reports an error raised by the engine. Besides the formatted
// message it carries the SQLSTATE, the ordered list of gds error codes found
// in the status vector and the legacy SQLCODE, so callers can handle errors
// programmatically.
type DatabaseError struct {
	Message  string
	SQLState string
	GDSCodes []uint32
	SQLCode  int32
}

func (e *DatabaseError) Error() string { return e.Message }

// FirebirdWarning is a non-fatal warning reported by the engine through the
// status vector. Warnings are surfaced to the caller but never abort the
// native call that produced them.
type FirebirdWarning struct {
	DatabaseError
}

// DataError reports problems with the processed data: numeric value out of
// range, string truncation, division by zero (SQLSTATE class 22).
type DataError struct {
	*DatabaseError
}

func (e *DataError) Unwrap() error { return e.DatabaseError }

// OperationalError reports errors related to the database operation that are
// not necessarily under the programmer's control (SQLSTATE classes 08, 28,
// and engine shutdown/unavailable states).
type OperationalError struct {
	*DatabaseError
}

func (e *OperationalError) Unwrap() error { return e.DatabaseError }

// IntegrityError reports violated relational integrity (SQLSTATE class 23).
type IntegrityError struct {
	*DatabaseError
}

func (e *IntegrityError) Unwrap() error { return e.DatabaseError }

// InternalError reports that the engine hit an internal inconsistency
// (SQLSTATE class XX).
type InternalError struct {
	*DatabaseError
}

func (e *InternalError) Unwrap() error { return e.DatabaseError }

// ProgrammingError reports programming mistakes surfaced by the engine:
// syntax errors, wrong number of parameters, object not found (SQLSTATE
// classes 26, 2F, 37, 3C, 3D, 3F, 42).
type ProgrammingError struct {
	*DatabaseError
}

func (e *ProgrammingError) Unwrap() error { return e.DatabaseError }

// NotSupportedError reports use of a feature the engine does not support
// (SQLSTATE class 0A).
type NotSupportedError struct {
	*DatabaseError
}

func (e *NotSupportedError) Unwrap() error { return e.DatabaseError }

// newDataError builds a client-detected DataError (no status vector
// involved), used for overflow and truncation checks performed before the
// value ever reaches the engine.
func newDataError(format string, args ...interface{}) *DataError {
	return &DataError{DatabaseError: &DatabaseError{
		Message:  fmt.Sprintf(format, args...),
		SQLState: "22000",
	}}
}

// specializeDatabaseError wraps a DatabaseError into the taxonomy subclass
// matching its SQLSTATE class, mirroring the standard SQLSTATE-class
// semantics. Unknown classes stay plain DatabaseError.
func specializeDatabaseError(e *DatabaseError) error {
	if len(e.SQLState) < 2 {
		return e
	}
	switch class := e.SQLState[:2]; {
	case class == "22" || class == "21":
		return &DataError{DatabaseError: e}
	case class == "23" || class == "27" || class == "44":
		return &IntegrityError{DatabaseError: e}
	case class == "08" || class == "28" || class == "54" ||
		strings.HasPrefix(e.SQLState, "HY"):
		return &OperationalError{DatabaseError: e}
	case class == "0A":
		return &NotSupportedError{DatabaseError: e}
	case class == "26" || class == "2F" || class == "37" ||
		class == "3C" || class == "3D" || class == "3F" || class == "42":
		return &ProgrammingError{DatabaseError: e}
	case strings.HasPrefix(e.SQLState, "XX"):
		return &InternalError{DatabaseError: e}
	}
	return e
}
