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
	"os"
	"syscall"

	pkgerrors "github.com/pkg/errors"
)

// loadLibrary opens the Firebird client DLL. FBCLIENT_LIBRARY_PATH overrides
// the default search order.
func loadLibrary() (uintptr, error) {
	name := "fbclient.dll"
	if path := os.Getenv("FBCLIENT_LIBRARY_PATH"); path != "" {
		name = path
	}
	handle, err := syscall.LoadLibrary(name)
	if err != nil {
		return 0, pkgerrors.Wrapf(err, "loading %q (set FBCLIENT_LIBRARY_PATH to override)", name)
	}
	return uintptr(handle), nil
}
