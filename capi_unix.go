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

//go:build linux || freebsd

package fbclient

import (
	"os"

	"github.com/ebitengine/purego"
	pkgerrors "github.com/pkg/errors"
)

// loadLibrary opens the Firebird client shared library. FBCLIENT_LIBRARY_PATH
// overrides the default search.
func loadLibrary() (uintptr, error) {
	candidates := []string{"libfbclient.so.2", "libfbclient.so"}
	if path := os.Getenv("FBCLIENT_LIBRARY_PATH"); path != "" {
		candidates = []string{path}
	}
	var firstErr error
	for _, name := range candidates {
		lib, err := purego.Dlopen(name, purego.RTLD_NOW|purego.RTLD_GLOBAL)
		if err == nil {
			return lib, nil
		}
		if firstErr == nil {
			firstErr = err
		}
	}
	return 0, pkgerrors.Wrapf(firstErr, "loading %v (set FBCLIENT_LIBRARY_PATH to override)", candidates)
}
