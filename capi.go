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
	"sync"
	"unsafe"

	"github.com/ebitengine/purego"
	pkgerrors "github.com/pkg/errors"
)

// fbAPI is the loaded Firebird client library: the master interface of the
// object-oriented API plus the handful of classic entry points that have no
// object-oriented equivalent (array slices, handle extraction, old-style
// status formatting). One instance exists per process, created lazily on the
// first Connect.
type fbAPI struct {
	lib      uintptr
	master   uintptr
	provider *nativeProvider
	util     *nativeUtil

	statusPool sync.Pool

	getMasterInterface   func() uintptr
	getDatabaseHandle    func(status, handle unsafe.Pointer, att uintptr) uintptr
	getTransactionHandle func(status, handle unsafe.Pointer, tra uintptr) uintptr
	iscArrayLookupBounds func(status, dbHandle, traHandle, relation, field, desc unsafe.Pointer) uintptr
	iscArrayGetSlice     func(status, dbHandle, traHandle, arrayID, desc, dest, sliceLen unsafe.Pointer) uintptr
	iscArrayPutSlice     func(status, dbHandle, traHandle, arrayID, desc, source, sliceLen unsafe.Pointer) uintptr
	interpret            func(buffer unsafe.Pointer, bufSize uint32, vector unsafe.Pointer) int32
}

var (
	apiOnce sync.Once
	apiInst *fbAPI
	apiErr  error
)

// loadAPI loads the native client library once and keeps it for the process
// lifetime. The library to load is resolved per OS in loadLibrary, with the
// FBCLIENT_LIBRARY_PATH environment variable as an override.
func loadAPI() (*fbAPI, error) {
	apiOnce.Do(func() {
		apiInst, apiErr = initAPI()
	})
	return apiInst, apiErr
}

func initAPI() (*fbAPI, error) {
	lib, err := loadLibrary()
	if err != nil {
		return nil, pkgerrors.Wrap(err, "fbclient: cannot load Firebird client library")
	}
	a := &fbAPI{lib: lib}
	purego.RegisterLibFunc(&a.getMasterInterface, lib, "fb_get_master_interface")
	purego.RegisterLibFunc(&a.getDatabaseHandle, lib, "fb_get_database_handle")
	purego.RegisterLibFunc(&a.getTransactionHandle, lib, "fb_get_transaction_handle")
	purego.RegisterLibFunc(&a.iscArrayLookupBounds, lib, "isc_array_lookup_bounds")
	purego.RegisterLibFunc(&a.iscArrayGetSlice, lib, "isc_array_get_slice")
	purego.RegisterLibFunc(&a.iscArrayPutSlice, lib, "isc_array_put_slice")
	purego.RegisterLibFunc(&a.interpret, lib, "fb_interpret")

	a.master = a.getMasterInterface()
	if a.master == 0 {
		return nil, pkgerrors.New("fbclient: fb_get_master_interface returned no interface")
	}
	a.util = &nativeUtil{api: a, ptr: vcall(a.master, masterSlotGetUtilInterface)}
	a.provider = &nativeProvider{refCounted: refCounted{api: a, ptr: vcall(a.master, masterSlotGetDispatcher)}}
	return a, nil
}
