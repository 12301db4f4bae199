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
	"encoding/binary"
)

// Message buffers and parameter blocks are little endian regardless of host
// order; the helpers below fix that convention in one place.

func bytesToInt16(b []byte) int16 {
	return int16(binary.LittleEndian.Uint16(b))
}

func bytesToUint16(b []byte) uint16 {
	return binary.LittleEndian.Uint16(b)
}

func bytesToInt32(b []byte) int32 {
	return int32(binary.LittleEndian.Uint32(b))
}

func bytesToUint32(b []byte) uint32 {
	return binary.LittleEndian.Uint32(b)
}

func bytesToInt64(b []byte) int64 {
	return int64(binary.LittleEndian.Uint64(b))
}

func int16ToBytes(i int16) []byte {
	b := make([]byte, 2)
	binary.LittleEndian.PutUint16(b, uint16(i))
	return b
}

func int32ToBytes(i int32) []byte {
	b := make([]byte, 4)
	binary.LittleEndian.PutUint32(b, uint32(i))
	return b
}

func int64ToBytes(i int64) []byte {
	b := make([]byte, 8)
	binary.LittleEndian.PutUint64(b, uint64(i))
	return b
}

func putInt16(buf []byte, i int16) {
	binary.LittleEndian.PutUint16(buf, uint16(i))
}

func putInt32(buf []byte, i int32) {
	binary.LittleEndian.PutUint32(buf, uint32(i))
}

func putInt64(buf []byte, i int64) {
	binary.LittleEndian.PutUint64(buf, uint64(i))
}

// putIntLE writes a signed integer into a variable-width little endian field.
func putIntLE(buf []byte, v int64) {
	for i := range buf {
		buf[i] = byte(v)
		v >>= 8
	}
}

// intLE decodes a variable-width little endian signed integer (message
// fields and information response items, widths 1 to 8 bytes).
func intLE(data []byte) int64 {
	var v int64
	for i := len(data) - 1; i >= 0; i-- {
		v = v<<8 | int64(data[i])
	}
	// sign-extend from the reported width
	shift := uint(64 - 8*len(data))
	return v << shift >> shift
}
