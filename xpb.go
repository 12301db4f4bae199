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

// XPBWriter builds classic tag-length-value parameter blocks (DPB, TPB, BPB,
// EPB). Strings and byte items carry a one-byte length, so individual values
// are capped at 255 bytes.
type XPBWriter struct {
	buf []byte
}

func NewXPBWriter() *XPBWriter {
	return &XPBWriter{buf: make([]byte, 0, 16)}
}

func NewXPBWriterFromTag(tag byte) *XPBWriter {
	return NewXPBWriter().PutTag(tag)
}

// PutTag appends a bare flag item without a value.
func (pb *XPBWriter) PutTag(tag byte) *XPBWriter {
	pb.buf = append(pb.buf, tag)
	return pb
}

func (pb *XPBWriter) PutByte(tag byte, val byte) *XPBWriter {
	pb.buf = append(pb.buf, tag, 1, val)
	return pb
}

func (pb *XPBWriter) PutInt16(tag byte, val int16) *XPBWriter {
	pb.buf = append(pb.buf, tag, 2)
	pb.buf = append(pb.buf, int16ToBytes(val)...)
	return pb
}

func (pb *XPBWriter) PutInt32(tag byte, val int32) *XPBWriter {
	pb.buf = append(pb.buf, tag, 4)
	pb.buf = append(pb.buf, int32ToBytes(val)...)
	return pb
}

func (pb *XPBWriter) PutString(tag byte, val string) *XPBWriter {
	if len(val) > 255 {
		val = val[:255]
	}
	pb.buf = append(pb.buf, tag, byte(len(val)))
	pb.buf = append(pb.buf, val...)
	return pb
}

func (pb *XPBWriter) PutBytes(b []byte) *XPBWriter {
	pb.buf = append(pb.buf, b...)
	return pb
}

func (pb *XPBWriter) Bytes() []byte {
	return pb.buf
}

func (pb *XPBWriter) Reset() *XPBWriter {
	pb.buf = pb.buf[:0]
	return pb
}

// XPBReader walks information response buffers: a sequence of one-byte item
// codes each followed by a two-byte little endian length and that many data
// bytes, terminated by isc_info_end.
type XPBReader struct {
	buf []byte
	pos int
}

func NewXPBReader(buf []byte) *XPBReader {
	return &XPBReader{buf, 0}
}

func (pb *XPBReader) End() bool {
	return pb.pos >= len(pb.buf) || pb.buf[pb.pos] == isc_info_end
}

// Next returns the next item code, or false at the end of the buffer.
func (pb *XPBReader) Next() (bool, byte) {
	if pb.End() {
		return false, 0
	}
	b := pb.buf[pb.pos]
	pb.pos++
	return true, b
}

func (pb *XPBReader) GetInt16() int16 {
	r := bytesToInt16(pb.buf[pb.pos : pb.pos+2])
	pb.pos += 2
	return r
}

func (pb *XPBReader) GetInt32() int32 {
	r := bytesToInt32(pb.buf[pb.pos : pb.pos+4])
	pb.pos += 4
	return r
}

// GetClumplet returns the data of a length-prefixed item.
func (pb *XPBReader) GetClumplet() []byte {
	l := int(bytesToUint16(pb.buf[pb.pos : pb.pos+2]))
	pb.pos += 2
	data := pb.buf[pb.pos : pb.pos+l]
	pb.pos += l
	return data
}

func (pb *XPBReader) GetString() string {
	return string(pb.GetClumplet())
}

func (pb *XPBReader) Skip() {
	pb.GetClumplet()
}

func (pb *XPBReader) Reset() {
	pb.pos = 0
}
