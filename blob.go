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
	"bytes"
	"io"
)

// BlobReader streams a large BLOB value from the server segment by segment
// instead of materializing it in memory. It implements io.Reader, io.Seeker
// and io.Closer. Seek only works on BLOBs stored in stream format; for
// segmented BLOBs the engine reports an error.
//
// A BlobReader stays bound to the cursor that produced it and is closed
// automatically when the cursor moves to the next row or is closed.
type BlobReader struct {
	blob    blobIntf
	blobID  quadID
	subType int
	length  int
	segSize int
	codec   *textCodec

	pos    int
	buf    []byte
	bufPos int
	bufLen int
}

func newBlobReader(blob blobIntf, id quadID, subType, length, segSize int, codec *textCodec) *BlobReader {
	if segSize <= 0 || segSize > maxBlobSegmentSize {
		segSize = maxBlobSegmentSize
	}
	return &BlobReader{
		blob:    blob,
		blobID:  id,
		subType: subType,
		length:  length,
		segSize: segSize,
		codec:   codec,
		buf:     make([]byte, segSize),
	}
}

// fill loads the next segment into the internal buffer. After return,
// bufLen == 0 means the BLOB is exhausted.
func (r *BlobReader) fill() error {
	r.bufPos, r.bufLen = 0, 0
	n, status, err := r.blob.getSegment(r.buf)
	if err != nil {
		return err
	}
	if status == fetchNoData {
		return nil
	}
	r.bufLen = n
	return nil
}

// Read reads up to len(p) bytes of raw BLOB content. Text BLOBs are returned
// in the connection character set; use ReadString for decoded text. Returns
// io.EOF when the BLOB is exhausted.
func (r *BlobReader) Read(p []byte) (int, error) {
	if r.blob == nil {
		return 0, newInterfaceError("read from closed BLOB reader")
	}
	read := 0
	for read < len(p) {
		if r.bufPos == r.bufLen {
			if err := r.fill(); err != nil {
				return read, err
			}
			if r.bufLen == 0 {
				break
			}
		}
		n := copy(p[read:], r.buf[r.bufPos:r.bufLen])
		read += n
		r.bufPos += n
		r.pos += n
	}
	if read == 0 && len(p) > 0 {
		return 0, io.EOF
	}
	return read, nil
}

// ReadString reads the rest of the BLOB and decodes it with the connection
// character set. For binary BLOBs use io.ReadAll instead.
func (r *BlobReader) ReadString() (string, error) {
	if r.blob == nil {
		return "", newInterfaceError("read from closed BLOB reader")
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return "", err
	}
	if r.subType != 1 || r.codec == nil {
		return string(data), nil
	}
	return r.codec.decode(data)
}

// ReadLine reads one line terminated by '\n' (terminator included) and
// decodes it with the connection character set. Returns io.EOF once the BLOB
// is exhausted. Only text BLOBs can be read line-wise.
func (r *BlobReader) ReadLine() (string, error) {
	if r.blob == nil {
		return "", newInterfaceError("read from closed BLOB reader")
	}
	if r.subType != 1 {
		return "", newInterfaceError("can't read line from binary BLOB")
	}
	var line []byte
	for {
		if r.bufPos == r.bufLen {
			if err := r.fill(); err != nil {
				return "", err
			}
			if r.bufLen == 0 {
				break
			}
		}
		chunk := r.buf[r.bufPos:r.bufLen]
		if i := bytes.IndexByte(chunk, '\n'); i >= 0 {
			line = append(line, chunk[:i+1]...)
			r.bufPos += i + 1
			r.pos += i + 1
			break
		}
		line = append(line, chunk...)
		r.pos += len(chunk)
		r.bufPos = r.bufLen
	}
	if len(line) == 0 {
		return "", io.EOF
	}
	if r.codec == nil {
		return string(line), nil
	}
	return r.codec.decode(line)
}

// Seek repositions the read cursor. The whence values follow io.Seeker and
// match the native seek modes. Seeking a segmented BLOB fails with a
// DatabaseError raised by the engine.
func (r *BlobReader) Seek(offset int64, whence int) (int64, error) {
	if r.blob == nil {
		return 0, newInterfaceError("seek on closed BLOB reader")
	}
	pos, err := r.blob.seek(whence, int(offset))
	if err != nil {
		return 0, err
	}
	r.pos = pos
	r.bufPos, r.bufLen = 0, 0
	return int64(pos), nil
}

// Tell returns the current read position within the BLOB.
func (r *BlobReader) Tell() int64 { return int64(r.pos) }

// Close releases the server-side BLOB handle. Close is idempotent.
func (r *BlobReader) Close() error {
	if r.blob == nil {
		return nil
	}
	err := r.blob.close()
	r.blob = nil
	return err
}

// Closed reports whether the reader has been closed.
func (r *BlobReader) Closed() bool { return r.blob == nil }

// IsText reports whether the BLOB holds text (sub_type 1).
func (r *BlobReader) IsText() bool { return r.subType == 1 }

// SubType returns the BLOB sub-type.
func (r *BlobReader) SubType() int { return r.subType }

// Length returns the total BLOB length in bytes.
func (r *BlobReader) Length() int { return r.length }

// SegmentSize returns the server-reported maximum segment size.
func (r *BlobReader) SegmentSize() int { return r.segSize }

// BlobID returns the native identifier of the BLOB.
func (r *BlobReader) BlobID() [8]byte { return r.blobID }
