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

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/japanese"
	"golang.org/x/text/encoding/korean"
	"golang.org/x/text/encoding/simplifiedchinese"
	"golang.org/x/text/encoding/traditionalchinese"
)

// textCodec transcodes between Go strings and the connection character set.
// A nil encoding means the charset is UTF-8 or byte transparent, so no
// transformation is applied.
type textCodec struct {
	name string
	enc  encoding.Encoding
}

// firebirdEncodings maps Firebird character set names to Go encodings.
// UTF8, UNICODE_FSS, ASCII, NONE and OCTETS need no transcoding and are
// absent on purpose.
var firebirdEncodings = map[string]encoding.Encoding{
	"SJIS_0208":  japanese.ShiftJIS,
	"EUCJ_0208":  japanese.EUCJP,
	"KSC_5601":   korean.EUCKR,
	"GB_2312":    simplifiedchinese.HZGB2312,
	"GBK":        simplifiedchinese.GBK,
	"GB18030":    simplifiedchinese.GB18030,
	"BIG_5":      traditionalchinese.Big5,
	"DOS437":     charmap.CodePage437,
	"DOS850":     charmap.CodePage850,
	"DOS852":     charmap.CodePage852,
	"DOS855":     charmap.CodePage855,
	"DOS858":     charmap.CodePage858,
	"DOS860":     charmap.CodePage860,
	"DOS862":     charmap.CodePage862,
	"DOS863":     charmap.CodePage863,
	"DOS865":     charmap.CodePage865,
	"DOS866":     charmap.CodePage866,
	"ISO8859_1":  charmap.ISO8859_1,
	"ISO8859_2":  charmap.ISO8859_2,
	"ISO8859_3":  charmap.ISO8859_3,
	"ISO8859_4":  charmap.ISO8859_4,
	"ISO8859_5":  charmap.ISO8859_5,
	"ISO8859_6":  charmap.ISO8859_6,
	"ISO8859_7":  charmap.ISO8859_7,
	"ISO8859_8":  charmap.ISO8859_8,
	"ISO8859_9":  charmap.ISO8859_9,
	"ISO8859_13": charmap.ISO8859_13,
	"KOI8R":      charmap.KOI8R,
	"KOI8U":      charmap.KOI8U,
	"WIN1250":    charmap.Windows1250,
	"WIN1251":    charmap.Windows1251,
	"WIN1252":    charmap.Windows1252,
	"WIN1253":    charmap.Windows1253,
	"WIN1254":    charmap.Windows1254,
	"WIN1255":    charmap.Windows1255,
	"WIN1256":    charmap.Windows1256,
	"WIN1257":    charmap.Windows1257,
	"WIN1258":    charmap.Windows1258,
}

func newTextCodec(charset string) (*textCodec, error) {
	name := strings.ToUpper(strings.TrimSpace(charset))
	if name == "" {
		name = "UTF8"
	}
	switch name {
	case "UTF8", "UNICODE_FSS", "ASCII", "NONE", "OCTETS":
		return &textCodec{name: name}, nil
	}
	enc, ok := firebirdEncodings[name]
	if !ok {
		return nil, newInterfaceError("unsupported character set %q", charset)
	}
	return &textCodec{name: name, enc: enc}, nil
}

func (c *textCodec) encode(s string) ([]byte, error) {
	if c.enc == nil {
		return []byte(s), nil
	}
	return c.enc.NewEncoder().Bytes([]byte(s))
}

func (c *textCodec) decode(b []byte) (string, error) {
	if c.enc == nil {
		return string(b), nil
	}
	out, err := c.enc.NewDecoder().Bytes(b)
	if err != nil {
		return "", err
	}
	return string(out), nil
}
