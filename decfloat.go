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
	"math/big"

	"github.com/shopspring/decimal"
)

// DECFLOAT values arrive in the message buffer as little endian IEEE 754-2008
// decimal64/decimal128 with densely packed decimal significands. The decoders
// below unpack them into exact decimal values. Special values (NaN, infinity)
// have no decimal representation and are reported as data errors.

// dpdToDigits decodes one 10-bit densely packed declet into 0..999.
func dpdToDigits(dpd uint) int64 {
	h := int64(dpd>>7) & 7 // bits 9-7
	m := int64(dpd>>4) & 7 // bits 6-4
	l := int64(dpd) & 7    // bits 2-0
	var d2, d1, d0 int64
	switch {
	case dpd&0x008 == 0x000:
		d2, d1, d0 = h, m, l
	case dpd&0x00e == 0x008:
		d2, d1, d0 = h, m, 8+(l&1)
	case dpd&0x00e == 0x00a:
		d2, d1, d0 = h, 8+(m&1), (m&6)|(l&1)
	case dpd&0x00e == 0x00c:
		d2, d1, d0 = 8+(h&1), m, (h&6)|(l&1)
	default: // indicator bits 111, large digit placement in bits 6-5
		switch m & 6 {
		case 0:
			d2, d1, d0 = 8+(h&1), 8+(m&1), (h&6)|(l&1)
		case 2:
			d2, d1, d0 = 8+(h&1), (h&6)|(m&1), 8+(l&1)
		case 4:
			d2, d1, d0 = h, 8+(m&1), 8+(l&1)
		default:
			d2, d1, d0 = 8+(h&1), 8+(m&1), 8+(l&1)
		}
	}
	return d2*100 + d1*10 + d0
}

// significand assembles the coefficient from the leading digit and the DPD
// continuation field of the given bit width.
func significand(prefix int64, cont *big.Int, numBits int) *big.Int {
	declets := numBits / 10
	mask := big.NewInt(0x3ff)
	thousand := big.NewInt(1000)
	v := big.NewInt(prefix)
	var declet big.Int
	for i := declets - 1; i >= 0; i-- {
		declet.Rsh(cont, uint(i*10))
		declet.And(&declet, mask)
		v.Mul(v, thousand)
		v.Add(v, big.NewInt(dpdToDigits(uint(declet.Uint64()))))
	}
	return v
}

// beBigInt interprets a little endian buffer as an unsigned big integer.
func beBigInt(le []byte) *big.Int {
	be := make([]byte, len(le))
	for i, b := range le {
		be[len(le)-1-i] = b
	}
	return new(big.Int).SetBytes(be)
}

// decodeDec64 unpacks a little endian DECFLOAT(16) value.
func decodeDec64(b []byte) (decimal.Decimal, error) {
	msb := b[7]
	negative := msb&0x80 != 0
	cf := uint32(msb>>2) & 0x1f
	if cf == 0x1f || cf == 0x1e {
		return decimal.Decimal{}, newDataError("DECFLOAT special value has no exact decimal representation")
	}
	exponent := (int32(msb)&3)<<6 + (int32(b[6])>>2)&0x3f
	var prefix int64
	switch {
	case cf&0x18 != 0x18:
		exponent += int32(cf&0x18) << 5
		prefix = int64(cf & 7)
	default:
		exponent += int32(cf&0x06) << 7
		prefix = 8 + int64(cf&1)
	}
	exponent -= 398
	cont := beBigInt(b[:8])
	cont.And(cont, decfloatMask50)
	digits := significand(prefix, cont, 50)
	if negative {
		digits.Neg(digits)
	}
	return decimal.NewFromBigInt(digits, exponent), nil
}

// decodeDec128 unpacks a little endian DECFLOAT(34) value.
func decodeDec128(b []byte) (decimal.Decimal, error) {
	digits, exponent, err := dec128Parts(b)
	if err != nil {
		return decimal.Decimal{}, err
	}
	return decimal.NewFromBigInt(digits, exponent), nil
}

// dec128Parts splits a little endian decimal128 into signed coefficient and
// exponent.
func dec128Parts(b []byte) (*big.Int, int32, error) {
	msb := b[15]
	negative := msb&0x80 != 0
	cf := uint32(msb&0x7f)<<10 | uint32(b[14])<<2 | uint32(b[13])>>6
	if cf&0x1f000 == 0x1f000 || cf&0x1f000 == 0x1e000 {
		return nil, 0, newDataError("DECFLOAT special value has no exact decimal representation")
	}
	var prefix int64
	var exponent int32
	switch {
	case cf&0x18000 != 0x18000:
		exponent = int32(cf&0x18000)>>3 + int32(cf&0xfff)
		prefix = int64(cf>>12) & 7
	default:
		exponent = int32(cf&0x06000)>>1 + int32(cf&0xfff)
		prefix = 8 + int64(cf>>12)&1
	}
	exponent -= 6176
	cont := beBigInt(b)
	cont.And(cont, decfloatMask110)
	digits := significand(prefix, cont, 110)
	if negative {
		digits.Neg(digits)
	}
	return digits, exponent, nil
}

var (
	decfloatMask50  = new(big.Int).SetBytes([]byte{0x03, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff})
	decfloatMask110 = func() *big.Int {
		m := big.NewInt(1)
		m.Lsh(m, 110)
		return m.Sub(m, big.NewInt(1))
	}()
)

// int128 bounds for parameter range checks.
var (
	int128Max = func() *big.Int {
		m := big.NewInt(1)
		m.Lsh(m, 127)
		return m.Sub(m, big.NewInt(1))
	}()
	int128Min = new(big.Int).Neg(new(big.Int).Add(int128Max, big.NewInt(1)))
)

// decodeInt128 reads a little endian two's complement INT128 scaled by the
// column scale.
func decodeInt128(b []byte, scale int) decimal.Decimal {
	v := beBigInt(b[:16])
	if b[15]&0x80 != 0 {
		wrap := big.NewInt(1)
		wrap.Lsh(wrap, 128)
		v.Sub(v, wrap)
	}
	return decimal.NewFromBigInt(v, int32(scale))
}

// encodeInt128 writes v scaled to the column scale as a little endian two's
// complement INT128.
func encodeInt128(v *big.Int, buf []byte) error {
	if v.Cmp(int128Min) < 0 || v.Cmp(int128Max) > 0 {
		return newDataError("numeric overflow: value %s does not fit into INT128, which has range [%s,%s].",
			v.String(), int128Min.String(), int128Max.String())
	}
	work := new(big.Int).Set(v)
	if work.Sign() < 0 {
		wrap := big.NewInt(1)
		wrap.Lsh(wrap, 128)
		work.Add(work, wrap)
	}
	be := work.Bytes()
	for i := range buf[:16] {
		buf[i] = 0
	}
	for i := 0; i < len(be) && i < 16; i++ {
		buf[i] = be[len(be)-1-i]
	}
	return nil
}
