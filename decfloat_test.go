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
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDpdToDigits(t *testing.T) {
	// small digits pass through the 3+3+3 bit encoding directly
	assert.Equal(t, int64(0), dpdToDigits(0))
	assert.Equal(t, int64(1), dpdToDigits(0x001))
	assert.Equal(t, int64(127), dpdToDigits(0x0a7))
	// 999 is the all-large-digits pattern
	assert.Equal(t, int64(999), dpdToDigits(0x0ff))
	assert.Equal(t, int64(888), dpdToDigits(0x06e))
}

func TestSignificand(t *testing.T) {
	v := significand(1, big.NewInt(0x001), 10)
	assert.Equal(t, int64(1001), v.Int64())
	v = significand(0, big.NewInt(0), 50)
	assert.Equal(t, int64(0), v.Int64())
}

func TestBeBigInt(t *testing.T) {
	v := beBigInt([]byte{0x01, 0x02})
	assert.Equal(t, int64(0x0201), v.Int64())
}

func TestDecodeDec64(t *testing.T) {
	// DECFLOAT(16) value 1: biased exponent 398, coefficient 1
	one := []byte{0x01, 0, 0, 0, 0, 0, 0x38, 0x22}
	d, err := decodeDec64(one)
	require.NoError(t, err)
	assert.True(t, decimal.New(1, 0).Equal(d))

	// sign bit flips the value
	minusOne := []byte{0x01, 0, 0, 0, 0, 0, 0x38, 0xa2}
	d, err = decodeDec64(minusOne)
	require.NoError(t, err)
	assert.True(t, decimal.New(-1, 0).Equal(d))
}

func TestDecodeDec64Special(t *testing.T) {
	nan := []byte{0, 0, 0, 0, 0, 0, 0, 0x7c}
	_, err := decodeDec64(nan)
	require.Error(t, err)
	assert.IsType(t, &DataError{}, err)

	inf := []byte{0, 0, 0, 0, 0, 0, 0, 0x78}
	_, err = decodeDec64(inf)
	require.Error(t, err)
}

func TestDecodeDec128(t *testing.T) {
	// DECFLOAT(34) value 1: biased exponent 6176, coefficient 1
	one := []byte{0x01, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0x00, 0x08, 0x22}
	d, err := decodeDec128(one)
	require.NoError(t, err)
	assert.True(t, decimal.New(1, 0).Equal(d))

	minusOne := []byte{0x01, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0x00, 0x08, 0xa2}
	d, err = decodeDec128(minusOne)
	require.NoError(t, err)
	assert.True(t, decimal.New(-1, 0).Equal(d))
}

func TestDecodeDec128Special(t *testing.T) {
	nan := make([]byte, 16)
	nan[15] = 0x7c
	_, err := decodeDec128(nan)
	require.Error(t, err)
	assert.IsType(t, &DataError{}, err)
}

func TestInt128RoundTrip(t *testing.T) {
	values := []*big.Int{
		big.NewInt(0),
		big.NewInt(1),
		big.NewInt(-1),
		big.NewInt(1234567890123456789),
		new(big.Int).Set(int128Max),
		new(big.Int).Set(int128Min),
	}
	for _, v := range values {
		buf := make([]byte, 16)
		require.NoError(t, encodeInt128(v, buf))
		got := decodeInt128(buf, 0)
		assert.True(t, decimal.NewFromBigInt(v, 0).Equal(got), "value %s", v)
	}
}

func TestInt128Scale(t *testing.T) {
	buf := make([]byte, 16)
	require.NoError(t, encodeInt128(big.NewInt(12345), buf))
	got := decodeInt128(buf, -2)
	assert.True(t, decimal.RequireFromString("123.45").Equal(got))
}

func TestEncodeInt128Overflow(t *testing.T) {
	tooBig := new(big.Int).Add(int128Max, big.NewInt(1))
	buf := make([]byte, 16)
	err := encodeInt128(tooBig, buf)
	require.Error(t, err)
	assert.IsType(t, &DataError{}, err)
	assert.Contains(t, err.Error(), "INT128")
}

func TestInt128Bounds(t *testing.T) {
	want := new(big.Int).Lsh(big.NewInt(1), 127)
	assert.Equal(t, 0, int128Max.Cmp(new(big.Int).Sub(want, big.NewInt(1))))
	assert.Equal(t, 0, int128Min.Cmp(new(big.Int).Neg(want)))
}
