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
	"database/sql/driver"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// Null is a scan target for nullable columns of the common value types.
type Null[T any] struct {
	value     T
	isDefined bool
}

func (n *Null[T]) Scan(from interface{}) error {
	if from == nil {
		n.isDefined = false
		return nil
	}

	var value T
	switch destination := any(&value).(type) {
	case *int64:
		switch s := from.(type) {
		case int64:
			*destination = s
		case int32:
			*destination = int64(s)
		default:
			return fmt.Errorf("unsupported type %T for int64", from)
		}
	case *string:
		switch s := from.(type) {
		case []byte:
			*destination = string(s)
		case string:
			*destination = s
		default:
			return fmt.Errorf("unsupported type %T for string", from)
		}
	case *float64:
		switch s := from.(type) {
		case float64:
			*destination = s
		case float32:
			*destination = float64(s)
		default:
			return fmt.Errorf("unsupported type %T for float64", from)
		}
	case *bool:
		switch s := from.(type) {
		case bool:
			*destination = s
		default:
			return fmt.Errorf("unsupported type %T for bool", from)
		}
	case *time.Time:
		switch s := from.(type) {
		case time.Time:
			*destination = s
		default:
			return fmt.Errorf("unsupported type %T for time.Time", from)
		}
	case *decimal.Decimal:
		switch s := from.(type) {
		case decimal.Decimal:
			*destination = s
		case string:
			d, err := decimal.NewFromString(s)
			if err != nil {
				return err
			}
			*destination = d
		default:
			return fmt.Errorf("unsupported type %T for decimal.Decimal", from)
		}
	default:
		return fmt.Errorf("unsupported generic type %T", from)
	}

	n.value = value
	n.isDefined = true

	return nil
}

func (n Null[T]) Value() (driver.Value, error) {
	if !n.isDefined {
		return nil, nil
	}
	return n.value, nil
}

// Get returns the value and whether it was non-NULL.
func (n Null[T]) Get() (T, bool) {
	return n.value, n.isDefined
}
