// Copyright © 2023 Wei Shen <shenwei356@gmail.com>
//
// Permission is hereby granted, free of charge, to any person obtaining a copy
// of this software and associated documentation files (the "Software"), to deal
// in the Software without restriction, including without limitation the rights
// to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
// copies of the Software, and to permit persons to whom the Software is
// furnished to do so, subject to the following conditions:
//
// The above copyright notice and this permission notice shall be included in
// all copies or substantial portions of the Software.
//
// THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
// IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
// FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
// AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
// LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
// OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN
// THE SOFTWARE.

package lineage

import (
	"fmt"
	"strings"

	"github.com/pkg/errors"
)

// ErrInvalidSchema means the rank ladder or label vocabulary is unusable.
var ErrInvalidSchema = errors.New("krtab: invalid schema")

// ErrInvalidFormat means the report format has invalid field positions.
var ErrInvalidFormat = errors.New("krtab: invalid report format")

// ErrKeyMismatch means two tables do not share the same key columns.
var ErrKeyMismatch = errors.New("krtab: key columns mismatch")

// ErrDuplicatedSample means a sample name appears in both merged tables.
var ErrDuplicatedSample = errors.New("krtab: duplicated sample")

// ErrInvalidDepth means a rank depth is out of range of the key columns.
var ErrInvalidDepth = errors.New("krtab: invalid rank depth")

// MalformedRecordError is reported for a record whose rank code matches
// none of the vocabularies. The record's reads are not lost, they are
// folded into the nearest classification row.
type MalformedRecordError struct {
	Record   Record
	Expected []string
}

func (e *MalformedRecordError) Error() string {
	return fmt.Sprintf("unknown rank code %q of %q (line %d, %d reads), expected one of: %s",
		e.Record.Code, e.Record.Name, e.Record.Line, e.Record.Own, strings.Join(e.Expected, ", "))
}

// MissingJoinKeyError means the column used to split sample columns from
// key columns is absent.
type MissingJoinKeyError struct {
	Key     string
	Columns []string
}

func (e *MissingJoinKeyError) Error() string {
	return fmt.Sprintf("join key %q not found in columns: %s", e.Key, strings.Join(e.Columns, ", "))
}
