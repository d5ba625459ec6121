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
	"strings"

	"github.com/zeebo/wyhash"
)

// Row is one row of a Table: a count for each sample and the key values.
type Row struct {
	Counts []uint64

	// Missing[i] is true if sample i has no record for this row.
	// A nil Missing means all samples are present.
	Missing []bool

	Keys []string
}

// Count returns the count of sample i, missing values are 0.
func (r *Row) Count(i int) uint64 {
	if r.Missing != nil && r.Missing[i] {
		return 0
	}
	return r.Counts[i]
}

// IsMissing tells if sample i has no value.
func (r *Row) IsMissing(i int) bool {
	return r.Missing != nil && r.Missing[i]
}

func (r *Row) clone() *Row {
	r2 := &Row{
		Counts: make([]uint64, len(r.Counts)),
		Keys:   make([]string, len(r.Keys)),
	}
	copy(r2.Counts, r.Counts)
	copy(r2.Keys, r.Keys)
	if r.Missing != nil {
		r2.Missing = make([]bool, len(r.Missing))
		copy(r2.Missing, r.Missing)
	}
	return r2
}

// Table is a count table. Sample columns always come first, followed by
// the key columns, e.g., Domain, Phylum, ..., Species for lineage tables,
// or Label, Name for classification tables.
type Table struct {
	Samples []string
	Keys    []string
	Rows    []*Row
}

// NewTable creates an empty table.
func NewTable(samples []string, keys []string) *Table {
	t := &Table{
		Samples: make([]string, len(samples)),
		Keys:    make([]string, len(keys)),
		Rows:    make([]*Row, 0, 128),
	}
	copy(t.Samples, samples)
	copy(t.Keys, keys)
	return t
}

// Columns returns all column names: samples then keys.
func (t *Table) Columns() []string {
	cols := make([]string, 0, len(t.Samples)+len(t.Keys))
	cols = append(cols, t.Samples...)
	cols = append(cols, t.Keys...)
	return cols
}

// Total returns the grand total of sample i.
func (t *Table) Total(i int) uint64 {
	var n uint64
	for _, r := range t.Rows {
		n += r.Count(i)
	}
	return n
}

// SplitColumns splits a header row into sample columns and key columns,
// at the position of joinKey.
func SplitColumns(header []string, joinKey string) ([]string, []string, error) {
	for i, c := range header {
		if c == joinKey {
			return header[:i], header[i:], nil
		}
	}
	return nil, nil, &MissingJoinKeyError{Key: joinKey, Columns: header}
}

// keyIndex finds rows by their key values.
type keyIndex struct {
	m map[uint64][]int
}

func newKeyIndex(n int) *keyIndex {
	return &keyIndex{m: make(map[uint64][]int, n)}
}

func hashKeys(keys []string) uint64 {
	// "\x00" never appears in a taxon name.
	return wyhash.HashString(strings.Join(keys, "\x00"), 1)
}

func equalKeys(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// get returns the index of the row with the keys, or -1.
func (idx *keyIndex) get(rows []*Row, keys []string) int {
	for _, i := range idx.m[hashKeys(keys)] {
		if equalKeys(rows[i].Keys, keys) {
			return i
		}
	}
	return -1
}

func (idx *keyIndex) add(keys []string, i int) {
	h := hashKeys(keys)
	idx.m[h] = append(idx.m[h], i)
}
