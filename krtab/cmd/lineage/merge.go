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
	"github.com/pkg/errors"
)

// Merge outer-joins two tables on their key columns, which must start
// with joinKey. acc can be nil for the first table.
//
// Rows of acc come first, followed by rows only found in next. Sample
// columns of next are appended after those of acc. Counts of an absent
// side are marked as missing. Neither input is modified.
func Merge(acc, next *Table, joinKey string) (*Table, error) {
	if err := checkJoinKey(next, joinKey); err != nil {
		return nil, err
	}
	if acc == nil {
		return dedup(next), nil
	}
	if err := checkJoinKey(acc, joinKey); err != nil {
		return nil, err
	}

	if !equalKeys(acc.Keys, next.Keys) {
		return nil, errors.Wrapf(ErrKeyMismatch, "%v vs %v", acc.Keys, next.Keys)
	}
	seen := make(map[string]struct{}, len(acc.Samples))
	for _, s := range acc.Samples {
		seen[s] = struct{}{}
	}
	for _, s := range next.Samples {
		if _, ok := seen[s]; ok {
			return nil, errors.Wrap(ErrDuplicatedSample, s)
		}
	}

	next = dedup(next)

	nA, nB := len(acc.Samples), len(next.Samples)
	samples := make([]string, 0, nA+nB)
	samples = append(samples, acc.Samples...)
	samples = append(samples, next.Samples...)
	t := NewTable(samples, acc.Keys)

	idx := newKeyIndex(len(next.Rows))
	for i, r := range next.Rows {
		idx.add(r.Keys, i)
	}
	matched := make([]bool, len(next.Rows))

	var row *Row
	var j int
	for _, r := range acc.Rows {
		row = &Row{
			Counts:  make([]uint64, nA+nB),
			Missing: make([]bool, nA+nB),
			Keys:    make([]string, len(r.Keys)),
		}
		copy(row.Keys, r.Keys)
		for i := 0; i < nA; i++ {
			row.Counts[i] = r.Count(i)
			row.Missing[i] = r.IsMissing(i)
		}

		j = idx.get(next.Rows, r.Keys)
		if j >= 0 {
			matched[j] = true
			for i := 0; i < nB; i++ {
				row.Counts[nA+i] = next.Rows[j].Count(i)
				row.Missing[nA+i] = next.Rows[j].IsMissing(i)
			}
		} else {
			for i := 0; i < nB; i++ {
				row.Missing[nA+i] = true
			}
		}

		t.Rows = append(t.Rows, row)
	}

	for j, r := range next.Rows {
		if matched[j] {
			continue
		}
		row = &Row{
			Counts:  make([]uint64, nA+nB),
			Missing: make([]bool, nA+nB),
			Keys:    make([]string, len(r.Keys)),
		}
		copy(row.Keys, r.Keys)
		for i := 0; i < nA; i++ {
			row.Missing[i] = true
		}
		for i := 0; i < nB; i++ {
			row.Counts[nA+i] = r.Count(i)
			row.Missing[nA+i] = r.IsMissing(i)
		}
		t.Rows = append(t.Rows, row)
	}

	return t, nil
}

func checkJoinKey(t *Table, joinKey string) error {
	if len(t.Keys) == 0 || t.Keys[0] != joinKey {
		return &MissingJoinKeyError{Key: joinKey, Columns: t.Columns()}
	}
	return nil
}

// dedup returns a copy of t in which rows sharing the same keys are
// summed into the first one. A sample stays missing only if it is
// missing in all these rows.
func dedup(t *Table) *Table {
	t2 := NewTable(t.Samples, t.Keys)
	idx := newKeyIndex(len(t.Rows))
	var j int
	var prev *Row
	for _, r := range t.Rows {
		j = idx.get(t2.Rows, r.Keys)
		if j < 0 {
			idx.add(r.Keys, len(t2.Rows))
			t2.Rows = append(t2.Rows, r.clone())
			continue
		}

		prev = t2.Rows[j]
		for i := range prev.Counts {
			if r.IsMissing(i) {
				continue
			}
			prev.Counts[i] = prev.Count(i) + r.Counts[i]
			if prev.Missing != nil {
				prev.Missing[i] = false
			}
		}
	}
	return t2
}
