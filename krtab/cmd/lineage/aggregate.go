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
	"github.com/twotwotwo/sorts"
)

// AggregatedRow is one lineage prefix of an aggregated table.
type AggregatedRow struct {
	Keys     []string
	Reads    []uint64  // summed reads of each sample
	Percents []float64 // percentage of the sample's grand total
	Species  []uint64  // number of species-resolved source rows
}

// Aggregated is a table grouped by the lineage prefix through a rank.
type Aggregated struct {
	Samples []string
	Keys    []string // key columns through the rank
	Depth   int
	Totals  []uint64 // grand totals of samples
	Rows    []*AggregatedRow
}

// Aggregate groups rows of t by the first depth+1 key columns, and sums
// reads of every sample in each group. Missing values are counted as 0.
//
// Species counts the source rows of a group having reads in a sample and
// a resolved (non-placeholder) value at the key column resolvedDepth.
// A negative resolvedDepth means the last key column.
//
// Groups are sorted by their keys.
func Aggregate(t *Table, depth int, resolvedDepth int, placeholder string) (*Aggregated, error) {
	if depth < 0 || depth >= len(t.Keys) {
		return nil, errors.Wrapf(ErrInvalidDepth, "%d not in [0, %d]", depth, len(t.Keys)-1)
	}
	if resolvedDepth < 0 {
		resolvedDepth = len(t.Keys) - 1
	}
	if resolvedDepth >= len(t.Keys) {
		return nil, errors.Wrapf(ErrInvalidDepth, "resolved depth %d not in [0, %d]", resolvedDepth, len(t.Keys)-1)
	}

	nS := len(t.Samples)
	a := &Aggregated{
		Samples: make([]string, nS),
		Keys:    make([]string, depth+1),
		Depth:   depth,
		Totals:  make([]uint64, nS),
		Rows:    make([]*AggregatedRow, 0, 128),
	}
	copy(a.Samples, t.Samples)
	copy(a.Keys, t.Keys[:depth+1])

	idx := newKeyIndex(len(t.Rows))
	keyRows := make([]*Row, 0, 128) // only for looking up keys
	var j, i int
	var g *AggregatedRow
	var c uint64
	var resolved bool
	for _, r := range t.Rows {
		prefix := r.Keys[:depth+1]
		j = idx.get(keyRows, prefix)
		if j < 0 {
			j = len(a.Rows)
			g = &AggregatedRow{
				Keys:     make([]string, depth+1),
				Reads:    make([]uint64, nS),
				Percents: make([]float64, nS),
				Species:  make([]uint64, nS),
			}
			copy(g.Keys, prefix)
			a.Rows = append(a.Rows, g)
			keyRows = append(keyRows, &Row{Keys: g.Keys})
			idx.add(g.Keys, j)
		} else {
			g = a.Rows[j]
		}

		resolved = r.Keys[resolvedDepth] != placeholder
		for i = 0; i < nS; i++ {
			c = r.Count(i)
			g.Reads[i] += c
			a.Totals[i] += c
			if resolved && c > 0 {
				g.Species[i]++
			}
		}
	}

	a.computePercents()

	sorts.Quicksort(aggregatedRows(a.Rows))

	return a, nil
}

func (a *Aggregated) computePercents() {
	for _, g := range a.Rows {
		for i, total := range a.Totals {
			if total == 0 {
				g.Percents[i] = 0
				continue
			}
			g.Percents[i] = float64(g.Reads[i]) / float64(total) * 100
		}
	}
}

// Table converts the aggregated reads to a count table.
func (a *Aggregated) Table() *Table {
	t := NewTable(a.Samples, a.Keys)
	for _, g := range a.Rows {
		r := &Row{
			Counts: make([]uint64, len(g.Reads)),
			Keys:   make([]string, len(g.Keys)),
		}
		copy(r.Counts, g.Reads)
		copy(r.Keys, g.Keys)
		t.Rows = append(t.Rows, r)
	}
	return t
}

type aggregatedRows []*AggregatedRow

func (s aggregatedRows) Len() int      { return len(s) }
func (s aggregatedRows) Swap(i, j int) { s[i], s[j] = s[j], s[i] }
func (s aggregatedRows) Less(i, j int) bool {
	a, b := s[i].Keys, s[j].Keys
	for k := range a {
		if a[k] != b[k] {
			return a[k] < b[k]
		}
	}
	return false
}
