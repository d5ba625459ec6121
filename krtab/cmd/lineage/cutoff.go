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

// OtherName is the name of the rank column of collapsed rows.
const OtherName = "Other"

// Collapse removes rows in which reads of all samples are below cutoff,
// and sums them by the parent lineage into rows named "Other" at the
// rank of the table. Kept rows come first, followed by "Other" rows.
// If a kept row of the parent is already named "Other", reads are added
// to it, so lineages stay unique.
//
// Tables at depth 0 have no parent rank and are returned as a copy.
func Collapse(a *Aggregated, cutoff uint64) *Aggregated {
	nS := len(a.Samples)
	a2 := &Aggregated{
		Samples: make([]string, nS),
		Keys:    make([]string, len(a.Keys)),
		Depth:   a.Depth,
		Totals:  make([]uint64, nS),
		Rows:    make([]*AggregatedRow, 0, len(a.Rows)),
	}
	copy(a2.Samples, a.Samples)
	copy(a2.Keys, a.Keys)
	copy(a2.Totals, a.Totals)

	if a.Depth == 0 {
		for _, g := range a.Rows {
			a2.Rows = append(a2.Rows, g.clone())
		}
		return a2
	}

	kept := make([]bool, len(a.Rows))
	for k, g := range a.Rows {
		for _, n := range g.Reads {
			if n >= cutoff {
				kept[k] = true
				break
			}
		}
	}

	// rows receiving collapsed reads, indexed by the parent lineage.
	// A kept taxon already named "Other" takes the reads of its siblings.
	targets := make([]*AggregatedRow, 0, 8)
	idx := newKeyIndex(8)
	keyRows := make([]*Row, 0, 8)
	others := make([]*AggregatedRow, 0, 8)
	var o *AggregatedRow
	for k, g := range a.Rows {
		if !kept[k] {
			continue
		}
		o = g.clone()
		a2.Rows = append(a2.Rows, o)
		if o.Keys[a.Depth] == OtherName && idx.get(keyRows, o.Keys[:a.Depth]) < 0 {
			idx.add(o.Keys[:a.Depth], len(targets))
			targets = append(targets, o)
			keyRows = append(keyRows, &Row{Keys: o.Keys[:a.Depth]})
		}
	}

	var j int
	for k, g := range a.Rows {
		if kept[k] {
			continue
		}

		parent := g.Keys[:a.Depth]
		j = idx.get(keyRows, parent)
		if j < 0 {
			o = &AggregatedRow{
				Keys:     make([]string, a.Depth+1),
				Reads:    make([]uint64, nS),
				Percents: make([]float64, nS),
				Species:  make([]uint64, nS),
			}
			copy(o.Keys, parent)
			o.Keys[a.Depth] = OtherName
			others = append(others, o)

			idx.add(parent, len(targets))
			targets = append(targets, o)
			keyRows = append(keyRows, &Row{Keys: o.Keys[:a.Depth]})
		} else {
			o = targets[j]
		}

		for i := 0; i < nS; i++ {
			o.Reads[i] += g.Reads[i]
			o.Species[i] += g.Species[i]
		}
	}

	for _, o = range targets {
		for i, total := range a2.Totals {
			if total > 0 {
				o.Percents[i] = float64(o.Reads[i]) / float64(total) * 100
			}
		}
	}
	a2.Rows = append(a2.Rows, others...)

	return a2
}

func (g *AggregatedRow) clone() *AggregatedRow {
	g2 := &AggregatedRow{
		Keys:     make([]string, len(g.Keys)),
		Reads:    make([]uint64, len(g.Reads)),
		Percents: make([]float64, len(g.Percents)),
		Species:  make([]uint64, len(g.Species)),
	}
	copy(g2.Keys, g.Keys)
	copy(g2.Reads, g.Reads)
	copy(g2.Percents, g.Percents)
	copy(g2.Species, g.Species)
	return g2
}
