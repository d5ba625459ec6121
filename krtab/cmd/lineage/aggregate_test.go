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
	"math"
	"strings"
	"testing"

	"github.com/pkg/errors"
)

func testMerged(t *testing.T) *Table {
	return mkTable(t, []string{"A", "B"}, testKeys,
		"500,-1|Bacteria;Firmicutes;",
		"20,10|Bacteria;Firmicutes;Bacillus",
		"-1,300|Bacteria;Proteobacteria;",
		"0,5|Bacteria;Proteobacteria;Escherichia",
		"7,-1|Archaea;;")
}

func TestAggregateRank(t *testing.T) {
	a, err := Aggregate(testMerged(t), 1, -1, "")
	if err != nil {
		t.Fatal(err)
	}

	if strings.Join(a.Keys, ",") != "Domain,Phylum" {
		t.Errorf("unexpected keys: %v", a.Keys)
	}
	if a.Totals[0] != 527 || a.Totals[1] != 315 {
		t.Errorf("unexpected totals: %v", a.Totals)
	}

	expected := []struct {
		keys    string
		reads   [2]uint64
		species [2]uint64
	}{
		{"Archaea;", [2]uint64{7, 0}, [2]uint64{0, 0}},
		{"Bacteria;Firmicutes", [2]uint64{520, 10}, [2]uint64{1, 1}},
		{"Bacteria;Proteobacteria", [2]uint64{0, 305}, [2]uint64{0, 1}},
	}
	if len(a.Rows) != len(expected) {
		t.Fatalf("%d rows expected, %d returned", len(expected), len(a.Rows))
	}
	for k, e := range expected {
		g := a.Rows[k]
		if strings.Join(g.Keys, ";") != e.keys {
			t.Errorf("row %d: expected %s, returned %v", k, e.keys, g.Keys)
			continue
		}
		for i := 0; i < 2; i++ {
			if g.Reads[i] != e.reads[i] {
				t.Errorf("%s: reads of sample %d: %d != %d", e.keys, i, g.Reads[i], e.reads[i])
			}
			if g.Species[i] != e.species[i] {
				t.Errorf("%s: species of sample %d: %d != %d", e.keys, i, g.Species[i], e.species[i])
			}
		}
	}
}

func TestAggregatePercents(t *testing.T) {
	tbl := testMerged(t)
	for depth := range tbl.Keys {
		a, err := Aggregate(tbl, depth, -1, "")
		if err != nil {
			t.Fatal(err)
		}
		for i := range a.Samples {
			var sum float64
			for _, g := range a.Rows {
				sum += g.Percents[i]
			}
			if math.Abs(sum-100) > 1e-9 {
				t.Errorf("depth %d: percents of sample %d sum to %f", depth, i, sum)
			}
		}
	}

	// a sample with no reads at all
	tbl = mkTable(t, []string{"A", "B"}, testKeys,
		"5,-1|Bacteria;;",
		"3,0|Archaea;;")
	a, err := Aggregate(tbl, 0, -1, "")
	if err != nil {
		t.Fatal(err)
	}
	for _, g := range a.Rows {
		if g.Percents[1] != 0 || math.IsNaN(g.Percents[1]) {
			t.Errorf("percent of a zero total should be 0: %v", g.Percents)
		}
	}
}

func TestAggregateIdempotent(t *testing.T) {
	a, err := Aggregate(testMerged(t), 1, -1, "")
	if err != nil {
		t.Fatal(err)
	}
	a2, err := Aggregate(a.Table(), 1, -1, "")
	if err != nil {
		t.Fatal(err)
	}

	if len(a.Rows) != len(a2.Rows) {
		t.Fatalf("row numbers differ: %d vs %d", len(a.Rows), len(a2.Rows))
	}
	for k, g := range a.Rows {
		g2 := a2.Rows[k]
		if !equalKeys(g.Keys, g2.Keys) {
			t.Errorf("keys differ: %v vs %v", g.Keys, g2.Keys)
		}
		for i := range g.Reads {
			if g.Reads[i] != g2.Reads[i] || g.Percents[i] != g2.Percents[i] {
				t.Errorf("%v: values differ", g.Keys)
			}
		}
	}
}

func TestAggregatePlaceholder(t *testing.T) {
	tbl := mkTable(t, []string{"A"}, testKeys,
		"4|Bacteria;Firmicutes;NA",
		"6|Bacteria;Firmicutes;Bacillus",
		"1|Bacteria;Firmicutes;Listeria",
		"0|Bacteria;Firmicutes;Clostridium")
	a, err := Aggregate(tbl, 1, 2, "NA")
	if err != nil {
		t.Fatal(err)
	}
	if len(a.Rows) != 1 || a.Rows[0].Reads[0] != 11 || a.Rows[0].Species[0] != 2 {
		t.Errorf("unexpected row: %+v", a.Rows[0])
	}
}

func TestAggregateInvalidDepth(t *testing.T) {
	tbl := testMerged(t)
	for _, depth := range []int{-1, 3} {
		if _, err := Aggregate(tbl, depth, -1, ""); errors.Cause(err) != ErrInvalidDepth {
			t.Errorf("depth %d: ErrInvalidDepth expected, returned: %v", depth, err)
		}
	}
	if _, err := Aggregate(tbl, 0, 5, ""); errors.Cause(err) != ErrInvalidDepth {
		t.Errorf("ErrInvalidDepth expected, returned: %v", err)
	}
}
