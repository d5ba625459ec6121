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
	"testing"
)

func TestCollapse(t *testing.T) {
	tbl := mkTable(t, []string{"A"}, testKeys,
		"800|Bacteria;Firmicutes;Listeria",
		"1500|Bacteria;Proteobacteria;")
	a, err := Aggregate(tbl, 1, -1, "")
	if err != nil {
		t.Fatal(err)
	}

	c := Collapse(a, 1000)
	if len(c.Rows) != 2 {
		t.Fatalf("two rows expected, %d returned", len(c.Rows))
	}
	if k := strings.Join(c.Rows[0].Keys, ";"); k != "Bacteria;Proteobacteria" || c.Rows[0].Reads[0] != 1500 {
		t.Errorf("unexpected kept row: %s %v", k, c.Rows[0].Reads)
	}
	if k := strings.Join(c.Rows[1].Keys, ";"); k != "Bacteria;Other" || c.Rows[1].Reads[0] != 800 {
		t.Errorf("unexpected collapsed row: %s %v", k, c.Rows[1].Reads)
	}
	if c.Rows[1].Species[0] != 1 {
		t.Errorf("species of collapsed rows should be summed: %v", c.Rows[1].Species)
	}
	if p := c.Rows[0].Percents[0] + c.Rows[1].Percents[0]; p < 99.999 || p > 100.001 {
		t.Errorf("percents sum to %f", p)
	}

	if len(a.Rows) != 2 || a.Rows[0].Keys[1] != "Firmicutes" || a.Rows[1].Keys[1] != "Proteobacteria" {
		t.Errorf("the input table should not be modified")
	}
}

func TestCollapseConservesReads(t *testing.T) {
	tbl := mkTable(t, []string{"A", "B"}, testKeys,
		"3,-1|Bacteria;Firmicutes;Listeria",
		"2,4|Bacteria;Firmicutes;Bacillus",
		"9,1|Bacteria;Firmicutes;Clostridium",
		"1,1|Bacteria;Proteobacteria;Escherichia",
		"1,-1|Bacteria;Proteobacteria;Salmonella",
		"0,30|Archaea;Euryarchaeota;Methanobrevibacter")

	for depth := range testKeys {
		a, err := Aggregate(tbl, depth, -1, "")
		if err != nil {
			t.Fatal(err)
		}
		c := Collapse(a, 5)

		for i := range c.Samples {
			var sum uint64
			for _, g := range c.Rows {
				sum += g.Reads[i]
			}
			if sum != a.Totals[i] {
				t.Errorf("depth %d: reads of sample %d not conserved: %d != %d", depth, i, sum, a.Totals[i])
			}
		}

		if depth == 0 {
			if len(c.Rows) != len(a.Rows) {
				t.Errorf("depth 0 should not be collapsed")
			}
			continue
		}

		kept := make(map[string]bool, len(c.Rows))
		for _, g := range c.Rows {
			if g.Keys[depth] == OtherName {
				continue
			}
			kept[strings.Join(g.Keys, ";")] = true
			var ok bool
			for _, n := range g.Reads {
				if n >= 5 {
					ok = true
				}
			}
			if !ok {
				t.Errorf("depth %d: %v should be collapsed", depth, g.Keys)
			}
		}

		if depth == 2 {
			// Clostridium is kept by sample A, Methanobrevibacter by sample B
			if len(kept) != 2 || !kept["Bacteria;Firmicutes;Clostridium"] ||
				!kept["Archaea;Euryarchaeota;Methanobrevibacter"] {
				t.Errorf("unexpected kept rows: %v", kept)
			}
			if len(c.Rows) != 4 {
				t.Errorf("two Other rows expected: %d rows", len(c.Rows))
			}
		}
	}
}

func TestCollapseExistingOther(t *testing.T) {
	tbl := mkTable(t, []string{"A"}, testKeys,
		"5000|Bacteria;Other;Otherella",
		"800|Bacteria;Firmicutes;Listeria",
		"1500|Bacteria;Proteobacteria;",
		"300|Archaea;Euryarchaeota;")
	a, err := Aggregate(tbl, 1, -1, "")
	if err != nil {
		t.Fatal(err)
	}

	c := Collapse(a, 1000)
	rows := make(map[string]*AggregatedRow, len(c.Rows))
	for _, g := range c.Rows {
		k := strings.Join(g.Keys, ";")
		if _, ok := rows[k]; ok {
			t.Errorf("duplicated lineage: %s", k)
		}
		rows[k] = g
	}
	if len(c.Rows) != 3 {
		t.Errorf("three rows expected, %d returned", len(c.Rows))
	}

	g, ok := rows["Bacteria;Other"]
	if !ok {
		t.Fatalf("Bacteria;Other missing")
	}
	if g.Reads[0] != 5800 || g.Species[0] != 2 {
		t.Errorf("collapsed reads should be added to the existing row: %v %v", g.Reads, g.Species)
	}
	if p := g.Percents[0]; p < 76.315 || p > 76.316 {
		t.Errorf("unexpected percent: %f", p)
	}
	if g, ok = rows["Archaea;Other"]; !ok || g.Reads[0] != 300 {
		t.Errorf("Archaea;Other expected")
	}

	for _, g = range a.Rows {
		if g.Keys[1] == OtherName && g.Reads[0] != 5000 {
			t.Errorf("the input table should not be modified")
		}
	}
}
