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

// rec creates a record with the same own and clade counts unless clade given.
func rec(own uint64, code, name string, clade ...uint64) Record {
	r := Record{Own: own, Clade: own, Code: code, Name: name}
	if len(clade) > 0 {
		r.Clade = clade[0]
	}
	return r
}

func parse(t *testing.T, schema *Schema, records []Record, opt ParseOptions) *Report {
	if err := schema.Validate(); err != nil {
		t.Fatal(err)
	}
	rpt, err := ParseReport("s1", records, schema, opt)
	if err != nil {
		t.Fatal(err)
	}
	return rpt
}

func lineageOf(r *Row) string {
	return strings.Join(r.Keys, ";")
}

func totalOwn(records []Record) uint64 {
	var n uint64
	for _, r := range records {
		n += r.Own
	}
	return n
}

func TestParseOwnCounts(t *testing.T) {
	records := []Record{
		rec(100, "D", "Bacteria", 150),
		rec(50, "P", "Firmicutes", 50),
	}
	rpt := parse(t, DefaultSchema(), records, ParseOptions{})

	rows := rpt.Lineages.Rows
	if len(rows) != 2 {
		t.Fatalf("two rows expected, %d returned", len(rows))
	}
	if rows[0].Counts[0] != 100 || lineageOf(rows[0]) != "Bacteria;;;;;;" {
		t.Errorf("unexpected row: %d %s", rows[0].Counts[0], lineageOf(rows[0]))
	}
	if rows[1].Counts[0] != 50 || lineageOf(rows[1]) != "Bacteria;Firmicutes;;;;;" {
		t.Errorf("unexpected row: %d %s", rows[1].Counts[0], lineageOf(rows[1]))
	}
	if rpt.Lineages.Total(0) != totalOwn(records) {
		t.Errorf("total reads: %d, expected %d", rpt.Lineages.Total(0), totalOwn(records))
	}
	if len(rpt.Classified.Rows) != 0 {
		t.Errorf("no classification rows expected")
	}
	if cols := strings.Join(rpt.Lineages.Columns(), ","); cols != "s1,Domain,Phylum,Class,Order,Family,Genus,Species" {
		t.Errorf("unexpected columns: %s", cols)
	}
}

func TestParseRankReset(t *testing.T) {
	records := []Record{
		rec(1, "D", "Bacteria"),
		rec(2, "P", "Firmicutes"),
		rec(3, "C", "Bacilli"),
		rec(4, "G", "Bacillus"),
		rec(5, "S", "Bacillus subtilis"),
		rec(6, "P", "Proteobacteria"),
		rec(7, "G", "Escherichia"),
		rec(8, "S", "Escherichia coli"),
		rec(9, "S", "Escherichia albertii"),
	}
	rpt := parse(t, DefaultSchema(), records, ParseOptions{})

	expected := []string{
		"Bacteria;;;;;;",
		"Bacteria;Firmicutes;;;;;",
		"Bacteria;Firmicutes;Bacilli;;;;",
		"Bacteria;Firmicutes;Bacilli;;;Bacillus;",
		"Bacteria;Firmicutes;Bacilli;;;Bacillus;Bacillus subtilis",
		"Bacteria;Proteobacteria;;;;;",
		"Bacteria;Proteobacteria;;;;Escherichia;",
		"Bacteria;Proteobacteria;;;;Escherichia;Escherichia coli",
		"Bacteria;Proteobacteria;;;;Escherichia;Escherichia albertii",
	}
	if len(rpt.Lineages.Rows) != len(expected) {
		t.Fatalf("%d rows expected, %d returned", len(expected), len(rpt.Lineages.Rows))
	}
	for i, r := range rpt.Lineages.Rows {
		if lineageOf(r) != expected[i] {
			t.Errorf("row %d: expected %s, returned %s", i, expected[i], lineageOf(r))
		}
		if r.Counts[0] != uint64(i+1) {
			t.Errorf("row %d: expected %d reads, returned %d", i, i+1, r.Counts[0])
		}
	}
}

func TestParseSubRankFolding(t *testing.T) {
	records := []Record{
		rec(10, "D", "Bacteria"),
		rec(5, "D1", "Terrabacteria group"),
		rec(20, "P", "Firmicutes"),
		rec(30, "G", "Bacillus"),
		rec(7, "G1", "Bacillus cereus group"),
		rec(40, "S", "Bacillus cereus"),
		rec(3, "S1", "Bacillus cereus ATCC 14579"),
		rec(2, "S2", "some isolate"),
		rec(1, "P1", "unranked clade"),
	}
	rpt := parse(t, DefaultSchema(), records, ParseOptions{})

	counts := map[string]uint64{}
	for _, r := range rpt.Lineages.Rows {
		counts[lineageOf(r)] = r.Counts[0]
	}
	expected := map[string]uint64{
		"Bacteria;;;;;;":                                  15,
		"Bacteria;Firmicutes;;;;;":                        21,
		"Bacteria;Firmicutes;;;;Bacillus;":                37,
		"Bacteria;Firmicutes;;;;Bacillus;Bacillus cereus": 45,
	}
	if len(counts) != len(expected) {
		t.Fatalf("%d rows expected, %d returned: %v", len(expected), len(counts), counts)
	}
	for k, v := range expected {
		if counts[k] != v {
			t.Errorf("%s: expected %d, returned %d", k, v, counts[k])
		}
	}
	if rpt.Lineages.Total(0) != totalOwn(records) {
		t.Errorf("reads lost or double counted: %d vs %d", rpt.Lineages.Total(0), totalOwn(records))
	}
	if len(rpt.Malformed) != 0 {
		t.Errorf("no malformed records expected")
	}
}

func TestParseSubspeciesRank(t *testing.T) {
	records := []Record{
		rec(1, "D", "Bacteria"),
		rec(2, "S", "Escherichia coli"),
		rec(3, "S1", "Escherichia coli K-12"),
		rec(4, "S2", "Escherichia coli K-12 MG1655"),
		rec(5, "S", "Escherichia albertii"),
	}
	rpt := parse(t, DefaultSchema().WithSubspecies(), records, ParseOptions{})

	expected := []string{
		"Bacteria;;;;;;;",
		"Bacteria;;;;;;Escherichia coli;",
		"Bacteria;;;;;;Escherichia coli;Escherichia coli K-12",
		"Bacteria;;;;;;Escherichia albertii;",
	}
	rows := rpt.Lineages.Rows
	if len(rows) != len(expected) {
		t.Fatalf("%d rows expected, %d returned", len(expected), len(rows))
	}
	for i, r := range rows {
		if lineageOf(r) != expected[i] {
			t.Errorf("row %d: expected %s, returned %s", i, expected[i], lineageOf(r))
		}
	}
	if rows[2].Counts[0] != 7 {
		t.Errorf("reads of S2 should be folded into the S1 row: %d", rows[2].Counts[0])
	}
}

func TestParseKingdomRank(t *testing.T) {
	schema := DefaultSchema().WithKingdom()
	if names := strings.Join(schema.RankNames(), ","); names != "Domain,Kingdom,Phylum,Class,Order,Family,Genus,Species" {
		t.Fatalf("unexpected ranks: %s", names)
	}
	records := []Record{
		rec(1, "D", "Eukaryota"),
		rec(2, "K", "Fungi"),
		rec(3, "P", "Ascomycota"),
	}
	rpt := parse(t, schema, records, ParseOptions{})
	if lineageOf(rpt.Lineages.Rows[2]) != "Eukaryota;Fungi;Ascomycota;;;;;" {
		t.Errorf("unexpected lineage: %s", lineageOf(rpt.Lineages.Rows[2]))
	}
}

func TestParseLabelsAndStopCode(t *testing.T) {
	schema := DefaultSchema()
	schema.Labels = append(schema.Labels, Label{"R2", "other"})
	schema.StopCode = "R2"

	records := []Record{
		rec(50, "U", "unclassified"),
		rec(10, "R", "root", 1000),
		rec(5, "R1", "cellular organisms", 900),
		rec(100, "D", "Bacteria"),
		rec(6, "R2", "other sequences"),
		rec(70, "D", "Viruses"),
	}
	rpt := parse(t, schema, records, ParseOptions{})

	if !rpt.Terminated {
		t.Errorf("parsing should be terminated by the stop code")
	}
	if len(rpt.Lineages.Rows) != 1 || rpt.Lineages.Rows[0].Keys[0] != "Bacteria" {
		t.Errorf("records after the stop code should be skipped")
	}

	expected := []string{"unclassified;unclassified", "classified;root", "root-branch;cellular organisms", "other;other sequences"}
	if len(rpt.Classified.Rows) != len(expected) {
		t.Fatalf("%d classification rows expected, %d returned", len(expected), len(rpt.Classified.Rows))
	}
	for i, r := range rpt.Classified.Rows {
		if lineageOf(r) != expected[i] {
			t.Errorf("row %d: expected %s, returned %s", i, expected[i], lineageOf(r))
		}
	}
	if rpt.Classified.Rows[1].Counts[0] != 10 {
		t.Errorf("own count expected for classification rows: %d", rpt.Classified.Rows[1].Counts[0])
	}
	if cols := strings.Join(rpt.Classified.Columns(), ","); cols != "s1,Label,Name" {
		t.Errorf("unexpected columns: %s", cols)
	}
}

func TestParseUnknownCode(t *testing.T) {
	records := []Record{
		rec(9, "X", "mystery"),
		rec(50, "U", "unclassified"),
		rec(100, "D", "Bacteria"),
		rec(7, "Z9", "another mystery"),
	}
	rpt := parse(t, DefaultSchema(), records, ParseOptions{})

	if len(rpt.Malformed) != 2 {
		t.Fatalf("two malformed records expected, %d returned", len(rpt.Malformed))
	}
	if rpt.Malformed[0].Record.Code != "X" || !strings.Contains(rpt.Malformed[0].Error(), "R1") {
		t.Errorf("unexpected error: %s", rpt.Malformed[0])
	}

	rows := rpt.Classified.Rows
	if len(rows) != 2 {
		t.Fatalf("two classification rows expected, %d returned", len(rows))
	}
	if lineageOf(rows[0]) != "X;mystery" || rows[0].Counts[0] != 9 {
		t.Errorf("a row should be opened for reads with no classification row before")
	}
	if rows[1].Counts[0] != 57 {
		t.Errorf("reads should be folded into the last classification row: %d", rows[1].Counts[0])
	}

	var total uint64
	for _, r := range rows {
		total += r.Counts[0]
	}
	total += rpt.Lineages.Total(0)
	if total != totalOwn(records) {
		t.Errorf("reads dropped: %d vs %d", total, totalOwn(records))
	}
}

func TestParseOrphanSubRank(t *testing.T) {
	records := []Record{
		rec(4, "D1", "candidate division"),
		rec(50, "U", "unclassified"),
		rec(100, "D", "Bacteria"),
		rec(6, "D1", "Terrabacteria"),
	}
	rpt := parse(t, DefaultSchema(), records, ParseOptions{})

	if len(rpt.Malformed) != 1 || rpt.Malformed[0].Record.Code != "D1" {
		t.Fatalf("one malformed record expected: %v", rpt.Malformed)
	}

	rows := rpt.Classified.Rows
	if len(rows) != 2 {
		t.Fatalf("two classification rows expected, %d returned", len(rows))
	}
	if lineageOf(rows[0]) != "D1;candidate division" || rows[0].Counts[0] != 4 {
		t.Errorf("a row should be opened for a sub-rank with no ancestor: %s %d",
			lineageOf(rows[0]), rows[0].Counts[0])
	}
	if rows[1].Counts[0] != 50 {
		t.Errorf("unexpected unclassified reads: %d", rows[1].Counts[0])
	}

	lrows := rpt.Lineages.Rows
	if len(lrows) != 1 || !strings.HasPrefix(lineageOf(lrows[0]), "Bacteria;") || lrows[0].Counts[0] != 106 {
		t.Errorf("D1 with an open ancestor should be folded into it: %v", lrows)
	}
}

func TestParseDropZeroRows(t *testing.T) {
	records := []Record{
		rec(0, "D", "Bacteria", 10),
		rec(0, "P", "Firmicutes", 10),
		rec(10, "G", "Bacillus"),
		rec(0, "P", "Proteobacteria"),
		rec(0, "G1", "empty group"),
	}
	rpt := parse(t, DefaultSchema(), records, ParseOptions{})
	if len(rpt.Lineages.Rows) != 1 {
		t.Fatalf("one row expected, %d returned", len(rpt.Lineages.Rows))
	}
	if lineageOf(rpt.Lineages.Rows[0]) != "Bacteria;Firmicutes;;;;Bacillus;" {
		t.Errorf("unexpected lineage: %s", lineageOf(rpt.Lineages.Rows[0]))
	}
}

func TestParseEmpty(t *testing.T) {
	rpt := parse(t, DefaultSchema(), nil, ParseOptions{})
	if len(rpt.Lineages.Rows) != 0 || len(rpt.Classified.Rows) != 0 {
		t.Errorf("empty tables expected")
	}
	if rpt.Terminated || len(rpt.Malformed) != 0 {
		t.Errorf("nothing should happen for empty input")
	}
}

func TestParseCladeCounts(t *testing.T) {
	records := []Record{
		rec(10, "D", "Bacteria", 100),
		rec(5, "D1", "Terrabacteria group", 90),
		rec(20, "P", "Firmicutes", 85),
	}
	rpt := parse(t, DefaultSchema(), records, ParseOptions{CountField: CountClade})
	if rpt.Lineages.Rows[0].Counts[0] != 100 || rpt.Lineages.Rows[1].Counts[0] != 85 {
		t.Errorf("clade counts expected without folding: %d, %d",
			rpt.Lineages.Rows[0].Counts[0], rpt.Lineages.Rows[1].Counts[0])
	}
}

func TestParseInputNotModified(t *testing.T) {
	records := []Record{
		rec(10, "D", "Bacteria"),
		rec(5, "D1", "Terrabacteria group"),
	}
	parse(t, DefaultSchema(), records, ParseOptions{})
	if records[0].Own != 10 || records[1].Own != 5 {
		t.Errorf("records should not be modified")
	}
}
