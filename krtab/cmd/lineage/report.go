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

// Key columns of classification tables.
const (
	LabelKey = "Label"
	NameKey  = "Name"
)

// ParseOptions controls ParseReport.
type ParseOptions struct {
	CountField CountField
}

// Report is the result of parsing one sample's report.
type Report struct {
	Sample string

	// One row per taxon with reads, keyed by the full lineage.
	Lineages *Table
	// Unclassified, classified and root-level rows, keyed by Label and Name.
	Classified *Table

	// Records with unknown rank codes. Their reads have been folded
	// into classification rows.
	Malformed []*MalformedRecordError

	// The stop code was met and the remaining records were skipped.
	Terminated bool
}

// ParseReport reconstructs the lineage of every taxon of a report.
//
// A canonical record (e.g., G) closes all deeper ranks opened before,
// and appends a row with the current path. Reads of a sub-rank record
// (e.g., G1) are added to the row of its nearest canonical ancestor.
// Rows with no reads are removed at last.
func ParseReport(sample string, records []Record, schema *Schema, opt ParseOptions) (*Report, error) {
	if schema.rankIdx == nil {
		if err := schema.Validate(); err != nil {
			return nil, errors.Wrapf(err, "parsing report of %s", sample)
		}
	}

	nRanks := len(schema.Ranks)

	// the path from root to the current taxon
	path := make([]string, nRanks)
	// row index of the current taxon at each rank
	last := make([]int, nRanks)
	for i := range path {
		path[i] = schema.Placeholder
		last[i] = -1
	}

	rows := make([]*Row, 0, len(records))
	labels := make([]*Row, 0, 8)
	var malformed []*MalformedRecordError
	var terminated bool

	fold := func(r *Record, n uint64) {
		malformed = append(malformed, &MalformedRecordError{Record: *r, Expected: schema.Codes()})
		if len(labels) == 0 {
			labels = append(labels, &Row{Counts: []uint64{n}, Keys: []string{r.Code, r.Name}})
			return
		}
		labels[len(labels)-1].Counts[0] += n
	}

	var r *Record
	var n uint64
	var code Code
	var d, j int
LOOP:
	for i := range records {
		r = &records[i]
		n = opt.CountField.of(r)
		code = schema.Classify(r.Code)

		switch code.Kind {
		case KindLabel:
			labels = append(labels, &Row{Counts: []uint64{n}, Keys: []string{code.Label, r.Name}})
			if code.Stop {
				terminated = true
				break LOOP
			}
		case KindCanonical:
			d = code.Depth
			for j = d + 1; j < nRanks; j++ {
				path[j] = schema.Placeholder
				last[j] = -1
			}
			path[d] = r.Name

			keys := make([]string, nRanks)
			copy(keys, path)
			rows = append(rows, &Row{Counts: []uint64{n}, Keys: keys})
			last[d] = len(rows) - 1
		case KindSubRank:
			j = schema.foldTarget(code.Depth, last)
			if j < 0 {
				fold(r, n)
				continue
			}
			if opt.CountField == CountOwn {
				rows[j].Counts[0] += n
			}
		default:
			fold(r, n)
		}
	}

	lineages := NewTable([]string{sample}, schema.RankNames())
	for _, row := range rows {
		if row.Counts[0] > 0 {
			lineages.Rows = append(lineages.Rows, row)
		}
	}

	classified := NewTable([]string{sample}, []string{LabelKey, NameKey})
	classified.Rows = labels

	return &Report{
		Sample:     sample,
		Lineages:   lineages,
		Classified: classified,
		Malformed:  malformed,
		Terminated: terminated,
	}, nil
}
