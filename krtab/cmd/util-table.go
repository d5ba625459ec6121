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

package cmd

import (
	"bufio"
	"fmt"
	"strconv"
	"strings"

	"github.com/pkg/errors"
	"github.com/shenwei356/breader"
	"github.com/shenwei356/krtab/krtab/cmd/lineage"
)

// suffix of percentage columns
const percentSuffix = "_%"

// writeTable writes a count table in TSV format.
// Missing counts are written as empty cells.
func writeTable(outfh *bufio.Writer, t *lineage.Table) error {
	outfh.WriteString(strings.Join(t.Columns(), "\t"))
	outfh.WriteByte('\n')

	for _, r := range t.Rows {
		for i := range t.Samples {
			if !r.IsMissing(i) {
				outfh.WriteString(strconv.FormatUint(r.Counts[i], 10))
			}
			outfh.WriteByte('\t')
		}
		outfh.WriteString(strings.Join(r.Keys, "\t"))
		_, err := outfh.WriteString("\n")
		if err != nil {
			return err
		}
	}
	return nil
}

// readTable reads a count table written by writeTable. Columns before
// joinKey are sample columns.
func readTable(file string, joinKey string, threads int, chunkSize int) (*lineage.Table, error) {
	fn := func(line string) (interface{}, bool, error) {
		line = strings.TrimRight(line, "\r\n")
		if line == "" {
			return nil, false, nil
		}
		return strings.Split(line, "\t"), true, nil
	}

	reader, err := breader.NewBufferedReader(file, threads, chunkSize, fn)
	if err != nil {
		return nil, errors.Wrap(err, file)
	}

	var t *lineage.Table
	var nS, nK int
	var n int // line number
	var items []string
	var row *lineage.Row
	var data interface{}
	var i int
	var c string
	for chunk := range reader.Ch {
		if err != nil { // keep draining the reader
			continue
		}
		if chunk.Err != nil {
			err = errors.Wrap(chunk.Err, file)
			continue
		}

		for _, data = range chunk.Data {
			n++
			items = data.([]string)

			if t == nil { // header line
				samples, keys, err2 := lineage.SplitColumns(items, joinKey)
				if err2 != nil {
					err = errors.Wrap(err2, file)
					break
				}
				t = lineage.NewTable(samples, keys)
				nS, nK = len(samples), len(keys)
				continue
			}

			if len(items) > nS+nK || len(items) <= nS {
				err = fmt.Errorf("%s: line %d: %d columns expected, %d given", file, n, nS+nK, len(items))
				break
			}
			for len(items) < nS+nK { // trailing empty cells trimmed by other tools
				items = append(items, "")
			}

			row = &lineage.Row{
				Counts:  make([]uint64, nS),
				Missing: make([]bool, nS),
				Keys:    make([]string, nK),
			}
			for i, c = range items[:nS] {
				if c == "" {
					row.Missing[i] = true
					continue
				}
				row.Counts[i], err = strconv.ParseUint(c, 10, 64)
				if err != nil {
					err = fmt.Errorf("%s: line %d: invalid count: %s", file, n, c)
					break
				}
			}
			if err != nil {
				break
			}
			copy(row.Keys, items[nS:])

			t.Rows = append(t.Rows, row)
		}
	}
	if err != nil {
		return nil, err
	}
	if t == nil {
		return nil, fmt.Errorf("no header line found: %s", file)
	}
	return t, nil
}

// writeAggregatedReads writes summed reads with a percentage column next
// to each sample column.
func writeAggregatedReads(outfh *bufio.Writer, a *lineage.Aggregated, decimals int) error {
	for _, s := range a.Samples {
		outfh.WriteString(s)
		outfh.WriteByte('\t')
		outfh.WriteString(s + percentSuffix)
		outfh.WriteByte('\t')
	}
	outfh.WriteString(strings.Join(a.Keys, "\t"))
	outfh.WriteByte('\n')

	for _, g := range a.Rows {
		for i := range a.Samples {
			outfh.WriteString(strconv.FormatUint(g.Reads[i], 10))
			outfh.WriteByte('\t')
			outfh.WriteString(strconv.FormatFloat(g.Percents[i], 'f', decimals, 64))
			outfh.WriteByte('\t')
		}
		outfh.WriteString(strings.Join(g.Keys, "\t"))
		_, err := outfh.WriteString("\n")
		if err != nil {
			return err
		}
	}
	return nil
}

// writeAggregatedSpecies writes numbers of resolved species.
func writeAggregatedSpecies(outfh *bufio.Writer, a *lineage.Aggregated) error {
	outfh.WriteString(strings.Join(a.Samples, "\t"))
	outfh.WriteByte('\t')
	outfh.WriteString(strings.Join(a.Keys, "\t"))
	outfh.WriteByte('\n')

	for _, g := range a.Rows {
		for i := range a.Samples {
			outfh.WriteString(strconv.FormatUint(g.Species[i], 10))
			outfh.WriteByte('\t')
		}
		outfh.WriteString(strings.Join(g.Keys, "\t"))
		_, err := outfh.WriteString("\n")
		if err != nil {
			return err
		}
	}
	return nil
}
