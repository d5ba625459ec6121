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
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
	"github.com/shenwei356/krtab/krtab/cmd/lineage"
)

const extTable = ".tsv"

// countOptions controls countRanks.
type countOptions struct {
	OutDir   string
	Cutoff   uint64
	Decimals int
	Gzip     bool

	// rank column used to count resolved species
	SpeciesRank string
	Placeholder string
}

func (o *countOptions) file(base string, parts ...string) string {
	name := base + "_" + strings.Join(parts, "_") + extTable
	if o.Gzip {
		name += ".gz"
	}
	return filepath.Join(o.OutDir, name)
}

// writeOutput creates a file and writes to it with fn.
func writeOutput(file string, level int, fn func(*bufio.Writer) error) error {
	outfh, closeFn, err := writeFile(file, level)
	if err != nil {
		return err
	}
	if err = fn(outfh); err != nil {
		closeFn()
		return errors.Wrap(err, file)
	}
	return errors.Wrap(closeFn(), file)
}

// countRanks aggregates a merged table at every rank and writes three
// tables for each: summed reads, numbers of resolved species, and reads
// with rare lineages collapsed. The last one is skipped for the first rank.
// It returns the output files.
func countRanks(t *lineage.Table, base string, copt *countOptions, opt *Options) ([]string, error) {
	resolved := -1 // the last rank
	for i, k := range t.Keys {
		if k == copt.SpeciesRank {
			resolved = i
			break
		}
	}

	files := make([]string, 0, len(t.Keys)*3)
	var file string
	var err error
	var a *lineage.Aggregated
	for depth, rank := range t.Keys {
		a, err = lineage.Aggregate(t, depth, resolved, copt.Placeholder)
		if err != nil {
			return files, errors.Wrapf(err, "counting %s", rank)
		}

		file = copt.file(base, rank, "reads")
		err = writeOutput(file, opt.CompressionLevel, func(outfh *bufio.Writer) error {
			return writeAggregatedReads(outfh, a, copt.Decimals)
		})
		if err != nil {
			return files, err
		}
		files = append(files, file)

		file = copt.file(base, rank, "species")
		err = writeOutput(file, opt.CompressionLevel, func(outfh *bufio.Writer) error {
			return writeAggregatedSpecies(outfh, a)
		})
		if err != nil {
			return files, err
		}
		files = append(files, file)

		if depth == 0 {
			continue
		}

		c := lineage.Collapse(a, copt.Cutoff)
		file = copt.file(base, rank, fmt.Sprintf("reads_cutoff%d", copt.Cutoff))
		err = writeOutput(file, opt.CompressionLevel, func(outfh *bufio.Writer) error {
			return writeAggregatedReads(outfh, c, copt.Decimals)
		})
		if err != nil {
			return files, err
		}
		files = append(files, file)

		if opt.Verbose || opt.Log2File {
			log.Infof("  %s: %d groups, %d after collapsing those below %d reads", rank, len(a.Rows), len(c.Rows), copt.Cutoff)
		}
	}

	return files, nil
}
