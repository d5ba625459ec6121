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
	"fmt"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// Record is one line of a classification report.
type Record struct {
	Own   uint64 // reads assigned directly to this taxon
	Clade uint64 // reads of this taxon and all its descendants
	Code  string // rank code, e.g., D, G1, U
	Name  string // taxon name, indentation removed
	Line  int
}

// Format tells where the fields of a record are.
// Field positions are 1-based, and NameField <= 0 means the last column.
type Format struct {
	Name       string `yaml:"name"`
	CladeField int    `yaml:"clade-field"`
	OwnField   int    `yaml:"own-field"`
	RankField  int    `yaml:"rank-field"`
	NameField  int    `yaml:"name-field"`
}

// Formats are preset report formats.
var Formats = map[string]*Format{
	// percentage, clade reads, own reads, rank, taxid, name
	"kraken2": {Name: "kraken2", CladeField: 2, OwnField: 3, RankField: 4},
	// percentage, clade reads, own reads, minimizers, distinct minimizers, rank, taxid, name
	"kraken2-minimizer": {Name: "kraken2-minimizer", CladeField: 2, OwnField: 3, RankField: 6},
	"bracken":           {Name: "bracken", CladeField: 2, OwnField: 3, RankField: 4},
}

// FormatNames lists names of preset formats.
var FormatNames = []string{"kraken2", "kraken2-minimizer", "bracken"}

// FormatByName returns a preset report format.
func FormatByName(name string) (*Format, error) {
	f, ok := Formats[strings.ToLower(name)]
	if !ok {
		return nil, errors.Wrapf(ErrInvalidFormat, "unknown format: %s, available: %s", name, strings.Join(FormatNames, ", "))
	}
	g := *f
	return &g, nil
}

func (f *Format) minFields() int {
	n := f.CladeField
	if f.OwnField > n {
		n = f.OwnField
	}
	if f.RankField > n {
		n = f.RankField
	}
	if f.NameField > n {
		n = f.NameField
	}
	return n
}

// ParseLine parses one line of a report. Blank lines and comment lines
// are skipped with ok being false.
func (f *Format) ParseLine(line string, n int) (r Record, ok bool, err error) {
	line = strings.TrimRight(line, "\r\n")
	if line == "" || line[0] == '#' {
		return r, false, nil
	}

	items := strings.Split(line, "\t")
	if len(items) < f.minFields() {
		return r, false, fmt.Errorf("line %d: %d fields expected at least, %d given: %s", n, f.minFields(), len(items), line)
	}

	r.Clade, err = strconv.ParseUint(strings.TrimSpace(items[f.CladeField-1]), 10, 64)
	if err != nil {
		return r, false, fmt.Errorf("line %d: invalid clade count: %s", n, items[f.CladeField-1])
	}
	r.Own, err = strconv.ParseUint(strings.TrimSpace(items[f.OwnField-1]), 10, 64)
	if err != nil {
		return r, false, fmt.Errorf("line %d: invalid own count: %s", n, items[f.OwnField-1])
	}

	r.Code = strings.TrimSpace(items[f.RankField-1])
	if f.NameField > 0 {
		r.Name = strings.TrimSpace(items[f.NameField-1])
	} else {
		r.Name = strings.TrimSpace(items[len(items)-1])
	}
	r.Line = n

	return r, true, nil
}

// CountField chooses which count of a record goes into the tables.
type CountField int

const (
	// CountOwn uses reads assigned directly to a taxon. Reads of sub-rank
	// records are folded into their canonical ancestor.
	CountOwn CountField = iota
	// CountClade uses cumulative reads. No folding is needed as an
	// ancestor's clade count already contains its sub-rank clades.
	CountClade
)

// ParseCountField parses "own" or "clade".
func ParseCountField(s string) (CountField, error) {
	switch strings.ToLower(s) {
	case "own":
		return CountOwn, nil
	case "clade":
		return CountClade, nil
	}
	return CountOwn, fmt.Errorf("invalid count field: %s, available: own, clade", s)
}

func (c CountField) String() string {
	if c == CountClade {
		return "clade"
	}
	return "own"
}

func (c CountField) of(r *Record) uint64 {
	if c == CountClade {
		return r.Clade
	}
	return r.Own
}
