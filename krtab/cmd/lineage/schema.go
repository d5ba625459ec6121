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

	"github.com/pkg/errors"
)

// Rank is one level of the taxonomic ladder, e.g., {D, Domain}.
type Rank struct {
	Code string `yaml:"code"`
	Name string `yaml:"name"`
}

// Label is a top-level classification code, e.g., {U, unclassified}.
type Label struct {
	Code string `yaml:"code"`
	Name string `yaml:"name"`
}

// Schema is the vocabulary used to interpret rank codes of a report.
type Schema struct {
	Ranks  []Rank  `yaml:"ranks"`
	Labels []Label `yaml:"labels"`

	// Parsing stops right after a record with this label code.
	StopCode string `yaml:"stop-code"`

	// Value of rank columns that are not resolved.
	Placeholder string `yaml:"placeholder"`

	rankIdx  map[string]int
	labelIdx map[string]int
}

// DefaultSchema returns the seven-rank Kraken ladder.
func DefaultSchema() *Schema {
	return &Schema{
		Ranks: []Rank{
			{"D", "Domain"},
			{"P", "Phylum"},
			{"C", "Class"},
			{"O", "Order"},
			{"F", "Family"},
			{"G", "Genus"},
			{"S", "Species"},
		},
		Labels: []Label{
			{"U", "unclassified"},
			{"R", "classified"},
			{"R1", "root-branch"},
		},
	}
}

// WithKingdom inserts the Kingdom rank right after Domain.
func (s *Schema) WithKingdom() *Schema {
	for _, r := range s.Ranks {
		if r.Code == "K" {
			return s
		}
	}
	ranks := make([]Rank, 0, len(s.Ranks)+1)
	inserted := false
	for _, r := range s.Ranks {
		ranks = append(ranks, r)
		if r.Code == "D" {
			ranks = append(ranks, Rank{"K", "Kingdom"})
			inserted = true
		}
	}
	if !inserted {
		ranks = append([]Rank{{"K", "Kingdom"}}, ranks...)
	}
	s.Ranks = ranks
	s.rankIdx = nil
	return s
}

// WithSubspecies appends the Subspecies rank, coded S1 by Kraken.
// Records coded S1 are then canonical rows rather than sub-rank ones.
func (s *Schema) WithSubspecies() *Schema {
	for _, r := range s.Ranks {
		if r.Code == "S1" {
			return s
		}
	}
	s.Ranks = append(s.Ranks, Rank{"S1", "Subspecies"})
	s.rankIdx = nil
	return s
}

// Validate checks the vocabularies and builds the lookup indexes.
func (s *Schema) Validate() error {
	if len(s.Ranks) == 0 {
		return errors.Wrap(ErrInvalidSchema, "no ranks given")
	}

	rankIdx := make(map[string]int, len(s.Ranks))
	names := make(map[string]struct{}, len(s.Ranks))
	for i, r := range s.Ranks {
		if r.Code == "" || r.Name == "" {
			return errors.Wrapf(ErrInvalidSchema, "empty code or name of rank #%d", i+1)
		}
		if _, ok := rankIdx[r.Code]; ok {
			return errors.Wrapf(ErrInvalidSchema, "duplicated rank code: %s", r.Code)
		}
		if _, ok := names[r.Name]; ok {
			return errors.Wrapf(ErrInvalidSchema, "duplicated rank name: %s", r.Name)
		}
		rankIdx[r.Code] = i
		names[r.Name] = struct{}{}
	}

	labelIdx := make(map[string]int, len(s.Labels))
	for i, l := range s.Labels {
		if l.Code == "" {
			return errors.Wrapf(ErrInvalidSchema, "empty code of label #%d", i+1)
		}
		if _, ok := labelIdx[l.Code]; ok {
			return errors.Wrapf(ErrInvalidSchema, "duplicated label code: %s", l.Code)
		}
		if _, ok := rankIdx[l.Code]; ok {
			return errors.Wrapf(ErrInvalidSchema, "code used as both rank and label: %s", l.Code)
		}
		labelIdx[l.Code] = i
	}

	if s.StopCode != "" {
		if _, ok := labelIdx[s.StopCode]; !ok {
			return errors.Wrapf(ErrInvalidSchema, "stop code is not a label: %s", s.StopCode)
		}
	}

	s.rankIdx = rankIdx
	s.labelIdx = labelIdx
	return nil
}

// RankNames returns names of all ranks, used as key columns.
func (s *Schema) RankNames() []string {
	names := make([]string, len(s.Ranks))
	for i, r := range s.Ranks {
		names[i] = r.Name
	}
	return names
}

// SpeciesDepth returns the depth of the rank coded S, or the deepest rank.
func (s *Schema) SpeciesDepth() int {
	for i, r := range s.Ranks {
		if r.Code == "S" {
			return i
		}
	}
	return len(s.Ranks) - 1
}

// Codes returns all known codes, for error messages.
func (s *Schema) Codes() []string {
	codes := make([]string, 0, len(s.Labels)+len(s.Ranks))
	for _, l := range s.Labels {
		codes = append(codes, l.Code)
	}
	for _, r := range s.Ranks {
		codes = append(codes, r.Code, r.Code+"<N>")
	}
	return codes
}

// CodeKind is the kind of a rank code.
type CodeKind int

const (
	// KindUnknown is a code out of all vocabularies.
	KindUnknown CodeKind = iota
	// KindLabel is a classification label, e.g., U, R.
	KindLabel
	// KindCanonical starts a new taxon at a rank, e.g., G.
	KindCanonical
	// KindSubRank is an intermediate clade below a rank, e.g., G1.
	KindSubRank
)

func (k CodeKind) String() string {
	switch k {
	case KindLabel:
		return "label"
	case KindCanonical:
		return "canonical"
	case KindSubRank:
		return "sub-rank"
	}
	return "unknown"
}

// Code is a classified rank code.
// Depth is the rank depth for canonical codes and the base rank depth
// for sub-rank codes.
type Code struct {
	Kind  CodeKind
	Depth int
	Label string // label name of KindLabel codes
	Stop  bool
}

// Classify tells what a rank code of a report record means.
// Validate must have been called.
func (s *Schema) Classify(code string) Code {
	if i, ok := s.labelIdx[code]; ok {
		label := s.Labels[i].Name
		if label == "" {
			label = code
		}
		return Code{Kind: KindLabel, Depth: -1, Label: label, Stop: code == s.StopCode}
	}

	if d, ok := s.rankIdx[code]; ok {
		return Code{Kind: KindCanonical, Depth: d}
	}

	// rank code followed by digits
	i := len(code)
	for i > 0 && code[i-1] >= '0' && code[i-1] <= '9' {
		i--
	}
	if i > 0 && i < len(code) {
		if d, ok := s.rankIdx[code[:i]]; ok {
			return Code{Kind: KindSubRank, Depth: d}
		}
	}

	return Code{Kind: KindUnknown, Depth: -1}
}

// foldTarget returns the index of the row receiving reads of a sub-rank
// record of the base depth: the deepest open row of the same rank family
// (e.g., S or S1 for S2), or else the nearest open shallower row.
// last holds the row index of the open taxon at each depth, -1 for none.
func (s *Schema) foldTarget(base int, last []int) int {
	for d := len(last) - 1; d >= base; d-- {
		if last[d] >= 0 && extends(s.Ranks[d].Code, s.Ranks[base].Code) {
			return last[d]
		}
	}
	for d := base - 1; d >= 0; d-- {
		if last[d] >= 0 {
			return last[d]
		}
	}
	return -1
}

// extends tells if code is base itself or base followed by digits,
// e.g., S1 extends S.
func extends(code, base string) bool {
	if !strings.HasPrefix(code, base) {
		return false
	}
	for i := len(base); i < len(code); i++ {
		if code[i] < '0' || code[i] > '9' {
			return false
		}
	}
	return true
}
