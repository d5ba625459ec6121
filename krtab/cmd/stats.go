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
	"fmt"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/shenwei356/krtab/krtab/cmd/lineage"
	"github.com/spf13/cobra"
	prettytable "github.com/tatsushid/go-prettytable"
)

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Print statistics of Kraken reports",
	Long: `Print statistics of Kraken reports

Columns:

    file,         report file
    sample,       sample name
    records,      number of records
    lineages,     number of taxa with reads
    reads,        reads of all taxa
    unclassified, reads of the label coded U
    classified,   reads of the label coded R
    malformed,    number of records with unknown rank codes
    species,      number of taxa resolved to species
    stopped,      whether parsing stopped at the --stop-code

`,
	Run: func(cmd *cobra.Command, args []string) {
		opt := getOptions(cmd)

		schema := getSchema(cmd)

		format, err := lineage.FormatByName(getFlagString(cmd, "format"))
		checkError(err)

		countField, err := lineage.ParseCountField(getFlagString(cmd, "count-field"))
		checkError(err)

		outFile := getFlagString(cmd, "out-file")
		tabular := getFlagBool(cmd, "tabular")
		chunkSize := getFlagPositiveInt(cmd, "chunk-size")

		files := getFileListFromArgsAndFile(cmd, args, false, "infile-list", true)
		if len(files) == 1 && isStdin(files[0]) {
			checkError(fmt.Errorf("report files or directories needed"))
		}
		files, err = expandInputs(files, reReportFile, opt.NumCPUs)
		checkError(err)

		results := parseReports(files, format, schema, lineage.ParseOptions{CountField: countField},
			opt, chunkSize, false)

		stats := make([]*reportStats, 0, len(results))
		for _, r := range results {
			checkError(r.err)
			s, err := newReportStats(r, schema)
			checkError(err)
			stats = append(stats, s)
		}

		outfh, closeFn, err := writeFile(outFile, opt.CompressionLevel)
		checkError(err)
		defer func() {
			checkError(closeFn())
		}()

		if tabular {
			outfh.WriteString("file\tsample\trecords\tlineages\treads\tunclassified\tclassified\tmalformed\tspecies\tstopped\n")
			for _, s := range stats {
				fmt.Fprintf(outfh, "%s\t%s\t%d\t%d\t%d\t%d\t%d\t%d\t%d\t%v\n",
					s.file, s.sample, s.records, s.lineages, s.reads,
					s.unclassified, s.classified, s.malformed, s.species, s.stopped)
			}
			return
		}

		columns := []prettytable.Column{
			{Header: "file"},
			{Header: "sample"},
			{Header: "records", AlignRight: true},
			{Header: "lineages", AlignRight: true},
			{Header: "reads", AlignRight: true},
			{Header: "unclassified", AlignRight: true},
			{Header: "classified", AlignRight: true},
			{Header: "malformed", AlignRight: true},
			{Header: "species", AlignRight: true},
			{Header: "stopped", AlignRight: true},
		}
		tbl, err := prettytable.NewTable(columns...)
		checkError(err)
		tbl.Separator = "  "

		for _, s := range stats {
			tbl.AddRow(
				s.file,
				s.sample,
				humanize.Comma(int64(s.records)),
				humanize.Comma(int64(s.lineages)),
				humanize.Comma(int64(s.reads)),
				humanize.Comma(int64(s.unclassified)),
				humanize.Comma(int64(s.classified)),
				humanize.Comma(int64(s.malformed)),
				humanize.Comma(int64(s.species)),
				boolStr("yes", "no", s.stopped),
			)
		}
		outfh.Write(tbl.Bytes())
	},
}

type reportStats struct {
	file         string
	sample       string
	records      int
	lineages     int
	reads        uint64
	unclassified uint64
	classified   uint64
	malformed    int
	species      uint64
	stopped      bool
}

func newReportStats(r *reportResult, schema *lineage.Schema) (*reportStats, error) {
	report := r.report
	s := &reportStats{
		file:      r.file,
		sample:    report.Sample,
		records:   r.records,
		lineages:  len(report.Lineages.Rows),
		reads:     report.Lineages.Total(0),
		malformed: len(report.Malformed),
		stopped:   report.Terminated,
	}

	var unclassified, classified string
	for _, l := range schema.Labels {
		name := l.Name
		if name == "" {
			name = l.Code
		}
		switch l.Code {
		case "U":
			unclassified = name
		case "R":
			classified = name
		}
	}
	for _, row := range report.Classified.Rows {
		switch row.Keys[0] {
		case unclassified:
			s.unclassified += row.Count(0)
		case classified:
			s.classified += row.Count(0)
		}
	}

	if len(report.Lineages.Rows) == 0 {
		return s, nil
	}
	a, err := lineage.Aggregate(report.Lineages, 0, schema.SpeciesDepth(), schema.Placeholder)
	if err != nil {
		return nil, err
	}
	for _, g := range a.Rows {
		s.species += g.Species[0]
	}
	return s, nil
}

func boolStr(t, f string, v bool) string {
	if v {
		return t
	}
	return f
}

func init() {
	RootCmd.AddCommand(statsCmd)

	statsCmd.Flags().StringP("format", "f", "kraken2",
		formatFlagUsage(fmt.Sprintf("Report format, available values: %s.", strings.Join(lineage.FormatNames, ", "))))
	statsCmd.Flags().StringP("count-field", "", "own",
		formatFlagUsage(`Read count to use: "own" or "clade".`))
	statsCmd.Flags().StringP("stop-code", "", "",
		formatFlagUsage(`Stop parsing after a record with this label code.`))
	statsCmd.Flags().BoolP("with-kingdom", "", false,
		formatFlagUsage(`Add the Kingdom rank (K) after Domain.`))
	statsCmd.Flags().BoolP("with-subspecies", "", false,
		formatFlagUsage(`Add the Subspecies rank.`))

	statsCmd.Flags().StringP("out-file", "o", "-",
		formatFlagUsage(`Out file ("-" for stdout).`))
	statsCmd.Flags().BoolP("tabular", "T", false,
		formatFlagUsage(`Output in machine-friendly tabular format.`))
	statsCmd.Flags().IntP("chunk-size", "", 5000,
		formatFlagUsage(`Number of lines to process in a batch.`))
}
