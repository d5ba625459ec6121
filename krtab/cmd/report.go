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
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/shenwei356/krtab/krtab/cmd/lineage"
	"github.com/spf13/cobra"
)

// prefix of output files when more than one report is given
const defaultCombinedPrefix = "KrakenReport_combined"

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Convert Kraken reports to lineage tables and merge them",
	Long: `Convert Kraken reports to lineage tables and merge them

Input:
  1. Kraken-style report files, gzipped or not. Directories are also
     accepted, all "*.report" files in them are used, in lexical order.
  2. Sample names are the file names without extensions.

Parsing:
  1. Each record with a canonical rank code (D, P, C, O, F, G, S) is
     assigned a full lineage, deeper ranks of previous records are reset.
  2. Reads of sub-rank records (e.g., G1, S2) are added to their nearest
     canonical ancestor when counting own reads (--count-field own).
  3. Records with unknown rank codes are reported as warnings, and their
     reads are added to the last classification row.
  4. Parsing stops after a record with the --stop-code, if given.
  5. Taxa without any reads are removed.

Output (in -O/--out-dir):
  1. <prefix>_reads.tsv: merged lineage table, sample columns first,
     missing values are empty.
  2. <prefix>_classified.tsv: merged unclassified/classified counts.
  3. With --count, tables of "krtab count" for every rank.

`,
	Run: func(cmd *cobra.Command, args []string) {
		opt := getOptions(cmd)

		var fhLog *os.File
		if opt.Log2File {
			fhLog = addLog(opt.LogFile, opt.Verbose)
		}
		timeStart := time.Now()
		defer func() {
			if opt.Verbose || opt.Log2File {
				log.Info()
				log.Infof("elapsed time: %s", time.Since(timeStart))
				log.Info()
			}
			if opt.Log2File {
				fhLog.Close()
			}
		}()

		var err error

		schema := getSchema(cmd)

		format, err := lineage.FormatByName(getFlagString(cmd, "format"))
		checkError(err)

		countField, err := lineage.ParseCountField(getFlagString(cmd, "count-field"))
		checkError(err)

		joinKey := getFlagString(cmd, "join-key")
		if joinKey == "" {
			joinKey = schema.Ranks[0].Name
		}

		outDir := expandPath(getFlagString(cmd, "out-dir"))
		prefix := getFlagString(cmd, "out-prefix")
		gz := getFlagBool(cmd, "gzip")
		force := getFlagBool(cmd, "force")
		chunkSize := getFlagPositiveInt(cmd, "chunk-size")

		count := getFlagBool(cmd, "count")
		cutoff := getFlagUint64(cmd, "cutoff")
		decimals := getFlagNonNegativeInt(cmd, "decimals")

		if opt.Verbose || opt.Log2File {
			log.Infof("krtab v%s", VERSION)
			log.Info("  https://github.com/shenwei356/krtab")
			log.Info()

			log.Info("checking input files ...")
		}

		files := getReportFiles(cmd, args, opt)
		if opt.Verbose || opt.Log2File {
			log.Infof("  %d report files given", len(files))
		}

		if prefix == "" {
			if len(files) == 1 {
				prefix = sampleName(files[0])
			} else {
				prefix = defaultCombinedPrefix
			}
		}

		checkError(makeOutDir(outDir, force, files))

		// ---------------------------------------------------------------

		if opt.Verbose || opt.Log2File {
			log.Infof("-------------------- [main parameters] --------------------")
			log.Infof("report format: %s, count field: %s", format.Name, countField)
			log.Infof("ranks: %s", strings.Join(schema.RankNames(), ", "))
			if schema.StopCode != "" {
				log.Infof("stop code: %s", schema.StopCode)
			}
			log.Infof("join key: %s", joinKey)
			log.Infof("-------------------- [main parameters] --------------------")
			log.Info()
			log.Info("parsing reports ...")
		}

		results := parseReports(files, format, schema, lineage.ParseOptions{CountField: countField},
			opt, chunkSize, opt.Verbose && len(files) > 1)

		reports := make([]*lineage.Report, 0, len(results))
		for _, r := range results {
			checkError(r.err)

			if opt.Verbose || opt.Log2File {
				for _, e := range r.report.Malformed {
					log.Warningf("%s: %s", r.file, e)
				}
				if r.report.Terminated {
					log.Infof("%s: parsing stopped at the code %s", r.file, schema.StopCode)
				}
			}
			reports = append(reports, r.report)
		}

		if opt.Verbose || opt.Log2File {
			log.Info("merging samples ...")
		}
		lineages, classified, err := mergeReports(reports, joinKey)
		checkError(err)

		file := filepath.Join(outDir, prefix+"_reads"+extTable)
		if gz {
			file += ".gz"
		}
		checkError(writeOutput(file, opt.CompressionLevel, func(outfh *bufio.Writer) error {
			return writeTable(outfh, lineages)
		}))
		if opt.Verbose || opt.Log2File {
			log.Infof("  %d lineages of %d samples saved to %s", len(lineages.Rows), len(lineages.Samples), file)
		}

		file = filepath.Join(outDir, prefix+"_classified"+extTable)
		if gz {
			file += ".gz"
		}
		checkError(writeOutput(file, opt.CompressionLevel, func(outfh *bufio.Writer) error {
			return writeTable(outfh, classified)
		}))
		if opt.Verbose || opt.Log2File {
			log.Infof("  classification summary saved to %s", file)
		}

		if !count {
			return
		}

		if opt.Verbose || opt.Log2File {
			log.Info()
			log.Info("counting reads at each rank ...")
		}
		copt := &countOptions{
			OutDir:      outDir,
			Cutoff:      cutoff,
			Decimals:    decimals,
			Gzip:        gz,
			SpeciesRank: schema.Ranks[schema.SpeciesDepth()].Name,
			Placeholder: schema.Placeholder,
		}
		outFiles, err := countRanks(lineages, prefix, copt, opt)
		checkError(err)
		if opt.Verbose || opt.Log2File {
			log.Infof("%d tables saved to %s", len(outFiles), outDir)
		}
	},
}

func init() {
	RootCmd.AddCommand(reportCmd)

	reportCmd.Flags().StringP("format", "f", "kraken2",
		formatFlagUsage(fmt.Sprintf("Report format, available values: %s.", strings.Join(lineage.FormatNames, ", "))))
	reportCmd.Flags().StringP("count-field", "", "own",
		formatFlagUsage(`Read count to use: "own" (reads assigned to the taxon) or "clade" (reads of the whole clade).`))
	reportCmd.Flags().StringP("stop-code", "", "",
		formatFlagUsage(`Stop parsing after a record with this label code, e.g., "R1".`))
	reportCmd.Flags().BoolP("with-kingdom", "", false,
		formatFlagUsage(`Add the Kingdom rank (K) after Domain.`))
	reportCmd.Flags().BoolP("with-subspecies", "", false,
		formatFlagUsage(`Add the Subspecies rank, records coded S1 become rows of their own.`))
	reportCmd.Flags().StringP("join-key", "", "",
		formatFlagUsage(`Rank column that separates sample columns from rank columns. Default: the first rank.`))

	reportCmd.Flags().StringP("out-dir", "O", ".",
		formatFlagUsage(`Output directory.`))
	reportCmd.Flags().StringP("out-prefix", "o", "",
		formatFlagUsage(fmt.Sprintf(`Prefix of output files. Default: the sample name for one report, or "%s".`, defaultCombinedPrefix)))
	reportCmd.Flags().BoolP("gzip", "z", false,
		formatFlagUsage(`Compress output files.`))
	reportCmd.Flags().BoolP("force", "", false,
		formatFlagUsage(`Overwrite the output directory.`))
	reportCmd.Flags().IntP("chunk-size", "", 5000,
		formatFlagUsage(`Number of lines to process in a batch.`))

	reportCmd.Flags().BoolP("count", "", false,
		formatFlagUsage(`Also count reads at each rank, as "krtab count" does.`))
	reportCmd.Flags().Uint64P("cutoff", "c", 20000,
		formatFlagUsage(`Lineages with reads below this value in all samples are collapsed into "Other" (with --count).`))
	reportCmd.Flags().IntP("decimals", "", 5,
		formatFlagUsage(`Decimal places of percentages (with --count).`))

	reportCmd.SetUsageTemplate(usageTemplate("{<report files> | <dirs>} [-O <out dir>] [--count]"))
}
