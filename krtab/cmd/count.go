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
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"
)

var countCmd = &cobra.Command{
	Use:   "count",
	Short: "Count reads at each rank from merged lineage tables",
	Long: `Count reads at each rank from merged lineage tables

Input:
  Lineage tables created by "krtab report" (*_reads.tsv). Columns before
  the --join-key column are samples, the others are ranks. Empty cells
  of samples are treated as 0.

Output (in -O/--out-dir), for every rank:
  1. <base>_<rank>_reads.tsv: reads summed by the lineage through the rank,
     with a percentage column after each sample column.
  2. <base>_<rank>_species.tsv: numbers of lineages resolved to species.
  3. <base>_<rank>_reads_cutoff<N>.tsv: the same as 1, but lineages with
     reads below -c/--cutoff in all samples are summed into "Other" rows
     of their parent lineages. It is not created for the first rank.

  <base> is the input file name without the extension and "_reads".

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

		schema := getSchema(cmd)

		joinKey := getFlagString(cmd, "join-key")
		if joinKey == "" {
			joinKey = schema.Ranks[0].Name
		}

		copt := &countOptions{
			OutDir:      expandPath(getFlagString(cmd, "out-dir")),
			Cutoff:      getFlagUint64(cmd, "cutoff"),
			Decimals:    getFlagNonNegativeInt(cmd, "decimals"),
			Gzip:        getFlagBool(cmd, "gzip"),
			SpeciesRank: getFlagString(cmd, "species-rank"),
			Placeholder: schema.Placeholder,
		}
		if copt.SpeciesRank == "" {
			copt.SpeciesRank = schema.Ranks[schema.SpeciesDepth()].Name
		}
		force := getFlagBool(cmd, "force")
		chunkSize := getFlagPositiveInt(cmd, "chunk-size")

		files := getFileListFromArgsAndFile(cmd, args, true, "infile-list", true)
		if len(files) == 1 && isStdin(files[0]) {
			checkError(fmt.Errorf("lineage table files needed"))
		}

		if opt.Verbose || opt.Log2File {
			log.Infof("krtab v%s", VERSION)
			log.Info("  https://github.com/shenwei356/krtab")
			log.Info()
			log.Infof("%d lineage tables given, join key: %s, cutoff: %d", len(files), joinKey, copt.Cutoff)
		}

		checkError(makeOutDir(copt.OutDir, force, files))

		var n int
		for _, file := range files {
			if opt.Verbose || opt.Log2File {
				log.Infof("counting %s ...", file)
			}

			t, err := readTable(file, joinKey, opt.NumCPUs, chunkSize)
			checkError(err)

			outFiles, err := countRanks(t, countBase(file), copt, opt)
			checkError(err)
			n += len(outFiles)
		}

		if opt.Verbose || opt.Log2File {
			log.Infof("%d tables saved to %s", n, copt.OutDir)
		}
	},
}

// countBase returns the base name of output files of a lineage table.
func countBase(file string) string {
	name, _ := filepathTrimExtension(filepath.Base(file))
	return strings.TrimSuffix(name, "_reads")
}

func init() {
	RootCmd.AddCommand(countCmd)

	countCmd.Flags().StringP("join-key", "", "",
		formatFlagUsage(`Rank column that separates sample columns from rank columns. Default: the first rank.`))
	countCmd.Flags().StringP("species-rank", "", "",
		formatFlagUsage(`Rank column of species, to count resolved species. Default: the rank coded S.`))
	countCmd.Flags().Uint64P("cutoff", "c", 20000,
		formatFlagUsage(`Lineages with reads below this value in all samples are collapsed into "Other".`))
	countCmd.Flags().IntP("decimals", "", 5,
		formatFlagUsage(`Decimal places of percentages.`))

	countCmd.Flags().StringP("out-dir", "O", "Results",
		formatFlagUsage(`Output directory.`))
	countCmd.Flags().BoolP("gzip", "z", false,
		formatFlagUsage(`Compress output files.`))
	countCmd.Flags().BoolP("force", "", false,
		formatFlagUsage(`Overwrite the output directory.`))
	countCmd.Flags().IntP("chunk-size", "", 5000,
		formatFlagUsage(`Number of lines to process in a batch.`))

	countCmd.SetUsageTemplate(usageTemplate("[-c <cutoff>] [-O <out dir>] <lineage tables>"))
}
