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
	"github.com/spf13/cobra"
)

var schemaCmd = &cobra.Command{
	Use:   "schema",
	Short: "Print the rank and label codes in YAML format",
	Long: `Print the rank and label codes in YAML format

The output can be edited and passed to other commands with -s/--schema,
e.g., to rename ranks, or to add labels.

    ranks:       taxonomic ranks from the top to the bottom, with codes
                 used in reports and names used as column names.
    labels:      codes of classification rows, e.g., U for unclassified.
    stop-code:   parsing stops after a record with this label code.
    placeholder: value of ranks not resolved.

`,
	Run: func(cmd *cobra.Command, args []string) {
		opt := getOptions(cmd)

		schema := getSchema(cmd)

		data, err := schemaToYAML(schema)
		checkError(err)

		outfh, closeFn, err := writeFile(getFlagString(cmd, "out-file"), opt.CompressionLevel)
		checkError(err)
		outfh.Write(data)
		checkError(closeFn())
	},
}

func init() {
	RootCmd.AddCommand(schemaCmd)

	schemaCmd.Flags().StringP("stop-code", "", "",
		formatFlagUsage(`Stop parsing after a record with this label code.`))
	schemaCmd.Flags().BoolP("with-kingdom", "", false,
		formatFlagUsage(`Add the Kingdom rank (K) after Domain.`))
	schemaCmd.Flags().BoolP("with-subspecies", "", false,
		formatFlagUsage(`Add the Subspecies rank.`))
	schemaCmd.Flags().StringP("out-file", "o", "-",
		formatFlagUsage(`Out file ("-" for stdout).`))
}
