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
	"runtime"
	"strings"

	"github.com/mitchellh/go-homedir"
	"github.com/pkg/errors"
	"github.com/shenwei356/util/pathutil"
	"github.com/spf13/cobra"
	"github.com/twotwotwo/sorts"
)

// VERSION of krtab
const VERSION = "0.1.0"

// Options contains the global flags
type Options struct {
	NumCPUs int
	Verbose bool

	LogFile  string
	Log2File bool

	CompressionLevel int
}

func getOptions(cmd *cobra.Command) *Options {
	threads := getFlagNonNegativeInt(cmd, "threads")
	if threads == 0 {
		threads = runtime.NumCPU()
	}

	sorts.MaxProcs = threads
	runtime.GOMAXPROCS(threads)

	logfile := getFlagString(cmd, "log")
	return &Options{
		NumCPUs: threads,
		Verbose: !getFlagBool(cmd, "quiet"),

		LogFile:  logfile,
		Log2File: logfile != "",

		CompressionLevel: -1,
	}
}

func expandPath(path string) string {
	p, err := homedir.Expand(path)
	checkError(errors.Wrap(err, path))
	return p
}

// makeOutDir creates outDir. A non-empty outDir is removed with force,
// unless some of the inputs are inside it.
func makeOutDir(outDir string, force bool, inputs []string) error {
	pwd, _ := os.Getwd()
	if outDir == "./" || outDir == "." || pwd == filepath.Clean(outDir) {
		return nil
	}

	existed, err := pathutil.DirExists(outDir)
	if err != nil {
		return errors.Wrap(err, outDir)
	}
	if existed {
		empty, err := pathutil.IsEmpty(outDir)
		if err != nil {
			return errors.Wrap(err, outDir)
		}
		if !empty {
			if !force {
				return fmt.Errorf("out-dir not empty: %s, use --force to overwrite", outDir)
			}
			for _, file := range inputs {
				inside, err := isInside(file, outDir)
				if err != nil {
					return err
				}
				if inside {
					return fmt.Errorf("out-dir %s contains input file %s, refuse to overwrite it", outDir, file)
				}
			}
			log.Infof("removing old output directory: %s", outDir)
		}
		if err = os.RemoveAll(outDir); err != nil {
			return err
		}
	}
	return os.MkdirAll(outDir, 0777)
}

// isInside checks if file is under the directory dir.
func isInside(file string, dir string) (bool, error) {
	if isStdin(file) {
		return false, nil
	}
	absFile, err := filepath.Abs(file)
	if err != nil {
		return false, errors.Wrap(err, file)
	}
	absDir, err := filepath.Abs(dir)
	if err != nil {
		return false, errors.Wrap(err, dir)
	}
	rel, err := filepath.Rel(absDir, absFile)
	if err != nil {
		return false, nil
	}
	return rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator)), nil
}

// filepathTrimExtension splits a file name into the part before the
// extension and the extension, a ".gz" suffix is kept in the extension.
func filepathTrimExtension(file string) (string, string) {
	gz := strings.HasSuffix(file, ".gz") || strings.HasSuffix(file, ".GZ")
	if gz {
		file = file[0 : len(file)-3]
	}

	extension := filepath.Ext(file)
	name := file[0 : len(file)-len(extension)]
	if gz {
		extension += ".gz"
	}
	return name, extension
}
