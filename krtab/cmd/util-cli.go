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
	"regexp"
	"sort"

	"github.com/iafan/cwalk"
	"github.com/pkg/errors"
	"github.com/shenwei356/go-logging"
	"github.com/shenwei356/util/cliutil"
	"github.com/shenwei356/util/pathutil"
	"github.com/spf13/cobra"
)

var log = logging.MustGetLogger("krtab")

func checkError(err error) {
	if err != nil {
		log.Error(err)
		os.Exit(-1)
	}
}

func getFileListFromArgsAndFile(cmd *cobra.Command, args []string, checkFileFromArgs bool, flag string, checkFileFromFile bool) []string {
	infileList := getFlagString(cmd, flag)
	files := cliutil.GetFileList(args, checkFileFromArgs)
	if infileList != "" {
		_files, err := cliutil.GetFileListFromFile(infileList, checkFileFromFile)
		checkError(err)
		if len(_files) == 0 {
			log.Warningf("no files found in file list: %s", infileList)
			return files
		}

		if len(files) == 1 && isStdin(files[0]) {
			return _files
		}
		files = append(files, _files...)
	}
	return files
}

// files to search in input directories
var reReportFile = regexp.MustCompile(`\.report(\.gz)?$`)

// getReportFiles collects report files from arguments, the file list
// and directories given, in a stable order.
func getReportFiles(cmd *cobra.Command, args []string, opt *Options) []string {
	files := getFileListFromArgsAndFile(cmd, args, false, "infile-list", true)
	if len(files) == 1 && isStdin(files[0]) {
		checkError(fmt.Errorf("report files or directories needed"))
	}
	files, err := expandInputs(files, reReportFile, opt.NumCPUs)
	checkError(err)
	if len(files) == 0 {
		checkError(fmt.Errorf("no report files given"))
	}
	return files
}

func getFileListFromDir(path string, pattern *regexp.Regexp, threads int) ([]string, error) {
	files := make([]string, 0, 512)
	ch := make(chan string, threads)
	done := make(chan int)
	go func() {
		for file := range ch {
			files = append(files, file)
		}
		done <- 1
	}()

	cwalk.NumWorkers = threads
	err := cwalk.WalkWithSymlinks(path, func(_path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if !info.IsDir() && pattern.MatchString(info.Name()) {
			ch <- filepath.Join(path, _path)
		}
		return nil
	})
	close(ch)
	<-done
	if err != nil {
		return nil, err
	}

	// the walker is concurrent
	sort.Strings(files)

	return files, err
}

// expandInputs replaces directories in files with report files inside them.
func expandInputs(files []string, pattern *regexp.Regexp, threads int) ([]string, error) {
	files2 := make([]string, 0, len(files))
	for _, file := range files {
		if isStdin(file) {
			files2 = append(files2, file)
			continue
		}
		file = expandPath(file)
		isDir, err := pathutil.DirExists(file)
		if err != nil {
			return nil, errors.Wrap(err, file)
		}
		if !isDir {
			existed, err := pathutil.Exists(file)
			if err != nil {
				return nil, errors.Wrap(err, file)
			}
			if !existed {
				return nil, fmt.Errorf("file not found: %s", file)
			}
			files2 = append(files2, file)
			continue
		}

		_files, err := getFileListFromDir(file, pattern, threads)
		if err != nil {
			return nil, errors.Wrapf(err, "walking dir: %s", file)
		}
		if len(_files) == 0 {
			log.Warningf("no report files found in directory: %s", file)
		}
		files2 = append(files2, _files...)
	}
	return files2, nil
}

// sampleName returns the base name of a file without the extension.
func sampleName(file string) string {
	if isStdin(file) {
		return "stdin"
	}
	name, _ := filepathTrimExtension(filepath.Base(file))
	return name
}
