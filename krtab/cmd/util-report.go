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
	"sync"
	"time"

	"github.com/pkg/errors"
	"github.com/shenwei356/breader"
	"github.com/shenwei356/krtab/krtab/cmd/lineage"
	"github.com/vbauerster/mpb/v5"
	"github.com/vbauerster/mpb/v5/decor"
)

type reportLine struct {
	line   string
	record lineage.Record
	ok     bool
	err    error
}

// readReport parses all records of a report file, gzipped or not.
func readReport(file string, format *lineage.Format, threads int, chunkSize int) ([]lineage.Record, error) {
	fn := func(line string) (interface{}, bool, error) {
		r, ok, err := format.ParseLine(line, 0)
		if err != nil {
			return reportLine{line: line, err: err}, true, nil
		}
		return reportLine{record: r, ok: ok}, true, nil
	}

	reader, err := breader.NewBufferedReader(file, threads, chunkSize, fn)
	if err != nil {
		return nil, errors.Wrap(err, file)
	}

	records := make([]lineage.Record, 0, 1024)
	var n int // line number
	var l reportLine
	var data interface{}
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
			l = data.(reportLine)
			if l.err != nil {
				// parse again for the line number
				_, _, err = format.ParseLine(l.line, n)
				err = errors.Wrap(err, file)
				break
			}
			if !l.ok {
				continue
			}
			l.record.Line = n
			records = append(records, l.record)
		}
	}
	if err != nil {
		return nil, err
	}
	return records, nil
}

type reportResult struct {
	file    string
	records int
	report  *lineage.Report
	err     error
}

// parseReports parses report files concurrently, results are returned
// in the order of the files.
func parseReports(files []string, format *lineage.Format, schema *lineage.Schema, popt lineage.ParseOptions,
	opt *Options, chunkSize int, progress bool) []*reportResult {

	results := make([]*reportResult, len(files))

	var pbs *mpb.Progress
	var bar *mpb.Bar
	var chDuration chan time.Duration
	var doneDuration chan int
	if progress {
		pbs = mpb.New(mpb.WithWidth(79))
		bar = pbs.AddBar(int64(len(files)),
			mpb.BarStyle("[=>-]<+"),
			mpb.PrependDecorators(
				decor.Name("parsed reports: ", decor.WC{W: len("parsed reports: "), C: decor.DidentRight}),
				decor.Name("", decor.WCSyncSpaceR),
				decor.CountersNoUnit("%d / %d", decor.WCSyncWidth),
			),
			mpb.AppendDecorators(
				decor.EwmaETA(decor.ET_STYLE_GO, 60),
			),
		)

		chDuration = make(chan time.Duration, opt.NumCPUs)
		doneDuration = make(chan int)
		go func() {
			for t := range chDuration {
				bar.Increment()
				bar.DecoratorEwmaUpdate(t)
			}
			doneDuration <- 1
		}()
	}

	var wg sync.WaitGroup
	tokens := make(chan int, opt.NumCPUs)
	for i, file := range files {
		tokens <- 1
		wg.Add(1)

		go func(i int, file string) {
			startTime := time.Now()
			defer func() {
				// chDuration is closed right after wg.Wait()
				if progress {
					chDuration <- time.Since(startTime)
				}
				<-tokens
				wg.Done()
			}()

			result := &reportResult{file: file}
			results[i] = result

			// files are processed in parallel, one thread for each.
			records, err := readReport(file, format, 1, chunkSize)
			if err != nil {
				result.err = err
				return
			}
			result.records = len(records)

			result.report, result.err = lineage.ParseReport(sampleName(file), records, schema, popt)
		}(i, file)
	}
	wg.Wait()

	if progress {
		close(chDuration)
		<-doneDuration
		pbs.Wait()
	}

	return results
}

// mergeReports merges lineage tables and classification tables of
// reports in order.
func mergeReports(reports []*lineage.Report, joinKey string) (*lineage.Table, *lineage.Table, error) {
	var lineages, classified *lineage.Table
	var err error
	for _, r := range reports {
		lineages, err = lineage.Merge(lineages, r.Lineages, joinKey)
		if err != nil {
			return nil, nil, errors.Wrapf(err, "merging lineages of %s", r.Sample)
		}
		classified, err = lineage.Merge(classified, r.Classified, lineage.LabelKey)
		if err != nil {
			return nil, nil, errors.Wrapf(err, "merging classification of %s", r.Sample)
		}
	}
	return lineages, classified, nil
}
