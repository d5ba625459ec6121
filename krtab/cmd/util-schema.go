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
	"io/ioutil"

	"github.com/pkg/errors"
	"github.com/shenwei356/krtab/krtab/cmd/lineage"
	"github.com/shenwei356/xopen"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v2"
)

// schemaFromFile reads a schema from a YAML file.
func schemaFromFile(file string) (*lineage.Schema, error) {
	r, err := xopen.Ropen(file)
	if err != nil {
		return nil, fmt.Errorf("fail to open schema file: %s", file)
	}
	defer r.Close()

	data, err := ioutil.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("fail to read schema file: %s", file)
	}

	schema := &lineage.Schema{}
	err = yaml.Unmarshal(data, schema)
	if err != nil {
		return nil, errors.Wrapf(err, "fail to unmarshal schema file: %s", file)
	}
	return schema, nil
}

// getSchema returns the default schema or the one from -s/--schema,
// modified by the flags the command has, and validated.
func getSchema(cmd *cobra.Command) *lineage.Schema {
	var schema *lineage.Schema
	file := getFlagString(cmd, "schema")
	if file == "" {
		schema = lineage.DefaultSchema()
	} else {
		var err error
		schema, err = schemaFromFile(expandPath(file))
		checkError(err)
	}

	if cmd.Flags().Lookup("with-kingdom") != nil && getFlagBool(cmd, "with-kingdom") {
		schema.WithKingdom()
	}
	if cmd.Flags().Lookup("with-subspecies") != nil && getFlagBool(cmd, "with-subspecies") {
		schema.WithSubspecies()
	}
	if cmd.Flags().Lookup("stop-code") != nil && cmd.Flags().Changed("stop-code") {
		schema.StopCode = getFlagString(cmd, "stop-code")
	}

	checkError(schema.Validate())
	return schema
}

// schemaToYAML dumps a schema.
func schemaToYAML(schema *lineage.Schema) ([]byte, error) {
	data, err := yaml.Marshal(schema)
	if err != nil {
		return nil, errors.Wrap(err, "fail to marshal schema")
	}
	return data, nil
}
