// Copyright © 2020 The ngscloud Authors.
//
//  This file is part of ngscloud.
//
//  ngscloud is free software: you can redistribute it and/or modify
//  it under the terms of the GNU Lesser General Public License as published by
//  the Free Software Foundation, either version 3 of the License, or
//  (at your option) any later version.
//
//  ngscloud is distributed in the hope that it will be useful,
//  but WITHOUT ANY WARRANTY; without even the implied warranty of
//  MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
//  GNU Lesser General Public License for more details.
//
//  You should have received a copy of the GNU Lesser General Public License
//  along with ngscloud. If not, see <http://www.gnu.org/licenses/>.

package conffile

// This file renders a Schema as a config file.

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// commentColumn is the width key = value text is padded to before its
// explanatory comment.
const commentColumn = 50

// Render writes the header comment lines followed by every section of the
// schema. Keys in Identification sections take their value from ident (or
// their Derive func, then their Default); every other key is written with
// its Default.
func (s Schema) Render(w io.Writer, header []string, ident map[string]string) error {
	bw := bufio.NewWriter(w)
	for _, line := range header {
		if line == "" {
			fmt.Fprintln(bw, "#")
			continue
		}
		fmt.Fprintf(bw, "# %s\n", line)
	}

	for _, section := range s {
		fmt.Fprintln(bw)
		if section.Comment != "" {
			fmt.Fprintf(bw, "# %s\n", section.Comment)
		}
		fmt.Fprintf(bw, "[%s]\n", section.Name)
		for _, key := range section.Keys {
			value := key.Default
			if section.Identification {
				if v, given := ident[key.Name]; given {
					value = v
				} else if key.Derive != nil {
					value = key.Derive(ident)
				}
			}
			fmt.Fprintln(bw, dataLine(key.Name, value, key.Comment))
		}
	}
	return bw.Flush()
}

// dataLine formats a key = value line with its comment aligned.
func dataLine(name, value, comment string) string {
	// values can't contain a newline or a # without breaking the format
	value = strings.NewReplacer("\n", " ", "\r", " ", "#", "").Replace(value)
	kv := name + " = " + value
	if comment == "" {
		return kv
	}
	return fmt.Sprintf("%-*s # %s", commentColumn, kv, comment)
}

// Write renders the schema to the file at path, creating parent directories
// as needed and silently replacing any existing file.
func (s Schema) Write(path string, header []string, ident map[string]string) (err error) {
	if err = os.MkdirAll(filepath.Dir(path), os.ModePerm); err != nil {
		return err
	}

	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0644)
	if err != nil {
		return err
	}
	defer func() {
		if errc := f.Close(); errc != nil && err == nil {
			err = errc
		}
	}()

	return s.Render(f, header, ident)
}
