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

// This file contains the parser for the key/value config file format.

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
)

// None is the literal written for a key that deliberately has no value.
const None = "NONE"

// SyntaxError is returned by Parse() when a line can't be understood.
type SyntaxError struct {
	Line int
	Text string
	Err  string
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("line %d [%s]: %s", e.Line, e.Text, e.Err)
}

// OptionSet is the in-memory form of a config file: section name -> key name
// -> raw string value. Unknown sections and keys are kept; it is up to a
// Schema to decide what matters.
type OptionSet map[string]map[string]string

// Get returns the raw value of a key, and whether it was present.
func (o OptionSet) Get(section, key string) (string, bool) {
	keys, found := o[section]
	if !found {
		return "", false
	}
	val, found := keys[key]
	return val, found
}

// Set sets the raw value of a key, creating the section as necessary.
func (o OptionSet) Set(section, key, value string) {
	if _, found := o[section]; !found {
		o[section] = make(map[string]string)
	}
	o[section][key] = value
}

// Sections returns the section names, sorted.
func (o OptionSet) Sections() []string {
	names := make([]string, 0, len(o))
	for name := range o {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Parse reads a config file. Lines starting with # are comments, [name]
// starts a section and "key = value" sets a key in the current section.
// Anything after a # on a data line is explanatory text and is discarded. If
// a key appears twice in a section the last one wins.
func Parse(r io.Reader) (OptionSet, error) {
	set := make(OptionSet)
	scanner := bufio.NewScanner(r)
	section := ""
	n := 0
	for scanner.Scan() {
		n++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		if strings.HasPrefix(line, "[") {
			if !strings.HasSuffix(line, "]") {
				return nil, &SyntaxError{n, line, "unterminated section header"}
			}
			section = strings.TrimSpace(line[1 : len(line)-1])
			if section == "" {
				return nil, &SyntaxError{n, line, "empty section name"}
			}
			if _, found := set[section]; !found {
				set[section] = make(map[string]string)
			}
			continue
		}

		eq := strings.Index(line, "=")
		if eq < 1 {
			return nil, &SyntaxError{n, line, "expected key = value"}
		}
		if section == "" {
			return nil, &SyntaxError{n, line, "key outside of any section"}
		}
		key := strings.TrimSpace(line[:eq])
		value := line[eq+1:]
		if hash := strings.Index(value, "#"); hash >= 0 {
			value = value[:hash]
		}
		set.Set(section, key, strings.TrimSpace(value))
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return set, nil
}

// Load parses the config file at the given path.
func Load(path string) (OptionSet, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return Parse(f)
}
