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

package internal

// this file has the line oriented progress sink long running stages write to

import (
	"fmt"
	"io"
	"strings"

	sync "github.com/sasha-s/go-deadlock"
)

// LineSink is an append-only, line oriented writer that is safe for
// concurrent use. Each line is written whole to the underlying writer (if
// any) and kept for later retrieval.
type LineSink struct {
	w     io.Writer
	lines []string
	mu    sync.Mutex
}

// NewLineSink returns a LineSink writing to w, which may be nil.
func NewLineSink(w io.Writer) *LineSink {
	return &LineSink{w: w}
}

// Println appends one line; embedded newlines split it into several.
func (s *LineSink) Println(line string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, l := range strings.Split(strings.TrimRight(line, "\n"), "\n") {
		s.lines = append(s.lines, l)
		if s.w != nil {
			fmt.Fprintln(s.w, l)
		}
	}
}

// Printf appends a formatted line.
func (s *LineSink) Printf(format string, args ...interface{}) {
	s.Println(fmt.Sprintf(format, args...))
}

// Write lets a LineSink be used as an io.Writer; each call is treated as one
// or more whole lines.
func (s *LineSink) Write(p []byte) (int, error) {
	s.Println(string(p))
	return len(p), nil
}

// Lines returns a copy of every line written so far.
func (s *LineSink) Lines() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	lines := make([]string, len(s.lines))
	copy(lines, s.lines)
	return lines
}
