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

package tool

import (
	"path"
	"strconv"
	"strings"

	"github.com/GGFHF/ngscloud/conffile"
)

// Invocation is what a Spec's Build func needs to render its commands: the
// validated options, the cluster layout and the run directory.
type Invocation struct {
	Spec    *Spec
	Layout  Layout
	Options *conffile.Options
	Cluster string
	RunDir  string
}

// Ident returns an identification value.
func (inv *Invocation) Ident(key string) string {
	return inv.Options.String(IdentSection, key)
}

// Lib returns a library value.
func (inv *Invocation) Lib(key string) string {
	return inv.Options.String(LibrarySection, key)
}

// Param returns a value from the tool's parameter section.
func (inv *Invocation) Param(key string) conffile.Value {
	v, _ := inv.Options.Value(inv.Spec.ParamSection(), key)
	return v
}

// ParamString returns the text of a parameter value.
func (inv *Invocation) ParamString(key string) string {
	return inv.Param(key).Raw
}

// ParamInt returns the text of an integer parameter.
func (inv *Invocation) ParamInt(key string) string {
	return strconv.FormatInt(inv.Param(key).Int, 10)
}

// Flag renders a flag in the tool's style.
func (inv *Invocation) Flag(name, value string) string {
	return inv.Spec.Style.Flag(name, value)
}

// Switch renders a valueless flag in the tool's style.
func (inv *Invocation) Switch(name string) string {
	return inv.Spec.Style.Switch(name)
}

// Others renders the other_parameters in the tool's style.
func (inv *Invocation) Others() []string {
	params := inv.Options.Params(inv.Spec.ParamSection(), OtherParameters)
	words := make([]string, 0, len(params))
	for _, p := range params {
		words = append(words, inv.Spec.Style.Param(p))
	}
	return words
}

// InRun returns a path inside the run directory.
func (inv *Invocation) InRun(name string) string {
	return path.Join(inv.RunDir, name)
}

// ReadFiles returns the full remote paths of the files listed in
// read_file_<n>_list, or nil for NONE.
func (inv *Invocation) ReadFiles(n int) []string {
	key := "read_file_1_list"
	if n == 2 {
		key = "read_file_2_list"
	}
	names := inv.Options.List(LibrarySection, key)
	dir := inv.Layout.ReadDatasetDir(inv.Ident("experiment_id"), inv.Ident("read_dataset_id"))
	paths := make([]string, len(names))
	for i, name := range names {
		paths[i] = path.Join(dir, name)
	}
	return paths
}

// JoinedReadFiles returns ReadFiles(n) joined with commas.
func (inv *Invocation) JoinedReadFiles(n int) string {
	return strings.Join(inv.ReadFiles(n), ",")
}

// Paired tells you if the library is paired-end.
func (inv *Invocation) Paired() bool {
	return inv.Lib("read_type") == ReadTypePE
}

// Assembly returns the full remote path of the input transcriptome.
func (inv *Invocation) Assembly() (string, error) {
	return inv.Layout.AssemblyPath(inv.Ident("experiment_id"), inv.Ident("assembly_dataset_id"), inv.Ident("assembly_type"))
}

// Reference returns the full remote path of the reference file.
func (inv *Invocation) Reference() string {
	return path.Join(inv.Layout.ReferenceDatasetDir(inv.Ident("reference_dataset_id")), inv.Ident("reference_file"))
}
