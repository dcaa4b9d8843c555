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

// This file has the keys and cross-key rules shared by many tools.

import (
	"fmt"
	"strings"

	"github.com/GGFHF/ngscloud/conffile"
	"github.com/hashicorp/go-multierror"
)

// Read types and formats.
const (
	ReadTypeSE  = "SE"
	ReadTypePE  = "PE"
	FormatFASTQ = "FASTQ"
	FormatFASTA = "FASTA"
)

func experimentID() conffile.Key {
	return conffile.Key{Name: "experiment_id", Kind: conffile.String, Checks: []conffile.Check{conffile.NotEmpty, conffile.SafeName}, Comment: "experiment identification"}
}

func readDatasetID() conffile.Key {
	return conffile.Key{Name: "read_dataset_id", Kind: conffile.String, Checks: []conffile.Check{conffile.NotEmpty, conffile.SafeName}, Comment: "read dataset identification"}
}

func referenceDatasetID() conffile.Key {
	return conffile.Key{Name: "reference_dataset_id", Kind: conffile.String, Checks: []conffile.Check{conffile.NotEmpty, conffile.SafeName}, Comment: "reference dataset identification"}
}

func referenceFile() conffile.Key {
	return conffile.Key{Name: "reference_file", Kind: conffile.Path, Comment: "reference file name"}
}

func assemblySoftware() conffile.Key {
	return conffile.Key{
		Name:    "assembly_software",
		Kind:    conffile.Enum,
		Values:  AssemblerCodes(),
		Comment: "assembly software: " + strings.Join(AssemblerCodes(), " or "),
		Derive: func(ident map[string]string) string {
			if software := SoftwareOf(ident["assembly_dataset_id"]); software != "" {
				return software
			}
			return conffile.None
		},
	}
}

func assemblyDatasetID() conffile.Key {
	prefixes := make([]string, 0, len(assemblyTypes))
	for _, code := range AssemblerCodes() {
		prefixes = append(prefixes, code+"-")
	}
	return conffile.Key{
		Name:    "assembly_dataset_id",
		Kind:    conffile.String,
		Checks:  []conffile.Check{conffile.HasPrefix("a dataset id starting with "+strings.Join(prefixes, " or "), prefixes...), conffile.SafeName},
		Comment: "assembly dataset identification",
	}
}

func assemblyType() conffile.Key {
	return conffile.Key{
		Name:    "assembly_type",
		Kind:    conffile.Enum,
		Default: AssemblyNone,
		Values:  []string{AssemblyContigs, AssemblyScaffolds, AssemblyNone},
		Comment: "CONTIGS or SCAFFOLDS in SOAPdenovo-Trans; NONE in any other case",
	}
}

func readFormat() conffile.Key {
	return conffile.Key{Name: "format", Kind: conffile.Enum, Default: FormatFASTQ, Values: []string{FormatFASTQ, FormatFASTA}, Comment: "FASTQ or FASTA"}
}

func readType(allowed ...string) conffile.Key {
	if len(allowed) == 0 {
		allowed = []string{ReadTypeSE, ReadTypePE}
	}
	return conffile.Key{Name: "read_type", Kind: conffile.Enum, Default: allowed[len(allowed)-1], Values: allowed, Comment: strings.Join(allowed, " (single-end) or ") + " (paired-end)"}
}

func readFiles(n int) conffile.Key {
	k := conffile.Key{
		Name:    fmt.Sprintf("read_file_%d_list", n),
		Kind:    conffile.List,
		Default: conffile.None,
		Comment: fmt.Sprintf("comma separated names of the read files %d in the read dataset", n),
	}
	if n == 2 {
		k.NoneAllowed = true
		k.Comment += ", or NONE for single-end reads"
	}
	return k
}

func threads(name string) conffile.Key {
	return conffile.Key{Name: name, Kind: conffile.Int, Default: "4", Checks: []conffile.Check{conffile.AtLeast(1)}, Comment: "number of threads for use"}
}

func otherParameters(reserved ...string) conffile.Key {
	return conffile.Key{Name: OtherParameters, Kind: conffile.Params, Default: conffile.None, Reserved: reserved, Comment: "additional parameters to the previous ones or NONE"}
}

// identSection builds an identification section holding the given keys.
func identSection(keys ...conffile.Key) conffile.Section {
	return conffile.Section{Name: IdentSection, Comment: "identification", Identification: true, Keys: keys}
}

// librarySection builds the read library section, which is filled at file
// creation like the identification section.
func librarySection(keys ...conffile.Key) conffile.Section {
	return conffile.Section{Name: LibrarySection, Comment: "library", Identification: true, Keys: keys}
}

// assemblyKeys are the identification keys of tools that take an assembly.
func assemblyKeys() []conffile.Key {
	return []conffile.Key{assemblySoftware(), assemblyDatasetID(), assemblyType()}
}

// pairedLibraryKeys are the library keys of tools that take SE or PE reads.
func pairedLibraryKeys() []conffile.Key {
	return []conffile.Key{readType(), readFiles(1), readFiles(2)}
}

func ruleError(key, msg string) error {
	return fmt.Errorf("*** ERROR: the key \"%s\" %s.", key, msg)
}

// assemblyRule checks that assembly_software agrees with the dataset id and
// that assembly_type is valid for the assembling tool, per the decision
// table.
func assemblyRule(o *conffile.Options) []error {
	dataset, okd := o.Value(IdentSection, "assembly_dataset_id")
	if !okd {
		return nil
	}
	var errs []error
	if software, ok := o.Value(IdentSection, "assembly_software"); ok && !strings.HasPrefix(dataset.Raw, software.Raw+"-") {
		errs = append(errs, ruleError("assembly_dataset_id", fmt.Sprintf("has to start with \"%s-\" when assembly_software is %s", software.Raw, software.Raw)))
	}
	if at, ok := o.Value(IdentSection, "assembly_type"); ok && !AssemblyTypeAllowed(SoftwareOf(dataset.Raw), at.Raw) {
		errs = append(errs, ruleError("assembly_type", assemblyTypeMsg()))
	}
	return errs
}

// assemblyTypeMsg describes the assembly type decision table.
func assemblyTypeMsg() string {
	var parts []string
	for _, code := range AssemblerCodes() {
		types := assemblyTypes[code]
		if len(types) == 1 && types[0] == AssemblyNone {
			continue
		}
		name := code
		if s, err := Get(code); err == nil {
			name = s.Name
		}
		parts = append(parts, strings.Join(types, " or ")+" in "+name)
	}
	parts = append(parts, "NONE in any other case")
	return "has to be " + strings.Join(parts, " or ")
}

// libraryRule checks that single-end libraries have no second read files and
// that paired-end libraries have one second file per first file.
func libraryRule(o *conffile.Options) []error {
	rt, ok := o.Value(LibrarySection, "read_type")
	if !ok {
		return nil
	}
	first, ok1 := o.Value(LibrarySection, "read_file_1_list")
	second, ok2 := o.Value(LibrarySection, "read_file_2_list")
	if !ok2 {
		return nil
	}
	switch rt.Raw {
	case ReadTypeSE:
		if !second.None {
			return []error{ruleError("read_file_2_list", "has to be NONE when read_type is SE")}
		}
	case ReadTypePE:
		if second.None {
			return []error{ruleError("read_file_2_list", "has to list the second read files when read_type is PE")}
		}
		if ok1 && len(first.List) != len(second.List) {
			return []error{ruleError("read_file_2_list", "has to have as many files as read_file_1_list when read_type is PE")}
		}
	}
	return nil
}

// orderedRule checks that the integer or float key low is not greater than
// the key high in the tool's parameter section.
func orderedRule(section, low, high string) Rule {
	return func(o *conffile.Options) []error {
		lv, okl := o.Value(section, low)
		hv, okh := o.Value(section, high)
		if !okl || !okh || lv.None || hv.None {
			return nil
		}
		if lv.Number() > hv.Number() {
			return []error{ruleError(low, fmt.Sprintf("has to be less than or equal to %s", high))}
		}
		return nil
	}
}

// flatten turns a *multierror.Error into display lines.
func flatten(err error) []string {
	if err == nil {
		return nil
	}
	merr, ok := err.(*multierror.Error)
	if !ok {
		return []string{err.Error()}
	}
	msgs := make([]string, 0, len(merr.Errors))
	for _, e := range merr.Errors {
		msgs = append(msgs, e.Error())
	}
	return msgs
}

// paramSection builds the tunable parameter section of the named tool.
func paramSection(name string, keys ...conffile.Key) conffile.Section {
	return conffile.Section{Name: name + " parameters", Comment: name + " parameters", Keys: keys}
}

func intKey(name, def, comment string, checks ...conffile.Check) conffile.Key {
	return conffile.Key{Name: name, Kind: conffile.Int, Default: def, Comment: comment, Checks: checks}
}

func floatKey(name, def, comment string, checks ...conffile.Check) conffile.Key {
	return conffile.Key{Name: name, Kind: conffile.Float, Default: def, Comment: comment, Checks: checks}
}

func enumKey(name, def, comment string, values ...string) conffile.Key {
	return conffile.Key{Name: name, Kind: conffile.Enum, Default: def, Comment: comment, Values: values}
}

func stringKey(name, def, comment string) conffile.Key {
	return conffile.Key{Name: name, Kind: conffile.String, Default: def, Comment: comment, Checks: []conffile.Check{conffile.NotEmpty}}
}

// orNone lets a key take the literal NONE.
func orNone(k conffile.Key) conffile.Key {
	k.NoneAllowed = true
	if k.Default == "" {
		k.Default = conffile.None
	}
	return k
}

// requiredForSE checks that the given keys of a parameter section are not
// NONE when the library is single-end.
func requiredForSE(section string, keys ...string) Rule {
	return func(o *conffile.Options) []error {
		rt, ok := o.Value(LibrarySection, "read_type")
		if !ok || rt.Raw != ReadTypeSE {
			return nil
		}
		var errs []error
		for _, key := range keys {
			if v, ok := o.Value(section, key); ok && v.None {
				errs = append(errs, ruleError(key, "has to be a number when read_type is SE"))
			}
		}
		return errs
	}
}
