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

// This file contains the Spec type and the registry of all supported tools.

import (
	"fmt"
	"path"
	"regexp"
	"sort"
	"strings"

	"github.com/GGFHF/ngscloud/conffile"
)

// IdentSection is the name of the section holding the identification keys
// every tool's config file starts with.
const IdentSection = "identification"

// LibrarySection is the name of the section describing read files, for tools
// that take reads.
const LibrarySection = "library"

// OtherParameters is the name of the free-form extension key.
const OtherParameters = "other_parameters"

// ErrUnknownTool is found in Error.Err when asking for a code no Spec has.
const ErrUnknownTool = "unknown tool code"

// Error records an error and the tool code that caused it.
type Error struct {
	Code string
	Op   string
	Err  string
}

func (e Error) Error() string {
	return "tool(" + e.Code + ") " + e.Op + "(): " + e.Err
}

// ParamStyle is the way a tool spells its command line flags.
type ParamStyle int

// The supported flag spellings.
const (
	DoubleDashSpace  ParamStyle = iota // --name value
	DoubleDashEquals                   // --name=value
	SingleDashSpace                    // -name value
)

// Flag renders a flag with a value.
func (s ParamStyle) Flag(name, value string) string {
	value = Quote(value)
	switch s {
	case DoubleDashEquals:
		return "--" + name + "=" + value
	case SingleDashSpace:
		return "-" + name + " " + value
	}
	return "--" + name + " " + value
}

// Switch renders a flag without a value.
func (s ParamStyle) Switch(name string) string {
	if s == SingleDashSpace {
		return "-" + name
	}
	return "--" + name
}

// Param renders a parsed other_parameters token.
func (s ParamStyle) Param(p conffile.Param) string {
	if p.HasValue {
		return s.Flag(p.Name, p.Value)
	}
	return s.Switch(p.Name)
}

var shellSafe = regexp.MustCompile(`^[A-Za-z0-9_./:,=+@%-]+$`)

// Quote single-quotes a word for bash if it contains anything other than
// characters that are always literal.
func Quote(word string) string {
	if shellSafe.MatchString(word) {
		return word
	}
	return "'" + strings.Replace(word, "'", `'\''`, -1) + "'"
}

// Rule is a cross-key check, run after every key has been coerced. Rules must
// skip keys that are absent from the Options, since those already failed.
type Rule func(o *conffile.Options) []error

// Command is one timed invocation of a tool binary in the generated process
// script.
type Command struct {
	// Description is echoed before the command runs.
	Description string

	// Setup lines run before the timed command, untimed but error checked.
	Setup []string

	Binary string

	// Args are the command line words, each rendered on its own
	// continuation line.
	Args []string

	// Stdout, if set, is the file the command's standard output goes to.
	Stdout string

	// After lines run once the command has succeeded.
	After []string
}

// Spec is the static descriptor of one wrapped tool.
type Spec struct {
	Code string
	Name string
	URL  string

	// Env is the named environment that holds the tool.
	Env string

	Style  ParamStyle
	Schema conffile.Schema
	Rules  []Rule

	// Build renders the commands the process script runs, in order.
	Build func(inv *Invocation) ([]*Command, error)
}

// ParamSection is the name of the section holding the tool's tunable
// parameters.
func (s *Spec) ParamSection() string {
	return s.Name + " parameters"
}

// ConfigBasename is the name of the tool's config file.
func (s *Spec) ConfigBasename() string {
	return s.Code + "-config.txt"
}

// ScriptBasename is the name of the generated process script.
func (s *Spec) ScriptBasename() string {
	return s.Code + "-process.sh"
}

// StarterBasename is the name of the generated starter script.
func (s *Spec) StarterBasename() string {
	return s.Code + "-process-starter.sh"
}

// LogBasename is the name of the log file the starter redirects to.
func (s *Spec) LogBasename() string {
	return s.Code + "-process.log"
}

// ProcessName is how the run is referred to in notifications.
func (s *Spec) ProcessName() string {
	return s.Name + " process"
}

// HasKey tells you if a section of the schema declares a key.
func (s *Spec) HasKey(section, key string) bool {
	for _, sec := range s.Schema {
		if sec.Name != section {
			continue
		}
		for _, k := range sec.Keys {
			if k.Name == key {
				return true
			}
		}
	}
	return false
}

// Header returns the comment lines written at the top of the tool's config
// file.
func (s *Spec) Header() []string {
	lines := []string{
		fmt.Sprintf("The %s configuration file.", s.Name),
		"",
		"You must review the information of this file and update the values with the corresponding ones to the current run.",
		"",
	}
	if s.HasKey(IdentSection, "read_dataset_id") {
		lines = append(lines, "The read files have to be located in the cluster directory <read root>/experiment_id/read_dataset_id.")
	}
	if s.HasKey(IdentSection, "assembly_dataset_id") {
		lines = append(lines, "The assembly files are located in the cluster directory <result root>/experiment_id/assembly_dataset_id.")
	}
	if s.HasKey(IdentSection, "reference_dataset_id") {
		lines = append(lines, "The reference files have to be located in the cluster directory <reference root>/reference_dataset_id.")
	}
	lines = append(lines,
		"The identification values are set when this file is created and should not normally be changed.",
		"",
		fmt.Sprintf("The parameters of %s and their meaning are explained in \"%s\".", s.Name, s.URL),
		"",
		"Use NONE for a key that has no value.",
	)
	if s.HasKey(s.ParamSection(), OtherParameters) {
		lines = append(lines,
			"",
			fmt.Sprintf("In section \"%s\", the key \"%s\" allows you to input additional parameters in the format:", s.ParamSection(), OtherParameters),
			"",
			"    other_parameters = --parameter-1[=value-1][; --parameter-2[=value-2][; ...; --parameter-n[=value-n]]]",
			"",
			fmt.Sprintf("parameter-i is a parameter name of %s and value-i a valid value of parameter-i, e.g.", s.Name),
			"",
			"    other_parameters = --param1=99; --param2",
		)
	}
	return lines
}

// Check coerces the set against the schema and then applies the cross-key
// rules, returning every problem found as a display line.
func (s *Spec) Check(set conffile.OptionSet) (*conffile.Options, []string) {
	opts, err := s.Schema.Coerce(set)
	msgs := flatten(err)
	for _, rule := range s.Rules {
		for _, rerr := range rule(opts) {
			msgs = append(msgs, rerr.Error())
		}
	}
	return opts, msgs
}

// ProvisionedCmd is a remote shell command that prints RC=0 when the tool's
// environment exists, RC=1 otherwise.
func (s *Spec) ProvisionedCmd(l Layout) string {
	return fmt.Sprintf("[ -d %s ] && echo RC=0 || echo RC=1", l.EnvDir(s.Env))
}

// Layout holds the cluster directory roots that remote paths are built from.
type Layout struct {
	AppDir       string
	MinicondaDir string
	ReadDir      string
	ReferenceDir string
	DatabaseDir  string
	ResultDir    string
}

// MinicondaBin is the directory added to PATH before activating a tool's
// environment.
func (l Layout) MinicondaBin() string {
	return path.Join(l.MinicondaDir, "bin")
}

// EnvDir is where a named environment lives.
func (l Layout) EnvDir(env string) string {
	return path.Join(l.MinicondaDir, "envs", env)
}

// ExperimentReadDir holds the read datasets of an experiment.
func (l Layout) ExperimentReadDir(experiment string) string {
	return path.Join(l.ReadDir, experiment)
}

// ReadDatasetDir holds the files of a read dataset.
func (l Layout) ReadDatasetDir(experiment, dataset string) string {
	return path.Join(l.ReadDir, experiment, dataset)
}

// ExperimentResultDir holds the result datasets (run directories) of an
// experiment.
func (l Layout) ExperimentResultDir(experiment string) string {
	return path.Join(l.ResultDir, experiment)
}

// ResultDatasetDir holds the files of a result dataset.
func (l Layout) ResultDatasetDir(experiment, dataset string) string {
	return path.Join(l.ResultDir, experiment, dataset)
}

// ReferenceDatasetDir holds the files of a reference dataset.
func (l Layout) ReferenceDatasetDir(dataset string) string {
	return path.Join(l.ReferenceDir, dataset)
}

// DatabaseDatasetDir holds the files of a database dataset.
func (l Layout) DatabaseDatasetDir(dataset string) string {
	return path.Join(l.DatabaseDir, dataset)
}

var registry = make(map[string]*Spec)

// register adds specs to the registry; called from the init() of each
// catalogue file.
func register(specs ...*Spec) {
	for _, s := range specs {
		if _, exists := registry[s.Code]; exists {
			panic("duplicate tool code " + s.Code)
		}
		registry[s.Code] = s
	}
}

// Get returns the Spec with the given code.
func Get(code string) (*Spec, error) {
	s, found := registry[code]
	if !found {
		return nil, Error{code, "Get", ErrUnknownTool}
	}
	return s, nil
}

// Codes returns the codes of every registered tool, sorted.
func Codes() []string {
	codes := make([]string, 0, len(registry))
	for code := range registry {
		codes = append(codes, code)
	}
	sort.Strings(codes)
	return codes
}

// All returns every registered Spec, sorted by code.
func All() []*Spec {
	codes := Codes()
	specs := make([]*Spec, len(codes))
	for i, code := range codes {
		specs[i] = registry[code]
	}
	return specs
}
