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

// This file deals with dataset identifiers and the files that each
// assembling tool leaves in its result dataset.

import (
	"fmt"
	"path"
	"sort"
	"strings"
	"time"
)

// Tool codes. A result dataset id is a tool code followed by -YYMMDD-HHMMSS.
const (
	CodeBowtie2          = "bowtie2"
	CodeBUSCO            = "busco"
	CodeCDHitEst         = "cd-hit-est"
	CodeFastQC           = "fastqc"
	CodeGMAP             = "gmap"
	CodeInsilico         = "insilico_read_normalization"
	CodeKallisto         = "kallisto"
	CodeQUAST            = "quast"
	CodeRSEMEval         = "rsem-eval"
	CodeSOAPdenovoTrans  = "soapdenovotrans"
	CodeSTAR             = "star"
	CodeTransAbyss       = "transabyss"
	CodeTranscriptFilter = "transcript-filter"
	CodeTransrate        = "transrate"
	CodeTrimmomatic      = "trimmomatic"
	CodeTrinity          = "trinity"
)

// Assembly types.
const (
	AssemblyContigs   = "CONTIGS"
	AssemblyScaffolds = "SCAFFOLDS"
	AssemblyNone      = "NONE"
)

// runIDFormat is the time layout of the suffix of run directory names and
// result dataset ids.
const runIDFormat = "060102-150405"

// assemblyTypes is the decision table of which assembly_type values are
// valid for an assembly produced by each assembling tool.
var assemblyTypes = map[string][]string{
	CodeSOAPdenovoTrans:  {AssemblyContigs, AssemblyScaffolds},
	CodeTrinity:          {AssemblyNone},
	CodeTransAbyss:       {AssemblyNone},
	CodeCDHitEst:         {AssemblyNone},
	CodeTranscriptFilter: {AssemblyNone},
}

// assemblyFiles gives the name of the transcriptome file an assembling tool
// leaves in its result dataset directory.
var assemblyFiles = map[string]func(experiment, dataset, assemblyType string) string{
	CodeSOAPdenovoTrans: func(experiment, dataset, assemblyType string) string {
		if assemblyType == AssemblyScaffolds {
			return experiment + "-" + dataset + ".scafSeq"
		}
		return experiment + "-" + dataset + ".contig"
	},
	CodeTrinity:          func(_, _, _ string) string { return "Trinity.fasta" },
	CodeTransAbyss:       func(_, _, _ string) string { return "transabyss-final.fa" },
	CodeCDHitEst:         func(_, _, _ string) string { return "clustered-transcriptome.fasta" },
	CodeTranscriptFilter: func(_, _, _ string) string { return "filtered-transcriptome.fasta" },
}

// AssemblerCodes returns the codes of the tools whose result datasets are
// transcriptome assemblies, sorted.
func AssemblerCodes() []string {
	codes := make([]string, 0, len(assemblyTypes))
	for code := range assemblyTypes {
		codes = append(codes, code)
	}
	sort.Strings(codes)
	return codes
}

// AssemblyTypes returns the valid assembly_type values for an assembly made
// by the given tool, or nil if the tool doesn't make assemblies.
func AssemblyTypes(software string) []string {
	return assemblyTypes[software]
}

// AssemblyTypeAllowed tells you if the assembly type is valid for an
// assembly made by the given tool.
func AssemblyTypeAllowed(software, assemblyType string) bool {
	for _, allowed := range assemblyTypes[software] {
		if allowed == assemblyType {
			return true
		}
	}
	return false
}

// SoftwareOf returns the code of the tool that produced a result dataset,
// judged by the dataset id's prefix, or the empty string if no registered
// tool matches. The longest matching code wins.
func SoftwareOf(datasetID string) string {
	best := ""
	for code := range registry {
		if strings.HasPrefix(datasetID, code+"-") && len(code) > len(best) {
			best = code
		}
	}
	return best
}

// RunID is the name of the run directory (and so the result dataset id) of a
// run of the given tool started at t.
func RunID(code string, t time.Time) string {
	return code + "-" + t.Format(runIDFormat)
}

// RunDir is the remote run directory of a run of the given tool for an
// experiment, started at t.
func (l Layout) RunDir(experiment, code string, t time.Time) string {
	return path.Join(l.ResultDir, experiment, RunID(code, t))
}

// AssemblyPath is the absolute remote path of the transcriptome in an
// assembly result dataset.
func (l Layout) AssemblyPath(experiment, dataset, assemblyType string) (string, error) {
	software := SoftwareOf(dataset)
	file, found := assemblyFiles[software]
	if !found {
		return "", fmt.Errorf("%s is not a dataset made by an assembling tool", dataset)
	}
	return path.Join(l.ResultDatasetDir(experiment, dataset), file(experiment, dataset, assemblyType)), nil
}
