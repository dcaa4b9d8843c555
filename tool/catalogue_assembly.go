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

// This file has the tools that make or refine transcriptome assemblies.

import (
	"path"
	"strings"

	"github.com/GGFHF/ngscloud/conffile"
)

func init() {
	register(soapdenovotrans, trinity, transabyss, cdHitEst, transcriptFilter)
}

var soapdenovotrans = &Spec{
	Code:  CodeSOAPdenovoTrans,
	Name:  "SOAPdenovo-Trans",
	URL:   "https://github.com/aquaskyline/SOAPdenovo-Trans",
	Env:   "soapdenovo-trans",
	Style: SingleDashSpace,
	Schema: conffile.Schema{
		identSection(experimentID(), readDatasetID()),
		librarySection(readFormat(), readType(), readFiles(1), readFiles(2),
			intKey("avg_ins", "200", "average insert size of the paired-end reads", conffile.AtLeast(1))),
		paramSection("SOAPdenovo-Trans",
			threads("ncpu"),
			intKey("kmer", "25", "k-mer size", conffile.OddBetween(13, 127)),
			intKey("kmer_freq_cutoff", "0", "k-mers with frequency no larger than this are deleted", conffile.AtLeast(0)),
			intKey("edge_cov_cutoff", "2", "edges with coverage no larger than this are deleted", conffile.AtLeast(0)),
			intKey("merge_level", "2", "strength of merging similar sequences during contiging", conffile.Between(0, 3)),
			otherParameters("s", "o", "p", "K", "d", "e", "M"),
		),
	},
	Rules: []Rule{libraryRule},
	Build: func(inv *Invocation) ([]*Command, error) {
		config := inv.InRun("soapdenovotrans.config")
		lines := []string{"[LIB]", "avg_ins=" + inv.Options.String(LibrarySection, "avg_ins"), "asm_flags=3"}
		tag := "q"
		if inv.Lib("format") == FormatFASTA {
			tag = "f"
		}
		first, second := inv.ReadFiles(1), inv.ReadFiles(2)
		for i, file := range first {
			if inv.Paired() {
				lines = append(lines, tag+"1="+file, tag+"2="+second[i])
			} else {
				lines = append(lines, tag+"="+file)
			}
		}
		quoted := make([]string, len(lines))
		for i, line := range lines {
			quoted[i] = Quote(line)
		}

		args := []string{
			"all",
			inv.Flag("s", config),
			inv.Flag("o", inv.InRun(inv.Ident("experiment_id")+"-"+path.Base(inv.RunDir))),
			inv.Flag("p", inv.ParamInt("ncpu")),
			inv.Flag("K", inv.ParamInt("kmer")),
			inv.Flag("d", inv.ParamInt("kmer_freq_cutoff")),
			inv.Flag("e", inv.ParamInt("edge_cov_cutoff")),
			inv.Flag("M", inv.ParamInt("merge_level")),
		}
		return []*Command{{
			Description: "Assembling the transcriptome",
			Setup:       []string{"printf '%s\\n' " + strings.Join(quoted, " ") + " > " + config},
			Binary:      "SOAPdenovo-Trans-127mer",
			Args:        append(args, inv.Others()...),
		}}, nil
	},
}

var trinity = &Spec{
	Code:  CodeTrinity,
	Name:  "Trinity",
	URL:   "https://github.com/trinityrnaseq/trinityrnaseq/wiki",
	Env:   "trinity",
	Style: DoubleDashSpace,
	Schema: conffile.Schema{
		identSection(experimentID(), readDatasetID()),
		librarySection(append([]conffile.Key{readFormat()}, pairedLibraryKeys()...)...),
		paramSection("Trinity",
			threads("ncpu"),
			intKey("max_memory", "10", "suggested maximum memory in GiB", conffile.AtLeast(1)),
			intKey("min_kmer_cov", "1", "minimum count for k-mers to be assembled", conffile.AtLeast(1)),
			intKey("min_contig_length", "200", "minimum assembled contig length to report", conffile.AtLeast(1)),
			otherParameters("seqType", "max_memory", "CPU", "left", "right", "single", "output", "min_kmer_cov", "min_contig_length", "full_cleanup"),
		),
	},
	Rules: []Rule{libraryRule},
	Build: func(inv *Invocation) ([]*Command, error) {
		args := []string{
			inv.Flag("seqType", seqType(inv)),
			inv.Flag("max_memory", inv.ParamInt("max_memory")+"G"),
			inv.Flag("CPU", inv.ParamInt("ncpu")),
			inv.Flag("min_kmer_cov", inv.ParamInt("min_kmer_cov")),
			inv.Flag("min_contig_length", inv.ParamInt("min_contig_length")),
		}
		args = append(args, trinityReads(inv)...)
		args = append(args, inv.Flag("output", inv.InRun("trinity_out_dir")), inv.Switch("full_cleanup"))
		return []*Command{{
			Description: "Assembling the transcriptome",
			Binary:      "Trinity",
			Args:        append(args, inv.Others()...),
			After:       []string{"mv " + inv.InRun("trinity_out_dir.Trinity.fasta") + " " + inv.InRun("Trinity.fasta")},
		}}, nil
	},
}

// seqType is the Trinity spelling of the read format.
func seqType(inv *Invocation) string {
	if inv.Lib("format") == FormatFASTA {
		return "fa"
	}
	return "fq"
}

// trinityReads renders the read flags shared by Trinity's utilities.
func trinityReads(inv *Invocation) []string {
	if inv.Paired() {
		return []string{inv.Flag("left", inv.JoinedReadFiles(1)), inv.Flag("right", inv.JoinedReadFiles(2))}
	}
	return []string{inv.Flag("single", inv.JoinedReadFiles(1))}
}

var transabyss = &Spec{
	Code:  CodeTransAbyss,
	Name:  "Trans-ABySS",
	URL:   "https://github.com/bcgsc/transabyss",
	Env:   "transabyss",
	Style: DoubleDashSpace,
	Schema: conffile.Schema{
		identSection(experimentID(), readDatasetID()),
		librarySection(pairedLibraryKeys()...),
		paramSection("Trans-ABySS",
			threads("threads"),
			intKey("kmer", "32", "k-mer size", conffile.AtLeast(1)),
			intKey("length", "100", "minimum output sequence length", conffile.AtLeast(1)),
			otherParameters("se", "pe", "outdir", "name", "threads", "kmer", "length"),
		),
	},
	Rules: []Rule{libraryRule},
	Build: func(inv *Invocation) ([]*Command, error) {
		var reads string
		if inv.Paired() {
			first, second := inv.ReadFiles(1), inv.ReadFiles(2)
			words := make([]string, 0, 2*len(first))
			for i := range first {
				words = append(words, Quote(first[i]), Quote(second[i]))
			}
			reads = "--pe " + strings.Join(words, " ")
		} else {
			words := make([]string, 0)
			for _, file := range inv.ReadFiles(1) {
				words = append(words, Quote(file))
			}
			reads = "--se " + strings.Join(words, " ")
		}
		args := []string{
			reads,
			inv.Flag("outdir", inv.RunDir),
			inv.Flag("name", "transabyss"),
			inv.Flag("threads", inv.ParamInt("threads")),
			inv.Flag("kmer", inv.ParamInt("kmer")),
			inv.Flag("length", inv.ParamInt("length")),
		}
		return []*Command{{
			Description: "Assembling the transcriptome",
			Binary:      "transabyss",
			Args:        append(args, inv.Others()...),
		}}, nil
	},
}

var cdHitEst = &Spec{
	Code:  CodeCDHitEst,
	Name:  "CD-HIT-EST",
	URL:   "http://weizhong-lab.ucsd.edu/cd-hit/",
	Env:   "cd-hit",
	Style: SingleDashSpace,
	Schema: conffile.Schema{
		identSection(append([]conffile.Key{experimentID()}, assemblyKeys()...)...),
		paramSection("CD-HIT-EST",
			intKey("threads", "0", "number of threads for use; 0, all CPUs will be used", conffile.AtLeast(0)),
			intKey("memory_limit", "800", "memory limit in MB; 0 for unlimited", conffile.AtLeast(0)),
			floatKey("seq_identity_threshold", "0.9", "sequence identity threshold", conffile.Between(0, 1)),
			intKey("word_length", "10", "word length", conffile.Between(2, 11)),
			stringKey("mask", "NX", "masking letters"),
			intKey("match", "2", "matching score"),
			intKey("mismatch", "-2", "mismatching score"),
			otherParameters("i", "o", "T", "M", "c", "n", "mask", "match", "mismatch"),
		),
	},
	Rules: []Rule{assemblyRule},
	Build: func(inv *Invocation) ([]*Command, error) {
		assembly, err := inv.Assembly()
		if err != nil {
			return nil, err
		}
		args := []string{
			inv.Flag("i", assembly),
			inv.Flag("o", inv.InRun(assemblyFiles[CodeCDHitEst]("", "", ""))),
			inv.Flag("T", inv.ParamInt("threads")),
			inv.Flag("M", inv.ParamInt("memory_limit")),
			inv.Flag("c", inv.ParamString("seq_identity_threshold")),
			inv.Flag("n", inv.ParamInt("word_length")),
			inv.Flag("mask", inv.ParamString("mask")),
			inv.Flag("match", inv.ParamInt("match")),
			inv.Flag("mismatch", inv.ParamInt("mismatch")),
		}
		return []*Command{{
			Description: "Clustering the transcriptome",
			Binary:      "cd-hit-est",
			Args:        append(args, inv.Others()...),
		}}, nil
	},
}

var transcriptFilter = &Spec{
	Code:  CodeTranscriptFilter,
	Name:  "Transcript-Filter",
	URL:   "https://github.com/GGFHF/NGScloud",
	Env:   "transcript-filter",
	Style: DoubleDashSpace,
	Schema: conffile.Schema{
		identSection(append(append([]conffile.Key{experimentID()}, assemblyKeys()...),
			conffile.Key{
				Name:    "rsem_eval_dataset_id",
				Kind:    conffile.String,
				Checks:  []conffile.Check{conffile.HasPrefix("a dataset id starting with "+CodeRSEMEval+"-", CodeRSEMEval+"-"), conffile.SafeName},
				Comment: "RSEM-EVAL dataset identification",
			})...),
		paramSection("Transcript-Filter",
			intKey("minlen", "200", "transcript with length values less than this value will be filtered", conffile.AtLeast(0)),
			intKey("maxlen", "10000", "transcript with length values greater than this value will be filtered", conffile.AtLeast(0)),
			floatKey("fpkm", "1.0", "transcript with FPKM values less than this value will be filtered", conffile.AtLeast(0)),
			floatKey("tpm", "1.0", "transcript with TPM values less than this value will be filtered", conffile.AtLeast(0)),
			otherParameters("transcriptome", "score", "output", "minlen", "maxlen", "FPKM", "TPM"),
		),
	},
	Rules: []Rule{assemblyRule, orderedRule("Transcript-Filter parameters", "minlen", "maxlen")},
	Build: func(inv *Invocation) ([]*Command, error) {
		assembly, err := inv.Assembly()
		if err != nil {
			return nil, err
		}
		score := path.Join(inv.Layout.ResultDatasetDir(inv.Ident("experiment_id"), inv.Ident("rsem_eval_dataset_id")), "rsem-eval.isoforms.results")
		args := []string{
			inv.Flag("transcriptome", assembly),
			inv.Flag("score", score),
			inv.Flag("output", inv.InRun(assemblyFiles[CodeTranscriptFilter]("", "", ""))),
			inv.Flag("minlen", inv.ParamInt("minlen")),
			inv.Flag("maxlen", inv.ParamInt("maxlen")),
			inv.Flag("FPKM", inv.ParamString("fpkm")),
			inv.Flag("TPM", inv.ParamString("tpm")),
		}
		return []*Command{{
			Description: "Filtering the transcriptome",
			Binary:      "transcript-filter.py",
			Args:        append(args, inv.Others()...),
		}}, nil
	},
}
