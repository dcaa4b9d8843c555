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

// This file has the tools that preprocess, map or quantify reads.

import (
	"path"
	"strings"

	"github.com/GGFHF/ngscloud/conffile"
)

func init() {
	register(trimmomatic, insilico, star, bowtie2, gmap, kallisto)
}

// dashed turns a config key name into a flag name.
func dashed(key string) string {
	return strings.Replace(key, "_", "-", -1)
}

// withTag inserts a tag before the extension of a file name, eg.
// reads_1.fastq -> reads_1-paired.fastq.
func withTag(file, tag string) string {
	base := path.Base(file)
	ext := path.Ext(base)
	return strings.TrimSuffix(base, ext) + "-" + tag + ext
}

var trimmomaticAdapters = []string{conffile.None, "NexteraPE-PE", "TruSeq2-PE", "TruSeq2-SE", "TruSeq3-PE", "TruSeq3-PE-2", "TruSeq3-SE"}

var trimmomatic = &Spec{
	Code:  CodeTrimmomatic,
	Name:  "Trimmomatic",
	URL:   "http://www.usadellab.org/cms/?page=trimmomatic",
	Env:   "trimmomatic",
	Style: SingleDashSpace,
	Schema: conffile.Schema{
		identSection(experimentID(), readDatasetID()),
		librarySection(pairedLibraryKeys()...),
		paramSection("Trimmomatic",
			threads("threads"),
			enumKey("phred", "33", "FASTQ quality encoding: 33 or 64", "33", "64"),
			enumKey("adapters", conffile.None, "adapter file: "+strings.Join(trimmomaticAdapters, " or "), trimmomaticAdapters...),
			intKey("leading", "3", "quality below which leading bases are removed", conffile.AtLeast(0)),
			intKey("trailing", "3", "quality below which trailing bases are removed", conffile.AtLeast(0)),
			intKey("sliding_window_size", "4", "number of bases to average across", conffile.AtLeast(1)),
			intKey("sliding_window_quality", "15", "average quality required", conffile.AtLeast(1)),
			intKey("minlen", "36", "minimum length of reads to be kept", conffile.AtLeast(1)),
			otherParameters("threads", "phred33", "phred64", "trimlog", "summary"),
		),
	},
	Rules: []Rule{libraryRule, adaptersRule},
	Build: func(inv *Invocation) ([]*Command, error) {
		steps := []string{
			"LEADING:" + inv.ParamInt("leading"),
			"TRAILING:" + inv.ParamInt("trailing"),
			"SLIDINGWINDOW:" + inv.ParamInt("sliding_window_size") + ":" + inv.ParamInt("sliding_window_quality"),
			"MINLEN:" + inv.ParamInt("minlen"),
		}
		if adapters := inv.ParamString("adapters"); adapters != conffile.None {
			file := path.Join(inv.Layout.EnvDir(inv.Spec.Env), "share", "trimmomatic", "adapters", adapters+".fa")
			steps = append([]string{"ILLUMINACLIP:" + file + ":2:30:10"}, steps...)
		}

		first, second := inv.ReadFiles(1), inv.ReadFiles(2)
		cmds := make([]*Command, 0, len(first))
		for i, file := range first {
			mode := "SE"
			if inv.Paired() {
				mode = "PE"
			}
			args := []string{
				mode,
				inv.Flag("threads", inv.ParamInt("threads")),
				inv.Switch("phred" + inv.ParamString("phred")),
			}
			args = append(args, inv.Others()...)
			if inv.Paired() {
				args = append(args, Quote(file), Quote(second[i]),
					inv.InRun(withTag(file, "paired")), inv.InRun(withTag(file, "unpaired")),
					inv.InRun(withTag(second[i], "paired")), inv.InRun(withTag(second[i], "unpaired")))
			} else {
				args = append(args, Quote(file), inv.InRun(withTag(file, "trimmed")))
			}
			cmds = append(cmds, &Command{
				Description: "Trimming " + path.Base(file),
				Binary:      "trimmomatic",
				Args:        append(args, steps...),
			})
		}
		return cmds, nil
	},
}

// adaptersRule checks that an adapter file made for one library type isn't
// used with the other.
func adaptersRule(o *conffile.Options) []error {
	rt, okr := o.Value(LibrarySection, "read_type")
	adapters, oka := o.Value("Trimmomatic parameters", "adapters")
	if !okr || !oka || adapters.None {
		return nil
	}
	if strings.Contains(adapters.Raw, "-"+ReadTypePE) != (rt.Raw == ReadTypePE) {
		return []error{ruleError("adapters", "has to be an adapter file for "+rt.Raw+" reads")}
	}
	return nil
}

var insilico = &Spec{
	Code:  CodeInsilico,
	Name:  "insilico_read_normalization",
	URL:   "https://github.com/trinityrnaseq/trinityrnaseq/wiki/Trinity-Insilico-Normalization",
	Env:   "trinity",
	Style: DoubleDashSpace,
	Schema: conffile.Schema{
		identSection(experimentID(), readDatasetID()),
		librarySection(append([]conffile.Key{readFormat()}, pairedLibraryKeys()...)...),
		paramSection("insilico_read_normalization",
			threads("threads"),
			intKey("max_memory", "10", "maximum memory in GiB", conffile.AtLeast(1)),
			intKey("kmer", "25", "k-mer size", conffile.Between(1, 32)),
			intKey("max_cov", "30", "targeted maximum coverage for reads", conffile.AtLeast(1)),
			otherParameters("seqType", "JM", "max_cov", "CPU", "KMER_SIZE", "output", "left", "right", "single", "pairs_together", "PARALLEL_STATS"),
		),
	},
	Rules: []Rule{libraryRule},
	Build: func(inv *Invocation) ([]*Command, error) {
		args := []string{
			inv.Flag("seqType", seqType(inv)),
			inv.Flag("JM", inv.ParamInt("max_memory")+"G"),
			inv.Flag("max_cov", inv.ParamInt("max_cov")),
			inv.Flag("CPU", inv.ParamInt("threads")),
			inv.Flag("KMER_SIZE", inv.ParamInt("kmer")),
			inv.Flag("output", inv.RunDir),
		}
		args = append(args, trinityReads(inv)...)
		if inv.Paired() {
			args = append(args, inv.Switch("pairs_together"), inv.Switch("PARALLEL_STATS"))
		}
		return []*Command{{
			Description: "Normalizing the reads",
			Binary:      "insilico_read_normalization.pl",
			Args:        append(args, inv.Others()...),
		}}, nil
	},
}

var starSAMTypes = []string{"BAM_SortedByCoordinate", "BAM_Unsorted", "SAM"}

var star = &Spec{
	Code:  CodeSTAR,
	Name:  "STAR",
	URL:   "https://github.com/alexdobin/STAR",
	Env:   "star",
	Style: DoubleDashSpace,
	Schema: conffile.Schema{
		identSection(experimentID(), referenceDatasetID(), referenceFile(),
			orNone(conffile.Key{Name: "gtf_file", Kind: conffile.Path, Comment: "annotation file name in the reference dataset or NONE"}),
			readDatasetID()),
		librarySection(pairedLibraryKeys()...),
		paramSection("STAR",
			threads("threads"),
			intKey("sjdb_overhang", "100", "length of the donor/acceptor sequence on each side of the junctions", conffile.AtLeast(1)),
			enumKey("out_sam_type", starSAMTypes[0], "type of output: "+strings.Join(starSAMTypes, " or "), starSAMTypes...),
			otherParameters("runThreadN", "runMode", "genomeDir", "genomeFastaFiles", "sjdbGTFfile", "sjdbOverhang", "readFilesIn", "outFileNamePrefix", "outSAMtype"),
		),
	},
	Rules: []Rule{libraryRule},
	Build: func(inv *Invocation) ([]*Command, error) {
		index := inv.InRun("genome_index")
		indexArgs := []string{
			inv.Flag("runMode", "genomeGenerate"),
			inv.Flag("runThreadN", inv.ParamInt("threads")),
			inv.Flag("genomeDir", index),
			inv.Flag("genomeFastaFiles", inv.Reference()),
		}
		if gtf := inv.Ident("gtf_file"); gtf != conffile.None {
			indexArgs = append(indexArgs,
				inv.Flag("sjdbGTFfile", path.Join(inv.Layout.ReferenceDatasetDir(inv.Ident("reference_dataset_id")), gtf)),
				inv.Flag("sjdbOverhang", inv.ParamInt("sjdb_overhang")))
		}

		reads := "--readFilesIn " + Quote(inv.JoinedReadFiles(1))
		if inv.Paired() {
			reads += " " + Quote(inv.JoinedReadFiles(2))
		}
		args := []string{
			inv.Flag("runThreadN", inv.ParamInt("threads")),
			inv.Flag("genomeDir", index),
			reads,
			inv.Flag("outFileNamePrefix", inv.RunDir+"/"),
			"--outSAMtype " + strings.Replace(inv.ParamString("out_sam_type"), "_", " ", 1),
		}
		return []*Command{
			{
				Description: "Building the genome index",
				Setup:       []string{"mkdir -p " + index},
				Binary:      "STAR",
				Args:        indexArgs,
			},
			{
				Description: "Mapping the reads",
				Binary:      "STAR",
				Args:        append(args, inv.Others()...),
			},
		}, nil
	},
}

var bowtie2Presets = []string{"very-fast", "fast", "sensitive", "very-sensitive"}

var bowtie2 = &Spec{
	Code:  CodeBowtie2,
	Name:  "Bowtie2",
	URL:   "http://bowtie-bio.sourceforge.net/bowtie2/",
	Env:   "bowtie2",
	Style: DoubleDashSpace,
	Schema: conffile.Schema{
		identSection(experimentID(), referenceDatasetID(), referenceFile(), readDatasetID()),
		librarySection(pairedLibraryKeys()...),
		paramSection("Bowtie2",
			threads("threads"),
			enumKey("preset", "sensitive", "end-to-end preset: "+strings.Join(bowtie2Presets, " or "), bowtie2Presets...),
			intKey("min_insert", "0", "minimum fragment length for valid paired-end alignments", conffile.AtLeast(0)),
			intKey("max_insert", "500", "maximum fragment length for valid paired-end alignments", conffile.AtLeast(1)),
			otherParameters(append([]string{"threads", "x", "1", "2", "U", "S", "minins", "maxins"}, bowtie2Presets...)...),
		),
	},
	Rules: []Rule{libraryRule, orderedRule("Bowtie2 parameters", "min_insert", "max_insert")},
	Build: func(inv *Invocation) ([]*Command, error) {
		index := inv.InRun("reference_index/reference")
		args := []string{
			inv.Flag("threads", inv.ParamInt("threads")),
			"-x " + index,
		}
		if inv.Paired() {
			args = append(args, "-1 "+Quote(inv.JoinedReadFiles(1)), "-2 "+Quote(inv.JoinedReadFiles(2)))
		} else {
			args = append(args, "-U "+Quote(inv.JoinedReadFiles(1)))
		}
		args = append(args,
			inv.Flag("minins", inv.ParamInt("min_insert")),
			inv.Flag("maxins", inv.ParamInt("max_insert")),
			inv.Switch(inv.ParamString("preset")),
			"-S "+inv.InRun("alignment.sam"),
		)
		return []*Command{
			{
				Description: "Building the reference index",
				Setup:       []string{"mkdir -p " + path.Dir(index)},
				Binary:      "bowtie2-build",
				Args:        []string{inv.Flag("threads", inv.ParamInt("threads")), Quote(inv.Reference()), index},
			},
			{
				Description: "Aligning the reads",
				Binary:      "bowtie2",
				Args:        append(args, inv.Others()...),
			},
		}, nil
	},
}

var gmapFormats = []string{"COMPRESS", "SUMMARY", "ALIGN", "PLS", "GFF3_GENE", "SPLICESITES", "INTRONS", "MAP_EXONS", "MAP_RANGES", "COORDS"}

var gmap = &Spec{
	Code:  CodeGMAP,
	Name:  "GMAP",
	URL:   "http://research-pub.gene.com/gmap/",
	Env:   "gmap",
	Style: DoubleDashEquals,
	Schema: conffile.Schema{
		identSection(append([]conffile.Key{experimentID(), referenceDatasetID(), referenceFile()}, assemblyKeys()...)...),
		paramSection("GMAP",
			threads("threads"),
			orNone(intKey("kmer", "", "k-mer size of the genome index or NONE", conffile.Between(1, 16))),
			orNone(intKey("sampling", "", "sampling to use in the genome index or NONE", conffile.AtLeast(1))),
			intKey("input_buffer_size", "1000", "size of the input buffer", conffile.AtLeast(1)),
			intKey("output_buffer_size", "1000", "size of the output buffer", conffile.AtLeast(1)),
			enumKey("prunelevel", "0", "pruning level: 0 (no pruning), 1 (poor seqs), 2 (repetitive seqs) or 3 (both)", "0", "1", "2", "3"),
			enumKey("format", "COMPRESS", "output format: "+strings.Join(gmapFormats, " or "), gmapFormats...),
			otherParameters("dir", "db", "nthreads", "kmer", "sampling", "input-buffer-size", "output-buffer-size", "prunelevel", "compress", "summary", "align", "format"),
		),
	},
	Rules: []Rule{assemblyRule},
	Build: func(inv *Invocation) ([]*Command, error) {
		assembly, err := inv.Assembly()
		if err != nil {
			return nil, err
		}
		dir, db := inv.InRun("gmap_database"), "gmap_database"
		buildArgs := []string{inv.Flag("dir", dir), inv.Flag("db", db)}
		args := []string{inv.Flag("dir", dir), inv.Flag("db", db), inv.Flag("nthreads", inv.ParamInt("threads"))}
		if !inv.Param("kmer").None {
			buildArgs = append(buildArgs, inv.Flag("kmer", inv.ParamInt("kmer")))
			args = append(args, inv.Flag("kmer", inv.ParamInt("kmer")))
		}
		if !inv.Param("sampling").None {
			args = append(args, inv.Flag("sampling", inv.ParamInt("sampling")))
		}
		format := inv.ParamString("format")
		args = append(args,
			inv.Flag("input-buffer-size", inv.ParamInt("input_buffer_size")),
			inv.Flag("output-buffer-size", inv.ParamInt("output_buffer_size")),
			inv.Flag("prunelevel", inv.ParamString("prunelevel")),
		)
		switch format {
		case "COMPRESS", "SUMMARY", "ALIGN":
			args = append(args, inv.Switch(strings.ToLower(format)))
		default:
			args = append(args, inv.Flag("format", strings.ToLower(format)))
		}
		args = append(args, inv.Others()...)
		return []*Command{
			{
				Description: "Building the genome database",
				Binary:      "gmap_build",
				Args:        append(buildArgs, Quote(inv.Reference())),
			},
			{
				Description: "Mapping the transcriptome",
				Binary:      "gmap",
				Args:        append(args, Quote(assembly)),
				Stdout:      inv.InRun("gmap_output_" + strings.ToLower(format) + ".txt"),
			},
		}, nil
	},
}

var kallisto = &Spec{
	Code:  CodeKallisto,
	Name:  "kallisto",
	URL:   "https://pachterlab.github.io/kallisto/",
	Env:   "kallisto",
	Style: DoubleDashEquals,
	Schema: conffile.Schema{
		identSection(append([]conffile.Key{experimentID(), readDatasetID()}, assemblyKeys()...)...),
		librarySection(pairedLibraryKeys()...),
		paramSection("kallisto",
			threads("threads"),
			intKey("bootstrap_samples", "100", "number of bootstrap samples", conffile.AtLeast(0)),
			orNone(floatKey("fragment_length", "", "estimated average fragment length, required for single-end reads", conffile.GreaterThan(0))),
			orNone(floatKey("fragment_sd", "", "estimated standard deviation of fragment length, required for single-end reads", conffile.GreaterThan(0))),
			otherParameters("index", "output-dir", "threads", "bootstrap-samples", "single", "fragment-length", "sd"),
		),
	},
	Rules: []Rule{assemblyRule, libraryRule, requiredForSE("kallisto parameters", "fragment_length", "fragment_sd")},
	Build: func(inv *Invocation) ([]*Command, error) {
		assembly, err := inv.Assembly()
		if err != nil {
			return nil, err
		}
		index := inv.InRun("transcriptome.idx")
		args := []string{
			"quant",
			inv.Flag("index", index),
			inv.Flag("output-dir", inv.RunDir),
			inv.Flag("threads", inv.ParamInt("threads")),
			inv.Flag("bootstrap-samples", inv.ParamInt("bootstrap_samples")),
		}
		if !inv.Paired() {
			args = append(args, inv.Switch("single"),
				inv.Flag("fragment-length", inv.ParamString("fragment_length")),
				inv.Flag("sd", inv.ParamString("fragment_sd")))
		}
		args = append(args, inv.Others()...)
		first, second := inv.ReadFiles(1), inv.ReadFiles(2)
		for i, file := range first {
			args = append(args, Quote(file))
			if inv.Paired() {
				args = append(args, Quote(second[i]))
			}
		}
		return []*Command{
			{
				Description: "Indexing the transcriptome",
				Binary:      "kallisto",
				Args:        []string{"index", inv.Flag("index", index), Quote(assembly)},
			},
			{
				Description: "Quantifying the transcripts",
				Binary:      "kallisto",
				Args:        args,
			},
		}, nil
	},
}
