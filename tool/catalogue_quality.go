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

// This file has the tools that assess reads and assemblies.

import (
	"path"

	"github.com/GGFHF/ngscloud/conffile"
)

func init() {
	register(busco, fastqc, quast, rsemEval, transrate)
}

var busco = &Spec{
	Code:  CodeBUSCO,
	Name:  "BUSCO",
	URL:   "http://busco.ezlab.org/",
	Env:   "busco",
	Style: DoubleDashSpace,
	Schema: conffile.Schema{
		identSection(append([]conffile.Key{experimentID()}, assemblyKeys()...)...),
		paramSection("BUSCO",
			threads("ncpu"),
			stringKey("lineage_data", "eukaryota_odb9", "name of the lineage dataset in the BUSCO database directory"),
			enumKey("mode", "tran", "geno (genome assemblies), tran (transcriptome assemblies) or prot (annotated gene sets)", "geno", "tran", "prot"),
			floatKey("evalue", "0.001", "e-value cutoff for BLAST searches", conffile.GreaterThan(0)),
			intKey("limit", "3", "how many candidate regions to consider", conffile.AtLeast(1)),
			orNone(conffile.Key{Name: "species", Kind: conffile.String, Comment: "name of existing Augustus species gene finding parameters or NONE"}),
			otherParameters("in", "out", "lineage_path", "mode", "cpu", "evalue", "limit", "species", "tmp_path", "force"),
		),
	},
	Rules: []Rule{assemblyRule},
	Build: func(inv *Invocation) ([]*Command, error) {
		assembly, err := inv.Assembly()
		if err != nil {
			return nil, err
		}
		args := []string{
			inv.Flag("in", assembly),
			inv.Flag("out", "busco"),
			inv.Flag("lineage_path", path.Join(inv.Layout.DatabaseDatasetDir("BUSCO"), inv.ParamString("lineage_data"))),
			inv.Flag("mode", inv.ParamString("mode")),
			inv.Flag("cpu", inv.ParamInt("ncpu")),
			inv.Flag("evalue", inv.ParamString("evalue")),
			inv.Flag("limit", inv.ParamInt("limit")),
		}
		if !inv.Param("species").None {
			args = append(args, inv.Flag("species", inv.ParamString("species")))
		}
		args = append(args, inv.Flag("tmp_path", inv.InRun("tmp")), inv.Switch("force"))
		return []*Command{{
			Description: "Assessing the transcriptome quality",
			Binary:      "run_BUSCO.py",
			Args:        append(args, inv.Others()...),
		}}, nil
	},
}

var fastqc = &Spec{
	Code:  CodeFastQC,
	Name:  "FastQC",
	URL:   "http://www.bioinformatics.babraham.ac.uk/projects/fastqc/",
	Env:   "fastqc",
	Style: DoubleDashSpace,
	Schema: conffile.Schema{
		identSection(experimentID(), readDatasetID()),
		librarySection(readFiles(1)),
		paramSection("FastQC",
			threads("threads"),
			otherParameters("outdir", "threads"),
		),
	},
	Build: func(inv *Invocation) ([]*Command, error) {
		var cmds []*Command
		for _, file := range inv.ReadFiles(1) {
			args := []string{
				inv.Flag("threads", inv.ParamInt("threads")),
				inv.Flag("outdir", inv.RunDir),
			}
			args = append(args, inv.Others()...)
			cmds = append(cmds, &Command{
				Description: "Analysing the quality of " + path.Base(file),
				Binary:      "fastqc",
				Args:        append(args, Quote(file)),
			})
		}
		return cmds, nil
	},
}

var quast = &Spec{
	Code:  CodeQUAST,
	Name:  "QUAST",
	URL:   "http://quast.sourceforge.net/",
	Env:   "quast",
	Style: DoubleDashSpace,
	Schema: conffile.Schema{
		identSection(append([]conffile.Key{experimentID(), referenceDatasetID(), referenceFile()}, assemblyKeys()...)...),
		paramSection("QUAST",
			threads("threads"),
			intKey("min_contig", "500", "lower threshold for contig length", conffile.AtLeast(1)),
			otherParameters("output-dir", "R", "threads", "min-contig"),
		),
	},
	Rules: []Rule{assemblyRule},
	Build: func(inv *Invocation) ([]*Command, error) {
		assembly, err := inv.Assembly()
		if err != nil {
			return nil, err
		}
		args := []string{
			inv.Flag("threads", inv.ParamInt("threads")),
			inv.Flag("min-contig", inv.ParamInt("min_contig")),
			"-R " + Quote(inv.Reference()),
			inv.Flag("output-dir", inv.RunDir),
		}
		args = append(args, inv.Others()...)
		return []*Command{{
			Description: "Assessing the transcriptome quality",
			Binary:      "quast.py",
			Args:        append(args, Quote(assembly)),
		}}, nil
	},
}

var rsemEval = &Spec{
	Code:  CodeRSEMEval,
	Name:  "RSEM-EVAL",
	URL:   "http://deweylab.biostat.wisc.edu/detonate/",
	Env:   "detonate",
	Style: DoubleDashSpace,
	Schema: conffile.Schema{
		identSection(append([]conffile.Key{experimentID(), readDatasetID()}, assemblyKeys()...)...),
		librarySection(pairedLibraryKeys()...),
		paramSection("RSEM-EVAL",
			threads("threads"),
			intKey("read_length", "100", "average read length", conffile.AtLeast(1)),
			orNone(floatKey("fragment_length_mean", "", "mean fragment length, required for single-end reads", conffile.GreaterThan(0))),
			orNone(floatKey("fragment_length_sd", "", "fragment length standard deviation", conffile.GreaterThan(0))),
			otherParameters("p", "num-threads", "paired-end", "fragment-length-mean", "fragment-length-sd"),
		),
	},
	Rules: []Rule{assemblyRule, libraryRule, requiredForSE("RSEM-EVAL parameters", "fragment_length_mean")},
	Build: func(inv *Invocation) ([]*Command, error) {
		assembly, err := inv.Assembly()
		if err != nil {
			return nil, err
		}
		args := []string{"-p " + inv.ParamInt("threads")}
		if inv.Paired() {
			args = append(args, inv.Switch("paired-end"))
		}
		for _, key := range []string{"fragment_length_mean", "fragment_length_sd"} {
			if !inv.Param(key).None {
				args = append(args, inv.Flag(dashed(key), inv.ParamString(key)))
			}
		}
		args = append(args, inv.Others()...)
		args = append(args, Quote(inv.JoinedReadFiles(1)))
		if inv.Paired() {
			args = append(args, Quote(inv.JoinedReadFiles(2)))
		}
		args = append(args, Quote(assembly), inv.InRun("rsem-eval"), inv.ParamInt("read_length"))
		return []*Command{{
			Description: "Calculating the transcriptome score",
			Binary:      "rsem-eval-calculate-score",
			Args:        args,
		}}, nil
	},
}

var transrate = &Spec{
	Code:  CodeTransrate,
	Name:  "Transrate",
	URL:   "http://hibberdlab.com/transrate/",
	Env:   "transrate",
	Style: DoubleDashEquals,
	Schema: conffile.Schema{
		identSection(append([]conffile.Key{experimentID(), readDatasetID()}, assemblyKeys()...)...),
		librarySection(readType(ReadTypePE), readFiles(1), readFiles(2)),
		paramSection("Transrate",
			threads("threads"),
			otherParameters("assembly", "left", "right", "reference", "threads", "output"),
		),
	},
	Rules: []Rule{assemblyRule, libraryRule},
	Build: func(inv *Invocation) ([]*Command, error) {
		assembly, err := inv.Assembly()
		if err != nil {
			return nil, err
		}
		args := []string{
			inv.Flag("assembly", assembly),
			inv.Flag("left", inv.JoinedReadFiles(1)),
			inv.Flag("right", inv.JoinedReadFiles(2)),
			inv.Flag("threads", inv.ParamInt("threads")),
			inv.Flag("output", inv.InRun("transrate")),
		}
		return []*Command{{
			Description: "Assessing the transcriptome quality",
			Binary:      "transrate",
			Args:        append(args, inv.Others()...),
		}}, nil
	},
}
