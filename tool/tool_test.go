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
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/GGFHF/ngscloud/conffile"
	. "github.com/smartystreets/goconvey/convey"
)

var testLayout = Layout{
	AppDir:       "/apps",
	MinicondaDir: "/apps/Miniconda3",
	ReadDir:      "/reads",
	ReferenceDir: "/references",
	DatabaseDir:  "/databases",
	ResultDir:    "/results",
}

// testIdent has a valid value for every identification and library key any
// tool declares.
func testIdent() map[string]string {
	return map[string]string{
		"experiment_id":        "exp001",
		"read_dataset_id":      "SRR0001",
		"reference_dataset_id": "GRCh38",
		"reference_file":       "genome.fa",
		"gtf_file":             "NONE",
		"assembly_dataset_id":  "trinity-170101-235959",
		"assembly_type":        "NONE",
		"rsem_eval_dataset_id": "rsem-eval-170102-101010",
		"format":               "FASTQ",
		"read_type":            "PE",
		"read_file_1_list":     "a_1.fastq,b_1.fastq",
		"read_file_2_list":     "a_2.fastq,b_2.fastq",
	}
}

// writeAndCheck creates a config file for the spec and validates it.
func writeAndCheck(t *testing.T, s *Spec, ident map[string]string, edit func(set conffile.OptionSet)) (*conffile.Options, []string) {
	path := filepath.Join(t.TempDir(), s.ConfigBasename())
	if err := s.Schema.Write(path, s.Header(), ident); err != nil {
		t.Fatal(err)
	}
	set, err := conffile.Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if edit != nil {
		edit(set)
	}
	return s.Check(set)
}

func TestRegistry(t *testing.T) {
	Convey("Every tool is registered once under its code", t, func() {
		So(Codes(), ShouldResemble, []string{
			"bowtie2", "busco", "cd-hit-est", "fastqc", "gmap", "insilico_read_normalization", "kallisto",
			"quast", "rsem-eval", "soapdenovotrans", "star", "transabyss", "transcript-filter", "transrate",
			"trimmomatic", "trinity",
		})
		for _, s := range All() {
			So(s.Name, ShouldNotBeEmpty)
			So(s.Env, ShouldNotBeEmpty)
			So(s.Build, ShouldNotBeNil)
			So(s.Schema[0].Name, ShouldEqual, IdentSection)
		}

		_, err := Get("nope")
		So(err, ShouldNotBeNil)
		So(err.Error(), ShouldContainSubstring, ErrUnknownTool)
	})

	Convey("Dataset ids map back to the tool that made them", t, func() {
		So(SoftwareOf("trinity-170101-235959"), ShouldEqual, CodeTrinity)
		So(SoftwareOf("cd-hit-est-170101-235959"), ShouldEqual, CodeCDHitEst)
		So(SoftwareOf("transcript-filter-170101-235959"), ShouldEqual, CodeTranscriptFilter)
		So(SoftwareOf("transrate-170101-235959"), ShouldEqual, CodeTransrate)
		So(SoftwareOf("SRR0001"), ShouldBeEmpty)

		at := time.Date(2017, 1, 1, 23, 59, 59, 0, time.UTC)
		So(RunID(CodeTrinity, at), ShouldEqual, "trinity-170101-235959")
		So(testLayout.RunDir("exp001", CodeTrinity, at), ShouldEqual, "/results/exp001/trinity-170101-235959")
	})

	Convey("The assembly type decision table is enforced", t, func() {
		So(AssemblerCodes(), ShouldResemble, []string{"cd-hit-est", "soapdenovotrans", "transabyss", "transcript-filter", "trinity"})
		So(AssemblyTypeAllowed(CodeSOAPdenovoTrans, AssemblyContigs), ShouldBeTrue)
		So(AssemblyTypeAllowed(CodeSOAPdenovoTrans, AssemblyScaffolds), ShouldBeTrue)
		So(AssemblyTypeAllowed(CodeSOAPdenovoTrans, AssemblyNone), ShouldBeFalse)
		So(AssemblyTypeAllowed(CodeTrinity, AssemblyNone), ShouldBeTrue)
		So(AssemblyTypeAllowed(CodeTrinity, AssemblyContigs), ShouldBeFalse)
		So(AssemblyTypeAllowed(CodeFastQC, AssemblyNone), ShouldBeFalse)

		p, err := testLayout.AssemblyPath("exp001", "soapdenovotrans-170101-235959", AssemblyScaffolds)
		So(err, ShouldBeNil)
		So(p, ShouldEqual, "/results/exp001/soapdenovotrans-170101-235959/exp001-soapdenovotrans-170101-235959.scafSeq")
		p, err = testLayout.AssemblyPath("exp001", "trinity-170101-235959", AssemblyNone)
		So(err, ShouldBeNil)
		So(p, ShouldEqual, "/results/exp001/trinity-170101-235959/Trinity.fasta")
		_, err = testLayout.AssemblyPath("exp001", "fastqc-170101-235959", AssemblyNone)
		So(err, ShouldNotBeNil)
	})
}

func TestRoundTrip(t *testing.T) {
	Convey("A freshly created config file of every tool validates and builds", t, func() {
		for _, s := range All() {
			opts, msgs := writeAndCheck(t, s, testIdent(), nil)
			So(msgs, ShouldBeEmpty)

			inv := &Invocation{Spec: s, Layout: testLayout, Options: opts, Cluster: "cluster1", RunDir: testLayout.RunDir("exp001", s.Code, time.Now())}
			cmds, err := s.Build(inv)
			So(err, ShouldBeNil)
			So(len(cmds), ShouldBeGreaterThan, 0)
			for _, cmd := range cmds {
				So(cmd.Binary, ShouldNotBeEmpty)
				So(cmd.Description, ShouldNotBeEmpty)
			}
		}
	})

	Convey("The header explains other_parameters", t, func() {
		s, err := Get(CodeCDHitEst)
		So(err, ShouldBeNil)
		header := strings.Join(s.Header(), "\n")
		So(header, ShouldContainSubstring, `In section "CD-HIT-EST parameters", the key "other_parameters"`)
		So(header, ShouldContainSubstring, "http://weizhong-lab.ucsd.edu/cd-hit/")
	})
}

func TestCDHitEst(t *testing.T) {
	s, err := Get(CodeCDHitEst)
	if err != nil {
		t.Fatal(err)
	}
	ident := map[string]string{"experiment_id": "exp001", "assembly_dataset_id": "trinity-170101-235959", "assembly_type": "NONE"}

	Convey("A created CD-HIT-EST config file derives the assembly software and validates", t, func() {
		path := filepath.Join(t.TempDir(), s.ConfigBasename())
		So(s.Schema.Write(path, s.Header(), ident), ShouldBeNil)
		set, err := conffile.Load(path)
		So(err, ShouldBeNil)

		for key, expected := range map[string]string{
			"experiment_id":       "exp001",
			"assembly_software":   "trinity",
			"assembly_dataset_id": "trinity-170101-235959",
			"assembly_type":       "NONE",
		} {
			v, found := set.Get(IdentSection, key)
			So(found, ShouldBeTrue)
			So(v, ShouldEqual, expected)
		}

		_, msgs := s.Check(set)
		So(msgs, ShouldBeEmpty)
	})

	Convey("CONTIGS is rejected for a Trinity assembly with exactly one error", t, func() {
		bad := map[string]string{"experiment_id": "exp001", "assembly_dataset_id": "trinity-170101-235959", "assembly_type": "CONTIGS"}
		_, msgs := writeAndCheck(t, s, bad, nil)
		So(len(msgs), ShouldEqual, 1)
		So(msgs[0], ShouldContainSubstring, "CONTIGS or SCAFFOLDS in SOAPdenovo-Trans")
	})

	Convey("other_parameters may not set flags the tool controls", t, func() {
		_, msgs := writeAndCheck(t, s, ident, func(set conffile.OptionSet) {
			set.Set(s.ParamSection(), OtherParameters, "--mismatch=5")
		})
		So(len(msgs), ShouldEqual, 1)
		So(msgs[0], ShouldContainSubstring, "not allowed")

		opts, msgs := writeAndCheck(t, s, ident, func(set conffile.OptionSet) {
			set.Set(s.ParamSection(), OtherParameters, "--some-unreserved-flag=3")
		})
		So(msgs, ShouldBeEmpty)

		inv := &Invocation{Spec: s, Layout: testLayout, Options: opts, RunDir: "/results/exp001/cd-hit-est-170101-235959"}
		cmds, err := s.Build(inv)
		So(err, ShouldBeNil)
		So(len(cmds), ShouldEqual, 1)
		So(cmds[0].Args, ShouldContain, "-i /results/exp001/trinity-170101-235959/Trinity.fasta")
		So(cmds[0].Args, ShouldContain, "-o /results/exp001/cd-hit-est-170101-235959/clustered-transcriptome.fasta")
		So(cmds[0].Args, ShouldContain, "-c 0.9")
		So(cmds[0].Args, ShouldContain, "-mismatch -2")
		So(cmds[0].Args[len(cmds[0].Args)-1], ShouldEqual, "-some-unreserved-flag 3")
	})

	Convey("Ids that would not be a single path component are rejected", t, func() {
		for _, id := range []string{"exp 001", "exp001;touch /tmp/x", "../exp001", "..", "$(id)"} {
			_, msgs := writeAndCheck(t, s, ident, func(set conffile.OptionSet) {
				set.Set(IdentSection, "experiment_id", id)
			})
			So(msgs, ShouldResemble, []string{`*** ERROR: the key "experiment_id" has to be a name made only of letters, digits, '_', '.' and '-'.`})
		}

		_, msgs := writeAndCheck(t, s, ident, func(set conffile.OptionSet) {
			set.Set(IdentSection, "assembly_dataset_id", "trinity-170101-235959 x")
		})
		So(len(msgs), ShouldBeGreaterThan, 0)
		So(msgs[0], ShouldContainSubstring, `the key "assembly_dataset_id" has to be a name made only of letters`)

		_, msgs = writeAndCheck(t, s, ident, func(set conffile.OptionSet) {
			set.Set(IdentSection, "experiment_id", "exp-001_b.2")
		})
		So(msgs, ShouldBeEmpty)
	})

	Convey("A dataset id that no assembler made is rejected", t, func() {
		_, msgs := writeAndCheck(t, s, ident, func(set conffile.OptionSet) {
			set.Set(IdentSection, "assembly_dataset_id", "fastqc-170101-235959")
		})
		So(len(msgs), ShouldBeGreaterThan, 0)
		So(msgs[0], ShouldContainSubstring, `the key "assembly_dataset_id" has to be a dataset id starting with`)
	})
}

func TestRules(t *testing.T) {
	Convey("Library rules check the read files against the read type", t, func() {
		s, _ := Get(CodeTrinity)
		_, msgs := writeAndCheck(t, s, testIdent(), func(set conffile.OptionSet) {
			set.Set(LibrarySection, "read_type", "SE")
		})
		So(msgs, ShouldResemble, []string{`*** ERROR: the key "read_file_2_list" has to be NONE when read_type is SE.`})

		_, msgs = writeAndCheck(t, s, testIdent(), func(set conffile.OptionSet) {
			set.Set(LibrarySection, "read_file_2_list", "a_2.fastq")
		})
		So(len(msgs), ShouldEqual, 1)
		So(msgs[0], ShouldContainSubstring, "as many files as read_file_1_list")

		opts, msgs := writeAndCheck(t, s, testIdent(), func(set conffile.OptionSet) {
			set.Set(LibrarySection, "read_type", "SE")
			set.Set(LibrarySection, "read_file_2_list", "NONE")
		})
		So(msgs, ShouldBeEmpty)
		inv := &Invocation{Spec: s, Layout: testLayout, Options: opts, RunDir: "/results/exp001/trinity-170101-235959"}
		cmds, err := s.Build(inv)
		So(err, ShouldBeNil)
		So(cmds[0].Args, ShouldContain, "--single /reads/exp001/SRR0001/a_1.fastq,/reads/exp001/SRR0001/b_1.fastq")
		So(cmds[0].After[0], ShouldEqual, "mv /results/exp001/trinity-170101-235959/trinity_out_dir.Trinity.fasta /results/exp001/trinity-170101-235959/Trinity.fasta")
	})

	Convey("Ordered keys must not be reversed", t, func() {
		s, _ := Get(CodeBowtie2)
		_, msgs := writeAndCheck(t, s, testIdent(), func(set conffile.OptionSet) {
			set.Set(s.ParamSection(), "min_insert", "900")
		})
		So(msgs, ShouldResemble, []string{`*** ERROR: the key "min_insert" has to be less than or equal to max_insert.`})
	})

	Convey("kallisto needs fragment sizes for single-end reads", t, func() {
		s, _ := Get(CodeKallisto)
		_, msgs := writeAndCheck(t, s, testIdent(), func(set conffile.OptionSet) {
			set.Set(LibrarySection, "read_type", "SE")
			set.Set(LibrarySection, "read_file_2_list", "NONE")
		})
		So(len(msgs), ShouldEqual, 2)
		So(msgs[0], ShouldContainSubstring, `"fragment_length" has to be a number when read_type is SE`)
	})

	Convey("Trimmomatic adapters must match the read type", t, func() {
		s, _ := Get(CodeTrimmomatic)
		_, msgs := writeAndCheck(t, s, testIdent(), func(set conffile.OptionSet) {
			set.Set(s.ParamSection(), "adapters", "TruSeq3-SE")
		})
		So(len(msgs), ShouldEqual, 1)
		So(msgs[0], ShouldContainSubstring, "adapter file for PE reads")

		opts, msgs := writeAndCheck(t, s, testIdent(), func(set conffile.OptionSet) {
			set.Set(s.ParamSection(), "adapters", "truseq3-pe-2")
		})
		So(msgs, ShouldBeEmpty)
		inv := &Invocation{Spec: s, Layout: testLayout, Options: opts, RunDir: "/results/exp001/trimmomatic-170101-235959"}
		cmds, err := s.Build(inv)
		So(err, ShouldBeNil)
		So(len(cmds), ShouldEqual, 2)
		So(cmds[0].Args[0], ShouldEqual, "PE")
		So(cmds[0].Args, ShouldContain, "/results/exp001/trimmomatic-170101-235959/a_1-paired.fastq")
		So(cmds[1].Args, ShouldContain, "ILLUMINACLIP:/apps/Miniconda3/envs/trimmomatic/share/trimmomatic/adapters/TruSeq3-PE-2.fa:2:30:10")
	})

	Convey("SOAPdenovo-Trans takes CONTIGS or SCAFFOLDS assemblies downstream", t, func() {
		s, _ := Get(CodeTransrate)
		ident := testIdent()
		ident["assembly_dataset_id"] = "soapdenovotrans-170101-235959"
		_, msgs := writeAndCheck(t, s, ident, nil)
		So(len(msgs), ShouldEqual, 1)

		ident["assembly_type"] = "SCAFFOLDS"
		_, msgs = writeAndCheck(t, s, ident, nil)
		So(msgs, ShouldBeEmpty)
	})
}

func TestParamStyle(t *testing.T) {
	Convey("Flags are spelled the way each tool expects", t, func() {
		So(DoubleDashSpace.Flag("out", "x"), ShouldEqual, "--out x")
		So(DoubleDashEquals.Flag("out", "x"), ShouldEqual, "--out=x")
		So(SingleDashSpace.Flag("o", "x"), ShouldEqual, "-o x")
		So(SingleDashSpace.Switch("force"), ShouldEqual, "-force")
		So(DoubleDashSpace.Flag("name", "a b"), ShouldEqual, "--name 'a b'")
		So(Quote("it's"), ShouldEqual, `'it'\''s'`)
		So(DoubleDashEquals.Param(conffile.Param{Name: "fast"}), ShouldEqual, "--fast")
	})

	Convey("The provisioning probe prints a return code", t, func() {
		s, _ := Get(CodeBUSCO)
		So(s.ProvisionedCmd(testLayout), ShouldEqual, "[ -d /apps/Miniconda3/envs/busco ] && echo RC=0 || echo RC=1")
	})
}
