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

package script

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/GGFHF/ngscloud/conffile"
	"github.com/GGFHF/ngscloud/tool"
	. "github.com/smartystreets/goconvey/convey"
)

var testLayout = tool.Layout{
	AppDir:       "/apps",
	MinicondaDir: "/apps/Miniconda3",
	ReadDir:      "/reads",
	ReferenceDir: "/references",
	DatabaseDir:  "/databases",
	ResultDir:    "/results",
}

// invocation creates and validates a config file for the tool, returning an
// Invocation for it.
func invocation(t *testing.T, code string, ident map[string]string, edit func(set conffile.OptionSet)) *tool.Invocation {
	s, err := tool.Get(code)
	if err != nil {
		t.Fatal(err)
	}
	path := filepath.Join(t.TempDir(), s.ConfigBasename())
	if err = s.Schema.Write(path, s.Header(), ident); err != nil {
		t.Fatal(err)
	}
	set, err := conffile.Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if edit != nil {
		edit(set)
	}
	opts, msgs := s.Check(set)
	if len(msgs) > 0 {
		t.Fatal(msgs)
	}
	return &tool.Invocation{Spec: s, Layout: testLayout, Options: opts, Cluster: "cluster1", RunDir: "/results/exp001/" + code + "-170101-235959"}
}

func TestScript(t *testing.T) {
	ident := map[string]string{"experiment_id": "exp001", "assembly_dataset_id": "trinity-170101-235959", "assembly_type": "NONE"}

	Convey("Given a CD-HIT-EST process", t, func() {
		inv := invocation(t, tool.CodeCDHitEst, ident, func(set conffile.OptionSet) {
			set.Set("CD-HIT-EST parameters", tool.OtherParameters, "--g=1; --fast")
		})
		p, err := New(inv, "someone@example.com")
		So(err, ShouldBeNil)

		content, err := p.Script()
		So(err, ShouldBeNil)
		text := string(content)

		Convey("The script activates the environment and has every function", func() {
			So(text, ShouldStartWith, "#!/bin/bash\n")
			So(text, ShouldContainSubstring, "export PATH=/apps/Miniconda3/bin:$PATH\nsource activate cd-hit\n")
			So(text, ShouldContainSubstring, "RUN_DIR=/results/exp001/cd-hit-est-170101-235959\n")
			So(text, ShouldContainSubstring, "RECIPIENT=someone@example.com\n")
			for _, fn := range []string{"init", "run_cd_hit_est_process", "end", "manage_error", "calculate_duration"} {
				So(text, ShouldContainSubstring, "function "+fn+"\n{\n")
			}
			So(text, ShouldEndWith, "init\nrun_cd_hit_est_process\nend\n")
		})

		Convey("The tool runs timed with its native flags", func() {
			So(text, ShouldContainSubstring, `    /usr/bin/time \
        --format="$TIME_FORMAT" \
        cd-hit-est \
            -i /results/exp001/trinity-170101-235959/Trinity.fasta \
            -o /results/exp001/cd-hit-est-170101-235959/clustered-transcriptome.fasta \
            -T 0 \
            -M 800 \
            -c 0.9 \
            -n 10 \
            -mask NX \
            -match 2 \
            -mismatch -2 \
            -g 1 \
            -fast
    RC=$?
    if [ $RC -ne 0 ]; then manage_error cd-hit-est $RC; fi
`)
		})

		Convey("Success exits 0, failure exits 3, and durations are HHH:MM:SS", func() {
			So(text, ShouldContainSubstring, "touch \"$SCRIPT_STATUS_OK\"\n    exit 0\n")
			So(text, ShouldContainSubstring, "touch \"$SCRIPT_STATUS_WRONG\"\n    exit 3\n")
			So(text, ShouldContainSubstring, "`printf \"%03d:%02d:%02d\\n\" $HH $MM $SS`")
			So(strings.Count(text, "send_mail \"CD-HIT-EST process ended"), ShouldEqual, 2)
		})

		Convey("Rendering is deterministic", func() {
			again, err := p.Script()
			So(err, ShouldBeNil)
			So(string(again), ShouldEqual, text)
		})

		Convey("The starter redirects everything to the log", func() {
			starter, err := p.Starter()
			So(err, ShouldBeNil)
			So(string(starter), ShouldEndWith, "\n/results/exp001/cd-hit-est-170101-235959/cd-hit-est-process.sh &>/results/exp001/cd-hit-est-170101-235959/cd-hit-est-process.log\n")
		})

		Convey("Scripts are written executable to a local directory", func() {
			dir := filepath.Join(t.TempDir(), "scripts")
			scriptPath, starterPath, err := p.WriteScripts(dir)
			So(err, ShouldBeNil)
			So(scriptPath, ShouldEqual, filepath.Join(dir, "cd-hit-est-process.sh"))
			So(starterPath, ShouldEqual, filepath.Join(dir, "cd-hit-est-process-starter.sh"))
			info, err := os.Stat(scriptPath)
			So(err, ShouldBeNil)
			So(info.Mode().Perm()&0100, ShouldNotEqual, 0)
			written, err := os.ReadFile(scriptPath)
			So(err, ShouldBeNil)
			So(string(written), ShouldEqual, text)
		})

		Convey("A starter can be written knowing only the tool and run directory", func() {
			bare := &Process{Spec: p.Spec, RunDir: p.RunDir}
			dir := t.TempDir()
			starterPath, err := bare.WriteStarter(dir)
			So(err, ShouldBeNil)
			written, err := os.ReadFile(starterPath)
			So(err, ShouldBeNil)
			starter, err := p.Starter()
			So(err, ShouldBeNil)
			So(string(written), ShouldEqual, string(starter))
		})

		Convey("A run directory with blanks or shell characters is quoted", func() {
			odd := *p
			odd.RunDir = "/data results/exp;001/cd-hit-est-170101-235959"
			content, err := odd.Script()
			So(err, ShouldBeNil)
			So(string(content), ShouldContainSubstring, "RUN_DIR='/data results/exp;001/cd-hit-est-170101-235959'\n")
			So(string(content), ShouldContainSubstring, "mkdir --parents \"$RUN_DIR\"\n")
			So(string(content), ShouldContainSubstring, "    cd \"$RUN_DIR\"\n")

			starter, err := odd.Starter()
			So(err, ShouldBeNil)
			So(string(starter), ShouldEndWith, "\n'/data results/exp;001/cd-hit-est-170101-235959/cd-hit-est-process.sh' &>'/data results/exp;001/cd-hit-est-170101-235959/cd-hit-est-process.log'\n")
		})

		Convey("Writing into an unusable directory fails", func() {
			file := filepath.Join(t.TempDir(), "file")
			So(os.WriteFile(file, []byte("x"), 0644), ShouldBeNil)
			_, _, err := p.WriteScripts(filepath.Join(file, "sub"))
			So(err, ShouldNotBeNil)
		})
	})

	Convey("Multi-command tools get setup, redirection and after lines checked", t, func() {
		gmapIdent := map[string]string{
			"experiment_id":        "exp001",
			"reference_dataset_id": "GRCh38",
			"reference_file":       "genome.fa",
			"assembly_dataset_id":  "trinity-170101-235959",
			"assembly_type":        "NONE",
		}
		p, err := New(invocation(t, tool.CodeGMAP, gmapIdent, nil), "")
		So(err, ShouldBeNil)
		content, err := p.Script()
		So(err, ShouldBeNil)
		text := string(content)
		So(text, ShouldContainSubstring, "RECIPIENT=''\n")
		So(text, ShouldContainSubstring, "echo \"Building the genome database ...\"")
		So(text, ShouldContainSubstring, "        gmap_build \\\n")
		So(text, ShouldContainSubstring, "            > /results/exp001/gmap-170101-235959/gmap_output_compress.txt\n")
		So(text, ShouldContainSubstring, "if [ $RC -ne 0 ]; then manage_error gmap $RC; fi")

		starIdent := map[string]string{
			"experiment_id":        "exp001",
			"reference_dataset_id": "GRCh38",
			"reference_file":       "genome.fa",
			"gtf_file":             "NONE",
			"read_dataset_id":      "SRR0001",
			"read_type":            "SE",
			"read_file_1_list":     "a.fastq",
			"read_file_2_list":     "NONE",
		}
		p, err = New(invocation(t, tool.CodeSTAR, starIdent, nil), "")
		So(err, ShouldBeNil)
		content, err = p.Script()
		So(err, ShouldBeNil)
		So(string(content), ShouldContainSubstring, "    mkdir -p /results/exp001/star-170101-235959/genome_index\n    RC=$?\n    if [ $RC -ne 0 ]; then manage_error mkdir $RC; fi\n")
	})
}
