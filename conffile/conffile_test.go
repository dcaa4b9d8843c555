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

package conffile

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/hashicorp/go-multierror"
	. "github.com/smartystreets/goconvey/convey"
)

var testSchema = Schema{
	{
		Name:           "identification",
		Comment:        "identification",
		Identification: true,
		Keys: []Key{
			{Name: "experiment_id", Kind: String, Checks: []Check{NotEmpty}, Comment: "experiment identification"},
			{Name: "dataset_id", Kind: String, Default: "NONE", Comment: "dataset identification"},
			{Name: "software", Kind: String, Comment: "derived", Derive: func(ident map[string]string) string {
				return strings.SplitN(ident["dataset_id"], "-", 2)[0]
			}},
		},
	},
	{
		Name:    "tool parameters",
		Comment: "tool parameters",
		Keys: []Key{
			{Name: "threads", Kind: Int, Default: "4", Checks: []Check{AtLeast(1)}, Comment: "number of threads"},
			{Name: "identity", Kind: Float, Default: "0.9", Checks: []Check{Between(0, 1)}, Comment: "identity threshold"},
			{Name: "mode", Kind: Enum, Default: "FAST", Values: []string{"FAST", "SLOW"}, Comment: "mode"},
			{Name: "kmer", Kind: Int, Default: "NONE", NoneAllowed: true, Checks: []Check{OddBetween(13, 31)}, Comment: "k-mer size"},
			{Name: "other_parameters", Kind: Params, Default: "NONE", Reserved: []string{"mismatch", "T"}, Comment: "additional parameters"},
		},
	},
}

func keyErrors(err error) []string {
	var msgs []string
	if merr, ok := err.(*multierror.Error); ok {
		for _, e := range merr.Errors {
			msgs = append(msgs, e.Error())
		}
	}
	return msgs
}

func TestParse(t *testing.T) {
	Convey("Parse() understands sections, keys, comments and padding", t, func() {
		content := `# a header comment
#
[identification]
experiment_id = exp001                             # experiment identification
dataset_id=trinity-170101-235959

[tool parameters]
  threads = 8   # number of threads
other_parameters = --a=1; --b
threads = 16
`
		set, err := Parse(strings.NewReader(content))
		So(err, ShouldBeNil)
		So(set.Sections(), ShouldResemble, []string{"identification", "tool parameters"})

		v, found := set.Get("identification", "experiment_id")
		So(found, ShouldBeTrue)
		So(v, ShouldEqual, "exp001")

		v, _ = set.Get("identification", "dataset_id")
		So(v, ShouldEqual, "trinity-170101-235959")

		v, _ = set.Get("tool parameters", "threads")
		So(v, ShouldEqual, "16")

		v, _ = set.Get("tool parameters", "other_parameters")
		So(v, ShouldEqual, "--a=1; --b")

		_, found = set.Get("tool parameters", "missing")
		So(found, ShouldBeFalse)
		_, found = set.Get("no section", "threads")
		So(found, ShouldBeFalse)
	})

	Convey("Parse() rejects malformed lines", t, func() {
		for _, bad := range []string{
			"[identification\nexperiment_id = a\n",
			"[]\n",
			"[identification]\nexperiment_id\n",
			"experiment_id = a\n",
			"[identification]\n= a\n",
		} {
			_, err := Parse(strings.NewReader(bad))
			So(err, ShouldNotBeNil)
			_, isSyntax := err.(*SyntaxError)
			So(isSyntax, ShouldBeTrue)
		}
	})
}

func TestParseParams(t *testing.T) {
	Convey("ParseParams() handles the other_parameters syntax", t, func() {
		params, errs := ParseParams("NONE")
		So(errs, ShouldBeEmpty)
		So(params, ShouldBeEmpty)

		params, errs = ParseParams(" --min-len=100 ; --fast;--x.y=a b ")
		So(errs, ShouldBeEmpty)
		So(len(params), ShouldEqual, 3)
		So(params[0], ShouldResemble, Param{Name: "min-len", Value: "100", HasValue: true})
		So(params[1], ShouldResemble, Param{Name: "fast"})
		So(params[2].Value, ShouldEqual, "a b")
		So(params[0].String(), ShouldEqual, "--min-len=100")
		So(params[1].String(), ShouldEqual, "--fast")

		_, errs = ParseParams("-x=1; --=2; --y=; --ok")
		So(len(errs), ShouldEqual, 3)
	})
}

func TestSchema(t *testing.T) {
	Convey("Given a schema rendered with identification values", t, func() {
		dir := t.TempDir()
		path := filepath.Join(dir, "sub", "tool-config.txt")
		header := []string{"This is a header.", "", "It has two paragraphs."}
		err := testSchema.Write(path, header, map[string]string{"experiment_id": "exp001", "dataset_id": "trinity-170101-235959", "threads": "99"})
		So(err, ShouldBeNil)

		content, err := os.ReadFile(path)
		So(err, ShouldBeNil)
		text := string(content)

		Convey("The file has the header, sections and aligned data lines", func() {
			So(text, ShouldStartWith, "# This is a header.\n#\n# It has two paragraphs.\n")
			So(text, ShouldContainSubstring, "[identification]\n")
			So(text, ShouldContainSubstring, "\n# tool parameters\n[tool parameters]\n")
			So(text, ShouldContainSubstring, "experiment_id = exp001"+strings.Repeat(" ", 29)+"# experiment identification\n")
			So(text, ShouldContainSubstring, "software = trinity")
		})

		Convey("Only identification keys take supplied values", func() {
			So(text, ShouldContainSubstring, "threads = 4 ")
			So(text, ShouldNotContainSubstring, "threads = 99")
		})

		Convey("It reads back and coerces without errors", func() {
			set, err := Load(path)
			So(err, ShouldBeNil)
			opts, err := testSchema.Coerce(set)
			So(err, ShouldBeNil)
			So(opts.String("identification", "experiment_id"), ShouldEqual, "exp001")
			So(opts.Int("tool parameters", "threads"), ShouldEqual, 4)
			So(opts.Float("tool parameters", "identity"), ShouldEqual, 0.9)
			So(opts.IsNone("tool parameters", "kmer"), ShouldBeTrue)
			So(opts.Params("tool parameters", "other_parameters"), ShouldBeEmpty)
			So(opts.Raw(), ShouldResemble, set)
		})

		Convey("Writing again replaces the file entirely", func() {
			err := testSchema.Write(path, nil, map[string]string{"experiment_id": "exp002"})
			So(err, ShouldBeNil)
			content, err := os.ReadFile(path)
			So(err, ShouldBeNil)
			So(string(content), ShouldNotContainSubstring, "exp001")
			So(string(content), ShouldNotContainSubstring, "This is a header")
			So(string(content), ShouldContainSubstring, "experiment_id = exp002")
		})
	})

	Convey("Coerce() reports every broken key", t, func() {
		set := make(OptionSet)
		set.Set("identification", "experiment_id", "")
		set.Set("identification", "dataset_id", "x")
		set.Set("tool parameters", "threads", "0")
		set.Set("tool parameters", "identity", "1.5")
		set.Set("tool parameters", "mode", "medium")
		set.Set("tool parameters", "kmer", "14")
		set.Set("tool parameters", "other_parameters", "--mismatch=5; --T=2; bad")

		opts, err := testSchema.Coerce(set)
		So(err, ShouldNotBeNil)
		msgs := keyErrors(err)
		So(len(msgs), ShouldEqual, 9)
		So(msgs[0], ShouldEqual, `*** ERROR: the key "experiment_id" has to be a non-empty value.`)
		So(msgs[1], ShouldEqual, `*** ERROR: the key "software" is not found in the section "identification".`)
		So(msgs[2], ShouldEqual, `*** ERROR: the key "threads" has to be an integer number greater than or equal to 1.`)
		So(msgs[3], ShouldEqual, `*** ERROR: the key "identity" has to be a float number between 0 and 1.`)
		So(msgs[4], ShouldEqual, `*** ERROR: the key "mode" has to be FAST or SLOW.`)
		So(msgs[5], ShouldEqual, `*** ERROR: the key "kmer" has to be an integer number odd and between 13 and 31 or NONE.`)
		So(msgs[6], ShouldContainSubstring, "bad does not start with --")
		So(msgs[7], ShouldContainSubstring, "--mismatch, which is not allowed")
		So(msgs[8], ShouldContainSubstring, "--T, which is not allowed")

		_, ok := opts.Value("identification", "dataset_id")
		So(ok, ShouldBeTrue)
		_, ok = opts.Value("tool parameters", "threads")
		So(ok, ShouldBeFalse)
	})

	Convey("Coerce() canonicalises enums and accepts unreserved parameters", t, func() {
		set := make(OptionSet)
		set.Set("identification", "experiment_id", "e")
		set.Set("identification", "dataset_id", "d")
		set.Set("identification", "software", "s")
		set.Set("tool parameters", "threads", "2")
		set.Set("tool parameters", "identity", "1")
		set.Set("tool parameters", "mode", "slow")
		set.Set("tool parameters", "kmer", "25")
		set.Set("tool parameters", "other_parameters", "--some-unreserved-flag=3")
		set.Set("unknown section", "whatever", "ignored")

		opts, err := testSchema.Coerce(set)
		So(err, ShouldBeNil)
		So(opts.String("tool parameters", "mode"), ShouldEqual, "SLOW")
		So(opts.Int("tool parameters", "kmer"), ShouldEqual, 25)
		So(opts.Params("tool parameters", "other_parameters"), ShouldResemble, []Param{{Name: "some-unreserved-flag", Value: "3", HasValue: true}})
	})
}
