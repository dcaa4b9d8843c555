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

package internal

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/inconshreveable/log15"
	. "github.com/smartystreets/goconvey/convey"
)

func testLogger() (log15.Logger, *bytes.Buffer) {
	buff := new(bytes.Buffer)
	logger := log15.New()
	logger.SetHandler(log15.StreamHandler(buff, log15.LogfmtFormat()))
	return logger, buff
}

func writeStringToFile(path, data string) {
	err := os.WriteFile(path, []byte(data), 0600)
	So(err, ShouldBeNil)
}

func TestConfig(t *testing.T) {
	logger, _ := testLogger()

	Convey("Given a temporary home directory and working directory", t, func() {
		origHome := os.Getenv("HOME")
		origPWD, err := os.Getwd()
		So(err, ShouldBeNil)
		home := t.TempDir()
		pwd := t.TempDir()
		os.Setenv("HOME", home)
		So(os.Chdir(pwd), ShouldBeNil)
		defer func() {
			os.Setenv("HOME", origHome)
			errc := os.Chdir(origPWD)
			So(errc, ShouldBeNil)
		}()

		Convey("Defaults are used when nothing else is set", func() {
			config := ConfigLoad(Production, false, logger)
			So(config.ConfigDir, ShouldEqual, filepath.Join(home, ".ngscloud", "config"))
			So(config.HistoryFile, ShouldEqual, filepath.Join(home, ".ngscloud", "history.db"))
			So(config.SubmitCommand, ShouldEqual, "qsub -V -b n -cwd")
			So(config.ClusterPort, ShouldEqual, 22)
			So(config.Source("SubmitCommand"), ShouldEqual, ConfigSourceDefault)
			So(config.IsProduction(), ShouldBeTrue)

			layout := config.Layout()
			So(layout.ResultDir, ShouldEqual, "/volumes/data/results")
			So(layout.MinicondaBin(), ShouldEqual, "/apps/Miniconda3/bin")
		})

		Convey("Env vars and files override defaults, later files winning", func() {
			os.Setenv("NGSCLOUD_MAILRECIPIENT", "env@example.com")
			defer os.Unsetenv("NGSCLOUD_MAILRECIPIENT")

			homeFile := filepath.Join(home, ".ngscloud_config.yml")
			writeStringToFile(homeFile, "resultdir: /home/results\nclusterport: 2222\n")
			devFile := filepath.Join(pwd, ".ngscloud_config.development.yml")
			writeStringToFile(devFile, "resultdir: /dev/results\n")

			config := ConfigLoad(Development, false, logger)
			So(config.MailRecipient, ShouldEqual, "env@example.com")
			So(config.Source("MailRecipient"), ShouldEqual, ConfigSourceEnvVar)
			So(config.ClusterPort, ShouldEqual, 2222)
			So(config.Source("ClusterPort"), ShouldEqual, homeFile)
			So(config.ResultDir, ShouldEqual, "/dev/results")
			So(config.Source("ResultDir"), ShouldEqual, devFile)
			So(config.ConfigDir, ShouldEndWith, "_"+Development)

			Convey("The table shows every value and its source", func() {
				table := config.String()
				So(table, ShouldContainSubstring, "SubmitCommand")
				So(table, ShouldContainSubstring, "/dev/results")
				So(table, ShouldContainSubstring, devFile)
				So(table, ShouldNotContainSubstring, "sources")
			})
		})
	})
}

func TestClusters(t *testing.T) {
	Convey("Given a clusters file", t, func() {
		path := filepath.Join(t.TempDir(), "clusters.yml")
		writeStringToFile(path, `clusters:
  - name: cluster2
    master:
      host: 10.0.0.2
      port: 2200
      user: admin
      state_command: cat /var/run/node-state
  - name: cluster1
    master:
      host: 10.0.0.1
`)

		Convey("It loads with defaults filled in", func() {
			inv, err := ClustersLoad(path, 22, "ngscloud")
			So(err, ShouldBeNil)
			So(inv.Names(), ShouldResemble, []string{"cluster1", "cluster2"})

			c, err := inv.Get("cluster1")
			So(err, ShouldBeNil)
			So(c.Master, ShouldResemble, Node{Host: "10.0.0.1", Port: 22, User: "ngscloud"})

			c, err = inv.Get("cluster2")
			So(err, ShouldBeNil)
			So(c.Master.Port, ShouldEqual, 2200)
			So(c.Master.User, ShouldEqual, "admin")
			So(c.Master.StateCommand, ShouldEqual, "cat /var/run/node-state")

			_, err = inv.Get("cluster3")
			So(err, ShouldNotBeNil)
		})

		Convey("Duplicate and incomplete clusters are rejected", func() {
			writeStringToFile(path, "clusters:\n  - name: a\n    master:\n      host: h\n  - name: a\n    master:\n      host: h\n")
			_, err := ClustersLoad(path, 22, "u")
			So(err, ShouldNotBeNil)

			writeStringToFile(path, "clusters:\n  - name: a\n")
			_, err = ClustersLoad(path, 22, "u")
			So(err, ShouldNotBeNil)
		})

		Convey("A missing file is an empty inventory", func() {
			inv, err := ClustersLoad(path+".missing", 22, "u")
			So(err, ShouldBeNil)
			So(inv.Names(), ShouldBeEmpty)
		})
	})
}

type badCloser struct {
	err error
}

func (b badCloser) Close() error {
	return b.err
}

func TestUtils(t *testing.T) {
	Convey("TildaToHome expands ~/ only", t, func() {
		home, err := os.UserHomeDir()
		So(err, ShouldBeNil)
		So(TildaToHome("~/foo/bar"), ShouldEqual, filepath.Join(home, "foo", "bar"))
		So(TildaToHome("/abs/~/foo"), ShouldEqual, "/abs/~/foo")
		So(TildaToHome("rel"), ShouldEqual, "rel")
	})

	Convey("LogClose only logs unexpected errors", t, func() {
		logger, buff := testLogger()
		LogClose(logger, badCloser{}, "nothing")
		So(buff.String(), ShouldBeEmpty)

		LogClose(logger, badCloser{io.EOF}, "eof")
		So(buff.String(), ShouldBeEmpty)

		LogClose(logger, badCloser{errors.New("boom")}, "thing", "path", "/a")
		So(buff.String(), ShouldContainSubstring, "failed to close thing")
		So(buff.String(), ShouldContainSubstring, "path=/a")
		So(buff.String(), ShouldContainSubstring, "err=boom")
	})

	Convey("LogPanic recovers and logs", t, func() {
		logger, buff := testLogger()
		func() {
			defer LogPanic(logger, "test goroutine", false)
			panic("oops")
		}()
		So(buff.String(), ShouldContainSubstring, "test goroutine panic")
		So(buff.String(), ShouldContainSubstring, "oops")
	})
}

func TestLineSink(t *testing.T) {
	Convey("A LineSink keeps whole lines from concurrent writers", t, func() {
		var out bytes.Buffer
		sink := NewLineSink(&out)
		var wg sync.WaitGroup
		for i := 0; i < 10; i++ {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				for j := 0; j < 10; j++ {
					sink.Printf("writer %d line %d", i, j)
				}
			}(i)
		}
		wg.Wait()

		lines := sink.Lines()
		So(len(lines), ShouldEqual, 100)
		So(strings.Count(out.String(), "\n"), ShouldEqual, 100)
		for _, line := range strings.Split(strings.TrimSpace(out.String()), "\n") {
			So(line, ShouldStartWith, "writer ")
		}

		n, err := fmt.Fprint(sink, "a\nb\n")
		So(err, ShouldBeNil)
		So(n, ShouldEqual, 4)
		lines = sink.Lines()
		So(lines[len(lines)-2:], ShouldResemble, []string{"a", "b"})
	})
}
