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

package history

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/inconshreveable/log15"
	. "github.com/smartystreets/goconvey/convey"
)

func TestHistory(t *testing.T) {
	logger := log15.New()
	logger.SetHandler(log15.DiscardHandler())

	Convey("Given a new history database", t, func() {
		path := filepath.Join(t.TempDir(), "history.db")
		db, err := Open(path, logger)
		So(err, ShouldBeNil)
		defer db.Close()

		runs, err := db.List("")
		So(err, ShouldBeNil)
		So(runs, ShouldBeEmpty)

		t1 := time.Date(2017, 1, 1, 23, 59, 59, 0, time.UTC)
		later := &Run{Cluster: "cluster1", Tool: "trinity", Experiment: "exp001", RunDir: "/r/exp001/trinity-170102-000000", JobID: "12", Submitted: t1.Add(time.Second)}
		earlier := &Run{Cluster: "cluster1", Tool: "cd-hit-est", Experiment: "exp001", RunDir: "/r/exp001/cd-hit-est-170101-235959", JobID: "11", Submitted: t1}
		other := &Run{Cluster: "cluster2", Tool: "busco", Experiment: "exp002", RunDir: "/r/exp002/busco-170103-000000", JobID: "1", Submitted: t1.Add(time.Hour)}

		Convey("Runs can be added and listed in submission order", func() {
			So(db.Add(later), ShouldBeNil)
			So(db.Add(earlier), ShouldBeNil)
			So(db.Add(other), ShouldBeNil)

			runs, err := db.List("")
			So(err, ShouldBeNil)
			So(len(runs), ShouldEqual, 3)
			So(runs[0].JobID, ShouldEqual, "11")
			So(runs[1].JobID, ShouldEqual, "12")
			So(runs[2].Cluster, ShouldEqual, "cluster2")
			So(runs[0].Submitted.Equal(t1), ShouldBeTrue)
			So(runs[0].Tool, ShouldEqual, "cd-hit-est")

			runs, err = db.List("cluster1")
			So(err, ShouldBeNil)
			So(len(runs), ShouldEqual, 2)

			Convey("A run with the same directory replaces the old record", func() {
				again := *earlier
				again.JobID = "99"
				So(db.Add(&again), ShouldBeNil)
				runs, err := db.List("cluster1")
				So(err, ShouldBeNil)
				So(len(runs), ShouldEqual, 2)
				So(runs[0].JobID, ShouldEqual, "99")
			})

			Convey("Records survive a reopen", func() {
				So(db.Close(), ShouldBeNil)
				reopened, err := Open(path, logger)
				So(err, ShouldBeNil)
				defer reopened.Close()
				runs, err := reopened.List("")
				So(err, ShouldBeNil)
				So(len(runs), ShouldEqual, 3)
			})
		})
	})

	Convey("Opening a database in a missing directory fails", t, func() {
		_, err := Open(filepath.Join(t.TempDir(), "missing", "history.db"), logger)
		So(err, ShouldNotBeNil)
	})
}
