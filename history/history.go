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

// Package history keeps a local record of the runs submitted to clusters, so
// that you can later find a run's directory and scheduler job id.
package history

import (
	"fmt"
	"sort"
	"time"

	"github.com/inconshreveable/log15"
	"github.com/ugorji/go/codec"
	bolt "go.etcd.io/bbolt"
)

var bucketRuns = []byte("runs")

// Run is the record of one submission.
type Run struct {
	Cluster    string
	Tool       string
	Experiment string
	RunDir     string
	JobID      string
	Submitted  time.Time
}

// Key is unique per run directory on a cluster.
func (r *Run) Key() string {
	return r.Cluster + ":" + r.RunDir
}

// DB is the local store of submitted runs.
type DB struct {
	bolt   *bolt.DB
	ch     codec.Handle
	logger log15.Logger
}

// Open opens (creating if necessary) the history database at path.
func Open(path string, logger log15.Logger) (*DB, error) {
	boltdb, err := bolt.Open(path, 0600, &bolt.Options{Timeout: 5 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("could not open history database %s: %s", path, err)
	}
	err = boltdb.Update(func(tx *bolt.Tx) error {
		_, errc := tx.CreateBucketIfNotExists(bucketRuns)
		return errc
	})
	if err != nil {
		boltdb.Close()
		return nil, fmt.Errorf("could not create the runs bucket in %s: %s", path, err)
	}
	return &DB{
		bolt:   boltdb,
		ch:     new(codec.BincHandle),
		logger: logger.New("pkg", "history"),
	}, nil
}

// Add stores a run, replacing any earlier record with the same Key.
func (db *DB) Add(r *Run) error {
	var encoded []byte
	enc := codec.NewEncoderBytes(&encoded, db.ch)
	if err := enc.Encode(r); err != nil {
		return err
	}
	err := db.bolt.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(bucketRuns).Put([]byte(r.Key()), encoded)
	})
	if err == nil {
		db.logger.Debug("recorded run", "cluster", r.Cluster, "rundir", r.RunDir, "job", r.JobID)
	}
	return err
}

// List returns the stored runs, oldest submission first. If cluster is not
// empty, only that cluster's runs are returned.
func (db *DB) List(cluster string) ([]*Run, error) {
	var runs []*Run
	err := db.bolt.View(func(tx *bolt.Tx) error {
		return tx.Bucket(bucketRuns).ForEach(func(k, v []byte) error {
			r := &Run{}
			dec := codec.NewDecoderBytes(v, db.ch)
			if err := dec.Decode(r); err != nil {
				return fmt.Errorf("run %s could not be decoded: %s", string(k), err)
			}
			if cluster == "" || r.Cluster == cluster {
				runs = append(runs, r)
			}
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	sort.SliceStable(runs, func(i, j int) bool {
		return runs[i].Submitted.Before(runs[j].Submitted)
	})
	return runs, nil
}

// Close closes the database.
func (db *DB) Close() error {
	return db.bolt.Close()
}
