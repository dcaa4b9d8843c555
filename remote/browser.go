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

package remote

// This file has the cached browser of the datasets stored on a cluster.

import (
	"context"
	"os"
	"sort"
	"time"

	"github.com/GGFHF/ngscloud/tool"
	"github.com/inconshreveable/log15"
	"github.com/patrickmn/go-cache"
	sync "github.com/sasha-s/go-deadlock"
)

// Browser lists the experiments and datasets on a cluster. It keeps one
// transfer session open to the cluster last asked about, closing it and
// forgetting its cached listings when a different cluster is asked about.
type Browser struct {
	conn    Connector
	layout  tool.Layout
	cache   *cache.Cache
	cluster string
	session Transferer
	logger  log15.Logger
	mutex   sync.Mutex
}

// NewBrowser returns a Browser that caches listings for ttl.
func NewBrowser(conn Connector, layout tool.Layout, ttl time.Duration, logger log15.Logger) *Browser {
	return &Browser{
		conn:   conn,
		layout: layout,
		cache:  cache.New(ttl, ttl*2),
		logger: logger.New("pkg", "remote", "browser", true),
	}
}

// Experiments lists the experiments that have read or result datasets.
func (b *Browser) Experiments(ctx context.Context, cluster string) ([]string, error) {
	reads, err := b.list(ctx, cluster, b.layout.ReadDir, true)
	if err != nil {
		return nil, err
	}
	results, err := b.list(ctx, cluster, b.layout.ResultDir, true)
	if err != nil {
		return nil, err
	}
	return union(reads, results), nil
}

// ReadDatasets lists the read datasets of an experiment.
func (b *Browser) ReadDatasets(ctx context.Context, cluster, experiment string) ([]string, error) {
	return b.list(ctx, cluster, b.layout.ExperimentReadDir(experiment), true)
}

// ReadFiles lists the files of a read dataset.
func (b *Browser) ReadFiles(ctx context.Context, cluster, experiment, dataset string) ([]string, error) {
	return b.list(ctx, cluster, b.layout.ReadDatasetDir(experiment, dataset), false)
}

// ResultDatasets lists the result datasets of an experiment. If software is
// not empty, only datasets made by that tool are returned.
func (b *Browser) ResultDatasets(ctx context.Context, cluster, experiment, software string) ([]string, error) {
	all, err := b.list(ctx, cluster, b.layout.ExperimentResultDir(experiment), true)
	if err != nil || software == "" {
		return all, err
	}
	var datasets []string
	for _, dataset := range all {
		if tool.SoftwareOf(dataset) == software {
			datasets = append(datasets, dataset)
		}
	}
	return datasets, nil
}

// AssemblyDatasets lists the result datasets of an experiment made by any
// assembling tool.
func (b *Browser) AssemblyDatasets(ctx context.Context, cluster, experiment string) ([]string, error) {
	all, err := b.list(ctx, cluster, b.layout.ExperimentResultDir(experiment), true)
	if err != nil {
		return nil, err
	}
	var datasets []string
	for _, dataset := range all {
		if tool.AssemblyTypes(tool.SoftwareOf(dataset)) != nil {
			datasets = append(datasets, dataset)
		}
	}
	return datasets, nil
}

// ReferenceDatasets lists the reference datasets.
func (b *Browser) ReferenceDatasets(ctx context.Context, cluster string) ([]string, error) {
	return b.list(ctx, cluster, b.layout.ReferenceDir, true)
}

// ReferenceFiles lists the files of a reference dataset.
func (b *Browser) ReferenceFiles(ctx context.Context, cluster, dataset string) ([]string, error) {
	return b.list(ctx, cluster, b.layout.ReferenceDatasetDir(dataset), false)
}

// DatabaseDatasets lists the database datasets.
func (b *Browser) DatabaseDatasets(ctx context.Context, cluster string) ([]string, error) {
	return b.list(ctx, cluster, b.layout.DatabaseDir, true)
}

// Close closes the open session, if any.
func (b *Browser) Close() error {
	b.mutex.Lock()
	defer b.mutex.Unlock()
	return b.closeSession()
}

// list returns the sorted names of the sub-directories (dirs true) or files
// of dir. A missing dir has nothing in it.
func (b *Browser) list(ctx context.Context, cluster, dir string, dirs bool) ([]string, error) {
	key := cluster + ":" + dir
	if !dirs {
		key += ":files"
	}

	b.mutex.Lock()
	defer b.mutex.Unlock()
	if err := b.switchTo(ctx, cluster); err != nil {
		return nil, err
	}
	if cached, found := b.cache.Get(key); found {
		return cached.([]string), nil
	}

	infos, err := b.session.ReadDir(dir)
	if err != nil && !os.IsNotExist(err) {
		return nil, Error{cluster, "list", ErrTransfer, dir + ": " + err.Error()}
	}
	names := []string{}
	for _, info := range infos {
		if info.IsDir() == dirs {
			names = append(names, info.Name())
		}
	}
	sort.Strings(names)
	b.cache.SetDefault(key, names)
	b.logger.Debug("listed", "cluster", cluster, "dir", dir, "count", len(names))
	return names, nil
}

// switchTo makes sure the open session is to cluster. Callers hold the lock.
func (b *Browser) switchTo(ctx context.Context, cluster string) error {
	if b.session != nil && b.cluster == cluster {
		return nil
	}
	if b.session != nil {
		b.logger.Debug("switching cluster", "from", b.cluster, "to", cluster)
		if err := b.closeSession(); err != nil {
			b.logger.Warn("failed to close session", "err", err)
		}
	}
	session, err := b.conn.Transfer(ctx, cluster)
	if err != nil {
		return err
	}
	b.session = session
	b.cluster = cluster
	return nil
}

func (b *Browser) closeSession() error {
	b.cache.Flush()
	if b.session == nil {
		return nil
	}
	session := b.session
	b.session = nil
	b.cluster = ""
	return session.Close()
}

func union(a, b []string) []string {
	seen := make(map[string]bool, len(a)+len(b))
	all := []string{}
	for _, list := range [][]string{a, b} {
		for _, s := range list {
			if !seen[s] {
				seen[s] = true
				all = append(all, s)
			}
		}
	}
	sort.Strings(all)
	return all
}
