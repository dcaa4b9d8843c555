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

package pipeline

// This file contains the download of run outputs from a cluster.

import (
	"context"
	"fmt"
	"os"
	"path"
	"path/filepath"

	"code.cloudfoundry.org/bytefmt"
	"github.com/GGFHF/ngscloud/internal"
	"github.com/ricochet2200/go-disk-usage/du"
)

// Download copies a file of a result dataset (eg. a run's log file) from
// the cluster into localDir, which is created if necessary. The local
// filesystem must have room for it. It returns the local path.
func (p *Pipeline) Download(ctx context.Context, cluster, experiment, dataset, file, localDir string) (string, Result) {
	logger := p.logger.New("cluster", cluster, "dataset", dataset, "file", file)
	source := path.Join(p.layout.ResultDatasetDir(experiment, dataset), file)

	if err := os.MkdirAll(localDir, os.ModePerm); err != nil {
		return "", failure(fmt.Sprintf("The directory %s can not be created: %s", localDir, err))
	}

	tr, err := p.conn.Transfer(ctx, cluster)
	if err != nil {
		return "", failure(err.Error())
	}
	defer internal.LogClose(logger, tr, "download session")

	info, err := tr.Stat(source)
	if err != nil {
		return "", failure(fmt.Sprintf("The file %s can not be found on cluster %s: %s", source, cluster, err))
	}
	size := uint64(info.Size())
	if available := du.NewDiskUsage(localDir).Available(); available < size {
		return "", failure(fmt.Sprintf("The file %s needs %s but only %s is available in %s",
			source, bytefmt.ByteSize(size), bytefmt.ByteSize(available), localDir))
	}

	dest := filepath.Join(localDir, path.Base(file))
	n, err := tr.Download(ctx, source, dest)
	if err != nil {
		return "", failure(err.Error())
	}
	logger.Debug("downloaded", "dest", dest, "size", bytefmt.ByteSize(uint64(n)))
	return dest, success()
}
