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

/*
Package internal houses code for ngscloud's general utility functions.

It also implements the config system used by the cmd package (see config.go)
and the inventory of clusters jobs are submitted to (see clusters.go).

    import "github.com/GGFHF/ngscloud/internal"
    import "github.com/inconshreveable/log15"
    deployment := internal.DefaultDeployment(logger)
    logger := log15.New()
    logger.SetHandler(log15.LvlFilterHandler(log15.LvlWarn, log15.StderrHandler))
    config := internal.ConfigLoad(deployment, false, logger)
    clusters, err := internal.ClustersLoad(config.ClustersFile, config.ClusterPort, config.ClusterUser)
*/
package internal
