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

package cmd

import (
	"fmt"
	"time"

	"github.com/GGFHF/ngscloud/internal"
	"github.com/GGFHF/ngscloud/remote"
	"github.com/spf13/cobra"
)

// options for this cmd
var datasetsExperiment string
var datasetsTool string
var datasetsDataset string

// datasetsCmd represents the datasets command.
var datasetsCmd = &cobra.Command{
	Use:   "datasets <experiments|reads|files|results|assemblies|references|databases>",
	Short: "List the experiments and datasets on a cluster",
	Long: `List the experiments and datasets stored on a cluster.

experiments: the experiments that have read or result datasets
reads:       the read datasets of --experiment
files:       the files of read dataset --dataset of --experiment
results:     the result datasets of --experiment, only those made by --tool if
             given
assemblies:  the result datasets of --experiment made by an assembling tool
references:  the reference datasets
databases:   the database datasets

Use these names for the identification values of 'ngscloud config create'.`,
	Run: func(cmd *cobra.Command, args []string) {
		if len(args) != 1 {
			die("exactly one kind of listing is required")
		}
		inv := clusters()
		requireCluster(inv)

		ctx, cancel := signalContext()
		defer cancel()
		b := remote.NewBrowser(connector(inv), config.Layout(), time.Duration(config.BrowserCacheTTL)*time.Second, appLogger)
		defer internal.LogClose(appLogger, b, "dataset browser")

		var names []string
		var err error
		switch args[0] {
		case "experiments":
			names, err = b.Experiments(ctx, cmdCluster)
		case "reads":
			requireExperiment()
			names, err = b.ReadDatasets(ctx, cmdCluster, datasetsExperiment)
		case "files":
			requireExperiment()
			if datasetsDataset == "" {
				die("--dataset is required")
			}
			names, err = b.ReadFiles(ctx, cmdCluster, datasetsExperiment, datasetsDataset)
		case "results":
			requireExperiment()
			names, err = b.ResultDatasets(ctx, cmdCluster, datasetsExperiment, datasetsTool)
		case "assemblies":
			requireExperiment()
			names, err = b.AssemblyDatasets(ctx, cmdCluster, datasetsExperiment)
		case "references":
			names, err = b.ReferenceDatasets(ctx, cmdCluster)
		case "databases":
			names, err = b.DatabaseDatasets(ctx, cmdCluster)
		default:
			die("unknown kind of listing '%s'", args[0])
		}
		if err != nil {
			die("%s", err)
		}
		if len(names) == 0 {
			warn("nothing found")
		}
		for _, name := range names {
			fmt.Println(name)
		}
	},
}

func init() {
	RootCmd.AddCommand(datasetsCmd)

	// flags specific to this sub-command
	datasetsCmd.Flags().StringVarP(&cmdCluster, "cluster", "c", "", "name of the cluster to look on")
	datasetsCmd.Flags().StringVarP(&datasetsExperiment, "experiment", "e", "", "experiment id")
	datasetsCmd.Flags().StringVarP(&datasetsDataset, "dataset", "d", "", "read dataset id")
	datasetsCmd.Flags().StringVarP(&datasetsTool, "tool", "t", "", "only results of this tool code")
}

func requireExperiment() {
	if datasetsExperiment == "" {
		die("--experiment is required")
	}
}
