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
	"os"

	"code.cloudfoundry.org/bytefmt"
	"github.com/GGFHF/ngscloud/tool"
	"github.com/spf13/cobra"
)

// options for this cmd
var downloadExperiment string
var downloadDataset string
var downloadFile string
var downloadDir string

// downloadCmd represents the download command.
var downloadCmd = &cobra.Command{
	Use:   "download",
	Short: "Download a file of a run from a cluster",
	Long: `Download a file from a result dataset (the run directory of a submitted
tool) on a cluster.

By default the run's log file is downloaded, which tells you how the run went.
Use --file for any other file of the dataset. The file goes in --dir, the
current directory by default, which must have room for it.`,
	Run: func(cmd *cobra.Command, args []string) {
		inv := clusters()
		requireCluster(inv)
		if downloadExperiment == "" || downloadDataset == "" {
			die("--experiment and --dataset are required")
		}
		file := downloadFile
		if file == "" {
			s, err := tool.Get(tool.SoftwareOf(downloadDataset))
			if err != nil {
				die("%s was not made by a known tool; use --file", downloadDataset)
			}
			file = s.LogBasename()
		}

		ctx, cancel := signalContext()
		defer cancel()
		p := newPipeline(connector(inv), nil)
		dest, res := p.Download(ctx, cmdCluster, downloadExperiment, downloadDataset, file, downloadDir)
		printResult(res, "")

		size := "?"
		if info, err := os.Stat(dest); err == nil {
			size = bytefmt.ByteSize(uint64(info.Size()))
		}
		fmt.Printf("%s (%s)\n", dest, size)
	},
}

func init() {
	RootCmd.AddCommand(downloadCmd)

	// flags specific to this sub-command
	downloadCmd.Flags().StringVarP(&cmdCluster, "cluster", "c", "", "name of the cluster to download from")
	downloadCmd.Flags().StringVarP(&downloadExperiment, "experiment", "e", "", "experiment id")
	downloadCmd.Flags().StringVarP(&downloadDataset, "dataset", "d", "", "result dataset id, eg. cd-hit-est-170101-235959")
	downloadCmd.Flags().StringVarP(&downloadFile, "file", "f", "", "file of the dataset [default: the run's log]")
	downloadCmd.Flags().StringVarP(&downloadDir, "dir", "o", ".", "local directory to download into")
}
