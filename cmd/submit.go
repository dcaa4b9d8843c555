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
	"os"

	"github.com/GGFHF/ngscloud/internal"
	"github.com/spf13/cobra"
)

// submitCmd represents the submit command.
var submitCmd = &cobra.Command{
	Use:   "submit <tool>",
	Short: "Submit a tool to a cluster",
	Long: `Submit a tool to the grid engine of a cluster.

The tool's config file is checked, then a new run directory is made on the
cluster's master node, the tool's scripts are uploaded there and the starter
script is submitted to the scheduler. Progress is shown as it happens.

The master node must be running and the tool's environment must already be
installed on the cluster.

Every submission makes a new run directory and job, even for the same config
file. Submissions are recorded; see 'ngscloud runs'.`,
	Run: func(cmd *cobra.Command, args []string) {
		s := toolArg(args)
		inv := clusters()
		requireCluster(inv)

		hist := openHistory()
		ctx, cancel := signalContext()
		p := newPipeline(connector(inv), hist)
		ok := p.Submit(ctx, cmdCluster, s.Code, internal.NewLineSink(os.Stdout))
		cancel()
		internal.LogClose(appLogger, hist, "history database")
		if !ok {
			os.Exit(1)
		}
	},
}

func init() {
	RootCmd.AddCommand(submitCmd)

	// flags specific to this sub-command
	submitCmd.Flags().StringVarP(&cmdCluster, "cluster", "c", "", "name of the cluster to submit to")
}
