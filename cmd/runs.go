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
	"path"

	"github.com/GGFHF/ngscloud/internal"
	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
)

// runsCmd represents the runs command.
var runsCmd = &cobra.Command{
	Use:   "runs",
	Short: "List the runs you have submitted",
	Long: `List the runs submitted with 'ngscloud submit', oldest first.

Use --cluster to only see the runs of one cluster. The dataset column is the
id to give 'ngscloud download' to fetch the run's log.`,
	Run: func(cmd *cobra.Command, args []string) {
		hist := openHistory()
		defer internal.LogClose(appLogger, hist, "history database")
		runs, err := hist.List(cmdCluster)
		if err != nil {
			die("%s", err)
		}
		if len(runs) == 0 {
			info("no runs have been submitted")
			return
		}

		table := tablewriter.NewWriter(os.Stdout)
		table.SetHeader([]string{"Submitted", "Cluster", "Tool", "Experiment", "Dataset", "Job"})
		table.SetAutoWrapText(false)
		table.SetAlignment(tablewriter.ALIGN_LEFT)
		for _, r := range runs {
			table.Append([]string{
				r.Submitted.Local().Format("2006-01-02 15:04:05"),
				r.Cluster,
				r.Tool,
				r.Experiment,
				path.Base(r.RunDir),
				r.JobID,
			})
		}
		table.Render()
	},
}

func init() {
	RootCmd.AddCommand(runsCmd)

	// flags specific to this sub-command
	runsCmd.Flags().StringVarP(&cmdCluster, "cluster", "c", "", "only list runs on this cluster")
}
