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
	"strings"

	"github.com/GGFHF/ngscloud/tool"
	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
)

// toolsCmd represents the tools command.
var toolsCmd = &cobra.Command{
	Use:   "tools",
	Short: "List the supported tools",
	Long: `List the tools that can be configured and submitted.

The code in the first column is what you give to the other sub-commands. The
environment is the named conda environment that must be installed on a
cluster before the tool can be submitted to it.`,
	Run: func(cmd *cobra.Command, args []string) {
		table := tablewriter.NewWriter(os.Stdout)
		table.SetHeader([]string{"Code", "Name", "Environment", "Assembly types", "Documentation"})
		table.SetAutoWrapText(false)
		table.SetAlignment(tablewriter.ALIGN_LEFT)
		for _, s := range tool.All() {
			table.Append([]string{s.Code, s.Name, s.Env, strings.Join(tool.AssemblyTypes(s.Code), ","), s.URL})
		}
		table.Render()
	},
}

func init() {
	RootCmd.AddCommand(toolsCmd)
}

// toolArg validates that args is a single known tool code and returns its
// Spec. Dies otherwise.
func toolArg(args []string) *tool.Spec {
	if len(args) != 1 {
		die("exactly one tool code is required; see 'ngscloud tools'")
	}
	s, err := tool.Get(args[0])
	if err != nil {
		die("%s; see 'ngscloud tools'", err)
	}
	return s
}
