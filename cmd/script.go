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

	"github.com/GGFHF/ngscloud/conffile"
	"github.com/GGFHF/ngscloud/tool"
	"github.com/spf13/cobra"
)

// options for this cmd
var scriptRunDir string

// scriptCmd represents the script command.
var scriptCmd = &cobra.Command{
	Use:   "script",
	Short: "Work with the scripts that run tools",
}

// build sub-command renders the scripts locally.
var scriptBuildCmd = &cobra.Command{
	Use:   "build <tool>",
	Short: "Build a tool's scripts locally, without submitting them",
	Long: `Build the process and starter scripts of a tool from its config file.

The scripts are written to the tempdir (see 'ngscloud conf') so you can review
them. By default they are built for a new run directory of the experiment in
the config file; use --rundir to choose another.

'ngscloud submit' builds the scripts itself, so you don't need to run this
before submitting.`,
	Run: func(cmd *cobra.Command, args []string) {
		s := toolArg(args)
		runDir := scriptRunDir
		if runDir == "" {
			exp := identExperiment(s)
			if exp == "" {
				die("the experiment_id of the %s config file could not be read; check it with 'ngscloud config validate %s'", s.Name, s.Code)
			}
			runDir = config.Layout().RunDir(exp, s.Code, time.Now())
		}

		p := newPipeline(nil, nil)
		scriptPath, res := p.BuildScript(s.Code, cmdCluster, runDir)
		printResult(res, "")
		starterPath, res := p.BuildStarter(s.Code, runDir)
		printResult(res, "")
		fmt.Printf("process script: %s\nstarter script: %s\nrun directory:  %s\n", scriptPath, starterPath, runDir)
	},
}

func init() {
	RootCmd.AddCommand(scriptCmd)
	scriptCmd.AddCommand(scriptBuildCmd)

	// flags specific to these sub-commands
	scriptBuildCmd.Flags().StringVar(&scriptRunDir, "rundir", "", "remote run directory the scripts are for")
	scriptBuildCmd.Flags().StringVarP(&cmdCluster, "cluster", "c", "", "cluster the scripts are for")
}

// loadConfigFile parses a tool's config file.
func loadConfigFile(s *tool.Spec) (conffile.OptionSet, error) {
	return conffile.Load(config.ConfigFile(s))
}
