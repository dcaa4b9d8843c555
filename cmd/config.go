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
	"strings"

	"github.com/GGFHF/ngscloud/tool"
	"github.com/manifoldco/promptui"
	"github.com/spf13/cobra"
)

// options for this cmd
var configIdent []string
var configForce bool
var configLenient bool

// configCmd represents the config command.
var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Create, validate and show tool config files",
	Long: `Create, validate and show the config files that drive the tools.

Every tool has one config file, kept in the directory given by the configdir
setting (see 'ngscloud conf'). It is created with default parameters, which
you then review and edit by hand before validating and submitting it.`,
}

// create sub-command writes a new config file.
var configCreateCmd = &cobra.Command{
	Use:   "create <tool>",
	Short: "Create a tool's config file with default parameters",
	Long: `Create a tool's config file with default parameters.

The identification values (experiment, datasets, files) of the new file are
given as repeated --ident key=value options, eg.

ngscloud config create cd-hit-est --ident experiment_id=exp001 \
  --ident assembly_dataset_id=trinity-170101-235959 --ident assembly_type=NONE

Lists of files are given comma separated. Identification values that aren't
given are written as their defaults, to be edited by hand.

An existing config file for the tool is replaced, after you confirm it (or
immediately with --force).`,
	Run: func(cmd *cobra.Command, args []string) {
		s := toolArg(args)
		ident := make(map[string]string)
		for _, kv := range configIdent {
			parts := strings.SplitN(kv, "=", 2)
			if len(parts) != 2 || strings.TrimSpace(parts[0]) == "" {
				die("--ident %s is not in key=value form", kv)
			}
			ident[strings.TrimSpace(parts[0])] = strings.TrimSpace(parts[1])
		}

		path := config.ConfigFile(s)
		if _, err := os.Stat(path); err == nil && !configForce {
			prompt := promptui.Select{
				Label:    fmt.Sprintf("The file %s already exists. Do you want to replace it?", path),
				Items:    []string{"No", "Yes"},
				HideHelp: true,
			}
			_, result, errp := prompt.Run()
			if errp != nil {
				die("didn't understand your response: %s", errp)
			}
			if result != "Yes" {
				info("the config file was left as it was")
				return
			}
		}

		p := newPipeline(nil, nil)
		printResult(p.WriteConfig(s.Code, ident), "The %s config file has been created: %s", s.Name, path)
	},
}

// validate sub-command checks a config file.
var configValidateCmd = &cobra.Command{
	Use:   "validate <tool>",
	Short: "Check a tool's config file",
	Long: `Check every value of a tool's config file.

Every problem found is listed, not just the first.`,
	Run: func(cmd *cobra.Command, args []string) {
		s := toolArg(args)
		p := newPipeline(nil, nil)
		printResult(p.ValidateConfig(s.Code, !configLenient), "The %s config file is OK.", s.Name)
	},
}

// show sub-command prints a config file.
var configShowCmd = &cobra.Command{
	Use:   "show <tool>",
	Short: "Show where a tool's config file is, and its contents",
	Run: func(cmd *cobra.Command, args []string) {
		s := toolArg(args)
		path := config.ConfigFile(s)
		content, err := os.ReadFile(path)
		if err != nil {
			die("could not read %s: %s; create it with 'ngscloud config create %s'", path, err, s.Code)
		}
		fmt.Printf("# %s\n%s", path, content)
	},
}

func init() {
	RootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configCreateCmd)
	configCmd.AddCommand(configValidateCmd)
	configCmd.AddCommand(configShowCmd)

	// flags specific to these sub-commands
	configCreateCmd.Flags().StringArrayVarP(&configIdent, "ident", "i", []string{}, "identification value as key=value (repeatable)")
	configCreateCmd.Flags().BoolVarP(&configForce, "force", "f", false, "replace an existing file without asking")
	configValidateCmd.Flags().BoolVar(&configLenient, "lenient", false, "check as done right after editing (currently the same checks)")
}

// identExperiment returns the experiment_id of a tool's config file, or the
// empty string if it can't be read.
func identExperiment(s *tool.Spec) string {
	set, err := loadConfigFile(s)
	if err != nil {
		return ""
	}
	exp, _ := set.Get(tool.IdentSection, "experiment_id")
	return exp
}
