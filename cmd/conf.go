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

	"github.com/GGFHF/ngscloud/internal"
	"github.com/spf13/cobra"
)

const defaultYML = `# The format of this file is YAML

# configdir: Where should the tool config files be kept?
# This defaults to a directory named config in ~/.ngscloud.
#
# Each tool has one config file here, named <tool code>-config.txt. It is
# replaced whenever you 'ngscloud config create' for that tool. In development
# the directory name is suffixed with "_development".
configdir: "~/.ngscloud/config"

# tempdir: Where should the scripts be built before they are uploaded?
# This defaults to a directory named temp in ~/.ngscloud.
tempdir: "~/.ngscloud/temp"

# historyfile: Where should the record of submitted runs be kept?
# This defaults to a file named history.db in ~/.ngscloud.
historyfile: "~/.ngscloud/history.db"

# clustersfile: Where is the inventory of your clusters?
# This defaults to ~/.ngscloud_clusters.yml, which looks like:
#
# clusters:
#   - name: cluster1
#     master:
#       host: 10.0.0.12
#       port: 22
#       user: ngscloud
#       state_command: cat /var/run/node-state
#
# port and user are optional (see clusterport and clusteruser). state_command
# is optional; if given it is run on the master node and must print the
# node's numeric state (16 for running). Otherwise a master node that answers
# is taken to be running.
clustersfile: "~/.ngscloud_clusters.yml"

# privatekeypath: Which private key should be used to ssh to master nodes?
privatekeypath: "~/.ssh/id_rsa"

# clusteruser: Who should we ssh to master nodes as?
# This defaults to your local username.
#clusteruser: ""

# clusterport: What port do master nodes run sshd on?
# Note, this is a number (no quotes).
clusterport: 22

# dialtimeout: How many seconds should we wait for an ssh connection?
dialtimeout: 15

# browsercachettl: How many seconds are dataset listings remembered for?
browsercachettl: 300

# mailrecipient: Who should be sent an email when a run ends?
# This defaults to nobody.
#mailrecipient: ""

# appdir, minicondadir, readdir, referencedir, databasedir, resultdir: Where
# are things on the clusters?
# Tool environments are expected at <minicondadir>/envs/<environment>.
# Read datasets are at <readdir>/<experiment id>/<read dataset id>, reference
# and database datasets at <referencedir>/<id> and <databasedir>/<id>, and
# every run makes a new <resultdir>/<experiment id>/<tool code>-YYMMDD-HHMMSS.
appdir: "/apps"
minicondadir: "/apps/Miniconda3"
readdir: "/volumes/data/reads"
referencedir: "/volumes/data/references"
databasedir: "/volumes/data/databases"
resultdir: "/volumes/data/results"

# submitcommand: How should starter scripts be submitted to the scheduler?
# The starter script's path is appended, and it is run from the run directory.
submitcommand: "qsub -V -b n -cwd"
`

// options for this cmd
var confDefault bool

// confCmd represents the conf command.
var confCmd = &cobra.Command{
	Use:   "conf",
	Short: "See ngscloud's configuration",
	Long: `See the configuration values ngscloud will use.

This command also shows where a particular value was defined.

For a list of all possible configuration settings, their descriptions and
default values in the yml format suitable for using as one of your config files,
use the --default option.

ngscloud will load its configuration settings from one or more files named
.ngscloud_config[.production|.development].yml found in these directories, in
order of precedence:
1) The current directory
2) Your home directory
3) The directory pointed to by the environment variable $NGSCLOUD_CONFIG_DIR

.ngscloud_config.yml files are always read, and can be used to define settings
common to both production and development deployments.
.ngscloud_config.production.yml files are only read in a production context:
either a --deployment production option has been passed to the ngscloud
executable, or the environment variable $NGSCLOUD_DEPLOYMENT has been set to
'production'. A similar story applies for .ngscloud_config.development.yml
files, which are used when things are set to 'development'.

If a setting is found in none of the files read, then an environment variable is
checked: NGSCLOUD_<setting name in caps>. Eg. to define the mailrecipient
option you might do:
export NGSCLOUD_MAILRECIPIENT="me@example.com"`,
	Run: func(cmd *cobra.Command, args []string) {
		if confDefault {
			fmt.Print(defaultYML)
			os.Exit(0)
		}

		fmt.Printf("%s", config)

		inv, err := internal.ClustersLoad(config.ClustersFile, config.ClusterPort, config.ClusterUser)
		if err != nil {
			warn("the clusters file %s could not be read: %s", config.ClustersFile, err)
			return
		}
		names := inv.Names()
		if len(names) == 0 {
			warn("there are no clusters in %s; see 'ngscloud conf --default'", config.ClustersFile)
			return
		}
		fmt.Printf("\nclusters: %s\n", strings.Join(names, ", "))
	},
}

func init() {
	RootCmd.AddCommand(confCmd)

	// flags specific to this sub-command
	confCmd.Flags().BoolVarP(&confDefault, "default", "d", false, "print default config yml file to STDOUT")
}
