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

// this is the cobra file that enables subcommands and handles command-line args

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/GGFHF/ngscloud/history"
	"github.com/GGFHF/ngscloud/internal"
	"github.com/GGFHF/ngscloud/pipeline"
	"github.com/GGFHF/ngscloud/remote"
	"github.com/fatih/color"
	"github.com/inconshreveable/log15"
	"github.com/sb10/l15h"
	"github.com/spf13/cobra"
)

// appLogger is used for logging events in our commands
var appLogger = log15.New()

// these variables are accessible by all subcommands.
var deployment string
var config internal.Config
var debug bool

// these are shared by some of the subcommands.
var cmdCluster string

// RootCmd represents the base command when called without any subcommands.
var RootCmd = &cobra.Command{
	Use:   "ngscloud",
	Short: "ngscloud runs NGS bioinformatics tools on grid engine clusters.",
	Long: `ngscloud runs NGS bioinformatics tools on grid engine clusters.

Each supported tool is driven by a config file that you create, review and
edit before anything is run. First create the file with default parameters:
$ ngscloud config create cd-hit-est --ident experiment_id=exp001 --ident ...

Then edit it (its location is shown by 'ngscloud config show') and check it:
$ ngscloud config validate cd-hit-est

Finally submit the tool to the master node of one of your clusters:
$ ngscloud submit cd-hit-est --cluster cluster1

The clusters you can use are listed in the clusters file; see 'ngscloud conf'.`,
}

// Execute adds all child commands to the root command and sets flags
// appropriately. This is called by main.main(). It only needs to happen once to
// the rootCmd.
func Execute() {
	if err := RootCmd.Execute(); err != nil {
		die(err.Error())
	}
}

func init() {
	// set up logging to stderr
	appLogger.SetHandler(log15.LvlFilterHandler(log15.LvlInfo, log15.StderrHandler))

	// global flags
	RootCmd.PersistentFlags().StringVar(&deployment, "deployment", internal.DefaultDeployment(appLogger), "use production or development config")
	RootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "log debug messages, with caller info, to STDERR")

	cobra.OnInitialize(initConfig)
}

// initConfig reads in config file and ENV variables if set.
func initConfig() {
	if debug {
		appLogger = setupLogging(debug)
	}
	config = internal.ConfigLoad(deployment, false, appLogger)
}

// info is a convenience to log a message at the Info level.
func info(msg string, a ...interface{}) {
	appLogger.Info(fmt.Sprintf(msg, a...))
}

// warn is a convenience to log a message at the Warn level.
func warn(msg string, a ...interface{}) {
	appLogger.Warn(fmt.Sprintf(msg, a...))
}

// die is a convenience to log a message at the Error level and exit non zero.
func die(msg string, a ...interface{}) {
	appLogger.Error(fmt.Sprintf(msg, a...))
	os.Exit(1)
}

// setupLogging is a function to provide a new logger who's logging depends on
// debug.
func setupLogging(debug bool) log15.Logger {
	myLogger := log15.New()
	logLevel := log15.LvlWarn
	if debug {
		logLevel = log15.LvlDebug
	}
	myLogger.SetHandler(log15.LvlFilterHandler(logLevel, l15h.CallerInfoHandler(log15.StderrHandler)))
	return myLogger
}

// printResult shows the lines of a failed Result in red on STDERR, and exits
// non zero if it failed.
func printResult(res pipeline.Result, okMsg string, a ...interface{}) {
	if res.OK {
		if okMsg != "" {
			fmt.Printf(okMsg+"\n", a...)
		}
		return
	}
	red := color.New(color.FgRed)
	for _, line := range res.Lines() {
		red.Fprintln(os.Stderr, line)
	}
	os.Exit(1)
}

// clusters loads the cluster inventory. Dies on error.
func clusters() *internal.Clusters {
	inv, err := internal.ClustersLoad(config.ClustersFile, config.ClusterPort, config.ClusterUser)
	if err != nil {
		die("could not load the clusters file %s: %s", config.ClustersFile, err)
	}
	return inv
}

// requireCluster dies unless --cluster names a cluster in the inventory.
func requireCluster(inv *internal.Clusters) {
	if cmdCluster == "" {
		die("--cluster is required; known clusters are %v", inv.Names())
	}
	if _, err := inv.Get(cmdCluster); err != nil {
		die("%s", err)
	}
}

// connector gives you a Connector to the clusters of the inventory.
func connector(inv *internal.Clusters) *remote.SSHConnector {
	return &remote.SSHConnector{
		Clusters:       inv,
		PrivateKeyPath: config.PrivateKeyPath,
		Timeout:        time.Duration(config.DialTimeout) * time.Second,
		Logger:         appLogger,
	}
}

// newPipeline gives you a Pipeline that records to the given history, which
// may be nil.
func newPipeline(conn remote.Connector, hist *history.DB) *pipeline.Pipeline {
	if hist == nil {
		return pipeline.New(&config, conn, nil, appLogger)
	}
	return pipeline.New(&config, conn, hist, appLogger)
}

// openHistory opens the history database, creating its directory as needed.
// Dies on error.
func openHistory() *history.DB {
	if err := os.MkdirAll(filepath.Dir(config.HistoryFile), os.ModePerm); err != nil {
		die("could not create the directory for %s: %s", config.HistoryFile, err)
	}
	db, err := history.Open(config.HistoryFile, appLogger)
	if err != nil {
		die("%s", err)
	}
	return db
}

// signalContext gives you a context that is cancelled when the user hits
// ctrl-c or we are sent SIGTERM.
func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}
