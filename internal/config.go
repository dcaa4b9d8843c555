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

package internal

// this file implements the config system used by the cmd package

import (
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"strings"

	"github.com/GGFHF/ngscloud/tool"
	"github.com/creasty/defaults"
	"github.com/inconshreveable/log15"
	"github.com/jinzhu/configor"
	"github.com/olekukonko/tablewriter"
)

const (
	configCommonBasename = ".ngscloud_config.yml"

	// Production is the name of the main deployment
	Production = "production"

	// Development is the name of the development deployment, used during testing
	Development = "development"

	// ConfigSourceEnvVar is a config value source
	ConfigSourceEnvVar = "env var"

	// ConfigSourceDefault is a config value source
	ConfigSourceDefault = "default"

	sourcesProperty = "sources"
)

// Config holds the configuration options for the submission pipeline: where
// things live locally, how to reach clusters and the directory layout of the
// clusters themselves.
type Config struct {
	ConfigDir       string `default:"~/.ngscloud/config"`
	TempDir         string `default:"~/.ngscloud/temp"`
	HistoryFile     string `default:"~/.ngscloud/history.db"`
	ClustersFile    string `default:"~/.ngscloud_clusters.yml"`
	PrivateKeyPath  string `default:"~/.ssh/id_rsa"`
	ClusterUser     string `default:""`
	ClusterPort     int    `default:"22"`
	DialTimeout     int    `default:"15"`
	BrowserCacheTTL int    `default:"300"`
	MailRecipient   string `default:""`
	AppDir          string `default:"/apps"`
	MinicondaDir    string `default:"/apps/Miniconda3"`
	ReadDir         string `default:"/volumes/data/reads"`
	ReferenceDir    string `default:"/volumes/data/references"`
	DatabaseDir     string `default:"/volumes/data/databases"`
	ResultDir       string `default:"/volumes/data/results"`
	SubmitCommand   string `default:"qsub -V -b n -cwd"`
	Deployment      string `default:"production"`
	sources         map[string]string
}

// merge compares existing to new Config values, and for each one that has
// changed, sets the given source on the changed property in our sources,
// and sets the new value on ourselves.
func (c *Config) merge(new *Config, source string) {
	v := reflect.ValueOf(*c)
	typeOfC := v.Type()
	vNew := reflect.ValueOf(*new)

	if c.sources == nil {
		c.sources = make(map[string]string)
	}

	for i := 0; i < v.NumField(); i++ {
		property := typeOfC.Field(i).Name
		if property == sourcesProperty {
			continue
		}

		if vNew.Field(i).Interface() != v.Field(i).Interface() {
			c.sources[property] = source

			adrField := reflect.ValueOf(c).Elem().Field(i)
			switch typeOfC.Field(i).Type.Kind() {
			case reflect.String:
				adrField.SetString(vNew.Field(i).String())
			case reflect.Int:
				adrField.SetInt(vNew.Field(i).Int())
			case reflect.Bool:
				adrField.SetBool(vNew.Field(i).Bool())
			}
		}
	}
}

// clone makes a new Config with our values.
func (c *Config) clone() *Config {
	new := &Config{}

	v := reflect.ValueOf(*c)
	typeOfC := v.Type()
	for i := 0; i < v.NumField(); i++ {
		property := typeOfC.Field(i).Name
		if property == sourcesProperty {
			continue
		}

		adrField := reflect.ValueOf(new).Elem().Field(i)
		switch typeOfC.Field(i).Type.Kind() {
		case reflect.String:
			adrField.SetString(v.Field(i).String())
		case reflect.Int:
			adrField.SetInt(v.Field(i).Int())
		case reflect.Bool:
			adrField.SetBool(v.Field(i).Bool())
		}
	}

	new.sources = make(map[string]string)
	for key, val := range c.sources {
		new.sources[key] = val
	}

	return new
}

// Source returns where the value of a Config field was defined.
func (c Config) Source(field string) string {
	if c.sources == nil {
		return ConfigSourceDefault
	}
	source, set := c.sources[field]
	if !set {
		return ConfigSourceDefault
	}
	return source
}

func (c Config) String() string {
	v := reflect.ValueOf(c)
	typeOfC := v.Type()

	tableString := &strings.Builder{}
	table := tablewriter.NewWriter(tableString)
	table.SetHeader([]string{"Config", "Value", "Source"})
	table.SetAlignment(tablewriter.ALIGN_LEFT)

	for i := 0; i < v.NumField(); i++ {
		property := typeOfC.Field(i).Name
		if property == sourcesProperty {
			continue
		}

		table.Append([]string{property, fmt.Sprintf("%v", v.Field(i).Interface()), c.Source(property)})
	}

	table.Render()
	return tableString.String()
}

// Layout returns the cluster directory roots that remote paths are built
// from.
func (c Config) Layout() tool.Layout {
	return tool.Layout{
		AppDir:       c.AppDir,
		MinicondaDir: c.MinicondaDir,
		ReadDir:      c.ReadDir,
		ReferenceDir: c.ReferenceDir,
		DatabaseDir:  c.DatabaseDir,
		ResultDir:    c.ResultDir,
	}
}

// ConfigFile is the local path of a tool's config file.
func (c Config) ConfigFile(s *tool.Spec) string {
	return filepath.Join(c.ConfigDir, s.ConfigBasename())
}

/*
ConfigLoad loads configuration settings from files and environment
variables. Note, this function exits on error, since without config we can't
do anything.

We prefer settings in config file in current dir (or the current dir's parent
dir if the useparentdir option is true (used for test scripts)) over config file
in home directory over config file in dir pointed to by NGSCLOUD_CONFIG_DIR.

The deployment argument determines if we read .ngscloud_config.production.yml
or .ngscloud_config.development.yml; we always read .ngscloud_config.yml. If
the empty string is supplied, deployment is development if you're in the git
repository directory. Otherwise, deployment is taken from the environment
variable NGSCLOUD_DEPLOYMENT, and if that's not set it defaults to production.

Settings found in no file can be set with the environment variable
NGSCLOUD_<setting name in caps>, eg.
export NGSCLOUD_MAILRECIPIENT="someone@example.com"
*/
func ConfigLoad(deployment string, useparentdir bool, logger log15.Logger) Config {
	pwd, err := os.Getwd()
	if err != nil {
		logger.Error(err.Error())
		os.Exit(1)
	}

	if useparentdir {
		pwd = filepath.Dir(pwd)
	}

	// if deployment not set on the command line
	if deployment != Development && deployment != Production {
		deployment = DefaultDeployment(logger)
	}
	// we don't os.Setenv("CONFIGOR_ENV", deployment) to stop configor loading
	// files we before we want it to
	err = os.Setenv("CONFIGOR_ENV_PREFIX", "NGSCLOUD")
	if err != nil {
		logger.Error(err.Error())
		os.Exit(1)
	}

	// because we want to know the source of every value, we can't take
	// advantage of configor.Load() being able to take all env vars and config
	// files at once. We do it repeatedly and merge results instead
	config := &Config{}
	if cerr := defaults.Set(config); cerr != nil {
		logger.Error(cerr.Error())
		os.Exit(1)
	}

	configEnv := &Config{}
	err = configor.Load(configEnv)
	if err != nil {
		logger.Error(err.Error())
		os.Exit(1)
	}
	config.merge(configEnv, ConfigSourceEnvVar)

	// read each config file and merge results
	configDeploymentBasename := ".ngscloud_config." + deployment + ".yml"

	if configDir := os.Getenv("NGSCLOUD_CONFIG_DIR"); configDir != "" {
		configLoadFromFile(config, filepath.Join(configDir, configCommonBasename), logger)
		configLoadFromFile(config, filepath.Join(configDir, configDeploymentBasename), logger)
	}

	home, herr := os.UserHomeDir()
	if herr != nil || home == "" {
		logger.Error("could not find home dir", "err", herr)
		os.Exit(1)
	}
	configLoadFromFile(config, filepath.Join(home, configCommonBasename), logger)
	configLoadFromFile(config, filepath.Join(home, configDeploymentBasename), logger)

	configLoadFromFile(config, filepath.Join(pwd, configCommonBasename), logger)
	configLoadFromFile(config, filepath.Join(pwd, configDeploymentBasename), logger)

	// adjust properties as needed
	config.Deployment = deployment

	// convert the possible ~/ in local paths to abs paths in the user's home
	config.ConfigDir = TildaToHome(config.ConfigDir)
	config.TempDir = TildaToHome(config.TempDir)
	config.HistoryFile = TildaToHome(config.HistoryFile)
	config.ClustersFile = TildaToHome(config.ClustersFile)
	config.PrivateKeyPath = TildaToHome(config.PrivateKeyPath)

	// development runs keep their local state apart from production
	if deployment == Development {
		config.ConfigDir += "_" + deployment
		config.TempDir += "_" + deployment
		config.HistoryFile += "_" + deployment
	}

	if config.ClusterUser == "" {
		if uname, uerr := Username(); uerr == nil {
			config.ClusterUser = uname
		}
	}

	return *config
}

func configLoadFromFile(config *Config, path string, logger log15.Logger) {
	_, err := os.Stat(path)
	if err != nil {
		return
	}

	configFile := config.clone()
	err = configor.Load(configFile, path)
	if err != nil {
		logger.Error(err.Error())
		os.Exit(1)
	}
	config.merge(configFile, path)
}

// IsProduction tells you if we're in the production deployment.
func (c Config) IsProduction() bool {
	return c.Deployment == Production
}

// IsDevelopment tells you if we're in the development deployment.
func (c Config) IsDevelopment() bool {
	return c.Deployment == Development
}

// DefaultDeployment works out the default deployment.
func DefaultDeployment(logger log15.Logger) string {
	pwd, err := os.Getwd()
	if err != nil {
		logger.Error(err.Error())
		os.Exit(1)
	}

	// if we're in the git repository
	var deployment string
	if _, err := os.Stat(filepath.Join(pwd, "pipeline", "submit.go")); err == nil {
		// force development
		deployment = Development
	} else {
		// default to production
		deployment = Production

		// and allow env var to override with development
		if deploymentEnv := os.Getenv("NGSCLOUD_DEPLOYMENT"); deploymentEnv != "" {
			if deploymentEnv == Development {
				deployment = Development
			}
		}
	}
	return deployment
}
