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

// this file implements the inventory of clusters jobs can be submitted to

import (
	"fmt"
	"os"
	"sort"

	"github.com/jinzhu/configor"
)

// Node is a cluster node that can be reached over ssh.
type Node struct {
	Host string
	Port int
	User string

	// StateCommand, if set, is run on the node to print its numeric state
	// code; otherwise a node that runs commands is taken to be running.
	StateCommand string `yaml:"state_command"`
}

// Cluster is a named grid engine cluster. Jobs are submitted from its master
// node.
type Cluster struct {
	Name   string
	Master Node
}

// Clusters is the inventory of known clusters, as read from the clusters
// file, eg.
//
//     clusters:
//       - name: cluster1
//         master:
//           host: 10.0.0.12
//           port: 22
//           user: ngscloud
type Clusters struct {
	Clusters []Cluster
}

// ClustersLoad reads the clusters file at path. Node ports and users that
// aren't given take the supplied defaults. A missing file is an empty
// inventory.
func ClustersLoad(path string, defaultPort int, defaultUser string) (*Clusters, error) {
	inv := &Clusters{}
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return inv, nil
		}
		return nil, err
	}

	if err := configor.Load(inv, path); err != nil {
		return nil, err
	}

	seen := make(map[string]bool)
	for i := range inv.Clusters {
		c := &inv.Clusters[i]
		if c.Name == "" || c.Master.Host == "" {
			return nil, fmt.Errorf("cluster %d in %s needs a name and a master host", i+1, path)
		}
		if seen[c.Name] {
			return nil, fmt.Errorf("cluster %s is defined more than once in %s", c.Name, path)
		}
		seen[c.Name] = true
		if c.Master.Port == 0 {
			c.Master.Port = defaultPort
		}
		if c.Master.User == "" {
			c.Master.User = defaultUser
		}
	}
	return inv, nil
}

// Get returns the named cluster.
func (c *Clusters) Get(name string) (Cluster, error) {
	for _, cluster := range c.Clusters {
		if cluster.Name == name {
			return cluster, nil
		}
	}
	return Cluster{}, fmt.Errorf("cluster %s is not in the clusters file", name)
}

// Names returns the names of every cluster, sorted.
func (c *Clusters) Names() []string {
	names := make([]string, len(c.Clusters))
	for i, cluster := range c.Clusters {
		names[i] = cluster.Name
	}
	sort.Strings(names)
	return names
}
