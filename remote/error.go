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

package remote

import "fmt"

// Err* constants are found in our returned Errors under err.Err, so you can
// cast and check if it's a certain type of error.
const (
	ErrUnknownCluster = "cluster not in the inventory"
	ErrNoKey          = "private key could not be used"
	ErrDial           = "could not connect to the master node"
	ErrSession        = "could not open a session"
	ErrCmd            = "remote command failed"
	ErrCancelled      = "cancelled"
	ErrTransfer       = "file transfer failed"
	ErrNotRunning     = "master node is not running"
	ErrNotProvisioned = "tool is not installed"
)

// Error records an error and the cluster and operation that caused it.
type Error struct {
	Cluster string // the cluster's name
	Op      string // name of the method
	Err     string // one of our Err constants
	Detail  string // what the underlying library said, if anything
}

func (e Error) Error() string {
	if e.Detail == "" {
		return fmt.Sprintf("remote(%s) %s(): %s", e.Cluster, e.Op, e.Err)
	}
	return fmt.Sprintf("remote(%s) %s(): %s: %s", e.Cluster, e.Op, e.Err, e.Detail)
}
