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

// This file has the checks that are made on the master node before anything
// is submitted to it.

import (
	"context"
	"strings"

	"github.com/GGFHF/ngscloud/tool"
)

// Node state codes, as reported by the cloud provider for an instance.
const (
	StateUnknown      = -1
	StatePending      = 0
	StateRunning      = 16
	StateShuttingDown = 32
	StateTerminated   = 48
	StateStopping     = 64
	StateStopped      = 80
)

// StateName returns the name of a node state code.
func StateName(code int) string {
	switch code {
	case StatePending:
		return "pending"
	case StateRunning:
		return "running"
	case StateShuttingDown:
		return "shutting-down"
	case StateTerminated:
		return "terminated"
	case StateStopping:
		return "stopping"
	case StateStopped:
		return "stopped"
	}
	return "unknown"
}

// Provisioned tells you if the spec's tool environment is installed on the
// node.
func Provisioned(ctx context.Context, c Commander, spec *tool.Spec, layout tool.Layout) (bool, error) {
	stdout, _, err := c.RunCmd(ctx, spec.ProvisionedCmd(layout))
	if err != nil {
		return false, err
	}
	for _, line := range strings.Split(stdout, "\n") {
		if strings.TrimSpace(line) == "RC=0" {
			return true, nil
		}
	}
	return false, nil
}

// DirExists tells you if dir is a directory on the node.
func DirExists(ctx context.Context, c Commander, dir string) bool {
	_, _, err := c.RunCmd(ctx, "[ -d "+tool.Quote(dir)+" ]")
	return err == nil
}

// MkDir creates a directory (and its parents as necessary) on the node.
func MkDir(ctx context.Context, c Commander, dir string) error {
	if DirExists(ctx, c, dir) {
		return nil
	}
	_, _, err := c.RunCmd(ctx, "mkdir -p "+tool.Quote(dir))
	return err
}
