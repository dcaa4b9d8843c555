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

/*
Package conffile reads and writes the per-tool key/value config files that
users edit before a remote run.

The format is line based: lines starting with # are comments, [name] starts a
section, and data lines are "key = value", optionally followed by padding and
a # explanatory comment that is never read back:

    # identification
    [identification]
    experiment_id = exp001                             # experiment identification

A Schema declares the sections and typed keys a tool expects. Schema.Write()
renders a fresh file with defaults; Load() or Parse() read a file back into an
OptionSet; Schema.Coerce() type- and range-checks it, collecting every
problem.

    set, err := conffile.Load(path)
    opts, err := schema.Coerce(set)
    threads := opts.Int("CD-HIT-EST parameters", "threads")
*/
package conffile
