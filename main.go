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
Package main is a stub for ngscloud's command line interface, with the actual
implementation in the cmd package.

ngscloud runs next generation sequencing tools (assemblers, read trimmers and
aligners, quality assessors) on the grid engine clusters you have access to,
without you having to write any scripts.

Basics

Every tool is driven by a config file. Create one with default parameters,
naming the datasets it works on:

    ngscloud config create trinity --ident experiment_id=exp001 \
      --ident read_dataset_id=SRR1 --ident read_file_1_list=reads_1.fastq \
      --ident read_file_2_list=reads_2.fastq

Edit the file by hand ('ngscloud config show trinity' tells you where it is),
then check and submit it:

    ngscloud config validate trinity
    ngscloud submit trinity --cluster cluster1

The run gets its own directory on the cluster, named after the tool and the
time it was submitted. Its result dataset can be used as the input of later
tools, eg. cd-hit-est or busco.

Package Overview

The conffile package implements the config file format: parsing, the typed
schemas of keys, and rendering a schema to a new file.

The tool package is the catalogue of supported tools. Each tool has a Spec
holding its config file schema, the rules between its keys and how its
commands are built.

The script package renders the bash process script that runs a tool's commands,
and the starter script the scheduler is given.

The remote package talks to clusters over ssh and sftp.

The pipeline package puts these together: writing, validating, building and
submitting.

The history package records submitted runs.

The internal package contains general utility functions, and most notably
config.go holds the code for how the command line interface deals with config
options.
*/
package main

import "github.com/GGFHF/ngscloud/cmd"

func main() {
	cmd.Execute()
}
