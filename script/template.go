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

package script

// processTemplate is the bash script run on the cluster for one tool run. It
// computes its own timestamps at run time; nothing time dependent is
// rendered into it.
const processTemplate = `#!/bin/bash

#-------------------------------------------------------------------------------

SEP="#########################################"
TIME_FORMAT="$SEP\nElapsed real time (s): %e\nCPU time in kernel mode (s): %S\nCPU time in user mode (s): %U\nPercentage of CPU: %P\nMaximum resident set size(Kb): %M\nAverage total memory use (Kb):%K"

#-------------------------------------------------------------------------------

export PATH={{.MinicondaBin}}:$PATH
source activate {{.Env}}

RUN_DIR={{quote .RunDir}}
SCRIPT_STATUS_OK="$RUN_DIR/{{.Code}}-process.ok"
SCRIPT_STATUS_WRONG="$RUN_DIR/{{.Code}}-process.wrong"
RECIPIENT={{quote .Mail}}
mkdir --parents "$RUN_DIR"
if [ -f "$SCRIPT_STATUS_OK" ]; then rm "$SCRIPT_STATUS_OK"; fi
if [ -f "$SCRIPT_STATUS_WRONG" ]; then rm "$SCRIPT_STATUS_WRONG"; fi

#-------------------------------------------------------------------------------

function init
{
    INIT_DATETIME=` + "`date --utc +%s`" + `
    FORMATTED_INIT_DATETIME=` + "`date --date=\"@$INIT_DATETIME\" \"+%Y-%m-%d %H:%M:%S\"`" + `
    echo "$SEP"
    echo "Script started in node $HOSTNAME of cluster {{.Cluster}} at $FORMATTED_INIT_DATETIME UTC."
}

#-------------------------------------------------------------------------------

function run_{{.FuncName}}_process
{
    cd "$RUN_DIR"
{{- range .Commands}}
    echo "$SEP"
    echo "{{.Description}} ..."
{{- range .Setup}}
    {{.}}
    RC=$?
    if [ $RC -ne 0 ]; then manage_error {{firstWord .}} $RC; fi
{{- end}}
    /usr/bin/time \
        --format="$TIME_FORMAT" \
        {{.Binary}}{{range .Args}} \
            {{.}}{{end}}{{if .Stdout}} \
            > {{quote .Stdout}}{{end}}
    RC=$?
    if [ $RC -ne 0 ]; then manage_error {{.Binary}} $RC; fi
{{- range .After}}
    {{.}}
    RC=$?
    if [ $RC -ne 0 ]; then manage_error {{firstWord .}} $RC; fi
{{- end}}
    echo "{{.Description}} is done."
{{- end}}
}

#-------------------------------------------------------------------------------

function end
{
    END_DATETIME=` + "`date --utc +%s`" + `
    FORMATTED_END_DATETIME=` + "`date --date=\"@$END_DATETIME\" \"+%Y-%m-%d %H:%M:%S\"`" + `
    calculate_duration
    echo "$SEP"
    echo "Script ended OK at $FORMATTED_END_DATETIME UTC with a run duration of $DURATION s ($FORMATTED_DURATION)."
    echo "$SEP"
    send_mail "{{.ProcessName}} ended OK" "The {{.ProcessName}} in node $HOSTNAME of cluster {{.Cluster}} ended OK at $FORMATTED_END_DATETIME UTC with a run duration of $DURATION s ($FORMATTED_DURATION). Please review its log."
    touch "$SCRIPT_STATUS_OK"
    exit 0
}

#-------------------------------------------------------------------------------

function manage_error
{
    END_DATETIME=` + "`date --utc +%s`" + `
    FORMATTED_END_DATETIME=` + "`date --date=\"@$END_DATETIME\" \"+%Y-%m-%d %H:%M:%S\"`" + `
    calculate_duration
    echo "$SEP"
    echo "ERROR: $1 returned error $2"
    echo "Script ended WRONG at $FORMATTED_END_DATETIME UTC with a run duration of $DURATION s ($FORMATTED_DURATION)."
    echo "$SEP"
    send_mail "{{.ProcessName}} ended WRONG" "The {{.ProcessName}} in node $HOSTNAME of cluster {{.Cluster}} ended WRONG at $FORMATTED_END_DATETIME UTC with a run duration of $DURATION s ($FORMATTED_DURATION). Please review its log."
    touch "$SCRIPT_STATUS_WRONG"
    exit 3
}

#-------------------------------------------------------------------------------

function send_mail
{
    if [ -n "$RECIPIENT" ]; then
        mail --append "Content-type: text/html;" --subject "$1" "$RECIPIENT" <<< "$2"
    fi
}

#-------------------------------------------------------------------------------

function calculate_duration
{
    DURATION=$(($END_DATETIME - $INIT_DATETIME))
    HH=$(($DURATION / 3600))
    MM=$(($DURATION % 3600 / 60))
    SS=$(($DURATION % 60))
    FORMATTED_DURATION=` + "`printf \"%03d:%02d:%02d\\n\" $HH $MM $SS`" + `
}

#-------------------------------------------------------------------------------

init
run_{{.FuncName}}_process
end
`

// starterTemplate runs the process script with all its output going to the
// run's log file.
const starterTemplate = `#!/bin/bash

#-------------------------------------------------------------------------------

{{quote .ScriptPath}} &>{{quote .LogPath}}
`
