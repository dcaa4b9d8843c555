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

package pipeline

// This file contains the submission of a tool's scripts to a cluster.

import (
	"context"
	"fmt"
	"os"
	"path"
	"regexp"
	"sort"
	"strings"

	"github.com/GGFHF/ngscloud/history"
	"github.com/GGFHF/ngscloud/remote"
	"github.com/GGFHF/ngscloud/tool"
	multierror "github.com/hashicorp/go-multierror"
)

// qsubRegex finds the job id in the acknowledgement of a grid engine
// submission, eg. 'Your job 123 ("cd-hit-est-process-starter.sh") has been
// submitted'.
var qsubRegex = regexp.MustCompile(`^Your job(?:-array)? (\d+)`)

// Sink receives the progress lines of a submission.
type Sink interface {
	Printf(format string, args ...interface{})
}

// RunContext is everything about one submission: where it is going, what
// it is about and the sessions it has open.
type RunContext struct {
	Cluster    string
	Experiment string

	// Datasets are the dataset ids of the identification section, by key.
	Datasets map[string]string

	RunDir   string
	Commands remote.Commander
	Transfer remote.Transferer
}

// Close closes the transfer session and then the command session, whether
// or not the first close worked.
func (rc *RunContext) Close() error {
	var merr *multierror.Error
	if rc.Transfer != nil {
		if err := rc.Transfer.Close(); err != nil {
			merr = multierror.Append(merr, err)
		}
		rc.Transfer = nil
	}
	if rc.Commands != nil {
		if err := rc.Commands.Close(); err != nil {
			merr = multierror.Append(merr, err)
		}
		rc.Commands = nil
	}
	return merr.ErrorOrNil()
}

// DatasetKeys returns the keys of Datasets, sorted.
func (rc *RunContext) DatasetKeys() []string {
	keys := make([]string, 0, len(rc.Datasets))
	for key := range rc.Datasets {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}

// Submit validates the tool's config file, then creates a new run directory
// on the cluster's master node, uploads the tool's scripts there and submits
// the starter script to the scheduler. Progress and any errors are written
// to sink; the return value says if the job was submitted. Sessions that
// were opened are always closed before returning.
//
// Submit is not idempotent: every call makes a new run directory and job.
func (p *Pipeline) Submit(ctx context.Context, cluster, code string, sink Sink) bool {
	logger := p.logger.New("cluster", cluster, "tool", code)
	fail := func(format string, args ...interface{}) bool {
		msg := fmt.Sprintf(format, args...)
		logger.Error("submission failed", "err", msg)
		sink.Printf("*** ERROR: %s", msg)
		return false
	}

	spec, err := tool.Get(code)
	if err != nil {
		return fail("%s", err)
	}

	sink.Printf("Checking the %s config file ...", spec.Name)
	opts, res := p.check(spec)
	if !res.OK {
		for _, line := range res.Lines() {
			sink.Printf("*** ERROR: %s", line)
		}
		logger.Error("submission failed", "err", "invalid config file", "errors", len(res.Errors))
		return false
	}
	sink.Printf("The config file is OK.")

	rc := &RunContext{
		Cluster:    cluster,
		Experiment: opts.String(tool.IdentSection, "experiment_id"),
		Datasets:   make(map[string]string),
	}
	for key, value := range opts.Raw()[tool.IdentSection] {
		if strings.HasSuffix(key, "_dataset_id") {
			rc.Datasets[key] = value
		}
	}
	defer func() {
		sink.Printf("Closing the sessions ...")
		if errc := rc.Close(); errc != nil {
			logger.Warn("sessions not closed cleanly", "err", errc)
			sink.Printf("*** WARNING: %s", errc)
		}
	}()

	sink.Printf("Connecting to the master of cluster %s ...", cluster)
	rc.Commands, err = p.conn.Commands(ctx, cluster)
	if err != nil {
		return fail("%s", err)
	}
	rc.Transfer, err = p.conn.Transfer(ctx, cluster)
	if err != nil {
		return fail("%s", err)
	}
	sink.Printf("The sessions are open.")

	sink.Printf("Checking the state of the master ...")
	state, err := rc.Commands.NodeState(ctx)
	if err != nil {
		return fail("%s", err)
	}
	if state != remote.StateRunning {
		return fail("%s", remote.Error{Cluster: cluster, Op: "Submit", Err: remote.ErrNotRunning, Detail: remote.StateName(state)})
	}
	sink.Printf("The master is running.")

	sink.Printf("Checking %s is installed ...", spec.Name)
	provisioned, err := remote.Provisioned(ctx, rc.Commands, spec, p.layout)
	if err != nil {
		return fail("%s", err)
	}
	if !provisioned {
		return fail("%s", remote.Error{Cluster: cluster, Op: "Submit", Err: remote.ErrNotProvisioned, Detail: spec.Name + " (" + p.layout.EnvDir(spec.Env) + ")"})
	}
	sink.Printf("%s is installed.", spec.Name)

	rc.RunDir = p.layout.RunDir(rc.Experiment, spec.Code, p.Now())
	logger = logger.New("rundir", rc.RunDir)
	sink.Printf("Creating the run directory %s ...", rc.RunDir)
	if remote.DirExists(ctx, rc.Commands, rc.RunDir) {
		logger.Warn("run directory already exists; another run of this tool started in the same second")
		sink.Printf("*** WARNING: the run directory already exists and will be shared with an earlier run.")
	}
	if err = remote.MkDir(ctx, rc.Commands, rc.RunDir); err != nil {
		return fail("%s", err)
	}
	sink.Printf("The directory is created.")

	sink.Printf("Building the process script ...")
	if p.config.MailRecipient == "" {
		logger.Warn("no mail recipient configured")
		sink.Printf("*** WARNING: no mail recipient is set (mailrecipient), so no mail will be sent when the run ends.")
	}
	scriptPath, res := p.buildScript(spec, opts, cluster, rc.RunDir)
	if !res.OK {
		return fail("%s", strings.Join(res.Lines(), "; "))
	}
	remoteScript := path.Join(rc.RunDir, spec.ScriptBasename())
	sink.Printf("Uploading the process script to %s ...", remoteScript)
	if err = rc.Transfer.Upload(ctx, scriptPath, remoteScript); err != nil {
		return fail("%s", err)
	}

	sink.Printf("Building the process starter ...")
	starterPath, res := p.BuildStarter(spec.Code, rc.RunDir)
	if !res.OK {
		return fail("%s", strings.Join(res.Lines(), "; "))
	}
	remoteStarter := path.Join(rc.RunDir, spec.StarterBasename())
	sink.Printf("Uploading the process starter to %s ...", remoteStarter)
	if err = rc.Transfer.Upload(ctx, starterPath, remoteStarter); err != nil {
		return fail("%s", err)
	}
	sink.Printf("The files are uploaded.")

	sink.Printf("Setting on the run permission ...")
	for _, file := range []string{remoteScript, remoteStarter} {
		if err = rc.Transfer.Chmod(file, os.FileMode(0744)); err != nil {
			return fail("%s", err)
		}
	}
	sink.Printf("The run permission is set.")

	sink.Printf("Submitting the process starter ...")
	cmd := fmt.Sprintf("cd %s; %s %s", tool.Quote(rc.RunDir), p.config.SubmitCommand, tool.Quote(remoteStarter))
	stdout, stderr, err := rc.Commands.RunCmd(ctx, cmd)
	jobID := ""
	for _, line := range lines(stdout) {
		sink.Printf("%s", line)
		if matches := qsubRegex.FindStringSubmatch(line); matches != nil {
			jobID = matches[1]
		}
	}
	for _, line := range lines(stderr) {
		sink.Printf("%s", line)
	}
	if err != nil {
		return fail("%s", err)
	}
	if jobID == "" {
		logger.Warn("no job id in the submission output", "stdout", stdout)
	}

	if p.history != nil {
		errh := p.history.Add(&history.Run{
			Cluster:    cluster,
			Tool:       spec.Code,
			Experiment: rc.Experiment,
			RunDir:     rc.RunDir,
			JobID:      jobID,
			Submitted:  p.Now(),
		})
		if errh != nil {
			logger.Warn("run not recorded in the history", "err", errh)
		}
	}

	logger.Info("submitted", "job", jobID)
	sink.Printf("The %s has been submitted. Its log will be %s.", spec.ProcessName(), path.Join(rc.RunDir, spec.LogBasename()))
	return true
}

// lines splits command output into its non-empty lines.
func lines(output string) []string {
	var ls []string
	for _, line := range strings.Split(output, "\n") {
		if line = strings.TrimRight(line, "\r"); strings.TrimSpace(line) != "" {
			ls = append(ls, line)
		}
	}
	return ls
}
