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
Package pipeline runs a tool through the stages that get it onto a cluster:
writing its config file, validating it, building its scripts and submitting
them to the cluster's scheduler.

    import "github.com/GGFHF/ngscloud/pipeline"
    p := pipeline.New(config, connector, historyDB, logger)
    res := p.WriteConfig("cd-hit-est", map[string]string{"experiment_id": "exp001", ...})
    // the user edits the file
    res = p.ValidateConfig("cd-hit-est", true)
    if !res.OK {
        for _, line := range res.Lines() {
            fmt.Println(line)
        }
    }
    ok := p.Submit(ctx, "cluster1", "cd-hit-est", internal.NewLineSink(os.Stdout))

Every stage reports expected failures in its Result (or, for Submit, to its
sink) rather than returning an error.
*/
package pipeline

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/GGFHF/ngscloud/conffile"
	"github.com/GGFHF/ngscloud/history"
	"github.com/GGFHF/ngscloud/internal"
	"github.com/GGFHF/ngscloud/remote"
	"github.com/GGFHF/ngscloud/script"
	"github.com/GGFHF/ngscloud/tool"
	"github.com/inconshreveable/log15"
)

// Result is the outcome of a stage: OK, or every problem found. Summary, if
// set, is a closing line for display after the Errors.
type Result struct {
	OK      bool
	Errors  []string
	Summary string
}

// Lines returns the Errors followed by the Summary, for display.
func (r Result) Lines() []string {
	lines := make([]string, len(r.Errors), len(r.Errors)+1)
	copy(lines, r.Errors)
	if r.Summary != "" {
		lines = append(lines, r.Summary)
	}
	return lines
}

func success() Result {
	return Result{OK: true}
}

func failure(errs ...string) Result {
	return Result{Errors: errs}
}

// Recorder stores the record of a submitted run.
type Recorder interface {
	Add(r *history.Run) error
}

// Pipeline runs the stages for any registered tool.
type Pipeline struct {
	config  *internal.Config
	layout  tool.Layout
	conn    remote.Connector
	history Recorder

	// Now is the clock run directories are named from.
	Now func() time.Time

	logger log15.Logger
}

// New returns a Pipeline that reads and writes config files and scripts
// where the config says, connects to clusters with conn, and records
// submissions in rec (which may be nil).
func New(config *internal.Config, conn remote.Connector, rec Recorder, logger log15.Logger) *Pipeline {
	return &Pipeline{
		config:  config,
		layout:  config.Layout(),
		conn:    conn,
		history: rec,
		Now:     time.Now,
		logger:  logger.New("pkg", "pipeline"),
	}
}

// ConfigFile returns the path of a tool's config file.
func (p *Pipeline) ConfigFile(code string) (string, error) {
	spec, err := tool.Get(code)
	if err != nil {
		return "", err
	}
	return p.config.ConfigFile(spec), nil
}

// WriteConfig creates the tool's config file from its defaults, with the
// identification values taken from ident. Any existing file is replaced.
func (p *Pipeline) WriteConfig(code string, ident map[string]string) Result {
	spec, err := tool.Get(code)
	if err != nil {
		return failure(err.Error())
	}
	path := p.config.ConfigFile(spec)
	if err = spec.Schema.Write(path, spec.Header(), ident); err != nil {
		p.logger.Error("config file not written", "tool", code, "path", path, "err", err)
		return failure(fmt.Sprintf("The file %s can not be created: %s", path, err))
	}
	p.logger.Debug("config file written", "tool", code, "path", path)
	return success()
}

// ValidateConfig checks every key of the tool's config file, and the rules
// between them, reporting every problem found. Strict and lenient
// validation currently apply the same checks.
func (p *Pipeline) ValidateConfig(code string, strict bool) Result {
	spec, err := tool.Get(code)
	if err != nil {
		return failure(err.Error())
	}
	_, res := p.check(spec)
	p.logger.Debug("config file validated", "tool", code, "strict", strict, "ok", res.OK, "errors", len(res.Errors))
	return res
}

// check loads and checks the tool's config file, returning its options when
// valid.
func (p *Pipeline) check(spec *tool.Spec) (opts *conffile.Options, res Result) {
	path := p.config.ConfigFile(spec)
	defer func() {
		if r := recover(); r != nil {
			p.logger.Error("config file check panicked", "tool", spec.Code, "path", path, "panic", r)
			opts = nil
			res = failure(fmt.Sprintf("The syntax is WRONG: %v", r))
			res.Summary = invalidSummary(spec)
		}
	}()

	set, err := conffile.Load(path)
	if err != nil {
		res = failure(loadError(path, err))
		res.Summary = invalidSummary(spec)
		return nil, res
	}
	opts, msgs := spec.Check(set)
	if len(msgs) > 0 {
		res = failure(msgs...)
		res.Summary = invalidSummary(spec)
		return nil, res
	}
	return opts, success()
}

func loadError(path string, err error) string {
	if serr, ok := err.(*conffile.SyntaxError); ok {
		return fmt.Sprintf("The syntax is WRONG in %s at %s", path, serr)
	}
	return fmt.Sprintf("The file %s can not be read: %s", path, err)
}

func invalidSummary(spec *tool.Spec) string {
	return fmt.Sprintf("The %s config file is not valid. Please, correct it or recreate it.", spec.Name)
}

// BuildScript renders the tool's process script for a run on the cluster
// into the local temp dir, returning its path. The config file should
// already have been validated.
func (p *Pipeline) BuildScript(code, cluster, runDir string) (string, Result) {
	spec, err := tool.Get(code)
	if err != nil {
		return "", failure(err.Error())
	}
	opts, res := p.check(spec)
	if !res.OK {
		return "", res
	}
	return p.buildScript(spec, opts, cluster, runDir)
}

func (p *Pipeline) buildScript(spec *tool.Spec, opts *conffile.Options, cluster, runDir string) (string, Result) {
	proc, err := script.New(&tool.Invocation{
		Spec:    spec,
		Layout:  p.layout,
		Options: opts,
		Cluster: cluster,
		RunDir:  runDir,
	}, p.config.MailRecipient)
	if err != nil {
		return "", failure(fmt.Sprintf("The %s process script can not be built: %s", spec.Name, err))
	}
	path, err := proc.WriteScript(p.config.TempDir)
	if err != nil {
		return "", failure(fmt.Sprintf("The file %s can not be created: %s", filepath.Join(p.config.TempDir, spec.ScriptBasename()), err))
	}
	p.logger.Debug("process script built", "tool", spec.Code, "path", path, "rundir", runDir)
	return path, success()
}

// BuildStarter renders the tool's starter script for a run into the local
// temp dir, returning its path.
func (p *Pipeline) BuildStarter(code, runDir string) (string, Result) {
	spec, err := tool.Get(code)
	if err != nil {
		return "", failure(err.Error())
	}
	proc := &script.Process{Spec: spec, RunDir: runDir}
	path, err := proc.WriteStarter(p.config.TempDir)
	if err != nil {
		return "", failure(fmt.Sprintf("The file %s can not be created: %s", filepath.Join(p.config.TempDir, spec.StarterBasename()), err))
	}
	p.logger.Debug("starter script built", "tool", spec.Code, "path", path, "rundir", runDir)
	return path, success()
}
