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

// Package script renders the bash scripts that run a tool on a cluster: the
// process script, which times each of the tool's commands and reports how
// the run went, and the one line starter script the scheduler is given.
package script

import (
	"bytes"
	"os"
	"path"
	"path/filepath"
	"strings"
	"text/template"

	"github.com/GGFHF/ngscloud/tool"
)

var (
	funcs = template.FuncMap{
		"quote":     tool.Quote,
		"firstWord": firstWord,
	}
	processTmpl = template.Must(template.New("process").Funcs(funcs).Parse(processTemplate))
	starterTmpl = template.Must(template.New("starter").Funcs(funcs).Parse(starterTemplate))
)

// Process holds everything a tool's scripts are rendered from.
type Process struct {
	Spec     *tool.Spec
	Layout   tool.Layout
	Cluster  string
	RunDir   string
	Mail     string
	Commands []*tool.Command
}

// New asks the invocation's tool for its commands and returns a Process
// ready to render. Mail is the recipient of the run notifications; if empty
// no mail is sent.
func New(inv *tool.Invocation, mail string) (*Process, error) {
	cmds, err := inv.Spec.Build(inv)
	if err != nil {
		return nil, err
	}
	return &Process{
		Spec:     inv.Spec,
		Layout:   inv.Layout,
		Cluster:  inv.Cluster,
		RunDir:   inv.RunDir,
		Mail:     mail,
		Commands: cmds,
	}, nil
}

// Code is the tool code.
func (p *Process) Code() string { return p.Spec.Code }

// Env is the named environment the script activates.
func (p *Process) Env() string { return p.Spec.Env }

// MinicondaBin is prepended to PATH.
func (p *Process) MinicondaBin() string { return p.Layout.MinicondaBin() }

// ProcessName is used in notifications.
func (p *Process) ProcessName() string { return p.Spec.ProcessName() }

// FuncName is the tool code as a bash identifier.
func (p *Process) FuncName() string {
	return strings.NewReplacer("-", "_", ".", "_").Replace(p.Spec.Code)
}

// ScriptPath is the remote path of the process script.
func (p *Process) ScriptPath() string {
	return path.Join(p.RunDir, p.Spec.ScriptBasename())
}

// StarterPath is the remote path of the starter script.
func (p *Process) StarterPath() string {
	return path.Join(p.RunDir, p.Spec.StarterBasename())
}

// LogPath is the remote path of the run's log file.
func (p *Process) LogPath() string {
	return path.Join(p.RunDir, p.Spec.LogBasename())
}

// Script renders the process script. The same Process always renders the
// same bytes.
func (p *Process) Script() ([]byte, error) {
	var b bytes.Buffer
	err := processTmpl.Execute(&b, p)
	return b.Bytes(), err
}

// Starter renders the starter script.
func (p *Process) Starter() ([]byte, error) {
	var b bytes.Buffer
	err := starterTmpl.Execute(&b, p)
	return b.Bytes(), err
}

// WriteScript renders the process script into the local directory dir,
// returning its path.
func (p *Process) WriteScript(dir string) (string, error) {
	content, err := p.Script()
	if err != nil {
		return "", err
	}
	return writeExecutable(dir, p.Spec.ScriptBasename(), content)
}

// WriteStarter renders the starter script into the local directory dir,
// returning its path. Only Spec and RunDir need to be set.
func (p *Process) WriteStarter(dir string) (string, error) {
	content, err := p.Starter()
	if err != nil {
		return "", err
	}
	return writeExecutable(dir, p.Spec.StarterBasename(), content)
}

// WriteScripts renders both scripts into the local directory dir, returning
// the paths of the process script and the starter script.
func (p *Process) WriteScripts(dir string) (scriptPath, starterPath string, err error) {
	scriptPath, err = p.WriteScript(dir)
	if err != nil {
		return "", "", err
	}
	starterPath, err = p.WriteStarter(dir)
	return scriptPath, starterPath, err
}

func writeExecutable(dir, basename string, content []byte) (string, error) {
	if err := os.MkdirAll(dir, os.ModePerm); err != nil {
		return "", err
	}
	file := filepath.Join(dir, basename)
	return file, os.WriteFile(file, content, 0755)
}

func firstWord(line string) string {
	if fields := strings.Fields(line); len(fields) > 0 {
		return fields[0]
	}
	return ""
}
