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

package conffile

// This file deals with the free-form other_parameters extension syntax:
//   --name-1[=value-1][; --name-2[=value-2][; ...]]

import (
	"fmt"
	"regexp"
	"strings"
)

var paramNameRegex = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9_.-]*$`)

// Param is one parsed --name[=value] token.
type Param struct {
	Name     string
	Value    string
	HasValue bool
}

// String returns the token in the --name[=value] form it was written in.
func (p Param) String() string {
	if p.HasValue {
		return "--" + p.Name + "=" + p.Value
	}
	return "--" + p.Name
}

// ParseParams parses a ;-separated list of --name[=value] tokens. The literal
// NONE (in any case) and the empty string give no parameters. Every malformed
// token is reported, not just the first.
func ParseParams(raw string) ([]Param, []error) {
	raw = strings.TrimSpace(raw)
	if raw == "" || strings.EqualFold(raw, None) {
		return nil, nil
	}

	var params []Param
	var errs []error
	for _, token := range strings.Split(raw, ";") {
		token = strings.TrimSpace(token)
		if token == "" {
			continue
		}
		if !strings.HasPrefix(token, "--") {
			errs = append(errs, fmt.Errorf("%s does not start with --", token))
			continue
		}

		p := Param{Name: token[2:]}
		if eq := strings.Index(p.Name, "="); eq >= 0 {
			p.Value = strings.TrimSpace(p.Name[eq+1:])
			p.Name = p.Name[:eq]
			p.HasValue = true
			if p.Value == "" {
				errs = append(errs, fmt.Errorf("%s has an empty value", token))
				continue
			}
		}
		p.Name = strings.TrimSpace(p.Name)
		if !paramNameRegex.MatchString(p.Name) {
			errs = append(errs, fmt.Errorf("%s does not have a valid parameter name", token))
			continue
		}
		params = append(params, p)
	}
	return params, errs
}
