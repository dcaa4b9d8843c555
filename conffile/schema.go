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

// This file contains the key schema and the typed coercion of an OptionSet
// against it.

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/hashicorp/go-multierror"
)

// Kind is the type of value a key holds.
type Kind int

// The value kinds a Key can declare.
const (
	String Kind = iota
	Int
	Float
	Enum
	Path
	List
	Params
)

func (k Kind) noun() string {
	switch k {
	case Int:
		return "an integer number"
	case Float:
		return "a float number"
	}
	return ""
}

// Check is a validity predicate on an already type-coerced Value. Desc
// completes the sentence `the key "x" has to be <kind noun> <Desc>`.
type Check struct {
	Desc string
	Test func(v Value) bool
}

// AtLeast checks that a numeric value is >= min.
func AtLeast(min float64) Check {
	return Check{
		Desc: fmt.Sprintf("greater than or equal to %v", min),
		Test: func(v Value) bool { return v.Number() >= min },
	}
}

// Between checks that a numeric value is within [min, max].
func Between(min, max float64) Check {
	return Check{
		Desc: fmt.Sprintf("between %v and %v", min, max),
		Test: func(v Value) bool { n := v.Number(); return n >= min && n <= max },
	}
}

// GreaterThan checks that a numeric value is > min.
func GreaterThan(min float64) Check {
	return Check{
		Desc: fmt.Sprintf("greater than %v", min),
		Test: func(v Value) bool { return v.Number() > min },
	}
}

// OddBetween checks that an integer value is odd and within [min, max].
func OddBetween(min, max int64) Check {
	return Check{
		Desc: fmt.Sprintf("odd and between %d and %d", min, max),
		Test: func(v Value) bool { return v.Int%2 == 1 && v.Int >= min && v.Int <= max },
	}
}

// NotEmpty checks that a value has some non-blank content.
var NotEmpty = Check{
	Desc: "a non-empty value",
	Test: func(v Value) bool { return v.Raw != "" },
}

var safeName = regexp.MustCompile(`^[A-Za-z0-9_.-]+$`)

// SafeName checks that a value can be used as one component of a remote path
// and as a word of a shell command without quoting.
var SafeName = Check{
	Desc: "a name made only of letters, digits, '_', '.' and '-'",
	Test: func(v Value) bool { return safeName.MatchString(v.Raw) && v.Raw != "." && v.Raw != ".." },
}

// HasPrefix checks that a string value starts with one of the given
// prefixes.
func HasPrefix(desc string, prefixes ...string) Check {
	return Check{
		Desc: desc,
		Test: func(v Value) bool {
			for _, prefix := range prefixes {
				if strings.HasPrefix(v.Raw, prefix) {
					return true
				}
			}
			return false
		},
	}
}

// Key describes one key of a config file section.
type Key struct {
	Name    string
	Kind    Kind
	Default string
	Comment string

	// Values are the allowed values of an Enum key, matched case
	// insensitively.
	Values []string

	// Checks are applied in order once the raw value has been coerced.
	Checks []Check

	// Reserved are the parameter names a Params key may not contain because
	// the tool sets them itself.
	Reserved []string

	// NoneAllowed lets the literal NONE through without any type checks.
	NoneAllowed bool

	// Optional keys may be absent from the file.
	Optional bool

	// Derive, if set, computes the value written for this key at file
	// creation time from the other identification values.
	Derive func(ident map[string]string) string
}

// Section is a named group of keys. Only keys in an Identification section
// take caller supplied values when a file is created; all other keys are
// written with their defaults.
type Section struct {
	Name           string
	Comment        string
	Identification bool
	Keys           []Key
}

// Schema is the ordered list of sections of a tool's config file.
type Schema []Section

// Value is a coerced key value. Only the field matching the Key's Kind is
// meaningful, except Raw which always holds the trimmed text (canonicalised
// for Enum keys).
type Value struct {
	Raw    string
	Int    int64
	Float  float64
	List   []string
	Params []Param
	None   bool
}

// Number returns Int or Float as a float64, for numeric Checks.
func (v Value) Number() float64 {
	if v.Float != 0 {
		return v.Float
	}
	return float64(v.Int)
}

// IsNone tells you if the key held the literal NONE.
func (v Value) IsNone() bool {
	return v.None
}

// KeyError describes a problem with one key.
type KeyError struct {
	Section string
	Key     string
	Msg     string
}

func (e *KeyError) Error() string {
	return fmt.Sprintf("*** ERROR: the key \"%s\" %s.", e.Key, e.Msg)
}

// Options is an OptionSet whose schema keys have been coerced to typed
// Values. Keys that failed coercion are absent.
type Options struct {
	raw    OptionSet
	values map[string]map[string]Value
}

// NewOptions returns an empty Options around the given raw set.
func NewOptions(raw OptionSet) *Options {
	return &Options{raw: raw, values: make(map[string]map[string]Value)}
}

func (o *Options) set(section, key string, v Value) {
	if _, found := o.values[section]; !found {
		o.values[section] = make(map[string]Value)
	}
	o.values[section][key] = v
}

// Value returns the coerced value of a key, and whether it coerced
// successfully.
func (o *Options) Value(section, key string) (Value, bool) {
	keys, found := o.values[section]
	if !found {
		return Value{}, false
	}
	v, found := keys[key]
	return v, found
}

// String returns the Raw text of a key, or the empty string.
func (o *Options) String(section, key string) string {
	v, _ := o.Value(section, key)
	return v.Raw
}

// Int returns the integer value of a key, or 0.
func (o *Options) Int(section, key string) int64 {
	v, _ := o.Value(section, key)
	return v.Int
}

// Float returns the float value of a key, or 0.
func (o *Options) Float(section, key string) float64 {
	v, _ := o.Value(section, key)
	return v.Float
}

// List returns the list value of a key, or nil.
func (o *Options) List(section, key string) []string {
	v, _ := o.Value(section, key)
	return v.List
}

// Params returns the parsed other_parameters of a key, or nil.
func (o *Options) Params(section, key string) []Param {
	v, _ := o.Value(section, key)
	return v.Params
}

// IsNone tells you if a key held the literal NONE.
func (o *Options) IsNone(section, key string) bool {
	v, _ := o.Value(section, key)
	return v.None
}

// Raw returns the underlying OptionSet.
func (o *Options) Raw() OptionSet {
	return o.raw
}

// Coerce checks every key of the schema against the given set, returning the
// typed Options of the keys that were fine, and a *multierror.Error holding a
// *KeyError for every problem found (no early exit).
func (s Schema) Coerce(set OptionSet) (*Options, error) {
	opts := NewOptions(set)
	var merr *multierror.Error
	for _, section := range s {
		for _, key := range section.Keys {
			raw, found := set.Get(section.Name, key.Name)
			if !found {
				if !key.Optional {
					merr = multierror.Append(merr, &KeyError{section.Name, key.Name, fmt.Sprintf("is not found in the section \"%s\"", section.Name)})
				}
				continue
			}

			v, errs := key.coerce(raw)
			if len(errs) > 0 {
				for _, err := range errs {
					merr = multierror.Append(merr, &KeyError{section.Name, key.Name, err.Error()})
				}
				continue
			}
			opts.set(section.Name, key.Name, v)
		}
	}
	return opts, merr.ErrorOrNil()
}

// coerce converts a raw value according to the key's Kind and applies its
// Checks.
func (k Key) coerce(raw string) (Value, []error) {
	raw = strings.TrimSpace(raw)
	v := Value{Raw: raw}
	if strings.EqualFold(raw, None) {
		v.Raw = None
		v.None = true
		if k.NoneAllowed || k.Kind == Params {
			return v, nil
		}
		if k.Kind == Enum && k.allows(None) {
			return v, nil
		}
	}

	switch k.Kind {
	case Int:
		i, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return v, []error{k.invalid()}
		}
		v.Int = i
	case Float:
		f, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return v, []error{k.invalid()}
		}
		v.Float = f
	case Enum:
		canonical := ""
		for _, allowed := range k.Values {
			if strings.EqualFold(allowed, raw) {
				canonical = allowed
				break
			}
		}
		if canonical == "" {
			return v, []error{fmt.Errorf("has to be %s", strings.Join(k.Values, " or "))}
		}
		v.Raw = canonical
	case Path:
		if raw == "" || v.None || strings.ContainsAny(raw, " \t") {
			return v, []error{fmt.Errorf("has to be a path without blanks")}
		}
	case List:
		if v.None {
			return v, []error{fmt.Errorf("has to be a comma separated list of values")}
		}
		for _, item := range strings.Split(raw, ",") {
			if item = strings.TrimSpace(item); item != "" {
				v.List = append(v.List, item)
			}
		}
		if len(v.List) == 0 {
			return v, []error{fmt.Errorf("has to be a comma separated list of values")}
		}
	case Params:
		params, errs := ParseParams(raw)
		for i, err := range errs {
			errs[i] = fmt.Errorf("has a wrong format: %s", err)
		}
		for _, p := range params {
			for _, reserved := range k.Reserved {
				if p.Name == reserved {
					errs = append(errs, fmt.Errorf("has the parameter --%s, which is not allowed because it is set by another key or by the process itself", p.Name))
					break
				}
			}
		}
		if len(errs) > 0 {
			return v, errs
		}
		v.Params = params
		return v, nil
	}

	for _, check := range k.Checks {
		if !check.Test(v) {
			return v, []error{k.failed(check)}
		}
	}
	return v, nil
}

func (k Key) allows(value string) bool {
	for _, allowed := range k.Values {
		if strings.EqualFold(allowed, value) {
			return true
		}
	}
	return false
}

// invalid describes what the key should have been, for kind coercion
// failures.
func (k Key) invalid() error {
	descs := make([]string, 0, len(k.Checks))
	for _, check := range k.Checks {
		descs = append(descs, check.Desc)
	}
	msg := strings.TrimSpace(k.Kind.noun() + " " + strings.Join(descs, " and "))
	if k.NoneAllowed {
		msg += " or NONE"
	}
	return fmt.Errorf("has to be %s", msg)
}

func (k Key) failed(check Check) error {
	msg := strings.TrimSpace(k.Kind.noun() + " " + check.Desc)
	if k.NoneAllowed {
		msg += " or NONE"
	}
	return fmt.Errorf("has to be %s", msg)
}
