// Copyright 2025 Mutinex Pty Ltd.
// Licensed under the MIT licence, see LICENCE file for details.

package meta

import (
	"github.com/juju/errors"
	"github.com/juju/schema"
)

var attrsChecker = schema.StrictFieldMap(
	schema.Fields{
		"name":        schema.String(),
		"domain":      schema.String(),
		"location":    schema.String(),
		"locations":   schema.List(schema.String()),
		"preview":     schema.Bool(),
		"prefix":      schema.String(),
		"omit-prefix": schema.Bool(),
		"omit-domain": schema.Bool(),
	},
	schema.Defaults{
		"domain":      DefaultDomain,
		"location":    schema.Omit,
		"locations":   schema.Omit,
		"preview":     false,
		"prefix":      DefaultPrefix,
		"omit-prefix": false,
		"omit-domain": false,
	},
)

// NewFromAttrs resolves a Meta from a loose attribute map, typically
// read from stack configuration. Unknown keys and ill-typed values are
// rejected; absent keys take the library defaults.
func NewFromAttrs(attrs map[string]interface{}) (*Meta, error) {
	coerced, err := attrsChecker.Coerce(attrs, nil)
	if err != nil {
		return nil, errors.Annotatef(err, "invalid meta attributes")
	}
	valid := coerced.(map[string]interface{})

	in := Input{
		Name:       valid["name"].(string),
		Domain:     valid["domain"].(string),
		Preview:    valid["preview"].(bool),
		Prefix:     valid["prefix"].(string),
		OmitPrefix: valid["omit-prefix"].(bool),
		OmitDomain: valid["omit-domain"].(bool),
	}
	if v, ok := valid["location"]; ok {
		in.Location = v.(string)
	}
	if v, ok := valid["locations"]; ok {
		for _, item := range v.([]interface{}) {
			in.Locations = append(in.Locations, item.(string))
		}
	}
	m, err := New(in)
	if err != nil {
		return nil, errors.Trace(err)
	}
	return m, nil
}
