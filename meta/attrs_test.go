// Copyright 2025 Mutinex Pty Ltd.
// Licensed under the MIT licence, see LICENCE file for details.

package meta_test

import (
	"github.com/juju/testing"
	jc "github.com/juju/testing/checkers"
	gc "gopkg.in/check.v1"

	"github.com/mutinex/cloud-infra-sub000/meta"
)

type attrsSuite struct {
	testing.IsolationSuite
}

var _ = gc.Suite(&attrsSuite{})

func (s *attrsSuite) TestDefaultsApplied(c *gc.C) {
	m, err := meta.NewFromAttrs(map[string]interface{}{
		"name": "api",
	})
	c.Assert(err, jc.ErrorIsNil)
	c.Check(m.ResourceName(), gc.Equals, "mx-api-au")
	c.Check(m.Location(), gc.Equals, "australia-southeast1")
	c.Check(m.Preview(), jc.IsFalse)
}

func (s *attrsSuite) TestOverridesMergedWithDefaults(c *gc.C) {
	m, err := meta.NewFromAttrs(map[string]interface{}{
		"name":    "api",
		"domain":  "us",
		"preview": true,
	})
	c.Assert(err, jc.ErrorIsNil)
	c.Check(m.Domain(), gc.Equals, "us")
	c.Check(m.Prefix(), gc.Equals, "mx")
	c.Check(m.Preview(), jc.IsTrue)
}

func (s *attrsSuite) TestLocationsList(c *gc.C) {
	m, err := meta.NewFromAttrs(map[string]interface{}{
		"name":      "api",
		"domain":    "us",
		"locations": []interface{}{"us-central1", "us-east1"},
	})
	c.Assert(err, jc.ErrorIsNil)
	code, ok := m.DualRegion()
	c.Check(ok, jc.IsTrue)
	c.Check(code, gc.Equals, "nam4")
}

func (s *attrsSuite) TestMissingName(c *gc.C) {
	_, err := meta.NewFromAttrs(map[string]interface{}{})
	c.Check(err, gc.ErrorMatches, `invalid meta attributes: name: expected string, got nothing`)
}

func (s *attrsSuite) TestUnknownKeyRejected(c *gc.C) {
	_, err := meta.NewFromAttrs(map[string]interface{}{
		"name":   "api",
		"colour": "mauve",
	})
	c.Check(err, gc.NotNil)
}

func (s *attrsSuite) TestIllTypedValueRejected(c *gc.C) {
	_, err := meta.NewFromAttrs(map[string]interface{}{
		"name":    "api",
		"preview": "yes",
	})
	c.Check(err, gc.ErrorMatches, `invalid meta attributes: preview: expected bool, got string\("yes"\)`)
}
