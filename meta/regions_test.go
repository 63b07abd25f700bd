// Copyright 2025 Mutinex Pty Ltd.
// Licensed under the MIT licence, see LICENCE file for details.

package meta_test

import (
	"github.com/juju/errors"
	"github.com/juju/testing"
	jc "github.com/juju/testing/checkers"
	gc "gopkg.in/check.v1"

	"github.com/mutinex/cloud-infra-sub000/meta"
)

type regionsSuite struct {
	testing.IsolationSuite
}

var _ = gc.Suite(&regionsSuite{})

func (s *regionsSuite) TestAbbreviateRegion(c *gc.C) {
	for region, abbrev := range map[string]string{
		"australia-southeast1": "ause1",
		"australia-southeast2": "ause2",
		"us-central1":          "usc1",
		"us-east4":             "use4",
		"europe-west1":         "euw1",
		"europe-west10":        "euw10",
		"asia-northeast1":      "asne1",
		"northamerica-south1":  "nas1",
		"me-central2":          "mec2",
	} {
		got, err := meta.AbbreviateRegion(region)
		c.Assert(err, jc.ErrorIsNil)
		c.Check(got, gc.Equals, abbrev, gc.Commentf("region %q", region))
	}
}

func (s *regionsSuite) TestAbbreviateRegionUnknown(c *gc.C) {
	_, err := meta.AbbreviateRegion("moon-dark1")
	c.Check(err, jc.Satisfies, errors.IsNotValid)
	c.Check(err, gc.ErrorMatches, `region "moon-dark1" not valid`)
}

func (s *regionsSuite) TestClassification(c *gc.C) {
	c.Check(meta.IsRegion("us-central1"), jc.IsTrue)
	c.Check(meta.IsRegion("us"), jc.IsFalse)
	c.Check(meta.IsMultiRegion("us"), jc.IsTrue)
	c.Check(meta.IsMultiRegion("asia"), jc.IsTrue)
	c.Check(meta.IsMultiRegion("nam4"), jc.IsFalse)
	c.Check(meta.IsDualRegion("nam4"), jc.IsTrue)
	c.Check(meta.IsDualRegion("asia1"), jc.IsTrue)
	c.Check(meta.IsDualRegion("eu"), jc.IsFalse)
}

func (s *regionsSuite) TestDualRegionForEitherOrder(c *gc.C) {
	code, err := meta.DualRegionFor("asia-northeast1", "asia-northeast2")
	c.Assert(err, jc.ErrorIsNil)
	c.Check(code, gc.Equals, "asia1")

	code, err = meta.DualRegionFor("asia-northeast2", "asia-northeast1")
	c.Assert(err, jc.ErrorIsNil)
	c.Check(code, gc.Equals, "asia1")
}

func (s *regionsSuite) TestDomains(c *gc.C) {
	c.Check(meta.Domains(), jc.DeepEquals, []string{"au", "eu", "gl", "jp", "uk", "us"})
}
