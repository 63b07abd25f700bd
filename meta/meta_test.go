// Copyright 2025 Mutinex Pty Ltd.
// Licensed under the MIT licence, see LICENCE file for details.

package meta_test

import (
	"strings"

	"github.com/juju/errors"
	"github.com/juju/testing"
	jc "github.com/juju/testing/checkers"
	gc "gopkg.in/check.v1"

	"github.com/mutinex/cloud-infra-sub000/meta"
)

type metaSuite struct {
	testing.IsolationSuite
}

var _ = gc.Suite(&metaSuite{})

func (s *metaSuite) TestResourceName(c *gc.C) {
	m, err := meta.New(meta.Input{Name: "api"})
	c.Assert(err, jc.ErrorIsNil)
	c.Check(m.ResourceName(), gc.Equals, "mx-api-au")
	c.Check(m.Name(), gc.Equals, "api")
	c.Check(m.Domain(), gc.Equals, "au")
	c.Check(m.Prefix(), gc.Equals, "mx")
}

func (s *metaSuite) TestResourceNameOmitFlags(c *gc.C) {
	m, err := meta.New(meta.Input{Name: "api", OmitPrefix: true})
	c.Assert(err, jc.ErrorIsNil)
	c.Check(m.ResourceName(), gc.Equals, "api-au")

	m, err = meta.New(meta.Input{Name: "api", OmitDomain: true})
	c.Assert(err, jc.ErrorIsNil)
	c.Check(m.ResourceName(), gc.Equals, "mx-api")

	m, err = meta.New(meta.Input{Name: "api", OmitPrefix: true, OmitDomain: true})
	c.Assert(err, jc.ErrorIsNil)
	c.Check(m.ResourceName(), gc.Equals, "api")
}

func (s *metaSuite) TestResourceNameCustomPrefix(c *gc.C) {
	m, err := meta.New(meta.Input{Name: "api", Prefix: "acme", Domain: "us"})
	c.Assert(err, jc.ErrorIsNil)
	c.Check(m.ResourceName(), gc.Equals, "acme-api-us")
}

func (s *metaSuite) TestPreviewNameIsHashedAndStable(c *gc.C) {
	m1, err := meta.New(meta.Input{Name: "api", Preview: true})
	c.Assert(err, jc.ErrorIsNil)
	c.Check(m1.ResourceName(), gc.Matches, `mx-api-[0-9a-f]{6}`)

	m2, err := meta.New(meta.Input{Name: "api", Preview: true})
	c.Assert(err, jc.ErrorIsNil)
	c.Check(m2.ResourceName(), gc.Equals, m1.ResourceName())

	// A different input hashes differently.
	m3, err := meta.New(meta.Input{Name: "api", Domain: "us", Preview: true})
	c.Assert(err, jc.ErrorIsNil)
	c.Check(m3.ResourceName(), gc.Not(gc.Equals), m1.ResourceName())
}

func (s *metaSuite) TestDomainDefaultsLocation(c *gc.C) {
	for domain, region := range map[string]string{
		"au": "australia-southeast1",
		"us": "us-central1",
		"eu": "europe-west1",
		"uk": "europe-west2",
		"jp": "asia-northeast1",
	} {
		m, err := meta.New(meta.Input{Name: "api", Domain: domain})
		c.Assert(err, jc.ErrorIsNil)
		c.Check(m.Location(), gc.Equals, region)
		c.Check(m.Region(), gc.Equals, region)
		c.Check(m.Regions(), jc.DeepEquals, []string{region})
		c.Check(m.IsMultiRegion(), jc.IsFalse)
	}
}

func (s *metaSuite) TestGlobalDomainIsMultiRegion(c *gc.C) {
	m, err := meta.New(meta.Input{Name: "api", Domain: "gl"})
	c.Assert(err, jc.ErrorIsNil)
	c.Check(m.Location(), gc.Equals, "us")
	c.Check(m.GCSLocation(), gc.Equals, "US")
	c.Check(m.Region(), gc.Equals, "us-central1")
	c.Check(m.IsMultiRegion(), jc.IsTrue)
}

func (s *metaSuite) TestExplicitRegion(c *gc.C) {
	m, err := meta.New(meta.Input{Name: "api", Domain: "au", Location: "australia-southeast2"})
	c.Assert(err, jc.ErrorIsNil)
	c.Check(m.Location(), gc.Equals, "australia-southeast2")
	c.Check(m.Region(), gc.Equals, "australia-southeast2")
}

func (s *metaSuite) TestExplicitMultiRegion(c *gc.C) {
	m, err := meta.New(meta.Input{Name: "api", Domain: "eu", Location: "eu"})
	c.Assert(err, jc.ErrorIsNil)
	c.Check(m.IsMultiRegion(), jc.IsTrue)
	c.Check(m.Location(), gc.Equals, "eu")
	// Region-scoped resources still get the domain default.
	c.Check(m.Region(), gc.Equals, "europe-west1")
}

func (s *metaSuite) TestExplicitDualRegionCode(c *gc.C) {
	m, err := meta.New(meta.Input{Name: "api", Domain: "us", Location: "nam4"})
	c.Assert(err, jc.ErrorIsNil)
	code, ok := m.DualRegion()
	c.Check(ok, jc.IsTrue)
	c.Check(code, gc.Equals, "nam4")
	c.Check(m.Regions(), jc.DeepEquals, []string{"us-central1", "us-east1"})
	c.Check(m.Region(), gc.Equals, "us-central1")
	c.Check(m.GCSLocation(), gc.Equals, "NAM4")
}

func (s *metaSuite) TestDualRegionFromPair(c *gc.C) {
	// Pair order does not matter; the canonical order comes from the
	// lookup table.
	m, err := meta.New(meta.Input{Name: "api", Domain: "eu", Locations: []string{"europe-west4", "europe-north1"}})
	c.Assert(err, jc.ErrorIsNil)
	code, ok := m.DualRegion()
	c.Check(ok, jc.IsTrue)
	c.Check(code, gc.Equals, "eur4")
	c.Check(m.Regions(), jc.DeepEquals, []string{"europe-north1", "europe-west4"})
}

func (s *metaSuite) TestDualRegionPairUnknown(c *gc.C) {
	_, err := meta.New(meta.Input{Name: "api", Locations: []string{"us-central1", "europe-west4"}})
	c.Check(err, jc.Satisfies, errors.IsNotValid)
	c.Check(err, gc.ErrorMatches, `dual-region pair "us-central1"\+"europe-west4" not valid`)
}

func (s *metaSuite) TestDualRegionPairWrongArity(c *gc.C) {
	_, err := meta.New(meta.Input{Name: "api", Locations: []string{"us-central1"}})
	c.Check(err, gc.ErrorMatches, `locations \[us-central1\]: want exactly two regions not valid`)
}

func (s *metaSuite) TestLocationAndLocationsExclusive(c *gc.C) {
	_, err := meta.New(meta.Input{
		Name:      "api",
		Location:  "us-central1",
		Locations: []string{"us-central1", "us-east1"},
	})
	c.Check(err, gc.ErrorMatches, `both location and locations not valid`)
}

func (s *metaSuite) TestRejectsBadInput(c *gc.C) {
	for _, in := range []meta.Input{
		{},
		{Name: "API"},
		{Name: "has_underscore"},
		{Name: "-leading"},
		{Name: "trailing-"},
		{Name: "api", Domain: "nz"},
		{Name: "api", Location: "mars-central1"},
		{Name: "api", Prefix: "Bad"},
		{Name: "api", Prefix: "averylongprefix"},
	} {
		_, err := meta.New(in)
		c.Check(err, jc.Satisfies, errors.IsNotValid, gc.Commentf("input %+v", in))
	}
}

func (s *metaSuite) TestRejectsOverlongDerivedName(c *gc.C) {
	_, err := meta.New(meta.Input{Name: strings.Repeat("a", 70)})
	c.Check(err, jc.Satisfies, errors.IsNotValid)
}

func (s *metaSuite) TestShortName(c *gc.C) {
	m, err := meta.New(meta.Input{Name: "api"})
	c.Assert(err, jc.ErrorIsNil)
	c.Check(m.ShortName(), gc.Equals, "mx-api-ause1")
}

func (s *metaSuite) TestShortNameTruncates(c *gc.C) {
	m, err := meta.New(meta.Input{Name: "a-very-long-component-name-indeed", Domain: "us"})
	c.Assert(err, jc.ErrorIsNil)
	short := m.ShortName()
	c.Check(len(short) <= 30, jc.IsTrue, gc.Commentf("got %q (%d chars)", short, len(short)))
	c.Check(short, gc.Matches, `mx-a-very-long-component.*-usc1`)
}

func (s *metaSuite) TestShortNamePreview(c *gc.C) {
	m, err := meta.New(meta.Input{Name: "api", Preview: true})
	c.Assert(err, jc.ErrorIsNil)
	c.Check(m.ShortName(), gc.Matches, `mx-api-[0-9a-f]{6}`)
	c.Check(m.ShortName(), gc.Equals, m.ResourceName())
}

func (s *metaSuite) TestLabels(c *gc.C) {
	m, err := meta.New(meta.Input{Name: "api", Domain: "uk", Preview: true})
	c.Assert(err, jc.ErrorIsNil)
	c.Check(m.Labels(), jc.DeepEquals, map[string]string{
		"managed-by": "cloud-infra",
		"domain":     "uk",
		"preview":    "true",
	})
}
