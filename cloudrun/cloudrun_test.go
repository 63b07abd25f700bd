// Copyright 2025 Mutinex Pty Ltd.
// Licensed under the MIT licence, see LICENCE file for details.

package cloudrun_test

import (
	"sync"
	"testing"

	"github.com/juju/errors"
	jujutesting "github.com/juju/testing"
	jc "github.com/juju/testing/checkers"
	"github.com/pulumi/pulumi-gcp/sdk/v8/go/gcp/cloudrunv2"
	"github.com/pulumi/pulumi/sdk/v3/go/pulumi"
	gc "gopkg.in/check.v1"

	"github.com/mutinex/cloud-infra-sub000/cloudrun"
	"github.com/mutinex/cloud-infra-sub000/internal/pulumitest"
	"github.com/mutinex/cloud-infra-sub000/meta"
)

func Test(t *testing.T) { gc.TestingT(t) }

type cloudRunSuite struct {
	jujutesting.IsolationSuite
}

var _ = gc.Suite(&cloudRunSuite{})

func (s *cloudRunSuite) TestDefaults(c *gc.C) {
	err := pulumitest.Run(func(ctx *pulumi.Context) error {
		m, err := meta.New(meta.Input{Name: "api"})
		c.Assert(err, jc.ErrorIsNil)
		svc, err := cloudrun.New(ctx, m, &cloudrun.Args{
			Image: pulumi.String("gcr.io/acme/api:v1"),
		})
		c.Assert(err, jc.ErrorIsNil)

		got := pulumitest.WaitStrings(
			svc.Name(),
			svc.Service().Location,
			svc.Service().Ingress,
		)
		c.Check(got[0], gc.Equals, "mx-api-au")
		c.Check(got[1], gc.Equals, "australia-southeast1")
		c.Check(got[2], gc.Equals, "INGRESS_TRAFFIC_ALL")
		return nil
	})
	c.Assert(err, jc.ErrorIsNil)
}

func (s *cloudRunSuite) TestInternalIngress(c *gc.C) {
	err := pulumitest.Run(func(ctx *pulumi.Context) error {
		m, err := meta.New(meta.Input{Name: "api"})
		c.Assert(err, jc.ErrorIsNil)
		svc, err := cloudrun.New(ctx, m, &cloudrun.Args{
			Image:    pulumi.String("gcr.io/acme/api:v1"),
			Internal: true,
		})
		c.Assert(err, jc.ErrorIsNil)

		got := pulumitest.WaitString(svc.Service().Ingress)
		c.Check(got, gc.Equals, "INGRESS_TRAFFIC_INTERNAL_LOAD_BALANCER")
		return nil
	})
	c.Assert(err, jc.ErrorIsNil)
}

func (s *cloudRunSuite) TestValidation(c *gc.C) {
	err := pulumitest.Run(func(ctx *pulumi.Context) error {
		m, err := meta.New(meta.Input{Name: "api"})
		c.Assert(err, jc.ErrorIsNil)

		_, err = cloudrun.New(ctx, m, nil)
		c.Check(err, jc.Satisfies, errors.IsNotValid)

		_, err = cloudrun.New(ctx, m, &cloudrun.Args{
			Image:    pulumi.String("gcr.io/acme/api:v1"),
			Public:   true,
			Internal: true,
		})
		c.Check(err, jc.Satisfies, errors.IsNotValid)
		return nil
	})
	c.Assert(err, jc.ErrorIsNil)
}

func (s *cloudRunSuite) TestProbes(c *gc.C) {
	err := pulumitest.Run(func(ctx *pulumi.Context) error {
		m, err := meta.New(meta.Input{Name: "api"})
		c.Assert(err, jc.ErrorIsNil)
		svc, err := cloudrun.New(ctx, m, &cloudrun.Args{
			Image:         pulumi.String("gcr.io/acme/api:v1"),
			StartupProbe:  &cloudrun.Probe{Path: "/startupz", Port: 8080},
			LivenessProbe: &cloudrun.Probe{Path: "/healthz", PeriodSeconds: 30},
		})
		c.Assert(err, jc.ErrorIsNil)

		var wg sync.WaitGroup
		wg.Add(1)
		svc.Service().Template.ApplyT(func(t cloudrunv2.ServiceTemplate) cloudrunv2.ServiceTemplate {
			defer wg.Done()
			c.Assert(t.Containers, gc.HasLen, 1)
			container := t.Containers[0]

			c.Assert(container.StartupProbe, gc.NotNil)
			c.Assert(container.StartupProbe.HttpGet, gc.NotNil)
			c.Check(*container.StartupProbe.HttpGet.Path, gc.Equals, "/startupz")
			c.Check(*container.StartupProbe.HttpGet.Port, gc.Equals, 8080)

			c.Assert(container.LivenessProbe, gc.NotNil)
			c.Assert(container.LivenessProbe.HttpGet, gc.NotNil)
			c.Check(*container.LivenessProbe.HttpGet.Path, gc.Equals, "/healthz")
			c.Check(*container.LivenessProbe.PeriodSeconds, gc.Equals, 30)
			c.Check(*container.LivenessProbe.TimeoutSeconds, gc.Equals, 1)
			c.Check(*container.LivenessProbe.FailureThreshold, gc.Equals, 3)
			return t
		})
		wg.Wait()
		return nil
	})
	c.Assert(err, jc.ErrorIsNil)
}

func (s *cloudRunSuite) TestProbeValidation(c *gc.C) {
	err := pulumitest.Run(func(ctx *pulumi.Context) error {
		m, err := meta.New(meta.Input{Name: "api"})
		c.Assert(err, jc.ErrorIsNil)
		_, err = cloudrun.New(ctx, m, &cloudrun.Args{
			Image:         pulumi.String("gcr.io/acme/api:v1"),
			LivenessProbe: &cloudrun.Probe{Port: 8080},
		})
		c.Check(err, jc.Satisfies, errors.IsNotValid)
		return nil
	})
	c.Assert(err, jc.ErrorIsNil)
}

func (s *cloudRunSuite) TestSecretMountValidation(c *gc.C) {
	err := pulumitest.Run(func(ctx *pulumi.Context) error {
		m, err := meta.New(meta.Input{Name: "api"})
		c.Assert(err, jc.ErrorIsNil)
		_, err = cloudrun.New(ctx, m, &cloudrun.Args{
			Image:        pulumi.String("gcr.io/acme/api:v1"),
			SecretMounts: []cloudrun.SecretMount{{Path: "/etc/secrets"}},
		})
		c.Check(err, jc.Satisfies, errors.IsNotValid)
		return nil
	})
	c.Assert(err, jc.ErrorIsNil)
}
