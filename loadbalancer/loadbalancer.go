// Copyright 2025 Mutinex Pty Ltd.
// Licensed under the MIT licence, see LICENCE file for details.

// Package loadbalancer provisions a global external HTTPS load balancer
// fronting serverless backends: a serverless NEG per Cloud Run service,
// a backend service, URL map, managed certificate, proxy and forwarding
// rule, with an optional HTTP to HTTPS redirect.
package loadbalancer

import (
	"fmt"

	"github.com/juju/errors"
	"github.com/juju/loggo/v2"
	"github.com/pulumi/pulumi-gcp/sdk/v8/go/gcp/compute"
	"github.com/pulumi/pulumi/sdk/v3/go/pulumi"

	cloudinfra "github.com/mutinex/cloud-infra-sub000"
	"github.com/mutinex/cloud-infra-sub000/meta"
)

var logger = loggo.GetLogger("cloudinfra.loadbalancer")

// Args are the user overrides for a load balancer.
type Args struct {
	// Project hosts the balancer. Empty means the provider default.
	Project string

	// Domains the managed certificate covers. Required, non-empty.
	Domains []string

	// Services are the names of the backing Cloud Run services, one
	// serverless NEG each, all in the meta region.
	Services []pulumi.StringInput

	// EnableCDN turns on Cloud CDN on the backend service.
	EnableCDN bool

	// RedirectHTTP adds a port-80 entry point that redirects to HTTPS.
	// Defaults to true.
	RedirectHTTP *bool
}

// LoadBalancer is a global external HTTPS load balancer component.
type LoadBalancer struct {
	pulumi.ResourceState

	address *compute.GlobalAddress
	backend *compute.BackendService
	urlMap  *compute.URLMap
	rule    *compute.GlobalForwardingRule
}

// New creates the load balancer chain.
func New(ctx *pulumi.Context, m *meta.Meta, args *Args, opts ...pulumi.ResourceOption) (*LoadBalancer, error) {
	if args == nil || len(args.Domains) == 0 {
		return nil, errors.NotValidf("load balancer without domains")
	}
	if len(args.Services) == 0 {
		return nil, errors.NotValidf("load balancer without services")
	}

	comp := &LoadBalancer{}
	childOpts, err := cloudinfra.Register(ctx, m, "LoadBalancer", comp, opts...)
	if err != nil {
		return nil, errors.Trace(err)
	}
	name := m.ResourceName()

	project := func() pulumi.StringPtrInput {
		if args.Project != "" {
			return pulumi.String(args.Project)
		}
		return nil
	}

	backends := make(compute.BackendServiceBackendArray, len(args.Services))
	for i, service := range args.Services {
		neg, err := compute.NewRegionNetworkEndpointGroup(ctx, fmt.Sprintf("%s-neg-%d", name, i), &compute.RegionNetworkEndpointGroupArgs{
			Name:                pulumi.Sprintf("%s-neg-%d", name, i),
			Region:              pulumi.String(m.Region()),
			NetworkEndpointType: pulumi.String("SERVERLESS"),
			Project:             project(),
			CloudRun: &compute.RegionNetworkEndpointGroupCloudRunArgs{
				Service: service.ToStringOutput().ToStringPtrOutput(),
			},
		}, childOpts...)
		if err != nil {
			return nil, errors.Annotatef(err, "creating serverless NEG %d for %q", i, name)
		}
		backends[i] = &compute.BackendServiceBackendArgs{
			Group: neg.ID(),
		}
	}

	backend, err := compute.NewBackendService(ctx, name, &compute.BackendServiceArgs{
		Name:                pulumi.String(name),
		Project:             project(),
		LoadBalancingScheme: pulumi.String("EXTERNAL_MANAGED"),
		Protocol:            pulumi.String("HTTPS"),
		EnableCdn:           pulumi.Bool(args.EnableCDN),
		Backends:            backends,
	}, childOpts...)
	if err != nil {
		return nil, errors.Annotatef(err, "creating backend service %q", name)
	}
	comp.backend = backend

	urlMap, err := compute.NewURLMap(ctx, name, &compute.URLMapArgs{
		Name:           pulumi.String(name),
		Project:        project(),
		DefaultService: backend.ID(),
	}, childOpts...)
	if err != nil {
		return nil, errors.Annotatef(err, "creating url map %q", name)
	}
	comp.urlMap = urlMap

	domains := make(pulumi.StringArray, len(args.Domains))
	for i, d := range args.Domains {
		domains[i] = pulumi.String(d)
	}
	certificate, err := compute.NewManagedSslCertificate(ctx, name, &compute.ManagedSslCertificateArgs{
		Name:    pulumi.String(name),
		Project: project(),
		Managed: &compute.ManagedSslCertificateManagedArgs{
			Domains: domains,
		},
	}, childOpts...)
	if err != nil {
		return nil, errors.Annotatef(err, "creating managed certificate for %v", args.Domains)
	}

	proxy, err := compute.NewTargetHttpsProxy(ctx, name, &compute.TargetHttpsProxyArgs{
		Name:            pulumi.String(name),
		Project:         project(),
		UrlMap:          urlMap.ID(),
		SslCertificates: pulumi.StringArray{certificate.ID()},
	}, childOpts...)
	if err != nil {
		return nil, errors.Annotatef(err, "creating https proxy %q", name)
	}

	address, err := compute.NewGlobalAddress(ctx, name, &compute.GlobalAddressArgs{
		Name:    pulumi.String(name),
		Project: project(),
	}, childOpts...)
	if err != nil {
		return nil, errors.Annotatef(err, "reserving address for %q", name)
	}
	comp.address = address

	rule, err := compute.NewGlobalForwardingRule(ctx, name, &compute.GlobalForwardingRuleArgs{
		Name:                pulumi.String(name),
		Project:             project(),
		Target:              proxy.ID(),
		IpAddress:           address.Address.ToStringPtrOutput(),
		PortRange:           pulumi.String("443"),
		LoadBalancingScheme: pulumi.String("EXTERNAL_MANAGED"),
	}, childOpts...)
	if err != nil {
		return nil, errors.Annotatef(err, "creating forwarding rule %q", name)
	}
	comp.rule = rule

	if cloudinfra.DefaultBool(args.RedirectHTTP, true) {
		if err := newRedirect(ctx, name, project(), address, childOpts); err != nil {
			return nil, errors.Trace(err)
		}
	}
	logger.Debugf("load balancer %q for domains %v", name, args.Domains)

	if err := ctx.RegisterResourceOutputs(comp, pulumi.Map{
		"address": address.Address,
	}); err != nil {
		return nil, errors.Trace(err)
	}
	return comp, nil
}

// newRedirect adds the port-80 redirect chain: a url map that issues a
// 301 to HTTPS, an http proxy and a forwarding rule on the same address.
func newRedirect(ctx *pulumi.Context, name string, project pulumi.StringPtrInput, address *compute.GlobalAddress, childOpts []pulumi.ResourceOption) error {
	redirectMap, err := compute.NewURLMap(ctx, name+"-redirect", &compute.URLMapArgs{
		Name:    pulumi.String(name + "-redirect"),
		Project: project,
		DefaultUrlRedirect: &compute.URLMapDefaultUrlRedirectArgs{
			HttpsRedirect:        pulumi.Bool(true),
			StripQuery:           pulumi.Bool(false),
			RedirectResponseCode: pulumi.String("MOVED_PERMANENTLY_DEFAULT"),
		},
	}, childOpts...)
	if err != nil {
		return errors.Annotatef(err, "creating redirect url map for %q", name)
	}
	proxy, err := compute.NewTargetHttpProxy(ctx, name+"-redirect", &compute.TargetHttpProxyArgs{
		Name:    pulumi.String(name + "-redirect"),
		Project: project,
		UrlMap:  redirectMap.ID(),
	}, childOpts...)
	if err != nil {
		return errors.Annotatef(err, "creating http proxy for %q", name)
	}
	if _, err := compute.NewGlobalForwardingRule(ctx, name+"-redirect", &compute.GlobalForwardingRuleArgs{
		Name:                pulumi.String(name + "-redirect"),
		Project:             project,
		Target:              proxy.ID(),
		IpAddress:           address.Address.ToStringPtrOutput(),
		PortRange:           pulumi.String("80"),
		LoadBalancingScheme: pulumi.String("EXTERNAL_MANAGED"),
	}, childOpts...); err != nil {
		return errors.Annotatef(err, "creating redirect forwarding rule for %q", name)
	}
	return nil
}

// Address returns the public IPv4 address of the balancer.
func (lb *LoadBalancer) Address() pulumi.StringOutput { return lb.address.Address }

// Backend returns the backend service handle.
func (lb *LoadBalancer) Backend() *compute.BackendService { return lb.backend }

// URLMap returns the url map handle.
func (lb *LoadBalancer) URLMap() *compute.URLMap { return lb.urlMap }

// ForwardingRule returns the HTTPS forwarding rule handle.
func (lb *LoadBalancer) ForwardingRule() *compute.GlobalForwardingRule { return lb.rule }
