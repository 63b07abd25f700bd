// Copyright 2025 Mutinex Pty Ltd.
// Licensed under the MIT licence, see LICENCE file for details.

// Package network provisions the VPC plumbing shared by the other
// components: the network itself, a regional subnet, private service
// access for Cloud SQL, and an optional serverless VPC connector.
package network

import (
	"fmt"
	"strings"

	"github.com/juju/errors"
	"github.com/juju/loggo/v2"
	"github.com/pulumi/pulumi-gcp/sdk/v8/go/gcp/compute"
	"github.com/pulumi/pulumi-gcp/sdk/v8/go/gcp/servicenetworking"
	"github.com/pulumi/pulumi-gcp/sdk/v8/go/gcp/vpcaccess"
	"github.com/pulumi/pulumi/sdk/v3/go/pulumi"

	cloudinfra "github.com/mutinex/cloud-infra-sub000"
	"github.com/mutinex/cloud-infra-sub000/meta"
)

var logger = loggo.GetLogger("cloudinfra.network")

const (
	defaultSubnetCIDR    = "10.0.0.0/20"
	defaultConnectorCIDR = "10.8.0.0/28"

	// VPC access connector names are capped at 25 characters, tighter
	// than the 30 the rest of the short identifiers get.
	maxConnectorName = 25
)

// SecondaryRange is a named secondary range on the subnet.
type SecondaryRange struct {
	Name string
	CIDR string
}

// Args are the user overrides for a network.
type Args struct {
	// Project hosts the network. Empty means the provider default.
	Project string

	// SubnetCIDR defaults to 10.0.0.0/20.
	SubnetCIDR string

	// SecondaryRanges are added to the subnet, e.g. for GKE pods and
	// services.
	SecondaryRanges []SecondaryRange

	// PrivateServiceAccess reserves an internal range and peers the VPC
	// with Google services, which Cloud SQL private IP requires.
	// Defaults to true.
	PrivateServiceAccess *bool

	// Connector, when true, adds a serverless VPC access connector in
	// the meta region.
	Connector bool

	// ConnectorCIDR defaults to 10.8.0.0/28.
	ConnectorCIDR string
}

// Network is a VPC component.
type Network struct {
	pulumi.ResourceState

	network   *compute.Network
	subnet    *compute.Subnetwork
	peering   *servicenetworking.Connection
	connector *vpcaccess.Connector
}

// New creates the VPC and its attachments.
func New(ctx *pulumi.Context, m *meta.Meta, args *Args, opts ...pulumi.ResourceOption) (*Network, error) {
	if args == nil {
		args = &Args{}
	}

	comp := &Network{}
	childOpts, err := cloudinfra.Register(ctx, m, "Network", comp, opts...)
	if err != nil {
		return nil, errors.Trace(err)
	}

	networkArgs := &compute.NetworkArgs{
		Name:                  pulumi.String(m.ResourceName()),
		AutoCreateSubnetworks: pulumi.Bool(false),
		RoutingMode:           pulumi.String("REGIONAL"),
	}
	if args.Project != "" {
		networkArgs.Project = pulumi.String(args.Project)
	}
	network, err := compute.NewNetwork(ctx, m.ResourceName(), networkArgs, childOpts...)
	if err != nil {
		return nil, errors.Annotatef(err, "creating network %q", m.ResourceName())
	}
	comp.network = network

	secondary := make(compute.SubnetworkSecondaryIpRangeArray, len(args.SecondaryRanges))
	for i, r := range args.SecondaryRanges {
		if r.Name == "" || r.CIDR == "" {
			return nil, errors.NotValidf("secondary range %d", i)
		}
		secondary[i] = &compute.SubnetworkSecondaryIpRangeArgs{
			RangeName:   pulumi.String(r.Name),
			IpCidrRange: pulumi.String(r.CIDR),
		}
	}
	subnetName := fmt.Sprintf("%s-%s", m.ResourceName(), m.ShortRegion())
	subnetArgs := &compute.SubnetworkArgs{
		Name:                  pulumi.String(subnetName),
		Network:               network.ID(),
		Region:                pulumi.String(m.Region()),
		IpCidrRange:           pulumi.String(cloudinfra.DefaultString(args.SubnetCIDR, defaultSubnetCIDR)),
		PrivateIpGoogleAccess: pulumi.Bool(true),
	}
	if len(secondary) > 0 {
		subnetArgs.SecondaryIpRanges = secondary
	}
	if args.Project != "" {
		subnetArgs.Project = pulumi.String(args.Project)
	}
	subnet, err := compute.NewSubnetwork(ctx, subnetName, subnetArgs, childOpts...)
	if err != nil {
		return nil, errors.Annotatef(err, "creating subnet in %q", m.Region())
	}
	comp.subnet = subnet

	if cloudinfra.DefaultBool(args.PrivateServiceAccess, true) {
		addressArgs := &compute.GlobalAddressArgs{
			Name:         pulumi.String(m.ResourceName() + "-psa"),
			Purpose:      pulumi.String("VPC_PEERING"),
			AddressType:  pulumi.String("INTERNAL"),
			PrefixLength: pulumi.Int(16),
			Network:      network.ID(),
		}
		if args.Project != "" {
			addressArgs.Project = pulumi.String(args.Project)
		}
		address, err := compute.NewGlobalAddress(ctx, m.ResourceName()+"-psa", addressArgs, childOpts...)
		if err != nil {
			return nil, errors.Annotatef(err, "reserving private service range for %q", m.ResourceName())
		}
		peering, err := servicenetworking.NewConnection(ctx, m.ResourceName()+"-psa", &servicenetworking.ConnectionArgs{
			Network:               network.ID(),
			Service:               pulumi.String("servicenetworking.googleapis.com"),
			ReservedPeeringRanges: pulumi.StringArray{address.Name},
		}, childOpts...)
		if err != nil {
			return nil, errors.Annotatef(err, "peering %q with service networking", m.ResourceName())
		}
		comp.peering = peering
	}

	if args.Connector {
		connectorArgs := &vpcaccess.ConnectorArgs{
			Name:        pulumi.String(connectorName(m)),
			Region:      pulumi.String(m.Region()),
			Network:     network.Name.ToStringPtrOutput(),
			IpCidrRange: pulumi.String(cloudinfra.DefaultString(args.ConnectorCIDR, defaultConnectorCIDR)),
		}
		if args.Project != "" {
			connectorArgs.Project = pulumi.String(args.Project)
		}
		connector, err := vpcaccess.NewConnector(ctx, m.ResourceName(), connectorArgs, childOpts...)
		if err != nil {
			return nil, errors.Annotatef(err, "creating vpc connector for %q", m.ResourceName())
		}
		comp.connector = connector
	}
	logger.Debugf("network %q with subnet in %q", m.ResourceName(), m.Region())

	if err := ctx.RegisterResourceOutputs(comp, pulumi.Map{
		"selfLink": network.SelfLink,
	}); err != nil {
		return nil, errors.Trace(err)
	}
	return comp, nil
}

// connectorName fits the meta short name into the connector name limit,
// cutting from the tail and trimming any hyphen left dangling.
func connectorName(m *meta.Meta) string {
	name := m.ShortName()
	if len(name) > maxConnectorName {
		name = strings.TrimRight(name[:maxConnectorName], "-")
	}
	return name
}

// Network returns the VPC handle.
func (n *Network) Network() *compute.Network { return n.network }

// Subnet returns the subnet handle.
func (n *Network) Subnet() *compute.Subnetwork { return n.subnet }

// Connector returns the serverless VPC connector, or nil when not
// requested.
func (n *Network) Connector() *vpcaccess.Connector { return n.connector }

// SelfLink returns the VPC self link, suitable for
// database.Args.PrivateNetwork.
func (n *Network) SelfLink() pulumi.StringOutput { return n.network.SelfLink }
