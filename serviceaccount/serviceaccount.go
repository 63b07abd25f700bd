// Copyright 2025 Mutinex Pty Ltd.
// Licensed under the MIT licence, see LICENCE file for details.

// Package serviceaccount provisions IAM service accounts with ids
// derived from the meta naming rules, optionally granting them
// project-level roles.
package serviceaccount

import (
	"strings"

	"github.com/juju/errors"
	"github.com/juju/loggo/v2"
	"github.com/pulumi/pulumi-gcp/sdk/v8/go/gcp/projects"
	gcpsa "github.com/pulumi/pulumi-gcp/sdk/v8/go/gcp/serviceaccount"
	"github.com/pulumi/pulumi/sdk/v3/go/pulumi"

	cloudinfra "github.com/mutinex/cloud-infra-sub000"
	"github.com/mutinex/cloud-infra-sub000/meta"
)

var logger = loggo.GetLogger("cloudinfra.serviceaccount")

// Args are the user overrides for a service account.
type Args struct {
	// Project hosts the account. Empty means the provider default
	// project; it must be set when Roles are granted.
	Project string

	// DisplayName defaults to the meta resource name.
	DisplayName string

	// Description is attached verbatim.
	Description string

	// Roles are project-level roles granted to the new account, e.g.
	// "roles/secretmanager.secretAccessor". Grants are member-wise and
	// non-authoritative.
	Roles []string
}

// Account is a service account component.
type Account struct {
	pulumi.ResourceState

	account *gcpsa.Account
	grants  []*projects.IAMMember
}

// New creates the service account. The account id is the meta ShortName,
// which fits the 30-character id limit.
func New(ctx *pulumi.Context, m *meta.Meta, args *Args, opts ...pulumi.ResourceOption) (*Account, error) {
	if args == nil {
		args = &Args{}
	}
	if len(args.Roles) > 0 && args.Project == "" {
		return nil, errors.NotValidf("roles without a project")
	}

	comp := &Account{}
	childOpts, err := cloudinfra.Register(ctx, m, "ServiceAccount", comp, opts...)
	if err != nil {
		return nil, errors.Trace(err)
	}

	accountArgs := &gcpsa.AccountArgs{
		AccountId:   pulumi.String(m.ShortName()),
		DisplayName: pulumi.String(cloudinfra.DefaultString(args.DisplayName, m.ResourceName())),
	}
	if args.Description != "" {
		accountArgs.Description = pulumi.String(args.Description)
	}
	if args.Project != "" {
		accountArgs.Project = pulumi.String(args.Project)
	}
	account, err := gcpsa.NewAccount(ctx, m.ResourceName(), accountArgs, childOpts...)
	if err != nil {
		return nil, errors.Annotatef(err, "creating service account %q", m.ShortName())
	}
	comp.account = account

	for _, role := range args.Roles {
		grant, err := projects.NewIAMMember(ctx, m.ResourceName()+"-"+roleSlug(role), &projects.IAMMemberArgs{
			Project: pulumi.String(args.Project),
			Role:    pulumi.String(role),
			Member:  comp.Member(),
		}, childOpts...)
		if err != nil {
			return nil, errors.Annotatef(err, "granting %q", role)
		}
		comp.grants = append(comp.grants, grant)
	}
	logger.Debugf("service account %q with %d role grants", m.ShortName(), len(args.Roles))

	if err := ctx.RegisterResourceOutputs(comp, pulumi.Map{
		"email": account.Email,
	}); err != nil {
		return nil, errors.Trace(err)
	}
	return comp, nil
}

// Account returns the underlying resource handle.
func (a *Account) Account() *gcpsa.Account { return a.account }

// Email returns the account email.
func (a *Account) Email() pulumi.StringOutput { return a.account.Email }

// Member returns the IAM member string for the account.
func (a *Account) Member() pulumi.StringOutput {
	return pulumi.Sprintf("serviceAccount:%s", a.account.Email)
}

// roleSlug turns "roles/secretmanager.secretAccessor" into a child
// resource name segment.
func roleSlug(role string) string {
	slug := strings.TrimPrefix(role, "roles/")
	slug = strings.ReplaceAll(slug, "/", "-")
	slug = strings.ReplaceAll(slug, ".", "-")
	return strings.ToLower(slug)
}
