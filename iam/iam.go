// Copyright 2025 Mutinex Pty Ltd.
// Licensed under the MIT licence, see LICENCE file for details.

// Package iam provisions project-level IAM: custom roles, member grants
// and audit configs. Role ids live in a different charset from the rest
// of the naming rules (underscores, no hyphens), so the meta resource
// name is transformed here rather than validated away.
package iam

import (
	"strings"

	"github.com/juju/errors"
	"github.com/pulumi/pulumi-gcp/sdk/v8/go/gcp/projects"
	"github.com/pulumi/pulumi/sdk/v3/go/pulumi"

	cloudinfra "github.com/mutinex/cloud-infra-sub000"
	"github.com/mutinex/cloud-infra-sub000/meta"
)

// RoleArgs are the user overrides for a custom role.
type RoleArgs struct {
	// Project hosts the role. Required.
	Project string

	// Title defaults to the meta resource name.
	Title string

	// Description is attached verbatim.
	Description string

	// Permissions the role carries. Required, non-empty.
	Permissions []string

	// Stage defaults to "GA".
	Stage string
}

// Role is a project custom role component.
type Role struct {
	pulumi.ResourceState

	role *projects.IAMCustomRole
}

// RoleID derives the custom role id for a meta: the resource name with
// hyphens folded to underscores, e.g. "mx_api_au".
func RoleID(m *meta.Meta) string {
	return strings.ReplaceAll(m.ResourceName(), "-", "_")
}

// NewRole creates a project custom role.
func NewRole(ctx *pulumi.Context, m *meta.Meta, args *RoleArgs, opts ...pulumi.ResourceOption) (*Role, error) {
	if args == nil || args.Project == "" {
		return nil, errors.NotValidf("empty project")
	}
	if len(args.Permissions) == 0 {
		return nil, errors.NotValidf("role without permissions")
	}

	comp := &Role{}
	childOpts, err := cloudinfra.Register(ctx, m, "Role", comp, opts...)
	if err != nil {
		return nil, errors.Trace(err)
	}

	permissions := make(pulumi.StringArray, len(args.Permissions))
	for i, p := range args.Permissions {
		permissions[i] = pulumi.String(p)
	}
	role, err := projects.NewIAMCustomRole(ctx, m.ResourceName(), &projects.IAMCustomRoleArgs{
		Project:     pulumi.String(args.Project),
		RoleId:      pulumi.String(RoleID(m)),
		Title:       pulumi.String(cloudinfra.DefaultString(args.Title, m.ResourceName())),
		Description: pulumi.String(args.Description),
		Permissions: permissions,
		Stage:       pulumi.String(cloudinfra.DefaultString(args.Stage, "GA")),
	}, childOpts...)
	if err != nil {
		return nil, errors.Annotatef(err, "creating custom role %q", RoleID(m))
	}
	comp.role = role

	if err := ctx.RegisterResourceOutputs(comp, pulumi.Map{
		"name": role.Name,
	}); err != nil {
		return nil, errors.Trace(err)
	}
	return comp, nil
}

// Role returns the underlying resource handle.
func (r *Role) Role() *projects.IAMCustomRole { return r.role }

// Name returns the fully qualified role name.
func (r *Role) Name() pulumi.StringOutput { return r.role.Name }

// MemberArgs are the user overrides for a member grant.
type MemberArgs struct {
	// Project the grant applies to. Required.
	Project string

	// Role granted, either a predefined "roles/..." name or a custom
	// role name output. Required.
	Role pulumi.StringInput

	// Member receiving the grant, e.g. "group:eng@example.com".
	// Required.
	Member pulumi.StringInput
}

// Member is a single project-level, member-wise grant.
type Member struct {
	pulumi.ResourceState

	member *projects.IAMMember
}

// NewMember grants a role to a member on a project. The grant is
// non-authoritative: it composes with grants made elsewhere.
func NewMember(ctx *pulumi.Context, m *meta.Meta, args *MemberArgs, opts ...pulumi.ResourceOption) (*Member, error) {
	if args == nil || args.Project == "" {
		return nil, errors.NotValidf("empty project")
	}
	if args.Role == nil || args.Member == nil {
		return nil, errors.NotValidf("grant without role and member")
	}

	comp := &Member{}
	childOpts, err := cloudinfra.Register(ctx, m, "Member", comp, opts...)
	if err != nil {
		return nil, errors.Trace(err)
	}

	member, err := projects.NewIAMMember(ctx, m.ResourceName(), &projects.IAMMemberArgs{
		Project: pulumi.String(args.Project),
		Role:    args.Role,
		Member:  args.Member,
	}, childOpts...)
	if err != nil {
		return nil, errors.Annotatef(err, "granting role on project %q", args.Project)
	}
	comp.member = member

	if err := ctx.RegisterResourceOutputs(comp, pulumi.Map{
		"etag": member.Etag,
	}); err != nil {
		return nil, errors.Trace(err)
	}
	return comp, nil
}

// Member returns the underlying resource handle.
func (g *Member) Member() *projects.IAMMember { return g.member }

// AuditArgs are the user overrides for an audit config.
type AuditArgs struct {
	// Project the config applies to. Required.
	Project string

	// Service audited, e.g. "allServices". Defaults to "allServices".
	Service string

	// LogTypes enabled. Defaults to DATA_READ and DATA_WRITE.
	LogTypes []string
}

// Audit is a project audit logging component.
type Audit struct {
	pulumi.ResourceState

	config *projects.IAMAuditConfig
}

// NewAudit enables audit logging on a project service.
func NewAudit(ctx *pulumi.Context, m *meta.Meta, args *AuditArgs, opts ...pulumi.ResourceOption) (*Audit, error) {
	if args == nil || args.Project == "" {
		return nil, errors.NotValidf("empty project")
	}
	logTypes := args.LogTypes
	if len(logTypes) == 0 {
		logTypes = []string{"DATA_READ", "DATA_WRITE"}
	}

	comp := &Audit{}
	childOpts, err := cloudinfra.Register(ctx, m, "Audit", comp, opts...)
	if err != nil {
		return nil, errors.Trace(err)
	}

	configs := make(projects.IAMAuditConfigAuditLogConfigArray, len(logTypes))
	for i, t := range logTypes {
		configs[i] = &projects.IAMAuditConfigAuditLogConfigArgs{
			LogType: pulumi.String(t),
		}
	}
	config, err := projects.NewIAMAuditConfig(ctx, m.ResourceName(), &projects.IAMAuditConfigArgs{
		Project:         pulumi.String(args.Project),
		Service:         pulumi.String(cloudinfra.DefaultString(args.Service, "allServices")),
		AuditLogConfigs: configs,
	}, childOpts...)
	if err != nil {
		return nil, errors.Annotatef(err, "configuring audit logs on %q", args.Project)
	}
	comp.config = config

	if err := ctx.RegisterResourceOutputs(comp, pulumi.Map{
		"etag": config.Etag,
	}); err != nil {
		return nil, errors.Trace(err)
	}
	return comp, nil
}

// Config returns the underlying resource handle.
func (a *Audit) Config() *projects.IAMAuditConfig { return a.config }
