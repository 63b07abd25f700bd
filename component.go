// Copyright 2025 Mutinex Pty Ltd.
// Licensed under the MIT licence, see LICENCE file for details.

package cloudinfra

import (
	"github.com/juju/errors"
	"github.com/pulumi/pulumi/sdk/v3/go/pulumi"

	"github.com/mutinex/cloud-infra-sub000/meta"
)

// Token returns the Pulumi type token for a component kind, e.g.
// Token("Bucket") == "cloudinfra:index:Bucket". Kind must be a non-empty
// exported-identifier-looking string; it is embedded in every URN the
// component produces.
func Token(kind string) string {
	return "cloudinfra:index:" + kind
}

// Register registers comp as a component resource named after m and
// returns the resource options child resources must be created with.
// Comp must embed pulumi.ResourceState directly at the top level of its
// struct; the SDK only scans top-level anonymous fields when wiring the
// resource state.
func Register(ctx *pulumi.Context, m *meta.Meta, kind string, comp pulumi.ComponentResource, opts ...pulumi.ResourceOption) ([]pulumi.ResourceOption, error) {
	if m == nil {
		return nil, errors.NotValidf("nil meta")
	}
	if err := ctx.RegisterComponentResource(Token(kind), m.ResourceName(), comp, opts...); err != nil {
		return nil, errors.Trace(err)
	}
	return []pulumi.ResourceOption{pulumi.Parent(comp)}, nil
}

// Export records a stack output for a component, namespaced by the meta
// resource name so that several components of the same kind in one stack
// do not collide.
func Export(ctx *pulumi.Context, m *meta.Meta, key string, value pulumi.Input) {
	ctx.Export(m.ResourceName()+":"+key, value)
}

// DefaultString returns value unless it is empty, in which case it
// returns fallback.
func DefaultString(value, fallback string) string {
	if value == "" {
		return fallback
	}
	return value
}

// DefaultInt returns value unless it is zero, in which case it returns
// fallback.
func DefaultInt(value, fallback int) int {
	if value == 0 {
		return fallback
	}
	return value
}

// DefaultBool dereferences value, falling back when it was never set.
// Components use *bool args where false is a meaningful override.
func DefaultBool(value *bool, fallback bool) bool {
	if value == nil {
		return fallback
	}
	return *value
}
