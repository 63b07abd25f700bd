// Copyright 2025 Mutinex Pty Ltd.
// Licensed under the MIT licence, see LICENCE file for details.

// Package secret provisions Secret Manager secrets whose replication
// policy follows the meta location: a single region gets one
// user-managed replica, a dual-region gets a replica in each
// constituent region, and a multi-region gets automatic replication.
package secret

import (
	"fmt"

	"github.com/juju/errors"
	"github.com/juju/loggo/v2"
	"github.com/pulumi/pulumi-gcp/sdk/v8/go/gcp/secretmanager"
	"github.com/pulumi/pulumi/sdk/v3/go/pulumi"

	cloudinfra "github.com/mutinex/cloud-infra-sub000"
	"github.com/mutinex/cloud-infra-sub000/meta"
)

var logger = loggo.GetLogger("cloudinfra.secret")

// Args are the user overrides for a secret.
type Args struct {
	// Project hosts the secret. Empty means the provider default.
	Project string

	// Data, when set, becomes the initial secret version.
	Data pulumi.StringInput

	// Accessors are IAM members granted secretAccessor on this secret.
	Accessors []pulumi.StringInput

	// Annotations are attached verbatim.
	Annotations map[string]string
}

// Secret is a Secret Manager component.
type Secret struct {
	pulumi.ResourceState

	secret  *secretmanager.Secret
	version *secretmanager.SecretVersion
}

// New creates the secret, its optional initial version and accessor
// grants.
func New(ctx *pulumi.Context, m *meta.Meta, args *Args, opts ...pulumi.ResourceOption) (*Secret, error) {
	if args == nil {
		args = &Args{}
	}

	comp := &Secret{}
	childOpts, err := cloudinfra.Register(ctx, m, "Secret", comp, opts...)
	if err != nil {
		return nil, errors.Trace(err)
	}

	secretArgs := &secretmanager.SecretArgs{
		SecretId:    pulumi.String(m.ResourceName()),
		Replication: replicationFor(m),
		Labels:      pulumi.ToStringMap(m.Labels()),
	}
	if args.Project != "" {
		secretArgs.Project = pulumi.String(args.Project)
	}
	if len(args.Annotations) > 0 {
		secretArgs.Annotations = pulumi.ToStringMap(args.Annotations)
	}
	secret, err := secretmanager.NewSecret(ctx, m.ResourceName(), secretArgs, childOpts...)
	if err != nil {
		return nil, errors.Annotatef(err, "creating secret %q", m.ResourceName())
	}
	comp.secret = secret

	if args.Data != nil {
		version, err := secretmanager.NewSecretVersion(ctx, m.ResourceName(), &secretmanager.SecretVersionArgs{
			Secret:     secret.ID(),
			SecretData: args.Data,
		}, childOpts...)
		if err != nil {
			return nil, errors.Annotatef(err, "creating initial version of %q", m.ResourceName())
		}
		comp.version = version
	}

	for i, accessor := range args.Accessors {
		memberArgs := &secretmanager.SecretIamMemberArgs{
			SecretId: secret.SecretId,
			Role:     pulumi.String("roles/secretmanager.secretAccessor"),
			Member:   accessor,
		}
		if args.Project != "" {
			memberArgs.Project = pulumi.String(args.Project)
		}
		if _, err := secretmanager.NewSecretIamMember(ctx, childName(m, i), memberArgs, childOpts...); err != nil {
			return nil, errors.Annotatef(err, "granting access to %q", m.ResourceName())
		}
	}
	logger.Debugf("secret %q replicated per %q", m.ResourceName(), m.Location())

	if err := ctx.RegisterResourceOutputs(comp, pulumi.Map{
		"id": secret.ID(),
	}); err != nil {
		return nil, errors.Trace(err)
	}
	return comp, nil
}

// replicationFor maps the meta location onto a replication policy.
func replicationFor(m *meta.Meta) secretmanager.SecretReplicationInput {
	if m.IsMultiRegion() {
		return &secretmanager.SecretReplicationArgs{
			Auto: &secretmanager.SecretReplicationAutoArgs{},
		}
	}
	regions := m.Regions()
	replicas := make(secretmanager.SecretReplicationUserManagedReplicaArray, len(regions))
	for i, region := range regions {
		replicas[i] = &secretmanager.SecretReplicationUserManagedReplicaArgs{
			Location: pulumi.String(region),
		}
	}
	return &secretmanager.SecretReplicationArgs{
		UserManaged: &secretmanager.SecretReplicationUserManagedArgs{
			Replicas: replicas,
		},
	}
}

func childName(m *meta.Meta, i int) string {
	return fmt.Sprintf("%s-accessor-%d", m.ResourceName(), i)
}

// Secret returns the underlying resource handle.
func (s *Secret) Secret() *secretmanager.Secret { return s.secret }

// ID returns the fully qualified secret id.
func (s *Secret) ID() pulumi.IDOutput { return s.secret.ID() }

// Name returns the short secret id.
func (s *Secret) Name() pulumi.StringOutput { return s.secret.SecretId }

// Version returns the initial version handle, or nil when no Data was
// given.
func (s *Secret) Version() *secretmanager.SecretVersion { return s.version }
