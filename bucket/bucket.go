// Copyright 2025 Mutinex Pty Ltd.
// Licensed under the MIT licence, see LICENCE file for details.

// Package bucket provisions Cloud Storage buckets at the meta location,
// which may be a region, a dual-region or a multi-region.
package bucket

import (
	"fmt"

	"github.com/juju/errors"
	"github.com/juju/loggo/v2"
	"github.com/pulumi/pulumi-gcp/sdk/v8/go/gcp/storage"
	"github.com/pulumi/pulumi/sdk/v3/go/pulumi"

	cloudinfra "github.com/mutinex/cloud-infra-sub000"
	"github.com/mutinex/cloud-infra-sub000/meta"
)

var logger = loggo.GetLogger("cloudinfra.bucket")

const defaultNoncurrentVersions = 10

// Grant pairs an IAM member with a bucket-level role.
type Grant struct {
	Member pulumi.StringInput
	Role   string
}

// Args are the user overrides for a bucket.
type Args struct {
	// Project hosts the bucket. Empty means the provider default.
	Project string

	// StorageClass defaults to "STANDARD".
	StorageClass string

	// Versioning keeps noncurrent object versions. Defaults to true;
	// noncurrent versions past the retention count are deleted by a
	// lifecycle rule.
	Versioning *bool

	// NoncurrentVersions retained by the lifecycle rule when versioning
	// is on. Defaults to 10.
	NoncurrentVersions int

	// ForceDestroy allows deleting a non-empty bucket. Always true for
	// preview metas regardless of this setting.
	ForceDestroy bool

	// Grants are bucket-level IAM member grants.
	Grants []Grant
}

// Bucket is a Cloud Storage component.
type Bucket struct {
	pulumi.ResourceState

	bucket *storage.Bucket
}

// New creates the bucket.
func New(ctx *pulumi.Context, m *meta.Meta, args *Args, opts ...pulumi.ResourceOption) (*Bucket, error) {
	if args == nil {
		args = &Args{}
	}
	if args.NoncurrentVersions < 0 {
		return nil, errors.NotValidf("noncurrent version count %d", args.NoncurrentVersions)
	}

	comp := &Bucket{}
	childOpts, err := cloudinfra.Register(ctx, m, "Bucket", comp, opts...)
	if err != nil {
		return nil, errors.Trace(err)
	}

	versioning := cloudinfra.DefaultBool(args.Versioning, true)
	bucketArgs := &storage.BucketArgs{
		Name:                     pulumi.String(m.ResourceName()),
		Location:                 pulumi.String(m.GCSLocation()),
		StorageClass:             pulumi.String(cloudinfra.DefaultString(args.StorageClass, "STANDARD")),
		UniformBucketLevelAccess: pulumi.Bool(true),
		ForceDestroy:             pulumi.Bool(args.ForceDestroy || m.Preview()),
		Labels:                   pulumi.ToStringMap(m.Labels()),
		Versioning: &storage.BucketVersioningArgs{
			Enabled: pulumi.Bool(versioning),
		},
	}
	if args.Project != "" {
		bucketArgs.Project = pulumi.String(args.Project)
	}
	if versioning {
		bucketArgs.LifecycleRules = storage.BucketLifecycleRuleArray{
			&storage.BucketLifecycleRuleArgs{
				Action: &storage.BucketLifecycleRuleActionArgs{
					Type: pulumi.String("Delete"),
				},
				Condition: &storage.BucketLifecycleRuleConditionArgs{
					NumNewerVersions: pulumi.Int(cloudinfra.DefaultInt(args.NoncurrentVersions, defaultNoncurrentVersions)),
					WithState:        pulumi.String("ARCHIVED"),
				},
			},
		}
	}
	bucket, err := storage.NewBucket(ctx, m.ResourceName(), bucketArgs, childOpts...)
	if err != nil {
		return nil, errors.Annotatef(err, "creating bucket %q", m.ResourceName())
	}
	comp.bucket = bucket

	for i, grant := range args.Grants {
		if grant.Role == "" || grant.Member == nil {
			return nil, errors.NotValidf("bucket grant %d", i)
		}
		if _, err := storage.NewBucketIAMMember(ctx, fmt.Sprintf("%s-grant-%d", m.ResourceName(), i), &storage.BucketIAMMemberArgs{
			Bucket: bucket.Name,
			Role:   pulumi.String(grant.Role),
			Member: grant.Member,
		}, childOpts...); err != nil {
			return nil, errors.Annotatef(err, "granting %q on bucket %q", grant.Role, m.ResourceName())
		}
	}
	logger.Debugf("bucket %q in %q", m.ResourceName(), m.GCSLocation())

	if err := ctx.RegisterResourceOutputs(comp, pulumi.Map{
		"name": bucket.Name,
		"url":  bucket.Url,
	}); err != nil {
		return nil, errors.Trace(err)
	}
	return comp, nil
}

// Bucket returns the underlying resource handle.
func (b *Bucket) Bucket() *storage.Bucket { return b.bucket }

// Name returns the bucket name.
func (b *Bucket) Name() pulumi.StringOutput { return b.bucket.Name }

// URL returns the gs:// URL of the bucket.
func (b *Bucket) URL() pulumi.StringOutput { return b.bucket.Url }
