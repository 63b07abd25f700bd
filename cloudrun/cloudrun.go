// Copyright 2025 Mutinex Pty Ltd.
// Licensed under the MIT licence, see LICENCE file for details.

// Package cloudrun provisions Cloud Run v2 services in the meta region.
package cloudrun

import (
	"fmt"

	"github.com/juju/errors"
	"github.com/juju/loggo/v2"
	"github.com/pulumi/pulumi-gcp/sdk/v8/go/gcp/cloudrunv2"
	"github.com/pulumi/pulumi/sdk/v3/go/pulumi"

	cloudinfra "github.com/mutinex/cloud-infra-sub000"
	"github.com/mutinex/cloud-infra-sub000/meta"
)

var logger = loggo.GetLogger("cloudinfra.cloudrun")

const (
	defaultCPULimit    = "1"
	defaultMemoryLimit = "512Mi"
	defaultMaxScale    = 4

	defaultProbePeriod   = 10
	defaultProbeTimeout  = 1
	defaultProbeFailures = 3
)

// SecretMount mounts a Secret Manager secret as a file.
type SecretMount struct {
	// Secret is the secret id to mount. Required.
	Secret pulumi.StringInput

	// Path is the directory the secret appears under. Required.
	Path string

	// FileName defaults to ".env".
	FileName string

	// Version defaults to "latest".
	Version string
}

// Probe is an HTTP GET health check on the container.
type Probe struct {
	// Path of the check, e.g. "/healthz". Required.
	Path string

	// Port defaults to the container port Cloud Run resolved.
	Port int

	// InitialDelaySeconds defaults to 0.
	InitialDelaySeconds int

	// PeriodSeconds defaults to 10.
	PeriodSeconds int

	// TimeoutSeconds defaults to 1.
	TimeoutSeconds int

	// FailureThreshold defaults to 3.
	FailureThreshold int
}

// Args are the user overrides for a Cloud Run service.
type Args struct {
	// Project hosts the service. Empty means the provider default.
	Project string

	// Image is the container image. Required.
	Image pulumi.StringInput

	// ServiceAccount runs the service. Empty means the compute default.
	ServiceAccount pulumi.StringInput

	// EnvVars are plain environment variables.
	EnvVars map[string]string

	// ResourceLimits default to 1 CPU / 512Mi.
	CPULimit    string
	MemoryLimit string

	// Scaling bounds. MaxInstances defaults to 4; preview stacks are
	// capped at 1. MinInstances defaults to 0.
	MinInstances int
	MaxInstances int

	// Port is the container port. Zero leaves the Cloud Run default.
	Port int

	// StartupProbe holds new revisions out of traffic until the
	// container answers it. Nil leaves Cloud Run's default TCP check
	// on the container port.
	StartupProbe *Probe

	// LivenessProbe restarts containers that stop answering it. Nil
	// means no liveness checking.
	LivenessProbe *Probe

	// SecretMounts are files projected from Secret Manager.
	SecretMounts []SecretMount

	// Public grants roles/run.invoker to allUsers.
	Public bool

	// Internal restricts ingress to internal traffic and load
	// balancers, the stance the loadbalancer package expects.
	Internal bool
}

// Service is a Cloud Run v2 component.
type Service struct {
	pulumi.ResourceState

	service *cloudrunv2.Service
}

// New creates the service.
func New(ctx *pulumi.Context, m *meta.Meta, args *Args, opts ...pulumi.ResourceOption) (*Service, error) {
	if args == nil || args.Image == nil {
		return nil, errors.NotValidf("service without image")
	}
	if args.Public && args.Internal {
		return nil, errors.NotValidf("both public and internal")
	}

	comp := &Service{}
	childOpts, err := cloudinfra.Register(ctx, m, "CloudRun", comp, opts...)
	if err != nil {
		return nil, errors.Trace(err)
	}

	container := &cloudrunv2.ServiceTemplateContainerArgs{
		Image: args.Image,
		Resources: &cloudrunv2.ServiceTemplateContainerResourcesArgs{
			Limits: pulumi.StringMap{
				"cpu":    pulumi.String(cloudinfra.DefaultString(args.CPULimit, defaultCPULimit)),
				"memory": pulumi.String(cloudinfra.DefaultString(args.MemoryLimit, defaultMemoryLimit)),
			},
		},
	}
	if len(args.EnvVars) > 0 {
		envs := make(cloudrunv2.ServiceTemplateContainerEnvArray, 0, len(args.EnvVars))
		for name, value := range args.EnvVars {
			envs = append(envs, &cloudrunv2.ServiceTemplateContainerEnvArgs{
				Name:  pulumi.String(name),
				Value: pulumi.String(value),
			})
		}
		container.Envs = envs
	}
	if args.Port != 0 {
		container.Ports = &cloudrunv2.ServiceTemplateContainerPortsArgs{
			ContainerPort: pulumi.Int(args.Port),
		}
	}
	if args.StartupProbe != nil {
		probe, err := startupProbe(args.StartupProbe)
		if err != nil {
			return nil, errors.Trace(err)
		}
		container.StartupProbe = probe
	}
	if args.LivenessProbe != nil {
		probe, err := livenessProbe(args.LivenessProbe)
		if err != nil {
			return nil, errors.Trace(err)
		}
		container.LivenessProbe = probe
	}

	volumes := make(cloudrunv2.ServiceTemplateVolumeArray, 0, len(args.SecretMounts))
	mounts := make(cloudrunv2.ServiceTemplateContainerVolumeMountArray, 0, len(args.SecretMounts))
	for i, mount := range args.SecretMounts {
		if mount.Secret == nil || mount.Path == "" {
			return nil, errors.NotValidf("secret mount %d", i)
		}
		volumeName := fmtVolumeName(i)
		volumes = append(volumes, &cloudrunv2.ServiceTemplateVolumeArgs{
			Name: pulumi.String(volumeName),
			Secret: &cloudrunv2.ServiceTemplateVolumeSecretArgs{
				Secret: mount.Secret,
				Items: cloudrunv2.ServiceTemplateVolumeSecretItemArray{
					&cloudrunv2.ServiceTemplateVolumeSecretItemArgs{
						Path:    pulumi.String(cloudinfra.DefaultString(mount.FileName, ".env")),
						Version: pulumi.String(cloudinfra.DefaultString(mount.Version, "latest")),
					},
				},
			},
		})
		mounts = append(mounts, &cloudrunv2.ServiceTemplateContainerVolumeMountArgs{
			Name:      pulumi.String(volumeName),
			MountPath: pulumi.String(mount.Path),
		})
	}
	if len(mounts) > 0 {
		container.VolumeMounts = mounts
	}

	maxInstances := cloudinfra.DefaultInt(args.MaxInstances, defaultMaxScale)
	if m.Preview() {
		maxInstances = 1
	}
	template := &cloudrunv2.ServiceTemplateArgs{
		Containers: cloudrunv2.ServiceTemplateContainerArray{container},
		Labels:     pulumi.ToStringMap(m.Labels()),
		Scaling: &cloudrunv2.ServiceTemplateScalingArgs{
			MinInstanceCount: pulumi.Int(args.MinInstances),
			MaxInstanceCount: pulumi.Int(maxInstances),
		},
	}
	if len(volumes) > 0 {
		template.Volumes = volumes
	}
	if args.ServiceAccount != nil {
		template.ServiceAccount = args.ServiceAccount.ToStringOutput().ToStringPtrOutput()
	}

	ingress := "INGRESS_TRAFFIC_ALL"
	if args.Internal {
		ingress = "INGRESS_TRAFFIC_INTERNAL_LOAD_BALANCER"
	}
	serviceArgs := &cloudrunv2.ServiceArgs{
		Name:     pulumi.String(m.ResourceName()),
		Location: pulumi.String(m.Region()),
		Ingress:  pulumi.String(ingress),
		Labels:   pulumi.ToStringMap(m.Labels()),
		Template: template,
	}
	if args.Project != "" {
		serviceArgs.Project = pulumi.String(args.Project)
	}
	service, err := cloudrunv2.NewService(ctx, m.ResourceName(), serviceArgs, childOpts...)
	if err != nil {
		return nil, errors.Annotatef(err, "creating cloud run service %q", m.ResourceName())
	}
	comp.service = service

	if args.Public {
		memberArgs := &cloudrunv2.ServiceIamMemberArgs{
			Name:     pulumi.String(m.ResourceName()),
			Location: pulumi.String(m.Region()),
			Role:     pulumi.String("roles/run.invoker"),
			Member:   pulumi.String("allUsers"),
		}
		if args.Project != "" {
			memberArgs.Project = pulumi.String(args.Project)
		}
		if _, err := cloudrunv2.NewServiceIamMember(ctx, m.ResourceName()+"-invoker", memberArgs, childOpts...); err != nil {
			return nil, errors.Annotatef(err, "granting public access to %q", m.ResourceName())
		}
	}
	logger.Debugf("cloud run service %q in %q", m.ResourceName(), m.Region())

	if err := ctx.RegisterResourceOutputs(comp, pulumi.Map{
		"uri": service.Uri,
	}); err != nil {
		return nil, errors.Trace(err)
	}
	return comp, nil
}

func startupProbe(p *Probe) (*cloudrunv2.ServiceTemplateContainerStartupProbeArgs, error) {
	if p.Path == "" {
		return nil, errors.NotValidf("startup probe without path")
	}
	httpGet := &cloudrunv2.ServiceTemplateContainerStartupProbeHttpGetArgs{
		Path: pulumi.String(p.Path),
	}
	if p.Port != 0 {
		httpGet.Port = pulumi.Int(p.Port)
	}
	return &cloudrunv2.ServiceTemplateContainerStartupProbeArgs{
		HttpGet:             httpGet,
		InitialDelaySeconds: pulumi.Int(p.InitialDelaySeconds),
		PeriodSeconds:       pulumi.Int(cloudinfra.DefaultInt(p.PeriodSeconds, defaultProbePeriod)),
		TimeoutSeconds:      pulumi.Int(cloudinfra.DefaultInt(p.TimeoutSeconds, defaultProbeTimeout)),
		FailureThreshold:    pulumi.Int(cloudinfra.DefaultInt(p.FailureThreshold, defaultProbeFailures)),
	}, nil
}

func livenessProbe(p *Probe) (*cloudrunv2.ServiceTemplateContainerLivenessProbeArgs, error) {
	if p.Path == "" {
		return nil, errors.NotValidf("liveness probe without path")
	}
	httpGet := &cloudrunv2.ServiceTemplateContainerLivenessProbeHttpGetArgs{
		Path: pulumi.String(p.Path),
	}
	if p.Port != 0 {
		httpGet.Port = pulumi.Int(p.Port)
	}
	return &cloudrunv2.ServiceTemplateContainerLivenessProbeArgs{
		HttpGet:             httpGet,
		InitialDelaySeconds: pulumi.Int(p.InitialDelaySeconds),
		PeriodSeconds:       pulumi.Int(cloudinfra.DefaultInt(p.PeriodSeconds, defaultProbePeriod)),
		TimeoutSeconds:      pulumi.Int(cloudinfra.DefaultInt(p.TimeoutSeconds, defaultProbeTimeout)),
		FailureThreshold:    pulumi.Int(cloudinfra.DefaultInt(p.FailureThreshold, defaultProbeFailures)),
	}, nil
}

func fmtVolumeName(i int) string {
	return fmt.Sprintf("secret-%d", i)
}

// Service returns the underlying resource handle.
func (s *Service) Service() *cloudrunv2.Service { return s.service }

// Name returns the service name.
func (s *Service) Name() pulumi.StringOutput { return s.service.Name }

// URI returns the run.app URI of the service.
func (s *Service) URI() pulumi.StringOutput { return s.service.Uri }
