// Copyright 2025 Mutinex Pty Ltd.
// Licensed under the MIT licence, see LICENCE file for details.

// Package database provisions Cloud SQL Postgres instances. Stable
// stacks get a regional instance with deletion protection and
// point-in-time recovery; preview stacks get a disposable zonal one.
// Instance names carry the meta preview hash because Cloud SQL reserves
// a deleted name for a week.
package database

import (
	"github.com/juju/errors"
	"github.com/juju/loggo/v2"
	"github.com/pulumi/pulumi-gcp/sdk/v8/go/gcp/sql"
	"github.com/pulumi/pulumi/sdk/v3/go/pulumi"

	cloudinfra "github.com/mutinex/cloud-infra-sub000"
	"github.com/mutinex/cloud-infra-sub000/meta"
)

var logger = loggo.GetLogger("cloudinfra.database")

const (
	defaultVersion = "POSTGRES_16"
	defaultTier    = "db-f1-micro"
)

// Args are the user overrides for a database.
type Args struct {
	// Project hosts the instance. Empty means the provider default.
	Project string

	// Version defaults to POSTGRES_16.
	Version string

	// Tier defaults to db-f1-micro.
	Tier string

	// DatabaseName defaults to the meta name.
	DatabaseName string

	// User, when set together with Password, creates a SQL user on the
	// instance.
	User     string
	Password pulumi.StringPtrInput

	// PrivateNetwork, when set, disables the public IP and attaches the
	// instance to the given VPC self link. The VPC must already have a
	// private service access connection.
	PrivateNetwork pulumi.StringPtrInput

	// Flags are database flags applied to the instance.
	Flags map[string]string

	// DeletionProtection defaults to true for stable stacks and is
	// forced off for preview ones.
	DeletionProtection *bool
}

// Database is a Cloud SQL component.
type Database struct {
	pulumi.ResourceState

	instance *sql.DatabaseInstance
	database *sql.Database
	user     *sql.User
}

// New creates the instance, a database on it, and optionally a user.
func New(ctx *pulumi.Context, m *meta.Meta, args *Args, opts ...pulumi.ResourceOption) (*Database, error) {
	if args == nil {
		args = &Args{}
	}
	if (args.User == "") != (args.Password == nil) {
		return nil, errors.NotValidf("user and password must be set together")
	}

	comp := &Database{}
	childOpts, err := cloudinfra.Register(ctx, m, "Database", comp, opts...)
	if err != nil {
		return nil, errors.Trace(err)
	}

	availability := "REGIONAL"
	protected := cloudinfra.DefaultBool(args.DeletionProtection, true)
	if m.Preview() {
		availability = "ZONAL"
		protected = false
	}

	settings := &sql.DatabaseInstanceSettingsArgs{
		Tier:             pulumi.String(cloudinfra.DefaultString(args.Tier, defaultTier)),
		AvailabilityType: pulumi.String(availability),
		UserLabels:       pulumi.ToStringMap(m.Labels()),
		BackupConfiguration: &sql.DatabaseInstanceSettingsBackupConfigurationArgs{
			Enabled:                    pulumi.Bool(!m.Preview()),
			PointInTimeRecoveryEnabled: pulumi.Bool(!m.Preview()),
		},
		MaintenanceWindow: &sql.DatabaseInstanceSettingsMaintenanceWindowArgs{
			Day:  pulumi.Int(7),
			Hour: pulumi.Int(3),
		},
	}
	if args.PrivateNetwork != nil {
		settings.IpConfiguration = &sql.DatabaseInstanceSettingsIpConfigurationArgs{
			Ipv4Enabled:    pulumi.Bool(false),
			PrivateNetwork: args.PrivateNetwork,
		}
	}
	if len(args.Flags) > 0 {
		flags := make(sql.DatabaseInstanceSettingsDatabaseFlagArray, 0, len(args.Flags))
		for name, value := range args.Flags {
			flags = append(flags, &sql.DatabaseInstanceSettingsDatabaseFlagArgs{
				Name:  pulumi.String(name),
				Value: pulumi.String(value),
			})
		}
		settings.DatabaseFlags = flags
	}

	instanceArgs := &sql.DatabaseInstanceArgs{
		Name:               pulumi.String(m.ResourceName()),
		DatabaseVersion:    pulumi.String(cloudinfra.DefaultString(args.Version, defaultVersion)),
		Region:             pulumi.String(m.Region()),
		DeletionProtection: pulumi.Bool(protected),
		Settings:           settings,
	}
	if args.Project != "" {
		instanceArgs.Project = pulumi.String(args.Project)
	}
	instance, err := sql.NewDatabaseInstance(ctx, m.ResourceName(), instanceArgs, childOpts...)
	if err != nil {
		return nil, errors.Annotatef(err, "creating sql instance %q", m.ResourceName())
	}
	comp.instance = instance

	database, err := sql.NewDatabase(ctx, m.ResourceName(), &sql.DatabaseArgs{
		Name:     pulumi.String(cloudinfra.DefaultString(args.DatabaseName, m.Name())),
		Instance: instance.Name,
	}, childOpts...)
	if err != nil {
		return nil, errors.Annotatef(err, "creating database on %q", m.ResourceName())
	}
	comp.database = database

	if args.User != "" {
		user, err := sql.NewUser(ctx, m.ResourceName()+"-"+args.User, &sql.UserArgs{
			Name:     pulumi.String(args.User),
			Instance: instance.Name,
			Password: args.Password,
		}, childOpts...)
		if err != nil {
			return nil, errors.Annotatef(err, "creating user %q on %q", args.User, m.ResourceName())
		}
		comp.user = user
	}
	logger.Debugf("sql instance %q (%s, %s)", m.ResourceName(), m.Region(), availability)

	if err := ctx.RegisterResourceOutputs(comp, pulumi.Map{
		"connectionName": instance.ConnectionName,
	}); err != nil {
		return nil, errors.Trace(err)
	}
	return comp, nil
}

// Instance returns the underlying instance handle.
func (d *Database) Instance() *sql.DatabaseInstance { return d.instance }

// Database returns the database handle.
func (d *Database) Database() *sql.Database { return d.database }

// User returns the user handle, or nil when no user was requested.
func (d *Database) User() *sql.User { return d.user }

// ConnectionName returns the instance connection name used by the Cloud
// SQL proxy and connectors.
func (d *Database) ConnectionName() pulumi.StringOutput { return d.instance.ConnectionName }

// PrivateIP returns the private address of the instance. Empty unless
// the instance was attached to a VPC.
func (d *Database) PrivateIP() pulumi.StringOutput { return d.instance.PrivateIpAddress }
