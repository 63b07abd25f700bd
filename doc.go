// Copyright 2025 Mutinex Pty Ltd.
// Licensed under the MIT licence, see LICENCE file for details.

// Package cloudinfra provides convention-enforcing wrappers over the
// Pulumi GCP provider SDK.
//
// Every component package in this module follows the same shape: a
// constructor takes a *meta.Meta describing who the resources belong to
// and where they live, an Args struct of user overrides, merges the
// overrides with opinionated defaults, and registers one or more GCP
// resources under a single Pulumi component. Provisioning, dependency
// resolution and state management are entirely the Pulumi engine's
// business; nothing in this module performs I/O of its own.
//
// The meta package is the naming authority. Components never invent
// identifiers; they derive them from the Meta they were given, so two
// components created from the same Meta agree on prefixes, domains,
// regions and preview suffixes without coordination.
package cloudinfra
