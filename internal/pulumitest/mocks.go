// Copyright 2025 Mutinex Pty Ltd.
// Licensed under the MIT licence, see LICENCE file for details.

// Package pulumitest runs component code under the Pulumi engine mocks
// so tests exercise the real resource registration path without a cloud.
package pulumitest

import (
	"sync"

	"github.com/pulumi/pulumi/sdk/v3/go/common/resource"
	"github.com/pulumi/pulumi/sdk/v3/go/pulumi"
)

// Mocks answers every resource registration with the inputs echoed back
// as outputs, which is all the component tests need: they assert on the
// names and properties the components computed, not on provider
// behaviour.
type Mocks struct{}

// NewResource implements pulumi.MockResourceMonitor.
func (Mocks) NewResource(args pulumi.MockResourceArgs) (string, resource.PropertyMap, error) {
	return args.Name + "-id", args.Inputs, nil
}

// Call implements pulumi.MockResourceMonitor.
func (Mocks) Call(args pulumi.MockCallArgs) (resource.PropertyMap, error) {
	return args.Args, nil
}

// Run executes body under the mocked engine.
func Run(body pulumi.RunFunc) error {
	return pulumi.RunErr(body, pulumi.WithMocks("project", "stack", Mocks{}))
}

// WaitString resolves a string output inside a mocked run.
func WaitString(out pulumi.StringOutput) string {
	var wg sync.WaitGroup
	var got string
	wg.Add(1)
	out.ApplyT(func(v string) string {
		got = v
		wg.Done()
		return v
	})
	wg.Wait()
	return got
}

// WaitStrings resolves several string outputs at once.
func WaitStrings(outs ...pulumi.StringOutput) []string {
	got := make([]string, len(outs))
	for i, out := range outs {
		got[i] = WaitString(out)
	}
	return got
}
