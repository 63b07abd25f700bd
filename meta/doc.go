// Copyright 2025 Mutinex Pty Ltd.
// Licensed under the MIT licence, see LICENCE file for details.

// Package meta resolves abstract resource metadata into compliant GCP
// identifiers and locations.
//
// A Meta is built once per logical thing being provisioned and handed to
// every component that makes up that thing. It answers four questions,
// deterministically and without I/O:
//
//   - what is the resource called (ResourceName, ShortName)
//   - where does it live (Location, Region, Regions, DualRegion)
//   - is it ephemeral (Preview, and the hash suffix that follows from it)
//   - how is it labelled (Labels)
//
// Resolution is driven by small fixed tables: a domain code selects a
// default region, regions compress to short codes for length-limited
// identifiers, and pairs of regions resolve to predefined dual-region
// codes. Invalid input is reported with NotValid errors; nothing here
// panics or guesses.
package meta
