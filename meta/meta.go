// Copyright 2025 Mutinex Pty Ltd.
// Licensed under the MIT licence, see LICENCE file for details.

package meta

import (
	"crypto/sha256"
	"encoding/hex"
	"regexp"
	"strings"

	"github.com/juju/errors"
	"github.com/juju/loggo/v2"
)

var logger = loggo.GetLogger("cloudinfra.meta")

const (
	// DefaultPrefix is the organisation prefix applied to every
	// identifier unless the caller omits or overrides it.
	DefaultPrefix = "mx"

	// DefaultDomain is assumed when no domain is given.
	DefaultDomain = "au"

	// maxResourceName is the length ceiling for ResourceName. Most GCP
	// identifiers allow 63 characters; anything longer is rejected at
	// resolution time rather than at provisioning time.
	maxResourceName = 63

	// maxShortName is the length ceiling for ShortName, chosen for the
	// tightest identifier the library derives (service account ids are
	// capped at 30 characters).
	maxShortName = 30

	// previewHashLen is the number of hex characters of the input hash
	// appended to identifiers of preview resources.
	previewHashLen = 6
)

// validName constrains name, prefix and every identifier the library
// produces: RFC-1035 labels, lowercase only.
var validName = regexp.MustCompile(`^[a-z](?:[a-z0-9-]*[a-z0-9])?$`)

type locationKind int

const (
	regionKind locationKind = iota
	dualRegionKind
	multiRegionKind
)

// Input is the caller-supplied metadata a Meta is resolved from.
type Input struct {
	// Name is the logical name of the thing being provisioned. Required;
	// must be a lowercase RFC-1035 label.
	Name string

	// Domain is the business geography code (au, us, eu, uk, jp, gl).
	// Defaults to DefaultDomain.
	Domain string

	// Location optionally pins resources to an explicit GCP location: a
	// region, a predefined dual-region code, or a multi-region code.
	// When empty, the domain's default location is used.
	Location string

	// Locations optionally names a pair of regions that must form a
	// predefined dual-region. Mutually exclusive with Location.
	Locations []string

	// Preview marks the stack as ephemeral. Identifiers derived from a
	// preview Meta carry a deterministic hash suffix in place of the
	// domain segment so they cannot collide with the stable resources.
	Preview bool

	// Prefix overrides DefaultPrefix.
	Prefix string

	// OmitPrefix drops the prefix segment from derived identifiers.
	OmitPrefix bool

	// OmitDomain drops the domain segment from derived identifiers.
	OmitDomain bool
}

// Meta is resolved, immutable naming metadata. All methods are pure; the
// same Input always resolves to a Meta producing byte-identical outputs.
type Meta struct {
	name       string
	domain     string
	prefix     string
	preview    bool
	omitPrefix bool
	omitDomain bool

	kind     locationKind
	location string
	regions  []string
}

// New validates in and resolves it into a Meta.
func New(in Input) (*Meta, error) {
	if in.Name == "" {
		return nil, errors.NotValidf("empty name")
	}
	if !validName.MatchString(in.Name) {
		return nil, errors.NotValidf("name %q", in.Name)
	}
	prefix := in.Prefix
	if prefix == "" {
		prefix = DefaultPrefix
	}
	if !validName.MatchString(prefix) {
		return nil, errors.NotValidf("prefix %q", prefix)
	}
	// ShortName needs room for the prefix, a truncated name and the
	// region or hash tail inside 30 characters.
	if len(prefix) > 10 {
		return nil, errors.NotValidf("prefix %q: longer than 10 characters", prefix)
	}
	domain := in.Domain
	if domain == "" {
		domain = DefaultDomain
	}
	if _, ok := domainRegions[domain]; !ok {
		return nil, errors.NotValidf("domain %q", domain)
	}

	m := &Meta{
		name:       in.Name,
		domain:     domain,
		prefix:     prefix,
		preview:    in.Preview,
		omitPrefix: in.OmitPrefix,
		omitDomain: in.OmitDomain,
	}
	if err := m.resolveLocation(in); err != nil {
		return nil, errors.Trace(err)
	}
	if len(m.ResourceName()) > maxResourceName {
		return nil, errors.NotValidf("name %q: derived identifier exceeds %d characters", in.Name, maxResourceName)
	}
	logger.Debugf("resolved %q to %q in %s", in.Name, m.ResourceName(), m.location)
	return m, nil
}

func (m *Meta) resolveLocation(in Input) error {
	switch {
	case len(in.Locations) > 0:
		if in.Location != "" {
			return errors.NotValidf("both location and locations")
		}
		if len(in.Locations) != 2 {
			return errors.NotValidf("locations %v: want exactly two regions", in.Locations)
		}
		for _, r := range in.Locations {
			if !IsRegion(r) {
				return errors.NotValidf("region %q", r)
			}
		}
		code, err := DualRegionFor(in.Locations[0], in.Locations[1])
		if err != nil {
			return errors.Trace(err)
		}
		pair := dualRegions[code]
		m.kind = dualRegionKind
		m.location = code
		m.regions = []string{pair[0], pair[1]}
	case in.Location != "":
		switch {
		case IsRegion(in.Location):
			m.kind = regionKind
			m.location = in.Location
			m.regions = []string{in.Location}
		case IsDualRegion(in.Location):
			pair := dualRegions[in.Location]
			m.kind = dualRegionKind
			m.location = in.Location
			m.regions = []string{pair[0], pair[1]}
		case IsMultiRegion(in.Location):
			m.kind = multiRegionKind
			m.location = in.Location
			m.regions = []string{domainRegions[m.domain]}
		default:
			return errors.NotValidf("location %q", in.Location)
		}
	case m.domain == "gl":
		// The global domain has no single home region; location-class
		// resources go to the us multi-region.
		m.kind = multiRegionKind
		m.location = domainMultiregions[m.domain]
		m.regions = []string{domainRegions[m.domain]}
	default:
		m.kind = regionKind
		m.location = domainRegions[m.domain]
		m.regions = []string{m.location}
	}
	return nil
}

// Name returns the logical name the Meta was resolved from.
func (m *Meta) Name() string { return m.name }

// Domain returns the business geography code.
func (m *Meta) Domain() string { return m.domain }

// Prefix returns the organisation prefix.
func (m *Meta) Prefix() string { return m.prefix }

// Preview reports whether the Meta describes an ephemeral stack.
func (m *Meta) Preview() bool { return m.preview }

// Location returns the resolved GCP location: a region, a dual-region
// code, or a multi-region code.
func (m *Meta) Location() string { return m.location }

// GCSLocation returns the resolved location in the upper-case form the
// storage API expects.
func (m *Meta) GCSLocation() string { return strings.ToUpper(m.location) }

// Region returns the primary region. For a dual-region Meta this is the
// first region of the canonical pair; for a multi-region Meta it is the
// domain's default region.
func (m *Meta) Region() string { return m.regions[0] }

// Regions returns every region the Meta resolves to: the canonical pair
// for a dual-region, otherwise a single element.
func (m *Meta) Regions() []string {
	out := make([]string, len(m.regions))
	copy(out, m.regions)
	return out
}

// DualRegion returns the dual-region code and true when the Meta
// resolved to a dual-region location.
func (m *Meta) DualRegion() (string, bool) {
	if m.kind != dualRegionKind {
		return "", false
	}
	return m.location, true
}

// IsMultiRegion reports whether the Meta resolved to a multi-region
// location.
func (m *Meta) IsMultiRegion() bool { return m.kind == multiRegionKind }

// ShortRegion returns the compressed code for the primary region.
func (m *Meta) ShortRegion() string {
	// The resolver only admits regions present in the table.
	abbrev := regionAbbreviations[m.Region()]
	return abbrev
}

// ResourceName derives the canonical identifier: prefix, name and domain
// joined with hyphens, with segments dropped per the omit flags. Preview
// metas substitute the domain segment with a deterministic hash so that
// ephemeral stacks never collide with stable ones.
func (m *Meta) ResourceName() string {
	segments := make([]string, 0, 3)
	if !m.omitPrefix {
		segments = append(segments, m.prefix)
	}
	segments = append(segments, m.name)
	switch {
	case m.preview:
		segments = append(segments, m.hash())
	case !m.omitDomain:
		segments = append(segments, m.domain)
	}
	return strings.Join(segments, "-")
}

// ShortName derives a length-constrained identifier for uses such as
// service account ids: the domain segment is replaced with the
// compressed region code and the name segment is truncated as needed to
// fit 30 characters.
func (m *Meta) ShortName() string {
	tail := m.ShortRegion()
	if m.preview {
		tail = m.hash()
	}
	segments := make([]string, 0, 3)
	if !m.omitPrefix {
		segments = append(segments, m.prefix)
	}
	name := m.name
	fixed := len(tail) + 1
	if !m.omitPrefix {
		fixed += len(m.prefix) + 1
	}
	if fixed+len(name) > maxShortName {
		name = strings.TrimRight(name[:maxShortName-fixed], "-")
	}
	segments = append(segments, name, tail)
	return strings.Join(segments, "-")
}

// Labels returns the labels components attach to every resource they
// create from this Meta.
func (m *Meta) Labels() map[string]string {
	preview := "false"
	if m.preview {
		preview = "true"
	}
	return map[string]string{
		"managed-by": "cloud-infra",
		"domain":     m.domain,
		"preview":    preview,
	}
}

// hash is the fallback naming segment for preview resources: stable
// across processes for the same input, vanishingly unlikely to collide
// across inputs.
func (m *Meta) hash() string {
	sum := sha256.Sum256([]byte(m.prefix + "|" + m.name + "|" + m.domain))
	return hex.EncodeToString(sum[:])[:previewHashLen]
}
