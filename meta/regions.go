// Copyright 2025 Mutinex Pty Ltd.
// Licensed under the MIT licence, see LICENCE file for details.

package meta

import (
	"github.com/juju/collections/set"
	"github.com/juju/errors"
)

// regionAbbreviations compresses GCP region names into the short codes
// used where identifiers are length-limited, such as service account ids.
// Every region the library is prepared to place resources in has an entry;
// an unknown region is a validation error, not a passthrough.
var regionAbbreviations = map[string]string{
	"africa-south1":           "afs1",
	"asia-east1":              "ase1",
	"asia-east2":              "ase2",
	"asia-northeast1":         "asne1",
	"asia-northeast2":         "asne2",
	"asia-northeast3":         "asne3",
	"asia-south1":             "ass1",
	"asia-south2":             "ass2",
	"asia-southeast1":         "asse1",
	"asia-southeast2":         "asse2",
	"australia-southeast1":    "ause1",
	"australia-southeast2":    "ause2",
	"europe-central2":         "euc2",
	"europe-north1":           "eun1",
	"europe-southwest1":       "eusw1",
	"europe-west1":            "euw1",
	"europe-west2":            "euw2",
	"europe-west3":            "euw3",
	"europe-west4":            "euw4",
	"europe-west6":            "euw6",
	"europe-west8":            "euw8",
	"europe-west9":            "euw9",
	"europe-west10":           "euw10",
	"europe-west12":           "euw12",
	"me-central1":             "mec1",
	"me-central2":             "mec2",
	"me-west1":                "mew1",
	"northamerica-northeast1": "nane1",
	"northamerica-northeast2": "nane2",
	"northamerica-south1":     "nas1",
	"southamerica-east1":      "sae1",
	"southamerica-west1":      "saw1",
	"us-central1":             "usc1",
	"us-east1":                "use1",
	"us-east4":                "use4",
	"us-east5":                "use5",
	"us-south1":               "uss1",
	"us-west1":                "usw1",
	"us-west2":                "usw2",
	"us-west3":                "usw3",
	"us-west4":                "usw4",
}

// multiregions are the GCS-style multi-region location codes.
var multiregions = set.NewStrings("asia", "eu", "us")

// dualRegions maps the predefined GCP dual-region codes to their
// constituent regions. Lookup by pair is order-insensitive; the array
// order here is the canonical one, and Regions() reports it as such
// (the first element is the primary region for region-scoped resources
// that need a single home).
var dualRegions = map[string][2]string{
	"asia1": {"asia-northeast1", "asia-northeast2"},
	"eur4":  {"europe-north1", "europe-west4"},
	"nam4":  {"us-central1", "us-east1"},
}

// domainRegions maps the business geography domains to their default
// region. A domain not listed here is rejected outright.
var domainRegions = map[string]string{
	"au": "australia-southeast1",
	"us": "us-central1",
	"eu": "europe-west1",
	"uk": "europe-west2",
	"jp": "asia-northeast1",
	"gl": "us-central1",
}

// domainMultiregions maps the domains that resolve to a multi-region by
// default. Only the global domain does today; the other domains default
// to their region and get a multi-region only when the caller asks for
// one through Location.
var domainMultiregions = map[string]string{
	"gl": "us",
}

// AbbreviateRegion returns the short code for a GCP region, e.g.
// "australia-southeast1" becomes "ause1".
func AbbreviateRegion(region string) (string, error) {
	abbrev, ok := regionAbbreviations[region]
	if !ok {
		return "", errors.NotValidf("region %q", region)
	}
	return abbrev, nil
}

// IsRegion reports whether location names a GCP region known to the
// library.
func IsRegion(location string) bool {
	_, ok := regionAbbreviations[location]
	return ok
}

// IsMultiRegion reports whether location is a multi-region code.
func IsMultiRegion(location string) bool {
	return multiregions.Contains(location)
}

// IsDualRegion reports whether location is a predefined dual-region code.
func IsDualRegion(location string) bool {
	_, ok := dualRegions[location]
	return ok
}

// DualRegionFor returns the dual-region code covering the given pair of
// regions, in either order.
func DualRegionFor(a, b string) (string, error) {
	for code, pair := range dualRegions {
		if (pair[0] == a && pair[1] == b) || (pair[0] == b && pair[1] == a) {
			return code, nil
		}
	}
	return "", errors.NotValidf("dual-region pair %q+%q", a, b)
}

// Domains returns the recognised domain codes in sorted order.
func Domains() []string {
	domains := set.NewStrings()
	for d := range domainRegions {
		domains.Add(d)
	}
	return domains.SortedValues()
}
