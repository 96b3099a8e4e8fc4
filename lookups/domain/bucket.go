package domain

import (
	"fmt"
	"strings"
)

// BucketKind names one reference catalog held by the cache. The set is closed:
// every store key and every snapshot entry is one of AllBuckets.
type BucketKind string

const (
	BucketGender           BucketKind = "genderLookups"
	BucketCity             BucketKind = "cityLookups"
	BucketTitle            BucketKind = "titleLookups"
	BucketSection          BucketKind = "sectionLookups"
	BucketSecondarySection BucketKind = "secondarySectionLookups"
	BucketGrade            BucketKind = "gradeLookups"
	BucketPaymentType      BucketKind = "paymentTypeLookups"
	BucketStudyLocation    BucketKind = "studyLocationLookups"
	BucketWorkLocation     BucketKind = "workLocationLookups"
	BucketCountry          BucketKind = "countryLookups"
	BucketCategory         BucketKind = "categoryLookups"
)

// AllBuckets lists every bucket in a stable order.
var AllBuckets = []BucketKind{
	BucketGender,
	BucketCity,
	BucketTitle,
	BucketSection,
	BucketSecondarySection,
	BucketGrade,
	BucketPaymentType,
	BucketStudyLocation,
	BucketWorkLocation,
	BucketCountry,
	BucketCategory,
}

// DiscriminatorTable maps the discriminator values found in the combined
// lookup catalog to the bucket each record belongs in.
type DiscriminatorTable struct {
	// Path is the gjson path of the discriminator inside a record.
	Path    string
	Entries map[string]BucketKind
}

// DefaultDiscriminatorPath is used when no path is configured.
const DefaultDiscriminatorPath = "lookupType"

// DefaultDiscriminatorTable is the fixed table used by the portal.
func DefaultDiscriminatorTable(path string) DiscriminatorTable {
	if strings.TrimSpace(path) == "" {
		path = DefaultDiscriminatorPath
	}
	return DiscriminatorTable{
		Path: path,
		Entries: map[string]BucketKind{
			"Gender":            BucketGender,
			"City":              BucketCity,
			"Title":             BucketTitle,
			"Section":           BucketSection,
			"Secondary Section": BucketSecondarySection,
			"Grade":             BucketGrade,
			"Payment Type":      BucketPaymentType,
			"Study Location":    BucketStudyLocation,
		},
	}
}

// Kinds returns the buckets this table can produce, in AllBuckets order.
func (t DiscriminatorTable) Kinds() []BucketKind {
	seen := make(map[BucketKind]bool, len(t.Entries))
	for _, k := range t.Entries {
		seen[k] = true
	}
	out := make([]BucketKind, 0, len(seen))
	for _, k := range AllBuckets {
		if seen[k] {
			out = append(out, k)
		}
	}
	return out
}

// ParseBucketKind accepts either the canonical name ("genderLookups") or the
// short form ("gender").
func ParseBucketKind(s string) (BucketKind, error) {
	s = strings.TrimSpace(s)
	for _, k := range AllBuckets {
		if strings.EqualFold(s, string(k)) || strings.EqualFold(s+"Lookups", string(k)) {
			return k, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownBucket, s)
}
