package category

import (
	"strings"

	"github.com/runnerr0/footprint/internal/activity"
)

// Uncategorized is the label used when neither a machine label nor a rule
// applies to a visit.
const Uncategorized = "uncategorized"

// ResolveLabel picks the fine label for a visit. A machine-suggested label
// wins over the domain rule category.
func ResolveLabel(ruleCategory, machineCategory string) string {
	if s := strings.TrimSpace(machineCategory); s != "" {
		return s
	}
	if s := strings.TrimSpace(ruleCategory); s != "" {
		return s
	}
	return Uncategorized
}

// ResolveBucket collapses the visit's label into a dashboard bucket.
//
// Labels missing from the table are taken literally when they name one of
// the three buckets. Anything else counts as productive, which keeps the
// period total equal to the sum of its buckets.
func ResolveBucket(ruleCategory, machineCategory string) activity.Bucket {
	return BucketFor(ResolveLabel(ruleCategory, machineCategory))
}

// BucketFor maps a single fine label to its bucket using the same fallback
// as ResolveBucket.
func BucketFor(label string) activity.Bucket {
	if b, ok := Lookup(label); ok {
		return b
	}
	switch b, _ := activity.ParseBucket(label); b {
	case activity.BucketProductive, activity.BucketSocial, activity.BucketEntertainment:
		return b
	}
	return activity.BucketProductive
}
