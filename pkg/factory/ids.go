// Package factory builds validated factory models: explicit-id extraction
// from raw text, normalization of model-extracted structures, and the static
// fallback factory.
package factory

import (
	"regexp"
	"sort"

	"github.com/shopworks/foreman/pkg/models"
)

// Explicit id patterns. Case-sensitive with word boundaries on both sides, so
// "EM1" does not match and "m1" does not match. Both the numeric form (M1,
// J12) and the underscore form (M_lathe, J_rush_order) count.
var (
	machineIDPattern = regexp.MustCompile(`\bM(?:\d+|_\w+)\b`)
	jobIDPattern     = regexp.MustCompile(`\bJ(?:\d+|_\w+)\b`)
)

// ExtractExplicitIDs scans the factory description for ids the text literally
// mentions. Pure; cannot fail. The result lists are deduplicated and sorted.
func ExtractExplicitIDs(text string) models.ExplicitIDs {
	return models.ExplicitIDs{
		MachineIDs: matchAll(machineIDPattern, text),
		JobIDs:     matchAll(jobIDPattern, text),
	}
}

func matchAll(re *regexp.Regexp, text string) []string {
	seen := make(map[string]struct{})
	for _, m := range re.FindAllString(text, -1) {
		seen[m] = struct{}{}
	}
	out := make([]string, 0, len(seen))
	for id := range seen {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}
