// Package provideradaptor implements spec §4.5's single-attempt
// provider call: URL resolution, header/auth construction, the
// upstream HTTP invocation, and classification of its outcome (spec
// §4.6). Grounded on the teacher's `relay/adaptor` per-provider request
// builder shape, generalized from "one adaptor struct per named
// provider" to "one adaptor function parameterized by the resolved
// candidate's auth/format", since every provider here speaks one of
// exactly two well-known wire dialects rather than a bespoke API.
package provideradaptor

import (
	"regexp"
	"strings"

	"github.com/Laisky/llm-router/internal/dialect"
)

var versionedSuffixPattern = regexp.MustCompile(`/v[0-9]+$`)

// ResolveUpstreamURL implements spec §4.5 step 5: ensure the path ends
// in the target dialect's completion endpoint, appending a `/v1`
// prefix only when base doesn't already end in some version segment.
func ResolveUpstreamURL(base string, target dialect.Dialect) string {
	base = strings.TrimRight(base, "/")
	suffix := completionSuffix(target)

	if strings.HasSuffix(base, suffix) {
		return base
	}
	if versionedSuffixPattern.MatchString(base) {
		return base + suffix
	}
	return base + "/v1" + suffix
}

func completionSuffix(target dialect.Dialect) string {
	if target == dialect.Claude {
		return "/messages"
	}
	return "/chat/completions"
}
