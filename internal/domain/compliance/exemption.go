package compliance

import "strings"

// phototoxExemptTokens are the display-name markers of materials processed
// to remove phototoxic furocoumarins (bergapten-free, distilled, or
// terpeneless grades). The match is a case-insensitive substring test.
var phototoxExemptTokens = []string{"FCF", "DISTILLED", "TERPENELESS"}

// IsPhototoxExempt reports whether a material's display name marks it as
// exempt from phototoxicity aggregation. The heuristic is intentionally a
// pure function over the name and the fixed token list so it can be audited
// and tested in isolation.
func IsPhototoxExempt(displayName string) bool {
	return containsAnyFold(displayName, phototoxExemptTokens)
}

// containsAnyFold reports whether s contains any of the tokens,
// case-insensitively.
func containsAnyFold(s string, tokens []string) bool {
	upper := strings.ToUpper(s)
	for _, tok := range tokens {
		if strings.Contains(upper, strings.ToUpper(tok)) {
			return true
		}
	}
	return false
}
