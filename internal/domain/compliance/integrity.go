package compliance

import (
	"fmt"

	"github.com/olfacto/scentinel/internal/domain/refdata"
)

// integrityThreshold is the documented-composition percentage below which a
// material is flagged as incompletely documented.
const integrityThreshold = 90.0

// dilutionNameTokens mark display names that declare a deliberate dilution
// ("Rose Abs 10% in DPG"); such materials legitimately document well under
// 100% and are not flagged.
var dilutionNameTokens = []string{"% in", "dilution", "(dil)"}

// compositionWarning checks a material's documented composition total and
// returns a warning string when it is suspiciously incomplete. The warning
// is informational only: the engine always uses the documented data at face
// value and never extrapolates to 100%.
func compositionWarning(displayName string, rec refdata.ContributionRecord) (string, bool) {
	total := rec.ConstituentTotal()
	if total >= integrityThreshold {
		return "", false
	}
	if containsAnyFold(displayName, dilutionNameTokens) {
		return "", false
	}
	return fmt.Sprintf("%s (Composition only totals %.1f%%)", displayName, total), true
}
