// Package privacy derives the masked display forms of patient identifiers.
// The masks are one-way; use util/crypto for reversible protection.
package privacy

import (
	"fmt"
	"strings"
)

const contactMaskPrefix = "XXX-XXX-"

// AnonymizeName returns the pseudonym PAT_<4-digit id> for a patient. It
// reports false when there is no name to stand in for.
func AnonymizeName(name string, id int) (string, bool) {
	if strings.TrimSpace(name) == "" {
		return "", false
	}
	return fmt.Sprintf("PAT_%04d", id), true
}

// AnonymizeContact keeps the last four characters of contact behind a fixed
// mask. It reports false for contacts shorter than four characters.
func AnonymizeContact(contact string) (string, bool) {
	runes := []rune(contact)
	if len(runes) < 4 {
		return "", false
	}
	return contactMaskPrefix + string(runes[len(runes)-4:]), true
}

// MaskContact is AnonymizeContact for display: short contacts collapse to
// the bare mask instead of being shown.
func MaskContact(contact string) string {
	if masked, ok := AnonymizeContact(contact); ok {
		return masked
	}
	return contactMaskPrefix + "****"
}
