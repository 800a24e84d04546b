package model

import (
	"errors"
	"strings"
)

// ReferencePrefix is the fixed prefix of every canonical redemption reference.
const ReferencePrefix = "LER"

// MinReferenceDigits is the minimum digit count a reference must carry after
// normalization. Shorter inputs are rejected as malformed rather than being
// treated as valid-but-unique references.
const MinReferenceDigits = 3

// ErrInvalidReference is returned when a raw reference cannot be normalized.
var ErrInvalidReference = errors.New("invalid redemption reference")

// NormalizeReference converts a raw, human-entered redemption reference into
// its canonical form: the fixed prefix followed by the digit sequence. Case
// and any non-digit separators (dashes, spaces) are stripped, so "LER-0001",
// "ler0001" and "LER 0001" all normalize to "LER0001". Letter content is only
// tolerated when it spells the prefix itself; "XYZ123" is someone else's
// reference, not a sloppy one of ours.
func NormalizeReference(raw string) (string, error) {
	var digits, letters strings.Builder
	for _, r := range raw {
		switch {
		case r >= '0' && r <= '9':
			digits.WriteRune(r)
		case r >= 'a' && r <= 'z':
			letters.WriteRune(r - ('a' - 'A'))
		case r >= 'A' && r <= 'Z':
			letters.WriteRune(r)
		}
	}
	if letters.Len() > 0 && letters.String() != ReferencePrefix {
		return "", ErrInvalidReference
	}
	if digits.Len() < MinReferenceDigits {
		return "", ErrInvalidReference
	}
	return ReferencePrefix + digits.String(), nil
}
