// Package identifier converts between the decimal business id returned by
// search and the two-segment hex id the detail and review endpoints expect.
package identifier

import (
	"fmt"
	"strconv"
	"strings"

	apperrors "business-research/internal/common/errors"
)

const placeholderSegment = "0x0"

// Translate renders a decimal id as "0x0:0x<hex>", e.g. "100" -> "0x0:0x64".
func Translate(opaqueID string) (string, error) {
	n, err := strconv.ParseUint(strings.TrimSpace(opaqueID), 10, 64)
	if err != nil {
		return "", fmt.Errorf("%w: %q is not an unsigned integer", apperrors.ErrMalformedIdentifier, opaqueID)
	}
	return placeholderSegment + ":0x" + strconv.FormatUint(n, 16), nil
}

// Reverse recovers the decimal id from the hex segment of a translated id.
func Reverse(translatedID string) (string, error) {
	parts := strings.Split(strings.TrimSpace(translatedID), ":")
	if len(parts) != 2 {
		return "", fmt.Errorf("%w: %q does not have two segments", apperrors.ErrMalformedIdentifier, translatedID)
	}
	hex := strings.TrimPrefix(strings.ToLower(parts[1]), "0x")
	n, err := strconv.ParseUint(hex, 16, 64)
	if err != nil {
		return "", fmt.Errorf("%w: %q has a non-hex second segment", apperrors.ErrMalformedIdentifier, translatedID)
	}
	return strconv.FormatUint(n, 10), nil
}
