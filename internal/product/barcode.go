package product

import (
	"fmt"
	"regexp"

	"github.com/nutriscan/nutriscan/internal/shared"
)

var barcodePattern = regexp.MustCompile(`^\d{8,13}$`)

// ErrInvalidBarcode is returned for anything other than 8 to 13 decimal digits.
var ErrInvalidBarcode = fmt.Errorf("%w: barcode must be 8 to 13 digits", shared.ErrInvalidInput)

// ValidateBarcode rejects malformed barcodes before any I/O happens.
func ValidateBarcode(barcode string) error {
	if !barcodePattern.MatchString(barcode) {
		return ErrInvalidBarcode
	}
	return nil
}

// IsBarcode reports whether s is a well-formed barcode.
func IsBarcode(s string) bool {
	return barcodePattern.MatchString(s)
}
