/**
 * @description
 * This package owns all monetary conversion and VAT arithmetic for the
 * payment service. Amounts cross the API boundary as decimal strings with at
 * most two fraction digits (e.g. "1500.00") and are held internally as int64
 * halalas, the smallest SAR unit, so that no ledger math ever touches
 * floating point.
 *
 * @dependencies
 * - regexp: Boundary validation of incoming amount strings.
 * - github.com/shopspring/decimal: Exact parsing and VAT rounding.
 */

package money

import (
	"errors"
	"regexp"

	"github.com/shopspring/decimal"
)

// Currency is the only currency this ledger operates in.
const Currency = "SAR"

// VATRatePercent is the statutory VAT rate applied to invoice subtotals.
const VATRatePercent = 15

// ErrMalformedAmount is returned when an amount string fails boundary validation.
var ErrMalformedAmount = errors.New("malformed amount: expected a decimal string with up to two fraction digits")

var amountPattern = regexp.MustCompile(`^\d+(\.\d{1,2})?$`)

// Parse converts a boundary decimal string into halalas.
// It accepts only the pattern ^\d+(\.\d{1,2})?$; anything else is rejected
// before the value gets anywhere near the ledger. Values whose halala count
// does not fit in int64 are rejected rather than wrapped.
func Parse(s string) (int64, error) {
	if !amountPattern.MatchString(s) {
		return 0, ErrMalformedAmount
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return 0, ErrMalformedAmount
	}
	shifted := d.Shift(2)
	if !shifted.BigInt().IsInt64() {
		return 0, ErrMalformedAmount
	}
	return shifted.IntPart(), nil
}

// Format renders halalas as a decimal string with exactly two fraction digits.
func Format(halalas int64) string {
	return decimal.New(halalas, -2).StringFixed(2)
}

// VAT computes the VAT amount and gross total for a net amount in halalas.
// Rounding is half-up to the nearest halala, matching how invoices round
// half-up to two decimal places in whole-currency terms.
func VAT(net int64) (vat int64, total int64) {
	v := decimal.New(net, 0).
		Mul(decimal.New(VATRatePercent, 0)).
		Div(decimal.New(100, 0)).
		Round(0)
	vat = v.IntPart()
	return vat, net + vat
}
