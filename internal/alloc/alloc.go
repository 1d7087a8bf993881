// Package alloc works out how many people a meal bill has to be split across.
package alloc

import (
	"strings"

	"github.com/shopspring/decimal"

	"github.com/otmeal-dev/otmeal/internal/model"
)

// DefaultThreshold is the most one person's OT meal allowance covers.
var DefaultThreshold = decimal.NewFromInt(750)

// Plan is the headcount needed for a bill given who is still available.
type Plan struct {
	Bill      decimal.Decimal `json:"bill"`
	Threshold decimal.Decimal `json:"threshold"`
	Required  int             `json:"required"`  // ceil(bill / threshold)
	Cap       int             `json:"cap"`       // min(required, available)
	Shortfall int             `json:"shortfall"` // required - cap
}

// RequiredCount returns ceil(bill / threshold), or 0 when either is not positive.
func RequiredCount(bill, threshold decimal.Decimal) int {
	if !bill.IsPositive() || !threshold.IsPositive() {
		return 0
	}
	q, r := bill.QuoRem(threshold, 0)
	n := int(q.IntPart())
	if r.IsPositive() {
		n++
	}
	return n
}

// NewPlan computes the plan for bill with available people left to claim.
func NewPlan(bill, threshold decimal.Decimal, available int) Plan {
	required := RequiredCount(bill, threshold)
	limit := min(required, available)
	return Plan{
		Bill:      bill,
		Threshold: threshold,
		Required:  required,
		Cap:       limit,
		Shortfall: required - limit,
	}
}

// ValidateSelection accepts selection when it names exactly
// min(required, len(available)) distinct people, all taken from available.
// Selecting everyone left is enough even when the bill needs more people.
func ValidateSelection(selection []string, required int, available []string) error {
	pool := make(map[string]bool, len(available))
	for _, name := range available {
		pool[name] = true
	}

	seen := make(map[string]bool, len(selection))
	var unknown []string
	for _, name := range selection {
		if seen[name] {
			return model.Invalid("selection", "%q selected more than once", name)
		}
		seen[name] = true
		if !pool[name] {
			unknown = append(unknown, name)
		}
	}
	if len(unknown) > 0 {
		return model.Invalid("selection", "not available to claim: %s", strings.Join(unknown, ", "))
	}

	want := min(required, len(available))
	if len(selection) != want {
		return model.Invalid("selection", "select exactly %d %s (selected %d)", want, People(want), len(selection))
	}
	return nil
}

// People returns "person" or "people" to agree with n.
func People(n int) string {
	if n == 1 {
		return "person"
	}
	return "people"
}
