package core

import "strings"

// Known category identifiers. Anything else is accepted and aggregated as its own bucket.
const (
	CategoryFood          = "food"
	CategoryTransport     = "transport"
	CategoryShopping      = "shopping"
	CategoryEntertainment = "entertainment"
	CategoryBills         = "bills"
	CategoryHealth        = "health"
	CategoryEducation     = "education"
	CategoryOther         = "other"
)

var knownCategories = []string{
	CategoryFood,
	CategoryTransport,
	CategoryShopping,
	CategoryEntertainment,
	CategoryBills,
	CategoryHealth,
	CategoryEducation,
	CategoryOther,
}

// KnownCategories returns the conventional categories in display order.
func KnownCategories() []string {
	return append([]string(nil), knownCategories...)
}

// IsKnownCategory reports whether c is one of KnownCategories.
func IsKnownCategory(c string) bool {
	for _, k := range knownCategories {
		if k == c {
			return true
		}
	}
	return false
}

// NormalizeCategory trims c and falls back to "other" when blank.
func NormalizeCategory(c string) string {
	c = strings.TrimSpace(c)
	if c == "" {
		return CategoryOther
	}
	return c
}
