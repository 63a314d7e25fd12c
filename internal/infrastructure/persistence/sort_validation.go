package persistence

import "strings"

// ValidateSortOrder normalizes the sort order to ASC or DESC, defaulting
// to DESC on invalid input
func ValidateSortOrder(orderDir string) string {
	if strings.ToUpper(strings.TrimSpace(orderDir)) == "ASC" {
		return "ASC"
	}
	return "DESC"
}

// ValidateSortField validates the sort field against a whitelist,
// returning defaultField when the input is empty or not allowed
func ValidateSortField(sortField string, allowedFields map[string]bool, defaultField string) string {
	trimmed := strings.TrimSpace(sortField)
	if trimmed == "" || !allowedFields[trimmed] {
		return defaultField
	}
	return trimmed
}

// OrderSortFields contains allowed sort fields for order listings
var OrderSortFields = map[string]bool{
	"id":            true,
	"created_at":    true,
	"updated_at":    true,
	"order_number":  true,
	"status":        true,
	"customer_name": true,
	"shipping_date": true,
	"total_amount":  true,
}
