package erc

import "chipforge/internal/domain"

// Merge concatenates results in argument order. Duplicates are kept: two
// rules reporting the same defect from different angles are both shown.
func Merge(results ...domain.ERCResult) domain.ERCResult {
	merged := domain.NewERCResult()
	for _, r := range results {
		merged.Errors = append(merged.Errors, r.Errors...)
		merged.Warnings = append(merged.Warnings, r.Warnings...)
	}
	return merged
}
