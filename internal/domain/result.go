package domain

import "time"

// ERCResult is the outcome of one rule-check run.
// Errors and Warnings are complete, human-readable sentences in emission order.
type ERCResult struct {
	Errors   []string `json:"errors" yaml:"errors"`
	Warnings []string `json:"warnings" yaml:"warnings"`
}

// NewERCResult creates an empty result with initialized lists
func NewERCResult() ERCResult {
	return ERCResult{
		Errors:   make([]string, 0),
		Warnings: make([]string, 0),
	}
}

// OK reports whether the run found no errors; warnings do not count
func (r ERCResult) OK() bool {
	return len(r.Errors) == 0
}

// Report is a persisted ERC run against a stored design
type Report struct {
	ID         string    `json:"id"`
	DesignID   string    `json:"design_id"`
	DesignName string    `json:"design_name,omitempty"`
	Strict     bool      `json:"strict"`
	Result     ERCResult `json:"result"`
	CreatedAt  time.Time `json:"created_at"`
}

// Passed reports whether the run found no errors
func (r *Report) Passed() bool {
	return r.Result.OK()
}
