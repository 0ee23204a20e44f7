// Package verify marks rows as passed or failed against captured beacons.
package verify

import "github.com/raysh454/beaconcheck/internal/model"

// Summary counts verification outcomes.
type Summary struct {
	Passed int `json:"passed"`
	Failed int `json:"failed"`
}

// Verify sets Status on every row. A row passes when any captured response,
// from any row's visit, has a parameter named Fieldname equal to Value.
func Verify(rows []*model.Row, captures model.Captures) Summary {
	var sum Summary
	for _, row := range rows {
		if captures.HasParam(row.Fieldname(), row.Value()) {
			row.SetStatus(model.StatusPass)
			sum.Passed++
			continue
		}
		row.SetStatus(model.StatusFail)
		sum.Failed++
	}
	return sum
}
