package verify

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/raysh454/beaconcheck/internal/model"
)

func row(field, value string) *model.Row {
	return model.RowFrom(model.ColumnURL, "https://shop.test/", model.ColumnFieldname, field, model.ColumnValue, value)
}

func TestVerify_PassAndFail(t *testing.T) {
	captures := model.Captures{
		"1": {RequestID: "1", Params: map[string]string{"page": "home"}},
		"2": {RequestID: "2", Params: map[string]string{"promo": "SAVE10"}},
	}
	pass := row("promo", "SAVE10")
	fail := row("promo", "SAVE20")

	sum := Verify([]*model.Row{pass, fail}, captures)

	assert.Equal(t, model.StatusPass, pass.Status())
	assert.Equal(t, model.StatusFail, fail.Status())
	assert.Equal(t, Summary{Passed: 1, Failed: 1}, sum)
}

func TestVerify_TrimsFieldAndValue(t *testing.T) {
	captures := model.Captures{"1": {Params: map[string]string{"promo": "SAVE10"}}}
	r := row("  promo ", " SAVE10\t")

	Verify([]*model.Row{r}, captures)
	assert.Equal(t, model.StatusPass, r.Status())
}

func TestVerify_ExactMatchOnly(t *testing.T) {
	captures := model.Captures{"1": {Params: map[string]string{"promo": "save10"}}}
	r := row("promo", "SAVE10")

	Verify([]*model.Row{r}, captures)
	assert.Equal(t, model.StatusFail, r.Status())
}

func TestVerify_EmptyCapturesFailEverything(t *testing.T) {
	rows := []*model.Row{row("a", "1"), row("b", "2")}

	sum := Verify(rows, model.Captures{})
	assert.Equal(t, Summary{Failed: 2}, sum)
	for _, r := range rows {
		assert.Equal(t, model.StatusFail, r.Status())
	}
}

func TestVerify_EmptyValueNeverMatches(t *testing.T) {
	// Captured params never hold empty values, so an empty expectation fails.
	captures := model.Captures{"1": {Params: map[string]string{"promo": "SAVE10"}}}
	r := row("promo", "")

	Verify([]*model.Row{r}, captures)
	assert.Equal(t, model.StatusFail, r.Status())
}
