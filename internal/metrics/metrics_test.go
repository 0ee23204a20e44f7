package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestRecordRows(t *testing.T) {
	pass := testutil.ToFloat64(rowsTotal.WithLabelValues("pass"))
	fail := testutil.ToFloat64(rowsTotal.WithLabelValues("fail"))

	RecordRows(2, 1)
	RecordRows(0, 0)

	assert.Equal(t, pass+2, testutil.ToFloat64(rowsTotal.WithLabelValues("pass")))
	assert.Equal(t, fail+1, testutil.ToFloat64(rowsTotal.WithLabelValues("fail")))
}

func TestRecordCapturedIgnoresZero(t *testing.T) {
	before := testutil.ToFloat64(capturedTotal)
	RecordCaptured(0)
	RecordCaptured(3)
	assert.Equal(t, before+3, testutil.ToFloat64(capturedTotal))
}

func TestRecordRunAndAction(t *testing.T) {
	before := testutil.ToFloat64(runsTotal.WithLabelValues("done"))
	RecordRun("done")
	assert.Equal(t, before+1, testutil.ToFloat64(runsTotal.WithLabelValues("done")))

	skipped := testutil.ToFloat64(actionsTotal.WithLabelValues("skipped"))
	RecordAction("skipped")
	assert.Equal(t, skipped+1, testutil.ToFloat64(actionsTotal.WithLabelValues("skipped")))
}
