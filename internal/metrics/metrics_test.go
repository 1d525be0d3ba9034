package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestRecordJobCompleted(t *testing.T) {
	before := testutil.ToFloat64(JobsProcessedTotal.WithLabelValues("success"))

	RecordJobCompleted("success", 12.5)

	after := testutil.ToFloat64(JobsProcessedTotal.WithLabelValues("success"))
	assert.Equal(t, before+1, after)
}

func TestRecordError(t *testing.T) {
	before := testutil.ToFloat64(ErrorsTotal.WithLabelValues("pipeline", "open"))

	RecordError("pipeline", "open")
	RecordError("pipeline", "open")

	after := testutil.ToFloat64(ErrorsTotal.WithLabelValues("pipeline", "open"))
	assert.Equal(t, before+2, after)
}

func TestRecordStorageOperation(t *testing.T) {
	before := testutil.ToFloat64(StorageOperationsTotal.WithLabelValues("upload", "success"))

	RecordStorageOperation("upload", "success")

	after := testutil.ToFloat64(StorageOperationsTotal.WithLabelValues("upload", "success"))
	assert.Equal(t, before+1, after)
}

func TestNewServer(t *testing.T) {
	s := NewServer(0)
	assert.NotNil(t, s)
}
