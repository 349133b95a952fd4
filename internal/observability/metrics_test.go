package observability

import (
	"testing"
	"time"
)

func TestRegisterMetricsAndRecordersAreSafe(t *testing.T) {
	RegisterMetrics()
	RegisterMetrics()

	RecordRuntimeRequest("backends", 200, 12*time.Millisecond)
	RecordRuntimeRequest("jobs.submit", 201, 40*time.Millisecond)
	RecordJobWait("ibm_brisbane", "done", 3*time.Second)
}
