package metrics

import (
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestRecordSnapshot(t *testing.T) {
	success := testutil.ToFloat64(SnapshotsComputedTotal.WithLabelValues(StatusSuccess))
	failure := testutil.ToFloat64(SnapshotsComputedTotal.WithLabelValues(StatusError))

	RecordSnapshot(nil)
	RecordSnapshot(nil)
	RecordSnapshot(errors.New("boom"))

	assert.Equal(t, success+2, testutil.ToFloat64(SnapshotsComputedTotal.WithLabelValues(StatusSuccess)))
	assert.Equal(t, failure+1, testutil.ToFloat64(SnapshotsComputedTotal.WithLabelValues(StatusError)))
}

func TestRecordEvent(t *testing.T) {
	before := testutil.ToFloat64(EventsPublishedTotal.WithLabelValues("capacity.snapshot.updated", StatusError))
	RecordEvent("capacity.snapshot.updated", errors.New("broker down"))
	assert.Equal(t, before+1, testutil.ToFloat64(EventsPublishedTotal.WithLabelValues("capacity.snapshot.updated", StatusError)))
}

func TestObserveRequest(t *testing.T) {
	ObserveRequest("GET", "/api/capacity/current-week", 200, 0.02)
	ObserveRequest("GET", "/api/capacity/current-week", 200, 0.04)

	assert.GreaterOrEqual(t, testutil.CollectAndCount(HTTPRequestDuration), 1)
}
