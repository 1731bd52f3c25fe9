package metrics

import (
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestCollectorsRecord(t *testing.T) {
	c := New(prometheus.NewRegistry())
	c.ObserveRemote("forms", "fields", time.Now(), nil)
	c.ObserveRemote("forms", "fields", time.Now(), errors.New("boom"))
	c.CacheLookup("patient", true)
	c.CacheLookup("patient", false)
	c.CacheLookup("patient", false)
	c.Submission(OutcomeCreated)

	if got := testutil.ToFloat64(c.RemoteRequests.WithLabelValues("forms", "fields", "error")); got != 1 {
		t.Fatalf("expected 1 failed request, got %v", got)
	}
	if got := testutil.ToFloat64(c.CacheLookups.WithLabelValues("patient", "miss")); got != 2 {
		t.Fatalf("expected 2 misses, got %v", got)
	}
	if got := testutil.ToFloat64(c.Submissions.WithLabelValues(OutcomeCreated)); got != 1 {
		t.Fatalf("expected 1 submission, got %v", got)
	}
}

func TestNilCollectorsAreNoop(t *testing.T) {
	var c *Collectors
	c.ObserveRemote("forms", "fields", time.Now(), nil)
	c.CacheLookup("patient", true)
	c.Submission(OutcomeFailed)
	c.ValidationFailure("email")
	c.LocationFetch("states")
}
