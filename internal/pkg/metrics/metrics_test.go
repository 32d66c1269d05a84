package metrics

import (
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestObserveTransition(t *testing.T) {
	m := New()
	m.ObserveTransition("DRAFT", "SUBMITTED")
	m.ObserveTransition("DRAFT", "SUBMITTED")
	m.ObserveSubmissionRejected("PROFILE_INCOMPLETE")

	assert.Equal(t, 2.0, testutil.ToFloat64(m.StatusTransitions.WithLabelValues("DRAFT", "SUBMITTED")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.SubmissionsRejected.WithLabelValues("PROFILE_INCOMPLETE")))
}

func TestNilMetricsIsNoop(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.ObserveTransition("a", "b")
		m.ObserveDocumentUploaded()
		m.ObserveRateLimited("submit")
	})
}

func TestHandlerExposesCounters(t *testing.T) {
	m := New()
	m.ObserveDocumentUploaded()

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))

	assert.Equal(t, 200, rec.Code)
	assert.Contains(t, rec.Body.String(), "admissions_documents_uploaded_total 1")
}
