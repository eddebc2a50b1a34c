package telemetry

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
)

func TestMiddlewareRecordsRoutePattern(t *testing.T) {
	r := chi.NewRouter()
	r.Use(Middleware)
	r.Post("/process-pdf/", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	})

	before := testutil.ToFloat64(httpRequestsTotal.WithLabelValues(http.MethodPost, "418"))
	req := httptest.NewRequest(http.MethodPost, "/process-pdf/", nil)
	r.ServeHTTP(httptest.NewRecorder(), req)

	after := testutil.ToFloat64(httpRequestsTotal.WithLabelValues(http.MethodPost, "418"))
	require.InDelta(t, 1, after-before, 1e-9)
	require.Positive(t, testutil.CollectAndCount(httpRequestDurationSeconds))
}

func TestObserveProcess(t *testing.T) {
	successBefore := testutil.ToFloat64(pdfProcessTotal.WithLabelValues("success", "none"))
	elementsBefore := testutil.ToFloat64(pdfElementsTotal)
	failBefore := testutil.ToFloat64(pdfProcessTotal.WithLabelValues("failure", "publish"))

	ObserveProcess("", 7)
	ObserveProcess("publish", 0)

	require.InDelta(t, 1, testutil.ToFloat64(pdfProcessTotal.WithLabelValues("success", "none"))-successBefore, 1e-9)
	require.InDelta(t, 7, testutil.ToFloat64(pdfElementsTotal)-elementsBefore, 1e-9)
	require.InDelta(t, 1, testutil.ToFloat64(pdfProcessTotal.WithLabelValues("failure", "publish"))-failBefore, 1e-9)
}

func TestObserveStepAndBytes(t *testing.T) {
	bytesBefore := testutil.ToFloat64(pdfBytesTotal)

	ObserveStep("fetch", 20*time.Millisecond)
	ObserveFetchedBytes(1024)
	ObserveFetchedBytes(0)

	require.Positive(t, testutil.CollectAndCount(pdfStepDurationSeconds))
	require.InDelta(t, 1024, testutil.ToFloat64(pdfBytesTotal)-bytesBefore, 1e-9)
}
