package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	docmemory "github.com/JakeFAU/pdfingest/internal/docstore/memory"
	"github.com/JakeFAU/pdfingest/internal/element"
	"github.com/JakeFAU/pdfingest/internal/pipeline"
	pubmemory "github.com/JakeFAU/pdfingest/internal/publisher/memory"
	blobmemory "github.com/JakeFAU/pdfingest/internal/storage/memory"
)

const testTopic = "pdf-events"

type stubPartitioner struct {
	err error
}

func (p stubPartitioner) Partition(_ context.Context, in pipeline.PartitionInput) ([]element.Value, error) {
	if p.err != nil {
		return nil, p.err
	}
	return []element.Value{
		element.Object(element.F("type", element.String("Title")), element.F("text", element.String(in.Filename))),
		element.Object(element.F("type", element.String("NarrativeText")), element.F("text", element.String("Body."))),
	}, nil
}

type failingPublisher struct{}

func (failingPublisher) Publish(context.Context, pipeline.Notification) error {
	return errors.New("broker unavailable")
}

type harness struct {
	blobs  *blobmemory.BlobStore
	docs   *docmemory.DocumentStore
	pub    *pubmemory.Publisher
	server *Server
}

func newHarness(t *testing.T, partitioner pipeline.Partitioner, publisher pipeline.Publisher) *harness {
	t.Helper()
	h := &harness{
		blobs: blobmemory.NewBlobStore(),
		docs:  docmemory.NewDocumentStore(),
		pub:   pubmemory.New(),
	}
	h.blobs.Put("esg-x-v8", "aaaaaaa.pdf", []byte("%PDF-1.7"))
	if partitioner == nil {
		partitioner = stubPartitioner{}
	}
	if publisher == nil {
		publisher = h.pub
	}
	orch := pipeline.New(h.blobs, partitioner, h.docs, publisher, pipeline.Config{Topic: testTopic}, zap.NewNop())
	h.server = NewServer(orch, zap.NewNop())
	return h
}

func (h *harness) post(target string, body []byte) *httptest.ResponseRecorder {
	var req *http.Request
	if body == nil {
		req = httptest.NewRequest(http.MethodPost, target, nil)
	} else {
		req = httptest.NewRequest(http.MethodPost, target, bytes.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	h.server.Handler().ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	return out
}

func TestProcessPDF_Succeeds(t *testing.T) {
	t.Parallel()

	h := newHarness(t, nil, nil)
	rec := h.post("/process-pdf/?bucket_name=esg-x-v8&pdf_key=aaaaaaa.pdf", nil)

	require.Equal(t, http.StatusOK, rec.Code)
	body := decodeBody(t, rec)
	require.Equal(t, "success", body["status"])
	require.Equal(t, SuccessMessage, body["message"])
	require.EqualValues(t, 2, body["elements"])

	records := h.docs.Records()
	require.Len(t, records, 1)
	require.Equal(t, records[0].ID, body["document_id"])
	require.Len(t, records[0].Document.Elements, 2)

	msgs := h.pub.Messages()
	require.Equal(t, []pipeline.Notification{{Topic: testTopic, Key: "success", Value: "aaaaaaa.pdf"}}, msgs)
}

func TestProcessPDF_WithoutTrailingSlash(t *testing.T) {
	t.Parallel()

	h := newHarness(t, nil, nil)
	rec := h.post("/process-pdf?bucket_name=esg-x-v8&pdf_key=aaaaaaa.pdf", nil)
	require.Equal(t, http.StatusOK, rec.Code)
}

func TestProcessPDF_JSONBodyFallback(t *testing.T) {
	t.Parallel()

	h := newHarness(t, nil, nil)
	rec := h.post("/process-pdf/", []byte(`{"bucket_name":"esg-x-v8","pdf_key":"aaaaaaa.pdf"}`))
	require.Equal(t, http.StatusOK, rec.Code)
	require.Len(t, h.docs.Records(), 1)
}

func TestProcessPDF_MissingParameters(t *testing.T) {
	t.Parallel()

	h := newHarness(t, nil, nil)
	rec := h.post("/process-pdf/?bucket_name=esg-x-v8", nil)

	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	require.Contains(t, decodeBody(t, rec)["detail"], "pdf_key")
	require.Empty(t, h.docs.Records())
	require.Empty(t, h.pub.Messages())
}

func TestProcessPDF_InvalidJSONBody(t *testing.T) {
	t.Parallel()

	h := newHarness(t, nil, nil)
	rec := h.post("/process-pdf/", []byte(`{broken`))
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
}

func TestProcessPDF_MissingObjectReturns500(t *testing.T) {
	t.Parallel()

	h := newHarness(t, nil, nil)
	rec := h.post("/process-pdf/?bucket_name=esg-x-v8&pdf_key=missing.pdf", nil)

	require.Equal(t, http.StatusInternalServerError, rec.Code)
	require.Contains(t, decodeBody(t, rec)["detail"], pipeline.ErrObjectNotFound.Error())
	require.Empty(t, h.docs.Records())
	require.Empty(t, h.pub.Messages())
}

func TestProcessPDF_PartitionFailureStoresNothing(t *testing.T) {
	t.Parallel()

	h := newHarness(t, stubPartitioner{err: errors.New("not a pdf")}, nil)
	rec := h.post("/process-pdf/?bucket_name=esg-x-v8&pdf_key=aaaaaaa.pdf", nil)

	require.Equal(t, http.StatusInternalServerError, rec.Code)
	require.Equal(t, "partition pdf: not a pdf", decodeBody(t, rec)["detail"])
	require.Empty(t, h.docs.Records())
	require.Empty(t, h.pub.Messages())
}

func TestProcessPDF_PublishFailureKeepsDocument(t *testing.T) {
	t.Parallel()

	h := newHarness(t, nil, failingPublisher{})
	rec := h.post("/process-pdf/?bucket_name=esg-x-v8&pdf_key=aaaaaaa.pdf", nil)

	require.Equal(t, http.StatusInternalServerError, rec.Code)
	require.Contains(t, decodeBody(t, rec)["detail"], "broker unavailable")
	require.Len(t, h.docs.Records(), 1)
}

func TestProcessPDF_RepeatedRequestsDuplicate(t *testing.T) {
	t.Parallel()

	h := newHarness(t, nil, nil)
	for i := 0; i < 2; i++ {
		rec := h.post("/process-pdf/?bucket_name=esg-x-v8&pdf_key=aaaaaaa.pdf", nil)
		require.Equal(t, http.StatusOK, rec.Code)
	}
	records := h.docs.Records()
	require.Len(t, records, 2)
	require.NotEqual(t, records[0].ID, records[1].ID)
	require.Len(t, h.pub.Messages(), 2)
}

func TestProcessPDF_ClientCancellationDoesNotAbort(t *testing.T) {
	t.Parallel()

	h := newHarness(t, nil, nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	req := httptest.NewRequest(http.MethodPost, "/process-pdf/?bucket_name=esg-x-v8&pdf_key=aaaaaaa.pdf", nil).WithContext(ctx)
	rec := httptest.NewRecorder()

	h.server.Handler().ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	require.Len(t, h.docs.Records(), 1)
	require.Len(t, h.pub.Messages(), 1)
}

type panicProcessor struct{}

func (panicProcessor) Process(context.Context, pipeline.ProcessRequest) (pipeline.Result, error) {
	panic("unexpected")
}

func TestProcessPDF_PanicRecovered(t *testing.T) {
	t.Parallel()

	server := NewServer(panicProcessor{}, nil)
	req := httptest.NewRequest(http.MethodPost, "/process-pdf/?bucket_name=b&pdf_key=k", nil)
	rec := httptest.NewRecorder()
	server.Handler().ServeHTTP(rec, req)

	require.Equal(t, http.StatusInternalServerError, rec.Code)
	require.Contains(t, rec.Body.String(), "detail")
}

func TestServer_Probes(t *testing.T) {
	t.Parallel()

	h := newHarness(t, nil, nil)

	rec := httptest.NewRecorder()
	h.server.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	require.NotEmpty(t, rec.Header().Get("X-Request-ID"))

	rec = httptest.NewRecorder()
	h.server.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/readyz", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	h.server.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), "http_requests_total")
}

func TestServer_ReadyzReportsFailedCheck(t *testing.T) {
	t.Parallel()

	server := NewServer(panicProcessor{}, nil, WithReadinessChecks(func(context.Context) error {
		return errors.New("mongo unreachable")
	}))
	rec := httptest.NewRecorder()
	server.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/readyz", nil))

	require.Equal(t, http.StatusServiceUnavailable, rec.Code)
	require.JSONEq(t, `{"detail":"mongo unreachable"}`, rec.Body.String())
}
