package pipeline_test

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	docmemory "github.com/JakeFAU/pdfingest/internal/docstore/memory"
	"github.com/JakeFAU/pdfingest/internal/element"
	"github.com/JakeFAU/pdfingest/internal/pipeline"
	pubmemory "github.com/JakeFAU/pdfingest/internal/publisher/memory"
	blobmemory "github.com/JakeFAU/pdfingest/internal/storage/memory"
)

type fakePartitioner struct {
	elements []element.Value
	err      error
	got      pipeline.PartitionInput
}

func (f *fakePartitioner) Partition(_ context.Context, in pipeline.PartitionInput) ([]element.Value, error) {
	f.got = in
	return f.elements, f.err
}

type fakeDocuments struct {
	ids []string
	err error
}

func (f fakeDocuments) InsertMany(context.Context, []pipeline.StoredDocument) ([]string, error) {
	return f.ids, f.err
}

type fakePublisher struct{ err error }

func (f fakePublisher) Publish(context.Context, pipeline.Notification) error { return f.err }

type fixture struct {
	blobs       *blobmemory.BlobStore
	partitioner *fakePartitioner
	docs        *docmemory.DocumentStore
	pub         *pubmemory.Publisher
}

func newFixture() *fixture {
	blobs := blobmemory.NewBlobStore()
	blobs.Put("esg-x-v8", "reports/aaaaaaa.pdf", []byte("%PDF-1.7 body"))
	return &fixture{
		blobs: blobs,
		partitioner: &fakePartitioner{elements: []element.Value{
			element.Object(element.F("type", element.String("Title"))),
		}},
		docs: docmemory.NewDocumentStore(),
		pub:  pubmemory.New(),
	}
}

func (f *fixture) orchestrator(docs pipeline.DocumentStore, pub pipeline.Publisher) (*pipeline.Orchestrator, *observer.ObservedLogs) {
	if docs == nil {
		docs = f.docs
	}
	if pub == nil {
		pub = f.pub
	}
	core, logs := observer.New(zapcore.DebugLevel)
	return pipeline.New(f.blobs, f.partitioner, docs, pub, pipeline.Config{Topic: "pdf-events"}, zap.New(core)), logs
}

var validRequest = pipeline.ProcessRequest{BucketName: "esg-x-v8", PDFKey: "reports/aaaaaaa.pdf"}

func TestProcessSuccess(t *testing.T) {
	t.Parallel()

	f := newFixture()
	orch, logs := f.orchestrator(nil, nil)

	res, err := orch.Process(context.Background(), validRequest)
	require.NoError(t, err)
	require.Equal(t, 1, res.ElementCount)

	require.Equal(t, "aaaaaaa.pdf", f.partitioner.got.Filename)
	require.Equal(t, "application/pdf", f.partitioner.got.ContentType)
	require.Equal(t, []byte("%PDF-1.7 body"), f.partitioner.got.Data)

	records := f.docs.Records()
	require.Len(t, records, 1)
	require.Equal(t, res.DocumentID, records[0].ID)
	require.Equal(t, f.partitioner.elements, records[0].Document.Elements)

	require.Equal(t, []pipeline.Notification{{
		Topic: "pdf-events",
		Key:   pipeline.SuccessKey,
		Value: "reports/aaaaaaa.pdf",
	}}, f.pub.Messages())
	require.Equal(t, 1, logs.FilterMessage("PDF processed and stored successfully.").Len())
}

func TestProcessEmptyPartitionStillStores(t *testing.T) {
	t.Parallel()

	f := newFixture()
	f.partitioner.elements = []element.Value{}
	orch, _ := f.orchestrator(nil, nil)

	res, err := orch.Process(context.Background(), validRequest)
	require.NoError(t, err)
	require.Zero(t, res.ElementCount)
	require.Len(t, f.docs.Records(), 1)
	require.Len(t, f.pub.Messages(), 1)
}

func TestProcessFailures(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name        string
		req         pipeline.ProcessRequest
		partErr     error
		docs        pipeline.DocumentStore
		pub         pipeline.Publisher
		wantKind    pipeline.Kind
		wantOp      string
		wantStored  int
		wantPublish int
	}{
		{
			name:     "missing object",
			req:      pipeline.ProcessRequest{BucketName: "esg-x-v8", PDFKey: "missing.pdf"},
			wantKind: pipeline.KindRetrieval,
			wantOp:   "get object",
		},
		{
			name:     "partition error",
			req:      validRequest,
			partErr:  errors.New("corrupt xref"),
			wantKind: pipeline.KindPartition,
			wantOp:   "partition pdf",
		},
		{
			name:     "insert error",
			req:      validRequest,
			docs:     fakeDocuments{err: errors.New("server selection timeout")},
			wantKind: pipeline.KindPersistence,
			wantOp:   "insert document",
		},
		{
			name:     "insert returns no id",
			req:      validRequest,
			docs:     fakeDocuments{},
			wantKind: pipeline.KindPersistence,
			wantOp:   "insert document",
		},
		{
			name:       "publish error",
			req:        validRequest,
			pub:        fakePublisher{err: errors.New("flush timed out")},
			wantKind:   pipeline.KindPublish,
			wantOp:     "publish notification",
			wantStored: 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			f := newFixture()
			f.partitioner.err = tt.partErr
			orch, logs := f.orchestrator(tt.docs, tt.pub)

			_, err := orch.Process(context.Background(), tt.req)
			require.Error(t, err)
			require.Equal(t, tt.wantKind, pipeline.KindOf(err))

			var perr *pipeline.Error
			require.ErrorAs(t, err, &perr)
			require.Equal(t, tt.wantOp, perr.Op)

			require.Len(t, f.docs.Records(), tt.wantStored)
			require.Len(t, f.pub.Messages(), tt.wantPublish)

			entries := logs.FilterMessage("Error processing PDF").All()
			require.Len(t, entries, 1)
			require.Equal(t, string(tt.wantKind), entries[0].ContextMap()["kind"])
		})
	}
}

func TestProcessMissingObjectWrapsSentinel(t *testing.T) {
	t.Parallel()

	f := newFixture()
	orch, _ := f.orchestrator(nil, nil)
	_, err := orch.Process(context.Background(), pipeline.ProcessRequest{BucketName: "other", PDFKey: "x.pdf"})
	require.ErrorIs(t, err, pipeline.ErrObjectNotFound)
}

func TestKindOfUnknown(t *testing.T) {
	t.Parallel()

	require.Equal(t, pipeline.KindUnknown, pipeline.KindOf(errors.New("plain")))
	require.Equal(t, pipeline.KindUnknown, pipeline.KindOf(nil))
}

func TestProcessRequestValidate(t *testing.T) {
	t.Parallel()

	require.NoError(t, validRequest.Validate())
	require.EqualError(t, pipeline.ProcessRequest{}.Validate(), "missing required parameter(s): bucket_name, pdf_key")
	require.EqualError(t, pipeline.ProcessRequest{BucketName: "b", PDFKey: "  "}.Validate(), "missing required parameter(s): pdf_key")
}

func TestProcessLogsContentHash(t *testing.T) {
	t.Parallel()

	f := newFixture()
	o, logs := f.orchestrator(nil, nil)

	_, err := o.Process(context.Background(), validRequest)
	require.NoError(t, err)

	fetched := logs.FilterMessage("object fetched").All()
	require.Len(t, fetched, 1)
	sum := sha256.Sum256([]byte("%PDF-1.7 body"))
	require.Equal(t, hex.EncodeToString(sum[:]), fetched[0].ContextMap()["sha256"])
	require.Equal(t, int64(len("%PDF-1.7 body")), fetched[0].ContextMap()["bytes"])
}
