package pipeline

import (
	"context"
	"fmt"
	"path"
	"time"

	"go.uber.org/zap"

	"github.com/JakeFAU/pdfingest/internal/hash/sha256"
	"github.com/JakeFAU/pdfingest/internal/telemetry"
)

// Config controls Orchestrator behavior.
type Config struct {
	// Topic receives the completion notification.
	Topic string
}

// Orchestrator sequences fetch, partition, store, and publish for one PDF.
// It holds no per-request state and may be shared across goroutines if its
// collaborators can.
type Orchestrator struct {
	objects     ObjectStore
	partitioner Partitioner
	documents   DocumentStore
	publisher   Publisher
	cfg         Config
	hasher      *sha256.Hasher
	logger      *zap.Logger
}

// New constructs an Orchestrator.
func New(
	objects ObjectStore,
	partitioner Partitioner,
	documents DocumentStore,
	publisher Publisher,
	cfg Config,
	logger *zap.Logger,
) *Orchestrator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Orchestrator{
		objects:     objects,
		partitioner: partitioner,
		documents:   documents,
		publisher:   publisher,
		cfg:         cfg,
		hasher:      sha256.New(),
		logger:      logger,
	}
}

// Process runs the four steps in order. The first failure aborts the run and
// is returned as *Error; steps that already completed are not undone.
func (o *Orchestrator) Process(ctx context.Context, req ProcessRequest) (Result, error) {
	logger := o.logger.With(zap.String("bucket", req.BucketName), zap.String("pdf_key", req.PDFKey))

	res, err := o.run(ctx, req, logger)
	if err != nil {
		kind := KindOf(err)
		telemetry.ObserveProcess(string(kind), 0)
		logger.Error("Error processing PDF", zap.String("kind", string(kind)), zap.Error(err))
		return Result{}, err
	}
	telemetry.ObserveProcess("", res.ElementCount)
	logger.Info("PDF processed and stored successfully.",
		zap.String("document_id", res.DocumentID),
		zap.Int("elements", res.ElementCount),
	)
	return res, nil
}

func (o *Orchestrator) run(ctx context.Context, req ProcessRequest, logger *zap.Logger) (Result, error) {
	start := time.Now()
	data, err := o.objects.Get(ctx, req.BucketName, req.PDFKey)
	telemetry.ObserveStep("fetch", time.Since(start))
	if err != nil {
		return Result{}, newError(KindRetrieval, "get object", err)
	}
	telemetry.ObserveFetchedBytes(len(data))
	fields := []zap.Field{zap.Int("bytes", len(data))}
	if sum, err := o.hasher.Hash(data); err == nil {
		fields = append(fields, zap.String("sha256", sum))
	}
	logger.Debug("object fetched", fields...)

	start = time.Now()
	elements, err := o.partitioner.Partition(ctx, PartitionInput{
		Filename:    path.Base(req.PDFKey),
		ContentType: "application/pdf",
		Data:        data,
	})
	telemetry.ObserveStep("partition", time.Since(start))
	if err != nil {
		return Result{}, newError(KindPartition, "partition pdf", err)
	}
	logger.Debug("pdf partitioned", zap.Int("elements", len(elements)))

	start = time.Now()
	ids, err := o.documents.InsertMany(ctx, []StoredDocument{{Elements: elements}})
	telemetry.ObserveStep("store", time.Since(start))
	if err != nil {
		return Result{}, newError(KindPersistence, "insert document", err)
	}
	if len(ids) != 1 {
		return Result{}, newError(KindPersistence, "insert document",
			fmt.Errorf("expected 1 inserted id, got %d", len(ids)))
	}
	logger.Debug("document stored", zap.String("document_id", ids[0]))

	start = time.Now()
	err = o.publisher.Publish(ctx, Notification{
		Topic: o.cfg.Topic,
		Key:   SuccessKey,
		Value: req.PDFKey,
	})
	telemetry.ObserveStep("publish", time.Since(start))
	if err != nil {
		return Result{}, newError(KindPublish, "publish notification", err)
	}

	return Result{DocumentID: ids[0], ElementCount: len(elements)}, nil
}
