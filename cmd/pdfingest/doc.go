// Package main hosts the pdfingest entrypoint.
//
// Architecture overview:
//   - HTTP API: internal/api.Server exposes POST /process-pdf/ plus health and metrics endpoints. bucket_name and
//     pdf_key arrive as query parameters; the handler hands them to the orchestrator on a context detached from the
//     client so a started ingestion always finishes.
//   - Orchestrator: internal/pipeline runs fetch, partition, store, and publish in order. The first failure stops the
//     run and is returned as *pipeline.Error carrying the failed step's kind; earlier steps are not undone.
//   - Backends: object storage (S3-compatible via minio-go, native GCS, memory), partitioning (local text extraction
//     or the Unstructured API), document storage (MongoDB, Postgres JSONB, memory), and notification (Kafka, Pub/Sub,
//     RabbitMQ, memory) are chosen by config and built once in internal/app.
//   - Configuration & plumbing: .env files are loaded first, then Viper reads PDFINGEST_* variables, the legacy names
//     (GOOGLE_ACCESS_KEY_ID, MONGO_URI, KAFKA_TOPIC, ...) and an optional YAML file. Kafka producer settings come from
//     client.properties. zap provides structured logging; Prometheus metrics are served on /metrics.
//
// Quick checklist:
//   - Configure GOOGLE_ACCESS_KEY_ID / GOOGLE_SECRET_ACCESS_KEY, MONGO_URI, KAFKA_TOPIC, and client.properties.
//   - Serve: go run ./cmd/pdfingest serve --config config.yaml
//   - One-shot: go run ./cmd/pdfingest process [--bucket esg-x-v8 --key aaaaaaa.pdf]
package main
