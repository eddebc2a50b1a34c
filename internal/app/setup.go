package app

import (
	"context"
	"fmt"
	"net/http"

	"cloud.google.com/go/storage"
	"go.uber.org/zap"
	"google.golang.org/api/option"

	"github.com/JakeFAU/pdfingest/internal/config"
	docmemory "github.com/JakeFAU/pdfingest/internal/docstore/memory"
	docmongo "github.com/JakeFAU/pdfingest/internal/docstore/mongo"
	docpostgres "github.com/JakeFAU/pdfingest/internal/docstore/postgres"
	"github.com/JakeFAU/pdfingest/internal/partition/local"
	"github.com/JakeFAU/pdfingest/internal/partition/unstructured"
	"github.com/JakeFAU/pdfingest/internal/pipeline"
	kafkapublisher "github.com/JakeFAU/pdfingest/internal/publisher/kafka"
	memorypublisher "github.com/JakeFAU/pdfingest/internal/publisher/memory"
	pubsubpublisher "github.com/JakeFAU/pdfingest/internal/publisher/pubsub"
	rabbitpublisher "github.com/JakeFAU/pdfingest/internal/publisher/rabbitmq"
	gcsstorage "github.com/JakeFAU/pdfingest/internal/storage/gcs"
	localstorage "github.com/JakeFAU/pdfingest/internal/storage/local"
	memorystorage "github.com/JakeFAU/pdfingest/internal/storage/memory"
	s3storage "github.com/JakeFAU/pdfingest/internal/storage/s3"
)

func setupStorage(ctx context.Context, app *App) (pipeline.ObjectStore, error) {
	cfg := app.cfg.Storage
	switch cfg.Backend {
	case config.BackendS3:
		app.logger.Info("using S3-compatible storage backend", zap.String("endpoint", cfg.S3.Endpoint))
		store, err := s3storage.New(s3storage.Config{
			Endpoint:        cfg.S3.Endpoint,
			AccessKeyID:     cfg.S3.AccessKeyID,
			SecretAccessKey: cfg.S3.SecretAccessKey,
			Region:          cfg.S3.Region,
			UseSSL:          cfg.S3.UseSSL,
		})
		if err != nil {
			return nil, fmt.Errorf("s3 blob store init failed: %w", err)
		}
		return store, nil
	case config.BackendGCS:
		app.logger.Info("using GCS storage backend")
		var opts []option.ClientOption
		if cfg.GCS.CredentialsFile != "" {
			opts = append(opts, option.WithCredentialsFile(cfg.GCS.CredentialsFile))
		}
		if cfg.GCS.Endpoint != "" {
			opts = append(opts, option.WithEndpoint(cfg.GCS.Endpoint))
		}
		client, err := storage.NewClient(ctx, opts...)
		if err != nil {
			return nil, fmt.Errorf("gcs client init failed: %w", err)
		}
		app.addCloser("gcs", func(context.Context) error { return client.Close() })
		store, err := gcsstorage.New(client)
		if err != nil {
			return nil, fmt.Errorf("gcs blob store init failed: %w", err)
		}
		return store, nil
	case config.BackendLocal:
		app.logger.Info("using local filesystem storage backend", zap.String("base_dir", cfg.Local.BaseDir))
		store, err := localstorage.New(localstorage.Config{BaseDir: cfg.Local.BaseDir})
		if err != nil {
			return nil, fmt.Errorf("local blob store init failed: %w", err)
		}
		return store, nil
	case config.BackendMemory:
		app.logger.Warn("using in-memory storage backend; objects must be preloaded")
		return memorystorage.NewBlobStore(), nil
	default:
		return nil, fmt.Errorf("unsupported storage backend %q", cfg.Backend)
	}
}

func setupPartitioner(app *App) (pipeline.Partitioner, error) {
	cfg := app.cfg.Partition
	switch cfg.Backend {
	case config.BackendLocal:
		return local.New(local.Options{
			Validate:  cfg.Local.Validate,
			Languages: cfg.Local.Languages,
		}, app.logger.Named("partition")), nil
	case config.BackendUnstructured:
		client, err := unstructured.New(unstructured.Config{
			URL:      cfg.Unstructured.URL,
			APIKey:   cfg.Unstructured.APIKey,
			Strategy: cfg.Unstructured.Strategy,
			Timeout:  cfg.Unstructured.Timeout,
		}, &http.Client{Timeout: cfg.Unstructured.Timeout}, app.logger.Named("partition"))
		if err != nil {
			return nil, fmt.Errorf("unstructured partitioner init failed: %w", err)
		}
		return client, nil
	default:
		return nil, fmt.Errorf("unsupported partition backend %q", cfg.Backend)
	}
}

func setupDocStore(ctx context.Context, app *App) (pipeline.DocumentStore, error) {
	cfg := app.cfg.DocStore
	switch cfg.Backend {
	case config.BackendMongo:
		store, err := docmongo.New(ctx, docmongo.Config{
			URI:            cfg.Mongo.URI,
			Database:       cfg.Mongo.Database,
			Collection:     cfg.Mongo.Collection,
			ConnectTimeout: cfg.Mongo.ConnectTimeout,
		}, app.logger.Named("mongo"))
		if err != nil {
			return nil, fmt.Errorf("mongo document store init failed: %w", err)
		}
		app.addCloser("mongo", store.Close)
		app.readiness = append(app.readiness, store.Ping)
		app.logger.Info("using mongo document store",
			zap.String("database", cfg.Mongo.Database),
			zap.String("collection", cfg.Mongo.Collection),
		)
		return store, nil
	case config.BackendPostgres:
		store, err := docpostgres.New(ctx, docpostgres.Config{
			DSN:             cfg.Postgres.DSN,
			Table:           cfg.Postgres.Table,
			MaxConns:        cfg.Postgres.MaxConns,
			MinConns:        cfg.Postgres.MinConns,
			MaxConnLifetime: cfg.Postgres.MaxConnLifetime,
			AutoMigrate:     cfg.Postgres.AutoMigrate,
		})
		if err != nil {
			return nil, fmt.Errorf("postgres document store init failed: %w", err)
		}
		app.addCloser("postgres", func(context.Context) error {
			store.Close()
			return nil
		})
		app.logger.Info("using postgres document store", zap.String("table", cfg.Postgres.Table))
		return store, nil
	case config.BackendMemory:
		app.logger.Warn("using in-memory document store; documents are lost on exit")
		return docmemory.NewDocumentStore(), nil
	default:
		return nil, fmt.Errorf("unsupported docstore backend %q", cfg.Backend)
	}
}

func setupPublisher(ctx context.Context, app *App) (pipeline.Publisher, error) {
	cfg := app.cfg.Bus
	switch cfg.Backend {
	case config.BackendKafka:
		settings, err := config.ReadClientProperties(cfg.Kafka.PropertiesFile)
		if err != nil {
			return nil, err
		}
		pub, err := kafkapublisher.New(settings, cfg.FlushTimeout, app.logger.Named("kafka"))
		if err != nil {
			return nil, fmt.Errorf("kafka publisher init failed: %w", err)
		}
		app.addCloser("kafka", func(context.Context) error {
			pub.Close()
			return nil
		})
		app.logger.Info("using kafka publisher", zap.String("topic", cfg.Topic))
		return pub, nil
	case config.BackendPubSub:
		pub, err := pubsubpublisher.NewFromProject(ctx, cfg.PubSub.ProjectID, app.logger.Named("pubsub"))
		if err != nil {
			return nil, fmt.Errorf("pubsub publisher init failed: %w", err)
		}
		app.addCloser("pubsub", func(context.Context) error { return pub.Close() })
		app.logger.Info("using pubsub publisher", zap.String("topic", cfg.Topic))
		return pub, nil
	case config.BackendRabbitMQ:
		pub, err := rabbitpublisher.New(rabbitpublisher.Config{
			URL:          cfg.RabbitMQ.URL,
			Exchange:     cfg.RabbitMQ.Exchange,
			DeclareQueue: cfg.RabbitMQ.DeclareQueue,
		}, []string{cfg.Topic}, app.logger.Named("rabbitmq"))
		if err != nil {
			return nil, fmt.Errorf("rabbitmq publisher init failed: %w", err)
		}
		app.addCloser("rabbitmq", func(context.Context) error { return pub.Close() })
		app.logger.Info("using rabbitmq publisher", zap.String("topic", cfg.Topic))
		return pub, nil
	case config.BackendMemory:
		app.logger.Warn("using in-memory publisher; notifications are not delivered")
		return memorypublisher.New(), nil
	default:
		return nil, fmt.Errorf("unsupported bus backend %q", cfg.Backend)
	}
}
