// Package config loads and validates service configuration via Viper.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// EnvPrefix namespaces environment overrides, e.g. PDFINGEST_SERVER_PORT.
const EnvPrefix = "PDFINGEST"

// Backend names accepted by the *.backend keys.
const (
	BackendMemory       = "memory"
	BackendS3           = "s3"
	BackendGCS          = "gcs"
	BackendLocal        = "local"
	BackendUnstructured = "unstructured"
	BackendMongo        = "mongo"
	BackendPostgres     = "postgres"
	BackendKafka        = "kafka"
	BackendPubSub       = "pubsub"
	BackendRabbitMQ     = "rabbitmq"
)

// Config captures all service configuration knobs loaded via Viper.
type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Logging   LoggingConfig   `mapstructure:"logging"`
	Storage   StorageConfig   `mapstructure:"storage"`
	Partition PartitionConfig `mapstructure:"partition"`
	DocStore  DocStoreConfig  `mapstructure:"docstore"`
	Bus       BusConfig       `mapstructure:"bus"`
	Run       RunConfig       `mapstructure:"run"`
}

// ServerConfig controls HTTP server behavior.
type ServerConfig struct {
	Port              int           `mapstructure:"port"`
	ReadHeaderTimeout time.Duration `mapstructure:"read_header_timeout"`
	ShutdownTimeout   time.Duration `mapstructure:"shutdown_timeout"`
}

// LoggingConfig toggles zap development features.
type LoggingConfig struct {
	Development bool   `mapstructure:"development"`
	Level       string `mapstructure:"level"`
}

// StorageConfig selects the object store.
type StorageConfig struct {
	Backend string             `mapstructure:"backend"`
	S3      S3Config           `mapstructure:"s3"`
	GCS     GCSConfig          `mapstructure:"gcs"`
	Local   LocalStorageConfig `mapstructure:"local"`
}

// S3Config points at an S3-compatible endpoint.
type S3Config struct {
	Endpoint        string `mapstructure:"endpoint"`
	AccessKeyID     string `mapstructure:"access_key_id"`
	SecretAccessKey string `mapstructure:"secret_access_key"`
	Region          string `mapstructure:"region"`
	UseSSL          bool   `mapstructure:"use_ssl"`
}

// GCSConfig configures the native Cloud Storage client. Empty fields fall
// back to application default credentials.
type GCSConfig struct {
	CredentialsFile string `mapstructure:"credentials_file"`
	Endpoint        string `mapstructure:"endpoint"`
}

// LocalStorageConfig serves buckets as directories under BaseDir.
type LocalStorageConfig struct {
	BaseDir string `mapstructure:"base_dir"`
}

// PartitionConfig selects the partitioner.
type PartitionConfig struct {
	Backend      string             `mapstructure:"backend"`
	Local        LocalPartition     `mapstructure:"local"`
	Unstructured UnstructuredConfig `mapstructure:"unstructured"`
}

// LocalPartition tunes the in-process partitioner.
type LocalPartition struct {
	Validate  bool     `mapstructure:"validate"`
	Languages []string `mapstructure:"languages"`
}

// UnstructuredConfig points at an Unstructured partition API.
type UnstructuredConfig struct {
	URL      string        `mapstructure:"url"`
	APIKey   string        `mapstructure:"api_key"`
	Strategy string        `mapstructure:"strategy"`
	Timeout  time.Duration `mapstructure:"timeout"`
}

// DocStoreConfig selects the document store.
type DocStoreConfig struct {
	Backend  string         `mapstructure:"backend"`
	Mongo    MongoConfig    `mapstructure:"mongo"`
	Postgres PostgresConfig `mapstructure:"postgres"`
}

// MongoConfig names the deployment and target collection.
type MongoConfig struct {
	URI            string        `mapstructure:"uri"`
	Database       string        `mapstructure:"database"`
	Collection     string        `mapstructure:"collection"`
	ConnectTimeout time.Duration `mapstructure:"connect_timeout"`
}

// PostgresConfig controls the JSONB document table.
type PostgresConfig struct {
	DSN             string        `mapstructure:"dsn"`
	Table           string        `mapstructure:"table"`
	MaxConns        int32         `mapstructure:"max_conns"`
	MinConns        int32         `mapstructure:"min_conns"`
	MaxConnLifetime time.Duration `mapstructure:"max_conn_lifetime"`
	AutoMigrate     bool          `mapstructure:"auto_migrate"`
}

// BusConfig selects the notification publisher.
type BusConfig struct {
	Backend      string         `mapstructure:"backend"`
	Topic        string         `mapstructure:"topic"`
	FlushTimeout time.Duration  `mapstructure:"flush_timeout"`
	Kafka        KafkaConfig    `mapstructure:"kafka"`
	PubSub       PubSubConfig   `mapstructure:"pubsub"`
	RabbitMQ     RabbitMQConfig `mapstructure:"rabbitmq"`
}

// KafkaConfig locates the librdkafka client.properties file.
type KafkaConfig struct {
	PropertiesFile string `mapstructure:"properties_file"`
}

// PubSubConfig holds the Google Cloud project for Pub/Sub.
type PubSubConfig struct {
	ProjectID string `mapstructure:"project_id"`
}

// RabbitMQConfig addresses the AMQP broker.
type RabbitMQConfig struct {
	URL          string `mapstructure:"url"`
	Exchange     string `mapstructure:"exchange"`
	DeclareQueue bool   `mapstructure:"declare_queue"`
}

// RunConfig is the object processed by the one-shot run mode.
type RunConfig struct {
	Bucket string `mapstructure:"bucket"`
	Key    string `mapstructure:"key"`
}

// Load builds a Config from disk/environment.
func Load(path string) (Config, error) {
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)
	if err := bindLegacyEnv(v); err != nil {
		return Config{}, err
	}

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.read_header_timeout", "10s")
	v.SetDefault("server.shutdown_timeout", "15s")
	v.SetDefault("logging.development", false)
	v.SetDefault("logging.level", "info")

	v.SetDefault("storage.backend", BackendS3)
	v.SetDefault("storage.s3.endpoint", "https://storage.googleapis.com")
	v.SetDefault("storage.s3.access_key_id", "")
	v.SetDefault("storage.s3.secret_access_key", "")
	v.SetDefault("storage.s3.region", "auto")
	v.SetDefault("storage.s3.use_ssl", true)
	v.SetDefault("storage.gcs.credentials_file", "")
	v.SetDefault("storage.gcs.endpoint", "")
	v.SetDefault("storage.local.base_dir", "")

	v.SetDefault("partition.backend", BackendLocal)
	v.SetDefault("partition.local.validate", true)
	v.SetDefault("partition.local.languages", []string{"eng"})
	v.SetDefault("partition.unstructured.url", "")
	v.SetDefault("partition.unstructured.api_key", "")
	v.SetDefault("partition.unstructured.strategy", "auto")
	v.SetDefault("partition.unstructured.timeout", "120s")

	v.SetDefault("docstore.backend", BackendMongo)
	v.SetDefault("docstore.mongo.uri", "")
	v.SetDefault("docstore.mongo.database", "mydatabase")
	v.SetDefault("docstore.mongo.collection", "mycollection")
	v.SetDefault("docstore.mongo.connect_timeout", "10s")
	v.SetDefault("docstore.postgres.dsn", "")
	v.SetDefault("docstore.postgres.table", "documents")
	v.SetDefault("docstore.postgres.max_conns", 4)
	v.SetDefault("docstore.postgres.min_conns", 0)
	v.SetDefault("docstore.postgres.max_conn_lifetime", "30m")
	v.SetDefault("docstore.postgres.auto_migrate", false)

	v.SetDefault("bus.backend", BackendKafka)
	v.SetDefault("bus.topic", "")
	v.SetDefault("bus.flush_timeout", "15s")
	v.SetDefault("bus.kafka.properties_file", "client.properties")
	v.SetDefault("bus.pubsub.project_id", "")
	v.SetDefault("bus.rabbitmq.url", "")
	v.SetDefault("bus.rabbitmq.exchange", "")
	v.SetDefault("bus.rabbitmq.declare_queue", true)

	v.SetDefault("run.bucket", "esg-x-v8")
	v.SetDefault("run.key", "aaaaaaa.pdf")
}

// legacyEnv maps config keys to the environment names earlier deployments
// used. The prefixed name wins when both are set.
var legacyEnv = map[string]string{
	"storage.s3.access_key_id":     "GOOGLE_ACCESS_KEY_ID",
	"storage.s3.secret_access_key": "GOOGLE_SECRET_ACCESS_KEY",
	"docstore.mongo.uri":           "MONGO_URI",
	"docstore.mongo.database":      "MONGO_DB_NAME",
	"docstore.mongo.collection":    "MONGO_COLLECTION_NAME",
	"bus.topic":                    "KAFKA_TOPIC",
}

func bindLegacyEnv(v *viper.Viper) error {
	for key, legacy := range legacyEnv {
		prefixed := EnvPrefix + "_" + strings.ToUpper(strings.ReplaceAll(key, ".", "_"))
		if err := v.BindEnv(key, prefixed, legacy); err != nil {
			return fmt.Errorf("bind env %s: %w", key, err)
		}
	}
	return nil
}

// Validate enforces required values and reasonable limits.
func (c Config) Validate() error {
	if c.Server.Port <= 0 {
		return fmt.Errorf("server.port must be > 0")
	}
	if c.Bus.Topic == "" {
		return fmt.Errorf("bus.topic is required (or KAFKA_TOPIC)")
	}
	if err := c.validateStorage(); err != nil {
		return err
	}
	if err := c.validatePartition(); err != nil {
		return err
	}
	if err := c.validateDocStore(); err != nil {
		return err
	}
	return c.validateBus()
}

func (c Config) validateStorage() error {
	switch c.Storage.Backend {
	case BackendS3:
		if c.Storage.S3.Endpoint == "" {
			return fmt.Errorf("storage.s3.endpoint is required")
		}
	case BackendLocal:
		if c.Storage.Local.BaseDir == "" {
			return fmt.Errorf("storage.local.base_dir is required")
		}
	case BackendGCS, BackendMemory:
	default:
		return fmt.Errorf("unsupported storage.backend %q", c.Storage.Backend)
	}
	return nil
}

func (c Config) validatePartition() error {
	switch c.Partition.Backend {
	case BackendLocal:
	case BackendUnstructured:
		if c.Partition.Unstructured.URL == "" {
			return fmt.Errorf("partition.unstructured.url is required")
		}
	default:
		return fmt.Errorf("unsupported partition.backend %q", c.Partition.Backend)
	}
	return nil
}

func (c Config) validateDocStore() error {
	switch c.DocStore.Backend {
	case BackendMongo:
		if c.DocStore.Mongo.URI == "" {
			return fmt.Errorf("docstore.mongo.uri is required (or MONGO_URI)")
		}
	case BackendPostgres:
		if c.DocStore.Postgres.DSN == "" {
			return fmt.Errorf("docstore.postgres.dsn is required")
		}
	case BackendMemory:
	default:
		return fmt.Errorf("unsupported docstore.backend %q", c.DocStore.Backend)
	}
	return nil
}

func (c Config) validateBus() error {
	switch c.Bus.Backend {
	case BackendKafka:
		if c.Bus.Kafka.PropertiesFile == "" {
			return fmt.Errorf("bus.kafka.properties_file is required")
		}
	case BackendPubSub:
		if c.Bus.PubSub.ProjectID == "" {
			return fmt.Errorf("bus.pubsub.project_id is required")
		}
	case BackendRabbitMQ:
		if c.Bus.RabbitMQ.URL == "" {
			return fmt.Errorf("bus.rabbitmq.url is required")
		}
	case BackendMemory:
	default:
		return fmt.Errorf("unsupported bus.backend %q", c.Bus.Backend)
	}
	return nil
}
