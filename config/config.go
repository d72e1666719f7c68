package config

import "time"

type Config struct {
	AppName                       string   `env:"APP_NAME" env-default:"events-api"`
	Port                          int      `env:"PORT" env-default:"3010"`
	LogLevel                      string   `env:"LOG_LEVEL" env-default:"info"`
	PrettyLogs                    bool     `env:"PRETTY_LOGS" env-default:"false"`
	HttpServerWriteTimeoutSeconds int      `env:"HTTP_SERVER_WRITE_TIMEOUT_SECONDS" env-default:"10"`
	HttpServerReadTimeoutSeconds  int      `env:"HTTP_SERVER_READ_TIMEOUT_SECONDS" env-default:"10"`
	HttpServerIdleTimeoutSeconds  int      `env:"HTTP_SERVER_IDLE_TIMEOUT_SECONDS" env-default:"10"`
	MaxHeaderBytes                int      `env:"HTTP_SERVER_MAX_HEADER_BYTES" env-default:"64000"` // 64KB
	ReadHeaderTimeoutSeconds      int      `env:"HTTP_SERVER_READ_HEADER_TIMEOUT_SECONDS" env-default:"10"`
	AllowOrigins                  []string `env:"HTTP_SERVER_ALLOW_ORIGINS" env-default:"*"`
	AllowMethods                  []string `env:"HTTP_SERVER_ALLOW_METHODS" env-default:"GET,POST,PUT,DELETE"`
	StartupMaxAttempts            int      `env:"STARTUP_MAX_ATTEMPTS" env-default:"5"`

	// PostgreSQL
	DatabaseDriver              string        `env:"DB_DRIVER" env-default:"postgres"`
	DatabaseHost                string        `env:"DB_HOST" env-default:""`
	DatabasePort                string        `env:"DB_PORT" env-default:"5432"`
	DatabaseUserName            string        `env:"DB_USER_NAME" env-default:""`
	DatabasePassword            string        `env:"DB_PASSWORD" env-default:""`
	DatabaseName                string        `env:"DB_NAME" env-default:"events"`
	DatabaseSSLMode             string        `env:"DB_SQL_MODE" env-default:"disable"`
	DatabaseMaxOpenConns        int           `env:"DB_MAX_OPEN_CONNS" env-default:"25"`
	DatabaseMaxIdleConns        int           `env:"DB_MAX_IDLE_CONNS" env-default:"10"`
	DatabaseConnMaxLifetime     time.Duration `env:"DB_CONN_MAX_LIFETIME" env-default:"10s"`
	DatabaseMigrationFolderPath string        `env:"DB_MIGRATION_FOLDER_PATH" env-default:"db/pg"`

	// Redis (publication year cache)
	RedisHost     string `env:"REDIS_HOST" env-default:"localhost"`
	RedisPort     int    `env:"REDIS_PORT" env-default:"6379"`
	RedisPassword string `env:"REDIS_PASSWORD" env-default:""`
	RedisDB       int    `env:"REDIS_DB" env-default:"0"`

	// Search index (OpenSearch)
	SearchAddresses []string `env:"SEARCH_ADDRESSES" env-default:"http://localhost:9200"`
	SearchUsername  string   `env:"SEARCH_USERNAME" env-default:""`
	SearchPassword  string   `env:"SEARCH_PASSWORD" env-default:""`
	SearchIndex     string   `env:"SEARCH_INDEX" env-default:"events"`

	// DataCite REST API (DOI enrichment)
	DataCiteAPIURL string `env:"DATACITE_API_URL" env-default:"https://api.datacite.org"`

	// Kafka Consumer (event ingestion)
	KafkaBrokers         []string `env:"KAFKA_BROKERS" env-default:"localhost:9092"`
	KafkaTopicPrefix     string   `env:"KAFKA_TOPIC_PREFIX" env-default:""`
	KafkaEventsTopic     string   `env:"KAFKA_EVENTS_TOPIC" env-default:"events"`
	KafkaConsumerGroup   string   `env:"KAFKA_CONSUMER_GROUP" env-default:"events-consumer"`
	KafkaConsumerEnabled bool     `env:"KAFKA_CONSUMER_ENABLED" env-default:"true"`

	// Kafka Producer (lifecycle events)
	KafkaLifecycleTopic string `env:"KAFKA_LIFECYCLE_TOPIC" env-default:"event-lifecycle"`
	KafkaBatchSize      int    `env:"KAFKA_BATCH_SIZE" env-default:"100"`
	KafkaBatchTimeout   int    `env:"KAFKA_BATCH_TIMEOUT_MS" env-default:"100"`
	KafkaRequiredAcks   int    `env:"KAFKA_REQUIRED_ACKS" env-default:"1"`
	KafkaCompression    string `env:"KAFKA_COMPRESSION" env-default:"snappy"`
}

// EventsTopic returns the ingestion topic with the environment prefix applied.
func (c Config) EventsTopic() string {
	return c.KafkaTopicPrefix + c.KafkaEventsTopic
}

// LifecycleTopic returns the lifecycle topic with the environment prefix applied.
func (c Config) LifecycleTopic() string {
	return c.KafkaTopicPrefix + c.KafkaLifecycleTopic
}
