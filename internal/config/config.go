// Package config loads and validates the settings shared by the core API and the core worker.
// Values come from defaults, an optional .env file and the process environment, in that order.
package config

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"
)

// Config holds the complete application configuration.
// It is built once at process start and treated as read-only afterwards.
type Config struct {
	Application ApplicationConfig
	Logging     LoggingConfig
	Server      ServerConfig
	CoreBank    CoreBankConfig
	Kafka       KafkaConfig
	Postgres    PostgresConfig
	MongoDB     MongoDBConfig
	Outbox      OutboxConfig
	WorkerPool  WorkerPoolConfig
}

type ApplicationConfig struct {
	Env  string
	Name string
}

type LoggingConfig struct {
	Level string
}

// ServerConfig contains HTTP server configuration settings
type ServerConfig struct {
	Port            int
	ShutdownTimeout time.Duration
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	IdleTimeout     time.Duration
}

// CoreBankConfig describes the remote banking core and how calls to it are bounded
type CoreBankConfig struct {
	BaseURL             string
	DebitPath           string
	CreditPath          string
	ReversalPath        string
	TimeoutSeconds      int // per outbound call
	RetryMaxAttempts    int
	RetryBackoffMillis  int // linear backoff base
	ApprovedStatuses    []string
	MaxIdleConns        int
	MaxIdleConnsPerHost int
}

func (c CoreBankConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutSeconds) * time.Second
}

func (c CoreBankConfig) RetryBackoff() time.Duration {
	return time.Duration(c.RetryBackoffMillis) * time.Millisecond
}

// sagaLegs counts the core calls one saga can make: debit, credit and reversal
const sagaLegs = 3

// WorstCaseSaga is the longest a saga can spend waiting on the core when every
// leg exhausts its attempts, including the linear backoff between them.
func (c CoreBankConfig) WorstCaseSaga() time.Duration {
	attempts := time.Duration(c.RetryMaxAttempts)
	perLeg := attempts*c.Timeout() + c.RetryBackoff()*attempts*(attempts-1)/2
	return sagaLegs * perLeg
}

func (c CoreBankConfig) DebitURL() string    { return c.endpoint(c.DebitPath) }
func (c CoreBankConfig) CreditURL() string   { return c.endpoint(c.CreditPath) }
func (c CoreBankConfig) ReversalURL() string { return c.endpoint(c.ReversalPath) }

func (c CoreBankConfig) endpoint(path string) string {
	return strings.TrimRight(c.BaseURL, "/") + "/" + strings.TrimLeft(path, "/")
}

// KafkaConfig contains Kafka configuration
type KafkaConfig struct {
	Brokers            string
	RequestTopic       string // asynchronous transaction requests
	ResultTopic        string // final transaction results
	ReversalAlertTopic string // reversals that need manual settlement
	DLQTopic           string
	NumPartitions      int
	ReplicationFactor  int
	ConsumerGroup      string
	MinBytes           int
	MaxBytes           int
	MaxWait            time.Duration
	StartOffset        int64
}

// PostgresConfig contains PostgreSQL configuration
type PostgresConfig struct {
	URL             string
	MaxConns        int32
	MinConns        int32
	ConnMaxLifetime time.Duration
	ConnMaxIdleTime time.Duration
	MigrationsPath  string
}

// MongoDBConfig contains MongoDB configuration for the transaction journal
type MongoDBConfig struct {
	URI             string
	Database        string
	Timeout         time.Duration
	MaxPoolSize     uint64
	MinPoolSize     uint64
	MaxConnIdleTime time.Duration
}

// OutboxConfig controls the reversal failure poller
type OutboxConfig struct {
	PollingInterval  time.Duration
	BatchSize        int
	MaxRetryAttempts int
}

type WorkerPoolConfig struct {
	Size int
}

// validate collects every invalid setting into a single error
func (c *Config) validate() error {
	var problems []string
	check := func(ok bool, msg string) {
		if !ok {
			problems = append(problems, msg)
		}
	}

	check(c.Server.Port > 0, "SERVER_PORT must be greater than 0")
	check(c.Server.ShutdownTimeout > 0, "SERVER_SHUTDOWN_TIMEOUT must be greater than 0")
	check(c.Server.ReadTimeout > 0, "SERVER_READ_TIMEOUT must be greater than 0")
	check(c.Server.WriteTimeout > 0, "SERVER_WRITE_TIMEOUT must be greater than 0")
	if bound := c.CoreBank.WorstCaseSaga(); c.Server.WriteTimeout > 0 && c.Server.WriteTimeout < bound {
		problems = append(problems, fmt.Sprintf("SERVER_WRITE_TIMEOUT must be at least %s to outlast a saga", bound))
	}
	check(c.Server.IdleTimeout > 0, "SERVER_IDLE_TIMEOUT must be greater than 0")

	if c.CoreBank.BaseURL == "" {
		problems = append(problems, "CORE_BASE_URL is required")
	} else if u, err := url.Parse(c.CoreBank.BaseURL); err != nil || u.Scheme == "" || u.Host == "" {
		problems = append(problems, "CORE_BASE_URL must be an absolute URL")
	}
	check(c.CoreBank.DebitPath != "", "CORE_DEBIT_PATH is required")
	check(c.CoreBank.CreditPath != "", "CORE_CREDIT_PATH is required")
	check(c.CoreBank.ReversalPath != "", "CORE_REVERSAL_PATH is required")
	check(c.CoreBank.TimeoutSeconds > 0, "CORE_TIMEOUT must be greater than 0")
	check(c.CoreBank.RetryMaxAttempts > 0, "CORE_RETRY_MAX_ATTEMPTS must be greater than 0")
	check(c.CoreBank.RetryBackoffMillis >= 0, "CORE_RETRY_BACKOFF_MS must not be negative")
	check(len(c.CoreBank.ApprovedStatuses) > 0, "CORE_APPROVED_STATUSES must list at least one status")
	check(c.CoreBank.MaxIdleConns > 0, "CORE_MAX_IDLE_CONNS must be greater than 0")
	check(c.CoreBank.MaxIdleConnsPerHost > 0, "CORE_MAX_IDLE_CONNS_PER_HOST must be greater than 0")

	check(c.Kafka.Brokers != "", "KAFKA_BROKERS is required")
	check(c.Kafka.RequestTopic != "", "KAFKA_REQUEST_TOPIC is required")
	check(c.Kafka.ResultTopic != "", "KAFKA_RESULT_TOPIC is required")
	check(c.Kafka.ReversalAlertTopic != "", "KAFKA_REVERSAL_ALERT_TOPIC is required")
	check(c.Kafka.ConsumerGroup != "", "KAFKA_CONSUMER_GROUP is required")
	check(c.Kafka.MinBytes > 0, "KAFKA_CONSUMER_MIN_BYTES must be greater than 0")
	check(c.Kafka.MaxBytes > 0, "KAFKA_CONSUMER_MAX_BYTES must be greater than 0")
	check(c.Kafka.MaxWait > 0, "KAFKA_CONSUMER_MAX_WAIT must be greater than 0")

	check(c.Postgres.URL != "", "POSTGRES_URL is required")
	check(c.Postgres.MaxConns > 0, "POSTGRES_MAX_CONNS must be greater than 0")
	check(c.Postgres.MinConns > 0, "POSTGRES_MIN_CONNS must be greater than 0")
	check(c.Postgres.ConnMaxLifetime > 0, "POSTGRES_MAX_CONN_LIFETIME must be greater than 0")
	check(c.Postgres.ConnMaxIdleTime > 0, "POSTGRES_MAX_CONN_IDLE_TIME must be greater than 0")

	check(c.MongoDB.URI != "", "MONGO_URI is required")
	check(c.MongoDB.Database != "", "MONGO_DATABASE is required")
	check(c.MongoDB.Timeout > 0, "MONGO_TIMEOUT must be greater than 0")
	check(c.MongoDB.MaxPoolSize > 0, "MONGO_MAX_POOL_SIZE must be greater than 0")
	check(c.MongoDB.MinPoolSize > 0, "MONGO_MIN_POOL_SIZE must be greater than 0")
	check(c.MongoDB.MaxConnIdleTime > 0, "MONGO_MAX_CONN_IDLE_TIME must be greater than 0")

	check(c.Outbox.PollingInterval > 0, "OUTBOX_POLLING_INTERVAL must be greater than 0")
	check(c.Outbox.BatchSize > 0, "OUTBOX_BATCH_SIZE must be greater than 0")
	check(c.Outbox.MaxRetryAttempts > 0, "OUTBOX_MAX_RETRY_ATTEMPTS must be greater than 0")

	check(c.WorkerPool.Size > 0, "WORKER_POOL_SIZE must be greater than 0")

	if len(problems) > 0 {
		return errors.New(strings.Join(problems, ", "))
	}
	return nil
}
