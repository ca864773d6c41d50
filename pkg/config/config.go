package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	App     AppConfig
	Service ServiceConfig
	DB      DBConfig
	Redis   RedisConfig
	JWT     JWTConfig
	GCP     GCPConfig
	PubSub  PubSubConfig
	Outbox  OutboxConfig
	Scoring ScoringConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.DB.ensureDSN(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"TRADEPOST_APP_ENV" required:"true"`
	Port         string `envconfig:"TRADEPOST_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"TRADEPOST_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"TRADEPOST_LOG_WARN_STACK" default:"false"`
	AutoMigrate  bool   `envconfig:"TRADEPOST_APP_AUTO_MIGRATE" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type ServiceConfig struct {
	Kind string `envconfig:"TRADEPOST_SERVICE_KIND" default:"api"`
}

type DBConfig struct {
	DSN    string `envconfig:"TRADEPOST_DB_DSN"`
	Driver string `envconfig:"TRADEPOST_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"TRADEPOST_DB_HOST"`
	LegacyPort     int    `envconfig:"TRADEPOST_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"TRADEPOST_DB_USER"`
	LegacyPassword string `envconfig:"TRADEPOST_DB_PASSWORD"`
	LegacyName     string `envconfig:"TRADEPOST_DB_NAME"`
	LegacySSLMode  string `envconfig:"TRADEPOST_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"TRADEPOST_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"TRADEPOST_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"TRADEPOST_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"TRADEPOST_DB_CONN_MAX_IDLE_TIME" default:"10m"`
	QueryTimeout    time.Duration `envconfig:"TRADEPOST_DB_QUERY_TIMEOUT" default:"5s"`
}

type RedisConfig struct {
	URL          string        `envconfig:"TRADEPOST_REDIS_URL" required:"true"`
	Address      string        `envconfig:"TRADEPOST_REDIS_ADDR"`
	Password     string        `envconfig:"TRADEPOST_REDIS_PASSWORD"`
	DB           int           `envconfig:"TRADEPOST_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"TRADEPOST_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"TRADEPOST_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"TRADEPOST_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"TRADEPOST_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"TRADEPOST_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type JWTConfig struct {
	Secret            string `envconfig:"TRADEPOST_JWT_SECRET" required:"true"`
	Issuer            string `envconfig:"TRADEPOST_JWT_ISSUER" required:"true"`
	ExpirationMinutes int    `envconfig:"TRADEPOST_JWT_EXPIRATION_MINUTES" default:"60"`
}

type GCPConfig struct {
	ProjectID string `envconfig:"TRADEPOST_GCP_PROJECT_ID" required:"true"`
}

type PubSubConfig struct {
	DomainTopic         string `envconfig:"TRADEPOST_PUBSUB_DOMAIN_TOPIC" default:"tp-domain-events"`
	ScoringSubscription string `envconfig:"TRADEPOST_PUBSUB_SCORING_SUBSCRIPTION" required:"true"`
}

type OutboxConfig struct {
	BatchSize      int           `envconfig:"TRADEPOST_OUTBOX_PUBLISH_BATCH_SIZE" default:"50"`
	PollIntervalMS int           `envconfig:"TRADEPOST_OUTBOX_PUBLISH_POLL_MS" default:"500"`
	MaxAttempts    int           `envconfig:"TRADEPOST_OUTBOX_MAX_ATTEMPTS" default:"10"`
	IdempotencyTTL time.Duration `envconfig:"TRADEPOST_OUTBOX_IDEMPOTENCY_TTL" default:"720h"`
}

type ScoringConfig struct {
	CapabilityCacheTTL time.Duration `envconfig:"TRADEPOST_SCORING_CAPABILITY_TTL" default:"5m"`
	FraudThreshold     int           `envconfig:"TRADEPOST_SCORING_FRAUD_THRESHOLD" default:"25"`
	NotifyDeltaMin     int           `envconfig:"TRADEPOST_SCORING_NOTIFY_DELTA_MIN" default:"5"`
	DispatcherWorkers  int           `envconfig:"TRADEPOST_SCORING_DISPATCHER_WORKERS" default:"4"`
	QueueCapacity      int           `envconfig:"TRADEPOST_SCORING_QUEUE_CAPACITY" default:"1024"`
	BackfillBatchSize  int           `envconfig:"TRADEPOST_SCORING_BACKFILL_BATCH_SIZE" default:"200"`
	BackfillLockTTL    time.Duration `envconfig:"TRADEPOST_SCORING_BACKFILL_LOCK_TTL" default:"1h"`
}

func (db *DBConfig) ensureDSN() error {
	if db.DSN != "" {
		return nil
	}

	missing := []string{}
	legacyValues := map[string]string{
		EnvDBHost: db.LegacyHost,
		EnvDBUser: db.LegacyUser,
		EnvDBName: db.LegacyName,
	}
	for _, env := range legacyDBEnvVars {
		if legacyValues[env] == "" {
			missing = append(missing, env)
		}
	}

	if len(missing) > 0 {
		return fmt.Errorf("either %s or %s are required", EnvDBDSN, strings.Join(missing, ", "))
	}

	userInfo := url.User(db.LegacyUser)
	if db.LegacyPassword != "" {
		userInfo = url.UserPassword(db.LegacyUser, db.LegacyPassword)
	}

	u := &url.URL{
		Scheme: "postgres",
		User:   userInfo,
		Host:   fmt.Sprintf("%s:%d", db.LegacyHost, db.LegacyPort),
		Path:   db.LegacyName,
	}

	if db.LegacySSLMode != "" {
		q := u.Query()
		q.Set("sslmode", db.LegacySSLMode)
		u.RawQuery = q.Encode()
	}

	db.DSN = u.String()
	return nil
}
