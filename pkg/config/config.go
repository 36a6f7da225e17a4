package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	App           AppConfig
	Service       ServiceConfig
	DB            DBConfig
	Redis         RedisConfig
	JWT           JWTConfig
	Password      PasswordConfig
	OTP           OTPConfig
	AuthRateLimit AuthRateLimitConfig
	FeatureFlags  FeatureFlagsConfig
	Eventing      EventingConfig
	CORS          CORSConfig
	GCP           GCPConfig
	GCS           GCSConfig
	PubSub        PubSubConfig
	Outbox        OutboxConfig
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
	Env          string `envconfig:"WISHBRIDGE_APP_ENV" required:"true"`
	Port         string `envconfig:"WISHBRIDGE_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"WISHBRIDGE_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"WISHBRIDGE_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type ServiceConfig struct {
	Kind string `envconfig:"WISHBRIDGE_SERVICE_KIND" default:"api"`
}

type DBConfig struct {
	DSN string `envconfig:"WISHBRIDGE_DB_DSN"`

	Host     string `envconfig:"WISHBRIDGE_DB_HOST"`
	Port     int    `envconfig:"WISHBRIDGE_DB_PORT" default:"5432"`
	User     string `envconfig:"WISHBRIDGE_DB_USER"`
	Password string `envconfig:"WISHBRIDGE_DB_PASSWORD"`
	Name     string `envconfig:"WISHBRIDGE_DB_NAME"`
	SSLMode  string `envconfig:"WISHBRIDGE_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"WISHBRIDGE_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"WISHBRIDGE_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"WISHBRIDGE_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"WISHBRIDGE_DB_CONN_MAX_IDLE_TIME" default:"10m"`

	SlowQueryThreshold time.Duration `envconfig:"WISHBRIDGE_DB_SLOW_QUERY_THRESHOLD" default:"500ms"`
	ConnectAttempts    int           `envconfig:"WISHBRIDGE_DB_CONNECT_ATTEMPTS" default:"5"`
}

type RedisConfig struct {
	URL          string        `envconfig:"WISHBRIDGE_REDIS_URL" required:"true"`
	Address      string        `envconfig:"WISHBRIDGE_REDIS_ADDR"`
	Password     string        `envconfig:"WISHBRIDGE_REDIS_PASSWORD"`
	DB           int           `envconfig:"WISHBRIDGE_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"WISHBRIDGE_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"WISHBRIDGE_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"WISHBRIDGE_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"WISHBRIDGE_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"WISHBRIDGE_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type JWTConfig struct {
	Secret                 string `envconfig:"WISHBRIDGE_JWT_SECRET" required:"true"`
	Issuer                 string `envconfig:"WISHBRIDGE_JWT_ISSUER" required:"true"`
	ExpirationMinutes      int    `envconfig:"WISHBRIDGE_JWT_EXPIRATION_MINUTES" default:"60"`
	RefreshTokenTTLMinutes int    `envconfig:"WISHBRIDGE_REFRESH_TOKEN_TTL_MINUTES" default:"43200"`
}

// AccessTokenTTL returns the access token lifetime.
func (j JWTConfig) AccessTokenTTL() time.Duration {
	if j.ExpirationMinutes <= 0 {
		return time.Hour
	}
	return time.Duration(j.ExpirationMinutes) * time.Minute
}

// RefreshTokenTTL returns the refresh token TTL configured in minutes.
func (j JWTConfig) RefreshTokenTTL() time.Duration {
	if j.RefreshTokenTTLMinutes <= 0 {
		return 0
	}
	return time.Duration(j.RefreshTokenTTLMinutes) * time.Minute
}

type PasswordConfig struct {
	ArgonMemoryKB    int `envconfig:"WISHBRIDGE_ARGON_MEMORY_KB" default:"65536"`
	ArgonTime        int `envconfig:"WISHBRIDGE_ARGON_TIME" default:"3"`
	ArgonParallelism int `envconfig:"WISHBRIDGE_ARGON_PARALLELISM" default:"2"`
	ArgonSaltLen     int `envconfig:"WISHBRIDGE_ARGON_SALT_LEN" default:"16"`
	ArgonKeyLen      int `envconfig:"WISHBRIDGE_ARGON_KEY_LEN" default:"32"`
}

// OTPConfig controls the email one-time codes used during signup.
type OTPConfig struct {
	Length         int           `envconfig:"WISHBRIDGE_OTP_LENGTH" default:"6"`
	TTL            time.Duration `envconfig:"WISHBRIDGE_OTP_TTL" default:"15m"`
	MaxAttempts    int           `envconfig:"WISHBRIDGE_OTP_MAX_ATTEMPTS" default:"5"`
	ResendCooldown time.Duration `envconfig:"WISHBRIDGE_OTP_RESEND_COOLDOWN" default:"30s"`
}

// TTLDuration returns the pending signup lifetime, never zero.
func (o OTPConfig) TTLDuration() time.Duration {
	if o.TTL <= 0 {
		return 15 * time.Minute
	}
	return o.TTL
}

type AuthRateLimitConfig struct {
	LoginWindow      time.Duration `envconfig:"WISHBRIDGE_AUTH_RATE_LIMIT_LOGIN_WINDOW" default:"1m"`
	LoginEmailLimit  int           `envconfig:"WISHBRIDGE_AUTH_RATE_LIMIT_LOGIN_EMAIL_LIMIT" default:"5"`
	LoginIPLimit     int           `envconfig:"WISHBRIDGE_AUTH_RATE_LIMIT_LOGIN_IP_LIMIT" default:"20"`
	SignupWindow     time.Duration `envconfig:"WISHBRIDGE_AUTH_RATE_LIMIT_SIGNUP_WINDOW" default:"5m"`
	SignupEmailLimit int           `envconfig:"WISHBRIDGE_AUTH_RATE_LIMIT_SIGNUP_EMAIL_LIMIT" default:"3"`
	SignupIPLimit    int           `envconfig:"WISHBRIDGE_AUTH_RATE_LIMIT_SIGNUP_IP_LIMIT" default:"20"`
}

type FeatureFlagsConfig struct {
	AutoMigrate bool `envconfig:"WISHBRIDGE_AUTO_MIGRATE" default:"false"`
	Metrics     bool `envconfig:"WISHBRIDGE_FEATURE_METRICS" default:"true"`
}

type EventingConfig struct {
	IdempotencyTTL time.Duration `envconfig:"WISHBRIDGE_IDEMPOTENCY_TTL" default:"24h"`
}

type CORSConfig struct {
	AllowedOrigins []string `envconfig:"WISHBRIDGE_CORS_ALLOWED_ORIGINS" default:"*"`
}

type GCPConfig struct {
	ProjectID              string `envconfig:"WISHBRIDGE_GCP_PROJECT_ID" required:"true"`
	CredentialsJSON        string `envconfig:"WISHBRIDGE_GCP_CREDENTIALS_JSON"`
	ApplicationCredentials string `envconfig:"WISHBRIDGE_GOOGLE_APPLICATION_CREDENTIALS"`
}

type GCSConfig struct {
	BucketName     string `envconfig:"WISHBRIDGE_GCS_BUCKET_NAME" required:"true"`
	MaxUploadBytes int64  `envconfig:"WISHBRIDGE_GCS_MAX_UPLOAD_BYTES" default:"5242880"`
}

type PubSubConfig struct {
	BidsTopic                string `envconfig:"WISHBRIDGE_PUBSUB_BIDS_TOPIC" required:"true"`
	BidsSubscription         string `envconfig:"WISHBRIDGE_PUBSUB_BIDS_SUBSCRIPTION"`
	NotificationTopic        string `envconfig:"WISHBRIDGE_PUBSUB_NOTIFICATION_TOPIC" default:"wb-notification-events"`
	NotificationSubscription string `envconfig:"WISHBRIDGE_PUBSUB_NOTIFICATION_SUBSCRIPTION"`
}

type OutboxConfig struct {
	BatchSize      int `envconfig:"WISHBRIDGE_OUTBOX_PUBLISH_BATCH_SIZE" default:"50"`
	PollIntervalMS int `envconfig:"WISHBRIDGE_OUTBOX_PUBLISH_POLL_MS" default:"500"`
	MaxAttempts    int `envconfig:"WISHBRIDGE_OUTBOX_MAX_ATTEMPTS" default:"10"`
}

func (db *DBConfig) ensureDSN() error {
	if db.DSN != "" {
		return nil
	}

	missing := []string{}
	values := map[string]string{
		EnvDBHost: db.Host,
		EnvDBUser: db.User,
		EnvDBName: db.Name,
	}
	for _, env := range discreteDBEnvVars {
		if values[env] == "" {
			missing = append(missing, env)
		}
	}

	if len(missing) > 0 {
		return fmt.Errorf("either %s or %s are required", EnvDBDSN, strings.Join(missing, ", "))
	}

	userInfo := url.User(db.User)
	if db.Password != "" {
		userInfo = url.UserPassword(db.User, db.Password)
	}

	u := &url.URL{
		Scheme: "postgres",
		User:   userInfo,
		Host:   fmt.Sprintf("%s:%d", db.Host, db.Port),
		Path:   db.Name,
	}

	if db.SSLMode != "" {
		q := u.Query()
		q.Set("sslmode", db.SSLMode)
		u.RawQuery = q.Encode()
	}

	db.DSN = u.String()
	return nil
}
