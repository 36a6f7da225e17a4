package config

const (
	EnvPrefix = "WISHBRIDGE"

	AppEnvDev  = "dev"
	AppEnvProd = "prod"

	EnvAppEnv   = "WISHBRIDGE_APP_ENV"
	EnvPort     = "WISHBRIDGE_APP_PORT"
	EnvDBDSN    = "WISHBRIDGE_DB_DSN"
	EnvDBHost   = "WISHBRIDGE_DB_HOST"
	EnvDBUser   = "WISHBRIDGE_DB_USER"
	EnvDBName   = "WISHBRIDGE_DB_NAME"
	EnvRedisURL = "WISHBRIDGE_REDIS_URL"

	EnvJWTSecret              = "WISHBRIDGE_JWT_SECRET"
	EnvJWTIssuer              = "WISHBRIDGE_JWT_ISSUER"
	EnvJWTExpMins             = "WISHBRIDGE_JWT_EXPIRATION_MINUTES"
	EnvRefreshTokenTTLMinutes = "WISHBRIDGE_REFRESH_TOKEN_TTL_MINUTES"
	EnvOTPTTL                 = "WISHBRIDGE_OTP_TTL"

	EnvGCPProjectID = "WISHBRIDGE_GCP_PROJECT_ID"
	EnvGCSBucket    = "WISHBRIDGE_GCS_BUCKET_NAME"

	EnvPubSubBidsTopic         = "WISHBRIDGE_PUBSUB_BIDS_TOPIC"
	EnvPubSubBidsSub           = "WISHBRIDGE_PUBSUB_BIDS_SUBSCRIPTION"
	EnvPubSubNotificationTopic = "WISHBRIDGE_PUBSUB_NOTIFICATION_TOPIC"
	EnvCORSAllowedOrigins      = "WISHBRIDGE_CORS_ALLOWED_ORIGINS"
)

var discreteDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
