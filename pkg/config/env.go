package config

const EnvPrefix = "STOREFRONT"

const (
	AppEnvDev  = "dev"
	AppEnvProd = "prod"
)

const (
	NotificationDriverLog    = "log"
	NotificationDriverSMTP   = "smtp"
	NotificationDriverPubSub = "pubsub"
)

const (
	EnvAppEnv       = "STOREFRONT_APP_ENV"
	EnvPort         = "STOREFRONT_APP_PORT"
	EnvLogLevel     = "STOREFRONT_LOG_LEVEL"
	EnvLogFormat    = "STOREFRONT_LOG_FORMAT"
	EnvDBDSN        = "STOREFRONT_DB_DSN"
	EnvDBHost       = "STOREFRONT_DB_HOST"
	EnvDBUser       = "STOREFRONT_DB_USER"
	EnvDBName       = "STOREFRONT_DB_NAME"
	EnvDBPassword   = "STOREFRONT_DB_PASSWORD"
	EnvUseSQLite    = "STOREFRONT_USE_SQLITE"
	EnvRedisURL     = "STOREFRONT_REDIS_URL"
	EnvJWTSecret    = "STOREFRONT_JWT_SECRET"
	EnvJWTIssuer    = "STOREFRONT_JWT_ISSUER"
	EnvJWTExpMins   = "STOREFRONT_JWT_EXPIRATION_MINUTES"
	EnvNotifyDriver = "STOREFRONT_NOTIFICATIONS_DRIVER"
	EnvSMTPHost     = "STOREFRONT_SMTP_HOST"
	EnvGCPProjectID = "STOREFRONT_GCP_PROJECT_ID"

	EnvRefreshTokenTTLMinutes = "STOREFRONT_REFRESH_TOKEN_TTL_MINUTES"
)

var dsnPartEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
