package config

const EnvPrefix = "MEDICARE"

const (
	AppEnvDev  = "dev"
	AppEnvProd = "prod"
)

const (
	RemoteDriverNone     = "none"
	RemoteDriverRedis    = "redis"
	RemoteDriverPostgres = "postgres"
	RemoteDriverSQLite   = "sqlite"
)

const (
	EnvAppEnv        = "MEDICARE_APP_ENV"
	EnvPort          = "MEDICARE_APP_PORT"
	EnvLocalPath     = "MEDICARE_LOCAL_PATH"
	EnvRemoteDriver  = "MEDICARE_REMOTE_DRIVER"
	EnvRemoteDSN     = "MEDICARE_REMOTE_DSN"
	EnvRedisURL      = "MEDICARE_REDIS_URL"
	EnvPollInterval  = "MEDICARE_SYNC_POLL_INTERVAL"
	EnvRemoteTimeout = "MEDICARE_SYNC_REMOTE_TIMEOUT"
	EnvPushEnabled   = "MEDICARE_PUSH_ENABLED"
	EnvGCPProjectID  = "MEDICARE_GCP_PROJECT_ID"
)
