package config

// EnvPrefix is passed to envconfig; individual fields carry full names.
const EnvPrefix = "MOVAKID"

const (
	AppEnvDev  = "dev"
	AppEnvProd = "production"
)

const (
	EnvAppEnv   = "MOVAKID_APP_ENV"
	EnvPort     = "MOVAKID_APP_PORT"
	EnvDBDSN    = "MOVAKID_DB_DSN"
	EnvDBHost   = "MOVAKID_DB_HOST"
	EnvDBUser   = "MOVAKID_DB_USER"
	EnvDBName   = "MOVAKID_DB_NAME"
	EnvRedisURL = "MOVAKID_REDIS_URL"
	EnvJWTSecret = "MOVAKID_JWT_SECRET"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
