package config

// EnvPrefix is passed to envconfig.Process; the struct tags carry the full
// variable names so the prefix stays empty.
const EnvPrefix = ""

const (
	AppEnvDev  = "development"
	AppEnvProd = "production"
)

const (
	EnvAppEnv = "CARTSYNC_APP_ENV"
	EnvDBDSN  = "CARTSYNC_DB_DSN"
	EnvDBHost = "CARTSYNC_DB_HOST"
	EnvDBUser = "CARTSYNC_DB_USER"
	EnvDBName = "CARTSYNC_DB_NAME"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
