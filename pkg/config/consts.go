package config

// EnvPrefix is intentionally empty: every variable carries the full
// SERENADE_ name in its envconfig tag.
const EnvPrefix = ""

const (
	AppEnvDev  = "development"
	AppEnvProd = "production"
)

const (
	EnvAppEnv  = "SERENADE_APP_ENV"
	EnvDBDSN   = "SERENADE_DB_DSN"
	EnvDBHost  = "SERENADE_DB_HOST"
	EnvDBUser  = "SERENADE_DB_USER"
	EnvDBName  = "SERENADE_DB_NAME"
)

// fallbackDBEnvVars are required when no DSN is provided directly.
var fallbackDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
