package config

// EnvPrefix is passed to envconfig; individual fields carry fully
// prefixed names so the prefix stays empty here.
const EnvPrefix = ""

const (
	AppEnvDev  = "dev"
	AppEnvProd = "prod"
)

const (
	EnvDBDSN  = "TRADEPOST_DB_DSN"
	EnvDBHost = "TRADEPOST_DB_HOST"
	EnvDBUser = "TRADEPOST_DB_USER"
	EnvDBName = "TRADEPOST_DB_NAME"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
