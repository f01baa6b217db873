package config

// EnvPrefix is applied by envconfig; individual fields carry fully-qualified
// names, so the prefix stays empty.
const EnvPrefix = ""

const (
	AppEnvDev  = "dev"
	AppEnvProd = "prod"
)

const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"

	SQLiteMemoryDSN = "file::memory:?cache=shared"
)

const (
	EnvDBDSN  = "ESFIHA_DB_DSN"
	EnvDBHost = "ESFIHA_DB_HOST"
	EnvDBUser = "ESFIHA_DB_USER"
	EnvDBName = "ESFIHA_DB_NAME"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
