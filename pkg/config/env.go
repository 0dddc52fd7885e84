package config

// EnvPrefix is handed to envconfig; every field carries an explicit name so the
// prefix only matters for fields without a tag.
const EnvPrefix = "CROPMARKET"

const (
	AppEnvDev  = "dev"
	AppEnvProd = "prod"
)

const (
	LocalDriverBolt  = "bolt"
	LocalDriverRedis = "redis"

	RemoteDriverPostgres  = "postgres"
	RemoteDriverSQLite    = "sqlite"
	RemoteDriverFirestore = "firestore"
	RemoteDriverNone      = "none"

	AuthProviderJWT      = "jwt"
	AuthProviderFirebase = "firebase"
)

const (
	EnvAppEnv = "CROPMARKET_APP_ENV"
	EnvPort   = "CROPMARKET_APP_PORT"

	EnvDBDSN  = "CROPMARKET_DB_DSN"
	EnvDBHost = "CROPMARKET_DB_HOST"
	EnvDBUser = "CROPMARKET_DB_USER"
	EnvDBName = "CROPMARKET_DB_NAME"

	EnvRedisURL  = "CROPMARKET_REDIS_URL"
	EnvRedisAddr = "CROPMARKET_REDIS_ADDR"

	EnvFirestoreProjectID = "CROPMARKET_FIRESTORE_PROJECT_ID"

	EnvAuthProvider = "CROPMARKET_AUTH_PROVIDER"
	EnvJWTSecret    = "CROPMARKET_JWT_SECRET"

	EnvCartLocalDriver   = "CROPMARKET_CART_LOCAL_DRIVER"
	EnvCartBoltPath      = "CROPMARKET_CART_BOLT_PATH"
	EnvCartRemoteDriver  = "CROPMARKET_CART_REMOTE_DRIVER"
	EnvCartClearAttempts = "CROPMARKET_CART_CLEAR_ATTEMPTS"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
