package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	App       AppConfig
	DB        DBConfig
	Redis     RedisConfig
	Firestore FirestoreConfig
	Auth      AuthConfig
	JWT       JWTConfig
	Cart      CartConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.Cart.validate(); err != nil {
		return nil, err
	}
	if cfg.Cart.RemoteDriver == RemoteDriverPostgres {
		if err := cfg.DB.ensureDSN(); err != nil {
			return nil, err
		}
	}
	if cfg.Cart.RemoteDriver == RemoteDriverFirestore && cfg.Firestore.ProjectID == "" {
		return nil, fmt.Errorf("%s is required when %s=%s", EnvFirestoreProjectID, EnvCartRemoteDriver, RemoteDriverFirestore)
	}
	if cfg.Cart.LocalDriver == LocalDriverRedis && cfg.Redis.URL == "" && cfg.Redis.Address == "" {
		return nil, fmt.Errorf("either %s or %s is required when %s=%s", EnvRedisURL, EnvRedisAddr, EnvCartLocalDriver, LocalDriverRedis)
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"CROPMARKET_APP_ENV" default:"dev"`
	Port         string `envconfig:"CROPMARKET_APP_PORT" default:"8080"`
	LogLevel     string `envconfig:"CROPMARKET_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"CROPMARKET_LOG_WARN_STACK" default:"false"`
	AutoMigrate  bool   `envconfig:"CROPMARKET_AUTO_MIGRATE" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type DBConfig struct {
	DSN    string `envconfig:"CROPMARKET_DB_DSN"`
	Driver string `envconfig:"CROPMARKET_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"CROPMARKET_DB_HOST"`
	LegacyPort     int    `envconfig:"CROPMARKET_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"CROPMARKET_DB_USER"`
	LegacyPassword string `envconfig:"CROPMARKET_DB_PASSWORD"`
	LegacyName     string `envconfig:"CROPMARKET_DB_NAME"`
	LegacySSLMode  string `envconfig:"CROPMARKET_DB_SSLMODE" default:"disable"`

	SQLitePath string `envconfig:"CROPMARKET_DB_SQLITE_PATH" default:"cropmarket.sqlite"`

	MaxOpenConns    int           `envconfig:"CROPMARKET_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"CROPMARKET_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"CROPMARKET_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"CROPMARKET_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"CROPMARKET_REDIS_URL"`
	Address      string        `envconfig:"CROPMARKET_REDIS_ADDR"`
	Password     string        `envconfig:"CROPMARKET_REDIS_PASSWORD"`
	DB           int           `envconfig:"CROPMARKET_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"CROPMARKET_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"CROPMARKET_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"CROPMARKET_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"CROPMARKET_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"CROPMARKET_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type FirestoreConfig struct {
	ProjectID        string `envconfig:"CROPMARKET_FIRESTORE_PROJECT_ID"`
	CredentialsFile  string `envconfig:"CROPMARKET_FIRESTORE_CREDENTIALS_FILE"`
	UsersCollection  string `envconfig:"CROPMARKET_FIRESTORE_USERS_COLLECTION" default:"users"`
	OrdersCollection string `envconfig:"CROPMARKET_FIRESTORE_ORDERS_COLLECTION" default:"orders"`
}

type AuthConfig struct {
	// Provider selects how bearer tokens are verified: jwt or firebase.
	Provider string `envconfig:"CROPMARKET_AUTH_PROVIDER" default:"jwt"`
}

type JWTConfig struct {
	Secret            string `envconfig:"CROPMARKET_JWT_SECRET"`
	Issuer            string `envconfig:"CROPMARKET_JWT_ISSUER" default:"cropmarket"`
	ExpirationMinutes int    `envconfig:"CROPMARKET_JWT_EXPIRATION_MINUTES" default:"60"`
}

type CartConfig struct {
	LocalDriver  string        `envconfig:"CROPMARKET_CART_LOCAL_DRIVER" default:"bolt"`
	BoltPath     string        `envconfig:"CROPMARKET_CART_BOLT_PATH" default:"cart.db"`
	RedisTTL     time.Duration `envconfig:"CROPMARKET_CART_REDIS_TTL" default:"0"`
	RemoteDriver string        `envconfig:"CROPMARKET_CART_REMOTE_DRIVER" default:"sqlite"`

	RemoteTimeout time.Duration `envconfig:"CROPMARKET_CART_REMOTE_TIMEOUT" default:"10s"`
	ClearAttempts int           `envconfig:"CROPMARKET_CART_CLEAR_ATTEMPTS" default:"3"`
	ClearBackoff  time.Duration `envconfig:"CROPMARKET_CART_CLEAR_BACKOFF" default:"500ms"`

	BreakerFailures uint32        `envconfig:"CROPMARKET_CART_BREAKER_FAILURES" default:"5"`
	BreakerTimeout  time.Duration `envconfig:"CROPMARKET_CART_BREAKER_TIMEOUT" default:"30s"`
}

func (c CartConfig) validate() error {
	switch c.LocalDriver {
	case LocalDriverBolt, LocalDriverRedis:
	default:
		return fmt.Errorf("invalid %s %q", EnvCartLocalDriver, c.LocalDriver)
	}
	switch c.RemoteDriver {
	case RemoteDriverPostgres, RemoteDriverSQLite, RemoteDriverFirestore, RemoteDriverNone:
	default:
		return fmt.Errorf("invalid %s %q", EnvCartRemoteDriver, c.RemoteDriver)
	}
	if c.ClearAttempts < 1 {
		return fmt.Errorf("%s must be at least 1", EnvCartClearAttempts)
	}
	return nil
}

// UsesSQL reports whether the remote user store is backed by GORM.
func (c CartConfig) UsesSQL() bool {
	return c.RemoteDriver == RemoteDriverPostgres || c.RemoteDriver == RemoteDriverSQLite
}

func (db *DBConfig) ensureDSN() error {
	if db.DSN != "" {
		return nil
	}

	missing := []string{}
	legacyValues := map[string]string{
		EnvDBHost: db.LegacyHost,
		EnvDBUser: db.LegacyUser,
		EnvDBName: db.LegacyName,
	}
	for _, env := range legacyDBEnvVars {
		if legacyValues[env] == "" {
			missing = append(missing, env)
		}
	}

	if len(missing) > 0 {
		return fmt.Errorf("either %s or %s are required", EnvDBDSN, strings.Join(missing, ", "))
	}

	userInfo := url.User(db.LegacyUser)
	if db.LegacyPassword != "" {
		userInfo = url.UserPassword(db.LegacyUser, db.LegacyPassword)
	}

	u := &url.URL{
		Scheme: "postgres",
		User:   userInfo,
		Host:   fmt.Sprintf("%s:%d", db.LegacyHost, db.LegacyPort),
		Path:   db.LegacyName,
	}

	if db.LegacySSLMode != "" {
		q := u.Query()
		q.Set("sslmode", db.LegacySSLMode)
		u.RawQuery = q.Encode()
	}

	db.DSN = u.String()
	return nil
}

// SQLDriver picks the GORM driver: the cart's remote driver when it is SQL
// backed, otherwise the standalone DB driver setting.
func (c *Config) SQLDriver() string {
	if c.Cart.UsesSQL() {
		return c.Cart.RemoteDriver
	}
	return c.DB.Driver
}
