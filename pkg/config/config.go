package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	App          AppConfig
	Local        LocalConfig
	Remote       RemoteConfig
	DB           DBConfig
	Redis        RedisConfig
	Sync         SyncConfig
	Admin        AdminConfig
	Messaging    MessagingConfig
	Push         PushConfig
	Shell        ShellConfig
	AuthLimit    AuthRateLimitConfig
	FeatureFlags FeatureFlagsConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.Remote.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string   `envconfig:"MEDICARE_APP_ENV" required:"true"`
	Port         string   `envconfig:"MEDICARE_APP_PORT" default:"8080"`
	LogLevel     string   `envconfig:"MEDICARE_LOG_LEVEL" default:"info"`
	LogWarnStack bool     `envconfig:"MEDICARE_LOG_WARN_STACK" default:"false"`
	CORSOrigins  []string `envconfig:"MEDICARE_CORS_ORIGINS" default:"http://localhost:3000,http://localhost:8080"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

// LocalConfig points at the device-scoped cache file.
type LocalConfig struct {
	Path string `envconfig:"MEDICARE_LOCAL_PATH" default:"medicare-local.db"`
}

type RemoteConfig struct {
	Driver string `envconfig:"MEDICARE_REMOTE_DRIVER" default:"none"`
	DSN    string `envconfig:"MEDICARE_REMOTE_DSN"`
}

// Enabled reports whether a remote document store should be attempted.
func (r RemoteConfig) Enabled() bool {
	return r.NormalizedDriver() != RemoteDriverNone
}

// NormalizedDriver lowercases the driver and maps blanks to none.
func (r RemoteConfig) NormalizedDriver() string {
	driver := strings.ToLower(strings.TrimSpace(r.Driver))
	if driver == "" {
		return RemoteDriverNone
	}
	return driver
}

func (r RemoteConfig) validate() error {
	switch r.NormalizedDriver() {
	case RemoteDriverNone, RemoteDriverRedis:
		return nil
	case RemoteDriverPostgres, RemoteDriverSQLite:
		if strings.TrimSpace(r.DSN) == "" {
			return fmt.Errorf("%s is required for remote driver %q", EnvRemoteDSN, r.Driver)
		}
		return nil
	default:
		return fmt.Errorf("unsupported remote driver %q", r.Driver)
	}
}

type DBConfig struct {
	MaxOpenConns    int           `envconfig:"MEDICARE_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"MEDICARE_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"MEDICARE_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"MEDICARE_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"MEDICARE_REDIS_URL"`
	Address      string        `envconfig:"MEDICARE_REDIS_ADDR"`
	Password     string        `envconfig:"MEDICARE_REDIS_PASSWORD"`
	DB           int           `envconfig:"MEDICARE_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"MEDICARE_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"MEDICARE_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"MEDICARE_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"MEDICARE_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"MEDICARE_REDIS_WRITE_TIMEOUT" default:"5s"`
}

// Configured reports whether any redis endpoint was supplied.
func (r RedisConfig) Configured() bool {
	return strings.TrimSpace(r.URL) != "" || strings.TrimSpace(r.Address) != ""
}

type SyncConfig struct {
	RemoteTimeout   time.Duration `envconfig:"MEDICARE_SYNC_REMOTE_TIMEOUT" default:"5s"`
	PollInterval    time.Duration `envconfig:"MEDICARE_SYNC_POLL_INTERVAL" default:"2s"`
	BannerTTL       time.Duration `envconfig:"MEDICARE_SYNC_BANNER_TTL" default:"5s"`
	ChangefeedTopic string        `envconfig:"MEDICARE_SYNC_CHANGEFEED_CHANNEL" default:"mch:changefeed"`
	BridgeRedis     bool          `envconfig:"MEDICARE_SYNC_BRIDGE_REDIS" default:"false"`
}

type AdminConfig struct {
	Username string `envconfig:"MEDICARE_ADMIN_USERNAME" default:"admin"`
	Password string `envconfig:"MEDICARE_ADMIN_PASSWORD" default:"admin123"`
}

type MessagingConfig struct {
	Host string `envconfig:"MEDICARE_MESSAGING_HOST" default:"wa.me"`
}

type PushConfig struct {
	Enabled   bool   `envconfig:"MEDICARE_PUSH_ENABLED" default:"false"`
	ProjectID string `envconfig:"MEDICARE_GCP_PROJECT_ID"`
	Topic     string `envconfig:"MEDICARE_PUSH_TOPIC" default:"medicare-system-notifications"`
}

// Permitted mirrors the browser permission check: enabled and fully configured.
func (p PushConfig) Permitted() bool {
	return p.Enabled && strings.TrimSpace(p.ProjectID) != "" && strings.TrimSpace(p.Topic) != ""
}

type ShellConfig struct {
	AssetDir string   `envconfig:"MEDICARE_SHELL_ASSET_DIR"`
	Assets   []string `envconfig:"MEDICARE_SHELL_ASSETS" default:"/,/index.html,/css/styles.css,/js/app.js,/js/data.js,/pwa/manifest.json,/images/icon-192.png,/images/icon-512.png"`
	Origin   string   `envconfig:"MEDICARE_SHELL_ORIGIN"`
}

// AuthRateLimitConfig throttles login endpoints. The window limits apply when
// redis is configured; otherwise a per-IP token bucket is used.
type AuthRateLimitConfig struct {
	LoginWindow         time.Duration `envconfig:"MEDICARE_AUTH_LOGIN_WINDOW" default:"1m"`
	LoginIPLimit        int           `envconfig:"MEDICARE_AUTH_LOGIN_IP_LIMIT" default:"20"`
	LoginPrincipalLimit int           `envconfig:"MEDICARE_AUTH_LOGIN_PRINCIPAL_LIMIT" default:"5"`
	LoginPerMinute      int           `envconfig:"MEDICARE_AUTH_LOGIN_PER_MINUTE" default:"20"`
	LoginBurst          int           `envconfig:"MEDICARE_AUTH_LOGIN_BURST" default:"5"`
}

type FeatureFlagsConfig struct {
	AutoMigrate bool `envconfig:"MEDICARE_AUTO_MIGRATE" default:"true"`
	SeedData    bool `envconfig:"MEDICARE_SEED_DATA" default:"true"`
}
