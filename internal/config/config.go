package config

import (
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	App      AppConfig      `mapstructure:"app"`
	Log      LogConfig      `mapstructure:"log"`
	DB       DBConfig       `mapstructure:"db"`
	Docker   DockerConfig   `mapstructure:"docker"`
	Image    ImageConfig    `mapstructure:"image"`
	Strategy StrategyConfig `mapstructure:"strategy"`
	Exchange ExchangeConfig `mapstructure:"exchange"`
	Cache    CacheConfig    `mapstructure:"cache"`
	Server   ServerConfig   `mapstructure:"server"`
	Auth     AuthConfig     `mapstructure:"auth"`
	Cron     CronConfig     `mapstructure:"cron"`
	Audit    AuditConfig    `mapstructure:"audit"`
	IPC      IPCConfig      `mapstructure:"ipc"`
}

type AppConfig struct {
	Env string `mapstructure:"env"`
}

type LogConfig struct {
	Level             string `mapstructure:"level"`
	Encoding          string `mapstructure:"encoding"`
	Development       bool   `mapstructure:"development"`
	DisableCaller     bool   `mapstructure:"disable_caller"`
	DisableStacktrace bool   `mapstructure:"disable_stacktrace"`
	// File enables a rotating log file next to the stderr stream.
	File       string `mapstructure:"file"`
	MaxSizeMB  int    `mapstructure:"max_size_mb"`
	MaxBackups int    `mapstructure:"max_backups"`
	MaxAgeDays int    `mapstructure:"max_age_days"`
}

type DBConfig struct {
	// Driver is sqlite or postgres.
	Driver          string        `mapstructure:"driver"`
	DSN             string        `mapstructure:"dsn"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
	BusyTimeout     time.Duration `mapstructure:"busy_timeout"`
}

type DockerConfig struct {
	Host        string        `mapstructure:"host"`
	StopTimeout time.Duration `mapstructure:"stop_timeout"`
}

type ImageConfig struct {
	Repository     string        `mapstructure:"repository"`
	Tag            string        `mapstructure:"tag"`
	Pull           bool          `mapstructure:"pull"`
	MaxAttempts    int           `mapstructure:"max_attempts"`
	InitialBackoff time.Duration `mapstructure:"initial_backoff"`
	ProbeURL       string        `mapstructure:"probe_url"`
	ProbeTimeout   time.Duration `mapstructure:"probe_timeout"`
}

type StrategyConfig struct {
	FilesDir        string `mapstructure:"files_dir"`
	ConfigFileName  string `mapstructure:"config_file_name"`
	ContainerPrefix string `mapstructure:"container_prefix"`
	MountPath       string `mapstructure:"mount_path"`
	ConfigPassword  string `mapstructure:"config_password"`
	LogTail         int    `mapstructure:"log_tail"`
}

type ExchangeConfig struct {
	Timeout    time.Duration `mapstructure:"timeout"`
	CatalogTTL time.Duration `mapstructure:"catalog_ttl"`
	// BaseURLs overrides the public REST host per exchange id.
	BaseURLs map[string]string `mapstructure:"base_urls"`
}

type CacheConfig struct {
	Backend       string `mapstructure:"backend"`
	RedisAddr     string `mapstructure:"redis_addr"`
	RedisPassword string `mapstructure:"redis_password"`
	RedisDB       int    `mapstructure:"redis_db"`
}

type ServerConfig struct {
	HTTPAddr string `mapstructure:"http_addr"`
}

type AuthConfig struct {
	JWTSecret string        `mapstructure:"jwt_secret"`
	TokenTTL  time.Duration `mapstructure:"token_ttl"`
}

type CronConfig struct {
	Enabled    bool   `mapstructure:"enabled"`
	Reconcile  string `mapstructure:"reconcile"`
	AuditPrune string `mapstructure:"audit_prune"`
}

type AuditConfig struct {
	Agent      string        `mapstructure:"agent"`
	PaaSBase   string        `mapstructure:"paas_base"`
	PaaSAPIKey string        `mapstructure:"paas_api_key"`
	WebhookURL string        `mapstructure:"webhook_url"`
	Timeout    time.Duration `mapstructure:"timeout"`
	// Retention prunes stored events older than this; zero keeps them.
	Retention time.Duration `mapstructure:"retention"`
}

type IPCConfig struct {
	ReadySentinel string `mapstructure:"ready_sentinel"`
	MaxLineBytes  int    `mapstructure:"max_line_bytes"`
}

func Load(path string, envOnly bool) (Config, error) {
	v := viper.New()
	v.SetEnvPrefix("CG")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	v.AutomaticEnv()
	setDefaults(v)

	if !envOnly {
		if err := v.ReadInConfig(); err != nil {
			return Config{}, err
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("app.env", "dev")

	v.SetDefault("log.level", "info")
	v.SetDefault("log.encoding", "console")
	v.SetDefault("log.development", false)
	v.SetDefault("log.disable_caller", false)
	v.SetDefault("log.disable_stacktrace", true)
	v.SetDefault("log.file", "")
	v.SetDefault("log.max_size_mb", 10)
	v.SetDefault("log.max_backups", 5)
	v.SetDefault("log.max_age_days", 14)

	v.SetDefault("db.driver", "sqlite")
	v.SetDefault("db.dsn", "data/crypto_grid.db")
	v.SetDefault("db.max_open_conns", 4)
	v.SetDefault("db.max_idle_conns", 2)
	v.SetDefault("db.conn_max_lifetime", "30m")
	v.SetDefault("db.busy_timeout", "5s")

	v.SetDefault("docker.host", "")
	v.SetDefault("docker.stop_timeout", "10s")

	v.SetDefault("image.repository", "hummingbot/hummingbot")
	v.SetDefault("image.tag", "latest")
	v.SetDefault("image.pull", false)
	v.SetDefault("image.max_attempts", 3)
	v.SetDefault("image.initial_backoff", "2s")
	v.SetDefault("image.probe_url", "https://hub.docker.com")
	v.SetDefault("image.probe_timeout", "5s")

	v.SetDefault("strategy.files_dir", "strategy_files")
	v.SetDefault("strategy.config_file_name", "conf_grid.yml")
	v.SetDefault("strategy.container_prefix", "hummingbot_")
	v.SetDefault("strategy.mount_path", "/conf")
	v.SetDefault("strategy.config_password", "")
	v.SetDefault("strategy.log_tail", 20)

	v.SetDefault("exchange.timeout", "15s")
	v.SetDefault("exchange.catalog_ttl", "10m")

	v.SetDefault("cache.backend", "memory")
	v.SetDefault("cache.redis_addr", "")
	v.SetDefault("cache.redis_db", 0)

	v.SetDefault("server.http_addr", "127.0.0.1:8090")

	v.SetDefault("auth.jwt_secret", "")
	v.SetDefault("auth.token_ttl", "24h")

	v.SetDefault("cron.enabled", true)
	v.SetDefault("cron.reconcile", "@every 30s")
	v.SetDefault("cron.audit_prune", "@every 6h")

	v.SetDefault("audit.agent", "cryptogrid-engine")
	v.SetDefault("audit.timeout", "2s")
	v.SetDefault("audit.retention", "720h")

	v.SetDefault("ipc.ready_sentinel", "IPC_READY")
	v.SetDefault("ipc.max_line_bytes", 4<<20)
}
