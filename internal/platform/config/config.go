package config

import (
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Database  DatabaseConfig  `mapstructure:"database"`
	JWT       JWTConfig       `mapstructure:"jwt"`
	Admin     AdminConfig     `mapstructure:"admin"`
	RateLimit RateLimitConfig `mapstructure:"rate_limit"`
	Recorder  RecorderConfig  `mapstructure:"recorder"`
	Retention RetentionConfig `mapstructure:"retention"`
	Logging   LoggingConfig   `mapstructure:"logging"`
}

type ServerConfig struct {
	Host         string        `mapstructure:"host"`
	Port         int           `mapstructure:"port"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	IdleTimeout  time.Duration `mapstructure:"idle_timeout"`

	// TrustedProxies lists IPs or CIDRs allowed to set X-Forwarded-For.
	TrustedProxies []string `mapstructure:"trusted_proxies"`
}

type DatabaseConfig struct {
	URL            string `mapstructure:"url"`
	MaxConnections int    `mapstructure:"max_connections"`
	MigrationsDir  string `mapstructure:"migrations_dir"`
}

type JWTConfig struct {
	Secret         string        `mapstructure:"secret"`
	AccessTokenTTL time.Duration `mapstructure:"access_token_ttl"`
}

// AdminConfig holds the single operator account. PasswordHash is a bcrypt hash.
type AdminConfig struct {
	Email        string `mapstructure:"email"`
	PasswordHash string `mapstructure:"password_hash"`
}

type RateLimitConfig struct {
	ClassifyPerMinute int           `mapstructure:"classify_per_minute"`
	IngestPerMinute   int           `mapstructure:"ingest_per_minute"`
	APIPerMinute      int           `mapstructure:"api_per_minute"`
	APIKeyCacheTTL    time.Duration `mapstructure:"api_key_cache_ttl"`
}

type RecorderConfig struct {
	WorkerCount int `mapstructure:"worker_count"`
	QueueSize   int `mapstructure:"queue_size"`
}

type RetentionConfig struct {
	SnapshotDays int `mapstructure:"snapshot_days"`
}

type LoggingConfig struct {
	Level    string `mapstructure:"level"`
	Format   string `mapstructure:"format"`
	Output   string `mapstructure:"output"`
	FilePath string `mapstructure:"file_path"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.read_timeout", 5*time.Second)
	v.SetDefault("server.write_timeout", 10*time.Second)
	v.SetDefault("server.idle_timeout", 60*time.Second)
	v.SetDefault("server.trusted_proxies", []string{})
	v.SetDefault("database.url", "file:data/knowyourclient.db")
	v.SetDefault("database.max_connections", 1)
	v.SetDefault("database.migrations_dir", "migrations")
	v.SetDefault("jwt.access_token_ttl", 15*time.Minute)
	v.SetDefault("rate_limit.classify_per_minute", 600)
	v.SetDefault("rate_limit.ingest_per_minute", 6000)
	v.SetDefault("rate_limit.api_per_minute", 300)
	v.SetDefault("rate_limit.api_key_cache_ttl", 5*time.Minute)
	v.SetDefault("recorder.worker_count", 4)
	v.SetDefault("recorder.queue_size", 1024)
	v.SetDefault("retention.snapshot_days", 90)
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")
	v.SetDefault("logging.output", "stdout")
}

func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetConfigFile(path)
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if err := v.ReadInConfig(); err != nil {
		return nil, err
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, err
	}

	return &config, nil
}
