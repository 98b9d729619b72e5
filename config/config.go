package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Env  string `mapstructure:"env"`
	Host string `mapstructure:"host"`
	Port string `mapstructure:"port"`

	MongoURI      string `mapstructure:"mongo_uri"`
	MongoDatabase string `mapstructure:"mongo_database"`

	RedisAddr     string `mapstructure:"redis_addr"`
	RedisPassword string `mapstructure:"redis_password"`
	RedisDB       int    `mapstructure:"redis_db"`

	SessionSecret string        `mapstructure:"session_secret"`
	SessionTTL    time.Duration `mapstructure:"session_ttl"`
	CookieSecure  bool          `mapstructure:"cookie_secure"`

	JWTSecret string        `mapstructure:"jwt_secret"`
	JWTExpiry time.Duration `mapstructure:"jwt_expiry"`

	AdminEmail    string `mapstructure:"admin_email"`
	AdminPassword string `mapstructure:"admin_password"`

	ResendAPIKey string `mapstructure:"resend_api_key"`
	FromEmail    string `mapstructure:"from_email"`
	ToEmail      string `mapstructure:"to_email"`
	AlertsTo     string `mapstructure:"alerts_to"`

	// SiteFile overrides the embedded site definition when set.
	SiteFile string `mapstructure:"site_file"`

	BaseURL      string `mapstructure:"base_url"`
	Phone        string `mapstructure:"phone"`
	ContactEmail string `mapstructure:"contact_email"`

	UploadDir       string        `mapstructure:"upload_dir"`
	MaxUploadMB     int64         `mapstructure:"max_upload_mb"`
	FFmpegPath      string        `mapstructure:"ffmpeg_path"`
	MediaWorkers    int           `mapstructure:"media_workers"`
	MediaQueue      int           `mapstructure:"media_queue"`
	MediaParallel   int           `mapstructure:"media_parallel"`
	MediaJobTimeout time.Duration `mapstructure:"media_job_timeout"`

	RateLimitPerMinute int           `mapstructure:"rate_limit_per_minute"`
	CacheTTL           time.Duration `mapstructure:"cache_ttl"`
}

// legacyEnv maps config keys to the environment names the site has always
// been deployed with.
var legacyEnv = map[string]string{
	"env":            "NODE_ENV",
	"mongo_uri":      "MONGODB_URI",
	"admin_email":    "ADMINEMAIL",
	"admin_password": "ADMINPASS",
	"max_upload_mb":  "MAX_UPLOAD_SIZE_MB",
	"contact_email":  "EMAIL",
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("env", "development")
	v.SetDefault("host", "0.0.0.0")
	v.SetDefault("port", "4000")
	v.SetDefault("mongo_uri", "mongodb://127.0.0.1:27017/gs-infra")
	v.SetDefault("mongo_database", "gs-infra")
	v.SetDefault("redis_addr", "localhost:6379")
	v.SetDefault("redis_password", "")
	v.SetDefault("redis_db", 0)
	v.SetDefault("session_secret", "")
	v.SetDefault("session_ttl", 24*time.Hour)
	v.SetDefault("cookie_secure", false)
	v.SetDefault("jwt_secret", "")
	v.SetDefault("jwt_expiry", 24*time.Hour)
	v.SetDefault("admin_email", "")
	v.SetDefault("admin_password", "")
	v.SetDefault("resend_api_key", "")
	v.SetDefault("from_email", "onboarding@resend.dev")
	v.SetDefault("to_email", "")
	v.SetDefault("alerts_to", "noreply@gsinfraandestates.com")
	v.SetDefault("site_file", "")
	v.SetDefault("base_url", "https://gsinfraandestates.com")
	v.SetDefault("phone", "+91-XXXXXXXXXX")
	v.SetDefault("contact_email", "info@gsinfraandestates.com")
	v.SetDefault("upload_dir", "public/uploads")
	v.SetDefault("max_upload_mb", 100)
	v.SetDefault("ffmpeg_path", "ffmpeg")
	v.SetDefault("media_workers", 2)
	v.SetDefault("media_queue", 64)
	v.SetDefault("media_parallel", 2)
	v.SetDefault("media_job_timeout", 30*time.Minute)
	v.SetDefault("rate_limit_per_minute", 100)
	v.SetDefault("cache_ttl", 5*time.Minute)
}

// Load reads defaults, then the optional config file, then the environment.
func Load(file string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	for key, env := range legacyEnv {
		if err := v.BindEnv(key, strings.ToUpper(key), env); err != nil {
			return nil, fmt.Errorf("binding env %s: %w", env, err)
		}
	}

	if file != "" {
		v.SetConfigFile(file)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("reading config file %s: %w", file, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decoding config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	if c.IsProduction() && c.SessionSecret == "" {
		return fmt.Errorf("SESSION_SECRET must be set in production")
	}
	if c.SessionSecret == "" {
		c.SessionSecret = "fallback-secret-change-now"
	}
	if c.JWTSecret == "" {
		c.JWTSecret = c.SessionSecret
	}
	if c.MediaWorkers < 1 {
		c.MediaWorkers = 1
	}
	if c.MediaParallel < 1 {
		c.MediaParallel = 1
	}
	if c.MaxUploadMB <= 0 {
		c.MaxUploadMB = 100
	}
	if c.ToEmail == "" {
		c.ToEmail = c.AdminEmail
	}
	c.BaseURL = strings.TrimRight(c.BaseURL, "/")
	return nil
}

func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

func (c *Config) Addr() string {
	return c.Host + ":" + c.Port
}

func (c *Config) MaxUploadBytes() int64 {
	return c.MaxUploadMB * 1024 * 1024
}
