package config

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/spf13/viper"
)

type ServerConfig struct {
	Address string `mapstructure:"address"`
	Port    int    `mapstructure:"port"`
	Mode    string `mapstructure:"mode"`
}

type DatabaseConfig struct {
	Path    string `mapstructure:"path"`
	LogMode bool   `mapstructure:"log_mode"`
}

type JWTConfig struct {
	Secret      string `mapstructure:"secret"`
	ExpireHours int    `mapstructure:"expire_hours"`
}

// AdminConfig lists the emails allowed to use the admin endpoints. An
// empty list means no admin exists; it never means everyone is admin.
type AdminConfig struct {
	Emails []string `mapstructure:"emails"`
}

// RateRule bounds one operation to Max calls per fixed window.
type RateRule struct {
	Max           int `mapstructure:"max"`
	WindowSeconds int `mapstructure:"window_seconds"`
}

func (r RateRule) Window() time.Duration {
	return time.Duration(r.WindowSeconds) * time.Second
}

type RateLimitConfig struct {
	Login      RateRule `mapstructure:"login"`
	Register   RateRule `mapstructure:"register"`
	CreatePoll RateRule `mapstructure:"create_poll"`
	Vote       RateRule `mapstructure:"vote"`
}

type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Database  DatabaseConfig  `mapstructure:"database"`
	JWT       JWTConfig       `mapstructure:"jwt"`
	Admin     AdminConfig     `mapstructure:"admin"`
	RateLimit RateLimitConfig `mapstructure:"ratelimit"`
}

var (
	appConfig *Config
	once      sync.Once
)

// Load loads configuration from given file path (e.g. "config.yaml").
// If path is empty, it defaults to "config.yaml" in current working directory.
func Load(path string) (*Config, error) {
	var err error
	once.Do(func() {
		v := viper.New()

		if path == "" {
			v.SetConfigName("config")
			v.SetConfigType("yaml")
			v.AddConfigPath(".")
		} else {
			v.SetConfigFile(path)
		}

		setDefaults(v)

		// environment overrides, e.g. POLL_SERVER_PORT=9000
		v.SetEnvPrefix("POLL")
		v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
		v.AutomaticEnv()

		if err = v.ReadInConfig(); err != nil {
			err = fmt.Errorf("read config: %w", err)
			return
		}

		var c Config
		if err = v.Unmarshal(&c); err != nil {
			err = fmt.Errorf("unmarshal config: %w", err)
			return
		}

		appConfig = &c
	})

	if err != nil {
		return nil, err
	}
	return appConfig, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.address", "0.0.0.0")
	v.SetDefault("server.port", 8080)
	v.SetDefault("database.path", "data/pollboard.db")
	v.SetDefault("jwt.expire_hours", 24)

	v.SetDefault("ratelimit.login.max", 5)
	v.SetDefault("ratelimit.login.window_seconds", 300)
	v.SetDefault("ratelimit.register.max", 3)
	v.SetDefault("ratelimit.register.window_seconds", 600)
	v.SetDefault("ratelimit.create_poll.max", 10)
	v.SetDefault("ratelimit.create_poll.window_seconds", 300)
	v.SetDefault("ratelimit.vote.max", 5)
	v.SetDefault("ratelimit.vote.window_seconds", 60)
}

// Get returns the loaded global configuration.
// Call Load() once at application startup.
func Get() *Config {
	return appConfig
}
