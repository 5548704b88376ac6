package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

type Config struct {
	Server  ServerConfig  `mapstructure:"server"`
	Backend BackendConfig `mapstructure:"backend"`
	Auth    AuthConfig    `mapstructure:"auth"`
	DB      DBConfig      `mapstructure:"db"`
	Log     LogConfig     `mapstructure:"log"`
}

type ServerConfig struct {
	Addr string `mapstructure:"addr"`
}

// BackendConfig locates the pricing backend. Page is the location the
// helper derives its base URL from; Strategy picks how (page, dev, fixed).
// Origin is the dev origin for "dev" and the target for "fixed".
type BackendConfig struct {
	Page     string        `mapstructure:"page"`
	Strategy string        `mapstructure:"strategy"`
	Origin   string        `mapstructure:"origin"`
	Timeout  time.Duration `mapstructure:"timeout"`
}

type AuthConfig struct {
	Mode   string `mapstructure:"mode"` // none, token, jwt
	Token  string `mapstructure:"token"`
	Secret string `mapstructure:"secret"`
}

type DBConfig struct {
	Path string `mapstructure:"path"`
}

type LogConfig struct {
	File       string `mapstructure:"file"`
	MaxSizeMB  int    `mapstructure:"max_size_mb"`
	MaxBackups int    `mapstructure:"max_backups"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.addr", ":8088")
	v.SetDefault("backend.page", "http://localhost:8080/")
	v.SetDefault("backend.strategy", "dev")
	v.SetDefault("backend.origin", "http://127.0.0.1:5000")
	v.SetDefault("backend.timeout", 15*time.Second)
	v.SetDefault("auth.mode", "none")
	v.SetDefault("auth.token", "")
	v.SetDefault("auth.secret", "")
	v.SetDefault("db.path", "quantdesk.db")
	v.SetDefault("log.file", "")
	v.SetDefault("log.max_size_mb", 50)
	v.SetDefault("log.max_backups", 3)
}

// Flags registers the command line overrides bound by Load.
func Flags(fs *pflag.FlagSet) {
	fs.String("config", "", "config file (yaml, toml or json)")
	fs.String("addr", "", "relay listen address")
	fs.String("page", "", "page URL the backend base is derived from")
	fs.String("strategy", "", "base URL strategy: page, dev or fixed")
	fs.String("origin", "", "dev origin or fixed backend origin")
	fs.String("db", "", "sqlite path for presets")
	fs.String("log-file", "", "rotate logs into this file instead of stderr")
}

var flagKeys = map[string]string{
	"addr":     "server.addr",
	"page":     "backend.page",
	"strategy": "backend.strategy",
	"origin":   "backend.origin",
	"db":       "db.path",
	"log-file": "log.file",
}

// Load reads defaults, then the config file, then QUANTDESK_* environment
// variables, then flags. fs may be nil.
func Load(fs *pflag.FlagSet) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix("QUANTDESK")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if fs != nil {
		for name, key := range flagKeys {
			if f := fs.Lookup(name); f != nil && f.Changed {
				if err := v.BindPFlag(key, f); err != nil {
					return nil, err
				}
			}
		}
	}

	file := ""
	if fs != nil {
		file, _ = fs.GetString("config")
	}
	if file != "" {
		v.SetConfigFile(file)
	} else {
		v.SetConfigName("quantdesk")
		v.AddConfigPath(".")
	}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if file != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) Validate() error {
	switch c.Backend.Strategy {
	case "page", "dev", "fixed":
	default:
		return fmt.Errorf("backend.strategy: unknown value %q", c.Backend.Strategy)
	}
	if c.Backend.Strategy == "fixed" && c.Backend.Origin == "" {
		return errors.New("backend.origin is required for the fixed strategy")
	}
	if c.Backend.Timeout <= 0 {
		return errors.New("backend.timeout must be positive")
	}
	switch c.Auth.Mode {
	case "none":
	case "token":
		if c.Auth.Token == "" {
			return errors.New("auth.token is required for token mode")
		}
	case "jwt":
		if c.Auth.Secret == "" {
			return errors.New("auth.secret is required for jwt mode")
		}
	default:
		return fmt.Errorf("auth.mode: unknown value %q", c.Auth.Mode)
	}
	return nil
}
