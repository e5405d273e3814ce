package main

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/smnsjas/go-splists/lists"
	"github.com/smnsjas/go-splists/transport"
)

// envPrefix prefixes every environment variable, e.g. SPLIST_SITE_URL.
const envPrefix = "SPLIST"

// Config is the resolved CLI configuration. Precedence: flags, environment,
// config file, defaults.
type Config struct {
	SiteURL            string        `mapstructure:"site_url"`
	Username           string        `mapstructure:"username"`
	Password           string        `mapstructure:"password"`
	Cookie             string        `mapstructure:"cookie"`
	Timeout            time.Duration `mapstructure:"timeout"`
	InsecureSkipVerify bool          `mapstructure:"insecure_skip_verify"`
	RateLimit          float64       `mapstructure:"rate_limit"`
	MaxAttempts        int           `mapstructure:"max_attempts"`
	ExcludeHidden      bool          `mapstructure:"exclude_hidden"`
	Output             string        `mapstructure:"output"`
	LogLevel           string        `mapstructure:"log_level"`
	LogFormat          string        `mapstructure:"log_format"`
}

// flagKeys maps flag names to configuration keys.
var flagKeys = map[string]string{
	"site-url":             "site_url",
	"username":             "username",
	"password":             "password",
	"cookie":               "cookie",
	"timeout":              "timeout",
	"insecure-skip-verify": "insecure_skip_verify",
	"rate-limit":           "rate_limit",
	"max-attempts":         "max_attempts",
	"exclude-hidden":       "exclude_hidden",
	"output":               "output",
	"log-level":            "log_level",
	"log-format":           "log_format",
}

func addConfigFlags(fs *pflag.FlagSet) {
	fs.String("config", "", "config file (yaml, toml or json)")
	fs.String("site-url", "", "site URL, e.g. https://sp.example.com/sites/team")
	fs.String("username", "", "basic auth user name")
	fs.String("password", "", "basic auth password")
	fs.String("cookie", "", "cookie header sent with every request")
	fs.Duration("timeout", time.Minute, "per-request timeout")
	fs.Bool("insecure-skip-verify", false, "skip TLS certificate verification")
	fs.Float64("rate-limit", 0, "max requests per second (0 = unlimited)")
	fs.Int("max-attempts", transport.DefaultRetryConfig().MaxAttempts, "attempts per request for transient failures")
	fs.Bool("exclude-hidden", false, "drop hidden fields from the schema catalog")
	fs.StringP("output", "o", "yaml", "output format: yaml or json")
	fs.String("log-level", "warn", "log level: debug, info, warn, error")
	fs.String("log-format", "json", "log format: json or console")
}

// loadConfig resolves the configuration from fs, the environment and the
// optional config file.
func loadConfig(v *viper.Viper, fs *pflag.FlagSet) (Config, error) {
	for flag, key := range flagKeys {
		if err := v.BindPFlag(key, fs.Lookup(flag)); err != nil {
			return Config{}, fmt.Errorf("bind flag %s: %w", flag, err)
		}
	}
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	if path, _ := fs.GetString("config"); path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config %s: %w", path, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	return cfg, cfg.validate()
}

func (c Config) validate() error {
	switch c.Output {
	case "yaml", "json":
	default:
		return fmt.Errorf("unsupported output format %q", c.Output)
	}
	if c.MaxAttempts < 1 {
		return errors.New("max_attempts must be at least 1")
	}
	return nil
}

// newLogger builds the process logger. verbose forces the debug level.
func newLogger(c Config, verbose bool) (*zap.Logger, error) {
	level, err := zapcore.ParseLevel(c.LogLevel)
	if err != nil {
		return nil, fmt.Errorf("log level: %w", err)
	}
	if verbose {
		level = zapcore.DebugLevel
	}

	config := zap.NewProductionConfig()
	if c.LogFormat == "console" {
		config = zap.NewDevelopmentConfig()
	}
	config.Level = zap.NewAtomicLevelAt(level)
	logger, err := config.Build()
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}
	return logger, nil
}

func (c Config) transport(logger *zap.Logger) *transport.HTTP {
	tc := transport.DefaultConfig()
	tc.Username = c.Username
	tc.Password = c.Password
	tc.Cookie = c.Cookie
	tc.Timeout = c.Timeout
	tc.InsecureSkipVerify = c.InsecureSkipVerify
	tc.RateLimit = c.RateLimit
	tc.Retry.MaxAttempts = c.MaxAttempts
	tc.Logger = logger
	return transport.NewHTTP(tc)
}

func (c Config) listOptions(logger *zap.Logger) []lists.Option {
	opts := []lists.Option{lists.WithLogger(logger)}
	if c.ExcludeHidden {
		opts = append(opts, lists.WithHiddenFieldsExcluded())
	}
	return opts
}
