package config

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/sagarc03/sendfile"
	"github.com/sagarc03/sendfile/filesystem"
	sendhttp "github.com/sagarc03/sendfile/http"
)

// configKey is the context key for storing the loaded configuration.
type configKey struct{}

// WithContext returns a new context with the config stored.
func WithContext(ctx context.Context, cfg *Config) context.Context {
	return context.WithValue(ctx, configKey{}, cfg)
}

// FromContext retrieves the config from context.
// Returns an error if config is not found.
func FromContext(ctx context.Context) (*Config, error) {
	cfg, ok := ctx.Value(configKey{}).(*Config)
	if !ok || cfg == nil {
		return nil, errors.New("config not found in context")
	}
	return cfg, nil
}

// Config is the root configuration struct for sendfile.
type Config struct {
	Env     string              `mapstructure:"env" yaml:"env" validate:"omitempty,oneof=dev development prod production"`
	Server  ServerConfig        `mapstructure:"server" yaml:"server"`
	Send    SendConfig          `mapstructure:"send" yaml:"send"`
	Storage StorageConfig       `mapstructure:"storage" yaml:"storage"`
	CORS    sendhttp.CORSConfig `mapstructure:"cors" yaml:"cors"`
	Log     LogConfig           `mapstructure:"log" yaml:"log"`
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Port            int           `mapstructure:"port" yaml:"port" validate:"required,min=1,max=65535"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout" yaml:"read_timeout" validate:"min=0"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout" yaml:"write_timeout" validate:"min=0"`
	IdleTimeout     time.Duration `mapstructure:"idle_timeout" yaml:"idle_timeout" validate:"min=0"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout" yaml:"shutdown_timeout" validate:"min=0"`
	ErrorFormat     string        `mapstructure:"error_format" yaml:"error_format" validate:"required,oneof=text json html"`
	HealthPath      string        `mapstructure:"health_path" yaml:"health_path" validate:"omitempty,startswith=/"`
}

// SendConfig holds the options of the file sender. Index, Extensions and
// MaxAge are loosely typed so they can be given as false, a string or a
// list; Options converts them.
type SendConfig struct {
	Root         string `mapstructure:"root" yaml:"root" validate:"required"`
	Dotfiles     string `mapstructure:"dotfiles" yaml:"dotfiles,omitempty" validate:"omitempty,oneof=allow deny ignore"`
	Hidden       bool   `mapstructure:"hidden" yaml:"hidden"`
	Index        any    `mapstructure:"index" yaml:"index"`
	Extensions   any    `mapstructure:"extensions" yaml:"extensions"`
	ETag         bool   `mapstructure:"etag" yaml:"etag"`
	LastModified bool   `mapstructure:"last_modified" yaml:"last_modified"`
	CacheControl bool   `mapstructure:"cache_control" yaml:"cache_control"`
	AcceptRanges bool   `mapstructure:"accept_ranges" yaml:"accept_ranges"`
	MaxAge       any    `mapstructure:"max_age" yaml:"max_age"`
	Immutable    bool   `mapstructure:"immutable" yaml:"immutable"`
	Start        int64  `mapstructure:"start" yaml:"start" validate:"min=0"`
	End          *int64 `mapstructure:"end" yaml:"end,omitempty" validate:"omitempty,min=0"`
	DefaultType  string `mapstructure:"default_type" yaml:"default_type"`
}

// StorageConfig selects where files are read from. With the s3 backend
// the send root is the bucket (below Prefix) instead of a local directory.
type StorageConfig struct {
	Backend         string `mapstructure:"backend" yaml:"backend" validate:"required,oneof=os s3"`
	Bucket          string `mapstructure:"bucket" yaml:"bucket,omitempty" validate:"required_if=Backend s3"`
	Region          string `mapstructure:"region" yaml:"region,omitempty" validate:"required_if=Backend s3"`
	Endpoint        string `mapstructure:"endpoint" yaml:"endpoint,omitempty" validate:"omitempty,url"`
	Prefix          string `mapstructure:"prefix" yaml:"prefix,omitempty"`
	AccessKeyID     string `mapstructure:"access_key_id" yaml:"access_key_id,omitempty"`
	SecretAccessKey string `mapstructure:"secret_access_key" yaml:"-"`
	MaxRetries      int    `mapstructure:"max_retries" yaml:"max_retries,omitempty" validate:"min=0"`
}

// S3 returns the bucket settings of an s3 backend.
func (c *StorageConfig) S3() filesystem.S3Config {
	return filesystem.S3Config{
		Bucket:          c.Bucket,
		Region:          c.Region,
		Endpoint:        c.Endpoint,
		Prefix:          c.Prefix,
		AccessKeyID:     c.AccessKeyID,
		SecretAccessKey: c.SecretAccessKey,
		MaxRetries:      c.MaxRetries,
	}
}

// LogConfig holds logging configuration.
type LogConfig struct {
	Level string `mapstructure:"level" yaml:"level" validate:"omitempty,oneof=debug info warn error"`
}

// Options converts the send section into sendfile options. Invalid
// loosely typed values are reported as *sendfile.ConfigError.
func (c *SendConfig) Options() (sendfile.Options, error) {
	dotfiles, err := sendfile.ParseDotfiles(c.Dotfiles)
	if err != nil {
		return sendfile.Options{}, err
	}

	index, err := sendfile.ParseIndexOption(splitList(c.Index))
	if err != nil {
		return sendfile.Options{}, err
	}

	extensions, err := sendfile.ParseExtensionsOption(splitList(c.Extensions))
	if err != nil {
		return sendfile.Options{}, err
	}

	maxAge, err := sendfile.ParseMaxAge(c.MaxAge)
	if err != nil {
		return sendfile.Options{}, err
	}

	opts := sendfile.Options{
		Root:         c.Root,
		Dotfiles:     dotfiles,
		Hidden:       c.Hidden,
		Index:        index,
		Extensions:   extensions,
		ETag:         c.ETag,
		LastModified: c.LastModified,
		CacheControl: c.CacheControl,
		AcceptRanges: c.AcceptRanges,
		MaxAge:       maxAge,
		Immutable:    c.Immutable,
		Start:        c.Start,
		End:          c.End,
	}

	if err := opts.Validate(); err != nil {
		return sendfile.Options{}, err
	}
	return opts, nil
}

// splitList turns a comma separated string, as found in environment
// variables and flags, into a list.
func splitList(v any) any {
	s, ok := v.(string)
	if !ok || !strings.Contains(s, ",") {
		return v
	}
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// flagToViperKey maps CLI flag names to viper configuration keys.
var flagToViperKey = map[string]string{
	"port":         "server.port",
	"error-format": "server.error_format",
	"root":         "send.root",
	"dotfiles":     "send.dotfiles",
	"index":        "send.index",
	"extensions":   "send.extensions",
	"max-age":      "send.max_age",
	"immutable":    "send.immutable",
	"log-level":    "log.level",
	"storage":      "storage.backend",
	"bucket":       "storage.bucket",
}

// bindFlags binds CLI flags to viper keys with custom name mapping.
func bindFlags(v *viper.Viper, flags *pflag.FlagSet) {
	flags.VisitAll(func(f *pflag.Flag) {
		// Use custom mapping if it exists, otherwise use flag name as-is
		viperKey := f.Name
		if mapped, ok := flagToViperKey[viperKey]; ok {
			viperKey = mapped
		}

		// Only bind if the flag was explicitly set
		if f.Changed {
			_ = v.BindPFlag(viperKey, f)
		}
	})
}

// setDefaults configures default values on the viper instance.
func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 5708)
	v.SetDefault("server.read_timeout", 30*time.Second)
	v.SetDefault("server.write_timeout", 0)
	v.SetDefault("server.idle_timeout", 120*time.Second)
	v.SetDefault("server.shutdown_timeout", 30*time.Second)
	v.SetDefault("server.error_format", "text")
	v.SetDefault("server.health_path", "")

	v.SetDefault("send.root", "./public")
	v.SetDefault("send.dotfiles", "")
	v.SetDefault("send.hidden", false)
	v.SetDefault("send.index", "index.html")
	v.SetDefault("send.extensions", false)
	v.SetDefault("send.etag", true)
	v.SetDefault("send.last_modified", true)
	v.SetDefault("send.cache_control", true)
	v.SetDefault("send.accept_ranges", true)
	v.SetDefault("send.max_age", 0)
	v.SetDefault("send.immutable", false)
	v.SetDefault("send.start", 0)
	v.SetDefault("send.default_type", sendfile.DefaultContentType)

	v.SetDefault("storage.backend", "os")

	v.SetDefault("cors.enabled", false)
	v.SetDefault("cors.allowed_methods", []string{"GET", "HEAD"})

	v.SetDefault("log.level", "info")
}

// Load reads configuration and returns a validated Config struct.
// Order of precedence (highest to lowest): flags > env > config files > defaults
//
// Parameters:
//   - configFiles: list of config file paths (later files override earlier ones)
//   - flags: cobra flag set for flag binding (can be nil)
func Load(configFiles []string, flags *pflag.FlagSet) (*Config, error) {
	v := viper.New()

	// 1. Set defaults
	setDefaults(v)

	// 2. Read config files
	if len(configFiles) > 0 {
		v.SetConfigFile(configFiles[0])
		if err := v.ReadInConfig(); err != nil {
			slog.Warn("error reading config file", "file", configFiles[0], "err", err)
		}

		for _, cf := range configFiles[1:] {
			v.SetConfigFile(cf)
			if err := v.MergeInConfig(); err != nil {
				slog.Warn("error merging config file", "file", cf, "err", err)
			}
		}
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")

		if err := v.ReadInConfig(); err != nil {
			var configNotFound viper.ConfigFileNotFoundError
			if !errors.As(err, &configNotFound) {
				slog.Warn("error reading config file", "err", err)
			}
		}
	}

	// 3. Bind environment variables
	v.SetEnvPrefix("SENDFILE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	_ = v.BindEnv("env")
	_ = v.BindEnv("send.end")
	for _, key := range []string{"bucket", "region", "endpoint", "prefix", "access_key_id", "secret_access_key", "max_retries"} {
		_ = v.BindEnv("storage." + key)
	}

	// 4. Bind flags (if provided)
	if flags != nil {
		bindFlags(v, flags)
	}

	// 5. Unmarshal into Config struct
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	// 6. Validate using go-playground/validator
	validate := validator.New()
	if err := validate.Struct(&cfg); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	// 7. Check the loosely typed send options
	if _, err := cfg.Send.Options(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return &cfg, nil
}
