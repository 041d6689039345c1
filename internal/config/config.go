package config

import (
	"bytes"
	_ "embed"
	"fmt"
	"net"
	"os"
	"strings"

	validator "github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/nostrforge/relay/internal/logger"
)

//go:embed defaults.yaml
var defaultYAML []byte

var validate = validator.New()

// Config holds every sub-config the relay needs at startup.
type Config struct {
	Relay   RelayConfig   `mapstructure:"relay"   validate:"required"`
	Logging LoggingConfig `mapstructure:"logging" validate:"required"`
	Storage StorageConfig `mapstructure:"storage" validate:"required"`
	Limiter LimiterConfig `mapstructure:"limiter" validate:"required"`
}

func init() {
	registerValidators()
}

func registerValidators() {
	_ = validate.RegisterValidation("hostname_port", func(fl validator.FieldLevel) bool {
		addr := fl.Field().String()
		if addr == "" {
			return false
		}
		host, port, err := net.SplitHostPort(addr)
		if err != nil {
			return false
		}
		if _, err := net.LookupPort("tcp", port); err != nil {
			return false
		}
		_ = host
		return true
	})
	_ = validate.RegisterValidation("log_level", func(fl validator.FieldLevel) bool {
		switch fl.Field().String() {
		case "debug", "info", "warn", "error":
			return true
		default:
			return false
		}
	})
	_ = validate.RegisterValidation("log_format", func(fl validator.FieldLevel) bool {
		switch fl.Field().String() {
		case "console", "json", "":
			return true
		default:
			return false
		}
	})
}

// Load merges the embedded defaults, an optional .env file, and the
// process environment, in that order, then validates the result.
//
// Three env vars carry the names the operator actually sets:
// RELAY_HOST (relay.HOST), RUST_LOG (logging.LEVEL) and DB_PATH
// (storage.PATH). Everything else can still be overridden through the
// namespaced RELAY_<SECTION>_<FIELD> form viper derives automatically.
func Load(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("read .env: %w", err)
	}

	v := viper.New()
	v.SetConfigType("yaml")
	v.SetEnvPrefix("RELAY")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadConfig(bytes.NewReader(defaultYAML)); err != nil {
		return nil, fmt.Errorf("read defaults: %w", err)
	}

	if path != "" {
		v.SetConfigFile(path)
		if err := v.MergeInConfig(); err != nil {
			return nil, fmt.Errorf("read config file: %w", err)
		}
	}

	bindEnv(v, "relay.host", "RELAY_HOST")
	bindEnv(v, "logging.level", "RUST_LOG")
	bindEnv(v, "storage.path", "DB_PATH")

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := validate.Struct(cfg); err != nil {
		return nil, formatValidationError(err)
	}

	return &cfg, nil
}

// InitLogger builds the process-wide logger from l. Callers apply any
// flag overrides to the loaded Config before calling this, since it is
// not called automatically by Load.
func InitLogger(l LoggingConfig) error {
	if err := logger.Init(
		logger.WithLevel(l.Level),
		logger.WithFormat(l.Format),
		logger.WithFile(l.FilePath),
		logger.WithRotation(l.MaxSize, l.MaxBackups, l.MaxAge),
	); err != nil {
		return fmt.Errorf("initialize logger: %w", err)
	}
	return nil
}

func bindEnv(v *viper.Viper, key, envVar string) {
	_ = v.BindEnv(key, envVar)
}

func formatValidationError(err error) error {
	verrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return fmt.Errorf("configuration validation failed: %w", err)
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		msgs = append(msgs, fmt.Sprintf("%s failed %q (got %v)", fe.Namespace(), fe.Tag(), fe.Value()))
	}
	return fmt.Errorf("configuration validation failed:\n  - %s", strings.Join(msgs, "\n  - "))
}
