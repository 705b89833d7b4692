// Package config loads the console's settings from built-in defaults, an
// optional .env file and ADMIN_* environment variables.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/go-viper/mapstructure/v2"
	"github.com/joho/godotenv"
	"github.com/knadh/koanf/providers/env/v2"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// EnvPrefix is stripped from environment variable names before they are
// mapped onto config keys: ADMIN_AUTH_SESSION_SECRET sets auth.session_secret.
const EnvPrefix = "ADMIN_"

type Config struct {
	Server   Server   `koanf:"server"`
	Database Database `koanf:"database"`
	Auth     Auth     `koanf:"auth"`
	Seed     Seed     `koanf:"seed"`
	Log      Log      `koanf:"log"`
}

type Server struct {
	Port         string `koanf:"port" validate:"required,numeric"`
	CookieSecure bool   `koanf:"cookie_secure"`
}

type Database struct {
	Path string `koanf:"path" validate:"required"`
}

type Auth struct {
	SessionSecret string  `koanf:"session_secret" validate:"required,min=32"`
	BcryptCost    int     `koanf:"bcrypt_cost" validate:"min=4,max=14"`
	LoginRate     float64 `koanf:"login_rate" validate:"gte=0"`
	LoginBurst    int     `koanf:"login_burst" validate:"gte=1"`
}

// Seed names the administrator created on first start. Seeding is skipped
// when AdminEmail is empty.
type Seed struct {
	AdminEmail    string `koanf:"admin_email" validate:"omitempty,email"`
	AdminPassword string `koanf:"admin_password" validate:"required_with=AdminEmail,omitempty,min=8"`
}

type Log struct {
	Level  string `koanf:"level" validate:"oneof=debug info warn error"`
	Format string `koanf:"format" validate:"oneof=text json"`
}

// Default returns the settings used when nothing overrides them. It has no
// session secret, so it does not validate on its own.
func Default() Config {
	return Config{
		Server:   Server{Port: "8080", CookieSecure: true},
		Database: Database{Path: "admin-console.db"},
		Auth: Auth{
			BcryptCost: 12,
			LoginRate:  0.2,
			LoginBurst: 5,
		},
		Log: Log{Level: "info", Format: "text"},
	}
}

// Load builds the configuration. envFiles are read with godotenv before the
// environment is consulted; missing files are ignored and variables already
// set in the process win over the file.
func Load(envFiles ...string) (*Config, error) {
	for _, f := range envFiles {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("load %s: %w", f, err)
		}
	}

	k := koanf.New(".")
	if err := k.Load(structs.Provider(Default(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("load defaults: %w", err)
	}
	if err := k.Load(env.Provider(".", env.Opt{
		Prefix:        EnvPrefix,
		TransformFunc: transformEnvKey,
	}), nil); err != nil {
		return nil, fmt.Errorf("load environment: %w", err)
	}

	var cfg Config
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{
		Tag: "koanf",
		DecoderConfig: &mapstructure.DecoderConfig{
			WeaklyTypedInput: true,
			Result:           &cfg,
			TagName:          "koanf",
		},
	}); err != nil {
		return nil, fmt.Errorf("unmarshal configuration: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks the struct tags and reports every failing key.
func (c *Config) Validate() error {
	err := validator.New().Struct(c)
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return err
	}
	msgs := make([]string, len(fieldErrs))
	for i, fe := range fieldErrs {
		msgs[i] = fmt.Sprintf("%s failed %q", fe.Namespace(), fe.Tag())
	}
	return fmt.Errorf("invalid configuration: %s", strings.Join(msgs, "; "))
}

// transformEnvKey maps ADMIN_AUTH_SESSION_SECRET to auth.session_secret:
// the first segment is the section, the rest is the field name.
func transformEnvKey(key, value string) (string, any) {
	key = strings.ToLower(strings.TrimPrefix(key, EnvPrefix))
	section, field, ok := strings.Cut(key, "_")
	if !ok || section == "" || field == "" {
		return "", nil
	}
	return section + "." + field, value
}
