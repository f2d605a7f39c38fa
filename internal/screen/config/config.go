package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/knadh/koanf/providers/env/v2"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// AppConfig holds configuration values parsed from environment variables.
type AppConfig struct {
	// Env is the runtime environment, either "dev" or "prod".
	Env string `koanf:"env" validate:"required,oneof=dev prod"`

	Log       LogConfig       `koanf:"log"`
	Store     StoreConfig     `koanf:"store"`
	Screening ScreeningConfig `koanf:"screening"`
	Contacts  ContactsConfig  `koanf:"contacts"`
	AllowList AllowListConfig `koanf:"allowlist"`
	HTTP      HTTPConfig      `koanf:"http"`
	Platform  PlatformConfig  `koanf:"platform"`
}

type LogConfig struct {
	// Level controls log verbosity: "debug", "info", "warn", or "error".
	Level string `koanf:"level" validate:"required,oneof=debug info warn error"`
}

type StoreConfig struct {
	// Path is the bbolt file holding policy, log and allow-list state.
	Path string `koanf:"path" validate:"required"`
}

type ScreeningConfig struct {
	// Timezone is the IANA zone schedule windows are evaluated in. Empty or
	// "Local" uses the host zone.
	Timezone string `koanf:"timezone" validate:"tz"`

	// LookupTimeout bounds one directory lookup.
	LookupTimeout time.Duration `koanf:"lookup_timeout" validate:"required,gt=0"`
}

type ContactsConfig struct {
	// Dir holds the contact files. Empty disables the directory; every lookup
	// then fails and screening allows.
	Dir string `koanf:"dir"`

	// CacheSize is the lookup cache capacity. 0 disables the cache.
	CacheSize int `koanf:"cache_size" validate:"gte=0"`
}

type AllowListConfig struct {
	// FPRate is the Bloom prefilter false-positive rate.
	FPRate float64 `koanf:"fp_rate" validate:"gt=0,lt=1"`
}

type HTTPConfig struct {
	// Port is the port the HTTP bridge binds to.
	Port int `koanf:"port" validate:"required,gte=1,lt=65535"`

	// RateLimit is the per-client request budget per minute.
	RateLimit int `koanf:"rate_limit" validate:"required,gte=1"`

	// Burst is the per-client burst size.
	Burst int `koanf:"burst" validate:"required,gte=1"`
}

type PlatformConfig struct {
	// Role is the call-screening role state reported by the host.
	Role string `koanf:"role" validate:"required,oneof=held available unavailable unsupported"`
}

// Location resolves the configured timezone.
func (c ScreeningConfig) Location() (*time.Location, error) {
	if c.Timezone == "" {
		return time.Local, nil
	}
	return time.LoadLocation(c.Timezone)
}

// DEFAULT_APP_CONFIG defines the defaults applied before the environment.
var DEFAULT_APP_CONFIG = AppConfig{
	Env: "prod",
	Log: LogConfig{Level: "info"},
	Store: StoreConfig{
		Path: "/var/lib/ringguard/state.db",
	},
	Screening: ScreeningConfig{
		Timezone:      "",
		LookupTimeout: 2 * time.Second,
	},
	Contacts: ContactsConfig{
		Dir:       "/etc/ringguard/contacts.d/",
		CacheSize: 1000,
	},
	AllowList: AllowListConfig{FPRate: 0.01},
	HTTP: HTTPConfig{
		Port:      8080,
		RateLimit: 120,
		Burst:     20,
	},
	Platform: PlatformConfig{Role: "held"},
}

// envPrefix is stripped from every environment key.
const envPrefix = "RG_"

// envKey maps RG_SECTION_SOME_KEY to section.some_key. Only the first
// underscore separates the section, so multi-word keys survive.
func envKey(key string) string {
	key = strings.ToLower(strings.TrimPrefix(key, envPrefix))
	section, rest, ok := strings.Cut(key, "_")
	if !ok {
		return key
	}
	return section + "." + rest
}

// validTimezone accepts an empty value, "Local", or any zone the host's tz
// database knows.
func validTimezone(fl validator.FieldLevel) bool {
	tz := fl.Field().String()
	if tz == "" || tz == "Local" {
		return true
	}
	_, err := time.LoadLocation(tz)
	return err == nil
}

// dotenvFile is read before the environment when it exists.
var dotenvFile = ".env"

// dotenvLoader copies dotenvFile into the process environment without
// overriding variables that are already set. A missing file is not an error.
var dotenvLoader = func() error {
	err := godotenv.Load(dotenvFile)
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	return err
}

// envLoader loads environment variables with the prefix "RG_",
// and can be mocked in tests.
var envLoader = func(k *koanf.Koanf) error {
	return k.Load(env.Provider(".", env.Opt{
		Prefix: envPrefix,
		TransformFunc: func(key, value string) (string, any) {
			return envKey(key), strings.TrimSpace(value)
		},
	}), nil)
}

// defaultLoader loads DEFAULT_APP_CONFIG through the structs provider.
var defaultLoader = func(k *koanf.Koanf) error {
	return k.Load(structs.Provider(DEFAULT_APP_CONFIG, "koanf"), nil)
}

// registerValidation registers the "tz" rule.
var registerValidation = func(v *validator.Validate) error {
	return v.RegisterValidation("tz", validTimezone)
}

// Load parses environment variables and returns an AppConfig instance.
// It applies default values and runs validation automatically.
func Load() (*AppConfig, error) {
	if err := dotenvLoader(); err != nil {
		return nil, fmt.Errorf("error loading %s: %w", dotenvFile, err)
	}

	k := koanf.New(".")

	err := defaultLoader(k)
	if err != nil {
		return nil, fmt.Errorf("error loading default config: %w", err)
	}

	err = envLoader(k)
	if err != nil {
		return nil, fmt.Errorf("error loading env: %w", err)
	}

	var cfg AppConfig

	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("error unmarshalling config: %w", err)
	}

	validate := validator.New(validator.WithRequiredStructEnabled())

	err = registerValidation(validate)
	if err != nil {
		return nil, fmt.Errorf("error registering validation: %w", err)
	}

	err = validate.Struct(&cfg)
	if err != nil {
		return nil, fmt.Errorf("validation failed: %w", err)
	}

	return &cfg, nil
}
