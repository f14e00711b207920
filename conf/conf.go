// Package conf loads the application configuration from file and
// environment, and exposes per-component slices of it for injection.
package conf

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-viper/mapstructure/v2"
	"github.com/spf13/viper"

	"github.com/lorekeep/lorekeep/internal/lifecycle"
	"github.com/lorekeep/lorekeep/internal/log"
	"github.com/lorekeep/lorekeep/internal/privacy"
	"github.com/lorekeep/lorekeep/internal/server"
	"github.com/lorekeep/lorekeep/internal/server/biz"
	"github.com/lorekeep/lorekeep/internal/server/scheduler"
	"github.com/lorekeep/lorekeep/internal/store"
)

type Config struct {
	Log       log.Config       `conf:"log" yaml:"log" json:"log"`
	APIServer server.Config    `conf:"server" yaml:"server" json:"server"`
	Store     store.Config     `conf:"store" yaml:"store" json:"store"`
	Lifecycle lifecycle.Config `conf:"lifecycle" yaml:"lifecycle" json:"lifecycle"`
	Scheduler scheduler.Config `conf:"scheduler" yaml:"scheduler" json:"scheduler"`
	Privacy   privacy.Config   `conf:"privacy" yaml:"privacy" json:"privacy"`
	Auth      biz.AuthConfig   `conf:"auth" yaml:"auth" json:"auth"`
}

func defaults() Config {
	return Config{
		Log: log.DefaultConfig(),
		APIServer: server.Config{
			Host:           "127.0.0.1",
			Port:           8090,
			Name:           "lorekeep",
			ReadTimeout:    30 * time.Second,
			RequestTimeout: 30 * time.Second,
		},
		Store:     store.Config{Path: "lorekeep.db"},
		Lifecycle: lifecycle.DefaultConfig(),
		Scheduler: scheduler.DefaultConfig(),
	}
}

// Load reads configuration from lorekeep.yaml (working directory or
// /etc/lorekeep) and LOREKEEP_* environment variables, on top of the
// built-in defaults.
func Load() (Config, error) {
	v := viper.New()
	v.SetConfigName("lorekeep")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("/etc/lorekeep")

	v.SetEnvPrefix("LOREKEEP")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	}

	config := defaults()

	err := v.Unmarshal(&config, func(dc *mapstructure.DecoderConfig) {
		dc.TagName = "conf"
		dc.DecodeHook = mapstructure.ComposeDecodeHookFunc(
			mapstructure.StringToTimeDurationHookFunc(),
			mapstructure.StringToSliceHookFunc(","),
		)
	})
	if err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}

	return config, nil
}

// Per-component providers for dependency injection.

func LogConfig(c Config) log.Config             { return c.Log }
func ServerConfig(c Config) server.Config       { return c.APIServer }
func StoreConfig(c Config) store.Config         { return c.Store }
func LifecycleConfig(c Config) lifecycle.Config { return c.Lifecycle }
func SchedulerConfig(c Config) scheduler.Config { return c.Scheduler }
func PrivacyConfig(c Config) privacy.Config     { return c.Privacy }
func AuthConfig(c Config) biz.AuthConfig        { return c.Auth }
