// Package config loads tvcast settings from an optional YAML file and the
// environment.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-viper/mapstructure/v2"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/spf13/viper"
	"tvcast.app/tvcast/utils"
)

const (
	BackendDIAL = "dial"
	BackendCast = "cast"
)

// EnvPrefix prefixes every environment override, e.g. TVCAST_POWER_WAIT.
const EnvPrefix = "TVCAST"

// Config holds all application configuration
type Config struct {
	TV        TVConfig        `mapstructure:"tv"`
	DIAL      DIALConfig      `mapstructure:"dial"`
	Receiver  ReceiverConfig  `mapstructure:"receiver"`
	Cast      CastConfig      `mapstructure:"cast"`
	Power     PowerConfig     `mapstructure:"power"`
	YouTube   YouTubeConfig   `mapstructure:"youtube"`
	HTTP      HTTPConfig      `mapstructure:"http"`
	Assistant AssistantConfig `mapstructure:"assistant"`
	Log       LogConfig       `mapstructure:"log"`
}

// TVConfig is the remote-control endpoint of the television.
type TVConfig struct {
	Host string `mapstructure:"host"` // empty means the host of dial.descriptor
	Port int    `mapstructure:"port"`
}

type DIALConfig struct {
	Descriptor  string `mapstructure:"descriptor"`
	SearchDelay int    `mapstructure:"search_delay"` // seconds
}

type ReceiverConfig struct {
	Backend  string `mapstructure:"backend"` // "dial" or "cast"
	App      string `mapstructure:"app"`
	Instance string `mapstructure:"instance"`
}

type CastConfig struct {
	Addr    string        `mapstructure:"addr"` // empty means mDNS discovery
	Timeout time.Duration `mapstructure:"timeout"`
}

type PowerConfig struct {
	Wait time.Duration `mapstructure:"wait"`
	Skip bool          `mapstructure:"skip"`
}

type YouTubeConfig struct {
	APIKey   string `mapstructure:"apikey"`
	Endpoint string `mapstructure:"endpoint"`
}

type HTTPConfig struct {
	Retries int `mapstructure:"retries"`
}

type AssistantConfig struct {
	Interval time.Duration `mapstructure:"interval"`
}

type LogConfig struct {
	Level string `mapstructure:"level"`
}

var defaults = map[string]any{
	"tv.host":            "",
	"tv.port":            55000,
	"dial.descriptor":    "http://192.168.0.122:55000/nrc/ddd.xml",
	"dial.search_delay":  2,
	"receiver.backend":   BackendDIAL,
	"receiver.app":       "YouTube",
	"receiver.instance":  "run",
	"cast.addr":          "",
	"cast.timeout":       "750ms",
	"power.wait":         "100ms",
	"power.skip":         false,
	"youtube.apikey":     "",
	"youtube.endpoint":   "https://youtube.googleapis.com/",
	"http.retries":       0,
	"assistant.interval": "3s",
	"log.level":          "info",
}

// AppPath is the directory searched for config.yaml by default.
func AppPath() (string, error) {
	oscfg, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("AppPath: failed to get config dir due to error %w", err)
	}

	return filepath.Join(oscfg, "tvcast"), nil
}

// Load reads file when it is set, otherwise config.yaml from searchPaths
// (the user config dir and the working directory when none are given).
// A missing default file is not an error, a missing explicit file is.
func Load(file string, searchPaths ...string) (*Config, error) {
	v := viper.New()

	for k, d := range defaults {
		v.SetDefault(k, d)
	}

	if file != "" {
		v.SetConfigFile(file)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")

		if len(searchPaths) == 0 {
			if p, err := AppPath(); err == nil {
				searchPaths = append(searchPaths, p)
			}
			searchPaths = append(searchPaths, ".")
		}

		for _, p := range searchPaths {
			v.AddConfigPath(p)
		}
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.BindEnv("youtube.apikey", EnvPrefix+"_YOUTUBE_APIKEY", "YOUTUBE"); err != nil {
		return nil, fmt.Errorf("Load bind error: %w", err)
	}

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg, viper.DecodeHook(mapstructure.StringToTimeDurationHookFunc())); err != nil {
		return nil, fmt.Errorf("error parsing config: %w", err)
	}

	return cfg, nil
}

// Validate checks the values and fills the ones derived from others.
func (c *Config) Validate() error {
	switch c.Receiver.Backend {
	case BackendDIAL, BackendCast:
	default:
		return errors.Errorf("receiver.backend must be %q or %q, got %q", BackendDIAL, BackendCast, c.Receiver.Backend)
	}

	if c.Power.Wait < 0 {
		return errors.New("power.wait must not be negative")
	}

	if c.HTTP.Retries < 0 {
		return errors.New("http.retries must not be negative")
	}

	if c.TV.Port <= 0 || c.TV.Port > 65535 {
		return errors.Errorf("tv.port out of range: %d", c.TV.Port)
	}

	if _, err := zerolog.ParseLevel(strings.ToLower(c.Log.Level)); err != nil {
		return errors.Wrap(err, "log.level")
	}

	if c.TV.Host == "" {
		host, err := utils.HostFromURL(c.DIAL.Descriptor)
		if err != nil {
			return errors.Wrap(err, "tv.host is empty and dial.descriptor has no host")
		}
		c.TV.Host = host
	}

	return nil
}

// Level is the parsed log level, info when unset.
func (c *Config) Level() zerolog.Level {
	l, err := zerolog.ParseLevel(strings.ToLower(c.Log.Level))
	if err != nil || c.Log.Level == "" {
		return zerolog.InfoLevel
	}
	return l
}
