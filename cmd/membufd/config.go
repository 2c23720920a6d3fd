package main

import (
	"errors"
	"fmt"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// Config holds the daemon settings. Defaults are overridden by
// membufd.yaml, then by MEMBUFD_* environment variables, then by flags.
type Config struct {
	Service   string `mapstructure:"service"`
	BlockSize int    `mapstructure:"blocksize"`
	Verbose   bool   `mapstructure:"verbose"`
}

// loadConfig parses args and returns the settings and the remaining
// arguments, the files to serve.
func loadConfig(args []string) (*Config, []string, error) {
	fs := pflag.NewFlagSet("membufd", pflag.ContinueOnError)
	fs.StringP("service", "s", "membuf", "name of the 9P service to post")
	fs.IntP("blocksize", "b", 4096, "growth step of text and undo buffers")
	fs.BoolP("verbose", "v", false, "log 9P messages and text changes")
	configFile := fs.String("config", "", "read settings from this file instead of membufd.yaml")
	if err := fs.Parse(args); err != nil {
		return nil, nil, err
	}

	v := viper.New()
	v.SetEnvPrefix("MEMBUFD")
	v.AutomaticEnv()
	if err := v.BindPFlags(fs); err != nil {
		return nil, nil, err
	}
	if *configFile != "" {
		v.SetConfigFile(*configFile)
	} else {
		v.SetConfigName("membufd")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("$HOME/.config/membufd")
	}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, nil, fmt.Errorf("reading config: %w", err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, nil, fmt.Errorf("decoding config: %w", err)
	}
	if cfg.Service == "" {
		return nil, nil, fmt.Errorf("empty service name")
	}
	if cfg.BlockSize <= 0 {
		return nil, nil, fmt.Errorf("blocksize must be positive, got %d", cfg.BlockSize)
	}
	return cfg, fs.Args(), nil
}
