// Package config loads runtime settings from flags, environment
// variables, and an optional config file, in that order of precedence.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// Config holds the settings shared by every command.
type Config struct {
	RPCEndpoints      []string
	WSEndpoint        string
	ReqLimitPerSecond int
	PackageID         string
	GlobalConfigID    string
	RewardCoinType    string
	CacheTTL          time.Duration
	LogLevel          string
}

// Load merges config file, environment variables, and flags into Config.
func Load(cfgFile string, flags *pflag.FlagSet) (Config, error) {
	v := viper.New()
	v.SetEnvPrefix("CLMMTX")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	v.SetDefault("req-limit", 10)
	v.SetDefault("cache-ttl", 30*time.Second)
	v.SetDefault("log-level", "info")

	if flags != nil {
		if err := v.BindPFlags(flags); err != nil {
			return Config{}, fmt.Errorf("bind flags: %w", err)
		}
	}

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	} else {
		v.SetConfigName("config")
		v.AddConfigPath(".")
		if err := v.ReadInConfig(); err != nil {
			if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
				return Config{}, fmt.Errorf("read config: %w", err)
			}
		}
	}

	cfg := Config{
		RPCEndpoints:      getStringSlice(v, "rpc"),
		WSEndpoint:        v.GetString("ws"),
		ReqLimitPerSecond: v.GetInt("req-limit"),
		PackageID:         v.GetString("package-id"),
		GlobalConfigID:    v.GetString("global-config-id"),
		RewardCoinType:    v.GetString("reward-coin-type"),
		CacheTTL:          v.GetDuration("cache-ttl"),
		LogLevel:          v.GetString("log-level"),
	}

	if len(cfg.RPCEndpoints) == 0 {
		cfg.RPCEndpoints = GetRPCEndpoints()
	}

	return cfg, nil
}

func getStringSlice(v *viper.Viper, key string) []string {
	if !v.IsSet(key) {
		return nil
	}

	val := v.Get(key)
	switch typed := val.(type) {
	case []string:
		return cleanStrings(typed)
	case string:
		return splitAndClean(typed)
	case []interface{}:
		items := make([]string, 0, len(typed))
		for _, item := range typed {
			items = append(items, fmt.Sprintf("%v", item))
		}
		return cleanStrings(items)
	default:
		return nil
	}
}

func splitAndClean(input string) []string {
	if input == "" {
		return nil
	}
	parts := strings.Split(input, ",")
	return cleanStrings(parts)
}

func cleanStrings(items []string) []string {
	out := make([]string, 0, len(items))
	for _, item := range items {
		item = strings.TrimSpace(item)
		if item == "" {
			continue
		}
		out = append(out, item)
	}
	return out
}
