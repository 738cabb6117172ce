package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/pflag"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("", nil)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.ReqLimitPerSecond != 10 {
		t.Errorf("req limit = %d, want 10", cfg.ReqLimitPerSecond)
	}
	if cfg.CacheTTL != 30*time.Second {
		t.Errorf("cache ttl = %s, want 30s", cfg.CacheTTL)
	}
	if cfg.LogLevel != "info" {
		t.Errorf("log level = %s, want info", cfg.LogLevel)
	}
}

func TestLoadFromFlags(t *testing.T) {
	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	flags.String("rpc", "", "")
	flags.String("package-id", "", "")
	flags.Int("req-limit", 10, "")
	if err := flags.Parse([]string{
		"--rpc=https://a.example,https://b.example",
		"--package-id=0xabc",
		"--req-limit=3",
	}); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load("", flags)
	if err != nil {
		t.Fatal(err)
	}
	if len(cfg.RPCEndpoints) != 2 || cfg.RPCEndpoints[0] != "https://a.example" {
		t.Errorf("rpc endpoints = %v", cfg.RPCEndpoints)
	}
	if cfg.PackageID != "0xabc" {
		t.Errorf("package id = %s", cfg.PackageID)
	}
	if cfg.ReqLimitPerSecond != 3 {
		t.Errorf("req limit = %d, want 3", cfg.ReqLimitPerSecond)
	}
}

func TestLoadFromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := "ws: wss://node.example\nreward-coin-type: 0xfee::r::R\ncache-ttl: 5s\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path, nil)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.WSEndpoint != "wss://node.example" {
		t.Errorf("ws endpoint = %s", cfg.WSEndpoint)
	}
	if cfg.RewardCoinType != "0xfee::r::R" {
		t.Errorf("reward coin type = %s", cfg.RewardCoinType)
	}
	if cfg.CacheTTL != 5*time.Second {
		t.Errorf("cache ttl = %s, want 5s", cfg.CacheTTL)
	}
}

func TestLoadEnvFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ".env")
	content := "# comment\nRPC_ENDPOINTS=\"https://x.example, https://y.example\"\nPRESET=file\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	t.Setenv("RPC_ENDPOINTS", "")
	os.Unsetenv("RPC_ENDPOINTS")
	t.Setenv("PRESET", "env")

	if err := LoadEnv(path); err != nil {
		t.Fatal(err)
	}
	endpoints := GetRPCEndpoints()
	if len(endpoints) != 2 || endpoints[1] != "https://y.example" {
		t.Errorf("endpoints = %v", endpoints)
	}
	if os.Getenv("PRESET") != "env" {
		t.Error("env file overrode an already-set variable")
	}
}

func TestLoadEnvMissingFile(t *testing.T) {
	if err := LoadEnv(filepath.Join(t.TempDir(), "absent.env")); err != nil {
		t.Errorf("missing env file should be ignored: %v", err)
	}
}
