package config

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"
	"time"
)

func TestLoadConfigDefaults(t *testing.T) {
	cfg, err := LoadConfig(t.TempDir())
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.ServerPort != "8080" {
		t.Errorf("ServerPort = %q; want 8080", cfg.ServerPort)
	}
	if cfg.AlphaMin != 0.1 || cfg.AlphaMax != 2.0 {
		t.Errorf("alpha bounds = [%v, %v]; want [0.1, 2]", cfg.AlphaMin, cfg.AlphaMax)
	}
	if cfg.CacheTTL != 5*time.Minute {
		t.Errorf("CacheTTL = %v; want 5m", cfg.CacheTTL)
	}
	if len(cfg.KafkaBrokers) != 0 {
		t.Errorf("KafkaBrokers = %v; want none", cfg.KafkaBrokers)
	}
	if cfg.AuditQueueSize != 256 || cfg.AuditTimeout != 3*time.Second {
		t.Errorf("audit = %d, %v; want 256, 3s", cfg.AuditQueueSize, cfg.AuditTimeout)
	}
}

func TestLoadConfigFromEnvFile(t *testing.T) {
	dir := t.TempDir()
	env := "SERVER_PORT=9090\nROUTE_CACHE_TTL=45s\nKAFKA_BROKERS=k1:9092, k2:9092\nLIVE_TRAFFIC=true\n"
	if err := os.WriteFile(filepath.Join(dir, ".env"), []byte(env), 0o600); err != nil {
		t.Fatal(err)
	}
	t.Setenv("ALPHA_MAX", "3.5")

	cfg, err := LoadConfig(dir)
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.ServerPort != "9090" {
		t.Errorf("ServerPort = %q; want 9090", cfg.ServerPort)
	}
	if cfg.CacheTTL != 45*time.Second {
		t.Errorf("CacheTTL = %v; want 45s", cfg.CacheTTL)
	}
	if !reflect.DeepEqual(cfg.KafkaBrokers, []string{"k1:9092", "k2:9092"}) {
		t.Errorf("KafkaBrokers = %v", cfg.KafkaBrokers)
	}
	if !cfg.LiveTraffic {
		t.Errorf("LiveTraffic not read from .env")
	}
	if cfg.AlphaMax != 3.5 {
		t.Errorf("AlphaMax = %v; want env override 3.5", cfg.AlphaMax)
	}
}

func TestValidate(t *testing.T) {
	base := Config{AlphaMin: 0.1, AlphaMax: 2, CacheSize: 10}
	if err := base.Validate(); err != nil {
		t.Fatalf("valid config rejected: %v", err)
	}
	bad := base
	bad.AlphaMax = 0.05
	if bad.Validate() == nil {
		t.Errorf("inverted alpha bounds accepted")
	}
	bad = base
	bad.CacheSize = 0
	if bad.Validate() == nil {
		t.Errorf("zero cache size accepted")
	}
}
