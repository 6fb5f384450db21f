package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

const testSecret = "0123456789abcdef0123456789abcdef"

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("JWT_SECRET", testSecret)

	cfg, err := Load("testdata/missing.env")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.HTTPPort != "8080" || cfg.GRPCPort != "50051" || cfg.WebPort != "8081" {
		t.Errorf("ports = %s/%s/%s", cfg.HTTPPort, cfg.GRPCPort, cfg.WebPort)
	}
	if cfg.TokenTTL != 7*24*time.Hour {
		t.Errorf("expected 168h token ttl, got %v", cfg.TokenTTL)
	}
	if cfg.Storage != StoragePostgres {
		t.Errorf("expected postgres storage, got %s", cfg.Storage)
	}
	if cfg.DBMaxConns != 20 {
		t.Errorf("expected default max conns 20, got %d", cfg.DBMaxConns)
	}
	if len(cfg.CORSOrigins) != 1 || cfg.CORSOrigins[0] != "*" {
		t.Errorf("cors = %v", cfg.CORSOrigins)
	}
	if cfg.Location() != time.UTC {
		t.Errorf("location = %v", cfg.Location())
	}
}

func TestLoad_FromEnv(t *testing.T) {
	t.Setenv("JWT_SECRET", testSecret)
	t.Setenv("STORAGE", "Memory")
	t.Setenv("KAFKA_BROKERS", "k1:9092, k2:9092,")
	t.Setenv("TOKEN_TTL", "30m")
	t.Setenv("RATE_LIMIT_RPS", "2.5")

	cfg, err := Load("testdata/missing.env")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Storage != StorageMemory {
		t.Errorf("storage = %q", cfg.Storage)
	}
	if len(cfg.KafkaBrokers) != 2 || cfg.KafkaBrokers[1] != "k2:9092" {
		t.Errorf("brokers = %v", cfg.KafkaBrokers)
	}
	if cfg.TokenTTL != 30*time.Minute || cfg.RateLimitRPS != 2.5 {
		t.Errorf("ttl=%v rps=%v", cfg.TokenTTL, cfg.RateLimitRPS)
	}
}

func TestLoad_DotEnv(t *testing.T) {
	t.Setenv("JWT_SECRET", testSecret)
	// godotenv never overrides a set variable, so make sure it is unset
	t.Setenv("MONGO_DATABASE", "")
	os.Unsetenv("MONGO_DATABASE")

	path := filepath.Join(t.TempDir(), ".env")
	if err := os.WriteFile(path, []byte("MONGO_DATABASE=clinic_dotenv\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.MongoDatabase != "clinic_dotenv" {
		t.Errorf("mongo database = %q", cfg.MongoDatabase)
	}
}

func TestValidate(t *testing.T) {
	base := Config{JWTSecret: testSecret, Storage: StorageMemory, ClinicTimezone: "UTC", TokenTTL: time.Hour}
	if err := base.Validate(); err != nil {
		t.Fatalf("base config: %v", err)
	}

	tests := []struct {
		name string
		mod  func(c *Config)
	}{
		{"short secret", func(c *Config) { c.JWTSecret = "secret" }},
		{"unknown storage", func(c *Config) { c.Storage = "sqlite" }},
		{"postgres without url", func(c *Config) { c.Storage = StoragePostgres }},
		{"bad timezone", func(c *Config) { c.ClinicTimezone = "Mars/Olympus" }},
		{"zero ttl", func(c *Config) { c.TokenTTL = 0 }},
		{"admin without password", func(c *Config) { c.AdminUsername = "root" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := base
			tt.mod(&c)
			if err := c.Validate(); err == nil {
				t.Fatal("expected validation error")
			}
		})
	}
}
