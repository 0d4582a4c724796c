package config

import (
	"testing"
	"time"
)

func validConfig() *Config {
	return &Config{
		Port:        "8000",
		Env:         "production",
		DatabaseURL: "postgres://localhost/clinic",
		JWTSecret:   "secret",
		TokenTTL:    60,
		BcryptCost:  10,
	}
}

func TestValidate_OK(t *testing.T) {
	if err := validConfig().Validate(); err != nil {
		t.Errorf("valid config rejected: %v", err)
	}
}

func TestValidate_MissingSecretInProduction(t *testing.T) {
	cfg := validConfig()
	cfg.JWTSecret = ""
	if err := cfg.Validate(); err == nil {
		t.Error("production without JWT_SECRET must be rejected")
	}
}

func TestValidate_MissingSecretInDev(t *testing.T) {
	cfg := validConfig()
	cfg.Env = "development"
	cfg.JWTSecret = ""
	if err := cfg.Validate(); err != nil {
		t.Errorf("development may run without JWT_SECRET: %v", err)
	}
}

func TestValidate_BcryptCostBounds(t *testing.T) {
	for _, cost := range []int{0, 3, 32} {
		cfg := validConfig()
		cfg.BcryptCost = cost
		if err := cfg.Validate(); err == nil {
			t.Errorf("bcrypt cost %d must be rejected", cost)
		}
	}
}

func TestValidate_TokenTTL(t *testing.T) {
	cfg := validConfig()
	cfg.TokenTTL = 0
	if err := cfg.Validate(); err == nil {
		t.Error("zero token ttl must be rejected")
	}
}

func TestTokenDuration(t *testing.T) {
	cfg := validConfig()
	cfg.TokenTTL = 90
	if cfg.TokenDuration() != 90*time.Minute {
		t.Errorf("unexpected duration: %v", cfg.TokenDuration())
	}
}
