package config

import (
	"os"
	"testing"
	"time"
)

func setRequiredEnv() {
	os.Setenv("JWT_SECRET", "test-secret-32-characters-long!")
	os.Setenv("DB_PASSWORD", "test")
}

func TestLoad_Defaults(t *testing.T) {
	setRequiredEnv()
	defer os.Clearenv()

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() = %v, want nil", err)
	}

	tests := []struct {
		name     string
		actual   time.Duration
		expected time.Duration
	}{
		{"ReadTimeout", cfg.Server.ReadTimeout, 15 * time.Second},
		{"WriteTimeout", cfg.Server.WriteTimeout, 15 * time.Second},
		{"IdleTimeout", cfg.Server.IdleTimeout, 60 * time.Second},
		{"LockoutLookbackWindow", cfg.Lockout.LookbackWindow, 15 * time.Minute},
		{"LockoutDuration", cfg.Lockout.LockoutDuration, 30 * time.Minute},
	}

	for _, tt := range tests {
		if tt.actual != tt.expected {
			t.Errorf("%s: got %v, want %v", tt.name, tt.actual, tt.expected)
		}
	}

	if cfg.Lockout.MaxFailedAttempts != 5 {
		t.Errorf("MaxFailedAttempts: got %d, want 5", cfg.Lockout.MaxFailedAttempts)
	}
	if cfg.Broadcast.AMQPURL != "" {
		t.Errorf("Broadcast.AMQPURL: got %q, want empty", cfg.Broadcast.AMQPURL)
	}
	if cfg.Broadcast.ChannelName != "legalease.session-sync" {
		t.Errorf("Broadcast.ChannelName: got %q", cfg.Broadcast.ChannelName)
	}
}

func TestLoad_CustomLockoutValues(t *testing.T) {
	setRequiredEnv()
	os.Setenv("LOCKOUT_MAX_FAILED_ATTEMPTS", "10")
	os.Setenv("LOCKOUT_DURATION", "1h")
	defer os.Clearenv()

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() = %v, want nil", err)
	}

	if cfg.Lockout.MaxFailedAttempts != 10 {
		t.Errorf("MaxFailedAttempts: got %d, want 10", cfg.Lockout.MaxFailedAttempts)
	}
	if cfg.Lockout.LockoutDuration != time.Hour {
		t.Errorf("LockoutDuration: got %v, want 1h", cfg.Lockout.LockoutDuration)
	}
}

func TestLoad_RequiresJWTSecret(t *testing.T) {
	os.Clearenv()
	os.Setenv("DB_PASSWORD", "test")
	defer os.Clearenv()

	if _, err := Load(); err == nil {
		t.Fatal("Load() = nil, want error for missing JWT_SECRET")
	}
}

func TestLoad_RejectsWeakJWTSecret(t *testing.T) {
	os.Clearenv()
	os.Setenv("JWT_SECRET", "short")
	os.Setenv("DB_PASSWORD", "test")
	defer os.Clearenv()

	if _, err := Load(); err == nil {
		t.Fatal("Load() = nil, want error for weak JWT_SECRET")
	}
}

func TestLoad_InvalidMaxFailedAttempts(t *testing.T) {
	setRequiredEnv()
	os.Setenv("LOCKOUT_MAX_FAILED_ATTEMPTS", "0")
	defer os.Clearenv()

	if _, err := Load(); err == nil {
		t.Fatal("Load() = nil, want error for zero LOCKOUT_MAX_FAILED_ATTEMPTS")
	}
}
