package config

import "testing"

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.WorkdayStart != "08:00" {
		t.Fatalf("expected default workday start 08:00, got %s", cfg.WorkdayStart)
	}
	if cfg.WorkdayEnd != "17:00" {
		t.Fatalf("expected default workday end 17:00, got %s", cfg.WorkdayEnd)
	}
	if cfg.Timezone != "UTC" {
		t.Fatalf("expected default timezone UTC, got %s", cfg.Timezone)
	}
	if cfg.Port != "8080" {
		t.Fatalf("expected default port 8080, got %s", cfg.Port)
	}
}

func TestLoadEnvOverride(t *testing.T) {
	t.Setenv("WORKDAY_START", "09:30")
	t.Setenv("TIMEZONE", "Asia/Almaty")
	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.WorkdayStart != "09:30" {
		t.Fatalf("expected 09:30, got %s", cfg.WorkdayStart)
	}
	if cfg.Timezone != "Asia/Almaty" {
		t.Fatalf("expected Asia/Almaty, got %s", cfg.Timezone)
	}
}
