package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeFile(t *testing.T, body string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(p, []byte(body), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	return p
}

func TestLoadDefaults(t *testing.T) {
	c, err := Load(writeFile(t, "environment: test\nnotify:\n  transport: none\n"))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if c.Strategy.Symbol != "FTSEMIB.MI" || c.Strategy.CostBps != 2 || c.Server.Port != 8000 {
		t.Fatalf("defaults not applied: %+v", c.Strategy)
	}
	if c.Schedule.Hour != 17 || c.Schedule.Minute != 30 || c.Location().String() != "Europe/Rome" {
		t.Fatalf("unexpected schedule %+v", c.Schedule)
	}
}

func TestValidateTransport(t *testing.T) {
	_, err := Load(writeFile(t, "environment: test\nnotify:\n  transport: pigeon\n"))
	if err == nil || !strings.Contains(err.Error(), "transport") {
		t.Fatalf("expected transport error, got %v", err)
	}
}

func TestValidateWeekdays(t *testing.T) {
	_, err := Load(writeFile(t, "environment: test\nnotify:\n  transport: none\nstrategy:\n  allowed_weekdays: [0, 7]\n"))
	if err == nil {
		t.Fatalf("expected weekday error")
	}
}

func TestValidateEmailRequiresSMTP(t *testing.T) {
	c := Default()
	c.Notify.SendEmail = true
	if err := c.Validate(); err == nil {
		t.Fatalf("expected smtp error")
	}
	c.Notify.SMTP.Sender = "a@example.com"
	c.Notify.SMTP.Password = "secret"
	c.Notify.SMTP.Recipient = "b@example.com"
	if err := c.Validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestApplyEnv(t *testing.T) {
	env := map[string]string{
		"PORT":            "9090",
		"DEBUG":           "true",
		"QUANT_SYMBOL":    "^GDAXI",
		"COST_BPS":        "0",
		"SEND_EMAIL":      "1",
		"SENDER_EMAIL":    "a@example.com",
		"RECIPIENT_EMAIL": "b@example.com",
		"KAFKA_BROKERS":   "k1:9092, k2:9092",
		"REDIS_ADDR":      "redis:6379",
	}
	c := Default()
	c.applyEnv(func(k string) string { return env[k] })

	if c.Server.Port != 9090 || c.LogLevel() != "debug" || c.Strategy.Symbol != "^GDAXI" {
		t.Fatalf("overrides not applied: %+v", c.Server)
	}
	if c.Strategy.CostBps != 0 || !c.Notify.SendEmail {
		t.Fatalf("cost/email overrides not applied")
	}
	if len(c.Kafka.Brokers) != 2 || c.Kafka.Brokers[1] != "k2:9092" {
		t.Fatalf("brokers=%v", c.Kafka.Brokers)
	}
	if !c.Cache.Redis.Enabled || c.Cache.Redis.Addr != "redis:6379" {
		t.Fatalf("redis override not applied")
	}
}

func TestLoadWithEnvFile(t *testing.T) {
	dir := t.TempDir()
	envPath := filepath.Join(dir, ".env")
	if err := os.WriteFile(envPath, []byte("QUANT_SYMBOL=ENV.MI\n"), 0o644); err != nil {
		t.Fatalf("write env: %v", err)
	}
	t.Setenv("QUANT_SYMBOL", "")
	os.Unsetenv("QUANT_SYMBOL")

	c, err := LoadWithEnv(writeFile(t, "environment: test\nnotify:\n  transport: none\n"), envPath)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if c.Strategy.Symbol != "ENV.MI" {
		t.Fatalf("expected symbol from .env, got %s", c.Strategy.Symbol)
	}
}
