package config

import (
	"testing"
	"time"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{"HOST", "PORT", "DB_URL", "TOKEN_SECRET", "TOKEN_TTL", "REFRESH_TTL", "SUBMIT_RATE", "TRUST_PROXY", "DEBUG"} {
		t.Setenv(key, "")
	}
}

func TestParseFlagsDefaults(t *testing.T) {
	clearEnv(t)

	cfg, err := ParseFlags([]string{"-token-secret", "s"})
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Addr != "0.0.0.0:8080" || cfg.DBUrl != "opinio.sqlite" {
		t.Errorf("unexpected defaults %+v", cfg)
	}
	if cfg.TokenTTL != time.Hour || cfg.SubmitRate != 30 || cfg.SubmitBurst != 10 || cfg.TrustProxy || cfg.Debug {
		t.Errorf("unexpected defaults %+v", cfg)
	}
	if cfg.Url() != "http://localhost:8080" {
		t.Errorf("Url() = %s", cfg.Url())
	}
}

func TestParseFlagsEnv(t *testing.T) {
	clearEnv(t)
	t.Setenv("PORT", "9000")
	t.Setenv("DB_URL", "/tmp/x.sqlite")
	t.Setenv("TOKEN_SECRET", "env-secret")
	t.Setenv("TOKEN_TTL", "60")
	t.Setenv("TRUST_PROXY", "1")
	t.Setenv("DEBUG", "true")

	cfg, err := ParseFlags(nil)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Addr != "0.0.0.0:9000" || cfg.DBUrl != "/tmp/x.sqlite" || cfg.TokenSecret != "env-secret" {
		t.Errorf("env not applied: %+v", cfg)
	}
	if cfg.TokenTTL != time.Minute || !cfg.TrustProxy || !cfg.Debug {
		t.Errorf("env not applied: %+v", cfg)
	}
}

func TestParseFlagsOverrideEnv(t *testing.T) {
	clearEnv(t)
	t.Setenv("PORT", "9000")
	t.Setenv("TOKEN_SECRET", "env-secret")

	cfg, err := ParseFlags([]string{"-port", "7000", "-host", "127.0.0.1", "-token-secret", "cli"})
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Addr != "127.0.0.1:7000" || cfg.TokenSecret != "cli" {
		t.Errorf("flags should override env: %+v", cfg)
	}
}

func TestParseFlagsErrors(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
		args []string
	}{
		{"missing secret", nil, nil},
		{"bad port", map[string]string{"PORT": "eighty"}, []string{"-token-secret", "s"}},
		{"zero burst", nil, []string{"-token-secret", "s", "-submit-burst", "0"}},
		{"unknown flag", nil, []string{"-token-secret", "s", "-nope"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnv(t)
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			if _, err := ParseFlags(tt.args); err == nil {
				t.Error("expected an error")
			}
		})
	}
}
