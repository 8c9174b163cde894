package config

import (
	"os"
	"testing"

	"github.com/spf13/viper"
)

func TestLoadConfig_Defaults(t *testing.T) {
	viper.Reset()
	t.Cleanup(viper.Reset)

	unsetEnvWithCleanup(t, "SERVER_PORT")
	unsetEnvWithCleanup(t, "PORT")
	unsetEnvWithCleanup(t, "WALLET_RATE_LIMIT_PER_MINUTE")
	unsetEnvWithCleanup(t, "DEFAULT_PAGE_LIMIT")

	cfg, err := LoadConfig(t.TempDir())
	if err != nil {
		t.Fatalf("LoadConfig returned error: %v", err)
	}
	if cfg.ServerPort != "8080" {
		t.Fatalf("expected default server port 8080, got %q", cfg.ServerPort)
	}
	if cfg.DefaultPageLimit != 50 {
		t.Fatalf("expected default page limit 50, got %d", cfg.DefaultPageLimit)
	}
	if cfg.WalletRateLimitPerMinute != 30 {
		t.Fatalf("expected default wallet rate limit 30, got %d", cfg.WalletRateLimitPerMinute)
	}
	if cfg.RedisRateLimitPrefix != "consultlink:rate_limit" {
		t.Fatalf("expected default rate limit prefix, got %q", cfg.RedisRateLimitPrefix)
	}
}

func TestLoadConfig_PortAliasTakesPrecedence(t *testing.T) {
	viper.Reset()
	t.Cleanup(viper.Reset)

	setEnvWithCleanup(t, "SERVER_PORT", "8080")
	setEnvWithCleanup(t, "PORT", "9090")

	cfg, err := LoadConfig(t.TempDir())
	if err != nil {
		t.Fatalf("LoadConfig returned error: %v", err)
	}
	if cfg.ServerPort != "9090" {
		t.Fatalf("expected PORT to override SERVER_PORT, got %q", cfg.ServerPort)
	}
}

func TestParseAdminUserIDs(t *testing.T) {
	ids := ParseAdminUserIDs(" 6f1e1f6e-8f2a-4c21-9a55-0f63a1f1a111 ,not-a-uuid, ,6f1e1f6e-8f2a-4c21-9a55-0f63a1f1a222")
	if len(ids) != 2 {
		t.Fatalf("expected 2 valid ids, got %d", len(ids))
	}
	if ids[0].String() != "6f1e1f6e-8f2a-4c21-9a55-0f63a1f1a111" {
		t.Fatalf("unexpected first id: %s", ids[0])
	}

	if got := ParseAdminUserIDs(""); len(got) != 0 {
		t.Fatalf("expected no ids from empty value, got %d", len(got))
	}
}

func setEnvWithCleanup(t *testing.T, key string, value string) {
	t.Helper()
	prev, hadPrev := os.LookupEnv(key)
	if err := os.Setenv(key, value); err != nil {
		t.Fatalf("failed to set env %s: %v", key, err)
	}
	t.Cleanup(func() {
		if hadPrev {
			_ = os.Setenv(key, prev)
			return
		}
		_ = os.Unsetenv(key)
	})
}

func unsetEnvWithCleanup(t *testing.T, key string) {
	t.Helper()
	prev, hadPrev := os.LookupEnv(key)
	if err := os.Unsetenv(key); err != nil {
		t.Fatalf("failed to unset env %s: %v", key, err)
	}
	t.Cleanup(func() {
		if hadPrev {
			_ = os.Setenv(key, prev)
			return
		}
		_ = os.Unsetenv(key)
	})
}
