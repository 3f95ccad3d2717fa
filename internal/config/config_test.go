package config

import (
	"os"
	"testing"
	"time"
)

func TestGetEnvWithDefault(t *testing.T) {
	const key = "TEST_APP_PORT"

	// 环境变量未设置时，应该返回默认值
	_ = os.Unsetenv(key)
	if got := getEnv(key, "9000"); got != "9000" {
		t.Fatalf("getEnv(%q) = %q, want %q", key, got, "9000")
	}

	// 环境变量设置后，应优先返回环境变量
	if err := os.Setenv(key, "8080"); err != nil {
		t.Fatalf("Setenv error: %v", err)
	}
	defer os.Unsetenv(key)
	if got := getEnv(key, "9000"); got != "8080" {
		t.Fatalf("getEnv(%q) = %q, want %q", key, got, "8080")
	}
}

func TestGetEnvIntRejectsInvalid(t *testing.T) {
	const key = "TEST_RATE_LIMIT_MAX"
	defer os.Unsetenv(key)

	_ = os.Setenv(key, "not-a-number")
	if got := getEnvInt(key, 10); got != 10 {
		t.Fatalf("getEnvInt with garbage = %d, want default 10", got)
	}

	_ = os.Setenv(key, "-3")
	if got := getEnvInt(key, 10); got != 10 {
		t.Fatalf("getEnvInt with negative = %d, want default 10", got)
	}

	_ = os.Setenv(key, "25")
	if got := getEnvInt(key, 10); got != 25 {
		t.Fatalf("getEnvInt = %d, want 25", got)
	}
}

func TestSplitList(t *testing.T) {
	if got := splitList(""); len(got) != 0 {
		t.Fatalf("splitList(\"\") = %v, want empty", got)
	}

	got := splitList("https://a.example, https://b.example ,, https://c.example")
	want := []string{"https://a.example", "https://b.example", "https://c.example"}
	if len(got) != len(want) {
		t.Fatalf("splitList len = %d, want %d (%v)", len(got), len(want), got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("splitList[%d] = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestModeControlsWindowAndRetries(t *testing.T) {
	// 非法模式回落到 development，窗口默认 1 分钟、重试 1 次
	_ = os.Setenv("APP_MODE", "staging")
	defer os.Unsetenv("APP_MODE")
	defer os.Unsetenv("PUBLISH_WINDOW_MINUTES")

	cfg := Load()
	if cfg.Mode != ModeDevelopment {
		t.Fatalf("Mode = %q, want fallback to development", cfg.Mode)
	}
	if cfg.WindowMinutes != 1 || cfg.RetryAttempts() != 1 {
		t.Fatalf("development defaults wrong: window=%d retries=%d", cfg.WindowMinutes, cfg.RetryAttempts())
	}

	// 生产模式：60 分钟窗口、重试 2 次
	_ = os.Setenv("APP_MODE", ModeProduction)
	cfg = Load()
	if !cfg.Production() || cfg.WindowMinutes != 60 || cfg.RetryAttempts() != 2 {
		t.Fatalf("production defaults wrong: %+v retries=%d", cfg, cfg.RetryAttempts())
	}
	if cfg.Window() != 60*time.Minute {
		t.Fatalf("Window() = %v, want 60m", cfg.Window())
	}

	// 显式窗口配置覆盖模式默认值
	_ = os.Setenv("PUBLISH_WINDOW_MINUTES", "15")
	cfg = Load()
	if cfg.WindowMinutes != 15 {
		t.Fatalf("WindowMinutes = %d, want 15", cfg.WindowMinutes)
	}
}
