package config

import (
	"testing"
	"time"

	"github.com/eugenenazirov/pivot/internal/api"
)

func clearEnv(t *testing.T) {
	t.Helper()
	t.Setenv("PIVOT_PORT", "")
	t.Setenv("PIVOT_RATE_LIMIT_RPS", "")
	t.Setenv("PIVOT_RATE_LIMIT_BURST", "")
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load(nil)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}

	if cfg.Port != defaultPort {
		t.Fatalf("expected default port %s, got %s", defaultPort, cfg.Port)
	}
	if cfg.ShutdownGracePeriod != 10*time.Second {
		t.Fatalf("unexpected shutdown grace period: %s", cfg.ShutdownGracePeriod)
	}
	if cfg.Watch {
		t.Fatalf("expected watch to be off by default")
	}
	if cfg.Addr() != ":9090" {
		t.Fatalf("unexpected addr: %s", cfg.Addr())
	}
	if cfg.RateLimitRPS != api.DefaultRateLimitRPS || cfg.RateLimitBurst != 0 {
		t.Fatalf("expected api rate limit defaults, got %v/%d", cfg.RateLimitRPS, cfg.RateLimitBurst)
	}
}

func TestLoadEnvironment(t *testing.T) {
	clearEnv(t)
	t.Setenv("PIVOT_PORT", "9000")
	t.Setenv("PIVOT_RATE_LIMIT_RPS", "2.5")
	t.Setenv("PIVOT_RATE_LIMIT_BURST", "7")

	cfg, err := Load(nil)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}

	if cfg.Port != "9000" {
		t.Fatalf("expected overridden port, got %s", cfg.Port)
	}
	if cfg.RateLimitRPS != 2.5 || cfg.RateLimitBurst != 7 {
		t.Fatalf("unexpected rate limit: %v/%d", cfg.RateLimitRPS, cfg.RateLimitBurst)
	}
}

func TestLoadFlagsWinOverEnvironment(t *testing.T) {
	clearEnv(t)
	t.Setenv("PIVOT_PORT", "9000")
	t.Setenv("PIVOT_RATE_LIMIT_BURST", "7")

	port := "127.0.0.1:9100"
	burst := 3
	watch := true
	cfg, err := Load(&CLIOverrides{Port: &port, RateLimitBurst: &burst, Watch: &watch})
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}

	if cfg.Addr() != "127.0.0.1:9100" {
		t.Fatalf("expected flag port, got %s", cfg.Addr())
	}
	if cfg.RateLimitBurst != 3 {
		t.Fatalf("expected flag burst, got %d", cfg.RateLimitBurst)
	}
	if !cfg.Watch {
		t.Fatalf("expected watch from flag")
	}
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	t.Run("malformed env", func(t *testing.T) {
		clearEnv(t)
		t.Setenv("PIVOT_RATE_LIMIT_RPS", "fast")
		if _, err := Load(nil); err == nil {
			t.Fatalf("expected error for malformed rps")
		}
	})

	t.Run("negative flag", func(t *testing.T) {
		clearEnv(t)
		rps := -1.0
		if _, err := Load(&CLIOverrides{RateLimitRPS: &rps}); err == nil {
			t.Fatalf("expected error for negative rps")
		}
	})

	t.Run("negative env burst", func(t *testing.T) {
		clearEnv(t)
		t.Setenv("PIVOT_RATE_LIMIT_BURST", "-2")
		if _, err := Load(nil); err == nil {
			t.Fatalf("expected error for negative burst")
		}
	})
}
