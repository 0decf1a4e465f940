package config

import (
	"os"
	"testing"
	"time"
)

func setEnv(t *testing.T, key, value string) {
	t.Helper()
	old, had := os.LookupEnv(key)
	if err := os.Setenv(key, value); err != nil {
		t.Fatalf("setenv %s failed: %v", key, err)
	}
	t.Cleanup(func() {
		if had {
			_ = os.Setenv(key, old)
		} else {
			_ = os.Unsetenv(key)
		}
	})
}

func unsetEnv(t *testing.T, key string) {
	t.Helper()
	old, had := os.LookupEnv(key)
	_ = os.Unsetenv(key)
	t.Cleanup(func() {
		if had {
			_ = os.Setenv(key, old)
		}
	})
}

func TestLoadRequiresMySQLDSN(t *testing.T) {
	unsetEnv(t, "MYSQL_DSN")
	_, err := Load()
	if err == nil {
		t.Fatal("expected error for missing MYSQL_DSN")
	}
}

func TestLoadRejectsUnknownGatewayMode(t *testing.T) {
	setEnv(t, "MYSQL_DSN", "root:root@tcp(localhost:3306)/donations?parseTime=true")
	setEnv(t, "EASYMERCHANT_MODE", "sandbox")
	_, err := Load()
	if err == nil {
		t.Fatal("expected error for unknown gateway mode")
	}
}

func TestLoadDefaultsAndOverrides(t *testing.T) {
	setEnv(t, "MYSQL_DSN", "root:root@tcp(localhost:3306)/donations?parseTime=true")
	setEnv(t, "APP_SERVICE_NAME", "donations-test")
	setEnv(t, "HTTP_PORT", "8181")
	setEnv(t, "MYSQL_MAX_OPEN_CONNS", "20")
	setEnv(t, "MYSQL_MAX_IDLE_CONNS", "8")
	setEnv(t, "MYSQL_CONN_MAX_LIFETIME_MINUTES", "40")
	setEnv(t, "EASYMERCHANT_API_KEY", "em-key")
	setEnv(t, "EASYMERCHANT_API_SECRET", "em-secret")
	setEnv(t, "EASYMERCHANT_MODE", "live")
	setEnv(t, "EASYMERCHANT_HTTP_TIMEOUT_SECONDS", "12")
	setEnv(t, "DONATIONS_PENDING_TIMEOUT_MINUTES", "11")
	setEnv(t, "DONATIONS_RECONCILE_STALE_AFTER_MINUTES", "13")
	setEnv(t, "DONATIONS_JOB_BATCH_SIZE", "99")
	setEnv(t, "DONATIONS_RECONCILE_INTERVAL_MINUTES", "7")
	setEnv(t, "DONATIONS_EXPIRE_PENDING_INTERVAL_MINUTES", "9")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	if cfg.App.ServiceName != "donations-test" {
		t.Fatalf("unexpected app service name: %s", cfg.App.ServiceName)
	}
	if cfg.HTTP.Port != "8181" {
		t.Fatalf("unexpected http port: %s", cfg.HTTP.Port)
	}
	if cfg.MySQL.MaxOpenConns != 20 || cfg.MySQL.MaxIdleConns != 8 {
		t.Fatalf("unexpected mysql pool config: %+v", cfg.MySQL)
	}
	if cfg.MySQL.ConnMaxLifetime != 40*time.Minute {
		t.Fatalf("unexpected mysql lifetime: %v", cfg.MySQL.ConnMaxLifetime)
	}
	if cfg.EasyMerchant.APIKey != "em-key" || cfg.EasyMerchant.APISecret != "em-secret" {
		t.Fatal("unexpected gateway credentials")
	}
	if cfg.EasyMerchant.Mode != "live" {
		t.Fatalf("unexpected gateway mode: %s", cfg.EasyMerchant.Mode)
	}
	if cfg.EasyMerchant.HTTPTimeout != 12*time.Second {
		t.Fatalf("unexpected gateway timeout: %v", cfg.EasyMerchant.HTTPTimeout)
	}
	if cfg.Donations.PendingTimeout != 11*time.Minute {
		t.Fatalf("unexpected pending timeout: %v", cfg.Donations.PendingTimeout)
	}
	if cfg.Donations.ReconcileStaleAfter != 13*time.Minute {
		t.Fatalf("unexpected reconcile staleness: %v", cfg.Donations.ReconcileStaleAfter)
	}
	if cfg.Donations.JobBatchSize != 99 {
		t.Fatalf("unexpected batch size: %d", cfg.Donations.JobBatchSize)
	}
	if cfg.Jobs.ReconcileInterval != 7*time.Minute {
		t.Fatalf("unexpected reconcile interval: %v", cfg.Jobs.ReconcileInterval)
	}
	if cfg.Jobs.ExpirePendingInterval != 9*time.Minute {
		t.Fatalf("unexpected expire interval: %v", cfg.Jobs.ExpirePendingInterval)
	}
}

func TestLoadDefaultGatewayModeIsTest(t *testing.T) {
	setEnv(t, "MYSQL_DSN", "root:root@tcp(localhost:3306)/donations?parseTime=true")
	unsetEnv(t, "EASYMERCHANT_MODE")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if cfg.EasyMerchant.Mode != "test" {
		t.Fatalf("unexpected default mode: %s", cfg.EasyMerchant.Mode)
	}
	if cfg.EasyMerchant.HTTPTimeout != 30*time.Second {
		t.Fatalf("unexpected default timeout: %v", cfg.EasyMerchant.HTTPTimeout)
	}
}
