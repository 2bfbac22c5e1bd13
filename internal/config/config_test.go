package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "config.yml"), []byte(body), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return dir
}

func TestLoad_DefaultsWhenFileMissing(t *testing.T) {
	t.Setenv("VERMI_AUTH_SIGNING_KEY", "k")

	cfg, err := Load(t.TempDir())
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Device.ID != "1934" {
		t.Errorf("device id: got %q", cfg.Device.ID)
	}
	if cfg.Control.Cooldown != 30*time.Second || cfg.Control.MaxRun != 5*time.Second {
		t.Errorf("pump timings: got cooldown=%s max_run=%s", cfg.Control.Cooldown, cfg.Control.MaxRun)
	}
	if cfg.Control.TankFull != 90 || cfg.Control.TankResume != 85 {
		t.Errorf("tank thresholds: got %d/%d", cfg.Control.TankFull, cfg.Control.TankResume)
	}
	if cfg.Telemetry.RecordInterval != time.Minute {
		t.Errorf("record interval: got %s", cfg.Telemetry.RecordInterval)
	}
}

func TestLoad_FileAndEnvOverrides(t *testing.T) {
	dir := writeConfig(t, `
device:
  id: "77"
control:
  moisture_low: 75
  temp_high: 30
  cooldown: 10s
auth:
  signing_key: "from-file"
  signup_key: "bin-sticker"
`)
	t.Setenv("VERMI_CONTROL_TEMP_HIGH", "31.5")

	cfg, err := Load(dir)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Device.ID != "77" {
		t.Errorf("device id: got %q", cfg.Device.ID)
	}
	if cfg.Control.MoistureLow != 75 {
		t.Errorf("moisture_low: got %v", cfg.Control.MoistureLow)
	}
	if cfg.Control.TempHigh != 31.5 {
		t.Errorf("env override temp_high: got %v", cfg.Control.TempHigh)
	}
	if cfg.Control.Cooldown != 10*time.Second {
		t.Errorf("cooldown: got %s", cfg.Control.Cooldown)
	}
	if cfg.Auth.SigningKey != "from-file" {
		t.Errorf("signing key: got %q", cfg.Auth.SigningKey)
	}
	if cfg.Auth.SignupKey != "bin-sticker" {
		t.Errorf("signup key: got %q", cfg.Auth.SignupKey)
	}
}

func TestLoad_RejectsInvertedThresholds(t *testing.T) {
	cases := map[string]string{
		"tank":     "control:\n  tank_full: 80\n  tank_resume: 85\nauth:\n  signing_key: k\n",
		"moisture": "control:\n  moisture_low: 90\n  moisture_high: 80\nauth:\n  signing_key: k\n",
		"no key":   "device:\n  id: \"1\"\n",
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			if _, err := Load(writeConfig(t, body)); err == nil {
				t.Fatalf("expected validation error")
			}
		})
	}
}
