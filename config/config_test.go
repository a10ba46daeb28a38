package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadDefaults(t *testing.T) {
	path := writeConfig(t, `
member:
  roleArn: arn:aws:iam::123456789012:role/zone-sync
  region: us-west-2
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	if cfg.SyncInterval != 5*time.Minute {
		t.Errorf("SyncInterval default mismatch: got %v", cfg.SyncInterval)
	}
	if cfg.MetricsAddr != ":9090" {
		t.Errorf("MetricsAddr default mismatch: got %q", cfg.MetricsAddr)
	}
	if cfg.Log.Level != "info" || cfg.Log.Env != "prod" {
		t.Errorf("Log defaults mismatch: got %+v", cfg.Log)
	}
	if cfg.Member.RoleArn != "arn:aws:iam::123456789012:role/zone-sync" || cfg.Member.Region != "us-west-2" {
		t.Errorf("Member mismatch: got %+v", cfg.Member)
	}
	if cfg.Reconcile.DryRun {
		t.Error("DryRun should default to false")
	}
}

func TestLoadEnvOverrides(t *testing.T) {
	path := writeConfig(t, `
syncInterval: 1m
member:
  roleArn: arn:aws:iam::123456789012:role/from-file
  region: us-west-2
`)

	t.Setenv("ZONE_VPC_SYNC_ROLE_ARN", "arn:aws:iam::123456789012:role/from-env")
	t.Setenv("ZONE_VPC_SYNC_REGION", "eu-central-1")
	t.Setenv("ZONE_VPC_SYNC_INTERVAL", "30s")
	t.Setenv("ZONE_VPC_SYNC_DRYRUN", "true")
	t.Setenv("ZONE_VPC_SYNC_LOG_LEVEL", "debug")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	if cfg.Member.RoleArn != "arn:aws:iam::123456789012:role/from-env" {
		t.Errorf("RoleArn override mismatch: got %q", cfg.Member.RoleArn)
	}
	if cfg.Member.Region != "eu-central-1" {
		t.Errorf("Region override mismatch: got %q", cfg.Member.Region)
	}
	if cfg.SyncInterval != 30*time.Second {
		t.Errorf("SyncInterval override mismatch: got %v", cfg.SyncInterval)
	}
	if !cfg.Reconcile.DryRun {
		t.Error("DryRun override not applied")
	}
	if cfg.Log.Level != "debug" {
		t.Errorf("Log level override mismatch: got %q", cfg.Log.Level)
	}
}

func TestLoadValidation(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{
			name: "missing role arn",
			content: `
member:
  region: us-west-2
`,
		},
		{
			name: "missing region",
			content: `
member:
  roleArn: arn:aws:iam::123456789012:role/zone-sync
`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Load(writeConfig(t, tt.content)); err == nil {
				t.Error("Expected validation error but got none")
			}
		})
	}
}
