// SPDX-FileCopyrightText: © 2026 Agriscope Robotics
//
// SPDX-License-Identifier: Apache-2.0

package config

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/viper"
	"gopkg.in/ini.v1"

	"github.com/agriscope/fieldsync/sync/utils"
)

func TestBindEnvAppliesDefaults(t *testing.T) {
	viper.Reset()
	BindEnvFromStruct(EnvDumpPrefix)

	if got := viper.GetString(utils.ConflictPolicy); got != "skip" {
		t.Fatalf("conflict_policy default = %q, want skip", got)
	}
	if got := viper.GetInt(utils.Workers); got != 4 {
		t.Fatalf("workers default = %d, want 4", got)
	}
	if !viper.GetBool(utils.DryRun) {
		t.Fatalf("dry_run must default to true")
	}
	if got := viper.GetDuration(utils.CacheMaxAge); got != 168*time.Hour {
		t.Fatalf("cache_max_age default = %v, want 168h", got)
	}
}

func TestIniWriteAndUpdate(t *testing.T) {
	iniPath := filepath.Join(t.TempDir(), "fieldsync.ini")

	viper.Reset()
	viper.Set(utils.RawRoot, "/data/raw")
	viper.Set(utils.RawBucket, "field-raw")
	viper.Set(utils.AwsAccessKeyID, "AKIA123")

	if err := WriteIniFromStruct(iniPath, "default"); err != nil {
		t.Fatalf("write ini: %v", err)
	}
	cfg, err := ini.Load(iniPath)
	if err != nil {
		t.Fatalf("load ini: %v", err)
	}
	sec := cfg.Section("default")
	if sec.Key(utils.RawRoot).String() != "/data/raw" {
		t.Fatalf("raw_root not persisted")
	}
	if cfg.Section("DEFAULT").Key("current_environment").String() != "default" {
		t.Fatalf("current_environment not recorded")
	}

	viper.Set(utils.RawBucket, "field-raw-v2")
	if err := UpdateIniFromStruct(iniPath, "default"); err != nil {
		t.Fatalf("update ini: %v", err)
	}
	cfg, err = ini.Load(iniPath)
	if err != nil {
		t.Fatalf("reload ini: %v", err)
	}
	if got := cfg.Section("default").Key(utils.RawBucket).String(); got != "field-raw-v2" {
		t.Fatalf("raw_bucket not updated, got %q", got)
	}
}

func TestLoadIniSectionOverridesDefault(t *testing.T) {
	viper.Reset()
	cfg := ini.Empty()
	cfg.Section("DEFAULT").Key(utils.RawBucket).SetValue("shared-raw")
	cfg.Section("DEFAULT").Key(utils.MLBucket).SetValue("shared-ml")
	cfg.Section("prod").Key(utils.RawBucket).SetValue("prod-raw")

	if err := loadIniSectionIntoViper(cfg, "prod"); err != nil {
		t.Fatalf("load section: %v", err)
	}
	if got := viper.GetString(utils.RawBucket); got != "prod-raw" {
		t.Fatalf("section value must win, got %q", got)
	}
	if got := viper.GetString(utils.MLBucket); got != "shared-ml" {
		t.Fatalf("DEFAULT value must fill the gaps, got %q", got)
	}
}

func TestFromViper(t *testing.T) {
	viper.Reset()
	viper.Set(utils.RawRoot, "/data/raw")
	viper.Set(utils.MLRoot, "/data/ml")
	viper.Set(utils.RawBucket, "field-raw")
	viper.Set(utils.MLBucket, "field-ml")
	viper.Set(utils.CacheFile, "/data/.cache/inventory.json")
	viper.Set(utils.CacheMaxAge, "24h")
	viper.Set(utils.ConflictPolicy, "overwrite")
	viper.Set(utils.DryRun, "false")
	viper.Set(utils.Workers, "8")

	cfg := FromViper()
	if cfg.Local.RawRoot != "/data/raw" || cfg.S3.MLBucket != "field-ml" {
		t.Fatalf("unexpected config: %+v", cfg)
	}
	if cfg.Cache.MaxAge != 24*time.Hour {
		t.Fatalf("cache max age = %v, want 24h", cfg.Cache.MaxAge)
	}
	if cfg.Transfer.ConflictPolicy != "overwrite" || cfg.Transfer.DryRun || cfg.Transfer.Workers != 8 {
		t.Fatalf("unexpected transfer config: %+v", cfg.Transfer)
	}
}
