// SPDX-FileCopyrightText: © 2026 Agriscope Robotics
//
// SPDX-License-Identifier: Apache-2.0

package config

import (
	"bytes"
	"fmt"
	"os"
	"reflect"
	"strings"
	"time"

	"github.com/spf13/viper"
	"gopkg.in/ini.v1"

	"github.com/agriscope/fieldsync/sync/utils"
)

// EnvDumpPrefix: optional prefix for env lookup (FIELDSYNC_FOO mirrors FOO)
const EnvDumpPrefix = "FIELDSYNC"

// settings holds all logical keys. Tags:
// - vkey: Viper key
// - env: canonical env name (UPPER_SNAKE). If empty, derived from vkey
// - persist: "true" to write the key into the INI
// - default: optional default to set if key is unset
// - secret: "true" if sensitive
// - bind: "false" to NOT bind from env
type settings struct {
	RawRoot        string `vkey:"raw_root"        env:"RAW_ROOT"        persist:"true"`
	MLRoot         string `vkey:"ml_root"         env:"ML_ROOT"         persist:"true"`
	ProcessedRoot  string `vkey:"processed_root"  env:"PROCESSED_ROOT"  persist:"true"`
	RawBucket      string `vkey:"raw_bucket"      env:"RAW_BUCKET"      persist:"true"`
	MLBucket       string `vkey:"ml_bucket"       env:"ML_BUCKET"       persist:"true"`
	CacheFile      string `vkey:"cache_file"      env:"CACHE_FILE"      persist:"true"`
	CacheMaxAge    string `vkey:"cache_max_age"   env:"CACHE_MAX_AGE"   persist:"true"  default:"168h"`
	ConflictPolicy string `vkey:"conflict_policy" env:"CONFLICT_POLICY" persist:"true"  default:"skip"`
	DryRun         string `vkey:"dry_run"         env:"DRY_RUN"         persist:"true"  default:"true"`
	Workers        string `vkey:"workers"         env:"WORKERS"         persist:"true"  default:"4"`

	AwsAccessKeyID     string `vkey:"aws_access_key_id"     env:"AWS_ACCESS_KEY_ID"     persist:"true"  secret:"true"`
	AwsSecretAccessKey string `vkey:"aws_secret_access_key" env:"AWS_SECRET_ACCESS_KEY" persist:"true"  secret:"true"`
	AwsSessionToken    string `vkey:"aws_session_token"     env:"AWS_SESSION_TOKEN"     persist:"true"  secret:"true"`
	AwsRegion          string `vkey:"aws_region"            env:"AWS_REGION"            persist:"true"`
	AwsEndpointURL     string `vkey:"aws_endpoint_url"      env:"AWS_ENDPOINT_URL"      persist:"true"`
}

func getIniPath() string {
	iniPath, err := os.UserHomeDir()
	if err != nil {
		iniPath = "."
	}
	return iniPath + string(os.PathSeparator) + utils.IniName
}

// resolveEnvName: --env > "default"
func resolveEnvName(optionalEnv ...string) string {
	if len(optionalEnv) > 0 && optionalEnv[0] != "" && strings.ToLower(optionalEnv[0]) != "null" {
		return optionalEnv[0]
	}
	return "default"
}

// mirror PREFIX_FOO -> FOO (optional)
func mirrorPrefix(prefix string) {
	if prefix == "" {
		return
	}
	upPrefix := strings.ToUpper(prefix) + "_"
	for _, e := range os.Environ() {
		kv := strings.SplitN(e, "=", 2)
		if len(kv) != 2 {
			continue
		}
		name, val := kv[0], kv[1]
		if strings.HasPrefix(name, upPrefix) {
			unpref := strings.TrimPrefix(name, upPrefix)
			if os.Getenv(unpref) == "" {
				_ = os.Setenv(unpref, val)
			}
		}
	}
}

// BindEnvFromStruct binds env for all fields of settings using struct tags.
func BindEnvFromStruct(prefix string) {
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()
	mirrorPrefix(prefix)

	rt := reflect.TypeOf(settings{})
	for i := 0; i < rt.NumField(); i++ {
		f := rt.Field(i)

		key := f.Tag.Get("vkey")
		if key == "" {
			continue
		}

		if f.Tag.Get("bind") == "false" {
			if def := f.Tag.Get("default"); def != "" && !viper.IsSet(key) {
				viper.SetDefault(key, def)
			}
			continue
		}

		env := f.Tag.Get("env")
		if env == "" {
			env = strings.ToUpper(strings.ReplaceAll(key, ".", "_"))
		}
		_ = viper.BindEnv(key, env)

		if def := f.Tag.Get("default"); def != "" && !viper.IsSet(key) {
			viper.SetDefault(key, def)
		}
	}
}

// WriteIniFromStruct writes a new INI with only fields marked persist:"true".
func WriteIniFromStruct(iniPath, envName string) error {
	cfg := ini.Empty()
	cfg.Section("DEFAULT").Key("current_environment").SetValue(envName)
	sec := cfg.Section(envName)

	rt := reflect.TypeOf(settings{})
	for i := 0; i < rt.NumField(); i++ {
		f := rt.Field(i)
		if f.Tag.Get("persist") != "true" {
			continue
		}
		key := f.Tag.Get("vkey")
		if key == "" {
			continue
		}
		val := viper.GetString(key)
		if val == "" {
			continue
		}
		sec.Key(key).SetValue(val)
	}

	return cfg.SaveTo(iniPath)
}

// UpdateIniFromStruct updates or creates an INI section from current Viper
// values (persist:"true" only).
func UpdateIniFromStruct(iniPath, envName string) error {
	cfg, err := ini.Load(iniPath)
	if err != nil {
		return WriteIniFromStruct(iniPath, envName)
	}
	sec := cfg.Section(envName)

	rt := reflect.TypeOf(settings{})
	for i := 0; i < rt.NumField(); i++ {
		f := rt.Field(i)
		if f.Tag.Get("persist") != "true" {
			continue
		}
		key := f.Tag.Get("vkey")
		if key == "" {
			continue
		}
		val := viper.GetString(key)
		if val == "" {
			continue
		}
		sec.Key(key).SetValue(val)
	}

	if !cfg.Section("DEFAULT").HasKey("current_environment") {
		cfg.Section("DEFAULT").Key("current_environment").SetValue(envName)
	}
	sec.Key("updated_environment").SetValue(time.Now().UTC().Format(time.RFC3339))
	return cfg.SaveTo(iniPath)
}

// loadIniSectionIntoViper loads [DEFAULT] + [env] into Viper (TOML
// in-memory). ENV can still override on Get().
func loadIniSectionIntoViper(cfg *ini.File, env string) error {
	def := cfg.Section("DEFAULT")
	selected := def
	if env != "" && cfg.HasSection(env) {
		selected = cfg.Section(env)
	}

	merged := make(map[string]string)
	for _, k := range def.Keys() {
		merged[k.Name()] = k.Value()
	}
	if selected != nil && selected != def {
		for _, k := range selected.Keys() {
			merged[k.Name()] = k.Value()
		}
	}

	var buf bytes.Buffer
	for k, v := range merged {
		vSafe := strings.ReplaceAll(strings.ReplaceAll(v, `\`, `\\`), `"`, `\"`)
		_, _ = fmt.Fprintf(&buf, "%s = \"%s\"\n", k, vSafe)
	}
	viper.SetConfigType("toml")
	return viper.ReadConfig(&buf)
}

// Register:
// 1) bind ENV from struct (live)
// 2) load INI, or bootstrap it from the environment when missing
// 3) load active section into Viper
func Register(optionalEnv ...string) error {
	iniPath := getIniPath()

	BindEnvFromStruct(EnvDumpPrefix)

	cfg, err := ini.Load(iniPath)
	if err != nil {
		if bootErr := bootstrapFromEnv(iniPath, optionalEnv...); bootErr != nil {
			return bootErr
		}
		cfg, err = ini.Load(iniPath)
		if err != nil {
			// INI written but unreadable: ENV-only mode still works
			return nil
		}
	}

	// active env: --env > DEFAULT.current_environment > default
	env := resolveEnvName(optionalEnv...)
	if env == "default" {
		if v := cfg.Section("DEFAULT").Key("current_environment").String(); v != "" {
			env = v
		}
	}

	if err := loadIniSectionIntoViper(cfg, env); err != nil {
		return fmt.Errorf("failed to load INI into viper: %w", err)
	}
	return nil
}

// bootstrapFromEnv (when INI is missing): read all variables from OS envs
// using the settings struct, apply defaults, persist the target section.
func bootstrapFromEnv(iniPath string, optionalEnv ...string) error {
	rt := reflect.TypeOf(settings{})
	for i := 0; i < rt.NumField(); i++ {
		f := rt.Field(i)

		vkey := f.Tag.Get("vkey")
		if vkey == "" {
			continue
		}

		envName := f.Tag.Get("env")
		if envName == "" {
			envName = strings.ToUpper(strings.ReplaceAll(vkey, ".", "_"))
		}

		if val, ok := os.LookupEnv(envName); ok {
			viper.Set(vkey, val)
			continue
		}

		if def := f.Tag.Get("default"); def != "" && !viper.IsSet(vkey) {
			viper.SetDefault(vkey, def)
		}
	}

	return WriteIniFromStruct(iniPath, resolveEnvName(optionalEnv...))
}
