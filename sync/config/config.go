// SPDX-FileCopyrightText: © 2026 Agriscope Robotics
//
// SPDX-License-Identifier: Apache-2.0

package config

import (
	"time"

	"github.com/spf13/viper"

	"github.com/agriscope/fieldsync/sync/utils"
)

// Config is the full configuration handed to the sync engine (no viper/INI
// types leak past this package).
type Config struct {
	Local    LocalConfig
	S3       S3Config
	Cache    CacheConfig
	Transfer TransferConfig
}

type LocalConfig struct {
	RawRoot       string
	MLRoot        string
	ProcessedRoot string
}

type S3Config struct {
	AccessKey    string
	SecretKey    string
	SessionToken string
	Region       string
	EndpointURL  string
	RawBucket    string
	MLBucket     string
}

type CacheConfig struct {
	File   string
	MaxAge time.Duration
}

type TransferConfig struct {
	ConflictPolicy string
	DryRun         bool
	Workers        int
}

// FromViper assembles a Config from the currently loaded viper state.
func FromViper() Config {
	return Config{
		Local: LocalConfig{
			RawRoot:       viper.GetString(utils.RawRoot),
			MLRoot:        viper.GetString(utils.MLRoot),
			ProcessedRoot: viper.GetString(utils.ProcessedRoot),
		},
		S3: S3Config{
			AccessKey:    viper.GetString(utils.AwsAccessKeyID),
			SecretKey:    viper.GetString(utils.AwsSecretAccessKey),
			SessionToken: viper.GetString(utils.AwsSessionToken),
			Region:       viper.GetString(utils.AwsRegion),
			EndpointURL:  viper.GetString(utils.AwsEndpointURL),
			RawBucket:    viper.GetString(utils.RawBucket),
			MLBucket:     viper.GetString(utils.MLBucket),
		},
		Cache: CacheConfig{
			File:   viper.GetString(utils.CacheFile),
			MaxAge: viper.GetDuration(utils.CacheMaxAge),
		},
		Transfer: TransferConfig{
			ConflictPolicy: viper.GetString(utils.ConflictPolicy),
			DryRun:         viper.GetBool(utils.DryRun),
			Workers:        viper.GetInt(utils.Workers),
		},
	}
}
