// SPDX-FileCopyrightText: © 2026 Agriscope Robotics
//
// SPDX-License-Identifier: Apache-2.0

package utils

const (
	IniName = ".fieldsync.ini"

	RawRoot        = "raw_root"
	MLRoot         = "ml_root"
	ProcessedRoot  = "processed_root"
	RawBucket      = "raw_bucket"
	MLBucket       = "ml_bucket"
	CacheFile      = "cache_file"
	CacheMaxAge    = "cache_max_age"
	ConflictPolicy = "conflict_policy"
	DryRun         = "dry_run"
	Workers        = "workers"

	AwsAccessKeyID     = "aws_access_key_id"
	AwsSecretAccessKey = "aws_secret_access_key"
	AwsSessionToken    = "aws_session_token"
	AwsRegion          = "aws_region"
	AwsEndpointURL     = "aws_endpoint_url"
)
