// SPDX-FileCopyrightText: © 2026 Agriscope Robotics
//
// SPDX-License-Identifier: Apache-2.0

// Package cmd wires the sync services into the fieldsync command tree.
package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"sigs.k8s.io/yaml"

	"github.com/agriscope/fieldsync/sync/config"
	"github.com/agriscope/fieldsync/sync/coordinate"
	"github.com/agriscope/fieldsync/sync/services/discovery"
	"github.com/agriscope/fieldsync/sync/services/inventory"
	"github.com/agriscope/fieldsync/sync/services/localstate"
	"github.com/agriscope/fieldsync/sync/services/operations"
)

var (
	flagEnv     string
	flagOutput  string
	flagVerbose bool
)

var rootCmd = &cobra.Command{
	Use:   "fieldsync",
	Short: "Keep field recordings in sync between local disks and object storage",
	Long: `fieldsync keeps rosbag recordings and their ML exports consistent
between the local processing roots and the remote buckets. Every dataset is
addressed by its six-level coordinate path:

  <client>/<region>/<field>/<timeWindow>/<labelBatch>/<timestamp>`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagEnv, "env", "", "configuration environment to use")
	rootCmd.PersistentFlags().StringVarP(&flagOutput, "output", "o", "json", "output format: json or yaml (inventory info also accepts text)")
	rootCmd.PersistentFlags().BoolVarP(&flagVerbose, "verbose", "v", false, "enable debug logging")
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

// app bundles the wired services a command needs.
type app struct {
	cfg       config.Config
	logger    *zap.Logger
	paths     *coordinate.PathBuilder
	scanner   *localstate.Scanner
	inventory *inventory.Service
	transfers *operations.Service
	discovery *discovery.Service
}

// newApp loads configuration and builds the full service graph.
func newApp(ctx context.Context) (*app, error) {
	if err := config.Register(flagEnv); err != nil {
		return nil, fmt.Errorf("load configuration: %w", err)
	}
	cfg := config.FromViper()

	logger, err := newLogger(flagVerbose)
	if err != nil {
		return nil, err
	}

	paths := coordinate.NewPathBuilder(
		cfg.Local.RawRoot,
		cfg.Local.MLRoot,
		cfg.Local.ProcessedRoot,
		map[coordinate.Kind]string{
			coordinate.KindRaw: cfg.S3.RawBucket,
			coordinate.KindML:  cfg.S3.MLBucket,
		},
	)

	store, err := config.NewS3Client(ctx, cfg.S3)
	if err != nil {
		return nil, err
	}

	scanner := localstate.NewScanner(paths, logger)
	inv := inventory.NewService(store, paths, cfg.Cache, logger)

	return &app{
		cfg:       cfg,
		logger:    logger,
		paths:     paths,
		scanner:   scanner,
		inventory: inv,
		transfers: operations.NewService(store, paths, scanner, inv, cfg.Transfer, logger),
		discovery: discovery.NewService(scanner, inv, logger),
	}, nil
}

func newLogger(verbose bool) (*zap.Logger, error) {
	c := zap.NewProductionConfig()
	if verbose {
		c.Level = zap.NewAtomicLevelAt(zap.DebugLevel)
		c.Development = true
	}
	return c.Build()
}

// render prints any value in the selected output format.
func render(v any) error {
	switch flagOutput {
	case "yaml":
		data, err := yaml.Marshal(v)
		if err != nil {
			return err
		}
		fmt.Print(string(data))
	case "json", "":
		data, err := json.MarshalIndent(v, "", "  ")
		if err != nil {
			return err
		}
		fmt.Println(string(data))
	default:
		return fmt.Errorf("unknown output format %q", flagOutput)
	}
	return nil
}

func parseKind(s string) (coordinate.Kind, error) {
	switch coordinate.Kind(s) {
	case coordinate.KindRaw, coordinate.KindML:
		return coordinate.Kind(s), nil
	default:
		return "", fmt.Errorf("unknown kind %q (want raw or ml)", s)
	}
}
