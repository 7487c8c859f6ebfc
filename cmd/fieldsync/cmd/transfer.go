// SPDX-FileCopyrightText: © 2026 Agriscope Robotics
//
// SPDX-License-Identifier: Apache-2.0

package cmd

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/agriscope/fieldsync/sync/config"
	"github.com/agriscope/fieldsync/sync/coordinate"
	"github.com/agriscope/fieldsync/sync/services/operations"
	"github.com/agriscope/fieldsync/sync/utils"
)

var (
	flagExecute   bool
	flagPolicy    string
	flagBags      []string
	flagFileTypes []string
)

var transferCmd = &cobra.Command{
	Use:   "transfer <operation> <coordinate-path>",
	Short: "Move bags or ML exports for one coordinate",
	Long: `Runs one transfer operation for one coordinate. Operations:

  raw-download   remote bags   -> local raw root
  raw-upload     local bags    -> remote raw bucket
  ml-download    remote export -> local ml root
  ml-upload      local export  -> remote ml bucket

Transfers are planned first: units already identical on both sides are
skipped, units with differing sizes are conflicts handled per --policy.
Without --execute only the plan is printed.`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		op := operations.Operation(args[0])
		coord, err := coordinate.FromPath(args[1])
		if err != nil {
			return err
		}

		a, err := newApp(cmd.Context())
		if err != nil {
			return err
		}
		defer a.logger.Sync() //nolint:errcheck

		policy := flagPolicy
		if policy == "" {
			policy = a.cfg.Transfer.ConflictPolicy
		}

		dryRun := !flagExecute
		if !cmd.Flags().Changed("execute") {
			dryRun = a.cfg.Transfer.DryRun
		}
		if !dryRun {
			a.transfers.SetProgress(progressHook())
		}

		result, err := a.transfers.Execute(cmd.Context(), operations.Job{
			Operation:  op,
			Coordinate: coord,
			Policy:     operations.ConflictPolicy(policy),
			DryRun:     dryRun,
			Selection: operations.Selection{
				Bags:      flagBags,
				FileTypes: flagFileTypes,
			},
		})
		if err != nil {
			return err
		}
		if err := render(result); err != nil {
			return err
		}
		if !result.OverallSuccess() {
			return fmt.Errorf("%d of %d item(s) failed", result.Failed, result.Planned)
		}
		return nil
	},
}

// progressHook prints single-line transfer progress to stderr, keeping
// stdout clean for the rendered result.
func progressHook() *config.ProgressHook {
	return &config.ProgressHook{
		OnStart: func(key string, total int64) {
			fmt.Fprintf(os.Stderr, "-> %s (%s)\n", key, utils.HumanBytes(total))
		},
		OnProgress: func(key string, written, total int64) {
			fmt.Fprintf(os.Stderr, "\r   %s / %s", utils.HumanBytes(written), utils.HumanBytes(total))
		},
		OnDone: func(key string, total int64, took time.Duration) {
			fmt.Fprintf(os.Stderr, "\r   %s in %s\n", utils.HumanBytes(total), took.Round(time.Millisecond))
		},
	}
}

func init() {
	transferCmd.Flags().BoolVar(&flagExecute, "execute", false, "actually move files instead of planning only")
	transferCmd.Flags().StringVar(&flagPolicy, "policy", "", "conflict policy: skip or overwrite")
	transferCmd.Flags().StringSliceVar(&flagBags, "bags", nil, "restrict to these bags (local names)")
	transferCmd.Flags().StringSliceVar(&flagFileTypes, "file-types", nil, "restrict ML transfers to frames and/or labels")
	rootCmd.AddCommand(transferCmd)
}
