// SPDX-FileCopyrightText: © 2026 Agriscope Robotics
//
// SPDX-License-Identifier: Apache-2.0

package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/agriscope/fieldsync/sync/utils"
)

var inventoryCmd = &cobra.Command{
	Use:   "inventory",
	Short: "Manage the cached view of the remote buckets",
}

var inventoryRefreshCmd = &cobra.Command{
	Use:   "refresh",
	Short: "Rebuild the inventory from a full remote listing",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		a, err := newApp(cmd.Context())
		if err != nil {
			return err
		}
		defer a.logger.Sync() //nolint:errcheck

		if err := a.inventory.Refresh(cmd.Context()); err != nil {
			return err
		}
		return render(a.inventory.Info())
	},
}

var inventoryInfoCmd = &cobra.Command{
	Use:   "info",
	Short: "Show inventory age, size and staleness",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		a, err := newApp(cmd.Context())
		if err != nil {
			return err
		}
		defer a.logger.Sync() //nolint:errcheck

		info := a.inventory.Info()
		if flagOutput == "text" {
			fmt.Printf("last refresh: %s (%s ago)\nstale: %v\nfile size: %s\nraw coordinates: %d\nml coordinates: %d\n",
				info.LastRefresh, info.Age, info.Stale,
				utils.HumanBytes(info.FileSize), info.RawCoordinates, info.MLCoordinates)
			return nil
		}
		return render(info)
	},
}

func init() {
	inventoryCmd.AddCommand(inventoryRefreshCmd, inventoryInfoCmd)
	rootCmd.AddCommand(inventoryCmd)
}
