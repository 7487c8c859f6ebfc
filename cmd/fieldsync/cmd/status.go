// SPDX-FileCopyrightText: © 2026 Agriscope Robotics
//
// SPDX-License-Identifier: Apache-2.0

package cmd

import (
	"github.com/spf13/cobra"

	"github.com/agriscope/fieldsync/sync/coordinate"
)

var statusCmd = &cobra.Command{
	Use:   "status <coordinate-path>",
	Short: "Show both-sides status of one coordinate",
	Long: `Shows what exists locally and remotely for one coordinate, for both
the raw bags and the ML export. The remote side is answered from the
inventory cache; run "fieldsync inventory refresh" for a current view.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		coord, err := coordinate.FromPath(args[0])
		if err != nil {
			return err
		}
		a, err := newApp(cmd.Context())
		if err != nil {
			return err
		}
		defer a.logger.Sync() //nolint:errcheck

		if _, err := a.inventory.FullInventory(cmd.Context(), false); err != nil {
			a.logger.Warn("inventory unavailable, remote side may be empty")
		}
		overview, err := a.discovery.Status(coord)
		if err != nil {
			return err
		}
		return render(overview)
	},
}

func init() {
	rootCmd.AddCommand(statusCmd)
}
