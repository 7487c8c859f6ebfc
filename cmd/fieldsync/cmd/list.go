// SPDX-FileCopyrightText: © 2026 Agriscope Robotics
//
// SPDX-License-Identifier: Apache-2.0

package cmd

import (
	"sort"

	"github.com/spf13/cobra"

	"github.com/agriscope/fieldsync/sync/services/discovery"
)

var listCmd = &cobra.Command{
	Use:   "list <raw|ml> [level...]",
	Short: "List coordinates or drill into the remote hierarchy",
	Long: `Without level arguments, lists every coordinate known on either side
with its per-side presence. With one or more level arguments, lists the
remote children below that partial path, e.g.

  fieldsync list raw acme north-42`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		kind, err := parseKind(args[0])
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

		if len(args) > 1 {
			return render(a.inventory.HierarchyLevel(kind, args[1:]...))
		}

		all, err := a.discovery.AllCoordinates(kind)
		if err != nil {
			return err
		}

		type row struct {
			Coordinate string             `json:"coordinate"`
			Presence   discovery.Presence `json:"presence"`
		}
		rows := make([]row, 0, len(all))
		for coord, presence := range all {
			rows = append(rows, row{Coordinate: coord.Path(), Presence: presence})
		}
		sort.Slice(rows, func(i, j int) bool { return rows[i].Coordinate < rows[j].Coordinate })
		return render(rows)
	},
}

func init() {
	rootCmd.AddCommand(listCmd)
}
