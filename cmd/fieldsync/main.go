// SPDX-FileCopyrightText: © 2026 Agriscope Robotics
//
// SPDX-License-Identifier: Apache-2.0

package main

import "github.com/agriscope/fieldsync/cmd/fieldsync/cmd"

func main() {
	cmd.Execute()
}
