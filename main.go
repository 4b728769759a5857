// SPDX-License-Identifier: MPL-2.0

package main

import cmd "modshim/cmd/modshim"

func main() {
	cmd.Execute()
}
