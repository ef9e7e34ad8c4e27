// SPDX-License-Identifier: MPL-2.0

package main

import cmd "github.com/buildgraph/buildgraph/cmd/buildgraph"

func main() {
	cmd.Execute()
}
